package storage

import (
	"fmt"
	"strings"
	"time"

	"github.com/diegogliarte/web-hunter/internal/domain"
)

// Package storage provides the durable deduplication store: the ground truth
// for "has this deal fingerprint already been reported".

// Record is a persisted listing plus its delivery state. CreatedAt is
// assigned on first insertion and never changes; Sent is the only mutable
// field and transitions false -> true exactly once.
type Record struct {
	Listing   domain.Listing `json:"listing"`
	Sent      bool           `json:"sent"`
	CreatedAt time.Time      `json:"created_at"`
}

// Store tracks reported deal listings by fingerprint.
//
// Exists returns true only for fingerprints whose record is marked sent;
// records inserted but not yet delivered do not count, so a run that crashed
// between insert and notify retries delivery on the next pass.
type Store interface {
	Close() error
	Exists(fp domain.Fingerprint) (bool, error)
	Insert(l domain.Listing) error
	MarkSent(fp domain.Fingerprint) error
}

// Reader exposes record lookups for diagnostics and tests.
type Reader interface {
	Get(fp domain.Fingerprint) (Record, bool, error)
}

// NewStore creates the configured storage backend.
func NewStore(typ, path string) (Store, error) {
	typ = strings.TrimSpace(strings.ToLower(typ))

	switch typ {
	case "", "none", "disabled":
		return noopStore{}, nil
	case "bbolt":
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("bbolt storage requires a path")
		}
		return openBolt(path)
	default:
		return nil, fmt.Errorf("unsupported storage type %q", typ)
	}
}

// noopStore treats every listing as fresh and remembers nothing. Useful for
// dry runs where notifications should always fire.
type noopStore struct{}

func (noopStore) Close() error                            { return nil }
func (noopStore) Exists(domain.Fingerprint) (bool, error) { return false, nil }
func (noopStore) Insert(domain.Listing) error             { return nil }
func (noopStore) MarkSent(domain.Fingerprint) error       { return nil }
