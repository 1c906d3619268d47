package notifiers

import (
	"time"

	"github.com/diegogliarte/web-hunter/internal/domain"
)

// Payload is the machine-readable digest shape sent to queue and webhook
// sinks.
type Payload struct {
	GeneratedAt time.Time                  `json:"generated_at"`
	NewListings int                        `json:"new_listings"`
	Failures    int                        `json:"failures"`
	Sources     map[string][]domain.Result `json:"sources"`
}

// NewPayload wraps the digest with counts and a timestamp.
func NewPayload(digest domain.Digest) Payload {
	listings, failures := digest.Counts()
	return Payload{
		GeneratedAt: time.Now().UTC(),
		NewListings: listings,
		Failures:    failures,
		Sources:     digest,
	}
}
