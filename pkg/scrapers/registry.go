package scrapers

import (
	"fmt"
	"strings"
	"sync"
)

// Builder creates a Scraper from a config entry.
type Builder func(cfg ScraperConfig, log Logger) (Scraper, error)

// Registry maps scraper types to builders.
type Registry interface {
	Register(typ string, builder Builder)
	ScraperFor(cfg ScraperConfig, log Logger) (Scraper, error)
}

type registry struct {
	mu       sync.RWMutex
	builders map[string]Builder
}

// NewRegistry returns a registry with optional pre-registered builders.
func NewRegistry(builders map[string]Builder) Registry {
	r := &registry{
		builders: make(map[string]Builder),
	}
	for typ, b := range builders {
		r.Register(typ, b)
	}
	return r
}

// Register associates a builder with a scraper type.
func (r *registry) Register(typ string, builder Builder) {
	if typ = strings.TrimSpace(strings.ToLower(typ)); typ == "" || builder == nil {
		return
	}

	r.mu.Lock()
	r.builders[typ] = builder
	r.mu.Unlock()
}

// ScraperFor returns the scraper built for the provided config.
func (r *registry) ScraperFor(cfg ScraperConfig, log Logger) (Scraper, error) {
	if cfg.Type == "" {
		return nil, fmt.Errorf("scraper %q has no type configured", cfg.ID)
	}

	r.mu.RLock()
	builder := r.builders[strings.ToLower(cfg.Type)]
	r.mu.RUnlock()

	if builder == nil {
		return nil, fmt.Errorf("no scraper registered for type %q", cfg.Type)
	}
	return builder(cfg, log)
}

// DefaultRegistry wires up known scrapers.
func DefaultRegistry() Registry {
	builders := map[string]Builder{
		TypeHumbleBundle: newHumbleBundleScraper,
		TypeHumbleChoice: newHumbleChoiceScraper,
		TypeFanatical:    newFanaticalScraper,
	}
	return NewRegistry(builders)
}

// BuildAll instantiates scrapers for configs using the registry.
func BuildAll(reg Registry, cfgs []ScraperConfig, log Logger) ([]Scraper, error) {
	if reg == nil || len(cfgs) == 0 {
		return nil, nil
	}

	var scrapers []Scraper
	for _, cfg := range cfgs {
		s, err := reg.ScraperFor(cfg, log)
		if err != nil {
			return nil, err
		}
		scrapers = append(scrapers, s)
	}
	return scrapers, nil
}
