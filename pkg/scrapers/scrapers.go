package scrapers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

const (
	// Supported scraper types.
	TypeHumbleBundle = "humble_bundle"
	TypeHumbleChoice = "humble_choice"
	TypeFanatical    = "fanatical"

	defaultTimeoutSeconds = 15
)

// configFile represents the structure of the scrapers configuration file.
type configFile struct {
	Scrapers []ScraperConfig `json:"scrapers" yaml:"scrapers"`
}

// ScraperConfig represents a single scraper entry declared in config files.
type ScraperConfig struct {
	ID             string            `json:"id" yaml:"id"`
	Name           string            `json:"name" yaml:"name"`
	Type           string            `json:"type" yaml:"type"`
	Enabled        *bool             `json:"enabled" yaml:"enabled"`
	SourceURL      string            `json:"source_url" yaml:"source_url"`
	TimeoutSeconds int               `json:"timeout_seconds" yaml:"timeout_seconds"`
	Headers        map[string]string `json:"headers" yaml:"headers"`
}

// ConfigRegistry materializes scraper definitions loaded from config files.
type ConfigRegistry struct {
	mu       sync.RWMutex
	scrapers []ScraperConfig
	idx      map[string]ScraperConfig
}

// LoadRegistry loads the scraper registry from a YAML/JSON file.
func LoadRegistry(path string) (*ConfigRegistry, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("scrapers file path is empty")
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open scrapers file: %w", err)
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read scrapers file: %w", err)
	}

	fileReg, err := parseScraperRegistry(raw, filepath.Ext(path))
	if err != nil {
		return nil, err
	}
	if len(fileReg.Scrapers) == 0 {
		return nil, errors.New("scrapers file contains no scrapers entries")
	}

	reg := &ConfigRegistry{
		scrapers: make([]ScraperConfig, len(fileReg.Scrapers)),
		idx:      make(map[string]ScraperConfig, len(fileReg.Scrapers)),
	}

	for i := range fileReg.Scrapers {
		cfg := sanitizeScraperConfig(fileReg.Scrapers[i])
		if err := validateScraperConfig(cfg); err != nil {
			return nil, fmt.Errorf("scrapers[%d]: %w", i, err)
		}
		if _, exists := reg.idx[cfg.ID]; exists {
			return nil, fmt.Errorf("duplicate scraper id %q", cfg.ID)
		}
		reg.scrapers[i] = cfg
		reg.idx[cfg.ID] = cfg
	}

	return reg, nil
}

// parseScraperRegistry attempts to decode the scrapers file content.
func parseScraperRegistry(data []byte, ext string) (configFile, error) {
	ext = strings.ToLower(strings.TrimSpace(ext))
	decoders := []struct {
		name string
		ext  string
		fn   func([]byte, any) error
	}{
		{name: "yaml", ext: ".yaml", fn: yamlUnmarshal},
		{name: "yaml", ext: ".yml", fn: yamlUnmarshal},
		{name: "json", ext: ".json", fn: json.Unmarshal},
	}

	for _, d := range decoders {
		if ext != "" && ext != d.ext {
			continue
		}
		var reg configFile
		if err := d.fn(data, &reg); err == nil {
			return reg, nil
		}
	}

	return configFile{}, errors.New("scrapers file format not recognized (expected YAML or JSON)")
}

func yamlUnmarshal(data []byte, v any) error { return yaml.Unmarshal(data, v) }

// sanitizeScraperConfig trims and normalizes the scraper config fields.
func sanitizeScraperConfig(cfg ScraperConfig) ScraperConfig {
	cfg.ID = strings.TrimSpace(cfg.ID)
	cfg.Name = strings.TrimSpace(cfg.Name)
	cfg.Type = strings.ToLower(strings.TrimSpace(cfg.Type))
	cfg.SourceURL = strings.TrimSpace(cfg.SourceURL)

	if cfg.Enabled == nil {
		def := true
		cfg.Enabled = &def
	}
	if cfg.TimeoutSeconds <= 0 {
		cfg.TimeoutSeconds = defaultTimeoutSeconds
	}
	if len(cfg.Headers) > 0 {
		headers := make(map[string]string, len(cfg.Headers))
		for k, v := range cfg.Headers {
			key := strings.TrimSpace(k)
			val := strings.TrimSpace(v)
			if key == "" || val == "" {
				continue
			}
			headers[key] = val
		}
		if len(headers) == 0 {
			headers = nil
		}
		cfg.Headers = headers
	}

	return cfg
}

// validateScraperConfig checks that required fields are present.
func validateScraperConfig(cfg ScraperConfig) error {
	if cfg.ID == "" {
		return errors.New("id is required")
	}
	if cfg.Type == "" {
		return fmt.Errorf("type is required for scraper %q", cfg.ID)
	}
	if cfg.Name == "" {
		return fmt.Errorf("name is required for scraper %q", cfg.ID)
	}
	if cfg.SourceURL == "" {
		return fmt.Errorf("source_url is required for scraper %q", cfg.ID)
	}
	return nil
}

// ByID returns the scraper config by id.
func (r *ConfigRegistry) ByID(id string) (ScraperConfig, bool) {
	if r == nil {
		return ScraperConfig{}, false
	}

	id = strings.TrimSpace(id)
	if id == "" {
		return ScraperConfig{}, false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	cfg, ok := r.idx[id]
	return cfg, ok
}

// All returns all configured scrapers.
func (r *ConfigRegistry) All() []ScraperConfig {
	if r == nil {
		return nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]ScraperConfig, len(r.scrapers))
	copy(out, r.scrapers)
	return out
}

// Enabled returns scrapers that are enabled.
func (r *ConfigRegistry) Enabled() []ScraperConfig {
	if r == nil {
		return nil
	}

	all := r.All()
	if len(all) == 0 {
		return nil
	}

	out := make([]ScraperConfig, 0, len(all))
	for _, cfg := range all {
		if cfg.EnabledValue() {
			out = append(out, cfg)
		}
	}
	return out
}

// EnabledValue returns the enabled flag defaulting to true.
func (cfg ScraperConfig) EnabledValue() bool {
	if cfg.Enabled == nil {
		return true
	}
	return *cfg.Enabled
}
