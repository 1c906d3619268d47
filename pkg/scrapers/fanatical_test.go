package scrapers

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fanaticalConfig() ScraperConfig {
	return ScraperConfig{
		ID:             "fanatical",
		Name:           "Fanatical",
		Type:           TypeFanatical,
		SourceURL:      "https://www.fanatical.com/en/bundles",
		TimeoutSeconds: 60,
	}
}

func newFanaticalWithHrefs(hrefs []string, err error) *FanaticalScraper {
	s := NewFanaticalScraper(fanaticalConfig(), nil)
	s.runBrowser = func(context.Context, string, time.Duration) ([]string, error) {
		return hrefs, err
	}
	return s
}

func TestFanaticalScrapeBuildsListingsFromHrefs(t *testing.T) {
	s := newFanaticalWithHrefs([]string{
		"https://www.fanatical.com/en/pick-and-mix/build-your-own-slayer-bundle",
		"https://www.fanatical.com/en/bundle/mystery-star-bundle",
		"https://www.fanatical.com/en/bundle/mystery-star-bundle", // duplicate card link
	}, nil)

	results := s.Scrape(context.Background())
	if len(results) != 2 {
		t.Fatalf("got %d results, want duplicates collapsed to 2: %+v", len(results), results)
	}
	if results[0].Listing.Name != "Build Your Own Slayer Bundle" {
		t.Fatalf("slug not titled: %q", results[0].Listing.Name)
	}
	if results[1].Listing.Name != "Mystery Star Bundle" {
		t.Fatalf("slug not titled: %q", results[1].Listing.Name)
	}
	for _, r := range results {
		if r.Listing.Price != nil || r.Listing.Expiration != nil {
			t.Fatalf("bundle cards expose no price or expiration: %+v", r.Listing)
		}
	}
}

func TestFanaticalScrapeBrowserErrorBecomesFailure(t *testing.T) {
	s := newFanaticalWithHrefs(nil, errors.New("chrome not reachable"))

	results := s.Scrape(context.Background())
	if len(results) != 1 || !results[0].IsFailure() {
		t.Fatalf("browser error must yield exactly one failure: %+v", results)
	}
}

func TestFanaticalScrapeEmptyPageBecomesFailure(t *testing.T) {
	s := newFanaticalWithHrefs([]string{}, nil)

	results := s.Scrape(context.Background())
	if len(results) != 1 || !results[0].IsFailure() {
		t.Fatalf("a rendered page with no cards must yield a failure: %+v", results)
	}
}

func TestFanaticalTimeoutFloor(t *testing.T) {
	cfg := fanaticalConfig()
	cfg.TimeoutSeconds = 5
	s := NewFanaticalScraper(cfg, nil)
	if s.timeout < fanaticalDefaultTimeout {
		t.Fatalf("timeout = %v, want at least %v", s.timeout, fanaticalDefaultTimeout)
	}
}
