package scrapers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/diegogliarte/web-hunter/internal/domain"
)

const fanaticalDefaultTimeout = 45 * time.Second

// FanaticalScraper collects bundle listings from the Fanatical bundles page.
// The page is rendered client-side, so it runs a headless Chrome via chromedp
// instead of a plain GET.
type FanaticalScraper struct {
	id      string
	url     string
	timeout time.Duration
	log     Logger

	// runBrowser is swapped out in tests to avoid a real Chrome.
	runBrowser func(ctx context.Context, url string, timeout time.Duration) ([]string, error)
}

// NewFanaticalScraper builds the scraper from config.
func NewFanaticalScraper(cfg ScraperConfig, log Logger) *FanaticalScraper {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout < fanaticalDefaultTimeout {
		timeout = fanaticalDefaultTimeout
	}
	return &FanaticalScraper{
		id:         cfg.ID,
		url:        cfg.SourceURL,
		timeout:    timeout,
		log:        ensureLogger(log),
		runBrowser: collectBundleHrefs,
	}
}

func newFanaticalScraper(cfg ScraperConfig, log Logger) (Scraper, error) {
	return NewFanaticalScraper(cfg, log), nil
}

func (s *FanaticalScraper) ID() string   { return s.id }
func (s *FanaticalScraper) Type() string { return TypeFanatical }

// Scrape drives a headless browser over the bundles page and converts the
// bundle card links to listings. Names are derived from the URL slugs.
func (s *FanaticalScraper) Scrape(ctx context.Context) []domain.Result {
	hrefs, err := s.runBrowser(ctx, s.url, s.timeout)
	if err != nil {
		return []domain.Result{domain.FailureResult(s.id, fmt.Sprintf("browse bundles page: %v", err), 0)}
	}
	if len(hrefs) == 0 {
		return []domain.Result{domain.FailureResult(s.id, "bundles page rendered no bundle cards", 0)}
	}

	seen := make(map[string]bool, len(hrefs))
	results := make([]domain.Result, 0, len(hrefs))
	for _, href := range hrefs {
		href = strings.TrimSpace(href)
		if href == "" || seen[href] {
			continue
		}
		seen[href] = true

		name := titleFromSlug(href)
		if name == "" {
			results = append(results, domain.FailureResult(s.id, fmt.Sprintf("bundle card href %q has no slug", href), 0))
			continue
		}

		results = append(results, domain.ListingResult(domain.Listing{
			Source: s.id,
			Name:   name,
			URL:    href,
		}))
	}
	return results
}

// collectBundleHrefs renders the page and pulls every bundle card link.
func collectBundleHrefs(ctx context.Context, url string, timeout time.Duration) ([]string, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.WindowSize(1920, 1080),
	)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	runCtx, cancelRun := context.WithTimeout(browserCtx, timeout)
	defer cancelRun()

	var hrefs []string
	err := chromedp.Run(runCtx,
		chromedp.Navigate(url),
		chromedp.WaitVisible(`.HitCardsRow`, chromedp.ByQuery),
		chromedp.Evaluate(`Array.from(document.querySelectorAll('.HitCardContainer a')).map(a => a.href)`, &hrefs),
	)
	if err != nil {
		return nil, err
	}
	return hrefs, nil
}
