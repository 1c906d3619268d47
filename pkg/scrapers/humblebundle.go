package scrapers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/diegogliarte/web-hunter/internal/domain"
	"github.com/diegogliarte/web-hunter/pkg/httpclient"
)

// humbleBundleCategories are the storefront sections worth reporting.
var humbleBundleCategories = []string{"books", "games", "software"}

// HumbleBundleScraper extracts active bundles from the Humble Bundle landing
// page. The page embeds its catalog as JSON in a script tag, so the scrape is
// one GET plus a goquery lookup.
type HumbleBundleScraper struct {
	id      string
	url     string
	headers map[string]string
	client  httpclient.Client
	log     Logger
}

// NewHumbleBundleScraper builds the scraper with the provided HTTP client (or default).
func NewHumbleBundleScraper(cfg ScraperConfig, client httpclient.Client, log Logger) *HumbleBundleScraper {
	if client == nil {
		client = httpclient.NewRestyClient(time.Duration(cfg.TimeoutSeconds) * time.Second)
	}
	return &HumbleBundleScraper{
		id:      cfg.ID,
		url:     cfg.SourceURL,
		headers: cfg.Headers,
		client:  client,
		log:     ensureLogger(log),
	}
}

func newHumbleBundleScraper(cfg ScraperConfig, log Logger) (Scraper, error) {
	return NewHumbleBundleScraper(cfg, nil, log), nil
}

func (s *HumbleBundleScraper) ID() string   { return s.id }
func (s *HumbleBundleScraper) Type() string { return TypeHumbleBundle }

// Scrape fetches the bundles page and converts it to results. Transport and
// parse faults degrade to Failure results; nothing escapes the boundary.
func (s *HumbleBundleScraper) Scrape(ctx context.Context) []domain.Result {
	resp, err := s.client.Get(ctx, s.url, s.headers)
	if err != nil {
		return []domain.Result{domain.FailureResult(s.id, fmt.Sprintf("fetch bundles page: %v", err), 0)}
	}
	if resp.StatusCode() != http.StatusOK {
		msg := fmt.Sprintf("bundles page returned status %d body: %s", resp.StatusCode(), responseSnippet(resp.Body()))
		return []domain.Result{domain.FailureResult(s.id, msg, resp.StatusCode())}
	}

	return s.parse(resp.Body())
}

// landingPageData mirrors the JSON embedded in script#landingPage-json-data.
type landingPageData struct {
	Data map[string]bundleCategory `json:"data"`
}

type bundleCategory struct {
	Mosaic []bundleMosaic `json:"mosaic"`
}

type bundleMosaic struct {
	Products []bundleProduct `json:"products"`
}

type bundleProduct struct {
	ProductURL string `json:"product_url"`
	TileName   string `json:"tile_name"`
	EndDate    string `json:"end_date|datetime"`
}

func (s *HumbleBundleScraper) parse(body []byte) []domain.Result {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return []domain.Result{domain.FailureResult(s.id, fmt.Sprintf("parse html: %v", err), 0)}
	}

	raw := doc.Find("script#landingPage-json-data").First().Text()
	if strings.TrimSpace(raw) == "" {
		return []domain.Result{domain.FailureResult(s.id, "landing page JSON data not found", 0)}
	}

	var page landingPageData
	if err := json.Unmarshal([]byte(raw), &page); err != nil {
		return []domain.Result{domain.FailureResult(s.id, fmt.Sprintf("decode landing page JSON: %v", err), 0)}
	}

	var results []domain.Result
	for _, category := range humbleBundleCategories {
		data, ok := page.Data[category]
		if !ok {
			s.log.WarnObj("bundle category missing from landing page", "bundle_category", map[string]any{
				"scraper_id": s.id,
				"category":   category,
			})
			continue
		}
		results = append(results, s.parseCategory(category, data)...)
	}
	return results
}

func (s *HumbleBundleScraper) parseCategory(name string, category bundleCategory) []domain.Result {
	if len(category.Mosaic) == 0 {
		return []domain.Result{domain.FailureResult(s.id, fmt.Sprintf("category %s has no mosaic data", name), 0)}
	}

	products := category.Mosaic[0].Products
	results := make([]domain.Result, 0, len(products))
	for _, product := range products {
		if strings.TrimSpace(product.TileName) == "" || strings.TrimSpace(product.ProductURL) == "" {
			results = append(results, domain.FailureResult(s.id, fmt.Sprintf("category %s has a product with missing fields", name), 0))
			continue
		}

		results = append(results, domain.ListingResult(domain.Listing{
			Source:     s.id,
			Name:       product.TileName,
			URL:        s.absoluteURL(product.ProductURL),
			Expiration: parseExpiration(product.EndDate),
		}))
	}
	return results
}

// absoluteURL resolves a product_url (usually site-relative) against the
// configured source host.
func (s *HumbleBundleScraper) absoluteURL(productURL string) string {
	if strings.HasPrefix(productURL, "http://") || strings.HasPrefix(productURL, "https://") {
		return productURL
	}

	base := s.url
	if i := strings.Index(base, "//"); i >= 0 {
		if j := strings.Index(base[i+2:], "/"); j >= 0 {
			base = base[:i+2+j]
		}
	}
	if !strings.HasPrefix(productURL, "/") {
		productURL = "/" + productURL
	}
	return base + productURL
}
