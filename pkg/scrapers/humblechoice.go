package scrapers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/diegogliarte/web-hunter/internal/domain"
	"github.com/diegogliarte/web-hunter/pkg/httpclient"
)

// HumbleChoiceScraper reports the current month's Humble Choice games. The
// month page may simply not exist yet (404, or a redirect back to the generic
// membership page); that is normal and yields no results rather than a
// failure.
type HumbleChoiceScraper struct {
	id      string
	baseURL string
	headers map[string]string
	client  httpclient.Client
	log     Logger
	now     func() time.Time
}

// NewHumbleChoiceScraper builds the scraper with the provided HTTP client (or default).
func NewHumbleChoiceScraper(cfg ScraperConfig, client httpclient.Client, log Logger) *HumbleChoiceScraper {
	if client == nil {
		client = httpclient.NewRestyClient(time.Duration(cfg.TimeoutSeconds) * time.Second)
	}
	return &HumbleChoiceScraper{
		id:      cfg.ID,
		baseURL: strings.TrimRight(cfg.SourceURL, "/"),
		headers: cfg.Headers,
		client:  client,
		log:     ensureLogger(log),
		now:     time.Now,
	}
}

func newHumbleChoiceScraper(cfg ScraperConfig, log Logger) (Scraper, error) {
	return NewHumbleChoiceScraper(cfg, nil, log), nil
}

func (s *HumbleChoiceScraper) ID() string   { return s.id }
func (s *HumbleChoiceScraper) Type() string { return TypeHumbleChoice }

// monthURL derives the current month's page, e.g. .../membership/august-2026.
func (s *HumbleChoiceScraper) monthURL() string {
	t := s.now()
	return fmt.Sprintf("%s/%s-%d", s.baseURL, strings.ToLower(t.Month().String()), t.Year())
}

// Scrape fetches the current month's choice page and converts it to results.
func (s *HumbleChoiceScraper) Scrape(ctx context.Context) []domain.Result {
	url := s.monthURL()

	resp, err := s.client.Get(ctx, url, s.headers)
	if err != nil {
		return []domain.Result{domain.FailureResult(s.id, fmt.Sprintf("fetch choice page: %v", err), 0)}
	}

	if resp.StatusCode() == http.StatusNotFound {
		// This month's choice has not been published.
		return nil
	}
	if resp.StatusCode() != http.StatusOK {
		msg := fmt.Sprintf("choice page returned status %d body: %s", resp.StatusCode(), responseSnippet(resp.Body()))
		return []domain.Result{domain.FailureResult(s.id, msg, resp.StatusCode())}
	}
	if final := resp.FinalURL(); final != "" && final != url {
		// Redirected away from the month page; nothing published yet.
		s.log.DebugObj("choice page redirected", "choice_redirect", map[string]any{
			"scraper_id": s.id,
			"requested":  url,
			"final":      final,
		})
		return nil
	}

	return s.parse(resp.Body(), url)
}

// monthlyProductData mirrors the JSON embedded in script#webpack-monthly-product-data.
type monthlyProductData struct {
	ContentChoiceOptions struct {
		ContentChoiceData struct {
			GameData map[string]choiceGame `json:"game_data"`
		} `json:"contentChoiceData"`
	} `json:"contentChoiceOptions"`
}

type choiceGame struct {
	Title string `json:"title"`
}

func (s *HumbleChoiceScraper) parse(body []byte, url string) []domain.Result {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return []domain.Result{domain.FailureResult(s.id, fmt.Sprintf("parse html: %v", err), 0)}
	}

	raw := doc.Find("script#webpack-monthly-product-data").First().Text()
	if strings.TrimSpace(raw) == "" {
		return []domain.Result{domain.FailureResult(s.id, "monthly product JSON data not found", 0)}
	}

	var data monthlyProductData
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return []domain.Result{domain.FailureResult(s.id, fmt.Sprintf("decode monthly product JSON: %v", err), 0)}
	}

	games := data.ContentChoiceOptions.ContentChoiceData.GameData
	if len(games) == 0 {
		return []domain.Result{domain.FailureResult(s.id, "monthly product data has no games", 0)}
	}

	titles := make([]string, 0, len(games))
	for _, game := range games {
		if strings.TrimSpace(game.Title) == "" {
			continue
		}
		titles = append(titles, game.Title)
	}
	// game_data is a map; sort for a stable digest order.
	sort.Strings(titles)

	results := make([]domain.Result, 0, len(titles))
	for _, title := range titles {
		results = append(results, domain.ListingResult(domain.Listing{
			Source: s.id,
			Name:   title,
			URL:    url,
		}))
	}
	return results
}
