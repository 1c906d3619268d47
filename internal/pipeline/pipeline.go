package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/diegogliarte/web-hunter/internal/domain"
	"github.com/diegogliarte/web-hunter/internal/logger"
	"github.com/diegogliarte/web-hunter/internal/storage"
	"github.com/diegogliarte/web-hunter/pkg/notifiers"
	"github.com/diegogliarte/web-hunter/pkg/scrapers"
)

// Service coordinates one pipeline pass: collect results from every scraper,
// filter against the dedup store, persist fresh listings, group them into a
// digest, fan the digest out to every notifier, and mark listings sent.
//
// Failure policy: a faulting scraper never blocks other scrapers (its fault
// becomes a Failure entry in the digest), a storage error drops only the
// affected listing, and a failing notifier never stops delivery to the other
// notifiers. Listings are marked sent only when every notifier delivered,
// so a partially failed run re-delivers everything next pass rather than
// silently losing a notification.
type Service struct {
	scrapers  []scrapers.Scraper
	notifiers []notifiers.Notifier
	store     storage.Store
	log       logger.Logger
}

// Summary reports what a pass did.
type Summary struct {
	NewListings int
	Failures    int
	Delivered   int
	MarkedSent  int
}

// NewService wires the coordinator. The store handle is owned by the caller
// and must outlive the run.
func NewService(scr []scrapers.Scraper, store storage.Store, nots []notifiers.Notifier, log logger.Logger) *Service {
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Service{
		scrapers:  scr,
		notifiers: nots,
		store:     store,
		log:       log,
	}
}

// Run executes one complete pass. The returned error aggregates notifier
// delivery failures; scraper and per-listing storage faults are absorbed into
// the digest and logs per the failure policy.
func (s *Service) Run(ctx context.Context) (Summary, error) {
	if s == nil || s.store == nil {
		return Summary{}, fmt.Errorf("pipeline service is not initialized")
	}

	digest := domain.Digest{}
	for _, sc := range s.scrapers {
		results := s.collect(ctx, sc)
		kept := s.filterAndPersist(results)
		if len(kept) > 0 {
			digest[sc.ID()] = kept
		}
	}

	newListings, failures := digest.Counts()
	summary := Summary{NewListings: newListings, Failures: failures}

	if len(digest) == 0 {
		s.log.InfoObj("no new data found", "pipeline_result", map[string]any{
			"scrapers_count": len(s.scrapers),
		})
		return summary, nil
	}

	s.log.InfoObj("digest assembled", "digest_meta", map[string]any{
		"sources":      digest.Sources(),
		"new_listings": newListings,
		"failures":     failures,
	})

	delivered, errs := s.notify(ctx, digest)
	summary.Delivered = delivered

	// Mark-sent only when every notifier succeeded: a partial failure leaves
	// everything unsent so the next run re-delivers to all channels.
	if len(errs) == 0 && delivered > 0 {
		summary.MarkedSent = s.markSent(digest)
	}

	return summary, errors.Join(errs...)
}

// collect invokes one scraper with panic isolation: a fault inside the
// scraper becomes a Failure result attributed to it, and never prevents the
// remaining scrapers from running.
func (s *Service) collect(ctx context.Context, sc scrapers.Scraper) (results []domain.Result) {
	defer func() {
		if r := recover(); r != nil {
			s.log.ErrorObj("scraper panicked", "scraper_panic", map[string]any{
				"scraper_id": sc.ID(),
				"panic":      fmt.Sprint(r),
			})
			results = []domain.Result{domain.FailureResult(sc.ID(), fmt.Sprintf("scraper panic: %v", r), 0)}
		}
	}()

	results = sc.Scrape(ctx)

	s.log.InfoObj("scraper completed", "scraper_result", map[string]any{
		"scraper_id": sc.ID(),
		"results":    len(results),
	})
	return results
}

// filterAndPersist keeps failures unconditionally and keeps listings that are
// not yet known to the store, inserting each kept listing before it may enter
// the digest. A listing whose insert (or existence check) fails is dropped
// from the digest: data that was not durably recorded is not reported, and it
// will be retried on the next pass.
func (s *Service) filterAndPersist(results []domain.Result) []domain.Result {
	kept := make([]domain.Result, 0, len(results))
	for _, r := range results {
		if r.IsFailure() {
			kept = append(kept, r)
			continue
		}
		if r.Listing == nil {
			continue
		}

		fp := r.Listing.Fingerprint()
		exists, err := s.store.Exists(fp)
		if err != nil {
			s.log.WarnObj("dedup check failed; listing dropped", "storage_error", map[string]any{
				"source": r.Source,
				"name":   r.Listing.Name,
				"error":  err.Error(),
			})
			continue
		}
		if exists {
			continue
		}

		if err := s.store.Insert(*r.Listing); err != nil {
			s.log.WarnObj("listing insert failed; listing dropped", "storage_error", map[string]any{
				"source": r.Source,
				"name":   r.Listing.Name,
				"error":  err.Error(),
			})
			continue
		}
		kept = append(kept, r)
	}
	return kept
}

// notify delivers the digest to every notifier, isolating failures so one
// broken channel cannot starve the others.
func (s *Service) notify(ctx context.Context, digest domain.Digest) (int, []error) {
	delivered := 0
	var errs []error
	for _, n := range s.notifiers {
		if err := n.Notify(ctx, digest); err != nil {
			errs = append(errs, fmt.Errorf("%s notifier[%s]: %w", n.Type(), n.ID(), err))
			s.log.ErrorObj("notifier delivery failed", "notifier_error", map[string]any{
				"notifier_id": n.ID(),
				"type":        n.Type(),
				"error":       err.Error(),
			})
			continue
		}
		delivered++
	}
	return delivered, errs
}

// markSent flips the sent flag for every listing in the digest. MarkSent is
// idempotent, so repeating this after a crash is harmless.
func (s *Service) markSent(digest domain.Digest) int {
	marked := 0
	for _, l := range digest.Listings() {
		if err := s.store.MarkSent(l.Fingerprint()); err != nil {
			s.log.ErrorObj("mark sent failed", "storage_error", map[string]any{
				"source": l.Source,
				"name":   l.Name,
				"error":  err.Error(),
			})
			continue
		}
		marked++
	}
	return marked
}
