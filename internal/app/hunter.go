package app

import (
	"context"
	"fmt"
	"time"

	"github.com/diegogliarte/web-hunter/internal/config"
	"github.com/diegogliarte/web-hunter/internal/logger"
	"github.com/diegogliarte/web-hunter/internal/pipeline"
	"github.com/diegogliarte/web-hunter/internal/storage"
	"github.com/diegogliarte/web-hunter/pkg/notifiers"
	"github.com/diegogliarte/web-hunter/pkg/scrapers"
)

// Hunter represents the deal-hunting runtime. It wires the scraper and
// notifier registries, the dedup store, and the pipeline, then executes one
// batch pass per invocation (or on an interval when configured).
type Hunter struct {
	cfg         *config.Config
	pipeline    *pipeline.Service
	runInterval time.Duration
	log         logger.Logger
	store       storage.Store
}

// NewHunter builds the runtime from config files. The store handle is opened
// here and released by Run on every exit path.
func NewHunter(ctx context.Context, cfg *config.Config, log logger.Logger) (*Hunter, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	scraperReg, err := scrapers.LoadRegistry(cfg.ScrapersFile)
	if err != nil {
		return nil, fmt.Errorf("load scrapers registry: %w", err)
	}
	enabledScrapers := scraperReg.Enabled()
	if len(enabledScrapers) == 0 {
		return nil, fmt.Errorf("no scrapers configured")
	}

	scraperIDs := make([]string, 0, len(enabledScrapers))
	for _, sc := range enabledScrapers {
		scraperIDs = append(scraperIDs, sc.ID)
	}
	log.InfoObj("scrapers registry loaded", "scrapers_meta", map[string]any{
		"count": len(scraperIDs),
		"ids":   scraperIDs,
	})

	builtScrapers, err := scrapers.BuildAll(scrapers.DefaultRegistry(), enabledScrapers, log)
	if err != nil {
		return nil, fmt.Errorf("build scrapers: %w", err)
	}

	notifierReg, err := notifiers.LoadRegistry(cfg.NotifiersFile)
	if err != nil {
		return nil, fmt.Errorf("load notifiers registry: %w", err)
	}
	enabledNotifiers := notifierReg.Enabled()
	if len(enabledNotifiers) == 0 {
		return nil, fmt.Errorf("no notifiers configured")
	}

	builtNotifiers, err := notifiers.BuildAll(ctx, notifiers.DefaultRegistry(), enabledNotifiers, log)
	if err != nil {
		return nil, fmt.Errorf("build notifiers: %w", err)
	}

	notifierSummaries := make([]map[string]string, 0, len(enabledNotifiers))
	for _, nc := range enabledNotifiers {
		notifierSummaries = append(notifierSummaries, map[string]string{
			"id":   nc.ID,
			"type": nc.Type,
		})
	}
	log.InfoObj("notifiers registry loaded", "notifiers_meta", map[string]any{
		"count":     len(notifierSummaries),
		"notifiers": notifierSummaries,
	})

	store, err := storage.NewStore(cfg.StorageType, cfg.BBoltPath)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}
	log.InfoObj("storage initialized", "storage_config", map[string]any{
		"type": cfg.StorageType,
		"path": cfg.BBoltPath,
	})

	return &Hunter{
		cfg:         cfg,
		pipeline:    pipeline.NewService(builtScrapers, store, builtNotifiers, log),
		runInterval: cfg.RunInterval,
		log:         log,
		store:       store,
	}, nil
}

// Run executes the pipeline. With run_interval unset this is one discrete
// batch; otherwise it repeats on a ticker until the context is cancelled.
// The store is closed on every exit path.
func (h *Hunter) Run(ctx context.Context) error {
	if h == nil || h.pipeline == nil {
		return fmt.Errorf("hunter is not initialized")
	}
	defer h.closeStore()

	if h.runInterval <= 0 {
		return h.runOnce(ctx)
	}

	if err := h.runOnce(ctx); err != nil {
		h.log.ErrorObj("initial pass failed", "error", err)
	}

	ticker := time.NewTicker(h.runInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.log.InfoObj("hunter loop exiting", "reason", ctx.Err())
			return nil
		case <-ticker.C:
			if err := h.runOnce(ctx); err != nil {
				h.log.ErrorObj("scheduled pass failed", "error", err)
			}
		}
	}
}

// runOnce performs a single pipeline pass.
func (h *Hunter) runOnce(ctx context.Context) error {
	start := time.Now()
	h.log.InfoObj("pass started", "pass_meta", map[string]any{
		"started_at": start.UTC(),
	})

	summary, err := h.pipeline.Run(ctx)
	if err != nil {
		return err
	}

	h.log.InfoObj("pass completed", "pass_meta", map[string]any{
		"new_listings": summary.NewListings,
		"failures":     summary.Failures,
		"delivered":    summary.Delivered,
		"marked_sent":  summary.MarkedSent,
		"elapsed_ms":   time.Since(start).Milliseconds(),
	})
	return nil
}

// closeStore safely closes the storage backend, logging any errors encountered.
func (h *Hunter) closeStore() {
	if h == nil || h.store == nil {
		return
	}
	if err := h.store.Close(); err != nil {
		h.log.ErrorObj("storage close failed", "error", err)
	}
}
