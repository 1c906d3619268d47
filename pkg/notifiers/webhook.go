package notifiers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/diegogliarte/web-hunter/internal/domain"
	"github.com/diegogliarte/web-hunter/pkg/httpclient"
)

// webhookNotifier POSTs the digest payload as JSON to an arbitrary endpoint
// (chat webhook, internal collector, etc).
type webhookNotifier struct {
	id      string
	method  string
	url     string
	headers map[string]string
	client  *resty.Client
	log     Logger
}

func newWebhookNotifier(_ context.Context, cfg NotifierConfig, log Logger) (Notifier, error) {
	if cfg.Webhook == nil {
		return nil, fmt.Errorf("notifier %q missing webhook configuration", cfg.ID)
	}

	client := httpclient.NewRestyHTTPClient(time.Duration(cfg.Webhook.TimeoutSeconds) * time.Second)

	return &webhookNotifier{
		id:      cfg.ID,
		method:  cfg.Webhook.Method,
		url:     cfg.Webhook.URL,
		headers: cfg.Webhook.Headers,
		client:  client,
		log:     ensureLogger(log),
	}, nil
}

func (w *webhookNotifier) ID() string   { return w.id }
func (w *webhookNotifier) Type() string { return TypeWebhook }

// Notify sends the digest payload over HTTP. Any non-2xx response is a
// delivery failure.
func (w *webhookNotifier) Notify(ctx context.Context, digest domain.Digest) error {
	req := w.client.R().
		SetContext(ctx).
		SetBody(NewPayload(digest))

	if len(w.headers) > 0 {
		req.SetHeaders(w.headers)
	}
	req.SetHeader("Content-Type", "application/json")

	resp, err := req.Execute(w.method, w.url)
	if err != nil {
		return fmt.Errorf("webhook request: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("webhook response status %d: %s", resp.StatusCode(), bodySnippet(resp.Body()))
	}

	w.log.DebugObj("webhook notifier delivered digest", "notifier_webhook_delivery", map[string]any{
		"notifier_id": w.id,
	})
	return nil
}

func bodySnippet(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	if len(body) > 512 {
		body = body[:512]
	}
	return strings.TrimSpace(string(body))
}
