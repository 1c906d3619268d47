package notifiers

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"cloud.google.com/go/pubsub"

	"github.com/diegogliarte/web-hunter/internal/domain"
)

// pubsubNotifier publishes the digest payload to a GCP Pub/Sub topic.
type pubsubNotifier struct {
	id    string
	topic *pubsub.Topic
	log   Logger
}

func newPubSubNotifier(ctx context.Context, cfg NotifierConfig, log Logger) (Notifier, error) {
	if cfg.PubSub == nil {
		return nil, fmt.Errorf("notifier %q missing gcp_pubsub configuration", cfg.ID)
	}

	if ctx == nil {
		ctx = context.Background()
	}

	client, err := pubsub.NewClient(ctx, cfg.PubSub.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("create pubsub client: %w", err)
	}

	return &pubsubNotifier{
		id:    cfg.ID,
		topic: client.Topic(cfg.PubSub.Topic),
		log:   ensureLogger(log),
	}, nil
}

func (p *pubsubNotifier) ID() string   { return p.id }
func (p *pubsubNotifier) Type() string { return TypePubSub }

// Notify publishes the digest and waits for the server ack.
func (p *pubsubNotifier) Notify(ctx context.Context, digest domain.Digest) error {
	payload := NewPayload(digest)
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal digest payload: %w", err)
	}

	result := p.topic.Publish(ctx, &pubsub.Message{
		Data: body,
		Attributes: map[string]string{
			"new_listings": strconv.Itoa(payload.NewListings),
			"failures":     strconv.Itoa(payload.Failures),
		},
	})
	if _, err := result.Get(ctx); err != nil {
		p.log.ErrorObj("pubsub notifier publish failed", "notifier_pubsub_error", map[string]any{
			"notifier_id": p.id,
			"error":       err.Error(),
		})
		return fmt.Errorf("publish digest to pubsub: %w", err)
	}

	p.log.DebugObj("pubsub notifier delivered digest", "notifier_pubsub_delivery", map[string]any{
		"notifier_id": p.id,
	})
	return nil
}
