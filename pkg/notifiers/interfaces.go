package notifiers

import (
	"context"

	"github.com/diegogliarte/web-hunter/internal/domain"
)

// Notifier delivers a run's digest to one channel (email, webhook, queue).
// Delivery must be safe to repeat: re-sending the same digest is acceptable,
// exactly-once is not promised.
type Notifier interface {
	ID() string
	Type() string
	Notify(ctx context.Context, digest domain.Digest) error
}

// Logger defines the logging surface notifiers rely on.
type Logger interface {
	InfoObj(msg, key string, obj interface{})
	DebugObj(msg, key string, obj interface{})
	WarnObj(msg, key string, obj interface{})
	ErrorObj(msg, key string, obj interface{})
}

type noopLogger struct{}

func (noopLogger) InfoObj(string, string, interface{})  {}
func (noopLogger) DebugObj(string, string, interface{}) {}
func (noopLogger) WarnObj(string, string, interface{})  {}
func (noopLogger) ErrorObj(string, string, interface{}) {}

func ensureLogger(log Logger) Logger {
	if log == nil {
		return noopLogger{}
	}
	return log
}
