package scrapers

import (
	"context"

	"github.com/diegogliarte/web-hunter/internal/domain"
)

// Scraper produces deal results from one external source. Scrape never
// panics or fails across the boundary: any internal fault is converted to a
// Failure result so operators can tell "no deals today" apart from "source
// unreachable". An unreachable source yields a singleton Failure, never an
// empty slice.
type Scraper interface {
	ID() string
	Type() string
	Scrape(ctx context.Context) []domain.Result
}

// Logger defines the logging surface scrapers rely on.
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
