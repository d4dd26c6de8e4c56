package logstore

import (
	"context"

	"github.com/trezcool/studydash/core/errlog"
)

// Destination is where the remote sink ships entries, read from the Store config at capture time.
type Destination struct {
	Endpoint string
	APIKey   string
}

// Sink ships a single, freshly captured entry off the process.
// Delivery is best-effort: the Store never retries and only logs failures.
type Sink interface {
	Send(ctx context.Context, dst Destination, entry errlog.LogEntry) error
}

// DefaultEndpointer is implemented by sinks that have a destination of their own.
// Its endpoint is used when the config sets none.
type DefaultEndpointer interface {
	DefaultEndpoint() string
}
