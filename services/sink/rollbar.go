package sinksvc

import (
	"context"

	"github.com/rollbar/rollbar-go"

	"github.com/trezcool/studydash/core"
	"github.com/trezcool/studydash/core/errlog"
	"github.com/trezcool/studydash/core/logstore"
)

// RollbarSink reports entries as rollbar items.
// The access token and the API endpoint come from the logs config (apiKey, remoteEndpoint);
// without an endpoint, items go to the rollbar API.
type RollbarSink struct {
	client *rollbar.Client
}

var (
	_ logstore.Sink              = (*RollbarSink)(nil)
	_ logstore.DefaultEndpointer = (*RollbarSink)(nil)
)

func NewRollbarSink(conf *core.Config) *RollbarSink {
	client := rollbar.New(conf.Logs.APIKey, conf.Env, conf.Build, conf.Server.Host, "")
	if conf.Logs.RemoteEndpoint != "" {
		client.SetEndpoint(conf.Logs.RemoteEndpoint)
	}
	return &RollbarSink{client: client}
}

// DefaultEndpoint is the rollbar API, or the endpoint of the config.
func (s *RollbarSink) DefaultEndpoint() string {
	return s.client.Endpoint()
}

func rollbarLevel(s errlog.Severity) string {
	switch s {
	case errlog.SeverityCritical:
		return rollbar.CRIT
	case errlog.SeverityHigh:
		return rollbar.ERR
	case errlog.SeverityMedium:
		return rollbar.WARN
	default:
		return rollbar.INFO
	}
}

// Send queues the item; rollbar delivers asynchronously.
func (s *RollbarSink) Send(ctx context.Context, _ logstore.Destination, entry errlog.LogEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.client.MessageWithExtras(rollbarLevel(entry.Severity), entry.Message, map[string]interface{}{
		"errorId":        entry.ID,
		"source":         entry.Source,
		"sessionId":      entry.SessionID,
		"userAgent":      entry.UserAgent,
		"url":            entry.URL,
		"stack":          entry.Stack,
		"additionalData": entry.AdditionalData,
	})
	return nil
}

func (s *RollbarSink) Close() error {
	return s.client.Close()
}
