// Package sinksvc ships captured log entries off the process.
package sinksvc

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"io/ioutil"
	"net/http"

	"github.com/pkg/errors"

	"github.com/trezcool/studydash/core/errlog"
	"github.com/trezcool/studydash/core/logstore"
)

// HTTPSink POSTs each entry as JSON to the destination endpoint,
// with a bearer token when an API key is configured. The response body is ignored.
type HTTPSink struct {
	client *http.Client
}

var _ logstore.Sink = (*HTTPSink)(nil)

func NewHTTPSink(client *http.Client) *HTTPSink {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPSink{client: client}
}

func (s *HTTPSink) Send(ctx context.Context, dst logstore.Destination, entry errlog.LogEntry) error {
	body, err := json.Marshal(entry)
	if err != nil {
		return errors.Wrap(err, "encoding log entry")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, dst.Endpoint, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "building remote sink request")
	}
	req.Header.Set("Content-Type", "application/json")
	if dst.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+dst.APIKey)
	}

	res, err := s.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "posting log entry")
	}
	defer func() { _ = res.Body.Close() }()
	_, _ = io.Copy(ioutil.Discard, res.Body)

	if res.StatusCode >= http.StatusBadRequest {
		return errors.Errorf("remote sink responded with status %d", res.StatusCode)
	}
	return nil
}
