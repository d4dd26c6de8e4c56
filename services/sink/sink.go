package sinksvc

import (
	"net/http"

	"github.com/pkg/errors"

	"github.com/trezcool/studydash/core"
	"github.com/trezcool/studydash/core/logstore"
)

const (
	DriverHTTP    = "http"
	DriverRollbar = "rollbar"
	DriverKafka   = "kafka"
)

// New returns the remote sink selected by conf.Sink.Driver and a function releasing it.
func New(conf *core.Config) (logstore.Sink, func() error, error) {
	noop := func() error { return nil }

	switch conf.Sink.Driver {
	case DriverHTTP, "":
		return NewHTTPSink(&http.Client{Timeout: conf.Logs.RemoteTimeout}), noop, nil
	case DriverRollbar:
		s := NewRollbarSink(conf)
		return s, s.Close, nil
	case DriverKafka:
		s, err := NewKafkaSink(conf.Logs.RemoteEndpoint)
		if err != nil {
			return nil, noop, err
		}
		return s, s.Close, nil
	default:
		return nil, noop, errors.Errorf("unknown sink driver %q", conf.Sink.Driver)
	}
}
