package sinksvc

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"

	"github.com/trezcool/studydash/core/errlog"
	"github.com/trezcool/studydash/core/logstore"
)

// KafkaSink publishes entries to a topic, keyed by session so a session stays ordered.
// The endpoint reads kafka://broker1:9092,broker2:9092/topic.
type KafkaSink struct {
	writer *kafka.Writer
}

var _ logstore.Sink = (*KafkaSink)(nil)

func NewKafkaSink(endpoint string) (*KafkaSink, error) {
	brokers, topic, err := parseKafkaEndpoint(endpoint)
	if err != nil {
		return nil, err
	}
	return &KafkaSink{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			BatchTimeout: 10 * time.Millisecond,
			BatchSize:    100,
		},
	}, nil
}

func parseKafkaEndpoint(endpoint string) ([]string, string, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, "", errors.Wrap(err, "parsing kafka endpoint")
	}
	if u.Scheme != "kafka" {
		return nil, "", errors.Errorf("kafka endpoint must use the kafka:// scheme, got %q", endpoint)
	}
	topic := strings.Trim(u.Path, "/")
	if u.Host == "" || topic == "" {
		return nil, "", errors.Errorf("kafka endpoint must name brokers and a topic, got %q", endpoint)
	}
	return strings.Split(u.Host, ","), topic, nil
}

func (s *KafkaSink) Send(ctx context.Context, _ logstore.Destination, entry errlog.LogEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return errors.Wrap(err, "encoding log entry")
	}
	err = s.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(entry.SessionID),
		Value: data,
	})
	if err != nil {
		return errors.Wrap(err, "writing log entry to kafka")
	}
	return nil
}

func (s *KafkaSink) Close() error {
	return s.writer.Close()
}
