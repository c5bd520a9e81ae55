package kafka

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/segmentio/kafka-go"
)

type memWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *memWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *memWriter) Close() error { return nil }

func withWriter(w messageWriter) ProducerOption {
	return func(c *ProducerConfig) { c.writer = w }
}

func TestPublishBatchEncodesValues(t *testing.T) {
	w := &memWriter{}
	reg := prometheus.NewRegistry()
	p, err := NewProducer(WithTopic("records"), WithRegisterer(reg), withWriter(w))
	if err != nil {
		t.Fatalf("new producer: %v", err)
	}

	err = p.PublishBatch(context.Background(), []Message{
		{Key: []byte("32191"), Value: map[string]int{"Year": 2025}},
		{Key: []byte("32191"), Value: "raw"},
	})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(w.msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(w.msgs))
	}
	if string(w.msgs[0].Value) != `{"Year":2025}` || string(w.msgs[1].Value) != "raw" {
		t.Fatalf("unexpected values %q / %q", w.msgs[0].Value, w.msgs[1].Value)
	}
	if got := testutil.ToFloat64(p.metrics.msgs.WithLabelValues("records", "gzip", "ok")); got != 2 {
		t.Fatalf("expected 2 ok messages counted, got %v", got)
	}
}

func TestPublishErrorCounted(t *testing.T) {
	w := &memWriter{err: errors.New("leader not available")}
	p, err := NewProducer(WithTopic("records"), WithRegisterer(prometheus.NewRegistry()), withWriter(w))
	if err != nil {
		t.Fatalf("new producer: %v", err)
	}
	if err := p.Publish(context.Background(), []byte("k"), "v"); err == nil {
		t.Fatalf("expected error")
	}
	if got := testutil.ToFloat64(p.metrics.errs.WithLabelValues("records")); got != 1 {
		t.Fatalf("expected 1 error counted, got %v", got)
	}
}

func TestNewProducerRequiresBrokersAndTopic(t *testing.T) {
	if _, err := NewProducer(WithBrokers([]string{"localhost:9092"}), WithRegisterer(prometheus.NewRegistry())); err == nil {
		t.Fatalf("expected missing topic error")
	}
	if _, err := NewProducer(WithTopic("records"), WithRegisterer(prometheus.NewRegistry())); err == nil {
		t.Fatalf("expected missing brokers error")
	}
}
