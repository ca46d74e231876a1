package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/twmb/franz-go/pkg/kgo"
)

// producer is the subset of *kgo.Client used here.
type producer interface {
	Produce(ctx context.Context, r *kgo.Record, promise func(*kgo.Record, error))
	Flush(ctx context.Context) error
	Close()
}

// KafkaSink produces events as JSON records keyed by account id so one
// account's events stay ordered within a partition.
type KafkaSink struct {
	client  producer
	topic   string
	onError func(error)
}

// NewKafkaSink connects to brokers. onError receives asynchronous delivery
// failures and may be nil.
func NewKafkaSink(brokers []string, topic string, onError func(error)) (*KafkaSink, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.AllowAutoTopicCreation(),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka client: %w", err)
	}
	return newKafkaSink(client, topic, onError), nil
}

func newKafkaSink(client producer, topic string, onError func(error)) *KafkaSink {
	if onError == nil {
		onError = func(error) {}
	}
	return &KafkaSink{client: client, topic: topic, onError: onError}
}

// Write enqueues the record and returns without waiting for the broker.
func (s *KafkaSink) Write(ctx context.Context, e Event) error {
	value, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode audit event: %w", err)
	}
	rec := &kgo.Record{
		Topic: s.topic,
		Key:   []byte(e.AccountID),
		Value: value,
		Headers: []kgo.RecordHeader{
			{Key: "category", Value: []byte(e.Category)},
			{Key: "action", Value: []byte(e.Action)},
		},
	}
	// delivery must outlive the request context
	s.client.Produce(context.WithoutCancel(ctx), rec, func(_ *kgo.Record, err error) {
		if err != nil {
			s.onError(fmt.Errorf("deliver audit event %s: %w", e.Action, err))
		}
	})
	return nil
}

// Close flushes buffered records and closes the client.
func (s *KafkaSink) Close(ctx context.Context) error {
	err := s.client.Flush(ctx)
	s.client.Close()
	return err
}
