// Package extractors provides batch sources for the engine. Every source
// produces batches whose first column is text- or bytes-typed, so the byte-
// and text-level stage variants can run directly on them.
package extractors

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/batchline/batchline"
)

// Kafka extracts one batch per tick from a consumer group subscription.
// Each record becomes one row: value (bytes, first column), key (bytes) and
// topic (text).
type Kafka struct {
	client *kgo.Client
	log    *slog.Logger
}

var kafkaSchema = batchline.Schema{Fields: []batchline.Field{
	{Name: "value", Type: batchline.TypeBytes},
	{Name: "key", Type: batchline.TypeBytes, Nullable: true},
	{Name: "topic", Type: batchline.TypeText},
}}

// NewKafka creates a Kafka source consuming the given topic as part of the
// given group.
func NewKafka(brokers []string, group, topic string, log *slog.Logger) (*Kafka, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ConsumerGroup(group),
		kgo.ConsumeTopics(topic),
	)
	if err != nil {
		return nil, fmt.Errorf("extractors: kafka client: %w", err)
	}
	return &Kafka{client: client, log: log}, nil
}

func (k *Kafka) Extract(ctx context.Context) (*batchline.Batch, error) {
	fetches := k.client.PollFetches(ctx)
	if fetches.IsClientClosed() {
		return nil, batchline.ErrSourceDrained
	}
	for _, fetchErr := range fetches.Errors() {
		if errors.Is(fetchErr.Err, context.Canceled) {
			return nil, batchline.ErrSourceDrained
		}
		return nil, fmt.Errorf("extractors: kafka fetch %s/%d: %w", fetchErr.Topic, fetchErr.Partition, fetchErr.Err)
	}

	var rows []batchline.Row
	fetches.EachRecord(func(r *kgo.Record) {
		rows = append(rows, batchline.Row{r.Value, r.Key, r.Topic})
	})
	k.log.Debug("polled records", "count", len(rows))
	return batchline.NewBatch(kafkaSchema, rows)
}

func (k *Kafka) Close(ctx context.Context) error {
	k.client.Close()
	return nil
}
