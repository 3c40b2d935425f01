package loaders

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/batchline/batchline"
)

// Kafka produces each batch's first-column byte records to a topic. The
// batch goes through the type adapter, so any text- or bytes-first batch
// can be sunk here.
type Kafka struct {
	client *kgo.Client
	topic  string
	log    *slog.Logger
}

// NewKafka creates a Kafka sink for the given topic.
func NewKafka(brokers []string, topic string, log *slog.Logger) (*Kafka, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.AllowAutoTopicCreation(),
	)
	if err != nil {
		return nil, fmt.Errorf("loaders: kafka client: %w", err)
	}
	return &Kafka{client: client, topic: topic, log: log}, nil
}

func (k *Kafka) Load(ctx context.Context, batch *batchline.Batch) error {
	it, err := batchline.ByteRecords(batch)
	if err != nil {
		return err
	}
	records, err := batchline.CollectBytes(it)
	if err != nil {
		return err
	}

	kgoRecords := make([]*kgo.Record, len(records))
	for i, rec := range records {
		kgoRecords[i] = &kgo.Record{Topic: k.topic, Value: rec}
	}
	if err := k.client.ProduceSync(ctx, kgoRecords...).FirstErr(); err != nil {
		return fmt.Errorf("loaders: produce to %s: %w", k.topic, err)
	}
	k.log.Debug("produced records", "topic", k.topic, "count", len(records))
	return nil
}

func (k *Kafka) Close(ctx context.Context) error {
	k.client.Close()
	return nil
}
