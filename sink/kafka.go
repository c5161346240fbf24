package sink

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/twmb/franz-go/pkg/kgo"

	"jobclean/repr"
)

// The part of *kgo.Client the sink uses.

type Producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
}

const (
	DefaultTopic     = "jobclean.jobs"
	kafkaBatch       = 500
	headerRunID      = "run-id"
	headerEra        = "era"
	headerSchemaVers = "schema"
	schemaVersion    = "1"
)

// One message per record on the topic, the record as a JSON object (as in the JSON file format),
// keyed by job id so that all messages for a job land in one partition.  Records without a job id
// have no key.  Headers carry the run id and the record's era; a third header versions the
// record format.

type Kafka struct {
	Producer Producer
	Topic    string
}

func NewKafkaClient(brokers []string) (*kgo.Client, error) {
	cl, err := kgo.NewClient(kgo.SeedBrokers(brokers...))
	if err != nil {
		return nil, fmt.Errorf("Failed to create Kafka client\n%w", err)
	}
	return cl, nil
}

func (k *Kafka) Name() string {
	return "kafka:" + k.topic()
}

func (k *Kafka) topic() string {
	if k.Topic == "" {
		return DefaultTopic
	}
	return k.Topic
}

// Records are produced in batches; a failed batch stops the run, with earlier batches already
// delivered.

func (k *Kafka) Write(ctx context.Context, runID uuid.UUID, ds repr.Dataset) error {
	runTag := []byte(runID.String())
	batch := make([]*kgo.Record, 0, kafkaBatch)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := k.Producer.ProduceSync(ctx, batch...).FirstErr(); err != nil {
			return fmt.Errorf("Failed to produce to %s\n%w", k.topic(), err)
		}
		batch = batch[:0]
		return nil
	}
	for i := range ds.Records {
		r := &ds.Records[i]
		rec := &kgo.Record{
			Topic: k.topic(),
			Value: appendRecordJSON(nil, r, ds.ExtraColumns),
			Headers: []kgo.RecordHeader{
				{Key: headerRunID, Value: runTag},
				{Key: headerEra, Value: []byte(r.Era)},
				{Key: headerSchemaVers, Value: []byte(schemaVersion)},
			},
		}
		if id, ok := r.JobID.Get(); ok {
			rec.Key = []byte(id)
		}
		batch = append(batch, rec)
		if len(batch) == kafkaBatch {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	return flush()
}
