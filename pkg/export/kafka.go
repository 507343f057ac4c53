package export

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"firecrawl/pkg/firecrawl"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// PageMessage is the JSON value published for each page
type PageMessage struct {
	JobID     string             `json:"job_id"`
	URL       string             `json:"url"`
	Page      firecrawl.Document `json:"page"`
	CrawledAt time.Time          `json:"crawled_at"`
}

// KafkaSink publishes pages to a Kafka topic keyed by page key
type KafkaSink struct {
	writer messageWriter
}

// NewKafkaSink creates a sink writing to topic on the given brokers
func NewKafkaSink(brokers []string, topic string) *KafkaSink {
	return &KafkaSink{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			AllowAutoTopicCreation: false,
		},
	}
}

// NewKafkaSinkWithWriter builds a sink using a custom writer (tests).
func NewKafkaSinkWithWriter(writer messageWriter) *KafkaSink {
	return &KafkaSink{writer: writer}
}

func (k *KafkaSink) WritePage(ctx context.Context, jobID, key string, page firecrawl.Document) error {
	now := time.Now().UTC()

	payload, err := json.Marshal(PageMessage{
		JobID:     jobID,
		URL:       sourceURL(page),
		Page:      page,
		CrawledAt: now,
	})
	if err != nil {
		return err
	}

	return k.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: payload,
		Time:  now,
		Headers: []kafka.Header{
			{Key: "job_id", Value: []byte(jobID)},
		},
	})
}

func (k *KafkaSink) Close() error {
	return k.writer.Close()
}
