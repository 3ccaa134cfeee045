package kafka

import (
	"context"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

// MessageHandler processes one change-feed message.
type MessageHandler func(ctx context.Context, key, value []byte) error

// Consumer reads storage change events published by other storefront
// instances.
type Consumer struct {
	reader *kafka.Reader
}

func NewConsumer(brokers []string, topic, groupID string) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 10e3, // 10KB
		MaxBytes: 10e6, // 10MB
	})
	return &Consumer{reader: reader}
}

func (c *Consumer) Consume(ctx context.Context, handler MessageHandler) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			msg, err := c.reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				logrus.WithError(err).Error("reading change feed message")
				continue
			}

			if err := handler(ctx, msg.Key, msg.Value); err != nil {
				logrus.WithError(err).Error("handling change feed message")
			}
		}
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
