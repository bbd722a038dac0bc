package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/lightspeedpay/payment-service/internal/domain"
	"github.com/segmentio/kafka-go"
)

type KafkaPublisher struct {
	writer *kafka.Writer
}

func NewKafkaPublisher(brokers []string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Balancer: &kafka.LeastBytes{},
		},
	}
}

func (k *KafkaPublisher) Publish(topic string, msgs ...domain.Message) error {
	var km []kafka.Message
	for _, m := range msgs {
		km = append(km, kafka.Message{
			Key:   m.Key,
			Value: m.Value,
			Time:  time.Now(),
			Topic: topic,
		})
	}

	return k.writer.WriteMessages(context.Background(), km...)
}

func (k *KafkaPublisher) PublishTransactionEvent(topic string, event TransactionEvent) error {
	v, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return k.Publish(topic, domain.Message{Key: []byte(event.ClientID), Value: v})
}

func (k *KafkaPublisher) PublishAlert(topic string, alert DeadLetterAlert) error {
	v, err := json.Marshal(alert)
	if err != nil {
		return err
	}

	return k.Publish(topic, domain.Message{Key: []byte(alert.Queue), Value: v})
}

func (k *KafkaPublisher) Close() error {
	return k.writer.Close()
}
