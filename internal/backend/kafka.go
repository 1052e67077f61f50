package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/segmentio/kafka-go"
)

// KafkaStream is the alternative push transport: the same event envelopes,
// consumed from a Kafka topic instead of a WebSocket. It feeds the same
// Handler as Stream, so swapping transports never touches reconciliation.
type KafkaStream struct {
	reader *kafka.Reader
	handle Handler
}

// NewKafkaStream creates a Kafka consumer for push events.
func NewKafkaStream(brokers []string, topic, groupID string, handle Handler) *KafkaStream {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID + "-events",
		MinBytes:       10e3, // 10KB
		MaxBytes:       10e6, // 10MB
		MaxWait:        1 * time.Second,
		StartOffset:    kafka.LastOffset, // the poll channel owns history
		CommitInterval: time.Second,
	})

	return &KafkaStream{
		reader: reader,
		handle: handle,
	}
}

// Run consumes messages until ctx is cancelled.
func (s *KafkaStream) Run(ctx context.Context) error {
	log.Printf("kafka stream: consuming topic %s", s.reader.Config().Topic)

	for {
		select {
		case <-ctx.Done():
			log.Println("kafka stream: shutting down")
			return s.reader.Close()
		default:
			msg, err := s.reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				log.Printf("kafka stream: read error: %v", err)
				continue
			}

			if err := s.processMessage(msg); err != nil {
				// A single bad event must not stop future updates.
				log.Printf("kafka stream: dropping message at offset %d: %v", msg.Offset, err)
			}
		}
	}
}

// processMessage decodes one envelope and hands it to the dispatcher. The
// broker's message timestamp serves as the event's logical time.
func (s *KafkaStream) processMessage(msg kafka.Message) error {
	var env struct {
		Event   string          `json:"event"`
		Payload json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(msg.Value, &env); err != nil {
		return fmt.Errorf("failed to unmarshal event envelope: %w", err)
	}

	asOf := msg.Time
	if asOf.IsZero() {
		asOf = time.Now()
	}
	s.handle(env.Event, env.Payload, asOf)
	return nil
}

// Close closes the Kafka consumer.
func (s *KafkaStream) Close() error {
	return s.reader.Close()
}
