package analytics

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"
)

const (
	EventGameStarted   = "game_started"
	EventMovePlayed    = "move_played"
	EventComputerMoved = "computer_moved"
	EventGameFinished  = "game_finished"
)

// Event is the message body written to the topic.
type Event struct {
	Event     string         `json:"event"`
	Payload   map[string]any `json:"payload"`
	Timestamp time.Time      `json:"timestamp"`
}

// Publisher is what the server needs from a producer.
type Publisher interface {
	Publish(ctx context.Context, event string, payload map[string]any)
}

type Producer struct {
	writer *kafka.Writer
}

func NewProducer(brokers []string, topic string) *Producer {
	if len(brokers) == 0 || topic == "" {
		return nil
	}
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
		Async:                  true,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				log.Warn().Err(err).Int("messages", len(messages)).Msg("kafka publish failed")
			}
		},
	}
	return &Producer{writer: writer}
}

// Publish keys the message by gameId when present so one game stays on
// one partition.
func (p *Producer) Publish(ctx context.Context, event string, payload map[string]any) {
	if p == nil || p.writer == nil {
		return
	}
	data, err := json.Marshal(Event{Event: event, Payload: payload, Timestamp: time.Now().UTC()})
	if err != nil {
		log.Error().Err(err).Str("event", event).Msg("encode event")
		return
	}
	msg := kafka.Message{Value: data}
	if id, ok := payload["gameId"].(string); ok {
		msg.Key = []byte(id)
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		log.Warn().Err(err).Str("event", event).Msg("kafka publish failed")
	}
}

func (p *Producer) Close() {
	if p == nil || p.writer == nil {
		return
	}
	_ = p.writer.Close()
}
