package events

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
	log "github.com/sirupsen/logrus"
)

// KafkaForwarder republishes settlement events from the in-process bus to a
// Kafka topic so downstream consumers (notifications, analytics) can react
// without coupling to the settlement process.
type KafkaForwarder struct {
	writer *kafka.Writer
}

// NewKafkaForwarder creates a forwarder writing to the given topic
func NewKafkaForwarder(brokers []string, topic string) *KafkaForwarder {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
		BatchTimeout:           10 * time.Millisecond,
		WriteTimeout:           10 * time.Second,
	}

	return &KafkaForwarder{writer: writer}
}

// Register subscribes the forwarder to settlement events on the bus
func (f *KafkaForwarder) Register(bus *Bus) {
	bus.Subscribe(EventTypePickResolved, f.forward)
	bus.Subscribe(EventTypePackageSettled, f.forward)
}

func (f *KafkaForwarder) forward(ctx context.Context, event Event) {
	value, err := json.Marshal(event)
	if err != nil {
		log.WithError(err).WithField("eventType", event.Type()).Error("Failed to marshal event for Kafka")
		return
	}

	msg := kafka.Message{
		Key:   []byte(messageKey(event)),
		Value: value,
		Time:  time.Now(),
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type())},
		},
	}

	writeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := f.writer.WriteMessages(writeCtx, msg); err != nil {
		log.WithError(err).WithField("eventType", event.Type()).Error("Failed to publish event to Kafka")
	}
}

// messageKey keys messages by the settled entity so one pick's or package's
// events land on the same partition in order
func messageKey(event Event) string {
	switch e := event.(type) {
	case PickResolvedEvent:
		return "pick-" + strconv.FormatInt(e.PickID, 10)
	case PackageSettledEvent:
		return "package-" + strconv.FormatInt(e.PackageID, 10)
	default:
		return string(event.Type())
	}
}

// Close flushes and closes the underlying writer
func (f *KafkaForwarder) Close() error {
	return f.writer.Close()
}
