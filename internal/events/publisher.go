// Package events publishes cart mutations to Kafka so downstream consumers
// (analytics, order preparation) can observe cart activity.
package events

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/veldrane/cartd/internal/store"
)

const (
	topic          = "cart-events"
	publishTimeout = 5 * time.Second

	EventCartChanged = "cart_changed"
	EventItemAdded   = "item_added"
)

func NewWriter(brokers ...string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
}

// Notifier implements store.Notifier by publishing each notification as a
// JSON message keyed by cart ID. Publish failures are logged, never
// propagated: notification is fire-and-forget for the store.
type Notifier struct {
	cartID string
	writer *kafka.Writer
}

func NewNotifier(writer *kafka.Writer, cartID string) *Notifier {
	return &Notifier{cartID: cartID, writer: writer}
}

type cartEvent struct {
	EventID    string    `json:"event_id"`
	CartID     string    `json:"cart_id"`
	OccurredAt time.Time `json:"occurred_at"`

	Items     []itemPayload `json:"items,omitempty"`
	ItemCount int           `json:"item_count,omitempty"`
	Subtotal  float64       `json:"subtotal,omitempty"`
	Title     string        `json:"title,omitempty"`
}

type itemPayload struct {
	VariantID string  `json:"variant_id"`
	Title     string  `json:"title"`
	UnitPrice float64 `json:"unit_price"`
	Quantity  int     `json:"quantity"`
}

func (n *Notifier) CartChanged(update store.Update) {
	event := cartEvent{
		EventID:    uuid.New().String(),
		CartID:     n.cartID,
		OccurredAt: time.Now(),
		ItemCount:  update.ItemCount,
		Subtotal:   update.Subtotal,
	}
	for _, item := range update.Items {
		event.Items = append(event.Items, itemPayload{
			VariantID: item.VariantID,
			Title:     item.Title,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
		})
	}
	n.publish(EventCartChanged, event)
}

func (n *Notifier) ItemAdded(title string) {
	n.publish(EventItemAdded, cartEvent{
		EventID:    uuid.New().String(),
		CartID:     n.cartID,
		OccurredAt: time.Now(),
		Title:      title,
	})
}

func (n *Notifier) publish(eventType string, event cartEvent) {
	msg, err := newMessage(n.cartID, eventType, event)
	if err != nil {
		log.Printf("failed to marshal %s event for cart %s: %v", eventType, n.cartID, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if err := n.writer.WriteMessages(ctx, msg); err != nil {
		log.Printf("failed to publish %s event for cart %s: %v", eventType, n.cartID, err)
	}
}

// newMessage builds the kafka message: keyed by cart ID for per-cart
// ordering, event type in a header.
func newMessage(cartID, eventType string, event cartEvent) (kafka.Message, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return kafka.Message{}, err
	}
	return kafka.Message{
		Key:   []byte(cartID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(eventType)},
		},
	}, nil
}
