// Package events publishes moderation decisions to RabbitMQ so
// downstream consumers (notifications, analytics) can react without
// coupling to the mutation path. Publishing happens after commit and
// is best-effort.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"chattala/pkg/domain"
)

// ModerationDecision describes an admin decision on a listing.
type ModerationDecision struct {
	ListingID string                 `json:"listingId"`
	OwnerID   string                 `json:"ownerId"`
	ActorID   string                 `json:"actorId"`
	From      domain.ModerationState `json:"from"`
	To        domain.ModerationState `json:"to"`
	DecidedAt time.Time              `json:"decidedAt"`
}

// Publisher emits moderation decisions.
type Publisher interface {
	PublishModerationDecision(ctx context.Context, d ModerationDecision) error
}

// AMQPPublisher publishes decisions to a topic exchange.
type AMQPPublisher struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
}

// NewAMQPPublisher connects to RabbitMQ and declares the exchange.
func NewAMQPPublisher(url, exchange string) (*AMQPPublisher, error) {
	if exchange == "" {
		exchange = "chattala.moderation"
	}
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := channel.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	return &AMQPPublisher{conn: conn, channel: channel, exchange: exchange}, nil
}

// PublishModerationDecision emits one decision with routing key
// "listing.approved" or "listing.rejected".
func (p *AMQPPublisher) PublishModerationDecision(ctx context.Context, d ModerationDecision) error {
	body, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("marshal decision: %w", err)
	}
	key := "listing." + strings.ToLower(string(d.To))
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	err = p.channel.PublishWithContext(ctx, p.exchange, key, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    d.DecidedAt,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish decision: %w", err)
	}
	return nil
}

// Close releases the channel and connection.
func (p *AMQPPublisher) Close() error {
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

// Noop discards decisions. Used when no broker is configured.
type Noop struct{}

func (Noop) PublishModerationDecision(context.Context, ModerationDecision) error {
	return nil
}
