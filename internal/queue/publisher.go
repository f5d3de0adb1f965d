package queue

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/filmfest/catalogue-api/internal/logger"
)

const orphanQueueName = "image.orphaned"

// Publisher sends ImageOrphanedEvents to the broker. A Publisher with an
// empty URL, or a nil Publisher, silently drops events so image handlers
// never depend on the broker being up.
type Publisher struct {
	URL string
}

// NewPublisher returns a publisher for the given broker URL. An empty
// URL disables publishing.
func NewPublisher(url string) *Publisher {
	return &Publisher{URL: url}
}

// PublishOrphan publishes an event to the image.orphaned queue. The
// function never panics; any error is logged and returned so the caller
// can choose to ignore it. Messages are marked persistent.
func (p *Publisher) PublishOrphan(ctx context.Context, ev ImageOrphanedEvent) error {
	if p == nil || p.URL == "" {
		return nil
	}
	conn, err := amqp.Dial(p.URL)
	if err != nil {
		logger.Log.Errorw("janitor: dial failed", "err", err)
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		logger.Log.Errorw("janitor: channel open failed", "err", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	// Ensure the queue exists (idempotent). Durable so orphan records
	// survive broker restarts.
	if _, err := ch.QueueDeclare(orphanQueueName, true, false, false, false, nil); err != nil {
		logger.Log.Errorw("janitor: queue declare failed", "err", err)
		return err
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", orphanQueueName, false, false, pub); err != nil {
		logger.Log.Errorw("janitor: publish failed", "err", err)
		return err
	}
	return nil
}
