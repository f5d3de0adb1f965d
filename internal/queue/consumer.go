package queue

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/filmfest/catalogue-api/internal/logger"
	"github.com/filmfest/catalogue-api/internal/storage"
)

// StartJanitor connects to the broker, declares the image.orphaned queue
// (durable) and consumes events, removing the named files from the image
// store. It runs a reconnect loop with exponential backoff and keeps
// running across broker restarts; malformed messages are rejected without
// requeue so a bad payload cannot wedge the queue. Intended to be run in
// its own goroutine.
func StartJanitor(url string, store *storage.ImageStore) {
	if url == "" {
		return
	}
	backoff := time.Second
	for {
		conn, err := amqp.Dial(url)
		if err != nil {
			logger.Log.Warnw("janitor: failed to dial broker", "err", err, "retry_in", backoff)
			time.Sleep(backoff)
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect

		if err := consumeLoop(conn, store); err != nil {
			logger.Log.Warnw("janitor: consume loop ended", "err", err)
			time.Sleep(2 * time.Second)
		}
	}
}

func consumeLoop(conn *amqp.Connection, store *storage.ImageStore) error {
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(orphanQueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	deliveries, err := ch.Consume(orphanQueueName, "image-janitor", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume: %w", err)
	}

	for d := range deliveries {
		var ev ImageOrphanedEvent
		if err := json.Unmarshal(d.Body, &ev); err != nil {
			logger.Log.Errorw("janitor: bad payload", "err", err)
			_ = d.Reject(false)
			continue
		}
		// Only bare filenames are valid; anything with a path component
		// is rejected so the janitor can never escape the image dir.
		if ev.Filename == "" || ev.Filename != filepath.Base(ev.Filename) {
			logger.Log.Errorw("janitor: refusing suspicious filename", "filename", ev.Filename)
			_ = d.Reject(false)
			continue
		}
		if err := store.Remove(ev.Filename); err != nil {
			logger.Log.Warnw("janitor: remove failed, requeueing", "filename", ev.Filename, "err", err)
			_ = d.Nack(false, true)
			continue
		}
		logger.Log.Infow("janitor: removed orphaned image", "filename", ev.Filename, "reason", ev.Reason)
		_ = d.Ack(false)
	}
	return fmt.Errorf("delivery channel closed")
}
