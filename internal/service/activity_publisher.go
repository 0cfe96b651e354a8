// Package service holds integrations that sit beside the request path,
// such as publishing domain events to RabbitMQ.
package service

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/qrmuseum/museum-api/internal/queue"
)

// ActivityPublisher sends ActivityEvents to a durable queue. Each publish
// opens its own connection, so a broker outage only affects the events
// published while it lasts. Publish never outlives its context.
type ActivityPublisher struct {
	url   string
	queue string
	log   *zap.Logger
}

// defaultPublishTimeout bounds Publish when ctx has no deadline.
const defaultPublishTimeout = 5 * time.Second

func NewActivityPublisher(url, queueName string, log *zap.Logger) *ActivityPublisher {
	return &ActivityPublisher{url: url, queue: queueName, log: log.Named("activity-publisher")}
}

// Publish marshals ev and publishes it as a persistent message. Errors are
// logged and returned so the caller can choose to ignore them.
func (p *ActivityPublisher) Publish(ctx context.Context, ev queue.ActivityEvent) error {
	if ev.OccurredAt == "" {
		ev.OccurredAt = time.Now().UTC().Format(time.RFC3339)
	}
	body, err := json.Marshal(ev)
	if err != nil {
		p.log.Error("marshal event failed", zap.Error(err))
		return err
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, defaultPublishTimeout)
		defer cancel()
	}
	deadline, _ := ctx.Deadline()
	wait := time.Until(deadline)
	if wait <= 0 {
		return context.DeadlineExceeded
	}

	// The deadline covers the TCP connect and the AMQP handshake.
	conn, err := amqp.DialConfig(p.url, amqp.Config{Dial: amqp.DefaultDial(wait)})
	if err != nil {
		p.log.Warn("dial failed", zap.Error(err), zap.String("event", ev.Type))
		return err
	}
	defer func() { _ = conn.Close() }()

	done := make(chan error, 1)
	go func() { done <- p.send(ctx, conn, ev.Type, body) }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		// Closing the connection unblocks a broker that stopped answering.
		_ = conn.Close()
		p.log.Warn("publish abandoned", zap.Error(ctx.Err()), zap.String("event", ev.Type))
		return ctx.Err()
	}
}

func (p *ActivityPublisher) send(ctx context.Context, conn *amqp.Connection, evType string, body []byte) error {
	ch, err := conn.Channel()
	if err != nil {
		p.log.Warn("channel open failed", zap.Error(err))
		return err
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
		p.log.Warn("queue declare failed", zap.Error(err))
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Type:         evType,
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", p.queue, false, false, pub); err != nil {
		p.log.Warn("publish failed", zap.Error(err), zap.String("event", evType))
		return err
	}
	return nil
}
