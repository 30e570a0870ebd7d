// Package queue_publisher provides the AMQP-backed implementation of the
// notify.Notifier interface. Errors are logged and returned so callers can
// ignore failures without interrupting the main request flow.
package queue_publisher

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/iliyamo/field-visit-api/internal/metrics"
	q "github.com/iliyamo/field-visit-api/internal/queue"
)

// Publisher submits notification jobs to RabbitMQ. It dials per publish so a
// broker restart between requests never leaves it holding a dead connection;
// publish volume here is a handful of messages per request at most.
type Publisher struct {
	URL string
	Log zerolog.Logger
}

func New(url string, log zerolog.Logger) *Publisher {
	return &Publisher{URL: url, Log: log}
}

// Notify publishes a MessageJob to the notify.message queue.
func (p *Publisher) Notify(ctx context.Context, text string, threadID int64) error {
	return p.publish(ctx, q.MessageQueue, q.MessageJob{Text: text, ThreadID: threadID})
}

// NotifyVisit publishes a VisitJob to the notify.visit queue.
func (p *Publisher) NotifyVisit(ctx context.Context, visitID uint64) error {
	return p.publish(ctx, q.VisitQueue, q.VisitJob{VisitID: visitID})
}

// publish marshals the job and sends it as a persistent delivery to the named
// durable queue. The function never panics; any error is logged and returned
// so the caller can choose to ignore it.
func (p *Publisher) publish(ctx context.Context, queueName string, job any) error {
	conn, err := amqp.Dial(p.URL)
	if err != nil {
		p.Log.Error().Err(err).Str("queue", queueName).Msg("rabbitmq: dial failed")
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		p.Log.Error().Err(err).Str("queue", queueName).Msg("rabbitmq: channel open failed")
		return err
	}
	defer func() { _ = ch.Close() }()

	// Ensure the queue exists (idempotent). Durable so jobs survive broker restarts.
	if _, err := ch.QueueDeclare(
		queueName, // name
		true,      // durable
		false,     // autoDelete
		false,     // exclusive
		false,     // noWait
		nil,       // args
	); err != nil {
		p.Log.Error().Err(err).Str("queue", queueName).Msg("rabbitmq: queue declare failed")
		return err
	}

	body, err := json.Marshal(job)
	if err != nil {
		p.Log.Error().Err(err).Str("queue", queueName).Msg("rabbitmq: marshal job failed")
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent, // store on disk
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}

	if err := ch.PublishWithContext(ctx,
		"",        // default exchange
		queueName, // routing key = queue name
		false,     // mandatory
		false,     // immediate
		pub,
	); err != nil {
		p.Log.Error().Err(err).Str("queue", queueName).Msg("rabbitmq: publish failed")
		return err
	}

	metrics.NotifyPublishedTotal.WithLabelValues(queueName).Inc()
	return nil
}
