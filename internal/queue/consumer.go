package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/iliyamo/field-visit-api/internal/metrics"
	"github.com/iliyamo/field-visit-api/internal/model"
)

// VisitLoader loads the stored report a VisitJob refers to. Satisfied by
// repository.VisitRepo.
type VisitLoader interface {
	ByID(ctx context.Context, id uint64) (model.Visit, error)
}

// Sender delivers to the outbound channel. Satisfied by telegram.Client.
type Sender interface {
	SendMessage(ctx context.Context, text string, threadID int64) error
	SendVoice(ctx context.Context, filename string, data []byte, caption string, threadID int64) error
}

// Delivery retry policy: every job gets maxAttempts tries with a fixed delay
// in between. Jobs that still fail are logged and alerted, never requeued,
// so a poisoned message cannot wedge the queue.
const maxAttempts = 3

// Worker consumes the notify.message and notify.visit queues and performs
// the actual Telegram deliveries. It runs a reconnect loop and keeps going
// until the process exits.
type Worker struct {
	URL           string
	Visits        VisitLoader
	Sender        Sender
	VisitThreadID int64
	ErrThreadID   int64
	Log           zerolog.Logger
	RetryDelay    time.Duration // defaults to 5s; tests shrink it
}

// Run connects to the broker, declares both durable queues and consumes them
// until the connection drops, then reconnects with exponential backoff. It
// only returns if the context is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		conn, err := amqp.Dial(w.URL)
		if err != nil {
			w.Log.Warn().Err(err).Dur("retry_in", backoff).Msg("notify-worker: failed to dial broker")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect

		if err := w.consumeLoop(ctx, conn); err != nil {
			w.Log.Warn().Err(err).Msg("notify-worker: consume loop ended; reconnecting")
			_ = conn.Close()
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(2 * time.Second):
			}
		}
	}
}

func (w *Worker) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(10, 0, false); err != nil {
		w.Log.Warn().Err(err).Msg("notify-worker: set QoS failed")
	}

	for _, name := range []string{MessageQueue, VisitQueue} {
		if _, err := ch.QueueDeclare(name, true, false, false, false, nil); err != nil {
			return fmt.Errorf("queue declare %s: %w", name, err)
		}
	}

	msgs, err := ch.Consume(MessageQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", MessageQueue, err)
	}
	visits, err := ch.Consume(VisitQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", VisitQueue, err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("message deliveries channel closed")
			}
			w.process(ctx, MessageQueue, d)
		case d, ok := <-visits:
			if !ok {
				return errors.New("visit deliveries channel closed")
			}
			w.process(ctx, VisitQueue, d)
		}
	}
}

// process handles one delivery with the bounded retry policy and always
// settles it: ack on success, nack without requeue after the final failure.
func (w *Worker) process(ctx context.Context, queueName string, d amqp.Delivery) {
	err := w.withRetry(ctx, func() error {
		switch queueName {
		case MessageQueue:
			return w.handleMessage(ctx, d.Body)
		default:
			return w.handleVisit(ctx, d.Body)
		}
	})
	if err == nil {
		_ = d.Ack(false)
		return
	}
	metrics.NotifyFailuresTotal.WithLabelValues(queueName).Inc()
	w.Log.Error().Err(err).Str("queue", queueName).Msg("notify-worker: delivery failed after retries")
	w.alert(ctx, fmt.Sprintf("[ERROR] notify worker: %s delivery failed\n\nReason: %v", queueName, err))
	_ = d.Nack(false, false)
}

func (w *Worker) handleMessage(ctx context.Context, body []byte) error {
	var job MessageJob
	if err := json.Unmarshal(body, &job); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	return w.Sender.SendMessage(ctx, job.Text, job.ThreadID)
}

func (w *Worker) handleVisit(ctx context.Context, body []byte) error {
	var job VisitJob
	if err := json.Unmarshal(body, &job); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	v, err := w.Visits.ByID(ctx, job.VisitID)
	if err != nil {
		return fmt.Errorf("load visit %d: %w", job.VisitID, err)
	}
	caption := fmt.Sprintf("Visit %d | %s | %s | code %s", v.ID, v.PlaceName, v.PersonName, v.UniqueCode)
	return w.Sender.SendVoice(ctx, v.Filename, v.FileData, caption, w.VisitThreadID)
}

// withRetry runs fn up to maxAttempts times with a fixed delay between
// attempts and returns the last error.
func (w *Worker) withRetry(ctx context.Context, fn func() error) error {
	delay := w.RetryDelay
	if delay <= 0 {
		delay = 5 * time.Second
	}
	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if attempt == maxAttempts {
			break
		}
		w.Log.Warn().Err(err).Int("attempt", attempt).Msg("notify-worker: delivery attempt failed")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return err
}

// alert reports a terminal failure to the operator thread. Best effort: if
// the channel itself is down there is nothing further to do but log.
func (w *Worker) alert(ctx context.Context, text string) {
	if err := w.Sender.SendMessage(ctx, text, w.ErrThreadID); err != nil {
		w.Log.Error().Err(err).Msg("notify-worker: operator alert failed")
	}
}
