package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	FinanceEventsChannel = "finance_events"
)

// FinanceEventPublisher pushes document lifecycle events onto a redis
// channel for realtime consumers (dashboards, notification workers).
// Kafka carries the durable integration events; this channel is
// best-effort fan-out.
type FinanceEventPublisher struct {
	rdb *redis.Client
}

func NewFinanceEventPublisher(rdb *redis.Client) *FinanceEventPublisher {
	return &FinanceEventPublisher{rdb: rdb}
}

type FinanceEvent struct {
	EventType      string    `json:"event_type"` // journal.posted, journal.reversed, payment.confirmed
	DocumentNumber string    `json:"document_number"`
	DocumentID     int64     `json:"document_id"`
	Actor          string    `json:"actor,omitempty"`
	Amount         string    `json:"amount,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

// Publish sends a finance event. Returns an error only on marshal or
// transport failure; callers treat it as advisory.
func (p *FinanceEventPublisher) Publish(ctx context.Context, event *FinanceEvent) error {
	if p == nil || p.rdb == nil {
		return nil
	}
	event.Timestamp = time.Now()

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := p.rdb.Publish(ctx, FinanceEventsChannel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	log.Printf("[FinanceEvent] Published: %s for %s", event.EventType, event.DocumentNumber)
	return nil
}

func (p *FinanceEventPublisher) PublishJournalPosted(ctx context.Context, entryID int64, entryNumber, postedBy string) error {
	return p.Publish(ctx, &FinanceEvent{
		EventType:      "journal.posted",
		DocumentNumber: entryNumber,
		DocumentID:     entryID,
		Actor:          postedBy,
	})
}

func (p *FinanceEventPublisher) PublishJournalReversed(ctx context.Context, entryID int64, entryNumber, reversedBy string) error {
	return p.Publish(ctx, &FinanceEvent{
		EventType:      "journal.reversed",
		DocumentNumber: entryNumber,
		DocumentID:     entryID,
		Actor:          reversedBy,
	})
}

func (p *FinanceEventPublisher) PublishPaymentConfirmed(ctx context.Context, paymentID int64, paymentNumber, confirmedBy, amount string) error {
	return p.Publish(ctx, &FinanceEvent{
		EventType:      "payment.confirmed",
		DocumentNumber: paymentNumber,
		DocumentID:     paymentID,
		Actor:          confirmedBy,
		Amount:         amount,
	})
}
