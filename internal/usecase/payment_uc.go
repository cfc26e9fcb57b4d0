package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Hylmii/ERP-IKODIO/internal/domain"
	"github.com/Hylmii/ERP-IKODIO/internal/pkg/id"
	publisher "github.com/Hylmii/ERP-IKODIO/internal/pub"
	"github.com/Hylmii/ERP-IKODIO/internal/repository"

	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
)

// PaymentEvent is published after a payment is confirmed.
type PaymentEvent struct {
	EventType     string    `json:"event_type"`
	PaymentNumber string    `json:"payment_number"`
	PaymentID     int64     `json:"payment_id"`
	InvoiceID     *int64    `json:"invoice_id,omitempty"`
	Amount        string    `json:"amount"`
	ConfirmedBy   string    `json:"confirmed_by"`
	Timestamp     time.Time `json:"timestamp"`
}

type PaymentUsecase struct {
	paymentRepo repository.PaymentRepository
	invoiceRepo repository.InvoiceRepository
	snowflake   *id.Snowflake
	redisClient *redis.Client
	kafkaWriter *kafka.Writer
	eventPub    *publisher.FinanceEventPublisher
}

func NewPaymentUsecase(
	paymentRepo repository.PaymentRepository,
	invoiceRepo repository.InvoiceRepository,
	snowflake *id.Snowflake,
	redisClient *redis.Client,
	kafkaWriter *kafka.Writer,
	eventPub *publisher.FinanceEventPublisher,
) *PaymentUsecase {
	return &PaymentUsecase{
		paymentRepo: paymentRepo,
		invoiceRepo: invoiceRepo,
		snowflake:   snowflake,
		redisClient: redisClient,
		kafkaWriter: kafkaWriter,
		eventPub:    eventPub,
	}
}

// ===============================
// COMMANDS
// ===============================

// Create records a pending payment, optionally against an invoice.
// Nothing on the invoice moves until the payment is confirmed.
func (uc *PaymentUsecase) Create(ctx context.Context, req *domain.PaymentCreate) (*domain.Payment, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if req.InvoiceID != nil {
		inv, err := uc.invoiceRepo.GetByID(ctx, *req.InvoiceID)
		if err != nil {
			return nil, fmt.Errorf("invoice: %w", err)
		}
		if inv.Status == domain.InvoiceStatusCancelled || inv.Status == domain.InvoiceStatusDraft {
			return nil, domain.ErrInvalidState
		}
	}

	tx, err := uc.paymentRepo.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	paymentDate := req.PaymentDate
	if paymentDate.IsZero() {
		paymentDate = time.Now()
	}

	year := paymentDate.Year()
	seq, err := uc.paymentRepo.NextDocumentSeq(ctx, tx, "PAY", year)
	if err != nil {
		return nil, err
	}

	refNumber := req.ReferenceNumber
	if refNumber == nil {
		ref := id.GenerateReference("pay")
		refNumber = &ref
	}

	p := &domain.Payment{
		ID:              uc.snowflake.Generate(),
		PaymentNumber:   id.DocumentNumber("PAY", year, seq),
		PaymentType:     req.PaymentType,
		InvoiceID:       req.InvoiceID,
		PaymentDate:     paymentDate,
		Amount:          req.Amount,
		PaymentMethod:   req.PaymentMethod,
		CashAccountID:   req.CashAccountID,
		ReferenceNumber: refNumber,
		Status:          domain.PaymentStatusPending,
		Notes:           req.Notes,
		CreatedBy:       req.CreatedBy,
	}

	if err := uc.paymentRepo.Create(ctx, tx, p); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit payment: %w", err)
	}

	uc.invalidatePaymentCaches(ctx, p.ID, p.InvoiceID)
	return p, nil
}

// Confirm settles a pending payment. When the payment references an
// invoice, payment and invoice rows lock in one transaction, so a
// double confirm finds the payment already completed and fails without
// touching the invoice. Invoice-less payments just complete.
func (uc *PaymentUsecase) Confirm(ctx context.Context, paymentID int64, confirmedBy string) (*domain.Payment, error) {
	tx, err := uc.paymentRepo.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	p, err := uc.paymentRepo.GetByIDWithLock(ctx, tx, paymentID)
	if err != nil {
		return nil, err
	}

	if p.InvoiceID != nil {
		inv, err := uc.invoiceRepo.GetByIDWithLock(ctx, tx, *p.InvoiceID)
		if err != nil {
			return nil, err
		}
		if err := p.ApplyTo(inv, time.Now()); err != nil {
			return nil, err
		}
		if err := uc.invoiceRepo.ApplyPayment(ctx, tx, inv.ID, inv.PaidAmount, inv.Status); err != nil {
			return nil, err
		}
	} else {
		if !p.Status.CanTransition(domain.PaymentStatusCompleted) {
			return nil, domain.ErrInvalidState
		}
		p.Status = domain.PaymentStatusCompleted
	}

	if err := uc.paymentRepo.MarkCompleted(ctx, tx, paymentID, confirmedBy); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit payment confirmation: %w", err)
	}

	now := time.Now()
	p.ConfirmedBy = &confirmedBy
	p.ConfirmedAt = &now

	uc.publishPaymentEvent(ctx, p, confirmedBy)
	_ = uc.eventPub.PublishPaymentConfirmed(ctx, p.ID, p.PaymentNumber, confirmedBy, p.Amount.String())
	uc.invalidatePaymentCaches(ctx, p.ID, p.InvoiceID)
	return p, nil
}

// Cancel voids a pending payment.
func (uc *PaymentUsecase) Cancel(ctx context.Context, paymentID int64) (*domain.Payment, error) {
	return uc.markTerminal(ctx, paymentID, domain.PaymentStatusCancelled)
}

// Fail records a bounced or rejected payment.
func (uc *PaymentUsecase) Fail(ctx context.Context, paymentID int64) (*domain.Payment, error) {
	return uc.markTerminal(ctx, paymentID, domain.PaymentStatusFailed)
}

func (uc *PaymentUsecase) markTerminal(ctx context.Context, paymentID int64, to domain.PaymentStatus) (*domain.Payment, error) {
	p, err := uc.paymentRepo.GetByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if !p.Status.CanTransition(to) {
		return nil, domain.ErrInvalidState
	}

	if err := uc.paymentRepo.MarkStatus(ctx, paymentID, domain.PaymentStatusPending, to); err != nil {
		return nil, err
	}
	p.Status = to

	uc.invalidatePaymentCaches(ctx, p.ID, p.InvoiceID)
	return p, nil
}

// Delete tombstones a pending payment.
func (uc *PaymentUsecase) Delete(ctx context.Context, paymentID int64) error {
	p, err := uc.paymentRepo.GetByID(ctx, paymentID)
	if err != nil {
		return err
	}
	if err := uc.paymentRepo.SoftDelete(ctx, paymentID); err != nil {
		return err
	}
	uc.invalidatePaymentCaches(ctx, p.ID, p.InvoiceID)
	return nil
}

// ===============================
// QUERIES
// ===============================

func (uc *PaymentUsecase) GetByID(ctx context.Context, paymentID int64) (*domain.Payment, error) {
	cacheKey := fmt.Sprintf("payment:id:%d", paymentID)

	var cached domain.Payment
	if cacheGet(ctx, uc.redisClient, cacheKey, &cached) {
		return &cached, nil
	}

	p, err := uc.paymentRepo.GetByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}

	cacheSet(ctx, uc.redisClient, cacheKey, p, cacheTTLDocument)
	return p, nil
}

func (uc *PaymentUsecase) List(ctx context.Context, filter *domain.PaymentFilter) ([]*domain.Payment, error) {
	cacheKey := uc.buildListCacheKey(filter)

	var cached []*domain.Payment
	if cacheGet(ctx, uc.redisClient, cacheKey, &cached) {
		return cached, nil
	}

	payments, err := uc.paymentRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	cacheSet(ctx, uc.redisClient, cacheKey, payments, cacheTTLList)
	return payments, nil
}

// ===============================
// EVENTS + CACHE HELPERS
// ===============================

func (uc *PaymentUsecase) publishPaymentEvent(ctx context.Context, p *domain.Payment, confirmedBy string) {
	if uc.kafkaWriter == nil {
		return
	}

	event := PaymentEvent{
		EventType:     "payment.confirmed",
		PaymentNumber: p.PaymentNumber,
		PaymentID:     p.ID,
		InvoiceID:     p.InvoiceID,
		Amount:        p.Amount.String(),
		ConfirmedBy:   confirmedBy,
		Timestamp:     time.Now(),
	}

	eventBytes, _ := json.Marshal(event)

	err := uc.kafkaWriter.WriteMessages(ctx, kafka.Message{
		Key:   []byte(p.PaymentNumber),
		Value: eventBytes,
		Time:  time.Now(),
	})
	if err != nil {
		fmt.Printf("[KAFKA ERROR] Failed to publish payment.confirmed for %s: %v\n", p.PaymentNumber, err)
	}
}

func (uc *PaymentUsecase) buildListCacheKey(filter *domain.PaymentFilter) string {
	key := "payment:list"
	if filter == nil {
		return key
	}
	if filter.PaymentType != nil {
		key += fmt.Sprintf(":type=%s", *filter.PaymentType)
	}
	if filter.Status != nil {
		key += fmt.Sprintf(":status=%s", *filter.Status)
	}
	if filter.InvoiceID != nil {
		key += fmt.Sprintf(":invoice=%d", *filter.InvoiceID)
	}
	if filter.DateFrom != nil {
		key += fmt.Sprintf(":from=%s", filter.DateFrom.Format("2006-01-02"))
	}
	if filter.DateTo != nil {
		key += fmt.Sprintf(":to=%s", filter.DateTo.Format("2006-01-02"))
	}
	return key
}

func (uc *PaymentUsecase) invalidatePaymentCaches(ctx context.Context, paymentID int64, invoiceID *int64) {
	keys := []string{
		fmt.Sprintf("payment:id:%d", paymentID),
		"dashboard:summary",
	}
	if invoiceID != nil {
		keys = append(keys, fmt.Sprintf("invoice:id:%d", *invoiceID))
	}
	cacheDel(ctx, uc.redisClient, keys...)
	cacheDelPattern(ctx, uc.redisClient, "payment:list*")
	cacheDelPattern(ctx, uc.redisClient, "invoice:list*")
}
