package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/Hylmii/ERP-IKODIO/internal/domain"
	"github.com/Hylmii/ERP-IKODIO/internal/pkg/id"
	"github.com/Hylmii/ERP-IKODIO/internal/repository"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

type InvoiceUsecase struct {
	invoiceRepo repository.InvoiceRepository
	snowflake   *id.Snowflake
	redisClient *redis.Client
}

func NewInvoiceUsecase(
	invoiceRepo repository.InvoiceRepository,
	snowflake *id.Snowflake,
	redisClient *redis.Client,
) *InvoiceUsecase {
	return &InvoiceUsecase{
		invoiceRepo: invoiceRepo,
		snowflake:   snowflake,
		redisClient: redisClient,
	}
}

// ===============================
// VALIDATION
// ===============================

func (uc *InvoiceUsecase) validateCreate(req *domain.InvoiceCreate) error {
	if !req.InvoiceType.IsValid() {
		return domain.Validation("invoice_type", "unknown type")
	}
	if req.InvoiceDate.IsZero() {
		return domain.Validation("invoice_date", "required")
	}
	if req.DueDate.IsZero() {
		return domain.Validation("due_date", "required")
	}
	if req.DueDate.Before(req.InvoiceDate) {
		return domain.Validation("due_date", "before invoice date")
	}
	if req.DiscountAmount.IsNegative() {
		return domain.Validation("discount_amount", "must not be negative")
	}
	if req.DiscountAmount.Exponent() < -2 {
		return domain.Validation("discount_amount", "more than two decimal places")
	}
	if len(req.Lines) == 0 {
		return domain.Validation("lines", "at least one line required")
	}
	for i, l := range req.Lines {
		if err := l.Validate(); err != nil {
			return fmt.Errorf("line %d: %w", i+1, err)
		}
	}
	return nil
}

// ===============================
// COMMANDS
// ===============================

// Create drafts an invoice. Subtotal, tax and total are derived from
// the lines; paid amount starts at zero.
func (uc *InvoiceUsecase) Create(ctx context.Context, req *domain.InvoiceCreate) (*domain.Invoice, error) {
	if err := uc.validateCreate(req); err != nil {
		return nil, err
	}

	tx, err := uc.invoiceRepo.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	year := req.InvoiceDate.Year()
	seq, err := uc.invoiceRepo.NextDocumentSeq(ctx, tx, "INV", year)
	if err != nil {
		return nil, err
	}

	subtotal, tax, total := domain.ComputeTotals(req.Lines, req.DiscountAmount)
	if total.IsNegative() {
		return nil, domain.Validation("discount_amount", "exceeds subtotal plus tax")
	}

	inv := &domain.Invoice{
		ID:             uc.snowflake.Generate(),
		InvoiceNumber:  id.DocumentNumber("INV", year, seq),
		InvoiceType:    req.InvoiceType,
		ClientID:       req.ClientID,
		ProjectID:      req.ProjectID,
		InvoiceDate:    req.InvoiceDate,
		DueDate:        req.DueDate,
		Status:         domain.InvoiceStatusDraft,
		Subtotal:       subtotal,
		TaxAmount:      tax,
		DiscountAmount: req.DiscountAmount,
		TotalAmount:    total,
		PaidAmount:     decimal.Zero,
		PaymentTerms:   req.PaymentTerms,
		Notes:          req.Notes,
		CreatedBy:      req.CreatedBy,
	}
	for _, l := range req.Lines {
		inv.Lines = append(inv.Lines, &domain.InvoiceLine{
			ID:          uc.snowflake.Generate(),
			Description: l.Description,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
			DiscountPct: l.DiscountPct,
			TaxRate:     l.TaxRate,
			Amount:      l.Net(),
			AccountID:   l.AccountID,
		})
	}

	if err := uc.invoiceRepo.Create(ctx, tx, inv); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit invoice: %w", err)
	}

	uc.invalidateInvoiceCaches(ctx, inv.ID)
	return inv, nil
}

// UpdateDraft rewrites a draft invoice and rederives its totals.
func (uc *InvoiceUsecase) UpdateDraft(ctx context.Context, invoiceID int64, req *domain.InvoiceCreate) (*domain.Invoice, error) {
	if err := uc.validateCreate(req); err != nil {
		return nil, err
	}

	inv, err := uc.invoiceRepo.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if inv.Status != domain.InvoiceStatusDraft {
		return nil, domain.ErrInvalidState
	}

	subtotal, tax, total := domain.ComputeTotals(req.Lines, req.DiscountAmount)
	if total.IsNegative() {
		return nil, domain.Validation("discount_amount", "exceeds subtotal plus tax")
	}
	inv.ClientID = req.ClientID
	inv.ProjectID = req.ProjectID
	inv.InvoiceDate = req.InvoiceDate
	inv.DueDate = req.DueDate
	inv.Subtotal = subtotal
	inv.TaxAmount = tax
	inv.DiscountAmount = req.DiscountAmount
	inv.TotalAmount = total
	inv.PaymentTerms = req.PaymentTerms
	inv.Notes = req.Notes

	inv.Lines = nil
	for _, l := range req.Lines {
		inv.Lines = append(inv.Lines, &domain.InvoiceLine{
			ID:          uc.snowflake.Generate(),
			Description: l.Description,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
			DiscountPct: l.DiscountPct,
			TaxRate:     l.TaxRate,
			Amount:      l.Net(),
			AccountID:   l.AccountID,
		})
	}

	tx, err := uc.invoiceRepo.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if err := uc.invoiceRepo.UpdateDraft(ctx, tx, inv); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit invoice update: %w", err)
	}

	uc.invalidateInvoiceCaches(ctx, inv.ID)
	return inv, nil
}

// Send marks a draft invoice as issued to the client.
func (uc *InvoiceUsecase) Send(ctx context.Context, invoiceID int64) (*domain.Invoice, error) {
	inv, err := uc.invoiceRepo.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if !inv.CanSend() {
		return nil, domain.ErrInvalidState
	}

	if err := uc.invoiceRepo.UpdateStatus(ctx, invoiceID, domain.InvoiceStatusSent); err != nil {
		return nil, err
	}
	inv.Status = domain.InvoiceStatusSent

	uc.invalidateInvoiceCaches(ctx, invoiceID)
	return inv, nil
}

// Cancel voids an unpaid invoice. Cancelled is terminal.
func (uc *InvoiceUsecase) Cancel(ctx context.Context, invoiceID int64) (*domain.Invoice, error) {
	inv, err := uc.invoiceRepo.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if !inv.CanCancel() {
		return nil, domain.ErrInvalidState
	}

	if err := uc.invoiceRepo.UpdateStatus(ctx, invoiceID, domain.InvoiceStatusCancelled); err != nil {
		return nil, err
	}
	inv.Status = domain.InvoiceStatusCancelled

	uc.invalidateInvoiceCaches(ctx, invoiceID)
	return inv, nil
}

// Delete tombstones an invoice unless a completed payment references it.
func (uc *InvoiceUsecase) Delete(ctx context.Context, invoiceID int64) error {
	if _, err := uc.invoiceRepo.GetByID(ctx, invoiceID); err != nil {
		return err
	}

	hasPayments, err := uc.invoiceRepo.HasCompletedPayments(ctx, invoiceID)
	if err != nil {
		return err
	}
	if hasPayments {
		return domain.ErrInvoiceHasPayments
	}

	if err := uc.invoiceRepo.SoftDelete(ctx, invoiceID); err != nil {
		return err
	}

	uc.invalidateInvoiceCaches(ctx, invoiceID)
	return nil
}

// ===============================
// QUERIES
// ===============================

// GetByID returns the invoice with its status refreshed against the
// clock, so an invoice past due reads as overdue without a scheduler.
func (uc *InvoiceUsecase) GetByID(ctx context.Context, invoiceID int64) (*domain.Invoice, error) {
	cacheKey := fmt.Sprintf("invoice:id:%d", invoiceID)

	var cached domain.Invoice
	if cacheGet(ctx, uc.redisClient, cacheKey, &cached) {
		cached.Status = cached.RecomputeStatus(time.Now())
		return &cached, nil
	}

	inv, err := uc.invoiceRepo.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	uc.refreshStatus(ctx, inv)

	cacheSet(ctx, uc.redisClient, cacheKey, inv, cacheTTLDocument)
	return inv, nil
}

func (uc *InvoiceUsecase) List(ctx context.Context, filter *domain.InvoiceFilter) ([]*domain.Invoice, error) {
	cacheKey := uc.buildListCacheKey(filter)

	var cached []*domain.Invoice
	if cacheGet(ctx, uc.redisClient, cacheKey, &cached) {
		now := time.Now()
		for _, inv := range cached {
			inv.Status = inv.RecomputeStatus(now)
		}
		return cached, nil
	}

	invoices, err := uc.invoiceRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	for _, inv := range invoices {
		uc.refreshStatus(ctx, inv)
	}

	cacheSet(ctx, uc.redisClient, cacheKey, invoices, cacheTTLList)
	return invoices, nil
}

// refreshStatus persists a derived status change noticed at read time,
// e.g. sent -> overdue once the due date passes.
func (uc *InvoiceUsecase) refreshStatus(ctx context.Context, inv *domain.Invoice) {
	derived := inv.RecomputeStatus(time.Now())
	if derived == inv.Status {
		return
	}
	if err := uc.invoiceRepo.UpdateStatus(ctx, inv.ID, derived); err == nil {
		inv.Status = derived
	}
}

// ===============================
// CACHE HELPERS
// ===============================

func (uc *InvoiceUsecase) buildListCacheKey(filter *domain.InvoiceFilter) string {
	key := "invoice:list"
	if filter == nil {
		return key
	}
	if filter.InvoiceType != nil {
		key += fmt.Sprintf(":type=%s", *filter.InvoiceType)
	}
	if filter.Status != nil {
		key += fmt.Sprintf(":status=%s", *filter.Status)
	}
	if filter.ClientID != nil {
		key += fmt.Sprintf(":client=%s", *filter.ClientID)
	}
	if filter.DateFrom != nil {
		key += fmt.Sprintf(":from=%s", filter.DateFrom.Format("2006-01-02"))
	}
	if filter.DateTo != nil {
		key += fmt.Sprintf(":to=%s", filter.DateTo.Format("2006-01-02"))
	}
	if filter.Search != nil {
		key += fmt.Sprintf(":q=%s", *filter.Search)
	}
	return key
}

func (uc *InvoiceUsecase) invalidateInvoiceCaches(ctx context.Context, invoiceID int64) {
	cacheDel(ctx, uc.redisClient, fmt.Sprintf("invoice:id:%d", invoiceID))
	cacheDelPattern(ctx, uc.redisClient, "invoice:list*")
	cacheDel(ctx, uc.redisClient, "dashboard:summary")
}
