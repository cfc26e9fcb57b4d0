package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/Hylmii/ERP-IKODIO/internal/domain"
	"github.com/Hylmii/ERP-IKODIO/internal/pkg/id"
	publisher "github.com/Hylmii/ERP-IKODIO/internal/pub"
	"github.com/Hylmii/ERP-IKODIO/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
)

// JournalEvent is published after an entry posts or reverses.
type JournalEvent struct {
	EventType   string    `json:"event_type"`
	EntryNumber string    `json:"entry_number"`
	EntryID     int64     `json:"entry_id"`
	PostedBy    string    `json:"posted_by,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

type JournalUsecase struct {
	journalRepo repository.JournalRepository
	accountRepo repository.AccountRepository
	snowflake   *id.Snowflake
	redisClient *redis.Client
	kafkaWriter *kafka.Writer
	eventPub    *publisher.FinanceEventPublisher
}

func NewJournalUsecase(
	journalRepo repository.JournalRepository,
	accountRepo repository.AccountRepository,
	snowflake *id.Snowflake,
	redisClient *redis.Client,
	kafkaWriter *kafka.Writer,
	eventPub *publisher.FinanceEventPublisher,
) *JournalUsecase {
	return &JournalUsecase{
		journalRepo: journalRepo,
		accountRepo: accountRepo,
		snowflake:   snowflake,
		redisClient: redisClient,
		kafkaWriter: kafkaWriter,
		eventPub:    eventPub,
	}
}

// ===============================
// VALIDATION
// ===============================

// validateLines checks every line in isolation and confirms each
// target account exists, is active and is not a header.
func (uc *JournalUsecase) validateLines(ctx context.Context, lines []domain.JournalLineCreate) error {
	if len(lines) == 0 {
		return domain.ErrNoLines
	}
	for i, l := range lines {
		if err := l.Validate(); err != nil {
			return fmt.Errorf("line %d: %w", i+1, err)
		}
		acc, err := uc.accountRepo.GetByID(ctx, l.AccountID)
		if err != nil {
			return fmt.Errorf("line %d account: %w", i+1, err)
		}
		if err := acc.AssertPostable(); err != nil {
			return fmt.Errorf("line %d account %s: %w", i+1, acc.Code, err)
		}
	}
	return nil
}

// ===============================
// DRAFT LIFECYCLE
// ===============================

// CreateDraft records an entry in draft state. Balance is not required
// until posting, but each line must already be well formed.
func (uc *JournalUsecase) CreateDraft(ctx context.Context, req *domain.JournalEntryCreate) (*domain.JournalEntry, error) {
	if req.Description == "" {
		return nil, domain.Validation("description", "required")
	}
	if req.EntryDate.IsZero() {
		return nil, domain.Validation("entry_date", "required")
	}
	if err := uc.validateLines(ctx, req.Lines); err != nil {
		return nil, err
	}

	tx, err := uc.journalRepo.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	year := req.EntryDate.Year()
	seq, err := uc.journalRepo.NextDocumentSeq(ctx, tx, "JE", year)
	if err != nil {
		return nil, err
	}

	entry := &domain.JournalEntry{
		ID:              uc.snowflake.Generate(),
		EntryNumber:     id.DocumentNumber("JE", year, seq),
		EntryDate:       req.EntryDate,
		Description:     req.Description,
		ReferenceNumber: req.ReferenceNumber,
		Status:          domain.EntryStatusDraft,
		CreatedBy:       req.CreatedBy,
	}
	for _, l := range req.Lines {
		entry.Lines = append(entry.Lines, &domain.JournalLine{
			ID:           uc.snowflake.Generate(),
			AccountID:    l.AccountID,
			Description:  l.Description,
			Debit:        l.Debit,
			Credit:       l.Credit,
			ProjectID:    l.ProjectID,
			DepartmentID: l.DepartmentID,
		})
	}

	if err := uc.journalRepo.Create(ctx, tx, entry); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit journal draft: %w", err)
	}

	uc.invalidateJournalCaches(ctx, entry)
	return entry, nil
}

// UpdateDraft rewrites the header and lines of a draft entry.
func (uc *JournalUsecase) UpdateDraft(ctx context.Context, entryID int64, req *domain.JournalEntryCreate) (*domain.JournalEntry, error) {
	entry, err := uc.journalRepo.GetByID(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if entry.Status != domain.EntryStatusDraft {
		return nil, domain.ErrInvalidState
	}
	if err := uc.validateLines(ctx, req.Lines); err != nil {
		return nil, err
	}

	entry.EntryDate = req.EntryDate
	entry.Description = req.Description
	entry.ReferenceNumber = req.ReferenceNumber

	lines := make([]*domain.JournalLine, 0, len(req.Lines))
	for _, l := range req.Lines {
		lines = append(lines, &domain.JournalLine{
			ID:           uc.snowflake.Generate(),
			AccountID:    l.AccountID,
			Description:  l.Description,
			Debit:        l.Debit,
			Credit:       l.Credit,
			ProjectID:    l.ProjectID,
			DepartmentID: l.DepartmentID,
		})
	}

	tx, err := uc.journalRepo.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if err := uc.journalRepo.UpdateDraft(ctx, tx, entry); err != nil {
		return nil, err
	}
	if err := uc.journalRepo.ReplaceLines(ctx, tx, entryID, lines); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit journal update: %w", err)
	}

	entry.Lines = lines
	uc.invalidateJournalCaches(ctx, entry)
	return entry, nil
}

// Delete tombstones a draft entry. Posted entries are immutable; use
// Reverse instead.
func (uc *JournalUsecase) Delete(ctx context.Context, entryID int64) error {
	entry, err := uc.journalRepo.GetByID(ctx, entryID)
	if err != nil {
		return err
	}
	if err := uc.journalRepo.SoftDelete(ctx, entryID); err != nil {
		return err
	}
	uc.invalidateJournalCaches(ctx, entry)
	return nil
}

// ===============================
// POSTING ENGINE
// ===============================

// Post moves a draft entry to posted and applies every line to its
// account balance, all inside one transaction. Accounts lock in id
// order so concurrent postings cannot deadlock each other.
func (uc *JournalUsecase) Post(ctx context.Context, entryID int64, postedBy string) (*domain.JournalEntry, error) {
	tx, err := uc.journalRepo.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	entry, err := uc.journalRepo.GetByIDWithLock(ctx, tx, entryID)
	if err != nil {
		return nil, err
	}
	if err := entry.ValidateForPosting(); err != nil {
		return nil, err
	}

	if err := uc.applyLines(ctx, tx, entry.Lines); err != nil {
		return nil, err
	}
	if err := uc.journalRepo.MarkPosted(ctx, tx, entryID, postedBy); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit posting: %w", err)
	}

	now := time.Now()
	entry.Status = domain.EntryStatusPosted
	entry.PostedBy = &postedBy
	entry.PostedAt = &now

	uc.publishJournalEvent(ctx, "journal.posted", entry, postedBy)
	_ = uc.eventPub.PublishJournalPosted(ctx, entry.ID, entry.EntryNumber, postedBy)
	uc.invalidateJournalCaches(ctx, entry)
	uc.invalidateAccountBalances(ctx, entry.Lines)
	return entry, nil
}

// Reverse posts a mirror-image entry and marks the original reversed,
// in one transaction. Account balances net back to their pre-posting
// values.
func (uc *JournalUsecase) Reverse(ctx context.Context, entryID int64, reversedBy string) (*domain.JournalEntry, error) {
	tx, err := uc.journalRepo.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	original, err := uc.journalRepo.GetByIDWithLock(ctx, tx, entryID)
	if err != nil {
		return nil, err
	}
	if !original.Status.CanTransition(domain.EntryStatusReversed) {
		return nil, domain.ErrInvalidState
	}

	now := time.Now()
	year := now.Year()
	seq, err := uc.journalRepo.NextDocumentSeq(ctx, tx, "JE", year)
	if err != nil {
		return nil, err
	}

	reversal := &domain.JournalEntry{
		ID:              uc.snowflake.Generate(),
		EntryNumber:     id.DocumentNumber("JE", year, seq),
		EntryDate:       now,
		Description:     fmt.Sprintf("Reversal of %s", original.EntryNumber),
		ReferenceNumber: original.ReferenceNumber,
		Status:          domain.EntryStatusDraft,
		ReversedEntryID: &original.ID,
		CreatedBy:       reversedBy,
	}
	for _, l := range original.ReversalLines() {
		reversal.Lines = append(reversal.Lines, &domain.JournalLine{
			ID:           uc.snowflake.Generate(),
			AccountID:    l.AccountID,
			Description:  l.Description,
			Debit:        l.Debit,
			Credit:       l.Credit,
			ProjectID:    l.ProjectID,
			DepartmentID: l.DepartmentID,
		})
	}

	if err := uc.journalRepo.Create(ctx, tx, reversal); err != nil {
		return nil, err
	}
	if err := uc.applyLines(ctx, tx, reversal.Lines); err != nil {
		return nil, err
	}
	if err := uc.journalRepo.MarkPosted(ctx, tx, reversal.ID, reversedBy); err != nil {
		return nil, err
	}
	if err := uc.journalRepo.MarkReversed(ctx, tx, original.ID); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit reversal: %w", err)
	}

	reversal.Status = domain.EntryStatusPosted
	reversal.PostedBy = &reversedBy
	reversal.PostedAt = &now

	uc.publishJournalEvent(ctx, "journal.reversed", original, reversedBy)
	_ = uc.eventPub.PublishJournalReversed(ctx, original.ID, original.EntryNumber, reversedBy)
	uc.invalidateJournalCaches(ctx, original)
	uc.invalidateJournalCaches(ctx, reversal)
	uc.invalidateAccountBalances(ctx, reversal.Lines)
	return reversal, nil
}

// applyLines locks every touched account in ascending id order, checks
// postability and writes the new balances.
func (uc *JournalUsecase) applyLines(ctx context.Context, tx pgx.Tx, lines []*domain.JournalLine) error {
	idSet := make(map[int64]struct{}, len(lines))
	for _, l := range lines {
		idSet[l.AccountID] = struct{}{}
	}
	accountIDs := make([]int64, 0, len(idSet))
	for accID := range idSet {
		accountIDs = append(accountIDs, accID)
	}
	sort.Slice(accountIDs, func(i, j int) bool { return accountIDs[i] < accountIDs[j] })

	accounts, err := uc.accountRepo.GetByIDsWithLock(ctx, tx, accountIDs)
	if err != nil {
		return err
	}

	for _, acc := range accounts {
		if err := acc.AssertPostable(); err != nil {
			return fmt.Errorf("account %s: %w", acc.Code, err)
		}
	}

	for _, l := range lines {
		acc := accounts[l.AccountID]
		acc.Balance = acc.ApplyLine(l.Debit, l.Credit)
	}

	for _, accID := range accountIDs {
		acc := accounts[accID]
		if err := uc.accountRepo.UpdateBalance(ctx, tx, acc.ID, acc.Balance); err != nil {
			return err
		}
	}
	return nil
}

// ===============================
// QUERIES
// ===============================

func (uc *JournalUsecase) GetByID(ctx context.Context, entryID int64) (*domain.JournalEntry, error) {
	cacheKey := fmt.Sprintf("journal:id:%d", entryID)

	var cached domain.JournalEntry
	if cacheGet(ctx, uc.redisClient, cacheKey, &cached) {
		return &cached, nil
	}

	entry, err := uc.journalRepo.GetByID(ctx, entryID)
	if err != nil {
		return nil, err
	}

	cacheSet(ctx, uc.redisClient, cacheKey, entry, cacheTTLDocument)
	return entry, nil
}

func (uc *JournalUsecase) List(ctx context.Context, filter *domain.JournalEntryFilter) ([]*domain.JournalEntry, error) {
	cacheKey := uc.buildListCacheKey(filter)

	var cached []*domain.JournalEntry
	if cacheGet(ctx, uc.redisClient, cacheKey, &cached) {
		return cached, nil
	}

	entries, err := uc.journalRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	cacheSet(ctx, uc.redisClient, cacheKey, entries, cacheTTLList)
	return entries, nil
}

func (uc *JournalUsecase) ListByAccount(ctx context.Context, accountID int64) ([]*domain.JournalLine, error) {
	return uc.journalRepo.ListByAccount(ctx, accountID)
}

// ===============================
// EVENTS + CACHE HELPERS
// ===============================

func (uc *JournalUsecase) publishJournalEvent(ctx context.Context, eventType string, entry *domain.JournalEntry, actor string) {
	if uc.kafkaWriter == nil {
		return
	}

	event := JournalEvent{
		EventType:   eventType,
		EntryNumber: entry.EntryNumber,
		EntryID:     entry.ID,
		PostedBy:    actor,
		Timestamp:   time.Now(),
	}

	eventBytes, _ := json.Marshal(event)

	err := uc.kafkaWriter.WriteMessages(ctx, kafka.Message{
		Key:   []byte(entry.EntryNumber),
		Value: eventBytes,
		Time:  time.Now(),
	})
	if err != nil {
		fmt.Printf("[KAFKA ERROR] Failed to publish %s for %s: %v\n", eventType, entry.EntryNumber, err)
	}
}

func (uc *JournalUsecase) buildListCacheKey(filter *domain.JournalEntryFilter) string {
	key := "journal:list"
	if filter == nil {
		return key
	}
	if filter.Status != nil {
		key += fmt.Sprintf(":status=%s", *filter.Status)
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

func (uc *JournalUsecase) invalidateJournalCaches(ctx context.Context, entry *domain.JournalEntry) {
	cacheDel(ctx, uc.redisClient, fmt.Sprintf("journal:id:%d", entry.ID))
	cacheDelPattern(ctx, uc.redisClient, "journal:list*")
}

func (uc *JournalUsecase) invalidateAccountBalances(ctx context.Context, lines []*domain.JournalLine) {
	for _, l := range lines {
		cacheDel(ctx, uc.redisClient, fmt.Sprintf("accounts:id:%d", l.AccountID))
	}
	cacheDelPattern(ctx, uc.redisClient, "accounts:list*")
}
