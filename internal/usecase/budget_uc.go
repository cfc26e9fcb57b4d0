package usecase

import (
	"context"
	"fmt"

	"github.com/Hylmii/ERP-IKODIO/internal/domain"
	"github.com/Hylmii/ERP-IKODIO/internal/pkg/id"
	"github.com/Hylmii/ERP-IKODIO/internal/repository"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

type BudgetUsecase struct {
	budgetRepo  repository.BudgetRepository
	accountRepo repository.AccountRepository
	snowflake   *id.Snowflake
	redisClient *redis.Client
}

func NewBudgetUsecase(
	budgetRepo repository.BudgetRepository,
	accountRepo repository.AccountRepository,
	snowflake *id.Snowflake,
	redisClient *redis.Client,
) *BudgetUsecase {
	return &BudgetUsecase{
		budgetRepo:  budgetRepo,
		accountRepo: accountRepo,
		snowflake:   snowflake,
		redisClient: redisClient,
	}
}

// ===============================
// HEADER LIFECYCLE
// ===============================

func (uc *BudgetUsecase) Create(ctx context.Context, req *domain.BudgetCreate) (*domain.Budget, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	b := &domain.Budget{
		ID:             uc.snowflake.Generate(),
		Name:           req.Name,
		FiscalYear:     req.FiscalYear,
		Period:         req.Period,
		DepartmentID:   req.DepartmentID,
		ProjectID:      req.ProjectID,
		Status:         domain.BudgetStatusDraft,
		TotalAllocated: decimal.Zero,
		TotalSpent:     decimal.Zero,
		TotalCommitted: decimal.Zero,
		CreatedBy:      req.CreatedBy,
	}

	if err := uc.budgetRepo.Create(ctx, b); err != nil {
		return nil, err
	}

	uc.invalidateBudgetCaches(ctx, b.ID)
	return b, nil
}

func (uc *BudgetUsecase) Approve(ctx context.Context, budgetID int64) (*domain.Budget, error) {
	return uc.transition(ctx, budgetID, domain.BudgetStatusDraft, domain.BudgetStatusApproved)
}

func (uc *BudgetUsecase) Activate(ctx context.Context, budgetID int64) (*domain.Budget, error) {
	return uc.transition(ctx, budgetID, domain.BudgetStatusApproved, domain.BudgetStatusActive)
}

func (uc *BudgetUsecase) Close(ctx context.Context, budgetID int64) (*domain.Budget, error) {
	return uc.transition(ctx, budgetID, domain.BudgetStatusActive, domain.BudgetStatusClosed)
}

func (uc *BudgetUsecase) transition(ctx context.Context, budgetID int64, from, to domain.BudgetStatus) (*domain.Budget, error) {
	b, err := uc.budgetRepo.GetByID(ctx, budgetID)
	if err != nil {
		return nil, err
	}
	if !b.Status.CanTransition(to) {
		return nil, domain.ErrInvalidState
	}

	if err := uc.budgetRepo.UpdateStatus(ctx, budgetID, from, to); err != nil {
		return nil, err
	}
	b.Status = to

	uc.invalidateBudgetCaches(ctx, budgetID)
	return b, nil
}

func (uc *BudgetUsecase) Delete(ctx context.Context, budgetID int64) error {
	if _, err := uc.budgetRepo.GetByID(ctx, budgetID); err != nil {
		return err
	}
	if err := uc.budgetRepo.SoftDelete(ctx, budgetID); err != nil {
		return err
	}
	uc.invalidateBudgetCaches(ctx, budgetID)
	return nil
}

// ===============================
// LINE OPERATIONS
// ===============================

// Allocate creates or updates the allocation for one expense account
// within a budget and refreshes the header rollups.
func (uc *BudgetUsecase) Allocate(ctx context.Context, budgetID int64, req *domain.BudgetLineAllocate) (*domain.BudgetLine, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	b, err := uc.budgetRepo.GetByID(ctx, budgetID)
	if err != nil {
		return nil, err
	}
	if b.Status == domain.BudgetStatusClosed {
		return nil, domain.ErrInvalidState
	}

	acc, err := uc.accountRepo.GetByID(ctx, req.AccountID)
	if err != nil {
		return nil, fmt.Errorf("account: %w", err)
	}
	if acc.AccountType != domain.AccountTypeExpense {
		return nil, domain.Validation("account_id", "budget lines attach to expense accounts")
	}
	if acc.IsHeader {
		return nil, domain.ErrHeaderAccountNotPostable
	}

	tx, err := uc.budgetRepo.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	line := &domain.BudgetLine{
		ID:              uc.snowflake.Generate(),
		BudgetID:        budgetID,
		AccountID:       req.AccountID,
		AllocatedAmount: req.AllocatedAmount,
		SpentAmount:     decimal.Zero,
		CommittedAmount: decimal.Zero,
		Notes:           req.Notes,
	}
	if err := uc.budgetRepo.UpsertLine(ctx, tx, line); err != nil {
		return nil, err
	}
	if err := uc.budgetRepo.RefreshTotals(ctx, tx, budgetID); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit allocation: %w", err)
	}

	uc.invalidateBudgetCaches(ctx, budgetID)
	return line, nil
}

// RecordSpent adds amount to a line's spent figure. Negative amounts
// back out previous spend but the stored figure never drops below zero.
func (uc *BudgetUsecase) RecordSpent(ctx context.Context, budgetID, accountID int64, amount decimal.Decimal) (*domain.BudgetLine, error) {
	return uc.adjustLine(ctx, budgetID, accountID, amount, decimal.Zero)
}

// RecordCommitted adds amount to a line's committed figure.
func (uc *BudgetUsecase) RecordCommitted(ctx context.Context, budgetID, accountID int64, amount decimal.Decimal) (*domain.BudgetLine, error) {
	return uc.adjustLine(ctx, budgetID, accountID, decimal.Zero, amount)
}

func (uc *BudgetUsecase) adjustLine(ctx context.Context, budgetID, accountID int64, spentDelta, committedDelta decimal.Decimal) (*domain.BudgetLine, error) {
	tx, err := uc.budgetRepo.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	line, err := uc.budgetRepo.GetLineWithLock(ctx, tx, budgetID, accountID)
	if err != nil {
		return nil, err
	}

	line.SpentAmount = clampZero(line.SpentAmount.Add(spentDelta))
	line.CommittedAmount = clampZero(line.CommittedAmount.Add(committedDelta))

	if err := uc.budgetRepo.UpdateLineAmounts(ctx, tx, line.ID, line.SpentAmount, line.CommittedAmount); err != nil {
		return nil, err
	}
	if err := uc.budgetRepo.RefreshTotals(ctx, tx, budgetID); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit budget adjustment: %w", err)
	}

	uc.invalidateBudgetCaches(ctx, budgetID)
	return line, nil
}

func clampZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// ===============================
// QUERIES
// ===============================

func (uc *BudgetUsecase) GetByID(ctx context.Context, budgetID int64) (*domain.Budget, error) {
	cacheKey := fmt.Sprintf("budget:id:%d", budgetID)

	var cached domain.Budget
	if cacheGet(ctx, uc.redisClient, cacheKey, &cached) {
		return &cached, nil
	}

	b, err := uc.budgetRepo.GetByID(ctx, budgetID)
	if err != nil {
		return nil, err
	}

	cacheSet(ctx, uc.redisClient, cacheKey, b, cacheTTLDocument)
	return b, nil
}

func (uc *BudgetUsecase) List(ctx context.Context, filter *domain.BudgetFilter) ([]*domain.Budget, error) {
	cacheKey := uc.buildListCacheKey(filter)

	var cached []*domain.Budget
	if cacheGet(ctx, uc.redisClient, cacheKey, &cached) {
		return cached, nil
	}

	budgets, err := uc.budgetRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	cacheSet(ctx, uc.redisClient, cacheKey, budgets, cacheTTLList)
	return budgets, nil
}

// ===============================
// CACHE HELPERS
// ===============================

func (uc *BudgetUsecase) buildListCacheKey(filter *domain.BudgetFilter) string {
	key := "budget:list"
	if filter == nil {
		return key
	}
	if filter.FiscalYear != nil {
		key += fmt.Sprintf(":year=%d", *filter.FiscalYear)
	}
	if filter.Status != nil {
		key += fmt.Sprintf(":status=%s", *filter.Status)
	}
	if filter.DepartmentID != nil {
		key += fmt.Sprintf(":dept=%s", *filter.DepartmentID)
	}
	return key
}

func (uc *BudgetUsecase) invalidateBudgetCaches(ctx context.Context, budgetID int64) {
	cacheDel(ctx, uc.redisClient,
		fmt.Sprintf("budget:id:%d", budgetID),
		"dashboard:summary",
	)
	cacheDelPattern(ctx, uc.redisClient, "budget:list*")
}
