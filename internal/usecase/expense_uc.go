package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Hylmii/ERP-IKODIO/internal/domain"
	"github.com/Hylmii/ERP-IKODIO/internal/pkg/id"
	"github.com/Hylmii/ERP-IKODIO/internal/repository"

	"github.com/redis/go-redis/v9"
)

type ExpenseUsecase struct {
	expenseRepo repository.ExpenseRepository
	budgetRepo  repository.BudgetRepository
	accountRepo repository.AccountRepository
	snowflake   *id.Snowflake
	redisClient *redis.Client
}

func NewExpenseUsecase(
	expenseRepo repository.ExpenseRepository,
	budgetRepo repository.BudgetRepository,
	accountRepo repository.AccountRepository,
	snowflake *id.Snowflake,
	redisClient *redis.Client,
) *ExpenseUsecase {
	return &ExpenseUsecase{
		expenseRepo: expenseRepo,
		budgetRepo:  budgetRepo,
		accountRepo: accountRepo,
		snowflake:   snowflake,
		redisClient: redisClient,
	}
}

// ===============================
// DRAFT LIFECYCLE
// ===============================

func (uc *ExpenseUsecase) Create(ctx context.Context, req *domain.ExpenseCreate) (*domain.Expense, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	acc, err := uc.accountRepo.GetByID(ctx, req.AccountID)
	if err != nil {
		return nil, fmt.Errorf("account: %w", err)
	}
	if acc.AccountType != domain.AccountTypeExpense {
		return nil, domain.Validation("account_id", "expenses charge expense accounts")
	}
	if acc.IsHeader {
		return nil, domain.ErrHeaderAccountNotPostable
	}

	tx, err := uc.expenseRepo.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	expenseDate := req.ExpenseDate
	if expenseDate.IsZero() {
		expenseDate = time.Now()
	}

	year := expenseDate.Year()
	seq, err := uc.expenseRepo.NextDocumentSeq(ctx, tx, "EXP", year)
	if err != nil {
		return nil, err
	}

	e := &domain.Expense{
		ID:            uc.snowflake.Generate(),
		ExpenseNumber: id.DocumentNumber("EXP", year, seq),
		ExpenseDate:   expenseDate,
		Description:   req.Description,
		Amount:        req.Amount,
		AccountID:     req.AccountID,
		DepartmentID:  req.DepartmentID,
		ProjectID:     req.ProjectID,
		Status:        domain.ExpenseStatusDraft,
		SubmittedBy:   req.SubmittedBy,
	}

	if err := uc.expenseRepo.Create(ctx, tx, e); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit expense: %w", err)
	}

	uc.invalidateExpenseCaches(ctx, e.ID)
	return e, nil
}

func (uc *ExpenseUsecase) UpdateDraft(ctx context.Context, expenseID int64, req *domain.ExpenseCreate) (*domain.Expense, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	e, err := uc.expenseRepo.GetByID(ctx, expenseID)
	if err != nil {
		return nil, err
	}
	if e.Status != domain.ExpenseStatusDraft {
		return nil, domain.ErrInvalidState
	}

	e.ExpenseDate = req.ExpenseDate
	e.Description = req.Description
	e.Amount = req.Amount
	e.AccountID = req.AccountID
	e.DepartmentID = req.DepartmentID
	e.ProjectID = req.ProjectID

	if err := uc.expenseRepo.UpdateDraft(ctx, e); err != nil {
		return nil, err
	}

	uc.invalidateExpenseCaches(ctx, expenseID)
	return e, nil
}

func (uc *ExpenseUsecase) Submit(ctx context.Context, expenseID int64) (*domain.Expense, error) {
	e, err := uc.expenseRepo.GetByID(ctx, expenseID)
	if err != nil {
		return nil, err
	}
	if !e.Status.CanTransition(domain.ExpenseStatusSubmitted) {
		return nil, domain.ErrInvalidState
	}

	if err := uc.expenseRepo.MarkSubmitted(ctx, expenseID); err != nil {
		return nil, err
	}
	e.Status = domain.ExpenseStatusSubmitted

	uc.invalidateExpenseCaches(ctx, expenseID)
	return e, nil
}

func (uc *ExpenseUsecase) Delete(ctx context.Context, expenseID int64) error {
	if _, err := uc.expenseRepo.GetByID(ctx, expenseID); err != nil {
		return err
	}
	if err := uc.expenseRepo.SoftDelete(ctx, expenseID); err != nil {
		return err
	}
	uc.invalidateExpenseCaches(ctx, expenseID)
	return nil
}

// ===============================
// APPROVAL FLOW
// ===============================

// Approve moves a submitted expense to approved and commits its amount
// against the matching active budget line. An expense with no matching
// budget line still approves; there is just nothing to earmark.
func (uc *ExpenseUsecase) Approve(ctx context.Context, expenseID int64, approvedBy string, notes *string) (*domain.Expense, error) {
	tx, err := uc.expenseRepo.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	e, err := uc.expenseRepo.GetByIDWithLock(ctx, tx, expenseID)
	if err != nil {
		return nil, err
	}
	if !e.Status.CanTransition(domain.ExpenseStatusApproved) {
		return nil, domain.ErrInvalidState
	}

	if err := uc.expenseRepo.MarkDecided(ctx, tx, expenseID, domain.ExpenseStatusApproved, approvedBy, notes); err != nil {
		return nil, err
	}

	line, err := uc.budgetRepo.FindLineForExpense(ctx, tx, e.AccountID, e.DepartmentID, e.ProjectID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	if line != nil {
		line.CommittedAmount = line.CommittedAmount.Add(e.Amount)
		if err := uc.budgetRepo.UpdateLineAmounts(ctx, tx, line.ID, line.SpentAmount, line.CommittedAmount); err != nil {
			return nil, err
		}
		if err := uc.budgetRepo.RefreshTotals(ctx, tx, line.BudgetID); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit expense approval: %w", err)
	}

	now := time.Now()
	e.Status = domain.ExpenseStatusApproved
	e.ApprovedBy = &approvedBy
	e.ApprovedAt = &now
	e.ApprovalNotes = notes

	uc.invalidateExpenseCaches(ctx, expenseID)
	return e, nil
}

func (uc *ExpenseUsecase) Reject(ctx context.Context, expenseID int64, rejectedBy string, notes *string) (*domain.Expense, error) {
	tx, err := uc.expenseRepo.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	e, err := uc.expenseRepo.GetByIDWithLock(ctx, tx, expenseID)
	if err != nil {
		return nil, err
	}
	if !e.Status.CanTransition(domain.ExpenseStatusRejected) {
		return nil, domain.ErrInvalidState
	}

	if err := uc.expenseRepo.MarkDecided(ctx, tx, expenseID, domain.ExpenseStatusRejected, rejectedBy, notes); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit expense rejection: %w", err)
	}

	now := time.Now()
	e.Status = domain.ExpenseStatusRejected
	e.ApprovedBy = &rejectedBy
	e.ApprovedAt = &now
	e.ApprovalNotes = notes

	uc.invalidateExpenseCaches(ctx, expenseID)
	return e, nil
}

// MarkPaid converts the committed amount of an approved expense into
// spend on its budget line.
func (uc *ExpenseUsecase) MarkPaid(ctx context.Context, expenseID int64) (*domain.Expense, error) {
	tx, err := uc.expenseRepo.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	e, err := uc.expenseRepo.GetByIDWithLock(ctx, tx, expenseID)
	if err != nil {
		return nil, err
	}
	if !e.Status.CanTransition(domain.ExpenseStatusPaid) {
		return nil, domain.ErrInvalidState
	}

	if err := uc.expenseRepo.MarkPaid(ctx, tx, expenseID); err != nil {
		return nil, err
	}

	line, err := uc.budgetRepo.FindLineForExpense(ctx, tx, e.AccountID, e.DepartmentID, e.ProjectID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	if line != nil {
		line.CommittedAmount = clampZero(line.CommittedAmount.Sub(e.Amount))
		line.SpentAmount = line.SpentAmount.Add(e.Amount)
		if err := uc.budgetRepo.UpdateLineAmounts(ctx, tx, line.ID, line.SpentAmount, line.CommittedAmount); err != nil {
			return nil, err
		}
		if err := uc.budgetRepo.RefreshTotals(ctx, tx, line.BudgetID); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit expense payment: %w", err)
	}

	e.Status = domain.ExpenseStatusPaid

	uc.invalidateExpenseCaches(ctx, expenseID)
	return e, nil
}

// ===============================
// QUERIES
// ===============================

func (uc *ExpenseUsecase) GetByID(ctx context.Context, expenseID int64) (*domain.Expense, error) {
	cacheKey := fmt.Sprintf("expense:id:%d", expenseID)

	var cached domain.Expense
	if cacheGet(ctx, uc.redisClient, cacheKey, &cached) {
		return &cached, nil
	}

	e, err := uc.expenseRepo.GetByID(ctx, expenseID)
	if err != nil {
		return nil, err
	}

	cacheSet(ctx, uc.redisClient, cacheKey, e, cacheTTLDocument)
	return e, nil
}

func (uc *ExpenseUsecase) List(ctx context.Context, filter *domain.ExpenseFilter) ([]*domain.Expense, error) {
	cacheKey := uc.buildListCacheKey(filter)

	var cached []*domain.Expense
	if cacheGet(ctx, uc.redisClient, cacheKey, &cached) {
		return cached, nil
	}

	expenses, err := uc.expenseRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	cacheSet(ctx, uc.redisClient, cacheKey, expenses, cacheTTLList)
	return expenses, nil
}

// ===============================
// CACHE HELPERS
// ===============================

func (uc *ExpenseUsecase) buildListCacheKey(filter *domain.ExpenseFilter) string {
	key := "expense:list"
	if filter == nil {
		return key
	}
	if filter.Status != nil {
		key += fmt.Sprintf(":status=%s", *filter.Status)
	}
	if filter.AccountID != nil {
		key += fmt.Sprintf(":account=%d", *filter.AccountID)
	}
	if filter.DepartmentID != nil {
		key += fmt.Sprintf(":dept=%s", *filter.DepartmentID)
	}
	if filter.DateFrom != nil {
		key += fmt.Sprintf(":from=%s", filter.DateFrom.Format("2006-01-02"))
	}
	if filter.DateTo != nil {
		key += fmt.Sprintf(":to=%s", filter.DateTo.Format("2006-01-02"))
	}
	return key
}

func (uc *ExpenseUsecase) invalidateExpenseCaches(ctx context.Context, expenseID int64) {
	cacheDel(ctx, uc.redisClient, fmt.Sprintf("expense:id:%d", expenseID))
	cacheDelPattern(ctx, uc.redisClient, "expense:list*")
	cacheDelPattern(ctx, uc.redisClient, "budget:list*")
	cacheDelPattern(ctx, uc.redisClient, "budget:id:*")
	cacheDel(ctx, uc.redisClient, "dashboard:summary")
}
