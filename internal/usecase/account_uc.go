package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/Hylmii/ERP-IKODIO/internal/domain"
	"github.com/Hylmii/ERP-IKODIO/internal/pkg/id"
	"github.com/Hylmii/ERP-IKODIO/internal/repository"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

type AccountUsecase struct {
	accountRepo repository.AccountRepository
	snowflake   *id.Snowflake
	redisClient *redis.Client
}

func NewAccountUsecase(
	accountRepo repository.AccountRepository,
	snowflake *id.Snowflake,
	redisClient *redis.Client,
) *AccountUsecase {
	return &AccountUsecase{
		accountRepo: accountRepo,
		snowflake:   snowflake,
		redisClient: redisClient,
	}
}

// ===============================
// VALIDATION
// ===============================

func (uc *AccountUsecase) validateCreate(req *domain.AccountCreate) error {
	if strings.TrimSpace(req.Code) == "" {
		return domain.Validation("code", "required")
	}
	if strings.TrimSpace(req.Name) == "" {
		return domain.Validation("name", "required")
	}
	if !req.AccountType.IsValid() {
		return domain.Validation("account_type", "unknown type")
	}
	return nil
}

// ===============================
// COMMANDS
// ===============================

// Create adds an account to the chart. Balance always starts at zero;
// only posting mutates it afterwards.
func (uc *AccountUsecase) Create(ctx context.Context, req *domain.AccountCreate) (*domain.Account, error) {
	if err := uc.validateCreate(req); err != nil {
		return nil, err
	}

	if req.ParentID != nil {
		parent, err := uc.accountRepo.GetByID(ctx, *req.ParentID)
		if err != nil {
			return nil, fmt.Errorf("parent account: %w", err)
		}
		if !parent.IsHeader {
			return nil, domain.Validation("parent_id", "parent must be a header account")
		}
	}

	currency := req.Currency
	if currency == "" {
		currency = "IDR"
	}

	acc := &domain.Account{
		ID:          uc.snowflake.Generate(),
		Code:        strings.TrimSpace(req.Code),
		Name:        strings.TrimSpace(req.Name),
		AccountType: req.AccountType,
		ParentID:    req.ParentID,
		IsHeader:    req.IsHeader,
		IsActive:    true,
		Currency:    currency,
		Description: req.Description,
		Balance:     decimal.Zero,
	}

	if err := uc.accountRepo.Create(ctx, acc); err != nil {
		return nil, err
	}

	uc.invalidateAccountCaches(ctx, acc)
	return acc, nil
}

func (uc *AccountUsecase) Update(ctx context.Context, accountID int64, req *domain.AccountUpdate) (*domain.Account, error) {
	acc, err := uc.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return nil, domain.Validation("name", "required")
		}
		acc.Name = strings.TrimSpace(*req.Name)
	}
	if req.ParentID != nil {
		parent, err := uc.accountRepo.GetByID(ctx, *req.ParentID)
		if err != nil {
			return nil, fmt.Errorf("parent account: %w", err)
		}
		if !parent.IsHeader {
			return nil, domain.Validation("parent_id", "parent must be a header account")
		}
		acc.ParentID = req.ParentID
	}
	if req.IsActive != nil {
		acc.IsActive = *req.IsActive
	}
	if req.Description != nil {
		acc.Description = req.Description
	}

	if err := uc.accountRepo.Update(ctx, acc); err != nil {
		return nil, err
	}

	uc.invalidateAccountCaches(ctx, acc)
	return acc, nil
}

// Delete tombstones an account. Accounts already referenced by journal
// lines stay in place so history keeps resolving.
func (uc *AccountUsecase) Delete(ctx context.Context, accountID int64) error {
	acc, err := uc.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return err
	}

	inUse, err := uc.accountRepo.HasJournalLines(ctx, accountID)
	if err != nil {
		return err
	}
	if inUse {
		return domain.ErrAccountInUse
	}

	if err := uc.accountRepo.SoftDelete(ctx, accountID); err != nil {
		return err
	}

	uc.invalidateAccountCaches(ctx, acc)
	return nil
}

// ===============================
// QUERIES
// ===============================

func (uc *AccountUsecase) GetByID(ctx context.Context, accountID int64) (*domain.Account, error) {
	cacheKey := fmt.Sprintf("accounts:id:%d", accountID)

	var cached domain.Account
	if cacheGet(ctx, uc.redisClient, cacheKey, &cached) {
		return &cached, nil
	}

	acc, err := uc.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	cacheSet(ctx, uc.redisClient, cacheKey, acc, cacheTTLDocument)
	return acc, nil
}

func (uc *AccountUsecase) GetByCode(ctx context.Context, code string) (*domain.Account, error) {
	cacheKey := fmt.Sprintf("accounts:code:%s", code)

	var cached domain.Account
	if cacheGet(ctx, uc.redisClient, cacheKey, &cached) {
		return &cached, nil
	}

	acc, err := uc.accountRepo.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	cacheSet(ctx, uc.redisClient, cacheKey, acc, cacheTTLDocument)
	return acc, nil
}

// GetBalance returns the stored balance of a postable account.
func (uc *AccountUsecase) GetBalance(ctx context.Context, accountID int64) (decimal.Decimal, error) {
	acc, err := uc.GetByID(ctx, accountID)
	if err != nil {
		return decimal.Zero, err
	}
	return acc.Balance, nil
}

func (uc *AccountUsecase) List(ctx context.Context, filter *domain.AccountFilter) ([]*domain.Account, error) {
	cacheKey := uc.buildListCacheKey(filter)

	var cached []*domain.Account
	if cacheGet(ctx, uc.redisClient, cacheKey, &cached) {
		return cached, nil
	}

	accounts, err := uc.accountRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	cacheSet(ctx, uc.redisClient, cacheKey, accounts, cacheTTLList)
	return accounts, nil
}

func (uc *AccountUsecase) Count(ctx context.Context) (int64, error) {
	return uc.accountRepo.Count(ctx)
}

// ===============================
// CACHE HELPERS
// ===============================

func (uc *AccountUsecase) buildListCacheKey(filter *domain.AccountFilter) string {
	key := "accounts:list"
	if filter == nil {
		return key
	}
	if filter.AccountType != nil {
		key += fmt.Sprintf(":type=%s", *filter.AccountType)
	}
	if filter.IsActive != nil {
		key += fmt.Sprintf(":active=%t", *filter.IsActive)
	}
	if filter.IsHeader != nil {
		key += fmt.Sprintf(":header=%t", *filter.IsHeader)
	}
	if filter.Search != nil {
		key += fmt.Sprintf(":q=%s", *filter.Search)
	}
	return key
}

func (uc *AccountUsecase) invalidateAccountCaches(ctx context.Context, acc *domain.Account) {
	cacheDel(ctx, uc.redisClient,
		fmt.Sprintf("accounts:id:%d", acc.ID),
		fmt.Sprintf("accounts:code:%s", acc.Code),
	)
	cacheDelPattern(ctx, uc.redisClient, "accounts:list*")
}
