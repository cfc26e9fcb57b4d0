package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Hylmii/ERP-IKODIO/internal/domain"
	"github.com/Hylmii/ERP-IKODIO/internal/usecase"
)

// SystemSeeder installs the default chart of accounts on first boot.
// Seeding is idempotent: a non-empty chart is left untouched.
type SystemSeeder struct {
	accountUC *usecase.AccountUsecase
}

func NewSystemSeeder(accountUC *usecase.AccountUsecase) *SystemSeeder {
	return &SystemSeeder{accountUC: accountUC}
}

func (s *SystemSeeder) SeedSystem(ctx context.Context) error {
	count, err := s.accountUC.Count(ctx)
	if err != nil {
		return fmt.Errorf("failed to count accounts: %w", err)
	}
	if count > 0 {
		return nil
	}

	// Headers first so children can reference them.
	headerIDs := make(map[byte]int64)
	for _, req := range domain.DefaultChartOfAccounts {
		if !req.IsHeader {
			continue
		}
		acc, err := s.createIgnoringDuplicates(ctx, req)
		if err != nil {
			return err
		}
		if acc != nil {
			headerIDs[req.Code[0]] = acc.ID
		}
	}

	for _, req := range domain.DefaultChartOfAccounts {
		if req.IsHeader {
			continue
		}
		if parentID, ok := headerIDs[req.Code[0]]; ok {
			req.ParentID = &parentID
		}
		if _, err := s.createIgnoringDuplicates(ctx, req); err != nil {
			return err
		}
	}

	return nil
}

// createIgnoringDuplicates tolerates a concurrent replica having seeded
// the same code first.
func (s *SystemSeeder) createIgnoringDuplicates(ctx context.Context, req domain.AccountCreate) (*domain.Account, error) {
	acc, err := s.accountUC.Create(ctx, &req)
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateCode) {
			return s.accountUC.GetByCode(ctx, req.Code)
		}
		return nil, fmt.Errorf("failed to seed account %s: %w", req.Code, err)
	}
	return acc, nil
}
