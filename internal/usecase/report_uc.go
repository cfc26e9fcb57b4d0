package usecase

import (
	"context"
	"time"

	"github.com/Hylmii/ERP-IKODIO/internal/domain"
	"github.com/Hylmii/ERP-IKODIO/internal/repository"

	"github.com/redis/go-redis/v9"
)

type ReportUsecase struct {
	reportRepo  repository.ReportRepository
	redisClient *redis.Client
}

func NewReportUsecase(reportRepo repository.ReportRepository, redisClient *redis.Client) *ReportUsecase {
	return &ReportUsecase{
		reportRepo:  reportRepo,
		redisClient: redisClient,
	}
}

// Dashboard returns the headline figures, cached for one minute.
func (uc *ReportUsecase) Dashboard(ctx context.Context) (*domain.DashboardSummary, error) {
	cacheKey := "dashboard:summary"

	var cached domain.DashboardSummary
	if cacheGet(ctx, uc.redisClient, cacheKey, &cached) {
		return &cached, nil
	}

	summary, err := uc.reportRepo.GetDashboardSummary(ctx, time.Now())
	if err != nil {
		return nil, err
	}

	cacheSet(ctx, uc.redisClient, cacheKey, summary, cacheTTLList)
	return summary, nil
}

func (uc *ReportUsecase) TrialBalance(ctx context.Context) ([]*domain.TrialBalanceRow, error) {
	return uc.reportRepo.GetTrialBalance(ctx)
}
