package server

import (
	"context"
	"log"
	"net/http"

	"github.com/Hylmii/ERP-IKODIO/internal/config"
	hrest "github.com/Hylmii/ERP-IKODIO/internal/handler/rest"
	"github.com/Hylmii/ERP-IKODIO/internal/pkg/id"
	publisher "github.com/Hylmii/ERP-IKODIO/internal/pub"
	"github.com/Hylmii/ERP-IKODIO/internal/repository"
	"github.com/Hylmii/ERP-IKODIO/internal/service"
	"github.com/Hylmii/ERP-IKODIO/internal/usecase"

	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

func NewFinanceHTTPServer(cfg config.AppConfig) {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync()

	// --- DB connection ---
	dbpool, err := config.ConnectDB()
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}

	sf, err := id.NewSnowflake(cfg.NodeID)
	if err != nil {
		logger.Fatal("failed to init snowflake", zap.Error(err))
	}

	// --- Redis client ---
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPass,
		DB:       0,
	})

	// --- Kafka writer ---
	var kafkaWriter *kafka.Writer
	if len(cfg.KafkaBrokers) > 0 {
		kafkaWriter = &kafka.Writer{
			Addr:     kafka.TCP(cfg.KafkaBrokers...),
			Topic:    cfg.KafkaTopic,
			Balancer: &kafka.LeastBytes{},
		}
	}

	eventPub := publisher.NewFinanceEventPublisher(rdb)

	// --- Repositories ---
	accountRepo := repository.NewAccountRepo(dbpool)
	journalRepo := repository.NewJournalRepo(dbpool)
	invoiceRepo := repository.NewInvoiceRepo(dbpool)
	paymentRepo := repository.NewPaymentRepo(dbpool)
	expenseRepo := repository.NewExpenseRepo(dbpool)
	budgetRepo := repository.NewBudgetRepo(dbpool)
	reportRepo := repository.NewReportRepo(dbpool)

	// --- Usecases ---
	accountUC := usecase.NewAccountUsecase(accountRepo, sf, rdb)
	journalUC := usecase.NewJournalUsecase(journalRepo, accountRepo, sf, rdb, kafkaWriter, eventPub)
	invoiceUC := usecase.NewInvoiceUsecase(invoiceRepo, sf, rdb)
	paymentUC := usecase.NewPaymentUsecase(paymentRepo, invoiceRepo, sf, rdb, kafkaWriter, eventPub)
	expenseUC := usecase.NewExpenseUsecase(expenseRepo, budgetRepo, accountRepo, sf, rdb)
	budgetUC := usecase.NewBudgetUsecase(budgetRepo, accountRepo, sf, rdb)
	reportUC := usecase.NewReportUsecase(reportRepo, rdb)

	// --- Seed default chart in a goroutine (non-blocking) ---
	if cfg.SeedChart {
		seeder := service.NewSystemSeeder(accountUC)
		go func() {
			if err := seeder.SeedSystem(context.Background()); err != nil {
				logger.Warn("chart seeding failed", zap.Error(err))
			} else {
				logger.Info("chart seeding completed")
			}
		}()
	}

	// --- REST handler ---
	financeHandler := hrest.NewFinanceRestHandler(
		accountUC, journalUC, invoiceUC, paymentUC, expenseUC, budgetUC, reportUC, logger,
	)

	logger.Info("finance HTTP server listening", zap.String("addr", cfg.HTTPAddr))
	if err := http.ListenAndServe(cfg.HTTPAddr, financeHandler.NewRouter()); err != nil {
		logger.Fatal("HTTP server failed", zap.Error(err))
	}
}
