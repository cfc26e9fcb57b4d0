package hrest

import (
	"net/http"
	"time"

	"github.com/Hylmii/ERP-IKODIO/internal/usecase"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type FinanceRestHandler struct {
	accountUC *usecase.AccountUsecase
	journalUC *usecase.JournalUsecase
	invoiceUC *usecase.InvoiceUsecase
	paymentUC *usecase.PaymentUsecase
	expenseUC *usecase.ExpenseUsecase
	budgetUC  *usecase.BudgetUsecase
	reportUC  *usecase.ReportUsecase
	logger    *zap.Logger
}

func NewFinanceRestHandler(
	accountUC *usecase.AccountUsecase,
	journalUC *usecase.JournalUsecase,
	invoiceUC *usecase.InvoiceUsecase,
	paymentUC *usecase.PaymentUsecase,
	expenseUC *usecase.ExpenseUsecase,
	budgetUC *usecase.BudgetUsecase,
	reportUC *usecase.ReportUsecase,
	logger *zap.Logger,
) *FinanceRestHandler {
	return &FinanceRestHandler{
		accountUC: accountUC,
		journalUC: journalUC,
		invoiceUC: invoiceUC,
		paymentUC: paymentUC,
		expenseUC: expenseUC,
		budgetUC:  budgetUC,
		reportUC:  reportUC,
		logger:    logger,
	}
}

func (h *FinanceRestHandler) NewRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/api/v1/finance", func(r chi.Router) {
		h.registerRoutes(r)
	})

	h.logger.Info("finance routes registered")
	return r
}

func (h *FinanceRestHandler) registerRoutes(r chi.Router) {
	r.Route("/accounts", func(r chi.Router) {
		r.Get("/", h.ListAccounts)
		r.Post("/", h.CreateAccount)
		r.Get("/{id}", h.GetAccount)
		r.Put("/{id}", h.UpdateAccount)
		r.Delete("/{id}", h.DeleteAccount)
		r.Get("/{id}/balance", h.GetAccountBalance)
		r.Get("/{id}/lines", h.ListAccountLines)
	})

	r.Route("/journal-entries", func(r chi.Router) {
		r.Get("/", h.ListJournalEntries)
		r.Post("/", h.CreateJournalEntry)
		r.Get("/{id}", h.GetJournalEntry)
		r.Put("/{id}", h.UpdateJournalEntry)
		r.Delete("/{id}", h.DeleteJournalEntry)
		r.Post("/{id}/post", h.PostJournalEntry)
		r.Post("/{id}/reverse", h.ReverseJournalEntry)
	})

	r.Route("/invoices", func(r chi.Router) {
		r.Get("/", h.ListInvoices)
		r.Post("/", h.CreateInvoice)
		r.Get("/{id}", h.GetInvoice)
		r.Put("/{id}", h.UpdateInvoice)
		r.Delete("/{id}", h.DeleteInvoice)
		r.Post("/{id}/send", h.SendInvoice)
		r.Post("/{id}/cancel", h.CancelInvoice)
	})

	r.Route("/payments", func(r chi.Router) {
		r.Get("/", h.ListPayments)
		r.Post("/", h.CreatePayment)
		r.Get("/{id}", h.GetPayment)
		r.Delete("/{id}", h.DeletePayment)
		r.Post("/{id}/confirm", h.ConfirmPayment)
		r.Post("/{id}/cancel", h.CancelPayment)
		r.Post("/{id}/fail", h.FailPayment)
	})

	r.Route("/expenses", func(r chi.Router) {
		r.Get("/", h.ListExpenses)
		r.Post("/", h.CreateExpense)
		r.Get("/{id}", h.GetExpense)
		r.Put("/{id}", h.UpdateExpense)
		r.Delete("/{id}", h.DeleteExpense)
		r.Post("/{id}/submit", h.SubmitExpense)
		r.Post("/{id}/approve", h.ApproveExpense)
		r.Post("/{id}/reject", h.RejectExpense)
		r.Post("/{id}/pay", h.PayExpense)
	})

	r.Route("/budgets", func(r chi.Router) {
		r.Get("/", h.ListBudgets)
		r.Post("/", h.CreateBudget)
		r.Get("/{id}", h.GetBudget)
		r.Delete("/{id}", h.DeleteBudget)
		r.Post("/{id}/approve", h.ApproveBudget)
		r.Post("/{id}/activate", h.ActivateBudget)
		r.Post("/{id}/close", h.CloseBudget)
		r.Post("/{id}/lines", h.AllocateBudgetLine)
		r.Post("/{id}/lines/spent", h.RecordBudgetSpent)
		r.Post("/{id}/lines/committed", h.RecordBudgetCommitted)
	})

	r.Get("/dashboard", h.GetDashboard)
	r.Get("/trial-balance", h.GetTrialBalance)
}
