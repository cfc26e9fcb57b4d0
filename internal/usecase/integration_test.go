package usecase_test

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/Hylmii/ERP-IKODIO/internal/domain"
	"github.com/Hylmii/ERP-IKODIO/internal/pkg/id"
	"github.com/Hylmii/ERP-IKODIO/internal/repository"
	"github.com/Hylmii/ERP-IKODIO/internal/usecase"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Integration tests run against a throwaway Postgres. They wipe every
// finance table, so never point PG_DSN at anything you care about.

func dec(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

type fixture struct {
	db        *pgxpool.Pool
	accountUC *usecase.AccountUsecase
	journalUC *usecase.JournalUsecase
	invoiceUC *usecase.InvoiceUsecase
	paymentUC *usecase.PaymentUsecase
	expenseUC *usecase.ExpenseUsecase
	budgetUC  *usecase.BudgetUsecase
	reportUC  *usecase.ReportUsecase
}

func setup(t *testing.T) *fixture {
	t.Helper()

	dsn := os.Getenv("PG_DSN")
	if dsn == "" {
		t.Skip("PG_DSN not set")
	}

	ctx := context.Background()
	db, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(db.Close)

	schema, err := os.ReadFile("../../migrations/001_init.sql")
	require.NoError(t, err)
	_, err = db.Exec(ctx, string(schema))
	require.NoError(t, err)

	// Child tables first.
	for _, table := range []string{
		"journal_lines", "journal_entries",
		"payments", "invoice_lines", "invoices",
		"expenses", "budget_lines", "budgets",
		"document_counters", "accounts",
	} {
		_, err = db.Exec(ctx, "DELETE FROM "+table)
		require.NoError(t, err)
	}

	sf, err := id.NewSnowflake(1)
	require.NoError(t, err)

	accountRepo := repository.NewAccountRepo(db)
	journalRepo := repository.NewJournalRepo(db)
	invoiceRepo := repository.NewInvoiceRepo(db)
	paymentRepo := repository.NewPaymentRepo(db)
	expenseRepo := repository.NewExpenseRepo(db)
	budgetRepo := repository.NewBudgetRepo(db)
	reportRepo := repository.NewReportRepo(db)

	// Redis, kafka and the event publisher are all optional collaborators.
	return &fixture{
		db:        db,
		accountUC: usecase.NewAccountUsecase(accountRepo, sf, nil),
		journalUC: usecase.NewJournalUsecase(journalRepo, accountRepo, sf, nil, nil, nil),
		invoiceUC: usecase.NewInvoiceUsecase(invoiceRepo, sf, nil),
		paymentUC: usecase.NewPaymentUsecase(paymentRepo, invoiceRepo, sf, nil, nil, nil),
		expenseUC: usecase.NewExpenseUsecase(expenseRepo, budgetRepo, accountRepo, sf, nil),
		budgetUC:  usecase.NewBudgetUsecase(budgetRepo, accountRepo, sf, nil),
		reportUC:  usecase.NewReportUsecase(reportRepo, nil),
	}
}

func (f *fixture) mustAccount(t *testing.T, code, name string, typ domain.AccountType) *domain.Account {
	t.Helper()
	acc, err := f.accountUC.Create(context.Background(), &domain.AccountCreate{
		Code:        code,
		Name:        name,
		AccountType: typ,
	})
	require.NoError(t, err)
	return acc
}

func TestJournalPostReverseRoundTrip(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	cash := f.mustAccount(t, "1100", "Cash", domain.AccountTypeAsset)
	revenue := f.mustAccount(t, "4100", "Service Revenue", domain.AccountTypeRevenue)

	entry, err := f.journalUC.CreateDraft(ctx, &domain.JournalEntryCreate{
		EntryDate:   time.Now(),
		Description: "cash sale",
		CreatedBy:   "emp-1",
		Lines: []domain.JournalLineCreate{
			{AccountID: cash.ID, Debit: dec("500.00")},
			{AccountID: revenue.ID, Credit: dec("500.00")},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.EntryStatusDraft, entry.Status)
	assert.True(t, strings.HasPrefix(entry.EntryNumber, "JE-"))

	// Drafts never move balances.
	bal, err := f.accountUC.GetBalance(ctx, cash.ID)
	require.NoError(t, err)
	assert.True(t, bal.IsZero())

	posted, err := f.journalUC.Post(ctx, entry.ID, "emp-2")
	require.NoError(t, err)
	assert.Equal(t, domain.EntryStatusPosted, posted.Status)
	require.NotNil(t, posted.PostedBy)
	assert.Equal(t, "emp-2", *posted.PostedBy)

	bal, err = f.accountUC.GetBalance(ctx, cash.ID)
	require.NoError(t, err)
	assert.True(t, bal.Equal(dec("500.00")), "cash = %s", bal)

	bal, err = f.accountUC.GetBalance(ctx, revenue.ID)
	require.NoError(t, err)
	assert.True(t, bal.Equal(dec("500.00")), "revenue = %s", bal)

	// Posting twice is rejected.
	_, err = f.journalUC.Post(ctx, entry.ID, "emp-2")
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	reversal, err := f.journalUC.Reverse(ctx, entry.ID, "emp-3")
	require.NoError(t, err)
	assert.Equal(t, domain.EntryStatusPosted, reversal.Status)
	require.NotNil(t, reversal.ReversedEntryID)
	assert.Equal(t, entry.ID, *reversal.ReversedEntryID)

	original, err := f.journalUC.GetByID(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.EntryStatusReversed, original.Status)

	// Reversal nets every balance back to zero.
	for _, accID := range []int64{cash.ID, revenue.ID} {
		bal, err = f.accountUC.GetBalance(ctx, accID)
		require.NoError(t, err)
		assert.True(t, bal.IsZero(), "account %d = %s", accID, bal)
	}

	// A reversed entry cannot be reversed again.
	_, err = f.journalUC.Reverse(ctx, entry.ID, "emp-3")
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestJournalRejectsUnbalancedDraft(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	cash := f.mustAccount(t, "1100", "Cash", domain.AccountTypeAsset)
	revenue := f.mustAccount(t, "4100", "Service Revenue", domain.AccountTypeRevenue)

	entry, err := f.journalUC.CreateDraft(ctx, &domain.JournalEntryCreate{
		EntryDate:   time.Now(),
		Description: "fat finger",
		CreatedBy:   "emp-1",
		Lines: []domain.JournalLineCreate{
			{AccountID: cash.ID, Debit: dec("500.00")},
			{AccountID: revenue.ID, Credit: dec("499.99")},
		},
	})
	require.NoError(t, err, "unbalanced drafts are allowed")

	_, err = f.journalUC.Post(ctx, entry.ID, "emp-2")
	assert.ErrorIs(t, err, domain.ErrUnbalancedEntry)

	bal, err := f.accountUC.GetBalance(ctx, cash.ID)
	require.NoError(t, err)
	assert.True(t, bal.IsZero(), "failed post must not move balances")
}

func TestJournalRejectsHeaderAccountLine(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	header, err := f.accountUC.Create(ctx, &domain.AccountCreate{
		Code: "1000", Name: "Assets", AccountType: domain.AccountTypeAsset, IsHeader: true,
	})
	require.NoError(t, err)
	cash := f.mustAccount(t, "1100", "Cash", domain.AccountTypeAsset)

	_, err = f.journalUC.CreateDraft(ctx, &domain.JournalEntryCreate{
		EntryDate:   time.Now(),
		Description: "posting to a header",
		CreatedBy:   "emp-1",
		Lines: []domain.JournalLineCreate{
			{AccountID: header.ID, Debit: dec("10.00")},
			{AccountID: cash.ID, Credit: dec("10.00")},
		},
	})
	assert.ErrorIs(t, err, domain.ErrHeaderAccountNotPostable)
}

func TestInvoicePaymentReconciliation(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	bank := f.mustAccount(t, "1200", "Bank", domain.AccountTypeAsset)

	inv, err := f.invoiceUC.Create(ctx, &domain.InvoiceCreate{
		InvoiceType: domain.InvoiceTypeSales,
		InvoiceDate: time.Now(),
		DueDate:     time.Now().AddDate(0, 1, 0),
		CreatedBy:   "emp-1",
		Lines: []domain.InvoiceLineCreate{
			{Description: "consulting", Quantity: dec("2"), UnitPrice: dec("100.00"), TaxRate: dec("11")},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.InvoiceStatusDraft, inv.Status)
	assert.True(t, strings.HasPrefix(inv.InvoiceNumber, "INV-"))
	assert.True(t, inv.TotalAmount.Equal(dec("222.00")), "total = %s", inv.TotalAmount)

	// Payments against drafts are rejected.
	_, err = f.paymentUC.Create(ctx, &domain.PaymentCreate{
		PaymentType:   domain.PaymentTypeReceipt,
		InvoiceID:     &inv.ID,
		Amount:        dec("100.00"),
		PaymentMethod: domain.PaymentMethodBankTransfer,
		CashAccountID: bank.ID,
		CreatedBy:     "emp-1",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	inv, err = f.invoiceUC.Send(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.InvoiceStatusSent, inv.Status)

	first, err := f.paymentUC.Create(ctx, &domain.PaymentCreate{
		PaymentType:   domain.PaymentTypeReceipt,
		InvoiceID:     &inv.ID,
		Amount:        dec("100.00"),
		PaymentMethod: domain.PaymentMethodBankTransfer,
		CashAccountID: bank.ID,
		CreatedBy:     "emp-1",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusPending, first.Status)
	assert.True(t, strings.HasPrefix(first.PaymentNumber, "PAY-"))

	// Pending payments change nothing.
	inv, err = f.invoiceUC.GetByID(ctx, inv.ID)
	require.NoError(t, err)
	assert.True(t, inv.PaidAmount.IsZero())

	first, err = f.paymentUC.Confirm(ctx, first.ID, "emp-2")
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusCompleted, first.Status)

	inv, err = f.invoiceUC.GetByID(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.InvoiceStatusPartial, inv.Status)
	assert.True(t, inv.PaidAmount.Equal(dec("100.00")))

	// Confirming twice is rejected and applies nothing.
	_, err = f.paymentUC.Confirm(ctx, first.ID, "emp-2")
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	// Overpayment is rejected outright.
	over, err := f.paymentUC.Create(ctx, &domain.PaymentCreate{
		PaymentType:   domain.PaymentTypeReceipt,
		InvoiceID:     &inv.ID,
		Amount:        dec("122.01"),
		PaymentMethod: domain.PaymentMethodBankTransfer,
		CashAccountID: bank.ID,
		CreatedBy:     "emp-1",
	})
	require.NoError(t, err)
	_, err = f.paymentUC.Confirm(ctx, over.ID, "emp-2")
	assert.ErrorIs(t, err, domain.ErrOverpayment)

	// The rejected payment stays pending and can be failed.
	over, err = f.paymentUC.Fail(ctx, over.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusFailed, over.Status)

	// Settle the rest exactly.
	rest, err := f.paymentUC.Create(ctx, &domain.PaymentCreate{
		PaymentType:   domain.PaymentTypeReceipt,
		InvoiceID:     &inv.ID,
		Amount:        dec("122.00"),
		PaymentMethod: domain.PaymentMethodBankTransfer,
		CashAccountID: bank.ID,
		CreatedBy:     "emp-1",
	})
	require.NoError(t, err)
	_, err = f.paymentUC.Confirm(ctx, rest.ID, "emp-2")
	require.NoError(t, err)

	inv, err = f.invoiceUC.GetByID(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.InvoiceStatusPaid, inv.Status)
	assert.True(t, inv.Outstanding().IsZero())

	// Paid invoices cannot be cancelled or deleted.
	_, err = f.invoiceUC.Cancel(ctx, inv.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidState)
	err = f.invoiceUC.Delete(ctx, inv.ID)
	assert.ErrorIs(t, err, domain.ErrInvoiceHasPayments)
}

func TestExpenseBudgetRollup(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	opex := f.mustAccount(t, "5100", "Operating Expenses", domain.AccountTypeExpense)

	budget, err := f.budgetUC.Create(ctx, &domain.BudgetCreate{
		Name:       "Ops 2026",
		FiscalYear: time.Now().Year(),
		Period:     domain.BudgetPeriodAnnual,
		CreatedBy:  "emp-1",
	})
	require.NoError(t, err)

	_, err = f.budgetUC.Allocate(ctx, budget.ID, &domain.BudgetLineAllocate{
		AccountID:       opex.ID,
		AllocatedAmount: dec("10000.00"),
	})
	require.NoError(t, err)

	budget, err = f.budgetUC.Approve(ctx, budget.ID)
	require.NoError(t, err)
	budget, err = f.budgetUC.Activate(ctx, budget.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BudgetStatusActive, budget.Status)
	assert.True(t, budget.TotalAllocated.Equal(dec("10000.00")))

	exp, err := f.expenseUC.Create(ctx, &domain.ExpenseCreate{
		ExpenseDate: time.Now(),
		Description: "server hosting",
		Amount:      dec("1500.00"),
		AccountID:   opex.ID,
		SubmittedBy: "emp-1",
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(exp.ExpenseNumber, "EXP-"))

	_, err = f.expenseUC.Submit(ctx, exp.ID)
	require.NoError(t, err)

	// Approval commits the amount against the matching budget line.
	exp, err = f.expenseUC.Approve(ctx, exp.ID, "emp-9", nil)
	require.NoError(t, err)
	assert.Equal(t, domain.ExpenseStatusApproved, exp.Status)

	budget, err = f.budgetUC.GetByID(ctx, budget.ID)
	require.NoError(t, err)
	assert.True(t, budget.TotalCommitted.Equal(dec("1500.00")), "committed = %s", budget.TotalCommitted)
	assert.True(t, budget.TotalSpent.IsZero())

	// Paying converts the commitment into spend.
	exp, err = f.expenseUC.MarkPaid(ctx, exp.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ExpenseStatusPaid, exp.Status)

	budget, err = f.budgetUC.GetByID(ctx, budget.ID)
	require.NoError(t, err)
	assert.True(t, budget.TotalCommitted.IsZero(), "committed = %s", budget.TotalCommitted)
	assert.True(t, budget.TotalSpent.Equal(dec("1500.00")), "spent = %s", budget.TotalSpent)

	require.Len(t, budget.Lines, 1)
	assert.True(t, budget.Lines[0].Remaining().Equal(dec("8500.00")))
}

func TestDocumentNumbersAreSequential(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	cash := f.mustAccount(t, "1100", "Cash", domain.AccountTypeAsset)
	revenue := f.mustAccount(t, "4100", "Service Revenue", domain.AccountTypeRevenue)

	year := time.Now().Year()
	want := []string{
		id.DocumentNumber("JE", year, 1),
		id.DocumentNumber("JE", year, 2),
	}
	for i := 0; i < 2; i++ {
		entry, err := f.journalUC.CreateDraft(ctx, &domain.JournalEntryCreate{
			EntryDate:   time.Now(),
			Description: "numbering",
			CreatedBy:   "emp-1",
			Lines: []domain.JournalLineCreate{
				{AccountID: cash.ID, Debit: dec("1.00")},
				{AccountID: revenue.ID, Credit: dec("1.00")},
			},
		})
		require.NoError(t, err)
		assert.Equal(t, want[i], entry.EntryNumber)
	}
}

func TestTrialBalanceBalances(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	cash := f.mustAccount(t, "1100", "Cash", domain.AccountTypeAsset)
	revenue := f.mustAccount(t, "4100", "Service Revenue", domain.AccountTypeRevenue)

	entry, err := f.journalUC.CreateDraft(ctx, &domain.JournalEntryCreate{
		EntryDate:   time.Now(),
		Description: "cash sale",
		CreatedBy:   "emp-1",
		Lines: []domain.JournalLineCreate{
			{AccountID: cash.ID, Debit: dec("750.00")},
			{AccountID: revenue.ID, Credit: dec("750.00")},
		},
	})
	require.NoError(t, err)
	_, err = f.journalUC.Post(ctx, entry.ID, "emp-2")
	require.NoError(t, err)

	rows, err := f.reportUC.TrialBalance(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	var debit, credit decimal.Decimal
	for _, r := range rows {
		debit = debit.Add(r.Debit)
		credit = credit.Add(r.Credit)
	}
	assert.True(t, debit.Equal(credit), "trial balance out of balance: %s vs %s", debit, credit)
	assert.True(t, debit.Equal(dec("750.00")))
}

func TestGLOnlyPaymentConfirm(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	bank := f.mustAccount(t, "1200", "Bank", domain.AccountTypeAsset)

	// No invoice link: a direct cash movement booked against the bank
	// account only.
	p, err := f.paymentUC.Create(ctx, &domain.PaymentCreate{
		PaymentType:   domain.PaymentTypePayment,
		Amount:        dec("350.00"),
		PaymentMethod: domain.PaymentMethodCash,
		CashAccountID: bank.ID,
		CreatedBy:     "emp-1",
	})
	require.NoError(t, err)
	assert.Nil(t, p.InvoiceID)
	assert.Equal(t, domain.PaymentStatusPending, p.Status)

	// A reference is generated when the caller supplies none.
	require.NotNil(t, p.ReferenceNumber)
	assert.True(t, strings.HasPrefix(*p.ReferenceNumber, "pay_"))

	p, err = f.paymentUC.Confirm(ctx, p.ID, "emp-2")
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusCompleted, p.Status)

	_, err = f.paymentUC.Confirm(ctx, p.ID, "emp-2")
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestJournalUpdateDraftAtomic(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	cash := f.mustAccount(t, "1100", "Cash", domain.AccountTypeAsset)
	revenue := f.mustAccount(t, "4100", "Service Revenue", domain.AccountTypeRevenue)

	entry, err := f.journalUC.CreateDraft(ctx, &domain.JournalEntryCreate{
		EntryDate:   time.Now(),
		Description: "first draft",
		CreatedBy:   "emp-1",
		Lines: []domain.JournalLineCreate{
			{AccountID: cash.ID, Debit: dec("100.00")},
			{AccountID: revenue.ID, Credit: dec("100.00")},
		},
	})
	require.NoError(t, err)

	// Header and lines change together or not at all.
	updated, err := f.journalUC.UpdateDraft(ctx, entry.ID, &domain.JournalEntryCreate{
		EntryDate:   time.Now(),
		Description: "second draft",
		CreatedBy:   "emp-1",
		Lines: []domain.JournalLineCreate{
			{AccountID: cash.ID, Debit: dec("250.00")},
			{AccountID: revenue.ID, Credit: dec("250.00")},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "second draft", updated.Description)

	reloaded, err := f.journalUC.GetByID(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, "second draft", reloaded.Description)
	require.Len(t, reloaded.Lines, 2)
	debit, credit := reloaded.Totals()
	assert.True(t, debit.Equal(dec("250.00")))
	assert.True(t, credit.Equal(dec("250.00")))

	// Posted entries reject the rewrite and keep header and lines intact.
	_, err = f.journalUC.Post(ctx, entry.ID, "emp-2")
	require.NoError(t, err)

	_, err = f.journalUC.UpdateDraft(ctx, entry.ID, &domain.JournalEntryCreate{
		EntryDate:   time.Now(),
		Description: "tampered",
		CreatedBy:   "emp-1",
		Lines: []domain.JournalLineCreate{
			{AccountID: cash.ID, Debit: dec("1.00")},
			{AccountID: revenue.ID, Credit: dec("1.00")},
		},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	reloaded, err = f.journalUC.GetByID(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, "second draft", reloaded.Description)
	debit, _ = reloaded.Totals()
	assert.True(t, debit.Equal(dec("250.00")))
}

func TestInvoiceHeaderDiscountInTotals(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	bank := f.mustAccount(t, "1200", "Bank", domain.AccountTypeAsset)

	inv, err := f.invoiceUC.Create(ctx, &domain.InvoiceCreate{
		InvoiceType:    domain.InvoiceTypeSales,
		InvoiceDate:    time.Now(),
		DueDate:        time.Now().AddDate(0, 1, 0),
		DiscountAmount: dec("22.00"),
		CreatedBy:      "emp-1",
		Lines: []domain.InvoiceLineCreate{
			{Description: "consulting", Quantity: dec("2"), UnitPrice: dec("100.00"), TaxRate: dec("11")},
		},
	})
	require.NoError(t, err)
	assert.True(t, inv.DiscountAmount.Equal(dec("22.00")))
	assert.True(t, inv.TotalAmount.Equal(dec("200.00")), "total = %s", inv.TotalAmount)

	// Settling the discounted total pays the invoice off exactly.
	inv, err = f.invoiceUC.Send(ctx, inv.ID)
	require.NoError(t, err)

	p, err := f.paymentUC.Create(ctx, &domain.PaymentCreate{
		PaymentType:   domain.PaymentTypeReceipt,
		InvoiceID:     &inv.ID,
		Amount:        dec("200.00"),
		PaymentMethod: domain.PaymentMethodBankTransfer,
		CashAccountID: bank.ID,
		CreatedBy:     "emp-1",
	})
	require.NoError(t, err)
	_, err = f.paymentUC.Confirm(ctx, p.ID, "emp-2")
	require.NoError(t, err)

	inv, err = f.invoiceUC.GetByID(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.InvoiceStatusPaid, inv.Status)
	assert.True(t, inv.Outstanding().IsZero())

	// Discounts larger than the invoice are rejected up front.
	_, err = f.invoiceUC.Create(ctx, &domain.InvoiceCreate{
		InvoiceType:    domain.InvoiceTypeSales,
		InvoiceDate:    time.Now(),
		DueDate:        time.Now().AddDate(0, 1, 0),
		DiscountAmount: dec("500.00"),
		CreatedBy:      "emp-1",
		Lines: []domain.InvoiceLineCreate{
			{Description: "consulting", Quantity: dec("1"), UnitPrice: dec("100.00")},
		},
	})
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
}
