package hrest

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/Hylmii/ERP-IKODIO/internal/domain"
	"github.com/Hylmii/ERP-IKODIO/internal/response"

	"github.com/shopspring/decimal"
)

type BudgetJSON struct {
	Name         string  `json:"name"`
	FiscalYear   int     `json:"fiscal_year"`
	Period       string  `json:"period"`
	DepartmentID *string `json:"department_id,omitempty"`
	ProjectID    *string `json:"project_id,omitempty"`
}

type BudgetLineJSON struct {
	AccountID       int64           `json:"account_id"`
	AllocatedAmount decimal.Decimal `json:"allocated_amount"`
	Notes           *string         `json:"notes,omitempty"`
}

type BudgetAdjustJSON struct {
	AccountID int64           `json:"account_id"`
	Amount    decimal.Decimal `json:"amount"`
}

func (h *FinanceRestHandler) CreateBudget(w http.ResponseWriter, r *http.Request) {
	var in BudgetJSON
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	b, err := h.budgetUC.Create(r.Context(), &domain.BudgetCreate{
		Name:         in.Name,
		FiscalYear:   in.FiscalYear,
		Period:       domain.BudgetPeriod(in.Period),
		DepartmentID: in.DepartmentID,
		ProjectID:    in.ProjectID,
		CreatedBy:    actorFrom(r),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	response.JSON(w, http.StatusCreated, b)
}

func (h *FinanceRestHandler) GetBudget(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	b, err := h.budgetUC.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, b)
}

func (h *FinanceRestHandler) ListBudgets(w http.ResponseWriter, r *http.Request) {
	filter := &domain.BudgetFilter{
		DepartmentID: stringQuery(r, "department_id"),
	}
	if raw := r.URL.Query().Get("fiscal_year"); raw != "" {
		year, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, domain.Validation("fiscal_year", "must be an integer"))
			return
		}
		filter.FiscalYear = &year
	}
	if s := stringQuery(r, "status"); s != nil {
		status := domain.BudgetStatus(*s)
		filter.Status = &status
	}

	budgets, err := h.budgetUC.List(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, budgets)
}

func (h *FinanceRestHandler) DeleteBudget(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.budgetUC.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, nil)
}

func (h *FinanceRestHandler) ApproveBudget(w http.ResponseWriter, r *http.Request) {
	h.budgetTransition(w, r, h.budgetUC.Approve)
}

func (h *FinanceRestHandler) ActivateBudget(w http.ResponseWriter, r *http.Request) {
	h.budgetTransition(w, r, h.budgetUC.Activate)
}

func (h *FinanceRestHandler) CloseBudget(w http.ResponseWriter, r *http.Request) {
	h.budgetTransition(w, r, h.budgetUC.Close)
}

func (h *FinanceRestHandler) budgetTransition(
	w http.ResponseWriter,
	r *http.Request,
	fn func(ctx context.Context, budgetID int64) (*domain.Budget, error),
) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	b, err := fn(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, b)
}

func (h *FinanceRestHandler) AllocateBudgetLine(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var in BudgetLineJSON
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	line, err := h.budgetUC.Allocate(r.Context(), id, &domain.BudgetLineAllocate{
		AccountID:       in.AccountID,
		AllocatedAmount: in.AllocatedAmount,
		Notes:           in.Notes,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, line)
}

func (h *FinanceRestHandler) RecordBudgetSpent(w http.ResponseWriter, r *http.Request) {
	h.budgetAdjust(w, r, h.budgetUC.RecordSpent)
}

func (h *FinanceRestHandler) RecordBudgetCommitted(w http.ResponseWriter, r *http.Request) {
	h.budgetAdjust(w, r, h.budgetUC.RecordCommitted)
}

func (h *FinanceRestHandler) budgetAdjust(
	w http.ResponseWriter,
	r *http.Request,
	fn func(ctx context.Context, budgetID, accountID int64, amount decimal.Decimal) (*domain.BudgetLine, error),
) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var in BudgetAdjustJSON
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	line, err := fn(r.Context(), id, in.AccountID, in.Amount)
	if err != nil {
		writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, line)
}
