package hrest

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/Hylmii/ERP-IKODIO/internal/domain"
	"github.com/Hylmii/ERP-IKODIO/internal/response"

	"github.com/shopspring/decimal"
)

type ExpenseJSON struct {
	ExpenseDate  string          `json:"expense_date,omitempty"`
	Description  string          `json:"description"`
	Amount       decimal.Decimal `json:"amount"`
	AccountID    int64           `json:"account_id"`
	DepartmentID *string         `json:"department_id,omitempty"`
	ProjectID    *string         `json:"project_id,omitempty"`
}

type ExpenseDecisionJSON struct {
	Notes *string `json:"notes,omitempty"`
}

func (in *ExpenseJSON) toCreate(actor string) (*domain.ExpenseCreate, error) {
	var expenseDate time.Time
	if in.ExpenseDate != "" {
		var err error
		expenseDate, err = time.Parse("2006-01-02", in.ExpenseDate)
		if err != nil {
			return nil, domain.Validation("expense_date", "expected YYYY-MM-DD")
		}
	}
	return &domain.ExpenseCreate{
		ExpenseDate:  expenseDate,
		Description:  in.Description,
		Amount:       in.Amount,
		AccountID:    in.AccountID,
		DepartmentID: in.DepartmentID,
		ProjectID:    in.ProjectID,
		SubmittedBy:  actor,
	}, nil
}

func (h *FinanceRestHandler) CreateExpense(w http.ResponseWriter, r *http.Request) {
	var in ExpenseJSON
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req, err := in.toCreate(actorFrom(r))
	if err != nil {
		writeError(w, err)
		return
	}

	e, err := h.expenseUC.Create(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	response.JSON(w, http.StatusCreated, e)
}

func (h *FinanceRestHandler) GetExpense(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	e, err := h.expenseUC.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, e)
}

func (h *FinanceRestHandler) ListExpenses(w http.ResponseWriter, r *http.Request) {
	filter := &domain.ExpenseFilter{
		DepartmentID: stringQuery(r, "department_id"),
		DateFrom:     parseDateQuery(r, "date_from"),
		DateTo:       parseDateQuery(r, "date_to"),
	}
	if s := stringQuery(r, "status"); s != nil {
		status := domain.ExpenseStatus(*s)
		filter.Status = &status
	}
	if raw := r.URL.Query().Get("account_id"); raw != "" {
		accountID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeError(w, domain.Validation("account_id", "must be an integer"))
			return
		}
		filter.AccountID = &accountID
	}

	expenses, err := h.expenseUC.List(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, expenses)
}

func (h *FinanceRestHandler) UpdateExpense(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var in ExpenseJSON
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req, err := in.toCreate(actorFrom(r))
	if err != nil {
		writeError(w, err)
		return
	}

	e, err := h.expenseUC.UpdateDraft(r.Context(), id, req)
	if err != nil {
		writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, e)
}

func (h *FinanceRestHandler) DeleteExpense(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.expenseUC.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, nil)
}

func (h *FinanceRestHandler) SubmitExpense(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	e, err := h.expenseUC.Submit(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, e)
}

func (h *FinanceRestHandler) ApproveExpense(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var in ExpenseDecisionJSON
	_ = json.NewDecoder(r.Body).Decode(&in)

	e, err := h.expenseUC.Approve(r.Context(), id, actorFrom(r), in.Notes)
	if err != nil {
		writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, e)
}

func (h *FinanceRestHandler) RejectExpense(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var in ExpenseDecisionJSON
	_ = json.NewDecoder(r.Body).Decode(&in)

	e, err := h.expenseUC.Reject(r.Context(), id, actorFrom(r), in.Notes)
	if err != nil {
		writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, e)
}

func (h *FinanceRestHandler) PayExpense(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	e, err := h.expenseUC.MarkPaid(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, e)
}
