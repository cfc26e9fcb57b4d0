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

type PaymentJSON struct {
	PaymentType     string          `json:"payment_type"`
	InvoiceID       *int64          `json:"invoice_id,omitempty"`
	PaymentDate     string          `json:"payment_date,omitempty"`
	Amount          decimal.Decimal `json:"amount"`
	PaymentMethod   string          `json:"payment_method"`
	CashAccountID   int64           `json:"cash_account_id"`
	ReferenceNumber *string         `json:"reference_number,omitempty"`
	Notes           *string         `json:"notes,omitempty"`
}

func (h *FinanceRestHandler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	var in PaymentJSON
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var paymentDate time.Time
	if in.PaymentDate != "" {
		var err error
		paymentDate, err = time.Parse("2006-01-02", in.PaymentDate)
		if err != nil {
			writeError(w, domain.Validation("payment_date", "expected YYYY-MM-DD"))
			return
		}
	}

	p, err := h.paymentUC.Create(r.Context(), &domain.PaymentCreate{
		PaymentType:     domain.PaymentType(in.PaymentType),
		InvoiceID:       in.InvoiceID,
		PaymentDate:     paymentDate,
		Amount:          in.Amount,
		PaymentMethod:   domain.PaymentMethod(in.PaymentMethod),
		CashAccountID:   in.CashAccountID,
		ReferenceNumber: in.ReferenceNumber,
		Notes:           in.Notes,
		CreatedBy:       actorFrom(r),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	response.JSON(w, http.StatusCreated, p)
}

func (h *FinanceRestHandler) GetPayment(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	p, err := h.paymentUC.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, p)
}

func (h *FinanceRestHandler) ListPayments(w http.ResponseWriter, r *http.Request) {
	filter := &domain.PaymentFilter{
		DateFrom: parseDateQuery(r, "date_from"),
		DateTo:   parseDateQuery(r, "date_to"),
	}
	if t := stringQuery(r, "payment_type"); t != nil {
		pt := domain.PaymentType(*t)
		if !pt.IsValid() {
			writeError(w, domain.Validation("payment_type", "unknown type"))
			return
		}
		filter.PaymentType = &pt
	}
	if s := stringQuery(r, "status"); s != nil {
		status := domain.PaymentStatus(*s)
		filter.Status = &status
	}
	if raw := r.URL.Query().Get("invoice_id"); raw != "" {
		invoiceID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeError(w, domain.Validation("invoice_id", "must be an integer"))
			return
		}
		filter.InvoiceID = &invoiceID
	}

	payments, err := h.paymentUC.List(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, payments)
}

func (h *FinanceRestHandler) ConfirmPayment(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	p, err := h.paymentUC.Confirm(r.Context(), id, actorFrom(r))
	if err != nil {
		writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, p)
}

func (h *FinanceRestHandler) CancelPayment(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	p, err := h.paymentUC.Cancel(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, p)
}

func (h *FinanceRestHandler) FailPayment(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	p, err := h.paymentUC.Fail(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, p)
}

func (h *FinanceRestHandler) DeletePayment(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.paymentUC.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, nil)
}
