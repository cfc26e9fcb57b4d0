package hrest

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/Hylmii/ERP-IKODIO/internal/domain"
	"github.com/Hylmii/ERP-IKODIO/internal/response"

	"github.com/shopspring/decimal"
)

type InvoiceLineJSON struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	DiscountPct decimal.Decimal `json:"discount_pct"`
	TaxRate     decimal.Decimal `json:"tax_rate"`
	AccountID   *int64          `json:"account_id,omitempty"`
}

type InvoiceJSON struct {
	InvoiceType    string            `json:"invoice_type"`
	ClientID       *string           `json:"client_id,omitempty"`
	ProjectID      *string           `json:"project_id,omitempty"`
	InvoiceDate    string            `json:"invoice_date"`
	DueDate        string            `json:"due_date"`
	DiscountAmount decimal.Decimal   `json:"discount_amount"`
	PaymentTerms   *string           `json:"payment_terms,omitempty"`
	Notes          *string           `json:"notes,omitempty"`
	Lines          []InvoiceLineJSON `json:"lines"`
}

func (in *InvoiceJSON) toCreate(actor string) (*domain.InvoiceCreate, error) {
	invoiceDate, err := time.Parse("2006-01-02", in.InvoiceDate)
	if err != nil {
		return nil, domain.Validation("invoice_date", "expected YYYY-MM-DD")
	}
	dueDate, err := time.Parse("2006-01-02", in.DueDate)
	if err != nil {
		return nil, domain.Validation("due_date", "expected YYYY-MM-DD")
	}

	req := &domain.InvoiceCreate{
		InvoiceType:    domain.InvoiceType(in.InvoiceType),
		ClientID:       in.ClientID,
		ProjectID:      in.ProjectID,
		InvoiceDate:    invoiceDate,
		DueDate:        dueDate,
		DiscountAmount: in.DiscountAmount,
		PaymentTerms:   in.PaymentTerms,
		Notes:          in.Notes,
		CreatedBy:      actor,
	}
	for _, l := range in.Lines {
		req.Lines = append(req.Lines, domain.InvoiceLineCreate{
			Description: l.Description,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
			DiscountPct: l.DiscountPct,
			TaxRate:     l.TaxRate,
			AccountID:   l.AccountID,
		})
	}
	return req, nil
}

func (h *FinanceRestHandler) CreateInvoice(w http.ResponseWriter, r *http.Request) {
	var in InvoiceJSON
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req, err := in.toCreate(actorFrom(r))
	if err != nil {
		writeError(w, err)
		return
	}

	inv, err := h.invoiceUC.Create(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	response.JSON(w, http.StatusCreated, inv)
}

func (h *FinanceRestHandler) GetInvoice(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	inv, err := h.invoiceUC.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, inv)
}

func (h *FinanceRestHandler) ListInvoices(w http.ResponseWriter, r *http.Request) {
	filter := &domain.InvoiceFilter{
		ClientID: stringQuery(r, "client_id"),
		DateFrom: parseDateQuery(r, "date_from"),
		DateTo:   parseDateQuery(r, "date_to"),
		Search:   stringQuery(r, "q"),
	}
	if t := stringQuery(r, "invoice_type"); t != nil {
		it := domain.InvoiceType(*t)
		if !it.IsValid() {
			writeError(w, domain.Validation("invoice_type", "unknown type"))
			return
		}
		filter.InvoiceType = &it
	}
	if s := stringQuery(r, "status"); s != nil {
		status := domain.InvoiceStatus(*s)
		filter.Status = &status
	}

	invoices, err := h.invoiceUC.List(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, invoices)
}

func (h *FinanceRestHandler) UpdateInvoice(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var in InvoiceJSON
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req, err := in.toCreate(actorFrom(r))
	if err != nil {
		writeError(w, err)
		return
	}

	inv, err := h.invoiceUC.UpdateDraft(r.Context(), id, req)
	if err != nil {
		writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, inv)
}

func (h *FinanceRestHandler) DeleteInvoice(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.invoiceUC.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, nil)
}

func (h *FinanceRestHandler) SendInvoice(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	inv, err := h.invoiceUC.Send(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, inv)
}

func (h *FinanceRestHandler) CancelInvoice(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	inv, err := h.invoiceUC.Cancel(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, inv)
}
