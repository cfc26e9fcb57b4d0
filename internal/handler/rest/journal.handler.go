package hrest

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/Hylmii/ERP-IKODIO/internal/domain"
	"github.com/Hylmii/ERP-IKODIO/internal/response"

	"github.com/shopspring/decimal"
)

type JournalLineJSON struct {
	AccountID    int64           `json:"account_id"`
	Description  *string         `json:"description,omitempty"`
	Debit        decimal.Decimal `json:"debit"`
	Credit       decimal.Decimal `json:"credit"`
	ProjectID    *string         `json:"project_id,omitempty"`
	DepartmentID *string         `json:"department_id,omitempty"`
}

type JournalEntryJSON struct {
	EntryDate       string            `json:"entry_date"`
	Description     string            `json:"description"`
	ReferenceNumber *string           `json:"reference_number,omitempty"`
	Lines           []JournalLineJSON `json:"lines"`
}

func (in *JournalEntryJSON) toCreate(actor string) (*domain.JournalEntryCreate, error) {
	entryDate, err := time.Parse("2006-01-02", in.EntryDate)
	if err != nil {
		return nil, domain.Validation("entry_date", "expected YYYY-MM-DD")
	}

	req := &domain.JournalEntryCreate{
		EntryDate:       entryDate,
		Description:     in.Description,
		ReferenceNumber: in.ReferenceNumber,
		CreatedBy:       actor,
	}
	for _, l := range in.Lines {
		req.Lines = append(req.Lines, domain.JournalLineCreate{
			AccountID:    l.AccountID,
			Description:  l.Description,
			Debit:        l.Debit,
			Credit:       l.Credit,
			ProjectID:    l.ProjectID,
			DepartmentID: l.DepartmentID,
		})
	}
	return req, nil
}

func (h *FinanceRestHandler) CreateJournalEntry(w http.ResponseWriter, r *http.Request) {
	var in JournalEntryJSON
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req, err := in.toCreate(actorFrom(r))
	if err != nil {
		writeError(w, err)
		return
	}

	entry, err := h.journalUC.CreateDraft(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	response.JSON(w, http.StatusCreated, entry)
}

func (h *FinanceRestHandler) GetJournalEntry(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	entry, err := h.journalUC.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, entry)
}

func (h *FinanceRestHandler) ListJournalEntries(w http.ResponseWriter, r *http.Request) {
	filter := &domain.JournalEntryFilter{
		DateFrom: parseDateQuery(r, "date_from"),
		DateTo:   parseDateQuery(r, "date_to"),
		Search:   stringQuery(r, "q"),
	}
	if s := stringQuery(r, "status"); s != nil {
		status := domain.EntryStatus(*s)
		filter.Status = &status
	}

	entries, err := h.journalUC.List(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, entries)
}

func (h *FinanceRestHandler) UpdateJournalEntry(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var in JournalEntryJSON
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req, err := in.toCreate(actorFrom(r))
	if err != nil {
		writeError(w, err)
		return
	}

	entry, err := h.journalUC.UpdateDraft(r.Context(), id, req)
	if err != nil {
		writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, entry)
}

func (h *FinanceRestHandler) DeleteJournalEntry(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.journalUC.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, nil)
}

func (h *FinanceRestHandler) PostJournalEntry(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	entry, err := h.journalUC.Post(r.Context(), id, actorFrom(r))
	if err != nil {
		writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, entry)
}

func (h *FinanceRestHandler) ReverseJournalEntry(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	reversal, err := h.journalUC.Reverse(r.Context(), id, actorFrom(r))
	if err != nil {
		writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, reversal)
}
