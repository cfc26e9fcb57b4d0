package hrest

import (
	"encoding/json"
	"net/http"

	"github.com/Hylmii/ERP-IKODIO/internal/domain"
	"github.com/Hylmii/ERP-IKODIO/internal/response"
)

type AccountCreateJSON struct {
	Code        string  `json:"code"`
	Name        string  `json:"name"`
	AccountType string  `json:"account_type"`
	ParentID    *int64  `json:"parent_id,omitempty"`
	IsHeader    bool    `json:"is_header"`
	Currency    string  `json:"currency,omitempty"`
	Description *string `json:"description,omitempty"`
}

type AccountUpdateJSON struct {
	Name        *string `json:"name,omitempty"`
	ParentID    *int64  `json:"parent_id,omitempty"`
	IsActive    *bool   `json:"is_active,omitempty"`
	Description *string `json:"description,omitempty"`
}

func (h *FinanceRestHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var in AccountCreateJSON
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	acc, err := h.accountUC.Create(r.Context(), &domain.AccountCreate{
		Code:        in.Code,
		Name:        in.Name,
		AccountType: domain.AccountType(in.AccountType),
		ParentID:    in.ParentID,
		IsHeader:    in.IsHeader,
		Currency:    in.Currency,
		Description: in.Description,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	response.JSON(w, http.StatusCreated, acc)
}

func (h *FinanceRestHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	acc, err := h.accountUC.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, acc)
}

func (h *FinanceRestHandler) GetAccountBalance(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	balance, err := h.accountUC.GetBalance(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]string{"balance": balance.String()})
}

func (h *FinanceRestHandler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	filter := &domain.AccountFilter{
		IsActive: boolQuery(r, "is_active"),
		IsHeader: boolQuery(r, "is_header"),
		Search:   stringQuery(r, "q"),
	}
	if t := stringQuery(r, "account_type"); t != nil {
		at := domain.AccountType(*t)
		if !at.IsValid() {
			writeError(w, domain.Validation("account_type", "unknown type"))
			return
		}
		filter.AccountType = &at
	}

	accounts, err := h.accountUC.List(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, accounts)
}

func (h *FinanceRestHandler) ListAccountLines(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	lines, err := h.journalUC.ListByAccount(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, lines)
}

func (h *FinanceRestHandler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var in AccountUpdateJSON
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	acc, err := h.accountUC.Update(r.Context(), id, &domain.AccountUpdate{
		Name:        in.Name,
		ParentID:    in.ParentID,
		IsActive:    in.IsActive,
		Description: in.Description,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, acc)
}

func (h *FinanceRestHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.accountUC.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, nil)
}
