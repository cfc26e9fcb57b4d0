package hrest

import (
	"net/http"

	"github.com/Hylmii/ERP-IKODIO/internal/response"
)

func (h *FinanceRestHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	summary, err := h.reportUC.Dashboard(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, summary)
}

func (h *FinanceRestHandler) GetTrialBalance(w http.ResponseWriter, r *http.Request) {
	rows, err := h.reportUC.TrialBalance(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, rows)
}
