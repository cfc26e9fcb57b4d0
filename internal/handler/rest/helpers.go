package hrest

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/Hylmii/ERP-IKODIO/internal/domain"
	"github.com/Hylmii/ERP-IKODIO/internal/response"

	"github.com/go-chi/chi/v5"
)

// actorFrom reads the acting employee from the request. Identity is
// established upstream; the header is carried through opaquely.
func actorFrom(r *http.Request) string {
	if actor := r.Header.Get("X-Employee-ID"); actor != "" {
		return actor
	}
	return "system"
}

func parseID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.Validation("id", "must be a positive integer")
	}
	return id, nil
}

func parseDateQuery(r *http.Request, key string) *time.Time {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil
	}
	return &t
}

func stringQuery(r *http.Request, key string) *string {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return nil
	}
	return &raw
}

func boolQuery(r *http.Request, key string) *bool {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil
	}
	return &v
}

// writeError maps domain errors onto HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case domain.IsValidation(err),
		errors.Is(err, domain.ErrUnbalancedEntry),
		errors.Is(err, domain.ErrHeaderAccountNotPostable),
		errors.Is(err, domain.ErrAmbiguousLine),
		errors.Is(err, domain.ErrNoLines),
		errors.Is(err, domain.ErrInvalidRequest):
		response.Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		response.Error(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrPermissionDenied):
		response.Error(w, http.StatusForbidden, err.Error())
	case errors.Is(err, domain.ErrInvalidState),
		errors.Is(err, domain.ErrDuplicateCode),
		errors.Is(err, domain.ErrDuplicateNumber),
		errors.Is(err, domain.ErrAccountInUse),
		errors.Is(err, domain.ErrInvoiceHasPayments):
		response.Error(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrOverpayment):
		response.Error(w, http.StatusUnprocessableEntity, err.Error())
	default:
		response.Error(w, http.StatusInternalServerError, "internal server error")
	}
}
