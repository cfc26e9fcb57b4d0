package hrest

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Hylmii/ERP-IKODIO/internal/domain"

	"github.com/stretchr/testify/assert"
)

func TestWriteErrorStatusMapping(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{domain.Validation("amount", "must be positive"), http.StatusBadRequest},
		{domain.ErrUnbalancedEntry, http.StatusBadRequest},
		{domain.ErrHeaderAccountNotPostable, http.StatusBadRequest},
		{domain.ErrAmbiguousLine, http.StatusBadRequest},
		{domain.ErrNoLines, http.StatusBadRequest},
		{domain.ErrNotFound, http.StatusNotFound},
		{domain.ErrPermissionDenied, http.StatusForbidden},
		{domain.ErrInvalidState, http.StatusConflict},
		{domain.ErrDuplicateCode, http.StatusConflict},
		{domain.ErrDuplicateNumber, http.StatusConflict},
		{domain.ErrAccountInUse, http.StatusConflict},
		{domain.ErrInvoiceHasPayments, http.StatusConflict},
		{domain.ErrOverpayment, http.StatusUnprocessableEntity},
		{fmt.Errorf("pool exhausted"), http.StatusInternalServerError},
		// wrapped sentinels keep their mapping
		{fmt.Errorf("line 2: %w", domain.ErrAmbiguousLine), http.StatusBadRequest},
		{fmt.Errorf("invoice: %w", domain.ErrNotFound), http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeError(rec, tt.err)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestActorFrom(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Equal(t, "system", actorFrom(r))

	r.Header.Set("X-Employee-ID", "emp-42")
	assert.Equal(t, "emp-42", actorFrom(r))
}

func TestParseDateQuery(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/?from=2026-08-01&bad=yesterday", nil)

	from := parseDateQuery(r, "from")
	assert.NotNil(t, from)
	assert.Equal(t, "2026-08-01", from.Format("2006-01-02"))

	assert.Nil(t, parseDateQuery(r, "bad"))
	assert.Nil(t, parseDateQuery(r, "missing"))
}
