package handler

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/dealerdesk/backend/internal/domain/shared"
	"github.com/dealerdesk/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBaseHandler_HandleError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{name: "not found", err: shared.ErrNotFound, wantStatus: http.StatusNotFound, wantCode: dto.ErrCodeNotFound},
		{name: "wrapped state transition", err: fmt.Errorf("approve: %w", shared.NewInvalidStateTransition("deposit", "approved", "approve")),
			wantStatus: http.StatusConflict, wantCode: dto.ErrCodeInvalidStateTransition},
		{name: "plan reference", err: shared.ErrInvalidPlanReference, wantStatus: http.StatusUnprocessableEntity, wantCode: dto.ErrCodeInvalidPlanReference},
		{name: "concurrency conflict", err: shared.ErrConcurrencyConflict, wantStatus: http.StatusConflict, wantCode: dto.ErrCodeConcurrencyConflict},
		{name: "unmapped invalid code", err: shared.NewDomainError("INVALID_AMOUNT", "Amount must be positive"),
			wantStatus: http.StatusBadRequest, wantCode: "ERR_INVALID_AMOUNT"},
		{name: "plain error", err: errors.New("connection reset"), wantStatus: http.StatusInternalServerError, wantCode: dto.ErrCodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &BaseHandler{}
			r := newTestRouter(newTestActor())
			r.GET("/x", func(c *gin.Context) { h.HandleError(c, tt.err) })

			rec := doJSON(t, r, http.MethodGet, "/x", nil)

			assert.Equal(t, tt.wantStatus, rec.Code)
			env := decodeEnvelope(t, rec)
			require.NotNil(t, env.Error)
			assert.Equal(t, tt.wantCode, env.Error.Code)
			assert.NotEmpty(t, env.Error.RequestID)
		})
	}
}

func TestBaseHandler_InternalErrorHidesDetails(t *testing.T) {
	h := &BaseHandler{}
	r := newTestRouter(newTestActor())
	r.GET("/x", func(c *gin.Context) { h.HandleError(c, errors.New("pq: password authentication failed")) })

	rec := doJSON(t, r, http.MethodGet, "/x", nil)

	assert.NotContains(t, rec.Body.String(), "password")
}

func TestBaseHandler_PathUUID(t *testing.T) {
	h := &BaseHandler{}
	r := newTestRouter(newTestActor())
	r.GET("/x/:id", func(c *gin.Context) {
		if _, ok := h.pathUUID(c, "id"); ok {
			h.NoContent(c)
		}
	})

	assert.Equal(t, http.StatusBadRequest, doJSON(t, r, http.MethodGet, "/x/not-a-uuid", nil).Code)
	assert.Equal(t, http.StatusNoContent, doJSON(t, r, http.MethodGet, "/x/5b0c2d0e-5f1a-4f7e-9f57-2a8f8f0f3c11", nil).Code)
}

func TestParseMoneyAndDate(t *testing.T) {
	m, err := parseMoney("")
	require.NoError(t, err)
	assert.True(t, m.IsZero())

	m, err = parseMoney("1250.50")
	require.NoError(t, err)
	assert.Equal(t, "1250.50", m.String())

	_, err = parseMoney("lots")
	assert.Error(t, err)

	d, err := parseDate("")
	require.NoError(t, err)
	assert.True(t, d.IsZero())

	_, err = parseDate("2024-13-01")
	assert.Error(t, err)
}

func TestBaseHandler_RejectFields(t *testing.T) {
	h := &BaseHandler{}
	r := newTestRouter(newTestActor())
	r.GET("/x", func(c *gin.Context) {
		var fields fieldParser
		fields.money("credit_limit", c.Query("credit_limit"))
		fields.date("start_date", c.Query("start_date"))
		fields.id("plan_id", c.Query("plan_id"))
		if h.rejectFields(c, &fields) {
			return
		}
		h.NoContent(c)
	})

	rec := doJSON(t, r, http.MethodGet, "/x?credit_limit=abc&start_date=2024-02-30&plan_id=nope", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	env := decodeEnvelope(t, rec)
	require.NotNil(t, env.Error)
	assert.Equal(t, dto.ErrCodeValidation, env.Error.Code)
	fields := make([]string, len(env.Error.Details))
	for i, d := range env.Error.Details {
		fields[i] = d.Field
	}
	assert.Equal(t, []string{"credit_limit", "start_date", "plan_id"}, fields)

	ok := doJSON(t, r, http.MethodGet, "/x?credit_limit=100.00&start_date=2024-02-29&plan_id=5b0c2d0e-5f1a-4f7e-9f57-2a8f8f0f3c11", nil)
	assert.Equal(t, http.StatusNoContent, ok.Code)
}
