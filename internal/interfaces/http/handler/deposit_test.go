package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"

	depositapp "github.com/dealerdesk/backend/internal/application/deposit"
	"github.com/dealerdesk/backend/internal/domain/shared"
	"github.com/dealerdesk/backend/internal/domain/shared/valueobject"
	"github.com/dealerdesk/backend/internal/infrastructure/auth"
	"github.com/dealerdesk/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockDepositService struct {
	mock.Mock
}

func (m *MockDepositService) deposit(args mock.Arguments) (*depositapp.DepositResponse, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*depositapp.DepositResponse), args.Error(1)
}

func (m *MockDepositService) Record(ctx context.Context, userID, outletID uuid.UUID, req depositapp.RecordRequest) (*depositapp.DepositResponse, error) {
	return m.deposit(m.Called(ctx, userID, outletID, req))
}

func (m *MockDepositService) GetByID(ctx context.Context, id uuid.UUID) (*depositapp.DepositResponse, error) {
	return m.deposit(m.Called(ctx, id))
}

func (m *MockDepositService) List(ctx context.Context, filter depositapp.ListFilter) ([]depositapp.DepositResponse, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]depositapp.DepositResponse), args.Get(1).(int64), args.Error(2)
}

func (m *MockDepositService) Update(ctx context.Context, id, outletID uuid.UUID, req depositapp.RecordRequest) (*depositapp.DepositResponse, error) {
	return m.deposit(m.Called(ctx, id, outletID, req))
}

func (m *MockDepositService) Delete(ctx context.Context, id, outletID uuid.UUID) error {
	return m.Called(ctx, id, outletID).Error(0)
}

func (m *MockDepositService) Approve(ctx context.Context, id, actor uuid.UUID) (*depositapp.DepositResponse, error) {
	return m.deposit(m.Called(ctx, id, actor))
}

func (m *MockDepositService) Reject(ctx context.Context, id, actor uuid.UUID, reason string) (*depositapp.DepositResponse, error) {
	return m.deposit(m.Called(ctx, id, actor, reason))
}

func sampleDeposit(outletID uuid.UUID, status string) *depositapp.DepositResponse {
	return &depositapp.DepositResponse{
		ID:          uuid.New(),
		UserID:      uuid.New(),
		OutletID:    outletID,
		Amount:      valueobject.MustMoney("25000.00"),
		Method:      "bank_transfer",
		DepositDate: valueobject.MustDate("2024-04-10"),
		Status:      status,
		Version:     1,
	}
}

func setupDepositRouter(actor testActor) (*gin.Engine, *MockDepositService) {
	svc := new(MockDepositService)
	h := NewDepositHandler(svc)
	r := newTestRouter(actor)
	r.POST("/deposits", h.Record)
	r.GET("/deposits", h.List)
	r.GET("/deposits/:id", h.Get)
	r.PUT("/deposits/:id", h.Update)
	r.DELETE("/deposits/:id", h.Delete)
	r.POST("/deposits/:id/approve", h.Approve)
	r.POST("/deposits/:id/reject", h.Reject)
	return r, svc
}

func TestDepositHandler_Record(t *testing.T) {
	actor := newTestActor()
	r, svc := setupDepositRouter(actor)
	svc.On("Record", mock.Anything, actor.userID, actor.outletID, mock.MatchedBy(func(req depositapp.RecordRequest) bool {
		return req.Amount.Equals(valueobject.MustMoney("25000")) &&
			req.Method == "bank_transfer" &&
			req.DepositDate.String() == "2024-04-09"
	})).Return(sampleDeposit(actor.outletID, "pending"), nil)

	rec := doJSON(t, r, http.MethodPost, "/deposits", map[string]string{
		"amount":       "25000",
		"method":       "bank_transfer",
		"deposit_date": "2024-04-09",
	})

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var view map[string]any
	decodeData(t, rec, &view)
	assert.Equal(t, "pending", view["status"])
	assert.Equal(t, actor.outletID.String(), view["outlet_id"])
	svc.AssertExpectations(t)
}

func TestDepositHandler_Record_RejectsUnknownMethod(t *testing.T) {
	r, svc := setupDepositRouter(newTestActor())

	rec := doJSON(t, r, http.MethodPost, "/deposits", map[string]string{"amount": "10", "method": "barter"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	svc.AssertNotCalled(t, "Record", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestDepositHandler_List_ScopesByOutlet(t *testing.T) {
	t.Run("non-approver sees own outlet only", func(t *testing.T) {
		actor := newTestActor()
		r, svc := setupDepositRouter(actor)
		svc.On("List", mock.Anything, mock.MatchedBy(func(f depositapp.ListFilter) bool {
			return f.OutletID != nil && *f.OutletID == actor.outletID && f.Status == "pending"
		})).Return([]depositapp.DepositResponse{}, int64(0), nil)

		rec := doJSON(t, r, http.MethodGet, "/deposits?status=pending&outlet_id="+uuid.NewString(), nil)

		assert.Equal(t, http.StatusOK, rec.Code)
		svc.AssertExpectations(t)
	})

	t.Run("approver may filter any outlet", func(t *testing.T) {
		r, svc := setupDepositRouter(newTestActor(auth.PermissionDepositApprove))
		other := uuid.New()
		svc.On("List", mock.Anything, mock.MatchedBy(func(f depositapp.ListFilter) bool {
			return f.OutletID != nil && *f.OutletID == other
		})).Return([]depositapp.DepositResponse{*sampleDeposit(other, "pending")}, int64(1), nil)

		rec := doJSON(t, r, http.MethodGet, "/deposits?outlet_id="+other.String(), nil)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, int64(1), decodeEnvelope(t, rec).Meta.Total)
	})

	t.Run("approver without filter sees all", func(t *testing.T) {
		r, svc := setupDepositRouter(newTestActor(auth.PermissionDepositApprove))
		svc.On("List", mock.Anything, mock.MatchedBy(func(f depositapp.ListFilter) bool {
			return f.OutletID == nil
		})).Return([]depositapp.DepositResponse{}, int64(0), nil)

		assert.Equal(t, http.StatusOK, doJSON(t, r, http.MethodGet, "/deposits", nil).Code)
	})
}

func TestDepositHandler_Get_OtherOutletForbidden(t *testing.T) {
	r, svc := setupDepositRouter(newTestActor())
	d := sampleDeposit(uuid.New(), "pending")
	svc.On("GetByID", mock.Anything, d.ID).Return(d, nil)

	rec := doJSON(t, r, http.MethodGet, "/deposits/"+d.ID.String(), nil)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, dto.ErrCodeForbidden, decodeEnvelope(t, rec).Error.Code)
}

func TestDepositHandler_UpdateAndDelete(t *testing.T) {
	actor := newTestActor()
	r, svc := setupDepositRouter(actor)
	d := sampleDeposit(actor.outletID, "pending")
	svc.On("Update", mock.Anything, d.ID, actor.outletID, mock.Anything).Return(d, nil)
	svc.On("Delete", mock.Anything, d.ID, actor.outletID).Return(nil)
	approved := uuid.New()
	svc.On("Delete", mock.Anything, approved, actor.outletID).
		Return(shared.NewInvalidStateTransition("deposit", "approved", "modify"))

	rec := doJSON(t, r, http.MethodPut, "/deposits/"+d.ID.String(), map[string]string{"amount": "26000", "method": "cash"})
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assert.Equal(t, http.StatusNoContent, doJSON(t, r, http.MethodDelete, "/deposits/"+d.ID.String(), nil).Code)
	assert.Equal(t, http.StatusConflict, doJSON(t, r, http.MethodDelete, "/deposits/"+approved.String(), nil).Code)
}

func TestDepositHandler_Decisions(t *testing.T) {
	actor := newTestActor(auth.PermissionDepositApprove)
	r, svc := setupDepositRouter(actor)
	d := sampleDeposit(uuid.New(), "approved")
	svc.On("Approve", mock.Anything, d.ID, actor.userID).Return(d, nil)
	failed := sampleDeposit(uuid.New(), "failed")
	svc.On("Reject", mock.Anything, failed.ID, actor.userID, "slip unreadable").Return(failed, nil)
	broken := uuid.New()
	svc.On("Approve", mock.Anything, broken, actor.userID).Return(nil, errors.New("db down"))

	assert.Equal(t, http.StatusOK, doJSON(t, r, http.MethodPost, "/deposits/"+d.ID.String()+"/approve", nil).Code)

	rec := doJSON(t, r, http.MethodPost, "/deposits/"+failed.ID.String()+"/reject", map[string]string{"reason": "slip unreadable"})
	require.Equal(t, http.StatusOK, rec.Code)
	var view map[string]any
	decodeData(t, rec, &view)
	assert.Equal(t, "failed", view["status"])

	assert.Equal(t, http.StatusInternalServerError, doJSON(t, r, http.MethodPost, "/deposits/"+broken.String()+"/approve", nil).Code)
}
