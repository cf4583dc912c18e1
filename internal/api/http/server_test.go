package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"fuelrecon-backend/internal/domain"
	"fuelrecon-backend/internal/security"
	"fuelrecon-backend/internal/service"
	"fuelrecon-backend/internal/validation"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type fixture struct {
	readings *MockReadingService
	recs     *MockReconciliationService
	credit   *MockCreditService
	store    *MockPinger
	tokens   security.TokenManager
	handler  http.Handler
}

func newFixture() *fixture {
	f := &fixture{
		readings: new(MockReadingService),
		recs:     new(MockReconciliationService),
		credit:   new(MockCreditService),
		store:    new(MockPinger),
		tokens:   security.NewTokenManager(testSecret, "fuelrecon"),
	}
	f.handler = NewServer(f.readings, f.recs, f.credit, f.store, f.tokens).Router()
	return f
}

func (f *fixture) do(t *testing.T, method, path, body string, auth *domain.AuthContext) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if auth != nil {
		token, err := f.tokens.GenerateAccessToken(*auth, time.Hour)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

var manager = &domain.AuthContext{TenantID: 3, UserID: 11, Role: domain.RoleManager}

func TestRouter_RequiresToken(t *testing.T) {
	f := newFixture()
	rec := f.do(t, http.MethodPost, "/v1/readings", `{}`, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	f.readings.AssertNotCalled(t, "SubmitReading", mock.Anything, mock.Anything, mock.Anything)
}

func TestRouter_HealthIsPublic(t *testing.T) {
	f := newFixture()
	f.store.On("Ping", mock.Anything).Return(nil).Once()
	rec := f.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	f.store.On("Ping", mock.Anything).Return(errors.New("down")).Once()
	rec = f.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestSubmitReading(t *testing.T) {
	f := newFixture()
	body := `{"nozzle_id": 5, "reading": "1500.250", "recorded_at": "2024-03-10T08:00:00Z", "payment_method": "cash"}`

	f.readings.On("SubmitReading", mock.Anything, *manager, mock.MatchedBy(func(req service.SubmitReadingRequest) bool {
		return req.NozzleID == 5 && req.Reading.Equal(decimal.RequireFromString("1500.25")) && req.PaymentMethod == domain.PaymentMethodCash
	})).Return(&domain.ReadingOutcome{
		Reading: &domain.NozzleReading{ID: 99, Reading: decimal.RequireFromString("1500.25")},
		Sale:    &domain.Sale{ID: 100, Volume: decimal.RequireFromString("50"), Amount: decimal.RequireFromString("5000")},
	}, nil)

	rec := f.do(t, http.MethodPost, "/v1/readings", body, manager)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	sale := out["sale"].(map[string]any)
	assert.Equal(t, "5000", sale["amount"])
	assert.NotContains(t, out, "Events")
}

func TestSubmitReading_MalformedBody(t *testing.T) {
	f := newFixture()
	rec := f.do(t, http.MethodPost, "/v1/readings", `{"nozzle_id": "x"`, manager)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{domain.ErrInvalidNozzle, http.StatusNotFound, "INVALID_NOZZLE"},
		{domain.ErrDayFinalized, http.StatusConflict, "DAY_FINALIZED"},
		{domain.ErrDuplicateReading, http.StatusConflict, "DUPLICATE_READING"},
		{domain.ErrInsufficientRole, http.StatusForbidden, "INSUFFICIENT_ROLE"},
		{domain.ErrBackdatedNotAllowed, http.StatusForbidden, "BACKDATED_NOT_ALLOWED"},
		{fmt.Errorf("%w: diesel", domain.ErrPriceNotConfigured), http.StatusUnprocessableEntity, "PRICE_NOT_CONFIGURED"},
		{domain.ErrCreditLimitExceeded, http.StatusConflict, "CREDIT_LIMIT_EXCEEDED"},
		{fmt.Errorf("%w: retries exhausted", domain.ErrUnavailable), http.StatusServiceUnavailable, "UNAVAILABLE"},
		{errors.New("boom"), http.StatusInternalServerError, "INTERNAL"},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			f := newFixture()
			f.readings.On("SubmitReading", mock.Anything, mock.Anything, mock.Anything).Return(nil, tt.err)

			rec := f.do(t, http.MethodPost, "/v1/readings",
				`{"nozzle_id": 1, "reading": 10, "recorded_at": "2024-03-10T08:00:00Z", "payment_method": "cash"}`, manager)
			assert.Equal(t, tt.status, rec.Code)

			var out errorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
			assert.Equal(t, tt.code, out.Code)
		})
	}
}

func TestValidationErrorCarriesFields(t *testing.T) {
	f := newFixture()
	verr := &validation.RequestValidationError{Fields: []validation.FieldError{{Field: "reading", Tag: "decimal_gte0", Message: "reading must not be negative"}}}
	f.readings.On("SubmitReading", mock.Anything, mock.Anything, mock.Anything).Return(nil, verr)

	rec := f.do(t, http.MethodPost, "/v1/readings",
		`{"nozzle_id": 1, "reading": -1, "recorded_at": "2024-03-10T08:00:00Z", "payment_method": "cash"}`, manager)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var out errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out.Fields, 1)
	assert.Equal(t, "reading", out.Fields[0].Field)
}

func TestVoidReading(t *testing.T) {
	f := newFixture()
	f.readings.On("VoidReading", mock.Anything, *manager, int64(42), "wrong nozzle").
		Return(&domain.VoidResult{ID: 42, Status: domain.ReadingStatusVoided}, nil)

	rec := f.do(t, http.MethodPost, "/v1/readings/42/void", `{"reason": "wrong nozzle"}`, manager)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id": 42, "status": "voided"}`, rec.Body.String())
}

func TestReconciliationRoutes(t *testing.T) {
	f := newFixture()
	result := &domain.ReconciliationResult{Reconciliation: &domain.DayReconciliation{ID: 1, StationID: 8, Date: "2024-03-10", Finalized: true}}

	f.recs.On("RunReconciliation", mock.Anything, *manager, int64(8), "2024-03-10").Return(result, nil)
	f.recs.On("CloseDayReconciliation", mock.Anything, *manager, int64(8), "2024-03-10").Return(result, nil)
	f.recs.On("GetReconciliation", mock.Anything, *manager, int64(8), "2024-03-10").Return(nil, domain.ErrNotFound)

	assert.Equal(t, http.StatusOK, f.do(t, http.MethodPost, "/v1/stations/8/reconciliations/2024-03-10/run", "", manager).Code)
	assert.Equal(t, http.StatusOK, f.do(t, http.MethodPost, "/v1/stations/8/reconciliations/2024-03-10/close", "", manager).Code)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/v1/stations/8/reconciliations/2024-03-10", "", manager).Code)
	f.recs.AssertExpectations(t)
}

func TestRecordPayment_UsesPathCreditor(t *testing.T) {
	f := newFixture()
	f.credit.On("RecordPayment", mock.Anything, *manager, mock.MatchedBy(func(req service.RecordPaymentRequest) bool {
		return req.CreditorID == 4 && req.Amount.Equal(decimal.NewFromInt(250))
	})).Return(&domain.CreditPayment{ID: 1, CreditorID: 4, Amount: decimal.NewFromInt(250)}, nil)

	rec := f.do(t, http.MethodPost, "/v1/creditors/4/payments", `{"amount": "250", "payment_method": "cash"}`, manager)
	assert.Equal(t, http.StatusCreated, rec.Code)
	f.credit.AssertExpectations(t)
}

func TestCreditorBalance(t *testing.T) {
	f := newFixture()
	f.credit.On("GetBalance", mock.Anything, *manager, int64(4)).Return(&domain.CreditorBalance{
		CreditorID: 4, CreditLimit: decimal.NewFromInt(1000), Balance: decimal.NewFromInt(400), Available: decimal.NewFromInt(600),
	}, nil)

	rec := f.do(t, http.MethodGet, "/v1/creditors/4/balance", "", manager)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"available":"600"`)
}
