package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"fuelrecon-backend/internal/domain"
)

const (
	tenantID  int64 = 1
	stationID int64 = 1
	testDate        = "2024-03-10"
)

var (
	base      = time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC)
	attendant = domain.AuthContext{TenantID: tenantID, UserID: 21, Role: domain.RoleAttendant}
	manager   = domain.AuthContext{TenantID: tenantID, UserID: 22, Role: domain.RoleManager}
	owner     = domain.AuthContext{TenantID: tenantID, UserID: 23, Role: domain.RoleOwner}
)

type harness struct {
	db        *memDB
	publisher *recordingPublisher
	readings  ReadingService
	recs      ReconciliationService
	credit    CreditService
}

type harnessOptions struct {
	reading ReadingOptions
	rec     ReconciliationOptions
}

// newHarness seeds station 1 with petrol nozzles 10 and 13 at price 100, an inactive nozzle 11,
// a diesel nozzle 12 with no price, creditor 5 (limit 1000, any station) and creditor 6 (station 2 only).
func newHarness(t *testing.T, opts ...harnessOptions) *harness {
	t.Helper()
	var o harnessOptions
	if len(opts) > 0 {
		o = opts[0]
	}

	db := newMemDB()
	db.addNozzle(domain.Nozzle{ID: 10, TenantID: tenantID, StationID: stationID, PumpID: 1, FuelType: domain.FuelTypePetrol, Status: domain.NozzleStatusActive})
	db.addNozzle(domain.Nozzle{ID: 11, TenantID: tenantID, StationID: stationID, PumpID: 1, FuelType: domain.FuelTypePetrol, Status: domain.NozzleStatusInactive})
	db.addNozzle(domain.Nozzle{ID: 12, TenantID: tenantID, StationID: stationID, PumpID: 2, FuelType: domain.FuelTypeDiesel, Status: domain.NozzleStatusActive})
	db.addNozzle(domain.Nozzle{ID: 13, TenantID: tenantID, StationID: stationID, PumpID: 2, FuelType: domain.FuelTypePetrol, Status: domain.NozzleStatusActive})
	db.addPrice(tenantID, stationID, domain.FuelTypePetrol, "90", time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC))
	db.addPrice(tenantID, stationID, domain.FuelTypePetrol, "100", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	db.addCreditor(domain.Creditor{ID: 5, TenantID: tenantID, Name: "Fleet Co", CreditLimit: decimal.NewFromInt(1000)})
	other := int64(2)
	db.addCreditor(domain.Creditor{ID: 6, TenantID: tenantID, StationID: &other, Name: "Depot", CreditLimit: decimal.NewFromInt(1000)})

	clock := func() time.Time { return base.Add(20 * time.Hour) }
	pub := &recordingPublisher{}
	credit := NewCreditService(memCreditors{db}, clock)
	h := &harness{
		db:        db,
		publisher: pub,
		credit:    credit,
		readings: NewReadingService(db, memNozzles{db}, memReadings{db}, memSales{db}, memReconciliations{db}, memAudit{db},
			NewPriceResolver(memPrices{db}), credit, pub, o.reading),
		recs: NewReconciliationService(db, memReadings{db}, memSales{db}, memCashReports{db}, memReconciliations{db}, memAudit{db},
			pub, o.rec, clock),
	}
	return h
}

func readingReq(nozzleID int64, reading string, at time.Time, method domain.PaymentMethod) SubmitReadingRequest {
	return SubmitReadingRequest{
		NozzleID:      nozzleID,
		Reading:       decimal.RequireFromString(reading),
		RecordedAt:    at,
		PaymentMethod: method,
	}
}

func creditReq(nozzleID int64, reading string, at time.Time, creditorID int64) SubmitReadingRequest {
	req := readingReq(nozzleID, reading, at, domain.PaymentMethodCredit)
	req.CreditorID = &creditorID
	return req
}

// submit posts a reading and fails the test on error.
func (h *harness) submit(t *testing.T, auth domain.AuthContext, req SubmitReadingRequest) *domain.ReadingOutcome {
	t.Helper()
	out, err := h.readings.SubmitReading(context.Background(), auth, req)
	require.NoError(t, err)
	return out
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	require.Truef(t, dec(want).Equal(got), "want %s, got %s %v", want, got.String(), msgAndArgs)
}
