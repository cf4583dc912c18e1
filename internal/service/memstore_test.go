package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"fuelrecon-backend/internal/domain"
)

type dayKey struct {
	tenantID  int64
	stationID int64
	date      string
}

type storedReading struct {
	domain.NozzleReading
	date string
}

type storedPrice struct {
	tenantID  int64
	stationID int64
	fuelType  domain.FuelType
	domain.FuelPrice
}

type memState struct {
	nozzles   map[int64]domain.Nozzle
	readings  []storedReading
	sales     []domain.Sale
	creditors map[int64]domain.Creditor
	payments  []domain.CreditPayment
	reports   []domain.CashReport
	days      map[dayKey]domain.DayReconciliation
	diffs     map[int64]domain.ReconciliationDiff
	prices    []storedPrice
	audits    []domain.AuditEntry
	nextID    int64
}

func (s *memState) clone() *memState {
	c := *s
	c.nozzles = make(map[int64]domain.Nozzle, len(s.nozzles))
	for k, v := range s.nozzles {
		c.nozzles[k] = v
	}
	c.creditors = make(map[int64]domain.Creditor, len(s.creditors))
	for k, v := range s.creditors {
		c.creditors[k] = v
	}
	c.days = make(map[dayKey]domain.DayReconciliation, len(s.days))
	for k, v := range s.days {
		c.days[k] = v
	}
	c.diffs = make(map[int64]domain.ReconciliationDiff, len(s.diffs))
	for k, v := range s.diffs {
		c.diffs[k] = v
	}
	c.readings = append([]storedReading(nil), s.readings...)
	c.sales = append([]domain.Sale(nil), s.sales...)
	c.payments = append([]domain.CreditPayment(nil), s.payments...)
	c.reports = append([]domain.CashReport(nil), s.reports...)
	c.prices = append([]storedPrice(nil), s.prices...)
	c.audits = append([]domain.AuditEntry(nil), s.audits...)
	return &c
}

// memDB stands in for postgres. Transactions run one at a time, which is at least as strict
// as the row locks the real store takes, and roll back by restoring a snapshot.
type memDB struct {
	txMu  sync.Mutex
	mu    sync.Mutex
	state *memState
}

func newMemDB() *memDB {
	return &memDB{state: &memState{
		nozzles:   map[int64]domain.Nozzle{},
		creditors: map[int64]domain.Creditor{},
		days:      map[dayKey]domain.DayReconciliation{},
		diffs:     map[int64]domain.ReconciliationDiff{},
	}}
}

type inTxKey struct{}

func (db *memDB) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(inTxKey{}) != nil {
		return fn(ctx)
	}
	db.txMu.Lock()
	defer db.txMu.Unlock()

	db.mu.Lock()
	snapshot := db.state.clone()
	db.mu.Unlock()

	if err := fn(context.WithValue(ctx, inTxKey{}, true)); err != nil {
		db.mu.Lock()
		db.state = snapshot
		db.mu.Unlock()
		return err
	}
	return nil
}

func (db *memDB) id() int64 {
	db.state.nextID++
	return db.state.nextID
}

func (db *memDB) addNozzle(n domain.Nozzle) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.state.nozzles[n.ID] = n
}

func (db *memDB) addCreditor(c domain.Creditor) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.state.creditors[c.ID] = c
}

func (db *memDB) addPrice(tenantID, stationID int64, fuelType domain.FuelType, price string, from time.Time) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.state.prices = append(db.state.prices, storedPrice{
		tenantID: tenantID, stationID: stationID, fuelType: fuelType,
		FuelPrice: domain.FuelPrice{Price: decimal.RequireFromString(price), ValidFrom: from},
	})
}

func (db *memDB) readingCount() int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.state.readings)
}

func (db *memDB) sale(readingID int64) *domain.Sale {
	db.mu.Lock()
	defer db.mu.Unlock()
	for _, s := range db.state.sales {
		if s.ReadingID != nil && *s.ReadingID == readingID {
			sale := s
			return &sale
		}
	}
	return nil
}

func (db *memDB) readingStatus(readingID int64) domain.ReadingStatus {
	db.mu.Lock()
	defer db.mu.Unlock()
	for _, r := range db.state.readings {
		if r.ID == readingID {
			return r.Status
		}
	}
	return ""
}

func (db *memDB) auditsFor(action domain.AuditAction) []domain.AuditEntry {
	db.mu.Lock()
	defer db.mu.Unlock()
	var out []domain.AuditEntry
	for _, a := range db.state.audits {
		if a.Action == action {
			out = append(out, a)
		}
	}
	return out
}

type memNozzles struct{ db *memDB }

func (r memNozzles) GetByID(ctx context.Context, tenantID, nozzleID int64) (*domain.Nozzle, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	n, ok := r.db.state.nozzles[nozzleID]
	if !ok || n.TenantID != tenantID {
		return nil, domain.ErrNotFound
	}
	return &n, nil
}

func (r memNozzles) GetForUpdate(ctx context.Context, tenantID, nozzleID int64) (*domain.Nozzle, error) {
	return r.GetByID(ctx, tenantID, nozzleID)
}

type memReadings struct{ db *memDB }

func (r memReadings) Create(ctx context.Context, reading *domain.NozzleReading, readingDate string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	reading.ID = r.db.id()
	reading.CreatedAt = time.Now().UTC()
	r.db.state.readings = append(r.db.state.readings, storedReading{NozzleReading: *reading, date: readingDate})
	return nil
}

func (r memReadings) GetByIDForUpdate(ctx context.Context, tenantID, readingID int64) (*domain.NozzleReading, string, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, row := range r.db.state.readings {
		if row.ID == readingID && row.TenantID == tenantID {
			reading := row.NozzleReading
			return &reading, row.date, nil
		}
	}
	return nil, "", domain.ErrNotFound
}

func (r memReadings) GetLatestActive(ctx context.Context, tenantID, nozzleID int64) (*domain.NozzleReading, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var latest *domain.NozzleReading
	for _, row := range r.db.state.readings {
		if row.TenantID != tenantID || row.NozzleID != nozzleID || row.Status != domain.ReadingStatusActive {
			continue
		}
		if latest == nil || !row.RecordedAt.Before(latest.RecordedAt) {
			reading := row.NozzleReading
			latest = &reading
		}
	}
	return latest, nil
}

func (r memReadings) UpdateStatus(ctx context.Context, tenantID, readingID int64, status domain.ReadingStatus) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for i := range r.db.state.readings {
		if r.db.state.readings[i].ID == readingID && r.db.state.readings[i].TenantID == tenantID {
			r.db.state.readings[i].Status = status
			return nil
		}
	}
	return domain.ErrNotFound
}

func (r memReadings) SumDay(ctx context.Context, tenantID, stationID int64, date string) (*domain.DayMeterTotals, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	type bounds struct{ min, max decimal.Decimal }
	perNozzle := map[int64]*bounds{}
	totals := &domain.DayMeterTotals{}
	for _, row := range r.db.state.readings {
		if row.TenantID != tenantID || row.StationID != stationID || row.date != date || row.Status != domain.ReadingStatusActive {
			continue
		}
		totals.Count++
		b, ok := perNozzle[row.NozzleID]
		if !ok {
			perNozzle[row.NozzleID] = &bounds{min: row.Reading, max: row.Reading}
			continue
		}
		b.min = decimal.Min(b.min, row.Reading)
		b.max = decimal.Max(b.max, row.Reading)
	}
	for _, b := range perNozzle {
		totals.Opening = totals.Opening.Add(b.min)
		totals.Closing = totals.Closing.Add(b.max)
	}
	return totals, nil
}

type memSales struct{ db *memDB }

func (r memSales) Create(ctx context.Context, sale *domain.Sale) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	sale.ID = r.db.id()
	sale.CreatedAt = time.Now().UTC()
	r.db.state.sales = append(r.db.state.sales, *sale)
	return nil
}

func (r memSales) VoidByReading(ctx context.Context, tenantID, readingID int64) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var n int64
	for i, s := range r.db.state.sales {
		if s.TenantID == tenantID && s.ReadingID != nil && *s.ReadingID == readingID && s.Status != domain.SaleStatusVoided {
			r.db.state.sales[i].Status = domain.SaleStatusVoided
			n++
		}
	}
	return n, nil
}

func (r memSales) SumDay(ctx context.Context, tenantID, stationID int64, date string) (*domain.DaySalesTotals, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	totals := &domain.DaySalesTotals{}
	for _, s := range r.db.state.sales {
		if s.TenantID != tenantID || s.StationID != stationID || s.SaleDate != date || s.Status == domain.SaleStatusVoided {
			continue
		}
		totals.Count++
		totals.Total = totals.Total.Add(s.Amount)
		totals.Volume = totals.Volume.Add(s.Volume)
		switch s.PaymentMethod {
		case domain.PaymentMethodCash:
			totals.Cash = totals.Cash.Add(s.Amount)
		case domain.PaymentMethodCard:
			totals.Card = totals.Card.Add(s.Amount)
		case domain.PaymentMethodUPI:
			totals.UPI = totals.UPI.Add(s.Amount)
		case domain.PaymentMethodCredit:
			totals.Credit = totals.Credit.Add(s.Amount)
		}
	}
	return totals, nil
}

func (r memSales) SumCashBetween(ctx context.Context, tenantID, stationID int64, from, to time.Time) (decimal.Decimal, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	total := decimal.Zero
	for _, s := range r.db.state.sales {
		if s.TenantID != tenantID || s.StationID != stationID || s.Status == domain.SaleStatusVoided || s.PaymentMethod != domain.PaymentMethodCash {
			continue
		}
		if !s.RecordedAt.Before(from) && s.RecordedAt.Before(to) {
			total = total.Add(s.Amount)
		}
	}
	return total, nil
}

type memCreditors struct{ db *memDB }

func (r memCreditors) GetByID(ctx context.Context, tenantID, creditorID int64) (*domain.Creditor, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	c, ok := r.db.state.creditors[creditorID]
	if !ok || c.TenantID != tenantID {
		return nil, domain.ErrNotFound
	}
	return &c, nil
}

func (r memCreditors) GetForUpdate(ctx context.Context, tenantID, creditorID int64) (*domain.Creditor, error) {
	return r.GetByID(ctx, tenantID, creditorID)
}

func (r memCreditors) GetBalance(ctx context.Context, tenantID, creditorID int64) (decimal.Decimal, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	balance := decimal.Zero
	for _, s := range r.db.state.sales {
		if s.TenantID == tenantID && s.CreditorID != nil && *s.CreditorID == creditorID && s.Status != domain.SaleStatusVoided {
			balance = balance.Add(s.Amount)
		}
	}
	for _, p := range r.db.state.payments {
		if p.TenantID == tenantID && p.CreditorID == creditorID {
			balance = balance.Sub(p.Amount)
		}
	}
	return balance, nil
}

func (r memCreditors) CreatePayment(ctx context.Context, payment *domain.CreditPayment) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	payment.ID = r.db.id()
	r.db.state.payments = append(r.db.state.payments, *payment)
	return nil
}

type memCashReports struct{ db *memDB }

func (r memCashReports) Create(ctx context.Context, report *domain.CashReport) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	report.ID = r.db.id()
	report.CreatedAt = time.Now().UTC()
	r.db.state.reports = append(r.db.state.reports, *report)
	return nil
}

func (r memCashReports) ListByDay(ctx context.Context, tenantID, stationID int64, date string) ([]domain.CashReport, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []domain.CashReport
	for _, rep := range r.db.state.reports {
		if rep.TenantID == tenantID && rep.StationID == stationID && rep.ReportDate == date {
			out = append(out, rep)
		}
	}
	return out, nil
}

type memReconciliations struct{ db *memDB }

func (r memReconciliations) ensure(tenantID, stationID int64, date string) domain.DayReconciliation {
	key := dayKey{tenantID, stationID, date}
	rec, ok := r.db.state.days[key]
	if !ok {
		rec = domain.DayReconciliation{ID: r.db.id(), TenantID: tenantID, StationID: stationID, Date: date, UpdatedAt: time.Now().UTC()}
		r.db.state.days[key] = rec
	}
	return rec
}

func (r memReconciliations) GetOrCreateForUpdate(ctx context.Context, tenantID, stationID int64, date string) (*domain.DayReconciliation, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	rec := r.ensure(tenantID, stationID, date)
	return &rec, nil
}

func (r memReconciliations) LockDayShared(ctx context.Context, tenantID, stationID int64, date string) (*domain.DayReconciliation, error) {
	return r.GetOrCreateForUpdate(ctx, tenantID, stationID, date)
}

func (r memReconciliations) Get(ctx context.Context, tenantID, stationID int64, date string) (*domain.DayReconciliation, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	rec, ok := r.db.state.days[dayKey{tenantID, stationID, date}]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &rec, nil
}

func (r memReconciliations) Update(ctx context.Context, rec *domain.DayReconciliation) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	key := dayKey{rec.TenantID, rec.StationID, rec.Date}
	stored, ok := r.db.state.days[key]
	if !ok || stored.ID != rec.ID {
		return domain.ErrNotFound
	}
	if stored.Finalized {
		return domain.ErrDayFinalized
	}
	rec.UpdatedAt = time.Now().UTC().Truncate(time.Microsecond)
	r.db.state.days[key] = *rec
	return nil
}

func (r memReconciliations) UpsertDiff(ctx context.Context, diff *domain.ReconciliationDiff) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if existing, ok := r.db.state.diffs[diff.CashReportID]; ok {
		diff.ID = existing.ID
	} else {
		diff.ID = r.db.id()
	}
	diff.UpdatedAt = time.Now().UTC()
	r.db.state.diffs[diff.CashReportID] = *diff
	return nil
}

func (r memReconciliations) ListDiffs(ctx context.Context, tenantID, reconciliationID int64) ([]domain.ReconciliationDiff, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := []domain.ReconciliationDiff{}
	for _, d := range r.db.state.diffs {
		if d.TenantID == tenantID && d.ReconciliationID == reconciliationID {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CashReportID < out[j].CashReportID })
	return out, nil
}

func (r memReconciliations) ListActiveStationDays(ctx context.Context, date string) ([]domain.StationDay, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	seen := map[dayKey]bool{}
	var out []domain.StationDay
	for _, s := range r.db.state.sales {
		key := dayKey{s.TenantID, s.StationID, s.SaleDate}
		if s.SaleDate == date && s.Status != domain.SaleStatusVoided && !seen[key] {
			seen[key] = true
			out = append(out, domain.StationDay{TenantID: s.TenantID, StationID: s.StationID, Date: date})
		}
	}
	return out, nil
}

func (r memReconciliations) ListOpenDaysBetween(ctx context.Context, since, before string) ([]domain.StationDay, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []domain.StationDay
	for key, rec := range r.db.state.days {
		if !rec.Finalized && key.date >= since && key.date < before {
			out = append(out, domain.StationDay{TenantID: key.tenantID, StationID: key.stationID, Date: key.date})
		}
	}
	return out, nil
}

type memPrices struct{ db *memDB }

func (r memPrices) GetEffective(ctx context.Context, tenantID, stationID int64, fuelType domain.FuelType, at time.Time) (*domain.FuelPrice, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var best *domain.FuelPrice
	for _, p := range r.db.state.prices {
		if p.tenantID != tenantID || p.stationID != stationID || p.fuelType != fuelType || p.ValidFrom.After(at) {
			continue
		}
		if best == nil || p.ValidFrom.After(best.ValidFrom) {
			price := p.FuelPrice
			best = &price
		}
	}
	return best, nil
}

type memAudit struct{ db *memDB }

func (r memAudit) Create(ctx context.Context, entry *domain.AuditEntry) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	entry.ID = r.db.id()
	if entry.EventID == uuid.Nil {
		entry.EventID = uuid.New()
	}
	entry.CreatedAt = time.Now().UTC()
	r.db.state.audits = append(r.db.state.audits, *entry)
	return nil
}

func (r memAudit) ListByEntity(ctx context.Context, tenantID int64, entityType string, entityID int64) ([]domain.AuditEntry, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []domain.AuditEntry
	for _, a := range r.db.state.audits {
		if a.TenantID == tenantID && a.EntityType == entityType && a.EntityID == entityID {
			out = append(out, a)
		}
	}
	return out, nil
}

// recordingPublisher keeps every published event.
type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.Event
}

func (p *recordingPublisher) Publish(events ...domain.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
}

func (p *recordingPublisher) ofKind(kind domain.EventKind) []domain.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []domain.Event
	for _, e := range p.events {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}
