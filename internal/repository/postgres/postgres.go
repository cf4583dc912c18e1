package postgres

import (
	"context"
	"database/sql"

	"fuelrecon-backend/internal/repository"

	_ "github.com/lib/pq"
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type txKey struct{}

// conn returns the transaction carried by ctx, or the pool when there is none.
func conn(ctx context.Context, db *sql.DB) querier {
	if tx, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return tx
	}
	return db
}

type Store struct {
	db *sql.DB
	*TxManager
	repository.NozzleRepository
	repository.ReadingRepository
	repository.SaleRepository
	repository.CreditorRepository
	repository.CashReportRepository
	repository.ReconciliationRepository
	repository.PriceRepository
	repository.AuditRepository
	repository.AlertRepository
}

func NewStore(db *sql.DB, txOpts TxOptions) *Store {
	return &Store{
		db:                       db,
		TxManager:                NewTxManager(db, txOpts),
		NozzleRepository:         NewNozzleRepository(db),
		ReadingRepository:        NewReadingRepository(db),
		SaleRepository:           NewSaleRepository(db),
		CreditorRepository:       NewCreditorRepository(db),
		CashReportRepository:     NewCashReportRepository(db),
		ReconciliationRepository: NewReconciliationRepository(db),
		PriceRepository:          NewPriceRepository(db),
		AuditRepository:          NewAuditRepository(db),
		AlertRepository:          NewAlertRepository(db),
	}
}

// Ping checks the pool can reach the database.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close releases the pool. Call once at shutdown.
func (s *Store) Close() error {
	return s.db.Close()
}
