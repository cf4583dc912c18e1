package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"fuelrecon-backend/internal/domain"
	"fuelrecon-backend/internal/logger"
	"fuelrecon-backend/internal/metrics"
)

// SQLSTATEs that mean "run it again".
const (
	pqSerializationFailure pq.ErrorCode = "40001"
	pqDeadlockDetected     pq.ErrorCode = "40P01"
)

type TxOptions struct {
	AcquireTimeout time.Duration
	MaxRetries     int
	RetryBackoff   time.Duration
}

type TxManager struct {
	db   *sql.DB
	opts TxOptions
}

func NewTxManager(db *sql.DB, opts TxOptions) *TxManager {
	if opts.AcquireTimeout <= 0 {
		opts.AcquireTimeout = 5 * time.Second
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	return &TxManager{db: db, opts: opts}
}

// RunInTx runs fn in a READ COMMITTED transaction. Repositories serialise conflicting
// writers with row locks. Serialization failures and deadlocks are retried up to
// MaxRetries times; when retries run out, or no connection can be acquired within
// AcquireTimeout, the error wraps domain.ErrUnavailable. Once begun, the transaction
// ignores caller cancellation and ends on fn's result alone.
func (tm *TxManager) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	// Already inside a transaction: join it.
	if _, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return fn(ctx)
	}

	for attempt := 0; ; attempt++ {
		start := time.Now()
		err := tm.runOnce(ctx, fn)
		metrics.ObserveTx(time.Since(start), err)
		if err == nil {
			return nil
		}
		if !isRetryable(err) {
			return err
		}
		if attempt >= tm.opts.MaxRetries {
			logger.Error("Transaction retries exhausted", "attempts", attempt+1, "error", err)
			return fmt.Errorf("%w: %v", domain.ErrUnavailable, err)
		}
		metrics.TxRetriesTotal.Inc()
		logger.Warn("Retrying transaction", "attempt", attempt+1, "error", err)

		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %v", domain.ErrUnavailable, ctx.Err())
		case <-time.After(tm.opts.RetryBackoff * time.Duration(attempt+1)):
		}
	}
}

func (tm *TxManager) runOnce(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	acquireCtx, cancel := context.WithTimeout(ctx, tm.opts.AcquireTimeout)
	c, err := tm.db.Conn(acquireCtx)
	cancel()
	if err != nil {
		return fmt.Errorf("%w: acquire connection: %v", domain.ErrUnavailable, err)
	}
	defer c.Close()

	txCtx := context.WithoutCancel(ctx)
	tx, err := c.BeginTx(txCtx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return err
	}

	// Ensure rollback on panic
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		} else if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(context.WithValue(txCtx, txKey{}, tx)); err != nil {
		return err
	}
	return tx.Commit()
}

func isRetryable(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == pqSerializationFailure || pqErr.Code == pqDeadlockDetected
	}
	return errors.Is(err, driver.ErrBadConn)
}
