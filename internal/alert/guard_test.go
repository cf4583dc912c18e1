package alert

import (
	"context"
	"errors"
	"testing"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"

	"fuelrecon-backend/internal/domain"
)

func TestGuard_OpensAfterConsecutiveFailures(t *testing.T) {
	inner := &recordingSink{name: "flaky", err: errors.New("503")}
	g := Guard(inner, GuardOptions{FailureThreshold: 2, OpenTimeout: time.Minute})

	ctx := context.Background()
	ev := testEvent(domain.EventKindCashDiscrepancy)
	assert.Error(t, g.Notify(ctx, ev))
	assert.Error(t, g.Notify(ctx, ev))

	err := g.Notify(ctx, ev)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, 2, inner.count(), "open breaker must not reach the sink")
}

func TestGuard_RateLimit(t *testing.T) {
	inner := &recordingSink{name: "email"}
	g := Guard(inner, GuardOptions{RatePerSecond: 0.001, Burst: 1})

	ctx := context.Background()
	ev := testEvent(domain.EventKindMeterReset)
	assert.NoError(t, g.Notify(ctx, ev))
	assert.ErrorIs(t, g.Notify(ctx, ev), ErrRateLimited)
	assert.Equal(t, 1, inner.count())
	assert.Equal(t, "email", g.Name())
}
