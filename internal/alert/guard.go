package alert

import (
	"context"
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"fuelrecon-backend/internal/domain"
	"fuelrecon-backend/internal/logger"
)

var ErrRateLimited = errors.New("alert sink rate limited")

type GuardOptions struct {
	FailureThreshold uint32
	OpenTimeout      time.Duration
	RatePerSecond    float64
	Burst            int
}

// guardedSink sheds load with a token bucket and stops calling a failing sink until OpenTimeout passes.
type guardedSink struct {
	sink    Sink
	breaker *gobreaker.CircuitBreaker[struct{}]
	limiter *rate.Limiter
}

func Guard(sink Sink, opts GuardOptions) Sink {
	if opts.FailureThreshold == 0 {
		opts.FailureThreshold = 5
	}
	limit := rate.Inf
	if opts.RatePerSecond > 0 {
		limit = rate.Limit(opts.RatePerSecond)
	}
	if opts.Burst <= 0 {
		opts.Burst = 1
	}

	settings := gobreaker.Settings{
		Name:        sink.Name(),
		MaxRequests: 1,
		Timeout:     opts.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= opts.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Alert sink breaker changed state", "sink", name, "from", from.String(), "to", to.String())
		},
	}
	return &guardedSink{
		sink:    sink,
		breaker: gobreaker.NewCircuitBreaker[struct{}](settings),
		limiter: rate.NewLimiter(limit, opts.Burst),
	}
}

func (g *guardedSink) Name() string {
	return g.sink.Name()
}

func (g *guardedSink) Notify(ctx context.Context, ev domain.Event) error {
	if !g.limiter.Allow() {
		return ErrRateLimited
	}
	_, err := g.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, g.sink.Notify(ctx, ev)
	})
	return err
}
