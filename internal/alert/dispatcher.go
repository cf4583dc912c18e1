// Package alert delivers engine events to sinks after the producing transaction commits.
// Delivery is best effort: a full queue drops the event and a failing sink is logged, never retried.
package alert

import (
	"context"
	"fmt"
	"sync"
	"time"

	"fuelrecon-backend/internal/domain"
	"fuelrecon-backend/internal/logger"
	"fuelrecon-backend/internal/metrics"
)

// Sink receives events one at a time.
type Sink interface {
	Name() string
	Notify(ctx context.Context, ev domain.Event) error
}

type Dispatcher struct {
	queue       chan domain.Event
	sinks       []Sink
	sinkTimeout time.Duration

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewDispatcher starts workers that fan each queued event out to every sink.
func NewDispatcher(queueSize, workers int, sinkTimeout time.Duration, sinks ...Sink) *Dispatcher {
	if queueSize <= 0 {
		queueSize = 1
	}
	if workers <= 0 {
		workers = 1
	}
	if sinkTimeout <= 0 {
		sinkTimeout = 10 * time.Second
	}
	d := &Dispatcher{
		queue:       make(chan domain.Event, queueSize),
		sinks:       sinks,
		sinkTimeout: sinkTimeout,
	}
	for i := 0; i < workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}
	return d
}

// Publish enqueues events without blocking. Events that do not fit are dropped.
func (d *Dispatcher) Publish(events ...domain.Event) {
	if len(events) == 0 {
		return
	}
	d.mu.RLock()
	defer d.mu.RUnlock()

	for _, ev := range events {
		if d.closed {
			logger.Warn("Alert dispatcher closed, dropping event", "eventID", ev.ID, "kind", ev.Kind)
			metrics.AlertsDropped.Inc()
			continue
		}
		select {
		case d.queue <- ev:
			metrics.AlertQueueDepth.Set(float64(len(d.queue)))
		default:
			logger.Warn("Alert queue full, dropping event", "eventID", ev.ID, "kind", ev.Kind, "tenantID", ev.TenantID)
			metrics.AlertsDropped.Inc()
		}
	}
}

// Close stops intake and waits for queued events to drain or ctx to end.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("alert dispatcher drain: %w", ctx.Err())
	}
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for ev := range d.queue {
		metrics.AlertQueueDepth.Set(float64(len(d.queue)))
		for _, sink := range d.sinks {
			d.deliver(sink, ev)
		}
	}
}

func (d *Dispatcher) deliver(sink Sink, ev domain.Event) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Alert sink panicked", "sink", sink.Name(), "eventID", ev.ID, "panic", r)
			metrics.RecordAlert(sink.Name(), ev.Kind, fmt.Errorf("panic: %v", r))
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), d.sinkTimeout)
	defer cancel()

	logger.ExternalServiceCall(sink.Name(), "Notify", "eventID", ev.ID, "kind", ev.Kind)
	err := sink.Notify(ctx, ev)
	logger.ExternalServiceResult(sink.Name(), "Notify", err, "eventID", ev.ID, "kind", ev.Kind)
	metrics.RecordAlert(sink.Name(), ev.Kind, err)
}
