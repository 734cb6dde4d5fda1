package engine

import (
	"context"
	"errors"
	"strings"
	"time"

	"venue-backend/internal/metadata"
)

// Change describes one committed write.
type Change struct {
	Entity string             `json:"entity"`
	Op     metadata.Operation `json:"op"`
	Key    any                `json:"key"`
	At     time.Time          `json:"at"`
}

// ChangeListener is told about every committed write. Implementations
// must not block for long; they run on the request goroutine.
type ChangeListener interface {
	EntityChanged(ctx context.Context, ch Change)
}

// Recorder observes the outcome and latency of engine operations.
type Recorder interface {
	ObserveOperation(entity, op, outcome string, elapsed time.Duration)
}

type noopRecorder struct{}

func (noopRecorder) ObserveOperation(string, string, string, time.Duration) {}

// Subscribe registers a listener for committed writes.
func (e *Engine) Subscribe(l ChangeListener) {
	e.listeners = append(e.listeners, l)
}

// SetRecorder replaces the operation recorder.
func (e *Engine) SetRecorder(r Recorder) {
	if r == nil {
		r = noopRecorder{}
	}
	e.recorder = r
}

func (e *Engine) notify(ctx context.Context, ch Change) {
	if ch.At.IsZero() {
		ch.At = time.Now().UTC()
	}
	for _, l := range e.listeners {
		l.EntityChanged(ctx, ch)
	}
}

func (e *Engine) observe(entity *metadata.Entity, op metadata.Operation, start time.Time, err error) {
	e.recorder.ObserveOperation(entity.Name, string(op), outcome(err), time.Since(start))
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return strings.ToLower(appErr.Code)
	}
	return "error"
}
