package workflow

import (
	"context"
	"time"
)

// Status is the progress state of a stage.
type Status string

const (
	StatusRunning Status = "running"
	StatusDone    Status = "done"
	StatusError   Status = "error"
)

// Event is a single progress notification.
type Event struct {
	AnalysisID string    `json:"analysis_id"`
	Stage      string    `json:"stage"`
	Status     Status    `json:"status"`
	Percent    int       `json:"percent"`
	At         time.Time `json:"at"`
}

// Notifier receives progress events. The orchestrator calls it from a
// delivery goroutine, one event at a time, in emission order.
type Notifier interface {
	Notify(ctx context.Context, ev Event)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(ctx context.Context, ev Event)

// Notify calls f(ctx, ev).
func (f NotifierFunc) Notify(ctx context.Context, ev Event) { f(ctx, ev) }

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, Event) {}
