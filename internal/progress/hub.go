// Package progress fans workflow events out to live subscribers.
package progress

import (
	"context"
	"sync"

	"auction-analyzer/backend/internal/workflow"
)

const (
	defaultSubscriberCapacity = 32
	defaultHistoryLimit       = 32
	defaultRetainedRuns       = 256
)

// Logger is the logging surface used by Hub.
type Logger interface {
	Warn(msg string, keysAndValues ...interface{})
}

// Option customizes Hub construction.
type Option func(*Hub)

// WithSubscriberCapacity overrides the buffered channel size per subscriber.
func WithSubscriberCapacity(n int) Option {
	return func(h *Hub) {
		if n > 0 {
			h.capacity = n
		}
	}
}

// WithLogger injects a logger for dropped events.
func WithLogger(l Logger) Option {
	return func(h *Hub) { h.logger = l }
}

// Hub delivers progress events per analysis. Delivery never blocks: a
// subscriber whose buffer is full misses the event. Each analysis keeps a
// short history that is replayed to late subscribers.
type Hub struct {
	mu          sync.Mutex
	subscribers map[string]map[*subscriber]struct{}
	history     map[string][]workflow.Event
	finished    []string
	capacity    int
	logger      Logger
}

// Subscription is an active stream of one analysis' events. Events is
// closed once the run completes or Close is called.
type Subscription struct {
	Events <-chan workflow.Event
	cancel func()
}

// Close terminates the subscription.
func (s Subscription) Close() {
	if s.cancel != nil {
		s.cancel()
	}
}

type subscriber struct {
	ch     chan workflow.Event
	closed bool
}

// NewHub creates a new Hub.
func NewHub(opts ...Option) *Hub {
	h := &Hub{
		subscribers: map[string]map[*subscriber]struct{}{},
		history:     map[string][]workflow.Event{},
		capacity:    defaultSubscriberCapacity,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

// Subscribe streams the events of analysisID, starting with its history.
// Subscribing to a completed run replays it and closes the channel.
func (h *Hub) Subscribe(analysisID string) Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()

	past := h.history[analysisID]
	sub := &subscriber{ch: make(chan workflow.Event, h.capacity+len(past))}
	for _, ev := range past {
		sub.ch <- ev
	}
	if n := len(past); n > 0 && past[n-1].Stage == workflow.StageComplete {
		sub.close()
		return Subscription{Events: sub.ch}
	}

	if h.subscribers[analysisID] == nil {
		h.subscribers[analysisID] = map[*subscriber]struct{}{}
	}
	h.subscribers[analysisID][sub] = struct{}{}
	return Subscription{
		Events: sub.ch,
		cancel: func() { h.remove(analysisID, sub) },
	}
}

// Notify implements workflow.Notifier.
func (h *Hub) Notify(_ context.Context, ev workflow.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	past := append(h.history[ev.AnalysisID], ev)
	if len(past) > defaultHistoryLimit {
		past = past[len(past)-defaultHistoryLimit:]
	}
	h.history[ev.AnalysisID] = past

	for sub := range h.subscribers[ev.AnalysisID] {
		select {
		case sub.ch <- ev:
		default:
			if h.logger != nil {
				h.logger.Warn("progress event dropped", "analysis_id", ev.AnalysisID, "stage", ev.Stage, "status", ev.Status)
			}
		}
	}

	if ev.Stage == workflow.StageComplete {
		for sub := range h.subscribers[ev.AnalysisID] {
			sub.close()
		}
		delete(h.subscribers, ev.AnalysisID)
		h.retire(ev.AnalysisID)
	}
}

// Forget drops the history of analysisID and closes its subscribers.
func (h *Hub) Forget(analysisID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subscribers[analysisID] {
		sub.close()
	}
	delete(h.subscribers, analysisID)
	delete(h.history, analysisID)
}

// retire bounds the number of completed runs whose history is kept.
func (h *Hub) retire(analysisID string) {
	h.finished = append(h.finished, analysisID)
	for len(h.finished) > defaultRetainedRuns {
		delete(h.history, h.finished[0])
		h.finished = h.finished[1:]
	}
}

func (h *Hub) remove(analysisID string, sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if subs := h.subscribers[analysisID]; subs != nil {
		delete(subs, sub)
		if len(subs) == 0 {
			delete(h.subscribers, analysisID)
		}
	}
	sub.close()
}

func (s *subscriber) close() {
	if s.closed {
		return
	}
	s.closed = true
	close(s.ch)
}
