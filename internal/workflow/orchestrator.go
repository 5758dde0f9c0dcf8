package workflow

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	eventQueueSize    = 64
	eventDrainTimeout = 5 * time.Second
)

// Orchestrator drives the fixed stage graph.
type Orchestrator struct {
	runner       *Runner
	stages       Stages
	notifier     Notifier
	logger       Logger
	now          func() time.Time
	drainTimeout time.Duration
}

// NewOrchestrator wires a runner, the stage implementations and a progress
// notifier. A nil notifier discards events.
func NewOrchestrator(runner *Runner, stages Stages, notifier Notifier, logger Logger) *Orchestrator {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &Orchestrator{
		runner:       runner,
		stages:       stages,
		notifier:     notifier,
		logger:       logger,
		now:          time.Now,
		drainTimeout: eventDrainTimeout,
	}
}

// Execute runs the whole graph and returns the terminal snapshot. Stage
// failures are absorbed into the snapshot's error list; Execute itself never
// fails. Report always runs. Progress events are delivered in order by a
// separate goroutine, so a slow or stuck notifier never holds up the stages.
func (o *Orchestrator) Execute(ctx context.Context, initial State) State {
	state := initial
	o.logger.Info("workflow started", "analysis_id", state.AnalysisID, "files", len(state.FilePaths))

	events := o.startDelivery(ctx)
	defer events.finish()

	events.emit(state.AnalysisID, StageParse, StatusRunning)
	state = state.Merge(o.step(ctx, events, StageParse, o.stages.Parse, state))

	// Rights, Market and News read the same post-parse snapshot and write
	// disjoint slots; their updates are merged in a fixed order after the join.
	parallel := []struct {
		name string
		fn   StageFunc
	}{
		{StageRights, o.stages.Rights},
		{StageMarket, o.stages.Market},
		{StageNews, o.stages.News},
	}
	snapshot := state
	var updates [3]Update
	var g errgroup.Group
	for i, p := range parallel {
		events.emit(snapshot.AnalysisID, p.name, StatusRunning)
		g.Go(func() error {
			updates[i] = o.step(ctx, events, p.name, p.fn, snapshot)
			return nil
		})
	}
	_ = g.Wait()
	for _, u := range updates {
		state = state.Merge(u)
	}

	events.emit(state.AnalysisID, StageValuation, StatusRunning)
	state = state.Merge(o.step(ctx, events, StageValuation, o.stages.Valuation, state))

	events.emit(state.AnalysisID, StageReport, StatusRunning)
	state = state.Merge(o.step(ctx, events, StageReport, o.stages.Report, state))

	o.logger.Info("workflow finished", "analysis_id", state.AnalysisID, "errors", len(state.Errors))
	return state
}

// step runs one stage and emits its completion event.
func (o *Orchestrator) step(ctx context.Context, events *delivery, name string, fn StageFunc, s State) Update {
	u, err := o.runner.Run(ctx, name, fn, s)
	if err != nil {
		events.emit(s.AnalysisID, name, StatusError)
	} else {
		events.emit(s.AnalysisID, name, StatusDone)
	}
	return u
}

// delivery is the event queue of one run. A single goroutine drains it into
// the notifier, which keeps events in emission order.
type delivery struct {
	o     *Orchestrator
	queue chan Event
	done  chan struct{}
}

func (o *Orchestrator) startDelivery(ctx context.Context) *delivery {
	d := &delivery{o: o, queue: make(chan Event, eventQueueSize), done: make(chan struct{})}
	go func() {
		defer close(d.done)
		for ev := range d.queue {
			d.notify(ctx, ev)
		}
	}()
	return d
}

// emit enqueues an event without blocking. When the queue is full the
// event is dropped.
func (d *delivery) emit(analysisID, stage string, status Status) {
	percent := 100
	if status == StatusRunning {
		percent = 0
	}
	ev := Event{AnalysisID: analysisID, Stage: stage, Status: status, Percent: percent, At: d.o.now()}
	select {
	case d.queue <- ev:
	default:
		d.o.logger.Warn("progress event dropped", "analysis_id", analysisID, "stage", stage, "status", status)
	}
}

func (d *delivery) notify(ctx context.Context, ev Event) {
	defer func() {
		if rec := recover(); rec != nil {
			d.o.logger.Warn("progress notifier panicked", "stage", ev.Stage, "status", ev.Status, "panic", rec)
		}
	}()
	d.o.notifier.Notify(ctx, ev)
}

// finish closes the queue and waits up to the drain timeout for pending
// events. A notifier still stuck after that is abandoned.
func (d *delivery) finish() {
	close(d.queue)
	timer := time.NewTimer(d.o.drainTimeout)
	defer timer.Stop()
	select {
	case <-d.done:
	case <-timer.C:
		d.o.logger.Warn("progress notifier did not drain", "timeout", d.o.drainTimeout)
	}
}
