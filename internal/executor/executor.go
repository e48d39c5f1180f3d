package executor

import (
	"log/slog"
	"runtime"
	"sync"

	"github.com/adeptlang/adept/internal/diag"
)

type state int

const (
	statePending state = iota
	stateRunning
	stateSuspended
	stateCompleted
	stateFailed
)

// record is one task slot. Created on first request, completed once,
// never mutated thereafter.
type record struct {
	task     Task
	state    state
	artifact any
	reports  []*diag.Report

	// waiters are tasks whose suspension list includes this handle.
	waiters []Handle

	// waitCount is how many awaited handles are still incomplete while
	// this task is suspended.
	waitCount int
}

// Execution is the result of driving the graph to quiescence.
type Execution struct {
	Scheduled int
	Completed int
	Failed    int
	Reports   []*diag.Report

	// Cyclic lists the tasks left suspended at quiescence; they form at
	// least one dependency cycle.
	Cyclic []string
}

// Executor runs tasks over a pool of worker goroutines that all take work
// from one shared FIFO run queue; workers have no queues of their own and
// do not steal from each other. The task map is guarded by one internal
// lock; no task ever executes while holding it.
type Executor struct {
	mu      sync.Mutex
	cond    *sync.Cond
	byKey   map[string]Handle
	records []*record
	queue   []Handle
	running int

	workers int
	log     *slog.Logger
	metrics *Metrics
}

// Option configures an Executor.
type Option func(*Executor)

// WithWorkers sets the worker count; defaults to GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(e *Executor) {
		if n > 0 {
			e.workers = n
		}
	}
}

// WithLogger installs a structured logger for scheduling events.
func WithLogger(l *slog.Logger) Option {
	return func(e *Executor) { e.log = l }
}

// WithMetrics installs telemetry counters.
func WithMetrics(m *Metrics) Option {
	return func(e *Executor) { e.metrics = m }
}

// New creates an idle executor.
func New(opts ...Option) *Executor {
	e := &Executor{
		byKey:   map[string]Handle{},
		workers: runtime.GOMAXPROCS(0),
		log:     slog.Default(),
	}
	e.cond = sync.NewCond(&e.mu)
	for _, o := range opts {
		o(e)
	}
	return e
}

// Request returns the handle of an equivalent already-known task, or
// schedules the new one. Handles are 1-based; 0 is never valid.
func (e *Executor) Request(t Task) Handle {
	e.mu.Lock()
	defer e.mu.Unlock()
	key := t.Key()
	if h, ok := e.byKey[key]; ok {
		return h
	}
	e.records = append(e.records, &record{task: t})
	h := Handle(len(e.records))
	e.byKey[key] = h
	e.queue = append(e.queue, h)
	if e.metrics != nil {
		e.metrics.Scheduled.Inc()
	}
	e.log.Debug("task scheduled", "key", key, "handle", h)
	e.cond.Broadcast()
	return h
}

// Spawn enqueues a root task that becomes runnable once the initial
// dependencies complete. With no dependencies it is immediately
// runnable.
func (e *Executor) Spawn(deps []Handle, t Task) Handle {
	h := e.Request(t)
	if len(deps) == 0 {
		return h
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	rec := e.rec(h)
	if rec.state != statePending {
		return h
	}
	// Remove from the runnable queue and park until deps are done.
	for i, q := range e.queue {
		if q == h {
			e.queue = append(e.queue[:i], e.queue[i+1:]...)
			break
		}
	}
	e.parkLocked(h, deps)
	return h
}

// Demand returns the artifact of a completed handle.
func (e *Executor) Demand(h Handle) (any, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	rec := e.rec(h)
	if rec.state != stateCompleted {
		return nil, false
	}
	return rec.artifact, true
}

// DemandMany returns artifacts in handle order; ok is false when any is
// incomplete.
func (e *Executor) DemandMany(hs []Handle) ([]any, bool) {
	out := make([]any, len(hs))
	for i, h := range hs {
		art, ok := e.Demand(h)
		if !ok {
			return nil, false
		}
		out[i] = art
	}
	return out, true
}

func (e *Executor) failed(h Handle) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rec(h).state == stateFailed
}

func (e *Executor) rec(h Handle) *record {
	if h == 0 || int(h) > len(e.records) {
		diag.ICE("executor: handle %d out of range", h)
	}
	return e.records[h-1]
}

// Start drives the graph to quiescence and reports the outcome. Tasks
// left suspended at quiescence form a dependency cycle; they are
// reported, and no partial result is committed for them.
func (e *Executor) Start() Execution {
	var wg sync.WaitGroup
	for w := 0; w < e.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			e.work()
		}()
	}
	wg.Wait()

	e.mu.Lock()
	defer e.mu.Unlock()
	res := Execution{Scheduled: len(e.records)}
	for _, rec := range e.records {
		switch rec.state {
		case stateCompleted:
			res.Completed++
		case stateFailed:
			res.Failed++
			res.Reports = append(res.Reports, rec.reports...)
		case stateSuspended, statePending, stateRunning:
			res.Cyclic = append(res.Cyclic, rec.task.Key())
			res.Reports = append(res.Reports, diag.New(diag.EXE001, "executor", diag.None,
				"task %q could not complete: dependency cycle", rec.task.Key()))
			if e.metrics != nil {
				e.metrics.Cycles.Inc()
			}
		}
	}
	return res
}

// work is one worker's loop: execute tasks synchronously until the whole
// executor is quiescent.
func (e *Executor) work() {
	for {
		e.mu.Lock()
		for len(e.queue) == 0 && e.running > 0 {
			e.cond.Wait()
		}
		if len(e.queue) == 0 {
			// Quiescent: nothing runnable and no task running that
			// could produce more work.
			e.mu.Unlock()
			e.cond.Broadcast()
			return
		}
		h := e.queue[0]
		e.queue = e.queue[1:]
		rec := e.rec(h)
		rec.state = stateRunning
		e.running++
		e.mu.Unlock()

		artifact, err := rec.task.Execute(&Ctx{exec: e, self: h})

		e.mu.Lock()
		e.running--
		switch {
		case err == nil:
			rec.state = stateCompleted
			rec.artifact = artifact
			if e.metrics != nil {
				e.metrics.Completed.Inc()
			}
			e.wakeLocked(rec)
		case IsSuspension(err):
			s := err.(*suspension)
			if e.metrics != nil {
				e.metrics.Suspended.Inc()
			}
			e.parkLocked(h, s.on)
		default:
			rec.state = stateFailed
			if list, ok := diag.AsList(err); ok {
				rec.reports = list.Reports
			} else if rep, ok := diag.AsReport(err); ok {
				rec.reports = []*diag.Report{rep}
			} else if !IsDependencyFailure(err) {
				rec.reports = []*diag.Report{diag.New(diag.EXE002, "executor", diag.None, "%v", err)}
			}
			if e.metrics != nil {
				e.metrics.Failed.Inc()
			}
			e.wakeLocked(rec)
		}
		e.cond.Broadcast()
		e.mu.Unlock()
	}
}

// parkLocked suspends h until every listed handle settles. Handles that
// already settled do not count; if none remain, h re-enqueues at once.
func (e *Executor) parkLocked(h Handle, on []Handle) {
	rec := e.rec(h)
	rec.state = stateSuspended
	rec.waitCount = 0
	for _, dep := range on {
		depRec := e.rec(dep)
		if depRec.state == stateCompleted || depRec.state == stateFailed {
			continue
		}
		depRec.waiters = append(depRec.waiters, h)
		rec.waitCount++
	}
	if rec.waitCount == 0 {
		rec.state = statePending
		e.queue = append(e.queue, h)
	}
}

// wakeLocked notifies every waiter that rec settled; tasks whose waiting
// count reaches zero are re-enqueued.
func (e *Executor) wakeLocked(rec *record) {
	for _, w := range rec.waiters {
		wrec := e.rec(w)
		wrec.waitCount--
		if wrec.waitCount <= 0 && wrec.state == stateSuspended {
			wrec.state = statePending
			e.queue = append(e.queue, w)
		}
	}
	rec.waiters = nil
}
