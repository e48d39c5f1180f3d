// Package executor schedules a DAG of deterministic computations across
// worker goroutines, with at-most-once execution per distinct request,
// explicit suspension, and cycle detection at quiescence.
package executor

import (
	"errors"
	"fmt"
)

// Handle identifies a requested task. Equal requests (by Task.Key) share
// one handle.
type Handle uint32

// Task is one unit of computation. Key must cover the logical inputs
// only: transient suspension slots never contribute to identity. Execute
// runs synchronously from start to suspension or completion; suspension
// is an explicit return of a value built by Ctx.Suspend, never an
// implicit yield.
type Task interface {
	Key() string
	Execute(ctx *Ctx) (any, error)
}

// suspension is the continuation a task returns when it must wait. It is
// only ever constructed by Ctx.Suspend.
type suspension struct {
	on []Handle
}

func (s *suspension) Error() string {
	return fmt.Sprintf("suspended on %d handles", len(s.on))
}

// IsSuspension reports whether the error is a suspension continuation.
func IsSuspension(err error) bool {
	var s *suspension
	return errors.As(err, &s)
}

// Ctx is a task's view of the executor during one Execute run.
type Ctx struct {
	exec *Executor
	self Handle
}

// Request returns the handle for an equivalent task, scheduling it if it
// is new.
func (ctx *Ctx) Request(t Task) Handle {
	return ctx.exec.Request(t)
}

// RequestMany requests tasks in order and returns their handles.
func (ctx *Ctx) RequestMany(ts []Task) []Handle {
	hs := make([]Handle, len(ts))
	for i, t := range ts {
		hs[i] = ctx.exec.Request(t)
	}
	return hs
}

// Demand returns the artifact of a completed handle. The second result is
// false while the handle is pending or suspended, or when it failed.
func (ctx *Ctx) Demand(h Handle) (any, bool) {
	return ctx.exec.Demand(h)
}

// Failed reports whether the handle's task failed. Dependents of failed
// tasks produce their own diagnostics; failures never propagate
// transitively through the executor.
func (ctx *Ctx) Failed(h Handle) bool {
	return ctx.exec.failed(h)
}

// Suspend builds the continuation recording that the task waits on every
// given handle. The task must return it as its error.
func (ctx *Ctx) Suspend(on ...Handle) error {
	return &suspension{on: on}
}

// Await is a resumption slot: a task embeds one per sub-request, outside
// of its identity. The first Need fills in the request; once the awaited
// artifact exists the slot holds it and Need returns immediately.
type Await[T any] struct {
	handle Handle
	filled bool
	value  T
}

// Handle returns the awaited handle, zero before the first Need.
func (a *Await[T]) Handle() Handle { return a.handle }

// Need demands the artifact for the slot, requesting the task on first
// use. When the artifact is not yet available it returns a suspension
// error for the caller to propagate.
func Need[T any](ctx *Ctx, slot *Await[T], build func() Task) (T, error) {
	if slot.filled {
		return slot.value, nil
	}
	if slot.handle == 0 {
		slot.handle = ctx.Request(build())
	}
	if ctx.Failed(slot.handle) {
		var zero T
		return zero, errDependencyFailed
	}
	art, ok := ctx.Demand(slot.handle)
	if !ok {
		var zero T
		return zero, ctx.Suspend(slot.handle)
	}
	v, ok := art.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("artifact has type %T, task expected %T", art, zero)
	}
	slot.filled = true
	slot.value = v
	return v, nil
}

// NeedMany awaits a bulk of uniform requests, preserving order. Either
// every artifact is available, or it suspends on the incomplete rest.
func NeedMany[T any](ctx *Ctx, slot *AwaitMany[T], build func() []Task) ([]T, error) {
	if slot.filled {
		return slot.values, nil
	}
	if slot.handles == nil {
		tasks := build()
		slot.handles = ctx.RequestMany(tasks)
	}
	var waiting []Handle
	for _, h := range slot.handles {
		if ctx.Failed(h) {
			return nil, errDependencyFailed
		}
		if _, ok := ctx.Demand(h); !ok {
			waiting = append(waiting, h)
		}
	}
	if len(waiting) > 0 {
		return nil, ctx.Suspend(waiting...)
	}
	slot.values = make([]T, len(slot.handles))
	for i, h := range slot.handles {
		art, _ := ctx.Demand(h)
		v, ok := art.(T)
		if !ok {
			var zero T
			return nil, fmt.Errorf("artifact has type %T, task expected %T", art, zero)
		}
		slot.values[i] = v
	}
	slot.filled = true
	return slot.values, nil
}

// AwaitMany is the bulk resumption slot for NeedMany.
type AwaitMany[T any] struct {
	handles []Handle
	filled  bool
	values  []T
}

// errDependencyFailed is the sentinel a Need returns when the awaited
// task failed; callers convert it into their own diagnostic.
var errDependencyFailed = errors.New("a required prior stage failed")

// IsDependencyFailure reports whether err is the prior-stage sentinel.
func IsDependencyFailure(err error) bool {
	return errors.Is(err, errDependencyFailed)
}
