// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package webd

import (
	"sync"

	"code.hybscloud.com/iox"
	"code.hybscloud.com/kont"
)

// Item is one element of a yielding coroutine's output sequence.
// Ok == false is the end-of-stream marker.
type Item[Y any] struct {
	Value Y
	Ok    bool
}

// Yielder is the consumer-side surface of a yielding coroutine.
// Next demands the next item: it starts or unparks the producer and
// returns the stream's yield slot, which completes with the item or the
// end marker. The caller must Take the result before demanding again.
type Yielder[Y any] interface {
	Next() *Completion[Item[Y]]
}

// Start selects when a coroutine body begins running.
type Start int

const (
	// Lazy defers the body until the first demand (Next, Result, or an
	// awaited return).
	Lazy Start = iota
	// Eager posts the body to the executor immediately.
	Eager
)

// streamState is the shared promise of the coroutine adapters: the
// yield slot, the return cell, the producer's parked resume, and the
// finalizer hook. One instance backs a Stream, Task, or Both.
type streamState[Y, R any] struct {
	exec        Executor
	d           *driver[R]
	yieldC      *Completion[Item[Y]]
	returnC     *Completion[R]
	mu          sync.Mutex
	started     bool
	returned    bool
	ended       bool
	retDemanded bool
	retDone     bool
	parked      func()
	finalize    func()
}

func newStreamState[Y, R any](exec Executor, body kont.Eff[R], start Start, yielding bool) *streamState[Y, R] {
	st := &streamState[Y, R]{
		exec:    exec,
		yieldC:  NewCompletion[Item[Y]](Copy),
		returnC: NewCompletion[R](Copy),
	}
	st.d = newDriver(exec, body, st.finish)
	if yielding {
		st.d.ctx.yield = st.yieldSink
	}
	if start == Eager {
		st.launch()
	}
	return st
}

func (st *streamState[Y, R]) launch() {
	st.mu.Lock()
	if st.started {
		st.mu.Unlock()
		return
	}
	st.started = true
	st.mu.Unlock()
	st.d.launch()
}

// yieldSink publishes one item and parks the producer. The parked
// resume is stored before the item is published, so a consumer that
// receives the item and immediately demands the next one finds the
// producer ready to unpark.
func (st *streamState[Y, R]) yieldSink(v kont.Resumed) error {
	it, ok := v.(Item[Y])
	if !ok {
		return ErrUnhandledYield
	}
	st.mu.Lock()
	if st.retDemanded {
		st.mu.Unlock()
		return ErrUnhandledYield
	}
	k := st.d.ctx.k
	st.parked = func() {
		k(struct{}{}, nil)
	}
	st.mu.Unlock()
	st.yieldC.Complete(it)
	return iox.ErrWouldBlock
}

// next demands the next item; see [Yielder].
func (st *streamState[Y, R]) next() *Completion[Item[Y]] {
	st.mu.Lock()
	if st.returned {
		replay := st.ended && !st.yieldC.Ready()
		st.mu.Unlock()
		if replay {
			st.yieldC.Complete(Item[Y]{})
		}
		return st.yieldC
	}
	if !st.started {
		st.started = true
		st.mu.Unlock()
		st.d.launch()
		return st.yieldC
	}
	p := st.parked
	st.parked = nil
	st.mu.Unlock()
	if p != nil {
		p()
	}
	return st.yieldC
}

// demandReturn demands the return value. Demanding while the producer
// is parked at a yield abandons the producer and completes the return
// cell with ErrUnhandledYield; a producer that yields after the demand
// fails the same way from its own side.
func (st *streamState[Y, R]) demandReturn() *Completion[R] {
	st.mu.Lock()
	if st.returned || st.retDone {
		st.mu.Unlock()
		return st.returnC
	}
	st.retDemanded = true
	if !st.started {
		st.started = true
		st.mu.Unlock()
		st.d.launch()
		return st.returnC
	}
	if st.parked != nil {
		st.parked = nil
		st.retDone = true
		fin := st.finalize
		st.finalize = nil
		st.mu.Unlock()
		st.returnC.CompleteError(ErrUnhandledYield)
		if fin != nil {
			fin()
		}
		return st.returnC
	}
	st.mu.Unlock()
	return st.returnC
}

// finish runs once when the producer returns or fails: publish the end
// marker and the return value (or error), then run the finalizer.
func (st *streamState[Y, R]) finish(result R, err error) {
	st.mu.Lock()
	st.returned = true
	st.parked = nil
	retDone := st.retDone
	st.retDone = true
	fin := st.finalize
	st.finalize = nil
	st.mu.Unlock()
	if err != nil {
		st.yieldC.CompleteError(err)
		if !retDone {
			st.returnC.CompleteError(err)
		}
	} else {
		st.yieldC.Complete(Item[Y]{})
		if !retDone {
			st.returnC.Complete(result)
		}
	}
	st.mu.Lock()
	st.ended = true
	st.mu.Unlock()
	if fin != nil {
		fin()
	}
}

// onFinish registers f to run when the producer has exited on any path.
// Runs immediately when the producer already exited. Multiple hooks
// chain in registration order.
func (st *streamState[Y, R]) onFinish(f func()) {
	st.mu.Lock()
	if st.returned || st.retDone {
		st.mu.Unlock()
		f()
		return
	}
	prev := st.finalize
	if prev == nil {
		st.finalize = f
	} else {
		st.finalize = func() {
			prev()
			f()
		}
	}
	st.mu.Unlock()
}

// Stream is a yielding coroutine: the body yields items via [Yield] and
// the consumer demands them via Next or the [Next] effect.
type Stream[Y any] struct {
	st *streamState[Y, struct{}]
}

// NewStream creates a yielding coroutine over body on exec.
func NewStream[Y any](exec Executor, body kont.Eff[struct{}], start Start) *Stream[Y] {
	return &Stream[Y]{st: newStreamState[Y, struct{}](exec, body, start, true)}
}

// Next implements [Yielder].
func (s *Stream[Y]) Next() *Completion[Item[Y]] {
	return s.st.next()
}

// OnFinish registers a hook that runs when the body has exited.
func (s *Stream[Y]) OnFinish(f func()) {
	s.st.onFinish(f)
}

// Task is a returning coroutine: the body computes one value.
type Task[R any] struct {
	st *streamState[struct{}, R]
}

// Spawn creates a returning coroutine over body on exec.
func Spawn[R any](exec Executor, body kont.Eff[R], start Start) *Task[R] {
	return &Task[R]{st: newStreamState[struct{}, R](exec, body, start, false)}
}

// Result demands the return cell, starting a lazy body.
func (t *Task[R]) Result() *Completion[R] {
	return t.st.demandReturn()
}

// Await is the effect operation for awaiting the task's return value
// from another coroutine.
func (t *Task[R]) Await() kont.Eff[R] {
	return kont.Perform(returnOp[struct{}, R]{st: t.st})
}

// OnFinish registers a hook that runs when the body has exited.
func (t *Task[R]) OnFinish(f func()) {
	t.st.onFinish(f)
}

// Both is a combined coroutine: the body yields items and returns a
// value. Demanding the return value while items are pending fails with
// ErrUnhandledYield.
type Both[Y, R any] struct {
	st *streamState[Y, R]
}

// NewBoth creates a combined coroutine over body on exec.
func NewBoth[Y, R any](exec Executor, body kont.Eff[R], start Start) *Both[Y, R] {
	return &Both[Y, R]{st: newStreamState[Y, R](exec, body, start, true)}
}

// Next implements [Yielder].
func (b *Both[Y, R]) Next() *Completion[Item[Y]] {
	return b.st.next()
}

// AwaitReturn is the effect operation for awaiting the body's return
// value from another coroutine.
func (b *Both[Y, R]) AwaitReturn() kont.Eff[R] {
	return kont.Perform(returnOp[Y, R]{st: b.st})
}

// Result demands the return cell directly.
func (b *Both[Y, R]) Result() *Completion[R] {
	return b.st.demandReturn()
}

// OnFinish registers a hook that runs when the body has exited.
func (b *Both[Y, R]) OnFinish(f func()) {
	b.st.onFinish(f)
}

type returnOp[Y, R any] struct {
	kont.Phantom[R]
	st *streamState[Y, R]
}

// DispatchExec handles return-value demand on the coroutine driver.
func (r returnOp[Y, R]) DispatchExec(ctx *execContext) (kont.Resumed, error) {
	c := r.st.demandReturn()
	if c.Ready() {
		v, err := c.Take()
		if err != nil {
			return nil, err
		}
		return v, nil
	}
	k := ctx.k
	c.Subscribe(func() {
		v, err := c.Take()
		k(v, err)
	})
	return nil, iox.ErrWouldBlock
}
