// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package webd

import (
	"errors"

	"code.hybscloud.com/iox"
	"code.hybscloud.com/kont"
)

// execContext is the dispatch context of one coroutine driver.
// exec is the coroutine's current executor (rewritten by Hop). k delivers
// a parked operation's result: it re-posts the driver onto exec, so
// resumed frames keep strand confinement. yield is the stream sink, nil
// outside yielding coroutines.
type execContext struct {
	exec  Executor
	k     func(v kont.Resumed, err error)
	yield func(v kont.Resumed) error
}

// execDispatcher is the structural interface of driver-handled effects.
type execDispatcher interface {
	DispatchExec(ctx *execContext) (kont.Resumed, error)
}

// driver steps one coroutine one effect at a time on its executor.
// Operations that cannot complete return iox.ErrWouldBlock after
// arranging for ctx.k to fire; the driver then returns its worker slot
// and waits to be re-posted.
type driver[R any] struct {
	ctx    execContext
	body   kont.Eff[R]
	susp   *kont.Suspension[R]
	result R
	done   func(R, error)
}

func newDriver[R any](exec Executor, body kont.Eff[R], done func(R, error)) *driver[R] {
	d := &driver[R]{body: body, done: done}
	d.ctx.exec = exec
	d.ctx.k = d.deliver
	return d
}

// launch posts the first step onto the coroutine's executor.
func (d *driver[R]) launch() {
	d.ctx.exec.Post(d.begin)
}

func (d *driver[R]) begin() {
	if !d.guard(func() {
		d.result, d.susp = kont.StepExpr(kont.Reify(d.body))
	}) {
		return
	}
	if d.susp == nil {
		d.done(d.result, nil)
		return
	}
	d.dispatch()
}

// dispatch advances the coroutine until it parks, fails, or completes.
func (d *driver[R]) dispatch() {
	for {
		op, ok := d.susp.Op().(execDispatcher)
		if !ok {
			panic("webd: unhandled effect in dispatch")
		}
		v, err := op.DispatchExec(&d.ctx)
		if err != nil {
			if errors.Is(err, iox.ErrWouldBlock) {
				return
			}
			d.fail(err)
			return
		}
		if !d.advance(v) {
			return
		}
	}
}

// deliver resumes a parked coroutine with the operation's result.
// Always re-posts onto the current executor, never runs the continuation
// on the completer's stack.
func (d *driver[R]) deliver(v kont.Resumed, err error) {
	d.ctx.exec.Post(func() {
		if err != nil {
			d.fail(err)
			return
		}
		if !d.advance(v) {
			return
		}
		d.dispatch()
	})
}

// advance consumes the suspension with v. Reports false when the
// coroutine completed or failed; the completion callback has fired.
func (d *driver[R]) advance(v kont.Resumed) bool {
	if !d.guard(func() {
		d.result, d.susp = d.susp.Resume(v)
	}) {
		return false
	}
	if d.susp == nil {
		d.done(d.result, nil)
		return false
	}
	return true
}

// guard runs f, converting a panic into coroutine failure.
func (d *driver[R]) guard(f func()) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			d.susp = nil
			d.fail(PanicError{Value: r})
			ok = false
		}
	}()
	f()
	return true
}

func (d *driver[R]) fail(err error) {
	if d.susp != nil {
		d.susp.Discard()
		d.susp = nil
	}
	var zero R
	d.done(zero, err)
}
