// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package webd

import (
	"code.hybscloud.com/iox"
	"code.hybscloud.com/kont"
)

// Await is the effect operation for awaiting a completion cell.
// Perform(awaitOp) suspends the coroutine until the cell completes;
// an error published on the cell aborts the coroutine with that error.
func Await[T any](c *Completion[T]) kont.Eff[T] {
	return kont.Perform(awaitOp[T]{c: c})
}

type awaitOp[T any] struct {
	kont.Phantom[T]
	c *Completion[T]
}

// DispatchExec handles Await on the coroutine driver.
// Non-blocking: subscribes and returns iox.ErrWouldBlock when the cell
// is empty; the completion callback re-posts the driver.
func (a awaitOp[T]) DispatchExec(ctx *execContext) (kont.Resumed, error) {
	if a.c.Ready() {
		v, err := a.c.Take()
		if err != nil {
			return nil, err
		}
		return v, nil
	}
	c, k := a.c, ctx.k
	c.Subscribe(func() {
		v, err := c.Take()
		k(v, err)
	})
	return nil, iox.ErrWouldBlock
}

// Hop is the effect operation for switching the coroutine onto exec.
// The continuation after Perform(hopOp) runs on a worker of exec.
func Hop(exec Executor) kont.Eff[struct{}] {
	return kont.Perform(hopOp{exec: exec})
}

type hopOp struct {
	kont.Phantom[struct{}]
	exec Executor
}

// DispatchExec handles Hop on the coroutine driver.
// Installs the target executor as the coroutine's home, then lands the
// driver there via Defer.
func (h hopOp) DispatchExec(ctx *execContext) (kont.Resumed, error) {
	ctx.exec = h.exec
	k := ctx.k
	h.exec.Defer(func() {
		k(struct{}{}, nil)
	})
	return nil, iox.ErrWouldBlock
}

// HopCompletion returns a Blocking-flavor cell completed from a task
// deferred onto exec. Awaiting it synchronizes with exec's queue; the
// cell must be awaited, or the deferred completer spins forever.
func HopCompletion(exec Executor) *Completion[struct{}] {
	c := NewCompletion[struct{}](Blocking)
	exec.Defer(func() {
		c.Complete(struct{}{})
	})
	return c
}

// Yield is the effect operation for publishing one item from a yielding
// coroutine. The producer parks until the consumer demands the next item.
func Yield[Y any](v Y) kont.Eff[struct{}] {
	return kont.Perform(yieldOp[Y]{Value: v})
}

type yieldOp[Y any] struct {
	kont.Phantom[struct{}]
	Value Y
}

// DispatchExec handles Yield on the coroutine driver.
// Publishes the item through the stream sink and parks. Yielding from a
// coroutine without a yield sink, or after the consumer demanded the
// return value, aborts with ErrUnhandledYield.
func (y yieldOp[Y]) DispatchExec(ctx *execContext) (kont.Resumed, error) {
	if ctx.yield == nil {
		return nil, ErrUnhandledYield
	}
	return nil, ctx.yield(Item[Y]{Value: y.Value, Ok: true})
}

// Next is the effect operation for consuming one item from a yielding
// coroutine. Resumes with Item.Ok == false at end of stream.
func Next[Y any](src Yielder[Y]) kont.Eff[Item[Y]] {
	return kont.Perform(nextOp[Y]{src: src})
}

type nextOp[Y any] struct {
	kont.Phantom[Item[Y]]
	src Yielder[Y]
}

// DispatchExec handles Next on the coroutine driver.
// Demands the next item (starting or unparking the producer) and awaits
// the stream's yield slot.
func (n nextOp[Y]) DispatchExec(ctx *execContext) (kont.Resumed, error) {
	c := n.src.Next()
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
