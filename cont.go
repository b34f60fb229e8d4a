// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package webd

import (
	"sync"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/iox"
)

// Flavor selects the result storage strategy of a [Completion].
type Flavor int

const (
	// Pointer publishes the producer's pointer without copying when a
	// consumer is already subscribed; otherwise the cell stores an owned
	// copy of the value.
	Pointer Flavor = iota
	// Copy stores an owned value behind a ready flag that Take clears,
	// so the cell can be completed again. The reusable flavor.
	Copy
	// Blocking makes Complete spin until a consumer has subscribed, then
	// publish and fire. The rendezvous flavor: when Complete returns, the
	// consumer's resume has been invoked.
	Blocking
)

// Completion is a one-shot continuation cell bridging callback-style
// completion into the effect world.
//
// The producer side calls [Completion.Complete], [Completion.CompleteBorrowed]
// or [Completion.CompleteError] exactly once per round. The consumer side
// calls [Completion.Subscribe] to register a resume callback and
// [Completion.Take] to consume the result. An error published via
// CompleteError wins over any stored value.
type Completion[T any] struct {
	flavor   Flavor
	mu       sync.Mutex
	ready    bool
	value    T
	borrowed *T
	err      error
	resume   func()
	suspend  func()
	armed    atomix.Uint32
}

// NewCompletion creates an empty cell of the given flavor.
func NewCompletion[T any](f Flavor) *Completion[T] {
	return &Completion[T]{flavor: f}
}

// Ready reports whether a result or error is present and unconsumed.
func (c *Completion[T]) Ready() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ready || c.err != nil
}

// OnSuspend installs a hook that fires each time a consumer subscribes
// without the result being ready.
func (c *Completion[T]) OnSuspend(hook func()) {
	c.mu.Lock()
	c.suspend = hook
	c.mu.Unlock()
}

// Subscribe registers the consumer's resume callback. If a result is
// already present the callback fires immediately and the suspend hook is
// skipped; otherwise the suspend hook fires and the callback is retained
// for the producer's Complete to pop.
func (c *Completion[T]) Subscribe(resume func()) {
	c.mu.Lock()
	if c.ready || c.err != nil {
		c.mu.Unlock()
		resume()
		return
	}
	c.resume = resume
	hook := c.suspend
	c.mu.Unlock()
	c.armed.Store(1)
	if hook != nil {
		hook()
	}
}

// Take consumes the result: the error if one was published, else the
// value. Clears the cell so Copy-flavor cells can go another round.
// Panics with [ErrTakeEmpty] when nothing has been published.
func (c *Completion[T]) Take() (T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var zero T
	if c.err != nil {
		err := c.err
		c.err = nil
		c.ready = false
		c.value = zero
		c.borrowed = nil
		return zero, err
	}
	if !c.ready {
		panic(ErrTakeEmpty)
	}
	c.ready = false
	if c.borrowed != nil {
		v := *c.borrowed
		c.borrowed = nil
		return v, nil
	}
	v := c.value
	c.value = zero
	return v, nil
}

// Complete publishes v and fires the subscribed resume, if any.
// Panics with [ErrCompleteTwice] if an unconsumed result is present.
func (c *Completion[T]) Complete(v T) {
	c.rendezvous()
	c.mu.Lock()
	if c.ready || c.err != nil {
		c.mu.Unlock()
		panic(ErrCompleteTwice)
	}
	c.value = v
	c.borrowed = nil
	c.ready = true
	c.fire()
}

// CompleteBorrowed publishes the producer's pointer when a consumer is
// already subscribed, avoiding the copy; otherwise it stores an owned
// copy of *p. Meaningful for the Pointer flavor; other flavors copy.
func (c *Completion[T]) CompleteBorrowed(p *T) {
	c.rendezvous()
	c.mu.Lock()
	if c.ready || c.err != nil {
		c.mu.Unlock()
		panic(ErrCompleteTwice)
	}
	if c.flavor == Pointer && c.resume != nil {
		c.borrowed = p
	} else {
		c.value = *p
	}
	c.ready = true
	c.fire()
}

// CompleteError publishes err and fires the subscribed resume, if any.
func (c *Completion[T]) CompleteError(err error) {
	c.rendezvous()
	c.mu.Lock()
	if c.ready || c.err != nil {
		c.mu.Unlock()
		panic(ErrCompleteTwice)
	}
	c.err = err
	c.fire()
}

// fire pops the resume under the held lock, unlocks, and invokes it.
// Popping before invoking keeps a re-subscribing consumer from seeing a
// stale callback.
func (c *Completion[T]) fire() {
	resume := c.resume
	c.resume = nil
	c.mu.Unlock()
	if resume != nil {
		resume()
	}
}

// rendezvous, in the Blocking flavor, spins with adaptive backoff until
// a consumer has subscribed.
func (c *Completion[T]) rendezvous() {
	if c.flavor != Blocking {
		return
	}
	var bo iox.Backoff
	for c.armed.Load() == 0 {
		bo.Wait()
	}
}
