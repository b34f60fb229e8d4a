// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package webd

import (
	"sync"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/iox"
)

// Executor schedules tasks onto worker goroutines.
//
// Post never runs f on the calling goroutine, even when called from a
// worker: submitted tasks always go through the queue. Defer is Post with
// the hint that the caller intends to finish its current task first.
type Executor interface {
	Post(f func())
	Defer(f func())
}

// WorkTracker is implemented by executors that account long-lived work
// (an open connection, an accept loop) so that [Pool.Join] does not
// return while such work is in flight.
type WorkTracker interface {
	BeginWork()
	EndWork()
}

// BeginWork marks the start of tracked work on e, if e supports tracking.
func BeginWork(e Executor) {
	if t, ok := e.(WorkTracker); ok {
		t.BeginWork()
	}
}

// EndWork marks the end of tracked work on e, if e supports tracking.
func EndWork(e Executor) {
	if t, ok := e.(WorkTracker); ok {
		t.EndWork()
	}
}

// DefaultWorkers is the worker count used by [NewPool] when n <= 0.
const DefaultWorkers = 8

// Pool is a fixed-size worker pool executor.
type Pool struct {
	mu      sync.Mutex
	cond    sync.Cond
	queue   []func()
	active  int
	stopped bool
	live    atomix.Uint32
}

// NewPool creates a pool with n workers. n <= 0 uses [DefaultWorkers].
func NewPool(n int) *Pool {
	if n <= 0 {
		n = DefaultWorkers
	}
	p := &Pool{}
	p.cond.L = &p.mu
	for range n {
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	for {
		p.mu.Lock()
		for len(p.queue) == 0 && !p.stopped {
			p.cond.Wait()
		}
		if len(p.queue) == 0 {
			p.mu.Unlock()
			return
		}
		f := p.queue[0]
		p.queue = p.queue[1:]
		p.active++
		p.mu.Unlock()
		f()
		p.mu.Lock()
		p.active--
		p.mu.Unlock()
	}
}

// Post enqueues f. Never runs f inline.
func (p *Pool) Post(f func()) {
	p.mu.Lock()
	p.queue = append(p.queue, f)
	p.mu.Unlock()
	p.cond.Signal()
}

// Defer enqueues f. On a pool the hint adds no ordering beyond Post.
func (p *Pool) Defer(f func()) {
	p.Post(f)
}

// Stop latches shutdown. Queued tasks drain first; workers exit when the
// queue is empty.
func (p *Pool) Stop() {
	p.mu.Lock()
	p.stopped = true
	p.mu.Unlock()
	p.cond.Broadcast()
}

// Join blocks until the pool is idle: no queued tasks, no running
// workers, and no tracked work in flight. Polls with adaptive backoff
// (iox.Backoff) without spawning goroutines or creating channels.
func (p *Pool) Join() {
	var bo iox.Backoff
	for {
		p.mu.Lock()
		idle := len(p.queue) == 0 && p.active == 0
		p.mu.Unlock()
		if idle && p.live.Load() == 0 {
			return
		}
		bo.Wait()
	}
}

// BeginWork implements [WorkTracker].
func (p *Pool) BeginWork() {
	p.live.Add(1)
}

// EndWork implements [WorkTracker].
func (p *Pool) EndWork() {
	p.live.Add(^uint32(0))
}

// Strand serializes tasks over a parent executor: tasks posted to a
// strand run in submission order and never concurrently, on whichever
// parent worker picks up the strand's runner.
type Strand struct {
	parent  Executor
	mu      sync.Mutex
	queue   []func()
	running bool
}

// NewStrand creates a serializing executor over parent.
func NewStrand(parent Executor) *Strand {
	return &Strand{parent: parent}
}

// Post enqueues f behind the strand's pending tasks. If no runner is
// scheduled, one is posted to the parent.
func (s *Strand) Post(f func()) {
	s.mu.Lock()
	s.queue = append(s.queue, f)
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()
	s.parent.Post(s.run)
}

// Defer is Post; the strand already defers through the parent's queue.
func (s *Strand) Defer(f func()) {
	s.Post(f)
}

// run executes one task, then re-posts itself while work remains.
// One task per parent slot keeps the strand from monopolizing a worker.
func (s *Strand) run() {
	s.mu.Lock()
	f := s.queue[0]
	s.queue = s.queue[1:]
	s.mu.Unlock()
	f()
	s.mu.Lock()
	if len(s.queue) == 0 {
		s.running = false
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()
	s.parent.Post(s.run)
}

// BeginWork implements [WorkTracker], forwarding to the parent.
func (s *Strand) BeginWork() {
	BeginWork(s.parent)
}

// EndWork implements [WorkTracker], forwarding to the parent.
func (s *Strand) EndWork() {
	EndWork(s.parent)
}
