// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package webd provides executor-driven coroutines via algebraic effects
// on [code.hybscloud.com/kont].
//
// Computations are composed of typed operations stepped one suspension at
// a time by a per-coroutine driver running on an [Executor].
//
// # Architecture
//
//   - Execution: [Pool] is a fixed worker pool; [Strand] serializes tasks
//     over a parent executor. Post never runs tasks inline.
//   - Completion: [Completion] is a one-shot cell bridging callback-style
//     I/O into the effect world, in three flavors ([Pointer], [Copy],
//     [Blocking]).
//   - Suspension: operations that cannot complete return control to the
//     executor; completion callbacks re-post the driver, so resumed code
//     keeps its strand confinement.
//   - Error Handling: expected failures travel in
//     [code.hybscloud.com/kont.Either] values; panics recovered by the
//     driver surface as [PanicError].
//
// # API Topologies
//
//   - Operations: [Await], [Yield], [Next], [Hop].
//   - Adapters: [NewStream] (yielding), [Spawn] (returning), [NewBoth]
//     (yielding and returning), each [Lazy] or [Eager].
//   - Fused: [AwaitBind], [AwaitThen], [NextBind], [YieldThen].
//   - Recursive: [Loop] for trampoline-based iterative programs.
//
// # Example
//
//	pool := webd.NewPool(8)
//	s := webd.NewStream[int](pool, body, webd.Lazy)
//	c := s.Next()
//	c.Subscribe(func() {
//		item, err := c.Take()
//		_ = item
//		_ = err
//	})
package webd
