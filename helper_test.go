// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package webd_test

import (
	"testing"

	"code.hybscloud.com/iox"
	"code.hybscloud.com/kont"
	"code.hybscloud.com/webd"
)

// awaitCell spins until c holds a result, then consumes it.
// Test-side consumer for Copy and Pointer cells; a Blocking cell must be
// subscribed instead, or its producer spins forever.
func awaitCell[T any](tb testing.TB, c *webd.Completion[T]) (T, error) {
	tb.Helper()
	var bo iox.Backoff
	for !c.Ready() {
		bo.Wait()
	}
	return c.Take()
}

// runEff spawns body eagerly on exec and waits for its return value.
func runEff[R any](tb testing.TB, exec webd.Executor, body kont.Eff[R]) (R, error) {
	tb.Helper()
	task := webd.Spawn(exec, body, webd.Eager)
	return awaitCell(tb, task.Result())
}

// drain consumes src until the end marker and returns the items in order.
func drain[Y any](tb testing.TB, src webd.Yielder[Y]) []Y {
	tb.Helper()
	var out []Y
	for {
		it, err := awaitCell(tb, src.Next())
		if err != nil {
			tb.Fatalf("next: %v", err)
		}
		if !it.Ok {
			return out
		}
		out = append(out, it.Value)
	}
}

// countdown yields n-1..0 then returns n.
func countdown(n int) kont.Eff[int] {
	return webd.Loop(n, func(i int) kont.Eff[kont.Either[int, int]] {
		if i == 0 {
			return kont.Pure(kont.Right[int, int](n))
		}
		return webd.YieldDone(i-1, kont.Left[int, int](i-1))
	})
}
