// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package webd

import (
	"code.hybscloud.com/kont"
)

// Delay defers building an effect until the coroutine reaches it.
// Without it, effect arguments are constructed while the program is
// assembled, which starts I/O too early inside [Loop] bodies.
func Delay[A any](f func() kont.Eff[A]) kont.Eff[A] {
	return kont.Bind(kont.Pure(struct{}{}), func(struct{}) kont.Eff[A] {
		return f()
	})
}

// AwaitBind awaits a completion and passes the result to f.
// Fuses Await + Bind.
func AwaitBind[T, B any](c *Completion[T], f func(T) kont.Eff[B]) kont.Eff[B] {
	return kont.Bind(Await(c), f)
}

// AwaitThen awaits a completion, discards the result, and continues
// with next. Fuses Await + Then.
func AwaitThen[T, B any](c *Completion[T], next kont.Eff[B]) kont.Eff[B] {
	return kont.Then(Await(c), next)
}

// NextBind demands the next item of a yielding coroutine and passes it
// to f. Fuses Next + Bind.
func NextBind[Y, B any](src Yielder[Y], f func(Item[Y]) kont.Eff[B]) kont.Eff[B] {
	return kont.Bind(Next(src), f)
}

// YieldThen yields a value and continues with next.
// Fuses Yield + Then.
func YieldThen[Y, B any](v Y, next kont.Eff[B]) kont.Eff[B] {
	return kont.Then(Yield(v), next)
}

// HopThen switches the coroutine onto exec and continues with next.
// Fuses Hop + Then.
func HopThen[B any](exec Executor, next kont.Eff[B]) kont.Eff[B] {
	return kont.Then(Hop(exec), next)
}

// YieldDone yields a value and returns a.
// Fuses Yield + Then + Pure.
func YieldDone[Y, A any](v Y, a A) kont.Eff[A] {
	return kont.Then(Yield(v), kont.Pure(a))
}
