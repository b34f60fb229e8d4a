// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package webd

import (
	"errors"
	"fmt"
)

var (
	// ErrTakeEmpty is the panic value of [Completion.Take] on a cell with
	// no published result.
	ErrTakeEmpty = errors.New("webd: take on empty completion")

	// ErrCompleteTwice is the panic value of completing a cell that holds
	// an unconsumed result.
	ErrCompleteTwice = errors.New("webd: completion completed twice")

	// ErrUnhandledYield reports a combined coroutine whose consumer
	// demanded the return value while yielded items were still pending.
	ErrUnhandledYield = errors.New("webd: unhandled yield")
)

// PanicError carries a panic recovered from a coroutine body to the
// consumer awaiting its result.
type PanicError struct {
	Value any
}

// Error implements error.
func (e PanicError) Error() string {
	return fmt.Sprintf("webd: coroutine panic: %v", e.Value)
}
