// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package webd_test

import (
	"errors"
	"testing"
	"time"

	"code.hybscloud.com/webd"
)

func TestCompletionCompleteBeforeSubscribe(t *testing.T) {
	c := webd.NewCompletion[int](webd.Copy)
	c.Complete(42)
	if !c.Ready() {
		t.Fatal("expected Ready after Complete")
	}

	fired := false
	c.Subscribe(func() { fired = true })
	if !fired {
		t.Fatal("Subscribe on a ready cell must fire immediately")
	}
	v, err := c.Take()
	if err != nil {
		t.Fatalf("Take error: %v", err)
	}
	if v != 42 {
		t.Fatalf("got %d, want 42", v)
	}
}

func TestCompletionSubscribeBeforeComplete(t *testing.T) {
	c := webd.NewCompletion[string](webd.Copy)
	got := make(chan string, 1)
	c.Subscribe(func() {
		v, err := c.Take()
		if err != nil {
			t.Errorf("Take error: %v", err)
		}
		got <- v
	})
	go c.Complete("hello")
	if v := <-got; v != "hello" {
		t.Fatalf("got %q, want %q", v, "hello")
	}
}

func TestCompletionErrorWins(t *testing.T) {
	sentinel := errors.New("publish failed")
	c := webd.NewCompletion[int](webd.Copy)
	c.CompleteError(sentinel)
	if !c.Ready() {
		t.Fatal("expected Ready after CompleteError")
	}
	v, err := c.Take()
	if !errors.Is(err, sentinel) {
		t.Fatalf("got err %v, want sentinel", err)
	}
	if v != 0 {
		t.Fatalf("got %d alongside error, want zero", v)
	}
}

func TestCompletionTakeEmptyPanics(t *testing.T) {
	c := webd.NewCompletion[int](webd.Copy)
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic for empty Take")
		}
		if r != webd.ErrTakeEmpty {
			t.Fatalf("unexpected panic: %v", r)
		}
	}()
	c.Take()
}

func TestCompletionCompleteTwicePanics(t *testing.T) {
	c := webd.NewCompletion[int](webd.Copy)
	c.Complete(1)
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic for double Complete")
		}
		if r != webd.ErrCompleteTwice {
			t.Fatalf("unexpected panic: %v", r)
		}
	}()
	c.Complete(2)
}

func TestCompletionCopyReuse(t *testing.T) {
	c := webd.NewCompletion[int](webd.Copy)
	for round := 1; round <= 3; round++ {
		c.Complete(round)
		v, err := c.Take()
		if err != nil {
			t.Fatalf("round %d: Take error: %v", round, err)
		}
		if v != round {
			t.Fatalf("round %d: got %d", round, v)
		}
		if c.Ready() {
			t.Fatalf("round %d: cell still ready after Take", round)
		}
	}
}

func TestCompletionErrorClearsForReuse(t *testing.T) {
	c := webd.NewCompletion[int](webd.Copy)
	c.CompleteError(errors.New("round one"))
	if _, err := c.Take(); err == nil {
		t.Fatal("expected error from first round")
	}
	c.Complete(7)
	v, err := c.Take()
	if err != nil {
		t.Fatalf("second round error: %v", err)
	}
	if v != 7 {
		t.Fatalf("got %d, want 7", v)
	}
}

func TestCompletionPointerBorrow(t *testing.T) {
	c := webd.NewCompletion[int](webd.Pointer)
	got := make(chan int, 1)
	c.Subscribe(func() {
		v, err := c.Take()
		if err != nil {
			t.Errorf("Take error: %v", err)
		}
		got <- v
	})
	x := 99
	c.CompleteBorrowed(&x)
	if v := <-got; v != 99 {
		t.Fatalf("got %d, want 99", v)
	}
}

func TestCompletionPointerCopiesWithoutSubscriber(t *testing.T) {
	c := webd.NewCompletion[int](webd.Pointer)
	x := 1
	c.CompleteBorrowed(&x)
	x = 2 // must not be observed: no subscriber, so the cell owns a copy
	v, err := c.Take()
	if err != nil {
		t.Fatalf("Take error: %v", err)
	}
	if v != 1 {
		t.Fatalf("got %d, want the copied 1", v)
	}
}

func TestCompletionBlockingRendezvous(t *testing.T) {
	c := webd.NewCompletion[int](webd.Blocking)
	completed := make(chan struct{})
	go func() {
		c.Complete(7)
		close(completed)
	}()

	select {
	case <-completed:
		t.Fatal("Blocking Complete returned before a consumer subscribed")
	case <-time.After(20 * time.Millisecond):
	}

	got := make(chan int, 1)
	c.Subscribe(func() {
		v, err := c.Take()
		if err != nil {
			t.Errorf("Take error: %v", err)
		}
		got <- v
	})
	<-completed
	if v := <-got; v != 7 {
		t.Fatalf("got %d, want 7", v)
	}
}

func TestCompletionOnSuspendHook(t *testing.T) {
	c := webd.NewCompletion[int](webd.Copy)
	suspended := 0
	c.OnSuspend(func() { suspended++ })

	c.Subscribe(func() {})
	if suspended != 1 {
		t.Fatalf("suspend hook fired %d times, want 1", suspended)
	}

	c.Complete(1)
	if _, err := c.Take(); err != nil {
		t.Fatalf("Take error: %v", err)
	}

	// Ready path skips the hook.
	c.Complete(2)
	c.Subscribe(func() {})
	if suspended != 1 {
		t.Fatalf("suspend hook fired %d times after ready subscribe, want 1", suspended)
	}
}
