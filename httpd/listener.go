// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package httpd

import (
	"errors"
	"net"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/kont"
	"code.hybscloud.com/webd"
	"github.com/bassosimone/errclass"
	"github.com/google/uuid"
)

// AcceptResult carries one accepted connection or the accept error.
type AcceptResult = kont.Either[error, net.Conn]

// ListenOption configures a [TCPListener].
type ListenOption func(*TCPListener)

// WithLogger installs a logger on the listener.
func WithLogger(log SLogger) ListenOption {
	return func(l *TCPListener) {
		l.log = log
	}
}

// WithConnWrapper installs a wrapper applied to every accepted
// connection before it is handed out.
func WithConnWrapper(wrap func(net.Conn) net.Conn) ListenOption {
	return func(l *TCPListener) {
		l.wrap = wrap
	}
}

// TCPListener accepts connections as coroutine-driven completions.
type TCPListener struct {
	exec    webd.Executor
	ln      net.Listener
	log     SLogger
	wrap    func(net.Conn) net.Conn
	stopped atomix.Uint32
}

// Listen binds addr. Bind and listen failures surface here, not on the
// first accept.
func Listen(exec webd.Executor, addr string, opts ...ListenOption) (*TCPListener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	l := &TCPListener{exec: exec, ln: ln, log: DefaultSLogger()}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Addr returns the bound address.
func (l *TCPListener) Addr() net.Addr {
	return l.ln.Addr()
}

// Stop latches shutdown and closes the listener. The in-flight accept
// fails with net.ErrClosed, which ends the accept loop cleanly.
func (l *TCPListener) Stop() {
	if l.stopped.Add(1) != 1 {
		return
	}
	l.ln.Close()
}

// Stopped reports whether Stop was called.
func (l *TCPListener) Stopped() bool {
	return l.stopped.Load() != 0
}

// accept bridges one blocking Accept call into a completion cell.
func (l *TCPListener) accept() *webd.Completion[AcceptResult] {
	c := webd.NewCompletion[AcceptResult](webd.Copy)
	go func() {
		conn, err := l.ln.Accept()
		if err != nil {
			c.Complete(kont.Left[error, net.Conn](err))
			return
		}
		if l.wrap != nil {
			conn = l.wrap(conn)
		}
		c.Complete(kont.Right[error](conn))
	}()
	return c
}

// Accept returns the pull-mode accept stream: each item is one accepted
// connection or one accept error. The stream ends when the listener is
// stopped. Lazy: the first accept is posted on the first demand.
func (l *TCPListener) Accept() *webd.Stream[AcceptResult] {
	body := webd.Loop(struct{}{}, func(struct{}) kont.Eff[kont.Either[struct{}, struct{}]] {
		return webd.Delay(func() kont.Eff[kont.Either[struct{}, struct{}]] {
			if l.Stopped() {
				return kont.Pure(kont.Right[struct{}](struct{}{}))
			}
			return webd.AwaitBind(l.accept(), l.pullStep)
		})
	})
	return webd.NewStream[AcceptResult](l.exec, body, webd.Lazy)
}

func (l *TCPListener) pullStep(r AcceptResult) kont.Eff[kont.Either[struct{}, struct{}]] {
	if err, ok := r.GetLeft(); ok && errors.Is(err, net.ErrClosed) {
		return kont.Pure(kont.Right[struct{}](struct{}{}))
	}
	return webd.YieldDone(r, kont.Left[struct{}, struct{}](struct{}{}))
}

// Handle runs the push-mode accept loop: every accepted connection gets
// a fresh strand over the listener's executor and is handed to h on the
// accept coroutine. The loop counts as tracked work until it ends.
func (l *TCPListener) Handle(h func(exec webd.Executor, conn net.Conn)) {
	webd.BeginWork(l.exec)
	body := webd.Loop(struct{}{}, func(struct{}) kont.Eff[kont.Either[struct{}, struct{}]] {
		return webd.Delay(func() kont.Eff[kont.Either[struct{}, struct{}]] {
			if l.Stopped() {
				return kont.Pure(kont.Right[struct{}](struct{}{}))
			}
			return webd.AwaitBind(l.accept(), func(r AcceptResult) kont.Eff[kont.Either[struct{}, struct{}]] {
				return kont.Pure(l.pushStep(r, h))
			})
		})
	})
	t := webd.Spawn(l.exec, body, webd.Eager)
	t.OnFinish(func() {
		webd.EndWork(l.exec)
	})
}

func (l *TCPListener) pushStep(r AcceptResult, h func(webd.Executor, net.Conn)) kont.Either[struct{}, struct{}] {
	if err, ok := r.GetLeft(); ok {
		if errors.Is(err, net.ErrClosed) {
			return kont.Right[struct{}](struct{}{})
		}
		l.log.Info("acceptError", "err", err, "errClass", errclass.New(err))
		return kont.Left[struct{}, struct{}](struct{}{})
	}
	conn, _ := r.GetRight()
	l.log.Info("accepted",
		"conn", newConnID(),
		"localAddr", conn.LocalAddr().String(),
		"remoteAddr", conn.RemoteAddr().String())
	h(webd.NewStrand(l.exec), conn)
	return kont.Left[struct{}, struct{}](struct{}{})
}

// newConnID returns a time-ordered identifier correlating all log
// entries of one connection.
func newConnID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
