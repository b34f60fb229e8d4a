// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package httpd

import (
	"crypto/tls"
	"errors"
	"io"
	"net"

	"code.hybscloud.com/kont"
	"code.hybscloud.com/webd"
	"github.com/bassosimone/errclass"
)

// RequestResult carries one parsed request context or the read error.
type RequestResult = kont.Either[error, *RequestContext]

// DefaultVersion is the Server header value when none is configured.
const DefaultVersion = "webdonkey/1.0"

type serveConfig struct {
	version string
	log     SLogger
}

// ServeOption configures request streams and serve loops.
type ServeOption func(*serveConfig)

// WithVersion sets the Server header value.
func WithVersion(v string) ServeOption {
	return func(cfg *serveConfig) {
		cfg.version = v
	}
}

// WithServeLogger installs a logger on the stream and serve loop.
func WithServeLogger(log SLogger) ServeOption {
	return func(cfg *serveConfig) {
		cfg.log = log
	}
}

func newServeConfig(opts []ServeOption) *serveConfig {
	cfg := &serveConfig{version: DefaultVersion, log: DefaultSLogger()}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// AcceptRequests turns one connection into a stream of request
// contexts: parse a head, yield the context, gate on keep-alive. A
// clean peer close between requests (or a partial head) ends the
// stream without an error item; other failures yield one error item
// and end it. The stream does not close the connection.
func AcceptRequests(exec webd.Executor, conn net.Conn, opts ...ServeOption) *webd.Stream[RequestResult] {
	cfg := newServeConfig(opts)
	cs := newConnState(conn)
	return webd.NewStream[RequestResult](exec, requestLoop(cs, cfg), webd.Lazy)
}

// AcceptTLSRequests is [AcceptRequests] over a server-side TLS session.
// The handshake runs before the first head; handshake failure yields
// one error item. The stream owns the session: close_notify and the
// connection close run on every exit path.
func AcceptTLSRequests(exec webd.Executor, conn net.Conn, cfg *tls.Config, opts ...ServeOption) *webd.Stream[RequestResult] {
	sc := newServeConfig(opts)
	tc := tls.Server(conn, cfg)
	body := webd.Delay(func() kont.Eff[struct{}] {
		return webd.AwaitBind(handshake(tc), func(r kont.Either[error, struct{}]) kont.Eff[struct{}] {
			if err, ok := r.GetLeft(); ok {
				return webd.YieldDone(kont.Left[error, *RequestContext](err), struct{}{})
			}
			return requestLoop(newConnState(tc), sc)
		})
	})
	s := webd.NewStream[RequestResult](exec, body, webd.Lazy)
	s.OnFinish(func() {
		tc.CloseWrite()
		tc.Close()
	})
	return s
}

// handshake bridges the blocking TLS handshake into a completion cell.
func handshake(tc *tls.Conn) *webd.Completion[kont.Either[error, struct{}]] {
	c := webd.NewCompletion[kont.Either[error, struct{}]](webd.Copy)
	go func() {
		if err := tc.Handshake(); err != nil {
			c.Complete(kont.Left[error, struct{}](err))
			return
		}
		c.Complete(kont.Right[error](struct{}{}))
	}()
	return c
}

func requestLoop(cs *connState, cfg *serveConfig) kont.Eff[struct{}] {
	return webd.Loop(struct{}{}, func(struct{}) kont.Eff[kont.Either[struct{}, struct{}]] {
		return webd.Delay(func() kont.Eff[kont.Either[struct{}, struct{}]] {
			return webd.AwaitBind(cs.readHeader(), func(r headResult) kont.Eff[kont.Either[struct{}, struct{}]] {
				return requestStep(cs, cfg, r)
			})
		})
	})
}

func requestStep(cs *connState, cfg *serveConfig, r headResult) kont.Eff[kont.Either[struct{}, struct{}]] {
	finish := kont.Pure(kont.Right[struct{}](struct{}{}))
	if err, ok := r.GetLeft(); ok {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return finish
		}
		cfg.log.Info("readError", "err", err, "errClass", errclass.New(err))
		return webd.YieldThen(kont.Left[error, *RequestContext](err), finish)
	}
	req, _ := r.GetRight()
	ctx := &RequestContext{cs: cs, req: req, id: newConnID(), version: cfg.version, log: cfg.log}
	cfg.log.Debug("request", "id", ctx.id, "method", req.Method, "target", req.RequestURI)
	return webd.YieldThen(kont.Right[error](ctx), webd.Delay(func() kont.Eff[kont.Either[struct{}, struct{}]] {
		if ctx.KeepAlive() {
			return kont.Pure(kont.Left[struct{}, struct{}](struct{}{}))
		}
		return kont.Pure(kont.Right[struct{}](struct{}{}))
	}))
}

// Serve is the canonical per-connection program: for each request, run
// the responder and write its response or the error response. The
// connection closes when the stream ends.
func Serve(exec webd.Executor, conn net.Conn, respond Responder, opts ...ServeOption) kont.Eff[struct{}] {
	cfg := newServeConfig(opts)
	s := AcceptRequests(exec, conn, opts...)
	s.OnFinish(func() {
		conn.Close()
	})
	return serveLoop(s, respond, cfg)
}

// ServeTLS is [Serve] over a TLS session; shutdown is owned by the
// request stream.
func ServeTLS(exec webd.Executor, conn net.Conn, tlsCfg *tls.Config, respond Responder, opts ...ServeOption) kont.Eff[struct{}] {
	cfg := newServeConfig(opts)
	s := AcceptTLSRequests(exec, conn, tlsCfg, opts...)
	return serveLoop(s, respond, cfg)
}

func serveLoop(s *webd.Stream[RequestResult], respond Responder, cfg *serveConfig) kont.Eff[struct{}] {
	finish := kont.Pure(kont.Right[struct{}](struct{}{}))
	again := kont.Pure(kont.Left[struct{}, struct{}](struct{}{}))
	return webd.Loop(struct{}{}, func(struct{}) kont.Eff[kont.Either[struct{}, struct{}]] {
		return webd.NextBind(s, func(it webd.Item[RequestResult]) kont.Eff[kont.Either[struct{}, struct{}]] {
			if !it.Ok {
				return finish
			}
			if _, ok := it.Value.GetLeft(); ok {
				return finish
			}
			ctx, _ := it.Value.GetRight()
			resp := respondWith(ctx, respond, cfg)
			return webd.AwaitBind(ctx.Write(resp), func(w IOResult) kont.Eff[kont.Either[struct{}, struct{}]] {
				if err, ok := w.GetLeft(); ok {
					cfg.log.Info("writeError", "id", ctx.id, "err", err, "errClass", errclass.New(err))
					return finish
				}
				return again
			})
		})
	})
}

// respondWith runs the responder and folds protocol errors into an
// error response, syncing the keep-alive override with the outcome.
func respondWith(ctx *RequestContext, respond Responder, cfg *serveConfig) *Response {
	res := respond(ctx, ctx.Target())
	if perr, ok := res.GetLeft(); ok {
		cfg.log.Info("protocolError", "id", ctx.id,
			"status", perr.Status, "message", perr.Message, "recoverable", perr.Recoverable)
		if !perr.Recoverable {
			ctx.SetKeepAlive(false)
		}
		return ErrorResponse(perr)
	}
	resp, _ := res.GetRight()
	if resp.KeepAlive != nil {
		ctx.SetKeepAlive(*resp.KeepAlive)
	}
	return resp
}
