// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package httpd

import (
	"fmt"
	"html"
	"net/http"
	"regexp"

	"code.hybscloud.com/kont"
)

// ProtocolError is a responder failure. Recoverable errors allow a
// downstream responder to take over via [Responder.OrElse];
// unrecoverable ones end the connection after the error response.
type ProtocolError struct {
	Status      int
	Message     string
	Recoverable bool
}

// Error implements error.
func (e *ProtocolError) Error() string {
	return fmt.Sprintf("%d %s: %s", e.Status, http.StatusText(e.Status), e.Message)
}

// Result carries one response or one protocol error.
type Result = kont.Either[*ProtocolError, *Response]

// Fail builds a Left result.
func Fail(status int, message string, recoverable bool) Result {
	return kont.Left[*ProtocolError, *Response](&ProtocolError{
		Status:      status,
		Message:     message,
		Recoverable: recoverable,
	})
}

// Respond builds a Right result.
func Respond(resp *Response) Result {
	return kont.Right[*ProtocolError](resp)
}

// Responder maps one request to a result. target is the request-URI
// with any routed prefix already stripped.
type Responder func(ctx *RequestContext, target string) Result

// Route matches pattern against the target. The match must start at
// offset zero, else the route fails with a recoverable 404; on match
// the upstream receives the target with the matched prefix stripped.
func Route(pattern *regexp.Regexp, upstream Responder) Responder {
	return func(ctx *RequestContext, target string) Result {
		m := pattern.FindStringIndex(target)
		if m == nil || m[0] != 0 {
			return Fail(http.StatusNotFound, target, true)
		}
		return upstream(ctx, target[m[1]:])
	}
}

// OrElse falls through to next when the receiver fails recoverably.
// When both fail, the downstream error is the one reported.
// Unrecoverable errors short-circuit.
func (r Responder) OrElse(next Responder) Responder {
	return func(ctx *RequestContext, target string) Result {
		first := r(ctx, target)
		perr, ok := first.GetLeft()
		if !ok || !perr.Recoverable {
			return first
		}
		return next(ctx, target)
	}
}

// ErrorResponse renders a protocol error as an html response.
// Unrecoverable errors carry a forced connection close.
func ErrorResponse(perr *ProtocolError) *Response {
	body := fmt.Sprintf("<html><body><h1>%d %s</h1><p>%s</p></body></html>",
		perr.Status, http.StatusText(perr.Status), html.EscapeString(perr.Message))
	resp := NewTextResponse(perr.Status, "text/html", body)
	if !perr.Recoverable {
		keep := false
		resp.KeepAlive = &keep
	}
	return resp
}

// NewRedirectResponder permanently redirects every request to the https
// origin of the request's host, keeping the connection alive so the
// peer can pipeline the retry.
func NewRedirectResponder() Responder {
	return func(ctx *RequestContext, target string) Result {
		host := hostOnly(ctx.Request().Host)
		resp := NewTextResponse(http.StatusMovedPermanently, "text/html", "")
		resp.Header.Set("Location", "https://"+host+ctx.Target())
		keep := true
		resp.KeepAlive = &keep
		return Respond(resp)
	}
}

var hostPortPattern = regexp.MustCompile(`^(.*):\d+$`)

func hostOnly(host string) string {
	if m := hostPortPattern.FindStringSubmatch(host); m != nil {
		return m[1]
	}
	return host
}
