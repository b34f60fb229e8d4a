// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package httpd_test

import (
	"net/http"
	"regexp"
	"strings"
	"testing"

	"code.hybscloud.com/webd"
	"code.hybscloud.com/webd/httpd"
)

func ok(body string) httpd.Responder {
	return func(ctx *httpd.RequestContext, target string) httpd.Result {
		return httpd.Respond(httpd.NewTextResponse(http.StatusOK, "text/plain", body))
	}
}

func failWith(status int, msg string, recoverable bool) httpd.Responder {
	return func(ctx *httpd.RequestContext, target string) httpd.Result {
		return httpd.Fail(status, msg, recoverable)
	}
}

func TestRouteStripsMatchedPrefix(t *testing.T) {
	var seen string
	upstream := func(ctx *httpd.RequestContext, target string) httpd.Result {
		seen = target
		return httpd.Respond(httpd.NewTextResponse(http.StatusOK, "text/plain", ""))
	}
	r := httpd.Route(regexp.MustCompile(`^/static/`), upstream)

	res := r(nil, "/static/css/site.css")
	if !res.IsRight() {
		t.Fatal("expected Right for matching target")
	}
	if seen != "css/site.css" {
		t.Fatalf("upstream target got %q, want %q", seen, "css/site.css")
	}
}

func TestRouteRequiresMatchAtStart(t *testing.T) {
	r := httpd.Route(regexp.MustCompile(`/api/`), ok(""))

	res := r(nil, "/v1/api/users")
	perr, isLeft := res.GetLeft()
	if !isLeft {
		t.Fatal("expected Left for mid-string match")
	}
	if perr.Status != http.StatusNotFound {
		t.Fatalf("status got %d, want 404", perr.Status)
	}
	if !perr.Recoverable {
		t.Fatal("route miss must be recoverable")
	}
}

func TestRouteNoMatch(t *testing.T) {
	r := httpd.Route(regexp.MustCompile(`^/api/`), ok(""))

	res := r(nil, "/files/a.txt")
	perr, isLeft := res.GetLeft()
	if !isLeft {
		t.Fatal("expected Left for non-matching target")
	}
	if perr.Status != http.StatusNotFound || perr.Message != "/files/a.txt" {
		t.Fatalf("got %d %q", perr.Status, perr.Message)
	}
}

func TestOrElseFallsThroughOnRecoverable(t *testing.T) {
	r := failWith(http.StatusNotFound, "miss", true).OrElse(ok("fallback"))

	res := r(nil, "/x")
	resp, isRight := res.GetRight()
	if !isRight {
		t.Fatal("expected fallback response")
	}
	if resp.Status != http.StatusOK {
		t.Fatalf("status got %d, want 200", resp.Status)
	}
}

func TestOrElseReportsDownstreamError(t *testing.T) {
	r := failWith(http.StatusNotFound, "first", true).
		OrElse(failWith(http.StatusNotFound, "second", true))

	res := r(nil, "/x")
	perr, isLeft := res.GetLeft()
	if !isLeft {
		t.Fatal("expected Left when both fail")
	}
	if perr.Message != "second" {
		t.Fatalf("message got %q, want the downstream %q", perr.Message, "second")
	}
}

func TestOrElseShortCircuitsUnrecoverable(t *testing.T) {
	r := failWith(http.StatusBadRequest, "fatal", false).OrElse(ok("never"))

	res := r(nil, "/x")
	perr, isLeft := res.GetLeft()
	if !isLeft {
		t.Fatal("expected the unrecoverable error to pass through")
	}
	if perr.Status != http.StatusBadRequest || perr.Message != "fatal" {
		t.Fatalf("got %d %q", perr.Status, perr.Message)
	}
}

func TestOrElseSuccessShortCircuits(t *testing.T) {
	called := false
	second := func(ctx *httpd.RequestContext, target string) httpd.Result {
		called = true
		return httpd.Fail(http.StatusNotFound, target, true)
	}
	r := ok("hit").OrElse(second)

	if res := r(nil, "/x"); !res.IsRight() {
		t.Fatal("expected Right")
	}
	if called {
		t.Fatal("downstream ran after upstream success")
	}
}

func TestProtocolErrorMessage(t *testing.T) {
	perr := &httpd.ProtocolError{Status: http.StatusNotFound, Message: "/missing", Recoverable: true}
	want := "404 Not Found: /missing"
	if got := perr.Error(); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestErrorResponseBody(t *testing.T) {
	perr := &httpd.ProtocolError{Status: http.StatusNotFound, Message: "/missing", Recoverable: true}
	resp := httpd.ErrorResponse(perr)
	if resp.Status != http.StatusNotFound {
		t.Fatalf("status got %d, want 404", resp.Status)
	}
	if resp.KeepAlive != nil {
		t.Fatal("recoverable error must not force a close")
	}
	var sb strings.Builder
	if _, err := resp.WriteTo(&sb); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}
	out := sb.String()
	if !strings.Contains(out, "<h1>404 Not Found</h1>") {
		t.Fatalf("body missing heading: %q", out)
	}
	if !strings.Contains(out, "/missing") {
		t.Fatalf("body missing message: %q", out)
	}
}

func TestErrorResponseEscapesMessage(t *testing.T) {
	perr := &httpd.ProtocolError{Status: http.StatusBadRequest, Message: "<script>alert(1)</script>", Recoverable: true}
	var sb strings.Builder
	if _, err := httpd.ErrorResponse(perr).WriteTo(&sb); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}
	out := sb.String()
	if strings.Contains(out, "<script>") {
		t.Fatalf("message not escaped: %q", out)
	}
	if !strings.Contains(out, "&lt;script&gt;") {
		t.Fatalf("escaped form missing: %q", out)
	}
}

func TestErrorResponseUnrecoverableForcesClose(t *testing.T) {
	perr := &httpd.ProtocolError{Status: http.StatusBadRequest, Message: "bad", Recoverable: false}
	resp := httpd.ErrorResponse(perr)
	if resp.KeepAlive == nil || *resp.KeepAlive {
		t.Fatal("unrecoverable error must force connection close")
	}
}

func TestRedirectResponder(t *testing.T) {
	pool := webd.NewPool(2)
	defer pool.Stop()

	ctx, cleanup := requestCtx(t, pool, "GET /deep/path?q=1 HTTP/1.1\r\nHost: example.com:8080\r\n\r\n")
	defer cleanup()

	res := httpd.NewRedirectResponder()(ctx, ctx.Target())
	resp, isRight := res.GetRight()
	if !isRight {
		t.Fatal("expected a redirect response")
	}
	if resp.Status != http.StatusMovedPermanently {
		t.Fatalf("status got %d, want 301", resp.Status)
	}
	want := "https://example.com/deep/path?q=1"
	if got := resp.Header.Get("Location"); got != want {
		t.Fatalf("Location got %q, want %q", got, want)
	}
	if resp.KeepAlive == nil || !*resp.KeepAlive {
		t.Fatal("redirect must keep the connection alive")
	}
}

func TestRedirectResponderBareHost(t *testing.T) {
	pool := webd.NewPool(2)
	defer pool.Stop()

	ctx, cleanup := requestCtx(t, pool, "GET / HTTP/1.1\r\nHost: example.com\r\n\r\n")
	defer cleanup()

	res := httpd.NewRedirectResponder()(ctx, ctx.Target())
	resp, _ := res.GetRight()
	if got := resp.Header.Get("Location"); got != "https://example.com/" {
		t.Fatalf("Location got %q, want %q", got, "https://example.com/")
	}
}
