// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package httpd

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"

	"code.hybscloud.com/iox"
	"code.hybscloud.com/kont"
	"code.hybscloud.com/webd"
)

// IOResult carries the byte count of one I/O round or its error.
type IOResult = kont.Either[error, int]

// headResult carries one parsed request head or the read/parse error.
type headResult = kont.Either[error, *http.Request]

// connState is the per-connection read state. The buffered reader must
// survive across requests: pipelined bytes live in its buffer.
type connState struct {
	conn net.Conn
	br   *bufio.Reader
	last *http.Request
}

func newConnState(conn net.Conn) *connState {
	return &connState{conn: conn, br: bufio.NewReader(conn)}
}

// readHeader drains the unread body of the previous request, then
// parses the next request head. The blocking read runs on its own
// goroutine; the result lands in the returned cell.
func (cs *connState) readHeader() *webd.Completion[headResult] {
	c := webd.NewCompletion[headResult](webd.Copy)
	go func() {
		if cs.last != nil && cs.last.Body != nil {
			iox.Copy(io.Discard, cs.last.Body)
			cs.last.Body.Close()
			cs.last = nil
		}
		req, err := http.ReadRequest(cs.br)
		if err != nil {
			c.Complete(kont.Left[error, *http.Request](err))
			return
		}
		cs.last = req
		c.Complete(kont.Right[error](req))
	}()
	return c
}

// RequestContext is one request of a connection's request stream. A
// context is only valid until the next item is demanded from the
// stream; the keep-alive override set on it gates that demand.
type RequestContext struct {
	cs        *connState
	req       *http.Request
	id        string
	version   string
	log       SLogger
	keepAlive *bool
}

// Request returns the parsed request head. The body reader is only
// valid until the next item is demanded.
func (ctx *RequestContext) Request() *http.Request {
	return ctx.req
}

// Target returns the request-URI as received.
func (ctx *RequestContext) Target() string {
	return ctx.req.RequestURI
}

// MethodString returns "METHOD target".
func (ctx *RequestContext) MethodString() string {
	return ctx.req.Method + " " + ctx.req.RequestURI
}

// ID returns the request's correlation id.
func (ctx *RequestContext) ID() string {
	return ctx.id
}

// KeepAlive reports whether the connection continues after this
// request: the override when set, else the request's own semantics.
func (ctx *RequestContext) KeepAlive() bool {
	if ctx.keepAlive != nil {
		return *ctx.keepAlive
	}
	return !ctx.req.Close
}

// SetKeepAlive overrides the keep-alive decision for this request.
func (ctx *RequestContext) SetKeepAlive(v bool) {
	ctx.keepAlive = &v
}

// Write serializes resp to the connection on its own goroutine; the
// byte count or write error lands in the returned cell. The Server
// header is set from the stream's configured version when absent.
func (ctx *RequestContext) Write(resp *Response) *webd.Completion[IOResult] {
	if resp.Header == nil {
		resp.Header = http.Header{}
	}
	if resp.Header.Get("Server") == "" && ctx.version != "" {
		resp.Header.Set("Server", ctx.version)
	}
	c := webd.NewCompletion[IOResult](webd.Copy)
	go func() {
		n, err := resp.WriteTo(ctx.cs.conn)
		if err != nil {
			c.Complete(kont.Left[error, int](err))
			return
		}
		c.Complete(kont.Right[error](int(n)))
	}()
	return c
}

// Response is a serializable HTTP/1.1 response. A nil Body with a
// non-zero ContentLength writes headers only (the HEAD shape). When
// Body implements io.Closer it is closed after serialization.
type Response struct {
	Status        int
	Header        http.Header
	Body          io.Reader
	ContentLength int64
	KeepAlive     *bool
}

// NewTextResponse builds a response with a string body.
func NewTextResponse(status int, contentType, body string) *Response {
	return &Response{
		Status:        status,
		Header:        http.Header{"Content-Type": []string{contentType}},
		Body:          strings.NewReader(body),
		ContentLength: int64(len(body)),
	}
}

// WriteTo serializes the status line, headers, and body to w.
func (r *Response) WriteTo(w io.Writer) (int64, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "HTTP/1.1 %03d %s\r\n", r.Status, http.StatusText(r.Status))
	for key, values := range r.Header {
		for _, v := range values {
			fmt.Fprintf(&b, "%s: %s\r\n", key, v)
		}
	}
	fmt.Fprintf(&b, "Content-Length: %d\r\n", r.ContentLength)
	if r.KeepAlive != nil && !*r.KeepAlive {
		b.WriteString("Connection: close\r\n")
	}
	b.WriteString("\r\n")
	n, err := io.WriteString(w, b.String())
	total := int64(n)
	if err != nil {
		r.closeBody()
		return total, err
	}
	if r.Body != nil {
		m, err := iox.Copy(w, r.Body)
		total += m
		if err != nil {
			r.closeBody()
			return total, err
		}
	}
	r.closeBody()
	return total, nil
}

func (r *Response) closeBody() {
	if c, ok := r.Body.(io.Closer); ok {
		c.Close()
	}
}
