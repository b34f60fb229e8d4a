// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Command donkey_http serves a directory of static files over HTTP/1.1.
//
// Usage:
//
//	donkey_http <doc_root> [port]
//
// The server binds 0.0.0.0 on the given port (default 80) and runs on
// an eight-worker pool.
package main

import (
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"regexp"

	"code.hybscloud.com/webd"
	"code.hybscloud.com/webd/httpd"
	"code.hybscloud.com/webd/registry"
	"github.com/bassosimone/runtimex"
)

const serverVersion = "webdonkey/1.0"

var rootRoute = regexp.MustCompile(`^/`)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "usage: %s <doc_root> [port]\n", filepath.Base(os.Args[0]))
		os.Exit(2)
	}
	docRoot := os.Args[1]
	port := "80"
	if len(os.Args) > 2 {
		port = os.Args[2]
	}

	log := slog.New(slog.NewTextHandler(os.Stderr, nil))
	pool := webd.NewPool(8)
	registry.RegisterObject(pool)

	respond := httpd.Route(rootRoute, httpd.NewStaticResponder(docRoot, "index.html"))

	ln := runtimex.PanicOnError1(httpd.Listen(pool, net.JoinHostPort("0.0.0.0", port), httpd.WithLogger(log)))
	log.Info("listening", "addr", ln.Addr().String(), "docRoot", docRoot)

	ln.Handle(func(exec webd.Executor, conn net.Conn) {
		serveConn(exec, conn, respond, log)
	})
	pool.Join()
}

func serveConn(exec webd.Executor, conn net.Conn, respond httpd.Responder, log httpd.SLogger) {
	webd.BeginWork(exec)
	t := webd.Spawn(exec,
		httpd.Serve(exec, conn, respond, httpd.WithVersion(serverVersion), httpd.WithServeLogger(log)),
		webd.Eager)
	t.OnFinish(func() {
		webd.EndWork(exec)
	})
}
