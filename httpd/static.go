// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package httpd

import (
	"errors"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"code.hybscloud.com/kont"
)

// NewStaticResponder serves files under root. Targets ending in "/"
// get the index document appended. GET serves headers and body, HEAD
// headers only. A target containing ".." is rejected outright with an
// unrecoverable 400; a missing file is a recoverable 404 so a chained
// responder can take over.
func NewStaticResponder(root, index string) Responder {
	return func(ctx *RequestContext, target string) Result {
		if strings.Contains(target, "..") {
			return Fail(http.StatusBadRequest, target, false)
		}
		method := ctx.Request().Method
		if method != http.MethodGet && method != http.MethodHead {
			return Fail(http.StatusMethodNotAllowed, ctx.MethodString(), true)
		}
		path := target
		if path == "" || strings.HasSuffix(path, "/") {
			path += index
		}
		f, err := os.Open(filepath.Join(root, filepath.FromSlash(path)))
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return Fail(http.StatusNotFound, target, true)
			}
			return Fail(http.StatusBadRequest, "Unknown error", false)
		}
		st, err := f.Stat()
		if err != nil || st.IsDir() {
			f.Close()
			if st != nil && st.IsDir() {
				return Fail(http.StatusNotFound, target, true)
			}
			return Fail(http.StatusBadRequest, "Unknown error", false)
		}
		resp := &Response{
			Status:        http.StatusOK,
			Header:        http.Header{"Content-Type": []string{MIMEType(path)}},
			ContentLength: st.Size(),
		}
		if method == http.MethodHead {
			f.Close()
		} else {
			resp.Body = f
		}
		return kont.Right[*ProtocolError](resp)
	}
}
