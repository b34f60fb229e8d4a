// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package httpd

import (
	"strings"
)

// DefaultMIMEType is returned for unknown extensions.
const DefaultMIMEType = "application/text"

var mimeTypes = map[string]string{
	"htm":  "text/html",
	"html": "text/html",
	"php":  "text/html",
	"css":  "text/css",
	"txt":  "text/plain",
	"js":   "application/javascript",
	"json": "application/json",
	"xml":  "application/xml",
	"swf":  "application/x-shockwave-flash",
	"flv":  "video/x-flv",
	"png":  "image/png",
	"jpe":  "image/jpeg",
	"jpeg": "image/jpeg",
	"jpg":  "image/jpeg",
	"gif":  "image/gif",
	"bmp":  "image/bmp",
	"ico":  "image/vnd.microsoft.icon",
	"tiff": "image/tiff",
	"tif":  "image/tiff",
	"svg":  "image/svg+xml",
	"svgz": "image/svg+xml",
}

// MIMEType maps a path's extension (case-insensitive) to its content
// type, defaulting to [DefaultMIMEType].
func MIMEType(path string) string {
	dot := strings.LastIndexByte(path, '.')
	if dot < 0 {
		return DefaultMIMEType
	}
	if t, ok := mimeTypes[strings.ToLower(path[dot+1:])]; ok {
		return t
	}
	return DefaultMIMEType
}
