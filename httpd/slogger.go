// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package httpd

// SLogger abstracts the [*log/slog.Logger] behavior.
//
// The package uses two levels: Info for connection and request
// lifecycle events, Debug for per-round I/O events.
//
// The [*log/slog.Logger] type satisfies this interface.
type SLogger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
}

// DefaultSLogger returns the default [SLogger]: a no-op logger that
// discards all output. The package never writes to stdout or stderr
// unless a logger is configured.
func DefaultSLogger() SLogger {
	return discardSLogger{}
}

type discardSLogger struct{}

var _ SLogger = discardSLogger{}

// Debug implements [SLogger].
func (discardSLogger) Debug(msg string, args ...any) {
}

// Info implements [SLogger].
func (discardSLogger) Info(msg string, args ...any) {
}
