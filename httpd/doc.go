// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package httpd serves HTTP/1.1 and HTTPS connections over the
// coroutine core of [code.hybscloud.com/webd].
//
// # Architecture
//
//   - Listener: [Listen] binds a TCP listener; accepted connections run
//     on a fresh [code.hybscloud.com/webd.Strand] in push mode
//     ([TCPListener.Handle]) or are pulled one at a time as a stream
//     ([TCPListener.Accept]).
//   - Requests: [AcceptRequests] turns one connection into a stream of
//     request contexts, parsing heads, draining unread bodies between
//     rounds, and gating each round on keep-alive. [AcceptTLSRequests]
//     adds the handshake up front and a deferred shutdown on every exit
//     path.
//   - Responders: a [Responder] maps a request to a [Result]; [Route]
//     matches a prefix pattern and [Responder.OrElse] falls through on
//     recoverable errors. [NewStaticResponder] serves files,
//     [NewRedirectResponder] upgrades to https.
//   - Serving: [Serve] and [ServeTLS] are complete per-connection
//     programs combining the above.
//
// Expected failures travel in [code.hybscloud.com/kont.Either] values
// ([AcceptResult], [RequestResult], [Result]); completion error channels
// carry only panics. Logging goes through [SLogger]; the default
// discards all output.
package httpd
