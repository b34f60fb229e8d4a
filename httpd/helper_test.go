// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package httpd_test

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"net"
	"testing"
	"time"

	"code.hybscloud.com/iox"
	"code.hybscloud.com/webd"
	"code.hybscloud.com/webd/httpd"
)

// awaitCell spins until c holds a result, then consumes it.
func awaitCell[T any](tb testing.TB, c *webd.Completion[T]) (T, error) {
	tb.Helper()
	var bo iox.Backoff
	for !c.Ready() {
		bo.Wait()
	}
	return c.Take()
}

// requestCtx feeds raw through an in-memory connection and returns the
// first request context of the stream. The context stays valid because
// no further item is demanded.
func requestCtx(tb testing.TB, exec webd.Executor, raw string) (*httpd.RequestContext, func()) {
	tb.Helper()
	client, server := net.Pipe()
	go client.Write([]byte(raw))
	s := httpd.AcceptRequests(exec, server)
	it, err := awaitCell(tb, s.Next())
	if err != nil {
		tb.Fatalf("request stream: %v", err)
	}
	if !it.Ok {
		tb.Fatal("request stream ended before the first request")
	}
	if err, ok := it.Value.GetLeft(); ok {
		tb.Fatalf("request parse: %v", err)
	}
	ctx, _ := it.Value.GetRight()
	return ctx, func() {
		client.Close()
		server.Close()
	}
}

// rawPEMPair generates a throwaway self-signed certificate and key.
func rawPEMPair(tb testing.TB) (certPEM, keyPEM []byte) {
	tb.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		tb.Fatalf("generate key: %v", err)
	}
	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "127.0.0.1"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		IPAddresses:  []net.IP{net.ParseIP("127.0.0.1")},
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	if err != nil {
		tb.Fatalf("create certificate: %v", err)
	}
	keyDER, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		tb.Fatalf("marshal key: %v", err)
	}
	certPEM = pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	keyPEM = pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER})
	return certPEM, keyPEM
}

// testTLSConfig builds a server config from a fresh self-signed pair.
func testTLSConfig(tb testing.TB) *tls.Config {
	tb.Helper()
	certPEM, keyPEM := rawPEMPair(tb)
	cfg, err := httpd.LoadTLSConfig(certPEM, keyPEM)
	if err != nil {
		tb.Fatalf("load tls config: %v", err)
	}
	return cfg
}
