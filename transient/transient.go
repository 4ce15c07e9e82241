// Copyright 2021 The proxyx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package transient

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"io"
	"net"
	"syscall"
)

// A Category is the transience category of a particular error, as
// reported by function Categorize().
//
// The category Not means the error is not transient from the perspective
// of completing a request attempt over another network path, or in other
// words that trying the same request through a different proxy is very
// unlikely to succeed.
//
// All other categories indicate a connection-level failure (DNS, TCP,
// TLS handshake, socket, or proxy connection) which has some prospect of
// success if the request is attempted again over a different path.
type Category int

const (
	// Not indicates any non-transient error.
	Not Category = iota
	// Timeout indicates a client-side timeout. The path may be going
	// through a period of slowness, or may be silently dropping
	// packets.
	//
	// Function Categorize() will return Timeout if the error or any of
	// its wrapped causes has a Timeout() function that reports true.
	Timeout
	// ConnRefused indicates the remote host refused the connection, and
	// corresponds to the POSIX error code ECONNREFUSED.
	//
	// Function Categorize() will return ConnRefused if the error is not
	// a Timeout, and the error or any of its wrapped causes is equal to
	// syscall.ECONNREFUSED.
	ConnRefused
	// ConnReset indicates the remote host returned an RST packet on a
	// previously active TCP connection, and corresponds to the POSIX
	// error codes ECONNRESET, ECONNABORTED, and EPIPE.
	//
	// Proxies reset connections routinely when they are overloaded or
	// when an upstream goes away in the middle of a request.
	ConnReset
	// NetUnreachable indicates the network or host could not be
	// reached at all, and corresponds to the POSIX error codes
	// ENETUNREACH, EHOSTUNREACH, ENETDOWN, and EHOSTDOWN.
	NetUnreachable
	// DNS indicates a name resolution failure, reported by the standard
	// library as a *net.DNSError.
	DNS
	// TLS indicates a TLS handshake failure: a malformed record header,
	// an alert from the peer, or a certificate the client rejected.
	TLS
	// ProxyConnect indicates the connection to a proxy server, or the
	// proxy's own connection to the target, could not be established.
	// The standard library reports these as *net.OpError values with
	// the operation "proxyconnect", and golang.org/x/net/proxy reports
	// them with the operation "socks connect".
	ProxyConnect
	// Dial indicates any other failure to establish a connection,
	// reported as a *net.OpError with the operation "dial".
	Dial
	// ConnClosed indicates the connection was closed before a complete
	// response was read (io.EOF, io.ErrUnexpectedEOF, or net.ErrClosed).
	ConnClosed
)

var categoryNames = []string{
	"Not",
	"Timeout",
	"ConnRefused",
	"ConnReset",
	"NetUnreachable",
	"DNS",
	"TLS",
	"ProxyConnect",
	"Dial",
	"ConnClosed",
}

// String returns the name of the category.
func (c Category) String() string {
	if c < 0 || int(c) >= len(categoryNames) {
		return "Unknown"
	}
	return categoryNames[c]
}

// Categorize returns the transience category of the given error. All
// non-nil transient errors result in a transience category other than
// Not. A nil error, and an error that is not transient from the
// perspective of completing a request attempt over another path, both
// produce the return value Not.
//
// In assessing transience, Categorize looks at wrapped cause errors
// contained within err, not just err itself. An error wrapping
// context.Canceled is never transient, since it means the caller gave
// up on the request. However, Categorize never checks if an error has
// a Temporary() function that returns true, as the semantics of
// Temporary() aren't entirely clear.
func Categorize(err error) Category {
	if err == nil {
		return Not
	}

	if errors.Is(err, context.Canceled) {
		return Not
	}

	var hasTimeout hasTimeout
	if errors.As(err, &hasTimeout) && hasTimeout.Timeout() {
		return Timeout
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		switch errno {
		case syscall.ECONNREFUSED:
			return ConnRefused
		case syscall.ECONNRESET, syscall.ECONNABORTED, syscall.EPIPE:
			return ConnReset
		case syscall.ENETUNREACH, syscall.EHOSTUNREACH, syscall.ENETDOWN, syscall.EHOSTDOWN:
			return NetUnreachable
		}
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return DNS
	}

	if isTLS(err) {
		return TLS
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		switch opErr.Op {
		case "proxyconnect", "socks connect":
			return ProxyConnect
		case "dial":
			return Dial
		}
	}

	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, net.ErrClosed) {
		return ConnClosed
	}

	return Not
}

// IsTransport reports whether err is a connection-level failure, that
// is whether Categorize(err) returns anything other than Not.
func IsTransport(err error) bool {
	return Categorize(err) != Not
}

func isTLS(err error) bool {
	var recordHeaderErr tls.RecordHeaderError
	if errors.As(err, &recordHeaderErr) {
		return true
	}
	var alertErr tls.AlertError
	if errors.As(err, &alertErr) {
		return true
	}
	var certErr *tls.CertificateVerificationError
	if errors.As(err, &certErr) {
		return true
	}
	var hostnameErr x509.HostnameError
	if errors.As(err, &hostnameErr) {
		return true
	}
	var unknownAuthorityErr x509.UnknownAuthorityError
	if errors.As(err, &unknownAuthorityErr) {
		return true
	}
	var certInvalidErr x509.CertificateInvalidError
	return errors.As(err, &certInvalidErr)
}

type hasTimeout interface {
	Timeout() bool
}
