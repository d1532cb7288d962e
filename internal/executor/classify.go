package executor

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"net"
	"net/url"
	"strings"
	"syscall"

	"github.com/studiowebux/webbench/internal/types"
)

// Classify maps a transport error from http.Client.Do onto an ErrorKind.
// Typed errors are checked first, the error text is the fallback.
func Classify(err error) types.ErrorKind {
	if err == nil {
		return types.ErrorKindNone
	}

	if errors.Is(err, context.Canceled) {
		return types.ErrorKindCanceled
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return types.ErrorKindTimeout
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		if dnsErr.IsTimeout {
			return types.ErrorKindTimeout
		}
		return types.ErrorKindDNS
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		switch errno {
		case syscall.ECONNREFUSED:
			return types.ErrorKindConnectionRefused
		case syscall.ECONNRESET, syscall.EPIPE:
			return types.ErrorKindConnectionReset
		case syscall.ETIMEDOUT:
			return types.ErrorKindTimeout
		}
	}

	var certErr *tls.CertificateVerificationError
	var unknownAuthority x509.UnknownAuthorityError
	var hostnameErr x509.HostnameError
	var invalidCert x509.CertificateInvalidError
	var recordErr tls.RecordHeaderError
	if errors.As(err, &certErr) || errors.As(err, &unknownAuthority) ||
		errors.As(err, &hostnameErr) || errors.As(err, &invalidCert) || errors.As(err, &recordErr) {
		return types.ErrorKindTLS
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return types.ErrorKindTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return types.ErrorKindTimeout
	}

	return classifyMessage(err.Error())
}

// classifyMessage categorizes by error text when no typed error matched
func classifyMessage(errStr string) types.ErrorKind {
	errLower := strings.ToLower(errStr)

	switch {
	case strings.Contains(errLower, "context canceled"):
		return types.ErrorKindCanceled
	case strings.Contains(errLower, "deadline exceeded"),
		strings.Contains(errLower, "timeout"),
		strings.Contains(errLower, "timed out"):
		return types.ErrorKindTimeout
	case strings.Contains(errLower, "no such host"),
		strings.Contains(errLower, "dial tcp: lookup"):
		return types.ErrorKindDNS
	case strings.Contains(errLower, "connection refused"):
		return types.ErrorKindConnectionRefused
	case strings.Contains(errLower, "connection reset"),
		strings.Contains(errLower, "broken pipe"):
		return types.ErrorKindConnectionReset
	case strings.Contains(errLower, "tls"),
		strings.Contains(errLower, "x509"),
		strings.Contains(errLower, "certificate"):
		return types.ErrorKindTLS
	case strings.Contains(errLower, "unsupported protocol scheme"),
		strings.Contains(errLower, "invalid url"):
		return types.ErrorKindInvalidRequest
	}
	return types.ErrorKindTransport
}

// Describe returns an operator-facing hint for an error kind
func Describe(kind types.ErrorKind) string {
	switch kind {
	case types.ErrorKindNone:
		return ""
	case types.ErrorKindTimeout:
		return "Request timeout - server took too long to respond, try increasing --timeout"
	case types.ErrorKindConnectionRefused:
		return "Connection refused - check if server is running and port is correct"
	case types.ErrorKindConnectionReset:
		return "Connection reset by server - server may have crashed or dropped the connection under load"
	case types.ErrorKindDNS:
		return "DNS resolution failed - verify hostname is correct and network is available"
	case types.ErrorKindTLS:
		return "TLS/SSL error - check certificate configuration and TLS settings"
	case types.ErrorKindCanceled:
		return "Request cancelled before completion"
	case types.ErrorKindInvalidRequest:
		return "Invalid request - verify the base URL format and protocol (http/https)"
	case types.ErrorKindPanic:
		return "Internal error while executing the request"
	}
	return "Transport error - request failed before a response was received"
}
