package fetch

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
)

// ErrorKind classifies why a fetch failed.
type ErrorKind string

const (
	// KindConnect marks failures establishing the connection, including
	// DNS resolution and TLS handshakes.
	KindConnect ErrorKind = "connect"
	// KindTimeout marks deadline expiries, whether from the HTTP client
	// or the caller's context.
	KindTimeout ErrorKind = "timeout"
	// KindStatus marks responses whose status lies outside the 2xx range.
	KindStatus ErrorKind = "status"
	// KindOther marks everything else.
	KindOther ErrorKind = "other"
)

// FetchError describes a failed fetch in terms a report can use.
// StatusCode is only set for KindStatus. Detail carries the transport's
// own wording of the failure and is never reformatted.
type FetchError struct {
	URL        string
	Kind       ErrorKind
	StatusCode uint16
	Detail     string
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	return fmt.Sprintf("%s error requesting %s: %s", e.Kind, e.URL, e.Detail)
}

// Classify maps a transport error to a FetchError. Connection-phase
// failures win over timeouts, so a timed-out dial reports as connect.
func Classify(url string, err error) *FetchError {
	kind := KindOther
	switch {
	case isConnectError(err):
		kind = KindConnect
	case isTimeoutError(err):
		kind = KindTimeout
	}
	return &FetchError{
		URL:    url,
		Kind:   kind,
		Detail: err.Error(),
	}
}

// isConnectError reports whether err happened before a connection was
// established.
func isConnectError(err error) bool {
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		switch opErr.Op {
		case "dial":
			return true
		// crypto/tls wraps handshake alerts in OpErrors with these ops
		case "remote error", "local error":
			return true
		}
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var certErr *tls.CertificateVerificationError
	if errors.As(err, &certErr) {
		return true
	}
	var recordErr tls.RecordHeaderError
	if errors.As(err, &recordErr) {
		return true
	}
	return false
}

// isTimeoutError reports whether err is a deadline expiry.
func isTimeoutError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
