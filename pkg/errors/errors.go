package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"net"
)

// Kind classifies a failed image fetch or transport call
type Kind string

const (
	KindTimeout   Kind = "timeout"
	KindNetwork   Kind = "network"
	KindExhausted Kind = "exhausted"
)

// TransportError wraps a connection-level failure talking to a remote host
type TransportError struct {
	Kind Kind
	URL  string
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s error requesting %s: %v", e.Kind, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// CatalogError is raised when the catalog API returns a non-success status
// or a body that does not match the expected schema
type CatalogError struct {
	Code    int
	Message string
	Err     error
}

func (e *CatalogError) Error() string {
	if e.Code == 0 {
		return fmt.Sprintf("catalog error: %s", e.Message)
	}
	return fmt.Sprintf("catalog error (code %d): %s", e.Code, e.Message)
}

func (e *CatalogError) Unwrap() error { return e.Err }

// ImageFetchError reports that a record's image could not be retrieved
type ImageFetchError struct {
	Kind Kind
	Ref  string
	// Attempts is the number of mirrors tried for content-addressed refs
	Attempts int
	// Code is the last HTTP status seen, 0 if none
	Code int
	Err  error
}

func (e *ImageFetchError) Error() string {
	switch {
	case e.Kind == KindExhausted:
		return fmt.Sprintf("image fetch exhausted %d gateways for %s", e.Attempts, e.Ref)
	case e.Code != 0:
		return fmt.Sprintf("image fetch %s error for %s: status %d", e.Kind, e.Ref, e.Code)
	default:
		return fmt.Sprintf("image fetch %s error for %s: %v", e.Kind, e.Ref, e.Err)
	}
}

func (e *ImageFetchError) Unwrap() error { return e.Err }

// DecodeError means the fetched bytes are not a supported image
type DecodeError struct {
	Name string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode image for %q: %v", e.Name, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// IOError means a thumbnail could not be written
type IOError struct {
	Name string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("failed to write %s for %q: %v", e.Path, e.Name, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// InsufficientDataError is returned when fewer records exist than the sample asks for
type InsufficientDataError struct {
	Have int
	Want int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data: have %d records, want %d", e.Have, e.Want)
}

// ClassifyTransport maps a low-level error to a Kind
func ClassifyTransport(err error) Kind {
	if err == nil {
		return ""
	}
	if stderrors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	var netErr net.Error
	if stderrors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}
	return KindNetwork
}

// IsFatal checks if an error must abort the whole run.
// Catalog, transport and sampling failures are fatal; per-record failures are not.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	var catalogErr *CatalogError
	var transportErr *TransportError
	var insufficient *InsufficientDataError
	return stderrors.As(err, &catalogErr) ||
		stderrors.As(err, &transportErr) ||
		stderrors.As(err, &insufficient)
}

// IsItemScoped checks if an error only affects a single record
func IsItemScoped(err error) bool {
	if err == nil {
		return false
	}
	var fetchErr *ImageFetchError
	var decodeErr *DecodeError
	var ioErr *IOError
	return stderrors.As(err, &fetchErr) ||
		stderrors.As(err, &decodeErr) ||
		stderrors.As(err, &ioErr)
}

// FailureKind returns a short label for reporting per-item failures
func FailureKind(err error) string {
	var fetchErr *ImageFetchError
	var decodeErr *DecodeError
	var ioErr *IOError
	switch {
	case stderrors.As(err, &fetchErr):
		return "fetch_" + string(fetchErr.Kind)
	case stderrors.As(err, &decodeErr):
		return "decode"
	case stderrors.As(err, &ioErr):
		return "io"
	case err == nil:
		return ""
	default:
		return "unknown"
	}
}
