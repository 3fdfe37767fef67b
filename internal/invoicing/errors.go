package invoicing

import (
	"context"
	"errors"
	"fmt"
	"net"
)

var (
	// ErrCanceled marks a request aborted by its caller, usually because a newer
	// request superseded it. It is never a failure to report.
	ErrCanceled = errors.New("canceled")

	ErrOffline      = errors.New("network offline")
	ErrTransport    = errors.New("request failed")
	ErrTokenExpired = errors.New("token expired")
	ErrTokenRefresh = errors.New("token refresh failed")
	ErrNoAuthURL    = errors.New("no authentication url in response")
)

// IsCanceled reports whether err comes from a canceled request.
func IsCanceled(err error) bool {
	return errors.Is(err, ErrCanceled) || errors.Is(err, context.Canceled)
}

func classify(err error) error {
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %w", ErrCanceled, err)
	}

	if isOffline(err) {
		return fmt.Errorf("%w: %w", ErrOffline, err)
	}

	return fmt.Errorf("%w: %w", ErrTransport, err)
}

func isOffline(err error) bool {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}

	var opErr *net.OpError

	return errors.As(err, &opErr) && opErr.Op == "dial"
}
