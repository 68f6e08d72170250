package platform

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/stockpilot/backend/internal/domain/integration"
)

// classifyStatus maps an HTTP status code to a platform error sentinel so the
// reconciler's retry policy can tell transient failures from permanent ones.
func classifyStatus(platform string, status int) error {
	switch {
	case status < 400:
		return nil
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return fmt.Errorf("%s: HTTP %d: %w", platform, status, integration.ErrPlatformAuthFailed)
	case status == http.StatusNotFound:
		return fmt.Errorf("%s: HTTP %d: %w", platform, status, integration.ErrPlatformProductNotFound)
	case status == http.StatusTooManyRequests:
		return fmt.Errorf("%s: HTTP %d: %w", platform, status, integration.ErrPlatformRateLimited)
	case status >= 500:
		return fmt.Errorf("%s: HTTP %d: %w", platform, status, integration.ErrPlatformUnavailable)
	default:
		return fmt.Errorf("%s: HTTP %d: %w", platform, status, integration.ErrPlatformInvalidResponse)
	}
}

// classifyTransportError maps a client-side transport failure to a sentinel
func classifyTransportError(platform string, err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%s: %v: %w", platform, err, integration.ErrPlatformTimeout)
	}
	return fmt.Errorf("%s: %v: %w", platform, err, integration.ErrPlatformUnavailable)
}
