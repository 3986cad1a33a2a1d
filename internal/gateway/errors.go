package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/go-github/v62/github"
	"github.com/naka-gawa/pr-size-audit/internal/domain"
)

// StatusError carries the upstream HTTP status of a failed GitHub call together
// with the audit failure it maps to. errors.Is matches the domain sentinel and
// errors.As still reaches the underlying go-github error.
type StatusError struct {
	StatusCode int
	Kind       error
	Cause      error
}

func (e *StatusError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%v: %v", e.Kind, e.Cause)
	}
	return fmt.Sprintf("%v (HTTP %d)", e.Kind, e.StatusCode)
}

func (e *StatusError) Unwrap() []error {
	return []error{e.Kind, e.Cause}
}

// responseStatusError is produced by statusTransport for non-2xx responses on
// clients that do not inspect the status themselves (the GraphQL client).
type responseStatusError struct {
	StatusCode int
	Status     string
}

func (e *responseStatusError) Error() string {
	return "unexpected response status: " + e.Status
}

// statusTransport turns non-2xx responses into *responseStatusError so the
// status survives the GraphQL client's plain-text error wrapping.
type statusTransport struct {
	base http.RoundTripper
}

func (t *statusTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, &responseStatusError{StatusCode: resp.StatusCode, Status: resp.Status}
	}
	return resp, nil
}

// classify maps a GitHub client error onto the audit error taxonomy:
// 403 and 429 are rate limiting, 422 is a rejected username, everything else is
// a generic fetch failure. GraphQL reports rate limiting inside a 200 response,
// so its error message is inspected as well.
func classify(err error) error {
	if err == nil {
		return nil
	}
	status := statusCode(err)
	kind := domain.ErrFetchFailed
	switch {
	case status == http.StatusForbidden, status == http.StatusTooManyRequests:
		kind = domain.ErrRateLimited
	case status == http.StatusUnprocessableEntity:
		kind = domain.ErrInvalidUsername
	case status == 0 && isRateLimitMessage(err):
		kind = domain.ErrRateLimited
	}
	return &StatusError{StatusCode: status, Kind: kind, Cause: err}
}

// isRateLimitMessage matches GitHub's "API rate limit exceeded" GraphQL error.
// The GraphQL client drops the error type, only the message survives.
func isRateLimitMessage(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return false
	}
	return strings.Contains(strings.ToLower(err.Error()), "rate limit")
}

func statusCode(err error) int {
	var rateLimitErr *github.RateLimitError
	var abuseErr *github.AbuseRateLimitError
	var responseErr *github.ErrorResponse
	var transportErr *responseStatusError
	switch {
	case errors.As(err, &rateLimitErr), errors.As(err, &abuseErr):
		return http.StatusForbidden
	case errors.As(err, &responseErr) && responseErr.Response != nil:
		return responseErr.Response.StatusCode
	case errors.As(err, &transportErr):
		return transportErr.StatusCode
	}
	return 0
}
