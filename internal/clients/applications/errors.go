package applications

import (
	"fmt"
	"github.com/pkg/errors"
	"net/http"
)

var (
	ErrTimeout     = errors.New("applications api request timed out")
	ErrUnreachable = errors.New("applications api is unreachable")
)

// StatusError is returned for any non-2xx answer that is not a legitimate not-found.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("request failed with status %v, body: %v", e.StatusCode, e.Body)
}

// IsUnreachable reports whether err means the server could not serve the request at all:
// transport failures, timeouts and 5xx answers.
func IsUnreachable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTimeout) || errors.Is(err, ErrUnreachable) {
		return true
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode >= http.StatusInternalServerError
	}
	return false
}

func IsStatus(err error, code int) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr) && statusErr.StatusCode == code
}
