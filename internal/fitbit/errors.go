package fitbit

import "fmt"

// UpstreamError is any non-success response from the Fitbit API. The status
// and raw body are preserved verbatim so callers can diagnose upstream
// rejections without this package guessing at their meaning.
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("fitbit returned %d: %s", e.Status, e.Body)
}
