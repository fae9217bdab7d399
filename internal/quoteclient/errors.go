package quoteclient

import (
	"fmt"
	"time"
)

// ServiceError is returned when the service answers with an unexpected status.
type ServiceError struct {
	Status int
	Body   string
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("quote service status=%d body=%s", e.Status, e.Body)
}

// LatencySLAViolation is returned when a request takes at least its allowed time.
type LatencySLAViolation struct {
	Elapsed time.Duration
	Limit   time.Duration
}

func (e *LatencySLAViolation) Error() string {
	return fmt.Sprintf("quote latency %s exceeded limit %s", e.Elapsed, e.Limit)
}

// DecodeError is returned when a response body does not match the quote schema.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return "decode quote: " + e.Err.Error()
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
