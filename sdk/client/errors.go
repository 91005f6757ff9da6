package client

import "fmt"

// TransportError covers network failures and HTTP responses that carry no
// structured detail. Status is zero when the request never completed.
type TransportError struct {
	Status  int
	Message string
	Err     error
}

func (e *TransportError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("policy store: %s (status %d)", e.Message, e.Status)
	}
	return fmt.Sprintf("policy store: %s", e.Message)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ValidationError reports that the server rejected the submitted payload.
// Message is the server-supplied reason, suitable for direct display.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }
