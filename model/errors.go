package model

import "fmt"

// BackendError reports a failed model call. The turn is abandoned but the
// session can continue.
type BackendError struct {
	Provider string
	Err      error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("model backend %s failed: %v", e.Provider, e.Err)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// TransportError reports a broken channel to the tool server. It ends the
// session.
type TransportError struct {
	Tool string
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport failed calling %s: %v", e.Tool, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
