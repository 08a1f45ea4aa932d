package models

import "errors"

var (
	// ErrRejected marks a well-formed backend response carrying success=false.
	ErrRejected     = errors.New("rejected by backend")
	ErrLineNotFound = errors.New("cart line not found")
	ErrInvalidSize  = errors.New("size not offered for product")
)

// Envelope is the header every backend response carries.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// RejectedError carries the message of a success=false response. It
// matches ErrRejected under errors.Is.
type RejectedError struct {
	Message string
}

func (e *RejectedError) Error() string {
	if e.Message == "" {
		return ErrRejected.Error()
	}
	return ErrRejected.Error() + ": " + e.Message
}

func (e *RejectedError) Unwrap() error { return ErrRejected }

// Err returns nil for a successful envelope and a *RejectedError otherwise.
func (e Envelope) Err() error {
	if e.Success {
		return nil
	}
	return &RejectedError{Message: e.Message}
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}
