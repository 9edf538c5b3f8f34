package models

import "errors"

var ErrNotFound = errors.New("requested resource not found")
var ErrInvalidTransition = errors.New("transition not allowed from current phase")
var ErrNoActiveShift = errors.New("no active shift")

// ErrStorageWrite marks a failed persistence write. A failed write is never
// followed by an in-memory update implying success.
var ErrStorageWrite = errors.New("storage write failed")

// ErrStorageRead marks a corrupt or unreadable persisted snapshot. Readers
// treat it as "absent", not fatal.
var ErrStorageRead = errors.New("storage read failed")

// ErrorResponse is the JSON body returned for any failed request.
type ErrorResponse struct {
	Message string `json:"message"`
}
