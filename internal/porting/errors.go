package porting

import (
	"errors"
	"fmt"
)

// Store errors.
var (
	// ErrRequestNotFound is returned when a porting request does not exist.
	ErrRequestNotFound = errors.New("porting request not found")

	// ErrDocumentNotFound is returned when a porting document does not exist.
	ErrDocumentNotFound = errors.New("porting document not found")
)

// FieldError describes a validation problem on a specific input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError carries the full list of problems found in a porting
// submission. Nothing is persisted when it is returned.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("porting request validation failed: %d error(s)", len(e.Errors))
}

// ConflictError means an active porting attempt already exists for the number.
type ConflictError struct {
	PhoneNumber string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("an active porting request already exists for %s", e.PhoneNumber)
}

// IllegalTransitionError means a status change was rejected, either because
// the supplied status is not a recognized value or because the current status
// does not permit the transition.
type IllegalTransitionError struct {
	Current Status
	Target  Status
	Reason  string
}

func (e *IllegalTransitionError) Error() string {
	if e.Reason != "" {
		return e.Reason
	}
	return fmt.Sprintf("cannot transition from %s to %s", e.Current, e.Target)
}
