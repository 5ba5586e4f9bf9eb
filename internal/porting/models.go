// Package porting implements the number porting workflow: migrating a phone
// number from an external carrier onto the platform.
//
// A port is a long-running, multi-party process. The carrier-side approval is
// an irreversible real-world action that takes days, so the package models a
// request as a small state machine persisted in the porting store, with an
// append-only status history written atomically alongside every transition.
//
// # Sensitive data
//
// PortingRequest carries the carrier account PIN supplied by the subscriber.
// It is stored so operators can complete the port with the losing carrier,
// but it must never be logged or included in API list/detail responses.
package porting

import "time"

// Status is the lifecycle state of a porting request.
type Status string

// Porting request statuses.
const (
	// StatusSubmitted is the initial status, set only at creation.
	StatusSubmitted Status = "submitted"

	// StatusProcessing means the port is in flight with the losing carrier.
	StatusProcessing Status = "processing"

	// StatusApproved is momentary: the engine immediately cascades an
	// approval onward to processing within the same transition.
	StatusApproved Status = "approved"

	// StatusCompleted is terminal success; the number is platform-owned.
	StatusCompleted Status = "completed"

	// StatusFailed is reached by operator action or by the completion
	// compensation path when number activation fails.
	StatusFailed Status = "failed"

	// StatusCancelled is terminal; only submitted or processing requests
	// may be cancelled.
	StatusCancelled Status = "cancelled"
)

// ValidStatus reports whether s is a recognized status value.
func ValidStatus(s Status) bool {
	switch s {
	case StatusSubmitted, StatusProcessing, StatusApproved,
		StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// Active reports whether s counts as an unresolved port attempt. At most one
// active request may exist per phone number.
func (s Status) Active() bool {
	return s == StatusSubmitted || s == StatusProcessing || s == StatusApproved
}

// Terminal reports whether no further automatic progression is expected.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// DocumentType classifies evidence attached to a porting request.
type DocumentType string

// Porting document types.
const (
	DocumentBill           DocumentType = "bill"
	DocumentAuthorization  DocumentType = "authorization"
	DocumentIdentification DocumentType = "identification"
	DocumentOther          DocumentType = "other"
)

// ValidDocumentType reports whether t is one of the accepted document types.
func ValidDocumentType(t DocumentType) bool {
	switch t {
	case DocumentBill, DocumentAuthorization, DocumentIdentification, DocumentOther:
		return true
	}
	return false
}

// BillingAddress is the subscriber's address on file with the losing carrier.
// All four US-style fields are required together; Country defaults to "US".
type BillingAddress struct {
	Street  string
	City    string
	State   string
	ZipCode string
	Country string
}

// Request is a single external-number-to-platform migration attempt.
type Request struct {
	// ID is the unique request identifier (format: prt_XXXX).
	ID string

	// UserID is the owning tenant/user, immutable after creation.
	UserID string

	// PhoneNumber is the external number being ported, in E.164 format.
	PhoneNumber string

	// CurrentCarrier is the losing carrier's name as supplied by the user.
	CurrentCarrier string

	// AccountNumber is the subscriber's account with the losing carrier.
	AccountNumber string

	// PIN is the carrier account PIN or password. Stored, never logged.
	PIN string

	// AuthorizedName is the account holder authorized to request the port.
	AuthorizedName string

	// BillingAddress is the address on file with the losing carrier.
	BillingAddress BillingAddress

	// Status is the current state-machine state.
	Status Status

	// Notes holds optional free-text operator notes.
	Notes *string

	// EstimatedCompletion is computed from carrier policy at creation.
	EstimatedCompletion time.Time

	// ActualCompletion is set only on reaching completed.
	ActualCompletion *time.Time

	// CreatedAt is when the request was created.
	CreatedAt time.Time

	// UpdatedAt is when the request was last modified.
	UpdatedAt time.Time
}

// Document is evidence attached to a request. Documents are created and
// deleted, never mutated.
type Document struct {
	// ID is the unique document identifier (format: doc_XXXX).
	ID string

	// RequestID is the owning porting request.
	RequestID string

	// Type is one of the closed document type values.
	Type DocumentType

	// Filename is the original upload filename.
	Filename string

	// URL is the storage locator for the uploaded file.
	URL string

	// UploadedAt is when the document was attached.
	UploadedAt time.Time
}

// SystemActor is the actor recorded on history entries written by the engine
// itself rather than an operator.
const SystemActor = "system"

// StatusUpdate is one immutable audit entry in a request's history. Every
// status change produces exactly one entry in the same atomic operation as
// the status write.
type StatusUpdate struct {
	// ID is the unique entry identifier (format: psu_XXXX).
	ID string

	// RequestID is the owning porting request.
	RequestID string

	// Status is the status transitioned to.
	Status Status

	// Message is a human-readable explanation of the transition.
	Message string

	// UpdatedBy is the actor who caused the transition; SystemActor for
	// automated actions.
	UpdatedBy string

	// CreatedAt is when the transition happened.
	CreatedAt time.Time
}
