package porting

import (
	"context"
	"time"
)

// SearchFilters narrows administrative searches. Zero values mean "any".
type SearchFilters struct {
	UserID  string
	Status  Status
	Carrier string
}

// Repository defines persistence for porting requests, their documents, and
// their append-only status history.
//
// Transition is the load-bearing method: the status write and its history
// entries must be applied as one atomic unit. A crash must never leave a
// status change without its audit entries, or audit entries for a change that
// never landed.
type Repository interface {
	// Create persists a new request together with its initial status
	// history entry, atomically.
	Create(ctx context.Context, req *Request, initial *StatusUpdate) error

	// Get retrieves a request by ID.
	Get(ctx context.Context, id string) (*Request, error)

	// LatestByNumber returns the most recently created request for the
	// given E.164 number, or ErrRequestNotFound when none exists.
	LatestByNumber(ctx context.Context, phoneNumber string) (*Request, error)

	// ListByUser returns a page of the user's requests, newest first,
	// plus the total count.
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]*Request, int, error)

	// ListByStatus returns a page of requests in the given status, newest
	// first, plus the total count.
	ListByStatus(ctx context.Context, status Status, limit, offset int) ([]*Request, int, error)

	// Search matches query against phone number and authorized name,
	// applies filters, and returns a page plus the total count.
	Search(ctx context.Context, query string, filters SearchFilters, limit, offset int) ([]*Request, int, error)

	// ListRequiringAttention returns requests that are failed, or
	// processing past their estimated completion as of now.
	ListRequiringAttention(ctx context.Context, now time.Time) ([]*Request, error)

	// UpdateNotes replaces the operator notes on a request.
	UpdateNotes(ctx context.Context, id string, notes *string) (*Request, error)

	// Transition atomically sets the request status (and, when non-nil,
	// actualCompletion) and appends the given history entries. Entries are
	// appended in order; the request's final stored status is target.
	Transition(ctx context.Context, id string, target Status, actualCompletion *time.Time, entries []StatusUpdate) (*Request, error)

	// AddDocument attaches a document to an existing request.
	AddDocument(ctx context.Context, doc *Document) error

	// ListDocuments returns all documents for a request, newest first.
	ListDocuments(ctx context.Context, requestID string) ([]*Document, error)

	// DeleteDocument removes a document by its ID alone.
	DeleteDocument(ctx context.Context, documentID string) error

	// History returns status entries for a request, newest first. A
	// non-positive limit returns all entries.
	History(ctx context.Context, requestID string, limit int) ([]*StatusUpdate, error)
}
