package porting

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// InMemoryRepository is an in-memory implementation of Repository, used in
// tests and local development. All mutating methods hold the write lock for
// their whole body, which gives the same transition+history atomicity the
// Postgres implementation gets from a transaction.
type InMemoryRepository struct {
	mu        sync.RWMutex
	requests  map[string]*Request
	documents map[string]*Document
	history   map[string][]*StatusUpdate // keyed by request ID, append order
}

// NewInMemoryRepository creates an empty in-memory porting repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		requests:  make(map[string]*Request),
		documents: make(map[string]*Document),
		history:   make(map[string][]*StatusUpdate),
	}
}

// Create persists a new request with its initial history entry.
func (r *InMemoryRepository) Create(_ context.Context, req *Request, initial *StatusUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.requests[req.ID] = copyRequest(req)
	entry := *initial
	r.history[req.ID] = append(r.history[req.ID], &entry)
	return nil
}

// Get retrieves a request by ID.
func (r *InMemoryRepository) Get(_ context.Context, id string) (*Request, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	req, ok := r.requests[id]
	if !ok {
		return nil, ErrRequestNotFound
	}
	return copyRequest(req), nil
}

// LatestByNumber returns the most recently created request for the number.
func (r *InMemoryRepository) LatestByNumber(_ context.Context, phoneNumber string) (*Request, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var latest *Request
	for _, req := range r.requests {
		if req.PhoneNumber != phoneNumber {
			continue
		}
		if latest == nil || req.CreatedAt.After(latest.CreatedAt) {
			latest = req
		}
	}
	if latest == nil {
		return nil, ErrRequestNotFound
	}
	return copyRequest(latest), nil
}

// ListByUser returns a page of the user's requests, newest first.
func (r *InMemoryRepository) ListByUser(_ context.Context, userID string, limit, offset int) ([]*Request, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.page(func(req *Request) bool { return req.UserID == userID }, limit, offset)
}

// ListByStatus returns a page of requests in the given status, newest first.
func (r *InMemoryRepository) ListByStatus(_ context.Context, status Status, limit, offset int) ([]*Request, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.page(func(req *Request) bool { return req.Status == status }, limit, offset)
}

// Search matches query against phone number and authorized name.
func (r *InMemoryRepository) Search(_ context.Context, query string, filters SearchFilters, limit, offset int) ([]*Request, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	q := strings.ToLower(query)
	match := func(req *Request) bool {
		if q != "" &&
			!strings.Contains(strings.ToLower(req.PhoneNumber), q) &&
			!strings.Contains(strings.ToLower(req.AuthorizedName), q) {
			return false
		}
		if filters.UserID != "" && req.UserID != filters.UserID {
			return false
		}
		if filters.Status != "" && req.Status != filters.Status {
			return false
		}
		if filters.Carrier != "" && normalizeCarrier(req.CurrentCarrier) != normalizeCarrier(filters.Carrier) {
			return false
		}
		return true
	}
	return r.page(match, limit, offset)
}

// ListRequiringAttention returns failed requests and processing requests past
// their estimated completion.
func (r *InMemoryRepository) ListRequiringAttention(_ context.Context, now time.Time) ([]*Request, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matches, _, err := r.page(func(req *Request) bool {
		if req.Status == StatusFailed {
			return true
		}
		return req.Status == StatusProcessing && req.EstimatedCompletion.Before(now)
	}, 0, 0)
	return matches, err
}

// UpdateNotes replaces the operator notes on a request.
func (r *InMemoryRepository) UpdateNotes(_ context.Context, id string, notes *string) (*Request, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	req, ok := r.requests[id]
	if !ok {
		return nil, ErrRequestNotFound
	}
	if notes != nil {
		n := *notes
		req.Notes = &n
	} else {
		req.Notes = nil
	}
	req.UpdatedAt = time.Now()
	return copyRequest(req), nil
}

// Transition sets the status and appends history entries under one lock.
func (r *InMemoryRepository) Transition(_ context.Context, id string, target Status, actualCompletion *time.Time, entries []StatusUpdate) (*Request, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	req, ok := r.requests[id]
	if !ok {
		return nil, ErrRequestNotFound
	}

	req.Status = target
	if actualCompletion != nil {
		t := *actualCompletion
		req.ActualCompletion = &t
	}
	req.UpdatedAt = time.Now()

	for i := range entries {
		entry := entries[i]
		r.history[id] = append(r.history[id], &entry)
	}

	return copyRequest(req), nil
}

// AddDocument attaches a document to an existing request.
func (r *InMemoryRepository) AddDocument(_ context.Context, doc *Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.requests[doc.RequestID]; !ok {
		return ErrRequestNotFound
	}
	d := *doc
	r.documents[doc.ID] = &d
	return nil
}

// ListDocuments returns all documents for a request, newest first.
func (r *InMemoryRepository) ListDocuments(_ context.Context, requestID string) ([]*Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var docs []*Document
	for _, doc := range r.documents {
		if doc.RequestID == requestID {
			d := *doc
			docs = append(docs, &d)
		}
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].UploadedAt.After(docs[j].UploadedAt) })
	return docs, nil
}

// DeleteDocument removes a document by ID.
func (r *InMemoryRepository) DeleteDocument(_ context.Context, documentID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.documents[documentID]; !ok {
		return ErrDocumentNotFound
	}
	delete(r.documents, documentID)
	return nil
}

// History returns status entries for a request, newest first.
func (r *InMemoryRepository) History(_ context.Context, requestID string, limit int) ([]*StatusUpdate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored := r.history[requestID]
	entries := make([]*StatusUpdate, 0, len(stored))
	for _, e := range stored {
		entry := *e
		entries = append(entries, &entry)
	}
	// Append order is chronological; reverse for newest first. Stable sort
	// on timestamp alone would reorder the approved->processing cascade
	// pair, which shares a timestamp.
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// page filters, sorts newest first, and slices. Callers hold the lock.
func (r *InMemoryRepository) page(match func(*Request) bool, limit, offset int) ([]*Request, int, error) {
	var all []*Request
	for _, req := range r.requests {
		if match(req) {
			all = append(all, req)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })

	total := len(all)
	if offset > len(all) {
		offset = len(all)
	}
	all = all[offset:]
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}

	out := make([]*Request, 0, len(all))
	for _, req := range all {
		out = append(out, copyRequest(req))
	}
	return out, total, nil
}

// copyRequest creates a deep copy of a request.
func copyRequest(req *Request) *Request {
	if req == nil {
		return nil
	}
	c := *req
	if req.Notes != nil {
		n := *req.Notes
		c.Notes = &n
	}
	if req.ActualCompletion != nil {
		t := *req.ActualCompletion
		c.ActualCompletion = &t
	}
	return &c
}

// Ensure InMemoryRepository implements Repository.
var _ Repository = (*InMemoryRepository)(nil)
