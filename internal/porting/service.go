package porting

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ActivationBridge is the number registry and configuration store, consumed
// only for the duplicate-ownership check at validation time and the
// activation side effect on completion.
type ActivationBridge interface {
	// NumberExists reports whether the platform already owns the number.
	NumberExists(ctx context.Context, phoneNumber string) (bool, error)

	// ActivatePorted creates the platform-owned number record, marks it
	// active, and creates its default routing configuration.
	ActivatePorted(ctx context.Context, userID, phoneNumber string) error
}

// CarrierGateway initiates the port with the external carrier network. The
// engine treats the call as best-effort: a failure is logged but does not
// block the approval cascade.
type CarrierGateway interface {
	InitiatePort(ctx context.Context, req *Request) error
}

// ServiceConfig holds configuration for the porting engine.
type ServiceConfig struct {
	Repository Repository
	Bridge     ActivationBridge

	// Gateway may be nil when no carrier integration is configured.
	Gateway CarrierGateway

	// Policies defaults to the built-in static table.
	Policies PolicyProvider

	// Estimator defaults to one built over Policies.
	Estimator *Estimator

	Logger zerolog.Logger
}

// Service is the porting engine: a stateless orchestrator over the porting
// store. All durable state lives in the repository; correctness under
// concurrent operator actions relies on the repository's atomic
// transition+history guarantee, not on in-process locks.
type Service struct {
	repo      Repository
	bridge    ActivationBridge
	gateway   CarrierGateway
	policies  PolicyProvider
	estimator *Estimator
	logger    zerolog.Logger
}

// NewService creates a new porting engine.
func NewService(cfg ServiceConfig) *Service {
	policies := cfg.Policies
	if policies == nil {
		policies = NewStaticPolicyProvider()
	}
	estimator := cfg.Estimator
	if estimator == nil {
		estimator = NewEstimator(EstimatorConfig{Policies: policies})
	}

	return &Service{
		repo:      cfg.Repository,
		bridge:    cfg.Bridge,
		gateway:   cfg.Gateway,
		policies:  policies,
		estimator: estimator,
		logger:    cfg.Logger,
	}
}

// Initiate validates and persists a new porting request.
//
// The active-duplicate guard is a read-then-write check against the most
// recent request for the number; two submissions racing through it can both
// land. Closing that race needs a store-level uniqueness constraint, which
// the current schema deliberately omits.
func (s *Service) Initiate(ctx context.Context, input *CreateInput) (*Request, error) {
	result, err := s.Validate(ctx, input)
	if err != nil {
		return nil, err
	}
	if !result.Valid {
		return nil, &ValidationError{Errors: result.Errors}
	}

	latest, err := s.repo.LatestByNumber(ctx, input.PhoneNumber)
	if err != nil && !errors.Is(err, ErrRequestNotFound) {
		return nil, err
	}
	if latest != nil && latest.Status.Active() {
		return nil, &ConflictError{PhoneNumber: input.PhoneNumber}
	}

	now := time.Now()
	estimate := s.estimator.EstimateCompletion(input.CurrentCarrier, input.PhoneNumber, now)

	address := input.BillingAddress
	if address.Country == "" {
		address.Country = "US"
	}

	req := &Request{
		ID:                  "prt_" + uuid.New().String()[:22],
		UserID:              input.UserID,
		PhoneNumber:         input.PhoneNumber,
		CurrentCarrier:      input.CurrentCarrier,
		AccountNumber:       input.AccountNumber,
		PIN:                 input.PIN,
		AuthorizedName:      input.AuthorizedName,
		BillingAddress:      address,
		Status:              StatusSubmitted,
		Notes:               input.Notes,
		EstimatedCompletion: estimate.CompletesAt,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	initial := newStatusUpdate(req.ID, StatusSubmitted,
		"Porting request submitted for review", SystemActor, now)

	if err := s.repo.Create(ctx, req, &initial); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("request_id", req.ID).
		Str("user_id", req.UserID).
		Str("carrier", req.CurrentCarrier).
		Int("estimated_days", estimate.Days).
		Msg("porting request created")

	return req, nil
}

// RequestDetail is a request with its documents and recent history attached.
type RequestDetail struct {
	*Request
	Documents []*Document
	History   []*StatusUpdate
}

// recentHistoryLimit is how many history entries list and detail views embed.
const recentHistoryLimit = 5

// Get retrieves a request with all documents and its recent history.
func (s *Service) Get(ctx context.Context, id string) (*RequestDetail, error) {
	req, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.toDetail(ctx, req)
}

// RequestPage is one page of request details plus the unpaged total.
type RequestPage struct {
	Requests []*RequestDetail
	Total    int
}

// ListForUser returns a page of the user's requests, newest first.
func (s *Service) ListForUser(ctx context.Context, userID string, limit, offset int) (*RequestPage, error) {
	requests, total, err := s.repo.ListByUser(ctx, userID, normalizeLimit(limit), offset)
	if err != nil {
		return nil, err
	}
	return s.toPage(ctx, requests, total)
}

// ListByStatus returns a page of requests in the given status.
func (s *Service) ListByStatus(ctx context.Context, status Status, limit, offset int) (*RequestPage, error) {
	if !ValidStatus(status) {
		return nil, &IllegalTransitionError{Target: status,
			Reason: fmt.Sprintf("unrecognized status %q", status)}
	}
	requests, total, err := s.repo.ListByStatus(ctx, status, normalizeLimit(limit), offset)
	if err != nil {
		return nil, err
	}
	return s.toPage(ctx, requests, total)
}

// Search runs an administrative search over requests.
func (s *Service) Search(ctx context.Context, query string, filters SearchFilters, limit, offset int) (*RequestPage, error) {
	if filters.Status != "" && !ValidStatus(filters.Status) {
		return nil, &IllegalTransitionError{Target: filters.Status,
			Reason: fmt.Sprintf("unrecognized status %q", filters.Status)}
	}
	requests, total, err := s.repo.Search(ctx, query, filters, normalizeLimit(limit), offset)
	if err != nil {
		return nil, err
	}
	return s.toPage(ctx, requests, total)
}

// RequiringAttention returns requests that are failed, or processing past
// their estimated completion.
func (s *Service) RequiringAttention(ctx context.Context) ([]*Request, error) {
	return s.repo.ListRequiringAttention(ctx, time.Now())
}

// UpdateStatus applies a status transition with its side effects. The status
// write and every history entry it produces land in one atomic repository
// operation.
func (s *Service) UpdateStatus(ctx context.Context, id string, target Status, message, updatedBy string) (*Request, error) {
	if !ValidStatus(target) {
		return nil, &IllegalTransitionError{Target: target,
			Reason: fmt.Sprintf("unrecognized status %q", target)}
	}

	req, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	switch target {
	case StatusSubmitted:
		return nil, &IllegalTransitionError{Current: req.Status, Target: target,
			Reason: "submitted is assigned at creation and cannot be set by a status update"}
	case StatusCancelled:
		return s.Cancel(ctx, id, message, updatedBy)
	case StatusApproved:
		return s.approve(ctx, req, message, updatedBy)
	case StatusCompleted:
		return s.complete(ctx, req, message, updatedBy)
	default: // processing, failed
		now := time.Now()
		entry := newStatusUpdate(id, target, message, updatedBy, now)
		updated, err := s.repo.Transition(ctx, id, target, nil, []StatusUpdate{entry})
		if err != nil {
			return nil, err
		}
		s.logTransition(updated, updatedBy)
		return updated, nil
	}
}

// approve handles the momentary approved state: the carrier port is
// initiated, then the request moves straight on to processing. Both history
// entries (the operator's approval and the system cascade) land in a single
// atomic transition, so concurrent readers never observe approved.
func (s *Service) approve(ctx context.Context, req *Request, message, updatedBy string) (*Request, error) {
	if s.gateway != nil {
		// Best-effort: the carrier network does not acknowledge port
		// initiation synchronously, so a failure here is logged and the
		// cascade proceeds.
		if err := s.gateway.InitiatePort(ctx, req); err != nil {
			s.logger.Error().Err(err).
				Str("request_id", req.ID).
				Str("carrier", req.CurrentCarrier).
				Msg("carrier port initiation failed")
		}
	}

	now := time.Now()
	entries := []StatusUpdate{
		newStatusUpdate(req.ID, StatusApproved, message, updatedBy, now),
		newStatusUpdate(req.ID, StatusProcessing,
			"Port initiated with carrier, processing started", SystemActor, now),
	}
	updated, err := s.repo.Transition(ctx, req.ID, StatusProcessing, nil, entries)
	if err != nil {
		return nil, err
	}
	s.logTransition(updated, updatedBy)
	return updated, nil
}

// complete runs the activation saga. The number record, its activation, and
// its default routing configuration live in a different store, so there is no
// cross-store transaction; the compensating transition to failed is the sole
// recovery mechanism when activation breaks partway.
func (s *Service) complete(ctx context.Context, req *Request, message, updatedBy string) (*Request, error) {
	if err := s.bridge.ActivatePorted(ctx, req.UserID, req.PhoneNumber); err != nil {
		now := time.Now()
		entry := newStatusUpdate(req.ID, StatusFailed,
			fmt.Sprintf("Number activation failed: %v", err), SystemActor, now)
		if _, terr := s.repo.Transition(ctx, req.ID, StatusFailed, nil, []StatusUpdate{entry}); terr != nil {
			s.logger.Error().Err(terr).
				Str("request_id", req.ID).
				Msg("compensating transition to failed did not apply")
		}
		s.logger.Error().Err(err).
			Str("request_id", req.ID).
			Str("phone_number", req.PhoneNumber).
			Msg("ported number activation failed, request marked failed")
		return nil, fmt.Errorf("activating ported number: %w", err)
	}

	now := time.Now()
	entry := newStatusUpdate(req.ID, StatusCompleted, message, updatedBy, now)
	updated, err := s.repo.Transition(ctx, req.ID, StatusCompleted, &now, []StatusUpdate{entry})
	if err != nil {
		return nil, err
	}
	s.logTransition(updated, updatedBy)
	return updated, nil
}

// Cancel cancels a request. Only submitted or processing requests may be
// cancelled; a port that has reached the carrier (approved) or resolved
// cannot be called back from here.
func (s *Service) Cancel(ctx context.Context, id, reason, cancelledBy string) (*Request, error) {
	req, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Status != StatusSubmitted && req.Status != StatusProcessing {
		return nil, &IllegalTransitionError{Current: req.Status, Target: StatusCancelled,
			Reason: fmt.Sprintf("cannot cancel a porting request with status %s", req.Status)}
	}

	now := time.Now()
	entry := newStatusUpdate(id, StatusCancelled, reason, cancelledBy, now)
	updated, err := s.repo.Transition(ctx, id, StatusCancelled, nil, []StatusUpdate{entry})
	if err != nil {
		return nil, err
	}
	s.logTransition(updated, cancelledBy)
	return updated, nil
}

// UpdateNotes replaces the operator notes on a request.
func (s *Service) UpdateNotes(ctx context.Context, id string, notes *string) (*Request, error) {
	return s.repo.UpdateNotes(ctx, id, notes)
}

// Progress is the five-step display view of a request's position.
type Progress struct {
	CurrentStep         int
	CompletedSteps      []string
	RemainingSteps      []string
	EstimatedCompletion time.Time
	LastUpdate          time.Time
}

// progressSteps is the fixed display sequence. It is a presentation aid, not
// the state machine; never derive transition legality from it.
var progressSteps = []string{
	"Request Submitted",
	"Documentation Review",
	"Carrier Approval",
	"Processing",
	"Completed",
}

// GetProgress maps the current status onto the display sequence. Failed
// requests are shown parked at the review step; cancelled requests at the
// start.
func (s *Service) GetProgress(ctx context.Context, id string) (*Progress, error) {
	req, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	var index int
	switch req.Status {
	case StatusSubmitted, StatusCancelled:
		index = 0
	case StatusProcessing, StatusFailed:
		index = 1
	case StatusApproved:
		index = 2
	case StatusCompleted:
		index = 4
	}

	return &Progress{
		CurrentStep:         index,
		CompletedSteps:      progressSteps[:index+1],
		RemainingSteps:      progressSteps[index+1:],
		EstimatedCompletion: req.EstimatedCompletion,
		LastUpdate:          req.UpdatedAt,
	}, nil
}

// AddDocument attaches a document to an existing request. There is no status
// restriction: documents may be added at any point, including after
// completion, for record-keeping.
func (s *Service) AddDocument(ctx context.Context, requestID string, docType DocumentType, filename, url string) (*Document, error) {
	if !ValidDocumentType(docType) {
		return nil, fmt.Errorf("invalid document type %q", docType)
	}
	if _, err := s.repo.Get(ctx, requestID); err != nil {
		return nil, err
	}

	doc := &Document{
		ID:         "doc_" + uuid.New().String()[:22],
		RequestID:  requestID,
		Type:       docType,
		Filename:   filename,
		URL:        url,
		UploadedAt: time.Now(),
	}
	if err := s.repo.AddDocument(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// ListDocuments returns all documents for a request.
func (s *Service) ListDocuments(ctx context.Context, requestID string) ([]*Document, error) {
	if _, err := s.repo.Get(ctx, requestID); err != nil {
		return nil, err
	}
	return s.repo.ListDocuments(ctx, requestID)
}

// DeleteDocument removes a document by its ID alone.
func (s *Service) DeleteDocument(ctx context.Context, documentID string) error {
	return s.repo.DeleteDocument(ctx, documentID)
}

// History returns all status entries for a request, newest first.
func (s *Service) History(ctx context.Context, requestID string) ([]*StatusUpdate, error) {
	if _, err := s.repo.Get(ctx, requestID); err != nil {
		return nil, err
	}
	return s.repo.History(ctx, requestID, 0)
}

// EstimateCompletion exposes the carrier estimate for a prospective port.
func (s *Service) EstimateCompletion(carrier, phoneNumber string) Estimate {
	return s.estimator.EstimateCompletion(carrier, phoneNumber, time.Now())
}

func (s *Service) toDetail(ctx context.Context, req *Request) (*RequestDetail, error) {
	docs, err := s.repo.ListDocuments(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	history, err := s.repo.History(ctx, req.ID, recentHistoryLimit)
	if err != nil {
		return nil, err
	}
	return &RequestDetail{Request: req, Documents: docs, History: history}, nil
}

func (s *Service) toPage(ctx context.Context, requests []*Request, total int) (*RequestPage, error) {
	details := make([]*RequestDetail, 0, len(requests))
	for _, req := range requests {
		detail, err := s.toDetail(ctx, req)
		if err != nil {
			return nil, err
		}
		details = append(details, detail)
	}
	return &RequestPage{Requests: details, Total: total}, nil
}

func (s *Service) logTransition(req *Request, actor string) {
	s.logger.Info().
		Str("request_id", req.ID).
		Str("status", string(req.Status)).
		Str("updated_by", actor).
		Msg("porting request status changed")
}

// newStatusUpdate builds one history entry.
func newStatusUpdate(requestID string, status Status, message, updatedBy string, at time.Time) StatusUpdate {
	return StatusUpdate{
		ID:        "psu_" + uuid.New().String()[:22],
		RequestID: requestID,
		Status:    status,
		Message:   message,
		UpdatedBy: updatedBy,
		CreatedAt: at,
	}
}

// normalizeLimit clamps page sizes to a sane default and maximum.
func normalizeLimit(limit int) int {
	const (
		defaultLimit = 20
		maxLimit     = 100
	)
	if limit <= 0 {
		return defaultLimit
	}
	if limit > maxLimit {
		return maxLimit
	}
	return limit
}
