// Package handler provides HTTP handlers for the NumPort API.
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/numport/numport/internal/api/middleware"
	"github.com/numport/numport/internal/api/models"
	"github.com/numport/numport/internal/api/response"
	"github.com/numport/numport/internal/porting"
)

// PortingHandler handles porting request endpoints.
type PortingHandler struct {
	service *porting.Service
}

// NewPortingHandler creates a new PortingHandler.
func NewPortingHandler(service *porting.Service) *PortingHandler {
	return &PortingHandler{service: service}
}

// CreateRequest handles POST /v1/porting/requests - initiate a port.
func (h *PortingHandler) CreateRequest(w http.ResponseWriter, r *http.Request) {
	var input models.CreatePortingRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	req, err := h.service.Initiate(r.Context(), toCreateInput(middleware.GetUserID(r.Context()), &input))
	if err != nil {
		writePortingError(w, r, err)
		return
	}

	location := fmt.Sprintf("/v1/porting/requests/%s", req.ID)
	response.Created(w, r, location, toPortingRequest(req, nil, nil))
}

// ValidateRequest handles POST /v1/porting/requests:validate - dry-run
// validation without persisting anything.
func (h *PortingHandler) ValidateRequest(w http.ResponseWriter, r *http.Request) {
	var input models.ValidatePortingRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	result, err := h.service.Validate(r.Context(), toCreateInput(middleware.GetUserID(r.Context()), &input))
	if err != nil {
		writePortingError(w, r, err)
		return
	}

	response.JSON(w, r, http.StatusOK, toValidationResult(result))
}

// Estimate handles GET /v1/porting/estimate - completion estimate for a
// prospective port.
func (h *PortingHandler) Estimate(w http.ResponseWriter, r *http.Request) {
	carrier := r.URL.Query().Get("carrier")
	phoneNumber := r.URL.Query().Get("phoneNumber")
	if carrier == "" {
		response.BadRequest(w, r, "carrier query parameter is required", nil)
		return
	}

	estimate := h.service.EstimateCompletion(carrier, phoneNumber)
	response.JSON(w, r, http.StatusOK, models.PortingEstimate{
		Carrier:             carrier,
		PhoneNumber:         phoneNumber,
		EstimatedDays:       estimate.Days,
		EstimatedCompletion: models.Timestamp(estimate.CompletesAt),
		Factors:             estimate.Factors,
	})
}

// ListMine handles GET /v1/me/porting/requests - list the caller's requests.
func (h *PortingHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	limit, offset := pageParams(r)
	page, err := h.service.ListForUser(r.Context(), middleware.GetUserID(r.Context()), limit, offset)
	if err != nil {
		writePortingError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, toRequestList(page, limit, offset))
}

// GetRequest handles GET /v1/porting/requests/{requestId}.
func (h *PortingHandler) GetRequest(w http.ResponseWriter, r *http.Request) {
	detail, ok := h.ownedDetail(w, r)
	if !ok {
		return
	}
	response.JSON(w, r, http.StatusOK, toPortingRequest(detail.Request, detail.Documents, detail.History))
}

// GetProgress handles GET /v1/porting/requests/{requestId}/progress.
func (h *PortingHandler) GetProgress(w http.ResponseWriter, r *http.Request) {
	detail, ok := h.ownedDetail(w, r)
	if !ok {
		return
	}

	progress, err := h.service.GetProgress(r.Context(), detail.ID)
	if err != nil {
		writePortingError(w, r, err)
		return
	}

	response.JSON(w, r, http.StatusOK, models.PortingProgress{
		CurrentStep:         progress.CurrentStep,
		TotalSteps:          len(progress.CompletedSteps) + len(progress.RemainingSteps),
		CompletedSteps:      progress.CompletedSteps,
		RemainingSteps:      progress.RemainingSteps,
		EstimatedCompletion: models.Timestamp(progress.EstimatedCompletion),
		LastUpdate:          models.Timestamp(progress.LastUpdate),
	})
}

// GetHistory handles GET /v1/porting/requests/{requestId}/history - the full
// status history, newest first.
func (h *PortingHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	detail, ok := h.ownedDetail(w, r)
	if !ok {
		return
	}

	history, err := h.service.History(r.Context(), detail.ID)
	if err != nil {
		writePortingError(w, r, err)
		return
	}

	entries := make([]models.PortingStatusUpdate, 0, len(history))
	for _, entry := range history {
		entries = append(entries, toStatusUpdate(entry))
	}
	response.JSON(w, r, http.StatusOK, entries)
}

// CancelRequest handles POST /v1/porting/requests/{requestId}/cancel.
func (h *PortingHandler) CancelRequest(w http.ResponseWriter, r *http.Request) {
	detail, ok := h.ownedDetail(w, r)
	if !ok {
		return
	}

	var input models.CancelPortingRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}
	if input.Reason == "" {
		response.BadRequest(w, r, "reason is required", []models.FieldError{
			{Field: "reason", Message: "is required"},
		})
		return
	}

	updated, err := h.service.Cancel(r.Context(), detail.ID, input.Reason, middleware.GetUserID(r.Context()))
	if err != nil {
		writePortingError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, toPortingRequest(updated, nil, nil))
}

// AddDocument handles POST /v1/porting/requests/{requestId}/documents.
func (h *PortingHandler) AddDocument(w http.ResponseWriter, r *http.Request) {
	detail, ok := h.ownedDetail(w, r)
	if !ok {
		return
	}

	var input models.AddDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	docType := porting.DocumentType(input.Type)
	if !porting.ValidDocumentType(docType) {
		response.BadRequest(w, r, "unrecognized document type", []models.FieldError{
			{Field: "type", Message: "must be one of: bill, authorization, identification, other"},
		})
		return
	}
	if input.Filename == "" || input.URL == "" {
		response.BadRequest(w, r, "filename and url are required", nil)
		return
	}

	doc, err := h.service.AddDocument(r.Context(), detail.ID, docType, input.Filename, input.URL)
	if err != nil {
		writePortingError(w, r, err)
		return
	}

	location := fmt.Sprintf("/v1/porting/requests/%s/documents/%s", detail.ID, doc.ID)
	response.Created(w, r, location, toDocument(doc))
}

// ListDocuments handles GET /v1/porting/requests/{requestId}/documents.
func (h *PortingHandler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	detail, ok := h.ownedDetail(w, r)
	if !ok {
		return
	}

	docs, err := h.service.ListDocuments(r.Context(), detail.ID)
	if err != nil {
		writePortingError(w, r, err)
		return
	}

	out := make([]models.PortingDocument, 0, len(docs))
	for _, doc := range docs {
		out = append(out, toDocument(doc))
	}
	response.JSON(w, r, http.StatusOK, out)
}

// DeleteDocument handles DELETE /v1/porting/requests/{requestId}/documents/{documentId}.
func (h *PortingHandler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.ownedDetail(w, r); !ok {
		return
	}

	documentID := chi.URLParam(r, "documentId")
	if documentID == "" {
		response.BadRequest(w, r, "documentId is required", nil)
		return
	}

	if err := h.service.DeleteDocument(r.Context(), documentID); err != nil {
		writePortingError(w, r, err)
		return
	}
	response.NoContent(w, r)
}

// ownedDetail loads the request from the URL and enforces that the caller
// owns it. Admin principals may access any request. A request owned by
// someone else reads as not found so request IDs stay unguessable.
func (h *PortingHandler) ownedDetail(w http.ResponseWriter, r *http.Request) (*porting.RequestDetail, bool) {
	requestID := chi.URLParam(r, "requestId")
	if requestID == "" {
		response.BadRequest(w, r, "requestId is required", nil)
		return nil, false
	}

	detail, err := h.service.Get(r.Context(), requestID)
	if err != nil {
		writePortingError(w, r, err)
		return nil, false
	}

	principal, _ := middleware.GetPrincipal(r.Context())
	if detail.UserID != principal.UserID && !principal.IsAdmin() {
		response.NotFound(w, r, "porting request not found")
		return nil, false
	}
	return detail, true
}

// writePortingError maps domain errors onto Problem responses.
func writePortingError(w http.ResponseWriter, r *http.Request, err error) {
	var validationErr *porting.ValidationError
	var conflictErr *porting.ConflictError
	var transitionErr *porting.IllegalTransitionError

	switch {
	case errors.As(err, &validationErr):
		response.BadRequest(w, r, "porting request validation failed", toFieldErrors(validationErr.Errors))
	case errors.As(err, &conflictErr):
		response.Conflict(w, r, conflictErr.Error())
	case errors.As(err, &transitionErr):
		response.IllegalTransition(w, r, transitionErr.Error())
	case errors.Is(err, porting.ErrRequestNotFound):
		response.NotFound(w, r, "porting request not found")
	case errors.Is(err, porting.ErrDocumentNotFound):
		response.NotFound(w, r, "porting document not found")
	default:
		response.InternalError(w, r, "an unexpected error occurred")
	}
}

// pageParams extracts limit and offset query parameters.
func pageParams(r *http.Request) (limit, offset int) {
	limit = 20
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 {
		limit = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && v > 0 {
		offset = v
	}
	return limit, offset
}

func toCreateInput(userID string, input *models.CreatePortingRequest) *porting.CreateInput {
	return &porting.CreateInput{
		UserID:         userID,
		PhoneNumber:    input.PhoneNumber,
		CurrentCarrier: input.CurrentCarrier,
		AccountNumber:  input.AccountNumber,
		PIN:            input.PIN,
		AuthorizedName: input.AuthorizedName,
		BillingAddress: porting.BillingAddress{
			Street:  input.BillingAddress.Street,
			City:    input.BillingAddress.City,
			State:   input.BillingAddress.State,
			ZipCode: input.BillingAddress.ZipCode,
			Country: input.BillingAddress.Country,
		},
		Notes: input.Notes,
	}
}

func toPortingRequest(req *porting.Request, docs []*porting.Document, history []*porting.StatusUpdate) models.PortingRequest {
	out := models.PortingRequest{
		ID:             req.ID,
		UserID:         req.UserID,
		PhoneNumber:    req.PhoneNumber,
		CurrentCarrier: req.CurrentCarrier,
		AccountNumber:  req.AccountNumber,
		AuthorizedName: req.AuthorizedName,
		BillingAddress: models.BillingAddress{
			Street:  req.BillingAddress.Street,
			City:    req.BillingAddress.City,
			State:   req.BillingAddress.State,
			ZipCode: req.BillingAddress.ZipCode,
			Country: req.BillingAddress.Country,
		},
		Status:              string(req.Status),
		Notes:               req.Notes,
		EstimatedCompletion: models.Timestamp(req.EstimatedCompletion),
		Documents:           make([]models.PortingDocument, 0, len(docs)),
		RecentHistory:       make([]models.PortingStatusUpdate, 0, len(history)),
		CreatedAt:           models.Timestamp(req.CreatedAt),
		UpdatedAt:           models.Timestamp(req.UpdatedAt),
	}
	if req.ActualCompletion != nil {
		ts := models.Timestamp(*req.ActualCompletion)
		out.ActualCompletion = &ts
	}
	for _, doc := range docs {
		out.Documents = append(out.Documents, toDocument(doc))
	}
	for _, entry := range history {
		out.RecentHistory = append(out.RecentHistory, toStatusUpdate(entry))
	}
	return out
}

func toRequestList(page *porting.RequestPage, limit, offset int) models.PortingRequestList {
	requests := make([]models.PortingRequest, 0, len(page.Requests))
	for _, detail := range page.Requests {
		requests = append(requests, toPortingRequest(detail.Request, detail.Documents, detail.History))
	}
	return models.PortingRequestList{
		Requests: requests,
		Meta:     models.PageMeta{Limit: limit, Offset: offset, Total: page.Total},
	}
}

func toDocument(doc *porting.Document) models.PortingDocument {
	return models.PortingDocument{
		ID:         doc.ID,
		RequestID:  doc.RequestID,
		Type:       string(doc.Type),
		Filename:   doc.Filename,
		URL:        doc.URL,
		UploadedAt: models.Timestamp(doc.UploadedAt),
	}
}

func toStatusUpdate(entry *porting.StatusUpdate) models.PortingStatusUpdate {
	return models.PortingStatusUpdate{
		ID:        entry.ID,
		RequestID: entry.RequestID,
		Status:    string(entry.Status),
		Message:   entry.Message,
		UpdatedBy: entry.UpdatedBy,
		CreatedAt: models.Timestamp(entry.CreatedAt),
	}
}

func toValidationResult(result *porting.ValidationResult) models.PortingValidationResult {
	out := models.PortingValidationResult{
		IsValid:  result.Valid,
		Errors:   toFieldErrors(result.Errors),
		Warnings: result.Warnings,
	}
	if out.Errors == nil {
		out.Errors = []models.FieldError{}
	}
	if out.Warnings == nil {
		out.Warnings = []string{}
	}
	return out
}

func toFieldErrors(errs []porting.FieldError) []models.FieldError {
	out := make([]models.FieldError, 0, len(errs))
	for _, e := range errs {
		out = append(out, models.FieldError{Field: e.Field, Message: e.Message})
	}
	return out
}
