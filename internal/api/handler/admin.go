package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/numport/numport/internal/api/middleware"
	"github.com/numport/numport/internal/api/models"
	"github.com/numport/numport/internal/api/response"
	"github.com/numport/numport/internal/porting"
)

// AdminPortingHandler handles administrative porting endpoints.
type AdminPortingHandler struct {
	service *porting.Service
}

// NewAdminPortingHandler creates a new AdminPortingHandler.
func NewAdminPortingHandler(service *porting.Service) *AdminPortingHandler {
	return &AdminPortingHandler{service: service}
}

// ListRequests handles GET /v1/admin/porting/requests. With a q, userId, or
// carrier parameter it runs a search; with only a status it lists by status.
func (h *AdminPortingHandler) ListRequests(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	limit, offset := pageParams(r)

	q := query.Get("q")
	filters := porting.SearchFilters{
		UserID:  query.Get("userId"),
		Status:  porting.Status(query.Get("status")),
		Carrier: query.Get("carrier"),
	}

	var (
		page *porting.RequestPage
		err  error
	)
	if q == "" && filters.UserID == "" && filters.Carrier == "" && filters.Status != "" {
		page, err = h.service.ListByStatus(r.Context(), filters.Status, limit, offset)
	} else {
		page, err = h.service.Search(r.Context(), q, filters, limit, offset)
	}
	if err != nil {
		writePortingError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, toRequestList(page, limit, offset))
}

// ListRequiringAttention handles GET /v1/admin/porting/requests/attention -
// failed requests plus processing requests past their estimate.
func (h *AdminPortingHandler) ListRequiringAttention(w http.ResponseWriter, r *http.Request) {
	requests, err := h.service.RequiringAttention(r.Context())
	if err != nil {
		writePortingError(w, r, err)
		return
	}

	out := make([]models.PortingRequest, 0, len(requests))
	for _, req := range requests {
		out = append(out, toPortingRequest(req, nil, nil))
	}
	response.JSON(w, r, http.StatusOK, out)
}

// UpdateStatus handles PUT /v1/admin/porting/requests/{requestId}/status.
func (h *AdminPortingHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	requestID := chi.URLParam(r, "requestId")
	if requestID == "" {
		response.BadRequest(w, r, "requestId is required", nil)
		return
	}

	var input models.UpdatePortingStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}
	if input.Status == "" || input.Message == "" {
		response.BadRequest(w, r, "status and message are required", nil)
		return
	}

	updated, err := h.service.UpdateStatus(r.Context(), requestID,
		porting.Status(input.Status), input.Message, middleware.GetUserID(r.Context()))
	if err != nil {
		writePortingError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, toPortingRequest(updated, nil, nil))
}

// UpdateNotes handles PUT /v1/admin/porting/requests/{requestId}/notes.
func (h *AdminPortingHandler) UpdateNotes(w http.ResponseWriter, r *http.Request) {
	requestID := chi.URLParam(r, "requestId")
	if requestID == "" {
		response.BadRequest(w, r, "requestId is required", nil)
		return
	}

	var input models.UpdatePortingNotesRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	updated, err := h.service.UpdateNotes(r.Context(), requestID, input.Notes)
	if err != nil {
		writePortingError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, toPortingRequest(updated, nil, nil))
}
