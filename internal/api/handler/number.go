package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/numport/numport/internal/api/middleware"
	"github.com/numport/numport/internal/api/models"
	"github.com/numport/numport/internal/api/response"
	"github.com/numport/numport/internal/number"
)

// NumberHandler handles platform number endpoints.
type NumberHandler struct {
	service *number.Service
}

// NewNumberHandler creates a new NumberHandler.
func NewNumberHandler(service *number.Service) *NumberHandler {
	return &NumberHandler{service: service}
}

// ListMine handles GET /v1/me/numbers - list the caller's numbers.
func (h *NumberHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	limit, offset := pageParams(r)
	numbers, total, err := h.service.ListForUser(r.Context(), middleware.GetUserID(r.Context()), limit, offset)
	if err != nil {
		response.InternalError(w, r, "an unexpected error occurred")
		return
	}

	out := make([]models.Number, 0, len(numbers))
	for _, n := range numbers {
		out = append(out, toNumber(n))
	}
	response.JSON(w, r, http.StatusOK, models.NumberList{
		Numbers: out,
		Meta:    models.PageMeta{Limit: limit, Offset: offset, Total: total},
	})
}

// GetNumber handles GET /v1/numbers/{numberId}.
func (h *NumberHandler) GetNumber(w http.ResponseWriter, r *http.Request) {
	n, ok := h.ownedNumber(w, r)
	if !ok {
		return
	}
	response.JSON(w, r, http.StatusOK, toNumber(n))
}

// GetRoutingConfig handles GET /v1/numbers/{numberId}/routing.
func (h *NumberHandler) GetRoutingConfig(w http.ResponseWriter, r *http.Request) {
	n, ok := h.ownedNumber(w, r)
	if !ok {
		return
	}

	cfg, err := h.service.GetRoutingConfig(r.Context(), n.ID)
	if err != nil {
		writeNumberError(w, r, err)
		return
	}

	response.JSON(w, r, http.StatusOK, models.RoutingConfig{
		ID:               cfg.ID,
		NumberID:         cfg.NumberID,
		ForwardTo:        cfg.ForwardTo,
		VoicemailEnabled: cfg.VoicemailEnabled,
		RecordCalls:      cfg.RecordCalls,
		GreetingURL:      cfg.GreetingURL,
		CreatedAt:        models.Timestamp(cfg.CreatedAt),
		UpdatedAt:        models.Timestamp(cfg.UpdatedAt),
	})
}

// ReleaseNumber handles DELETE /v1/numbers/{numberId} - give up a number.
func (h *NumberHandler) ReleaseNumber(w http.ResponseWriter, r *http.Request) {
	n, ok := h.ownedNumber(w, r)
	if !ok {
		return
	}

	if _, err := h.service.Release(r.Context(), n.ID); err != nil {
		writeNumberError(w, r, err)
		return
	}
	response.NoContent(w, r)
}

// ownedNumber loads the number from the URL and enforces ownership. Admin
// principals may access any number.
func (h *NumberHandler) ownedNumber(w http.ResponseWriter, r *http.Request) (*number.Number, bool) {
	numberID := chi.URLParam(r, "numberId")
	if numberID == "" {
		response.BadRequest(w, r, "numberId is required", nil)
		return nil, false
	}

	n, err := h.service.Get(r.Context(), numberID)
	if err != nil {
		writeNumberError(w, r, err)
		return nil, false
	}

	principal, _ := middleware.GetPrincipal(r.Context())
	if n.UserID != principal.UserID && !principal.IsAdmin() {
		response.NotFound(w, r, "number not found")
		return nil, false
	}
	return n, true
}

// writeNumberError maps number domain errors onto Problem responses.
func writeNumberError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, number.ErrNumberNotFound):
		response.NotFound(w, r, "number not found")
	case errors.Is(err, number.ErrConfigNotFound):
		response.NotFound(w, r, "routing configuration not found")
	default:
		response.InternalError(w, r, "an unexpected error occurred")
	}
}

func toNumber(n *number.Number) models.Number {
	out := models.Number{
		ID:          n.ID,
		UserID:      n.UserID,
		PhoneNumber: n.PhoneNumber,
		Status:      string(n.Status),
		Source:      string(n.Source),
		CreatedAt:   models.Timestamp(n.CreatedAt),
		UpdatedAt:   models.Timestamp(n.UpdatedAt),
	}
	if n.ActivatedAt != nil {
		ts := models.Timestamp(*n.ActivatedAt)
		out.ActivatedAt = &ts
	}
	return out
}
