package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/harisalimughal/GoSeller-sub002/internal/models"
	"github.com/harisalimughal/GoSeller-sub002/internal/services"
)

type complaintManager interface {
	GetComplaint(ctx context.Context, complaintID string) (*models.Complaint, error)
	EscalationHistory(ctx context.Context, complaintID string) ([]models.EscalationEntry, error)
	Escalate(ctx context.Context, complaintID string, level models.EscalationLevel, actor, reason string) error
	MarkInProgress(ctx context.Context, complaintID, actor string) error
	Resolve(ctx context.Context, complaintID, actor, resolution string) error
	Close(ctx context.Context, complaintID, actor string) error
}

// ComplaintHandler exposes complaint lookup and the manual lifecycle
// operations. Automatic escalation stays with the scheduler; these endpoints
// are for support staff.
type ComplaintHandler struct {
	complaints complaintManager
	validator  *services.ValidationHelper
}

func NewComplaintHandler(complaints complaintManager) *ComplaintHandler {
	return &ComplaintHandler{
		complaints: complaints,
		validator:  services.NewValidationHelper(),
	}
}

// GetComplaint returns one complaint with its escalation history.
func (h *ComplaintHandler) GetComplaint(w http.ResponseWriter, r *http.Request) {
	complaintID := chi.URLParam(r, "complaintId")

	complaint, err := h.complaints.GetComplaint(r.Context(), complaintID)
	if err != nil {
		if errors.Is(err, services.ErrComplaintNotFound) {
			services.SendErrorResponse(w, "Complaint not found", http.StatusNotFound, nil)
			return
		}
		services.SendErrorResponse(w, err.Error(), http.StatusInternalServerError, nil)
		return
	}

	history, err := h.complaints.EscalationHistory(r.Context(), complaintID)
	if err != nil {
		services.SendErrorResponse(w, err.Error(), http.StatusInternalServerError, nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"success": true,
		"data":    complaint,
		"history": history,
	})
}

// Escalate performs a manual escalation. Downgrades and already-terminal
// complaints are rejected with 409.
func (h *ComplaintHandler) Escalate(w http.ResponseWriter, r *http.Request) {
	complaintID := chi.URLParam(r, "complaintId")
	actor := actorFrom(r)

	var req struct {
		Level  int    `json:"level" validate:"required,min=1,max=3"`
		Reason string `json:"reason" validate:"required"`
	}
	if !h.decode(w, r, &req) {
		return
	}

	err := h.complaints.Escalate(r.Context(), complaintID, models.EscalationLevel(req.Level), actor, req.Reason)
	switch {
	case errors.Is(err, services.ErrComplaintNotFound):
		services.SendErrorResponse(w, "Complaint not found", http.StatusNotFound, nil)
		return
	case errors.Is(err, services.ErrInvalidEscalationTransition):
		services.SendErrorResponse(w, err.Error(), http.StatusConflict, nil)
		return
	case err != nil:
		services.SendErrorResponse(w, err.Error(), http.StatusUnprocessableEntity, nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"success": true})
}

// MarkInProgress records first contact on a pending complaint.
func (h *ComplaintHandler) MarkInProgress(w http.ResponseWriter, r *http.Request) {
	complaintID := chi.URLParam(r, "complaintId")

	if err := h.complaints.MarkInProgress(r.Context(), complaintID, actorFrom(r)); err != nil {
		h.sendLifecycleError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"success": true})
}

// Resolve settles an open complaint.
func (h *ComplaintHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	complaintID := chi.URLParam(r, "complaintId")
	actor := actorFrom(r)

	var req struct {
		Resolution string `json:"resolution" validate:"required"`
	}
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.complaints.Resolve(r.Context(), complaintID, actor, req.Resolution); err != nil {
		h.sendLifecycleError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"success": true})
}

// Close archives a resolved complaint.
func (h *ComplaintHandler) Close(w http.ResponseWriter, r *http.Request) {
	complaintID := chi.URLParam(r, "complaintId")

	if err := h.complaints.Close(r.Context(), complaintID, actorFrom(r)); err != nil {
		h.sendLifecycleError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"success": true})
}

func (h *ComplaintHandler) decode(w http.ResponseWriter, r *http.Request, req any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1_048_576)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(req); err != nil {
		services.SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return false
	}

	if err := dec.Decode(&struct{}{}); err != io.EOF {
		services.SendErrorResponse(w, "Request body must only contain a single JSON object", http.StatusBadRequest, nil)
		return false
	}

	if err := h.validator.ValidateStruct(req); err != nil {
		services.SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return false
	}
	return true
}

func (h *ComplaintHandler) sendLifecycleError(w http.ResponseWriter, err error) {
	if errors.Is(err, services.ErrComplaintNotFound) {
		services.SendErrorResponse(w, "Complaint not found", http.StatusNotFound, nil)
		return
	}
	services.SendErrorResponse(w, err.Error(), http.StatusConflict, nil)
}
