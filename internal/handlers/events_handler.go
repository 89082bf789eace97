package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/harisalimughal/GoSeller-sub002/internal/models"
	"github.com/harisalimughal/GoSeller-sub002/internal/services"
)

type distributionEngine interface {
	DistributeOrderPayment(ctx context.Context, event models.OrderCompletionEvent) (*models.DistributionResult, error)
}

type complaintCreator interface {
	CreateComplaint(ctx context.Context, event models.ComplaintCreationEvent) (*models.Complaint, error)
}

// EventsHandler is the intake for the two upstream events the settlement core
// consumes: order completion and complaint creation. Both endpoints are safe
// to redeliver.
type EventsHandler struct {
	distributions distributionEngine
	complaints    complaintCreator
	validator     *services.ValidationHelper
}

func NewEventsHandler(distributions distributionEngine, complaints complaintCreator) *EventsHandler {
	return &EventsHandler{
		distributions: distributions,
		complaints:    complaints,
		validator:     services.NewValidationHelper(),
	}
}

// OrderCompleted accepts an order completion event and runs the payment
// distribution. A redelivered event returns 200 with alreadyDistributed set.
func (h *EventsHandler) OrderCompleted(w http.ResponseWriter, r *http.Request) {
	var event models.OrderCompletionEvent

	r.Body = http.MaxBytesReader(w, r.Body, 1_048_576)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(&event); err != nil {
		services.SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}

	if err := dec.Decode(&struct{}{}); err != io.EOF {
		services.SendErrorResponse(w, "Request body must only contain a single JSON object", http.StatusBadRequest, nil)
		return
	}

	if err := h.validator.ValidateStruct(&event); err != nil {
		services.SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	result, err := h.distributions.DistributeOrderPayment(r.Context(), event)
	switch {
	case errors.Is(err, services.ErrAlreadyDistributed):
		// Fall through: the result carries the skipped legs.
	case errors.Is(err, services.ErrDistributionBusy):
		services.SendErrorResponse(w, "Distribution already in progress for this order", http.StatusConflict, nil)
		return
	case err != nil:
		services.SendErrorResponse(w, err.Error(), http.StatusUnprocessableEntity, nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"success": true,
		"data":    result,
	})
}

// ComplaintCreated registers a new complaint at the first escalation level.
func (h *EventsHandler) ComplaintCreated(w http.ResponseWriter, r *http.Request) {
	var event models.ComplaintCreationEvent

	r.Body = http.MaxBytesReader(w, r.Body, 1_048_576)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(&event); err != nil {
		services.SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}

	if err := dec.Decode(&struct{}{}); err != io.EOF {
		services.SendErrorResponse(w, "Request body must only contain a single JSON object", http.StatusBadRequest, nil)
		return
	}

	if err := h.validator.ValidateStruct(&event); err != nil {
		services.SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	complaint, err := h.complaints.CreateComplaint(r.Context(), event)
	if err != nil {
		services.SendErrorResponse(w, err.Error(), http.StatusUnprocessableEntity, nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]any{
		"success": true,
		"data":    complaint,
	})
}
