package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/harisalimughal/GoSeller-sub002/internal/models"
	"github.com/harisalimughal/GoSeller-sub002/internal/services"
)

const defaultTransactionLimit = 50

type walletReader interface {
	GetTotalBalance(ctx context.Context, ownerID string) (*models.BalanceSnapshot, error)
	CheckTrustyRequirement(ctx context.Context, walletID string) (bool, error)
}

type ledgerReader interface {
	GetByID(ctx context.Context, id string) (*models.Transaction, error)
	FindByOrder(ctx context.Context, orderID string) ([]models.Transaction, error)
	FindByOwner(ctx context.Context, ownerID string, limit int) ([]models.Transaction, error)
	FindByDay(ctx context.Context, day time.Time) ([]models.Transaction, error)
	AuditTrail(ctx context.Context, transactionID string) ([]models.TransactionAudit, error)
	Reverse(ctx context.Context, id, actor, reason string) error
}

// WalletHandler exposes the read side of wallets and the ledger, plus the
// operator-only reversal endpoint.
type WalletHandler struct {
	wallets   walletReader
	ledger    ledgerReader
	validator *services.ValidationHelper
}

func NewWalletHandler(wallets walletReader, ledger ledgerReader) *WalletHandler {
	return &WalletHandler{
		wallets:   wallets,
		ledger:    ledger,
		validator: services.NewValidationHelper(),
	}
}

// GetBalance returns the owner's balance snapshot across all role wallets.
func (h *WalletHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	ownerID := chi.URLParam(r, "ownerId")

	snapshot, err := h.wallets.GetTotalBalance(r.Context(), ownerID)
	if err != nil {
		if errors.Is(err, services.ErrWalletNotFound) {
			services.SendErrorResponse(w, "No wallets for owner", http.StatusNotFound, nil)
			return
		}
		services.SendErrorResponse(w, err.Error(), http.StatusInternalServerError, nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"success": true,
		"data":    snapshot,
	})
}

// GetTrustyStatus reports whether a wallet's trusty balance meets its
// tier-derived minimum. Withdrawal capping is enforced by the caller.
func (h *WalletHandler) GetTrustyStatus(w http.ResponseWriter, r *http.Request) {
	walletID := chi.URLParam(r, "walletId")

	met, err := h.wallets.CheckTrustyRequirement(r.Context(), walletID)
	if err != nil {
		if errors.Is(err, services.ErrWalletNotFound) {
			services.SendErrorResponse(w, "Wallet not found", http.StatusNotFound, nil)
			return
		}
		services.SendErrorResponse(w, err.Error(), http.StatusInternalServerError, nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"success":        true,
		"requirementMet": met,
	})
}

// ListOwnerTransactions returns the most recent ledger entries touching any
// of the owner's wallets.
func (h *WalletHandler) ListOwnerTransactions(w http.ResponseWriter, r *http.Request) {
	ownerID := chi.URLParam(r, "ownerId")

	limit := defaultTransactionLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > 500 {
			services.SendErrorResponse(w, "Invalid limit", http.StatusBadRequest, nil)
			return
		}
		limit = parsed
	}

	entries, err := h.ledger.FindByOwner(r.Context(), ownerID, limit)
	if err != nil {
		services.SendErrorResponse(w, err.Error(), http.StatusInternalServerError, nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"success": true,
		"data":    entries,
	})
}

// ListOrderTransactions returns every leg recorded for an order.
func (h *WalletHandler) ListOrderTransactions(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderId")

	entries, err := h.ledger.FindByOrder(r.Context(), orderID)
	if err != nil {
		services.SendErrorResponse(w, err.Error(), http.StatusInternalServerError, nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"success": true,
		"data":    entries,
	})
}

// ListDayTransactions returns all ledger entries for a calendar day
// (date query parameter, YYYY-MM-DD, UTC).
func (h *WalletHandler) ListDayTransactions(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("date")
	day, err := time.Parse("2006-01-02", raw)
	if err != nil {
		services.SendErrorResponse(w, "Invalid date, expected YYYY-MM-DD", http.StatusBadRequest, nil)
		return
	}

	entries, err := h.ledger.FindByDay(r.Context(), day)
	if err != nil {
		services.SendErrorResponse(w, err.Error(), http.StatusInternalServerError, nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"success": true,
		"data":    entries,
	})
}

// GetTransaction returns one ledger entry with its full status history.
func (h *WalletHandler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	txID := chi.URLParam(r, "txId")

	entry, err := h.ledger.GetByID(r.Context(), txID)
	if err != nil {
		if errors.Is(err, services.ErrTransactionNotFound) {
			services.SendErrorResponse(w, "Transaction not found", http.StatusNotFound, nil)
			return
		}
		services.SendErrorResponse(w, err.Error(), http.StatusInternalServerError, nil)
		return
	}

	trail, err := h.ledger.AuditTrail(r.Context(), txID)
	if err != nil {
		services.SendErrorResponse(w, err.Error(), http.StatusInternalServerError, nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"success": true,
		"data":    entry,
		"audit":   trail,
	})
}

// ReverseTransaction undoes a completed ledger entry with compensating wallet
// deltas. Operator endpoint; the actor comes from the auth token.
func (h *WalletHandler) ReverseTransaction(w http.ResponseWriter, r *http.Request) {
	txID := chi.URLParam(r, "txId")
	actor := actorFrom(r)

	var req struct {
		Reason string `json:"reason" validate:"required"`
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1_048_576)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		services.SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}

	if err := dec.Decode(&struct{}{}); err != io.EOF {
		services.SendErrorResponse(w, "Request body must only contain a single JSON object", http.StatusBadRequest, nil)
		return
	}

	if err := h.validator.ValidateStruct(&req); err != nil {
		services.SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	err := h.ledger.Reverse(r.Context(), txID, actor, req.Reason)
	switch {
	case errors.Is(err, services.ErrTransactionNotFound):
		services.SendErrorResponse(w, "Transaction not found", http.StatusNotFound, nil)
		return
	case errors.Is(err, services.ErrInvalidStatusTransition):
		services.SendErrorResponse(w, "Only completed transactions can be reversed", http.StatusConflict, nil)
		return
	case err != nil:
		services.SendErrorResponse(w, err.Error(), http.StatusUnprocessableEntity, nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"success": true})
}

// actorFrom pulls the authenticated service identity off the request context.
func actorFrom(r *http.Request) string {
	if actor, ok := r.Context().Value("serviceID").(string); ok && actor != "" {
		return actor
	}
	return "unknown"
}
