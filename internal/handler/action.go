package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/rfosterdev/chorebank/internal/approval"
	"github.com/rfosterdev/chorebank/internal/auth"
	"github.com/rfosterdev/chorebank/internal/model"
	"github.com/rfosterdev/chorebank/internal/redemption"
	"github.com/rfosterdev/chorebank/internal/store"
	"github.com/rfosterdev/chorebank/internal/websocket"
)

// ActionHandler exposes the approval workflow and the redemption engine.
// Each successful engine call emits exactly one broadcast event after the
// transaction has committed; emission never fails the response.
type ActionHandler struct {
	approvals   *approval.Engine
	redemptions *redemption.Engine
	pending     *store.PendingStore
	hub         *websocket.Hub
	logger      *slog.Logger
}

func NewActionHandler(ap *approval.Engine, re *redemption.Engine, pending *store.PendingStore, hub *websocket.Hub, logger *slog.Logger) *ActionHandler {
	return &ActionHandler{approvals: ap, redemptions: re, pending: pending, hub: hub, logger: logger}
}

type submitRequest struct {
	ParticipantID int64 `json:"participant_id"`
	ChoreID       int64 `json:"chore_id"`
}

func (h *ActionHandler) Submit(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.FromContext(r.Context())

	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	if req.ParticipantID == 0 {
		req.ParticipantID = caller.ParticipantID
	}

	action, err := h.approvals.Submit(caller, req.ParticipantID, req.ChoreID)
	if err != nil {
		h.logEngineError("submit chore", err)
		writeEngineError(w, err)
		return
	}

	h.hub.Broadcast(caller.HouseholdID, websocket.Event{Type: "chore_submitted", ParticipantID: action.ParticipantID})
	writeJSON(w, http.StatusCreated, action)
}

// ListPending returns the household's approval queue, oldest first.
func (h *ActionHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.FromContext(r.Context())

	actions, err := h.pending.ListByHousehold(caller.HouseholdID)
	if err != nil {
		h.logger.Error("list pending", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	if actions == nil {
		actions = []model.PendingAction{}
	}
	writeJSON(w, http.StatusOK, actions)
}

func (h *ActionHandler) Approve(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.FromContext(r.Context())
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	action, err := h.approvals.Approve(caller, id)
	if errors.Is(err, store.ErrNotFound) {
		// A concurrent approve or reject got there first
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "already handled"})
		return
	}
	if err != nil {
		h.logEngineError("approve chore", err)
		writeEngineError(w, err)
		return
	}

	h.hub.Broadcast(caller.HouseholdID, websocket.Event{Type: "chore_approved", ParticipantID: action.ParticipantID})
	writeJSON(w, http.StatusOK, map[string]string{"status": "approved"})
}

func (h *ActionHandler) Reject(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.FromContext(r.Context())
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	action, err := h.approvals.Reject(caller, id)
	if errors.Is(err, store.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "already handled"})
		return
	}
	if err != nil {
		h.logEngineError("reject chore", err)
		writeEngineError(w, err)
		return
	}

	h.hub.Broadcast(caller.HouseholdID, websocket.Event{Type: "chore_rejected", ParticipantID: action.ParticipantID})
	writeJSON(w, http.StatusOK, map[string]string{"status": "rejected"})
}

func (h *ActionHandler) CompleteDirect(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.FromContext(r.Context())

	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	entry, err := h.approvals.CompleteDirect(caller, req.ParticipantID, req.ChoreID)
	if err != nil {
		h.logEngineError("complete chore", err)
		writeEngineError(w, err)
		return
	}

	h.hub.Broadcast(caller.HouseholdID, websocket.Event{Type: "chore_completed", ParticipantID: req.ParticipantID})
	writeJSON(w, http.StatusOK, entry)
}

type redeemRequest struct {
	ParticipantID int64 `json:"participant_id"`
	RewardID      int64 `json:"reward_id"`
}

func (h *ActionHandler) Redeem(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.FromContext(r.Context())

	var req redeemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	if req.ParticipantID == 0 {
		req.ParticipantID = caller.ParticipantID
	}

	item, entry, err := h.redemptions.Redeem(caller, req.ParticipantID, req.RewardID)
	if err != nil {
		h.logEngineError("redeem reward", err)
		writeEngineError(w, err)
		return
	}

	h.hub.Broadcast(caller.HouseholdID, websocket.Event{Type: "reward_redeemed", ParticipantID: req.ParticipantID})
	writeJSON(w, http.StatusOK, map[string]any{"item": item, "entry": entry})
}

type consumeRequest struct {
	ItemID int64 `json:"item_id"`
}

func (h *ActionHandler) Consume(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.FromContext(r.Context())

	var req consumeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	entry, err := h.redemptions.Consume(caller, req.ItemID)
	if err != nil {
		h.logEngineError("consume reward", err)
		writeEngineError(w, err)
		return
	}

	h.hub.Broadcast(caller.HouseholdID, websocket.Event{Type: "reward_used", ParticipantID: entry.ParticipantID})
	writeJSON(w, http.StatusOK, entry)
}

// logEngineError keeps business outcomes quiet and logs real faults.
func (h *ActionHandler) logEngineError(op string, err error) {
	if errors.Is(err, store.ErrNotFound) ||
		errors.Is(err, store.ErrInsufficientBalance) ||
		errors.Is(err, auth.ErrForbidden) {
		return
	}
	h.logger.Error(op, "error", err)
}
