package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/rfosterdev/chorebank/internal/auth"
	"github.com/rfosterdev/chorebank/internal/model"
	"github.com/rfosterdev/chorebank/internal/store"
	"github.com/rfosterdev/chorebank/internal/websocket"
)

type ChoreHandler struct {
	chores       *store.ChoreStore
	participants *store.ParticipantStore
	hub          *websocket.Hub
	logger       *slog.Logger
}

func NewChoreHandler(cs *store.ChoreStore, ps *store.ParticipantStore, hub *websocket.Hub, logger *slog.Logger) *ChoreHandler {
	return &ChoreHandler{chores: cs, participants: ps, hub: hub, logger: logger}
}

type choreRequest struct {
	ParticipantID int64  `json:"participant_id"`
	Name          string `json:"name"`
	Points        int    `json:"points"`
	Icon          string `json:"icon"`
}

func (h *ChoreHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.FromContext(r.Context())

	var req choreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}
	if req.Points <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "points must be > 0"})
		return
	}

	target, err := h.participants.GetByID(req.ParticipantID)
	if err != nil {
		h.logger.Error("get participant", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	if target == nil || target.HouseholdID != caller.HouseholdID {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "participant not found"})
		return
	}

	chore, err := h.chores.Create(req.ParticipantID, req.Name, req.Points, req.Icon)
	if err != nil {
		h.logger.Error("create chore", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	h.hub.Broadcast(caller.HouseholdID, websocket.Event{Type: "chore_added", ParticipantID: req.ParticipantID})
	writeJSON(w, http.StatusCreated, chore)
}

func (h *ChoreHandler) List(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.FromContext(r.Context())
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}
	if !caller.IsGuardian() && caller.ParticipantID != id {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "forbidden"})
		return
	}

	chores, err := h.chores.ListByParticipant(id)
	if err != nil {
		h.logger.Error("list chores", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	if chores == nil {
		chores = []model.Chore{}
	}
	writeJSON(w, http.StatusOK, chores)
}

// Delete removes one chore definition; with ?all=true it removes every chore
// sharing the name across the household's children. A batch policy on
// definitions only, never on in-flight submissions.
func (h *ChoreHandler) Delete(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.FromContext(r.Context())
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	chore, err := h.chores.GetByID(id)
	if err != nil {
		h.logger.Error("get chore", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	if chore == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "chore not found"})
		return
	}

	owner, err := h.participants.GetByID(chore.ParticipantID)
	if err != nil {
		h.logger.Error("get chore owner", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	if owner == nil || owner.HouseholdID != caller.HouseholdID {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "forbidden"})
		return
	}

	if r.URL.Query().Get("all") == "true" {
		affected, err := h.chores.DeleteByNameAcrossChildren(caller.HouseholdID, chore.Name)
		if err != nil {
			h.logger.Error("batch delete chores", "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
			return
		}
		for _, pid := range affected {
			h.hub.Broadcast(caller.HouseholdID, websocket.Event{Type: "chore_deleted", ParticipantID: pid})
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted all"})
		return
	}

	if err := h.chores.Delete(id); err != nil {
		writeEngineError(w, err)
		return
	}

	h.hub.Broadcast(caller.HouseholdID, websocket.Event{Type: "chore_deleted", ParticipantID: chore.ParticipantID})
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
