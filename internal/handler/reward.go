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

type RewardHandler struct {
	rewards      *store.RewardStore
	participants *store.ParticipantStore
	hub          *websocket.Hub
	logger       *slog.Logger
}

func NewRewardHandler(rs *store.RewardStore, ps *store.ParticipantStore, hub *websocket.Hub, logger *slog.Logger) *RewardHandler {
	return &RewardHandler{rewards: rs, participants: ps, hub: hub, logger: logger}
}

type rewardRequest struct {
	ParticipantID int64  `json:"participant_id"`
	Name          string `json:"name"`
	Cost          int    `json:"cost"`
	Icon          string `json:"icon"`
}

func (h *RewardHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.FromContext(r.Context())

	var req rewardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}
	if req.Cost <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "cost must be > 0"})
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

	reward, err := h.rewards.Create(req.ParticipantID, req.Name, req.Cost, req.Icon)
	if err != nil {
		h.logger.Error("create reward", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	h.hub.Broadcast(caller.HouseholdID, websocket.Event{Type: "reward_added", ParticipantID: req.ParticipantID})
	writeJSON(w, http.StatusCreated, reward)
}

func (h *RewardHandler) List(w http.ResponseWriter, r *http.Request) {
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

	rewards, err := h.rewards.ListByParticipant(id)
	if err != nil {
		h.logger.Error("list rewards", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	if rewards == nil {
		rewards = []model.Reward{}
	}
	writeJSON(w, http.StatusOK, rewards)
}

func (h *RewardHandler) Delete(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.FromContext(r.Context())
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	reward, err := h.rewards.GetByID(id)
	if err != nil {
		h.logger.Error("get reward", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	if reward == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "reward not found"})
		return
	}

	owner, err := h.participants.GetByID(reward.ParticipantID)
	if err != nil {
		h.logger.Error("get reward owner", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	if owner == nil || owner.HouseholdID != caller.HouseholdID {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "forbidden"})
		return
	}

	if r.URL.Query().Get("all") == "true" {
		affected, err := h.rewards.DeleteByNameAcrossChildren(caller.HouseholdID, reward.Name)
		if err != nil {
			h.logger.Error("batch delete rewards", "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
			return
		}
		for _, pid := range affected {
			h.hub.Broadcast(caller.HouseholdID, websocket.Event{Type: "reward_deleted", ParticipantID: pid})
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted all"})
		return
	}

	if err := h.rewards.Delete(id); err != nil {
		writeEngineError(w, err)
		return
	}

	h.hub.Broadcast(caller.HouseholdID, websocket.Event{Type: "reward_deleted", ParticipantID: reward.ParticipantID})
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
