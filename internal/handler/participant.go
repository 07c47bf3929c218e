package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/rfosterdev/chorebank/internal/auth"
	"github.com/rfosterdev/chorebank/internal/model"
	"github.com/rfosterdev/chorebank/internal/store"
	"github.com/rfosterdev/chorebank/internal/websocket"
)

type ParticipantHandler struct {
	participants *store.ParticipantStore
	chores       *store.ChoreStore
	rewards      *store.RewardStore
	ledger       *store.LedgerStore
	hub          *websocket.Hub
	logger       *slog.Logger
}

func NewParticipantHandler(ps *store.ParticipantStore, cs *store.ChoreStore, rs *store.RewardStore, ls *store.LedgerStore, hub *websocket.Hub, logger *slog.Logger) *ParticipantHandler {
	return &ParticipantHandler{participants: ps, chores: cs, rewards: rs, ledger: ls, hub: hub, logger: logger}
}

// List returns the caller's household for guardians and a single-element
// slice holding only the caller for children.
func (h *ParticipantHandler) List(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.FromContext(r.Context())

	var participants []model.Participant
	if caller.IsGuardian() {
		var err error
		participants, err = h.participants.ListByHousehold(caller.HouseholdID)
		if err != nil {
			h.logger.Error("list participants", "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
			return
		}
	} else {
		p, err := h.participants.GetByID(caller.ParticipantID)
		if err != nil {
			h.logger.Error("get participant", "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
			return
		}
		if p != nil {
			participants = []model.Participant{*p}
		}
	}

	details := make([]model.ParticipantDetail, 0, len(participants))
	for _, p := range participants {
		d, err := h.detail(p)
		if err != nil {
			h.logger.Error("load participant detail", "error", err, "participant_id", p.ID)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
			return
		}
		details = append(details, *d)
	}
	writeJSON(w, http.StatusOK, details)
}

func (h *ParticipantHandler) Get(w http.ResponseWriter, r *http.Request) {
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

	p, err := h.participants.GetByID(id)
	if err != nil {
		h.logger.Error("get participant", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	if p == nil || p.HouseholdID != caller.HouseholdID {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}

	d, err := h.detail(*p)
	if err != nil {
		h.logger.Error("load participant detail", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *ParticipantHandler) detail(p model.Participant) (*model.ParticipantDetail, error) {
	chores, err := h.chores.ListByParticipant(p.ID)
	if err != nil {
		return nil, err
	}
	rewards, err := h.rewards.ListByParticipant(p.ID)
	if err != nil {
		return nil, err
	}
	inventory, err := h.ledger.ListInventory(p.ID)
	if err != nil {
		return nil, err
	}
	if chores == nil {
		chores = []model.Chore{}
	}
	if rewards == nil {
		rewards = []model.Reward{}
	}
	if inventory == nil {
		inventory = []model.InventoryItem{}
	}
	return &model.ParticipantDetail{Participant: p, Chores: chores, Rewards: rewards, Inventory: inventory}, nil
}

type profileRequest struct {
	Name      string  `json:"name"`
	BirthDate *string `json:"birth_date"`
	Gender    *string `json:"gender"`
}

func (h *ParticipantHandler) Update(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.FromContext(r.Context())
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	target, err := h.scopedTarget(caller, id)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	var req profileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = target.Name
	}

	birthDate := target.BirthDate
	if req.BirthDate != nil {
		if *req.BirthDate == "" {
			birthDate = nil
		} else {
			t, err := time.Parse("2006-01-02", *req.BirthDate)
			if err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "birth_date must be YYYY-MM-DD"})
				return
			}
			birthDate = &t
		}
	}

	gender := target.Gender
	if req.Gender != nil {
		gender = *req.Gender
	}

	updated, err := h.participants.UpdateProfile(id, name, birthDate, gender)
	if err != nil {
		h.logger.Error("update participant", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	h.hub.Broadcast(caller.HouseholdID, websocket.Event{Type: "participant_updated", ParticipantID: id})
	writeJSON(w, http.StatusOK, updated)
}

func (h *ParticipantHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.FromContext(r.Context())
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	if _, err := h.scopedTarget(caller, id); err != nil {
		writeEngineError(w, err)
		return
	}

	var req struct {
		NewPassword string `json:"new_password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	if req.NewPassword == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "new_password is required"})
		return
	}

	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		h.logger.Error("hash password", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	if err := h.participants.UpdatePassword(id, hash); err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "password reset"})
}

func (h *ParticipantHandler) Delete(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.FromContext(r.Context())
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	if _, err := h.scopedTarget(caller, id); err != nil {
		writeEngineError(w, err)
		return
	}

	if err := h.participants.Delete(id); err != nil {
		writeEngineError(w, err)
		return
	}

	h.hub.Broadcast(caller.HouseholdID, websocket.Event{Type: "participant_deleted", ParticipantID: id})
	w.WriteHeader(http.StatusNoContent)
}

type resetBalanceRequest struct {
	PurgeHistory *bool `json:"purge_history"`
}

// ResetBalance zeroes the participant's balance and, unless the request opts
// out, purges their history. Two separate store operations composed here so
// keeping the audit trail stays a policy choice.
func (h *ParticipantHandler) ResetBalance(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.FromContext(r.Context())
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	if _, err := h.scopedTarget(caller, id); err != nil {
		writeEngineError(w, err)
		return
	}

	var req resetBalanceRequest
	if r.Body != nil {
		// Empty body means defaults
		json.NewDecoder(r.Body).Decode(&req)
	}
	purge := req.PurgeHistory == nil || *req.PurgeHistory

	if err := h.ledger.ResetBalance(id); err != nil {
		writeEngineError(w, err)
		return
	}
	if purge {
		if err := h.ledger.PurgeHistory(id); err != nil {
			h.logger.Error("purge history", "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
			return
		}
	}

	h.hub.Broadcast(caller.HouseholdID, websocket.Event{Type: "balance_reset", ParticipantID: id})
	writeJSON(w, http.StatusOK, map[string]string{"status": "balance reset"})
}

// History returns the participant's most recent ledger entries, newest first.
func (h *ParticipantHandler) History(w http.ResponseWriter, r *http.Request) {
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
	target, err := h.participants.GetByID(id)
	if err != nil {
		h.logger.Error("get participant", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	if target == nil || target.HouseholdID != caller.HouseholdID {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}

	entries, err := h.ledger.ListHistory(id, 50)
	if err != nil {
		h.logger.Error("list history", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	if entries == nil {
		entries = []model.HistoryEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// scopedTarget loads a participant and verifies household scope for
// guardian-only mutations.
func (h *ParticipantHandler) scopedTarget(caller auth.Identity, id int64) (*model.Participant, error) {
	target, err := h.participants.GetByID(id)
	if err != nil {
		return nil, err
	}
	if target == nil {
		return nil, store.ErrNotFound
	}
	if target.HouseholdID != caller.HouseholdID {
		return nil, auth.ErrForbidden
	}
	return target, nil
}
