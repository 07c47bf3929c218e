package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/rfosterdev/chorebank/internal/auth"
	"github.com/rfosterdev/chorebank/internal/model"
	"github.com/rfosterdev/chorebank/internal/store"
)

type AuthHandler struct {
	participants *store.ParticipantStore
	households   *store.HouseholdStore
	tokens       *auth.Tokens
	logger       *slog.Logger
}

func NewAuthHandler(ps *store.ParticipantStore, hs *store.HouseholdStore, tokens *auth.Tokens, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{participants: ps, households: hs, tokens: tokens, logger: logger}
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Name     string `json:"name"`
	JoinCode string `json:"join_code"`
}

func (req *credentialsRequest) validate() string {
	req.Username = strings.TrimSpace(req.Username)
	req.Name = strings.TrimSpace(req.Name)
	if req.Username == "" {
		return "username is required"
	}
	if req.Password == "" {
		return "password is required"
	}
	if req.Name == "" {
		return "name is required"
	}
	return ""
}

type authResponse struct {
	Token       string             `json:"token"`
	Participant *model.Participant `json:"participant"`
}

// Register creates a guardian account together with a fresh household, or,
// when the request carries a join code, joins the existing household it
// identifies.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	if msg := req.validate(); msg != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
		return
	}

	existing, err := h.participants.GetByUsername(req.Username)
	if err != nil {
		h.logger.Error("register lookup", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	if existing != nil {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "username already exists"})
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.logger.Error("hash password", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	var household *model.Household
	if code := strings.TrimSpace(req.JoinCode); code != "" {
		household, err = h.households.GetByJoinCode(code)
		if err != nil {
			h.logger.Error("lookup join code", "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
			return
		}
		if household == nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid join code"})
			return
		}
	} else {
		household, err = h.households.Create(req.Name)
		if err != nil {
			h.logger.Error("create household", "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
			return
		}
	}

	participant, err := h.participants.Create(req.Username, hash, req.Name, model.RoleGuardian, household.ID, nil)
	if err != nil {
		h.logger.Error("create guardian", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	token, err := h.tokens.Mint(participant.ID, participant.Role, participant.Name, participant.HouseholdID)
	if err != nil {
		h.logger.Error("mint token", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	writeJSON(w, http.StatusCreated, authResponse{Token: token, Participant: participant})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	req.Username = strings.TrimSpace(req.Username)

	participant, err := h.participants.GetByUsername(req.Username)
	if err != nil {
		h.logger.Error("login lookup", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	if participant == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid username or password"})
		return
	}

	hash, err := h.participants.GetPasswordHash(req.Username)
	if err != nil {
		h.logger.Error("login hash", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	if !auth.CheckPassword(hash, req.Password) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid username or password"})
		return
	}

	token, err := h.tokens.Mint(participant.ID, participant.Role, participant.Name, participant.HouseholdID)
	if err != nil {
		h.logger.Error("mint token", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	writeJSON(w, http.StatusOK, authResponse{Token: token, Participant: participant})
}

// Household returns the caller's household record, including the join code
// guardians share when registering a co-guardian from another device.
func (h *AuthHandler) Household(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.FromContext(r.Context())

	household, err := h.households.GetByID(caller.HouseholdID)
	if err != nil {
		h.logger.Error("get household", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	if household == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}
	writeJSON(w, http.StatusOK, household)
}

// CreateChild adds a child account to the caller's household.
func (h *AuthHandler) CreateChild(w http.ResponseWriter, r *http.Request) {
	h.createMember(w, r, model.RoleChild)
}

// CreateGuardian adds another guardian to the caller's household, so
// multi-guardian households work without any special linkage.
func (h *AuthHandler) CreateGuardian(w http.ResponseWriter, r *http.Request) {
	h.createMember(w, r, model.RoleGuardian)
}

func (h *AuthHandler) createMember(w http.ResponseWriter, r *http.Request, role string) {
	caller, _ := auth.FromContext(r.Context())

	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	if msg := req.validate(); msg != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
		return
	}

	existing, err := h.participants.GetByUsername(req.Username)
	if err != nil {
		h.logger.Error("member lookup", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	if existing != nil {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "username already exists"})
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.logger.Error("hash password", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	var guardianID *int64
	if role == model.RoleChild {
		guardianID = &caller.ParticipantID
	}

	participant, err := h.participants.Create(req.Username, hash, req.Name, role, caller.HouseholdID, guardianID)
	if err != nil {
		h.logger.Error("create member", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	writeJSON(w, http.StatusCreated, participant)
}
