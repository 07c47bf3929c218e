package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/rfosterdev/chorebank/internal/approval"
	"github.com/rfosterdev/chorebank/internal/auth"
	"github.com/rfosterdev/chorebank/internal/handler"
	"github.com/rfosterdev/chorebank/internal/middleware"
	"github.com/rfosterdev/chorebank/internal/redemption"
	"github.com/rfosterdev/chorebank/internal/store"
	ws "github.com/rfosterdev/chorebank/internal/websocket"
)

type Server struct {
	db           *sql.DB
	hub          *ws.Hub
	tokens       *auth.Tokens
	authH        *handler.AuthHandler
	participantH *handler.ParticipantHandler
	choreH       *handler.ChoreHandler
	rewardH      *handler.RewardHandler
	actionH      *handler.ActionHandler
	limiter      *middleware.RateLimiter
	logger       *slog.Logger
}

func New(db *sql.DB, jwtSecret string, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))
	tokens := auth.NewTokens(jwtSecret)

	householdStore := store.NewHouseholdStore(db)
	participantStore := store.NewParticipantStore(db)
	choreStore := store.NewChoreStore(db)
	rewardStore := store.NewRewardStore(db)
	pendingStore := store.NewPendingStore(db)
	ledgerStore := store.NewLedgerStore(db)

	approvalEngine := approval.NewEngine(ledgerStore, pendingStore, choreStore, participantStore, logger.With("component", "approval"))
	redemptionEngine := redemption.NewEngine(ledgerStore, rewardStore, participantStore, logger.With("component", "redemption"))

	return &Server{
		db:           db,
		hub:          hub,
		tokens:       tokens,
		authH:        handler.NewAuthHandler(participantStore, householdStore, tokens, logger.With("component", "auth")),
		participantH: handler.NewParticipantHandler(participantStore, choreStore, rewardStore, ledgerStore, hub, logger.With("component", "participant")),
		choreH:       handler.NewChoreHandler(choreStore, participantStore, hub, logger.With("component", "chore")),
		rewardH:      handler.NewRewardHandler(rewardStore, participantStore, hub, logger.With("component", "reward")),
		actionH:      handler.NewActionHandler(approvalEngine, redemptionEngine, pendingStore, hub, logger.With("component", "action")),
		limiter:      middleware.NewRateLimiter(),
		logger:       logger,
	}
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.limiter
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes. The credential endpoints are rate limited per IP.
	authLimit := middleware.RateLimit(s.limiter, 10, time.Minute)
	outerMux.Handle("POST /api/auth/register", authLimit(http.HandlerFunc(s.authH.Register)))
	outerMux.Handle("POST /api/auth/login", authLimit(http.HandlerFunc(s.authH.Login)))
	outerMux.HandleFunc("GET /health", s.healthHandler)

	// WebSocket authenticates its own token (query param)
	outerMux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub, s.tokens, s.logger.With("component", "websocket")))

	// Protected routes
	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	authMiddleware := middleware.RequireAuth(s.tokens)
	outerMux.Handle("/api/", authMiddleware(protectedMux))

	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	guardian := middleware.RequireGuardian

	// Household membership
	mux.HandleFunc("GET /api/household", s.authH.Household)
	mux.Handle("POST /api/auth/create-child", guardian(http.HandlerFunc(s.authH.CreateChild)))
	mux.Handle("POST /api/auth/create-guardian", guardian(http.HandlerFunc(s.authH.CreateGuardian)))

	// Participants
	mux.HandleFunc("GET /api/participants", s.participantH.List)
	mux.HandleFunc("GET /api/participants/{id}", s.participantH.Get)
	mux.Handle("PUT /api/participants/{id}", guardian(http.HandlerFunc(s.participantH.Update)))
	mux.Handle("PUT /api/participants/{id}/password", guardian(http.HandlerFunc(s.participantH.ResetPassword)))
	mux.Handle("DELETE /api/participants/{id}", guardian(http.HandlerFunc(s.participantH.Delete)))
	mux.Handle("POST /api/participants/{id}/balance/reset", guardian(http.HandlerFunc(s.participantH.ResetBalance)))
	mux.HandleFunc("GET /api/participants/{id}/history", s.participantH.History)

	// Catalog
	mux.HandleFunc("POST /api/chores", s.choreH.Create)
	mux.HandleFunc("GET /api/participants/{id}/chores", s.choreH.List)
	mux.Handle("DELETE /api/chores/{id}", guardian(http.HandlerFunc(s.choreH.Delete)))
	mux.HandleFunc("POST /api/rewards", s.rewardH.Create)
	mux.HandleFunc("GET /api/participants/{id}/rewards", s.rewardH.List)
	mux.Handle("DELETE /api/rewards/{id}", guardian(http.HandlerFunc(s.rewardH.Delete)))

	// Approval workflow
	mux.HandleFunc("POST /api/actions/submit", s.actionH.Submit)
	mux.Handle("GET /api/pending", guardian(http.HandlerFunc(s.actionH.ListPending)))
	mux.Handle("POST /api/actions/{id}/approve", guardian(http.HandlerFunc(s.actionH.Approve)))
	mux.Handle("POST /api/actions/{id}/reject", guardian(http.HandlerFunc(s.actionH.Reject)))
	mux.Handle("POST /api/actions/complete-direct", guardian(http.HandlerFunc(s.actionH.CompleteDirect)))

	// Redemption & consumption
	mux.HandleFunc("POST /api/actions/redeem", s.actionH.Redeem)
	mux.HandleFunc("POST /api/actions/use", s.actionH.Consume)
}
