package websocket

import (
	"log/slog"
	"net/http"

	ws "github.com/coder/websocket"
	"github.com/rfosterdev/chorebank/internal/auth"
)

// HandleWebSocket upgrades connections to WebSocket sessions scoped to the
// caller's household. Browsers cannot set headers on WS connects, so the
// bearer token arrives as a query parameter.
func HandleWebSocket(hub *Hub, tokens *auth.Tokens, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get("token")
		if token == "" {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		identity, err := tokens.Verify(token)
		if err != nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		conn, err := ws.Accept(w, r, &ws.AcceptOptions{
			InsecureSkipVerify: true, // Allow connections from any origin (household LAN)
		})
		if err != nil {
			logger.Warn("websocket accept", "error", err)
			return
		}

		client := NewClient(hub, conn, identity.HouseholdID)
		client.Run(r.Context())
	}
}
