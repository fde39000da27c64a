package auth

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/MomoCodeByte/final-chekelen/internal/httpx"
)

// defaultRevocationTTL bounds revocation of tokens issued without exp.
const defaultRevocationTTL = 24 * time.Hour

type LogoutHandler struct {
	revoker Revoker
	logger  *slog.Logger
}

func NewLogoutHandler(revoker Revoker, logger *slog.Logger) *LogoutHandler {
	return &LogoutHandler{
		revoker: revoker,
		logger:  logger,
	}
}

func (h *LogoutHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	s, ok := r.Context().Value(contextKey{}).(session)
	if !ok || s.claims == nil {
		httpx.WriteMessage(w, h.logger, http.StatusUnauthorized, "authentication required")
		return
	}

	if h.revoker == nil {
		h.logger.Warn("logout without revocation store, token stays valid until expiry", "actor_id", s.actor.ID)
		httpx.WriteJSON(w, h.logger, http.StatusOK, map[string]string{"message": "Logged out successfully"})
		return
	}

	ttl := remainingLifetime(s.claims, defaultRevocationTTL)
	if err := h.revoker.Revoke(r.Context(), s.tokenKey, ttl); err != nil {
		h.logger.Error("failed to revoke token", "error", err, "actor_id", s.actor.ID, "role", s.actor.Role, "op", "logout")
		httpx.WriteMessage(w, h.logger, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("user logged out", "actor_id", s.actor.ID, "ttl", ttl.String())
	httpx.WriteJSON(w, h.logger, http.StatusOK, map[string]string{"message": "Logged out successfully"})
}
