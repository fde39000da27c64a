package auth

import (
	"log/slog"
	"net/http"

	"github.com/MomoCodeByte/final-chekelen/internal/domain"
	"github.com/MomoCodeByte/final-chekelen/internal/httpx"
)

type Middleware struct {
	parser  *TokenParser
	revoker Revoker
	logger  *slog.Logger
}

// NewMiddleware builds the authentication middleware. A nil revoker
// disables revocation checks.
func NewMiddleware(parser *TokenParser, revoker Revoker, logger *slog.Logger) *Middleware {
	return &Middleware{
		parser:  parser,
		revoker: revoker,
		logger:  logger,
	}
}

func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := TokenFromHeader(r.Header.Get("Authorization"))
		if raw == "" {
			httpx.WriteMessage(w, m.logger, http.StatusUnauthorized, "no token provided")
			return
		}

		claims, err := m.parser.Parse(raw)
		if err != nil {
			m.logger.Info("rejected token", "error", err, "path", r.URL.Path)
			httpx.WriteMessage(w, m.logger, http.StatusUnauthorized, "invalid token")
			return
		}

		key := revocationKey(claims, raw)
		if m.revoker != nil {
			revoked, err := m.revoker.IsRevoked(r.Context(), key)
			if err != nil {
				m.logger.Error("failed to check token revocation", "error", err, "actor_id", claims.UserID)
				httpx.WriteMessage(w, m.logger, http.StatusInternalServerError, "internal server error")
				return
			}
			if revoked {
				httpx.WriteMessage(w, m.logger, http.StatusUnauthorized, "token has been revoked")
				return
			}
		}

		ctx := withSession(r.Context(), session{
			actor:    domain.Actor{ID: claims.UserID, Role: claims.Role},
			claims:   claims,
			tokenKey: key,
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRoles rejects callers whose role is not listed.
func RequireRoles(logger *slog.Logger, roles ...domain.Role) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			actor, ok := ActorFrom(r.Context())
			if !ok {
				httpx.WriteError(w, logger, domain.ErrUnauthenticated)
				return
			}
			if !actor.Is(roles...) {
				httpx.WriteError(w, logger, domain.ErrForbidden, "actor_id", actor.ID, "role", actor.Role, "path", r.URL.Path)
				return
			}
			next(w, r)
		}
	}
}
