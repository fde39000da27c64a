package checkout

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/MomoCodeByte/final-chekelen/internal/auth"
	"github.com/MomoCodeByte/final-chekelen/internal/domain"
	"github.com/MomoCodeByte/final-chekelen/internal/httpx"
)

type Checkouter interface {
	Checkout(ctx context.Context, actor domain.Actor) (*domain.Order, error)
}

type Handler struct {
	engine Checkouter
	logger *slog.Logger
}

func NewHandler(engine Checkouter, logger *slog.Logger) *Handler {
	return &Handler{
		engine: engine,
		logger: logger,
	}
}

type checkoutResponse struct {
	Message string        `json:"message"`
	Order   *domain.Order `json:"order"`
}

func (h *Handler) HandleCheckout(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.ActorFrom(r.Context())
	if !ok {
		httpx.WriteError(w, h.logger, domain.ErrUnauthenticated)
		return
	}

	order, err := h.engine.Checkout(r.Context(), actor)
	if err != nil {
		httpx.WriteError(w, h.logger, err, "actor_id", actor.ID, "role", actor.Role, "op", "checkout")
		return
	}

	httpx.WriteJSON(w, h.logger, http.StatusCreated, checkoutResponse{
		Message: "Order created successfully",
		Order:   order,
	})
}
