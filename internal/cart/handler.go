package cart

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/MomoCodeByte/final-chekelen/internal/auth"
	"github.com/MomoCodeByte/final-chekelen/internal/domain"
	"github.com/MomoCodeByte/final-chekelen/internal/httpx"
)

type Store interface {
	AddOrIncrement(ctx context.Context, actor domain.Actor, cropID int64, quantity int) error
	SetQuantity(ctx context.Context, userID, cartItemID int64, quantity int) error
	Remove(ctx context.Context, userID, cartItemID int64) error
	Clear(ctx context.Context, userID int64) error
	Summarize(ctx context.Context, userID int64) (domain.CartSummary, error)
}

type Handler struct {
	store  Store
	logger *slog.Logger
}

func NewHandler(store Store, logger *slog.Logger) *Handler {
	return &Handler{
		store:  store,
		logger: logger,
	}
}

type cartResponse struct {
	Message string             `json:"message"`
	Cart    domain.CartSummary `json:"cart"`
}

type addRequest struct {
	CropID   int64 `json:"crop_id"`
	Quantity int   `json:"quantity"`
}

type quantityRequest struct {
	Quantity int `json:"quantity"`
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	summary, err := h.store.Summarize(r.Context(), actor.ID)
	if err != nil {
		httpx.WriteError(w, h.logger, err, "actor_id", actor.ID, "role", actor.Role, "op", "get_cart")
		return
	}

	httpx.WriteJSON(w, h.logger, http.StatusOK, summary)
}

func (h *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	var req addRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteMessage(w, h.logger, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.store.AddOrIncrement(r.Context(), actor, req.CropID, req.Quantity); err != nil {
		httpx.WriteError(w, h.logger, err, "actor_id", actor.ID, "role", actor.Role, "op", "add_to_cart", "crop_id", req.CropID)
		return
	}

	h.logger.Info("added to cart", "actor_id", actor.ID, "role", actor.Role, "crop_id", req.CropID, "quantity", req.Quantity)
	h.respond(w, r, actor, http.StatusCreated, "Added to cart")
}

func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	id, ok := h.itemID(w, r)
	if !ok {
		return
	}

	var req quantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteMessage(w, h.logger, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.store.SetQuantity(r.Context(), actor.ID, id, req.Quantity); err != nil {
		httpx.WriteError(w, h.logger, err, "actor_id", actor.ID, "role", actor.Role, "op", "update_cart_item", "cart_item_id", id)
		return
	}

	h.logger.Info("cart item updated", "actor_id", actor.ID, "cart_item_id", id, "quantity", req.Quantity)
	h.respond(w, r, actor, http.StatusOK, "Cart item updated")
}

func (h *Handler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	id, ok := h.itemID(w, r)
	if !ok {
		return
	}

	if err := h.store.Remove(r.Context(), actor.ID, id); err != nil {
		httpx.WriteError(w, h.logger, err, "actor_id", actor.ID, "role", actor.Role, "op", "remove_cart_item", "cart_item_id", id)
		return
	}

	h.logger.Info("cart item removed", "actor_id", actor.ID, "cart_item_id", id)
	h.respond(w, r, actor, http.StatusOK, "Removed from cart")
}

func (h *Handler) HandleClear(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	if err := h.store.Clear(r.Context(), actor.ID); err != nil {
		httpx.WriteError(w, h.logger, err, "actor_id", actor.ID, "role", actor.Role, "op", "clear_cart")
		return
	}

	h.logger.Info("cart cleared", "actor_id", actor.ID)
	httpx.WriteJSON(w, h.logger, http.StatusOK, map[string]string{"message": "Cart cleared successfully"})
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, actor domain.Actor, status int, message string) {
	summary, err := h.store.Summarize(r.Context(), actor.ID)
	if err != nil {
		httpx.WriteError(w, h.logger, err, "actor_id", actor.ID, "role", actor.Role, "op", "summarize_cart")
		return
	}
	httpx.WriteJSON(w, h.logger, status, cartResponse{Message: message, Cart: summary})
}

func (h *Handler) actor(w http.ResponseWriter, r *http.Request) (domain.Actor, bool) {
	actor, ok := auth.ActorFrom(r.Context())
	if !ok {
		httpx.WriteError(w, h.logger, domain.ErrUnauthenticated)
		return domain.Actor{}, false
	}
	if !actor.Is(domain.RoleCustomer, domain.RoleFarmer) {
		httpx.WriteError(w, h.logger, domain.ErrForbidden, "actor_id", actor.ID, "role", actor.Role, "op", "cart")
		return domain.Actor{}, false
	}
	return actor, true
}

func (h *Handler) itemID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.WriteMessage(w, h.logger, http.StatusBadRequest, "invalid cart item id")
		return 0, false
	}
	return id, true
}
