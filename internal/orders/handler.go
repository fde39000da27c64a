package orders

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
	CreateForCustomer(ctx context.Context, actor domain.Actor, customer domain.OptionalID, items []domain.ItemInput) (*domain.Order, error)
	Update(ctx context.Context, actor domain.Actor, orderID int64, customer domain.OptionalID, items []domain.ItemInput) (*domain.Order, error)
	List(ctx context.Context, actor domain.Actor) ([]domain.Order, error)
	Get(ctx context.Context, actor domain.Actor, orderID int64) (*domain.Order, error)
	UpdateStatus(ctx context.Context, actor domain.Actor, orderID int64, status domain.OrderStatus) (*domain.Order, error)
	Delete(ctx context.Context, actor domain.Actor, orderID int64) error
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

type orderRequest struct {
	CustomerID domain.OptionalID  `json:"customer_id"`
	Items      []domain.ItemInput `json:"items"`
}

type statusRequest struct {
	Status domain.OrderStatus `json:"order_status"`
}

type orderResponse struct {
	Message string        `json:"message"`
	Order   *domain.Order `json:"order"`
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	orders, err := h.store.List(r.Context(), actor)
	if err != nil {
		httpx.WriteError(w, h.logger, err, "actor_id", actor.ID, "role", actor.Role, "op", "list_orders")
		return
	}

	httpx.WriteJSON(w, h.logger, http.StatusOK, orders)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	id, ok := h.orderID(w, r)
	if !ok {
		return
	}

	order, err := h.store.Get(r.Context(), actor, id)
	if err != nil {
		httpx.WriteError(w, h.logger, err, "actor_id", actor.ID, "role", actor.Role, "op", "get_order", "order_id", id)
		return
	}

	httpx.WriteJSON(w, h.logger, http.StatusOK, order)
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	var req orderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteMessage(w, h.logger, http.StatusBadRequest, "invalid request body")
		return
	}

	order, err := h.store.CreateForCustomer(r.Context(), actor, req.CustomerID, req.Items)
	if err != nil {
		httpx.WriteError(w, h.logger, err, "actor_id", actor.ID, "role", actor.Role, "op", "create_order")
		return
	}

	httpx.WriteJSON(w, h.logger, http.StatusCreated, orderResponse{Message: "Order created successfully", Order: order})
}

func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	id, ok := h.orderID(w, r)
	if !ok {
		return
	}

	var req orderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteMessage(w, h.logger, http.StatusBadRequest, "invalid request body")
		return
	}

	order, err := h.store.Update(r.Context(), actor, id, req.CustomerID, req.Items)
	if err != nil {
		httpx.WriteError(w, h.logger, err, "actor_id", actor.ID, "role", actor.Role, "op", "update_order", "order_id", id)
		return
	}

	httpx.WriteJSON(w, h.logger, http.StatusOK, orderResponse{Message: "Order updated successfully", Order: order})
}

func (h *Handler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	id, ok := h.orderID(w, r)
	if !ok {
		return
	}

	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteMessage(w, h.logger, http.StatusBadRequest, "invalid request body")
		return
	}

	order, err := h.store.UpdateStatus(r.Context(), actor, id, req.Status)
	if err != nil {
		httpx.WriteError(w, h.logger, err, "actor_id", actor.ID, "role", actor.Role, "op", "update_order_status", "order_id", id, "status", req.Status)
		return
	}

	httpx.WriteJSON(w, h.logger, http.StatusOK, orderResponse{Message: "Order status updated successfully", Order: order})
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	id, ok := h.orderID(w, r)
	if !ok {
		return
	}

	if err := h.store.Delete(r.Context(), actor, id); err != nil {
		httpx.WriteError(w, h.logger, err, "actor_id", actor.ID, "role", actor.Role, "op", "delete_order", "order_id", id)
		return
	}

	httpx.WriteJSON(w, h.logger, http.StatusOK, map[string]string{"message": "Order deleted successfully"})
}

func (h *Handler) actor(w http.ResponseWriter, r *http.Request) (domain.Actor, bool) {
	actor, ok := auth.ActorFrom(r.Context())
	if !ok {
		httpx.WriteError(w, h.logger, domain.ErrUnauthenticated)
		return domain.Actor{}, false
	}
	return actor, true
}

func (h *Handler) orderID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.WriteMessage(w, h.logger, http.StatusBadRequest, "invalid order id")
		return 0, false
	}
	return id, true
}
