package inventory

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/MomoCodeByte/final-chekelen/internal/auth"
	"github.com/MomoCodeByte/final-chekelen/internal/domain"
	"github.com/MomoCodeByte/final-chekelen/internal/httpx"
)

type CropReader interface {
	ListPublic(ctx context.Context) ([]domain.Crop, error)
	List(ctx context.Context, actor domain.Actor) ([]domain.Crop, error)
	Get(ctx context.Context, actor domain.Actor, id int64) (*domain.Crop, error)
}

type Handler struct {
	crops  CropReader
	logger *slog.Logger
}

func NewHandler(crops CropReader, logger *slog.Logger) *Handler {
	return &Handler{
		crops:  crops,
		logger: logger,
	}
}

func (h *Handler) HandleListPublic(w http.ResponseWriter, r *http.Request) {
	crops, err := h.crops.ListPublic(r.Context())
	if err != nil {
		httpx.WriteError(w, h.logger, err, "op", "list_public_crops")
		return
	}

	httpx.WriteJSON(w, h.logger, http.StatusOK, crops)
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.ActorFrom(r.Context())
	if !ok {
		httpx.WriteError(w, h.logger, domain.ErrUnauthenticated)
		return
	}

	crops, err := h.crops.List(r.Context(), actor)
	if err != nil {
		httpx.WriteError(w, h.logger, err, "actor_id", actor.ID, "role", actor.Role, "op", "list_crops")
		return
	}

	h.logger.Info("crops listed", "actor_id", actor.ID, "count", len(crops))
	httpx.WriteJSON(w, h.logger, http.StatusOK, crops)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.ActorFrom(r.Context())
	if !ok {
		httpx.WriteError(w, h.logger, domain.ErrUnauthenticated)
		return
	}

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.WriteMessage(w, h.logger, http.StatusBadRequest, "invalid crop id")
		return
	}

	crop, err := h.crops.Get(r.Context(), actor, id)
	if err != nil {
		httpx.WriteError(w, h.logger, err, "actor_id", actor.ID, "role", actor.Role, "op", "get_crop", "crop_id", id)
		return
	}

	httpx.WriteJSON(w, h.logger, http.StatusOK, crop)
}
