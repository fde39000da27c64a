package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/MomoCodeByte/final-chekelen/internal/domain"
	"github.com/MomoCodeByte/final-chekelen/internal/messaging"
)

// Handler mails every farmer whose crops appear in an order.placed event.
type Handler struct {
	directory Directory
	mailer    Mailer
	deduper   Deduper
	logger    *slog.Logger
}

// NewHandler builds a Handler. A nil deduper mails on every delivery.
func NewHandler(directory Directory, mailer Mailer, deduper Deduper, logger *slog.Logger) *Handler {
	return &Handler{
		directory: directory,
		mailer:    mailer,
		deduper:   deduper,
		logger:    logger,
	}
}

func (h *Handler) Handle(ctx context.Context, key string, payload []byte) error {
	var event domain.OrderPlacedEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return messaging.Permanent(fmt.Errorf("unmarshal order placed event %s: %w", key, err))
	}

	farmerIDs := event.FarmerIDs()
	h.logger.Info("processing order placed event", "order_id", event.OrderID, "event_id", event.EventID, "source", event.Source, "farmers", len(farmerIDs))

	emails, err := h.directory.FarmerEmails(ctx, farmerIDs)
	if err != nil {
		return err
	}

	for _, farmerID := range farmerIDs {
		email := emails[farmerID]
		if email == "" {
			h.logger.Warn("skipping farmer without email", "order_id", event.OrderID, "farmer_id", farmerID)
			continue
		}

		if err := h.notify(ctx, event, farmerID, email); err != nil {
			h.logger.Error("failed to notify farmer", "error", err, "order_id", event.OrderID, "farmer_id", farmerID)
			return err
		}
	}

	return nil
}

func (h *Handler) notify(ctx context.Context, event domain.OrderPlacedEvent, farmerID int64, email string) error {
	if h.deduper != nil && event.EventID != "" {
		first, err := h.deduper.Claim(ctx, event.EventID, farmerID)
		if err != nil {
			return err
		}
		if !first {
			h.logger.Info("farmer already notified", "order_id", event.OrderID, "farmer_id", farmerID)
			return nil
		}
	}

	err := h.mailer.Send(ctx, Message{
		To:      email,
		Subject: fmt.Sprintf("New order #%d", event.OrderID),
		Body:    renderBody(event, farmerID),
	})
	if err != nil {
		if h.deduper != nil && event.EventID != "" {
			if relErr := h.deduper.Release(ctx, event.EventID, farmerID); relErr != nil {
				h.logger.Error("failed to release notification claim", "error", relErr, "order_id", event.OrderID, "farmer_id", farmerID)
			}
		}
		return err
	}

	h.logger.Info("farmer notified", "order_id", event.OrderID, "farmer_id", farmerID)
	return nil
}

// renderBody lists only the lines for farmerID's crops.
func renderBody(event domain.OrderPlacedEvent, farmerID int64) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Order #%d was placed with the following items from your farm:\n\n", event.OrderID)
	for _, item := range event.Items {
		if item.FarmerID != farmerID {
			continue
		}
		fmt.Fprintf(&b, "- %s x%d @ %s = %s\n", item.Name, item.Quantity, item.UnitPrice, item.LineTotal)
	}
	fmt.Fprintf(&b, "\nPlaced at %s.\n", event.Timestamp.Format("2006-01-02 15:04 MST"))
	return b.String()
}
