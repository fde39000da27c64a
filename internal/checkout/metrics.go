package checkout

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/MomoCodeByte/final-chekelen/internal/domain"
)

type Metrics struct {
	attempts metric.Int64Counter
	totals   metric.Float64Histogram
}

// NewMetrics registers the checkout instruments on the global meter provider.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter("checkout")

	attempts, err := meter.Int64Counter("checkout.attempts",
		metric.WithDescription("Checkout attempts by outcome"),
	)
	if err != nil {
		return nil, err
	}

	totals, err := meter.Float64Histogram("checkout.order_total",
		metric.WithDescription("Total price of orders placed through checkout"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{attempts: attempts, totals: totals}, nil
}

func (m *Metrics) record(ctx context.Context, order *domain.Order, err error) {
	if m == nil {
		return
	}

	outcome := "success"
	if err != nil {
		outcome = string(domain.KindOf(err))
	}
	m.attempts.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))

	if order != nil {
		total, _ := order.TotalPrice.Float64()
		m.totals.Record(ctx, total)
	}
}
