package main

import (
	"log/slog"
	"net/http"

	"github.com/MomoCodeByte/final-chekelen/internal/auth"
	"github.com/MomoCodeByte/final-chekelen/internal/cart"
	"github.com/MomoCodeByte/final-chekelen/internal/checkout"
	"github.com/MomoCodeByte/final-chekelen/internal/domain"
	"github.com/MomoCodeByte/final-chekelen/internal/inventory"
	"github.com/MomoCodeByte/final-chekelen/internal/orders"
	"github.com/MomoCodeByte/final-chekelen/internal/telemetry"
)

type handlers struct {
	crops    *inventory.Handler
	cart     *cart.Handler
	checkout *checkout.Handler
	orders   *orders.Handler
	logout   *auth.LogoutHandler
	metrics  http.Handler
}

func newRouter(h handlers, authn *auth.Middleware, logger *slog.Logger) http.Handler {
	shoppers := auth.RequireRoles(logger, domain.RoleCustomer, domain.RoleFarmer)
	farmers := auth.RequireRoles(logger, domain.RoleFarmer)
	staff := auth.RequireRoles(logger, domain.RoleAdmin, domain.RoleFarmer)

	api := http.NewServeMux()
	api.HandleFunc("GET /api/cart", telemetry.WithHTTPRoute(shoppers(h.cart.HandleGet)))
	api.HandleFunc("POST /api/cart", telemetry.WithHTTPRoute(shoppers(h.cart.HandleAdd)))
	api.HandleFunc("PUT /api/cart/{id}", telemetry.WithHTTPRoute(shoppers(h.cart.HandleUpdate)))
	api.HandleFunc("DELETE /api/cart/{id}", telemetry.WithHTTPRoute(shoppers(h.cart.HandleRemove)))
	api.HandleFunc("DELETE /api/cart", telemetry.WithHTTPRoute(shoppers(h.cart.HandleClear)))
	api.HandleFunc("POST /api/cart/checkout", telemetry.WithHTTPRoute(shoppers(h.checkout.HandleCheckout)))

	api.HandleFunc("GET /api/orders", telemetry.WithHTTPRoute(h.orders.HandleList))
	api.HandleFunc("GET /api/orders/{id}", telemetry.WithHTTPRoute(h.orders.HandleGet))
	api.HandleFunc("POST /api/orders", telemetry.WithHTTPRoute(shoppers(h.orders.HandleCreate)))
	api.HandleFunc("PUT /api/orders/{id}", telemetry.WithHTTPRoute(farmers(h.orders.HandleUpdate)))
	api.HandleFunc("PUT /api/orders/{id}/status", telemetry.WithHTTPRoute(staff(h.orders.HandleUpdateStatus)))
	api.HandleFunc("DELETE /api/orders/{id}", telemetry.WithHTTPRoute(shoppers(h.orders.HandleDelete)))

	api.HandleFunc("GET /api/crops", telemetry.WithHTTPRoute(h.crops.HandleList))
	api.HandleFunc("GET /api/crops/{id}", telemetry.WithHTTPRoute(h.crops.HandleGet))

	api.HandleFunc("POST /api/users/logout", telemetry.WithHTTPRoute(h.logout.HandleLogout))

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if h.metrics != nil {
		mux.Handle("GET /metrics", h.metrics)
	}
	mux.HandleFunc("GET /api/crops/public", telemetry.WithHTTPRoute(h.crops.HandleListPublic))
	mux.Handle("/api/", authn.Authenticate(api))

	return mux
}
