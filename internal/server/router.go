package server

import (
	"context"
	"net/http"

	"stockbook/internal/handlers"
	applog "stockbook/internal/log"
)

func newRouter() http.Handler {
	mux := http.NewServeMux()
	applog.Debug(context.Background(), "registering http routes")

	mux.HandleFunc("/healthz", handlers.Health)
	mux.HandleFunc("/signup", handlers.Signup)
	mux.HandleFunc("/login", handlers.Login)
	mux.HandleFunc("/logout", handlers.Logout)

	protected := func(h http.HandlerFunc) http.Handler {
		return handlers.RequireAuthentication(h)
	}

	mux.Handle("/api/session", protected(handlers.Session))
	mux.Handle("/api/session/password", protected(handlers.ChangePassword))
	mux.Handle("/api/businesses", protected(handlers.CreateBusiness))
	mux.Handle("/api/businesses/join", protected(handlers.JoinBusiness))
	mux.Handle("/api/items", protected(handlers.ItemResource))
	mux.Handle("/api/items/", protected(handlers.ItemResource))
	mux.Handle("/api/logs", protected(handlers.InventoryLogResource))
	mux.Handle("/api/logs/", protected(handlers.InventoryLogResource))
	mux.Handle("/api/templates", protected(handlers.TemplateResource))
	mux.Handle("/api/orders", protected(handlers.OrderResource))
	mux.Handle("/api/orders/", protected(handlers.OrderResource))
	mux.Handle("/api/reports", protected(handlers.ReportResource))
	mux.Handle("/api/reports/", protected(handlers.ReportResource))
	mux.Handle("/api/shopping", protected(handlers.ShoppingResource))
	mux.Handle("/api/shopping/", protected(handlers.ShoppingResource))
	mux.Handle("/api/dashboard/stats", protected(handlers.DashboardStats))
	mux.Handle("/api/tools/import-items", protected(handlers.ImportStockSheet))

	applog.Debug(context.Background(), "http routes registered")
	return mux
}
