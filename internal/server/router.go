package server

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"larder/internal/handlers"
	applog "larder/internal/log"
)

func newRouter(exposeMetrics bool) http.Handler {
	mux := http.NewServeMux()
	applog.Debug(context.Background(), "registering http routes")
	mux.HandleFunc("/healthz", handlers.Health)
	applog.Debug(context.Background(), "route registered", "path", "/healthz")

	resources := []struct {
		path    string
		handler http.HandlerFunc
	}{
		{"/api/ingredients", handlers.IngredientResource},
		{"/api/stock-receipts", handlers.StockReceiptResource},
		{"/api/recipes", handlers.RecipeResource},
		{"/api/orders", handlers.OrderResource},
	}
	for _, resource := range resources {
		mux.HandleFunc(resource.path, resource.handler)
		mux.HandleFunc(resource.path+"/", resource.handler)
		applog.Debug(context.Background(), "route registered", "path", resource.path)
	}

	mux.HandleFunc("/api/stock-report", handlers.StockReport)
	applog.Debug(context.Background(), "route registered", "path", "/api/stock-report")

	if exposeMetrics {
		mux.Handle("/metrics", promhttp.Handler())
		applog.Debug(context.Background(), "route registered", "path", "/metrics")
	}
	return mux
}
