package handlers

import (
	"net/http"

	"github.com/tphummel/lab_post/internal/metrics"
	"github.com/tphummel/lab_post/internal/middleware"
)

// Routes registers every endpoint on a new mux. Routes under /api/v1 require
// the bearer token; each is instrumented with its pattern as the metrics
// path label.
func (h *Handler) Routes(token string) *http.ServeMux {
	mux := http.NewServeMux()

	// Health check, metrics and docs: no auth
	mux.HandleFunc("GET /healthz", h.Health)
	mux.Handle("GET /metrics", metrics.Handler())
	mux.HandleFunc("GET "+specPath, OpenAPISpec)
	mux.HandleFunc("GET /docs", Docs)

	api := []struct {
		pattern string
		handler http.HandlerFunc
	}{
		{"POST /api/v1/boots", h.CreateBoot},
		{"GET /api/v1/boots", h.ListBoots},
		{"GET /api/v1/boots/{id}", h.GetBoot},
		{"DELETE /api/v1/boots/{id}", h.DeleteBoot},
	}
	for _, route := range api {
		mux.Handle(route.pattern, metrics.Middleware(route.pattern, middleware.Auth(token, route.handler)))
	}
	return mux
}
