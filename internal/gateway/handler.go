package gateway

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
)

// PublicPrefix is stripped before requests reach the analytics service.
const PublicPrefix = "/api/v1"

var analyticsRoutes = []string{
	"GET /analytics/seller/{sellerId}/profitability",
	"GET /analytics/seller/{sellerId}/orders",
	"GET /analytics/seller/{sellerId}/recent-orders",
	"POST /analytics/seller/{sellerId}/simulate-pricing",
	"GET /analytics/seller/{sellerId}/inventory/velocity",
	"GET /analytics/seller/{sellerId}/inventory/risk",
	"GET /analytics/seller/{sellerId}/inventory/aging",
	"GET /analytics/seller/{sellerId}/inventory/stockout",
	"POST /analytics/seller/{sellerId}/inventory/recommendations",
	"GET /analytics/seller/{sellerId}/buyers/cohorts",
	"GET /analytics/seller/{sellerId}/buyers/segments",
	"POST /analytics/seller/{sellerId}/campaigns",
	"GET /analytics/seller/{sellerId}/top-products",
}

type Handler struct {
	analyticsProxy *ServiceProxy
	logger         *slog.Logger
}

func NewHandler(analyticsProxy *ServiceProxy, logger *slog.Logger) *Handler {
	return &Handler{
		analyticsProxy: analyticsProxy,
		logger:         logger,
	}
}

// RegisterRoutes mounts every analytics route under PublicPrefix. wrap is
// applied to each route handler, innermost last.
func (h *Handler) RegisterRoutes(mux *http.ServeMux, wrap ...func(http.HandlerFunc) http.HandlerFunc) {
	for _, route := range analyticsRoutes {
		method, path, _ := strings.Cut(route, " ")
		handler := h.HandleAnalytics
		for i := len(wrap) - 1; i >= 0; i-- {
			handler = wrap[i](handler)
		}
		mux.HandleFunc(method+" "+PublicPrefix+path, handler)
	}
}

func (h *Handler) HandleAnalytics(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, PublicPrefix)
	h.proxyRequest(w, r, h.analyticsProxy, path)
}

func (h *Handler) proxyRequest(w http.ResponseWriter, r *http.Request, proxy *ServiceProxy, path string) {
	resp, err := proxy.ForwardRequest(r.Context(), r, path)
	if err != nil {
		h.logger.Error("failed to forward request", "error", err, "path", path)
		h.writeError(w, http.StatusBadGateway, "service unavailable")
		return
	}
	defer func() { _ = resp.Body.Close() }()

	if contentType := resp.Header.Get("Content-Type"); contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}

	w.WriteHeader(resp.StatusCode)

	h.logger.Info("request proxied", "method", r.Method, "path", path, "status", resp.StatusCode)

	if _, err := io.Copy(w, resp.Body); err != nil {
		h.logger.Error("failed to copy response body", "error", err)
	}
}

func writeJSONError(w http.ResponseWriter, logger *slog.Logger, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(map[string]string{"error": message}); err != nil {
		logger.Error("failed to encode error response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	writeJSONError(w, h.logger, status, message)
}
