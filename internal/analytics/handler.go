package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/joao-fontenele/sokonova-analytics/internal/domain"
)

const maxQueryLimit = 500

type EventPublisher interface {
	Publish(ctx context.Context, key, eventType string, event any) error
}

type Handler struct {
	service   *Service
	publisher EventPublisher
	logger    *slog.Logger
}

// NewHandler builds the HTTP layer. publisher may be nil, in which case
// generated campaigns are returned but not announced.
func NewHandler(service *Service, publisher EventPublisher, logger *slog.Logger) *Handler {
	return &Handler{
		service:   service,
		publisher: publisher,
		logger:    logger,
	}
}

func (h *Handler) RegisterRoutes(mux *http.ServeMux, wrap func(http.HandlerFunc) http.HandlerFunc) {
	if wrap == nil {
		wrap = func(f http.HandlerFunc) http.HandlerFunc { return f }
	}

	const base = "/analytics/seller/{sellerId}"
	mux.HandleFunc("GET "+base+"/profitability", wrap(h.HandleProfitability))
	mux.HandleFunc("GET "+base+"/orders", wrap(h.HandleOrders))
	mux.HandleFunc("GET "+base+"/recent-orders", wrap(h.HandleRecentOrders))
	mux.HandleFunc("POST "+base+"/simulate-pricing", wrap(h.HandleSimulatePricing))
	mux.HandleFunc("GET "+base+"/inventory/velocity", wrap(h.HandleInventoryVelocity))
	mux.HandleFunc("GET "+base+"/inventory/risk", wrap(h.HandleInventoryRisk))
	mux.HandleFunc("GET "+base+"/inventory/aging", wrap(h.HandleAgingInventory))
	mux.HandleFunc("GET "+base+"/inventory/stockout", wrap(h.HandleStockoutPredictions))
	mux.HandleFunc("POST "+base+"/inventory/recommendations", wrap(h.HandleRecommendations))
	mux.HandleFunc("GET "+base+"/buyers/cohorts", wrap(h.HandleBuyerCohorts))
	mux.HandleFunc("GET "+base+"/buyers/segments", wrap(h.HandleBuyerSegments))
	mux.HandleFunc("POST "+base+"/campaigns", wrap(h.HandleCreateCampaign))
	mux.HandleFunc("GET "+base+"/top-products", wrap(h.HandleTopProducts))
}

func (h *Handler) HandleProfitability(w http.ResponseWriter, r *http.Request) {
	sellerID, ok := h.sellerID(w, r)
	if !ok {
		return
	}

	metrics, err := h.service.ProfitabilityMetrics(r.Context(), sellerID)
	if err != nil {
		h.fail(w, "failed to compute profitability", sellerID, err)
		return
	}

	h.logger.Info("profitability computed", "seller_id", sellerID, "order_count", metrics.OrderCount)
	h.writeJSON(w, http.StatusOK, metrics)
}

func (h *Handler) HandleOrders(w http.ResponseWriter, r *http.Request) {
	h.listOrders(w, r, h.service.OrdersWithFees)
}

func (h *Handler) HandleRecentOrders(w http.ResponseWriter, r *http.Request) {
	h.listOrders(w, r, h.service.RecentOrders)
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request, list func(context.Context, string, int) ([]OrderWithFees, error)) {
	sellerID, ok := h.sellerID(w, r)
	if !ok {
		return
	}
	limit, ok := h.limit(w, r)
	if !ok {
		return
	}

	orders, err := list(r.Context(), sellerID, limit)
	if err != nil {
		h.fail(w, "failed to list orders", sellerID, err)
		return
	}

	h.logger.Info("orders listed", "seller_id", sellerID, "count", len(orders))
	h.writeJSON(w, http.StatusOK, orders)
}

func (h *Handler) HandleSimulatePricing(w http.ResponseWriter, r *http.Request) {
	sellerID, ok := h.sellerID(w, r)
	if !ok {
		return
	}

	var scenario PricingScenario
	if !h.decode(w, r, &scenario) {
		return
	}

	result, err := h.service.SimulatePricingScenario(r.Context(), sellerID, scenario)
	if err != nil {
		h.fail(w, "failed to simulate pricing", sellerID, err)
		return
	}

	h.logger.Info("pricing simulated", "seller_id", sellerID)
	h.writeJSON(w, http.StatusOK, result)
}

func (h *Handler) HandleInventoryVelocity(w http.ResponseWriter, r *http.Request) {
	sellerID, ok := h.sellerID(w, r)
	if !ok {
		return
	}

	report, err := h.service.InventoryVelocity(r.Context(), sellerID)
	if err != nil {
		h.fail(w, "failed to compute inventory velocity", sellerID, err)
		return
	}

	h.logger.Info("inventory velocity computed", "seller_id", sellerID, "count", len(report.Products))
	h.writeJSON(w, http.StatusOK, report)
}

func (h *Handler) HandleInventoryRisk(w http.ResponseWriter, r *http.Request) {
	sellerID, ok := h.sellerID(w, r)
	if !ok {
		return
	}

	report, err := h.service.InventoryRisk(r.Context(), sellerID)
	if err != nil {
		h.fail(w, "failed to compute inventory risk", sellerID, err)
		return
	}

	h.logger.Info("inventory risk computed", "seller_id", sellerID, "count", len(report.Products))
	h.writeJSON(w, http.StatusOK, report)
}

func (h *Handler) HandleAgingInventory(w http.ResponseWriter, r *http.Request) {
	sellerID, ok := h.sellerID(w, r)
	if !ok {
		return
	}

	items, err := h.service.AgingInventory(r.Context(), sellerID)
	if err != nil {
		h.fail(w, "failed to list aging inventory", sellerID, err)
		return
	}

	h.logger.Info("aging inventory listed", "seller_id", sellerID, "count", len(items))
	h.writeJSON(w, http.StatusOK, items)
}

func (h *Handler) HandleStockoutPredictions(w http.ResponseWriter, r *http.Request) {
	sellerID, ok := h.sellerID(w, r)
	if !ok {
		return
	}

	predictions, err := h.service.StockoutPredictions(r.Context(), sellerID)
	if err != nil {
		h.fail(w, "failed to predict stockouts", sellerID, err)
		return
	}

	h.logger.Info("stockouts predicted", "seller_id", sellerID, "count", len(predictions))
	h.writeJSON(w, http.StatusOK, predictions)
}

type recommendationsRequest struct {
	ProductID string `json:"productId"`
}

func (h *Handler) HandleRecommendations(w http.ResponseWriter, r *http.Request) {
	sellerID, ok := h.sellerID(w, r)
	if !ok {
		return
	}

	var req recommendationsRequest
	if !h.decode(w, r, &req) {
		return
	}

	recs, err := h.service.GenerateInventoryRecommendations(r.Context(), sellerID, req.ProductID)
	if err != nil {
		h.fail(w, "failed to generate recommendations", sellerID, err)
		return
	}

	h.logger.Info("recommendations generated", "seller_id", sellerID, "count", len(recs))
	h.writeJSON(w, http.StatusOK, recs)
}

func (h *Handler) HandleBuyerCohorts(w http.ResponseWriter, r *http.Request) {
	sellerID, ok := h.sellerID(w, r)
	if !ok {
		return
	}

	cohorts, err := h.service.BuyerCohorts(r.Context(), sellerID)
	if err != nil {
		h.fail(w, "failed to compute buyer cohorts", sellerID, err)
		return
	}

	h.logger.Info("buyer cohorts computed", "seller_id", sellerID, "count", len(cohorts))
	h.writeJSON(w, http.StatusOK, cohorts)
}

func (h *Handler) HandleBuyerSegments(w http.ResponseWriter, r *http.Request) {
	sellerID, ok := h.sellerID(w, r)
	if !ok {
		return
	}

	segments, err := h.service.BuyerSegments(r.Context(), sellerID)
	if err != nil {
		h.fail(w, "failed to compute buyer segments", sellerID, err)
		return
	}

	h.logger.Info("buyer segments computed", "seller_id", sellerID)
	h.writeJSON(w, http.StatusOK, segments)
}

type createCampaignRequest struct {
	SegmentID string `json:"segmentId"`
	CampaignParams
}

func (h *Handler) HandleCreateCampaign(w http.ResponseWriter, r *http.Request) {
	sellerID, ok := h.sellerID(w, r)
	if !ok {
		return
	}

	var req createCampaignRequest
	if !h.decode(w, r, &req) {
		return
	}

	campaign, err := h.service.GenerateDiscountCampaign(r.Context(), sellerID, req.SegmentID, req.CampaignParams)
	if err != nil {
		h.fail(w, "failed to generate campaign", sellerID, err)
		return
	}

	if h.publisher != nil {
		event := domain.CampaignCreatedEvent{
			Campaign:  campaign,
			Timestamp: campaign.CreatedAt,
		}
		if err := h.publisher.Publish(r.Context(), sellerID, domain.EventTypeCampaignCreated, event); err != nil {
			h.logger.Error("failed to publish campaign created event", "error", err, "campaign_id", campaign.ID)
		}
	}

	h.logger.Info("campaign generated", "seller_id", sellerID, "campaign_id", campaign.ID, "segment_id", campaign.SegmentID)
	h.writeJSON(w, http.StatusCreated, campaign)
}

func (h *Handler) HandleTopProducts(w http.ResponseWriter, r *http.Request) {
	sellerID, ok := h.sellerID(w, r)
	if !ok {
		return
	}
	limit, ok := h.limit(w, r)
	if !ok {
		return
	}

	products, err := h.service.TopSellingProducts(r.Context(), sellerID, limit)
	if err != nil {
		h.fail(w, "failed to list top products", sellerID, err)
		return
	}

	h.logger.Info("top products listed", "seller_id", sellerID, "count", len(products))
	h.writeJSON(w, http.StatusOK, products)
}

func (h *Handler) sellerID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := strings.TrimSpace(r.PathValue("sellerId"))
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "missing seller id")
		return "", false
	}
	return id, true
}

// limit returns 0 when the query has no limit so the service default applies.
func (h *Handler) limit(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 || n > maxQueryLimit {
		h.writeError(w, http.StatusBadRequest, "limit must be an integer between 1 and 500")
		return 0, false
	}
	return n, true
}

// decode tolerates an empty body; every request type has usable zero values.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func (h *Handler) fail(w http.ResponseWriter, msg, sellerID string, err error) {
	if errors.Is(err, ErrInvalidScenario) || errors.Is(err, ErrInvalidCampaign) {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.logger.Error(msg, "error", err, "seller_id", sellerID)
	h.writeError(w, http.StatusInternalServerError, "internal server error")
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
