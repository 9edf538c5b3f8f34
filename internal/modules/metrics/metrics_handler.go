package metrics

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Rooneyk1907/Delivery-Tracker-Assistant/internal/models"
)

// OrderLister is the slice of the order service the dashboard needs.
type OrderLister interface {
	List(ctx context.Context) ([]*models.StoredOrder, error)
}

// Handler serves the dashboard aggregate.
type Handler struct {
	orders      OrderLister
	costPerMile float64
}

// NewHandler creates a new metrics handler.
func NewHandler(orders OrderLister, costPerMile float64) *Handler {
	if costPerMile <= 0 {
		costPerMile = DefaultCostPerMile
	}
	return &Handler{orders: orders, costPerMile: costPerMile}
}

// RegisterRoutes mounts the dashboard route on the given group.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/dashboard/metrics", h.GetMetrics)
}

func (h *Handler) GetMetrics(c echo.Context) error {
	records, err := h.orders.List(c.Request().Context())
	if err != nil {
		c.Logger().Error("Handler.GetMetrics: ", err)
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Message: "Failed to compute metrics"})
	}
	summary := Compute(records, h.costPerMile)
	return c.JSON(http.StatusOK, map[string]interface{}{
		"summary":  summary,
		"idleTime": FormatIdleMinutes(summary.IdleMinutes),
	})
}
