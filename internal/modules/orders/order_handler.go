package orders

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/Rooneyk1907/Delivery-Tracker-Assistant/internal/models"
)

// Handler handles HTTP requests for the order history surface.
type Handler struct {
	svc      ServiceInterface
	validate *validator.Validate
}

// NewHandler creates a new order handler.
func NewHandler(svc ServiceInterface) *Handler {
	return &Handler{
		svc:      svc,
		validate: validator.New(),
	}
}

// RegisterRoutes mounts the order store routes on the given group.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/orders", h.AddOrder)
	g.GET("/orders", h.ListOrders)
	g.GET("/orders/:orderId", h.GetOrder)
	g.PATCH("/orders/:orderId", h.UpdateOrder)
	g.DELETE("/orders/:orderId", h.RemoveOrder)
	g.DELETE("/orders", h.ClearAll)
}

// AddOrder stores a full order document exactly as submitted.
func (h *Handler) AddOrder(c echo.Context) error {
	var req models.Order
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "Invalid request body"})
	}
	if err := h.validate.Var(req.Service, "required,oneof=GrubHub DoorDash UberEats"); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "Validation failed: unknown service"})
	}
	if req.Pay < 0 || req.Miles < 0 {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "Pay and miles must be non-negative"})
	}

	stored, err := h.svc.Add(c.Request().Context(), req)
	if err != nil {
		c.Logger().Error("Handler.AddOrder: ", err)
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Message: "Failed to save order"})
	}
	return c.JSON(http.StatusCreated, stored)
}

func (h *Handler) ListOrders(c echo.Context) error {
	records, err := h.svc.List(c.Request().Context())
	if err != nil {
		c.Logger().Error("Handler.ListOrders: ", err)
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Message: "Failed to retrieve orders"})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"orders": records, "total": len(records)})
}

func (h *Handler) GetOrder(c echo.Context) error {
	record, err := h.svc.Get(c.Request().Context(), c.Param("orderId"))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return c.JSON(http.StatusNotFound, models.ErrorResponse{Message: "Order not found"})
		}
		c.Logger().Error("Handler.GetOrder: ", err)
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Message: "Failed to retrieve order"})
	}
	return c.JSON(http.StatusOK, record)
}

func (h *Handler) UpdateOrder(c echo.Context) error {
	var patch models.OrderPatch
	if err := c.Bind(&patch); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "Invalid request body"})
	}

	record, err := h.svc.Update(c.Request().Context(), c.Param("orderId"), patch)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return c.JSON(http.StatusNotFound, models.ErrorResponse{Message: "Order not found"})
		}
		c.Logger().Error("Handler.UpdateOrder: ", err)
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Message: "Failed to update order"})
	}
	return c.JSON(http.StatusOK, record)
}

func (h *Handler) RemoveOrder(c echo.Context) error {
	if err := h.svc.Remove(c.Request().Context(), c.Param("orderId")); err != nil {
		c.Logger().Error("Handler.RemoveOrder: ", err)
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Message: "Failed to remove order"})
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ClearAll(c echo.Context) error {
	if err := h.svc.ClearAll(c.Request().Context()); err != nil {
		c.Logger().Error("Handler.ClearAll: ", err)
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Message: "Failed to clear orders"})
	}
	return c.NoContent(http.StatusNoContent)
}
