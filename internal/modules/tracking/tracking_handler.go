package tracking

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/Rooneyk1907/Delivery-Tracker-Assistant/internal/models"
)

// Handler exposes the shift machine to the presentation layer.
type Handler struct {
	svc      ServiceInterface
	validate *validator.Validate
}

// NewHandler creates a new tracking handler.
func NewHandler(svc ServiceInterface) *Handler {
	return &Handler{
		svc:      svc,
		validate: validator.New(),
	}
}

// RegisterRoutes mounts the live-tracking routes on the given group.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/tracking", h.GetCurrent)
	g.POST("/tracking/start", h.Start)
	g.POST("/tracking/arrive", h.Arrive)
	g.POST("/tracking/depart", h.Depart)
	g.POST("/tracking/deliver", h.Deliver)
	g.POST("/tracking/return", h.Return)
	g.POST("/tracking/new-order", h.NewOrder)
}

func (h *Handler) GetCurrent(c echo.Context) error {
	shift, ok := h.svc.Current()
	if !ok {
		return c.JSON(http.StatusOK, map[string]interface{}{"phase": models.PhaseIdle})
	}
	return c.JSON(http.StatusOK, shift)
}

func (h *Handler) Start(c echo.Context) error {
	return h.begin(c, h.svc.Start)
}

func (h *Handler) NewOrder(c echo.Context) error {
	return h.begin(c, h.svc.NewOrder)
}

func (h *Handler) begin(c echo.Context, start func(ctx context.Context, req models.StartShiftRequest) (*models.ActiveShift, error)) error {
	var req models.StartShiftRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "Invalid request body"})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "Validation failed: " + err.Error()})
	}

	shift, err := start(c.Request().Context(), req)
	if err != nil {
		return h.transitionError(c, err)
	}
	return c.JSON(http.StatusCreated, shift)
}

func (h *Handler) Arrive(c echo.Context) error {
	shift, err := h.svc.ArriveAtRestaurant(c.Request().Context())
	return h.respondTransition(c, shift, err)
}

func (h *Handler) Depart(c echo.Context) error {
	shift, err := h.svc.DepartRestaurant(c.Request().Context())
	return h.respondTransition(c, shift, err)
}

func (h *Handler) Deliver(c echo.Context) error {
	shift, err := h.svc.Deliver(c.Request().Context())
	return h.respondTransition(c, shift, err)
}

func (h *Handler) Return(c echo.Context) error {
	if err := h.svc.ReturnToHotspot(c.Request().Context()); err != nil {
		return h.transitionError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) respondTransition(c echo.Context, shift *models.ActiveShift, err error) error {
	if err != nil {
		return h.transitionError(c, err)
	}
	return c.JSON(http.StatusOK, shift)
}

func (h *Handler) transitionError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, models.ErrInvalidTransition):
		return c.JSON(http.StatusConflict, models.ErrorResponse{Message: "Transition not allowed from current phase"})
	case errors.Is(err, models.ErrNoActiveShift):
		return c.JSON(http.StatusConflict, models.ErrorResponse{Message: "No active shift"})
	default:
		c.Logger().Error("Handler.transition: ", err)
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Message: "Failed to update shift"})
	}
}
