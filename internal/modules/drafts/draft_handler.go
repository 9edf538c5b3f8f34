package drafts

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/Rooneyk1907/Delivery-Tracker-Assistant/internal/models"
)

// Handler exposes the draft slot and the manual-entry submit.
type Handler struct {
	svc      ServiceInterface
	validate *validator.Validate
}

// NewHandler creates a new draft handler.
func NewHandler(svc ServiceInterface) *Handler {
	return &Handler{
		svc:      svc,
		validate: validator.New(),
	}
}

// RegisterRoutes mounts the draft routes on the given group.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/drafts/order-entry", h.GetDraft)
	g.PUT("/drafts/order-entry", h.SaveDraft)
	g.DELETE("/drafts/order-entry", h.ClearDraft)
	g.POST("/drafts/order-entry/submit", h.SubmitEntry)
}

func (h *Handler) GetDraft(c echo.Context) error {
	draft, err := h.svc.Load(c.Request().Context())
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return c.JSON(http.StatusNotFound, models.ErrorResponse{Message: "No draft saved"})
		}
		c.Logger().Error("Handler.GetDraft: ", err)
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Message: "Failed to load draft"})
	}
	return c.JSON(http.StatusOK, draft)
}

func (h *Handler) SaveDraft(c echo.Context) error {
	var draft models.OrderEntryDraft
	if err := c.Bind(&draft); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "Invalid request body"})
	}

	if err := h.svc.Save(c.Request().Context(), draft); err != nil {
		c.Logger().Error("Handler.SaveDraft: ", err)
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Message: "Failed to save draft"})
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ClearDraft(c echo.Context) error {
	if err := h.svc.Clear(c.Request().Context()); err != nil {
		c.Logger().Error("Handler.ClearDraft: ", err)
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Message: "Failed to clear draft"})
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) SubmitEntry(c echo.Context) error {
	var req models.ManualEntryRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "Invalid request body"})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "Validation failed: " + err.Error()})
	}
	if _, err := models.ParseClock(req.TotalDuration); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "Validation failed: duration must be HH:MM:SS"})
	}

	stored, err := h.svc.SubmitEntry(c.Request().Context(), req)
	if err != nil {
		c.Logger().Error("Handler.SubmitEntry: ", err)
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Message: "Failed to submit entry"})
	}
	return c.JSON(http.StatusCreated, stored)
}
