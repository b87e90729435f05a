package scheduling

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/esaha/esaha/internal/domain/appointment"
	"github.com/esaha/esaha/internal/domain/specialist"
)

// Handler exposes the calendar, availability and booking endpoints.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/calendar", h.monthGrid)
	g.GET("/specialists/:id/available-dates", h.availableDates)
	g.GET("/specialists/:id/available-slots", h.availableSlots)
	g.POST("/appointments", h.book)
}

// yearMonth parses ?year= and ?month=, defaulting to the current month.
// Month values outside 1..12 are accepted and normalized downstream.
func yearMonth(c echo.Context) (int, int, error) {
	now := time.Now()
	year, month := now.Year(), int(now.Month())

	if v := c.QueryParam("year"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, 0, echo.NewHTTPError(http.StatusBadRequest, "invalid year")
		}
		year = n
	}
	if v := c.QueryParam("month"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, 0, echo.NewHTTPError(http.StatusBadRequest, "invalid month")
		}
		month = n
	}
	return year, month, nil
}

func (h *Handler) monthGrid(c echo.Context) error {
	year, month, err := yearMonth(c)
	if err != nil {
		return err
	}
	grid, err := h.svc.MonthGrid(c.Request().Context(), year, month)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to build calendar")
	}
	return c.JSON(http.StatusOK, grid)
}

func (h *Handler) availableDates(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid specialist id")
	}
	year, month, err := yearMonth(c)
	if err != nil {
		return err
	}
	dates, err := h.svc.AvailableDates(c.Request().Context(), id, year, month)
	if errors.Is(err, specialist.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "specialist not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to compute availability")
	}
	return c.JSON(http.StatusOK, map[string]any{"dates": dates})
}

func (h *Handler) availableSlots(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid specialist id")
	}
	date := c.QueryParam("date")
	if date == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "date query parameter is required")
	}
	slots, err := h.svc.AvailableTimeSlots(c.Request().Context(), id, date)
	if errors.Is(err, specialist.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "specialist not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]any{"slots": slots})
}

func (h *Handler) book(c echo.Context) error {
	var req BookRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	idempotencyKey := c.Request().Header.Get("Idempotency-Key")

	a, err := h.svc.Book(c.Request().Context(), req, idempotencyKey)
	switch {
	case err == nil:
		return c.JSON(http.StatusCreated, a)
	case errors.Is(err, specialist.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "specialist not found")
	case errors.Is(err, appointment.ErrConflict):
		return echo.NewHTTPError(http.StatusConflict, "time slot is no longer available")
	case errors.Is(err, ErrSlotInvalid):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
}
