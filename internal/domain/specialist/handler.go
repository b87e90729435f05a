package specialist

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/esaha/esaha/internal/platform/auth"
	"github.com/esaha/esaha/pkg/pagination"
)

// Handler exposes the specialist directory over HTTP.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/specialists", h.list)
	g.GET("/specialists/:id", h.get)
	g.GET("/specialists/:id/availability", h.availability)

	admin := g.Group("", auth.RequireRole(auth.RoleAdmin))
	admin.POST("/specialists", h.create)
	admin.PUT("/specialists/:id", h.update)

	manage := g.Group("", auth.RequireRole(auth.RoleSpecialist))
	manage.PUT("/specialists/:id/availability", h.setAvailability)
	manage.GET("/specialists/:id/time-off", h.listTimeOff)
	manage.POST("/specialists/:id/time-off", h.addTimeOff)
	manage.DELETE("/specialists/:id/time-off/:timeOffId", h.removeTimeOff)
}

func (h *Handler) list(c echo.Context) error {
	p := pagination.FromContext(c)
	onlyActive := c.QueryParam("include_inactive") != "true"
	specialty := c.QueryParam("specialty")

	items, total, err := h.svc.List(c.Request().Context(), onlyActive, specialty, p.Limit, p.Offset())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list specialists")
	}
	if items == nil {
		items = []*Specialist{}
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, p, total))
}

func (h *Handler) get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid specialist id")
	}
	sp, err := h.svc.Get(c.Request().Context(), id)
	if errors.Is(err, ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "specialist not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to get specialist")
	}
	return c.JSON(http.StatusOK, sp)
}

func (h *Handler) create(c echo.Context) error {
	var req CreateSpecialistRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	sp, err := h.svc.Create(c.Request().Context(), req)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, sp)
}

func (h *Handler) update(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid specialist id")
	}
	var req UpdateSpecialistRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	sp, err := h.svc.Update(c.Request().Context(), id, req)
	if errors.Is(err, ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "specialist not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, sp)
}

func (h *Handler) availability(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid specialist id")
	}
	rules, err := h.svc.Availability(c.Request().Context(), id)
	if errors.Is(err, ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "specialist not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to get availability")
	}
	if rules == nil {
		rules = []*AvailabilityRule{}
	}
	return c.JSON(http.StatusOK, map[string]any{"rules": rules})
}

func (h *Handler) setAvailability(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid specialist id")
	}
	var req SetAvailabilityRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	rules, err := h.svc.SetAvailability(c.Request().Context(), id, req)
	if errors.Is(err, ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "specialist not found")
	}
	if errors.Is(err, ErrForbidden) {
		return echo.NewHTTPError(http.StatusForbidden, "not your schedule")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]any{"rules": rules})
}

func (h *Handler) listTimeOff(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid specialist id")
	}
	from := c.QueryParam("from")
	if from == "" {
		from = "0000-01-01"
	}
	items, err := h.svc.TimeOff(c.Request().Context(), id, from)
	if errors.Is(err, ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "specialist not found")
	}
	if errors.Is(err, ErrForbidden) {
		return echo.NewHTTPError(http.StatusForbidden, "not your schedule")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list time off")
	}
	if items == nil {
		items = []*TimeOff{}
	}
	return c.JSON(http.StatusOK, map[string]any{"time_off": items})
}

func (h *Handler) addTimeOff(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid specialist id")
	}
	var req AddTimeOffRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	t, err := h.svc.AddTimeOff(c.Request().Context(), id, req)
	if errors.Is(err, ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "specialist not found")
	}
	if errors.Is(err, ErrForbidden) {
		return echo.NewHTTPError(http.StatusForbidden, "not your schedule")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, t)
}

func (h *Handler) removeTimeOff(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid specialist id")
	}
	timeOffID, err := uuid.Parse(c.Param("timeOffId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid time off id")
	}
	if err := h.svc.RemoveTimeOff(c.Request().Context(), id, timeOffID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "time off not found")
		}
		if errors.Is(err, ErrForbidden) {
			return echo.NewHTTPError(http.StatusForbidden, "not your schedule")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to remove time off")
	}
	return c.NoContent(http.StatusNoContent)
}
