package appointment

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/esaha/esaha/internal/platform/auth"
	"github.com/esaha/esaha/pkg/pagination"
)

// Handler exposes the appointment lifecycle over HTTP. Creation lives on the
// scheduling handler; everything after booking lives here.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/appointments", h.listMine)
	g.GET("/appointments/:id", h.get)
	g.PUT("/appointments/:id", h.update)
	g.PUT("/appointments/:id/status", h.updateStatus)
	g.DELETE("/appointments/:id", h.delete)

	spec := g.Group("", auth.RequireRole(auth.RoleSpecialist))
	spec.GET("/appointments/specialist/:specialistId", h.listForSpecialist)
}

func (h *Handler) listMine(c echo.Context) error {
	p := pagination.FromContext(c)
	items, total, err := h.svc.ListMine(c.Request().Context(), c.QueryParam("status"), p.Limit, p.Offset())
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if items == nil {
		items = []*Appointment{}
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, p, total))
}

func (h *Handler) listForSpecialist(c echo.Context) error {
	specialistID, err := uuid.Parse(c.Param("specialistId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid specialist id")
	}
	p := pagination.FromContext(c)
	items, total, err := h.svc.ListForSpecialist(c.Request().Context(), specialistID, c.QueryParam("status"), p.Limit, p.Offset())
	if err != nil {
		return mapError(err, "failed to list appointments")
	}
	if items == nil {
		items = []*Appointment{}
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, p, total))
}

func (h *Handler) get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid appointment id")
	}
	a, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return mapError(err, "failed to get appointment")
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) update(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid appointment id")
	}
	var req UpdateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	a, err := h.svc.Update(c.Request().Context(), id, req)
	if err != nil {
		return mapError(err, "failed to update appointment")
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) updateStatus(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid appointment id")
	}
	var req UpdateStatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	a, err := h.svc.UpdateStatus(c.Request().Context(), id, req.Status)
	if err != nil {
		return mapError(err, "failed to update status")
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) delete(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid appointment id")
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return mapError(err, "failed to delete appointment")
	}
	return c.NoContent(http.StatusNoContent)
}

// mapError translates the sentinel errors onto HTTP statuses. Conflicts are
// 409 so clients can re-fetch availability and retry; version mismatches are
// 409 too since the client's view is stale either way.
func mapError(err error, fallback string) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "appointment not found")
	case errors.Is(err, ErrConflict):
		return echo.NewHTTPError(http.StatusConflict, "time slot is no longer available")
	case errors.Is(err, ErrVersionMismatch):
		return echo.NewHTTPError(http.StatusConflict, "appointment was modified, reload and retry")
	case errors.Is(err, ErrForbidden):
		return echo.NewHTTPError(http.StatusForbidden, "not allowed")
	case errors.Is(err, ErrInvalidTransition):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	default:
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
}
