package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/atlascrm/crm-system/internal/core/ports"
)

// AnalyticsHandler handles HTTP requests for the reporting rollups.
type AnalyticsHandler struct {
	service ports.AnalyticsService
}

func NewAnalyticsHandler(service ports.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{service: service}
}

// Leads handles GET /v1/analytics/leads.
//
// @Summary      Lead counts by status
// @Tags         analytics
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  ports.LeadsAnalytics
// @Failure      403  {object}  map[string]string
// @Router       /v1/analytics/leads [get]
func (h *AnalyticsHandler) Leads(c echo.Context) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return err
	}

	out, err := h.service.LeadsByStatus(c.Request().Context(), actor)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}

// Clients handles GET /v1/analytics/clients.
//
// @Summary      Client totals
// @Tags         analytics
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  ports.ClientsAnalytics
// @Failure      403  {object}  map[string]string
// @Router       /v1/analytics/clients [get]
func (h *AnalyticsHandler) Clients(c echo.Context) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return err
	}

	out, err := h.service.ClientsTotal(c.Request().Context(), actor)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}

// Revenue handles GET /v1/analytics/revenue.
//
// @Summary      Revenue from product assignments
// @Tags         analytics
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  ports.RevenueAnalytics
// @Failure      403  {object}  map[string]string
// @Router       /v1/analytics/revenue [get]
func (h *AnalyticsHandler) Revenue(c echo.Context) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return err
	}

	out, err := h.service.Revenue(c.Request().Context(), actor)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}

// Claims handles GET /v1/analytics/claims.
//
// @Summary      Claim counts by status
// @Tags         analytics
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  ports.ClaimsAnalytics
// @Failure      403  {object}  map[string]string
// @Router       /v1/analytics/claims [get]
func (h *AnalyticsHandler) Claims(c echo.Context) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return err
	}

	out, err := h.service.ClaimsByStatus(c.Request().Context(), actor)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}

// Supervisors handles GET /v1/analytics/supervisors.
//
// @Summary      Supervisor workload and resolution rates
// @Tags         analytics
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   ports.SupervisorStats
// @Failure      403  {object}  map[string]string
// @Router       /v1/analytics/supervisors [get]
func (h *AnalyticsHandler) Supervisors(c echo.Context) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return err
	}

	out, err := h.service.SupervisorPerformance(c.Request().Context(), actor)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}
