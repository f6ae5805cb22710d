package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/atlascrm/crm-system/internal/core/domain"
	"github.com/atlascrm/crm-system/internal/core/ports"
)

// LeadHandler handles HTTP requests for the lead pipeline.
type LeadHandler struct {
	service ports.LeadService
}

func NewLeadHandler(service ports.LeadService) *LeadHandler {
	return &LeadHandler{service: service}
}

type createLeadRequest struct {
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name"`
	Email     string `json:"email" validate:"omitempty,email"`
	Phone     string `json:"phone"`
}

type updateLeadRequest struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Email     *string `json:"email" validate:"omitempty,email"`
	Phone     *string `json:"phone"`
	Status    *string `json:"status" validate:"omitempty,oneof=new contacted qualified converted lost"`
}

type assignOperatorRequest struct {
	OperatorID string `json:"operator_id" validate:"required"`
}

type addCommentRequest struct {
	Body string `json:"body" validate:"required"`
}

type listLeadsResponse struct {
	Leads []*domain.Lead `json:"leads"`
	Total int64          `json:"total"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
}

type convertLeadResponse struct {
	ClientID string `json:"client_id"`
	LeadID   string `json:"lead_id"`
	Status   string `json:"status"`
}

// Create handles POST /v1/leads. The new lead always starts in status "new".
//
// @Summary      Create a lead
// @Tags         leads
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createLeadRequest  true  "Lead contact details"
// @Success      201   {object}  domain.Lead
// @Failure      400   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Router       /v1/leads [post]
func (h *LeadHandler) Create(c echo.Context) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return err
	}

	var req createLeadRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	lead, err := h.service.CreateLead(c.Request().Context(), actor, ports.CreateLeadInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, lead)
}

// Get handles GET /v1/leads/:id.
//
// @Summary      Get a lead by id
// @Tags         leads
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Lead id"
// @Success      200  {object}  domain.Lead
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /v1/leads/{id} [get]
func (h *LeadHandler) Get(c echo.Context) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return err
	}

	lead, err := h.service.GetLead(c.Request().Context(), actor, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, lead)
}

// List handles GET /v1/leads. Operators are scoped to their own leads by
// the service regardless of filters.
//
// @Summary      List leads
// @Tags         leads
// @Produce      json
// @Security     BearerAuth
// @Param        status       query     string  false  "Filter by status"
// @Param        operator_id  query     string  false  "Filter by assigned operator"
// @Param        page         query     int     false  "Page number (default 1)"
// @Param        limit        query     int     false  "Page size (default 20, max 100)"
// @Success      200          {object}  listLeadsResponse
// @Failure      403          {object}  map[string]string
// @Router       /v1/leads [get]
func (h *LeadHandler) List(c echo.Context) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return err
	}

	page, limit := paginationParams(c)
	leads, total, err := h.service.ListLeads(c.Request().Context(), actor, ports.ListLeadsInput{
		OperatorID: c.QueryParam("operator_id"),
		Status:     domain.LeadStatus(c.QueryParam("status")),
		Page:       page,
		Limit:      limit,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, listLeadsResponse{Leads: leads, Total: total, Page: page, Limit: limit})
}

// Update handles PATCH /v1/leads/:id. Contact fields and status share the
// endpoint; operators may only move status on their own leads.
//
// @Summary      Update a lead
// @Tags         leads
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string             true  "Lead id"
// @Param        body  body      updateLeadRequest  true  "Fields to change"
// @Success      200   {object}  domain.Lead
// @Failure      400   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Router       /v1/leads/{id} [patch]
func (h *LeadHandler) Update(c echo.Context) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return err
	}

	var req updateLeadRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	input := ports.UpdateLeadInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
	}
	if req.Status != nil {
		status := domain.LeadStatus(*req.Status)
		input.Status = &status
	}

	lead, err := h.service.UpdateLead(c.Request().Context(), actor, c.Param("id"), input)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, lead)
}

// AssignOperator handles PUT /v1/leads/:id/operator.
//
// @Summary      Assign an operator to a lead
// @Tags         leads
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string                 true  "Lead id"
// @Param        body  body      assignOperatorRequest  true  "Operator to assign"
// @Success      200   {object}  domain.Lead
// @Failure      400   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /v1/leads/{id}/operator [put]
func (h *LeadHandler) AssignOperator(c echo.Context) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return err
	}

	var req assignOperatorRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	lead, err := h.service.AssignOperator(c.Request().Context(), actor, c.Param("id"), req.OperatorID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, lead)
}

// Convert handles POST /v1/leads/:id/convert.
//
// @Summary      Convert a lead into a client
// @Tags         leads
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Lead id"
// @Success      201  {object}  convertLeadResponse
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Router       /v1/leads/{id}/convert [post]
func (h *LeadHandler) Convert(c echo.Context) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return err
	}

	result, err := h.service.ConvertToClient(c.Request().Context(), actor, c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, convertLeadResponse{
		ClientID: result.ClientID,
		LeadID:   result.LeadID,
		Status:   string(domain.LeadStatusConverted),
	})
}

// Delete handles DELETE /v1/leads/:id.
//
// @Summary      Delete a lead
// @Tags         leads
// @Security     BearerAuth
// @Param        id  path  string  true  "Lead id"
// @Success      204
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Router       /v1/leads/{id} [delete]
func (h *LeadHandler) Delete(c echo.Context) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return err
	}

	if err := h.service.DeleteLead(c.Request().Context(), actor, c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// AddComment handles POST /v1/leads/:id/comments.
//
// @Summary      Comment on a lead
// @Tags         leads
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string             true  "Lead id"
// @Param        body  body      addCommentRequest  true  "Comment body"
// @Success      201   {object}  domain.Comment
// @Failure      400   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /v1/leads/{id}/comments [post]
func (h *LeadHandler) AddComment(c echo.Context) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return err
	}

	var req addCommentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	comment, err := h.service.AddComment(c.Request().Context(), actor, c.Param("id"), req.Body)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, comment)
}
