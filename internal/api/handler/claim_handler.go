package handler

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/atlascrm/crm-system/internal/core/domain"
	"github.com/atlascrm/crm-system/internal/core/ports"
)

// ClaimHandler handles HTTP requests for the claims desk.
type ClaimHandler struct {
	service ports.ClaimService
}

func NewClaimHandler(service ports.ClaimService) *ClaimHandler {
	return &ClaimHandler{service: service}
}

// allowedUploadExts is the attachment extension allow-list.
var allowedUploadExts = map[string]struct{}{
	".pdf":  {},
	".jpg":  {},
	".jpeg": {},
	".png":  {},
}

type createClaimRequest struct {
	ClientID    string `json:"client_id"`
	Description string `json:"description" validate:"required"`
}

type updateClaimRequest struct {
	Description *string `json:"description" validate:"omitempty,min=1"`
}

type updateClaimStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=submitted in_review resolved"`
}

type assignSupervisorRequest struct {
	SupervisorID string `json:"supervisor_id" validate:"required"`
}

type listClaimsResponse struct {
	Claims []*domain.Claim `json:"claims"`
	Total  int64           `json:"total"`
	Page   int             `json:"page"`
	Limit  int             `json:"limit"`
}

// Create handles POST /v1/claims. Clients file against their own profile;
// admins must name the client explicitly.
//
// @Summary      File a claim
// @Tags         claims
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createClaimRequest  true  "Claim details"
// @Success      201   {object}  domain.Claim
// @Failure      400   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /v1/claims [post]
func (h *ClaimHandler) Create(c echo.Context) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return err
	}

	var req createClaimRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	claim, err := h.service.CreateClaim(c.Request().Context(), actor, ports.CreateClaimInput{
		ClientID:    req.ClientID,
		Description: req.Description,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, claim)
}

// Get handles GET /v1/claims/:id.
//
// @Summary      Get a claim by id
// @Tags         claims
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Claim id"
// @Success      200  {object}  domain.Claim
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /v1/claims/{id} [get]
func (h *ClaimHandler) Get(c echo.Context) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return err
	}

	claim, err := h.service.GetClaim(c.Request().Context(), actor, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, claim)
}

// List handles GET /v1/claims. Non-admin callers are scoped to their own
// slice of the desk by the service.
//
// @Summary      List claims
// @Tags         claims
// @Produce      json
// @Security     BearerAuth
// @Param        status     query     string  false  "Filter by status"
// @Param        client_id  query     string  false  "Filter by client (admin only)"
// @Param        page       query     int     false  "Page number (default 1)"
// @Param        limit      query     int     false  "Page size (default 20, max 100)"
// @Success      200        {object}  listClaimsResponse
// @Failure      403        {object}  map[string]string
// @Router       /v1/claims [get]
func (h *ClaimHandler) List(c echo.Context) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return err
	}

	page, limit := paginationParams(c)
	claims, total, err := h.service.ListClaims(c.Request().Context(), actor, ports.ListClaimsInput{
		ClientID: c.QueryParam("client_id"),
		Status:   domain.ClaimStatus(c.QueryParam("status")),
		Page:     page,
		Limit:    limit,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, listClaimsResponse{Claims: claims, Total: total, Page: page, Limit: limit})
}

// Update handles PATCH /v1/claims/:id.
//
// @Summary      Update a claim's descriptive fields
// @Tags         claims
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string              true  "Claim id"
// @Param        body  body      updateClaimRequest  true  "Fields to patch"
// @Success      200   {object}  domain.Claim
// @Failure      400   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /v1/claims/{id} [patch]
func (h *ClaimHandler) Update(c echo.Context) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return err
	}

	var req updateClaimRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	claim, err := h.service.UpdateClaim(c.Request().Context(), actor, c.Param("id"), ports.UpdateClaimInput{
		Description: req.Description,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, claim)
}

// UpdateStatus handles PUT /v1/claims/:id/status.
//
// @Summary      Move a claim through its lifecycle
// @Tags         claims
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string                    true  "Claim id"
// @Param        body  body      updateClaimStatusRequest  true  "Target status"
// @Success      200   {object}  domain.Claim
// @Failure      400   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Router       /v1/claims/{id}/status [put]
func (h *ClaimHandler) UpdateStatus(c echo.Context) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return err
	}

	var req updateClaimStatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	claim, err := h.service.UpdateStatus(c.Request().Context(), actor, c.Param("id"), domain.ClaimStatus(req.Status))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, claim)
}

// AssignOperator handles PUT /v1/claims/:id/operator.
//
// @Summary      Assign an operator to a claim
// @Tags         claims
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string                 true  "Claim id"
// @Param        body  body      assignOperatorRequest  true  "Operator to assign"
// @Success      200   {object}  domain.Claim
// @Failure      400   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /v1/claims/{id}/operator [put]
func (h *ClaimHandler) AssignOperator(c echo.Context) error {
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

	claim, err := h.service.AssignOperator(c.Request().Context(), actor, c.Param("id"), req.OperatorID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, claim)
}

// AssignSupervisor handles PUT /v1/claims/:id/supervisor.
//
// @Summary      Assign a supervisor to a claim
// @Tags         claims
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string                   true  "Claim id"
// @Param        body  body      assignSupervisorRequest  true  "Supervisor to assign"
// @Success      200   {object}  domain.Claim
// @Failure      400   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /v1/claims/{id}/supervisor [put]
func (h *ClaimHandler) AssignSupervisor(c echo.Context) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return err
	}

	var req assignSupervisorRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	claim, err := h.service.AssignSupervisor(c.Request().Context(), actor, c.Param("id"), req.SupervisorID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, claim)
}

// UploadFile handles POST /v1/claims/:id/files (multipart form, field "file").
//
// @Summary      Attach a file to a claim
// @Tags         claims
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string  true  "Claim id"
// @Param        file  formData  file    true  "Attachment (pdf, jpg, jpeg, png)"
// @Success      201   {object}  domain.FileRef
// @Failure      400   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /v1/claims/{id}/files [post]
func (h *ClaimHandler) UploadFile(c echo.Context) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return err
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "file is required")
	}

	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if _, ok := allowedUploadExts[ext]; !ok {
		return echo.NewHTTPError(http.StatusBadRequest, "unsupported file type: allowed are pdf, jpg, jpeg, png")
	}

	src, err := fh.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "cannot read uploaded file")
	}
	defer src.Close()

	ref, err := h.service.UploadFile(c.Request().Context(), actor, ports.UploadFileInput{
		ClaimID:     c.Param("id"),
		FileName:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Body:        src,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, ref)
}

// DownloadFile handles GET /v1/claims/:id/files/:fileId, streaming the
// stored attachment.
//
// @Summary      Download a claim attachment
// @Tags         claims
// @Produce      application/octet-stream
// @Security     BearerAuth
// @Param        id      path  string  true  "Claim id"
// @Param        fileId  path  string  true  "File id"
// @Success      200
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /v1/claims/{id}/files/{fileId} [get]
func (h *ClaimHandler) DownloadFile(c echo.Context) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return err
	}

	dl, err := h.service.DownloadFile(c.Request().Context(), actor, c.Param("id"), c.Param("fileId"))
	if err != nil {
		return err
	}
	defer dl.Body.Close()

	contentType := dl.ContentType
	if contentType == "" {
		contentType = echo.MIMEOctetStream
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+dl.Ref.FileName+`"`)
	return c.Stream(http.StatusOK, contentType, dl.Body)
}

// AddComment handles POST /v1/claims/:id/comments.
//
// @Summary      Comment on a claim
// @Tags         claims
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string             true  "Claim id"
// @Param        body  body      addCommentRequest  true  "Comment body"
// @Success      201   {object}  domain.Comment
// @Failure      400   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /v1/claims/{id}/comments [post]
func (h *ClaimHandler) AddComment(c echo.Context) error {
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
