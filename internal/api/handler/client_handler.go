package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/atlascrm/crm-system/internal/core/domain"
	"github.com/atlascrm/crm-system/internal/core/ports"
)

// ClientHandler handles HTTP requests for the client registry.
type ClientHandler struct {
	service ports.ClientService
	claims  ports.ClaimService
}

func NewClientHandler(service ports.ClientService, claims ports.ClaimService) *ClientHandler {
	return &ClientHandler{service: service, claims: claims}
}

type createClientRequest struct {
	FullName string `json:"full_name" validate:"required"`
	Email    string `json:"email" validate:"omitempty,email"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	UserID   string `json:"user_id"`
}

type assignProductRequest struct {
	ProductID string `json:"product_id" validate:"required"`
}

type listClientsResponse struct {
	Clients []*domain.Client `json:"clients"`
	Total   int64            `json:"total"`
	Page    int              `json:"page"`
	Limit   int              `json:"limit"`
}

// Create handles POST /v1/clients — direct registration without a lead.
//
// @Summary      Register a client
// @Tags         clients
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createClientRequest  true  "Client details"
// @Success      201   {object}  domain.Client
// @Failure      400   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Router       /v1/clients [post]
func (h *ClientHandler) Create(c echo.Context) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return err
	}

	var req createClientRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	client, err := h.service.CreateClient(c.Request().Context(), actor, ports.CreateClientInput{
		FullName: req.FullName,
		Email:    req.Email,
		Phone:    req.Phone,
		Address:  req.Address,
		UserID:   req.UserID,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, client)
}

// Get handles GET /v1/clients/:id.
//
// @Summary      Get a client by id
// @Tags         clients
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Client id"
// @Success      200  {object}  domain.Client
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /v1/clients/{id} [get]
func (h *ClientHandler) Get(c echo.Context) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return err
	}

	client, err := h.service.GetClient(c.Request().Context(), actor, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, client)
}

// List handles GET /v1/clients.
//
// @Summary      List clients
// @Tags         clients
// @Produce      json
// @Security     BearerAuth
// @Param        page   query     int  false  "Page number (default 1)"
// @Param        limit  query     int  false  "Page size (default 20, max 100)"
// @Success      200    {object}  listClientsResponse
// @Failure      403    {object}  map[string]string
// @Router       /v1/clients [get]
func (h *ClientHandler) List(c echo.Context) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return err
	}

	page, limit := paginationParams(c)
	clients, total, err := h.service.ListClients(c.Request().Context(), actor, page, limit)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, listClientsResponse{Clients: clients, Total: total, Page: page, Limit: limit})
}

// ListClaims handles GET /v1/clients/:id/claims — the client's claim history.
//
// @Summary      List a client's claims
// @Tags         clients
// @Produce      json
// @Security     BearerAuth
// @Param        id     path      string  true   "Client id"
// @Param        page   query     int     false  "Page number (default 1)"
// @Param        limit  query     int     false  "Page size (default 20, max 100)"
// @Success      200    {object}  listClaimsResponse
// @Failure      403    {object}  map[string]string
// @Failure      404    {object}  map[string]string
// @Router       /v1/clients/{id}/claims [get]
func (h *ClientHandler) ListClaims(c echo.Context) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return err
	}

	page, limit := paginationParams(c)
	claims, total, err := h.claims.ListClaims(c.Request().Context(), actor, ports.ListClaimsInput{
		ClientID: c.Param("id"),
		Page:     page,
		Limit:    limit,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, listClaimsResponse{Claims: claims, Total: total, Page: page, Limit: limit})
}

// AssignProduct handles POST /v1/clients/:id/products. Assigning the same
// product again creates another binding; revenue counts each one.
//
// @Summary      Assign a product to a client
// @Tags         clients
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string                true  "Client id"
// @Param        body  body      assignProductRequest  true  "Product to assign"
// @Success      201   {object}  domain.ClientProductBinding
// @Failure      400   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /v1/clients/{id}/products [post]
func (h *ClientHandler) AssignProduct(c echo.Context) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return err
	}

	var req assignProductRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	binding, err := h.service.AssignProduct(c.Request().Context(), actor, c.Param("id"), req.ProductID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, binding)
}

// AddComment handles POST /v1/clients/:id/comments.
//
// @Summary      Comment on a client
// @Tags         clients
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string             true  "Client id"
// @Param        body  body      addCommentRequest  true  "Comment body"
// @Success      201   {object}  domain.Comment
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /v1/clients/{id}/comments [post]
func (h *ClientHandler) AddComment(c echo.Context) error {
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
