package http

import (
	"net/http"

	"golang-ea-automation/internal/orchestrator/dto"
	"golang-ea-automation/internal/orchestrator/service"
	"golang-ea-automation/pkg/logger"

	"github.com/labstack/echo/v4"
)

// VPSHandler handles VPS provisioning requests.
type VPSHandler struct {
	vpsService service.VPSService
	logger     *logger.Logger
}

// NewVPSHandler creates a new VPSHandler.
func NewVPSHandler(vpsService service.VPSService, logger *logger.Logger) *VPSHandler {
	return &VPSHandler{vpsService: vpsService, logger: logger}
}

// RegisterRoutes registers the VPS routes. The whole group is admin only.
func (h *VPSHandler) RegisterRoutes(g *echo.Group) {
	g.GET("", h.ListVPS)
	g.POST("", h.ProvisionVPS)
	g.GET("/options", h.ProvisioningOptions)
	g.GET("/:id", h.GetVPSByID)
	g.POST("/:id/sync", h.SyncVPS)
	g.DELETE("/:id", h.DeleteVPS)
}

// ProvisionVPS godoc
// @Summary Provision a Windows VPS for an account
// @Tags vps
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   vps  body    dto.ProvisionVPSRequest  true  "Provision request"
// @Success 201 {object} dto.ProvisionVPSResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Failure 502 {object} dto.ErrorResponse
// @Router /vps [post]
func (h *VPSHandler) ProvisionVPS(c echo.Context) error {
	var req dto.ProvisionVPSRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid request payload")
	}

	res, err := h.vpsService.ProvisionVPS(c.Request().Context(), &req, principal(c).UserID)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(http.StatusCreated, res)
}

// ListVPS godoc
// @Summary List VPS instances
// @Tags vps
// @Produce  json
// @Security BearerAuth
// @Param   mt5_account_id  query  int     false  "Account ID"
// @Param   status          query  string  false  "VPS status"
// @Success 200 {array} dto.VPSResponse
// @Router /vps [get]
func (h *VPSHandler) ListVPS(c echo.Context) error {
	var req dto.ListVPSRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid query parameters")
	}

	items, err := h.vpsService.ListVPS(c.Request().Context(), &req)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(http.StatusOK, items)
}

// GetVPSByID godoc
// @Summary Get a VPS by ID
// @Tags vps
// @Produce  json
// @Security BearerAuth
// @Param   id  path    int true    "VPS ID"
// @Success 200 {object} dto.VPSResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /vps/{id} [get]
func (h *VPSHandler) GetVPSByID(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return badRequest(c, "Invalid VPS ID")
	}

	vps, err := h.vpsService.GetVPSByID(c.Request().Context(), id)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(http.StatusOK, vps)
}

// SyncVPS godoc
// @Summary Reconcile a VPS with the provider
// @Tags vps
// @Produce  json
// @Security BearerAuth
// @Param   id  path    int true    "VPS ID"
// @Success 200 {object} dto.VPSResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 503 {object} dto.ErrorResponse
// @Router /vps/{id}/sync [post]
func (h *VPSHandler) SyncVPS(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return badRequest(c, "Invalid VPS ID")
	}

	vps, err := h.vpsService.SyncVPS(c.Request().Context(), id)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(http.StatusOK, vps)
}

// DeleteVPS godoc
// @Summary Delete a VPS
// @Description Destroys the provider instance and resets the account automation status.
// @Tags vps
// @Produce  json
// @Security BearerAuth
// @Param   id  path    int true    "VPS ID"
// @Success 200 {object} dto.MessageResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /vps/{id} [delete]
func (h *VPSHandler) DeleteVPS(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return badRequest(c, "Invalid VPS ID")
	}

	if err := h.vpsService.DeleteVPS(c.Request().Context(), id); err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(http.StatusOK, dto.MessageResponse{Success: true, Message: "VPS deleted"})
}

// ProvisioningOptions godoc
// @Summary Provisioning catalogs
// @Description Curated plans and regions, plus a live catalog selected by action.
// @Tags vps
// @Produce  json
// @Security BearerAuth
// @Param   action  query  string  false  "account, regions, plans or os"
// @Success 200 {object} dto.ProvisioningOptionsResponse
// @Failure 400 {object} dto.ErrorResponse
// @Router /vps/options [get]
func (h *VPSHandler) ProvisioningOptions(c echo.Context) error {
	res, err := h.vpsService.ProvisioningOptions(c.Request().Context(), c.QueryParam("action"))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(http.StatusOK, res)
}
