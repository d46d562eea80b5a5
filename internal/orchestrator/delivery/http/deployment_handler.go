package http

import (
	"net/http"

	"golang-ea-automation/internal/orchestrator/dto"
	"golang-ea-automation/internal/orchestrator/service"
	"golang-ea-automation/pkg/logger"

	"github.com/labstack/echo/v4"
)

// DeploymentHandler handles EA deployment requests.
type DeploymentHandler struct {
	deploymentService service.DeploymentService
	logger            *logger.Logger
}

// NewDeploymentHandler creates a new DeploymentHandler.
func NewDeploymentHandler(deploymentService service.DeploymentService, logger *logger.Logger) *DeploymentHandler {
	return &DeploymentHandler{deploymentService: deploymentService, logger: logger}
}

// RegisterRoutes registers the deployment routes. The whole group is admin only.
func (h *DeploymentHandler) RegisterRoutes(g *echo.Group) {
	g.POST("", h.DeployEA)
	g.POST("/:id/complete", h.CompleteEADeployment)
}

// DeployEA godoc
// @Summary Deploy the EA to an account's VPS
// @Description The account must be active and its VPS active. One deployment per account at a time.
// @Tags deployments
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   deployment  body    dto.DeployEARequest  true  "Deployment request"
// @Success 201 {object} dto.DeployEAResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Router /deployments [post]
func (h *DeploymentHandler) DeployEA(c echo.Context) error {
	var req dto.DeployEARequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid request payload")
	}

	res, err := h.deploymentService.DeployEA(c.Request().Context(), &req, principal(c).UserID)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(http.StatusCreated, res)
}

// CompleteEADeployment godoc
// @Summary Report the outcome of a deployment
// @Tags deployments
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   id       path    int                            true  "Job ID"
// @Param   outcome  body    dto.CompleteDeploymentRequest  true  "Outcome"
// @Success 200 {object} dto.JobResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Router /deployments/{id}/complete [post]
func (h *DeploymentHandler) CompleteEADeployment(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return badRequest(c, "Invalid job ID")
	}

	var req dto.CompleteDeploymentRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid request payload")
	}

	job, err := h.deploymentService.CompleteEADeployment(c.Request().Context(), id, &req)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(http.StatusOK, job)
}
