package http

import (
	"net/http"

	"golang-ea-automation/internal/orchestrator/dto"
	"golang-ea-automation/internal/orchestrator/service"
	"golang-ea-automation/pkg/logger"

	"github.com/labstack/echo/v4"
)

// JobHandler handles HTTP requests for automation jobs.
type JobHandler struct {
	jobService service.JobService
	logger     *logger.Logger
}

// NewJobHandler creates a new JobHandler.
func NewJobHandler(jobService service.JobService, logger *logger.Logger) *JobHandler {
	return &JobHandler{jobService: jobService, logger: logger}
}

// RegisterRoutes registers the job routes. admin guards the mutating routes.
func (h *JobHandler) RegisterRoutes(g *echo.Group, admin echo.MiddlewareFunc) {
	g.GET("", h.ListJobs)
	g.GET("/:id", h.GetJobByID)
	g.POST("", h.CreateJob, admin)
	g.PATCH("/:id", h.UpdateJob, admin)
	g.DELETE("/:id", h.CancelOrDeleteJob, admin)
	g.POST("/:id/run", h.RunJob, admin)
}

// CreateJob godoc
// @Summary Create an automation job
// @Description Create a pending job. Only one pending or running job of a type may exist per account.
// @Tags jobs
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   job  body    dto.CreateJobRequest   true    "Job to create"
// @Success 201 {object} dto.JobResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Router /jobs [post]
func (h *JobHandler) CreateJob(c echo.Context) error {
	var req dto.CreateJobRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid request payload")
	}

	job, err := h.jobService.CreateJob(c.Request().Context(), &req, principal(c).UserID)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(http.StatusCreated, job)
}

// ListJobs godoc
// @Summary List automation jobs
// @Description Newest first. Non-admins only see jobs of their own accounts.
// @Tags jobs
// @Produce  json
// @Security BearerAuth
// @Param   mt5_account_id  query  int     false  "Account ID"
// @Param   status          query  string  false  "Job status"
// @Param   job_type        query  string  false  "Job type"
// @Param   limit           query  int     false  "Max rows"
// @Success 200 {array} dto.JobResponse
// @Failure 400 {object} dto.ErrorResponse
// @Router /jobs [get]
func (h *JobHandler) ListJobs(c echo.Context) error {
	var req dto.ListJobsRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid query parameters")
	}

	jobs, err := h.jobService.ListJobs(c.Request().Context(), &req, principal(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(http.StatusOK, jobs)
}

// GetJobByID godoc
// @Summary Get a job by ID
// @Tags jobs
// @Produce  json
// @Security BearerAuth
// @Param   id  path    int true    "Job ID"
// @Success 200 {object} dto.JobResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /jobs/{id} [get]
func (h *JobHandler) GetJobByID(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return badRequest(c, "Invalid job ID")
	}

	job, err := h.jobService.GetJobByID(c.Request().Context(), id, principal(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(http.StatusOK, job)
}

// UpdateJob godoc
// @Summary Update a job
// @Description Partial update of status, progress, message and error message
// @Tags jobs
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   id   path    int                   true  "Job ID"
// @Param   job  body    dto.UpdateJobRequest  true  "Fields to change"
// @Success 200 {object} dto.JobResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Router /jobs/{id} [patch]
func (h *JobHandler) UpdateJob(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return badRequest(c, "Invalid job ID")
	}

	var req dto.UpdateJobRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid request payload")
	}

	job, err := h.jobService.UpdateJob(c.Request().Context(), id, &req)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(http.StatusOK, job)
}

// CancelOrDeleteJob godoc
// @Summary Cancel or delete a job
// @Description A running job is cancelled; any other job is deleted.
// @Tags jobs
// @Produce  json
// @Security BearerAuth
// @Param   id  path    int true    "Job ID"
// @Success 200 {object} dto.CancelJobResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /jobs/{id} [delete]
func (h *JobHandler) CancelOrDeleteJob(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return badRequest(c, "Invalid job ID")
	}

	res, err := h.jobService.CancelOrDeleteJob(c.Request().Context(), id)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(http.StatusOK, res)
}

// RunJob godoc
// @Summary Run a pending job in-process
// @Description Supported for status_check and vps_health_check jobs.
// @Tags jobs
// @Produce  json
// @Security BearerAuth
// @Param   id  path    int true    "Job ID"
// @Success 200 {object} dto.JobResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Router /jobs/{id}/run [post]
func (h *JobHandler) RunJob(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return badRequest(c, "Invalid job ID")
	}

	job, err := h.jobService.RunJob(c.Request().Context(), id)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(http.StatusOK, job)
}
