package http

import (
	"net/http"

	"golang-ea-automation/internal/orchestrator/dto"
	"golang-ea-automation/internal/orchestrator/service"
	"golang-ea-automation/pkg/logger"

	"github.com/labstack/echo/v4"
)

// AccountHandler handles trading account requests.
type AccountHandler struct {
	accountService service.AccountService
	logger         *logger.Logger
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accountService service.AccountService, logger *logger.Logger) *AccountHandler {
	return &AccountHandler{accountService: accountService, logger: logger}
}

// RegisterRoutes registers the account routes. admin guards review and refresh.
func (h *AccountHandler) RegisterRoutes(g *echo.Group, admin echo.MiddlewareFunc) {
	g.GET("", h.ListAccounts)
	g.POST("", h.ConnectAccount)
	g.GET("/:id/status", h.FetchAccountStatus)
	g.POST("/:id/review", h.ReviewAccount, admin)
	g.POST("/refresh", h.BulkRefresh, admin)
}

// ConnectAccount godoc
// @Summary Connect a trading account
// @Description Registers the account as pending and notifies admins.
// @Tags accounts
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   account  body    dto.ConnectAccountRequest  true  "Account"
// @Success 201 {object} dto.AccountResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Router /accounts [post]
func (h *AccountHandler) ConnectAccount(c echo.Context) error {
	var req dto.ConnectAccountRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid request payload")
	}

	account, err := h.accountService.ConnectAccount(c.Request().Context(), &req, principal(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(http.StatusCreated, account)
}

// ListAccounts godoc
// @Summary List trading accounts
// @Tags accounts
// @Produce  json
// @Security BearerAuth
// @Param   user_id  query  int     false  "Owner (admins only)"
// @Param   status   query  string  false  "Account status"
// @Param   limit    query  int     false  "Max rows"
// @Success 200 {array} dto.AccountResponse
// @Router /accounts [get]
func (h *AccountHandler) ListAccounts(c echo.Context) error {
	var req dto.ListAccountsRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid query parameters")
	}

	accounts, err := h.accountService.ListAccounts(c.Request().Context(), &req, principal(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(http.StatusOK, accounts)
}

// ReviewAccount godoc
// @Summary Approve or reject a pending account
// @Tags accounts
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   id      path    int                       true  "Account ID"
// @Param   review  body    dto.ReviewAccountRequest  true  "Decision"
// @Success 200 {object} dto.AccountResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Router /accounts/{id}/review [post]
func (h *AccountHandler) ReviewAccount(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return badRequest(c, "Invalid account ID")
	}

	var req dto.ReviewAccountRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid request payload")
	}

	account, err := h.accountService.ReviewAccount(c.Request().Context(), id, &req, principal(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(http.StatusOK, account)
}

// FetchAccountStatus godoc
// @Summary Live account status
// @Description Live data from the bridge, or the stored snapshot when the bridge is unavailable.
// @Tags accounts
// @Produce  json
// @Security BearerAuth
// @Param   id  path    int true    "Account ID"
// @Success 200 {object} dto.AccountStatusView
// @Failure 404 {object} dto.ErrorResponse
// @Router /accounts/{id}/status [get]
func (h *AccountHandler) FetchAccountStatus(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return badRequest(c, "Invalid account ID")
	}

	view, err := h.accountService.FetchAccountStatus(c.Request().Context(), id, principal(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(http.StatusOK, view)
}

// BulkRefresh godoc
// @Summary Refresh every active account from the bridge
// @Tags accounts
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} dto.BulkRefreshResponse
// @Failure 403 {object} dto.ErrorResponse
// @Router /accounts/refresh [post]
func (h *AccountHandler) BulkRefresh(c echo.Context) error {
	res, err := h.accountService.BulkRefresh(c.Request().Context(), principal(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(http.StatusOK, res)
}
