package http

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"golang-ea-automation/internal/orchestrator/dto"
	"golang-ea-automation/pkg/bridge"
	"golang-ea-automation/pkg/logger"

	"github.com/labstack/echo/v4"
)

// BridgeOperator is the subset of the terminal bridge exposed to admins.
type BridgeOperator interface {
	Health(ctx context.Context) (*bridge.Health, error)
	Initialize(ctx context.Context, path string) error
	Login(ctx context.Context, req bridge.LoginRequest) (*bridge.LoginResult, error)
	Account(ctx context.Context) (*bridge.AccountInfo, error)
	Positions(ctx context.Context) ([]bridge.Position, error)
	Orders(ctx context.Context) ([]bridge.Order, error)
	History(ctx context.Context, days int) ([]bridge.Deal, error)
	Symbols(ctx context.Context) ([]bridge.Symbol, error)
	OpenTrade(ctx context.Context, req bridge.OpenTradeRequest) (*bridge.TradeResult, error)
	CloseTrade(ctx context.Context, req bridge.CloseTradeRequest) (*bridge.TradeResult, error)
	ModifyTrade(ctx context.Context, req bridge.ModifyTradeRequest) error
	Shutdown(ctx context.Context) error
}

// BridgeHandler proxies terminal operations to the bridge.
type BridgeHandler struct {
	bridge BridgeOperator
	logger *logger.Logger
}

// NewBridgeHandler creates a new BridgeHandler.
func NewBridgeHandler(b BridgeOperator, logger *logger.Logger) *BridgeHandler {
	return &BridgeHandler{bridge: b, logger: logger}
}

// RegisterRoutes registers the bridge routes on an admin-only group.
func (h *BridgeHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/health", h.Health)
	g.POST("/initialize", h.Initialize)
	g.POST("/login", h.Login)
	g.GET("/account", h.Account)
	g.GET("/positions", h.Positions)
	g.GET("/orders", h.Orders)
	g.GET("/history", h.History)
	g.GET("/symbols", h.Symbols)
	g.POST("/trade/open", h.OpenTrade)
	g.POST("/trade/close", h.CloseTrade)
	g.POST("/trade/modify", h.ModifyTrade)
	g.POST("/shutdown", h.Shutdown)
}

// Health godoc
// @Summary Bridge health
// @Tags bridge
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} bridge.Health
// @Failure 503 {object} dto.ErrorResponse
// @Router /bridge/health [get]
func (h *BridgeHandler) Health(c echo.Context) error {
	res, err := h.bridge.Health(c.Request().Context())
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(http.StatusOK, res)
}

type initializeRequest struct {
	Path string `json:"path"`
}

// Initialize godoc
// @Summary Start the terminal
// @Tags bridge
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   body  body  initializeRequest  false  "Terminal path"
// @Success 200 {object} dto.MessageResponse
// @Router /bridge/initialize [post]
func (h *BridgeHandler) Initialize(c echo.Context) error {
	var req initializeRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid request payload")
	}
	if err := h.bridge.Initialize(c.Request().Context(), req.Path); err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(http.StatusOK, dto.MessageResponse{Success: true, Message: "Terminal initialized"})
}

// Login godoc
// @Summary Log the terminal into an account
// @Tags bridge
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   body  body  bridge.LoginRequest  true  "Credentials"
// @Success 200 {object} bridge.LoginResult
// @Router /bridge/login [post]
func (h *BridgeHandler) Login(c echo.Context) error {
	var req bridge.LoginRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid request payload")
	}
	if req.Account == "" || req.Password == "" || req.Server == "" {
		return badRequest(c, "account, password and server are required")
	}
	res, err := h.bridge.Login(c.Request().Context(), req)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(http.StatusOK, res)
}

// Account godoc
// @Summary Logged-in account
// @Tags bridge
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} bridge.AccountInfo
// @Router /bridge/account [get]
func (h *BridgeHandler) Account(c echo.Context) error {
	res, err := h.bridge.Account(c.Request().Context())
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(http.StatusOK, res)
}

// Positions godoc
// @Summary Open positions
// @Tags bridge
// @Produce  json
// @Security BearerAuth
// @Success 200 {array} bridge.Position
// @Router /bridge/positions [get]
func (h *BridgeHandler) Positions(c echo.Context) error {
	res, err := h.bridge.Positions(c.Request().Context())
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(http.StatusOK, res)
}

// Orders godoc
// @Summary Pending orders
// @Tags bridge
// @Produce  json
// @Security BearerAuth
// @Success 200 {array} bridge.Order
// @Router /bridge/orders [get]
func (h *BridgeHandler) Orders(c echo.Context) error {
	res, err := h.bridge.Orders(c.Request().Context())
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(http.StatusOK, res)
}

// History godoc
// @Summary Deal history
// @Tags bridge
// @Produce  json
// @Security BearerAuth
// @Param   days  query  int  false  "Look-back in days (default 30)"
// @Success 200 {array} bridge.Deal
// @Router /bridge/history [get]
func (h *BridgeHandler) History(c echo.Context) error {
	days := 0
	if raw := c.QueryParam("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return badRequest(c, "Invalid days parameter")
		}
		days = n
	}
	res, err := h.bridge.History(c.Request().Context(), days)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(http.StatusOK, res)
}

// Symbols godoc
// @Summary Tradable symbols
// @Tags bridge
// @Produce  json
// @Security BearerAuth
// @Success 200 {array} bridge.Symbol
// @Router /bridge/symbols [get]
func (h *BridgeHandler) Symbols(c echo.Context) error {
	res, err := h.bridge.Symbols(c.Request().Context())
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(http.StatusOK, res)
}

// OpenTrade godoc
// @Summary Open a market position
// @Tags bridge
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   body  body  bridge.OpenTradeRequest  true  "Order"
// @Success 200 {object} bridge.TradeResult
// @Router /bridge/trade/open [post]
func (h *BridgeHandler) OpenTrade(c echo.Context) error {
	var req bridge.OpenTradeRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid request payload")
	}
	if req.Symbol == "" {
		return badRequest(c, "symbol is required")
	}
	req.Type = strings.ToLower(req.Type)
	if req.Type == "" {
		req.Type = "buy"
	}
	if req.Type != "buy" && req.Type != "sell" {
		return badRequest(c, "type must be buy or sell")
	}
	res, err := h.bridge.OpenTrade(c.Request().Context(), req)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(http.StatusOK, res)
}

// CloseTrade godoc
// @Summary Close a position
// @Tags bridge
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   body  body  bridge.CloseTradeRequest  true  "Ticket"
// @Success 200 {object} bridge.TradeResult
// @Router /bridge/trade/close [post]
func (h *BridgeHandler) CloseTrade(c echo.Context) error {
	var req bridge.CloseTradeRequest
	if err := c.Bind(&req); err != nil || req.Ticket <= 0 {
		return badRequest(c, "ticket is required")
	}
	res, err := h.bridge.CloseTrade(c.Request().Context(), req)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(http.StatusOK, res)
}

// ModifyTrade godoc
// @Summary Change SL/TP of a position
// @Tags bridge
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   body  body  bridge.ModifyTradeRequest  true  "Ticket and levels"
// @Success 200 {object} dto.MessageResponse
// @Router /bridge/trade/modify [post]
func (h *BridgeHandler) ModifyTrade(c echo.Context) error {
	var req bridge.ModifyTradeRequest
	if err := c.Bind(&req); err != nil || req.Ticket <= 0 {
		return badRequest(c, "ticket is required")
	}
	if err := h.bridge.ModifyTrade(c.Request().Context(), req); err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(http.StatusOK, dto.MessageResponse{Success: true, Message: "Position modified"})
}

// Shutdown godoc
// @Summary Shut the terminal connection down
// @Tags bridge
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} dto.MessageResponse
// @Router /bridge/shutdown [post]
func (h *BridgeHandler) Shutdown(c echo.Context) error {
	if err := h.bridge.Shutdown(c.Request().Context()); err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(http.StatusOK, dto.MessageResponse{Success: true, Message: "Terminal shut down"})
}
