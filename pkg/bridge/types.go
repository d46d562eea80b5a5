package bridge

import "github.com/shopspring/decimal"

// DefaultMagic is the magic number the deployed EA stamps on its orders.
const DefaultMagic = 123456

// Health is the bridge liveness report.
type Health struct {
	Status            string `json:"status"`
	MT5Available      bool   `json:"mt5_available"`
	ActiveConnections int    `json:"active_connections"`
	Timestamp         string `json:"timestamp"`
}

// AccountInfo mirrors the terminal's account_info.
type AccountInfo struct {
	Login        int64           `json:"login"`
	Name         string          `json:"name"`
	Server       string          `json:"server"`
	Currency     string          `json:"currency"`
	Balance      decimal.Decimal `json:"balance"`
	Equity       decimal.Decimal `json:"equity"`
	Margin       decimal.Decimal `json:"margin"`
	MarginFree   decimal.Decimal `json:"margin_free"`
	MarginLevel  decimal.Decimal `json:"margin_level"`
	Profit       decimal.Decimal `json:"profit"`
	Leverage     int             `json:"leverage"`
	TradeAllowed bool            `json:"trade_allowed"`
	TradeExpert  bool            `json:"trade_expert"`
}

// Position is an open position.
type Position struct {
	Ticket       int64           `json:"ticket"`
	Symbol       string          `json:"symbol"`
	Type         string          `json:"type"`
	Volume       decimal.Decimal `json:"volume"`
	PriceOpen    decimal.Decimal `json:"price_open"`
	PriceCurrent decimal.Decimal `json:"price_current"`
	SL           decimal.Decimal `json:"sl"`
	TP           decimal.Decimal `json:"tp"`
	Profit       decimal.Decimal `json:"profit"`
	Swap         decimal.Decimal `json:"swap"`
	Time         string          `json:"time"`
	Magic        int64           `json:"magic"`
	Comment      string          `json:"comment"`
}

// AccountSnapshot is the extended account report with a positions summary.
type AccountSnapshot struct {
	AccountInfo
	OpenPositionsCount int             `json:"open_positions_count"`
	TotalLotSize       decimal.Decimal `json:"total_lot_size"`
	PositionsProfit    decimal.Decimal `json:"positions_profit"`
	Positions          []Position      `json:"positions"`
}

// EAPosition is a position opened by the EA.
type EAPosition struct {
	Ticket int64           `json:"ticket"`
	Symbol string          `json:"symbol"`
	Type   string          `json:"type"`
	Volume decimal.Decimal `json:"volume"`
	Profit decimal.Decimal `json:"profit"`
}

// EAStatus reports whether the EA is trading.
type EAStatus struct {
	EAActive           bool            `json:"ea_active"`
	TradeExpertAllowed bool            `json:"trade_expert_allowed"`
	EAPositionsCount   int             `json:"ea_positions_count"`
	EATotalVolume      decimal.Decimal `json:"ea_total_volume"`
	EATotalProfit      decimal.Decimal `json:"ea_total_profit"`
	EARecentTrades     int             `json:"ea_recent_trades"`
	MagicNumber        int64           `json:"magic_number"`
	EAPositions        []EAPosition    `json:"ea_positions"`
}

// Order is a pending order.
type Order struct {
	Ticket    int64           `json:"ticket"`
	Symbol    string          `json:"symbol"`
	Type      int             `json:"type"`
	Volume    decimal.Decimal `json:"volume"`
	PriceOpen decimal.Decimal `json:"price_open"`
	SL        decimal.Decimal `json:"sl"`
	TP        decimal.Decimal `json:"tp"`
	TimeSetup string          `json:"time_setup"`
	Magic     int64           `json:"magic"`
	Comment   string          `json:"comment"`
}

// Deal is a historical deal.
type Deal struct {
	Ticket     int64           `json:"ticket"`
	Order      int64           `json:"order"`
	Symbol     string          `json:"symbol"`
	Type       int             `json:"type"`
	Volume     decimal.Decimal `json:"volume"`
	Price      decimal.Decimal `json:"price"`
	Profit     decimal.Decimal `json:"profit"`
	Swap       decimal.Decimal `json:"swap"`
	Commission decimal.Decimal `json:"commission"`
	Time       string          `json:"time"`
	Magic      int64           `json:"magic"`
	Comment    string          `json:"comment"`
}

// Symbol is a tradable instrument.
type Symbol struct {
	Name           string `json:"name"`
	Description    string `json:"description"`
	CurrencyBase   string `json:"currency_base"`
	CurrencyProfit string `json:"currency_profit"`
	Digits         int    `json:"digits"`
	Spread         int    `json:"spread"`
}

// LoginRequest logs the terminal into an account.
type LoginRequest struct {
	Account  string `json:"account"`
	Password string `json:"password"`
	Server   string `json:"server"`
}

// LoginResult is the answer to /login.
type LoginResult struct {
	ConnectionID string      `json:"connection_id"`
	Account      AccountInfo `json:"account"`
}

// OpenTradeRequest opens a market position.
type OpenTradeRequest struct {
	Symbol  string           `json:"symbol"`
	Type    string           `json:"type"`
	Volume  decimal.Decimal  `json:"volume"`
	SL      *decimal.Decimal `json:"sl,omitempty"`
	TP      *decimal.Decimal `json:"tp,omitempty"`
	Comment string           `json:"comment,omitempty"`
	Magic   int64            `json:"magic,omitempty"`
}

// CloseTradeRequest closes a position.
type CloseTradeRequest struct {
	Ticket int64 `json:"ticket"`
}

// ModifyTradeRequest changes SL/TP of a position.
type ModifyTradeRequest struct {
	Ticket int64            `json:"ticket"`
	SL     *decimal.Decimal `json:"sl,omitempty"`
	TP     *decimal.Decimal `json:"tp,omitempty"`
}

// TradeResult is the order echo returned by trade endpoints.
type TradeResult struct {
	Ticket int64           `json:"ticket"`
	Deal   int64           `json:"deal"`
	Volume decimal.Decimal `json:"volume"`
	Price  decimal.Decimal `json:"price"`
	Symbol string          `json:"symbol,omitempty"`
	Type   string          `json:"type,omitempty"`
	Profit decimal.Decimal `json:"profit"`
}
