// Copyright (c) 2025 BVK Chaitanya

package internal

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// CodeOrderNotFound is the response code for an unknown order id.
const CodeOrderNotFound = 3600

type GenericResponse struct {
	Code int `json:"code"`

	Message string `json:"message"`

	Data json.RawMessage `json:"data"`

	Pagination *Pagination `json:"pagination"`
}

type Pagination struct {
	Total   int  `json:"total"`
	HasNext bool `json:"has_next"`
}

// APIError is a non-zero response code from the exchange.
type APIError struct {
	Code    int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("failed with code=%d message=%s", e.Code, e.Message)
}

type MarketStatus struct {
	Market string `json:"market"`

	MakerFeeRate string `json:"maker_fee_rate"`
	TakerFeeRate string `json:"taker_fee_rate"`

	MinAmount decimal.Decimal `json:"min_amount"` // Min. transaction volume

	BaseCurrency  string `json:"base_ccy"`
	BasePrecision int32  `json:"base_ccy_precision"`

	QuoteCurrency  string `json:"quote_ccy"`
	QuotePrecision int32  `json:"quote_ccy_precision"`

	IsAPITradingAvailable bool `json:"is_api_trading_available"`
}

type MarketDepth struct {
	Market string `json:"market"`
	IsFull bool   `json:"is_full"`

	Depth struct {
		// Each level is a [price, size] pair.
		Asks [][2]decimal.Decimal `json:"asks"`
		Bids [][2]decimal.Decimal `json:"bids"`

		UpdatedAt int64 `json:"updated_at"`
	} `json:"depth"`
}

type Order struct {
	OrderID        int64           `json:"order_id"`
	ClientOrderID  string          `json:"client_id"`
	Market         string          `json:"market"`
	MarketType     string          `json:"market_type"`
	Side           string          `json:"side"`
	OrderType      string          `json:"type"`
	OrderAmount    decimal.Decimal `json:"amount"`
	OrderPrice     decimal.Decimal `json:"price"`
	UnfilledAmount decimal.Decimal `json:"unfilled_amount"`
	FilledAmount   decimal.Decimal `json:"filled_amount"`
	CreatedAtMilli int64           `json:"created_at"`
	UpdatedAtMilli int64           `json:"updated_at"`
}

type CreateOrderRequest struct {
	ClientOrderID string          `json:"client_id"`
	Market        string          `json:"market"`
	MarketType    string          `json:"market_type"`
	Side          string          `json:"side"`
	OrderType     string          `json:"type"`
	Amount        decimal.Decimal `json:"amount"`
	Price         decimal.Decimal `json:"price"`
}

type CancelOrderRequest struct {
	OrderID    int64  `json:"order_id"`
	Market     string `json:"market"`
	MarketType string `json:"market_type"`
}

type WebsocketHeader struct {
	ID     *int64  `json:"id"`
	Method *string `json:"method"`
}

func (v *WebsocketHeader) IsResponse() bool {
	return v.ID != nil && v.Method == nil
}

func (v *WebsocketHeader) IsNotice() bool {
	return v.ID == nil && v.Method != nil
}

type WebsocketRequest struct {
	ID     int64  `json:"id"`
	Method string `json:"method"`

	Params json.RawMessage `json:"params"`
}

type WebsocketResponse struct {
	ID      int64  `json:"id"`
	Code    int64  `json:"code"`
	Message string `json:"message"`
}

type WebsocketNotice struct {
	Method string          `json:"method"`
	Data   json.RawMessage `json:"data"`
}

type BBOUpdate struct {
	Market       string          `json:"market"`
	UpdatedAt    int64           `json:"updated_at"`
	BestBidPrice decimal.Decimal `json:"best_bid_price"`
	BestBidSize  decimal.Decimal `json:"best_bid_size"`
	BestAskPrice decimal.Decimal `json:"best_ask_price"`
	BestAskSize  decimal.Decimal `json:"best_ask_size"`
}
