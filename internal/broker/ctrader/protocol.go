package ctrader

import (
	"encoding/json"
	"strconv"
)

// Payload types of the venue's JSON envelope.
const (
	PayloadHeartbeatEvent     = 51
	PayloadApplicationAuthReq = 2100
	PayloadApplicationAuthRes = 2101
	PayloadAccountAuthReq     = 2102
	PayloadAccountAuthRes     = 2103
	PayloadNewOrderReq        = 2106
	PayloadAmendOrderReq      = 2107
	PayloadAmendPositionSLTP  = 2110
	PayloadSymbolsListReq     = 2114
	PayloadSymbolsListRes     = 2115
	PayloadReconcileReq       = 2124
	PayloadReconcileRes       = 2125
	PayloadExecutionEvent     = 2126
	PayloadOrderErrorEvent    = 2132
	PayloadGetTrendbarsReq    = 2137
	PayloadGetTrendbarsRes    = 2138
	PayloadErrorRes           = 2142
)

const (
	wireOrderMarket = 1
	wireOrderLimit  = 2
	wireOrderStop   = 3

	wireSideBuy  = 1
	wireSideSell = 2
)

// Execution types reported by execution events.
const (
	execOrderAccepted    = 2
	execOrderFilled      = 3
	execOrderReplaced    = 4
	execOrderCancelled   = 5
	execOrderExpired     = 6
	execOrderRejected    = 7
	execOrderPartialFill = 11
)

var executionTypeNames = map[int]string{
	execOrderAccepted:    "ORDER_ACCEPTED",
	execOrderFilled:      "ORDER_FILLED",
	execOrderReplaced:    "ORDER_REPLACED",
	execOrderCancelled:   "ORDER_CANCELLED",
	execOrderExpired:     "ORDER_EXPIRED",
	execOrderRejected:    "ORDER_REJECTED",
	execOrderPartialFill: "ORDER_PARTIAL_FILL",
}

func executionTypeName(t int) string {
	if n, ok := executionTypeNames[t]; ok {
		return n
	}
	return strconv.Itoa(t)
}

// Envelope is one frame on the wire.
type Envelope struct {
	ClientMsgID string          `json:"clientMsgId,omitempty"`
	PayloadType int             `json:"payloadType"`
	Payload     json.RawMessage `json:"payload,omitempty"`
}

func (e *Envelope) decode(v any) error {
	if len(e.Payload) == 0 {
		return nil
	}
	return json.Unmarshal(e.Payload, v)
}

type appAuthReq struct {
	ClientID     string `json:"clientId"`
	ClientSecret string `json:"clientSecret"`
}

type accountAuthReq struct {
	AccountID   int64  `json:"ctidTraderAccountId"`
	AccessToken string `json:"accessToken"`
}

type symbolsListReq struct {
	AccountID              int64 `json:"ctidTraderAccountId"`
	IncludeArchivedSymbols bool  `json:"includeArchivedSymbols"`
}

type lightSymbol struct {
	SymbolID    int64  `json:"symbolId"`
	SymbolName  string `json:"symbolName"`
	Digits      *int   `json:"digits,omitempty"`
	PipPosition *int   `json:"pipPosition,omitempty"`
}

type symbolsListRes struct {
	Symbol []lightSymbol `json:"symbol"`
}

type reconcileReq struct {
	AccountID int64 `json:"ctidTraderAccountId"`
}

type tradeData struct {
	SymbolID  int64 `json:"symbolId"`
	Volume    int64 `json:"volume"`
	TradeSide int   `json:"tradeSide"`
}

type wirePosition struct {
	PositionID int64     `json:"positionId"`
	TradeData  tradeData `json:"tradeData"`
	Price      int64     `json:"price"`
	StopLoss   *int64    `json:"stopLoss,omitempty"`
	TakeProfit *int64    `json:"takeProfit,omitempty"`
}

type wireOrder struct {
	OrderID    int64     `json:"orderId"`
	TradeData  tradeData `json:"tradeData"`
	OrderType  int       `json:"orderType"`
	LimitPrice *int64    `json:"limitPrice,omitempty"`
	StopPrice  *int64    `json:"stopPrice,omitempty"`
	PositionID int64     `json:"positionId,omitempty"`
}

type reconcileRes struct {
	Position []wirePosition `json:"position"`
	Order    []wireOrder    `json:"order"`
}

type newOrderReq struct {
	AccountID          int64  `json:"ctidTraderAccountId"`
	SymbolID           int64  `json:"symbolId"`
	OrderType          int    `json:"orderType"`
	TradeSide          int    `json:"tradeSide"`
	Volume             int64  `json:"volume"`
	LimitPrice         *int64 `json:"limitPrice,omitempty"`
	StopPrice          *int64 `json:"stopPrice,omitempty"`
	StopLoss           *int64 `json:"stopLoss,omitempty"`
	TakeProfit         *int64 `json:"takeProfit,omitempty"`
	RelativeStopLoss   *int64 `json:"relativeStopLoss,omitempty"`
	RelativeTakeProfit *int64 `json:"relativeTakeProfit,omitempty"`
	Label              string `json:"label,omitempty"`
}

type amendPositionReq struct {
	AccountID  int64  `json:"ctidTraderAccountId"`
	PositionID int64  `json:"positionId"`
	StopLoss   *int64 `json:"stopLoss,omitempty"`
	TakeProfit *int64 `json:"takeProfit,omitempty"`
}

type amendOrderReq struct {
	AccountID  int64  `json:"ctidTraderAccountId"`
	OrderID    int64  `json:"orderId"`
	StopLoss   *int64 `json:"stopLoss,omitempty"`
	TakeProfit *int64 `json:"takeProfit,omitempty"`
}

type executionEvent struct {
	ExecutionType int           `json:"executionType"`
	Position      *wirePosition `json:"position,omitempty"`
	Order         *wireOrder    `json:"order,omitempty"`
	ErrorCode     string        `json:"errorCode,omitempty"`
}

type getTrendbarsReq struct {
	AccountID     int64 `json:"ctidTraderAccountId"`
	SymbolID      int64 `json:"symbolId"`
	Period        int   `json:"period"`
	FromTimestamp int64 `json:"fromTimestamp"`
	ToTimestamp   int64 `json:"toTimestamp"`
}

type wireTrendbar struct {
	Volume                int64 `json:"volume"`
	Low                   int64 `json:"low"`
	DeltaOpen             int64 `json:"deltaOpen"`
	DeltaHigh             int64 `json:"deltaHigh"`
	DeltaClose            int64 `json:"deltaClose"`
	UTCTimestampInMinutes int64 `json:"utcTimestampInMinutes"`
}

type getTrendbarsRes struct {
	Trendbar []wireTrendbar `json:"trendbar"`
}

// errorRes covers both the generic error response and the order error event.
type errorRes struct {
	ErrorCode   string `json:"errorCode"`
	Description string `json:"description"`
	OrderID     int64  `json:"orderId,omitempty"`
	PositionID  int64  `json:"positionId,omitempty"`
}
