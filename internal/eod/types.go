package eod

// orderLine is the subset of an order journal line the summary reads.
type orderLine struct {
	Symbol    string  `json:"symbol"`
	Side      string  `json:"side"`
	Kind      string  `json:"kind"`
	Volume    float64 `json:"volume"`
	Status    string  `json:"status"`
	Submitted bool    `json:"submitted"`
	Detail    string  `json:"detail"`
	Amended   bool    `json:"amended"`
}

// summaryRow is one CSV row: the per-symbol aggregate of a day's orders.
type summaryRow struct {
	Symbol    string  `csv:"symbol"`
	Orders    int     `csv:"orders"`
	Submitted int     `csv:"submitted"`
	Failed    int     `csv:"failed"`
	BuyLots   float64 `csv:"buy_lots"`
	SellLots  float64 `csv:"sell_lots"`
	NetLots   float64 `csv:"net_lots"`
	Market    int     `csv:"market"`
	Pending   int     `csv:"pending"`
	Amended   int     `csv:"amended"`
	Unamended int     `csv:"protection_failed"`
}
