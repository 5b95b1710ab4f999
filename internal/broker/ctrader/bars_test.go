package ctrader

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistoricalBarsDecodesAndOrders(t *testing.T) {
	const base = int64(28_000_000)
	s := &scriptedSender{respond: func(int, []byte) *Envelope {
		return envelope(PayloadGetTrendbarsRes, getTrendbarsRes{Trendbar: []wireTrendbar{
			{UTCTimestampInMinutes: base + 10, Low: 109000, DeltaOpen: 100, DeltaHigh: 300, DeltaClose: 200, Volume: 42},
			{UTCTimestampInMinutes: base, Low: 108000, DeltaOpen: 10, DeltaHigh: 20, DeltaClose: 15, Volume: 7},
			{UTCTimestampInMinutes: base + 5, Low: 108500, DeltaOpen: 50, DeltaHigh: 80, DeltaClose: 60, Volume: 9},
		}})
	}}
	c := newTestClient(t, s, testParams())

	bars, err := c.HistoricalBars(context.Background(), "eurusd", "m5", 2)
	require.NoError(t, err)
	require.Len(t, bars, 2)

	assert.Equal(t, time.Unix((base+5)*60, 0).UTC(), bars[0].Time)
	last := bars[1]
	assert.Equal(t, time.Unix((base+10)*60, 0).UTC(), last.Time)
	assert.InDelta(t, 1.091, last.Open, 1e-9)
	assert.InDelta(t, 1.093, last.High, 1e-9)
	assert.InDelta(t, 1.09, last.Low, 1e-9)
	assert.InDelta(t, 1.092, last.Close, 1e-9)
	assert.Equal(t, int64(42), last.Volume)

	frames := s.frames(PayloadGetTrendbarsReq)
	require.Len(t, frames, 1)
	var req getTrendbarsReq
	require.NoError(t, json.Unmarshal(frames[0].body, &req))
	assert.Equal(t, int64(1), req.SymbolID)
	assert.Equal(t, 5, req.Period)
	assert.Equal(t, int64(2*5*3*60*1000), req.ToTimestamp-req.FromTimestamp)
}

func TestHistoricalBarsValidation(t *testing.T) {
	s := &scriptedSender{}
	c := newTestClient(t, s, testParams())

	_, err := c.HistoricalBars(context.Background(), "EURUSD", "M7", 10)
	assert.ErrorIs(t, err, ErrUnknownTimeframe)

	_, err = c.HistoricalBars(context.Background(), "NOPE", "H1", 10)
	assert.ErrorIs(t, err, ErrUnknownSymbol)

	_, err = c.HistoricalBars(context.Background(), "EURUSD", "H1", 0)
	assert.ErrorIs(t, err, ErrInvalidRequest)

	assert.Zero(t, s.count())
}

func TestHistoricalBarsTimeout(t *testing.T) {
	p := testParams()
	p.BarsTimeout = 10 * time.Millisecond
	c := newTestClient(t, &scriptedSender{}, p)

	_, err := c.HistoricalBars(context.Background(), "EURUSD", "H1", 10)
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestBarsWindowIsCapped(t *testing.T) {
	assert.Equal(t, 300*time.Minute, barsWindow(periods["M1"], 100))
	assert.Equal(t, maxBarsWindow, barsWindow(periods["D1"], 5000))
	assert.Equal(t, maxBarsWindow, barsWindow(periods["H1"], 0))
	for _, n := range []int{2373, 2374, 4745, 5000} {
		assert.Equal(t, maxBarsWindow, barsWindow(periods["MN1"], n), n)
	}
	assert.Equal(t, 90*24*time.Hour, barsWindow(periods["MN1"], 1))
}

func TestTimeframesOrdered(t *testing.T) {
	tf := Timeframes()
	require.Len(t, tf, 14)
	assert.Equal(t, "M1", tf[0])
	assert.Equal(t, "MN1", tf[len(tf)-1])
}
