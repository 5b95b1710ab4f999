// Package chart renders OHLC windows as PNG candlestick charts with the
// market-structure annotations the decider is shown.
package chart

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"sort"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"smc-trading-bridge/internal/types"
)

var ErrNoBars = errors.New("chart: no bars to render")

const (
	marginX = 12
	marginY = 24
)

var (
	background = color.RGBA{255, 255, 255, 255}
	gridColor  = color.RGBA{235, 235, 235, 255}
	upColor    = color.RGBA{38, 166, 154, 255}
	downColor  = color.RGBA{239, 83, 80, 255}
	fvgFill    = color.NRGBA{255, 165, 0, 77}
	fvgText    = color.RGBA{255, 140, 0, 255}
	obColor    = color.RGBA{30, 90, 220, 255}
	eqColor    = color.RGBA{128, 128, 128, 255}
	textColor  = color.RGBA{20, 20, 20, 255}

	linePalette = []color.RGBA{
		{255, 152, 0, 255},
		{156, 39, 176, 255},
		{33, 150, 243, 255},
		{121, 85, 72, 255},
		{0, 150, 136, 255},
	}
)

// Renderer draws fixed-size charts.
type Renderer struct {
	Width, Height int
}

func New(width, height int) *Renderer {
	if width <= 2*marginX {
		width = 800
	}
	if height <= 2*marginY {
		height = 400
	}
	return &Renderer{Width: width, Height: height}
}

type canvas struct {
	img        *image.RGBA
	n          int
	lo, hi     float64
	plotW      float64
	plotH      float64
	slot       float64
	bodyHalfPx int
}

func (c *canvas) x(i int) int {
	return marginX + int(c.slot*(float64(i)+0.5))
}

func (c *canvas) y(price float64) int {
	return marginY + int((c.hi-price)/(c.hi-c.lo)*c.plotH)
}

// Render draws bars oldest-left with the overlay annotations.
func (r *Renderer) Render(bars []types.Bar, ov types.ChartOverlay) ([]byte, error) {
	if len(bars) == 0 {
		return nil, ErrNoBars
	}

	lo, hi := priceRange(bars, ov)
	c := &canvas{
		img:   image.NewRGBA(image.Rect(0, 0, r.Width, r.Height)),
		n:     len(bars),
		lo:    lo,
		hi:    hi,
		plotW: float64(r.Width - 2*marginX),
		plotH: float64(r.Height - 2*marginY),
	}
	c.slot = c.plotW / float64(c.n)
	c.bodyHalfPx = int(math.Max(0, c.slot*0.3))

	draw.Draw(c.img, c.img.Bounds(), image.NewUniform(background), image.Point{}, draw.Src)
	for i := 1; i < 4; i++ {
		hLine(c.img, marginY+int(c.plotH*float64(i)/4), marginX, r.Width-marginX, gridColor, false)
	}

	if ov.FVG != "" && c.n >= 3 {
		c0, c2 := bars[c.n-1], bars[c.n-3]
		top, bottom := c.y(math.Max(c2.High, c0.Low)), c.y(math.Min(c2.High, c0.Low))
		if ov.FVG == "bearish_FVG" {
			top, bottom = c.y(math.Max(c2.Low, c0.High)), c.y(math.Min(c2.Low, c0.High))
		}
		rect := image.Rect(c.x(c.n-3), top, c.x(c.n-1)+1, bottom+1)
		draw.Draw(c.img, rect, image.NewUniform(fvgFill), image.Point{}, draw.Over)
		label(c.img, c.x(c.n-3), top-3, ov.FVG, fvgText)
	}

	for i, b := range bars {
		col := upColor
		if b.Close < b.Open {
			col = downColor
		}
		x := c.x(i)
		vLine(c.img, x, c.y(b.High), c.y(b.Low), col)
		top, bottom := c.y(math.Max(b.Open, b.Close)), c.y(math.Min(b.Open, b.Close))
		fillRect(c.img, x-c.bodyHalfPx, top, x+c.bodyHalfPx, bottom, col)
	}

	names := make([]string, 0, len(ov.Lines))
	for name := range ov.Lines {
		names = append(names, name)
	}
	sort.Strings(names)
	for k, name := range names {
		col := linePalette[k%len(linePalette)]
		polyline(c, ov.Lines[name], col)
		label(c.img, marginX+4+k*90, r.Height-6, name, col)
	}

	if (ov.Zone == "premium" || ov.Zone == "discount") && ov.Equilibrium != nil {
		y := c.y(*ov.Equilibrium)
		hLine(c.img, y, marginX, r.Width-marginX, eqColor, true)
		label(c.img, r.Width-marginX-70, y-3, upper(ov.Zone), eqColor)
	}

	last := bars[c.n-1]
	if ov.Structure != "" {
		y := c.y(last.High) - 14
		arrow(c.img, c.x(c.n-1), y, c.y(last.High)-2, textColor)
		label(c.img, c.x(c.n-1)-7*len(ov.Structure), y-2, ov.Structure, textColor)
	}
	if ov.NearOB {
		y := c.y(last.Low) + 14
		arrow(c.img, c.x(c.n-1), y, c.y(last.Low)+2, obColor)
		label(c.img, c.x(c.n-1)-49, y+12, "Near OB", obColor)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, c.img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func priceRange(bars []types.Bar, ov types.ChartOverlay) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, b := range bars {
		lo = math.Min(lo, b.Low)
		hi = math.Max(hi, b.High)
	}
	for _, series := range ov.Lines {
		for _, v := range series {
			if !math.IsNaN(v) && !math.IsInf(v, 0) {
				lo = math.Min(lo, v)
				hi = math.Max(hi, v)
			}
		}
	}
	if hi <= lo {
		pad := math.Max(math.Abs(hi)*0.001, 1e-6)
		return lo - pad, hi + pad
	}
	pad := (hi - lo) * 0.05
	return lo - pad, hi + pad
}

func fillRect(img *image.RGBA, x0, y0, x1, y1 int, col color.Color) {
	if y1 < y0 {
		y0, y1 = y1, y0
	}
	draw.Draw(img, image.Rect(x0, y0, x1+1, y1+1), image.NewUniform(col), image.Point{}, draw.Src)
}

func vLine(img *image.RGBA, x, y0, y1 int, col color.Color) {
	fillRect(img, x, y0, x, y1, col)
}

func hLine(img *image.RGBA, y, x0, x1 int, col color.Color, dashed bool) {
	for x := x0; x <= x1; x++ {
		if dashed && (x/4)%2 == 1 {
			continue
		}
		img.Set(x, y, col)
	}
}

// polyline joins consecutive finite points with Bresenham segments.
func polyline(c *canvas, series []float64, col color.Color) {
	px, py, have := 0, 0, false
	for i, v := range series {
		if i >= c.n || math.IsNaN(v) || math.IsInf(v, 0) {
			have = false
			continue
		}
		x, y := c.x(i), c.y(v)
		if have {
			segment(c.img, px, py, x, y, col)
		} else {
			c.img.Set(x, y, col)
		}
		px, py, have = x, y, true
	}
}

func segment(img *image.RGBA, x0, y0, x1, y1 int, col color.Color) {
	dx, dy := abs(x1-x0), -abs(y1-y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	e := dx + dy
	for {
		img.Set(x0, y0, col)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

func arrow(img *image.RGBA, x, fromY, toY int, col color.Color) {
	vLine(img, x, fromY, toY, col)
	dir := 1
	if toY < fromY {
		dir = -1
	}
	for k := 1; k <= 3; k++ {
		img.Set(x-k, toY-dir*k, col)
		img.Set(x+k, toY-dir*k, col)
	}
}

func label(img *image.RGBA, x, y int, s string, col color.Color) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}

func upper(s string) string {
	b := []byte(s)
	for i, ch := range b {
		if ch >= 'a' && ch <= 'z' {
			b[i] = ch - 32
		}
	}
	return string(b)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
