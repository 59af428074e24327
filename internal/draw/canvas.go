package draw

import (
	"io"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/muesli/termenv"
)

// Point represents a 2D coordinate in logical space.
type Point struct {
	X, Y float64
}

// Half-block glyphs. A terminal cell holds two vertical sub-pixels: the upper
// one is the foreground of '▀', the lower one its background.
const (
	BlockFull      = '█'
	BlockUpperHalf = '▀'
	BlockLowerHalf = '▄'
)

// staleCell never matches a real cell, so the next Render rewrites it.
const staleCell = math.MaxUint64

// Canvas is a colour drawing buffer with 2x vertical resolution using
// half-block characters. Game objects draw in logical coordinates which are
// scaled to the terminal. Render only rewrites cells that changed since the
// previous frame.
type Canvas struct {
	termWidth      int      // Actual terminal columns
	termHeight     int      // Actual terminal rows
	subPixelHeight int      // termHeight * 2
	pixels         []uint32 // Packed RGB per sub-pixel: [y * termWidth + x]
	prev           []uint64 // Last rendered (top, bottom) pair per cell
	background     uint32

	logicalWidth  float64
	logicalHeight float64
	scaleX        float64 // termWidth / logicalWidth
	scaleY        float64 // (termHeight*2) / logicalHeight

	// 0-based terminal offsets for centring the render area
	offsetCol int
	offsetRow int

	profile  termenv.Profile
	seqCache map[uint32][2]string // fg, bg SGR parameters per colour

	renderBuf       strings.Builder
	scaledBuf       []Point
	intersectionBuf []float64
}

// NewScaledCanvas creates a canvas that scales from logical coordinates to terminal pixels.
func NewScaledCanvas(termWidth, termHeight int, logicalWidth, logicalHeight float64) *Canvas {
	c := &Canvas{
		logicalWidth:  logicalWidth,
		logicalHeight: logicalHeight,
		profile:       termenv.ANSI256,
		seqCache:      make(map[uint32][2]string),
	}
	c.Resize(termWidth, termHeight)
	return c
}

// Resize updates the canvas for new terminal dimensions while keeping the
// logical size. The next Render redraws every cell.
func (c *Canvas) Resize(termWidth, termHeight int) {
	termWidth = max(termWidth, 1)
	termHeight = max(termHeight, 1)
	if termWidth != c.termWidth || termHeight != c.termHeight {
		c.termWidth = termWidth
		c.termHeight = termHeight
		c.subPixelHeight = termHeight * 2
		c.pixels = make([]uint32, c.subPixelHeight*termWidth)
		c.prev = make([]uint64, termHeight*termWidth)
	}
	c.scaleX = float64(c.termWidth) / c.logicalWidth
	c.scaleY = float64(c.subPixelHeight) / c.logicalHeight
	c.ForceRedraw()
}

// SetProfile selects how colours are encoded. Ascii drops colour entirely.
func (c *Canvas) SetProfile(p termenv.Profile) {
	if p != c.profile {
		c.profile = p
		clear(c.seqCache)
		c.ForceRedraw()
	}
}

// Profile returns the colour profile in use.
func (c *Canvas) Profile() termenv.Profile {
	return c.profile
}

// SetOffset sets the column and row offset for centering the canvas.
func (c *Canvas) SetOffset(col, row int) {
	c.offsetCol = col
	c.offsetRow = row
}

// OffsetCol returns the column offset used for centering.
func (c *Canvas) OffsetCol() int {
	return c.offsetCol
}

// OffsetRow returns the row offset used for centering.
func (c *Canvas) OffsetRow() int {
	return c.offsetRow
}

// ForceRedraw makes the next Render write every cell, e.g. after the screen was cleared.
func (c *Canvas) ForceRedraw() {
	for i := range c.prev {
		c.prev[i] = staleCell
	}
}

// MarkTextDirty records that text was written over cells starting at the
// 1-based canvas position (col, row), so they are repainted next frame.
func (c *Canvas) MarkTextDirty(col, row, width int) {
	r := row - 1
	if r < 0 || r >= c.termHeight {
		return
	}
	start := max(col-1, 0)
	end := min(col-1+width, c.termWidth)
	for x := start; x < end; x++ {
		c.prev[r*c.termWidth+x] = staleCell
	}
}

// Clear fills every pixel with bg.
func (c *Canvas) Clear(bg colorful.Color) {
	c.background = pack(bg)
	for i := range c.pixels {
		c.pixels[i] = c.background
	}
}

func (c *Canvas) setPixel(x, y int, col uint32) {
	if x >= 0 && x < c.termWidth && y >= 0 && y < c.subPixelHeight {
		c.pixels[y*c.termWidth+x] = col
	}
}

// SetFloat sets one pixel at logical coordinates.
func (c *Canvas) SetFloat(x, y float64, col colorful.Color) {
	c.setPixel(int(math.Floor(x*c.scaleX)), int(math.Floor(y*c.scaleY)), pack(col))
}

// FillRect fills the logical rectangle with top-left (x, y) and size (w, h).
// Anything wider or taller than zero covers at least one pixel.
func (c *Canvas) FillRect(x, y, w, h float64, col colorful.Color) {
	if w <= 0 || h <= 0 {
		return
	}
	x0, x1 := pixelSpan(x, x+w, c.scaleX)
	y0, y1 := pixelSpan(y, y+h, c.scaleY)
	packed := pack(col)
	for py := max(y0, 0); py <= min(y1, c.subPixelHeight-1); py++ {
		for px := max(x0, 0); px <= min(x1, c.termWidth-1); px++ {
			c.pixels[py*c.termWidth+px] = packed
		}
	}
}

// pixelSpan maps the logical interval [a, b) to an inclusive pixel range.
func pixelSpan(a, b, scale float64) (int, int) {
	p0 := int(math.Round(a * scale))
	p1 := int(math.Round(b*scale)) - 1
	if p1 < p0 {
		p1 = p0
	}
	return p0, p1
}

// FillEllipse fills the ellipse centred on (cx, cy) with radii rx, ry, all logical.
func (c *Canvas) FillEllipse(cx, cy, rx, ry float64, col colorful.Color) {
	pcx, pcy := cx*c.scaleX, cy*c.scaleY
	prx, pry := rx*c.scaleX, ry*c.scaleY
	packed := pack(col)
	if prx < 0.5 || pry < 0.5 {
		c.setPixel(int(math.Floor(pcx)), int(math.Floor(pcy)), packed)
		return
	}

	yStart := int(math.Floor(pcy - pry))
	yEnd := int(math.Ceil(pcy + pry))
	for py := yStart; py <= yEnd; py++ {
		dy := (float64(py) + 0.5 - pcy) / pry
		if dy < -1 || dy > 1 {
			continue
		}
		half := prx * math.Sqrt(1-dy*dy)
		xStart := int(math.Ceil(pcx - half - 0.5))
		xEnd := int(math.Floor(pcx + half - 0.5))
		for px := xStart; px <= xEnd; px++ {
			c.setPixel(px, py, packed)
		}
	}
}

// FillPolygon fills a polygon given in logical coordinates using a scanline
// pass in pixel space.
func (c *Canvas) FillPolygon(points []Point, col colorful.Color) {
	if len(points) < 3 {
		return
	}
	if cap(c.scaledBuf) < len(points) {
		c.scaledBuf = make([]Point, len(points))
	}
	scaled := c.scaledBuf[:len(points)]
	for i, p := range points {
		scaled[i] = Point{X: p.X * c.scaleX, Y: p.Y * c.scaleY}
	}

	minY, maxY := scaled[0].Y, scaled[0].Y
	for _, p := range scaled {
		minY = min(minY, p.Y)
		maxY = max(maxY, p.Y)
	}

	packed := pack(col)
	n := len(scaled)
	for y := int(math.Floor(minY)); y <= int(math.Ceil(maxY)); y++ {
		scanY := float64(y) + 0.5

		intersections := c.intersectionBuf[:0]
		for i := 0; i < n; i++ {
			p1 := scaled[i]
			p2 := scaled[(i+1)%n]
			if (p1.Y <= scanY && p2.Y > scanY) || (p2.Y <= scanY && p1.Y > scanY) {
				t := (scanY - p1.Y) / (p2.Y - p1.Y)
				intersections = append(intersections, p1.X+t*(p2.X-p1.X))
			}
		}
		c.intersectionBuf = intersections
		slices.Sort(intersections)

		for i := 0; i+1 < len(intersections); i += 2 {
			xStart := int(math.Ceil(intersections[i] - 0.5))
			xEnd := int(math.Floor(intersections[i+1] - 0.5))
			for x := xStart; x <= xEnd; x++ {
				c.setPixel(x, y, packed)
			}
		}
	}
}

// Render writes every changed cell to w, then resets the SGR state.
func (c *Canvas) Render(w io.Writer) {
	c.renderBuf.Reset()

	lastRow, lastCol := -1, -1
	var lastKey uint64 = staleCell
	for row := 0; row < c.termHeight; row++ {
		topOffset := row * 2 * c.termWidth
		bottomOffset := topOffset + c.termWidth
		for col := 0; col < c.termWidth; col++ {
			top := c.pixels[topOffset+col]
			bottom := c.pixels[bottomOffset+col]
			key := uint64(top)<<32 | uint64(bottom)

			idx := row*c.termWidth + col
			if c.prev[idx] == key {
				continue
			}
			c.prev[idx] = key

			if row != lastRow || col != lastCol+1 {
				c.moveTo(col+1+c.offsetCol, row+1+c.offsetRow)
			}
			c.writeCell(top, bottom, key != lastKey)
			lastRow, lastCol, lastKey = row, col, key
		}
	}
	if c.renderBuf.Len() == 0 {
		return
	}
	c.renderBuf.WriteString(termenv.CSI + termenv.ResetSeq + "m")
	io.WriteString(w, c.renderBuf.String())
}

func (c *Canvas) moveTo(col, row int) {
	var num [20]byte
	c.renderBuf.WriteString(termenv.CSI)
	c.renderBuf.Write(strconv.AppendInt(num[:0], int64(row), 10))
	c.renderBuf.WriteByte(';')
	c.renderBuf.Write(strconv.AppendInt(num[:0], int64(col), 10))
	c.renderBuf.WriteByte('H')
}

func (c *Canvas) writeCell(top, bottom uint32, newColour bool) {
	if c.profile == termenv.Ascii {
		topSet, bottomSet := top != c.background, bottom != c.background
		switch {
		case topSet && bottomSet:
			c.renderBuf.WriteRune(BlockFull)
		case topSet:
			c.renderBuf.WriteRune(BlockUpperHalf)
		case bottomSet:
			c.renderBuf.WriteRune(BlockLowerHalf)
		default:
			c.renderBuf.WriteByte(' ')
		}
		return
	}

	if newColour {
		fg := c.sequence(top)[0]
		bg := c.sequence(bottom)[1]
		c.renderBuf.WriteString(termenv.CSI)
		c.renderBuf.WriteString(fg)
		c.renderBuf.WriteByte(';')
		c.renderBuf.WriteString(bg)
		c.renderBuf.WriteByte('m')
	}
	if top == bottom {
		c.renderBuf.WriteRune(BlockFull)
		return
	}
	c.renderBuf.WriteRune(BlockUpperHalf)
}

func (c *Canvas) sequence(col uint32) [2]string {
	if s, ok := c.seqCache[col]; ok {
		return s
	}
	tc := c.profile.Color(unpack(col).Hex())
	s := [2]string{tc.Sequence(false), tc.Sequence(true)}
	c.seqCache[col] = s
	return s
}

// RenderBorder draws a box border around the canvas area when the terminal
// exceeds the max render resolution on either axis.
func (c *Canvas) RenderBorder(w io.Writer) {
	hasH := c.offsetCol >= 1 // Room for left/right bars
	hasV := c.offsetRow >= 1 // Room for top/bottom bars
	if !hasH && !hasV {
		return
	}

	left := c.offsetCol
	right := c.offsetCol + c.termWidth + 1
	top := c.offsetRow
	bottom := c.offsetRow + c.termHeight + 1
	line := strings.Repeat("─", c.termWidth)

	cw := NewChunkWriter(w, 0, 0)
	if hasV {
		if hasH {
			cw.WriteAt(left, top, "┌"+line+"┐")
			cw.WriteAt(left, bottom, "└"+line+"┘")
		} else {
			cw.WriteAt(c.offsetCol+1, top, line)
			cw.WriteAt(c.offsetCol+1, bottom, line)
		}
	}
	if hasH {
		for row := c.offsetRow + 1; row <= c.offsetRow+c.termHeight; row++ {
			cw.WriteAt(left, row, "│")
			cw.WriteAt(right, row, "│")
		}
	}
	cw.Flush()
}

// LogicalWidth returns the logical width.
func (c *Canvas) LogicalWidth() float64 {
	return c.logicalWidth
}

// LogicalHeight returns the logical height.
func (c *Canvas) LogicalHeight() float64 {
	return c.logicalHeight
}

// TerminalWidth returns the terminal column count of the render area.
func (c *Canvas) TerminalWidth() int {
	return c.termWidth
}

// TerminalHeight returns the terminal row count of the render area.
func (c *Canvas) TerminalHeight() int {
	return c.termHeight
}

// LogicalToTerminal converts logical coordinates to a 1-based canvas position (col, row).
func (c *Canvas) LogicalToTerminal(x, y float64) (col, row int) {
	px := int(math.Floor(x * c.scaleX))
	py := int(math.Floor(y * c.scaleY))
	return px + 1, py/2 + 1
}

// TerminalToLogical converts a 1-based screen position, as reported by mouse
// events, to logical coordinates at the centre of that cell. The centring
// offset is removed first.
func (c *Canvas) TerminalToLogical(col, row int) (x, y float64) {
	x = (float64(col-1-c.offsetCol) + 0.5) / c.scaleX
	y = (float64(row-1-c.offsetRow)*2 + 1) / c.scaleY
	return x, y
}

func pack(col colorful.Color) uint32 {
	r, g, b := col.Clamped().RGB255()
	return uint32(r)<<16 | uint32(g)<<8 | uint32(b)
}

func unpack(v uint32) colorful.Color {
	return colorful.Color{
		R: float64(v>>16&0xff) / 255,
		G: float64(v>>8&0xff) / 255,
		B: float64(v&0xff) / 255,
	}
}
