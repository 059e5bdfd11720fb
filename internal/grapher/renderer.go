// Package grapher writes rasters to a terminal as 24-bit color half blocks,
// packing two pixels into every character cell.
package grapher

import (
	"image/color"
	"io"
	"strconv"

	"github.com/tOgg1/plotgraph/internal/raster"
)

const (
	cursorHome  = "\x1b[H"
	clearScreen = "\x1b[2J"
	resetAll    = "\x1b[0m"

	// halfBlockTop paints the upper half of a cell in the foreground color.
	halfBlockTop = "▀"
	// halfBlockLeft paints the left half of a cell in the foreground color.
	halfBlockLeft = "▌"
)

// Mode selects how two pixels share one cell.
type Mode int

const (
	// ModeDoubleColumn packs two horizontally adjacent pixels per cell.
	ModeDoubleColumn Mode = iota
	// ModeDoubleRow packs two vertically adjacent pixels per cell.
	ModeDoubleRow
)

func (m Mode) String() string {
	if m == ModeDoubleRow {
		return "double-row"
	}
	return "double-column"
}

// cell returns the pixels per cell horizontally and vertically.
func (m Mode) cell() (int, int) {
	if m == ModeDoubleRow {
		return 1, 2
	}
	return 2, 1
}

// Options configures a Renderer.
type Options struct {
	Mode Mode
	// SkipDraw encodes frames without writing them.
	SkipDraw bool
}

var (
	overlayFG = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	overlayBG = color.RGBA{A: 0xff}
)

// Renderer owns the raster sized to the terminal and repaints the whole
// screen from it on every Render.
type Renderer struct {
	out  io.Writer
	opts Options

	cols, rows int
	raster     *raster.Raster
	frame      []byte

	legend *legend
	status string
}

// New returns a renderer writing to out. Call Resize before the first
// Render to allocate the raster.
func New(out io.Writer, opts Options) *Renderer {
	return &Renderer{
		out:    out,
		opts:   opts,
		legend: newLegend(out),
	}
}

// Resize reallocates the raster for a terminal of cols×rows cells and clears
// the screen. The last terminal row is kept for the legend line.
func (r *Renderer) Resize(cols, rows int) error {
	r.cols = max(cols, 1)
	r.rows = max(rows, 2)
	cw, ch := r.opts.Mode.cell()
	r.raster = raster.New(r.cols, r.rows-1, cw, ch)
	if r.opts.SkipDraw {
		return nil
	}
	_, err := io.WriteString(r.out, clearScreen)
	return err
}

// Size returns the terminal size the renderer was last resized to.
func (r *Renderer) Size() (int, int) {
	return r.cols, r.rows
}

// Raster returns the raster to compose into, or nil before the first Resize.
func (r *Renderer) Raster() *raster.Raster {
	return r.raster
}

// SetStatus sets the text shown after the legend.
func (r *Renderer) SetStatus(s string) {
	r.status = s
}

// Frame returns the most recently encoded frame.
func (r *Renderer) Frame() []byte {
	return r.frame
}

// Render encodes the raster and writes it from the home position.
func (r *Renderer) Render() error {
	if r.raster == nil {
		return nil
	}
	r.frame = r.encode(r.frame[:0])
	if r.opts.SkipDraw {
		return nil
	}
	_, err := r.out.Write(r.frame)
	return err
}

// Close clears the screen and drops the raster.
func (r *Renderer) Close() error {
	r.raster = nil
	r.frame = nil
	if r.opts.SkipDraw {
		return nil
	}
	_, err := io.WriteString(r.out, resetAll+clearScreen+cursorHome)
	return err
}

func (r *Renderer) encode(buf []byte) []byte {
	rs := r.raster
	glyph := halfBlockLeft
	if r.opts.Mode == ModeDoubleRow {
		glyph = halfBlockTop
	}

	buf = append(buf, cursorHome...)
	for row := 0; row < rs.Rows; row++ {
		for col := 0; col < rs.Cols; col++ {
			var fg, bg color.RGBA
			if r.opts.Mode == ModeDoubleRow {
				fg, bg = rs.At(col, 2*row), rs.At(col, 2*row+1)
			} else {
				fg, bg = rs.At(2*col, row), rs.At(2*col+1, row)
			}
			if ch := rs.OverlayAt(col, row); ch != 0 {
				buf = appendColor(buf, 38, overlayFG)
				buf = appendColor(buf, 48, overlayBG)
				buf = append(buf, ch)
				continue
			}
			buf = appendColor(buf, 38, fg)
			buf = appendColor(buf, 48, bg)
			buf = append(buf, glyph...)
		}
		buf = append(buf, resetAll...)
		buf = append(buf, '\r', '\n')
	}
	buf = append(buf, r.legend.render(r.cols, r.status)...)
	return buf
}

// appendColor appends an SGR truecolor sequence; sgr is 38 for foreground
// and 48 for background.
func appendColor(buf []byte, sgr int, c color.RGBA) []byte {
	buf = append(buf, '\x1b', '[')
	buf = strconv.AppendInt(buf, int64(sgr), 10)
	buf = append(buf, ";2;"...)
	buf = strconv.AppendUint(buf, uint64(c.R), 10)
	buf = append(buf, ';')
	buf = strconv.AppendUint(buf, uint64(c.G), 10)
	buf = append(buf, ';')
	buf = strconv.AppendUint(buf, uint64(c.B), 10)
	return append(buf, 'm')
}
