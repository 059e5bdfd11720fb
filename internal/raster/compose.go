package raster

import (
	"fmt"
	"time"

	"github.com/tOgg1/plotgraph/internal/history"
)

const (
	// headerPixelRows are left black above the timeline for labels.
	headerPixelRows = 2
	// firstSourceRow is the pixel row of source 0; sources are two rows apart.
	firstSourceRow = 3
	sourceStride   = 2
	// minLabelGap is the minimum number of cells between axis labels.
	minLabelGap = 4
)

// Resolver answers which stage a source was in at a given instant.
type Resolver interface {
	NumSources() int
	StageAt(src int, t time.Time) (history.Stage, bool)
}

// Options configures a Compositor.
type Options struct {
	// Bucket is the time covered by one pixel column.
	Bucket time.Duration
	// BandPeriod is the width of the alternating light/dark bands.
	BandPeriod time.Duration
}

// DefaultOptions returns the standard 450s buckets with hourly bands.
func DefaultOptions() Options {
	return Options{
		Bucket:     450 * time.Second,
		BandPeriod: time.Hour,
	}
}

// Compositor paints the stage history of every source into a raster.
type Compositor struct {
	resolver Resolver
	opts     Options
}

// NewCompositor returns a compositor reading from resolver.
func NewCompositor(resolver Resolver, opts Options) *Compositor {
	def := DefaultOptions()
	if opts.Bucket <= 0 {
		opts.Bucket = def.Bucket
	}
	if opts.BandPeriod <= 0 {
		opts.BandPeriod = def.BandPeriod
	}
	return &Compositor{resolver: resolver, opts: opts}
}

// SourceRow returns the pixel row of source src.
func SourceRow(src int) int {
	return firstSourceRow + src*sourceStride
}

// ScaleRow returns the overlay row holding the time axis for a raster whose
// cells are cellH pixels tall: the last cell row inside the black header.
func ScaleRow(cellH int) int {
	return max(headerPixelRows/max(cellH, 1)-1, 0)
}

// Compose rebuilds every pixel and the overlay of r for the instant now. The
// rightmost column is now; each column to the left is one bucket earlier.
func (c *Compositor) Compose(r *Raster, now time.Time) {
	w, h := r.Width(), r.Height()

	rowSource := make([]int, h)
	for y := range rowSource {
		rowSource[y] = -1
	}
	for src := 0; src < c.resolver.NumSources(); src++ {
		if y := SourceRow(src); y < h {
			rowSource[y] = src
		}
	}

	for y := 0; y < min(headerPixelRows, h); y++ {
		for x := 0; x < w; x++ {
			r.Image.SetRGBA(x, y, black)
		}
	}
	for y := headerPixelRows; y < h; y++ {
		c.drawRow(r, y, rowSource[y], now)
	}

	r.ClearOverlay()
	c.drawScale(r)
}

func (c *Compositor) drawRow(r *Raster, y, src int, now time.Time) {
	t := now
	for x := r.Width() - 1; x >= 0; x-- {
		col := background
		if src >= 0 {
			if st, ok := c.resolver.StageAt(src, t); ok {
				col = StageColor(st)
			}
		}
		if c.darkBand(t) {
			col = shade(col)
		}
		r.Image.SetRGBA(x, y, col)
		t = t.Add(-c.opts.Bucket)
	}
}

func (c *Compositor) darkBand(t time.Time) bool {
	period := int64(c.opts.BandPeriod / time.Second)
	if period <= 0 {
		return false
	}
	band := t.Unix() / period
	if t.Unix() < 0 && t.Unix()%period != 0 {
		band--
	}
	return band&1 == 1
}

// drawScale writes "NOW" at the right edge and hour marks leftwards.
func (c *Compositor) drawScale(r *Raster) {
	row := ScaleRow(r.CellH)
	r.SetText(r.Cols-3, row, "NOW")

	cellSpan := c.opts.Bucket * time.Duration(r.CellW)
	cellsPerHour := float64(time.Hour) / float64(cellSpan)
	step := 1
	for float64(step)*cellsPerHour < minLabelGap {
		step++
	}

	for hour := step; ; hour += step {
		label := hourLabel(hour)
		mark := r.Cols - 1 - int(float64(hour)*cellsPerHour)
		start := mark - len(label) + 1
		if start < 0 {
			return
		}
		if label != "" {
			r.SetText(start, row, label)
		}
	}
}

func hourLabel(hour int) string {
	switch {
	case hour <= 12:
		return fmt.Sprintf("%dh", hour)
	case hour%24 == 0:
		return fmt.Sprintf("%dDAY", hour/24)
	default:
		return ""
	}
}
