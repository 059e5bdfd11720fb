// Package raster builds the pixel timeline the terminal renderer encodes.
package raster

import (
	"image"
	"image/color"
)

// Raster is a pixel grid plus a text overlay laid out on terminal cells.
// Each cell covers CellW×CellH pixels.
type Raster struct {
	Image   *image.RGBA
	Overlay []byte

	Cols, Rows   int
	CellW, CellH int
}

// New allocates a raster of cols×rows cells with cellW×cellH pixels per cell.
// Dimensions below one are clamped to one.
func New(cols, rows, cellW, cellH int) *Raster {
	cols = max(cols, 1)
	rows = max(rows, 1)
	cellW = max(cellW, 1)
	cellH = max(cellH, 1)
	return &Raster{
		Image:   image.NewRGBA(image.Rect(0, 0, cols*cellW, rows*cellH)),
		Overlay: make([]byte, cols*rows),
		Cols:    cols,
		Rows:    rows,
		CellW:   cellW,
		CellH:   cellH,
	}
}

// Width returns the width in pixels.
func (r *Raster) Width() int {
	return r.Image.Rect.Dx()
}

// Height returns the height in pixels.
func (r *Raster) Height() int {
	return r.Image.Rect.Dy()
}

// At returns the pixel at x, y.
func (r *Raster) At(x, y int) color.RGBA {
	return r.Image.RGBAAt(x, y)
}

// ClearOverlay removes all overlay text.
func (r *Raster) ClearOverlay() {
	clear(r.Overlay)
}

// OverlayAt returns the overlay character of a cell, or 0.
func (r *Raster) OverlayAt(col, row int) byte {
	if col < 0 || col >= r.Cols || row < 0 || row >= r.Rows {
		return 0
	}
	return r.Overlay[row*r.Cols+col]
}

// SetText writes s into the overlay starting at col, row. Characters that
// fall outside the grid are dropped; non-ASCII bytes become '?'.
func (r *Raster) SetText(col, row int, s string) {
	if row < 0 || row >= r.Rows {
		return
	}
	for i := 0; i < len(s); i++ {
		c := col + i
		if c < 0 {
			continue
		}
		if c >= r.Cols {
			return
		}
		ch := s[i]
		if ch < 0x20 || ch > 0x7e {
			ch = '?'
		}
		r.Overlay[row*r.Cols+c] = ch
	}
}
