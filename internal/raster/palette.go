package raster

import (
	"fmt"
	"image/color"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/tOgg1/plotgraph/internal/history"
)

// StageHex holds the display color of each stage.
var StageHex = [history.NumStages]string{
	history.StageForward:  "#e9eb2e",
	history.StageBackprop: "#50b490",
	history.StageCompress: "#2e5ec0",
	history.StageWrite:    "#f7470e",
	history.StageCopy:     "#aaaaaa",
}

// BackgroundHex is the color of time with no known stage.
const BackgroundHex = "#363636"

// bandShade scales colors in the darker time bands.
const bandShade = 200

var (
	stageColors [history.NumStages]color.RGBA
	background  = mustHex(BackgroundHex)
	black       = color.RGBA{A: 0xff}
)

func init() {
	for i, hex := range StageHex {
		stageColors[i] = mustHex(hex)
	}
}

// StageColor returns the display color of st.
func StageColor(st history.Stage) color.RGBA {
	if st < 0 || st >= history.NumStages {
		return background
	}
	return stageColors[st]
}

// Background returns the color of unresolved time.
func Background() color.RGBA {
	return background
}

func shade(c color.RGBA) color.RGBA {
	return color.RGBA{
		R: uint8(uint16(c.R) * bandShade / 255),
		G: uint8(uint16(c.G) * bandShade / 255),
		B: uint8(uint16(c.B) * bandShade / 255),
		A: c.A,
	}
}

func mustHex(hex string) color.RGBA {
	c, err := colorful.Hex(hex)
	if err != nil {
		panic(fmt.Sprintf("raster: bad color %q: %v", hex, err))
	}
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 0xff}
}
