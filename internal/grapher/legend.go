package grapher

import (
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/termenv"

	"github.com/tOgg1/plotgraph/internal/history"
	"github.com/tOgg1/plotgraph/internal/raster"
)

const legendGap = "  "

type legendEntry struct {
	label string
	style lipgloss.Style
}

// legend is the line under the graph: one colored label per stage followed
// by free-form status text.
type legend struct {
	entries []legendEntry
	status  lipgloss.Style
}

func newLegend(out io.Writer) *legend {
	re := lipgloss.NewRenderer(out)
	re.SetColorProfile(termenv.TrueColor)

	black := lipgloss.Color("#000000")
	l := &legend{
		status: re.NewStyle().Foreground(lipgloss.Color("#ffffff")).Background(black),
	}
	for st := history.Stage(0); st < history.NumStages; st++ {
		l.entries = append(l.entries, legendEntry{
			label: strings.ToUpper(st.String()),
			style: re.NewStyle().Foreground(lipgloss.Color(raster.StageHex[st])).Background(black),
		})
	}
	return l
}

// render lays out labels and status within width cells. Labels that do not
// fit are dropped and the status is truncated.
func (l *legend) render(width int, status string) string {
	var b strings.Builder
	used := 0
	for _, e := range l.entries {
		cell := e.label + legendGap
		w := runewidth.StringWidth(cell)
		if used+w > width {
			break
		}
		b.WriteString(e.style.Render(cell))
		used += w
	}
	if status != "" && used < width {
		status = runewidth.Truncate(status, width-used, "")
		b.WriteString(l.status.Render(status))
	}
	return b.String()
}
