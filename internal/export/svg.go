package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/lbartron/Verlet/internal/particle"
	"github.com/lbartron/Verlet/internal/sim"
)

// SceneSVG draws every particle as a filled circle in its tag colour. scale
// maps world units to SVG pixels.
func SceneSVG(e *sim.Engine, scale float64) string {
	if e == nil {
		return ""
	}
	if scale <= 0 {
		scale = 1
	}

	cfg := e.Config()
	width := cfg.WorldWidth * scale
	height := cfg.WorldHeight * scale

	var sb strings.Builder

	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<g>
`, width, height, width, height)

	e.ForEachParticle(func(pos particle.Vec2, radius float64, tag particle.Tag) {
		fmt.Fprintf(&sb, `<circle cx="%.1f" cy="%.1f" r="%.1f" fill="#%02x%02x%02x"/>
`, pos.X*scale, pos.Y*scale, radius*scale, tag.R, tag.G, tag.B)
	})

	sb.WriteString("</g>\n</svg>")
	return sb.String()
}

// SeriesSVG plots values against times as a polyline with 10% padding.
func SeriesSVG(times, values []float64, width, height int, strokeColor string) string {
	n := min(len(times), len(values))
	if n < 2 {
		return ""
	}

	minX, maxX := times[0], times[0]
	minY, maxY := values[0], values[0]
	for i := 0; i < n; i++ {
		minX = min(minX, times[i])
		maxX = max(maxX, times[i])
		minY = min(minY, values[i])
		maxY = max(maxY, values[i])
	}

	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.1
	maxX += rangeX * 0.1
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1
	rangeX = maxX - minX
	rangeY = maxY - minY

	var sb strings.Builder

	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<path fill="none" stroke="%s" stroke-width="1.5" d="M`,
		width, height, width, height, strokeColor)

	for i := 0; i < n; i++ {
		x := (times[i] - minX) / rangeX * float64(width)
		y := float64(height) - (values[i]-minY)/rangeY*float64(height)

		if i == 0 {
			fmt.Fprintf(&sb, "%.1f,%.1f", x, y)
		} else {
			fmt.Fprintf(&sb, " L%.1f,%.1f", x, y)
		}
	}

	sb.WriteString(`"/>
</svg>`)
	return sb.String()
}

// WriteSVG is SceneSVG into w.
func WriteSVG(w io.Writer, e *sim.Engine, scale float64) error {
	_, err := io.WriteString(w, SceneSVG(e, scale))
	return err
}
