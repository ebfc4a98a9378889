package particle

import (
	"image/color"
	"math"
)

const hueCycle = 360.0

// Rainbow returns the colour for the i-th of n particles so that consecutive
// spawns sweep once around the hue wheel.
func Rainbow(i, n int) Tag {
	if n <= 0 {
		n = 1
	}
	hue := math.Mod(float64(i)*hueCycle/float64(n), hueCycle)
	r, g, b := hsvToRGB(hue, 1.0, 1.0)
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

func hsvToRGB(h, s, v float64) (uint8, uint8, uint8) {
	h = math.Mod(h, hueCycle)
	if h < 0 {
		h += hueCycle
	}
	c := v * s
	x := c * (1 - math.Abs(math.Mod(h/60, 2)-1))
	m := v - c
	var r, g, b float64
	switch {
	case h < 60:
		r, g, b = c, x, 0
	case h < 120:
		r, g, b = x, c, 0
	case h < 180:
		r, g, b = 0, c, x
	case h < 240:
		r, g, b = 0, x, c
	case h < 300:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}
	return uint8(255 * (r + m)), uint8(255 * (g + m)), uint8(255 * (b + m))
}
