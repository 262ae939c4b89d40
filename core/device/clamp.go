package device

import "math"

// Clamp bounds a value to [Lo, Hi].
type Clamp struct {
	Lo float64
	Hi float64
}

var (
	unitRange    = Clamp{Lo: 0, Hi: 1}
	bipolarRange = Clamp{Lo: -1, Hi: 1}
)

// Apply returns x bounded to the range. NaN maps to Lo.
func (c Clamp) Apply(x float64) float64 {
	if math.IsNaN(x) {
		return c.Lo
	}
	return math.Max(c.Lo, math.Min(c.Hi, x))
}
