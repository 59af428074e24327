// Package physics provides axis-aligned rectangle maths for collision detection.
package physics

// Rect is an axis-aligned rectangle in logical pixels. Y grows downward.
type Rect struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
}

// RectAt builds a rectangle from its top-left corner and size.
func RectAt(x, y, w, h float64) Rect {
	return Rect{Left: x, Top: y, Right: x + w, Bottom: y + h}
}

// Width returns the horizontal extent of r.
func (r Rect) Width() float64 {
	return r.Right - r.Left
}

// Height returns the vertical extent of r.
func (r Rect) Height() float64 {
	return r.Bottom - r.Top
}

// Overlaps reports whether r and o intersect. Edges are closed: rectangles that
// only touch along a side or corner overlap.
func (r Rect) Overlaps(o Rect) bool {
	return !(r.Bottom < o.Top ||
		r.Top > o.Bottom ||
		r.Right < o.Left ||
		r.Left > o.Right)
}

// Clamp limits v to [lo, hi]. If hi < lo, lo wins.
func Clamp(v, lo, hi float64) float64 {
	if v > hi {
		v = hi
	}
	if v < lo {
		v = lo
	}
	return v
}
