// Package geom provides the 2-D value types shared by the board engine,
// plugins and renderers.
package geom

import "math"

// Point is a position in logical board coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns p translated by (dx, dy).
func (p Point) Add(dx, dy float64) Point { return Point{p.X + dx, p.Y + dy} }

// Rect is an axis-aligned rectangle. Width and Height may be negative while a
// rectangle is being dragged out; call Normalize before testing containment.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// RectFromPoints returns the normalized rectangle spanned by a and b.
func RectFromPoints(a, b Point) Rect {
	return Rect{X: a.X, Y: a.Y, Width: b.X - a.X, Height: b.Y - a.Y}.Normalize()
}

// Normalize returns r with non-negative width and height.
func (r Rect) Normalize() Rect {
	if r.Width < 0 {
		r.X += r.Width
		r.Width = -r.Width
	}
	if r.Height < 0 {
		r.Y += r.Height
		r.Height = -r.Height
	}
	return r
}

// MaxX returns the right edge.
func (r Rect) MaxX() float64 { return r.X + r.Width }

// MaxY returns the bottom edge.
func (r Rect) MaxY() float64 { return r.Y + r.Height }

// Center returns the midpoint of r.
func (r Rect) Center() Point { return Point{r.X + r.Width/2, r.Y + r.Height/2} }

// IsEmpty reports whether r has no area.
func (r Rect) IsEmpty() bool { return r.Width == 0 || r.Height == 0 }

// Contains reports whether (x, y) lies inside r or on its border.
func (r Rect) Contains(x, y float64) bool {
	r = r.Normalize()
	return x >= r.X && x <= r.MaxX() && y >= r.Y && y <= r.MaxY()
}

// ContainsRect reports whether o lies entirely inside r.
func (r Rect) ContainsRect(o Rect) bool {
	r, o = r.Normalize(), o.Normalize()
	return o.X >= r.X && o.Y >= r.Y && o.MaxX() <= r.MaxX() && o.MaxY() <= r.MaxY()
}

// Intersects reports whether r and o overlap or touch.
func (r Rect) Intersects(o Rect) bool {
	r, o = r.Normalize(), o.Normalize()
	return r.X <= o.MaxX() && o.X <= r.MaxX() && r.Y <= o.MaxY() && o.Y <= r.MaxY()
}

// Union returns the smallest rectangle containing r and o.
func (r Rect) Union(o Rect) Rect {
	r, o = r.Normalize(), o.Normalize()
	minX, minY := math.Min(r.X, o.X), math.Min(r.Y, o.Y)
	maxX, maxY := math.Max(r.MaxX(), o.MaxX()), math.Max(r.MaxY(), o.MaxY())
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// Expand grows r by d on every side (shrinks when d is negative).
func (r Rect) Expand(d float64) Rect {
	r = r.Normalize()
	return Rect{X: r.X - d, Y: r.Y - d, Width: r.Width + 2*d, Height: r.Height + 2*d}
}

// Translate returns r moved by (dx, dy).
func (r Rect) Translate(dx, dy float64) Rect {
	r.X += dx
	r.Y += dy
	return r
}

// UnionAll folds Union over rs. It returns false when rs is empty.
func UnionAll(rs []Rect) (Rect, bool) {
	if len(rs) == 0 {
		return Rect{}, false
	}
	out := rs[0].Normalize()
	for _, r := range rs[1:] {
		out = out.Union(r)
	}
	return out, true
}

// MapRect returns r transformed by the scale and translation that take from
// onto to. It is used to resize every element of a selection together. A
// degenerate from axis leaves that axis unscaled.
func MapRect(r, from, to Rect) Rect {
	r, from, to = r.Normalize(), from.Normalize(), to.Normalize()
	sx, sy := 1.0, 1.0
	if from.Width != 0 {
		sx = to.Width / from.Width
	}
	if from.Height != 0 {
		sy = to.Height / from.Height
	}
	return Rect{
		X:      to.X + (r.X-from.X)*sx,
		Y:      to.Y + (r.Y-from.Y)*sy,
		Width:  r.Width * sx,
		Height: r.Height * sy,
	}
}
