package geometry

import (
	"math"

	"github.com/golang/geo/r2"
)

// Point represents a 2D point
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Distance calculates the Euclidean distance to another point
func (p Point) Distance(other Point) float64 {
	dx := p.X - other.X
	dy := p.Y - other.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// IsFinite reports whether both coordinates are finite numbers.
func (p Point) IsFinite() bool {
	return isFinite(p.X) && isFinite(p.Y)
}

// Rect is an axis-aligned rectangle with its origin at the top-left corner.
// In PDF space the units are points; in display space they are pixels.
type Rect struct {
	X      float64 // Left
	Y      float64 // Top
	Width  float64
	Height float64
}

// NewRect creates a rectangle from its top-left corner and size
func NewRect(x, y, width, height float64) Rect {
	return Rect{X: x, Y: y, Width: width, Height: height}
}

// PointsRect returns the smallest rectangle spanning two corner points,
// in whichever order they were given. Used for drag selections.
func PointsRect(a, b Point) Rect {
	x := math.Min(a.X, b.X)
	y := math.Min(a.Y, b.Y)
	return Rect{
		X:      x,
		Y:      y,
		Width:  math.Abs(b.X - a.X),
		Height: math.Abs(b.Y - a.Y),
	}
}

// FromBottomLeft converts a box given in PDF user space (origin at the
// bottom-left of the page, y growing upwards) to the top-left convention
// used by highlights. pageHeight is the unscaled page height.
func FromBottomLeft(x, y, width, height, pageHeight float64) Rect {
	return Rect{
		X:      x,
		Y:      pageHeight - (y + height),
		Width:  width,
		Height: height,
	}
}

// Right returns the right edge X coordinate
func (r Rect) Right() float64 {
	return r.X + r.Width
}

// Bottom returns the bottom edge Y coordinate
func (r Rect) Bottom() float64 {
	return r.Y + r.Height
}

// Center returns the center point
func (r Rect) Center() Point {
	return Point{
		X: r.X + r.Width/2,
		Y: r.Y + r.Height/2,
	}
}

// Normalize returns an equivalent rectangle with non-negative width and
// height.
func (r Rect) Normalize() Rect {
	return PointsRect(Point{r.X, r.Y}, Point{r.Right(), r.Bottom()})
}

// Contains checks if a point is inside the rectangle, edges included.
func (r Rect) Contains(p Point) bool {
	return r.R2().ContainsPoint(r2.Point{X: p.X, Y: p.Y})
}

// R2 returns the rectangle as an r2.Rect.
func (r Rect) R2() r2.Rect {
	return r2.RectFromPoints(
		r2.Point{X: r.X, Y: r.Y},
		r2.Point{X: r.Right(), Y: r.Bottom()},
	)
}

// Area returns the area of the rectangle
func (r Rect) Area() float64 {
	return r.Width * r.Height
}

// IsEmpty returns true if the rectangle has zero area
func (r Rect) IsEmpty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// PageGeometry is the unscaled size of a PDF page in points, as reported by
// the rendering engine once the page has loaded.
type PageGeometry struct {
	Width  float64
	Height float64
}

// ContainerGeometry is the pixel size of the on-screen surface a page is
// drawn into.
type ContainerGeometry struct {
	Width  float64
	Height float64
}

// Zoom returns the container scaled by factor z.
func (c ContainerGeometry) Zoom(z float64) ContainerGeometry {
	return ContainerGeometry{Width: c.Width * z, Height: c.Height * z}
}

func isFinite(f float64) bool {
	return !math.IsInf(f, 0) && !math.IsNaN(f)
}
