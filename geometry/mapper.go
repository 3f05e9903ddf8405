package geometry

import (
	"errors"
	"math"

	"seehuhn.de/go/geom/matrix"
)

// ErrGeometryUnknown is returned by the checked mapping functions when the
// page or container size is not yet known (zero, negative or non-finite).
var ErrGeometryUnknown = errors.New("geometry: page or container size unknown")

// Layout describes how a page is fitted into a container: one uniform scale
// and the offsets that center the scaled page.
type Layout struct {
	ScaleX float64 // container.Width / page.Width
	ScaleY float64 // container.Height / page.Height
	Scale  float64 // min(ScaleX, ScaleY)

	ScaledPageWidth  float64
	ScaledPageHeight float64

	OffsetX float64
	OffsetY float64
}

// NewLayout computes the fit of page inside container. It does not validate
// its inputs; see Ready.
func NewLayout(container ContainerGeometry, page PageGeometry) Layout {
	scaleX := container.Width / page.Width
	scaleY := container.Height / page.Height
	scale := math.Min(scaleX, scaleY)

	scaledWidth := page.Width * scale
	scaledHeight := page.Height * scale

	return Layout{
		ScaleX:           scaleX,
		ScaleY:           scaleY,
		Scale:            scale,
		ScaledPageWidth:  scaledWidth,
		ScaledPageHeight: scaledHeight,
		OffsetX:          (container.Width - scaledWidth) / 2,
		OffsetY:          (container.Height - scaledHeight) / 2,
	}
}

// Ready reports whether both geometries are known, i.e. all four dimensions
// are positive and finite. Mapping before this holds yields non-finite
// results.
func Ready(container ContainerGeometry, page PageGeometry) bool {
	return positive(page.Width) && positive(page.Height) &&
		positive(container.Width) && positive(container.Height)
}

// CoordinateMapping is a highlight rectangle in PDF space together with its
// position and size in display space.
type CoordinateMapping struct {
	OriginalX      float64 `json:"originalX"`
	OriginalY      float64 `json:"originalY"`
	OriginalWidth  float64 `json:"originalWidth"`
	OriginalHeight float64 `json:"originalHeight"`

	ScaledX      float64 `json:"scaledX"`
	ScaledY      float64 `json:"scaledY"`
	ScaledWidth  float64 `json:"scaledWidth"`
	ScaledHeight float64 `json:"scaledHeight"`

	Scale float64 `json:"scale"`
}

// Original returns the PDF-space rectangle.
func (m CoordinateMapping) Original() Rect {
	return Rect{X: m.OriginalX, Y: m.OriginalY, Width: m.OriginalWidth, Height: m.OriginalHeight}
}

// Scaled returns the display-space rectangle.
func (m CoordinateMapping) Scaled() Rect {
	return Rect{X: m.ScaledX, Y: m.ScaledY, Width: m.ScaledWidth, Height: m.ScaledHeight}
}

// Forward maps a PDF-space rectangle into display space.
func (l Layout) Forward(r Rect) CoordinateMapping {
	return CoordinateMapping{
		OriginalX:      r.X,
		OriginalY:      r.Y,
		OriginalWidth:  r.Width,
		OriginalHeight: r.Height,
		ScaledX:        r.X*l.Scale + l.OffsetX,
		ScaledY:        r.Y*l.Scale + l.OffsetY,
		ScaledWidth:    r.Width * l.Scale,
		ScaledHeight:   r.Height * l.Scale,
		Scale:          l.Scale,
	}
}

// Inverse maps a display-space point back to PDF space.
func (l Layout) Inverse(p Point) Point {
	return Point{
		X: (p.X - l.OffsetX) / l.Scale,
		Y: (p.Y - l.OffsetY) / l.Scale,
	}
}

// InverseRect maps a display-space rectangle back to PDF space.
func (l Layout) InverseRect(r Rect) Rect {
	r = r.Normalize()
	origin := l.Inverse(Point{r.X, r.Y})
	return Rect{
		X:      origin.X,
		Y:      origin.Y,
		Width:  r.Width / l.Scale,
		Height: r.Height / l.Scale,
	}
}

// PageRect returns the display-space rectangle covered by the scaled page.
func (l Layout) PageRect() Rect {
	return Rect{X: l.OffsetX, Y: l.OffsetY, Width: l.ScaledPageWidth, Height: l.ScaledPageHeight}
}

// Matrix returns the PDF-to-display transformation as an affine matrix.
// Both spaces have their y axis pointing down, so the matrix is a uniform
// scale followed by a translation.
func (l Layout) Matrix() matrix.Matrix {
	return matrix.Matrix{l.Scale, 0, 0, l.Scale, l.OffsetX, l.OffsetY}
}

// Forward maps a PDF-space rectangle into display space for the given
// container and page. Zero page dimensions produce non-finite fields.
func Forward(r Rect, container ContainerGeometry, page PageGeometry) CoordinateMapping {
	return NewLayout(container, page).Forward(r)
}

// Inverse maps a display-space point back to PDF space for the given
// container and page.
func Inverse(p Point, container ContainerGeometry, page PageGeometry) Point {
	return NewLayout(container, page).Inverse(p)
}

// ForwardChecked is Forward with the Ready precondition enforced.
func ForwardChecked(r Rect, container ContainerGeometry, page PageGeometry) (CoordinateMapping, error) {
	if !Ready(container, page) {
		return CoordinateMapping{}, ErrGeometryUnknown
	}
	return Forward(r, container, page), nil
}

// InverseChecked is Inverse with the Ready precondition enforced.
func InverseChecked(p Point, container ContainerGeometry, page PageGeometry) (Point, error) {
	if !Ready(container, page) {
		return Point{}, ErrGeometryUnknown
	}
	return Inverse(p, container, page), nil
}

func positive(f float64) bool {
	return f > 0 && !math.IsInf(f, 1)
}
