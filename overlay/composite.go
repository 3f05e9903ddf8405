package overlay

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"

	"golang.org/x/image/draw"

	"github.com/tsawler/glimpse/geometry"
)

// BorderWidth is the highlight border width in display pixels.
const BorderWidth = 2

// Background fills the container around a letterboxed page.
var Background = color.NRGBA{R: 0xf3, G: 0xf4, B: 0xf6, A: 0xff}

// Composite draws a rendered page into a container-sized image, letterboxed
// as described by layout, and paints the boxes on top. The page raster may
// have any resolution; it is resampled to the page's display size.
// A nil page leaves the page area white.
func Composite(page image.Image, boxes []Box, layout geometry.Layout, container geometry.ContainerGeometry) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, ceil(container.Width), ceil(container.Height)))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(Background), image.Point{}, draw.Src)

	pr := pageRect(layout)
	if page == nil {
		draw.Draw(dst, pr, image.White, image.Point{}, draw.Src)
	} else if sr := page.Bounds(); sr.Size() == pr.Size() {
		draw.Draw(dst, pr, page, sr.Min, draw.Src)
	} else {
		draw.CatmullRom.Scale(dst, pr, page, sr, draw.Src, nil)
	}

	for _, b := range boxes {
		paintBox(dst, b)
	}
	return dst
}

// EncodePNG writes img as PNG.
func EncodePNG(w io.Writer, img image.Image) error {
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("failed to encode PNG: %w", err)
	}
	return nil
}

// pageRect returns the pixel rectangle the page occupies, obtained by
// mapping the page corners through the layout's transformation matrix.
func pageRect(layout geometry.Layout) image.Rectangle {
	m := layout.Matrix()
	pw := layout.ScaledPageWidth / layout.Scale
	ph := layout.ScaledPageHeight / layout.Scale
	x0, y0 := m.Apply(0, 0)
	x1, y1 := m.Apply(pw, ph)
	return image.Rect(round(x0), round(y0), round(x1), round(y1))
}

func paintBox(dst draw.Image, b Box) {
	r := b.Rect().Normalize()
	outer := image.Rect(round(r.X), round(r.Y), round(r.Right()), round(r.Bottom()))
	if outer.Empty() {
		return
	}

	fill := image.NewUniform(b.Fill)
	draw.Draw(dst, outer, fill, image.Point{}, draw.Over)

	border := image.NewUniform(b.Border)
	inner := outer.Inset(BorderWidth)
	if inner.Empty() {
		draw.Draw(dst, outer, border, image.Point{}, draw.Over)
		return
	}
	for _, strip := range []image.Rectangle{
		image.Rect(outer.Min.X, outer.Min.Y, outer.Max.X, inner.Min.Y), // top
		image.Rect(outer.Min.X, inner.Max.Y, outer.Max.X, outer.Max.Y), // bottom
		image.Rect(outer.Min.X, inner.Min.Y, inner.Min.X, inner.Max.Y), // left
		image.Rect(inner.Max.X, inner.Min.Y, outer.Max.X, inner.Max.Y), // right
	} {
		draw.Draw(dst, strip, border, image.Point{}, draw.Over)
	}
}

func round(f float64) int {
	return int(math.Round(f))
}

func ceil(f float64) int {
	return int(math.Ceil(f))
}
