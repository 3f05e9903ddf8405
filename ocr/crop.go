package ocr

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"math"

	"golang.org/x/image/draw"

	"github.com/tsawler/glimpse/geometry"
)

// ErrEmptyRegion is returned when a region does not overlap the image.
var ErrEmptyRegion = errors.New("region does not overlap the image")

// MinLineHeight is the crop height below which a region is upscaled before
// recognition. Tesseract does poorly on text only a few pixels tall.
const MinLineHeight = 32

// Crop copies the part of img covered by region, given in the image's pixel
// space. The region is clipped to the image bounds. Crops shorter than
// MinLineHeight are enlarged with Catmull-Rom resampling.
func Crop(img image.Image, region geometry.Rect) (*image.RGBA, error) {
	r := region.Normalize()
	rect := image.Rect(
		int(math.Floor(r.X)), int(math.Floor(r.Y)),
		int(math.Ceil(r.Right())), int(math.Ceil(r.Bottom())),
	).Intersect(img.Bounds())
	if rect.Empty() {
		return nil, ErrEmptyRegion
	}

	factor := 1
	if h := rect.Dy(); h < MinLineHeight {
		factor = (MinLineHeight + h - 1) / h
	}

	dst := image.NewRGBA(image.Rect(0, 0, rect.Dx()*factor, rect.Dy()*factor))
	if factor == 1 {
		draw.Draw(dst, dst.Bounds(), img, rect.Min, draw.Src)
	} else {
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, rect, draw.Src, nil)
	}
	return dst, nil
}

// encodeRegion crops img at region and returns the crop as PNG.
func encodeRegion(img image.Image, region geometry.Rect) ([]byte, error) {
	crop, err := Crop(img, region)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, crop); err != nil {
		return nil, fmt.Errorf("failed to encode region: %w", err)
	}
	return buf.Bytes(), nil
}
