package overlay

import (
	"image/color"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/tsawler/glimpse/geometry"
	"github.com/tsawler/glimpse/model"
)

// TooltipLength is the number of characters of highlight text shown in a
// tooltip before it is cut off with "...".
const TooltipLength = 50

// Box is a highlight placed on the display surface.
type Box struct {
	Highlight model.Highlight
	Mapping   geometry.CoordinateMapping
	Fill      color.NRGBA
	Border    color.NRGBA
	Tooltip   string
}

// Rect returns the box in display space.
func (b Box) Rect() geometry.Rect {
	return b.Mapping.Scaled()
}

// Build places the highlights of one page (1-indexed) for a page of size
// page drawn into container. Highlights on other pages are skipped; the
// remaining ones keep their order, which is also the drawing order.
//
// Build returns nil until both geometries are known.
func Build(highlights []model.Highlight, pageNumber int, container geometry.ContainerGeometry, page geometry.PageGeometry) []Box {
	if !geometry.Ready(container, page) {
		return nil
	}
	return BuildLayout(highlights, pageNumber, geometry.NewLayout(container, page))
}

// BuildLayout is Build for a precomputed layout.
func BuildLayout(highlights []model.Highlight, pageNumber int, layout geometry.Layout) []Box {
	var boxes []Box
	for _, h := range highlights {
		if h.Page != pageNumber {
			continue
		}
		fill, border := Colors(h.Color)
		boxes = append(boxes, Box{
			Highlight: h,
			Mapping:   layout.Forward(h.Rect()),
			Fill:      fill,
			Border:    border,
			Tooltip:   Tooltip(h.Text),
		})
	}
	return boxes
}

// Colors returns the fill and border colour for a highlight colour string.
// An empty or unparseable colour yields DefaultFill and DefaultBorder; any
// other colour is used for both.
func Colors(s string) (fill, border color.NRGBA) {
	if s == "" {
		return DefaultFill, DefaultBorder
	}
	c, err := ParseColor(s)
	if err != nil {
		return DefaultFill, DefaultBorder
	}
	return c, c
}

// Tooltip returns the hover text for a highlight: the NFC-normalised text,
// cut to TooltipLength characters with "..." appended when longer.
func Tooltip(text string) string {
	text = norm.NFC.String(strings.TrimSpace(text))
	if utf8.RuneCountInString(text) <= TooltipLength {
		return text
	}
	runes := []rune(text)
	return string(runes[:TooltipLength]) + "..."
}

// HitTest returns the topmost box containing a display-space point.
// Boxes later in the slice are drawn on top.
func HitTest(boxes []Box, p geometry.Point) (Box, bool) {
	for i := len(boxes) - 1; i >= 0; i-- {
		if boxes[i].Rect().Contains(p) {
			return boxes[i], true
		}
	}
	return Box{}, false
}

// HitTestPDF returns the topmost box whose highlight contains a PDF-space
// point, typically one obtained from geometry.Inverse.
func HitTestPDF(boxes []Box, p geometry.Point) (Box, bool) {
	for i := len(boxes) - 1; i >= 0; i-- {
		if boxes[i].Highlight.Rect().Contains(p) {
			return boxes[i], true
		}
	}
	return Box{}, false
}
