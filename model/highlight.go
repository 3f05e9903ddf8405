package model

import "github.com/tsawler/glimpse/geometry"

// Highlight is a tagged rectangular region on one page of a document,
// together with the text it covers. Coordinates are PDF points with the
// origin at the top-left of the page.
type Highlight struct {
	ID     string  `json:"id"`
	Page   int     `json:"page"` // 1-indexed
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Text   string  `json:"text"`
	Color  string  `json:"color,omitempty"`
}

// Rect returns the highlight's bounding box in PDF space.
func (h Highlight) Rect() geometry.Rect {
	return geometry.NewRect(h.X, h.Y, h.Width, h.Height)
}

// FilterPage returns the highlights on the given page (1-indexed), keeping
// their order.
func FilterPage(highlights []Highlight, page int) []Highlight {
	var out []Highlight
	for _, h := range highlights {
		if h.Page == page {
			out = append(out, h)
		}
	}
	return out
}

// IDs returns the IDs of the given highlights.
func IDs(highlights []Highlight) []string {
	if len(highlights) == 0 {
		return nil
	}
	ids := make([]string, len(highlights))
	for i, h := range highlights {
		ids[i] = h.ID
	}
	return ids
}
