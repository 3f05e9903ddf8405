package model

// Document is a PDF that has been uploaded to the backend and processed.
type Document struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	URL        string      `json:"url"`
	NumPages   int         `json:"numPages"`
	Highlights []Highlight `json:"highlights"`
}

// HighlightsOnPage returns the highlights on the given page (1-indexed), in
// their original order.
func (d *Document) HighlightsOnPage(page int) []Highlight {
	return FilterPage(d.Highlights, page)
}

// Highlight returns the highlight with the given ID.
func (d *Document) Highlight(id string) (Highlight, bool) {
	for _, h := range d.Highlights {
		if h.ID == id {
			return h, true
		}
	}
	return Highlight{}, false
}

// ClampPage limits a page number to the document's [1, NumPages] range.
// A document with no pages clamps everything to 1.
func (d *Document) ClampPage(page int) int {
	if page > d.NumPages {
		page = d.NumPages
	}
	if page < 1 {
		page = 1
	}
	return page
}

// Merge adds highlights whose IDs are not yet known to the document and
// returns how many were added. Answers may reference highlights the upload
// did not return.
func (d *Document) Merge(highlights []Highlight) int {
	seen := make(map[string]bool, len(d.Highlights))
	for _, h := range d.Highlights {
		seen[h.ID] = true
	}

	added := 0
	for _, h := range highlights {
		if seen[h.ID] {
			continue
		}
		seen[h.ID] = true
		d.Highlights = append(d.Highlights, h)
		added++
	}
	return added
}
