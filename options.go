package glimpse

import (
	"github.com/tsawler/glimpse/geometry"
	"github.com/tsawler/glimpse/model"
)

// ViewOptions holds the configuration of a Viewer.
type ViewOptions struct {
	page      int // 1-indexed
	container geometry.ContainerGeometry
	zoom      float64

	highlights    []model.Highlight
	queries       []string
	caseSensitive bool
}

// defaultOptions returns the options of a fresh Viewer: page 1 at zoom 1,
// no container (the page's natural size) and no highlights.
func defaultOptions() ViewOptions {
	return ViewOptions{
		page: 1,
		zoom: 1,
	}
}

// clone creates a deep copy of ViewOptions.
func (o ViewOptions) clone() ViewOptions {
	newOpts := o
	if o.highlights != nil {
		newOpts.highlights = append([]model.Highlight(nil), o.highlights...)
	}
	if o.queries != nil {
		newOpts.queries = append([]string(nil), o.queries...)
	}
	return newOpts
}
