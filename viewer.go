package glimpse

import (
	"fmt"
	"image"
	"io"

	"github.com/tsawler/glimpse/geometry"
	"github.com/tsawler/glimpse/model"
	"github.com/tsawler/glimpse/overlay"
	"github.com/tsawler/glimpse/pdfsource"
	"github.com/tsawler/glimpse/render"
)

// Viewer provides a fluent interface for laying out one page of a PDF and
// the highlights on it. Each configuration method returns a new Viewer,
// making chains safe to branch and share.
type Viewer struct {
	// Source
	filename string
	source   *pdfsource.Source

	// Lifecycle
	ownsSource   bool // true if we opened the source and should close it
	sourceOpened bool

	options ViewOptions

	// Accumulated error (fail-fast)
	err error
}

// clone creates a shallow copy of the Viewer with a deep copy of options.
func (v *Viewer) clone() *Viewer {
	return &Viewer{
		filename:     v.filename,
		source:       v.source,
		ownsSource:   v.ownsSource,
		sourceOpened: v.sourceOpened,
		options:      v.options.clone(),
		err:          v.err,
	}
}

func (v *Viewer) ensureSource() error {
	if v.sourceOpened {
		return nil
	}
	if v.filename == "" {
		return fmt.Errorf("no filename specified")
	}

	src, err := pdfsource.Open(v.filename)
	if err != nil {
		return err
	}
	v.source = src
	v.ownsSource = true
	v.sourceOpened = true
	return nil
}

// Close releases resources associated with the Viewer.
// It is safe to call Close multiple times.
func (v *Viewer) Close() error {
	if v.ownsSource && v.source != nil {
		err := v.source.Close()
		v.source = nil
		v.ownsSource = false
		v.sourceOpened = false
		return err
	}
	return nil
}

// ============================================================================
// Configuration Methods (return new Viewer instance)
// ============================================================================

// Page selects the page to show (1-indexed). The default is page 1.
func (v *Viewer) Page(n int) *Viewer {
	newV := v.clone()
	if n < 1 && newV.err == nil {
		newV.err = fmt.Errorf("%w: page %d", pdfsource.ErrPageOutOfRange, n)
	}
	newV.options.page = n
	return newV
}

// Container sets the size in pixels of the area the page is drawn into.
// Without a container the page is shown at its natural size.
//
// Example:
//
//	layout, err := glimpse.Open("doc.pdf").Container(800, 600).Layout()
func (v *Viewer) Container(width, height float64) *Viewer {
	newV := v.clone()
	newV.options.container = geometry.ContainerGeometry{Width: width, Height: height}
	return newV
}

// Zoom scales the drawing surface. The page geometry is unaffected; a
// zoom of 2 doubles the container in both directions.
func (v *Viewer) Zoom(z float64) *Viewer {
	newV := v.clone()
	if z <= 0 && newV.err == nil {
		newV.err = fmt.Errorf("invalid zoom %v", z)
	}
	newV.options.zoom = z
	return newV
}

// Highlights adds highlights to place. Highlights on other pages are
// ignored. Multiple calls are cumulative.
func (v *Viewer) Highlights(hs ...model.Highlight) *Viewer {
	newV := v.clone()
	newV.options.highlights = append(newV.options.highlights, hs...)
	return newV
}

// Search adds a highlight for every text fragment on the page containing
// query. Multiple calls are cumulative.
//
// Example:
//
//	boxes, err := glimpse.Open("doc.pdf").Search("total").Overlay()
func (v *Viewer) Search(query string) *Viewer {
	newV := v.clone()
	newV.options.queries = append(newV.options.queries, query)
	return newV
}

// CaseSensitive makes Search match case exactly.
func (v *Viewer) CaseSensitive() *Viewer {
	newV := v.clone()
	newV.options.caseSensitive = true
	return newV
}

// ============================================================================
// Terminal Operations
// ============================================================================

// PageCount returns the number of pages in the document.
// This is a terminal operation that closes the underlying source.
func (v *Viewer) PageCount() (int, error) {
	if v.err != nil {
		return 0, v.err
	}
	if err := v.ensureSource(); err != nil {
		return 0, err
	}
	defer v.Close()

	return v.source.NumPages(), nil
}

// PageGeometry returns the unscaled size of the selected page.
// This is a terminal operation that closes the underlying source.
func (v *Viewer) PageGeometry() (geometry.PageGeometry, error) {
	if v.err != nil {
		return geometry.PageGeometry{}, v.err
	}
	if err := v.ensureSource(); err != nil {
		return geometry.PageGeometry{}, err
	}
	defer v.Close()

	return v.source.PageGeometry(v.options.page)
}

// Layout returns how the selected page fits the zoomed container.
// This is a terminal operation that closes the underlying source.
func (v *Viewer) Layout() (geometry.Layout, error) {
	st, err := v.prepare(false)
	if err != nil {
		return geometry.Layout{}, err
	}
	return st.layout, nil
}

// Map maps a rectangle on the selected page to display space.
// This is a terminal operation that closes the underlying source.
//
// Example:
//
//	m, err := glimpse.Open("doc.pdf").Container(300, 400).Map(geometry.NewRect(10, 20, 30, 40))
func (v *Viewer) Map(r geometry.Rect) (geometry.CoordinateMapping, error) {
	layout, err := v.Layout()
	if err != nil {
		return geometry.CoordinateMapping{}, err
	}
	return layout.Forward(r), nil
}

// Unmap maps a display-space point back to the selected page.
// This is a terminal operation that closes the underlying source.
func (v *Viewer) Unmap(p geometry.Point) (geometry.Point, error) {
	layout, err := v.Layout()
	if err != nil {
		return geometry.Point{}, err
	}
	return layout.Inverse(p), nil
}

// Overlay returns the highlight boxes of the selected page, in drawing
// order. This is a terminal operation that closes the underlying source.
func (v *Viewer) Overlay() ([]overlay.Box, error) {
	st, err := v.prepare(true)
	if err != nil {
		return nil, err
	}
	return st.boxes, nil
}

// HTML writes the overlay of the selected page as an HTML fragment.
// This is a terminal operation that closes the underlying source.
func (v *Viewer) HTML(w io.Writer) error {
	st, err := v.prepare(true)
	if err != nil {
		return err
	}
	return overlay.RenderHTML(w, st.boxes, st.surface)
}

// Image renders the selected page into the zoomed container and paints the
// overlay on it. It needs a Viewer created with Open.
// This is a terminal operation that closes the underlying source.
func (v *Viewer) Image() (*image.RGBA, error) {
	if v.err == nil && v.filename == "" {
		return nil, fmt.Errorf("rendering requires a file name")
	}
	st, err := v.prepare(true)
	if err != nil {
		return nil, err
	}

	r, err := render.Open(v.filename)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	page, err := r.Render(v.options.page, render.DefaultDPI*st.layout.Scale)
	if err != nil {
		return nil, err
	}
	return overlay.Composite(page, st.boxes, st.layout, st.surface), nil
}

// PNG writes the result of Image as PNG.
// This is a terminal operation that closes the underlying source.
func (v *Viewer) PNG(w io.Writer) error {
	img, err := v.Image()
	if err != nil {
		return err
	}
	return overlay.EncodePNG(w, img)
}

// ============================================================================
// Helper Methods
// ============================================================================

type prepared struct {
	surface geometry.ContainerGeometry
	layout  geometry.Layout
	boxes   []overlay.Box
}

// prepare opens the source, resolves the page layout and, when withBoxes is
// set, collects and places the highlights of the page. It closes the
// source before returning.
func (v *Viewer) prepare(withBoxes bool) (prepared, error) {
	if v.err != nil {
		return prepared{}, v.err
	}
	if err := v.ensureSource(); err != nil {
		return prepared{}, err
	}
	defer v.Close()

	opts := v.options
	if n := v.source.NumPages(); opts.page > n {
		return prepared{}, fmt.Errorf("%w: page %d (1-%d)", pdfsource.ErrPageOutOfRange, opts.page, n)
	}

	pg, err := v.source.PageGeometry(opts.page)
	if err != nil {
		return prepared{}, err
	}

	container := opts.container
	if container == (geometry.ContainerGeometry{}) {
		container = geometry.ContainerGeometry{Width: pg.Width, Height: pg.Height}
	}
	surface := container.Zoom(opts.zoom)
	if !geometry.Ready(surface, pg) {
		return prepared{}, geometry.ErrGeometryUnknown
	}

	st := prepared{surface: surface, layout: geometry.NewLayout(surface, pg)}
	if !withBoxes {
		return st, nil
	}

	highlights := append([]model.Highlight(nil), opts.highlights...)
	for _, q := range opts.queries {
		found, err := v.source.Search(q, pdfsource.SearchOptions{
			Pages:         []int{opts.page},
			CaseSensitive: opts.caseSensitive,
		})
		if err != nil {
			return prepared{}, fmt.Errorf("search %q: %w", q, err)
		}
		highlights = append(highlights, found...)
	}
	st.boxes = overlay.BuildLayout(highlights, opts.page, st.layout)
	return st, nil
}
