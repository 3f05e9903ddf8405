// Package render rasterises PDF pages for display.
//
// Rendering is done by MuPDF through go-fitz, which requires cgo. At the
// default 72 DPI one image pixel corresponds to one PDF point, so a raster
// can be composed with highlight overlays using the same page geometry the
// overlay was computed from.
package render

import (
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/gen2brain/go-fitz"

	"github.com/tsawler/glimpse/geometry"
)

// DefaultDPI renders one pixel per PDF point.
const DefaultDPI = 72.0

// ErrPageOutOfRange is returned for page numbers outside [1, NumPages].
var ErrPageOutOfRange = errors.New("page number out of range")

// Renderer renders the pages of one document.
// It is safe for concurrent use; calls are serialised.
type Renderer struct {
	mu       sync.Mutex
	doc      *fitz.Document
	numPages int
}

// Open opens the PDF at path for rendering.
func Open(path string) (*Renderer, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	return &Renderer{doc: doc, numPages: doc.NumPage()}, nil
}

// OpenBytes opens a PDF held in memory.
func OpenBytes(data []byte) (*Renderer, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	return &Renderer{doc: doc, numPages: doc.NumPage()}, nil
}

// Close releases the document.
// It is safe to call Close multiple times.
func (r *Renderer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.doc == nil {
		return nil
	}
	err := r.doc.Close()
	r.doc = nil
	return err
}

// NumPages returns the number of pages.
func (r *Renderer) NumPages() int {
	return r.numPages
}

// Render rasterises a page (1-indexed) at the given resolution. A dpi of
// zero or less selects DefaultDPI.
func (r *Renderer) Render(page int, dpi float64) (*image.RGBA, error) {
	if dpi <= 0 {
		dpi = DefaultDPI
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkPage(page); err != nil {
		return nil, err
	}
	img, err := r.doc.ImageDPI(page-1, dpi)
	if err != nil {
		return nil, fmt.Errorf("page %d: %w", page, err)
	}
	return img, nil
}

// RenderFit rasterises a page at the resolution at which it exactly fills
// its letterboxed area inside container.
func (r *Renderer) RenderFit(page int, container geometry.ContainerGeometry) (*image.RGBA, geometry.Layout, error) {
	pg, err := r.PageGeometry(page)
	if err != nil {
		return nil, geometry.Layout{}, err
	}
	if !geometry.Ready(container, pg) {
		return nil, geometry.Layout{}, geometry.ErrGeometryUnknown
	}

	layout := geometry.NewLayout(container, pg)
	img, err := r.Render(page, DefaultDPI*layout.Scale)
	if err != nil {
		return nil, geometry.Layout{}, err
	}
	return img, layout, nil
}

// PageGeometry returns the size of a page (1-indexed) in points, as MuPDF
// reports it after applying the page rotation.
func (r *Renderer) PageGeometry(page int) (geometry.PageGeometry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkPage(page); err != nil {
		return geometry.PageGeometry{}, err
	}
	b, err := r.doc.Bound(page - 1)
	if err != nil {
		return geometry.PageGeometry{}, fmt.Errorf("page %d: %w", page, err)
	}
	return geometry.PageGeometry{Width: float64(b.Dx()), Height: float64(b.Dy())}, nil
}

// checkPage validates a page number. The caller must hold r.mu.
func (r *Renderer) checkPage(page int) error {
	if r.doc == nil {
		return errors.New("renderer is closed")
	}
	if page < 1 || page > r.numPages {
		return fmt.Errorf("page %d of %d: %w", page, r.numPages, ErrPageOutOfRange)
	}
	return nil
}
