package pdfsource

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/tsawler/tabula/pages"
	"github.com/tsawler/tabula/reader"
	"github.com/tsawler/tabula/text"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/tsawler/glimpse/geometry"
	"github.com/tsawler/glimpse/model"
)

// ErrPageOutOfRange is returned for page numbers outside [1, NumPages].
var ErrPageOutOfRange = errors.New("page number out of range")

// Source provides page geometry and text for one PDF file.
// It is safe for concurrent use.
type Source struct {
	mu       sync.Mutex
	r        *reader.Reader
	numPages int
	cache    map[int]pageInfo
}

type pageInfo struct {
	page     *pages.Page
	box      [4]float64 // normalised CropBox: llx, lly, urx, ury
	rotation int
}

// Open opens the PDF at path.
func Open(path string) (*Source, error) {
	r, err := reader.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}

	n, err := r.PageCount()
	if err != nil {
		r.Close()
		return nil, fmt.Errorf("failed to count pages: %w", err)
	}

	return &Source{
		r:        r,
		numPages: n,
		cache:    make(map[int]pageInfo),
	}, nil
}

// Close releases the underlying file.
// It is safe to call Close multiple times.
func (s *Source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.r == nil {
		return nil
	}
	err := s.r.Close()
	s.r = nil
	return err
}

// NumPages returns the number of pages in the document.
func (s *Source) NumPages() int {
	return s.numPages
}

// PageGeometry returns the unscaled size of a page (1-indexed) in points,
// as a viewer displays it: the CropBox, with width and height swapped for
// pages rotated by 90 or 270 degrees.
func (s *Source) PageGeometry(page int) (geometry.PageGeometry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	info, err := s.pageLocked(page)
	if err != nil {
		return geometry.PageGeometry{}, err
	}

	g := geometry.PageGeometry{
		Width:  info.box[2] - info.box[0],
		Height: info.box[3] - info.box[1],
	}
	if info.rotation == 90 || info.rotation == 270 {
		g.Width, g.Height = g.Height, g.Width
	}
	return g, nil
}

// pageLocked loads and caches a page. The caller must hold s.mu.
func (s *Source) pageLocked(page int) (pageInfo, error) {
	if page < 1 || page > s.numPages {
		return pageInfo{}, fmt.Errorf("page %d of %d: %w", page, s.numPages, ErrPageOutOfRange)
	}
	if info, ok := s.cache[page]; ok {
		return info, nil
	}
	if s.r == nil {
		return pageInfo{}, errors.New("source is closed")
	}

	p, err := s.r.GetPage(page - 1)
	if err != nil {
		return pageInfo{}, fmt.Errorf("page %d: %w", page, err)
	}

	raw, err := p.CropBox()
	if err != nil {
		return pageInfo{}, fmt.Errorf("page %d: %w", page, err)
	}
	box, err := normalizeBox(raw)
	if err != nil {
		return pageInfo{}, fmt.Errorf("page %d: %w", page, err)
	}

	info := pageInfo{
		page:     p,
		box:      box,
		rotation: normalizeRotation(p.Rotate()),
	}
	s.cache[page] = info
	return info, nil
}

// SearchOptions controls Search.
type SearchOptions struct {
	Pages         []int // 1-indexed; empty means all pages
	CaseSensitive bool
	MaxResults    int // 0 means unlimited
}

// Search returns a highlight for every text fragment containing query.
// Highlight IDs have the form "local-<page>-<n>". Coordinates are in the
// top-left convention of the page as displayed, i.e. after its rotation,
// matching PageGeometry.
func (s *Source) Search(query string, opts SearchOptions) ([]model.Highlight, error) {
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}

	pageList := opts.Pages
	if len(pageList) == 0 {
		pageList = make([]int, s.numPages)
		for i := range pageList {
			pageList[i] = i + 1
		}
	}

	m := newMatcher(query, opts.CaseSensitive)

	var results []model.Highlight
	for _, page := range pageList {
		frags, info, err := s.fragments(page)
		if err != nil {
			return nil, err
		}

		for i, f := range frags {
			if !m.match(f.Text) {
				continue
			}
			r := displayRect(f.X, f.Y, f.Width, f.Height, info)
			results = append(results, model.Highlight{
				ID:     fmt.Sprintf("local-%d-%d", page, i),
				Page:   page,
				X:      r.X,
				Y:      r.Y,
				Width:  r.Width,
				Height: r.Height,
				Text:   f.Text,
			})
			if opts.MaxResults > 0 && len(results) >= opts.MaxResults {
				return results, nil
			}
		}
	}
	return results, nil
}

// fragments extracts the text of a page with coordinates relative to the
// lower-left corner of its CropBox.
func (s *Source) fragments(page int) ([]text.TextFragment, pageInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	info, err := s.pageLocked(page)
	if err != nil {
		return nil, pageInfo{}, err
	}

	frags, err := s.r.ExtractTextFragments(info.page)
	if err != nil {
		return nil, pageInfo{}, fmt.Errorf("page %d: %w", page, err)
	}
	for i := range frags {
		frags[i].X -= info.box[0]
		frags[i].Y -= info.box[1]
	}
	return frags, info, nil
}

// displayRect converts a box in unrotated user space (origin at the
// lower-left corner of the CropBox) to the top-left frame of the page as
// displayed. /Rotate turns the page clockwise.
func displayRect(x, y, w, h float64, info pageInfo) geometry.Rect {
	pw := info.box[2] - info.box[0]
	ph := info.box[3] - info.box[1]

	switch info.rotation {
	case 90:
		return geometry.Rect{X: y, Y: x, Width: h, Height: w}
	case 180:
		return geometry.Rect{X: pw - x - w, Y: y, Width: w, Height: h}
	case 270:
		return geometry.Rect{X: ph - y - h, Y: pw - x - w, Width: h, Height: w}
	default:
		return geometry.FromBottomLeft(x, y, w, h, ph)
	}
}

type matcher struct {
	query string
	fold  func(string) string
}

func newMatcher(query string, caseSensitive bool) matcher {
	fold := func(s string) string { return norm.NFKC.String(s) }
	if !caseSensitive {
		folder := cases.Fold()
		fold = func(s string) string { return folder.String(norm.NFKC.String(s)) }
	}
	return matcher{query: fold(strings.TrimSpace(query)), fold: fold}
}

func (m matcher) match(s string) bool {
	return strings.Contains(m.fold(s), m.query)
}

func normalizeBox(b []float64) ([4]float64, error) {
	if len(b) != 4 {
		return [4]float64{}, fmt.Errorf("invalid page box %v", b)
	}
	llx, urx := b[0], b[2]
	if llx > urx {
		llx, urx = urx, llx
	}
	lly, ury := b[1], b[3]
	if lly > ury {
		lly, ury = ury, lly
	}
	if urx-llx <= 0 || ury-lly <= 0 {
		return [4]float64{}, fmt.Errorf("empty page box %v", b)
	}
	return [4]float64{llx, lly, urx, ury}, nil
}

func normalizeRotation(r int) int {
	r %= 360
	if r < 0 {
		r += 360
	}
	return r
}
