package pdfsource

import (
	"errors"
	"math"
	"testing"

	"github.com/tsawler/glimpse/geometry"
	"github.com/tsawler/glimpse/internal/pdftest"
)

func openTestSource(t *testing.T, pages ...pdftest.Page) *Source {
	t.Helper()
	src, err := Open(pdftest.WriteFile(t, pages...))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { src.Close() })
	return src
}

func TestOpenMissingFile(t *testing.T) {
	if _, err := Open("nonexistent.pdf"); err == nil {
		t.Error("expected error for non-existent file")
	}
}

func TestPageGeometry(t *testing.T) {
	src := openTestSource(t,
		pdftest.Letter(),
		pdftest.Page{Width: 600, Height: 800, Rotate: 90},
		pdftest.Page{Width: 842, Height: 595},
	)

	if src.NumPages() != 3 {
		t.Fatalf("NumPages() = %d, want 3", src.NumPages())
	}

	tests := []struct {
		page int
		want geometry.PageGeometry
	}{
		{1, geometry.PageGeometry{Width: 612, Height: 792}},
		{2, geometry.PageGeometry{Width: 800, Height: 600}},
		{3, geometry.PageGeometry{Width: 842, Height: 595}},
	}

	for _, tt := range tests {
		got, err := src.PageGeometry(tt.page)
		if err != nil {
			t.Errorf("PageGeometry(%d) error = %v", tt.page, err)
			continue
		}
		if got != tt.want {
			t.Errorf("PageGeometry(%d) = %+v, want %+v", tt.page, got, tt.want)
		}
	}
}

func TestPageGeometryOutOfRange(t *testing.T) {
	src := openTestSource(t, pdftest.Letter())

	for _, page := range []int{0, 2, -1} {
		if _, err := src.PageGeometry(page); !errors.Is(err, ErrPageOutOfRange) {
			t.Errorf("PageGeometry(%d) error = %v, want ErrPageOutOfRange", page, err)
		}
	}
}

func TestCloseTwice(t *testing.T) {
	src, err := Open(pdftest.WriteFile(t, pdftest.Letter()))
	if err != nil {
		t.Fatal(err)
	}
	if err := src.Close(); err != nil {
		t.Errorf("first Close() error = %v", err)
	}
	if err := src.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}

func TestSearchFindsText(t *testing.T) {
	src := openTestSource(t,
		pdftest.Letter(pdftest.Text{X: 72, Y: 700, Text: "Quarterly Revenue"}),
		pdftest.Letter(pdftest.Text{X: 72, Y: 100, Text: "Nothing here"}),
	)

	results, err := src.Search("revenue", SearchOptions{})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) == 0 {
		t.Skip("text extraction produced no matching fragment")
	}

	for _, h := range results {
		if h.Page != 1 {
			t.Errorf("match on page %d, want page 1", h.Page)
		}
		// The baseline sits 92pt below the top edge, so the flipped top
		// edge is within the upper part of the page.
		if h.Y < 0 || h.Y > 100 {
			t.Errorf("Y = %v, want top-left coordinate near the top of the page", h.Y)
		}
	}
}

func TestSearchRotatedPage(t *testing.T) {
	src := openTestSource(t,
		pdftest.Page{Width: 600, Height: 800, Rotate: 90, Texts: []pdftest.Text{
			{X: 500, Y: 100, Size: 12, Text: "rotated"},
		}},
	)

	g, err := src.PageGeometry(1)
	if err != nil {
		t.Fatalf("PageGeometry() error = %v", err)
	}
	results, err := src.Search("rotated", SearchOptions{})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) == 0 {
		t.Skip("text extraction produced no matching fragment")
	}

	page := geometry.Rect{Width: g.Width, Height: g.Height}
	for _, h := range results {
		r := h.Rect()
		if !page.Contains(geometry.Point{X: r.X, Y: r.Y}) ||
			!page.Contains(geometry.Point{X: r.Right(), Y: r.Bottom()}) {
			t.Errorf("highlight %+v lies outside the displayed page %+v", r, g)
		}
		// User-space x becomes the displayed top edge, y the left edge.
		if math.Abs(r.X-100) > 1e-9 || math.Abs(r.Y-500) > 1e-9 {
			t.Errorf("highlight origin = (%v, %v), want (100, 500)", r.X, r.Y)
		}
		if r.Width != 12 {
			t.Errorf("highlight width = %v, want the font size 12", r.Width)
		}
	}
}

func TestDisplayRect(t *testing.T) {
	// A 600x800 page with a 40x10 box whose lower-left corner is at (500, 100).
	box := [4]float64{0, 0, 600, 800}

	tests := []struct {
		rotation int
		want     geometry.Rect
	}{
		{0, geometry.Rect{X: 500, Y: 690, Width: 40, Height: 10}},
		{90, geometry.Rect{X: 100, Y: 500, Width: 10, Height: 40}},
		{180, geometry.Rect{X: 60, Y: 100, Width: 40, Height: 10}},
		{270, geometry.Rect{X: 690, Y: 60, Width: 10, Height: 40}},
	}

	for _, tt := range tests {
		got := displayRect(500, 100, 40, 10, pageInfo{box: box, rotation: tt.rotation})
		if got != tt.want {
			t.Errorf("rotation %d: displayRect() = %+v, want %+v", tt.rotation, got, tt.want)
		}

		// The box stays on the displayed page.
		w, h := 600.0, 800.0
		if tt.rotation == 90 || tt.rotation == 270 {
			w, h = h, w
		}
		if got.X < 0 || got.Y < 0 || got.Right() > w || got.Bottom() > h {
			t.Errorf("rotation %d: %+v outside %vx%v", tt.rotation, got, w, h)
		}
	}
}

func TestSearchEmptyQuery(t *testing.T) {
	src := openTestSource(t, pdftest.Letter(pdftest.Text{X: 72, Y: 700, Text: "anything"}))

	results, err := src.Search("   ", SearchOptions{})
	if err != nil || results != nil {
		t.Errorf("Search(blank) = %v, %v; want nil, nil", results, err)
	}
}

func TestSearchPageOutOfRange(t *testing.T) {
	src := openTestSource(t, pdftest.Letter())

	_, err := src.Search("x", SearchOptions{Pages: []int{5}})
	if !errors.Is(err, ErrPageOutOfRange) {
		t.Errorf("Search() error = %v, want ErrPageOutOfRange", err)
	}
}

func TestMatcher(t *testing.T) {
	tests := []struct {
		name          string
		query, text   string
		caseSensitive bool
		want          bool
	}{
		{"case folded", "revenue", "Quarterly REVENUE", false, true},
		{"case sensitive miss", "revenue", "Quarterly REVENUE", true, false},
		{"case sensitive hit", "REV", "Quarterly REVENUE", true, true},
		{"ligature", "office", "oﬃce", false, true},
		{"trimmed query", "  net  ", "net income", false, true},
		{"miss", "loss", "net income", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := newMatcher(tt.query, tt.caseSensitive).match(tt.text); got != tt.want {
				t.Errorf("match(%q, %q) = %v, want %v", tt.query, tt.text, got, tt.want)
			}
		})
	}
}

func TestNormalizeBox(t *testing.T) {
	got, err := normalizeBox([]float64{612, 792, 0, 0})
	if err != nil {
		t.Fatal(err)
	}
	if got != [4]float64{0, 0, 612, 792} {
		t.Errorf("normalizeBox() = %v", got)
	}

	if _, err := normalizeBox([]float64{0, 0, 0, 792}); err == nil {
		t.Error("expected error for empty box")
	}
	if _, err := normalizeBox([]float64{0, 0, 1}); err == nil {
		t.Error("expected error for short box")
	}
}

func TestNormalizeRotation(t *testing.T) {
	tests := []struct{ in, want int }{
		{0, 0}, {90, 90}, {-90, 270}, {450, 90}, {720, 0},
	}
	for _, tt := range tests {
		if got := normalizeRotation(tt.in); got != tt.want {
			t.Errorf("normalizeRotation(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
