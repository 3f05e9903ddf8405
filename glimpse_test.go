package glimpse

import (
	"bytes"
	"errors"
	"image/png"
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/tsawler/glimpse/geometry"
	"github.com/tsawler/glimpse/internal/pdftest"
	"github.com/tsawler/glimpse/model"
	"github.com/tsawler/glimpse/overlay"
	"github.com/tsawler/glimpse/pdfsource"
)

func testPDF(t *testing.T) string {
	t.Helper()
	return pdftest.WriteFile(t,
		pdftest.Page{Width: 600, Height: 800, Texts: []pdftest.Text{
			{X: 72, Y: 700, Size: 12, Text: "Hello World"},
		}},
		pdftest.Page{Width: 800, Height: 600},
	)
}

func testHighlights() []model.Highlight {
	return []model.Highlight{
		{ID: "h1", Page: 1, X: 10, Y: 20, Width: 30, Height: 40, Text: "first"},
		{ID: "h2", Page: 2, X: 0, Y: 0, Width: 10, Height: 10, Text: "second"},
	}
}

func TestOpen(t *testing.T) {
	if _, err := Open("nonexistent.pdf").PageCount(); err == nil {
		t.Error("expected error for non-existent file")
	}
	if _, err := Open("").Layout(); err == nil {
		t.Error("expected error for empty file name")
	}
}

func TestPageCount(t *testing.T) {
	n, err := Open(testPDF(t)).PageCount()
	if err != nil {
		t.Fatalf("PageCount() error = %v", err)
	}
	if n != 2 {
		t.Errorf("PageCount() = %d, want 2", n)
	}
}

func TestPageGeometry(t *testing.T) {
	path := testPDF(t)

	g, err := Open(path).Page(2).PageGeometry()
	if err != nil {
		t.Fatalf("PageGeometry() error = %v", err)
	}
	if g != (geometry.PageGeometry{Width: 800, Height: 600}) {
		t.Errorf("PageGeometry() = %+v", g)
	}
}

// ============================================================================
// Configuration
// ============================================================================

func TestChainIsImmutable(t *testing.T) {
	base := Open("doc.pdf").Container(300, 400).Highlights(testHighlights()[0])
	a := base.Page(2).Highlights(testHighlights()[1])
	b := base.Zoom(2)

	if base.options.page != 1 || len(base.options.highlights) != 1 || base.options.zoom != 1 {
		t.Errorf("base options modified: %+v", base.options)
	}
	if a.options.page != 2 || len(a.options.highlights) != 2 {
		t.Errorf("a options = %+v", a.options)
	}
	if b.options.zoom != 2 || b.options.page != 1 {
		t.Errorf("b options = %+v", b.options)
	}
}

func TestInvalidConfiguration(t *testing.T) {
	path := testPDF(t)

	tests := []struct {
		name    string
		v       *Viewer
		wantErr error
	}{
		{"page zero", Open(path).Page(0), pdfsource.ErrPageOutOfRange},
		{"page past end", Open(path).Page(3), pdfsource.ErrPageOutOfRange},
		{"zero container", Open(path).Container(0, 100), geometry.ErrGeometryUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.v.Layout(); !errors.Is(err, tt.wantErr) {
				t.Errorf("Layout() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	if _, err := Open(path).Zoom(-1).Layout(); err == nil {
		t.Error("expected error for negative zoom")
	}
}

// ============================================================================
// Layout and mapping
// ============================================================================

var approx = cmpopts.EquateApprox(0, 1e-9)

func TestLayout(t *testing.T) {
	path := testPDF(t)

	tests := []struct {
		name string
		v    *Viewer
		want geometry.Layout
	}{
		{
			name: "letterboxed",
			v:    Open(path).Container(400, 400),
			want: geometry.Layout{
				ScaleX: 400.0 / 600, ScaleY: 0.5, Scale: 0.5,
				ScaledPageWidth: 300, ScaledPageHeight: 400,
				OffsetX: 50, OffsetY: 0,
			},
		},
		{
			name: "natural size",
			v:    Open(path),
			want: geometry.Layout{
				ScaleX: 1, ScaleY: 1, Scale: 1,
				ScaledPageWidth: 600, ScaledPageHeight: 800,
			},
		},
		{
			name: "zoom doubles the container",
			v:    Open(path).Container(200, 200).Zoom(2),
			want: geometry.Layout{
				ScaleX: 400.0 / 600, ScaleY: 0.5, Scale: 0.5,
				ScaledPageWidth: 300, ScaledPageHeight: 400,
				OffsetX: 50, OffsetY: 0,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.v.Layout()
			if err != nil {
				t.Fatalf("Layout() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, got, approx); diff != "" {
				t.Errorf("Layout() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestMapUnmap(t *testing.T) {
	v := Open(testPDF(t)).Container(300, 400)

	m, err := v.Map(geometry.NewRect(10, 20, 30, 40))
	if err != nil {
		t.Fatalf("Map() error = %v", err)
	}
	if diff := cmp.Diff(geometry.Rect{X: 5, Y: 10, Width: 15, Height: 20}, m.Scaled(), approx); diff != "" {
		t.Errorf("Map() mismatch (-want +got):\n%s", diff)
	}

	p, err := v.Unmap(geometry.Point{X: m.ScaledX, Y: m.ScaledY})
	if err != nil {
		t.Fatalf("Unmap() error = %v", err)
	}
	if math.Abs(p.X-10) > 1e-9 || math.Abs(p.Y-20) > 1e-9 {
		t.Errorf("Unmap() = %+v, want (10, 20)", p)
	}
}

// ============================================================================
// Overlay output
// ============================================================================

func TestOverlay(t *testing.T) {
	v := Open(testPDF(t)).Container(400, 400).Highlights(testHighlights()...)

	boxes, err := v.Overlay()
	if err != nil {
		t.Fatalf("Overlay() error = %v", err)
	}
	if len(boxes) != 1 || boxes[0].Highlight.ID != "h1" {
		t.Fatalf("Overlay() = %v, want h1 only", boxes)
	}
	if diff := cmp.Diff(geometry.Rect{X: 55, Y: 10, Width: 15, Height: 20}, boxes[0].Rect(), approx); diff != "" {
		t.Errorf("box mismatch (-want +got):\n%s", diff)
	}

	boxes, err = v.Page(2).Overlay()
	if err != nil {
		t.Fatalf("Page(2).Overlay() error = %v", err)
	}
	if len(boxes) != 1 || boxes[0].Highlight.ID != "h2" {
		t.Errorf("Page(2).Overlay() = %v, want h2", boxes)
	}
}

func TestSearch(t *testing.T) {
	boxes, err := Open(testPDF(t)).Search("hello").Overlay()
	if err != nil {
		t.Fatalf("Overlay() error = %v", err)
	}
	if len(boxes) == 0 {
		t.Skip("no text fragments extracted from generated PDF")
	}
	h := boxes[0].Highlight
	if h.Page != 1 || !strings.HasPrefix(h.ID, "local-1-") {
		t.Errorf("highlight = %+v", h)
	}
	// Baseline at y=700 on an 800pt page puts the box near the top.
	if h.Y < 80 || h.Y > 110 {
		t.Errorf("highlight Y = %v, want about 88", h.Y)
	}

	none, err := Open(testPDF(t)).Search("HELLO").CaseSensitive().Overlay()
	if err != nil {
		t.Fatalf("Overlay() error = %v", err)
	}
	if len(none) != 0 {
		t.Errorf("case-sensitive search matched %v", none)
	}
}

func TestHTML(t *testing.T) {
	var buf bytes.Buffer
	err := Open(testPDF(t)).Container(400, 400).Highlights(testHighlights()...).HTML(&buf)
	if err != nil {
		t.Fatalf("HTML() error = %v", err)
	}

	out := buf.String()
	for _, want := range []string{overlay.ClassOverlay, `data-highlight-id="h1"`, "left:55px"} {
		if !strings.Contains(out, want) {
			t.Errorf("HTML() missing %q in %s", want, out)
		}
	}
	if strings.Contains(out, `data-highlight-id="h2"`) {
		t.Error("HTML() contains a highlight from another page")
	}
}

func TestPNG(t *testing.T) {
	var buf bytes.Buffer
	err := Open(testPDF(t)).Container(300, 300).Highlights(testHighlights()...).PNG(&buf)
	if err != nil {
		t.Fatalf("PNG() error = %v", err)
	}

	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("output is not PNG: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 300 || b.Dy() != 300 {
		t.Errorf("image size = %v, want 300x300", b)
	}
}

func TestImageNeedsFileName(t *testing.T) {
	src, err := pdfsource.Open(testPDF(t))
	if err != nil {
		t.Fatalf("pdfsource.Open() error = %v", err)
	}
	defer src.Close()

	v := FromSource(src)
	if _, err := v.Image(); err == nil {
		t.Error("expected error rendering without a file name")
	}
	if _, err := v.Layout(); err != nil {
		t.Errorf("Layout() on FromSource error = %v", err)
	}
	// The caller's source stays open.
	if _, err := src.PageGeometry(1); err != nil {
		t.Errorf("source closed by Viewer: %v", err)
	}
}

func TestMust(t *testing.T) {
	if got := Must(42, nil); got != 42 {
		t.Errorf("Must() = %d", got)
	}

	defer func() {
		if recover() == nil {
			t.Error("Must() did not panic on error")
		}
	}()
	Must(0, errors.New("boom"))
}
