package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/tsawler/glimpse"
	"github.com/tsawler/glimpse/backend"
	"github.com/tsawler/glimpse/geometry"
	"github.com/tsawler/glimpse/model"
	"github.com/tsawler/glimpse/ocr"
	"github.com/tsawler/glimpse/pdfsource"
	"github.com/tsawler/glimpse/render"
	"github.com/tsawler/glimpse/session"
)

// ============================================================================
// Backend commands
// ============================================================================

func (e *env) client(api string) *backend.Client {
	opts := []backend.Option{backend.WithLogger(e.logger)}
	if api != "" {
		opts = append(opts, backend.WithBaseURL(api))
	}
	return backend.New(opts...)
}

func runUpload(e *env, args []string) error {
	fs := e.newFlagSet("upload")
	api := fs.String("api", "", "backend base URL")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := needArgs(fs, 1); err != nil {
		return err
	}

	resp, err := e.client(*api).UploadFile(e.ctx, fs.Arg(0))
	if err != nil {
		return err
	}
	return writeJSON(e.stdout, resp.Document())
}

func runAsk(e *env, args []string) error {
	fs := e.newFlagSet("ask")
	api := fs.String("api", "", "backend base URL")
	docID := fs.String("doc", "", "document ID")
	file := fs.String("file", "", "upload this PDF first and ask about it")
	ids := fs.String("highlight", "", "comma-separated highlight IDs to ask about (one with -file)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	question := joinArgs(fs)
	if question == "" {
		return session.ErrEmptyQuestion
	}

	c := e.client(*api)
	var q model.Question
	switch {
	case *file != "":
		selected := splitIDs(*ids)
		if len(selected) > 1 {
			return errors.New("ask: -file selects at most one highlight")
		}
		s := session.New(c, session.WithLogger(e.logger))
		defer s.Close()
		if err := s.Load(e.ctx, *file); err != nil {
			return err
		}
		if len(selected) == 1 && !s.Select(selected[0]) {
			return fmt.Errorf("unknown highlight %q", selected[0])
		}
		var err error
		if q, err = s.Ask(e.ctx, question); err != nil {
			return err
		}

	case *docID != "":
		resp, err := c.AskQuestion(e.ctx, backend.AskRequest{
			DocumentID:   *docID,
			Question:     question,
			HighlightIDs: splitIDs(*ids),
		})
		if err != nil {
			return err
		}
		q = model.Question{Question: question, Answer: resp.Answer, Highlights: resp.Highlights}

	default:
		return errors.New("ask: -doc or -file is required")
	}

	fmt.Fprintln(e.stdout, q.Answer)
	for _, h := range q.Highlights {
		fmt.Fprintf(e.stdout, "  [%s] page %d: %s\n", h.ID, h.Page, h.Text)
	}
	return nil
}

func runHighlights(e *env, args []string) error {
	fs := e.newFlagSet("highlights")
	api := fs.String("api", "", "backend base URL")
	docID := fs.String("doc", "", "document ID")
	page := fs.Int("page", 0, "only highlights on this page (1-indexed)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *docID == "" {
		return errors.New("highlights: -doc is required")
	}

	hs, err := e.client(*api).GetHighlights(e.ctx, *docID)
	if err != nil {
		return err
	}
	if *page > 0 {
		hs = model.FilterPage(hs, *page)
	}
	if hs == nil {
		hs = []model.Highlight{}
	}
	return writeJSON(e.stdout, hs)
}

// ============================================================================
// Local commands
// ============================================================================

func runMap(e *env, args []string) error {
	fs := e.newFlagSet("map")
	pageSize := fs.String("page", "", "page size in points, WxH")
	containerSize := fs.String("container", "", "container size in pixels, WxH")
	zoom := fs.Float64("zoom", 1, "zoom factor applied to the container")
	inverse := fs.Bool("inverse", false, "map a display point back to the page")
	if err := fs.Parse(args); err != nil {
		return err
	}

	pw, ph, err := parseSize(*pageSize)
	if err != nil {
		return fmt.Errorf("-page: %w", err)
	}
	cw, ch, err := parseSize(*containerSize)
	if err != nil {
		return fmt.Errorf("-container: %w", err)
	}
	page := geometry.PageGeometry{Width: pw, Height: ph}
	container := geometry.ContainerGeometry{Width: cw, Height: ch}.Zoom(*zoom)

	if *inverse {
		if err := needArgs(fs, 2); err != nil {
			return err
		}
		v, err := parseFloats(fs.Args())
		if err != nil {
			return err
		}
		p, err := geometry.InverseChecked(geometry.Point{X: v[0], Y: v[1]}, container, page)
		if err != nil {
			return err
		}
		return writeJSON(e.stdout, p)
	}

	if err := needArgs(fs, 4); err != nil {
		return err
	}
	v, err := parseFloats(fs.Args())
	if err != nil {
		return err
	}
	m, err := geometry.ForwardChecked(geometry.NewRect(v[0], v[1], v[2], v[3]), container, page)
	if err != nil {
		return err
	}
	return writeJSON(e.stdout, m)
}

func runOverlay(e *env, args []string) error {
	fs := e.newFlagSet("overlay")
	page := fs.Int("page", 1, "page number (1-indexed)")
	containerSize := fs.String("container", "", "container size in pixels, WxH (default: page size)")
	zoom := fs.Float64("zoom", 1, "zoom factor")
	highlightsFile := fs.String("highlights", "", "JSON file with highlights")
	search := fs.String("search", "", "highlight text matching this query")
	format := fs.String("format", "html", "output format: html or png")
	out := fs.String("o", "", "output file (default: stdout)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := needArgs(fs, 1); err != nil {
		return err
	}

	v := glimpse.Open(fs.Arg(0)).Page(*page).Zoom(*zoom)
	if *containerSize != "" {
		w, h, err := parseSize(*containerSize)
		if err != nil {
			return fmt.Errorf("-container: %w", err)
		}
		v = v.Container(w, h)
	}
	if *highlightsFile != "" {
		hs, err := readHighlights(*highlightsFile)
		if err != nil {
			return err
		}
		v = v.Highlights(hs...)
	}
	if *search != "" {
		v = v.Search(*search)
	}

	w := e.stdout
	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			return fmt.Errorf("failed to create output: %w", err)
		}
		defer f.Close()
		w = f
	}

	switch *format {
	case "html":
		return v.HTML(w)
	case "png":
		return v.PNG(w)
	default:
		return fmt.Errorf("unknown format %q", *format)
	}
}

func runSearch(e *env, args []string) error {
	fs := e.newFlagSet("search")
	page := fs.Int("page", 0, "only search this page (1-indexed)")
	caseSensitive := fs.Bool("case", false, "match case exactly")
	maxResults := fs.Int("max", 0, "stop after this many results (0: no limit)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := needArgs(fs, 2); err != nil {
		return err
	}

	src, err := pdfsource.Open(fs.Arg(1))
	if err != nil {
		return err
	}
	defer src.Close()

	opts := pdfsource.SearchOptions{CaseSensitive: *caseSensitive, MaxResults: *maxResults}
	if *page > 0 {
		opts.Pages = []int{*page}
	}
	hs, err := src.Search(fs.Arg(0), opts)
	if err != nil {
		return err
	}
	e.logger.WithField("matches", len(hs)).Debug("search finished")
	if hs == nil {
		hs = []model.Highlight{}
	}
	return writeJSON(e.stdout, hs)
}

func runOCR(e *env, args []string) error {
	fs := e.newFlagSet("ocr")
	page := fs.Int("page", 1, "page number (1-indexed)")
	dpi := fs.Float64("dpi", 300, "rendering resolution")
	lang := fs.String("lang", "", "tesseract language(s), e.g. eng+deu")
	region := fs.String("region", "", "region in page points, x,y,w,h (top-left origin)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := needArgs(fs, 1); err != nil {
		return err
	}

	v, err := parseFloats(strings.Split(*region, ","))
	if err != nil || len(v) != 4 {
		return errors.New("ocr: -region must be x,y,w,h")
	}

	client, err := ocr.New()
	if err != nil {
		return err
	}
	defer client.Close()
	if *lang != "" {
		if err := client.SetLanguage(*lang); err != nil {
			return err
		}
	}

	r, err := render.Open(fs.Arg(0))
	if err != nil {
		return err
	}
	defer r.Close()

	img, err := r.Render(*page, *dpi)
	if err != nil {
		return err
	}

	// Page points to raster pixels.
	k := *dpi / render.DefaultDPI
	text, err := client.RecognizeRegion(img, geometry.NewRect(v[0]*k, v[1]*k, v[2]*k, v[3]*k))
	if err != nil {
		return err
	}
	fmt.Fprintln(e.stdout, text)
	return nil
}

// ============================================================================
// Helpers
// ============================================================================

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// parseSize parses "WxH".
func parseSize(s string) (float64, float64, error) {
	w, h, ok := strings.Cut(strings.ToLower(s), "x")
	if !ok {
		return 0, 0, fmt.Errorf("invalid size %q, want WxH", s)
	}
	v, err := parseFloats([]string{w, h})
	if err != nil {
		return 0, 0, err
	}
	return v[0], v[1], nil
}

func parseFloats(ss []string) ([]float64, error) {
	out := make([]float64, len(ss))
	for i, s := range ss {
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", s)
		}
		out[i] = f
	}
	return out, nil
}

func splitIDs(s string) []string {
	var ids []string
	for _, id := range strings.Split(s, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

func readHighlights(path string) ([]model.Highlight, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read highlights: %w", err)
	}
	var hs []model.Highlight
	if err := json.Unmarshal(data, &hs); err != nil {
		return nil, fmt.Errorf("failed to parse highlights: %w", err)
	}
	return hs, nil
}
