package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tsawler/glimpse/backend"
	"github.com/tsawler/glimpse/geometry"
	"github.com/tsawler/glimpse/model"
	"github.com/tsawler/glimpse/overlay"
	"github.com/tsawler/glimpse/pdfsource"
)

// Zoom limits.
const (
	ZoomStep    = 0.2
	MinZoom     = 0.5
	MaxZoom     = 3.0
	DefaultZoom = 1.0
)

var (
	// ErrNoDocument is returned when an operation needs a loaded document.
	ErrNoDocument = errors.New("no document loaded")

	// ErrBusy is returned when an upload or a question is already in flight.
	ErrBusy = errors.New("request already in progress")

	// ErrEmptyQuestion is returned for questions that are blank after trimming.
	ErrEmptyQuestion = errors.New("question is empty")
)

// Backend uploads documents and answers questions about them.
// *backend.Client implements it.
type Backend interface {
	UploadFile(ctx context.Context, path string) (*backend.UploadResponse, error)
	AskQuestion(ctx context.Context, ask backend.AskRequest) (*backend.AskResponse, error)
}

// PageProvider reports page sizes for a local copy of the document.
// *pdfsource.Source and *render.Renderer implement it.
type PageProvider interface {
	NumPages() int
	PageGeometry(page int) (geometry.PageGeometry, error)
	Close() error
}

// Opener opens a PageProvider for a local PDF.
type Opener func(path string) (PageProvider, error)

// OpenSource is the default Opener, backed by pdfsource.
func OpenSource(path string) (PageProvider, error) {
	src, err := pdfsource.Open(path)
	if err != nil {
		return nil, err
	}
	return src, nil
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Session) {
		s.logger = l
	}
}

// WithOpener sets how local PDFs are opened for page geometry.
func WithOpener(open Opener) Option {
	return func(s *Session) {
		s.open = open
	}
}

// WithClock sets the clock used to timestamp questions.
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		s.now = now
	}
}

// Session is the state of one viewer.
type Session struct {
	backend Backend
	open    Opener
	logger  logrus.FieldLogger
	now     func() time.Time

	mu        sync.Mutex
	gen       int // bumped whenever the document changes
	doc       *model.Document
	pages     PageProvider
	numPages  int
	page      int
	geom      geometry.PageGeometry
	container geometry.ContainerGeometry
	zoom      float64
	selected  *model.Highlight
	questions []model.Question
	loading   bool
	asking    bool
	seq       int
}

// New creates an empty session.
func New(b Backend, opts ...Option) *Session {
	l := logrus.New()
	l.SetOutput(io.Discard)

	s := &Session{
		backend: b,
		open:    OpenSource,
		logger:  l,
		now:     time.Now,
		page:    1,
		zoom:    DefaultZoom,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load uploads the PDF at path, opens it locally for page geometry and
// makes it the current document. Questions and selection are reset and the
// view moves to page 1.
func (s *Session) Load(ctx context.Context, path string) error {
	s.mu.Lock()
	if s.loading {
		s.mu.Unlock()
		return ErrBusy
	}
	s.loading = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.loading = false
		s.mu.Unlock()
	}()

	log := s.logger.WithField("path", path)

	resp, err := s.backend.UploadFile(ctx, path)
	if err != nil {
		log.WithError(err).Warn("upload failed")
		return fmt.Errorf("failed to upload document: %w", err)
	}

	pages, err := s.open(path)
	if err != nil {
		log.WithError(err).Warn("failed to open document locally")
		return fmt.Errorf("failed to open document: %w", err)
	}

	doc := resp.Document()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.closeLocked()
	s.doc = doc
	s.pages = pages
	s.numPages = pages.NumPages()
	if s.numPages <= 0 {
		s.numPages = doc.NumPages
	}
	s.zoom = DefaultZoom
	s.loadPageLocked(1)

	log.WithFields(logrus.Fields{
		"document":   doc.ID,
		"pages":      s.numPages,
		"highlights": len(doc.Highlights),
	}).Info("document loaded")
	return nil
}

// Close discards the current document, questions and selection, and
// releases the page provider.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closeLocked()
}

func (s *Session) closeLocked() error {
	var err error
	if s.pages != nil {
		err = s.pages.Close()
	}
	s.gen++
	s.doc = nil
	s.pages = nil
	s.numPages = 0
	s.page = 1
	s.geom = geometry.PageGeometry{}
	s.selected = nil
	s.questions = nil
	return err
}

// Document returns a copy of the current document.
func (s *Session) Document() (model.Document, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.doc == nil {
		return model.Document{}, false
	}
	d := *s.doc
	d.Highlights = append([]model.Highlight(nil), s.doc.Highlights...)
	return d, true
}

// ============================================================================
// Paging
// ============================================================================

// Page returns the current page number (1-indexed).
func (s *Session) Page() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.page
}

// NumPages returns the page count of the current document, or 0.
func (s *Session) NumPages() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.numPages
}

// GoTo moves to page n, clamped to [1, NumPages], and returns the page shown.
func (s *Session) GoTo(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadPageLocked(n)
}

// Next moves one page forward.
func (s *Session) Next() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadPageLocked(s.page + 1)
}

// Previous moves one page back.
func (s *Session) Previous() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadPageLocked(s.page - 1)
}

// PageGeometry returns the unscaled size of the current page. It is zero
// until a document is loaded.
func (s *Session) PageGeometry() geometry.PageGeometry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.geom
}

func (s *Session) loadPageLocked(n int) int {
	if n > s.numPages {
		n = s.numPages
	}
	if n < 1 {
		n = 1
	}
	if n == s.page && s.geom != (geometry.PageGeometry{}) {
		return n
	}

	s.page = n
	s.geom = geometry.PageGeometry{}
	if s.pages == nil {
		return n
	}

	g, err := s.pages.PageGeometry(n)
	if err != nil {
		s.logger.WithError(err).WithField("page", n).Warn("failed to read page size")
		return n
	}
	s.geom = g
	return n
}

// ============================================================================
// Zoom and layout
// ============================================================================

// Zoom returns the current zoom factor.
func (s *Session) Zoom() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.zoom
}

// ZoomIn increases the zoom by ZoomStep, up to MaxZoom.
func (s *Session) ZoomIn() float64 {
	return s.setZoom(func(z float64) float64 { return z + ZoomStep })
}

// ZoomOut decreases the zoom by ZoomStep, down to MinZoom.
func (s *Session) ZoomOut() float64 {
	return s.setZoom(func(z float64) float64 { return z - ZoomStep })
}

// ResetZoom restores DefaultZoom.
func (s *Session) ResetZoom() float64 {
	return s.setZoom(func(float64) float64 { return DefaultZoom })
}

func (s *Session) setZoom(f func(float64) float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	z := math.Round(f(s.zoom)*10) / 10
	s.zoom = math.Max(MinZoom, math.Min(MaxZoom, z))
	return s.zoom
}

// SetContainer records the size of the area the page is drawn into, before
// zoom is applied.
func (s *Session) SetContainer(width, height float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.container = geometry.ContainerGeometry{Width: width, Height: height}
}

// Surface returns the size of the drawing surface: the container scaled
// by the zoom factor.
func (s *Session) Surface() geometry.ContainerGeometry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.container.Zoom(s.zoom)
}

// Layout returns the page layout on the zoomed surface, or
// geometry.ErrGeometryUnknown until both the page and container sizes are
// known.
func (s *Session) Layout() (geometry.Layout, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.layoutLocked()
}

func (s *Session) layoutLocked() (geometry.Layout, error) {
	surface := s.container.Zoom(s.zoom)
	if !geometry.Ready(surface, s.geom) {
		return geometry.Layout{}, geometry.ErrGeometryUnknown
	}
	return geometry.NewLayout(surface, s.geom), nil
}

// Overlay returns the highlight boxes for the current page, in display
// space of the zoomed surface. It is nil while the layout is unknown.
func (s *Session) Overlay() []overlay.Box {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.overlayLocked()
}

func (s *Session) overlayLocked() []overlay.Box {
	if s.doc == nil {
		return nil
	}
	layout, err := s.layoutLocked()
	if err != nil {
		return nil
	}
	return overlay.BuildLayout(s.doc.Highlights, s.page, layout)
}

// ============================================================================
// Selection
// ============================================================================

// Click selects the topmost highlight under a display-space point on the
// zoomed surface. A click that hits nothing clears the selection.
func (s *Session) Click(p geometry.Point) (model.Highlight, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	layout, err := s.layoutLocked()
	if err != nil || s.doc == nil {
		s.selected = nil
		return model.Highlight{}, false
	}

	box, ok := overlay.HitTestPDF(s.overlayLocked(), layout.Inverse(p))
	if !ok {
		s.selected = nil
		return model.Highlight{}, false
	}
	h := box.Highlight
	s.selected = &h
	s.logger.WithFields(logrus.Fields{"highlight": h.ID, "page": h.Page}).Debug("highlight selected")
	return h, true
}

// Select selects a highlight of the current document by ID.
func (s *Session) Select(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.doc == nil {
		return false
	}
	h, ok := s.doc.Highlight(id)
	if !ok {
		return false
	}
	s.selected = &h
	return true
}

// ClearSelection drops the selected highlight.
func (s *Session) ClearSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = nil
}

// Selected returns the selected highlight.
func (s *Session) Selected() (model.Highlight, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected == nil {
		return model.Highlight{}, false
	}
	return *s.selected, true
}

// ============================================================================
// Questions
// ============================================================================

// Asking reports whether a question is in flight.
func (s *Session) Asking() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.asking
}

// Questions returns the question history, newest first.
func (s *Session) Questions() []model.Question {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Question, len(s.questions))
	copy(out, s.questions)
	return out
}

// Ask sends a question about the current document, scoped to the selected
// highlight if there is one. The question is added to the history as
// pending before the request is sent and updated with the answer or the
// error. A successful answer clears the selection and its highlights are
// added to the document.
func (s *Session) Ask(ctx context.Context, text string) (model.Question, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return model.Question{}, ErrEmptyQuestion
	}

	s.mu.Lock()
	if s.doc == nil {
		s.mu.Unlock()
		return model.Question{}, ErrNoDocument
	}
	if s.asking {
		s.mu.Unlock()
		return model.Question{}, ErrBusy
	}
	s.asking = true

	q := model.Question{
		ID:        s.nextIDLocked(),
		Question:  text,
		Timestamp: s.now(),
		Status:    model.QuestionPending,
	}
	req := backend.AskRequest{DocumentID: s.doc.ID, Question: text}
	if s.selected != nil {
		q.Highlights = []model.Highlight{*s.selected}
		req.HighlightIDs = []string{s.selected.ID}
	}
	s.questions = append([]model.Question{q}, s.questions...)
	gen := s.gen
	s.mu.Unlock()

	log := s.logger.WithFields(logrus.Fields{"document": req.DocumentID, "question": q.ID})
	log.Debug("asking question")

	resp, err := s.backend.AskQuestion(ctx, req)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.asking = false

	if gen != s.gen {
		log.Debug("document changed while asking; answer dropped")
		return q, fmt.Errorf("answer dropped: %w", ErrNoDocument)
	}

	i := s.indexLocked(q.ID)
	if err != nil {
		log.WithError(err).Warn("question failed")
		q.Status = model.QuestionFailed
		q.Err = err
		if i >= 0 {
			s.questions[i] = q
		}
		return q, fmt.Errorf("failed to ask question: %w", err)
	}

	q.Answer = resp.Answer
	q.Highlights = resp.Highlights
	q.Status = model.QuestionAnswered
	if i >= 0 {
		s.questions[i] = q
	}
	if added := s.doc.Merge(resp.Highlights); added > 0 {
		log.WithField("added", added).Debug("merged answer highlights")
	}
	s.selected = nil
	return q, nil
}

func (s *Session) indexLocked(id string) int {
	for i, q := range s.questions {
		if q.ID == id {
			return i
		}
	}
	return -1
}

// nextIDLocked returns a question ID made of the current Unix time in
// milliseconds and a sequence number.
func (s *Session) nextIDLocked() string {
	s.seq++
	return strconv.FormatInt(s.now().UnixMilli(), 10) + "-" + strconv.Itoa(s.seq)
}
