// Package session holds the state of one viewer: the loaded document, the
// current page and zoom, the selected highlight and the question history.
//
// A Session ties together a [Backend] for uploads and questions and a
// [PageProvider] for page sizes, and builds the highlight overlay for
// whatever page is shown.
//
//	s := session.New(backend.New())
//	if err := s.Load(ctx, "report.pdf"); err != nil {
//	    return err
//	}
//	s.SetContainer(800, 1000)
//	for _, box := range s.Overlay() {
//	    fmt.Println(box.Highlight.ID, box.Rect())
//	}
//
// All methods are safe for concurrent use. Network calls run without the
// session lock held, so the view can be paged and zoomed while a question
// is in flight.
package session
