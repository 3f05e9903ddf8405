// Package overlay places highlights on a displayed page and draws them.
//
// [Build] selects the highlights of the current page and maps each one into
// display space with a single [geometry.Layout]. Nothing is placed until
// both the page and the container size are known.
//
//	boxes := overlay.Build(doc.Highlights, 1, container, page)
//	if box, ok := overlay.HitTest(boxes, pointer); ok {
//	    fmt.Println("clicked", box.Highlight.ID)
//	}
//
// Boxes can be written as an HTML fragment with [RenderHTML] or painted on a
// page raster with [Composite].
package overlay
