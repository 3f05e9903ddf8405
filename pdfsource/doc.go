// Package pdfsource reads page geometry and text from local PDF files.
//
// It is the page geometry provider for the overlay: after a page loads, a
// viewer needs the page's unscaled size in points before it can place any
// highlight.
//
//	src, err := pdfsource.Open("report.pdf")
//	if err != nil {
//	    // handle error
//	}
//	defer src.Close()
//	page, err := src.PageGeometry(1)
//
// [Source.Search] turns text matches into highlights, so a document can be
// annotated without the backend. Parsing is done by the tabula reader.
package pdfsource
