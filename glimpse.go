// Package glimpse provides a fluent API for placing highlights on PDF pages.
//
// Basic usage:
//
//	boxes, err := glimpse.Open("report.pdf").
//	    Page(2).
//	    Container(800, 1000).
//	    Highlights(doc.Highlights...).
//	    Overlay()
//
// Highlights can also come from a local text search:
//
//	err := glimpse.Open("report.pdf").
//	    Container(800, 1000).
//	    Search("revenue").
//	    PNG(w)
//
// For viewer state across many operations use the session package; for the
// mapping arithmetic alone use the geometry package.
package glimpse

import (
	"github.com/tsawler/glimpse/pdfsource"
)

// Open opens a PDF file and returns a Viewer for fluent configuration.
// The file is opened lazily by the first terminal operation, which also
// closes it.
//
// Example:
//
//	n, err := glimpse.Open("document.pdf").PageCount()
func Open(filename string) *Viewer {
	return &Viewer{
		filename: filename,
		options:  defaultOptions(),
	}
}

// FromSource creates a Viewer over an already-opened source. The caller is
// responsible for closing the source. Terminal operations that rasterise
// the page need a file name and are not available on such a Viewer.
func FromSource(src *pdfsource.Source) *Viewer {
	return &Viewer{
		source:       src,
		ownsSource:   false,
		sourceOpened: true,
		options:      defaultOptions(),
	}
}

// Must is a helper that wraps a call to a function returning (T, error)
// and panics if the error is non-nil. It is intended for use in scripts
// or tests where error handling would be cumbersome.
//
// Example:
//
//	boxes := glimpse.Must(glimpse.Open("document.pdf").Overlay())
func Must[T any](val T, err error) T {
	if err != nil {
		panic(err)
	}
	return val
}
