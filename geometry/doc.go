// Package geometry maps highlight rectangles between PDF page space and the
// pixel space of the surface a page is displayed on.
//
// # Coordinate Systems
//
// PDF space uses points with the origin at the top-left corner of the page,
// the convention highlight records use. Display space uses pixels with the
// origin at the top-left corner of the container the page is drawn into.
//
// # Fitting
//
// A page is scaled uniformly so that it fits entirely inside its container
// and is then centered, leaving margin on at most one axis (letterboxing):
//
//	scale   = min(container.Width/page.Width, container.Height/page.Height)
//	offsetX = (container.Width  - page.Width*scale)  / 2
//	offsetY = (container.Height - page.Height*scale) / 2
//
// [NewLayout] computes this fit once; [Layout.Forward] and [Layout.Inverse]
// then map any number of rectangles and points. The package level [Forward]
// and [Inverse] functions are shorthands for a single mapping.
//
// # Unknown Geometry
//
// Forward and Inverse are plain numeric transforms. When the page size is
// zero they return infinite or NaN values rather than failing. Callers
// should gate on [Ready], or use [ForwardChecked] and [InverseChecked] which
// return [ErrGeometryUnknown] instead.
package geometry
