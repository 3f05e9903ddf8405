// Package model defines the records exchanged with the document backend.
//
// A [Document] is a processed PDF with its page count and the [Highlight]
// regions the backend extracted. A [Question] carries a user's question, the
// answer once it arrives, and the highlights the answer cites.
//
// Highlight coordinates are in PDF space (points, origin top-left). Use
// [Highlight.Rect] to hand them to the geometry package.
package model
