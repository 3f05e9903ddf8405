// Package pdftest builds small, valid PDF files for tests.
//
// The files use a classic cross-reference table with exact byte offsets, one
// content stream per page and the standard Helvetica font, which is enough
// for page geometry, text extraction and rasterisation.
package pdftest

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Text is a line of text drawn at a position in PDF user space (origin
// bottom-left).
type Text struct {
	X, Y float64
	Size float64
	Text string
}

// Page describes one page of a test document.
type Page struct {
	Width, Height float64
	Rotate        int
	Texts         []Text
}

// Letter returns a US Letter page carrying the given texts.
func Letter(texts ...Text) Page {
	return Page{Width: 612, Height: 792, Texts: texts}
}

// Build returns the bytes of a PDF with the given pages.
func Build(pages ...Page) []byte {
	// Object numbers: 1 catalog, 2 page tree, 3 font, then a page object and
	// a content stream per page.
	var objects []string
	objects = append(objects, "<< /Type /Catalog /Pages 2 0 R >>")

	kids := make([]string, len(pages))
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", 4+2*i)
	}
	objects = append(objects, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>",
		strings.Join(kids, " "), len(pages)))
	objects = append(objects, "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>")

	for i, p := range pages {
		pageDict := fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 %s %s] /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R",
			num(p.Width), num(p.Height), 5+2*i)
		if p.Rotate != 0 {
			pageDict += fmt.Sprintf(" /Rotate %d", p.Rotate)
		}
		pageDict += " >>"

		var content bytes.Buffer
		for _, t := range p.Texts {
			size := t.Size
			if size == 0 {
				size = 12
			}
			fmt.Fprintf(&content, "BT /F1 %s Tf %s %s Td (%s) Tj ET\n",
				num(size), num(t.X), num(t.Y), escape(t.Text))
		}
		stream := fmt.Sprintf("<< /Length %d >>\nstream\n%sendstream", content.Len(), content.String())

		objects = append(objects, pageDict, stream)
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n%\xe2\xe3\xcf\xd3\n")

	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)

	return buf.Bytes()
}

// WriteFile writes a PDF with the given pages into a temporary directory
// and returns its path.
func WriteFile(t testing.TB, pages ...Page) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.pdf")
	if err := os.WriteFile(path, Build(pages...), 0o600); err != nil {
		t.Fatalf("failed to write test PDF: %v", err)
	}
	return path
}

func num(f float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.4f", f), "0"), ".")
}

func escape(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`)
	return r.Replace(s)
}
