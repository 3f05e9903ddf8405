package overlay

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/tsawler/glimpse/geometry"
)

// Class names used in the HTML overlay.
const (
	ClassOverlay   = "glimpse-overlay"
	ClassHighlight = "glimpse-highlight"
	ClassTooltip   = "glimpse-tooltip"
)

// RenderHTML writes an overlay fragment sized to container: one absolutely
// positioned element per box with the full highlight text as its title and
// the tooltip text as a child. The fragment is meant to be stacked on top
// of the rendered page.
func RenderHTML(w io.Writer, boxes []Box, container geometry.ContainerGeometry) error {
	root := element(atom.Div,
		attr("class", ClassOverlay),
		attr("style", style(
			"position", "absolute",
			"left", "0",
			"top", "0",
			"width", px(container.Width),
			"height", px(container.Height),
			"pointer-events", "none",
		)),
	)

	for _, b := range boxes {
		r := b.Rect()
		node := element(atom.Div,
			attr("class", ClassHighlight),
			attr("data-highlight-id", b.Highlight.ID),
			attr("data-page", strconv.Itoa(b.Highlight.Page)),
			attr("title", b.Highlight.Text),
			attr("style", style(
				"position", "absolute",
				"left", px(r.X),
				"top", px(r.Y),
				"width", px(r.Width),
				"height", px(r.Height),
				"background-color", cssColor(b.Fill),
				"border", "2px solid "+cssColor(b.Border),
				"border-radius", "2px",
				"z-index", "10",
				"pointer-events", "auto",
				"cursor", "pointer",
			)),
		)

		tip := element(atom.Div, attr("class", ClassTooltip))
		tip.AppendChild(&html.Node{Type: html.TextNode, Data: b.Tooltip})
		node.AppendChild(tip)

		root.AppendChild(node)
	}

	if err := html.Render(w, root); err != nil {
		return fmt.Errorf("failed to render overlay: %w", err)
	}
	return nil
}

func element(a atom.Atom, attrs ...html.Attribute) *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		DataAtom: a,
		Data:     a.String(),
		Attr:     attrs,
	}
}

func attr(key, val string) html.Attribute {
	return html.Attribute{Key: key, Val: val}
}

// style joins property/value pairs into a CSS declaration list.
func style(kv ...string) string {
	var sb strings.Builder
	for i := 0; i+1 < len(kv); i += 2 {
		if i > 0 {
			sb.WriteByte(';')
		}
		sb.WriteString(kv[i])
		sb.WriteByte(':')
		sb.WriteString(kv[i+1])
	}
	return sb.String()
}

// px formats a length with at most two decimals.
func px(v float64) string {
	v = math.Round(v*100) / 100
	if v == 0 {
		v = 0 // drop negative zero
	}
	return strconv.FormatFloat(v, 'f', -1, 64) + "px"
}
