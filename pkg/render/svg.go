package render

import (
	"bufio"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/matzehuels/whiteboard/pkg/core/geom"
)

// DefaultViewBox frames output when no viewport is given.
var DefaultViewBox = geom.Rect{X: 0, Y: 0, Width: 800, Height: 600}

// SVGOption configures SVG output.
type SVGOption func(*svgWriter)

type svgWriter struct {
	viewBox    geom.Rect
	width      float64
	height     float64
	background string
}

// WithViewBox sets the logical rectangle shown by the document.
func WithViewBox(r geom.Rect) SVGOption {
	return func(s *svgWriter) {
		if !r.IsEmpty() {
			s.viewBox = r.Normalize()
		}
	}
}

// WithSize sets the document's width and height attributes. By default they
// equal the view box size.
func WithSize(width, height float64) SVGOption {
	return func(s *svgWriter) { s.width, s.height = width, height }
}

// WithBackground fills the view box with color before drawing nodes.
func WithBackground(color string) SVGOption {
	return func(s *svgWriter) { s.background = color }
}

// SVG serializes nodes as a standalone SVG document.
func SVG(nodes []*Node, opts ...SVGOption) []byte {
	var buf bytes.Buffer
	_ = WriteSVG(&buf, nodes, opts...)
	return buf.Bytes()
}

// WriteSVG writes nodes as a standalone SVG document to w. Nil nodes are
// skipped.
func WriteSVG(w io.Writer, nodes []*Node, opts ...SVGOption) error {
	s := svgWriter{viewBox: DefaultViewBox}
	for _, opt := range opts {
		opt(&s)
	}
	if s.width == 0 || s.height == 0 {
		s.width, s.height = s.viewBox.Width, s.viewBox.Height
	}

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="%s %s %s %s" width="%s" height="%s">`+"\n",
		formatValue(s.viewBox.X), formatValue(s.viewBox.Y),
		formatValue(s.viewBox.Width), formatValue(s.viewBox.Height),
		formatValue(s.width), formatValue(s.height))
	if s.background != "" {
		writeNode(bw, El("rect",
			A("x", s.viewBox.X), A("y", s.viewBox.Y),
			A("width", s.viewBox.Width), A("height", s.viewBox.Height),
			A("fill", s.background)), 1)
	}
	for _, n := range nodes {
		if n != nil {
			writeNode(bw, n, 1)
		}
	}
	bw.WriteString("</svg>\n")
	return bw.Flush()
}

func writeNode(w *bufio.Writer, n *Node, depth int) {
	indent := strings.Repeat("  ", depth)
	w.WriteString(indent)
	w.WriteByte('<')
	w.WriteString(n.Tag)
	for _, a := range n.Attrs {
		w.WriteByte(' ')
		w.WriteString(a.Name)
		w.WriteString(`="`)
		xml.EscapeText(w, []byte(a.Value))
		w.WriteByte('"')
	}
	switch {
	case len(n.Children) == 0 && n.Text == "":
		w.WriteString("/>\n")
		return
	case len(n.Children) == 0:
		w.WriteByte('>')
		xml.EscapeText(w, []byte(n.Text))
	default:
		w.WriteString(">\n")
		if n.Text != "" {
			w.WriteString(indent + "  ")
			xml.EscapeText(w, []byte(n.Text))
			w.WriteByte('\n')
		}
		for _, c := range n.Children {
			writeNode(w, c, depth+1)
		}
		w.WriteString(indent)
	}
	w.WriteString("</")
	w.WriteString(n.Tag)
	w.WriteString(">\n")
}
