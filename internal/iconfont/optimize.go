package iconfont

import (
	"bytes"
	"context"
	"encoding/xml"
	"io"
	"strings"

	"git.home.luguber.info/inful/spritegen/internal/foundation/errors"
)

// Optimizer shrinks an icon's SVG document.
type Optimizer interface {
	Optimize(ctx context.Context, svg []byte) ([]byte, error)
}

// editorPrefixes are namespaces written by vector editors that carry no
// rendering information.
var editorPrefixes = map[string]bool{
	"sodipodi": true,
	"inkscape": true,
	"sketch":   true,
	"dc":       true,
	"cc":       true,
	"rdf":      true,
	"serif":    true,
}

// droppedElements never affect a glyph outline.
var droppedElements = map[string]bool{
	"metadata": true,
	"title":    true,
	"desc":     true,
	"script":   true,
	"style":    true,
}

// XMLOptimizer rewrites the token stream: comments, processing instructions,
// doctypes, editor metadata and whitespace-only text are removed, empty
// elements are self-closed.
type XMLOptimizer struct{}

// NewOptimizer returns the default optimizer.
func NewOptimizer() *XMLOptimizer { return &XMLOptimizer{} }

func (o *XMLOptimizer) Optimize(ctx context.Context, svg []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dec := xml.NewDecoder(bytes.NewReader(svg))
	dec.Strict = true

	var (
		out     bytes.Buffer
		skip    int  // depth inside a dropped element
		open    bool // a start tag awaits ">" or "/>"
		depth   int
		sawRoot bool
	)
	closeOpen := func() {
		if open {
			out.WriteByte('>')
			open = false
		}
	}

	for {
		tok, err := dec.RawToken()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.WrapError(err, errors.CategoryMetadata, "malformed SVG").Build()
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if skip > 0 || dropElement(t.Name) {
				skip++
				continue
			}
			if depth == 0 {
				if sawRoot || t.Name.Local != "svg" {
					return nil, errors.MetadataError("SVG root element expected").
						WithContext("element", qualified(t.Name)).Build()
				}
				sawRoot = true
			}
			closeOpen()
			depth++
			out.WriteByte('<')
			out.WriteString(qualified(t.Name))
			for _, attr := range t.Attr {
				if dropAttr(attr.Name) {
					continue
				}
				out.WriteByte(' ')
				out.WriteString(qualified(attr.Name))
				out.WriteString(`="`)
				escapeAttr(&out, attr.Value)
				out.WriteByte('"')
			}
			open = true
		case xml.EndElement:
			if skip > 0 {
				skip--
				continue
			}
			depth--
			if open {
				out.WriteString("/>")
				open = false
				continue
			}
			out.WriteString("</")
			out.WriteString(qualified(t.Name))
			out.WriteByte('>')
		case xml.CharData:
			if skip > 0 || depth == 0 {
				continue
			}
			text := strings.TrimSpace(string(t))
			if text == "" {
				continue
			}
			closeOpen()
			_ = xml.EscapeText(&out, []byte(text))
		}
		// comments, processing instructions and directives are dropped
	}
	if !sawRoot {
		return nil, errors.MetadataError("document has no SVG root element").Build()
	}
	if depth != 0 {
		return nil, errors.MetadataError("unbalanced SVG document").Build()
	}
	return out.Bytes(), nil
}

func dropElement(n xml.Name) bool {
	if editorPrefixes[n.Space] {
		return true
	}
	return n.Space == "" && droppedElements[n.Local]
}

func dropAttr(n xml.Name) bool {
	if editorPrefixes[n.Space] {
		return true
	}
	// namespace declarations for editor prefixes
	if n.Space == "xmlns" && editorPrefixes[n.Local] {
		return true
	}
	return false
}

func qualified(n xml.Name) string {
	if n.Space == "" {
		return n.Local
	}
	return n.Space + ":" + n.Local
}

func escapeAttr(w *bytes.Buffer, v string) {
	for _, r := range v {
		switch r {
		case '&':
			w.WriteString("&amp;")
		case '<':
			w.WriteString("&lt;")
		case '"':
			w.WriteString("&quot;")
		case '\n':
			w.WriteString("&#xA;")
		default:
			w.WriteRune(r)
		}
	}
}
