package iconfont

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// outline is the filled geometry of one icon in its own user space.
type outline struct {
	minX, minY    float64
	width, height float64
	path          pathData
}

// containers whose children never render directly.
var nonRendering = map[string]bool{
	"defs":           true,
	"clipPath":       true,
	"mask":           true,
	"symbol":         true,
	"pattern":        true,
	"marker":         true,
	"linearGradient": true,
	"radialGradient": true,
	"filter":         true,
}

// parseOutline collects every filled shape of an SVG document, flattening
// group and element transforms.
func parseOutline(svg []byte) (*outline, error) {
	dec := xml.NewDecoder(bytes.NewReader(svg))
	var (
		out    outline
		stack  = []affine{identity}
		skip   int
		seen   bool
		hasBox bool
	)

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse svg: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if skip > 0 || nonRendering[t.Name.Local] || hidden(t) {
				skip++
				continue
			}
			m := stack[len(stack)-1]
			if tr := attr(t, "transform"); tr != "" {
				local, err := parseTransform(tr)
				if err != nil {
					return nil, err
				}
				m = m.mul(local)
			}
			stack = append(stack, m)

			if !seen {
				seen = true
				if t.Name.Local != "svg" {
					return nil, fmt.Errorf("root element is %q, not svg", t.Name.Local)
				}
				hasBox = out.readViewport(t)
				continue
			}

			d, err := shapePathData(t)
			if err != nil {
				return nil, err
			}
			if d == "" {
				continue
			}
			p, err := parsePathData(d)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", t.Name.Local, err)
			}
			out.path = append(out.path, p.transform(m)...)
		case xml.EndElement:
			if skip > 0 {
				skip--
				continue
			}
			if len(stack) > 1 {
				stack = stack[:len(stack)-1]
			}
		}
	}
	if !seen {
		return nil, fmt.Errorf("document has no root element")
	}
	if !hasBox {
		out.fitBounds()
	}
	if out.width <= 0 || out.height <= 0 {
		return nil, fmt.Errorf("icon has no usable dimensions")
	}
	return &out, nil
}

func (o *outline) readViewport(root xml.StartElement) bool {
	if vb := attr(root, "viewBox"); vb != "" {
		if v, err := parseNumbers(vb); err == nil && len(v) == 4 {
			o.minX, o.minY, o.width, o.height = v[0], v[1], v[2], v[3]
			return o.width > 0 && o.height > 0
		}
	}
	w, h := length(attr(root, "width")), length(attr(root, "height"))
	if w > 0 && h > 0 {
		o.width, o.height = w, h
		return true
	}
	return false
}

// fitBounds derives the viewport from the geometry when the root has none.
func (o *outline) fitBounds() {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, seg := range o.path {
		for k := 0; k+1 < len(seg.pts); k += 2 {
			minX, maxX = math.Min(minX, seg.pts[k]), math.Max(maxX, seg.pts[k])
			minY, maxY = math.Min(minY, seg.pts[k+1]), math.Max(maxY, seg.pts[k+1])
		}
	}
	if math.IsInf(minX, 0) {
		return
	}
	o.minX, o.minY = minX, minY
	o.width, o.height = maxX-minX, maxY-minY
}

func shapePathData(t xml.StartElement) (string, error) {
	num := func(name string) float64 { return length(attr(t, name)) }
	switch t.Name.Local {
	case "path":
		return attr(t, "d"), nil
	case "rect":
		x, y, w, h := num("x"), num("y"), num("width"), num("height")
		if w <= 0 || h <= 0 {
			return "", nil
		}
		rx, ry := num("rx"), num("ry")
		if rx == 0 {
			rx = ry
		}
		if ry == 0 {
			ry = rx
		}
		rx, ry = math.Min(rx, w/2), math.Min(ry, h/2)
		if rx <= 0 {
			return fmt.Sprintf("M%s %sH%sV%sH%sZ", f(x), f(y), f(x+w), f(y+h), f(x)), nil
		}
		return fmt.Sprintf("M%s %sH%sA%s %s 0 0 1 %s %sV%sA%s %s 0 0 1 %s %sH%sA%s %s 0 0 1 %s %sV%sA%s %s 0 0 1 %s %sZ",
			f(x+rx), f(y), f(x+w-rx),
			f(rx), f(ry), f(x+w), f(y+ry), f(y+h-ry),
			f(rx), f(ry), f(x+w-rx), f(y+h), f(x+rx),
			f(rx), f(ry), f(x), f(y+h-ry), f(y+ry),
			f(rx), f(ry), f(x+rx), f(y)), nil
	case "circle":
		r := num("r")
		return ellipsePath(num("cx"), num("cy"), r, r), nil
	case "ellipse":
		return ellipsePath(num("cx"), num("cy"), num("rx"), num("ry")), nil
	case "polygon", "polyline":
		pts, err := parseNumbers(attr(t, "points"))
		if err != nil {
			return "", fmt.Errorf("%s points: %w", t.Name.Local, err)
		}
		if len(pts) < 4 {
			return "", nil
		}
		var b strings.Builder
		b.WriteString("M")
		for k := 0; k+1 < len(pts); k += 2 {
			if k > 0 {
				b.WriteString("L")
			}
			b.WriteString(f(pts[k]) + " " + f(pts[k+1]))
		}
		b.WriteString("Z")
		return b.String(), nil
	default:
		return "", nil
	}
}

func ellipsePath(cx, cy, rx, ry float64) string {
	if rx <= 0 || ry <= 0 {
		return ""
	}
	return fmt.Sprintf("M%s %sA%s %s 0 1 0 %s %sA%s %s 0 1 0 %s %sZ",
		f(cx-rx), f(cy), f(rx), f(ry), f(cx+rx), f(cy), f(rx), f(ry), f(cx-rx), f(cy))
}

func f(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

func hidden(t xml.StartElement) bool {
	if attr(t, "display") == "none" || attr(t, "visibility") == "hidden" {
		return true
	}
	style := strings.ReplaceAll(attr(t, "style"), " ", "")
	return strings.Contains(style, "display:none")
}

func attr(t xml.StartElement, name string) string {
	for _, a := range t.Attr {
		if a.Name.Local == name && (a.Name.Space == "" || a.Name.Space == "http://www.w3.org/2000/svg") {
			return a.Value
		}
	}
	return ""
}

// length parses a user-unit length; units other than px are not scaled.
func length(s string) float64 {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "px"))
	if s == "" || strings.HasSuffix(s, "%") {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
