package iconfont

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Glyph is one icon submitted to the font synthesizer.
type Glyph struct {
	Name      string
	Codepoint rune
	// SVG is the optimized icon document.
	SVG []byte
}

// SynthOptions control the generated SVG font.
type SynthOptions struct {
	FontName string
	// FontHeight is the em size when Normalize is set; otherwise the em
	// size is the tallest glyph.
	FontHeight int
	Normalize  bool
}

// Synthesize consumes glyphs until in is closed and returns a single SVG
// font document with glyphs ordered by code point.
func Synthesize(ctx context.Context, opts SynthOptions, in <-chan Glyph) ([]byte, error) {
	type entry struct {
		glyph   Glyph
		outline *outline
	}
	var entries []entry
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case g, ok := <-in:
			if !ok {
				sort.Slice(entries, func(i, j int) bool {
					return entries[i].glyph.Codepoint < entries[j].glyph.Codepoint
				})
				outlines := make([]*outline, len(entries))
				glyphs := make([]Glyph, len(entries))
				for i, e := range entries {
					outlines[i], glyphs[i] = e.outline, e.glyph
				}
				return writeFont(opts, glyphs, outlines), nil
			}
			o, err := parseOutline(g.SVG)
			if err != nil {
				return nil, fmt.Errorf("glyph %s: %w", g.Name, err)
			}
			entries = append(entries, entry{glyph: g, outline: o})
		}
	}
}

func writeFont(opts SynthOptions, glyphs []Glyph, outlines []*outline) []byte {
	height := float64(opts.FontHeight)
	if !opts.Normalize || height <= 0 {
		height = 0
		for _, o := range outlines {
			height = math.Max(height, o.height)
		}
	}
	em := int(math.Round(height))

	type rendered struct {
		advance int
		d       string
	}
	out := make([]rendered, len(outlines))
	maxAdvance := 0
	for i, o := range outlines {
		ratio := 1.0
		if opts.Normalize && o.height > 0 {
			ratio = height / o.height
		}
		m := translate(0, height).mul(scale(ratio, -ratio)).mul(translate(-o.minX, -o.minY))
		out[i] = rendered{
			advance: int(math.Round(o.width * ratio)),
			d:       o.path.transform(m).String(),
		}
		if out[i].advance > maxAdvance {
			maxAdvance = out[i].advance
		}
	}

	var b bytes.Buffer
	b.WriteString(`<?xml version="1.0" standalone="no"?>` + "\n")
	b.WriteString(`<!DOCTYPE svg PUBLIC "-//W3C//DTD SVG 1.1//EN" "http://www.w3.org/Graphics/SVG/1.1/DTD/svg11.dtd" >` + "\n")
	b.WriteString(`<svg xmlns="http://www.w3.org/2000/svg">` + "\n<defs>\n")
	fmt.Fprintf(&b, `  <font id="%s" horiz-adv-x="%d">`+"\n", escape(opts.FontName), maxAdvance)
	fmt.Fprintf(&b, `    <font-face font-family="%s" units-per-em="%d" ascent="%d" descent="0" />`+"\n",
		escape(opts.FontName), em, em)
	b.WriteString(`    <missing-glyph horiz-adv-x="0" />` + "\n")
	for i, g := range glyphs {
		fmt.Fprintf(&b, `    <glyph glyph-name="%s" unicode="&#x%s;" horiz-adv-x="%d" d="%s" />`+"\n",
			escape(g.Name), strings.ToUpper(strconv.FormatInt(int64(g.Codepoint), 16)), out[i].advance, out[i].d)
	}
	b.WriteString("  </font>\n</defs>\n</svg>\n")
	return b.Bytes()
}

func escape(s string) string {
	var b bytes.Buffer
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}
