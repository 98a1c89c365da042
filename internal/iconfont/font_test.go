package iconfont

import (
	"bytes"
	"compress/zlib"
	"context"
	"encoding/binary"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/spritegen/internal/foundation/errors"
)

func TestOptimizeStripsEditorNoise(t *testing.T) {
	out, err := NewOptimizer().Optimize(context.Background(), []byte(squareSVG))
	require.NoError(t, err)
	assert.Equal(t,
		`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 10 10"><rect x="0" y="0" width="10" height="10"/></svg>`,
		string(out))
}

func TestOptimizeRejectsMalformedInput(t *testing.T) {
	for _, doc := range []string{`<html></html>`, `not xml at all`, `<svg><g></svg>`, ``} {
		_, err := NewOptimizer().Optimize(context.Background(), []byte(doc))
		require.Error(t, err, doc)
		assert.True(t, errors.HasCategory(err, errors.CategoryMetadata), doc)
	}
}

func TestSynthesizeOrdersByCodepoint(t *testing.T) {
	in := make(chan Glyph, 2)
	in <- Glyph{Name: "second", Codepoint: 0xEA02, SVG: []byte(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 10 10"><rect width="10" height="10"/></svg>`)}
	in <- Glyph{Name: "first", Codepoint: 0xEA01, SVG: []byte(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 10 10"><rect width="5" height="10"/></svg>`)}
	close(in)

	font, err := Synthesize(context.Background(), SynthOptions{FontName: "icons", FontHeight: 100, Normalize: true}, in)
	require.NoError(t, err)
	doc := string(font)

	assert.Contains(t, doc, `<font id="icons" horiz-adv-x="100">`)
	assert.Contains(t, doc, `units-per-em="100" ascent="100" descent="0"`)
	first := strings.Index(doc, `glyph-name="first"`)
	second := strings.Index(doc, `glyph-name="second"`)
	require.Positive(t, first)
	assert.Less(t, first, second)
	assert.Contains(t, doc, `<glyph glyph-name="first" unicode="&#xEA01;" horiz-adv-x="100" d="M 0 100 L 50 100 L 50 0 L 0 0 Z" />`)
	assert.Contains(t, doc, `<glyph glyph-name="second" unicode="&#xEA02;" horiz-adv-x="100" d="M 0 100 L 100 100 L 100 0 L 0 0 Z" />`)
}

func TestSynthesizeWithoutNormalizeUsesTallestGlyph(t *testing.T) {
	in := make(chan Glyph, 2)
	in <- Glyph{Name: "small", Codepoint: 0xEA01, SVG: []byte(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 8 8"><rect width="8" height="8"/></svg>`)}
	in <- Glyph{Name: "tall", Codepoint: 0xEA02, SVG: []byte(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 16 32"><rect width="16" height="32"/></svg>`)}
	close(in)

	font, err := Synthesize(context.Background(), SynthOptions{FontName: "icons", FontHeight: 512}, in)
	require.NoError(t, err)
	assert.Contains(t, string(font), `units-per-em="32"`)
	assert.Contains(t, string(font), `glyph-name="small" unicode="&#xEA01;" horiz-adv-x="8" d="M 0 32 L 8 32 L 8 24 L 0 24 Z"`)
}

func TestSynthesizeReportsBadGlyph(t *testing.T) {
	in := make(chan Glyph, 1)
	in <- Glyph{Name: "broken", Codepoint: 0xEA01, SVG: []byte(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 8 8"><path d="M0 0 L"/></svg>`)}
	close(in)
	_, err := Synthesize(context.Background(), SynthOptions{FontName: "icons"}, in)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken")
}

func TestTTFToWOFF(t *testing.T) {
	ttf := testTTF(t)
	woff, err := TTFToWOFF(ttf)
	require.NoError(t, err)

	be := binary.BigEndian
	assert.Equal(t, uint32(woffSignature), be.Uint32(woff[0:]))
	assert.Equal(t, uint32(0x00010000), be.Uint32(woff[4:]))
	assert.Equal(t, uint32(len(woff)), be.Uint32(woff[8:]))
	assert.Equal(t, uint16(4), be.Uint16(woff[12:]))
	assert.Equal(t, uint32(len(ttf)), be.Uint32(woff[16:]))

	// glyf is the second table and compresses.
	entry := woff[woffHeaderSize+woffEntrySize:]
	assert.Equal(t, "glyf", string(entry[:4]))
	off, compLen, origLen := be.Uint32(entry[4:]), be.Uint32(entry[8:]), be.Uint32(entry[12:])
	assert.Equal(t, uint32(512), origLen)
	require.Less(t, compLen, origLen)
	r, err := zlib.NewReader(bytes.NewReader(woff[off : off+compLen]))
	require.NoError(t, err)
	raw, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, make([]byte, 512), raw)
	assert.Zero(t, off%4)
}

func TestTTFToEOT(t *testing.T) {
	ttf := testTTF(t)
	eot, err := TTFToEOT(ttf)
	require.NoError(t, err)

	le := binary.LittleEndian
	assert.Equal(t, uint32(len(eot)), le.Uint32(eot[0:]))
	assert.Equal(t, uint32(len(ttf)), le.Uint32(eot[4:]))
	assert.Equal(t, uint32(eotVersion), le.Uint32(eot[8:]))
	assert.Equal(t, []byte{2, 0, 5, 3, 0, 0, 0, 0, 0, 0}, eot[16:26])
	assert.Equal(t, byte(1), eot[27], "italic bit")
	assert.Equal(t, uint32(400), le.Uint32(eot[28:]))
	assert.Equal(t, uint16(eotMagic), le.Uint16(eot[34:]))
	assert.Equal(t, uint32(1), le.Uint32(eot[36:]))
	assert.Equal(t, uint32(1), le.Uint32(eot[52:]))
	assert.Equal(t, uint32(0xB1B0AFBA), le.Uint32(eot[60:]))

	assert.Equal(t, uint16(10), le.Uint16(eot[82:]))
	assert.Equal(t, []byte{'I', 0, 'c', 0, 'o', 0, 'n', 0, 's', 0}, eot[84:94])
	assert.Equal(t, ttf, eot[len(eot)-len(ttf):])
}

func TestConvertersRejectTruncatedData(t *testing.T) {
	_, err := TTFToWOFF([]byte{0, 1})
	assert.Error(t, err)
	_, err = TTFToEOT([]byte{0, 1, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0})
	assert.Error(t, err)
}
