package iconfont

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/spritegen/internal/codepoints"
	"git.home.luguber.info/inful/spritegen/internal/foundation/errors"
	"git.home.luguber.info/inful/spritegen/internal/render"
	"git.home.luguber.info/inful/spritegen/internal/sink"
)

func fakeConverter(t *testing.T, calls *atomic.Int32) Converter {
	ttf := testTTF(t)
	return ConverterFunc(func(_ context.Context, _ string, svgFont []byte) ([]byte, error) {
		if calls != nil {
			calls.Add(1)
		}
		if !strings.Contains(string(svgFont), "<font ") {
			return nil, fmt.Errorf("not an svg font")
		}
		return ttf, nil
	})
}

func newTestBuilder(t *testing.T, cwd string, s sink.Sink, conv Converter) *Builder {
	t.Helper()
	return NewBuilder(NewOptimizer(), &codepoints.Allocator{Start: 0xEA01}, conv, render.New(), s, Options{
		Cwd:         cwd,
		FontDest:    "fonts/",
		SheetDest:   "css/",
		SheetFormat: "scss",
		Template:    render.Template{Kind: render.TemplateBundled},
		FontHeight:  512,
		Normalize:   true,
		Concurrency: 2,
	})
}

func TestFontName(t *testing.T) {
	assert.Equal(t, "icons", FontName("icons", "", false))
	assert.Equal(t, "svg-icons", FontName("icons", "", true))
	assert.Equal(t, "svgicons", FontName("svgicons", "", true))
	assert.Equal(t, "custom", FontName("icons", "custom", true))
}

func TestBuildWritesFontFilesAndStylesheet(t *testing.T) {
	cwd := t.TempDir()
	src := t.TempDir()
	icons := []string{
		writeIcon(t, src, "zoom.svg", squareSVG),
		writeIcon(t, src, "arrow.left.svg", squareSVG),
		writeIcon(t, src, "home.svg", squareSVG),
	}

	b := newTestBuilder(t, cwd, sink.NewFilesystemSink(cwd), fakeConverter(t, nil))
	res, err := b.Build(context.Background(), "b1", "icons", icons, false)
	require.NoError(t, err)

	assert.Equal(t, "icons", res.FontName)
	require.Len(t, res.Glyphs, 3)
	assert.Equal(t, "arrow.left", res.Glyphs[0].Name)
	assert.Equal(t, "arrow", res.Glyphs[0].N1)
	assert.Equal(t, "left", res.Glyphs[0].N2)
	assert.Equal(t, `\EA01`, res.Glyphs[0].Unicode)
	assert.Equal(t, "home", res.Glyphs[1].Name)
	assert.Equal(t, `\EA02`, res.Glyphs[1].Unicode)
	assert.Equal(t, `\EA03`, res.Glyphs[2].Unicode)

	assert.Equal(t, "../fonts/icons/icons", res.Info.Image)
	assert.Equal(t, "icons.svg", res.Info.SpriteFileName)
	assert.Len(t, res.Info.CacheBuster, 10)

	for _, ext := range []string{"svg", "ttf", "eot", "woff"} {
		assert.FileExists(t, filepath.Join(cwd, "fonts", "icons", "icons."+ext))
	}
	css, err := os.ReadFile(filepath.Join(cwd, "css", "_icons.scss"))
	require.NoError(t, err)
	assert.Equal(t, res.Stylesheet, string(css))
	assert.Contains(t, string(css), `\EA02`)
	assert.Contains(t, string(css), "../fonts/icons/icons.woff?"+res.Info.CacheBuster)
	assert.Equal(t, []string{
		filepath.Join(cwd, "fonts", "icons", "icons.svg"),
		filepath.Join(cwd, "fonts", "icons", "icons.ttf"),
		filepath.Join(cwd, "fonts", "icons", "icons.eot"),
		filepath.Join(cwd, "fonts", "icons", "icons.woff"),
		filepath.Join(cwd, "css", "_icons.scss"),
	}, res.Delivery.Written)
}

func TestBuildIsDeterministic(t *testing.T) {
	src := t.TempDir()
	icons := []string{
		writeIcon(t, src, "b.svg", squareSVG),
		writeIcon(t, src, "a.svg", squareSVG),
		writeIcon(t, src, "c.svg", squareSVG),
	}
	var sheets []string
	for i := 0; i < 3; i++ {
		cwd := t.TempDir()
		b := newTestBuilder(t, cwd, sink.NewFilesystemSink(cwd), fakeConverter(t, nil))
		res, err := b.Build(context.Background(), "b", "icons", icons, false)
		require.NoError(t, err)
		sheets = append(sheets, res.Stylesheet)
	}
	assert.Equal(t, sheets[0], sheets[1])
	assert.Equal(t, sheets[0], sheets[2])
}

func TestBuildPrefixesFontNameWhenSheetHasImages(t *testing.T) {
	cwd := t.TempDir()
	icons := []string{writeIcon(t, t.TempDir(), "home.svg", squareSVG)}
	b := newTestBuilder(t, cwd, sink.NewStreamSink(nil), fakeConverter(t, nil))

	res, err := b.Build(context.Background(), "b1", "icons", icons, true)
	require.NoError(t, err)
	assert.Equal(t, "svg-icons", res.FontName)

	stream := res.Delivery.Stream
	require.NotNil(t, stream)
	assert.Equal(t, "svg-icons", stream.ImgFilename)
	assert.Equal(t, "_svg-icons.scss", stream.CSSFilename)
	var names []string
	for _, f := range sink.Drain(stream.Fonts) {
		names = append(names, f.Path)
	}
	assert.Equal(t, []string{
		"svg-icons/svg-icons.svg", "svg-icons/svg-icons.ttf",
		"svg-icons/svg-icons.eot", "svg-icons/svg-icons.woff",
	}, names)
	assert.Len(t, sink.Drain(stream.CSS), 1)
	assert.NoDirExists(t, filepath.Join(cwd, "fonts"))
}

func TestBuildAbortsOnMalformedIcon(t *testing.T) {
	cwd := t.TempDir()
	src := t.TempDir()
	icons := []string{
		writeIcon(t, src, "good.svg", squareSVG),
		writeIcon(t, src, "bad.svg", `<svg><path d="M0 0"`),
	}
	var calls atomic.Int32
	b := newTestBuilder(t, cwd, sink.NewFilesystemSink(cwd), fakeConverter(t, &calls))

	_, err := b.Build(context.Background(), "b1", "icons", icons, false)
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryMetadata))
	assert.Zero(t, calls.Load())
	assert.NoDirExists(t, filepath.Join(cwd, "fonts"))
}

func TestBuildAbortsOnUnreadableIcon(t *testing.T) {
	cwd := t.TempDir()
	b := newTestBuilder(t, cwd, sink.NewFilesystemSink(cwd), fakeConverter(t, nil))
	_, err := b.Build(context.Background(), "b1", "icons", []string{filepath.Join(cwd, "missing.svg")}, false)
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryMetadata))
}

func TestBuildReportsConversionFailure(t *testing.T) {
	cwd := t.TempDir()
	icons := []string{writeIcon(t, t.TempDir(), "home.svg", squareSVG)}
	failing := ConverterFunc(func(context.Context, string, []byte) ([]byte, error) {
		return nil, fmt.Errorf("svg2ttf exploded")
	})
	b := newTestBuilder(t, cwd, sink.NewFilesystemSink(cwd), failing)

	_, err := b.Build(context.Background(), "b1", "icons", icons, false)
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryConversion))
	assert.Contains(t, err.Error(), "svg2ttf exploded")
}

func TestBuildRejectsInvalidTTF(t *testing.T) {
	cwd := t.TempDir()
	icons := []string{writeIcon(t, t.TempDir(), "home.svg", squareSVG)}
	garbage := ConverterFunc(func(context.Context, string, []byte) ([]byte, error) {
		return []byte("nope"), nil
	})
	b := newTestBuilder(t, cwd, sink.NewFilesystemSink(cwd), garbage)

	_, err := b.Build(context.Background(), "b1", "icons", icons, false)
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryConversion))
}

func TestBuildHonorsPinnedCodepoints(t *testing.T) {
	cwd := t.TempDir()
	src := t.TempDir()
	icons := []string{
		writeIcon(t, src, "uEB00-star.svg", squareSVG),
		writeIcon(t, src, "alpha.svg", squareSVG),
	}
	b := newTestBuilder(t, cwd, sink.NewFilesystemSink(cwd), fakeConverter(t, nil))
	res, err := b.Build(context.Background(), "b1", "icons", icons, false)
	require.NoError(t, err)

	byName := map[string]string{}
	for _, g := range res.Glyphs {
		byName[g.Name] = g.Unicode
	}
	assert.Equal(t, `\EB00`, byName["star"])
	assert.Equal(t, `\EA01`, byName["alpha"])
}

func TestExecConverterMissingCommand(t *testing.T) {
	c := NewExecConverter("definitely-not-a-real-svg2ttf-binary", nil)
	_, err := c.Convert(context.Background(), "icons", []byte("<svg/>"))
	assert.Error(t, err)

	_, err = NewExecConverter("", nil).Convert(context.Background(), "icons", nil)
	assert.Error(t, err)
}
