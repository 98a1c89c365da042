// Package iconfont builds icon fonts (SVG, TTF, EOT, WOFF) and their
// stylesheets from vector icons.
package iconfont

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path"
	"runtime"
	"strings"
	"sync"
	"time"

	"git.home.luguber.info/inful/spritegen/internal/assets"
	"git.home.luguber.info/inful/spritegen/internal/codepoints"
	"git.home.luguber.info/inful/spritegen/internal/foundation/errors"
	"git.home.luguber.info/inful/spritegen/internal/logfields"
	"git.home.luguber.info/inful/spritegen/internal/observability"
	"git.home.luguber.info/inful/spritegen/internal/render"
	"git.home.luguber.info/inful/spritegen/internal/sink"
)

// Options are the font-relevant parts of the build configuration.
type Options struct {
	Cwd         string
	FontDest    string
	SheetDest   string
	SheetFormat string
	Template    render.Template
	// FontName overrides the name derived from the sheet.
	FontName    string
	FontHeight  int
	Normalize   bool
	Concurrency int
}

// Result is the outcome of one sheet's font build.
type Result struct {
	FontName   string
	Glyphs     []render.Item
	Info       render.Spritesheet
	Stylesheet string
	Delivery   *sink.Result
}

// Builder turns vector icons into an icon font plus stylesheet.
type Builder struct {
	optimizer Optimizer
	allocator *codepoints.Allocator
	converter Converter
	renderer  render.Renderer
	sink      sink.Sink
	opts      Options
}

// NewBuilder wires a Builder from its collaborators.
func NewBuilder(o Optimizer, a *codepoints.Allocator, c Converter, r render.Renderer, s sink.Sink, opts Options) *Builder {
	if opts.Concurrency <= 0 {
		opts.Concurrency = runtime.NumCPU()
	}
	return &Builder{optimizer: o, allocator: a, converter: c, renderer: r, sink: s, opts: opts}
}

// FontName derives the font name for a sheet. Sheets that also produce an
// atlas get an "svg-" prefix so the two stylesheets do not collide.
func FontName(sheet, override string, hasImages bool) string {
	if override != "" {
		return override
	}
	if hasImages && !strings.Contains(sheet, "svg") {
		return "svg-" + sheet
	}
	return sheet
}

// FontBase returns the path of the font files without extension:
// <fontDest><fontName>/<fontName>.
func FontBase(fontDest, fontName string) string {
	return fontDest + fontName + "/" + fontName
}

// FontExtensions are the font formats written for every icon font.
var FontExtensions = []string{".svg", ".ttf", ".eot", ".woff"}

// Build synthesizes the font for the named sheet, renders its stylesheet and
// delivers every file. Any unreadable or malformed icon aborts the build.
func (b *Builder) Build(ctx context.Context, buildID, sheet string, icons []string, hasImages bool) (*Result, error) {
	started := time.Now()
	ctx = observability.WithKind(ctx, "iconfont")
	fontName := FontName(sheet, b.opts.FontName, hasImages)

	assigned, err := b.allocator.Assign(ctx, fontName, icons)
	if err != nil {
		return nil, classify(err, errors.CategoryMetadata, "failed to assign code points", sheet)
	}

	svgFont, err := b.synthesize(ctx, fontName, assigned)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, classify(err, errors.CategoryMetadata, "failed to build glyphs", sheet)
	}

	ttf, err := b.converter.Convert(ctx, fontName, svgFont)
	if err != nil {
		return nil, classify(err, errors.CategoryConversion, "svg to ttf conversion failed", sheet)
	}
	woff, err := TTFToWOFF(ttf)
	if err != nil {
		return nil, classify(err, errors.CategoryConversion, "ttf to woff conversion failed", sheet)
	}
	eot, err := TTFToEOT(ttf)
	if err != nil {
		return nil, classify(err, errors.CategoryConversion, "ttf to eot conversion failed", sheet)
	}

	base := FontBase(b.opts.FontDest, fontName)
	fontURL := assets.RelativeURL(b.opts.Cwd, b.opts.SheetDest, base)
	destCSS := assets.StylesheetPath(b.opts.SheetDest, fontName, b.opts.SheetFormat)
	sum := sha256.Sum256(svgFont)

	info := render.Spritesheet{
		Image:          fontURL,
		Container:      fontName,
		SpriteFileName: fontName + ".svg",
		CacheBuster:    hex.EncodeToString(sum[:])[:10],
	}
	glyphs := Entries(assigned, fontURL)

	css, err := b.renderer.Render(render.Data{Items: glyphs, Spritesheet: info}, render.Options{
		Format:          b.opts.SheetFormat,
		Template:        b.opts.Template,
		Bundled:         render.BundledIconFont,
		SpritesheetName: "iconfont",
	})
	if err != nil {
		return nil, err
	}

	stream := fontName + "/" + fontName
	delivery, err := b.sink.Deliver(ctx, sink.Artifact{
		BuildID:   buildID,
		Sheet:     sheet,
		Kind:      sink.KindFont,
		ImageName: fontName,
		Started:   started,
		Outputs: []sink.Output{
			{Role: sink.RoleFont, Path: base + ".svg", StreamPath: stream + ".svg", Data: svgFont},
			{Role: sink.RoleFont, Path: base + ".ttf", StreamPath: stream + ".ttf", Data: ttf},
			{Role: sink.RoleFont, Path: base + ".eot", StreamPath: stream + ".eot", Data: eot},
			{Role: sink.RoleFont, Path: base + ".woff", StreamPath: stream + ".woff", Data: woff},
			{Role: sink.RoleStylesheet, Path: destCSS, StreamPath: path.Base(destCSS), Data: []byte(css)},
		},
	})
	if err != nil {
		return nil, err
	}
	if delivery.Mode == sink.ModeFilesystem {
		observability.InfoContext(ctx, "Icon font created",
			logfields.Stylesheet(destCSS), logfields.Font(fontName), logfields.Path(base), logfields.Count(len(glyphs)))
	}
	return &Result{FontName: fontName, Glyphs: glyphs, Info: info, Stylesheet: css, Delivery: delivery}, nil
}

// synthesize reads and optimizes icons concurrently and streams them into the
// font synthesizer. The first failure cancels the remaining work.
func (b *Builder) synthesize(ctx context.Context, fontName string, assigned []codepoints.Assignment) ([]byte, error) {
	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	type synthesized struct {
		font []byte
		err  error
	}
	glyphs := make(chan Glyph)
	done := make(chan synthesized, 1)
	go func() {
		font, err := Synthesize(ctx, SynthOptions{
			FontName:   fontName,
			FontHeight: b.opts.FontHeight,
			Normalize:  b.opts.Normalize,
		}, glyphs)
		if err != nil {
			cancel(err)
		}
		done <- synthesized{font: font, err: err}
	}()

	sem := make(chan struct{}, b.opts.Concurrency)
	var wg sync.WaitGroup
	for _, a := range assigned {
		wg.Add(1)
		go func(a codepoints.Assignment) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				return
			}
			defer func() { <-sem }()

			g, err := b.prepare(ctx, a)
			if err != nil {
				cancel(err)
				return
			}
			select {
			case glyphs <- g:
			case <-ctx.Done():
			}
		}(a)
	}
	wg.Wait()
	close(glyphs)

	res := <-done
	if cause := context.Cause(ctx); cause != nil {
		return nil, cause
	}
	return res.font, res.err
}

func (b *Builder) prepare(ctx context.Context, a codepoints.Assignment) (Glyph, error) {
	raw, err := os.ReadFile(a.Path)
	if err != nil {
		return Glyph{}, errors.WrapError(err, errors.CategoryMetadata, "failed to read icon").
			WithContext("path", a.Path).Build()
	}
	optimized, err := b.optimizer.Optimize(ctx, raw)
	if err != nil {
		if ctx.Err() != nil {
			return Glyph{}, err
		}
		return Glyph{}, errors.WrapError(err, errors.CategoryMetadata, "failed to optimize icon").
			WithContext("path", a.Path).Build()
	}
	observability.DebugContext(ctx, "Glyph prepared", logfields.Path(a.Path), logfields.Glyph(a.Name))
	return Glyph{Name: a.Name, Codepoint: a.Codepoint, SVG: optimized}, nil
}

// Entries converts code point assignments into stylesheet items sorted by
// source path.
func Entries(assigned []codepoints.Assignment, fontURL string) []render.Item {
	items := make([]render.Item, 0, len(assigned))
	for _, a := range assigned {
		name := assets.LogicalName(a.Path)
		if a.Pinned {
			name = assets.LogicalName(a.Name)
		}
		items = append(items, render.Item{
			Name:        a.Name,
			SourceImage: a.Path,
			N1:          name.N1,
			N2:          name.N2,
			Image:       fontURL,
			Unicode:     render.EscapeCodepoint(a.Codepoint),
			Codepoint:   a.Codepoint,
		})
	}
	return items
}

func classify(err error, category errors.ErrorCategory, msg, sheet string) error {
	if errors.IsClassified(err) {
		return err
	}
	return errors.WrapError(err, category, msg).ForSheet(sheet).Build()
}
