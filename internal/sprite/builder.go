// Package sprite builds raster atlases and their stylesheets.
package sprite

import (
	"context"
	"path"
	"time"

	"git.home.luguber.info/inful/spritegen/internal/assets"
	"git.home.luguber.info/inful/spritegen/internal/foundation/errors"
	"git.home.luguber.info/inful/spritegen/internal/logfields"
	"git.home.luguber.info/inful/spritegen/internal/observability"
	"git.home.luguber.info/inful/spritegen/internal/packer"
	"git.home.luguber.info/inful/spritegen/internal/render"
	"git.home.luguber.info/inful/spritegen/internal/sink"
)

// Options are the sprite-relevant parts of the build configuration.
type Options struct {
	Cwd           string
	ImgDest       string
	SheetDest     string
	SheetFormat   string
	Template      render.Template
	Padding       int
	Algorithm     string
	AlgorithmOpts map[string]any
	Engine        string
	EngineOpts    map[string]any
}

// Result is the outcome of one sheet's raster build.
type Result struct {
	// Coords are the sprite entries sorted by source path.
	Coords     []render.Item
	Info       render.Spritesheet
	Stylesheet string
	Delivery   *sink.Result
}

// Builder turns raster sources into an atlas plus stylesheet.
type Builder struct {
	packer   packer.Packer
	renderer render.Renderer
	sink     sink.Sink
	opts     Options
}

// NewBuilder wires a Builder from its collaborators.
func NewBuilder(p packer.Packer, r render.Renderer, s sink.Sink, opts Options) *Builder {
	return &Builder{packer: p, renderer: r, sink: s, opts: opts}
}

// Build packs images for the named sheet, renders the stylesheet and delivers both.
func (b *Builder) Build(ctx context.Context, buildID, sheet string, images []string) (*Result, error) {
	started := time.Now()
	ctx = observability.WithKind(ctx, "sprite")

	packed, err := b.packer.Pack(ctx, packer.Params{
		Sources:       images,
		Padding:       b.opts.Padding,
		Algorithm:     b.opts.Algorithm,
		AlgorithmOpts: b.opts.AlgorithmOpts,
		Engine:        b.opts.Engine,
		EngineOpts:    b.opts.EngineOpts,
	})
	if err != nil {
		if errors.IsClassified(err) || ctx.Err() != nil {
			return nil, err
		}
		return nil, errors.WrapError(err, errors.CategoryPacking, "error generating sprites").
			ForSheet(sheet).Build()
	}

	destImg := b.opts.ImgDest + AtlasFileName(sheet)
	destCSS := assets.StylesheetPath(b.opts.SheetDest, sheet, b.opts.SheetFormat)
	imageURL := assets.RelativeURL(b.opts.Cwd, b.opts.SheetDest, destImg)

	info := render.Spritesheet{
		Width:          packed.Properties.Width,
		Height:         packed.Properties.Height,
		Image:          imageURL,
		Container:      sheet,
		SpriteFileName: path.Base(destImg),
	}
	coords := Entries(packed, imageURL)

	css, err := b.renderer.Render(render.Data{Items: coords, Spritesheet: info}, render.Options{
		Format:          b.opts.SheetFormat,
		Template:        b.opts.Template,
		Bundled:         render.BundledSprite,
		SpritesheetName: "spritesheet",
	})
	if err != nil {
		return nil, err
	}

	delivery, err := b.sink.Deliver(ctx, sink.Artifact{
		BuildID:   buildID,
		Sheet:     sheet,
		Kind:      sink.KindSprite,
		ImageName: destImg,
		Started:   started,
		Outputs: []sink.Output{
			{Role: sink.RoleImage, Path: destImg, StreamPath: destImg, Data: packed.Image},
			{Role: sink.RoleStylesheet, Path: destCSS, StreamPath: path.Base(destCSS), Data: []byte(css)},
		},
	})
	if err != nil {
		return nil, err
	}
	if delivery.Mode == sink.ModeFilesystem {
		observability.InfoContext(ctx, "Sprite sheet created",
			logfields.Stylesheet(destCSS), logfields.Image(destImg), logfields.Count(len(coords)))
	}
	return &Result{Coords: coords, Info: info, Stylesheet: css, Delivery: delivery}, nil
}

// Entries converts a packer result into sprite entries sorted by source path.
func Entries(packed *packer.Result, imageURL string) []render.Item {
	paths := packed.Paths()
	items := make([]render.Item, 0, len(paths))
	for _, p := range paths {
		r := packed.Coordinates[p]
		name := assets.LogicalName(p)
		items = append(items, render.Item{
			Name:        name.Full,
			SourceImage: p,
			N1:          name.N1,
			N2:          name.N2,
			X:           r.X,
			Y:           r.Y,
			Width:       r.Width,
			Height:      r.Height,
			OffsetX:     -r.X,
			OffsetY:     -r.Y,
			TotalWidth:  packed.Properties.Width,
			TotalHeight: packed.Properties.Height,
			Image:       imageURL,
		})
	}
	return items
}
