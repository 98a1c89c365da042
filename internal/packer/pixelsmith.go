package packer

import (
	"bytes"
	"context"
	"image"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"os"
	"sort"

	"git.home.luguber.info/inful/spritegen/internal/foundation/errors"
)

// EnginePixelsmith is the built-in pure Go engine.
const EnginePixelsmith = "pixelsmith"

// Pixelsmith decodes PNG, JPEG and GIF sources and composes them onto an
// NRGBA canvas encoded as PNG.
type Pixelsmith struct {
	encoder png.Encoder
}

// NewPixelsmith returns the default engine.
func NewPixelsmith() *Pixelsmith {
	return &Pixelsmith{encoder: png.Encoder{CompressionLevel: png.DefaultCompression}}
}

// Pack lays out params.Sources. Sources are placed in path order so the
// coordinates are stable for a fixed input set.
func (p *Pixelsmith) Pack(ctx context.Context, params Params) (*Result, error) {
	sources := append([]string(nil), params.Sources...)
	sort.Strings(sources)

	images := make(map[string]image.Image, len(sources))
	items := make([]*item, 0, len(sources))
	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		img, err := decode(src)
		if err != nil {
			return nil, err
		}
		images[src] = img
		b := img.Bounds()
		items = append(items, &item{
			key:    src,
			width:  b.Dx() + params.Padding,
			height: b.Dy() + params.Padding,
		})
	}

	if len(items) == 0 {
		return &Result{Coordinates: map[string]Rect{}}, nil
	}

	algorithm := params.Algorithm
	if algorithm == "" {
		algorithm = AlgorithmTopDown
	}
	w, h, err := arrange(algorithm, items, params.AlgorithmOpts)
	if err != nil {
		return nil, err
	}
	// trailing padding is not part of the canvas
	w = max(w-params.Padding, 0)
	h = max(h-params.Padding, 0)

	canvas := image.NewNRGBA(image.Rect(0, 0, w, h))
	coords := make(map[string]Rect, len(items))
	for _, it := range items {
		img := images[it.key]
		b := img.Bounds()
		dst := image.Rect(it.x, it.y, it.x+b.Dx(), it.y+b.Dy())
		draw.Draw(canvas, dst, img, b.Min, draw.Src)
		coords[it.key] = Rect{X: it.x, Y: it.y, Width: b.Dx(), Height: b.Dy()}
	}

	var buf bytes.Buffer
	if err := p.encoder.Encode(&buf, canvas); err != nil {
		return nil, errors.WrapError(err, errors.CategoryPacking, "failed to encode atlas").Build()
	}
	return &Result{
		Image:       buf.Bytes(),
		Coordinates: coords,
		Properties:  Properties{Width: w, Height: h},
	}, nil
}

func decode(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryPacking, "failed to open source image").
			WithContext("path", path).Build()
	}
	defer func() { _ = f.Close() }()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryPacking, "unsupported or corrupt source image").
			WithContext("path", path).Build()
	}
	return img, nil
}
