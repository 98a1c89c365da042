// Package packer lays out source images on a single atlas canvas.
package packer

import (
	"context"
	"sort"

	"git.home.luguber.info/inful/spritegen/internal/foundation/errors"
)

// Rect is a source image's position on the atlas.
type Rect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Properties describes the atlas canvas.
type Properties struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Params are forwarded from the build configuration.
type Params struct {
	Sources       []string
	Padding       int
	Algorithm     string
	AlgorithmOpts map[string]any
	Engine        string
	EngineOpts    map[string]any
}

// Result is the packed atlas and its coordinate map keyed by source path.
type Result struct {
	Image       []byte
	Coordinates map[string]Rect
	Properties  Properties
}

// Paths returns the coordinate keys in lexicographic order.
func (r *Result) Paths() []string {
	out := make([]string, 0, len(r.Coordinates))
	for p := range r.Coordinates {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Packer packs images into one atlas.
type Packer interface {
	Pack(ctx context.Context, params Params) (*Result, error)
}

// PackerFunc adapts a function to Packer.
type PackerFunc func(ctx context.Context, params Params) (*Result, error)

func (f PackerFunc) Pack(ctx context.Context, params Params) (*Result, error) { return f(ctx, params) }

// ForEngine returns the built-in packer for the named engine.
func ForEngine(engine string) (Packer, error) {
	switch engine {
	case "", EnginePixelsmith:
		return NewPixelsmith(), nil
	default:
		return nil, errors.PackingError("unsupported packing engine").
			WithContext("engine", engine).Build()
	}
}

// Dispatcher picks the engine from Params on every call.
type Dispatcher struct{}

func (Dispatcher) Pack(ctx context.Context, params Params) (*Result, error) {
	p, err := ForEngine(params.Engine)
	if err != nil {
		return nil, err
	}
	return p.Pack(ctx, params)
}
