// Package sink delivers generated artifacts either to disk or as in-memory streams.
package sink

import (
	"context"
	"time"
)

// Kind distinguishes the two builders.
type Kind string

const (
	KindSprite Kind = "sprite"
	KindFont   Kind = "font"
)

// Role tags an output within an artifact.
type Role string

const (
	RoleImage      Role = "image"
	RoleStylesheet Role = "stylesheet"
	RoleFont       Role = "font"
)

// Mode records how a Result was delivered.
type Mode string

const (
	ModeFilesystem Mode = "filesystem"
	ModeStream     Mode = "stream"
)

// Output is one generated file.
type Output struct {
	Role Role
	// Path is the destination relative to the working directory (slash separated).
	Path string
	// StreamPath is the file name attached in stream mode.
	StreamPath string
	Data       []byte
}

// Artifact is everything one sub-build of a sheet produced.
type Artifact struct {
	BuildID string
	Sheet   string
	Kind    Kind
	// ImageName is reported as imgFilename in stream mode.
	ImageName string
	Outputs   []Output
	Started   time.Time
}

// Stylesheet returns the stylesheet output, if any.
func (a Artifact) Stylesheet() (Output, bool) {
	return a.first(RoleStylesheet)
}

// Image returns the atlas output, if any.
func (a Artifact) Image() (Output, bool) {
	return a.first(RoleImage)
}

func (a Artifact) first(role Role) (Output, bool) {
	for _, o := range a.Outputs {
		if o.Role == role {
			return o, true
		}
	}
	return Output{}, false
}

// Size returns the summed size of all outputs.
func (a Artifact) Size() int {
	n := 0
	for _, o := range a.Outputs {
		n += len(o.Data)
	}
	return n
}

// Fonts returns the font outputs in artifact order.
func (a Artifact) Fonts() []Output {
	var out []Output
	for _, o := range a.Outputs {
		if o.Role == RoleFont {
			out = append(out, o)
		}
	}
	return out
}

// Result is the delivery confirmation for one artifact.
type Result struct {
	Mode  Mode
	Sheet string
	Kind  Kind
	// Written holds absolute paths in filesystem mode.
	Written []string
	// Stream is set in stream mode.
	Stream *StreamResult
	// Bytes is the total size of the delivered outputs.
	Bytes int
}

// Sink is where generated bytes go.
type Sink interface {
	Deliver(ctx context.Context, artifact Artifact) (*Result, error)
	Mode() Mode
}
