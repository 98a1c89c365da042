package sink

import (
	"context"
	"time"

	"git.home.luguber.info/inful/spritegen/internal/events"
	"git.home.luguber.info/inful/spritegen/internal/foundation/errors"
)

// File is one streamed artifact with its attached name.
type File struct {
	Path     string
	Contents []byte
}

// StreamResult carries finite, already-closed streams. Each channel yields its
// items once and is then drained; it cannot be restarted.
type StreamResult struct {
	ImgFilename string
	CSSFilename string
	Img         <-chan File
	CSS         <-chan File
	Fonts       <-chan File
	Time        time.Duration

	files map[Role][]File
}

// Clone returns a result with fresh streams over the same bytes.
func (r *StreamResult) Clone() *StreamResult {
	if r == nil {
		return nil
	}
	out := &StreamResult{ImgFilename: r.ImgFilename, CSSFilename: r.CSSFilename, Time: r.Time, files: r.files}
	out.Img = closedStream(r.files[RoleImage])
	out.CSS = closedStream(r.files[RoleStylesheet])
	out.Fonts = closedStream(r.files[RoleFont])
	return out
}

func closedStream(files []File) <-chan File {
	ch := make(chan File, len(files))
	for _, f := range files {
		ch <- f
	}
	close(ch)
	return ch
}

// Drain reads every remaining item of a stream.
func Drain(ch <-chan File) []File {
	if ch == nil {
		return nil
	}
	var out []File
	for f := range ch {
		out = append(out, f)
	}
	return out
}

// Update is published on the bus for every streamed artifact before Deliver
// returns. Its streams are independent of the ones in the returned Result.
type Update struct {
	BuildID string
	Sheet   string
	Kind    Kind
	Result  *StreamResult
}

func (u Update) SheetName() string { return u.Sheet }

// StreamSink keeps artifacts in memory and announces them on a bus.
type StreamSink struct {
	bus *events.Bus
	now func() time.Time
}

// NewStreamSink returns a stream sink; bus may be nil.
func NewStreamSink(bus *events.Bus) *StreamSink {
	return &StreamSink{bus: bus, now: time.Now}
}

func (s *StreamSink) Mode() Mode { return ModeStream }

func (s *StreamSink) Deliver(ctx context.Context, artifact Artifact) (*Result, error) {
	files := make(map[Role][]File, 3)
	for _, out := range artifact.Outputs {
		name := out.StreamPath
		if name == "" {
			name = out.Path
		}
		files[out.Role] = append(files[out.Role], File{Path: name, Contents: out.Data})
	}

	sr := &StreamResult{ImgFilename: artifact.ImageName, files: files}
	if css, ok := artifact.Stylesheet(); ok {
		sr.CSSFilename = css.StreamPath
	}
	if !artifact.Started.IsZero() {
		sr.Time = s.now().Sub(artifact.Started)
	}
	sr.Img = closedStream(files[RoleImage])
	sr.CSS = closedStream(files[RoleStylesheet])
	sr.Fonts = closedStream(files[RoleFont])

	update := Update{BuildID: artifact.BuildID, Sheet: artifact.Sheet, Kind: artifact.Kind, Result: sr.Clone()}
	if err := s.bus.Publish(ctx, update); err != nil {
		return nil, errors.WrapError(err, errors.CategoryWrite, "failed to publish update").
			ForSheet(artifact.Sheet).Build()
	}
	return &Result{Mode: ModeStream, Sheet: artifact.Sheet, Kind: artifact.Kind, Stream: sr, Bytes: artifact.Size()}, nil
}
