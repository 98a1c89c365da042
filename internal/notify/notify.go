// Package notify forwards build updates and sheet lifecycle events to NATS.
package notify

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"git.home.luguber.info/inful/spritegen/internal/config"
	"git.home.luguber.info/inful/spritegen/internal/events"
	"git.home.luguber.info/inful/spritegen/internal/logfields"
	"git.home.luguber.info/inful/spritegen/internal/sink"
)

// Publisher is the subset of *nats.Conn the forwarder needs.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// FileInfo describes one streamed file without its contents.
type FileInfo struct {
	Path   string `json:"path"`
	Size   int    `json:"size"`
	SHA256 string `json:"sha256"`
}

// UpdateMessage is published on the configured subject for every stream update.
type UpdateMessage struct {
	BuildID     string     `json:"build_id"`
	Sheet       string     `json:"sheet"`
	Kind        string     `json:"kind"`
	ImgFilename string     `json:"img_filename,omitempty"`
	CSSFilename string     `json:"css_filename,omitempty"`
	TimeMS      float64    `json:"time_ms"`
	Files       []FileInfo `json:"files"`
}

// LifecycleMessage is published on <subject>.<event> for sheet lifecycle events.
type LifecycleMessage struct {
	Event      string    `json:"event"`
	BuildID    string    `json:"build_id,omitempty"`
	Sheet      string    `json:"sheet"`
	Trigger    string    `json:"trigger,omitempty"`
	Kind       string    `json:"kind,omitempty"`
	Files      []string  `json:"files,omitempty"`
	Error      string    `json:"error,omitempty"`
	Path       string    `json:"path,omitempty"`
	DurationMS float64   `json:"duration_ms,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// Forwarder relays bus events to a Publisher.
type Forwarder struct {
	pub       Publisher
	subject   string
	updates   <-chan sink.Update
	lifecycle <-chan events.SheetEvent
	unsub     []func()
	closeConn func()
	now       func() time.Time
}

// NewForwarder subscribes to bus immediately so no event published after the
// call is missed. With sheets set only those sheets are forwarded.
func NewForwarder(bus *events.Bus, pub Publisher, subject string, sheets ...string) *Forwarder {
	if subject == "" {
		subject = config.DefaultNotifySubject
	}
	only := events.ForSheets(sheets...)
	updates, unsubUpdates := events.Subscribe[sink.Update](bus, 16, only)
	lifecycle, unsubLifecycle := events.Subscribe[events.SheetEvent](bus, 16, only)
	return &Forwarder{
		pub:       pub,
		subject:   subject,
		updates:   updates,
		lifecycle: lifecycle,
		unsub:     []func(){unsubUpdates, unsubLifecycle},
		now:       time.Now,
	}
}

// Connect dials NATS and returns a forwarder owning the connection.
func Connect(bus *events.Bus, cfg config.NotifyConfig) (*Forwarder, error) {
	conn, err := nats.Connect(cfg.NATSURL,
		nats.Name("spritegen"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	f := NewForwarder(bus, conn, cfg.Subject, cfg.Sheets...)
	f.closeConn = func() {
		if err := conn.Drain(); err != nil {
			conn.Close()
		}
	}
	slog.Info("NATS notifications enabled", "url", cfg.NATSURL, logfields.Subject(f.subject))
	return f, nil
}

// Run forwards events until ctx is done or the bus is closed.
func (f *Forwarder) Run(ctx context.Context) error {
	updates, lifecycle := f.updates, f.lifecycle
	for updates != nil || lifecycle != nil {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case u, ok := <-updates:
			if !ok {
				updates = nil
				continue
			}
			f.publish(f.subject, f.updateMessage(u))
		case e, ok := <-lifecycle:
			if !ok {
				lifecycle = nil
				continue
			}
			msg, ok := f.lifecycleMessage(e)
			if !ok {
				continue
			}
			f.publish(f.subject+"."+msg.Event, msg)
		}
	}
	return nil
}

// Close unsubscribes from the bus and drains the NATS connection, if owned.
func (f *Forwarder) Close() {
	for _, u := range f.unsub {
		u()
	}
	if f.closeConn != nil {
		f.closeConn()
	}
}

func (f *Forwarder) publish(subject string, msg any) {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Warn("Failed to encode notification", logfields.Subject(subject), logfields.Error(err))
		return
	}
	if err := f.pub.Publish(subject, data); err != nil {
		slog.Warn("Failed to publish notification", logfields.Subject(subject), logfields.Error(err))
		return
	}
	slog.Debug("Published notification", logfields.Subject(subject))
}

func (f *Forwarder) updateMessage(u sink.Update) UpdateMessage {
	msg := UpdateMessage{BuildID: u.BuildID, Sheet: u.Sheet, Kind: string(u.Kind), Files: []FileInfo{}}
	if u.Result == nil {
		return msg
	}
	msg.ImgFilename = u.Result.ImgFilename
	msg.CSSFilename = u.Result.CSSFilename
	msg.TimeMS = float64(u.Result.Time.Microseconds()) / 1000
	for _, ch := range []<-chan sink.File{u.Result.Img, u.Result.Fonts, u.Result.CSS} {
		for _, file := range sink.Drain(ch) {
			sum := sha256.Sum256(file.Contents)
			msg.Files = append(msg.Files, FileInfo{Path: file.Path, Size: len(file.Contents), SHA256: hex.EncodeToString(sum[:])})
		}
	}
	return msg
}

func (f *Forwarder) lifecycleMessage(e events.SheetEvent) (LifecycleMessage, bool) {
	msg := LifecycleMessage{Sheet: e.SheetName(), Timestamp: f.now().UTC()}
	switch ev := e.(type) {
	case events.SheetStarted:
		msg.Event, msg.BuildID, msg.Trigger = "started", ev.BuildID, ev.Trigger
	case events.SheetCompleted:
		msg.Event, msg.BuildID, msg.Files = "completed", ev.BuildID, ev.Files
		msg.DurationMS = float64(ev.Duration.Microseconds()) / 1000
	case events.SheetFailed:
		msg.Event, msg.BuildID, msg.Kind = "failed", ev.BuildID, ev.Kind
		if ev.Err != nil {
			msg.Error = ev.Err.Error()
		}
		msg.DurationMS = float64(ev.Duration.Microseconds()) / 1000
	case events.RebuildTriggered:
		msg.Event, msg.Trigger, msg.Path = "rebuild", ev.Reason, ev.Path
	default:
		// sink.Update is a SheetEvent too; it goes out on the updates path.
		return msg, false
	}
	return msg, true
}
