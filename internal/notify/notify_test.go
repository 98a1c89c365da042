package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/spritegen/internal/events"
	"git.home.luguber.info/inful/spritegen/internal/sink"
)

type message struct {
	subject string
	data    []byte
}

type recordingPublisher struct {
	mu   sync.Mutex
	msgs []message
	fail bool
}

func (p *recordingPublisher) Publish(subject string, data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return fmt.Errorf("nats unavailable")
	}
	p.msgs = append(p.msgs, message{subject: subject, data: data})
	return nil
}

func (p *recordingPublisher) snapshot() []message {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]message(nil), p.msgs...)
}

func startForwarder(t *testing.T, pub Publisher, sheets ...string) (*events.Bus, context.CancelFunc, <-chan error) {
	t.Helper()
	bus := events.NewBus()
	f := NewForwarder(bus, pub, "", sheets...)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		f.Close()
		bus.Close()
	})
	return bus, cancel, done
}

func TestForwardsStreamUpdates(t *testing.T) {
	pub := &recordingPublisher{}
	bus, _, _ := startForwarder(t, pub)

	s := sink.NewStreamSink(bus)
	_, err := s.Deliver(context.Background(), sink.Artifact{
		BuildID:   "b1",
		Sheet:     "icons",
		Kind:      sink.KindSprite,
		ImageName: "img/icons-sprite.png",
		Outputs: []sink.Output{
			{Role: sink.RoleImage, StreamPath: "img/icons-sprite.png", Data: []byte("png")},
			{Role: sink.RoleStylesheet, StreamPath: "_icons.css", Data: []byte("css")},
		},
	})
	require.NoError(t, err)

	require.Eventually(t, func() bool { return len(pub.snapshot()) == 1 }, time.Second, 5*time.Millisecond)
	msg := pub.snapshot()[0]
	assert.Equal(t, "spritegen.update", msg.subject)

	var got UpdateMessage
	require.NoError(t, json.Unmarshal(msg.data, &got))
	assert.Equal(t, "b1", got.BuildID)
	assert.Equal(t, "icons", got.Sheet)
	assert.Equal(t, "sprite", got.Kind)
	assert.Equal(t, "_icons.css", got.CSSFilename)
	require.Len(t, got.Files, 2)
	assert.Equal(t, "img/icons-sprite.png", got.Files[0].Path)
	assert.Equal(t, 3, got.Files[0].Size)
	assert.Len(t, got.Files[0].SHA256, 64)
	assert.Equal(t, "_icons.css", got.Files[1].Path)
}

func TestForwardsLifecycleEvents(t *testing.T) {
	pub := &recordingPublisher{}
	bus, _, _ := startForwarder(t, pub)
	ctx := context.Background()

	require.NoError(t, bus.Publish(ctx, events.SheetStarted{BuildID: "b2", Sheet: "logos", Trigger: "watch"}))
	require.NoError(t, bus.Publish(ctx, events.SheetFailed{BuildID: "b2", Sheet: "logos", Kind: "sprite", Err: fmt.Errorf("boom")}))

	require.Eventually(t, func() bool { return len(pub.snapshot()) == 2 }, time.Second, 5*time.Millisecond)
	msgs := pub.snapshot()
	assert.Equal(t, "spritegen.update.started", msgs[0].subject)
	assert.Equal(t, "spritegen.update.failed", msgs[1].subject)

	var failed LifecycleMessage
	require.NoError(t, json.Unmarshal(msgs[1].data, &failed))
	assert.Equal(t, "boom", failed.Error)
	assert.Equal(t, "sprite", failed.Kind)
	assert.Equal(t, "logos", failed.Sheet)
}

func TestPublishFailureKeepsForwarding(t *testing.T) {
	pub := &recordingPublisher{fail: true}
	bus, _, _ := startForwarder(t, pub)
	ctx := context.Background()

	require.NoError(t, bus.Publish(ctx, events.SheetStarted{Sheet: "a"}))
	pub.mu.Lock()
	pub.fail = false
	pub.mu.Unlock()
	require.NoError(t, bus.Publish(ctx, events.SheetStarted{Sheet: "b"}))

	require.Eventually(t, func() bool {
		for _, m := range pub.snapshot() {
			var msg LifecycleMessage
			if json.Unmarshal(m.data, &msg) == nil && msg.Sheet == "b" {
				return true
			}
		}
		return false
	}, time.Second, 5*time.Millisecond)
}

func TestRunStopsWhenContextIsCanceled(t *testing.T) {
	_, cancel, done := startForwarder(t, &recordingPublisher{})
	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("forwarder did not stop")
	}
}

func TestForwardsOnlySelectedSheets(t *testing.T) {
	pub := &recordingPublisher{}
	bus, _, _ := startForwarder(t, pub, "icons")
	ctx := context.Background()

	require.NoError(t, bus.Publish(ctx, events.SheetStarted{Sheet: "logos"}))
	require.NoError(t, bus.Publish(ctx, sink.Update{Sheet: "logos", Kind: sink.KindSprite}))
	require.NoError(t, bus.Publish(ctx, events.SheetStarted{Sheet: "icons"}))
	require.NoError(t, bus.Publish(ctx, sink.Update{Sheet: "icons", Kind: sink.KindSprite}))

	require.Eventually(t, func() bool { return len(pub.snapshot()) == 2 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	msgs := pub.snapshot()
	require.Len(t, msgs, 2)
	for _, m := range msgs {
		var body struct {
			Sheet string `json:"sheet"`
		}
		require.NoError(t, json.Unmarshal(m.data, &body))
		assert.Equal(t, "icons", body.Sheet, m.subject)
	}
}
