// Package events provides the typed in-process bus used for build notifications.
package events

import (
	"context"
	"reflect"
	"slices"
	"sync"

	ferrors "git.home.luguber.info/inful/spritegen/internal/foundation/errors"
)

// Bus fans build events out to typed subscribers.
//
// Publish blocks until every matching subscriber accepted the event or ctx is
// canceled, so a slow consumer slows the sheet that produced the event and
// nothing else. Nothing is durable.
type Bus struct {
	mu     sync.RWMutex
	topics map[reflect.Type][]*subscription
	closed bool
}

func NewBus() *Bus {
	return &Bus{topics: make(map[reflect.Type][]*subscription)}
}

// SubscribeOption narrows what a subscription receives.
type SubscribeOption func(*filter)

// ForSheets limits delivery to SheetEvents of the named sheets. Events that
// carry no sheet are dropped for such a subscription.
func ForSheets(names ...string) SubscribeOption {
	return func(f *filter) {
		for _, n := range names {
			if f.sheets == nil {
				f.sheets = make(map[string]bool, len(names))
			}
			f.sheets[n] = true
		}
	}
}

type filter struct {
	sheets map[string]bool
}

func (f filter) wants(evt any) bool {
	if f.sheets == nil {
		return true
	}
	se, ok := evt.(SheetEvent)
	return ok && f.sheets[se.SheetName()]
}

type subscription struct {
	typ     reflect.Type
	filter  filter
	deliver func(ctx context.Context, evt any) error

	// mu keeps closeCh from running while a send is in flight; done
	// releases that send first.
	mu      sync.RWMutex
	closed  bool
	done    chan struct{}
	once    sync.Once
	closeCh func()
}

func (s *subscription) shutdown() {
	s.once.Do(func() {
		close(s.done)
		s.mu.Lock()
		s.closed = true
		s.closeCh()
		s.mu.Unlock()
	})
}

// Subscribe registers a subscription for events of type T and returns the
// receive channel plus an unsubscribe func that closes it.
//
// If T is an interface, published events whose concrete type implements T
// are delivered. For concrete T the types must match exactly. Subscribing to
// a nil or closed bus yields an already closed channel.
func Subscribe[T any](b *Bus, buffer int, opts ...SubscribeOption) (<-chan T, func()) {
	ch := make(chan T, buffer)
	s := &subscription{
		typ:     reflect.TypeFor[T](),
		done:    make(chan struct{}),
		closeCh: func() { close(ch) },
	}
	for _, opt := range opts {
		opt(&s.filter)
	}
	s.deliver = func(ctx context.Context, evt any) error {
		v, ok := evt.(T)
		if !ok {
			return ferrors.InternalError("event type mismatch").
				WithContext("expected", s.typ.String()).
				WithContext("actual", reflect.TypeOf(evt).String()).
				Build()
		}
		s.mu.RLock()
		defer s.mu.RUnlock()
		if s.closed {
			return nil
		}
		select {
		case ch <- v:
			return nil
		case <-s.done:
			return nil
		case <-ctx.Done():
			return ferrors.WrapError(ctx.Err(), ferrors.CategoryRuntime, "event publish canceled").
				WithContext("event_type", s.typ.String()).
				Build()
		}
	}

	if b == nil || !b.add(s) {
		s.shutdown()
		return ch, func() {}
	}
	return ch, func() {
		b.remove(s)
		s.shutdown()
	}
}

func (b *Bus) add(s *subscription) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return false
	}
	b.topics[s.typ] = append(b.topics[s.typ], s)
	return true
}

func (b *Bus) remove(s *subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	subs := b.topics[s.typ]
	if i := slices.Index(subs, s); i >= 0 {
		subs = slices.Delete(subs, i, i+1)
	}
	if len(subs) == 0 {
		delete(b.topics, s.typ)
		return
	}
	b.topics[s.typ] = subs
}

// SubscriberCount returns the number of active subscribers for events of type T.
func SubscriberCount[T any](b *Bus) int {
	if b == nil {
		return 0
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.topics[reflect.TypeFor[T]()])
}

// Publish delivers evt to every matching subscriber. A nil Bus drops events.
func (b *Bus) Publish(ctx context.Context, evt any) error {
	if b == nil {
		return nil
	}
	if evt == nil {
		return ferrors.ValidationError("event cannot be nil").Build()
	}
	targets, err := b.targets(reflect.TypeOf(evt))
	if err != nil {
		return err
	}
	for _, s := range targets {
		if !s.filter.wants(evt) {
			continue
		}
		if err := s.deliver(ctx, evt); err != nil {
			return err
		}
	}
	return nil
}

func (b *Bus) targets(evtType reflect.Type) ([]*subscription, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return nil, ferrors.NewError(ferrors.CategoryRuntime, "event bus is closed").Build()
	}
	var out []*subscription
	for typ, subs := range b.topics {
		if typ == evtType || (typ.Kind() == reflect.Interface && evtType.Implements(typ)) {
			out = append(out, subs...)
		}
	}
	return out, nil
}

// Close closes the bus and all subscription channels.
func (b *Bus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	var all []*subscription
	for _, subs := range b.topics {
		all = append(all, subs...)
	}
	b.topics = make(map[reflect.Type][]*subscription)
	b.mu.Unlock()

	for _, s := range all {
		s.shutdown()
	}
}
