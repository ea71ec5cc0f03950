// Package events is the in-process change feed. Services publish after every
// successful mutation; read-side caches subscribe instead of being
// invalidated by each call site.
package events

import "sync"

// Kind names what changed.
type Kind string

const (
	ProjectChanged  Kind = "project_changed"
	InstanceChanged Kind = "instance_changed"
	TemplateChanged Kind = "template_changed"
)

// Event identifies one changed record.
type Event struct {
	Kind Kind
	ID   string
}

// Bus fans events out to subscribers synchronously, in subscription order.
// A nil *Bus drops everything.
type Bus struct {
	mu   sync.RWMutex
	subs []func(Event)
}

// NewBus returns an empty bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers fn for every future event.
func (b *Bus) Subscribe(fn func(Event)) {
	if b == nil || fn == nil {
		return
	}
	b.mu.Lock()
	b.subs = append(b.subs, fn)
	b.mu.Unlock()
}

// Publish delivers e to every subscriber before returning, so reads issued
// after a mutation returns see fresh data.
func (b *Bus) Publish(e Event) {
	if b == nil {
		return
	}
	b.mu.RLock()
	subs := b.subs
	b.mu.RUnlock()
	for _, fn := range subs {
		fn(e)
	}
}
