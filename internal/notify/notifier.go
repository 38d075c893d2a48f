// Package notify broadcasts shared-state changes to listeners in the current
// context and bridges changes made by other contexts into the same stream.
package notify

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/nibzard/tasktrack-go/internal/logging"
	"github.com/nibzard/tasktrack-go/internal/storage"
)

// AllKeys subscribes a listener to every key.
const AllKeys = ""

// Listener receives shared-state changes. A nil value means the key was removed.
type Listener interface {
	OnSharedStateChanged(key string, value json.RawMessage)
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(key string, value json.RawMessage)

// OnSharedStateChanged calls f(key, value).
func (f ListenerFunc) OnSharedStateChanged(key string, value json.RawMessage) {
	f(key, value)
}

type subscription struct {
	id       uint64
	key      string
	listener Listener
}

// Notifier fans out key changes to subscribed listeners.
// It is safe for concurrent use.
type Notifier struct {
	mu     sync.Mutex
	nextID uint64
	subs   []subscription
	logger *log.Logger
}

// New creates a Notifier. A nil logger discards output.
func New(logger *log.Logger) *Notifier {
	return &Notifier{logger: logging.OrDiscard(logger)}
}

// Subscribe registers l for key (or AllKeys). The returned func removes the
// subscription and is safe to call more than once.
func (n *Notifier) Subscribe(key string, l Listener) (cancel func()) {
	n.mu.Lock()
	n.nextID++
	id := n.nextID
	n.subs = append(n.subs, subscription{id: id, key: key, listener: l})
	n.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			n.mu.Lock()
			defer n.mu.Unlock()
			for i, s := range n.subs {
				if s.id == id {
					n.subs = append(n.subs[:i], n.subs[i+1:]...)
					return
				}
			}
		})
	}
}

// Publish delivers value to every listener of key, in subscription order.
// Listeners run on the caller's goroutine without the notifier lock held,
// so they may subscribe or publish themselves.
func (n *Notifier) Publish(key string, value json.RawMessage) {
	n.mu.Lock()
	targets := make([]Listener, 0, len(n.subs))
	for _, s := range n.subs {
		if s.key == AllKeys || s.key == key {
			targets = append(targets, s.listener)
		}
	}
	n.mu.Unlock()

	n.logger.Debug("shared state changed", "key", key, "listeners", len(targets))
	for _, l := range targets {
		l.OnSharedStateChanged(key, value)
	}
}

// subscribers reports the number of active subscriptions.
func (n *Notifier) subscribers() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.subs)
}

// Bridge forwards changes reported by w into n until ctx is done or the
// watch channel closes. Stores do not report their own writes, so only
// changes made by other contexts arrive here.
func Bridge(ctx context.Context, w storage.Watcher, n *Notifier) error {
	changes, err := w.Watch(ctx)
	if err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case c, ok := <-changes:
			if !ok {
				return ctx.Err()
			}
			var value json.RawMessage
			if !c.Removed {
				value = json.RawMessage(c.Value)
			}
			n.Publish(c.Key, value)
		}
	}
}
