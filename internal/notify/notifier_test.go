package notify

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nibzard/tasktrack-go/internal/storage"
)

type recorder struct {
	mu     sync.Mutex
	keys   []string
	values []string
}

func (r *recorder) OnSharedStateChanged(key string, value json.RawMessage) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.keys = append(r.keys, key)
	r.values = append(r.values, string(value))
}

func (r *recorder) snapshot() ([]string, []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.keys...), append([]string(nil), r.values...)
}

func TestPublishRoutesByKey(t *testing.T) {
	n := New(nil)
	var tasks, all recorder
	n.Subscribe(storage.KeyTasks, &tasks)
	n.Subscribe(AllKeys, &all)

	n.Publish(storage.KeyTasks, json.RawMessage(`[]`))
	n.Publish(storage.KeyDarkMode, json.RawMessage(`true`))

	keys, _ := tasks.snapshot()
	if len(keys) != 1 || keys[0] != storage.KeyTasks {
		t.Errorf("tasks listener got %v", keys)
	}
	keys, values := all.snapshot()
	if len(keys) != 2 || values[1] != "true" {
		t.Errorf("all-keys listener got %v %v", keys, values)
	}
}

func TestCancelStopsDelivery(t *testing.T) {
	n := New(nil)
	calls := 0
	cancel := n.Subscribe(storage.KeyDarkMode, ListenerFunc(func(string, json.RawMessage) { calls++ }))

	n.Publish(storage.KeyDarkMode, nil)
	cancel()
	cancel()
	n.Publish(storage.KeyDarkMode, nil)

	if calls != 1 {
		t.Errorf("calls: got %d, want 1", calls)
	}
	if got := n.subscribers(); got != 0 {
		t.Errorf("subscribers: got %d, want 0", got)
	}
}

func TestListenerMayPublish(t *testing.T) {
	n := New(nil)
	var got recorder
	n.Subscribe(storage.KeyAnalytics, &got)
	n.Subscribe(storage.KeyTasks, ListenerFunc(func(string, json.RawMessage) {
		n.Publish(storage.KeyAnalytics, json.RawMessage(`{}`))
	}))

	n.Publish(storage.KeyTasks, json.RawMessage(`[]`))

	keys, _ := got.snapshot()
	if len(keys) != 1 {
		t.Errorf("nested publish: got %v", keys)
	}
}

func TestBridgeForwardsOtherContexts(t *testing.T) {
	self := storage.NewMemoryStore()
	other := self.Sibling()
	n := New(nil)

	received := make(chan string, 64)
	n.Subscribe(AllKeys, ListenerFunc(func(key string, value json.RawMessage) {
		if value == nil {
			received <- key + "=<removed>"
			return
		}
		received <- key + "=" + string(value)
	}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Bridge(ctx, self, n) }()

	// Give the bridge a moment to register its watch.
	deadline := time.After(5 * time.Second)
	for {
		if err := other.Set(storage.KeyDarkMode, []byte(`true`)); err != nil {
			t.Fatal(err)
		}
		select {
		case got := <-received:
			if got != storage.KeyDarkMode+"=true" {
				t.Fatalf("got %q", got)
			}
		case <-time.After(20 * time.Millisecond):
			continue
		case <-deadline:
			t.Fatal("timed out waiting for bridged change")
		}
		break
	}

	if err := self.Set(storage.KeyTasks, []byte(`[]`)); err != nil {
		t.Fatal(err)
	}
	if err := other.Remove(storage.KeyDarkMode); err != nil {
		t.Fatal(err)
	}
	for removed := false; !removed; {
		select {
		case got := <-received:
			switch got {
			case storage.KeyDarkMode + "=<removed>":
				removed = true
			case storage.KeyDarkMode + "=true":
				// late delivery of a retried write above
			default:
				t.Fatalf("own write leaked or wrong change: %q", got)
			}
		case <-deadline:
			t.Fatal("timed out waiting for removal")
		}
	}

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Bridge returned %v", err)
	}
}
