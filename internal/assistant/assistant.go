// Package assistant is the canned-response productivity chat. Replies come
// from fixed tables keyed by a keyword intent; nothing is inferred.
package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/nibzard/tasktrack-go/internal/clock"
	"github.com/nibzard/tasktrack-go/internal/logging"
	"github.com/nibzard/tasktrack-go/internal/notify"
	"github.com/nibzard/tasktrack-go/internal/prefs"
	"github.com/nibzard/tasktrack-go/internal/storage"
)

// DefaultDelay is the typing pause before a reply.
const DefaultDelay = 1500 * time.Millisecond

// MaxHistory bounds the persisted chat history.
const MaxHistory = 200

// Message senders.
const (
	SenderUser = "user"
	SenderAI   = "ai"
)

var (
	// ErrEmptyMessage is returned by Ask for blank input.
	ErrEmptyMessage = errors.New("message is empty")
	// ErrUnknownAction is returned for unrecognized quick actions and suggestions.
	ErrUnknownAction = errors.New("unknown assistant action")
)

// Message is one chat history entry.
type Message struct {
	Message   string    `json:"message"`
	Sender    string    `json:"sender"`
	Timestamp time.Time `json:"timestamp"`
}

// Options configures an Assistant.
type Options struct {
	Store    storage.Store
	Clock    clock.Clock
	Prefs    *prefs.Prefs
	Notifier *notify.Notifier
	Logger   *log.Logger
	// Delay is the pause before each reply. Zero replies immediately.
	Delay time.Duration
}

// Assistant answers chat messages and keeps the history.
type Assistant struct {
	store    storage.Store
	clock    clock.Clock
	prefs    *prefs.Prefs
	notifier *notify.Notifier
	logger   *log.Logger
	delay    time.Duration

	mu sync.Mutex
}

// New creates an Assistant.
func New(opts Options) *Assistant {
	clk := opts.Clock
	if clk == nil {
		clk = clock.System{}
	}
	p := opts.Prefs
	if p == nil {
		p = prefs.New(opts.Store, opts.Notifier, opts.Logger)
	}
	return &Assistant{
		store:    opts.Store,
		clock:    clk,
		prefs:    p,
		notifier: opts.Notifier,
		logger:   logging.OrDiscard(opts.Logger),
		delay:    opts.Delay,
	}
}

// Ask records message, waits the configured delay and returns the reply.
// Cancelling ctx during the delay returns ctx.Err() with only the user
// message recorded.
func (a *Assistant) Ask(ctx context.Context, message string) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", ErrEmptyMessage
	}
	a.record(message, SenderUser)
	if err := a.wait(ctx); err != nil {
		return "", err
	}
	reply := Respond(message)
	a.record(reply, SenderAI)
	return reply, nil
}

// QuickAction runs a named quick action and returns the messages it added.
func (a *Assistant) QuickAction(ctx context.Context, action string) ([]string, error) {
	if action == QuickTips {
		tip := Suggestions(1, a.clock.Now().YearDay())[0]
		a.record(tip, SenderAI)
		return []string{tip}, nil
	}
	msgs, ok := quickActions[action]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}
	a.record(msgs[0], SenderAI)
	if err := a.wait(ctx); err != nil {
		return msgs[:1], err
	}
	a.record(msgs[1], SenderAI)
	return msgs[:], nil
}

// ApplySuggestion acknowledges one of the suggestion cards.
func (a *Assistant) ApplySuggestion(kind string) (string, error) {
	reply, ok := suggestionReplies[kind]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownAction, kind)
	}
	a.record(reply, SenderAI)
	return reply, nil
}

// SetAutomation persists an automation toggle. Enabling one adds and returns
// an activation message; disabling returns "".
func (a *Assistant) SetAutomation(id string, enabled bool) (string, error) {
	if err := a.prefs.SetAutomation(id, enabled); err != nil {
		return "", err
	}
	if !enabled {
		return "", nil
	}
	msg := activationMessage(prefs.AutomationName(id))
	a.record(msg, SenderAI)
	return msg, nil
}

// History returns the persisted chat, oldest first.
func (a *Assistant) History() []Message {
	var history []Message
	err := storage.GetJSON(a.store, storage.KeyChatHistory, &history)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		a.logger.Warn("chat history unreadable", "err", err)
		return nil
	}
	return history
}

// ClearHistory removes the persisted chat.
func (a *Assistant) ClearHistory() error {
	if err := a.store.Remove(storage.KeyChatHistory); err != nil {
		return fmt.Errorf("clear chat history: %w", err)
	}
	if a.notifier != nil {
		a.notifier.Publish(storage.KeyChatHistory, nil)
	}
	return nil
}

func (a *Assistant) record(text, sender string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	history := append(a.History(), Message{Message: text, Sender: sender, Timestamp: a.clock.Now()})
	if len(history) > MaxHistory {
		history = history[len(history)-MaxHistory:]
	}
	data, err := json.Marshal(history)
	if err != nil {
		a.logger.Warn("encode chat history", "err", err)
		return
	}
	if err := a.store.Set(storage.KeyChatHistory, data); err != nil {
		a.logger.Warn("save chat history", "err", err)
		return
	}
	if a.notifier != nil {
		a.notifier.Publish(storage.KeyChatHistory, data)
	}
}

func (a *Assistant) wait(ctx context.Context) error {
	if a.delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(a.delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
