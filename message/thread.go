// Package message keeps the shopper's direct-message threads in the store:
// history on open, live pushes while open, and sending.
package message

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/SoulMinT05/mtshop-frontend/models"
	"github.com/SoulMinT05/mtshop-frontend/push"
	"github.com/SoulMinT05/mtshop-frontend/store"
	"go.uber.org/zap"
)

var (
	ErrEmptyMessage       = errors.New("message body is empty")
	ErrThreadClosed       = errors.New("thread closed")
	ErrHistoryUnavailable = errors.New("message history unavailable")
)

// HistoryMode decides how fetched history meets messages already pushed.
type HistoryMode int

const (
	// HistoryMerge unions history with pushed messages by id.
	HistoryMerge HistoryMode = iota
	// HistoryReplace overwrites the thread with the fetched history. A
	// message pushed before the fetch resolves is lost until the next open.
	HistoryReplace
)

func ParseHistoryMode(s string) (HistoryMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "merge":
		return HistoryMerge, nil
	case "replace":
		return HistoryReplace, nil
	default:
		return HistoryMerge, fmt.Errorf("unknown history mode %q", s)
	}
}

func (m HistoryMode) String() string {
	if m == HistoryReplace {
		return "replace"
	}
	return "merge"
}

// Backend is the part of the REST API a thread talks to.
type Backend interface {
	GetMessagesForUser(ctx context.Context, counterpartID string) ([]models.Message, error)
	SendMessage(ctx context.Context, counterpartID, body string) (models.Message, error)
}

type Deps struct {
	Backend Backend
	Push    push.Channel
	Store   *store.Store
	Logger  *zap.Logger
	Mode    HistoryMode
}

// Thread is the open conversation with one counterpart.
type Thread struct {
	counterpartID string
	backend       Backend
	push          push.Channel
	store         *store.Store
	logger        *zap.Logger
	mode          HistoryMode

	mu       sync.Mutex
	sub      push.Subscription
	opened   bool
	released bool
	closed   chan struct{}
	release  sync.Once
}

func NewThread(counterpartID string, d Deps) *Thread {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Thread{
		counterpartID: counterpartID,
		backend:       d.Backend,
		push:          d.Push,
		store:         d.Store,
		logger:        logger.With(zap.String("counterpart_id", counterpartID)),
		mode:          d.Mode,
		closed:        make(chan struct{}),
	}
}

func (t *Thread) CounterpartID() string { return t.counterpartID }

// Open subscribes to new messages, then loads the history. The subscription
// lives until Close or until ctx ends. A failed history fetch is returned but
// leaves the thread open and receiving.
func (t *Thread) Open(ctx context.Context) error {
	t.mu.Lock()
	if t.released {
		t.mu.Unlock()
		return ErrThreadClosed
	}
	if t.opened {
		t.mu.Unlock()
		return nil
	}

	sub, err := t.push.Subscribe(ctx, push.EventNewMessage, t.onPush)
	if err != nil {
		t.mu.Unlock()
		return fmt.Errorf("subscribe to %s: %w", push.EventNewMessage, err)
	}
	t.sub = sub
	t.opened = true
	t.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
			t.Close()
		case <-t.closed:
		}
	}()

	history, err := t.backend.GetMessagesForUser(ctx, t.counterpartID)
	if err != nil {
		t.logger.Warn("message history fetch failed", zap.Error(err))
		return fmt.Errorf("%w: %w", ErrHistoryUnavailable, err)
	}

	switch t.mode {
	case HistoryReplace:
		t.store.ReplaceThread(t.counterpartID, history)
	default:
		t.store.MergeThread(t.counterpartID, history...)
	}
	t.logger.Debug("message history loaded", zap.Int("count", len(history)), zap.Stringer("mode", t.mode))
	return nil
}

func (t *Thread) onPush(data json.RawMessage) {
	var msg models.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		t.logger.Warn("dropping undecodable push message", zap.Error(err))
		return
	}
	// The storefront page appended every newMessage payload to whichever
	// thread was on screen. Here a message only lands in its own thread.
	if !msg.Involves(t.counterpartID) {
		return
	}

	switch t.mode {
	case HistoryReplace:
		t.store.AppendMessage(t.counterpartID, msg)
	default:
		t.store.MergeThread(t.counterpartID, msg)
	}
}

// Send posts body to the counterpart and adds the stored message to the
// thread.
func (t *Thread) Send(ctx context.Context, body string) (models.Message, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return models.Message{}, ErrEmptyMessage
	}

	msg, err := t.backend.SendMessage(ctx, t.counterpartID, body)
	if err != nil {
		t.logger.Warn("send message failed", zap.Error(err))
		return models.Message{}, fmt.Errorf("send message: %w", err)
	}
	t.store.MergeThread(t.counterpartID, msg)
	return msg, nil
}

func (t *Thread) Messages() []models.Message {
	return t.store.Thread(t.counterpartID)
}

// Done is closed once the thread has released its subscription.
func (t *Thread) Done() <-chan struct{} {
	return t.closed
}

// Close releases the push subscription. It is safe to call more than once.
func (t *Thread) Close() {
	t.release.Do(func() {
		t.mu.Lock()
		sub := t.sub
		t.sub = nil
		t.released = true
		t.mu.Unlock()

		if sub != nil {
			if err := sub.Close(); err != nil {
				t.logger.Warn("push subscription release failed", zap.Error(err))
			}
			t.logger.Debug("thread closed")
		}
		close(t.closed)
	})
}
