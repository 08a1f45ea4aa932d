package message

import (
	"context"
	"errors"
	"sync"
)

// Inbox holds the threads the shopper currently has open, at most one per
// counterpart. Every thread ends when the inbox context does.
type Inbox struct {
	ctx  context.Context
	deps Deps

	mu      sync.Mutex
	threads map[string]*entry
}

// entry is a thread in the inbox. ready is closed once Open has returned;
// err is only read after that.
type entry struct {
	thread *Thread
	ready  chan struct{}
	err    error
}

func (e *entry) opened() bool {
	select {
	case <-e.ready:
		return true
	default:
		return false
	}
}

func NewInbox(ctx context.Context, d Deps) *Inbox {
	return &Inbox{
		ctx:     ctx,
		deps:    d,
		threads: make(map[string]*entry),
	}
}

// Open returns the open thread with counterpartID, opening it first if
// needed. When only the history fetch fails the thread is kept and returned
// together with the error. Callers racing to open the same counterpart share
// one subscription and one history fetch.
func (i *Inbox) Open(counterpartID string) (*Thread, error) {
	i.mu.Lock()
	if e, ok := i.live(counterpartID); ok {
		i.mu.Unlock()
		<-e.ready
		return e.result()
	}
	e := &entry{thread: NewThread(counterpartID, i.deps), ready: make(chan struct{})}
	i.threads[counterpartID] = e
	i.mu.Unlock()

	err := e.thread.Open(i.ctx)
	if err != nil && !errors.Is(err, ErrHistoryUnavailable) {
		e.thread.Close()
		i.mu.Lock()
		if i.threads[counterpartID] == e {
			delete(i.threads, counterpartID)
		}
		i.mu.Unlock()
	}
	e.err = err
	close(e.ready)
	return e.result()
}

func (e *entry) result() (*Thread, error) {
	if e.err != nil && !errors.Is(e.err, ErrHistoryUnavailable) {
		return nil, e.err
	}
	return e.thread, e.err
}

// Get returns the thread with counterpartID once it has finished opening.
func (i *Inbox) Get(counterpartID string) (*Thread, bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	e, ok := i.live(counterpartID)
	if !ok || !e.opened() {
		return nil, false
	}
	return e.thread, true
}

// Close releases the thread and forgets its messages. It reports whether the
// thread was open or opening.
func (i *Inbox) Close(counterpartID string) bool {
	i.mu.Lock()
	e, ok := i.live(counterpartID)
	delete(i.threads, counterpartID)
	i.mu.Unlock()

	if !ok {
		return false
	}
	e.thread.Close()
	i.deps.Store.DropThread(counterpartID)
	return true
}

func (i *Inbox) CloseAll() {
	i.mu.Lock()
	threads := i.threads
	i.threads = make(map[string]*entry)
	i.mu.Unlock()

	for id, e := range threads {
		e.thread.Close()
		i.deps.Store.DropThread(id)
	}
}

// live must be called with i.mu held. Threads whose context ended are
// pruned.
func (i *Inbox) live(counterpartID string) (*entry, bool) {
	e, ok := i.threads[counterpartID]
	if !ok {
		return nil, false
	}
	select {
	case <-e.thread.Done():
		delete(i.threads, counterpartID)
		return nil, false
	default:
		return e, true
	}
}
