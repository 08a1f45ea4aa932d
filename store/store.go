// Package store holds the session's server-confirmed cart and message state.
//
// A Store is the only shared mutable state in the process. Mutations are
// applied one at a time and listeners are called, in mutation order, with a
// snapshot taken right after each mutation. Listeners may read the store but
// must not mutate it.
package store

import (
	"slices"
	"sort"
	"sync"

	"github.com/SoulMinT05/mtshop-frontend/models"
)

type CartListener func(lines []models.CartItem)

type ThreadListener func(counterpartID string, msgs []models.Message)

type Store struct {
	// emit serializes mutation+notification so listeners see changes in order.
	emit sync.Mutex
	mu   sync.RWMutex

	lines   []models.CartItem
	threads map[string][]models.Message

	nextListenerID  int
	cartListeners   map[int]CartListener
	threadListeners map[int]ThreadListener
}

func New() *Store {
	return &Store{
		threads:         make(map[string][]models.Message),
		cartListeners:   make(map[int]CartListener),
		threadListeners: make(map[int]ThreadListener),
	}
}

// OnCartChange registers fn and returns a func that unregisters it.
func (s *Store) OnCartChange(fn CartListener) func() {
	s.mu.Lock()
	id := s.nextListenerID
	s.nextListenerID++
	s.cartListeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.cartListeners, id)
		s.mu.Unlock()
	}
}

// OnThreadChange registers fn and returns a func that unregisters it.
func (s *Store) OnThreadChange(fn ThreadListener) func() {
	s.mu.Lock()
	id := s.nextListenerID
	s.nextListenerID++
	s.threadListeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.threadListeners, id)
		s.mu.Unlock()
	}
}

// Cart returns a copy of the cart lines in store order.
func (s *Store) Cart() []models.CartItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.lines)
}

func (s *Store) Line(key models.LineKey) (models.CartItem, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexOf(key); i >= 0 {
		return s.lines[i], true
	}
	return models.CartItem{}, false
}

func (s *Store) LineByEntry(cartEntryID string) (models.CartItem, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexOfEntry(cartEntryID); i >= 0 {
		return s.lines[i], true
	}
	return models.CartItem{}, false
}

// ReplaceCart swaps the whole cart. Lines sharing a key collapse to the last one.
func (s *Store) ReplaceCart(items []models.CartItem) {
	s.mutateCart(func() {
		lines := make([]models.CartItem, 0, len(items))
		seen := make(map[models.LineKey]int, len(items))
		for _, it := range items {
			if i, ok := seen[it.Key()]; ok {
				lines[i] = it
				continue
			}
			seen[it.Key()] = len(lines)
			lines = append(lines, it)
		}
		s.lines = lines
	})
}

// UpsertLine sets the quantity of the line at item's key, or appends item
// when no such line exists.
func (s *Store) UpsertLine(item models.CartItem) {
	s.mutateCart(func() {
		if i := s.indexOf(item.Key()); i >= 0 {
			cur := &s.lines[i]
			cur.Quantity = item.Quantity
			if item.CartEntryID != "" {
				cur.CartEntryID = item.CartEntryID
			}
			return
		}
		s.lines = append(s.lines, item)
	})
}

// DecrementLine lowers the line's quantity by one, dropping it at zero.
func (s *Store) DecrementLine(key models.LineKey) error {
	return s.mutateCartErr(func() error {
		i := s.indexOf(key)
		if i < 0 {
			return models.ErrLineNotFound
		}
		s.lines[i].Quantity--
		if s.lines[i].Quantity <= 0 {
			s.lines = slices.Delete(s.lines, i, i+1)
		}
		return nil
	})
}

func (s *Store) RemoveLine(cartEntryID string) error {
	return s.mutateCartErr(func() error {
		i := s.indexOfEntry(cartEntryID)
		if i < 0 {
			return models.ErrLineNotFound
		}
		s.lines = slices.Delete(s.lines, i, i+1)
		return nil
	})
}

// RekeyLine moves a line from oldSize to newSize. When a line already sits at
// the new key the two are merged and their quantities summed.
func (s *Store) RekeyLine(productID, oldSize, newSize string) error {
	return s.mutateCartErr(func() error {
		from := s.indexOf(models.LineKey{ProductID: productID, Size: oldSize})
		if from < 0 {
			return models.ErrLineNotFound
		}
		if oldSize == newSize {
			return nil
		}

		to := s.indexOf(models.LineKey{ProductID: productID, Size: newSize})
		if to < 0 {
			s.lines[from].Size = newSize
			return nil
		}
		s.lines[to].Quantity += s.lines[from].Quantity
		s.lines = slices.Delete(s.lines, from, from+1)
		return nil
	})
}

func (s *Store) SetSelected(cartEntryID string, selected bool) error {
	return s.mutateCartErr(func() error {
		i := s.indexOfEntry(cartEntryID)
		if i < 0 {
			return models.ErrLineNotFound
		}
		s.lines[i].Selected = selected
		return nil
	})
}

// Thread returns a copy of the messages held for a counterpart.
func (s *Store) Thread(counterpartID string) []models.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.threads[counterpartID])
}

// ReplaceThread discards whatever the thread held and stores msgs as given.
func (s *Store) ReplaceThread(counterpartID string, msgs []models.Message) {
	s.mutateThread(counterpartID, func(cur []models.Message) []models.Message {
		return slices.Clone(msgs)
	})
}

// AppendMessage adds msg at the end of the thread, in arrival order.
func (s *Store) AppendMessage(counterpartID string, msg models.Message) {
	s.mutateThread(counterpartID, func(cur []models.Message) []models.Message {
		return append(cur, msg)
	})
}

// MergeThread unions msgs into the thread by message id and keeps the thread
// ordered by creation time. A message already present is replaced.
func (s *Store) MergeThread(counterpartID string, msgs ...models.Message) {
	s.mutateThread(counterpartID, func(cur []models.Message) []models.Message {
		return mergeMessages(cur, msgs)
	})
}

func (s *Store) DropThread(counterpartID string) {
	s.mu.Lock()
	delete(s.threads, counterpartID)
	s.mu.Unlock()
}

func mergeMessages(cur, incoming []models.Message) []models.Message {
	out := slices.Clone(cur)
	pos := make(map[string]int, len(out))
	for i, m := range out {
		if m.ID != "" {
			pos[m.ID] = i
		}
	}
	for _, m := range incoming {
		if i, ok := pos[m.ID]; ok && m.ID != "" {
			out[i] = m
			continue
		}
		if m.ID != "" {
			pos[m.ID] = len(out)
		}
		out = append(out, m)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (s *Store) indexOf(key models.LineKey) int {
	return slices.IndexFunc(s.lines, func(it models.CartItem) bool {
		return it.Key() == key
	})
}

func (s *Store) indexOfEntry(cartEntryID string) int {
	return slices.IndexFunc(s.lines, func(it models.CartItem) bool {
		return it.CartEntryID == cartEntryID
	})
}

func (s *Store) mutateCart(fn func()) {
	_ = s.mutateCartErr(func() error {
		fn()
		return nil
	})
}

func (s *Store) mutateCartErr(fn func() error) error {
	s.emit.Lock()
	defer s.emit.Unlock()

	s.mu.Lock()
	if err := fn(); err != nil {
		s.mu.Unlock()
		return err
	}
	snapshot := slices.Clone(s.lines)
	listeners := make([]CartListener, 0, len(s.cartListeners))
	for _, l := range s.cartListeners {
		listeners = append(listeners, l)
	}
	s.mu.Unlock()

	for _, l := range listeners {
		l(snapshot)
	}
	return nil
}

func (s *Store) mutateThread(counterpartID string, fn func(cur []models.Message) []models.Message) {
	s.emit.Lock()
	defer s.emit.Unlock()

	s.mu.Lock()
	next := fn(s.threads[counterpartID])
	s.threads[counterpartID] = next
	snapshot := slices.Clone(next)
	listeners := make([]ThreadListener, 0, len(s.threadListeners))
	for _, l := range s.threadListeners {
		listeners = append(listeners, l)
	}
	s.mu.Unlock()

	for _, l := range listeners {
		l(counterpartID, snapshot)
	}
}
