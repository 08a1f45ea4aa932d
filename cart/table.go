package cart

import (
	"context"
	"fmt"
	"sync"

	"github.com/SoulMinT05/mtshop-frontend/models"
	"go.uber.org/zap"
)

// Source loads the full cart from the backend.
type Source interface {
	GetCart(ctx context.Context) ([]models.CartItem, error)
}

// Table keeps one LineItem per store line and reconciles every row when the
// cart changes.
type Table struct {
	deps   Deps
	source Source

	mu    sync.Mutex
	rows  map[string]*LineItem
	order []string

	unsubscribe func()
}

func NewTable(source Source, d Deps) *Table {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	t := &Table{
		deps:   d,
		source: source,
		rows:   make(map[string]*LineItem),
	}
	t.sync(d.Store.Cart())
	t.unsubscribe = d.Store.OnCartChange(t.sync)
	return t
}

// Refresh replaces the store's cart with the backend's.
func (t *Table) Refresh(ctx context.Context) error {
	items, err := t.source.GetCart(ctx)
	if err != nil {
		t.deps.Logger.Warn("cart refresh failed", zap.Error(err))
		return fmt.Errorf("refresh cart: %w", err)
	}
	t.deps.Store.ReplaceCart(items)
	return nil
}

func (t *Table) Row(cartEntryID string) (*LineItem, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	row, ok := t.rows[cartEntryID]
	return row, ok
}

// Rows returns the rows in cart order.
func (t *Table) Rows() []*LineItem {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]*LineItem, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, t.rows[id])
	}
	return out
}

func (t *Table) Views() []View {
	rows := t.Rows()
	out := make([]View, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.View())
	}
	return out
}

// Select flips the checkbox of a row. It never reaches the backend.
func (t *Table) Select(cartEntryID string, selected bool) error {
	return t.deps.Store.SetSelected(cartEntryID, selected)
}

func (t *Table) Close() {
	if t.unsubscribe != nil {
		t.unsubscribe()
	}
}

func (t *Table) sync(lines []models.CartItem) {
	t.mu.Lock()
	seen := make(map[string]bool, len(lines))
	order := make([]string, 0, len(lines))
	for _, it := range lines {
		seen[it.CartEntryID] = true
		order = append(order, it.CartEntryID)
		if _, ok := t.rows[it.CartEntryID]; !ok {
			t.rows[it.CartEntryID] = NewLineItem(it, t.deps)
		}
	}
	for id := range t.rows {
		if !seen[id] {
			delete(t.rows, id)
		}
	}
	t.order = order
	rows := make([]*LineItem, 0, len(order))
	for _, id := range order {
		rows = append(rows, t.rows[id])
	}
	t.mu.Unlock()

	for _, row := range rows {
		row.Reconcile(lines)
	}
}
