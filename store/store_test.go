package store

import (
	"testing"
	"time"

	"github.com/SoulMinT05/mtshop-frontend/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func line(entry, product, size string, qty int) models.CartItem {
	return models.CartItem{
		CartEntryID: entry,
		Product:     models.ProductRef{ID: product},
		Size:        size,
		Quantity:    qty,
	}
}

func msg(id string, at time.Time) models.Message {
	return models.Message{ID: id, SenderID: "u2", ReceiverID: "u1", Body: id, CreatedAt: at}
}

func TestReplaceCartCollapsesDuplicateKeys(t *testing.T) {
	s := New()
	s.ReplaceCart([]models.CartItem{
		line("c1", "P1", "M", 1),
		line("c2", "P2", "L", 4),
		line("c3", "P1", "M", 7),
	})

	cart := s.Cart()
	require.Len(t, cart, 2)
	got, ok := s.Line(models.LineKey{ProductID: "P1", Size: "M"})
	require.True(t, ok)
	assert.Equal(t, 7, got.Quantity)
	assert.Equal(t, "c3", got.CartEntryID)
}

func TestRekeyLine(t *testing.T) {
	t.Run("moves line and keeps quantity", func(t *testing.T) {
		s := New()
		s.ReplaceCart([]models.CartItem{line("c1", "P1", "S", 3), line("c2", "P2", "S", 1)})

		require.NoError(t, s.RekeyLine("P1", "S", "M"))

		_, ok := s.Line(models.LineKey{ProductID: "P1", Size: "S"})
		assert.False(t, ok)
		got, ok := s.Line(models.LineKey{ProductID: "P1", Size: "M"})
		require.True(t, ok)
		assert.Equal(t, 3, got.Quantity)
		assert.Equal(t, "c1", got.CartEntryID)
	})

	t.Run("merges into existing line at target key", func(t *testing.T) {
		s := New()
		s.ReplaceCart([]models.CartItem{line("c1", "P1", "S", 3), line("c2", "P1", "M", 2)})

		require.NoError(t, s.RekeyLine("P1", "S", "M"))

		cart := s.Cart()
		require.Len(t, cart, 1)
		assert.Equal(t, "M", cart[0].Size)
		assert.Equal(t, 5, cart[0].Quantity)
	})

	t.Run("missing line", func(t *testing.T) {
		s := New()
		calls := 0
		s.OnCartChange(func([]models.CartItem) { calls++ })

		err := s.RekeyLine("P1", "S", "M")
		assert.ErrorIs(t, err, models.ErrLineNotFound)
		assert.Zero(t, calls)
	})
}

func TestRekeyKeepsOneLinePerKey(t *testing.T) {
	sizes := []string{"S", "M", "L", "XL"}
	for _, from := range sizes {
		for _, to := range sizes {
			s := New()
			var items []models.CartItem
			for i, sz := range sizes {
				items = append(items, line("c"+sz, "P1", sz, i+1))
			}
			s.ReplaceCart(items)
			before, _ := s.Line(models.LineKey{ProductID: "P1", Size: from})
			target, _ := s.Line(models.LineKey{ProductID: "P1", Size: to})

			require.NoError(t, s.RekeyLine("P1", from, to))

			seen := map[models.LineKey]int{}
			for _, it := range s.Cart() {
				seen[it.Key()]++
			}
			for k, n := range seen {
				assert.Equal(t, 1, n, "key %s", k)
			}
			got, ok := s.Line(models.LineKey{ProductID: "P1", Size: to})
			require.True(t, ok)
			if from == to {
				assert.Equal(t, before.Quantity, got.Quantity)
				continue
			}
			_, stillThere := s.Line(models.LineKey{ProductID: "P1", Size: from})
			assert.False(t, stillThere, "%s -> %s", from, to)
			assert.Equal(t, before.Quantity+target.Quantity, got.Quantity)
		}
	}
}

func TestUpsertLine(t *testing.T) {
	s := New()
	s.ReplaceCart([]models.CartItem{{
		CartEntryID: "c1",
		Product:     models.ProductRef{ID: "P1"},
		Name:        "Áo thun",
		Size:        "M",
		Quantity:    2,
	}})

	s.UpsertLine(line("", "P1", "M", 3))
	got, _ := s.Line(models.LineKey{ProductID: "P1", Size: "M"})
	assert.Equal(t, 3, got.Quantity)
	assert.Equal(t, "Áo thun", got.Name)
	assert.Equal(t, "c1", got.CartEntryID)

	s.UpsertLine(line("c9", "P9", "L", 1))
	assert.Len(t, s.Cart(), 2)
}

func TestDecrementLine(t *testing.T) {
	s := New()
	s.ReplaceCart([]models.CartItem{line("c1", "P1", "M", 2)})
	key := models.LineKey{ProductID: "P1", Size: "M"}

	require.NoError(t, s.DecrementLine(key))
	got, _ := s.Line(key)
	assert.Equal(t, 1, got.Quantity)

	require.NoError(t, s.DecrementLine(key))
	assert.Empty(t, s.Cart())

	assert.ErrorIs(t, s.DecrementLine(key), models.ErrLineNotFound)
}

func TestRemoveLineAndSelect(t *testing.T) {
	s := New()
	s.ReplaceCart([]models.CartItem{line("c1", "P1", "M", 2), line("c2", "P2", "M", 1)})

	require.NoError(t, s.SetSelected("c2", true))
	got, _ := s.LineByEntry("c2")
	assert.True(t, got.Selected)

	require.NoError(t, s.RemoveLine("c1"))
	assert.Len(t, s.Cart(), 1)
	assert.ErrorIs(t, s.RemoveLine("c1"), models.ErrLineNotFound)
}

func TestCartListeners(t *testing.T) {
	s := New()
	var snapshots [][]models.CartItem
	unsubscribe := s.OnCartChange(func(lines []models.CartItem) {
		snapshots = append(snapshots, lines)
	})

	s.ReplaceCart([]models.CartItem{line("c1", "P1", "M", 2)})
	s.UpsertLine(line("c1", "P1", "M", 5))
	unsubscribe()
	s.ReplaceCart(nil)

	require.Len(t, snapshots, 2)
	assert.Equal(t, 2, snapshots[0][0].Quantity)
	assert.Equal(t, 5, snapshots[1][0].Quantity)
}

func TestThreadReplaceDropsPushedMessage(t *testing.T) {
	s := New()
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	s.AppendMessage("u2", msg("pushed", base.Add(time.Minute)))
	s.ReplaceThread("u2", []models.Message{msg("h1", base)})

	got := s.Thread("u2")
	require.Len(t, got, 1)
	assert.Equal(t, "h1", got[0].ID)
}

func TestThreadMergeIsUnionByID(t *testing.T) {
	s := New()
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	s.MergeThread("u2", msg("pushed", base.Add(3*time.Minute)))
	s.MergeThread("u2",
		msg("h2", base.Add(2*time.Minute)),
		msg("h1", base),
		msg("pushed", base.Add(3*time.Minute)),
	)

	got := s.Thread("u2")
	ids := make([]string, 0, len(got))
	for _, m := range got {
		ids = append(ids, m.ID)
	}
	assert.Equal(t, []string{"h1", "h2", "pushed"}, ids)
}

func TestThreadListeners(t *testing.T) {
	s := New()
	var got []string
	s.OnThreadChange(func(counterpartID string, msgs []models.Message) {
		got = append(got, counterpartID)
	})

	s.AppendMessage("u2", msg("m1", time.Now()))
	s.MergeThread("u3", msg("m2", time.Now()))

	assert.Equal(t, []string{"u2", "u3"}, got)
	s.DropThread("u2")
	assert.Empty(t, s.Thread("u2"))
}
