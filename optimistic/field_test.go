package optimistic

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func inc(n int) int { return n + 1 }

func TestProposeConfirm(t *testing.T) {
	f := NewField(2)

	assert.Equal(t, 3, f.Propose(inc))
	assert.Equal(t, Pending, f.State())
	assert.Equal(t, 2, f.Confirmed())

	f.Confirm(7)
	assert.Equal(t, Confirmed, f.State())
	assert.Equal(t, 7, f.Value())
	assert.Equal(t, 7, f.Confirmed())
}

func TestProposeRollback(t *testing.T) {
	f := NewField(2)
	f.Propose(inc)
	f.Rollback()

	assert.Equal(t, Confirmed, f.State())
	assert.Equal(t, 2, f.Value())
}

func TestProposeAbandon(t *testing.T) {
	f := NewField(2)
	f.Propose(inc)
	f.Abandon()

	assert.Equal(t, Confirmed, f.State())
	assert.Equal(t, 3, f.Value())
	assert.Equal(t, 2, f.Confirmed())
}

func TestOverlappingProposals(t *testing.T) {
	f := NewField(1)
	f.Propose(inc)
	f.Propose(inc)
	assert.Equal(t, 3, f.Value())

	f.Confirm(2)
	assert.Equal(t, Pending, f.State())
	assert.Equal(t, 2, f.Value())

	f.Confirm(3)
	assert.Equal(t, Confirmed, f.State())
	assert.Equal(t, 3, f.Value())
}

func TestSettleSupersedesProposals(t *testing.T) {
	f := NewField("M")
	f.Propose(func(string) string { return "L" })

	f.Settle("S")
	assert.Equal(t, Confirmed, f.State())
	assert.Equal(t, "S", f.Value())

	// A late rollback after a settle falls back to the settled value.
	f.Rollback()
	assert.Equal(t, "S", f.Value())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "confirmed", Confirmed.String())
	assert.Equal(t, "pending", Pending.String())
}
