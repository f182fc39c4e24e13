package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jgirmay/privacy-tower/pkg/models"
)

func TestContentTrackerMarkAsShown(t *testing.T) {
	bank := makeBank(t, 6, 10, -10)
	tr := NewContentTracker(bank)

	assert.True(t, tr.MarkAsShown("item-00"))
	assert.False(t, tr.MarkAsShown("item-00"), "second mark is a no-op")
	assert.False(t, tr.MarkAsShown("not-in-catalog"))

	assert.Equal(t, []string{"item-00"}, tr.Shown())
	assert.InDelta(t, 100.0/6, tr.CompletionPercentage(), 0.001)
	assert.Len(t, tr.UnseenContent("", ""), 5)
}

func TestContentTrackerUnseenContentFilters(t *testing.T) {
	bank := makeBank(t, 6, 10, -10)
	tr := NewContentTracker(bank)

	hard := tr.UnseenContent(models.DifficultyHard, "")
	require.Len(t, hard, 2)
	assert.Equal(t, "item-00", hard[0].ID)
	assert.Equal(t, "item-03", hard[1].ID)

	onChain := tr.UnseenContent("", models.CategoryOnChain)
	require.Len(t, onChain, 1)
	assert.Equal(t, "item-00", onChain[0].ID)

	assert.Empty(t, tr.UnseenContent(models.DifficultyEasy, models.CategoryOnChain))

	// repeated calls are stable
	assert.Equal(t, tr.UnseenContent("", ""), tr.UnseenContent("", ""))
}

func TestContentTrackerCycle(t *testing.T) {
	bank := makeBank(t, 3, 10, -10)
	tr := NewContentTracker(bank)
	for _, item := range bank.Items() {
		tr.MarkAsShown(item.ID)
	}
	assert.True(t, tr.IsAllContentShown())
	assert.Equal(t, 100.0, tr.CompletionPercentage())
	assert.Empty(t, tr.UnseenContent("", ""))

	tr.CycleContent()
	assert.False(t, tr.IsAllContentShown())
	assert.Len(t, tr.UnseenContent("", ""), 3)
	assert.Zero(t, tr.CompletionPercentage())
}
