package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jgirmay/privacy-tower/pkg/models"
	"github.com/jgirmay/privacy-tower/pkg/questions"
)

func TestTowerBuilderLayout(t *testing.T) {
	cfg := DefaultConfig().Tower
	blocks := NewTowerBuilder(NewContentTracker(questions.Default()), cfg).Build()

	require.Len(t, blocks, 52)
	assert.Equal(t, 52, cfg.TotalBlocks())

	ids := make(map[string]bool)
	perLayer := make(map[int]int)
	for _, b := range blocks {
		assert.Equal(t, models.BlockID(b.Layer, b.Position), b.ID)
		assert.False(t, ids[b.ID], "duplicate id %s", b.ID)
		ids[b.ID] = true
		perLayer[b.Layer]++

		require.NotNil(t, b.Content)
		assert.Equal(t, cfg.DifficultyForLayer(b.Layer), b.Difficulty, "block %s", b.ID)
		assert.Equal(t, b.Content.Difficulty, b.Difficulty)
		assert.Equal(t, b.Content.Category, b.Category)
		assert.False(t, b.Removed)
	}
	for layer := 1; layer <= 17; layer++ {
		assert.Equal(t, 3, perLayer[layer], "layer %d", layer)
	}
	assert.Equal(t, 1, perLayer[18])
}

func TestTowerBuilderLayerBands(t *testing.T) {
	cfg := DefaultConfig().Tower
	assert.Equal(t, models.DifficultyHard, cfg.DifficultyForLayer(1))
	assert.Equal(t, models.DifficultyHard, cfg.DifficultyForLayer(6))
	assert.Equal(t, models.DifficultyMedium, cfg.DifficultyForLayer(7))
	assert.Equal(t, models.DifficultyMedium, cfg.DifficultyForLayer(12))
	assert.Equal(t, models.DifficultyEasy, cfg.DifficultyForLayer(13))
	assert.Equal(t, models.DifficultyEasy, cfg.DifficultyForLayer(18))
	assert.Equal(t, models.Difficulty(""), cfg.DifficultyForLayer(19))
}

func TestTowerBuilderIsDeterministic(t *testing.T) {
	bank := questions.Default()
	cfg := DefaultConfig().Tower

	first := NewTowerBuilder(NewContentTracker(bank), cfg).Build()
	second := NewTowerBuilder(NewContentTracker(bank), cfg).Build()

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].Content.ID, second[i].Content.ID, "block %s", first[i].ID)
	}
}

func TestTowerBuilderSeedSelection(t *testing.T) {
	bank := makeBank(t, 9, 10, -10)
	tr := NewContentTracker(bank)
	blocks := NewTowerBuilder(tr, DefaultConfig().Tower).Build()

	hard := tr.UnseenContent(models.DifficultyHard, "")
	require.Len(t, hard, 3)

	// block-1-1: seed 101, 101 mod 3 = 2
	assert.Equal(t, hard[2].ID, blocks[0].Content.ID)
	// block-1-2: seed 102, 102 mod 3 = 0
	assert.Equal(t, hard[0].ID, blocks[1].Content.ID)
}

func TestTowerBuilderFallsBackToWholePool(t *testing.T) {
	items := []models.ContentItem{}
	for _, item := range makeBank(t, 9, 10, -10).Items() {
		if item.Difficulty == models.DifficultyEasy {
			items = append(items, *item)
		}
	}
	bank, err := questions.New(items)
	require.NoError(t, err)

	blocks := NewTowerBuilder(NewContentTracker(bank), DefaultConfig().Tower).Build()
	require.Len(t, blocks, 52)
	for _, b := range blocks {
		assert.Equal(t, models.DifficultyEasy, b.Difficulty)
	}
}

func TestTowerBuilderCyclesExhaustedContent(t *testing.T) {
	bank := makeBank(t, 3, 10, -10)
	tr := NewContentTracker(bank)
	for _, item := range bank.Items() {
		tr.MarkAsShown(item.ID)
	}

	blocks := NewTowerBuilder(tr, DefaultConfig().Tower).Build()
	assert.Len(t, blocks, 52)
	assert.Empty(t, tr.Shown(), "building on an exhausted pool starts a new content lifetime")
}

func TestTowerBuilderPlacement(t *testing.T) {
	blocks := NewTowerBuilder(NewContentTracker(questions.Default()), DefaultConfig().Tower).Build()

	assert.Equal(t, models.OrientationX, blocks[0].Placement.Orientation)
	assert.Equal(t, -1.0, blocks[0].Placement.Z)
	assert.Equal(t, 0.0, blocks[1].Placement.Z)
	assert.Equal(t, models.OrientationZ, blocks[3].Placement.Orientation)
	assert.Equal(t, -1.0, blocks[3].Placement.X)

	top := blocks[len(blocks)-1]
	assert.Equal(t, 18, top.Layer)
	assert.Equal(t, 0.0, top.Placement.X)
	assert.Equal(t, 0.0, top.Placement.Z)
	assert.Greater(t, top.Placement.Y, blocks[0].Placement.Y)
}
