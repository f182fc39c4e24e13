package engine

import (
	"github.com/jgirmay/privacy-tower/pkg/models"
)

// TowerBuilder lays out blocks and assigns each one a catalog item
type TowerBuilder struct {
	tracker *ContentTracker
	cfg     TowerConfig
}

func NewTowerBuilder(tracker *ContentTracker, cfg TowerConfig) *TowerBuilder {
	return &TowerBuilder{tracker: tracker, cfg: cfg}
}

// Build returns a full tower, bottom layer first.
// Content is a pure function of (layer, position) and the unseen pool at call time.
func (b *TowerBuilder) Build() []models.Block {
	if len(b.tracker.UnseenContent("", "")) == 0 {
		b.tracker.CycleContent()
	}

	pools := make(map[models.Difficulty][]*models.ContentItem)
	all := b.tracker.UnseenContent("", "")

	blocks := make([]models.Block, 0, b.cfg.TotalBlocks())
	for layer := 1; layer <= b.cfg.Layers; layer++ {
		difficulty := b.cfg.DifficultyForLayer(layer)
		pool, ok := pools[difficulty]
		if !ok {
			pool = b.tracker.UnseenContent(difficulty, "")
			pools[difficulty] = pool
		}
		if len(pool) == 0 {
			pool = all
		}

		for position := 1; position <= b.cfg.PositionsInLayer(layer); position++ {
			seed := layer*100 + position
			item := pool[seed%len(pool)]

			blocks = append(blocks, models.Block{
				ID:         models.BlockID(layer, position),
				Layer:      layer,
				Position:   position,
				Placement:  b.placement(layer, position),
				Content:    item,
				Difficulty: item.Difficulty,
				Category:   item.Category,
			})
		}
	}
	return blocks
}

// placement centres each layer on the tower axis; odd layers run along X, even along Z
func (b *TowerBuilder) placement(layer, position int) models.Placement {
	count := b.cfg.PositionsInLayer(layer)
	offset := (float64(position) - float64(count+1)/2) * b.cfg.BlockWidth
	p := models.Placement{
		Y: (float64(layer) - 0.5) * b.cfg.BlockHeight,
	}
	if layer%2 == 1 {
		p.Orientation = models.OrientationX
		p.Z = offset
	} else {
		p.Orientation = models.OrientationZ
		p.X = offset
	}
	return p
}
