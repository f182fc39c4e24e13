package models

import (
	"fmt"
	"time"
)

// Orientation is the axis a block's long side runs along
type Orientation string

const (
	OrientationX Orientation = "x"
	OrientationZ Orientation = "z"
)

// Placement is the derived 3D position of a block, used only by renderers
type Placement struct {
	X           float64     `json:"x"`
	Y           float64     `json:"y"`
	Z           float64     `json:"z"`
	Orientation Orientation `json:"orientation"`
}

// Block is one removable unit of the tower
type Block struct {
	ID         string       `json:"id"`
	Layer      int          `json:"layer"`
	Position   int          `json:"position"`
	Placement  Placement    `json:"placement"`
	Content    *ContentItem `json:"content,omitempty"`
	Removed    bool         `json:"removed"`
	Difficulty Difficulty   `json:"difficulty"`
	Category   Category     `json:"category"`
}

// BlockID formats the stable identifier of the block at layer/position
func BlockID(layer, position int) string {
	return fmt.Sprintf("block-%d-%d", layer, position)
}

// HasQuestion reports whether the block carries a quiz
func (b *Block) HasQuestion() bool {
	return b.Content != nil && b.Content.Question != nil
}

// DiceRoll is the outcome of a roll and the layers it opens up
type DiceRoll struct {
	Value            int       `json:"value"`
	MaxLayer         int       `json:"max_layer"`
	AccessibleLayers []int     `json:"accessible_layers"`
	RolledAt         time.Time `json:"rolled_at"`
}
