package engine

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jgirmay/privacy-tower/pkg/models"
)

// LayerBand maps an inclusive layer range to a block difficulty
type LayerBand struct {
	From       int               `yaml:"from"`
	To         int               `yaml:"to"`
	Difficulty models.Difficulty `yaml:"difficulty"`
}

// TowerConfig describes the tower shape
type TowerConfig struct {
	Layers            int         `yaml:"layers"`
	PositionsPerLayer int         `yaml:"positions_per_layer"`
	TopLayerPositions int         `yaml:"top_layer_positions"`
	LayerBands        []LayerBand `yaml:"layer_bands"`
	BlockWidth        float64     `yaml:"block_width"`
	BlockHeight       float64     `yaml:"block_height"`
}

// AdaptiveConfig holds the hysteresis thresholds, in percent
type AdaptiveConfig struct {
	EscalateAt   float64 `yaml:"escalate_at"`
	DeescalateAt float64 `yaml:"deescalate_at"`
	MinSamples   int     `yaml:"min_samples"`
}

// DiceConfig controls which layers a roll opens up
type DiceConfig struct {
	Faces        int `yaml:"faces"`
	LayersPerPip int `yaml:"layers_per_pip"`
}

// Config is the complete set of game tuning knobs
type Config struct {
	Tower             TowerConfig                    `yaml:"tower"`
	Stability         StabilityTable                 `yaml:"stability"`
	Adaptive          AdaptiveConfig                 `yaml:"adaptive"`
	Dice              DiceConfig                     `yaml:"dice"`
	InitialDifficulty models.Difficulty              `yaml:"initial_difficulty"`
	FastAnswer        time.Duration                  `yaml:"fast_answer"`
	Achievements      []models.AchievementDefinition `yaml:"achievements"`
}

// DefaultConfig returns the standard 52-block tower tuning
func DefaultConfig() Config {
	return Config{
		Tower: TowerConfig{
			Layers:            18,
			PositionsPerLayer: 3,
			TopLayerPositions: 1,
			LayerBands: []LayerBand{
				{From: 1, To: 6, Difficulty: models.DifficultyHard},
				{From: 7, To: 12, Difficulty: models.DifficultyMedium},
				{From: 13, To: 18, Difficulty: models.DifficultyEasy},
			},
			BlockWidth:  1.0,
			BlockHeight: 0.6,
		},
		Stability: DefaultStabilityTable(),
		Adaptive: AdaptiveConfig{
			EscalateAt:   80,
			DeescalateAt: 40,
			MinSamples:   3,
		},
		Dice: DiceConfig{
			Faces:        6,
			LayersPerPip: 3,
		},
		InitialDifficulty: models.DifficultyMedium,
		FastAnswer:        5 * time.Second,
		Achievements:      DefaultAchievements(),
	}
}

// LoadConfigFile overlays a YAML tuning file on top of DefaultConfig
func LoadConfigFile(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read game tuning: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse game tuning: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate rejects tunings the engine cannot run with
func (c Config) Validate() error {
	t := c.Tower
	if t.Layers < 1 || t.PositionsPerLayer < 1 || t.TopLayerPositions < 1 {
		return fmt.Errorf("%w: tower needs at least one layer and position", ErrInvalidConfig)
	}
	for layer := 1; layer <= t.Layers; layer++ {
		if !t.DifficultyForLayer(layer).Valid() {
			return fmt.Errorf("%w: layer %d has no difficulty band", ErrInvalidConfig, layer)
		}
	}
	if len(c.Stability.Bands) == 0 {
		return fmt.Errorf("%w: stability band table is empty", ErrInvalidConfig)
	}
	for i := 1; i < len(c.Stability.Bands); i++ {
		if c.Stability.Bands[i].Max <= c.Stability.Bands[i-1].Max {
			return fmt.Errorf("%w: stability bands must be ordered by max", ErrInvalidConfig)
		}
	}
	if c.Stability.Max <= 0 {
		return fmt.Errorf("%w: max stability must be positive", ErrInvalidConfig)
	}
	if c.Adaptive.DeescalateAt >= c.Adaptive.EscalateAt {
		return fmt.Errorf("%w: de-escalate threshold must sit below escalate threshold", ErrInvalidConfig)
	}
	if c.Dice.Faces < 1 || c.Dice.LayersPerPip < 1 {
		return fmt.Errorf("%w: dice needs faces and layers per pip", ErrInvalidConfig)
	}
	if !c.InitialDifficulty.Valid() {
		return fmt.Errorf("%w: initial difficulty %q", ErrInvalidConfig, c.InitialDifficulty)
	}
	for _, def := range c.Achievements {
		if _, ok := achievementConditions[def.ID]; !ok {
			return fmt.Errorf("%w: unknown achievement %q", ErrInvalidConfig, def.ID)
		}
	}
	return nil
}

// PositionsInLayer returns how many blocks sit in the given layer
func (t TowerConfig) PositionsInLayer(layer int) int {
	if layer == t.Layers {
		return t.TopLayerPositions
	}
	return t.PositionsPerLayer
}

// TotalBlocks returns the number of blocks in a full tower
func (t TowerConfig) TotalBlocks() int {
	return (t.Layers-1)*t.PositionsPerLayer + t.TopLayerPositions
}

// DifficultyForLayer looks up the layer band table
func (t TowerConfig) DifficultyForLayer(layer int) models.Difficulty {
	for _, band := range t.LayerBands {
		if layer >= band.From && layer <= band.To {
			return band.Difficulty
		}
	}
	return ""
}
