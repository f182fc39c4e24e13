package engine

import (
	"math"

	"github.com/jgirmay/privacy-tower/pkg/models"
)

// Stability band names
const (
	BandCritical = "critical"
	BandUnstable = "unstable"
	BandStable   = "stable"
	BandSolid    = "solid"
)

// StabilityBand covers stability values up to and including Max.
// The multipliers scale the stability delta of correct and incorrect answers.
type StabilityBand struct {
	Name                string  `yaml:"name" json:"name"`
	Max                 int     `yaml:"max" json:"max"`
	CorrectMultiplier   float64 `yaml:"correct_multiplier" json:"correct_multiplier"`
	IncorrectMultiplier float64 `yaml:"incorrect_multiplier" json:"incorrect_multiplier"`
}

// StabilityTable is the single source of truth for stability math and band classification
type StabilityTable struct {
	Max             int             `yaml:"max"`
	Bands           []StabilityBand `yaml:"bands"`
	CorrectStreak   []int           `yaml:"correct_streak"`
	IncorrectStreak []int           `yaml:"incorrect_streak"`
	StreakFactor    float64         `yaml:"streak_factor"`
}

// DefaultStabilityTable returns the standard bands and streak tables
func DefaultStabilityTable() StabilityTable {
	return StabilityTable{
		Max: 100,
		Bands: []StabilityBand{
			{Name: BandCritical, Max: 25, CorrectMultiplier: 1.5, IncorrectMultiplier: 0.5},
			{Name: BandUnstable, Max: 50, CorrectMultiplier: 1.2, IncorrectMultiplier: 0.8},
			{Name: BandStable, Max: 79, CorrectMultiplier: 1.0, IncorrectMultiplier: 1.0},
			{Name: BandSolid, Max: 100, CorrectMultiplier: 0.8, IncorrectMultiplier: 1.2},
		},
		CorrectStreak:   []int{0, 1, 2, 3, 5},
		IncorrectStreak: []int{0, -1, -2, -3, -5},
		StreakFactor:    0.1,
	}
}

var defaultStability = DefaultStabilityTable()

// ComputeStabilityDelta applies the default table. See StabilityTable.Delta.
func ComputeStabilityDelta(item *models.ContentItem, isCorrect bool, consecutiveCorrect, consecutiveIncorrect, currentStability int) int {
	return defaultStability.Delta(item, isCorrect, consecutiveCorrect, consecutiveIncorrect, currentStability)
}

// ClassifyStability names the default band a stability value falls in
func ClassifyStability(stability int) string {
	return defaultStability.Band(stability).Name
}

// Delta computes round(base * (1 + streakBonus*factor) * bandMultiplier).
// Streaks are the counts before this answer. The result is not clamped.
func (t StabilityTable) Delta(item *models.ContentItem, isCorrect bool, consecutiveCorrect, consecutiveIncorrect, currentStability int) int {
	if item == nil {
		return 0
	}

	base := item.StabilityImpact.Incorrect
	streakTable, streak := t.IncorrectStreak, consecutiveIncorrect
	if isCorrect {
		base = item.StabilityImpact.Correct
		streakTable, streak = t.CorrectStreak, consecutiveCorrect
	}

	bonus := streakValue(streakTable, streak)
	band := t.Band(currentStability)
	multiplier := band.IncorrectMultiplier
	if isCorrect {
		multiplier = band.CorrectMultiplier
	}

	return roundHalfUp(float64(base) * (1 + float64(bonus)*t.StreakFactor) * multiplier)
}

// Band returns the first band whose Max covers stability; values above every band get the last one
func (t StabilityTable) Band(stability int) StabilityBand {
	for _, b := range t.Bands {
		if stability <= b.Max {
			return b
		}
	}
	if len(t.Bands) == 0 {
		return StabilityBand{Name: BandStable, CorrectMultiplier: 1, IncorrectMultiplier: 1}
	}
	return t.Bands[len(t.Bands)-1]
}

// Clamp bounds a stability value to [0, Max]
func (t StabilityTable) Clamp(stability int) int {
	if stability < 0 {
		return 0
	}
	if stability > t.Max {
		return t.Max
	}
	return stability
}

func streakValue(table []int, streak int) int {
	if len(table) == 0 {
		return 0
	}
	if streak < 0 {
		streak = 0
	}
	if streak > len(table)-1 {
		streak = len(table) - 1
	}
	return table[streak]
}

// roundHalfUp rounds .5 towards positive infinity, so -2.5 becomes -2
func roundHalfUp(x float64) int {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0
	}
	return int(math.Floor(x + 0.5))
}
