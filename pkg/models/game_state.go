package models

import "time"

// GamePhase is the state-machine position of a session
type GamePhase string

const (
	PhasePlaying   GamePhase = "playing"
	PhaseCollapsed GamePhase = "collapsed"
	PhaseCompleted GamePhase = "completed"
)

// MoveAction is the kind of move recorded in history
type MoveAction string

const (
	ActionBlockClicked MoveAction = "block_clicked"
	ActionQuizAnswered MoveAction = "quiz_answered"
	ActionDiceRolled   MoveAction = "dice_rolled"
	ActionTowerRebuilt MoveAction = "tower_rebuilt"
)

// Move results
const (
	ResultRevealed  = "revealed"
	ResultCorrect   = "correct"
	ResultIncorrect = "incorrect"
	ResultRolled    = "rolled"
	ResultRebuilt   = "rebuilt"
	ResultCompleted = "completed"
)

// GameMove is an append-only history record
type GameMove struct {
	ID             string        `json:"id"`
	BlockID        string        `json:"block_id,omitempty"`
	Action         MoveAction    `json:"action"`
	Result         string        `json:"result"`
	PointsDelta    int           `json:"points_delta"`
	StabilityDelta int           `json:"stability_delta"`
	Timestamp      time.Time     `json:"timestamp"`
	Difficulty     Difficulty    `json:"difficulty,omitempty"`
	Category       Category      `json:"category,omitempty"`
	Content        *ContentItem  `json:"content,omitempty"`
	ResponseTime   time.Duration `json:"response_time,omitempty"`
}

// AchievementDefinition is a static achievement
type AchievementDefinition struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
	Icon        string `json:"icon" yaml:"icon"`
	Points      int    `json:"points" yaml:"points"`
	Threshold   int    `json:"threshold" yaml:"threshold"`
}

// AchievementState is a player's unlock state for one achievement
type AchievementState struct {
	IsUnlocked bool       `json:"is_unlocked"`
	UnlockedAt *time.Time `json:"unlocked_at,omitempty"`
}

// PlayerProfile carries cumulative stats that survive resets within a session
type PlayerProfile struct {
	Nickname          string                      `json:"nickname"`
	TotalScore        int                         `json:"total_score"`
	GamesPlayed       int                         `json:"games_played"`
	QuestionsAnswered int                         `json:"questions_answered"`
	CorrectAnswers    int                         `json:"correct_answers"`
	BlocksRemoved     int                         `json:"blocks_removed"`
	BestStreak        int                         `json:"best_streak"`
	Achievements      map[string]AchievementState `json:"achievements"`
}

// CategoryProgress counts learning activity for one category
type CategoryProgress struct {
	Seen      int `json:"seen"`
	Correct   int `json:"correct"`
	Incorrect int `json:"incorrect"`
}

// AdaptiveState is the adaptive tracker's view of the session
type AdaptiveState struct {
	OverallAccuracy    float64                `json:"overall_accuracy"`
	CategoryAccuracy   map[Category]float64   `json:"category_accuracy"`
	DifficultyAccuracy map[Difficulty]float64 `json:"difficulty_accuracy"`
}

// GameState is the single authoritative aggregate of one session
type GameState struct {
	CurrentScore         int                           `json:"current_score"`
	TowerStability       int                           `json:"tower_stability"`
	BlocksRemoved        int                           `json:"blocks_removed"`
	TotalBlocks          int                           `json:"total_blocks"`
	CorrectAnswers       int                           `json:"correct_answers"`
	IncorrectAnswers     int                           `json:"incorrect_answers"`
	ConsecutiveCorrect   int                           `json:"consecutive_correct"`
	ConsecutiveIncorrect int                           `json:"consecutive_incorrect"`
	LongestStreak        int                           `json:"longest_streak"`
	CurrentDifficulty    Difficulty                    `json:"current_difficulty"`
	GamePhase            GamePhase                     `json:"game_phase"`
	IsCollapsed          bool                          `json:"is_collapsed"`
	ContentShown         []string                      `json:"content_shown"`
	Player               PlayerProfile                 `json:"player"`
	History              []GameMove                    `json:"history"`
	LearningProgress     map[Category]CategoryProgress `json:"learning_progress"`
	Adaptive             AdaptiveState                 `json:"adaptive"`
	RebuildCount         int                           `json:"rebuild_count"`
	LastDiceRoll         *DiceRoll                     `json:"last_dice_roll,omitempty"`
	StartedAt            time.Time                     `json:"started_at"`
}

// Clone returns a deep copy of the state
func (s GameState) Clone() GameState {
	out := s
	out.ContentShown = append([]string(nil), s.ContentShown...)
	out.History = make([]GameMove, len(s.History))
	for i, m := range s.History {
		m.Content = m.Content.Clone()
		out.History[i] = m
	}
	out.Player.Achievements = make(map[string]AchievementState, len(s.Player.Achievements))
	for id, st := range s.Player.Achievements {
		if st.UnlockedAt != nil {
			t := *st.UnlockedAt
			st.UnlockedAt = &t
		}
		out.Player.Achievements[id] = st
	}
	out.LearningProgress = make(map[Category]CategoryProgress, len(s.LearningProgress))
	for c, p := range s.LearningProgress {
		out.LearningProgress[c] = p
	}
	out.Adaptive.CategoryAccuracy = make(map[Category]float64, len(s.Adaptive.CategoryAccuracy))
	for c, a := range s.Adaptive.CategoryAccuracy {
		out.Adaptive.CategoryAccuracy[c] = a
	}
	out.Adaptive.DifficultyAccuracy = make(map[Difficulty]float64, len(s.Adaptive.DifficultyAccuracy))
	for d, a := range s.Adaptive.DifficultyAccuracy {
		out.Adaptive.DifficultyAccuracy[d] = a
	}
	if s.LastDiceRoll != nil {
		roll := *s.LastDiceRoll
		roll.AccessibleLayers = append([]int(nil), s.LastDiceRoll.AccessibleLayers...)
		out.LastDiceRoll = &roll
	}
	return out
}

// AdaptiveImpact tells the caller how an answer moved the difficulty
type AdaptiveImpact struct {
	PreviousDifficulty    Difficulty `json:"previous_difficulty"`
	RecommendedDifficulty Difficulty `json:"recommended_difficulty"`
	Changed               bool       `json:"changed"`
	OverallAccuracy       float64    `json:"overall_accuracy"`
	CategoryAccuracy      float64    `json:"category_accuracy"`
}

// QuizResult is returned for every answered question
type QuizResult struct {
	IsCorrect            bool           `json:"is_correct"`
	CorrectIndex         int            `json:"correct_index"`
	SelectedIndex        int            `json:"selected_index"`
	Points               int            `json:"points"`
	AchievementPoints    int            `json:"achievement_points"`
	StabilityDelta       int            `json:"stability_delta"`
	NewStability         int            `json:"new_stability"`
	StabilityBand        string         `json:"stability_band"`
	Explanation          string         `json:"explanation"`
	UnlockedAchievements []string       `json:"unlocked_achievements"`
	Collapsed            bool           `json:"collapsed"`
	Completed            bool           `json:"completed"`
	Adaptive             AdaptiveImpact `json:"adaptive"`
}

// BreakdownEntry is an accuracy bucket in the statistics view
type BreakdownEntry struct {
	Answered int     `json:"answered"`
	Correct  int     `json:"correct"`
	Accuracy float64 `json:"accuracy"`
}

// GameStatistics is a derived, read-only aggregate of a session
type GameStatistics struct {
	GamePhase            GamePhase                     `json:"game_phase"`
	CurrentScore         int                           `json:"current_score"`
	TowerStability       int                           `json:"tower_stability"`
	StabilityBand        string                        `json:"stability_band"`
	BlocksRemoved        int                           `json:"blocks_removed"`
	TotalBlocks          int                           `json:"total_blocks"`
	QuestionsAnswered    int                           `json:"questions_answered"`
	CorrectAnswers       int                           `json:"correct_answers"`
	IncorrectAnswers     int                           `json:"incorrect_answers"`
	Accuracy             float64                       `json:"accuracy"`
	LongestStreak        int                           `json:"longest_streak"`
	CurrentDifficulty    Difficulty                    `json:"current_difficulty"`
	RebuildCount         int                           `json:"rebuild_count"`
	CompletionPercentage float64                       `json:"completion_percentage"`
	AverageResponseTime  time.Duration                 `json:"average_response_time"`
	CategoryBreakdown    map[Category]BreakdownEntry   `json:"category_breakdown"`
	DifficultyBreakdown  map[Difficulty]BreakdownEntry `json:"difficulty_breakdown"`
	UnlockedAchievements []string                      `json:"unlocked_achievements"`
	Duration             time.Duration                 `json:"duration"`
}

// GameSnapshot is the opaque value callers persist and restore
type GameSnapshot struct {
	State  GameState `json:"state"`
	Blocks []Block   `json:"blocks"`
}
