package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// GameSnapshotRecord is a saved session snapshot
type GameSnapshotRecord struct {
	ID           uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	SessionID    string         `json:"session_id" gorm:"type:varchar(64);index"`
	Player       string         `json:"player" gorm:"type:varchar(64);index"`
	Phase        GamePhase      `json:"phase" gorm:"type:varchar(20)"`
	Score        int            `json:"score"`
	Stability    int            `json:"stability"`
	RebuildCount int            `json:"rebuild_count"`
	Snapshot     datatypes.JSON `json:"snapshot"`
	CreatedAt    time.Time      `json:"created_at" gorm:"index"`
}

// TableName specifies the table name for GORM
func (GameSnapshotRecord) TableName() string {
	return "game_snapshots"
}

// PlayerRecord is the persisted cumulative profile of a player
type PlayerRecord struct {
	Nickname          string         `json:"nickname" gorm:"type:varchar(64);primaryKey"`
	TotalScore        int            `json:"total_score" gorm:"index"`
	GamesPlayed       int            `json:"games_played"`
	QuestionsAnswered int            `json:"questions_answered"`
	CorrectAnswers    int            `json:"correct_answers"`
	BlocksRemoved     int            `json:"blocks_removed"`
	BestStreak        int            `json:"best_streak"`
	Achievements      datatypes.JSON `json:"achievements"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (PlayerRecord) TableName() string {
	return "players"
}

// PlayerRecordFromProfile copies the counters and unlocked achievements of an in-game profile
func PlayerRecordFromProfile(p PlayerProfile) *PlayerRecord {
	return &PlayerRecord{
		Nickname:          p.Nickname,
		TotalScore:        p.TotalScore,
		GamesPlayed:       p.GamesPlayed,
		QuestionsAnswered: p.QuestionsAnswered,
		CorrectAnswers:    p.CorrectAnswers,
		BlocksRemoved:     p.BlocksRemoved,
		BestStreak:        p.BestStreak,
		Achievements:      encodeUnlocked(p.Achievements),
	}
}

// ProgressSince returns what cur gained over base as a record to merge.
// Counters are differences; best streak and unlocks are cur's own.
func ProgressSince(base, cur PlayerProfile) *PlayerRecord {
	return &PlayerRecord{
		Nickname:          cur.Nickname,
		TotalScore:        cur.TotalScore - base.TotalScore,
		GamesPlayed:       cur.GamesPlayed - base.GamesPlayed,
		QuestionsAnswered: cur.QuestionsAnswered - base.QuestionsAnswered,
		CorrectAnswers:    cur.CorrectAnswers - base.CorrectAnswers,
		BlocksRemoved:     cur.BlocksRemoved - base.BlocksRemoved,
		BestStreak:        cur.BestStreak,
		Achievements:      encodeUnlocked(cur.Achievements),
	}
}

// Merge folds progress into r. Counters add up and never drop below zero,
// the best streak keeps the maximum and an unlock keeps its earliest time.
func (r *PlayerRecord) Merge(progress *PlayerRecord) {
	r.TotalScore = max(0, r.TotalScore+progress.TotalScore)
	r.GamesPlayed = max(0, r.GamesPlayed+progress.GamesPlayed)
	r.QuestionsAnswered = max(0, r.QuestionsAnswered+progress.QuestionsAnswered)
	r.CorrectAnswers = max(0, r.CorrectAnswers+progress.CorrectAnswers)
	r.BlocksRemoved = max(0, r.BlocksRemoved+progress.BlocksRemoved)
	r.BestStreak = max(r.BestStreak, progress.BestStreak)

	unlocked := r.UnlockedAchievements()
	for id, st := range progress.UnlockedAchievements() {
		prev, ok := unlocked[id]
		if !ok || (st.UnlockedAt != nil && prev.UnlockedAt != nil && st.UnlockedAt.Before(*prev.UnlockedAt)) {
			unlocked[id] = st
		}
	}
	r.Achievements = encodeUnlocked(unlocked)
}

// UnlockedAchievements decodes the stored unlocks. A malformed column reads as none.
func (r *PlayerRecord) UnlockedAchievements() map[string]AchievementState {
	out := make(map[string]AchievementState)
	if len(r.Achievements) == 0 {
		return out
	}
	if err := json.Unmarshal(r.Achievements, &out); err != nil {
		return make(map[string]AchievementState)
	}
	return out
}

// Profile converts the record back into an in-game profile
func (r *PlayerRecord) Profile() PlayerProfile {
	return PlayerProfile{
		Nickname:          r.Nickname,
		TotalScore:        r.TotalScore,
		GamesPlayed:       r.GamesPlayed,
		QuestionsAnswered: r.QuestionsAnswered,
		CorrectAnswers:    r.CorrectAnswers,
		BlocksRemoved:     r.BlocksRemoved,
		BestStreak:        r.BestStreak,
		Achievements:      r.UnlockedAchievements(),
	}
}

func encodeUnlocked(states map[string]AchievementState) datatypes.JSON {
	unlocked := make(map[string]AchievementState, len(states))
	for id, st := range states {
		if st.IsUnlocked {
			unlocked[id] = st
		}
	}
	data, err := json.Marshal(unlocked)
	if err != nil {
		return datatypes.JSON("{}")
	}
	return datatypes.JSON(data)
}
