package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jgirmay/privacy-tower/pkg/database"
	"github.com/jgirmay/privacy-tower/pkg/models"
)

func setupRegistry(t *testing.T) *Registry {
	t.Helper()
	db, err := database.OpenMemory()
	require.NoError(t, err)

	reg := NewRegistry(db)
	require.NoError(t, reg.Initialize())
	t.Cleanup(func() { reg.Close() })
	return reg
}

func snapshotFor(player string, score int) models.GameSnapshot {
	return models.GameSnapshot{
		State: models.GameState{
			Player:         models.PlayerProfile{Nickname: player},
			CurrentScore:   score,
			TowerStability: 70,
			GamePhase:      models.PhasePlaying,
			TotalBlocks:    1,
		},
		Blocks: []models.Block{{ID: models.BlockID(1, 1), Layer: 1, Position: 1}},
	}
}

func TestGameSnapshotRepository(t *testing.T) {
	ctx := context.Background()
	repo := setupRegistry(t).GameSnapshotRepository

	first, err := repo.Save(ctx, "session-1", snapshotFor("alice", 10))
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	second, err := repo.Save(ctx, "session-1", snapshotFor("alice", 40))
	require.NoError(t, err)
	_, err = repo.Save(ctx, "session-2", snapshotFor("bob", 5))
	require.NoError(t, err)

	latest, err := repo.Latest(ctx, "session-1")
	require.NoError(t, err)
	assert.Equal(t, second.ID, latest.ID)
	assert.Equal(t, 40, latest.Score)
	assert.Equal(t, models.PhasePlaying, latest.Phase)

	snap, err := DecodeSnapshot(latest)
	require.NoError(t, err)
	assert.Equal(t, 40, snap.State.CurrentScore)
	require.Len(t, snap.Blocks, 1)
	assert.Equal(t, "block-1-1", snap.Blocks[0].ID)

	got, err := repo.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, got.Score)

	list, err := repo.ListByPlayer(ctx, "alice", 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)

	require.NoError(t, repo.DeleteBySession(ctx, "session-1"))
	_, err = repo.Latest(ctx, "session-1")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = repo.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPlayerProfileRepository(t *testing.T) {
	ctx := context.Background()
	repo := setupRegistry(t).PlayerProfileRepository

	require.NoError(t, repo.Merge(ctx, &models.PlayerRecord{Nickname: "alice", TotalScore: 100, GamesPlayed: 1, BestStreak: 6}))
	require.NoError(t, repo.Merge(ctx, &models.PlayerRecord{Nickname: "bob", TotalScore: 300, GamesPlayed: 2}))
	require.NoError(t, repo.Merge(ctx, &models.PlayerRecord{Nickname: "alice", TotalScore: 350, GamesPlayed: 2, QuestionsAnswered: 4, BestStreak: 3}))

	alice, err := repo.Get(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 450, alice.TotalScore)
	assert.Equal(t, 3, alice.GamesPlayed)
	assert.Equal(t, 4, alice.QuestionsAnswered)
	assert.Equal(t, 6, alice.BestStreak, "best streak keeps the maximum")

	top, err := repo.Top(ctx, 10)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "alice", top[0].Nickname)
	assert.Equal(t, "bob", top[1].Nickname)

	_, err = repo.Get(ctx, "carol")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPlayerProfileMergeKeepsUnlocks(t *testing.T) {
	ctx := context.Background()
	repo := setupRegistry(t).PlayerProfileRepository

	early := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	late := early.Add(time.Hour)
	first := models.PlayerProfile{Nickname: "dana", TotalScore: 20, Achievements: map[string]models.AchievementState{
		"first-block": {IsUnlocked: true, UnlockedAt: &late},
		"survivor":    {},
	}}
	require.NoError(t, repo.Merge(ctx, models.PlayerRecordFromProfile(first)))

	second := models.PlayerProfile{Nickname: "dana", TotalScore: -50, Achievements: map[string]models.AchievementState{
		"first-block":   {IsUnlocked: true, UnlockedAt: &early},
		"fast-thinker":  {IsUnlocked: true, UnlockedAt: &late},
		"perfect-round": {},
	}}
	require.NoError(t, repo.Merge(ctx, models.PlayerRecordFromProfile(second)))

	dana, err := repo.Get(ctx, "dana")
	require.NoError(t, err)
	assert.Equal(t, 0, dana.TotalScore, "score never drops below zero")

	profile := dana.Profile()
	assert.Len(t, profile.Achievements, 2)
	assert.True(t, profile.Achievements["fast-thinker"].IsUnlocked)
	assert.True(t, early.Equal(*profile.Achievements["first-block"].UnlockedAt))
}

func TestProgressSince(t *testing.T) {
	base := models.PlayerProfile{Nickname: "erin", TotalScore: 100, GamesPlayed: 2, QuestionsAnswered: 10, BestStreak: 4}
	cur := models.PlayerProfile{Nickname: "erin", TotalScore: 130, GamesPlayed: 3, QuestionsAnswered: 13, CorrectAnswers: 2, BestStreak: 4}

	progress := models.ProgressSince(base, cur)
	assert.Equal(t, 30, progress.TotalScore)
	assert.Equal(t, 1, progress.GamesPlayed)
	assert.Equal(t, 3, progress.QuestionsAnswered)
	assert.Equal(t, 2, progress.CorrectAnswers)
	assert.Equal(t, 4, progress.BestStreak)
}
