package sessions

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jgirmay/privacy-tower/pkg/database"
	"github.com/jgirmay/privacy-tower/pkg/engine"
	"github.com/jgirmay/privacy-tower/pkg/models"
	"github.com/jgirmay/privacy-tower/pkg/questions"
	"github.com/jgirmay/privacy-tower/pkg/repository"
	"github.com/jgirmay/privacy-tower/pkg/services/events"
)

type recordingBus struct {
	mu     sync.Mutex
	events []*events.Event
}

func (b *recordingBus) Publish(e *events.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, e)
}

func (b *recordingBus) Subscribe(events.Listener) func() { return func() {} }
func (b *recordingBus) Close()                           {}

func (b *recordingBus) ofType(t events.EventType) []*events.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []*events.Event
	for _, e := range b.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newManager(t *testing.T, opts ...Option) (*Manager, *recordingBus) {
	t.Helper()
	bus := &recordingBus{}
	m, err := NewManager(questions.Default(), append([]Option{WithBus(bus)}, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { m.Close(context.Background()) })
	return m, bus
}

// firstIntact returns the first block still standing, with content
func firstIntact(t *testing.T, m *Manager, id string) models.Block {
	t.Helper()
	blocks, err := m.Blocks(id)
	require.NoError(t, err)
	for _, b := range blocks {
		if !b.Removed && b.HasQuestion() {
			return b
		}
	}
	t.Fatal("no intact block")
	return models.Block{}
}

func wrongChoice(b models.Block) int {
	return (b.Content.Question.CorrectIndex + 1) % len(b.Content.Question.Choices)
}

func TestNewManagerRequiresBank(t *testing.T) {
	_, err := NewManager(nil)
	assert.ErrorIs(t, err, engine.ErrNoBank)
}

func TestCreate(t *testing.T) {
	var gauge []int
	m, bus := newManager(t, WithSessionGauge(func(n int) { gauge = append(gauge, n) }))

	id, state, err := m.Create(context.Background(), "  alice  ")
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.Equal(t, "alice", state.Player.Nickname)
	assert.Equal(t, models.PhasePlaying, state.GamePhase)
	assert.Equal(t, 52, state.TotalBlocks)
	assert.Equal(t, 1, m.Count())
	assert.Equal(t, []int{1}, gauge)

	info, err := m.Get(id)
	require.NoError(t, err)
	assert.Equal(t, "alice", info.Player)
	assert.Equal(t, 100, info.Stability)

	started := bus.ofType(events.GameStarted)
	require.Len(t, started, 1)
	assert.Equal(t, id, started[0].SessionID)
	assert.Equal(t, 52, started[0].Data["total_blocks"])

	for _, bad := range []string{"", "   ", "<script>", "a-name-that-is-far-too-long-to-be-accepted"} {
		_, _, err := m.Create(context.Background(), bad)
		assert.ErrorIs(t, err, ErrInvalidNickname, bad)
	}
}

func TestCreateRespectsCapacity(t *testing.T) {
	m, _ := newManager(t, WithConfig(Config{MaxSessions: 2}))

	_, _, err := m.Create(context.Background(), "a")
	require.NoError(t, err)
	_, _, err = m.Create(context.Background(), "b")
	require.NoError(t, err)
	_, _, err = m.Create(context.Background(), "c")
	assert.ErrorIs(t, err, ErrTooManySessions)
	assert.Equal(t, 2, m.Count())
	assert.Equal(t, 2, m.Capacity())
}

func TestUnknownSession(t *testing.T) {
	m, _ := newManager(t)

	_, err := m.State("nope")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = m.Click("nope", models.BlockID(1, 1))
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = m.Answer("nope", models.BlockID(1, 1), 0, time.Second)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.ErrorIs(t, m.Delete(context.Background(), "nope"), ErrSessionNotFound)
}

func TestClickAndAnswer(t *testing.T) {
	m, bus := newManager(t)
	id, _, err := m.Create(context.Background(), "alice")
	require.NoError(t, err)

	b := firstIntact(t, m, id)
	item, err := m.Click(id, b.ID)
	require.NoError(t, err)
	assert.Equal(t, b.Content.ID, item.ID)
	require.Len(t, bus.ofType(events.BlockRevealed), 1)

	_, err = m.Click(id, "block-99-9")
	assert.ErrorIs(t, err, ErrBlockUnavailable)

	_, err = m.Answer(id, b.ID, 99, time.Second)
	assert.ErrorIs(t, err, engine.ErrInvalidChoice)
	assert.Empty(t, bus.ofType(events.QuizAnswered), "failed answers publish nothing")

	result, err := m.Answer(id, b.ID, b.Content.Question.CorrectIndex, 2*time.Second)
	require.NoError(t, err)
	assert.True(t, result.IsCorrect)
	assert.Contains(t, result.UnlockedAchievements, engine.AchievementFirstBlock)

	answered := bus.ofType(events.QuizAnswered)
	require.Len(t, answered, 1)
	data := answered[0].Data
	assert.Equal(t, true, data["correct"])
	assert.Equal(t, string(b.Difficulty), data["difficulty"])
	assert.Equal(t, result.StabilityDelta, data["stability_delta"])
	assert.Equal(t, 2*time.Second, data["response_time"])

	unlocked := bus.ofType(events.AchievementUnlocked)
	require.NotEmpty(t, unlocked)
	assert.Equal(t, engine.AchievementFirstBlock, unlocked[0].Data["achievement"])
	assert.Equal(t, 10, unlocked[0].Data["points"])

	_, err = m.Answer(id, b.ID, 0, time.Second)
	assert.ErrorIs(t, err, engine.ErrBlockRemoved)

	state, err := m.State(id)
	require.NoError(t, err)
	assert.Equal(t, 1, state.BlocksRemoved)
}

func TestCollapseRebuildAndReset(t *testing.T) {
	m, bus := newManager(t)
	id, _, err := m.Create(context.Background(), "bob")
	require.NoError(t, err)

	_, err = m.Rebuild(id)
	assert.ErrorIs(t, err, engine.ErrInvalidPhase)

	collapsed := false
	for i := 0; i < 40 && !collapsed; i++ {
		b := firstIntact(t, m, id)
		result, err := m.Answer(id, b.ID, wrongChoice(b), time.Second)
		require.NoError(t, err)
		collapsed = result.Collapsed
	}
	require.True(t, collapsed, "repeated wrong answers collapse the tower")
	require.Len(t, bus.ofType(events.TowerCollapsed), 1)

	_, err = m.Roll(id)
	assert.ErrorIs(t, err, engine.ErrInvalidPhase)

	state, err := m.Rebuild(id)
	require.NoError(t, err)
	assert.Equal(t, models.PhasePlaying, state.GamePhase)
	assert.Equal(t, 1, state.RebuildCount)
	assert.Equal(t, 100, state.TowerStability)
	require.Len(t, bus.ofType(events.TowerRebuilt), 1)

	outcome, err := m.Roll(id)
	require.NoError(t, err)
	roll := outcome.Roll
	assert.GreaterOrEqual(t, roll.Value, 1)
	assert.LessOrEqual(t, roll.Value, 6)
	assert.NotEmpty(t, outcome.Accessible)
	for _, b := range outcome.Accessible {
		assert.False(t, b.Removed)
		assert.LessOrEqual(t, b.Layer, roll.MaxLayer)
	}
	assert.NotEmpty(t, outcome.Suggested)
	assert.LessOrEqual(t, len(outcome.Suggested), len(outcome.Accessible))
	require.Len(t, bus.ofType(events.DiceRolled), 1)

	state, err = m.Reset(id)
	require.NoError(t, err)
	assert.Equal(t, 2, state.Player.GamesPlayed)
	assert.Zero(t, state.RebuildCount)
	reset := bus.ofType(events.GameReset)
	require.Len(t, reset, 1)
	assert.Equal(t, string(models.PhasePlaying), reset[0].Data["previous_phase"])
}

func TestDeletePersistsProfile(t *testing.T) {
	db, err := database.OpenMemory()
	require.NoError(t, err)
	repos := repository.NewRegistry(db)
	require.NoError(t, repos.Initialize())
	t.Cleanup(func() { repos.Close() })

	var gauge []int
	m, bus := newManager(t,
		WithRepositories(repos.GameSnapshotRepository, repos.PlayerProfileRepository),
		WithSessionGauge(func(n int) { gauge = append(gauge, n) }))
	ctx := context.Background()

	id, _, err := m.Create(context.Background(), "carol")
	require.NoError(t, err)
	b := firstIntact(t, m, id)
	_, err = m.Answer(id, b.ID, b.Content.Question.CorrectIndex, time.Second)
	require.NoError(t, err)

	require.NoError(t, m.Delete(ctx, id))
	assert.Zero(t, m.Count())
	assert.Equal(t, []int{1, 0}, gauge)

	_, err = m.State(id)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	ended := bus.ofType(events.SessionEnded)
	require.Len(t, ended, 1)
	assert.Equal(t, "deleted", ended[0].Data["reason"])

	record, err := repos.PlayerProfileRepository.Get(ctx, "carol")
	require.NoError(t, err)
	assert.Equal(t, 1, record.QuestionsAnswered)
	assert.Equal(t, 1, record.CorrectAnswers)
	assert.Equal(t, 1, record.GamesPlayed)
}

func TestReturningPlayerKeepsProfile(t *testing.T) {
	db, err := database.OpenMemory()
	require.NoError(t, err)
	repos := repository.NewRegistry(db)
	require.NoError(t, repos.Initialize())
	t.Cleanup(func() { repos.Close() })

	m, bus := newManager(t, WithRepositories(repos.GameSnapshotRepository, repos.PlayerProfileRepository))
	ctx := context.Background()
	players := repos.PlayerProfileRepository

	first, _, err := m.Create(ctx, "alice")
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		b := firstIntact(t, m, first)
		_, err := m.Answer(first, b.ID, b.Content.Question.CorrectIndex, 8*time.Second)
		require.NoError(t, err)
	}
	_, err = m.Save(ctx, first)
	require.NoError(t, err)
	require.NoError(t, m.Delete(ctx, first))

	stored, err := players.Get(ctx, "alice")
	require.NoError(t, err)
	require.Greater(t, stored.TotalScore, 0)
	assert.Equal(t, 3, stored.QuestionsAnswered, "save then delete counts once")
	assert.Equal(t, 1, stored.GamesPlayed)
	assert.True(t, stored.Profile().Achievements[engine.AchievementFirstBlock].IsUnlocked)

	second, state, err := m.Create(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, stored.TotalScore, state.Player.TotalScore)
	assert.Equal(t, 2, state.Player.GamesPlayed)
	assert.Zero(t, state.CurrentScore)

	unlockedBefore := len(bus.ofType(events.AchievementUnlocked))
	b := firstIntact(t, m, second)
	res, err := m.Answer(second, b.ID, wrongChoice(b), 8*time.Second)
	require.NoError(t, err)
	assert.NotContains(t, res.UnlockedAchievements, engine.AchievementFirstBlock)
	assert.Len(t, bus.ofType(events.AchievementUnlocked), unlockedBefore)
	require.NoError(t, m.Delete(ctx, second))

	after, err := players.Get(ctx, "alice")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, after.TotalScore, stored.TotalScore+res.Points)
	assert.Equal(t, 4, after.QuestionsAnswered)
	assert.Equal(t, 3, after.CorrectAnswers)
	assert.Equal(t, 2, after.GamesPlayed)
	assert.Equal(t, stored.BestStreak, after.BestStreak)
}

func TestParallelSessionsOfOnePlayerBothCount(t *testing.T) {
	db, err := database.OpenMemory()
	require.NoError(t, err)
	repos := repository.NewRegistry(db)
	require.NoError(t, repos.Initialize())
	t.Cleanup(func() { repos.Close() })

	m, _ := newManager(t, WithRepositories(repos.GameSnapshotRepository, repos.PlayerProfileRepository))
	ctx := context.Background()

	a, _, err := m.Create(ctx, "frank")
	require.NoError(t, err)
	b, _, err := m.Create(ctx, "frank")
	require.NoError(t, err)
	for _, id := range []string{a, b} {
		blk := firstIntact(t, m, id)
		_, err := m.Answer(id, blk.ID, blk.Content.Question.CorrectIndex, 8*time.Second)
		require.NoError(t, err)
	}
	require.NoError(t, m.Delete(ctx, a))
	require.NoError(t, m.Delete(ctx, b))

	stored, err := repos.PlayerProfileRepository.Get(ctx, "frank")
	require.NoError(t, err)
	assert.Equal(t, 2, stored.GamesPlayed)
	assert.Equal(t, 2, stored.QuestionsAnswered)
	assert.Equal(t, 2, stored.CorrectAnswers)
}

func TestSaveAndRestore(t *testing.T) {
	db, err := database.OpenMemory()
	require.NoError(t, err)
	repos := repository.NewRegistry(db)
	require.NoError(t, repos.Initialize())
	t.Cleanup(func() { repos.Close() })

	m, _ := newManager(t, WithRepositories(repos.GameSnapshotRepository, repos.PlayerProfileRepository))
	ctx := context.Background()

	id, _, err := m.Create(context.Background(), "dave")
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		b := firstIntact(t, m, id)
		_, err := m.Answer(id, b.ID, b.Content.Question.CorrectIndex, time.Second)
		require.NoError(t, err)
	}
	before, err := m.State(id)
	require.NoError(t, err)

	record, err := m.Save(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, record.SessionID)
	assert.Equal(t, before.CurrentScore, record.Score)

	require.NoError(t, m.Delete(ctx, id))

	restored, err := m.Restore(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, before.CurrentScore, restored.CurrentScore)
	assert.Equal(t, 3, restored.BlocksRemoved)
	assert.Equal(t, before.ContentShown, restored.ContentShown)
	assert.Equal(t, 1, m.Count())

	b := firstIntact(t, m, id)
	_, err = m.Answer(id, b.ID, b.Content.Question.CorrectIndex, time.Second)
	require.NoError(t, err, "restored sessions keep playing")

	_, err = m.Restore(ctx, "never-saved")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSaveWithoutPersistence(t *testing.T) {
	m, _ := newManager(t)
	id, _, err := m.Create(context.Background(), "erin")
	require.NoError(t, err)

	_, err = m.Save(context.Background(), id)
	assert.ErrorIs(t, err, ErrNoPersistence)
	_, err = m.Restore(context.Background(), id)
	assert.ErrorIs(t, err, ErrNoPersistence)
}

func TestSweepExpiresIdleSessions(t *testing.T) {
	clk := &clock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	m, bus := newManager(t,
		WithClock(clk.Now),
		WithConfig(Config{IdleTimeout: 10 * time.Minute, SweepInterval: time.Minute}))

	idle, _, err := m.Create(context.Background(), "idle")
	require.NoError(t, err)
	busy, _, err := m.Create(context.Background(), "busy")
	require.NoError(t, err)

	clk.Advance(8 * time.Minute)
	_, err = m.State(busy)
	require.NoError(t, err)

	clk.Advance(5 * time.Minute)
	assert.Equal(t, 1, m.Sweep(context.Background()))

	_, err = m.Get(idle)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = m.Get(busy)
	assert.NoError(t, err)

	ended := bus.ofType(events.SessionEnded)
	require.Len(t, ended, 1)
	assert.Equal(t, "idle", ended[0].Data["reason"])
}

func TestListOrdersByCreation(t *testing.T) {
	clk := &clock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	m, _ := newManager(t, WithClock(clk.Now))

	first, _, err := m.Create(context.Background(), "first")
	require.NoError(t, err)
	clk.Advance(time.Second)
	second, _, err := m.Create(context.Background(), "second")
	require.NoError(t, err)

	list := m.List()
	require.Len(t, list, 2)
	assert.Equal(t, first, list[0].ID)
	assert.Equal(t, second, list[1].ID)
}

func TestConcurrentAnswersOnOneSession(t *testing.T) {
	m, bus := newManager(t)
	id, _, err := m.Create(context.Background(), "racer")
	require.NoError(t, err)

	b := firstIntact(t, m, id)
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := m.Answer(id, b.ID, b.Content.Question.CorrectIndex, time.Second); err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes, "a block can be answered once")
	state, err := m.State(id)
	require.NoError(t, err)
	assert.Equal(t, 1, state.BlocksRemoved)
	assert.Len(t, bus.ofType(events.QuizAnswered), 1)
}

func TestEventsFollowSessionOrder(t *testing.T) {
	m, bus := newManager(t)
	id, _, err := m.Create(context.Background(), "racer")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = m.Reset(id)
		}()
		go func() {
			defer wg.Done()
			blocks, err := m.Blocks(id)
			if err != nil {
				return
			}
			for _, b := range blocks {
				if !b.Removed && b.HasQuestion() {
					_, _ = m.Answer(id, b.ID, b.Content.Question.CorrectIndex, time.Second)
					return
				}
			}
		}()
	}
	wg.Wait()

	resets := bus.ofType(events.GameReset)
	require.Len(t, resets, 8)
	last := 0
	for _, e := range resets {
		played, ok := e.Data["games_played"].(int)
		require.True(t, ok)
		assert.Greater(t, played, last, "resets published out of order")
		last = played
	}

	state, err := m.State(id)
	require.NoError(t, err)
	assert.Equal(t, last, state.Player.GamesPlayed)
}

func TestCloseEndsSessions(t *testing.T) {
	bus := &recordingBus{}
	m, err := NewManager(questions.Default(), WithBus(bus), WithConfig(Config{IdleTimeout: time.Minute, SweepInterval: 10 * time.Millisecond}))
	require.NoError(t, err)
	m.Start(context.Background())

	_, _, err = m.Create(context.Background(), "a")
	require.NoError(t, err)
	_, _, err = m.Create(context.Background(), "b")
	require.NoError(t, err)

	m.Close(context.Background())
	assert.Zero(t, m.Count())
	assert.Len(t, bus.ofType(events.SessionEnded), 2)

	_, _, err = m.Create(context.Background(), "c")
	assert.ErrorIs(t, err, ErrManagerClosed)
}
