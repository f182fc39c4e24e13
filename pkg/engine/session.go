package engine

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jgirmay/privacy-tower/pkg/models"
	"github.com/jgirmay/privacy-tower/pkg/questions"
)

// Session owns one game's authoritative state. It is not safe for concurrent use;
// callers serialise operations per session.
type Session struct {
	cfg          Config
	bank         *questions.Bank
	tracker      *ContentTracker
	builder      *TowerBuilder
	adaptive     *AdaptiveTracker
	achievements *AchievementEvaluator
	logger       *zap.Logger
	now          func() time.Time
	rng          *rand.Rand
	profile      *models.PlayerProfile

	state  models.GameState
	blocks []models.Block
	index  map[string]int
}

// Option customises a Session
type Option func(*Session)

func WithConfig(cfg Config) Option {
	return func(s *Session) { s.cfg = cfg }
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock replaces time.Now, mostly for tests
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// WithRand sets the dice source
func WithRand(r *rand.Rand) Option {
	return func(s *Session) { s.rng = r }
}

// WithProfile carries a returning player's cumulative profile into the
// session. Unlocked achievements stay unlocked and are not awarded again.
func WithProfile(p models.PlayerProfile) Option {
	return func(s *Session) {
		s.profile = &p
	}
}

// NewSession creates a session for nickname and initializes the first game
func NewSession(bank *questions.Bank, nickname string, opts ...Option) (*Session, error) {
	s, err := newSession(bank, opts...)
	if err != nil {
		return nil, err
	}
	s.state.Player = models.PlayerProfile{Nickname: nickname}
	if s.profile == nil {
		s.InitializeGame()
		return s, nil
	}

	player := models.GameState{Player: *s.profile}.Clone().Player
	player.Nickname = nickname
	player.GamesPlayed++
	for id, st := range s.achievements.lockedStates() {
		if _, ok := player.Achievements[id]; !ok {
			player.Achievements[id] = st
		}
	}
	s.state.Player = player
	s.startGame()
	return s, nil
}

func newSession(bank *questions.Bank, opts ...Option) (*Session, error) {
	if bank == nil || bank.Len() == 0 {
		return nil, ErrNoBank
	}

	s := &Session{
		cfg:    DefaultConfig(),
		bank:   bank,
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.cfg.Validate(); err != nil {
		return nil, err
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewPCG(uint64(s.now().UnixNano()), 0x7077657221))
	}

	s.tracker = NewContentTracker(bank)
	s.builder = NewTowerBuilder(s.tracker, s.cfg.Tower)
	s.adaptive = NewAdaptiveTracker(s.cfg.Adaptive)
	s.achievements = NewAchievementEvaluator(s.cfg.Achievements)
	return s, nil
}

// InitializeGame starts a new game with a fresh player profile
func (s *Session) InitializeGame() models.GameState {
	s.state.Player = models.PlayerProfile{
		Nickname:     s.state.Player.Nickname,
		GamesPlayed:  1,
		Achievements: s.achievements.lockedStates(),
	}
	s.startGame()
	return s.GameState()
}

// ResetGame starts a new game but keeps the cumulative player profile
func (s *Session) ResetGame() models.GameState {
	s.state.Player.GamesPlayed++
	s.startGame()
	s.logger.Info("game reset",
		zap.String("player", s.state.Player.Nickname),
		zap.Int("games_played", s.state.Player.GamesPlayed))
	return s.GameState()
}

func (s *Session) startGame() {
	player := s.state.Player
	s.tracker = NewContentTracker(s.bank)
	s.builder = NewTowerBuilder(s.tracker, s.cfg.Tower)
	s.setBlocks(s.builder.Build())

	s.state = models.GameState{
		TowerStability:    s.cfg.Stability.Max,
		TotalBlocks:       len(s.blocks),
		CurrentDifficulty: s.cfg.InitialDifficulty,
		GamePhase:         models.PhasePlaying,
		ContentShown:      []string{},
		Player:            player,
		History:           []models.GameMove{},
		LearningProgress:  make(map[models.Category]models.CategoryProgress),
		Adaptive: models.AdaptiveState{
			CategoryAccuracy:   make(map[models.Category]float64),
			DifficultyAccuracy: make(map[models.Difficulty]float64),
		},
		StartedAt: s.now(),
	}
}

func (s *Session) setBlocks(blocks []models.Block) {
	s.blocks = blocks
	s.index = make(map[string]int, len(blocks))
	for i, b := range blocks {
		s.index[b.ID] = i
	}
}

func (s *Session) block(id string) *models.Block {
	i, ok := s.index[id]
	if !ok {
		return nil
	}
	return &s.blocks[i]
}

// HandleBlockClick reveals a block's content. It returns nil when the block
// is missing, already removed, or the game is not being played.
func (s *Session) HandleBlockClick(blockID string) *models.ContentItem {
	if s.state.GamePhase != models.PhasePlaying {
		return nil
	}
	b := s.block(blockID)
	if b == nil || b.Removed || b.Content == nil {
		return nil
	}

	item := b.Content
	if s.tracker.MarkAsShown(item.ID) {
		p := s.state.LearningProgress[item.Category]
		p.Seen++
		s.state.LearningProgress[item.Category] = p
		s.state.ContentShown = s.tracker.Shown()
	}

	s.appendMove(models.GameMove{
		BlockID:    b.ID,
		Action:     models.ActionBlockClicked,
		Result:     models.ResultRevealed,
		Difficulty: item.Difficulty,
		Category:   item.Category,
		Content:    item.Clone(),
	})
	return item.Clone()
}

// HandleQuizAnswer scores an answer for blockID. On error the state is unchanged.
func (s *Session) HandleQuizAnswer(blockID string, selected int, elapsed time.Duration) (*models.QuizResult, error) {
	if s.state.GamePhase != models.PhasePlaying {
		return nil, ErrInvalidPhase
	}
	b := s.block(blockID)
	if b == nil {
		return nil, fmt.Errorf("%w: %s", ErrBlockNotFound, blockID)
	}
	if b.Removed {
		return nil, fmt.Errorf("%w: %s", ErrBlockRemoved, blockID)
	}
	if !b.HasQuestion() {
		return nil, fmt.Errorf("%w: %s", ErrNoQuestion, blockID)
	}
	item := b.Content
	if selected < 0 || selected >= len(item.Question.Choices) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidChoice, selected)
	}

	st := &s.state
	correct := selected == item.Question.CorrectIndex

	delta := s.cfg.Stability.Delta(item, correct, st.ConsecutiveCorrect, st.ConsecutiveIncorrect, st.TowerStability)
	st.TowerStability = s.cfg.Stability.Clamp(st.TowerStability + delta)

	raw := item.Points.Incorrect
	if correct {
		raw = item.Points.Correct
	}
	before := st.CurrentScore
	st.CurrentScore = max(0, st.CurrentScore+raw)
	points := st.CurrentScore - before
	st.Player.TotalScore = max(0, st.Player.TotalScore+points)

	progress := st.LearningProgress[item.Category]
	if s.tracker.MarkAsShown(item.ID) {
		progress.Seen++
		st.ContentShown = s.tracker.Shown()
	}
	result := models.ResultIncorrect
	if correct {
		result = models.ResultCorrect
		st.CorrectAnswers++
		st.ConsecutiveCorrect++
		st.ConsecutiveIncorrect = 0
		st.LongestStreak = max(st.LongestStreak, st.ConsecutiveCorrect)
		st.Player.CorrectAnswers++
		st.Player.BestStreak = max(st.Player.BestStreak, st.ConsecutiveCorrect)
		progress.Correct++
	} else {
		st.IncorrectAnswers++
		st.ConsecutiveIncorrect++
		st.ConsecutiveCorrect = 0
		progress.Incorrect++
	}
	st.LearningProgress[item.Category] = progress

	b.Removed = true
	if st.BlocksRemoved < st.TotalBlocks {
		st.BlocksRemoved++
	}
	st.Player.QuestionsAnswered++
	st.Player.BlocksRemoved++

	s.appendMove(models.GameMove{
		BlockID:        b.ID,
		Action:         models.ActionQuizAnswered,
		Result:         result,
		PointsDelta:    points,
		StabilityDelta: delta,
		Difficulty:     item.Difficulty,
		Category:       item.Category,
		Content:        item.Clone(),
		ResponseTime:   elapsed,
	})

	impact := s.adaptive.Update(st, item.Category)
	if impact.Changed {
		s.logger.Debug("difficulty adjusted",
			zap.String("from", string(impact.PreviousDifficulty)),
			zap.String("to", string(impact.RecommendedDifficulty)),
			zap.Float64("accuracy", impact.OverallAccuracy))
	}

	allShown := s.tracker.IsAllContentShown()
	scoreBeforeAchievements := st.CurrentScore
	unlocked := s.achievements.Evaluate(st, EvalContext{
		Correct:         correct,
		ResponseTime:    elapsed,
		FastAnswer:      s.cfg.FastAnswer,
		AllContentShown: allShown,
		Now:             s.now(),
	})
	bonus := st.CurrentScore - scoreBeforeAchievements
	st.History[len(st.History)-1].PointsDelta += bonus
	for _, id := range unlocked {
		s.logger.Info("achievement unlocked",
			zap.String("player", st.Player.Nickname),
			zap.String("achievement", id))
	}

	switch {
	case st.TowerStability == 0:
		st.GamePhase = models.PhaseCollapsed
		st.IsCollapsed = true
		s.logger.Info("tower collapsed",
			zap.String("player", st.Player.Nickname),
			zap.Int("blocks_removed", st.BlocksRemoved),
			zap.Int("rebuild_count", st.RebuildCount))
	case allShown:
		st.GamePhase = models.PhaseCompleted
		s.logger.Info("game completed",
			zap.String("player", st.Player.Nickname),
			zap.Int("score", st.CurrentScore))
	}

	return &models.QuizResult{
		IsCorrect:            correct,
		CorrectIndex:         item.Question.CorrectIndex,
		SelectedIndex:        selected,
		Points:               points,
		AchievementPoints:    bonus,
		StabilityDelta:       delta,
		NewStability:         st.TowerStability,
		StabilityBand:        s.cfg.Stability.Band(st.TowerStability).Name,
		Explanation:          item.Explanation,
		UnlockedAchievements: unlocked,
		Collapsed:            st.GamePhase == models.PhaseCollapsed,
		Completed:            st.GamePhase == models.PhaseCompleted,
		Adaptive:             impact,
	}, nil
}

// RebuildTower replaces a collapsed or fully cleared tower. When no unseen
// content remains the game completes instead.
func (s *Session) RebuildTower() (models.GameState, error) {
	st := &s.state
	cleared := st.GamePhase == models.PhasePlaying && s.intactCount() == 0
	if st.GamePhase != models.PhaseCollapsed && !cleared {
		return s.GameState(), ErrInvalidPhase
	}

	if s.tracker.IsAllContentShown() {
		st.GamePhase = models.PhaseCompleted
		s.appendMove(models.GameMove{Action: models.ActionTowerRebuilt, Result: models.ResultCompleted})
		s.logger.Info("game completed",
			zap.String("player", st.Player.Nickname),
			zap.Int("score", st.CurrentScore))
		return s.GameState(), nil
	}

	s.setBlocks(s.builder.Build())
	st.TotalBlocks = len(s.blocks)
	st.BlocksRemoved = 0
	st.TowerStability = s.cfg.Stability.Max
	st.IsCollapsed = false
	st.GamePhase = models.PhasePlaying
	st.RebuildCount++
	st.LastDiceRoll = nil
	s.appendMove(models.GameMove{Action: models.ActionTowerRebuilt, Result: models.ResultRebuilt})

	s.logger.Info("tower rebuilt",
		zap.String("player", st.Player.Nickname),
		zap.Int("rebuild_count", st.RebuildCount),
		zap.Float64("completion", s.tracker.CompletionPercentage()))
	return s.GameState(), nil
}

func (s *Session) intactCount() int {
	n := 0
	for _, b := range s.blocks {
		if !b.Removed {
			n++
		}
	}
	return n
}

func (s *Session) appendMove(m models.GameMove) {
	m.ID = uuid.NewString()
	m.Timestamp = s.now()
	s.state.History = append(s.state.History, m)
}

// GameState returns a deep copy of the current state
func (s *Session) GameState() models.GameState {
	return s.state.Clone()
}

// Blocks returns a deep copy of the tower, bottom layer first
func (s *Session) Blocks() []models.Block {
	return cloneBlocks(s.blocks)
}

// Phase returns the current game phase
func (s *Session) Phase() models.GamePhase {
	return s.state.GamePhase
}

// Config returns the tuning the session runs with
func (s *Session) Config() Config {
	return s.cfg
}

// Achievements returns the achievement definitions in use
func (s *Session) Achievements() []models.AchievementDefinition {
	return s.achievements.Definitions()
}

// CompletionPercentage reports how much of the catalog has been shown
func (s *Session) CompletionPercentage() float64 {
	return s.tracker.CompletionPercentage()
}

func cloneBlocks(blocks []models.Block) []models.Block {
	out := make([]models.Block, len(blocks))
	for i, b := range blocks {
		b.Content = b.Content.Clone()
		out[i] = b
	}
	return out
}
