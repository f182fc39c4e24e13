package sessions

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jgirmay/privacy-tower/pkg/engine"
	"github.com/jgirmay/privacy-tower/pkg/models"
	"github.com/jgirmay/privacy-tower/pkg/questions"
	"github.com/jgirmay/privacy-tower/pkg/repository"
	"github.com/jgirmay/privacy-tower/pkg/services/events"
)

var nicknamePattern = regexp.MustCompile(`^[\p{L}\p{N} _.\-]{1,32}$`)

// Config bounds the manager's resource use
type Config struct {
	MaxSessions   int
	IdleTimeout   time.Duration
	SweepInterval time.Duration
}

// DefaultConfig returns the limits used when none are configured
func DefaultConfig() Config {
	return Config{
		MaxSessions:   1000,
		IdleTimeout:   30 * time.Minute,
		SweepInterval: time.Minute,
	}
}

// Info describes a live session without exposing its engine
type Info struct {
	ID         string           `json:"id"`
	Player     string           `json:"player"`
	Phase      models.GamePhase `json:"phase"`
	Score      int              `json:"score"`
	Stability  int              `json:"stability"`
	CreatedAt  time.Time        `json:"created_at"`
	LastActive time.Time        `json:"last_active"`
}

type entry struct {
	id         string
	player     string
	createdAt  time.Time
	lastActive time.Time
	closed     bool
	mu         sync.Mutex
	session    *engine.Session
	// persisted is the player profile already merged into storage
	persisted models.PlayerProfile
}

// Manager owns every live game session and serialises access to each one.
// Different sessions proceed in parallel.
type Manager struct {
	bank       *questions.Bank
	cfg        Config
	engineOpts []engine.Option
	bus        events.Bus
	snapshots  repository.GameSnapshotRepository
	players    repository.PlayerProfileRepository
	onCount    func(int)
	logger     *zap.Logger
	now        func() time.Time

	mu       sync.RWMutex
	sessions map[string]*entry
	closed   bool
	stop     context.CancelFunc
	wg       sync.WaitGroup
}

// Option customises a Manager
type Option func(*Manager)

func WithConfig(cfg Config) Option {
	return func(m *Manager) { m.cfg = cfg }
}

// WithEngineOptions are applied to every session the manager creates or restores
func WithEngineOptions(opts ...engine.Option) Option {
	return func(m *Manager) { m.engineOpts = append(m.engineOpts, opts...) }
}

func WithBus(bus events.Bus) Option {
	return func(m *Manager) {
		if bus != nil {
			m.bus = bus
		}
	}
}

// WithRepositories enables snapshot saves and player profile upserts
func WithRepositories(snapshots repository.GameSnapshotRepository, players repository.PlayerProfileRepository) Option {
	return func(m *Manager) {
		m.snapshots = snapshots
		m.players = players
	}
}

// WithSessionGauge is called with the live session count whenever it changes
func WithSessionGauge(fn func(int)) Option {
	return func(m *Manager) { m.onCount = fn }
}

func WithLogger(logger *zap.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// NewManager creates a manager serving sessions over bank
func NewManager(bank *questions.Bank, opts ...Option) (*Manager, error) {
	if bank == nil || bank.Len() == 0 {
		return nil, engine.ErrNoBank
	}
	m := &Manager{
		bank:     bank,
		cfg:      DefaultConfig(),
		bus:      events.NewNoOpBus(),
		logger:   zap.NewNop(),
		now:      time.Now,
		sessions: make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.Named("sessions")
	return m, nil
}

// Start launches the idle-session sweeper. It stops when ctx is cancelled or
// Close is called.
func (m *Manager) Start(ctx context.Context) {
	if m.cfg.IdleTimeout <= 0 || m.cfg.SweepInterval <= 0 {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	m.mu.Lock()
	m.stop = cancel
	m.mu.Unlock()

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ticker := time.NewTicker(m.cfg.SweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := m.Sweep(ctx); n > 0 {
					m.logger.Info("expired idle sessions", zap.Int("count", n), zap.Int("active", m.Count()))
				}
			}
		}
	}()
}

// Close stops the sweeper and ends every session, persisting player profiles
func (m *Manager) Close(ctx context.Context) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	stop := m.stop
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	m.mu.Unlock()

	if stop != nil {
		stop()
	}
	m.wg.Wait()

	for _, id := range ids {
		if err := m.end(ctx, id, "shutdown"); err != nil && !errors.Is(err, ErrSessionNotFound) {
			m.logger.Warn("failed to end session", zap.String("session_id", id), zap.Error(err))
		}
	}
}

// Create starts a new game for nickname. A returning player continues from
// their stored profile when persistence is configured.
func (m *Manager) Create(ctx context.Context, nickname string) (string, models.GameState, error) {
	nickname = strings.TrimSpace(nickname)
	if !nicknamePattern.MatchString(nickname) {
		return "", models.GameState{}, fmt.Errorf("%w: %q", ErrInvalidNickname, nickname)
	}

	baseline, err := m.storedProfile(ctx, nickname)
	if err != nil {
		return "", models.GameState{}, err
	}
	opts := append(m.sessionOptions(), engine.WithProfile(baseline))
	sess, err := engine.NewSession(m.bank, nickname, opts...)
	if err != nil {
		return "", models.GameState{}, err
	}

	id := uuid.New().String()
	if err := m.add(id, nickname, sess, baseline); err != nil {
		return "", models.GameState{}, err
	}

	state := sess.GameState()
	m.logger.Info("session created", zap.String("session_id", id), zap.String("player", nickname))
	m.publish(events.GameStarted, id, nickname, map[string]interface{}{
		"total_blocks": state.TotalBlocks,
		"difficulty":   string(state.CurrentDifficulty),
	})
	return id, state, nil
}

// Restore loads the latest saved snapshot of sessionID back into memory
func (m *Manager) Restore(ctx context.Context, sessionID string) (models.GameState, error) {
	if m.snapshots == nil {
		return models.GameState{}, ErrNoPersistence
	}
	if _, err := m.Get(sessionID); err == nil {
		return m.State(sessionID)
	}

	record, err := m.snapshots.Latest(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return models.GameState{}, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
		}
		return models.GameState{}, err
	}
	snap, err := repository.DecodeSnapshot(record)
	if err != nil {
		return models.GameState{}, err
	}
	sess, err := engine.RestoreSession(m.bank, snap, m.sessionOptions()...)
	if err != nil {
		return models.GameState{}, err
	}

	player := snap.State.Player.Nickname
	if err := m.add(sessionID, player, sess, snap.State.Player); err != nil {
		return models.GameState{}, err
	}
	m.logger.Info("session restored",
		zap.String("session_id", sessionID),
		zap.String("snapshot_id", record.ID.String()))
	return sess.GameState(), nil
}

func (m *Manager) sessionOptions() []engine.Option {
	opts := make([]engine.Option, 0, len(m.engineOpts)+1)
	opts = append(opts, engine.WithLogger(m.logger))
	return append(opts, m.engineOpts...)
}

// storedProfile loads the player's persisted profile, or an empty one for a
// first-time player or when no repository is configured
func (m *Manager) storedProfile(ctx context.Context, nickname string) (models.PlayerProfile, error) {
	empty := models.PlayerProfile{Nickname: nickname}
	if m.players == nil {
		return empty, nil
	}
	record, err := m.players.Get(ctx, nickname)
	if errors.Is(err, repository.ErrNotFound) {
		return empty, nil
	}
	if err != nil {
		return models.PlayerProfile{}, fmt.Errorf("failed to load player %s: %w", nickname, err)
	}
	return record.Profile(), nil
}

func (m *Manager) add(id, player string, sess *engine.Session, baseline models.PlayerProfile) error {
	now := m.now()
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrManagerClosed
	}
	if _, exists := m.sessions[id]; exists {
		m.mu.Unlock()
		return fmt.Errorf("session %s already active", id)
	}
	if m.cfg.MaxSessions > 0 && len(m.sessions) >= m.cfg.MaxSessions {
		m.mu.Unlock()
		return ErrTooManySessions
	}
	m.sessions[id] = &entry{
		id:         id,
		player:     player,
		createdAt:  now,
		lastActive: now,
		session:    sess,
		persisted:  baseline,
	}
	count := len(m.sessions)
	m.mu.Unlock()

	m.reportCount(count)
	return nil
}

// Get returns a summary of a live session
func (m *Manager) Get(id string) (Info, error) {
	e, err := m.lookup(id)
	if err != nil {
		return Info{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return Info{}, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return infoOf(e), nil
}

// List returns summaries of all live sessions, oldest first
func (m *Manager) List() []Info {
	m.mu.RLock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	m.mu.RUnlock()

	infos := make([]Info, 0, len(ids))
	for _, id := range ids {
		if info, err := m.Get(id); err == nil {
			infos = append(infos, info)
		}
	}
	sort.Slice(infos, func(i, j int) bool {
		if infos[i].CreatedAt.Equal(infos[j].CreatedAt) {
			return infos[i].ID < infos[j].ID
		}
		return infos[i].CreatedAt.Before(infos[j].CreatedAt)
	})
	return infos
}

// infoOf requires e.mu
func infoOf(e *entry) Info {
	st := e.session.GameState()
	return Info{
		ID:         e.id,
		Player:     e.player,
		Phase:      st.GamePhase,
		Score:      st.CurrentScore,
		Stability:  st.TowerStability,
		CreatedAt:  e.createdAt,
		LastActive: e.lastActive,
	}
}

// Count returns the number of live sessions
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Capacity returns the configured session cap, 0 meaning unbounded
func (m *Manager) Capacity() int {
	return m.cfg.MaxSessions
}

func (m *Manager) lookup(id string) (*entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return e, nil
}

// Do runs fn with exclusive access to the session and marks it active
func (m *Manager) Do(id string, fn func(s *engine.Session) error) error {
	e, err := m.lookup(id)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	e.lastActive = m.now()
	return fn(e.session)
}

// Delete ends a session, persisting the player's profile if configured
func (m *Manager) Delete(ctx context.Context, id string) error {
	return m.end(ctx, id, "deleted")
}

func (m *Manager) end(ctx context.Context, id, reason string) error {
	e, err := m.lookup(id)
	if err != nil {
		return err
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	e.closed = true
	profile := e.session.GameState().Player
	baseline := e.persisted
	e.mu.Unlock()

	m.mu.Lock()
	delete(m.sessions, id)
	count := len(m.sessions)
	m.mu.Unlock()
	m.reportCount(count)

	var persistErr error
	if m.players != nil {
		persistErr = m.players.Merge(ctx, models.ProgressSince(baseline, profile))
		if persistErr != nil {
			m.logger.Error("failed to persist player profile",
				zap.String("player", profile.Nickname),
				zap.Error(persistErr))
		}
	}

	m.logger.Info("session ended",
		zap.String("session_id", id),
		zap.String("player", e.player),
		zap.String("reason", reason))
	m.publish(events.SessionEnded, id, e.player, map[string]interface{}{
		"reason":      reason,
		"total_score": profile.TotalScore,
	})
	return persistErr
}

// Sweep ends sessions idle for longer than the idle timeout and returns how
// many were removed. Sessions busy in another call are skipped.
func (m *Manager) Sweep(ctx context.Context) int {
	if m.cfg.IdleTimeout <= 0 {
		return 0
	}
	cutoff := m.now().Add(-m.cfg.IdleTimeout)

	m.mu.RLock()
	var idle []string
	for id, e := range m.sessions {
		if !e.mu.TryLock() {
			continue
		}
		if e.lastActive.Before(cutoff) {
			idle = append(idle, id)
		}
		e.mu.Unlock()
	}
	m.mu.RUnlock()

	removed := 0
	for _, id := range idle {
		if err := m.end(ctx, id, "idle"); err == nil || !errors.Is(err, ErrSessionNotFound) {
			removed++
		}
	}
	return removed
}

// Save persists a snapshot of the session and merges the player's progress
// since the last save into their stored profile
func (m *Manager) Save(ctx context.Context, id string) (*models.GameSnapshotRecord, error) {
	if m.snapshots == nil {
		return nil, ErrNoPersistence
	}
	e, err := m.lookup(id)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}

	snap := e.session.Snapshot()
	record, err := m.snapshots.Save(ctx, id, snap)
	if err != nil {
		return nil, err
	}
	if m.players != nil {
		profile := snap.State.Player
		if err := m.players.Merge(ctx, models.ProgressSince(e.persisted, profile)); err != nil {
			return nil, err
		}
		e.persisted = profile
	}
	m.logger.Debug("session saved", zap.String("session_id", id), zap.String("snapshot_id", record.ID.String()))
	return record, nil
}

func (m *Manager) reportCount(n int) {
	if m.onCount != nil {
		m.onCount(n)
	}
}

func (m *Manager) publish(t events.EventType, id, player string, data map[string]interface{}) {
	m.bus.Publish(&events.Event{
		Type:      t,
		SessionID: id,
		Player:    player,
		Timestamp: m.now(),
		Data:      data,
	})
}
