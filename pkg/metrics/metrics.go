package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jgirmay/privacy-tower/pkg/services/events"
)

const namespace = "privacy_tower"

// GameMetrics turns game events into Prometheus series
type GameMetrics struct {
	registry       *prometheus.Registry
	events         *prometheus.CounterVec
	answers        *prometheus.CounterVec
	achievements   *prometheus.CounterVec
	collapses      prometheus.Counter
	rebuilds       prometheus.Counter
	completions    prometheus.Counter
	activeSessions prometheus.Gauge
	stabilityDelta prometheus.Histogram
	responseTime   prometheus.Histogram
}

// New creates the collectors on a private registry
func New() *GameMetrics {
	m := &GameMetrics{
		registry: prometheus.NewRegistry(),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Game events by type.",
		}, []string{"type"}),
		answers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "answers_total",
			Help:      "Quiz answers by difficulty and outcome.",
		}, []string{"difficulty", "result"}),
		achievements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "achievements_unlocked_total",
			Help:      "Achievement unlocks by id.",
		}, []string{"achievement"}),
		collapses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tower_collapses_total",
			Help:      "Towers that reached zero stability.",
		}),
		rebuilds: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tower_rebuilds_total",
			Help:      "Towers rebuilt after a collapse or clear.",
		}),
		completions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "games_completed_total",
			Help:      "Games that showed the whole catalog.",
		}),
		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Sessions currently held in memory.",
		}),
		stabilityDelta: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stability_delta",
			Help:      "Stability change per answer.",
			Buckets:   []float64{-50, -30, -20, -10, -5, 0, 5, 10, 20, 30, 50},
		}),
		responseTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "answer_seconds",
			Help:      "Time players took to answer.",
			Buckets:   []float64{1, 2, 5, 10, 20, 30, 60},
		}),
	}

	m.registry.MustRegister(
		m.events, m.answers, m.achievements,
		m.collapses, m.rebuilds, m.completions,
		m.activeSessions, m.stabilityDelta, m.responseTime,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// OnEvent implements events.Listener
func (m *GameMetrics) OnEvent(e *events.Event) {
	if e == nil {
		return
	}
	m.events.WithLabelValues(string(e.Type)).Inc()

	switch e.Type {
	case events.QuizAnswered:
		result := "incorrect"
		if correct, _ := e.Data["correct"].(bool); correct {
			result = "correct"
		}
		difficulty, _ := e.Data["difficulty"].(string)
		m.answers.WithLabelValues(difficulty, result).Inc()
		if delta, ok := e.Data["stability_delta"].(int); ok {
			m.stabilityDelta.Observe(float64(delta))
		}
		if rt, ok := e.Data["response_time"].(time.Duration); ok && rt > 0 {
			m.responseTime.Observe(rt.Seconds())
		}
	case events.AchievementUnlocked:
		if id, ok := e.Data["achievement"].(string); ok {
			m.achievements.WithLabelValues(id).Inc()
		}
	case events.TowerCollapsed:
		m.collapses.Inc()
	case events.TowerRebuilt:
		m.rebuilds.Inc()
	case events.GameCompleted:
		m.completions.Inc()
	}
}

// SetActiveSessions records the number of live sessions
func (m *GameMetrics) SetActiveSessions(n int) {
	m.activeSessions.Set(float64(n))
}

// Registry exposes the underlying registry
func (m *GameMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *GameMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
