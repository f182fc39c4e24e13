package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jgirmay/privacy-tower/pkg/services/events"
)

func TestGameMetricsCountsEvents(t *testing.T) {
	m := New()

	m.OnEvent(&events.Event{Type: events.QuizAnswered, Data: map[string]interface{}{
		"correct":         true,
		"difficulty":      "hard",
		"stability_delta": 16,
		"response_time":   3 * time.Second,
	}})
	m.OnEvent(&events.Event{Type: events.QuizAnswered, Data: map[string]interface{}{
		"correct":    false,
		"difficulty": "hard",
	}})
	m.OnEvent(&events.Event{Type: events.AchievementUnlocked, Data: map[string]interface{}{"achievement": "first-block"}})
	m.OnEvent(&events.Event{Type: events.TowerCollapsed})
	m.OnEvent(&events.Event{Type: events.TowerRebuilt})
	m.OnEvent(&events.Event{Type: events.GameCompleted})
	m.OnEvent(nil)
	m.SetActiveSessions(3)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.answers.WithLabelValues("hard", "correct")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.answers.WithLabelValues("hard", "incorrect")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.events.WithLabelValues("quiz_answered")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.achievements.WithLabelValues("first-block")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.collapses))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rebuilds))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.completions))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.activeSessions))
}

func TestGameMetricsHandler(t *testing.T) {
	m := New()
	m.OnEvent(&events.Event{Type: events.GameStarted})

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `privacy_tower_events_total{type="game_started"} 1`))
	assert.Contains(t, body, "go_goroutines")
}
