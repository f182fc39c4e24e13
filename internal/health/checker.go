package health

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	appmodule "github.com/jgirmay/privacy-tower/internal/app"
)

// HealthStatus represents the overall system health
type HealthStatus struct {
	Status    string                   `json:"status"`
	Timestamp time.Time                `json:"timestamp"`
	Message   string                   `json:"message"`
	Services  map[string]ServiceHealth `json:"services"`
	Apps      map[string]AppHealth     `json:"apps"`
	Sessions  SessionHealth            `json:"sessions"`
	Uptime    string                   `json:"uptime"`
}

// ServiceHealth represents health of a service
type ServiceHealth struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Latency string `json:"latency_ms"`
}

// AppHealth represents health of an app
type AppHealth struct {
	Name    string `json:"name"`
	Status  string `json:"status"`
	Version string `json:"version"`
	Path    string `json:"path,omitempty"`
}

// SessionHealth reports game session capacity
type SessionHealth struct {
	Active int `json:"active"`
	Max    int `json:"max"`
}

// SessionCounter is satisfied by the game session manager
type SessionCounter interface {
	Count() int
	Capacity() int
}

// HealthChecker performs health checks on system components
type HealthChecker struct {
	db        *gorm.DB
	registry  *appmodule.Registry
	sessions  SessionCounter
	startTime time.Time
	timeout   time.Duration
}

// NewHealthChecker creates a new health checker. sessions may be nil.
func NewHealthChecker(db *gorm.DB, registry *appmodule.Registry, sessions SessionCounter) *HealthChecker {
	return &HealthChecker{
		db:        db,
		registry:  registry,
		sessions:  sessions,
		startTime: time.Now(),
		timeout:   2 * time.Second,
	}
}

// Check performs a complete health check
func (hc *HealthChecker) Check(ctx context.Context) *HealthStatus {
	status := &HealthStatus{
		Status:    "healthy",
		Timestamp: time.Now(),
		Services:  make(map[string]ServiceHealth),
		Apps:      make(map[string]AppHealth),
		Uptime:    hc.calculateUptime(),
	}

	dbHealth := hc.checkDatabase(ctx)
	status.Services["database"] = dbHealth

	if hc.registry != nil {
		for _, meta := range hc.registry.ListApps() {
			status.Apps[meta.Name] = AppHealth{
				Name:    meta.Name,
				Status:  "healthy",
				Version: meta.Version,
				Path:    meta.Path,
			}
		}
	}

	if hc.sessions != nil {
		status.Sessions = SessionHealth{Active: hc.sessions.Count(), Max: hc.sessions.Capacity()}
	}

	switch {
	case len(status.Apps) == 0:
		status.Status = "degraded"
		status.Message = "No apps registered"
	case dbHealth.Status != "healthy":
		status.Status = "degraded"
		status.Message = "Database connectivity issue"
	case status.Sessions.Max > 0 && status.Sessions.Active >= status.Sessions.Max:
		status.Status = "degraded"
		status.Message = "Session capacity reached"
	default:
		status.Message = fmt.Sprintf("System operating normally with %d apps", len(status.Apps))
	}

	return status
}

// checkDatabase verifies database connectivity
func (hc *HealthChecker) checkDatabase(ctx context.Context) ServiceHealth {
	if hc.db == nil {
		return ServiceHealth{Status: "unhealthy", Message: "Database not configured", Latency: "0"}
	}

	ctx, cancel := context.WithTimeout(ctx, hc.timeout)
	defer cancel()

	start := time.Now()
	err := hc.ping(ctx)
	latency := time.Since(start)

	if err != nil {
		return ServiceHealth{
			Status:  "unhealthy",
			Message: "Database connection failed: " + err.Error(),
			Latency: fmt.Sprintf("%d", latency.Milliseconds()),
		}
	}

	return ServiceHealth{
		Status:  "healthy",
		Message: "Database connection successful",
		Latency: fmt.Sprintf("%d", latency.Milliseconds()),
	}
}

func (hc *HealthChecker) ping(ctx context.Context) error {
	sqlDB, err := hc.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// calculateUptime calculates system uptime as human-readable string
func (hc *HealthChecker) calculateUptime() string {
	elapsed := time.Since(hc.startTime)

	days := int(elapsed.Hours()) / 24
	hours := int(elapsed.Hours()) % 24
	minutes := int(elapsed.Minutes()) % 60
	seconds := int(elapsed.Seconds()) % 60

	if days > 0 {
		return fmt.Sprintf("%dd %dh %dm %ds", days, hours, minutes, seconds)
	} else if hours > 0 {
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	} else if minutes > 0 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}
	return fmt.Sprintf("%ds", seconds)
}

// CheckApp performs health check on a specific app
func (hc *HealthChecker) CheckApp(appName string) *AppHealth {
	if hc.registry == nil {
		return &AppHealth{Name: appName, Status: "not_found"}
	}
	meta, err := hc.registry.GetMetadata(appName)
	if err != nil {
		return &AppHealth{Name: appName, Status: "not_found"}
	}
	return &AppHealth{
		Name:    appName,
		Status:  "healthy",
		Version: meta.Version,
		Path:    meta.Path,
	}
}
