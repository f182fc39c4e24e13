package app

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"sync"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jgirmay/privacy-tower/internal/api"
)

var (
	ErrAppExists   = errors.New("app already registered")
	ErrAppNotFound = errors.New("app not found")
	ErrInvalidApp  = errors.New("invalid app")
)

const defaultBasePath = "/api"

// Registry owns the game apps served by this process. Each app gets its own
// route group under the API base path and is discoverable through AppsEndpoint.
type Registry struct {
	apps     map[string]App
	metadata map[string]Metadata
	basePath string
	logger   *zap.Logger
	mu       sync.RWMutex
}

// NewRegistry creates an empty registry
func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		apps:     make(map[string]App),
		metadata: make(map[string]Metadata),
		basePath: defaultBasePath,
		logger:   logger.Named("apps"),
	}
}

// Register validates the app, runs its InitDB and records its metadata.
// Display fields left empty in config are taken from the instance.
func (r *Registry) Register(config AppConfig) error {
	if config.Instance == nil {
		return fmt.Errorf("%w: %s has no instance", ErrInvalidApp, config.Name)
	}
	if got := config.Instance.GetName(); got != config.Name {
		return fmt.Errorf("%w: registered as %s but reports %s", ErrInvalidApp, config.Name, got)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.apps[config.Name]; exists {
		return fmt.Errorf("%w: %s", ErrAppExists, config.Name)
	}
	if err := config.Instance.InitDB(); err != nil {
		return fmt.Errorf("failed to initialize %s database: %w", config.Name, err)
	}

	meta := Metadata{
		Name:        config.Name,
		DisplayName: firstNonEmpty(config.DisplayName, config.Instance.GetDisplayName()),
		Description: firstNonEmpty(config.Description, config.Instance.GetDescription()),
		Version:     firstNonEmpty(config.Version, config.Instance.GetVersion()),
		Path:        r.basePath + "/" + config.Name,
		Status:      "active",
	}
	r.apps[config.Name] = config.Instance
	r.metadata[config.Name] = meta

	r.logger.Info("app registered",
		zap.String("app", meta.Name),
		zap.String("display_name", meta.DisplayName),
		zap.String("version", meta.Version))
	return nil
}

// GetApp looks up a registered app
func (r *Registry) GetApp(name string) (App, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	app, ok := r.apps[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrAppNotFound, name)
	}
	return app, nil
}

// GetMetadata looks up the discovery record of a registered app
func (r *Registry) GetMetadata(name string) (Metadata, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	meta, ok := r.metadata[name]
	if !ok {
		return Metadata{}, fmt.Errorf("%w: %s", ErrAppNotFound, name)
	}
	return meta, nil
}

// ListApps returns all registered apps sorted by name
func (r *Registry) ListApps() []Metadata {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Metadata, 0, len(r.metadata))
	for _, meta := range r.metadata {
		result = append(result, meta)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}

// RegisterRoutes gives every app a group under apiRouter and records the
// resulting mount paths in the app metadata
func (r *Registry) RegisterRoutes(apiRouter *gin.RouterGroup) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.basePath = apiRouter.BasePath()
	for name, app := range r.apps {
		group := apiRouter.Group("/" + name)
		app.RegisterRoutes(group)

		meta := r.metadata[name]
		meta.Path = group.BasePath()
		r.metadata[name] = meta

		r.logger.Debug("routes registered", zap.String("app", name), zap.String("path", meta.Path))
	}
}

// GetAppCount returns number of registered apps
func (r *Registry) GetAppCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.apps)
}

// AppsEndpoint serves the discovery list
func (r *Registry) AppsEndpoint() gin.HandlerFunc {
	return func(c *gin.Context) {
		apps := r.ListApps()
		api.RespondWithList(c, apps, len(apps))
	}
}

// StatsEndpoint serves one player's stats from a named app
func (r *Registry) StatsEndpoint() gin.HandlerFunc {
	return func(c *gin.Context) {
		app, err := r.GetApp(c.Param("appName"))
		if err != nil {
			api.RespondWithError(c, api.ErrNotFound.WithDetails(map[string]interface{}{"app": c.Param("appName")}))
			return
		}
		stats, err := app.GetUserStats(c.Param("player"))
		if err != nil {
			api.RespondWithError(c, err)
			return
		}
		api.RespondWith(c, http.StatusOK, stats)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
