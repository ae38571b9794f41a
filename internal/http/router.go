package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Etherea7/bible-study-scribby-sub000/internal/logging"
	"github.com/Etherea7/bible-study-scribby-sub000/internal/session"
)

// NewRouter creates and configures the HTTP router with all endpoints.
// Uses RouterConfig to receive all dependencies.
func NewRouter(cfg RouterConfig) *gin.Engine {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	router := gin.New()
	router.Use(logging.GinMiddleware(log))
	router.Use(gin.Recovery())

	// Apply security headers to all responses
	router.Use(session.SecurityHeadersMiddleware())
	router.Use(session.StrictTransportSecurityMiddleware())

	// CSRF must run before session so that session context is preserved
	if len(cfg.CSRFSecret) > 0 {
		router.Use(session.CSRFMiddleware(cfg.CSRFSecret, cfg.SecureCookies, "/api/session/"))
	}

	var keys KeyStore
	if cfg.Sessions != nil {
		router.Use(cfg.Sessions.LoadAndSave())
		keys = cfg.Sessions
	}

	generationLimit := func(c *gin.Context) { c.Next() }
	if cfg.GenerateRateLimit > 0 {
		generationLimit = session.NewRateLimiter(cfg.GenerateRateLimit, time.Minute).Middleware()
	}

	health := NewHealthController(cfg.Database, cfg.Version)
	passages := NewPassageController(cfg.Passages, log)
	enhance := NewEnhanceController(cfg.Studies, keys, log)
	studyController := NewStudiesController(cfg.Studies, keys, log)
	meta := NewMetaController(cfg.Providers, keys)
	history := NewHistoryController(cfg.History, cfg.HistoryLimit, log)
	cacheController := NewCacheController(cfg.Cache, log)

	// Health endpoints
	router.GET("/health", health.Status)
	router.GET("/ping", health.Ping)

	api := router.Group("/api")

	api.POST("/passage", passages.GetPassage)
	api.POST("/enhance", generationLimit, enhance.Enhance)
	api.GET("/providers", meta.Providers)
	api.GET("/books", meta.Books)

	// Studies
	api.POST("/studies/generate", generationLimit, studyController.Generate)
	api.GET("/studies", studyController.ListStudies)
	api.POST("/studies", studyController.SaveStudy)
	api.GET("/studies/:id", studyController.GetStudy)
	api.PUT("/studies/:id", studyController.ReplaceStudy)
	api.PATCH("/studies/:id", studyController.PatchStudy)
	api.DELETE("/studies/:id", studyController.DeleteStudy)
	api.GET("/studies/:id/markdown", studyController.DownloadMarkdown)

	// History
	api.GET("/history", history.ListHistory)
	api.DELETE("/history", history.ClearHistory)
	api.GET("/history/:id", history.GetHistoryItem)
	api.DELETE("/history/:id", history.DeleteHistoryItem)

	// Cache
	api.GET("/cache", cacheController.Stats)
	api.DELETE("/cache/studies/:reference", cacheController.DeleteStudy)

	if cfg.Transfer != nil {
		transferController := NewTransferController(cfg.Transfer, log)
		api.GET("/export", transferController.Export)
		api.POST("/import", transferController.Import)
	}

	if cfg.Preferences != nil {
		prefs := NewPreferencesController(cfg.Preferences, log)
		api.GET("/preferences", prefs.ListPreferences)
		api.PUT("/preferences", prefs.SetPreferences)
		api.GET("/preferences/:key", prefs.GetPreference)
		api.PUT("/preferences/:key", prefs.SetPreference)
		api.DELETE("/preferences/:key", prefs.DeletePreference)
	}

	if keys != nil {
		sessions := NewSessionController(keys, log)
		api.GET("/session/key", sessions.GetKey)
		api.PUT("/session/key", sessions.PutKey)
		api.DELETE("/session/key", sessions.DeleteKey)
	}
	api.GET("/csrf", CSRFToken)

	// Task management endpoints
	if cfg.TaskQueue != nil {
		tasksController := NewTasksController(cfg.TaskQueue, log)
		api.GET("/tasks/types", tasksController.ListTaskTypes)
		api.GET("/tasks/:id", tasksController.GetTaskStatus)
		api.POST("/tasks/:type/run", tasksController.RunTask)
	}

	return router
}
