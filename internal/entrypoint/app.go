package entrypoint

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Etherea7/bible-study-scribby-sub000/internal/audit"
	"github.com/Etherea7/bible-study-scribby-sub000/internal/config"
	"github.com/Etherea7/bible-study-scribby-sub000/internal/database"
	"github.com/Etherea7/bible-study-scribby-sub000/internal/database/cache"
	"github.com/Etherea7/bible-study-scribby-sub000/internal/database/history"
	"github.com/Etherea7/bible-study-scribby-sub000/internal/database/preferences"
	studystore "github.com/Etherea7/bible-study-scribby-sub000/internal/database/studies"
	"github.com/Etherea7/bible-study-scribby-sub000/internal/llm"
	"github.com/Etherea7/bible-study-scribby-sub000/internal/passage"
	"github.com/Etherea7/bible-study-scribby-sub000/internal/studies"
	"github.com/Etherea7/bible-study-scribby-sub000/internal/transfer"
)

// App holds the services shared by the HTTP server and the CLI commands.
type App struct {
	Config *config.Config
	Log    *zap.Logger
	DB     *database.Database

	History      *history.Repository
	Cache        *cache.Repository
	SavedStudies *studystore.Repository
	Preferences  *preferences.Repository

	Passages  *passage.Service
	Providers *llm.Router
	Studies   *studies.Service
	Transfer  *transfer.Service
}

// NewApp opens the database and builds every service on top of it.
func NewApp(cfg *config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		log = zap.NewNop()
	}

	db, err := database.NewDatabase(cfg.Database.Path, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	app := &App{
		Config:       cfg,
		Log:          log,
		DB:           db,
		History:      history.NewRepository(db.DB),
		Cache:        cache.NewRepository(db.DB),
		SavedStudies: studystore.NewRepository(db.DB),
		Preferences:  preferences.NewRepository(db.DB),
	}

	esv := passage.NewClient(cfg.ESV)
	if !esv.Configured() {
		log.Warn("ESV_API_KEY is not set, passages will only be served from the cache")
	}
	app.Passages = passage.NewService(esv, app.Cache, log.Named("passage"))

	app.Providers = llm.NewRouterFromConfig(cfg.LLM, log.Named("llm"))
	if len(app.Providers.Available()) == 0 {
		log.Warn("no LLM provider keys configured, studies can only be generated with a session key")
	}

	app.Studies = studies.NewService(app.Passages, app.Providers, app.Cache, app.History, app.SavedStudies, log.Named("studies")).
		WithProviderFactory(func(apiKey, model string) llm.Provider {
			if model == "" {
				model = cfg.LLM.OpenRouterModel
			}
			return llm.NewOpenRouter(llm.ProviderConfig{APIKey: apiKey, Model: model, Timeout: cfg.LLM.Timeout})
		})

	app.Transfer = transfer.NewService(app.History, app.SavedStudies, log.Named("transfer"))
	if cfg.Audit.Dir != "" {
		app.Transfer.WithArchiver(audit.NewAuditor(cfg.Audit.Dir, log.Named("audit")))
		log.Info("archiving import payloads", zap.String("dir", cfg.Audit.Dir))
	}

	return app, nil
}

// Close releases the database.
func (a *App) Close() error {
	if a.DB == nil {
		return errors.New("app is not initialized")
	}
	return a.DB.Close()
}
