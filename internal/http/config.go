package http

import (
	"go.uber.org/zap"

	"github.com/Etherea7/bible-study-scribby-sub000/internal/session"
)

// RouterConfig contains all dependencies and configuration needed to create
// the HTTP router. Optional parts are left nil to disable their routes.
type RouterConfig struct {
	Logger *zap.Logger

	// Core dependencies
	Database  Pinger
	Passages  PassageReader
	Studies   StudyService
	Providers ProviderStatus
	History   HistoryStore
	Cache     CacheStore

	// Optional
	Preferences PreferenceStore
	Transfer    TransferService
	TaskQueue   TaskQueue

	// Sessions and CSRF. CSRF is enabled when CSRFSecret is non-empty.
	Sessions      *session.Manager
	CSRFSecret    []byte
	SecureCookies bool

	// Requests per minute per client for generation routes, 0 disables.
	GenerateRateLimit int

	// HistoryLimit is the default page size for GET /api/history.
	HistoryLimit int

	// Application info
	Version string
}
