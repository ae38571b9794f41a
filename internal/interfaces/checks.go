package interfaces

// Compile-time checks that concrete types satisfy the interfaces their
// consumers declare. A missing method fails the build here instead of at the
// wiring site in entrypoint.

import (
	"github.com/Etherea7/bible-study-scribby-sub000/internal/audit"
	"github.com/Etherea7/bible-study-scribby-sub000/internal/database"
	"github.com/Etherea7/bible-study-scribby-sub000/internal/database/cache"
	"github.com/Etherea7/bible-study-scribby-sub000/internal/database/history"
	"github.com/Etherea7/bible-study-scribby-sub000/internal/database/preferences"
	studystore "github.com/Etherea7/bible-study-scribby-sub000/internal/database/studies"
	"github.com/Etherea7/bible-study-scribby-sub000/internal/exporters"
	"github.com/Etherea7/bible-study-scribby-sub000/internal/http"
	"github.com/Etherea7/bible-study-scribby-sub000/internal/llm"
	"github.com/Etherea7/bible-study-scribby-sub000/internal/passage"
	"github.com/Etherea7/bible-study-scribby-sub000/internal/scheduler"
	"github.com/Etherea7/bible-study-scribby-sub000/internal/session"
	"github.com/Etherea7/bible-study-scribby-sub000/internal/studies"
	"github.com/Etherea7/bible-study-scribby-sub000/internal/tasks"
	"github.com/Etherea7/bible-study-scribby-sub000/internal/transfer"
)

// =============================================================================
// Data Access Layer
// =============================================================================

var _ http.Pinger = (*database.Database)(nil)
var _ http.HistoryStore = (*history.Repository)(nil)
var _ http.CacheStore = (*cache.Repository)(nil)
var _ http.PreferenceStore = (*preferences.Repository)(nil)

var _ passage.Cache = (*cache.Repository)(nil)
var _ studies.StudyCache = (*cache.Repository)(nil)
var _ studies.HistoryWriter = (*history.Repository)(nil)
var _ studies.StudyStore = (*studystore.Repository)(nil)

var _ transfer.HistoryStore = (*history.Repository)(nil)
var _ transfer.StudyStore = (*studystore.Repository)(nil)
var _ transfer.Archiver = (*audit.Auditor)(nil)

var _ exporters.StudyReader = (*studystore.Repository)(nil)
var _ exporters.StudyExporter = (*exporters.MarkdownExporter)(nil)

// =============================================================================
// Services
// =============================================================================

var _ http.PassageReader = (*passage.Service)(nil)
var _ http.StudyService = (*studies.Service)(nil)
var _ http.ProviderStatus = (*llm.Router)(nil)
var _ http.TransferService = (*transfer.Service)(nil)
var _ http.KeyStore = (*session.Manager)(nil)

var _ studies.PassageSource = (*passage.Service)(nil)
var _ studies.Generator = (*llm.Router)(nil)

// =============================================================================
// External Services
// =============================================================================

var _ passage.Fetcher = (*passage.Client)(nil)

var _ llm.Provider = (*llm.ChatProvider)(nil)
var _ llm.Provider = (*llm.GeminiProvider)(nil)
var _ llm.Provider = (*llm.ClaudeProvider)(nil)
var _ llm.Provider = (*llm.MockProvider)(nil)

// =============================================================================
// Background Tasks
// =============================================================================

var _ http.TaskQueue = (*tasks.Client)(nil)
var _ scheduler.Enqueuer = (*tasks.Client)(nil)
var _ tasks.StudyGenerator = (*studies.Service)(nil)
var _ tasks.CachePruner = (*cache.Repository)(nil)
