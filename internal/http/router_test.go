package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mikestefanello/backlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Etherea7/bible-study-scribby-sub000/internal/config"
	"github.com/Etherea7/bible-study-scribby-sub000/internal/crypto"
	"github.com/Etherea7/bible-study-scribby-sub000/internal/database"
	"github.com/Etherea7/bible-study-scribby-sub000/internal/database/cache"
	"github.com/Etherea7/bible-study-scribby-sub000/internal/database/history"
	"github.com/Etherea7/bible-study-scribby-sub000/internal/database/preferences"
	studystore "github.com/Etherea7/bible-study-scribby-sub000/internal/database/studies"
	"github.com/Etherea7/bible-study-scribby-sub000/internal/entities"
	"github.com/Etherea7/bible-study-scribby-sub000/internal/llm"
	"github.com/Etherea7/bible-study-scribby-sub000/internal/passage"
	"github.com/Etherea7/bible-study-scribby-sub000/internal/session"
	"github.com/Etherea7/bible-study-scribby-sub000/internal/studies"
	"github.com/Etherea7/bible-study-scribby-sub000/internal/transfer"
)

type fakePassages struct {
	mu    sync.Mutex
	errs  map[string]error
	plain int
}

func (f *fakePassages) Get(_ context.Context, reference string) (*passage.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.errs[reference]; err != nil {
		return nil, err
	}
	return &passage.Result{Reference: reference, Text: "Text of " + reference}, nil
}

func (f *fakePassages) GetPlain(ctx context.Context, reference string) (*passage.Result, error) {
	f.mu.Lock()
	f.plain++
	f.mu.Unlock()
	return f.Get(ctx, reference)
}

type fakeQueue struct {
	tasks []backlite.Task
}

func (q *fakeQueue) Enqueue(task backlite.Task) (string, error) {
	q.tasks = append(q.tasks, task)
	return "task-123", nil
}

func (q *fakeQueue) Status(_ context.Context, taskID string) (backlite.TaskStatus, error) {
	if taskID == "task-123" {
		return backlite.TaskStatusPending, nil
	}
	return backlite.TaskStatusNotFound, nil
}

type testServer struct {
	router   *gin.Engine
	groq     *llm.MockProvider
	passages *fakePassages
	history  *history.Repository
	cache    *cache.Repository
	studies  *studystore.Repository
	queue    *fakeQueue
}

func generatedStudyJSON(t *testing.T) string {
	t.Helper()
	data, err := json.Marshal(entities.Study{
		Purpose:   "See the Word made flesh",
		Context:   "Prologue of John",
		KeyThemes: []string{"Word", "Light"},
		StudyFlow: []entities.StudySection{
			{PassageSection: "John 1:1-5", SectionHeading: "The Word", ObservationQuestion: "What was in the beginning?", InterpretationQuestion: "Why call Jesus the Word?"},
			{PassageSection: "John 1:6-18", SectionHeading: "The Witness", ObservationQuestion: "Who was John?", InterpretationQuestion: "What does grace upon grace mean?"},
		},
		Summary:              "Jesus reveals the Father.",
		ApplicationQuestions: []string{"Where do you need light?", "Who can you witness to?", "How will you receive grace?"},
		CrossReferences:      []entities.CrossReference{{Reference: "Genesis 1:1", Note: "In the beginning"}},
		PrayerPrompt:         "Thank God for the Word.",
	})
	require.NoError(t, err)
	return string(data)
}

func newTestServer(t *testing.T, opts ...func(*RouterConfig)) *testServer {
	t.Helper()
	db, err := database.NewDatabase(filepath.Join(t.TempDir(), "test.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	ts := &testServer{
		groq:     llm.NewMockProvider(llm.ProviderGroq, generatedStudyJSON(t)),
		passages: &fakePassages{errs: map[string]error{}},
		history:  history.NewRepository(db.DB),
		cache:    cache.NewRepository(db.DB),
		studies:  studystore.NewRepository(db.DB),
		queue:    &fakeQueue{},
	}
	router := llm.NewRouter(config.ProviderAuto, zap.NewNop(), ts.groq).WithRetry(1, time.Millisecond)
	svc := studies.NewService(ts.passages, router, ts.cache, ts.history, ts.studies, zap.NewNop())

	cfg := RouterConfig{
		Logger:       zap.NewNop(),
		Database:     db,
		Passages:     ts.passages,
		Studies:      svc,
		Providers:    router,
		History:      ts.history,
		Cache:        ts.cache,
		Preferences:  preferences.NewRepository(db.DB),
		Transfer:     transfer.NewService(ts.history, ts.studies, zap.NewNop()),
		TaskQueue:    ts.queue,
		HistoryLimit: 50,
		Version:      "test",
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	ts.router = NewRouter(cfg)
	return ts
}

func withSessions(t *testing.T, csrf bool) func(*RouterConfig) {
	return func(cfg *RouterConfig) {
		sqlDB, err := cfg.Database.(*database.Database).SQL()
		require.NoError(t, err)
		enc, err := crypto.NewEncryptorFromSecret([]byte("test-secret"), crypto.PurposeUserKey)
		require.NoError(t, err)
		mgr, err := session.NewManager(sqlDB, config.Session{Lifetime: time.Hour}, enc)
		require.NoError(t, err)
		cfg.Sessions = mgr
		if csrf {
			key, err := crypto.DeriveKey([]byte("test-secret"), crypto.PurposeCSRF)
			require.NoError(t, err)
			cfg.CSRFSecret = key
		}
	}
}

func (ts *testServer) do(method, path string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, _ := json.Marshal(b)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return ts.send(req)
}

func (ts *testServer) send(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func TestRouter_Health(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do("GET", "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))

	w = ts.do("GET", "/ping", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_Passage(t *testing.T) {
	ts := newTestServer(t)

	t.Run("by reference", func(t *testing.T) {
		w := ts.do("POST", "/api/passage", gin.H{"reference": "jn 3:16"})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var resp PassageResponse
		decode(t, w, &resp)
		assert.Equal(t, "John 3:16", resp.Reference)
		assert.Equal(t, "Text of John 3:16", resp.Text)
	})

	t.Run("by parts without headings", func(t *testing.T) {
		w := ts.do("POST", "/api/passage", gin.H{"book": "Ruth", "chapter": 1, "start_verse": 1, "end_verse": 5, "include_headings": false})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var resp PassageResponse
		decode(t, w, &resp)
		assert.Equal(t, "Ruth 1:1-5", resp.Reference)
		assert.Equal(t, 1, ts.passages.plain)
	})

	t.Run("invalid range", func(t *testing.T) {
		w := ts.do("POST", "/api/passage", gin.H{"book": "Ruth", "chapter": 9})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("upstream not found", func(t *testing.T) {
		ts.passages.errs["Jude 1:30"] = passage.ErrNotFound
		w := ts.do("POST", "/api/passage", gin.H{"reference": "Jude 1:30"})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestRouter_GenerateAndSave(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do("POST", "/api/studies/generate?save=true", gin.H{"book": "John", "chapter": 1, "start_verse": 1, "end_verse": 18})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Reference   string                  `json:"reference"`
		PassageText string                  `json:"passage_text"`
		Study       entities.Study          `json:"study"`
		Provider    string                  `json:"provider"`
		Cached      bool                    `json:"cached"`
		SavedStudy  *entities.EditableStudy `json:"savedStudy"`
	}
	decode(t, w, &resp)
	assert.Equal(t, "John 1:1-18", resp.Reference)
	assert.Equal(t, "Text of John 1:1-18", resp.PassageText)
	assert.Equal(t, "See the Word made flesh", resp.Study.Purpose)
	assert.Equal(t, llm.ProviderGroq, resp.Provider)
	assert.False(t, resp.Cached)
	require.NotNil(t, resp.SavedStudy)
	assert.True(t, resp.SavedStudy.IsSaved)

	// Second call comes from the cache.
	w = ts.do("POST", "/api/studies/generate", gin.H{"book": "John", "chapter": 1, "start_verse": 1, "end_verse": 18})
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &resp)
	assert.True(t, resp.Cached)
	assert.Equal(t, 1, ts.groq.Calls())

	w = ts.do("GET", "/api/history", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var hist struct {
		History []entities.ReadingHistoryItem `json:"history"`
		Total   int                           `json:"total"`
	}
	decode(t, w, &hist)
	assert.Equal(t, 2, hist.Total)

	w = ts.do("GET", "/api/studies/"+resp.SavedStudy.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_GenerateErrors(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do("POST", "/api/studies/generate", gin.H{"book": "Hezekiah", "chapter": 1})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	ts.groq.Errors = []error{&llm.UpstreamError{Provider: llm.ProviderGroq, StatusCode: http.StatusTooManyRequests}}
	w = ts.do("POST", "/api/studies/generate", gin.H{"book": "Mark", "chapter": 1})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	var resp ErrorResponse
	decode(t, w, &resp)
	assert.Equal(t, CodeRateLimited, resp.Code)
	assert.NotEmpty(t, resp.Hint)

	ts.groq.Errors = []error{&llm.UpstreamError{Provider: llm.ProviderGroq, StatusCode: http.StatusPaymentRequired}}
	w = ts.do("POST", "/api/studies/generate", gin.H{"book": "Mark", "chapter": 2})
	assert.Equal(t, http.StatusPaymentRequired, w.Code)
}

func TestRouter_GenerateRateLimit(t *testing.T) {
	ts := newTestServer(t, func(cfg *RouterConfig) { cfg.GenerateRateLimit = 1 })

	w := ts.do("POST", "/api/studies/generate", gin.H{"book": "Mark", "chapter": 1})
	assert.Equal(t, http.StatusOK, w.Code)

	w = ts.do("POST", "/api/studies/generate", gin.H{"book": "Mark", "chapter": 1})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	// Other routes are not limited.
	w = ts.do("GET", "/api/books", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_Enhance(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do("POST", "/api/enhance", gin.H{"prompt": "Rewrite this question"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp EnhanceResponse
	decode(t, w, &resp)
	assert.NotEmpty(t, resp.Text)
	assert.Equal(t, llm.ProviderGroq, resp.Provider)
	assert.Equal(t, "Rewrite this question", ts.groq.LastRequest().Prompt)

	w = ts.do("POST", "/api/enhance", gin.H{"mode": "study", "reference": "John 1:1-18", "passageText": "In the beginning"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp = EnhanceResponse{}
	decode(t, w, &resp)
	require.NotNil(t, resp.Study)
	assert.Equal(t, "See the Word made flesh", resp.Study.Purpose)

	w = ts.do("POST", "/api/enhance", gin.H{"mode": "study"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do("POST", "/api/enhance", gin.H{"mode": "poem", "prompt": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouter_StudyCRUD(t *testing.T) {
	ts := newTestServer(t)

	study := gin.H{
		"reference": "Psalms 23",
		"purpose":   "Trust the shepherd",
		"studyFlow": []gin.H{{
			"passageSection": "Psalms 23:1-3",
			"sectionHeading": "Provision",
			"questions": []gin.H{
				{"type": "observation", "question": "What does the shepherd provide?"},
				{"type": "interpretation", "question": "Why green pastures?"},
			},
		}, {
			"passageSection": "Psalms 23:4-6",
			"sectionHeading": "Presence",
			"questions":      []gin.H{{"type": "observation", "question": "Where does the psalmist walk?"}},
		}},
		"applicationQuestions": []gin.H{{"type": "application", "question": "Where do you need rest?"}},
	}

	w := ts.do("POST", "/api/studies", study)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var saved entities.EditableStudy
	decode(t, w, &saved)
	require.NotEmpty(t, saved.ID)
	require.Len(t, saved.StudyFlow, 2)
	assert.NotEmpty(t, saved.StudyFlow[0].Questions[0].ID)
	assert.True(t, saved.IsSaved)

	t.Run("list", func(t *testing.T) {
		w := ts.do("GET", "/api/studies", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), saved.ID)
	})

	t.Run("patch single and batch", func(t *testing.T) {
		w := ts.do("PATCH", "/api/studies/"+saved.ID, studies.Patch{Op: studies.OpUpdate, Path: "purpose", Value: "Rest in the shepherd"})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var patched entities.EditableStudy
		decode(t, w, &patched)
		assert.Equal(t, "Rest in the shepherd", patched.Purpose)
		assert.True(t, patched.IsEdited)

		w = ts.do("PATCH", "/api/studies/"+saved.ID, []studies.Patch{
			{Op: studies.OpMoveSection, From: 0, To: 1},
			{Op: studies.OpAddApplicationQuestion, Value: "Who needs comfort?"},
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		decode(t, w, &patched)
		assert.Equal(t, "Presence", patched.StudyFlow[0].SectionHeading)
		assert.Len(t, patched.ApplicationQuestions, 2)
	})

	t.Run("patch errors", func(t *testing.T) {
		w := ts.do("PATCH", "/api/studies/"+saved.ID, studies.Patch{Op: "explode"})
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w = ts.do("PATCH", "/api/studies/"+saved.ID, studies.Patch{Op: studies.OpMoveSection, From: 0, To: 9})
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w = ts.do("PATCH", "/api/studies/"+saved.ID, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w = ts.do("PATCH", "/api/studies/missing", studies.Patch{Op: studies.OpUpdate, Path: "purpose", Value: "x"})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("replace", func(t *testing.T) {
		replacement := study
		replacement["purpose"] = "Follow the shepherd"
		w := ts.do("PUT", "/api/studies/"+saved.ID, replacement)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var got entities.EditableStudy
		decode(t, w, &got)
		assert.Equal(t, saved.ID, got.ID)
		assert.Equal(t, "Follow the shepherd", got.Purpose)
	})

	t.Run("markdown", func(t *testing.T) {
		w := ts.do("GET", "/api/studies/"+saved.ID+"/markdown", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Header().Get("Content-Type"), "text/markdown")
		assert.Contains(t, w.Header().Get("Content-Disposition"), ".md")
		assert.Contains(t, w.Body.String(), "# Psalms 23")
	})

	t.Run("delete", func(t *testing.T) {
		w := ts.do("DELETE", "/api/studies/"+saved.ID, nil)
		assert.Equal(t, http.StatusOK, w.Code)

		w = ts.do("GET", "/api/studies/"+saved.ID, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestRouter_SaveStudy_RejectsInvalid(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do("POST", "/api/studies", gin.H{"reference": "John 3", "purpose": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp struct {
		Code    string   `json:"code"`
		Details []string `json:"details"`
	}
	decode(t, w, &resp)
	assert.Equal(t, CodeValidation, resp.Code)
	assert.Contains(t, resp.Details, "purpose is required")

	w = ts.do("POST", "/api/studies", gin.H{"id": "/../../x", "reference": "John 3", "purpose": "p"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	decode(t, w, &resp)
	assert.Contains(t, resp.Details, "id must be a UUID")
}

func TestRouter_History(t *testing.T) {
	ts := newTestServer(t)
	for _, ref := range []string{"Mark 1", "Mark 2", "Mark 3"} {
		require.NoError(t, ts.history.Add(&entities.ReadingHistoryItem{Book: "Mark", Chapter: 1, Reference: ref}))
		time.Sleep(2 * time.Millisecond)
	}

	w := ts.do("GET", "/api/history?limit=2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		History []entities.ReadingHistoryItem `json:"history"`
	}
	decode(t, w, &resp)
	require.Len(t, resp.History, 2)
	assert.Equal(t, "Mark 3", resp.History[0].Reference)

	w = ts.do("DELETE", "/api/history/"+resp.History[0].ID, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = ts.do("GET", "/api/history/"+resp.History[0].ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = ts.do("DELETE", "/api/history", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"deleted":2`)

	w = ts.do("GET", "/api/history?limit=x", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouter_ExportImport(t *testing.T) {
	source := newTestServer(t)
	w := source.do("POST", "/api/studies/generate?save=true", gin.H{"book": "John", "chapter": 3})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = source.do("GET", "/api/export", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "scribby-export-")
	exported := w.Body.String()

	target := newTestServer(t)
	w = target.do("POST", "/api/import?mode=strict", exported)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var report transfer.Report
	decode(t, w, &report)
	assert.Equal(t, 2, report.Imported)
	assert.Empty(t, report.Errors)

	// Everything is already stored the second time.
	w = target.do("POST", "/api/import", exported)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &report)
	assert.Equal(t, 0, report.Imported)
	assert.Equal(t, 2, report.Skipped)

	w = target.do("POST", "/api/import", "{not json")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	var failed struct {
		Details transfer.Report `json:"details"`
	}
	decode(t, w, &failed)
	assert.Zero(t, failed.Details.Imported)
	assert.NotEmpty(t, failed.Details.Errors)

	w = target.do("POST", "/api/import", `{"version": 9, "exportedAt": "2026-01-01T00:00:00Z", "history": [], "savedStudies": []}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), CodeUnsupported)

	w = target.do("POST", "/api/import?mode=sloppy", exported)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouter_Preferences(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do("PUT", "/api/preferences/provider", gin.H{"value": "gemini"})
	require.Equal(t, http.StatusOK, w.Code)

	w = ts.do("PUT", "/api/preferences", gin.H{"model": "gemini-2.0-flash", "last_reference": "John 1"})
	require.Equal(t, http.StatusOK, w.Code)
	var all struct {
		Preferences map[string]string `json:"preferences"`
	}
	decode(t, w, &all)
	assert.Equal(t, map[string]string{"provider": "gemini", "model": "gemini-2.0-flash", "last_reference": "John 1"}, all.Preferences)

	w = ts.do("GET", "/api/preferences/provider", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "gemini")

	w = ts.do("DELETE", "/api/preferences/provider", nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = ts.do("GET", "/api/preferences/provider", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_ProvidersAndBooks(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do("GET", "/api/providers", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var providers ProvidersResponse
	decode(t, w, &providers)
	assert.Equal(t, config.ProviderAuto, providers.Mode)
	assert.True(t, providers.Providers[llm.ProviderGroq].Available)
	assert.False(t, providers.UserKey)

	w = ts.do("GET", "/api/books", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var books struct {
		Total int `json:"total"`
	}
	decode(t, w, &books)
	assert.Equal(t, 66, books.Total)
}

func TestRouter_CacheDelete(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do("POST", "/api/studies/generate", gin.H{"book": "Jonah", "chapter": 1})
	require.Equal(t, http.StatusOK, w.Code)

	w = ts.do("DELETE", "/api/cache/studies/"+strings.ReplaceAll("jonah 1", " ", "%20"), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "Jonah 1")

	w = ts.do("DELETE", "/api/cache/studies/Jonah%201", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Regenerates after the cache entry is gone.
	w = ts.do("POST", "/api/studies/generate", gin.H{"book": "Jonah", "chapter": 1})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, ts.groq.Calls())
}

func TestRouter_Tasks(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do("GET", "/api/tasks/types", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "generate_study")

	w = ts.do("POST", "/api/tasks/generate_study/run", gin.H{"book": "Acts", "chapter": 2})
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "task-123")
	require.Len(t, ts.queue.tasks, 1)

	w = ts.do("POST", "/api/tasks/generate_study/run", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do("POST", "/api/tasks/enrich_book/run", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = ts.do("GET", "/api/tasks/task-123", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "pending")
}

func TestRouter_SessionKey(t *testing.T) {
	ts := newTestServer(t, withSessions(t, false))

	w := ts.do("GET", "/api/session/key", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"hasKey":false`)

	w = ts.do("PUT", "/api/session/key", gin.H{"apiKey": "sk-or-v1-abcdef1234"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var put SessionKeyResponse
	decode(t, w, &put)
	assert.True(t, put.HasKey)
	assert.Equal(t, "********1234", put.Masked)

	var cookie *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == session.CookieName {
			cookie = c
		}
	}
	require.NotNil(t, cookie)

	w = ts.do("GET", "/api/session/key", nil, cookie)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "********1234")
	assert.NotContains(t, w.Body.String(), "abcdef")

	w = ts.do("GET", "/api/providers", nil, cookie)
	assert.Contains(t, w.Body.String(), `"userKey":true`)

	w = ts.do("DELETE", "/api/session/key", nil, cookie)
	require.Equal(t, http.StatusOK, w.Code)
	w = ts.do("GET", "/api/session/key", nil, cookie)
	assert.Contains(t, w.Body.String(), `"hasKey":false`)

	w = ts.do("PUT", "/api/session/key", gin.H{}, cookie)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouter_CSRF(t *testing.T) {
	ts := newTestServer(t, withSessions(t, true))

	// Creating a session needs a token even before any session cookie exists.
	w := ts.do("PUT", "/api/session/key", gin.H{"apiKey": "sk-or-v1-abcdef1234"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "CSRF_FAILED")
	for _, c := range w.Result().Cookies() {
		assert.NotEqual(t, session.CookieName, c.Name)
	}

	w = ts.do("GET", "/api/csrf", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var tokenResp struct {
		Token string `json:"token"`
	}
	decode(t, w, &tokenResp)
	require.NotEmpty(t, tokenResp.Token)

	req := httptest.NewRequest("PUT", "/api/session/key", strings.NewReader(`{"apiKey": "sk-or-v1-abcdef1234"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(session.TokenHeader, tokenResp.Token)
	for _, c := range w.Result().Cookies() {
		req.AddCookie(c)
	}
	w = ts.send(req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var cookie *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == session.CookieName {
			cookie = c
		}
	}
	require.NotNil(t, cookie)

	// A session-bearing write without a token is refused.
	w = ts.do("DELETE", "/api/session/key", nil, cookie)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "CSRF_FAILED")

	w = ts.do("GET", "/api/csrf", nil, cookie)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), session.TokenHeader)
}
