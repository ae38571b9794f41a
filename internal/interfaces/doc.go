// Package interfaces holds compile-time assertions for the abstractions used
// across the application.
//
// # Interface Map
//
// Storage
//
//   - http.HistoryStore, studies.HistoryWriter, transfer.HistoryStore:
//     reading history (internal/database/history)
//   - http.CacheStore, passage.Cache, studies.StudyCache, tasks.CachePruner:
//     cached passages and studies (internal/database/cache)
//   - studies.StudyStore, transfer.StudyStore, exporters.StudyReader:
//     saved editable studies (internal/database/studies)
//   - http.PreferenceStore: key/value preferences (internal/database/preferences)
//
// Upstream services
//
//   - passage.Fetcher: ESV API client (internal/passage/client.go)
//   - llm.Provider: Groq, OpenRouter, Gemini and Claude (internal/llm)
//   - studies.Generator: the provider router with fallback (internal/llm/router.go)
//
// Background work
//
//   - http.TaskQueue, scheduler.Enqueuer: backlite client (internal/tasks/client.go)
//
// # Adding a New LLM Provider
//
//  1. Implement llm.Provider in internal/llm/<name>.go. Map non-2xx
//     responses to *llm.UpstreamError so rate limits and bad keys are
//     classified:
//
//     func (p *MyProvider) Generate(ctx context.Context, req *llm.Request) (*llm.Response, error) {
//         ...
//         if resp.StatusCode >= 300 {
//             return nil, &llm.UpstreamError{Provider: p.Name(), StatusCode: resp.StatusCode}
//         }
//     }
//
//  2. Add its key and model to config.LLM and construct it in
//     llm.NewRouterFromConfig. The position in that call is its place in the
//     auto fallback order.
//
//  3. Add a line to checks.go:
//
//     var _ llm.Provider = (*llm.MyProvider)(nil)
//
// # Adding a New Background Task
//
//  1. Define the task type with a Config method returning its
//     backlite.QueueConfig, a processor and a NewXQueue constructor in
//     internal/tasks/.
//  2. Register the queue in entrypoint.Run.
//  3. Add it to tasks.Types and tasks.Build so POST /api/tasks/:type/run can
//     enqueue it.
package interfaces
