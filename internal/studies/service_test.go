package studies

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Etherea7/bible-study-scribby-sub000/internal/config"
	"github.com/Etherea7/bible-study-scribby-sub000/internal/entities"
	"github.com/Etherea7/bible-study-scribby-sub000/internal/llm"
	"github.com/Etherea7/bible-study-scribby-sub000/internal/passage"
)

type fakePassages struct{ calls int }

func (f *fakePassages) Get(_ context.Context, reference string) (*passage.Result, error) {
	f.calls++
	return &passage.Result{Reference: reference, Text: "Text of " + reference}, nil
}

type fakeCache map[string]entities.CachedStudy

func (c fakeCache) GetStudy(reference string) (*entities.CachedStudy, error) {
	row, ok := c[reference]
	if !ok {
		return nil, fmt.Errorf("cached study %q: %w", reference, gorm.ErrRecordNotFound)
	}
	return &row, nil
}

func (c fakeCache) PutStudy(reference string, study *entities.Study, provider, model string) error {
	data, _ := json.Marshal(study)
	c[reference] = entities.CachedStudy{Reference: reference, Content: string(data), Provider: provider, Model: model}
	return nil
}

type fakeHistory struct{ items []entities.ReadingHistoryItem }

func (h *fakeHistory) Add(item *entities.ReadingHistoryItem) error {
	h.items = append(h.items, *item)
	return nil
}

type fakeStore map[string]entities.EditableStudy

func (s fakeStore) Save(study *entities.EditableStudy) error {
	if study.CreatedAt.IsZero() {
		study.CreatedAt = time.Now()
	}
	s[study.ID] = *study
	return nil
}

func (s fakeStore) Get(id string) (*entities.EditableStudy, error) {
	st, ok := s[id]
	if !ok {
		return nil, fmt.Errorf("study %s: %w", id, gorm.ErrRecordNotFound)
	}
	// Round-trip through JSON so callers never share slices with the store.
	data, _ := json.Marshal(st)
	var out entities.EditableStudy
	_ = json.Unmarshal(data, &out)
	return &out, nil
}

func (s fakeStore) List() ([]entities.EditableStudy, error) {
	var out []entities.EditableStudy
	for _, st := range s {
		out = append(out, st)
	}
	return out, nil
}

func (s fakeStore) Delete(id string) error {
	if _, ok := s[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(s, id)
	return nil
}

type fixture struct {
	svc      *Service
	passages *fakePassages
	cache    fakeCache
	history  *fakeHistory
	store    fakeStore
	groq     *llm.MockProvider
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	studyJSON, err := json.Marshal(generatedStudy())
	require.NoError(t, err)

	f := &fixture{
		passages: &fakePassages{},
		cache:    fakeCache{},
		history:  &fakeHistory{},
		store:    fakeStore{},
		groq:     llm.NewMockProvider(llm.ProviderGroq, string(studyJSON)),
	}
	router := llm.NewRouter(config.ProviderAuto, zap.NewNop(), f.groq).WithRetry(1, time.Millisecond)
	f.svc = NewService(f.passages, router, f.cache, f.history, f.store, zap.NewNop())
	return f
}

func TestService_Generate_CachesAndRecordsHistory(t *testing.T) {
	f := newFixture(t)
	req := GenerateRequest{Book: "john", Chapter: 1, StartVerse: 1, EndVerse: 18}

	first, err := f.svc.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "John 1:1-18", first.Reference)
	assert.Equal(t, "Text of John 1:1-18", first.PassageText)
	assert.Equal(t, llm.ProviderGroq, first.Provider)
	assert.False(t, first.Cached)
	assert.Contains(t, f.cache, "John 1:1-18")

	second, err := f.svc.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Study.Purpose, second.Study.Purpose)
	assert.Equal(t, 1, f.groq.Calls())

	require.Len(t, f.history.items, 2)
	assert.Equal(t, "John", f.history.items[0].Book)
	assert.Equal(t, llm.ProviderGroq, f.history.items[1].Provider)
}

func TestService_Generate_PrefetchSkipsHistory(t *testing.T) {
	f := newFixture(t)

	res, err := f.svc.Generate(context.Background(), GenerateRequest{Book: "Jonah", Chapter: 2, Prefetch: true})
	require.NoError(t, err)
	assert.Equal(t, "Jonah 2", res.Reference)
	assert.Contains(t, f.cache, "Jonah 2")
	assert.Empty(t, f.history.items)
}

func TestService_Generate_ForceAndFlowBypassCache(t *testing.T) {
	f := newFixture(t)
	req := GenerateRequest{Book: "Ruth", Chapter: 1}

	_, err := f.svc.Generate(context.Background(), req)
	require.NoError(t, err)

	req.Force = true
	res, err := f.svc.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, res.Cached)
	assert.Equal(t, 2, f.groq.Calls())

	flow := GenerateRequest{Book: "Ruth", Chapter: 1, FlowContext: &entities.FlowContext{
		SectionPurposes: []entities.SectionPurpose{{PassageSection: "Ruth 1:16", Purpose: "Loyalty"}},
	}}
	res, err = f.svc.Generate(context.Background(), flow)
	require.NoError(t, err)
	assert.False(t, res.Cached)
	assert.Equal(t, 3, f.groq.Calls())
	assert.Contains(t, f.groq.LastRequest().Prompt, "Ruth 1:16: Loyalty")
}

func TestService_Generate_InvalidRange(t *testing.T) {
	f := newFixture(t)

	for _, req := range []GenerateRequest{
		{Book: "Nope", Chapter: 1},
		{Book: "John", Chapter: 22},
		{Book: "John", Chapter: 1, StartVerse: 10, EndVerse: 2},
	} {
		_, err := f.svc.Generate(context.Background(), req)
		assert.ErrorIs(t, err, ErrInvalidRequest)
	}
	assert.Zero(t, f.passages.calls)
	assert.Empty(t, f.history.items)
}

func TestService_Generate_UserKeyUsesOwnProvider(t *testing.T) {
	f := newFixture(t)
	studyJSON, _ := json.Marshal(generatedStudy())
	byok := llm.NewMockProvider(llm.ProviderOpenRouter, string(studyJSON))

	var gotKey string
	f.svc.WithProviderFactory(func(apiKey, model string) llm.Provider {
		gotKey = apiKey
		return byok
	})

	res, err := f.svc.Generate(context.Background(), GenerateRequest{Book: "Jude", Chapter: 1, UserKey: "sk-or-user", Force: true})
	require.NoError(t, err)
	assert.Equal(t, "sk-or-user", gotKey)
	assert.Equal(t, llm.ProviderOpenRouter, res.Provider)
	assert.Equal(t, 0, f.groq.Calls())
}

func TestService_Enhance(t *testing.T) {
	f := newFixture(t)
	f.groq.Text = "Rewritten question"

	res, err := f.svc.Enhance(context.Background(), EnhanceRequest{Prompt: "Rewrite"})
	require.NoError(t, err)
	assert.Equal(t, "Rewritten question", res.Text)

	_, err = f.svc.Enhance(context.Background(), EnhanceRequest{})
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestService_Draft(t *testing.T) {
	f := newFixture(t)

	res, err := f.svc.Draft(context.Background(), DraftRequest{Reference: "John 1:1", PassageText: "In the beginning"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Study.Purpose)
	assert.Empty(t, f.cache)
	assert.Empty(t, f.history.items)

	_, err = f.svc.Draft(context.Background(), DraftRequest{Reference: "John 1:1"})
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestService_SaveAndPatchStudy(t *testing.T) {
	f := newFixture(t)

	res, err := f.svc.Generate(context.Background(), GenerateRequest{Book: "John", Chapter: 1, StartVerse: 1, EndVerse: 8})
	require.NoError(t, err)

	study, err := f.svc.NewStudy(res)
	require.NoError(t, err)
	assert.True(t, study.IsSaved)
	assert.False(t, study.IsEdited)

	patched, err := f.svc.PatchStudy(study.ID,
		Patch{Op: OpUpdate, Path: "summary", Value: "New summary"},
		Patch{Op: OpMoveSection, From: 2, To: 0},
	)
	require.NoError(t, err)
	assert.True(t, patched.IsEdited)
	assert.Equal(t, "John 1:6-8", patched.StudyFlow[0].PassageSection)

	stored, err := f.svc.GetStudy(study.ID)
	require.NoError(t, err)
	assert.Equal(t, "New summary", stored.Summary)

	_, err = f.svc.PatchStudy(study.ID, Patch{Op: OpUpdate, Path: "purpose", Value: ""})
	assert.ErrorIs(t, err, ErrInvalidStudy)
	stored, _ = f.svc.GetStudy(study.ID)
	assert.NotEmpty(t, stored.Purpose, "invalid patch must not be stored")

	_, err = f.svc.PatchStudy("missing")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestService_Generate_BlankQuestionsNeverReachSave(t *testing.T) {
	f := newFixture(t)
	f.groq.Text = `{"purpose": "p", "study_flow": [{"passage_section": "John 1:1", "observation_question": "What was there?", "interpretation_question": ""}], "application_questions": [""]}`

	_, err := f.svc.Generate(context.Background(), GenerateRequest{Book: "John", Chapter: 1, StartVerse: 1, EndVerse: 8})
	assert.ErrorIs(t, err, llm.ErrInvalidResponse)
	assert.Empty(t, f.history.items)
	assert.Empty(t, f.cache)

	f.groq.Text = `{"purpose": "p", "study_flow": [{"passage_section": "John 1:1", "observation_question": "What was there?", "interpretation_question": "Why?"}], "application_questions": ["Pray"]}`
	res, err := f.svc.Generate(context.Background(), GenerateRequest{Book: "John", Chapter: 1, StartVerse: 1, EndVerse: 8})
	require.NoError(t, err)
	study, err := f.svc.NewStudy(res)
	require.NoError(t, err)
	assert.Contains(t, f.store, study.ID)
}

func TestService_SaveStudy_RejectsInvalid(t *testing.T) {
	f := newFixture(t)

	err := f.svc.SaveStudy(&entities.EditableStudy{Reference: "John 1", Purpose: ""})
	assert.ErrorIs(t, err, ErrInvalidStudy)
	assert.Empty(t, f.store)
}

func TestService_SaveStudy_RejectsNonUUIDID(t *testing.T) {
	f := newFixture(t)
	study := NewEditable(generatedStudy(), "John 1:1-8", "", "groq")
	study.ID = "/../../x"

	err := f.svc.SaveStudy(study)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Problems, "id must be a UUID")
	assert.Empty(t, f.store)
}

func TestService_ReplaceStudy(t *testing.T) {
	f := newFixture(t)
	original := NewEditable(generatedStudy(), "John 1:1-8", "", "groq")
	require.NoError(t, f.svc.SaveStudy(original))

	replacement := NewEditable(generatedStudy(), "John 1:1-8", "", "groq")
	replacement.Purpose = "Replaced"
	require.NoError(t, f.svc.ReplaceStudy(original.ID, replacement))

	got, err := f.svc.GetStudy(original.ID)
	require.NoError(t, err)
	assert.Equal(t, "Replaced", got.Purpose)
	assert.True(t, got.IsEdited)
	assert.Len(t, f.store, 1)
}
