// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/draft-engine/internal/literature"
	"github.com/pdiddy/draft-engine/internal/llm"
	"github.com/pdiddy/draft-engine/pkg/types"
)

// memStore is an in-memory Store for pipeline tests.
type memStore struct {
	mu        sync.Mutex
	nextJob   int64
	nextDoc   int64
	jobs      map[int64]types.GenerationJob
	documents map[int64]types.Document
	authors   []types.Author
	citations []types.Citation
	figures   []types.Figure
	tables    []types.Table
}

func newMemStore() *memStore {
	return &memStore{jobs: map[int64]types.GenerationJob{}, documents: map[int64]types.Document{}}
}

func (s *memStore) CreateJob(_ context.Context, job *types.GenerationJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextJob++
	job.ID = s.nextJob
	s.jobs[job.ID] = *job
	return nil
}

func (s *memStore) UpdateJob(_ context.Context, job *types.GenerationJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[job.ID]; !ok {
		return fmt.Errorf("job %d not found", job.ID)
	}
	s.jobs[job.ID] = *job
	return nil
}

func (s *memStore) GetJob(_ context.Context, id int64) (*types.GenerationJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, fmt.Errorf("job %d not found", id)
	}
	return &job, nil
}

func (s *memStore) CreateDocumentSet(_ context.Context, doc *types.Document, authors []types.Author, citations []types.Citation, figures []types.Figure, tables []types.Table) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextDoc++
	doc.ID = s.nextDoc
	s.documents[doc.ID] = *doc
	for i := range authors {
		authors[i].DocumentID = doc.ID
	}
	for i := range citations {
		citations[i].DocumentID = doc.ID
	}
	for i := range figures {
		figures[i].DocumentID = doc.ID
	}
	for i := range tables {
		tables[i].DocumentID = doc.ID
	}
	s.authors = append(s.authors, authors...)
	s.citations = append(s.citations, citations...)
	s.figures = append(s.figures, figures...)
	s.tables = append(s.tables, tables...)
	return nil
}

func (s *memStore) job(t *testing.T, id int64) types.GenerationJob {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	require.True(t, ok)
	return job
}

func (s *memStore) document(t *testing.T, id int64) types.Document {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.documents[id]
	require.True(t, ok)
	return doc
}

// memLit serves a fixed record set for every bucket.
type memLit struct {
	records []types.LiteratureRecord
	err     error
	calls   int
}

func (l *memLit) ExtractKeyPapers(_ context.Context, _ string, _ int) (literature.KeyPapers, error) {
	l.calls++
	if l.err != nil {
		return literature.KeyPapers{}, l.err
	}
	return literature.KeyPapers{Foundational: l.records}, nil
}

// failingModel delegates to the mock backend but fails when the failOn
// predicate matches the last user message.
type failingModel struct {
	delegate ModelBackend
	failOn   func(prompt string) bool
	err      error
}

func (m *failingModel) Complete(ctx context.Context, req llm.Request) (llm.Result, error) {
	var prompt string
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == "user" {
			prompt = req.Messages[i].Content
			break
		}
	}
	if m.failOn != nil && m.failOn(prompt) {
		return llm.Result{}, m.err
	}
	return m.delegate.Complete(ctx, req)
}

// adjustingModel delegates to the mock backend but serves a scripted
// rewrite for length-adjustment prompts, counting how often one is asked.
type adjustingModel struct {
	delegate    ModelBackend
	rewrite     string
	adjustCalls int
}

func (m *adjustingModel) Complete(ctx context.Context, req llm.Request) (llm.Result, error) {
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role != "user" {
			continue
		}
		if strings.Contains(req.Messages[i].Content, "Rewrite the following document") {
			m.adjustCalls++
			return llm.Result{Content: m.rewrite}, nil
		}
		break
	}
	return m.delegate.Complete(ctx, req)
}

func testRecords(n int) []types.LiteratureRecord {
	recs := make([]types.LiteratureRecord, n)
	for i := range recs {
		recs[i] = types.LiteratureRecord{
			ID:      fmt.Sprintf("p%d", i+1),
			Title:   fmt.Sprintf("Study %d", i+1),
			Year:    2015 + i,
			Authors: []string{"Ada Lovelace", "Alan Turing"},
			Venue:   "Journal of Examples",
		}
	}
	return recs
}

func testRequest() types.GenerationRequest {
	return types.GenerationRequest{
		Type:            types.DocResearchPaper,
		Title:           "Adaptive Attention for Sparse Inputs",
		Domain:          "machine learning",
		Subdomain:       "attention mechanisms",
		TargetWordCount: 1200,
		NumFigures:      3,
		NumTables:       2,
		NumReferences:   5,
		CitationStyle:   types.StyleAPA7,
		Hypotheses:      []string{"Sparse attention preserves accuracy"},
		Authors: []types.AuthorSpec{
			{Name: "Grace Hopper", Affiliation: "Navy", Corresponding: true},
			{Name: "Ada Lovelace"},
		},
	}
}

func testOrchestrator(store Store, model ModelBackend, lit LiteratureSearcher) *Orchestrator {
	return NewOrchestrator(store, model, lit, types.PipelineConfig{}, zerolog.Nop())
}

func mockModel(t *testing.T) ModelBackend {
	t.Helper()
	return llm.NewClient(types.ModelConfig{MockMode: true}, zerolog.Nop())
}

func TestRun_CompletesWithMockBackend(t *testing.T) {
	store := newMemStore()
	lit := &memLit{records: testRecords(5)}
	o := testOrchestrator(store, mockModel(t), lit)

	job := &types.GenerationJob{Status: types.JobQueued}
	require.NoError(t, store.CreateJob(context.Background(), job))
	require.NoError(t, o.Run(context.Background(), job.ID, testRequest()))

	final := store.job(t, job.ID)
	assert.Equal(t, types.JobCompleted, final.Status)
	assert.Equal(t, 100, final.Progress)
	assert.Zero(t, final.ETASeconds)
	assert.InDelta(t, 0.72, final.NoveltyScore, 1e-9)
	assert.InDelta(t, 84.0, final.QualityScore, 1e-9)
	require.NotZero(t, final.DocumentID)

	doc := store.document(t, final.DocumentID)
	assert.Equal(t, types.NoveltyModerate, doc.NoveltyClass)
	assert.Equal(t, 1, strings.Count(doc.Content, "## Abstract"))
	assert.Equal(t, 1, strings.Count(doc.Content, "## Conclusion"))
	assert.Equal(t, 1, strings.Count(doc.Content, "## References"))
	assert.NotContains(t, doc.Abstract, "##")
	assert.Positive(t, doc.WordCount)

	// Numeric markers from the model were rebound and rendered in style.
	assert.NotContains(t, doc.Content, "[ref1]")
	assert.Contains(t, doc.Content, "(Lovelace & Turing, 2015)")
	assert.Equal(t, 5, strings.Count(doc.Content, "\n- "))
}

func TestRun_LengthAdjustmentReboundsCitations(t *testing.T) {
	store := newMemStore()
	lit := &memLit{records: testRecords(2)}
	model := &adjustingModel{
		delegate: mockModel(t),
		rewrite:  "## Abstract\n\nAn expanded framing citing [1] and [2], plus a stray [9].\n\n## Conclusion\n\nClosing remarks.",
	}
	o := testOrchestrator(store, model, lit)

	req := testRequest()
	req.NumReferences = 2
	req.NumFigures = 0
	req.NumTables = 0
	req.TargetWordCount = 5000

	job := &types.GenerationJob{Status: types.JobQueued}
	require.NoError(t, store.CreateJob(context.Background(), job))
	require.NoError(t, o.Run(context.Background(), job.ID, req))

	assert.Equal(t, 1, model.adjustCalls)

	doc := store.document(t, store.job(t, job.ID).DocumentID)
	assert.Contains(t, doc.Content, "(Lovelace & Turing, 2015)")
	assert.Contains(t, doc.Content, "(Lovelace & Turing, 2016)")
	assert.NotContains(t, doc.Content, "[ref1]")
	assert.NotContains(t, doc.Content, "[1]")
	// Markers beyond the assigned keys stay literal text.
	assert.Contains(t, doc.Content, "[9]")
}

func TestRun_ZeroFiguresOmitsBlocks(t *testing.T) {
	store := newMemStore()
	lit := &memLit{records: testRecords(5)}
	o := testOrchestrator(store, mockModel(t), lit)

	req := testRequest()
	req.NumFigures = 0
	req.NumTables = 0

	job := &types.GenerationJob{Status: types.JobQueued}
	require.NoError(t, store.CreateJob(context.Background(), job))
	require.NoError(t, o.Run(context.Background(), job.ID, req))

	final := store.job(t, job.ID)
	assert.Equal(t, types.JobCompleted, final.Status)

	doc := store.document(t, final.DocumentID)
	assert.NotContains(t, doc.Content, "## Figures")
	assert.NotContains(t, doc.Content, "## Tables")
	assert.Equal(t, 1, strings.Count(doc.Content, "## Abstract"))
	assert.Equal(t, 5, strings.Count(doc.Content, "\n- "))
	assert.Empty(t, store.figures)
	assert.Empty(t, store.tables)
}

func TestRun_PersistsChildrenInOrder(t *testing.T) {
	store := newMemStore()
	lit := &memLit{records: testRecords(2)}
	o := testOrchestrator(store, mockModel(t), lit)

	job := &types.GenerationJob{Status: types.JobQueued}
	require.NoError(t, store.CreateJob(context.Background(), job))
	require.NoError(t, o.Run(context.Background(), job.ID, testRequest()))

	require.Len(t, store.citations, 5)
	for i, c := range store.citations {
		assert.Equal(t, fmt.Sprintf("ref%d", i+1), c.Key)
		assert.Equal(t, i+1, c.Position)
		assert.NotZero(t, c.DocumentID)
	}
	// Only two real records; the rest were padded with placeholders.
	assert.False(t, store.citations[1].Record.IsPlaceholder())
	assert.True(t, store.citations[2].Record.IsPlaceholder())

	require.Len(t, store.authors, 2)
	assert.Equal(t, "Grace Hopper", store.authors[0].Name)
	assert.Equal(t, 1, store.authors[0].Position)

	// Mock plans 2 figures and 1 table; padding fills the request exactly.
	require.Len(t, store.figures, 3)
	assert.Equal(t, "Supplementary illustration 3", store.figures[2].Caption)
	require.Len(t, store.tables, 2)
	assert.Equal(t, "Supplementary data 2", store.tables[1].Caption)
}

func TestRun_PhaseFailureIsPrefixed(t *testing.T) {
	store := newMemStore()
	lit := &memLit{records: testRecords(5)}
	backendErr := errors.New("model backend offline")
	model := &failingModel{
		delegate: mockModel(t),
		failOn:   func(prompt string) bool { return strings.Contains(prompt, `"Methodology"`) },
		err:      backendErr,
	}
	o := testOrchestrator(store, model, lit)

	job := &types.GenerationJob{Status: types.JobQueued}
	require.NoError(t, store.CreateJob(context.Background(), job))
	err := o.Run(context.Background(), job.ID, testRequest())
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "[Section Writing] "))
	assert.ErrorIs(t, err, backendErr)

	final := store.job(t, job.ID)
	assert.Equal(t, types.JobFailed, final.Status)
	assert.True(t, strings.HasPrefix(final.Error, "[Section Writing] "))
	assert.Zero(t, final.DocumentID)
}

func TestRun_LiteratureErrorIsFatal(t *testing.T) {
	store := newMemStore()
	lit := &memLit{err: errors.New("search unavailable")}
	o := testOrchestrator(store, mockModel(t), lit)

	job := &types.GenerationJob{Status: types.JobQueued}
	require.NoError(t, store.CreateJob(context.Background(), job))
	err := o.Run(context.Background(), job.ID, testRequest())
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "[Literature Review] "))
}

func TestRun_ZeroReferencesSkipsSearch(t *testing.T) {
	store := newMemStore()
	lit := &memLit{}
	o := testOrchestrator(store, mockModel(t), lit)

	req := testRequest()
	req.NumReferences = 0
	job := &types.GenerationJob{Status: types.JobQueued}
	require.NoError(t, store.CreateJob(context.Background(), job))
	require.NoError(t, o.Run(context.Background(), job.ID, req))

	assert.Zero(t, lit.calls)
	assert.Empty(t, store.citations)
	doc := store.document(t, store.job(t, job.ID).DocumentID)
	assert.Contains(t, doc.Content, "_No references available._")
}

func TestStart_RunsDetached(t *testing.T) {
	store := newMemStore()
	lit := &memLit{records: testRecords(5)}
	o := testOrchestrator(store, mockModel(t), lit)

	id, err := o.Start(context.Background(), testRequest())
	require.NoError(t, err)
	require.NotZero(t, id)

	assert.Eventually(t, func() bool {
		store.mu.Lock()
		defer store.mu.Unlock()
		return store.jobs[id].Status == types.JobCompleted
	}, 5*time.Second, 10*time.Millisecond)
}

func TestCancel_IsLastWrite(t *testing.T) {
	store := newMemStore()
	lit := &memLit{records: testRecords(5)}
	o := testOrchestrator(store, mockModel(t), lit)

	job := &types.GenerationJob{Status: types.JobQueued}
	require.NoError(t, store.CreateJob(context.Background(), job))
	require.NoError(t, o.Run(context.Background(), job.ID, testRequest()))
	require.NoError(t, o.Cancel(context.Background(), job.ID))

	final := store.job(t, job.ID)
	assert.Equal(t, types.JobFailed, final.Status)
	assert.Equal(t, "cancelled by user", final.Error)
}

func TestEtaSeconds(t *testing.T) {
	start := time.Now().Add(-10 * time.Second)
	assert.Zero(t, etaSeconds(start, 0, 100))
	assert.Zero(t, etaSeconds(start, 100, 100))
	// 10s spent on 25 points leaves 75 points at 0.4s per point.
	assert.InDelta(t, 30, etaSeconds(start, 25, 100), 2)
}
