// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package revise

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/draft-engine/internal/llm"
	"github.com/pdiddy/draft-engine/pkg/types"
)

const revisedContent = "## Abstract\n\nA sharper summary of sparse attention.\n\n## Introduction\n\nRevised introduction citing prior work (Vaswani, 2017).\n\n## Conclusion\n\nRevised conclusion."

// memStore is an in-memory Store for revision tests.
type memStore struct {
	nextDoc   int64
	documents map[int64]types.Document
	authors   map[int64][]types.Author
	citations map[int64][]types.Citation
	figures   map[int64][]types.Figure
	tables    map[int64][]types.Table
	revisions map[int64]types.RevisionRequest
}

func newMemStore() *memStore {
	return &memStore{
		documents: map[int64]types.Document{},
		authors:   map[int64][]types.Author{},
		citations: map[int64][]types.Citation{},
		figures:   map[int64][]types.Figure{},
		tables:    map[int64][]types.Table{},
		revisions: map[int64]types.RevisionRequest{},
	}
}

func (s *memStore) GetRevision(_ context.Context, id int64) (*types.RevisionRequest, error) {
	rev, ok := s.revisions[id]
	if !ok {
		return nil, fmt.Errorf("revision %d not found", id)
	}
	return &rev, nil
}

func (s *memStore) UpdateRevision(_ context.Context, rev *types.RevisionRequest) error {
	if _, ok := s.revisions[rev.ID]; !ok {
		return fmt.Errorf("revision %d not found", rev.ID)
	}
	s.revisions[rev.ID] = *rev
	return nil
}

func (s *memStore) GetDocument(_ context.Context, id int64) (*types.Document, error) {
	doc, ok := s.documents[id]
	if !ok {
		return nil, fmt.Errorf("document %d not found", id)
	}
	return &doc, nil
}

func (s *memStore) AuthorsByDocument(_ context.Context, id int64) ([]types.Author, error) {
	return append([]types.Author(nil), s.authors[id]...), nil
}

func (s *memStore) CitationsByDocument(_ context.Context, id int64) ([]types.Citation, error) {
	return append([]types.Citation(nil), s.citations[id]...), nil
}

func (s *memStore) FiguresByDocument(_ context.Context, id int64) ([]types.Figure, error) {
	return append([]types.Figure(nil), s.figures[id]...), nil
}

func (s *memStore) TablesByDocument(_ context.Context, id int64) ([]types.Table, error) {
	return append([]types.Table(nil), s.tables[id]...), nil
}

func (s *memStore) CreateDocumentSet(_ context.Context, doc *types.Document, authors []types.Author, citations []types.Citation, figures []types.Figure, tables []types.Table) error {
	s.nextDoc++
	doc.ID = s.nextDoc
	s.documents[doc.ID] = *doc
	s.authors[doc.ID] = authors
	s.citations[doc.ID] = citations
	s.figures[doc.ID] = figures
	s.tables[doc.ID] = tables
	return nil
}

// scriptedModel returns fixed content for free-text calls and a fixed
// review verdict for structured calls.
type scriptedModel struct {
	content   string
	reviewErr error
	calls     int
}

func (m *scriptedModel) Complete(_ context.Context, req llm.Request) (llm.Result, error) {
	m.calls++
	if req.Schema != nil {
		if m.reviewErr != nil {
			return llm.Result{}, m.reviewErr
		}
		return llm.Result{Content: `{"score": 91}`}, nil
	}
	return llm.Result{Content: m.content}, nil
}

func seedSource(s *memStore) int64 {
	doc := &types.Document{
		Title:         "Adaptive Attention for Sparse Inputs",
		Abstract:      "Old abstract.",
		Content:       "## Abstract\n\nOld abstract.\n\n## Introduction\n\nOld introduction.",
		Keywords:      []string{"machine learning"},
		Type:          types.DocResearchPaper,
		WordCount:     900,
		CitationStyle: types.StyleAPA7,
		NoveltyScore:  0.72,
		NoveltyClass:  types.NoveltyModerate,
		QualityScore:  84,
	}
	s.CreateDocumentSet(context.Background(), doc,
		[]types.Author{
			{Position: 1, AuthorSpec: types.AuthorSpec{Name: "Grace Hopper", Corresponding: true}},
			{Position: 2, AuthorSpec: types.AuthorSpec{Name: "Ada Lovelace"}},
		},
		[]types.Citation{
			{Position: 1, Key: "ref1", Record: types.LiteratureRecord{ID: "p1", Title: "Attention Is All You Need", Year: 2017}},
			{Position: 2, Key: "ref2", Record: types.LiteratureRecord{ID: "p2", Title: "Notes on Computation", Year: 1843}},
		},
		[]types.Figure{{Position: 1, Caption: "System overview"}},
		[]types.Table{{Position: 1, Caption: "Dataset statistics"}})
	return doc.ID
}

func seedRevision(s *memStore, docID int64, mutate func(*types.RevisionRequest)) int64 {
	rev := types.RevisionRequest{
		ID:           int64(len(s.revisions) + 1),
		DocumentID:   docID,
		Type:         types.RevisionGlobal,
		Instructions: "Tighten the prose throughout.",
		Status:       types.RevisionPending,
	}
	if mutate != nil {
		mutate(&rev)
	}
	s.revisions[rev.ID] = rev
	return rev.ID
}

func TestProcess_CreatesNewDocument(t *testing.T) {
	store := newMemStore()
	docID := seedSource(store)
	revID := seedRevision(store, docID, nil)
	p := NewProcessor(store, &scriptedModel{content: revisedContent}, zerolog.Nop())

	require.NoError(t, p.Process(context.Background(), revID))

	rev := store.revisions[revID]
	assert.Equal(t, types.RevisionCompleted, rev.Status)
	require.NotZero(t, rev.NewDocumentID)
	require.NotEqual(t, docID, rev.NewDocumentID)

	newDoc := store.documents[rev.NewDocumentID]
	assert.Equal(t, revisedContent, newDoc.Content)
	assert.Equal(t, "A sharper summary of sparse attention.", newDoc.Abstract)
	assert.InDelta(t, 91.0, newDoc.QualityScore, 1e-9)

	// The source document is untouched.
	src := store.documents[docID]
	assert.Equal(t, "Old abstract.", src.Abstract)
	assert.InDelta(t, 84.0, src.QualityScore, 1e-9)

	// Provenance fields carry over from the source.
	assert.Equal(t, src.Title, newDoc.Title)
	assert.Equal(t, src.CitationStyle, newDoc.CitationStyle)
	assert.InDelta(t, src.NoveltyScore, newDoc.NoveltyScore, 1e-9)
}

func TestProcess_AuthorsAlwaysCopied(t *testing.T) {
	store := newMemStore()
	docID := seedSource(store)
	revID := seedRevision(store, docID, nil)
	p := NewProcessor(store, &scriptedModel{content: revisedContent}, zerolog.Nop())

	require.NoError(t, p.Process(context.Background(), revID))

	newID := store.revisions[revID].NewDocumentID
	authors := store.authors[newID]
	require.Len(t, authors, 2)
	assert.Equal(t, "Grace Hopper", authors[0].Name)
	assert.True(t, authors[0].Corresponding)
	assert.Zero(t, authors[0].ID)
}

func TestProcess_CitationsCopiedOnlyWhenPreserved(t *testing.T) {
	store := newMemStore()
	docID := seedSource(store)

	plain := seedRevision(store, docID, nil)
	p := NewProcessor(store, &scriptedModel{content: revisedContent}, zerolog.Nop())
	require.NoError(t, p.Process(context.Background(), plain))
	assert.Empty(t, store.citations[store.revisions[plain].NewDocumentID])

	preserved := seedRevision(store, docID, func(r *types.RevisionRequest) { r.PreserveCitations = true })
	require.NoError(t, p.Process(context.Background(), preserved))
	citations := store.citations[store.revisions[preserved].NewDocumentID]
	require.Len(t, citations, 2)
	assert.Equal(t, "ref1", citations[0].Key)
	assert.Equal(t, "Attention Is All You Need", citations[0].Record.Title)
}

func TestProcess_FiguresCopiedOnlyWhenPreserved(t *testing.T) {
	store := newMemStore()
	docID := seedSource(store)
	revID := seedRevision(store, docID, func(r *types.RevisionRequest) { r.PreserveFigures = true })
	p := NewProcessor(store, &scriptedModel{content: revisedContent}, zerolog.Nop())

	require.NoError(t, p.Process(context.Background(), revID))

	newID := store.revisions[revID].NewDocumentID
	require.Len(t, store.figures[newID], 1)
	assert.Equal(t, "System overview", store.figures[newID][0].Caption)
	require.Len(t, store.tables[newID], 1)
}

func TestProcess_EmptyRevisionFails(t *testing.T) {
	store := newMemStore()
	docID := seedSource(store)
	revID := seedRevision(store, docID, nil)
	p := NewProcessor(store, &scriptedModel{content: "   "}, zerolog.Nop())

	err := p.Process(context.Background(), revID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty revision")

	rev := store.revisions[revID]
	assert.Equal(t, types.RevisionFailed, rev.Status)
	assert.Contains(t, rev.Error, "empty revision")
	assert.Zero(t, rev.NewDocumentID)
}

func TestProcess_MissingDocumentFails(t *testing.T) {
	store := newMemStore()
	revID := seedRevision(store, 404, nil)
	p := NewProcessor(store, &scriptedModel{content: revisedContent}, zerolog.Nop())

	err := p.Process(context.Background(), revID)
	require.Error(t, err)
	assert.Equal(t, types.RevisionFailed, store.revisions[revID].Status)
	assert.Contains(t, store.revisions[revID].Error, "not found")
}

func TestProcess_ReviewErrorFails(t *testing.T) {
	store := newMemStore()
	docID := seedSource(store)
	revID := seedRevision(store, docID, nil)
	backendErr := errors.New("review backend offline")
	p := NewProcessor(store, &scriptedModel{content: revisedContent, reviewErr: backendErr}, zerolog.Nop())

	err := p.Process(context.Background(), revID)
	require.ErrorIs(t, err, backendErr)
	assert.Equal(t, types.RevisionFailed, store.revisions[revID].Status)
}

func TestRevisionPrompt_Constraints(t *testing.T) {
	rev := &types.RevisionRequest{
		Type:              types.RevisionReduction,
		Instructions:      "Cut the discussion in half.",
		PreserveArgument:  true,
		PreserveWordCount: true,
	}
	doc := &types.Document{WordCount: 1200, Content: "## Abstract\n\nBody."}
	prompt := revisionPrompt(rev, doc)
	assert.Contains(t, prompt, "reduction revision")
	assert.Contains(t, prompt, "argument structure")
	assert.Contains(t, prompt, "near 1200 words")
	assert.False(t, strings.Contains(prompt, "citation exactly"))
	assert.Contains(t, prompt, "## Abstract")
}

func TestProcess_MissingRevisionFails(t *testing.T) {
	p := NewProcessor(newMemStore(), &scriptedModel{content: revisedContent}, zerolog.Nop())
	err := p.Process(context.Background(), 7)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}
