// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package revise rewrites existing documents against revision requests.
// Implements: prd005-revision (R1-R4);
//
//	docs/ARCHITECTURE § Revision.
package revise

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/pdiddy/draft-engine/internal/compose"
	"github.com/pdiddy/draft-engine/internal/llm"
	"github.com/pdiddy/draft-engine/pkg/types"
)

// ModelBackend is the slice of the model gateway revision needs.
type ModelBackend interface {
	Complete(ctx context.Context, req llm.Request) (llm.Result, error)
}

// Store is the persistence contract revision reads and writes through.
type Store interface {
	GetRevision(ctx context.Context, id int64) (*types.RevisionRequest, error)
	UpdateRevision(ctx context.Context, rev *types.RevisionRequest) error
	GetDocument(ctx context.Context, id int64) (*types.Document, error)
	AuthorsByDocument(ctx context.Context, documentID int64) ([]types.Author, error)
	CitationsByDocument(ctx context.Context, documentID int64) ([]types.Citation, error)
	FiguresByDocument(ctx context.Context, documentID int64) ([]types.Figure, error)
	TablesByDocument(ctx context.Context, documentID int64) ([]types.Table, error)
	CreateDocumentSet(ctx context.Context, doc *types.Document, authors []types.Author, citations []types.Citation, figures []types.Figure, tables []types.Table) error
}

// fallbackQuality covers an unparseable review verdict.
const fallbackQuality = 70.0

// Processor executes revision requests. Source documents are never
// mutated; every completed revision creates a new document row.
type Processor struct {
	store Store
	model ModelBackend
	log   zerolog.Logger
}

// NewProcessor wires a revision processor against its collaborators.
func NewProcessor(store Store, model ModelBackend, log zerolog.Logger) *Processor {
	return &Processor{store: store, model: model, log: log}
}

// Process runs one revision request to completion. Any failure is
// recorded on the request before the error is returned, so a crashed
// revision never stays in processing.
func (p *Processor) Process(ctx context.Context, revisionID int64) error {
	rev, err := p.store.GetRevision(ctx, revisionID)
	if err != nil {
		return fmt.Errorf("loading revision %d: %w", revisionID, err)
	}
	rev.Status = types.RevisionProcessing
	if err := p.store.UpdateRevision(ctx, rev); err != nil {
		return fmt.Errorf("updating revision %d: %w", revisionID, err)
	}

	newDocID, err := p.run(ctx, rev)
	if err != nil {
		rev.Status = types.RevisionFailed
		rev.Error = err.Error()
		if uerr := p.store.UpdateRevision(ctx, rev); uerr != nil {
			p.log.Error().Err(uerr).Int64("revision_id", revisionID).Msg("recording failure")
		}
		return err
	}

	rev.Status = types.RevisionCompleted
	rev.NewDocumentID = newDocID
	if err := p.store.UpdateRevision(ctx, rev); err != nil {
		return fmt.Errorf("updating revision %d: %w", revisionID, err)
	}
	p.log.Info().Int64("revision_id", revisionID).Int64("document_id", newDocID).Msg("revision completed")
	return nil
}

func (p *Processor) run(ctx context.Context, rev *types.RevisionRequest) (int64, error) {
	source, err := p.store.GetDocument(ctx, rev.DocumentID)
	if err != nil {
		return 0, fmt.Errorf("loading source document: %w", err)
	}

	res, err := p.model.Complete(ctx, llm.Request{
		Messages: []llm.Message{
			llm.System("You revise scholarly documents according to precise instructions."),
			llm.User(revisionPrompt(rev, source)),
		},
	})
	if err != nil {
		return 0, fmt.Errorf("revising document: %w", err)
	}
	content := strings.TrimSpace(res.Content)
	if content == "" {
		return 0, fmt.Errorf("model returned an empty revision")
	}

	quality, err := p.rescore(ctx, source.Title, content)
	if err != nil {
		return 0, fmt.Errorf("scoring revision: %w", err)
	}

	authors, err := p.store.AuthorsByDocument(ctx, source.ID)
	if err != nil {
		return 0, fmt.Errorf("loading source authors: %w", err)
	}
	for i := range authors {
		authors[i].ID = 0
		authors[i].DocumentID = 0
	}

	var citations []types.Citation
	if rev.PreserveCitations {
		citations, err = p.store.CitationsByDocument(ctx, source.ID)
		if err != nil {
			return 0, fmt.Errorf("loading source citations: %w", err)
		}
		for i := range citations {
			citations[i].ID = 0
			citations[i].DocumentID = 0
		}
	}

	var figures []types.Figure
	var tables []types.Table
	if rev.PreserveFigures {
		figures, err = p.store.FiguresByDocument(ctx, source.ID)
		if err != nil {
			return 0, fmt.Errorf("loading source figures: %w", err)
		}
		for i := range figures {
			figures[i].ID = 0
			figures[i].DocumentID = 0
		}
		tables, err = p.store.TablesByDocument(ctx, source.ID)
		if err != nil {
			return 0, fmt.Errorf("loading source tables: %w", err)
		}
		for i := range tables {
			tables[i].ID = 0
			tables[i].DocumentID = 0
		}
	}

	now := time.Now().UTC()
	doc := &types.Document{
		Title:         source.Title,
		Abstract:      compose.ExtractSection(content, "Abstract"),
		Content:       content,
		Keywords:      source.Keywords,
		Type:          source.Type,
		WordCount:     compose.CountWords(content),
		CitationStyle: source.CitationStyle,
		NoveltyScore:  source.NoveltyScore,
		NoveltyClass:  source.NoveltyClass,
		QualityScore:  quality,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := p.store.CreateDocumentSet(ctx, doc, authors, citations, figures, tables); err != nil {
		return 0, fmt.Errorf("persisting revised document: %w", err)
	}
	return doc.ID, nil
}

// reviewSchemaBody mirrors the pipeline's internal review verdict.
const reviewSchemaBody = `{
  "type": "object",
  "properties": {
    "score": {"type": "number", "minimum": 0, "maximum": 100},
    "strengths": {"type": "array", "items": {"type": "string"}},
    "weaknesses": {"type": "array", "items": {"type": "string"}}
  },
  "required": ["score"],
  "additionalProperties": false
}`

func (p *Processor) rescore(ctx context.Context, title, content string) (float64, error) {
	excerpt := content
	if len(excerpt) > 2000 {
		excerpt = excerpt[:2000]
	}
	res, err := p.model.Complete(ctx, llm.Request{
		Messages: []llm.Message{
			llm.System("You review scholarly drafts and score them 0-100."),
			llm.User(fmt.Sprintf("Review this revised draft of %q and score its quality from 0 to 100.\n\n%s", title, excerpt)),
		},
		Schema: &llm.Schema{Name: "document_review", Body: json.RawMessage(reviewSchemaBody)},
	})
	if err != nil {
		return 0, err
	}
	var parsed struct {
		Score float64 `json:"score"`
	}
	if err := json.Unmarshal([]byte(res.Content), &parsed); err != nil {
		p.log.Warn().Err(err).Msg("unparseable review, using fallback score")
		return fallbackQuality, nil
	}
	if parsed.Score < 0 {
		return 0, nil
	}
	if parsed.Score > 100 {
		return 100, nil
	}
	return parsed.Score, nil
}

func revisionPrompt(rev *types.RevisionRequest, source *types.Document) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Apply a %s revision to the document below.\n", rev.Type)
	fmt.Fprintf(&b, "Instructions: %s\n", rev.Instructions)
	b.WriteString("Constraints:\n")
	if rev.PreserveArgument {
		b.WriteString("- Keep the argument structure and section ordering unchanged.\n")
	}
	if rev.PreserveFigures {
		b.WriteString("- Keep every figure and table reference unchanged.\n")
	}
	if rev.PreserveWordCount {
		fmt.Fprintf(&b, "- Keep the total length near %d words.\n", source.WordCount)
	}
	if rev.PreserveCitations {
		b.WriteString("- Keep every citation exactly as written.\n")
	}
	b.WriteString("Return the complete revised document, headings included.\n\n")
	b.WriteString(source.Content)
	return b.String()
}
