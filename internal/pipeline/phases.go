// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/pdiddy/draft-engine/internal/compose"
	"github.com/pdiddy/draft-engine/internal/literature"
	"github.com/pdiddy/draft-engine/internal/llm"
	"github.com/pdiddy/draft-engine/pkg/types"
)

// Fallback scores used when the model returns content the pipeline
// cannot parse. The run continues; only transport errors are fatal.
const (
	fallbackNovelty = 0.5
	fallbackQuality = 70.0
)

func (o *Orchestrator) literatureReview(ctx context.Context, run *genRun) error {
	count := run.req.NumReferences
	if count <= 0 {
		return nil
	}
	topic := run.req.Topic()
	papers, err := o.lit.ExtractKeyPapers(ctx, topic, count)
	if err != nil {
		return fmt.Errorf("extracting key papers: %w", err)
	}
	records := papers.All()
	if len(records) > count {
		records = records[:count]
	}
	for i := len(records); i < count; i++ {
		records = append(records, literature.Placeholder(i+1, topic))
	}
	run.records = records
	for i, rec := range records {
		run.bindings = append(run.bindings, types.CitationBinding{
			Key:    fmt.Sprintf("ref%d", i+1),
			Record: rec,
		})
	}
	return nil
}

// noveltySchemaBody constrains the novelty assessment to a JSON object
// the pipeline can parse without free-text cleanup.
const noveltySchemaBody = `{
  "type": "object",
  "properties": {
    "score": {"type": "number", "minimum": 0, "maximum": 1},
    "classification": {"type": "string"},
    "reasoning": {"type": "string"}
  },
  "required": ["score", "classification"],
  "additionalProperties": false
}`

func (o *Orchestrator) noveltyAssessment(ctx context.Context, run *genRun) error {
	res, err := o.model.Complete(ctx, llm.Request{
		Messages: []llm.Message{
			llm.System("You assess the novelty of proposed research against prior literature."),
			llm.User(noveltyPrompt(run)),
		},
		Schema: &llm.Schema{Name: "novelty_assessment", Body: json.RawMessage(noveltySchemaBody)},
	})
	if err != nil {
		return fmt.Errorf("assessing novelty: %w", err)
	}
	var parsed struct {
		Score     float64 `json:"score"`
		Reasoning string  `json:"reasoning"`
	}
	if err := json.Unmarshal([]byte(res.Content), &parsed); err != nil {
		o.log.Warn().Err(err).Msg("unparseable novelty assessment, using fallback score")
		run.novelty = fallbackNovelty
		return nil
	}
	run.novelty = clamp(parsed.Score, 0, 1)
	o.log.Debug().Float64("score", run.novelty).Str("reasoning", parsed.Reasoning).Msg("novelty assessed")
	return nil
}

func (o *Orchestrator) argumentArchitecture(ctx context.Context, run *genRun) error {
	res, err := o.model.Complete(ctx, llm.Request{
		Messages: []llm.Message{
			llm.System("You design the argument structure of scholarly documents."),
			llm.User(outlinePrompt(run)),
		},
	})
	if err != nil {
		return fmt.Errorf("building outline: %w", err)
	}
	outline := strings.TrimSpace(res.Content)
	if outline == "" {
		outline = fallbackOutline(run)
	}
	run.outline = outline
	return nil
}

func (o *Orchestrator) sectionWriting(ctx context.Context, run *genRun) error {
	budget := run.req.TargetWordCount / len(sectionOrder)
	for _, name := range sectionOrder {
		res, err := o.model.Complete(ctx, llm.Request{
			Messages: []llm.Message{
				llm.System("You write individual sections of scholarly documents."),
				llm.User(sectionPrompt(run, name, budget)),
			},
		})
		if err != nil {
			return fmt.Errorf("writing %s: %w", name, err)
		}
		body := strings.TrimSpace(res.Content)
		if body == "" {
			body = fmt.Sprintf("This section on %s is pending expansion.", strings.ToLower(name))
		}
		body = compose.StripLeadingHeading(body, name)
		body = compose.RewriteNumericCitations(body, len(run.bindings))
		if name == "Methodology" {
			body = compose.EnsureDerivation(body, run.req.Domain)
		}
		run.sections[name] = body
	}
	return nil
}

// figurePlanSchemaBody shapes the figure and table plan. Counts are not
// enforced by the schema; padding and truncation happen locally.
const figurePlanSchemaBody = `{
  "type": "object",
  "properties": {
    "figures": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "caption": {"type": "string"},
          "description": {"type": "string"}
        },
        "required": ["caption"]
      }
    },
    "tables": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "caption": {"type": "string"},
          "columns": {"type": "array", "items": {"type": "string"}},
          "rows": {"type": "array", "items": {"type": "array", "items": {"type": "string"}}}
        },
        "required": ["caption"]
      }
    }
  },
  "required": ["figures", "tables"],
  "additionalProperties": false
}`

func (o *Orchestrator) figureGeneration(ctx context.Context, run *genRun) error {
	if run.req.NumFigures <= 0 && run.req.NumTables <= 0 {
		return nil
	}
	res, err := o.model.Complete(ctx, llm.Request{
		Messages: []llm.Message{
			llm.System("You plan figures and tables for scholarly documents."),
			llm.User(figurePrompt(run)),
		},
		Schema: &llm.Schema{Name: "figure_plan", Body: json.RawMessage(figurePlanSchemaBody)},
	})
	if err != nil {
		return fmt.Errorf("planning figures: %w", err)
	}
	var parsed struct {
		Figures []struct {
			Caption     string `json:"caption"`
			Description string `json:"description"`
		} `json:"figures"`
		Tables []struct {
			Caption string     `json:"caption"`
			Columns []string   `json:"columns"`
			Rows    [][]string `json:"rows"`
		} `json:"tables"`
	}
	if err := json.Unmarshal([]byte(res.Content), &parsed); err != nil {
		o.log.Warn().Err(err).Msg("unparseable figure plan, padding from scratch")
	}
	var figures []types.Figure
	for _, f := range parsed.Figures {
		figures = append(figures, types.Figure{Caption: f.Caption, Description: f.Description})
	}
	var tables []types.Table
	for _, t := range parsed.Tables {
		tables = append(tables, types.Table{Caption: t.Caption, Columns: t.Columns, Rows: t.Rows})
	}
	run.figures = compose.PadFigures(figures, run.req.NumFigures)
	run.tables = compose.PadTables(tables, run.req.NumTables)
	return nil
}

// reviewSchemaBody shapes the internal review verdict.
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

func (o *Orchestrator) internalReview(ctx context.Context, run *genRun) error {
	res, err := o.model.Complete(ctx, llm.Request{
		Messages: []llm.Message{
			llm.System("You review scholarly drafts and score them 0-100."),
			llm.User(reviewPrompt(run)),
		},
		Schema: &llm.Schema{Name: "document_review", Body: json.RawMessage(reviewSchemaBody)},
	})
	if err != nil {
		return fmt.Errorf("reviewing draft: %w", err)
	}
	var parsed struct {
		Score float64 `json:"score"`
	}
	if err := json.Unmarshal([]byte(res.Content), &parsed); err != nil {
		o.log.Warn().Err(err).Msg("unparseable review, using fallback score")
		run.quality = fallbackQuality
		return nil
	}
	run.quality = clamp(parsed.Score, 0, 100)
	return nil
}

func (o *Orchestrator) finalAssembly(ctx context.Context, run *genRun) error {
	body := assembleBody(run)

	if !o.cfg.SkipLengthAdjust && run.req.TargetWordCount > 0 {
		words := compose.CountWords(body)
		if needed, expand := compose.LengthAdjustment(words, run.req.TargetWordCount); needed {
			adjusted, err := o.adjustLength(ctx, run, body, expand)
			if err != nil {
				return fmt.Errorf("adjusting length: %w", err)
			}
			if adjusted != "" {
				body = compose.RewriteNumericCitations(adjusted, len(run.bindings))
			}
		}
	}

	style := run.req.CitationStyle
	rendered := compose.RenderCitations(body, style, run.bindings)

	parts := []string{rendered}
	if block := compose.FiguresBlock(run.figures, run.req.NumFigures); block != "" {
		parts = append(parts, block)
	}
	if block := compose.TablesBlock(run.tables, run.req.NumTables); block != "" {
		parts = append(parts, block)
	}
	parts = append(parts, compose.ReferencesBlock(style, run.bindings))
	content := strings.Join(parts, "\n\n")

	now := time.Now().UTC()
	doc := &types.Document{
		Title:         run.req.Title,
		Abstract:      run.sections["Abstract"],
		Content:       content,
		Keywords:      keywords(run.req),
		Type:          run.req.Type,
		WordCount:     compose.CountWords(rendered),
		CitationStyle: style,
		NoveltyScore:  run.novelty,
		NoveltyClass:  types.ClassifyNovelty(run.novelty),
		QualityScore:  run.quality,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	authors := make([]types.Author, len(run.req.Authors))
	for i, spec := range run.req.Authors {
		authors[i] = types.Author{Position: i + 1, AuthorSpec: spec}
	}
	citations := make([]types.Citation, len(run.bindings))
	for i, b := range run.bindings {
		citations[i] = types.Citation{Position: i + 1, Key: b.Key, Record: b.Record}
	}
	if err := o.store.CreateDocumentSet(ctx, doc, authors, citations, run.figures, run.tables); err != nil {
		return fmt.Errorf("persisting document: %w", err)
	}
	run.documentID = doc.ID
	return nil
}

func (o *Orchestrator) adjustLength(ctx context.Context, run *genRun, body string, expand bool) (string, error) {
	res, err := o.model.Complete(ctx, llm.Request{
		Messages: []llm.Message{
			llm.System("You adjust the length of scholarly drafts without changing their structure."),
			llm.User(adjustPrompt(run, body, expand)),
		},
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(res.Content), nil
}

// assembleBody joins the drafted sections under `## Name` headings in
// the fixed section order.
func assembleBody(run *genRun) string {
	var b strings.Builder
	for i, name := range sectionOrder {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "## %s\n\n%s", name, run.sections[name])
	}
	return b.String()
}

func keywords(req types.GenerationRequest) []string {
	kw := []string{req.Domain}
	if req.Subdomain != "" {
		kw = append(kw, req.Subdomain)
	}
	return kw
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
