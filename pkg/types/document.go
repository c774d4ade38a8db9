// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// NoveltyClass buckets a novelty score for display.
// Per prd001-pipeline R6.4: ≥0.8 substantial, ≥0.6 moderate, else incremental.
type NoveltyClass string

const (
	NoveltySubstantial NoveltyClass = "substantial"
	NoveltyModerate    NoveltyClass = "moderate"
	NoveltyIncremental NoveltyClass = "incremental"
)

// ClassifyNovelty maps a clamped novelty score to its class.
func ClassifyNovelty(score float64) NoveltyClass {
	switch {
	case score >= 0.8:
		return NoveltySubstantial
	case score >= 0.6:
		return NoveltyModerate
	default:
		return NoveltyIncremental
	}
}

// Document is the persisted artifact of one pipeline run or one revision.
// Documents are never mutated in place; a revision creates a new row.
// Per prd007-storage R1.1-R1.3.
type Document struct {
	// ID is the storage-assigned integer identifier.
	ID int64 `json:"id" yaml:"id"`

	// Title is the document title.
	Title string `json:"title" yaml:"title"`

	// Abstract is the extracted abstract text.
	Abstract string `json:"abstract" yaml:"abstract"`

	// Content is the full rendered body, references included.
	Content string `json:"content" yaml:"content"`

	// Keywords lists topic keywords.
	Keywords []string `json:"keywords,omitempty" yaml:"keywords,omitempty"`

	// Type classifies the document.
	Type DocumentType `json:"type" yaml:"type"`

	// WordCount is the rendered body word count.
	WordCount int `json:"word_count" yaml:"word_count"`

	// CitationStyle records the style the content was rendered with.
	CitationStyle CitationStyle `json:"citation_style" yaml:"citation_style"`

	// NoveltyScore is the clamped [0,1] novelty assessment.
	NoveltyScore float64 `json:"novelty_score" yaml:"novelty_score"`

	// NoveltyClass buckets the novelty score.
	NoveltyClass NoveltyClass `json:"novelty_class" yaml:"novelty_class"`

	// QualityScore is the clamped [0,100] internal review score.
	QualityScore float64 `json:"quality_score" yaml:"quality_score"`

	// CreatedAt is the creation timestamp.
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`

	// UpdatedAt is the last update timestamp.
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
}

// Author is a persisted author row scoped to one Document.
type Author struct {
	ID         int64  `json:"id" yaml:"id"`
	DocumentID int64  `json:"document_id" yaml:"document_id"`
	Position   int    `json:"position" yaml:"position"`
	AuthorSpec `yaml:",inline"`
}

// Citation is a persisted citation row scoped to one Document. The Key is
// the stable in-text marker (`ref1`, `ref2`, ...) assigned in discovery
// order during the literature phase.
type Citation struct {
	ID         int64  `json:"id" yaml:"id"`
	DocumentID int64  `json:"document_id" yaml:"document_id"`
	Position   int    `json:"position" yaml:"position"`
	Key        string `json:"key" yaml:"key"`

	// Record is the literature record the key resolves to.
	Record LiteratureRecord `json:"record" yaml:"record"`
}

// Figure is a persisted figure row scoped to one Document.
type Figure struct {
	ID          int64  `json:"id" yaml:"id"`
	DocumentID  int64  `json:"document_id" yaml:"document_id"`
	Position    int    `json:"position" yaml:"position"`
	Caption     string `json:"caption" yaml:"caption"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// Table is a persisted table row scoped to one Document.
type Table struct {
	ID         int64    `json:"id" yaml:"id"`
	DocumentID int64    `json:"document_id" yaml:"document_id"`
	Position   int      `json:"position" yaml:"position"`
	Caption    string   `json:"caption" yaml:"caption"`
	Columns    []string `json:"columns,omitempty" yaml:"columns,omitempty"`
	Rows       [][]string `json:"rows,omitempty" yaml:"rows,omitempty"`
}

// JobStatus tracks a GenerationJob through its lifecycle.
// Per prd001-pipeline R5.1: queued → processing → {completed, failed}.
type JobStatus string

const (
	JobQueued     JobStatus = "queued"
	JobProcessing JobStatus = "processing"
	JobCompleted  JobStatus = "completed"
	JobFailed     JobStatus = "failed"
)

// GenerationJob tracks one pipeline run. It is the only mutable persisted
// entity in the core; the orchestrator updates it after every phase.
type GenerationJob struct {
	// ID is the storage-assigned integer identifier.
	ID int64 `json:"id" yaml:"id"`

	// Status is the lifecycle state.
	Status JobStatus `json:"status" yaml:"status"`

	// Phase is the name of the currently executing (or last) phase.
	Phase string `json:"phase,omitempty" yaml:"phase,omitempty"`

	// Progress is the cumulative completion percentage, 0-100.
	Progress int `json:"progress" yaml:"progress"`

	// ETASeconds is a rough estimate of remaining run time.
	ETASeconds int `json:"eta_seconds,omitempty" yaml:"eta_seconds,omitempty"`

	// DocumentID points to the persisted Document once completed.
	DocumentID int64 `json:"document_id,omitempty" yaml:"document_id,omitempty"`

	// NoveltyScore and QualityScore are attached on completion.
	NoveltyScore float64 `json:"novelty_score,omitempty" yaml:"novelty_score,omitempty"`
	QualityScore float64 `json:"quality_score,omitempty" yaml:"quality_score,omitempty"`

	// Error holds the failure message when Status is failed.
	Error string `json:"error,omitempty" yaml:"error,omitempty"`

	// CreatedAt and UpdatedAt are lifecycle timestamps.
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
}

// RevisionType classifies what a revision should do to the source document.
// Per prd005-revision R1.2.
type RevisionType string

const (
	RevisionTargetedEdit    RevisionType = "targeted-edit"
	RevisionGlobal          RevisionType = "global-revision"
	RevisionExpansion       RevisionType = "expansion"
	RevisionReduction       RevisionType = "reduction"
	RevisionStyleAdjustment RevisionType = "style-adjustment"
)

// RevisionStatus tracks a RevisionRequest through its lifecycle.
// Per prd005-revision R1.3: pending → processing → {completed, failed}.
type RevisionStatus string

const (
	RevisionPending    RevisionStatus = "pending"
	RevisionProcessing RevisionStatus = "processing"
	RevisionCompleted  RevisionStatus = "completed"
	RevisionFailed     RevisionStatus = "failed"
)

// RevisionRequest asks for a new version of an existing Document.
type RevisionRequest struct {
	// ID is the storage-assigned integer identifier.
	ID int64 `json:"id" yaml:"id"`

	// DocumentID references the source Document.
	DocumentID int64 `json:"document_id" yaml:"document_id"`

	// Type classifies the revision.
	Type RevisionType `json:"type" yaml:"type"`

	// Instructions is the free-text revision guidance.
	Instructions string `json:"instructions" yaml:"instructions"`

	// Preservation flags constrain what the rewrite must keep unchanged.
	PreserveArgument  bool `json:"preserve_argument" yaml:"preserve_argument"`
	PreserveFigures   bool `json:"preserve_figures" yaml:"preserve_figures"`
	PreserveWordCount bool `json:"preserve_word_count" yaml:"preserve_word_count"`
	PreserveCitations bool `json:"preserve_citations" yaml:"preserve_citations"`

	// Status is the lifecycle state.
	Status RevisionStatus `json:"status" yaml:"status"`

	// NewDocumentID points to the revised Document once completed.
	NewDocumentID int64 `json:"new_document_id,omitempty" yaml:"new_document_id,omitempty"`

	// Error holds the failure message when Status is failed.
	Error string `json:"error,omitempty" yaml:"error,omitempty"`

	// CreatedAt and UpdatedAt are lifecycle timestamps.
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
}
