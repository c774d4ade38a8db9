// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the draft-engine pipeline.
// Implements: prd001-pipeline (GenerationRequest, GenerationJob);
//
//	prd002-literature (LiteratureRecord, CitationBinding);
//	prd005-revision (RevisionRequest);
//	prd007-storage (Document, Author, Citation, Figure, Table).
//
// See docs/ARCHITECTURE § Pipeline Interface, § Data Structures.
package types

// DocumentType classifies the scholarly document being drafted.
// Per prd001-pipeline R1.2.
type DocumentType string

const (
	DocResearchPaper    DocumentType = "research-paper"
	DocLiteratureReview DocumentType = "literature-review"
	DocSurvey           DocumentType = "survey"
	DocPositionPaper    DocumentType = "position-paper"
	DocThesisChapter    DocumentType = "thesis-chapter"
)

// CitationStyle selects how in-text citations and reference entries render.
// Unrecognized styles fall back to APA7. Per prd004-composition R3.1.
type CitationStyle string

const (
	StyleAPA7    CitationStyle = "apa7"
	StyleMLA9    CitationStyle = "mla9"
	StyleChicago CitationStyle = "chicago"
	StyleIEEE    CitationStyle = "ieee"
)

// AuthorSpec describes one author supplied with a generation request.
// Per prd001-pipeline R1.5.
type AuthorSpec struct {
	// Name is the author's display name.
	Name string `json:"name" yaml:"name"`

	// Affiliation is the author's institutional affiliation.
	Affiliation string `json:"affiliation,omitempty" yaml:"affiliation,omitempty"`

	// Email is the author's contact address (optional).
	Email string `json:"email,omitempty" yaml:"email,omitempty"`

	// ORCID is the author's ORCID identifier (optional).
	ORCID string `json:"orcid,omitempty" yaml:"orcid,omitempty"`

	// Corresponding marks the corresponding author.
	Corresponding bool `json:"corresponding,omitempty" yaml:"corresponding,omitempty"`
}

// GenerationRequest is the immutable input to one pipeline run.
// Per prd001-pipeline R1.1-R1.6.
type GenerationRequest struct {
	// Type classifies the document to draft.
	Type DocumentType `json:"type" yaml:"type"`

	// Title is the working title for the document.
	Title string `json:"title" yaml:"title"`

	// Domain is the research field (e.g. "machine learning").
	Domain string `json:"domain" yaml:"domain"`

	// Subdomain narrows the field (e.g. "attention mechanisms").
	Subdomain string `json:"subdomain,omitempty" yaml:"subdomain,omitempty"`

	// TargetWordCount is the desired body length in words.
	TargetWordCount int `json:"target_word_count" yaml:"target_word_count"`

	// NumFigures is the exact number of figure blocks to render.
	NumFigures int `json:"num_figures" yaml:"num_figures"`

	// NumTables is the exact number of table blocks to render.
	NumTables int `json:"num_tables" yaml:"num_tables"`

	// NumReferences is the exact number of reference entries to render.
	NumReferences int `json:"num_references" yaml:"num_references"`

	// CitationStyle selects citation rendering for the final document.
	CitationStyle CitationStyle `json:"citation_style" yaml:"citation_style"`

	// AbstractSeed is an optional abstract draft to steer generation.
	AbstractSeed string `json:"abstract_seed,omitempty" yaml:"abstract_seed,omitempty"`

	// Hypotheses lists research hypotheses the draft should address.
	Hypotheses []string `json:"hypotheses,omitempty" yaml:"hypotheses,omitempty"`

	// Methodology constrains the methodology section (optional).
	Methodology string `json:"methodology,omitempty" yaml:"methodology,omitempty"`

	// Authors lists the document's authors in byline order.
	Authors []AuthorSpec `json:"authors,omitempty" yaml:"authors,omitempty"`
}

// Topic combines domain and subdomain into the literature search topic.
func (r GenerationRequest) Topic() string {
	if r.Subdomain == "" {
		return r.Domain
	}
	return r.Domain + " " + r.Subdomain
}
