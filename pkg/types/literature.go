// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// LiteratureRecord holds one paper returned by the bibliographic search API.
// Records are read-only within a pipeline run. Per prd002-literature R2.1.
type LiteratureRecord struct {
	// ID is the canonical identifier from the source. Synthetic padding
	// records use the "placeholder-N" form.
	ID string `json:"id" yaml:"id"`

	// Title is the paper title.
	Title string `json:"title" yaml:"title"`

	// Year is the publication year.
	Year int `json:"year" yaml:"year"`

	// Authors lists author display names in source order.
	Authors []string `json:"authors" yaml:"authors"`

	// Venue is the journal or conference name.
	Venue string `json:"venue,omitempty" yaml:"venue,omitempty"`

	// CitationCount is the source-reported citation count.
	CitationCount int `json:"citation_count" yaml:"citation_count"`

	// DOI is the external DOI when known.
	DOI string `json:"doi,omitempty" yaml:"doi,omitempty"`

	// URL is the landing page for the paper.
	URL string `json:"url,omitempty" yaml:"url,omitempty"`
}

// IsPlaceholder reports whether the record is a synthetic padding record.
func (r LiteratureRecord) IsPlaceholder() bool {
	return len(r.ID) >= 11 && r.ID[:11] == "placeholder"
}

// CitationBinding pairs a LiteratureRecord with its stable in-text key.
// Keys take the form "ref<N>", N starting at 1 in discovery order, and are
// immutable once assigned within a run. Per prd002-literature R3.1-R3.3.
type CitationBinding struct {
	// Key is the stable citation key, e.g. "ref1".
	Key string `json:"key" yaml:"key"`

	// Record is the bound literature record.
	Record LiteratureRecord `json:"record" yaml:"record"`
}
