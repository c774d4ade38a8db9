// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"fmt"
	"strings"

	"github.com/pdiddy/draft-engine/pkg/types"
)

// sectionOrder is the fixed set of sections every document carries, in
// presentation order.
var sectionOrder = []string{
	"Abstract",
	"Introduction",
	"Literature Review",
	"Methodology",
	"Results",
	"Discussion",
	"Conclusion",
}

// genRun is the working state of one pipeline run. It is created fresh
// for every job and never shared between runs.
type genRun struct {
	req      types.GenerationRequest
	records  []types.LiteratureRecord
	bindings []types.CitationBinding

	novelty  float64
	outline  string
	sections map[string]string
	figures  []types.Figure
	tables   []types.Table
	quality  float64

	documentID int64
}

func newGenRun(req types.GenerationRequest) *genRun {
	return &genRun{req: req, sections: map[string]string{}}
}

// literatureSummary renders the discovered records as a numbered list
// matching the [refN] keys the model is told to cite with.
func (r *genRun) literatureSummary() string {
	var b strings.Builder
	for i, rec := range r.records {
		fmt.Fprintf(&b, "[ref%d] %s (%d). %s. %s\n", i+1, strings.Join(rec.Authors, ", "), rec.Year, rec.Title, rec.Venue)
	}
	return b.String()
}
