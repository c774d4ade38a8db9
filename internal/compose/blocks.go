// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package compose

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/pdiddy/draft-engine/internal/literature"
	"github.com/pdiddy/draft-engine/pkg/types"
)

// ReferencesBlock renders the references section for the given bindings in
// key order. IEEE numbers entries 1..N; every other style bullets them. An
// empty binding set renders an explicit placeholder line.
func ReferencesBlock(style types.CitationStyle, bindings []types.CitationBinding) string {
	var b strings.Builder
	b.WriteString("## References\n\n")

	if len(bindings) == 0 {
		b.WriteString("_No references available._\n")
		return b.String()
	}

	for i, binding := range bindings {
		entry := literature.FormatCitation(binding.Record, style)
		if style == types.StyleIEEE {
			fmt.Fprintf(&b, "[%d] %s\n", i+1, entry)
		} else {
			fmt.Fprintf(&b, "- %s\n", entry)
		}
	}
	return b.String()
}

// PadFigures returns exactly count figure plans, keeping the given plans
// in order and synthesizing captions for any shortfall. Extra plans are
// truncated.
func PadFigures(plans []types.Figure, count int) []types.Figure {
	if count <= 0 {
		return nil
	}
	out := make([]types.Figure, 0, count)
	out = append(out, plans...)
	if len(out) > count {
		out = out[:count]
	}
	for len(out) < count {
		n := len(out) + 1
		out = append(out, types.Figure{
			Caption:     fmt.Sprintf("Supplementary illustration %d", n),
			Description: "Placeholder figure pending final artwork.",
		})
	}
	for i := range out {
		out[i].Position = i + 1
	}
	return out
}

// PadTables returns exactly count table plans, synthesizing columns and
// rows for any shortfall. Extra plans are truncated.
func PadTables(plans []types.Table, count int) []types.Table {
	if count <= 0 {
		return nil
	}
	out := make([]types.Table, 0, count)
	out = append(out, plans...)
	if len(out) > count {
		out = out[:count]
	}
	for len(out) < count {
		n := len(out) + 1
		out = append(out, types.Table{
			Caption: fmt.Sprintf("Supplementary data %d", n),
			Columns: []string{"Item", "Value"},
			Rows:    [][]string{{"—", "—"}},
		})
	}
	for i := range out {
		out[i].Position = i + 1
	}
	return out
}

// FiguresBlock renders exactly count figure entries numbered from 1.
// Returns "" when count is zero.
func FiguresBlock(plans []types.Figure, count int) string {
	if count <= 0 {
		return ""
	}
	figures := PadFigures(plans, count)

	var b strings.Builder
	b.WriteString("## Figures\n")
	for i, f := range figures {
		fmt.Fprintf(&b, "\n**Figure %d.** %s\n", i+1, f.Caption)
		if f.Description != "" {
			fmt.Fprintf(&b, "\n%s\n", f.Description)
		}
	}
	return b.String()
}

// TablesBlock renders exactly count table entries numbered from 1, each
// with a Markdown table body. Returns "" when count is zero.
func TablesBlock(plans []types.Table, count int) string {
	if count <= 0 {
		return ""
	}
	tables := PadTables(plans, count)

	var b strings.Builder
	b.WriteString("## Tables\n")
	for i, t := range tables {
		fmt.Fprintf(&b, "\n**Table %d.** %s\n\n", i+1, t.Caption)

		cols := t.Columns
		if len(cols) == 0 {
			cols = []string{"Item", "Value"}
		}
		b.WriteString("| " + strings.Join(cols, " | ") + " |\n")
		b.WriteString("|" + strings.Repeat(" --- |", len(cols)) + "\n")
		for _, row := range t.Rows {
			cells := make([]string, len(cols))
			for j := range cols {
				if j < len(row) {
					cells[j] = row[j]
				} else {
					cells[j] = ""
				}
			}
			b.WriteString("| " + strings.Join(cells, " | ") + " |\n")
		}
	}
	return b.String()
}

// technicalDomains lists research domains that receive a worked derivation
// when the model produced no tagged display equations.
var technicalDomains = map[string]bool{
	"mathematics":      true,
	"physics":          true,
	"engineering":      true,
	"computer science": true,
	"statistics":       true,
	"machine learning": true,
}

// IsTechnicalDomain reports whether the domain gets derivation treatment.
func IsTechnicalDomain(domain string) bool {
	return technicalDomains[strings.ToLower(strings.TrimSpace(domain))]
}

// taggedEquation matches a display equation carrying an explicit tag or an
// equation environment, either of which counts as a worked derivation.
var taggedEquation = regexp.MustCompile(`\\tag\{\d+\}|\\begin\{equation\}`)

// derivationTemplate is the injected, explicitly numbered derivation block.
const derivationTemplate = `

We formalize the central quantity as follows. Let the objective be

$$J(\theta) = \mathbb{E}\left[\, \ell(x; \theta) \,\right] \tag{1}$$

Expanding the expectation over the sampled data gives

$$J(\theta) = \frac{1}{N} \sum_{i=1}^{N} \ell(x_i; \theta) \tag{2}$$

and differentiating with respect to the parameters yields the update rule

$$\theta_{t+1} = \theta_t - \eta \, \nabla_\theta J(\theta_t) \tag{3}$$

Equations (1)–(3) make the assumptions of the analysis explicit.`

// EnsureDerivation appends the numbered derivation block to a section body
// when the domain is technical and the body has no tagged display
// equations. Non-technical domains and already-derived bodies pass through
// unchanged.
func EnsureDerivation(body, domain string) string {
	if !IsTechnicalDomain(domain) {
		return body
	}
	if taggedEquation.MatchString(body) {
		return body
	}
	return strings.TrimRight(body, "\n") + derivationTemplate
}
