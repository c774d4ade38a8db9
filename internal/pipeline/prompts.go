// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"fmt"
	"strings"
)

// reviewExcerptLimit caps how much of the draft is sent for internal
// review; scoring does not need the full text.
const reviewExcerptLimit = 2000

func noveltyPrompt(run *genRun) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Assess the novelty of the following proposed %s.\n\n", run.req.Type)
	fmt.Fprintf(&b, "Title: %s\nField: %s\n", run.req.Title, run.req.Topic())
	if len(run.req.Hypotheses) > 0 {
		b.WriteString("Hypotheses:\n")
		for _, h := range run.req.Hypotheses {
			fmt.Fprintf(&b, "- %s\n", h)
		}
	}
	b.WriteString("\nSurveyed literature:\n")
	b.WriteString(run.literatureSummary())
	b.WriteString("\nScore novelty from 0 (derivative) to 1 (groundbreaking) and explain briefly.")
	return b.String()
}

func outlinePrompt(run *genRun) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Produce an argument outline for a %s titled %q in %s.\n", run.req.Type, run.req.Title, run.req.Topic())
	if run.req.AbstractSeed != "" {
		fmt.Fprintf(&b, "Abstract seed: %s\n", run.req.AbstractSeed)
	}
	if run.req.Methodology != "" {
		fmt.Fprintf(&b, "Methodology constraint: %s\n", run.req.Methodology)
	}
	if len(run.req.Hypotheses) > 0 {
		b.WriteString("Hypotheses:\n")
		for _, h := range run.req.Hypotheses {
			fmt.Fprintf(&b, "- %s\n", h)
		}
	}
	b.WriteString("\nSurveyed literature:\n")
	b.WriteString(run.literatureSummary())
	b.WriteString("\nReturn the outline as a short numbered list, one entry per major section.")
	return b.String()
}

// fallbackOutline covers an empty model response with a generic
// structure derived from the fixed section list.
func fallbackOutline(run *genRun) string {
	var b strings.Builder
	for i, name := range sectionOrder {
		if name == "Abstract" {
			continue
		}
		fmt.Fprintf(&b, "%d. %s\n", i, name)
	}
	return strings.TrimSpace(b.String())
}

func sectionPrompt(run *genRun, name string, budget int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write the %q section of a %s titled %q in %s.\n", name, run.req.Type, run.req.Title, run.req.Topic())
	fmt.Fprintf(&b, "Target roughly %d words. Return body text only, without the section heading.\n", budget)
	fmt.Fprintf(&b, "Cite sources only with bracketed keys [ref1]..[ref%d] from the list below.\n", len(run.bindings))
	if name == "Methodology" && run.req.Methodology != "" {
		fmt.Fprintf(&b, "Follow this methodology constraint: %s\n", run.req.Methodology)
	}
	if name == "Abstract" && run.req.AbstractSeed != "" {
		fmt.Fprintf(&b, "Develop from this seed: %s\n", run.req.AbstractSeed)
	}
	if len(run.req.Hypotheses) > 0 {
		b.WriteString("Hypotheses:\n")
		for _, h := range run.req.Hypotheses {
			fmt.Fprintf(&b, "- %s\n", h)
		}
	}
	fmt.Fprintf(&b, "\nArgument structure:\n%s\n", run.outline)
	b.WriteString("\nSources:\n")
	b.WriteString(run.literatureSummary())
	return b.String()
}

func figurePrompt(run *genRun) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Plan exactly %d figures and %d tables for a %s titled %q in %s.\n",
		run.req.NumFigures, run.req.NumTables, run.req.Type, run.req.Title, run.req.Topic())
	fmt.Fprintf(&b, "\nArgument structure:\n%s\n", run.outline)
	b.WriteString("\nEach figure needs a caption and a one-sentence description; each table needs a caption, columns, and illustrative rows.")
	return b.String()
}

func reviewPrompt(run *genRun) string {
	var parts []string
	for _, name := range sectionOrder {
		parts = append(parts, run.sections[name])
	}
	excerpt := strings.Join(parts, "\n\n")
	if len(excerpt) > reviewExcerptLimit {
		excerpt = excerpt[:reviewExcerptLimit]
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Review this draft of a %s titled %q and score its quality from 0 to 100.\n\n", run.req.Type, run.req.Title)
	b.WriteString(excerpt)
	return b.String()
}

func adjustPrompt(run *genRun, body string, expand bool) string {
	verb := "Condense"
	if expand {
		verb = "Expand"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Rewrite the following document toward %d words. %s it in a single pass.\n", run.req.TargetWordCount, verb)
	b.WriteString("Preserve every `## ` heading and every bracketed [refN] citation key exactly as written.\n\n")
	b.WriteString(body)
	return b.String()
}
