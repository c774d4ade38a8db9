// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package compose cleans raw model text and renders citations. Every
// function is pure: text in, text out, no I/O and no package state.
// Implements: prd004-composition (R1-R6);
//
//	docs/ARCHITECTURE § Composition Engine.
package compose

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/pdiddy/draft-engine/internal/literature"
	"github.com/pdiddy/draft-engine/pkg/types"
)

// headingLine matches a Markdown heading of any level.
var headingLine = regexp.MustCompile(`^#{1,6}\s+(.+)$`)

// orderedPrefix strips list ordinals and "Section N" style prefixes from a
// heading candidate: "1.", "IV.", "(a)", "Section 3:".
var orderedPrefix = regexp.MustCompile(`^(?:\(?(?:\d+|[ivxlcIVXLC]+|[a-hA-H])[.)]\s*|[Ss]ection\s+\d+[.:]?\s*)`)

// NormalizeHeading reduces heading text to a comparable form: ordinal and
// parenthetical prefixes removed, trailing punctuation dropped, case folded.
func NormalizeHeading(s string) string {
	s = strings.TrimSpace(s)
	s = orderedPrefix.ReplaceAllString(s, "")
	s = strings.TrimRight(s, ".:;,!? \t")
	return strings.ToLower(s)
}

// StripLeadingHeading removes leading lines that duplicate the section's
// own heading: Markdown headings, numbered titles, or a bare repetition of
// the section name. The surviving body starts at the first real content
// line. Sections render with exactly one heading, added at assembly time.
func StripLeadingHeading(body, section string) string {
	want := NormalizeHeading(section)
	lines := strings.Split(body, "\n")

	i := 0
	for i < len(lines) {
		trimmed := strings.TrimSpace(lines[i])
		if trimmed == "" {
			i++
			continue
		}

		candidate := trimmed
		if m := headingLine.FindStringSubmatch(trimmed); m != nil {
			candidate = m[1]
		}
		if NormalizeHeading(candidate) == want {
			i++
			continue
		}
		break
	}

	return strings.TrimLeft(strings.Join(lines[i:], "\n"), "\n")
}

// numericMarker matches bracketed numeric citations like [3].
var numericMarker = regexp.MustCompile(`\[(\d+)\]`)

// RewriteNumericCitations rewrites bracketed numeric markers [n] into
// stable keys [refn] for 1 ≤ n ≤ maxKey. Markers outside that range are
// ordinary text and stay untouched.
func RewriteNumericCitations(body string, maxKey int) string {
	if maxKey <= 0 {
		return body
	}
	return numericMarker.ReplaceAllStringFunc(body, func(m string) string {
		n, err := strconv.Atoi(m[1 : len(m)-1])
		if err != nil || n < 1 || n > maxKey {
			return m
		}
		return fmt.Sprintf("[ref%d]", n)
	})
}

// refRun matches one or more adjacent [refN] markers, optionally separated
// by commas, semicolons, or spaces, so multi-citations collapse into a
// single rendered group.
var refRun = regexp.MustCompile(`\[ref\d+\](?:\s*[,;]?\s*\[ref\d+\])*`)

var refKey = regexp.MustCompile(`ref\d+`)

// RenderCitations replaces [refN] markers with their styled in-text form.
// IEEE renders bracket-number lists ([1] or [1, 3]); every other style
// renders one parenthetical per run of adjacent markers. Keys without a
// binding are dropped from the rendered group; a group with no surviving
// keys renders as empty text.
func RenderCitations(body string, style types.CitationStyle, bindings []types.CitationBinding) string {
	byKey := make(map[string]types.LiteratureRecord, len(bindings))
	for _, b := range bindings {
		byKey[b.Key] = b.Record
	}

	return refRun.ReplaceAllStringFunc(body, func(run string) string {
		keys := refKey.FindAllString(run, -1)

		if style == types.StyleIEEE {
			var nums []string
			for _, k := range keys {
				if _, ok := byKey[k]; !ok {
					continue
				}
				nums = append(nums, strings.TrimPrefix(k, "ref"))
			}
			if len(nums) == 0 {
				return ""
			}
			return "[" + strings.Join(nums, ", ") + "]"
		}

		var labels []string
		for _, k := range keys {
			rec, ok := byKey[k]
			if !ok {
				continue
			}
			labels = append(labels, inTextLabel(rec, style))
		}
		if len(labels) == 0 {
			return ""
		}
		return "(" + strings.Join(labels, "; ") + ")"
	})
}

// inTextLabel renders one record's parenthetical label. MLA9 is
// author-only; APA7 and Chicago (and the APA7 fallback) are author–year.
func inTextLabel(rec types.LiteratureRecord, style types.CitationStyle) string {
	var names string
	switch n := len(rec.Authors); {
	case n == 0:
		names = "Anonymous"
	case n == 1:
		names = literature.LastName(rec.Authors[0])
	case n == 2:
		names = literature.LastName(rec.Authors[0]) + " & " + literature.LastName(rec.Authors[1])
	default:
		names = literature.LastName(rec.Authors[0]) + " et al."
	}

	if style == types.StyleMLA9 {
		return names
	}
	return fmt.Sprintf("%s, %d", names, rec.Year)
}

// sectionHeadingPattern builds a regex matching the section's ## heading
// line, tolerant of trailing whitespace.
func sectionHeadingPattern(name string) *regexp.Regexp {
	return regexp.MustCompile(`(?m)^##\s+` + regexp.QuoteMeta(name) + `\s*$`)
}

// ExtractSection returns the body of the named ## section, bounded by the
// next ## heading or end of content. Returns "" when the heading is absent.
func ExtractSection(content, name string) string {
	loc := sectionHeadingPattern(name).FindStringIndex(content)
	if loc == nil {
		return ""
	}
	rest := content[loc[1]:]
	if next := regexp.MustCompile(`(?m)^##\s`).FindStringIndex(rest); next != nil {
		rest = rest[:next[0]]
	}
	return strings.TrimSpace(rest)
}

// CountWords counts whitespace-separated words.
func CountWords(s string) int {
	return len(strings.Fields(s))
}

// LengthAdjustment reports whether a body outside target±10% needs the
// one-pass rewrite, and in which direction (expand=true grows the text).
func LengthAdjustment(words, target int) (needed bool, expand bool) {
	if target <= 0 {
		return false, false
	}
	low := float64(target) * 0.9
	high := float64(target) * 1.1
	switch {
	case float64(words) < low:
		return true, true
	case float64(words) > high:
		return true, false
	default:
		return false, false
	}
}
