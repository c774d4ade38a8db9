// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package literature

import (
	"fmt"
	"strings"

	"github.com/pdiddy/draft-engine/pkg/types"
)

// FormatCitation renders one literature record as a reference entry in the
// requested style. Unrecognized styles fall back to APA7.
func FormatCitation(rec types.LiteratureRecord, style types.CitationStyle) string {
	switch style {
	case types.StyleIEEE:
		return formatIEEE(rec)
	case types.StyleMLA9:
		return formatMLA(rec)
	case types.StyleChicago:
		return formatChicago(rec)
	default:
		return formatAPA(rec)
	}
}

// LastName extracts the family name from a display name: the final
// space-separated token. Single-token names are returned whole.
func LastName(name string) string {
	name = strings.TrimSpace(name)
	idx := strings.LastIndex(name, " ")
	if idx < 0 {
		return name
	}
	return name[idx+1:]
}

// firstInitial returns the first given-name initial with a period, or ""
// for single-token names.
func firstInitial(name string) string {
	name = strings.TrimSpace(name)
	idx := strings.Index(name, " ")
	if idx <= 0 {
		return ""
	}
	return string([]rune(name[:idx])[0]) + "."
}

// invert renders "Given Family" as "Family, G." for APA-style author lists.
func invert(name string) string {
	last := LastName(name)
	initial := firstInitial(name)
	if initial == "" {
		return last
	}
	return last + ", " + initial
}

func formatAPA(rec types.LiteratureRecord) string {
	var authors string
	switch n := len(rec.Authors); {
	case n == 0:
		authors = "Anonymous"
	case n == 1:
		authors = invert(rec.Authors[0])
	default:
		inverted := make([]string, n)
		for i, a := range rec.Authors {
			inverted[i] = invert(a)
		}
		authors = strings.Join(inverted[:n-1], ", ") + ", & " + inverted[n-1]
	}

	s := fmt.Sprintf("%s (%d). %s.", authors, rec.Year, strings.TrimSuffix(rec.Title, "."))
	if rec.Venue != "" {
		s += " " + rec.Venue + "."
	}
	if rec.DOI != "" {
		s += " https://doi.org/" + rec.DOI
	}
	return s
}

func formatMLA(rec types.LiteratureRecord) string {
	var authors string
	switch n := len(rec.Authors); {
	case n == 0:
		authors = "Anonymous"
	case n == 1:
		authors = mlaName(rec.Authors[0])
	case n == 2:
		authors = mlaName(rec.Authors[0]) + ", and " + rec.Authors[1]
	default:
		authors = mlaName(rec.Authors[0]) + ", et al"
	}

	s := fmt.Sprintf("%s. \"%s.\"", strings.TrimSuffix(authors, "."), strings.TrimSuffix(rec.Title, "."))
	if rec.Venue != "" {
		s += " " + rec.Venue + ","
	}
	s += fmt.Sprintf(" %d.", rec.Year)
	return s
}

// mlaName renders "Given Family" as "Family, Given".
func mlaName(name string) string {
	name = strings.TrimSpace(name)
	idx := strings.LastIndex(name, " ")
	if idx < 0 {
		return name
	}
	return name[idx+1:] + ", " + name[:idx]
}

func formatChicago(rec types.LiteratureRecord) string {
	var authors string
	switch n := len(rec.Authors); {
	case n == 0:
		authors = "Anonymous"
	case n == 1:
		authors = mlaName(rec.Authors[0])
	case n == 2:
		authors = mlaName(rec.Authors[0]) + ", and " + rec.Authors[1]
	default:
		authors = mlaName(rec.Authors[0]) + ", et al"
	}

	s := fmt.Sprintf("%s. \"%s.\"", strings.TrimSuffix(authors, "."), strings.TrimSuffix(rec.Title, "."))
	if rec.Venue != "" {
		s += fmt.Sprintf(" %s (%d).", rec.Venue, rec.Year)
	} else {
		s += fmt.Sprintf(" (%d).", rec.Year)
	}
	return s
}

func formatIEEE(rec types.LiteratureRecord) string {
	var authors string
	switch n := len(rec.Authors); {
	case n == 0:
		authors = "Anonymous"
	case n == 1:
		authors = ieeeName(rec.Authors[0])
	default:
		names := make([]string, n)
		for i, a := range rec.Authors {
			names[i] = ieeeName(a)
		}
		authors = strings.Join(names[:n-1], ", ") + " and " + names[n-1]
	}

	s := fmt.Sprintf("%s, \"%s,\"", authors, strings.TrimSuffix(rec.Title, "."))
	if rec.Venue != "" {
		s += " " + rec.Venue + ","
	}
	s += fmt.Sprintf(" %d.", rec.Year)
	return s
}

// ieeeName renders "Given Family" as "G. Family".
func ieeeName(name string) string {
	initial := firstInitial(name)
	if initial == "" {
		return LastName(name)
	}
	return initial + " " + LastName(name)
}
