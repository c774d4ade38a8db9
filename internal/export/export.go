// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package export renders persisted documents to markdown, LaTeX, and HTML.
// Implements: prd006-export (R1-R4);
//
//	docs/ARCHITECTURE § Export.
package export

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"

	"github.com/pdiddy/draft-engine/internal/literature"
	"github.com/pdiddy/draft-engine/pkg/types"
)

// Format selects an export renderer.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatLaTeX    Format = "latex"
	FormatHTML     Format = "html"
)

// Export renders the document in the requested format and derives the
// output file name from its title.
func Export(format Format, doc *types.Document, authors []types.Author, citations []types.Citation) (content, filename string, err error) {
	content, err = Render(format, doc, authors, citations)
	if err != nil {
		return "", "", err
	}
	return content, SanitizeFilename(doc.Title) + Extension(format), nil
}

// Render dispatches to the renderer for the requested format.
func Render(format Format, doc *types.Document, authors []types.Author, citations []types.Citation) (string, error) {
	switch format {
	case FormatMarkdown:
		return Markdown(doc, authors), nil
	case FormatLaTeX:
		return LaTeX(doc, authors, citations), nil
	case FormatHTML:
		return HTML(doc, authors)
	default:
		return "", fmt.Errorf("unsupported export format %q", format)
	}
}

// Extension returns the file extension for a format, dot included.
func Extension(format Format) string {
	switch format {
	case FormatLaTeX:
		return ".tex"
	case FormatHTML:
		return ".html"
	default:
		return ".md"
	}
}

// Markdown renders the document as markdown: a title heading, a byline,
// and the stored content verbatim.
func Markdown(doc *types.Document, authors []types.Author) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n", doc.Title)
	if byline := bylineText(authors); byline != "" {
		fmt.Fprintf(&b, "\n_%s_\n", byline)
	}
	b.WriteString("\n")
	b.WriteString(doc.Content)
	if !strings.HasSuffix(doc.Content, "\n") {
		b.WriteString("\n")
	}
	return b.String()
}

// HTML renders the markdown form of the document through goldmark.
func HTML(doc *types.Document, authors []types.Author) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(Markdown(doc, authors)), &buf); err != nil {
		return "", fmt.Errorf("converting markdown: %w", err)
	}
	return buf.String(), nil
}

// latexEscaper rewrites the characters LaTeX treats specially. A single
// pass keeps the backslash replacement from re-escaping its own output.
var latexEscaper = strings.NewReplacer(
	`\`, `\textbackslash{}`,
	`&`, `\&`,
	`%`, `\%`,
	`$`, `\$`,
	`#`, `\#`,
	`_`, `\_`,
	`{`, `\{`,
	`}`, `\}`,
	`~`, `\textasciitilde{}`,
	`^`, `\textasciicircum{}`,
)

var (
	citeMarker = regexp.MustCompile(`\[(ref\d+)\]`)
	boldSpan   = regexp.MustCompile(`\*\*(.+?)\*\*`)
)

// LaTeX renders a standalone article: escaped body with headings, lists,
// and bold spans converted, plus a thebibliography built from the
// document's citations in key order.
func LaTeX(doc *types.Document, authors []types.Author, citations []types.Citation) string {
	var b strings.Builder
	b.WriteString("\\documentclass{article}\n\n")
	b.WriteString("\\usepackage{amsmath}\n\n")
	fmt.Fprintf(&b, "\\title{%s}\n", latexEscaper.Replace(doc.Title))
	if len(authors) > 0 {
		names := make([]string, len(authors))
		for i, a := range authors {
			names[i] = latexEscaper.Replace(a.Name)
		}
		fmt.Fprintf(&b, "\\author{%s}\n", strings.Join(names, " \\and "))
	}
	b.WriteString("\n\\begin{document}\n\\maketitle\n\n")
	b.WriteString(latexBody(doc.Content))

	if len(citations) > 0 {
		fmt.Fprintf(&b, "\n\\begin{thebibliography}{%d}\n", len(citations))
		for _, c := range citations {
			entry := literature.FormatCitation(c.Record, doc.CitationStyle)
			fmt.Fprintf(&b, "\\bibitem{%s} %s\n", c.Key, latexEscaper.Replace(entry))
		}
		b.WriteString("\\end{thebibliography}\n")
	}
	b.WriteString("\n\\end{document}\n")
	return b.String()
}

// latexBody converts the markdown-shaped content line by line. Display
// math lines pass through untouched so equation markup survives.
func latexBody(content string) string {
	var b strings.Builder
	inList := false
	closeList := func() {
		if inList {
			b.WriteString("\\end{itemize}\n")
			inList = false
		}
	}

	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "$$"):
			closeList()
			b.WriteString(line + "\n")
		case strings.HasPrefix(trimmed, "#### "):
			// Deeper levels clamp to the lowest sectioning command.
			closeList()
			fmt.Fprintf(&b, "\\subsubsection{%s}\n", inlineLaTeX(strings.TrimPrefix(trimmed, "#### ")))
		case strings.HasPrefix(trimmed, "### "):
			closeList()
			fmt.Fprintf(&b, "\\subsubsection{%s}\n", inlineLaTeX(strings.TrimPrefix(trimmed, "### ")))
		case strings.HasPrefix(trimmed, "## "):
			closeList()
			fmt.Fprintf(&b, "\\subsection{%s}\n", inlineLaTeX(strings.TrimPrefix(trimmed, "## ")))
		case strings.HasPrefix(trimmed, "# "):
			closeList()
			fmt.Fprintf(&b, "\\section{%s}\n", inlineLaTeX(strings.TrimPrefix(trimmed, "# ")))
		case strings.HasPrefix(trimmed, "- "):
			if !inList {
				b.WriteString("\\begin{itemize}\n")
				inList = true
			}
			fmt.Fprintf(&b, "\\item %s\n", inlineLaTeX(strings.TrimPrefix(trimmed, "- ")))
		case trimmed == "":
			closeList()
			b.WriteString("\n")
		default:
			closeList()
			b.WriteString(inlineLaTeX(line) + "\n")
		}
	}
	closeList()
	return b.String()
}

// inlineLaTeX escapes one line of prose and converts the inline markers
// the pipeline emits: [refN] citation keys and **bold** spans.
func inlineLaTeX(line string) string {
	escaped := latexEscaper.Replace(line)
	escaped = citeMarker.ReplaceAllString(escaped, `\cite{$1}`)
	return boldSpan.ReplaceAllString(escaped, `\textbf{$1}`)
}

// filenameJunk matches every run of characters that is unsafe in a file
// name across platforms.
var filenameJunk = regexp.MustCompile(`[^a-z0-9]+`)

// SanitizeFilename derives a portable file name stem from a title.
func SanitizeFilename(title string) string {
	name := filenameJunk.ReplaceAllString(strings.ToLower(title), "-")
	name = strings.Trim(name, "-")
	if len(name) > 80 {
		name = strings.Trim(name[:80], "-")
	}
	if name == "" {
		return "document"
	}
	return name
}

func bylineText(authors []types.Author) string {
	if len(authors) == 0 {
		return ""
	}
	names := make([]string, len(authors))
	for i, a := range authors {
		names[i] = a.Name
	}
	return strings.Join(names, ", ")
}
