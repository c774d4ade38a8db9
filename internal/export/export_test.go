// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package export

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/draft-engine/pkg/types"
)

func testDocument() *types.Document {
	return &types.Document{
		Title:         "Adaptive Attention: 100% of Sparse_Inputs & More",
		Content:       "## Introduction\n\nCosts fell 50% & margins_grew [ref1].\n\n- first point\n- second point\n\nRegular prose.\n\n## References\n\n- Vaswani, A. (2017). Attention Is All You Need. NeurIPS.",
		Type:          types.DocResearchPaper,
		CitationStyle: types.StyleAPA7,
	}
}

func testAuthors() []types.Author {
	return []types.Author{
		{Position: 1, AuthorSpec: types.AuthorSpec{Name: "Grace Hopper"}},
		{Position: 2, AuthorSpec: types.AuthorSpec{Name: "Ada Lovelace"}},
	}
}

func testCitations() []types.Citation {
	return []types.Citation{
		{Position: 1, Key: "ref1", Record: types.LiteratureRecord{
			Title: "Attention Is All You Need", Year: 2017,
			Authors: []string{"Ashish Vaswani"}, Venue: "NeurIPS",
		}},
		{Position: 2, Key: "ref2", Record: types.LiteratureRecord{
			Title: "Notes on Computation", Year: 1843,
			Authors: []string{"Ada Lovelace"}, Venue: "Scientific Memoirs",
		}},
	}
}

func TestMarkdown_TitleBylineAndContent(t *testing.T) {
	out := Markdown(testDocument(), testAuthors())
	assert.True(t, strings.HasPrefix(out, "# Adaptive Attention: 100% of Sparse_Inputs & More\n"))
	assert.Contains(t, out, "_Grace Hopper, Ada Lovelace_")
	assert.Contains(t, out, "## Introduction")
	assert.True(t, strings.HasSuffix(out, "\n"))
}

func TestLaTeX_EscapesSpecials(t *testing.T) {
	out := LaTeX(testDocument(), testAuthors(), testCitations())
	assert.Contains(t, out, `\title{Adaptive Attention: 100\% of Sparse\_Inputs \& More}`)
	assert.Contains(t, out, `Costs fell 50\% \& margins\_grew`)
	assert.NotContains(t, out, "margins_grew")
}

func TestLaTeX_EscapesAllReservedCharacters(t *testing.T) {
	doc := testDocument()
	doc.Content = "Costs ~10% of $5 fees; see #4 in {braces} with x^2 & more."
	out := LaTeX(doc, nil, nil)
	assert.Contains(t, out, `Costs \textasciitilde{}10\% of \$5 fees; see \#4 in \{braces\} with x\textasciicircum{}2 \& more.`)
}

func TestLaTeX_Structure(t *testing.T) {
	out := LaTeX(testDocument(), testAuthors(), testCitations())
	assert.Contains(t, out, "\\documentclass{article}")
	assert.Contains(t, out, "\\author{Grace Hopper \\and Ada Lovelace}")
	assert.Contains(t, out, "\\subsection{Introduction}")
	assert.NotContains(t, out, "\\section{Introduction}")
	assert.Contains(t, out, "\\begin{itemize}\n\\item first point\n\\item second point\n\\end{itemize}")
	assert.Contains(t, out, "\\cite{ref1}")
	assert.True(t, strings.HasSuffix(out, "\\end{document}\n"))
}

func TestLaTeX_HeadingLevels(t *testing.T) {
	doc := testDocument()
	doc.Content = "# Top\n\n## Middle\n\n### Inner\n\n#### Deep"
	out := LaTeX(doc, nil, nil)
	assert.Contains(t, out, "\\section{Top}")
	assert.Contains(t, out, "\\subsection{Middle}")
	assert.Contains(t, out, "\\subsubsection{Inner}")
	assert.Contains(t, out, "\\subsubsection{Deep}")
}

func TestLaTeX_Bibliography(t *testing.T) {
	out := LaTeX(testDocument(), testAuthors(), testCitations())
	assert.Contains(t, out, "\\begin{thebibliography}{2}")
	assert.Equal(t, 2, strings.Count(out, "\\bibitem{"))
	assert.Contains(t, out, "\\bibitem{ref1} Vaswani, A. (2017).")
	assert.Contains(t, out, "\\end{thebibliography}")
}

func TestLaTeX_NoCitationsSkipsBibliography(t *testing.T) {
	out := LaTeX(testDocument(), nil, nil)
	assert.NotContains(t, out, "thebibliography")
}

func TestLaTeX_MathLinesPassThrough(t *testing.T) {
	doc := testDocument()
	doc.Content = "## Methodology\n\n$$J(\\theta) = \\frac{1}{N} \\sum_i \\ell_i \\tag{1}$$\n\nProse after."
	out := LaTeX(doc, nil, nil)
	assert.Contains(t, out, `$$J(\theta) = \frac{1}{N} \sum_i \ell_i \tag{1}$$`)
}

func TestHTML_RendersHeadingsAndLists(t *testing.T) {
	out, err := HTML(testDocument(), testAuthors())
	require.NoError(t, err)
	assert.Contains(t, out, "<h1>")
	assert.Contains(t, out, "<h2>Introduction</h2>")
	assert.Contains(t, out, "<li>first point</li>")
}

func TestRender_Dispatch(t *testing.T) {
	doc := testDocument()
	md, err := Render(FormatMarkdown, doc, nil, nil)
	require.NoError(t, err)
	assert.Contains(t, md, "# Adaptive")

	tex, err := Render(FormatLaTeX, doc, nil, nil)
	require.NoError(t, err)
	assert.Contains(t, tex, "\\documentclass")

	html, err := Render(FormatHTML, doc, nil, nil)
	require.NoError(t, err)
	assert.Contains(t, html, "<h1>")

	_, err = Render(Format("docx"), doc, nil, nil)
	require.Error(t, err)
}

func TestExport_ContentAndFilename(t *testing.T) {
	content, filename, err := Export(FormatLaTeX, testDocument(), testAuthors(), testCitations())
	require.NoError(t, err)
	assert.Contains(t, content, "\\documentclass")
	assert.Equal(t, "adaptive-attention-100-of-sparse-inputs-more.tex", filename)

	_, _, err = Export(Format("docx"), testDocument(), nil, nil)
	require.Error(t, err)
}

func TestExtension(t *testing.T) {
	assert.Equal(t, ".md", Extension(FormatMarkdown))
	assert.Equal(t, ".tex", Extension(FormatLaTeX))
	assert.Equal(t, ".html", Extension(FormatHTML))
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"Adaptive Attention: 100% of Sparse_Inputs & More", "adaptive-attention-100-of-sparse-inputs-more"},
		{"  Already-clean title  ", "already-clean-title"},
		{"???", "document"},
		{"", "document"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SanitizeFilename(tt.title), tt.title)
	}
}
