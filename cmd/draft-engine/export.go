// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/pdiddy/draft-engine/internal/export"
	"github.com/pdiddy/draft-engine/internal/store"
)

var exportCmd = &cobra.Command{
	Use:   "export [document-id]",
	Short: "Export a stored document to markdown, LaTeX, or HTML",
	Long: `Export renders a stored document to a file. Markdown keeps the stored
content verbatim under a title heading; latex produces a standalone article
with an escaped body and a bibliography; html renders the markdown form.`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func runExport(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid document id %q", args[0])
	}
	format := export.Format(mustFlagString(cmd, "format"))

	s, err := store.NewStore(engineConfig().Store)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := context.Background()
	doc, err := s.GetDocument(ctx, id)
	if err != nil {
		return err
	}
	authors, err := s.AuthorsByDocument(ctx, id)
	if err != nil {
		return err
	}
	citations, err := s.CitationsByDocument(ctx, id)
	if err != nil {
		return err
	}

	rendered, filename, err := export.Export(format, doc, authors, citations)
	if err != nil {
		return err
	}

	outDir := mustFlagString(cmd, "output-dir")
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	path := filepath.Join(outDir, filename)
	if err := os.WriteFile(path, []byte(rendered), 0o644); err != nil {
		return fmt.Errorf("writing export: %w", err)
	}
	fmt.Printf("Exported document %d to %s\n", id, path)
	return nil
}

func mustFlagString(cmd *cobra.Command, name string) string {
	v, _ := cmd.Flags().GetString(name)
	return v
}

func init() {
	exportCmd.Flags().String("format", string(export.FormatMarkdown), "export format: markdown, latex, or html")
	exportCmd.Flags().String("output-dir", "output", "directory for exported files")

	rootCmd.AddCommand(exportCmd)
}
