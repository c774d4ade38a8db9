// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/draft-engine/internal/llm"
	"github.com/pdiddy/draft-engine/internal/revise"
	"github.com/pdiddy/draft-engine/internal/store"
	"github.com/pdiddy/draft-engine/pkg/types"
)

var reviseCmd = &cobra.Command{
	Use:   "revise",
	Short: "Revise an existing document into a new version",
	Long: `Revise rewrites a stored document according to free-text instructions and
a revision type (targeted-edit, global-revision, expansion, reduction, or
style-adjustment). The source document is never modified; a completed
revision produces a new document row.`,
	RunE: runRevise,
}

func runRevise(cmd *cobra.Command, args []string) error {
	documentID, _ := cmd.Flags().GetInt64("document")
	if documentID == 0 {
		return fmt.Errorf("source document required: pass --document")
	}
	instructions, _ := cmd.Flags().GetString("instructions")
	if instructions == "" {
		return fmt.Errorf("revision instructions required: pass --instructions")
	}
	revType, _ := cmd.Flags().GetString("type")
	switch types.RevisionType(revType) {
	case types.RevisionTargetedEdit, types.RevisionGlobal, types.RevisionExpansion,
		types.RevisionReduction, types.RevisionStyleAdjustment:
	default:
		return fmt.Errorf("unknown revision type %q", revType)
	}

	cfg := engineConfig()
	if mock, _ := cmd.Flags().GetBool("mock"); mock {
		cfg.Model.MockMode = true
	}

	log := newLogger()
	s, err := store.NewStore(cfg.Store)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := context.Background()
	rev := &types.RevisionRequest{
		DocumentID:   documentID,
		Type:         types.RevisionType(revType),
		Instructions: instructions,
		Status:       types.RevisionPending,
	}
	rev.PreserveArgument, _ = cmd.Flags().GetBool("preserve-argument")
	rev.PreserveFigures, _ = cmd.Flags().GetBool("preserve-figures")
	rev.PreserveWordCount, _ = cmd.Flags().GetBool("preserve-word-count")
	rev.PreserveCitations, _ = cmd.Flags().GetBool("preserve-citations")
	if err := s.CreateRevision(ctx, rev); err != nil {
		return err
	}

	p := revise.NewProcessor(s, llm.NewClient(cfg.Model, log), log)
	if err := p.Process(ctx, rev.ID); err != nil {
		return err
	}

	done, err := s.GetRevision(ctx, rev.ID)
	if err != nil {
		return err
	}
	fmt.Printf("Revision %d completed. New document %d.\n", done.ID, done.NewDocumentID)
	return nil
}

func init() {
	reviseCmd.Flags().Int64("document", 0, "source document id")
	reviseCmd.Flags().String("type", string(types.RevisionGlobal), "revision type")
	reviseCmd.Flags().String("instructions", "", "free-text revision instructions")
	reviseCmd.Flags().Bool("preserve-argument", false, "keep the argument structure unchanged")
	reviseCmd.Flags().Bool("preserve-figures", false, "carry figures and tables to the new document")
	reviseCmd.Flags().Bool("preserve-word-count", false, "keep the length near the source word count")
	reviseCmd.Flags().Bool("preserve-citations", false, "carry citations to the new document")
	reviseCmd.Flags().Bool("mock", false, "use the deterministic mock model backend")

	rootCmd.AddCommand(reviseCmd)
}
