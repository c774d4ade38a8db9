// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/draft-engine/internal/literature"
	"github.com/pdiddy/draft-engine/internal/llm"
	"github.com/pdiddy/draft-engine/internal/pipeline"
	"github.com/pdiddy/draft-engine/internal/store"
	"github.com/pdiddy/draft-engine/pkg/types"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a complete scholarly document from a request file",
	Long: `Generate runs the full drafting pipeline for a request described in a
YAML file: literature survey, novelty assessment, argument design, section
writing, figure planning, internal review, and final assembly. The run is
tracked as a job and runs to completion in the foreground.

With --mock the model gateway returns deterministic canned content and the
literature client serves synthetic records, which drafts a complete document
without network access or credentials.`,
	RunE: runGenerate,
}

func runGenerate(cmd *cobra.Command, args []string) error {
	requestPath, _ := cmd.Flags().GetString("request")
	if requestPath == "" {
		return fmt.Errorf("request file required: pass --request")
	}
	req, err := loadRequest(requestPath)
	if err != nil {
		return err
	}

	cfg := engineConfig()
	if mock, _ := cmd.Flags().GetBool("mock"); mock {
		cfg.Model.MockMode = true
		cfg.Literature.MockMode = true
	}

	log := newLogger()
	s, err := store.NewStore(cfg.Store)
	if err != nil {
		return err
	}
	defer s.Close()

	model := llm.NewClient(cfg.Model, log)
	lit := literature.NewClient(cfg.Literature, log)
	orch := pipeline.NewOrchestrator(s, model, lit, cfg.Pipeline, log)

	ctx := context.Background()
	job := &types.GenerationJob{Status: types.JobQueued}
	if err := s.CreateJob(ctx, job); err != nil {
		return err
	}
	if err := orch.Run(ctx, job.ID, req); err != nil {
		return err
	}
	done, err := s.GetJob(ctx, job.ID)
	if err != nil {
		return err
	}
	fmt.Printf("Job %d completed. Document %d (novelty %.2f, quality %.0f).\n",
		done.ID, done.DocumentID, done.NoveltyScore, done.QualityScore)
	return nil
}

// loadRequest reads and validates a generation request YAML file.
func loadRequest(path string) (types.GenerationRequest, error) {
	var req types.GenerationRequest
	data, err := os.ReadFile(path)
	if err != nil {
		return req, fmt.Errorf("reading request: %w", err)
	}
	if err := yaml.Unmarshal(data, &req); err != nil {
		return req, fmt.Errorf("parsing request: %w", err)
	}
	var missing []string
	if req.Title == "" {
		missing = append(missing, "title")
	}
	if req.Domain == "" {
		missing = append(missing, "domain")
	}
	if req.Type == "" {
		missing = append(missing, "type")
	}
	if len(missing) > 0 {
		return req, fmt.Errorf("request missing required fields: %s", strings.Join(missing, ", "))
	}
	return req, nil
}

func init() {
	generateCmd.Flags().String("request", "", "path to generation request file (YAML)")
	generateCmd.Flags().Bool("mock", false, "use deterministic offline backends instead of the network")

	rootCmd.AddCommand(generateCmd)
}
