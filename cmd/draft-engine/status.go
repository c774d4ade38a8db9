// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/pdiddy/draft-engine/internal/store"
)

var statusCmd = &cobra.Command{
	Use:   "status [job-id]",
	Short: "Show the progress and outcome of a generation job",
	Long: `Status reports a job's lifecycle state, the phase it is in, cumulative
progress, and the estimated time remaining. Completed jobs include the
document id and the novelty and quality scores.`,
	Args: cobra.ExactArgs(1),
	RunE: runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid job id %q", args[0])
	}

	s, err := store.NewStore(engineConfig().Store)
	if err != nil {
		return err
	}
	defer s.Close()

	job, err := s.GetJob(context.Background(), id)
	if err != nil {
		return err
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(job)
	}

	fmt.Printf("Job %d: %s\n", job.ID, job.Status)
	if job.Phase != "" {
		fmt.Printf("  Phase:    %s\n", job.Phase)
	}
	fmt.Printf("  Progress: %d%%\n", job.Progress)
	if job.ETASeconds > 0 {
		fmt.Printf("  ETA:      %ds\n", job.ETASeconds)
	}
	if job.DocumentID != 0 {
		fmt.Printf("  Document: %d (novelty %.2f, quality %.0f)\n",
			job.DocumentID, job.NoveltyScore, job.QualityScore)
	}
	if job.Error != "" {
		fmt.Printf("  Error:    %s\n", job.Error)
	}
	return nil
}

func init() {
	statusCmd.Flags().Bool("json", false, "output the job record as JSON")

	rootCmd.AddCommand(statusCmd)
}
