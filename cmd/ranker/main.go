// Package main provides the ranker CLI, which ranks local resume files
// against a job description without the HTTP API.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"alfredoptarigan/resume-matcher/internal/services"
)

// exitEmptyBatch is returned when no resume could be ranked.
const exitEmptyBatch = 2

var rootCmd = &cobra.Command{
	Use:           "ranker",
	Short:         "Rank resumes against a job description",
	Long:          "ranker extracts text from PDF and DOCX resumes, scores each one against a job description by semantic similarity and skill coverage, and prints the ranked batch.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		if errors.Is(err, services.ErrEmptyBatch) {
			os.Exit(exitEmptyBatch)
		}
		os.Exit(1)
	}
}
