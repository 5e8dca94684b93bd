package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"alfredoptarigan/resume-matcher/internal/config"
	"alfredoptarigan/resume-matcher/internal/logger"
	"alfredoptarigan/resume-matcher/internal/models"
	"alfredoptarigan/resume-matcher/internal/services"
)

const (
	formatTable = "table"
	formatJSON  = "json"
)

var rankCmd = &cobra.Command{
	Use:   "rank --job <file|-> <resume files...>",
	Short: "Rank resume files against a job description",
	Long:  "Ranks PDF and DOCX resumes against a job description read from a file or stdin. Files that cannot be ranked are listed as rejected. Exits with status 2 when no resume could be ranked.",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runRank,
}

var (
	rankJob        string
	rankSimilarity string
	rankSkills     string
	rankFormat     string
)

func init() {
	rankCmd.Flags().StringVarP(&rankJob, "job", "j", "", "Path to the job description text, or - for stdin (required)")
	rankCmd.Flags().StringVar(&rankSimilarity, "similarity", "", "Similarity strategy: embedding or tfidf (default from SIMILARITY_STRATEGY)")
	rankCmd.Flags().StringVar(&rankSkills, "skills", "", "Skill strategy: vocabulary or lexical (default from SKILL_STRATEGY)")
	rankCmd.Flags().StringVarP(&rankFormat, "format", "f", formatTable, "Output format: table or json")

	if err := rankCmd.MarkFlagRequired("job"); err != nil {
		panic(fmt.Sprintf("failed to mark job flag as required: %v", err))
	}

	rootCmd.AddCommand(rankCmd)
}

func runRank(cmd *cobra.Command, args []string) error {
	if rankFormat != formatTable && rankFormat != formatJSON {
		return fmt.Errorf("unknown output format %q", rankFormat)
	}

	description, err := readJob(cmd.InOrStdin(), rankJob)
	if err != nil {
		return err
	}

	cfg := config.Load()
	if rankSimilarity != "" {
		cfg.Scoring.SimilarityStrategy = strings.ToLower(rankSimilarity)
	}
	if rankSkills != "" {
		cfg.Scoring.SkillStrategy = strings.ToLower(rankSkills)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	zlog, err := logger.NewWithOutput(cfg.Log.JSON, cfg.Log.Debug, "stderr")
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer zlog.Sync()

	ctx := cmd.Context()

	skills, err := services.NewSkillExtractorFromConfig(cfg.Scoring, zlog)
	if err != nil {
		return err
	}
	analyzer, err := services.NewAnalyzerFromConfig(cfg.Scoring, skills)
	if err != nil {
		return err
	}

	var (
		embedder services.Embedder
		rdb      *redis.Client
	)
	if cfg.Scoring.SimilarityStrategy == config.SimilarityEmbedding {
		embedder, rdb, err = services.NewEmbedderFromConfig(ctx, cfg, zlog, nil)
		if err != nil {
			return err
		}
		defer embedder.Close()
		if rdb != nil {
			defer rdb.Close()
		}
	}

	similarity, err := services.NewSimilarityStrategyFromConfig(cfg.Scoring.SimilarityStrategy, embedder)
	if err != nil {
		return err
	}

	uploads := services.NewUploadService(cfg.Storage.MaxFileSize)
	docs := make([]models.ResumeDocument, 0, len(args))
	for _, path := range args {
		doc, err := uploads.FromFile(path)
		if err != nil {
			return err
		}
		docs = append(docs, doc)
	}

	parser := services.NewDocumentParserService(cfg.Storage.MaxFileSize, cfg.Pipeline.ExtractionTimeout, zlog, nil)
	pipeline := services.NewPipelineService(parser, analyzer, similarity, nil, cfg.Pipeline.Concurrency, zlog, nil)

	batch, err := pipeline.Process(ctx, models.JobPosting{Description: description}, docs)
	if err != nil && !errors.Is(err, services.ErrEmptyBatch) {
		return err
	}

	out := cmd.OutOrStdout()
	var writeErr error
	if rankFormat == formatJSON {
		writeErr = writeJSON(out, batch)
	} else {
		writeErr = writeTable(out, batch)
	}
	if writeErr != nil {
		return fmt.Errorf("failed to write output: %w", writeErr)
	}

	return err
}

// readJob reads the job description from path, or from stdin when path is "-".
func readJob(stdin io.Reader, path string) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read job description %s: %w", path, err)
	}

	description := strings.TrimSpace(string(data))
	if description == "" {
		return "", fmt.Errorf("job description %s is empty", path)
	}
	return description, nil
}

func writeJSON(w io.Writer, batch *models.BatchContext) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(models.NewBatchResponse(batch))
}

func writeTable(w io.Writer, batch *models.BatchContext) error {
	fmt.Fprintf(w, "Job skills: %s\n", joinOrDash(batch.JobSkills.Terms()))
	fmt.Fprintf(w, "Similarity: %s, skills: %s, weights: %.2f/%.2f\n\n",
		batch.SimilarityStrategy, batch.SkillStrategy, batch.Weights.Semantic, batch.Weights.Skill)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tFILE\tSCORE\tSEMANTIC\tSKILLS\tMISSING")
	for i, r := range batch.Results {
		fmt.Fprintf(tw, "%d\t%s\t%.2f\t%.4f\t%.0f%%\t%s\n",
			i+1, r.DisplayName, r.CombinedScore, r.SemanticScore, r.SkillMatchRatio*100,
			joinOrDash(r.MissingSkills.Terms()))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(batch.Rejected) == 0 {
		return nil
	}

	fmt.Fprintln(w, "\nRejected:")
	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, rej := range batch.Rejected {
		fmt.Fprintf(tw, "  %s\t%s\t%s\n", rej.DisplayName, rej.Reason, rej.Message)
	}
	return tw.Flush()
}

func joinOrDash(terms []string) string {
	if len(terms) == 0 {
		return "-"
	}
	return strings.Join(terms, ", ")
}
