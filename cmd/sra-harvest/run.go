package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/sra-harvest/internal/entrez"
	"github.com/pdiddy/sra-harvest/internal/geo"
	"github.com/pdiddy/sra-harvest/internal/keywords"
	"github.com/pdiddy/sra-harvest/internal/llm"
	"github.com/pdiddy/sra-harvest/internal/logging"
	"github.com/pdiddy/sra-harvest/internal/pipeline"
	"github.com/pdiddy/sra-harvest/internal/writer"
	"github.com/pdiddy/sra-harvest/pkg/types"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Harvest experiment metadata for a keyword list",
	Long: `Run iterates the keyword file, resolves each keyword to SRA experiment
identifiers, and processes every identifier through the fetch/extract/
synthesize pipeline into the output CSV. An existing output is appended to;
identifiers already present in it are skipped.

Pass --srx to process exactly one experiment and bypass the keyword loop.`,
	RunE: runHarvest,
}

func init() {
	runCmd.Flags().String("keywords", "", "CSV file of search keywords")
	runCmd.Flags().String("keyword-column", "", "header name of the keyword column (default: first column)")
	runCmd.Flags().String("output", "sra_metadata.csv", "output CSV path")
	runCmd.Flags().String("model", "gemma3:12b-it-qat", "model identifier served by the inference endpoint")
	runCmd.Flags().String("base-url", "", "OpenAI-compatible API root (default http://localhost:11434/v1)")
	runCmd.Flags().Int("workers", 1, "experiment pipelines run in parallel per keyword")
	runCmd.Flags().String("srx", "", "process exactly this experiment identifier and exit")
	runCmd.Flags().String("srx-keyword", "debug", "keyword recorded for the --srx row")
	runCmd.Flags().String("save-xml-dir", "", "persist fetched SRA XML documents to this directory")
	runCmd.Flags().String("save-geo-dir", "", "persist fetched GEO SOFT documents to this directory")
	runCmd.Flags().String("audit-dir", "", "directory for raw synthesis responses (default synthesis_responses)")

	rootCmd.AddCommand(runCmd)
}

// setting reads a flag, falling back to the matching viper key when the flag
// was not set on the command line.
func setting(cmd *cobra.Command, flag, viperKey string) string {
	if cmd.Flags().Changed(flag) || !viper.IsSet(viperKey) {
		v, _ := cmd.Flags().GetString(flag)
		return v
	}
	return viper.GetString(viperKey)
}

func buildConfig(cmd *cobra.Command) types.PipelineConfig {
	workers, _ := cmd.Flags().GetInt("workers")
	if !cmd.Flags().Changed("workers") && viper.IsSet("workers") {
		workers = viper.GetInt("workers")
	}

	cfg := types.PipelineConfig{
		Entrez: types.EntrezConfig{
			APIKey:     secretDefault("ncbi-api-key", viper.GetString("entrez.api_key")),
			SaveXMLDir: setting(cmd, "save-xml-dir", "entrez.save_xml_dir"),
		},
		GEO: types.GEOConfig{
			SaveSoftDir: setting(cmd, "save-geo-dir", "geo.save_soft_dir"),
		},
		LLM: types.LLMConfig{
			Model:    setting(cmd, "model", "llm.model"),
			BaseURL:  setting(cmd, "base-url", "llm.base_url"),
			AuditDir: setting(cmd, "audit-dir", "llm.audit_dir"),
		},
		Output: types.OutputConfig{
			Path: setting(cmd, "output", "output.path"),
		},
		Workers: workers,
	}
	if d := viper.GetDuration("entrez.request_delay"); d > 0 {
		cfg.Entrez.RequestDelay = d
	}
	if n := viper.GetInt("entrez.max_search_results"); n > 0 {
		cfg.Entrez.MaxSearchResults = n
	}
	if d := viper.GetDuration("llm.timeout"); d > 0 {
		cfg.LLM.Timeout = d
	}
	return cfg.Normalized()
}

func runHarvest(cmd *cobra.Command, args []string) error {
	level, _ := rootCmd.PersistentFlags().GetString("log-level")
	log, err := logging.New(level)
	if err != nil {
		return err
	}
	defer log.Sync()

	cfg := buildConfig(cmd)

	srxID, _ := cmd.Flags().GetString("srx")
	keywordFile, _ := cmd.Flags().GetString("keywords")
	keywordColumn, _ := cmd.Flags().GetString("keyword-column")
	if srxID == "" && keywordFile == "" {
		return fmt.Errorf("either --keywords or --srx is required")
	}

	// Everything checked before the first keyword is run-fatal: a missing
	// keyword file, an unusable output path, or a dead inference endpoint.
	var kws []string
	if srxID == "" {
		kws, err = keywords.Load(keywordFile, keywordColumn)
		if err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gateway := llm.NewGateway(cfg.LLM, log)
	if err := gateway.HealthCheck(ctx); err != nil {
		return fmt.Errorf("inference endpoint check failed (is the model server running at %s?): %w",
			cfg.LLM.BaseURL, err)
	}

	processed, err := writer.ProcessedIDs(cfg.Output.Path)
	if err != nil {
		return err
	}
	out, err := writer.Open(cfg.Output.Path)
	if err != nil {
		return err
	}
	defer out.Close()

	if len(processed) > 0 {
		log.Info("resuming into existing output",
			zap.String("path", cfg.Output.Path), zap.Int("already_processed", len(processed)))
	}

	p := pipeline.New(
		entrez.NewClient(cfg.Entrez, log),
		geo.NewFetcher(cfg.GEO, log),
		gateway,
		log,
	)
	coord := pipeline.NewCoordinator(p, out, cfg.Workers, processed, log)

	start := time.Now()
	var sum pipeline.Summary
	if srxID != "" {
		kw, _ := cmd.Flags().GetString("srx-keyword")
		sum, err = coord.RunSingle(ctx, kw, srxID)
	} else {
		sum, err = coord.Run(ctx, kws)
	}
	printSummary(sum, time.Since(start), cfg.Output.Path)
	return err
}

func printSummary(sum pipeline.Summary, elapsed time.Duration, outPath string) {
	fmt.Printf("Harvest finished in %s\n", elapsed.Round(time.Second))
	fmt.Printf("  Keywords processed:   %d\n", sum.Keywords)
	fmt.Printf("  Search failures:      %d\n", sum.SearchFailures)
	fmt.Printf("  Experiments found:    %d\n", sum.Identifiers)
	fmt.Printf("  Experiments skipped:  %d\n", sum.Skipped)
	fmt.Printf("  Experiments failed:   %d\n", sum.Failed)
	fmt.Printf("  Rows written:         %d -> %s\n", sum.RowsWritten, outPath)
}
