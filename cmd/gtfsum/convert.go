package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/inodb/gtfsum/internal/gtf"
	"github.com/inodb/gtfsum/internal/summary"
	"github.com/inodb/gtfsum/internal/table"
)

func newConvertCmd() *cobra.Command {
	var (
		inputPath  string
		outputPath string
		strict     bool
	)

	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Export a parsed GTF file to a DuckDB feature table",
		Long: `Parse a GTF file once and write the projected feature table to a
DuckDB file, so later 'gtfsum summarize' runs can skip re-parsing.`,
		Example: `  gtfsum convert -i gencode.v46.annotation.gtf.gz -o features.duckdb
  gtfsum summarize features.duckdb`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if inputPath == "" {
				return fmt.Errorf("--input is required")
			}
			if outputPath == "" {
				return fmt.Errorf("--output is required")
			}
			return runConvert(inputPath, outputPath, strict)
		},
	}

	cmd.Flags().StringVarP(&inputPath, "input", "i", "", "Input GTF file (plain or gzipped)")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output DuckDB file path")
	cmd.Flags().BoolVar(&strict, "strict", false, "Fail on malformed lines")

	return cmd
}

func runConvert(inputPath, outputPath string, strict bool) error {
	logger := newLogger()
	defer logger.Sync()

	if !table.IsStorePath(outputPath) {
		outputPath += ".duckdb"
	}

	// Remove existing output so the export starts from an empty table.
	if _, err := os.Stat(outputPath); err == nil {
		if err := os.Remove(outputPath); err != nil {
			return fmt.Errorf("remove existing file: %w", err)
		}
	}

	reader, err := gtf.Open(inputPath)
	if err != nil {
		return err
	}
	defer reader.Close()
	reader.SetStrict(strict)
	reader.SetLogger(logger)

	store, err := table.Open(outputPath)
	if err != nil {
		return fmt.Errorf("create feature table: %w", err)
	}
	defer store.Close()

	pipeline := summary.NewPipeline(nil)
	pipeline.SetLogger(logger)

	count, err := pipeline.Load(reader, store)
	if err != nil {
		return err
	}

	logger.Info("exported feature table",
		zap.String("path", filepath.Clean(outputPath)),
		zap.Int64("records", count),
		zap.Int("skipped", reader.Skipped()))

	return nil
}
