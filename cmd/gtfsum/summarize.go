package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/inodb/gtfsum/internal/gtf"
	"github.com/inodb/gtfsum/internal/summary"
	"github.com/inodb/gtfsum/internal/table"
)

func newSummarizeCmd() *cobra.Command {
	var (
		strict     bool
		features   []string
		outputFile string
	)

	cmd := &cobra.Command{
		Use:   "summarize <input.gtf[.gz] | features.duckdb>",
		Short: "Summarize a GTF annotation file or an exported feature table",
		Long: `Parse a GTF file into an in-memory feature table and print counts per
feature type, source, and chromosome, length quantiles, and the
transcript support level distribution. A .duckdb file produced by
'gtfsum convert' is summarized without re-parsing.`,
		Example: `  gtfsum summarize gencode.v46.annotation.gtf.gz
  gtfsum summarize --features gene,exon input.gtf
  gtfsum summarize --strict -o report.tsv input.gtf
  cat input.gtf | gtfsum summarize -`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSummarize(args[0], features, strict, outputFile)
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "Fail on malformed lines and report malformed attribute entries")
	cmd.Flags().StringSliceVar(&features, "features", nil, "Feature types for length quantiles (default: gene,transcript,exon)")
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")

	return cmd
}

func runSummarize(input string, features []string, strict bool, outputFile string) error {
	logger := newLogger()
	defer logger.Sync()

	out, closeOut, err := openOutput(outputFile)
	if err != nil {
		return err
	}
	defer closeOut()

	pipeline := summary.NewPipeline(features)
	pipeline.SetLogger(logger)

	var report *summary.Report

	if table.IsStorePath(input) {
		store, err := table.Open(input)
		if err != nil {
			return fmt.Errorf("open feature table: %w", err)
		}
		defer store.Close()

		report, err = pipeline.Summarize(store)
		if err != nil {
			return err
		}
	} else {
		reader, err := gtf.Open(input)
		if err != nil {
			return err
		}
		defer reader.Close()
		reader.SetStrict(strict)
		reader.SetLogger(logger)

		store, err := table.Open("")
		if err != nil {
			return fmt.Errorf("open feature table: %w", err)
		}
		defer store.Close()

		report, err = pipeline.Run(reader, store)
		if err != nil {
			return err
		}
	}

	return summary.NewTabWriter(out).WriteReport(report)
}
