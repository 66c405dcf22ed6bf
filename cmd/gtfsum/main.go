// Package main provides the gtfsum command-line tool.
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Version information (set at build time)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var verbose bool

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:     "gtfsum",
		Short:   "Parse and summarize GENCODE GTF annotation files",
		Version: fmt.Sprintf("%s (%s) built %s", version, commit, date),
		Long: `gtfsum parses GENCODE GTF files, extracts the attribute column into
structured fields, and runs group-by, count, and quantile summaries
over the annotation.`,
		Example: `  # Download GENCODE annotations (one-time setup)
  gtfsum download --assembly GRCh38

  # Summarize an annotation file
  gtfsum summarize gencode.v46.annotation.gtf.gz

  # Project attribute keys into TSV columns
  gtfsum extract --keys gene_id,gene_name input.gtf

  # Export the parsed feature table for reuse
  gtfsum convert -i input.gtf -o features.duckdb
  gtfsum summarize features.duckdb`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
	}

	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")

	root.AddCommand(newSummarizeCmd())
	root.AddCommand(newExtractCmd())
	root.AddCommand(newConvertCmd())
	root.AddCommand(newDownloadCmd())
	root.AddCommand(newConfigCmd())

	return root
}

// initConfig loads ~/.gtfsum.yaml and sets defaults.
func initConfig() error {
	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("cannot determine home directory: %w", err)
	}

	viper.AddConfigPath(home)
	viper.SetConfigName(".gtfsum")
	viper.SetConfigType("yaml")

	viper.SetDefault("assembly", "GRCh38")
	viper.SetDefault("cache_dir", filepath.Join(home, ".gtfsum"))
	viper.SetDefault("attribute_keys", []string{"gene_id", "gene_name", "gene_type", "transcript_id"})

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
	}
	return nil
}

// newLogger builds the CLI logger. Logs go to stderr so report output
// on stdout stays clean.
func newLogger() *zap.Logger {
	if verbose {
		logger, err := zap.NewDevelopment()
		if err != nil {
			return zap.NewNop()
		}
		return logger
	}

	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stderr"}
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// openOutput returns stdout for an empty path, otherwise creates the file.
// The returned func closes the file when one was opened.
func openOutput(path string) (*os.File, func(), error) {
	if path == "" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("create output file: %w", err)
	}
	return f, func() { f.Close() }, nil
}
