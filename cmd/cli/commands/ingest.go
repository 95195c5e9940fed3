package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/inferloop/datadrift/internal/analysis"
	"github.com/inferloop/datadrift/pkg/constants"
)

type IngestOptions struct {
	InputFile    string
	OutputFormat string
}

func NewIngestCmd(global *GlobalOptions) *cobra.Command {
	opts := &IngestOptions{}

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Ingest a CSV file and infer its schema",
		Long: `Ingest a CSV file with a header row, infer the type of every column and
store the dataset for later quality and drift checks.`,
		Example: `  # Ingest a dataset
  datadrift-cli ingest --file reference.csv

  # Print the stored summary as JSON
  datadrift-cli ingest --file target.csv --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateFormat(opts.OutputFormat); err != nil {
				return err
			}
			return withService(cmd, global, func(ctx context.Context, svc *analysis.Service) error {
				return runIngest(ctx, cmd, svc, opts)
			})
		},
	}

	cmd.Flags().StringVarP(&opts.InputFile, "file", "f", "", "CSV file to ingest (required)")
	cmd.Flags().StringVar(&opts.OutputFormat, "format", constants.OutputFormatText, "Output format (text, json)")

	cmd.MarkFlagRequired("file")

	return cmd
}

func runIngest(ctx context.Context, cmd *cobra.Command, svc *analysis.Service, opts *IngestOptions) error {
	f, err := os.Open(opts.InputFile)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", opts.InputFile, err)
	}
	defer f.Close()

	summary, err := svc.IngestCSV(ctx, filepath.Base(opts.InputFile), f)
	if err != nil {
		return err
	}

	if opts.OutputFormat == constants.OutputFormatJSON {
		return renderJSON(cmd.OutOrStdout(), summary)
	}
	renderDatasetSummary(cmd.OutOrStdout(), summary)
	return nil
}
