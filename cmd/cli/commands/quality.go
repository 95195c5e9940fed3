package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/inferloop/datadrift/internal/analysis"
	"github.com/inferloop/datadrift/pkg/constants"
)

type QualityOptions struct {
	DatasetID    string
	OutputFormat string
	OutputFile   string
}

func NewQualityCmd(global *GlobalOptions) *cobra.Command {
	opts := &QualityOptions{}

	cmd := &cobra.Command{
		Use:   "quality <dataset-id>",
		Short: "Run a data quality check on a stored dataset",
		Long: `Compute missing values, duplicate rows, IQR outliers and descriptive
statistics for a stored dataset and save the report.`,
		Example: `  datadrift-cli quality 1b4e28ba-2fa1-11d2-883f-0016d3cca427
  datadrift-cli quality 1b4e28ba-2fa1-11d2-883f-0016d3cca427 --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.DatasetID = args[0]
			if err := validateFormat(opts.OutputFormat); err != nil {
				return err
			}
			return withService(cmd, global, func(ctx context.Context, svc *analysis.Service) error {
				return runQuality(ctx, cmd, svc, opts)
			})
		},
	}

	cmd.Flags().StringVar(&opts.OutputFormat, "format", constants.OutputFormatText, "Output format (text, json)")
	cmd.Flags().StringVarP(&opts.OutputFile, "output", "o", "", "Also export the report to a file (.json, .csv, optionally .gz)")

	return cmd
}

func runQuality(ctx context.Context, cmd *cobra.Command, svc *analysis.Service, opts *QualityOptions) error {
	rep, err := svc.RunQualityCheck(ctx, opts.DatasetID)
	if err != nil {
		return err
	}

	if err := exportReport(ctx, cmd, opts.OutputFile, rep); err != nil {
		return err
	}

	if opts.OutputFormat == constants.OutputFormatJSON {
		return renderJSON(cmd.OutOrStdout(), rep)
	}
	renderQualityReport(cmd.OutOrStdout(), rep)
	return nil
}
