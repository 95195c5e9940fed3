package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/inferloop/datadrift/internal/analysis"
	"github.com/inferloop/datadrift/pkg/constants"
)

type DriftOptions struct {
	ReferenceID  string
	TargetID     string
	OutputFormat string
	OutputFile   string
}

func NewDriftCmd(global *GlobalOptions) *cobra.Command {
	opts := &DriftOptions{}

	cmd := &cobra.Command{
		Use:   "drift",
		Short: "Detect distribution drift between two stored datasets",
		Long: `Compare every column shared by the reference and target datasets with a
Kolmogorov-Smirnov test (numeric and datetime columns) or a chi-square test
(categorical columns) and save the drift report.`,
		Example: `  datadrift-cli drift --reference <ref-id> --target <target-id>
  datadrift-cli drift --reference <ref-id> --target <target-id> --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateFormat(opts.OutputFormat); err != nil {
				return err
			}
			return withService(cmd, global, func(ctx context.Context, svc *analysis.Service) error {
				return runDrift(ctx, cmd, svc, opts)
			})
		},
	}

	cmd.Flags().StringVarP(&opts.ReferenceID, "reference", "r", "", "Reference dataset ID (required)")
	cmd.Flags().StringVarP(&opts.TargetID, "target", "t", "", "Target dataset ID (required)")
	cmd.Flags().StringVar(&opts.OutputFormat, "format", constants.OutputFormatText, "Output format (text, json)")
	cmd.Flags().StringVarP(&opts.OutputFile, "output", "o", "", "Also export the report to a file (.json, .csv, optionally .gz)")

	cmd.MarkFlagRequired("reference")
	cmd.MarkFlagRequired("target")

	return cmd
}

func runDrift(ctx context.Context, cmd *cobra.Command, svc *analysis.Service, opts *DriftOptions) error {
	rep, err := svc.RunDriftCheck(ctx, opts.ReferenceID, opts.TargetID)
	if err != nil {
		return err
	}

	if err := exportReport(ctx, cmd, opts.OutputFile, rep); err != nil {
		return err
	}

	if opts.OutputFormat == constants.OutputFormatJSON {
		return renderJSON(cmd.OutOrStdout(), rep)
	}
	renderDriftReport(cmd.OutOrStdout(), rep)
	return nil
}
