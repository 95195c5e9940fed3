package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/inferloop/datadrift/internal/analysis"
	"github.com/inferloop/datadrift/pkg/constants"
)

func NewReportsCmd(global *GlobalOptions) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "reports",
		Short: "List historical quality and drift reports",
	}

	qualityCmd := &cobra.Command{
		Use:   "quality <dataset-id>",
		Short: "List quality reports of a dataset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateFormat(format); err != nil {
				return err
			}
			return withService(cmd, global, func(ctx context.Context, svc *analysis.Service) error {
				items, err := svc.ListQualityReports(ctx, args[0])
				if err != nil {
					return err
				}
				if format == constants.OutputFormatJSON {
					return renderJSON(cmd.OutOrStdout(), items)
				}
				renderQualityReports(cmd.OutOrStdout(), items)
				return nil
			})
		},
	}

	driftCmd := &cobra.Command{
		Use:   "drift",
		Short: "List drift reports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateFormat(format); err != nil {
				return err
			}
			return withService(cmd, global, func(ctx context.Context, svc *analysis.Service) error {
				items, err := svc.ListDriftReports(ctx)
				if err != nil {
					return err
				}
				if format == constants.OutputFormatJSON {
					return renderJSON(cmd.OutOrStdout(), items)
				}
				renderDriftReports(cmd.OutOrStdout(), items)
				return nil
			})
		},
	}

	cmd.PersistentFlags().StringVar(&format, "format", constants.OutputFormatText, "Output format (text, json)")
	cmd.AddCommand(qualityCmd, driftCmd)

	return cmd
}
