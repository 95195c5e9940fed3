package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/inferloop/datadrift/internal/analysis"
	"github.com/inferloop/datadrift/pkg/constants"
)

func NewDatasetsCmd(global *GlobalOptions) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "datasets",
		Short: "List stored datasets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateFormat(format); err != nil {
				return err
			}
			return withService(cmd, global, func(ctx context.Context, svc *analysis.Service) error {
				items, err := svc.ListDatasets(ctx)
				if err != nil {
					return err
				}
				if format == constants.OutputFormatJSON {
					return renderJSON(cmd.OutOrStdout(), items)
				}
				renderDatasets(cmd.OutOrStdout(), items)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&format, "format", constants.OutputFormatText, "Output format (text, json)")

	return cmd
}
