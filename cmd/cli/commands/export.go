package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/inferloop/datadrift/internal/export"
)

// exportReport writes rep to path when an --output file was given
func exportReport(ctx context.Context, cmd *cobra.Command, path string, rep interface{}) error {
	if path == "" {
		return nil
	}

	options, err := export.OptionsFromPath(path)
	if err != nil {
		return err
	}

	result, err := export.NewExportEngine(nil).ExportToFile(ctx, path, rep, options)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "Report exported to %s (%d bytes)\n", result.Path, result.Size)
	return nil
}
