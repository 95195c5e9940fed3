package commands

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/inferloop/datadrift/pkg/constants"
)

// NewRootCmd builds the CLI command tree writing results to out
func NewRootCmd(out io.Writer) *cobra.Command {
	global := &GlobalOptions{}

	rootCmd := &cobra.Command{
		Use:   "datadrift-cli",
		Short: "Dataset quality and drift analysis CLI",
		Long: `A command-line interface for ingesting tabular datasets, checking their
quality and detecting distribution drift between two datasets.`,
		Version:       constants.AppVersion,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetOut(out)

	rootCmd.PersistentFlags().StringVar(&global.ConfigFile, "config", "", "config file (default is $HOME/.datadrift/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&global.Verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(NewIngestCmd(global))
	rootCmd.AddCommand(NewDatasetsCmd(global))
	rootCmd.AddCommand(NewQualityCmd(global))
	rootCmd.AddCommand(NewDriftCmd(global))
	rootCmd.AddCommand(NewReportsCmd(global))

	return rootCmd
}
