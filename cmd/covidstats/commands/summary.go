package commands

import (
	"covidstats/internal/parsehub"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(summaryCmd)
}

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Prints the worldwide summary as a table.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := createClient(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		parsehub.WriteTable(cmd.OutOrStdout(), client.Snapshot().Summary)
		return nil
	},
}
