package commands

import (
	"covidstats/internal/parsehub"
	"covidstats/lib/serviceutil"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var updateMaxAttempts *int

func init() {
	updateMaxAttempts = updateCmd.Flags().Int("max-attempts", 0, "Give up after this many fetches, 0 waits until Ctrl+C.")
	rootCmd.AddCommand(updateCmd)
}

var updateCmd = &cobra.Command{
	Use:   "update [--max-attempts <n>]",
	Short: "Asks parsehub to run the project again and waits for the new data.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := serviceutil.SignalContext(cmd.Context())
		defer cancel()

		client, err := createClient(ctx, cmd, func(opts *parsehub.Options) {
			if *updateMaxAttempts > 0 {
				opts.MaxPollAttempts = *updateMaxAttempts
			}
		})
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()

		poll := client.RequestUpdate(ctx)
		if poll == nil {
			fmt.Fprintln(out, "The update was not started.")
			return nil
		}

		changed, err := poll.Wait()
		switch {
		case changed:
			parsehub.WriteTable(out, client.Snapshot().Summary)
		case errors.Is(err, parsehub.ErrPollExhausted):
			fmt.Fprintf(out, "No new data after %d attempts.\n", poll.Attempts())
		case errors.Is(err, parsehub.ErrPollCancelled):
			fmt.Fprintln(out, "Stopped waiting for new data.")
		}
		return nil
	},
}
