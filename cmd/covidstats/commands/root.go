package commands

import (
	"context"
	"covidstats/lib/serviceutil"
	"covidstats/lib/telemetry"

	"github.com/spf13/cobra"
)

var debug *bool

func init() {
	debug = rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logs and dump http messages to .dev/resty/parsehub.")
}

var rootCmd = &cobra.Command{
	Use:   "covidstats <key> <value>",
	Short: "covidstats queries the latest COVID-19 statistics scraped from worldometers by parsehub.",
	Long: `covidstats queries the latest COVID-19 statistics scraped from worldometers by parsehub.

Records are matched on <key>, numeric keys (total_cases, new_cases, total_deaths,
new_deaths, total_recoveries, total_tests) match records with a larger value,
the name key matches records whose name contains the value or is contained in it.

API_KEY and PROJECT_TOKEN must hold the parsehub credentials.`,
	Args:          cobra.ArbitraryArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		telemetry.InitSlog(*debug)
	},
	RunE: runQuery,
}

// run executes the root command under ctx. Cobra only hands the parent
// context to a subcommand whose context is unset, so subcommand contexts
// left over from an earlier run are cleared first.
func run(ctx context.Context) error {
	for _, sub := range rootCmd.Commands() {
		sub.SetContext(nil)
	}
	return rootCmd.ExecuteContext(ctx)
}

func ExecuteContext(ctx context.Context) {
	if err := run(ctx); err != nil {
		serviceutil.Fatal("covidstats failed", err)
	}
}
