package commands

import (
	"context"
	"covidstats/internal/components/telemetry"
	"covidstats/internal/parsehub"
	"covidstats/lib/configutil"
	"covidstats/lib/restyutil"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
)

// Config is read from covidstats.json5 (and covidstats.local.json5) in
// the cwd or any of its parents, every field is optional.
type Config struct {
	BaseUrl         string `json:"base_url"`
	PollInterval    string `json:"poll_interval"`
	PollDelay       string `json:"poll_delay"`
	MaxPollAttempts int    `json:"max_poll_attempts"`
	Timeout         string `json:"timeout"`
}

func parseDuration(field, value string) (time.Duration, error) {
	if value == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", field, err)
	}
	return d, nil
}

func loadOptions() (parsehub.Options, error) {
	cfg, err := configutil.ReadRecursively[Config]("covidstats.json5")
	if err != nil && !os.IsNotExist(err) {
		return parsehub.Options{}, err
	}

	opts := parsehub.Options{
		ApiKey:          configutil.LookupEnv("API_KEY", "ParseHub_API_KEY"),
		ProjectToken:    configutil.LookupEnv("PROJECT_TOKEN", "ParseHub_PROJECT_TOKEN"),
		BaseUrl:         cfg.BaseUrl,
		MaxPollAttempts: cfg.MaxPollAttempts,
	}
	if baseUrl := configutil.LookupEnv("PARSEHUB_BASE_URL"); baseUrl != "" {
		opts.BaseUrl = baseUrl
	}

	opts.PollInterval, err = parseDuration("poll_interval", cfg.PollInterval)
	if err != nil {
		return parsehub.Options{}, err
	}
	opts.PollDelay, err = parseDuration("poll_delay", cfg.PollDelay)
	if err != nil {
		return parsehub.Options{}, err
	}
	opts.Timeout, err = parseDuration("timeout", cfg.Timeout)
	if err != nil {
		return parsehub.Options{}, err
	}

	return opts, nil
}

func createClient(ctx context.Context, cmd *cobra.Command, overrides ...func(*parsehub.Options)) (*parsehub.Client, error) {
	opts, err := loadOptions()
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	opts.Out = cmd.OutOrStdout()
	for _, override := range overrides {
		override(&opts)
	}

	if *debug {
		output, err := restyutil.NewFilesystemOutput(".dev/resty/parsehub")
		if err != nil {
			slog.Warn("failed to create http message output", "err", err)
		} else {
			opts.InstrumentOutput = output
		}
	}

	client, err := parsehub.NewClient(ctx, opts, telemetry.SlogAPI{})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch initial data: %w", err)
	}
	return client, nil
}
