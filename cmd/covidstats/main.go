package main

import (
	"context"
	"covidstats/cmd/covidstats/commands"
	"covidstats/lib/telemetry"
	"errors"
	"log/slog"
	"time"
)

func main() {
	telemetry.InitSlog(false)

	ctx := context.Background()
	tel, err := telemetry.SetupFromEnv(ctx, "covidstats")
	switch {
	case err == nil:
		defer tel.Shutdown(context.Background())
		telemetry.InstrumentPerfStats(ctx, time.Second*30)
	case !errors.Is(err, telemetry.ErrNoConfig):
		slog.Warn("failed to setup telemetry", "err", err)
	}

	commands.ExecuteContext(ctx)
}
