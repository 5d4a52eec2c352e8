package main

import (
	"context"
	"os"

	"github.com/pseudomuto/squeaky/pkg/cmd"
	"github.com/pseudomuto/squeaky/pkg/config"
	"github.com/pseudomuto/squeaky/pkg/metrics"
	"go.uber.org/fx"
)

// NB: These are set by GoReleaser during a build.
var (
	version string
	commit  string
	date    string
)

func main() {
	fx.New(
		fx.Provide(
			func() context.Context { return context.Background() },
			func() []string { return os.Args },
		),
		fx.Supply(&cmd.Version{
			Version:   version,
			Commit:    commit,
			Timestamp: date,
		}),
		config.Module,
		metrics.Module,
		cmd.Module,
		fx.NopLogger,
	).Run()
}
