package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pkg/errors"
	"github.com/pseudomuto/squeaky/pkg/config"
	"github.com/pseudomuto/squeaky/pkg/consts"
	"github.com/urfave/cli/v3"
	"go.uber.org/fx"
)

type (
	Params struct {
		fx.In

		Args       []string
		Commands   []*cli.Command `group:"commands"`
		Ctx        context.Context
		Lifecycle  fx.Lifecycle
		Shutdowner fx.Shutdowner
		Version    *Version
	}

	Version struct {
		Version   string
		Commit    string
		Timestamp string
	}
)

// Run creates and executes the main squeaky CLI application with the given
// version and command-line arguments.
//
// Global Flags:
//   - --config, -c: The squeaky config file (env SQUEAKY_CONFIG, default squeaky.yaml)
//
// The configuration itself is loaded by config.Module before the application runs,
// so commands receive it (or nil when the file is missing) through fx.
//
// Example usage:
//
//	squeaky init
//	squeaky --config db/squeaky.yaml prepare --dry-run
//	squeaky status
//	squeaky dump --limit 10
func Run(p Params) {
	cli.VersionPrinter = func(cmd *cli.Command) {
		fmt.Fprintln(cmd.Writer, "Version:", p.Version.Version)
		fmt.Fprintln(cmd.Writer, "Commit:", p.Version.Commit)
		fmt.Fprintln(cmd.Writer, "Date:", p.Version.Timestamp)
	}

	app := &cli.Command{
		Name:  "squeaky",
		Usage: "A tool for managing versioned SQLite schemas",
		Description: `squeaky keeps the tables of a SQLite database at the versions declared in
its configuration file. Each table is created, upgraded, downgraded or dropped
one version at a time, and the applied versions are recorded in the database.`,
		Version: p.Version.Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "the squeaky config file",
				Sources: cli.EnvVars(config.EnvConfig),
				Value:   consts.ConfigFile,
				Config: cli.StringConfig{
					TrimSpace: true,
				},
			},
		},
		Commands: p.Commands,
	}

	p.Lifecycle.Append(fx.StartHook(func() {
		if err := app.Run(p.Ctx, p.Args); err != nil {
			slog.Error("Error running command", "err", err)
			_ = p.Shutdowner.Shutdown(fx.ExitCode(1))
			return
		}

		_ = p.Shutdowner.Shutdown(fx.ExitCode(0))
	}))
}

func requireConfig(cfg *config.Config) func(context.Context, *cli.Command) (context.Context, error) {
	return func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
		if cfg == nil {
			return ctx, errors.New("squeaky config not found (run squeaky init to create one)")
		}

		return ctx, nil
	}
}
