package cmd

import (
	"context"
	"log/slog"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/pseudomuto/squeaky/pkg/config"
	"github.com/pseudomuto/squeaky/pkg/metrics"
	"github.com/urfave/cli/v3"
	"go.uber.org/fx"
)

type prepareParams struct {
	fx.In

	Config  *config.Config
	Logger  *slog.Logger
	Metrics *metrics.Collector `optional:"true"`
}

// prepare returns a CLI command that brings the configured database to the
// declared table versions.
//
// With --dry-run the plan is printed and nothing is executed. With --metrics-file
// the run's Prometheus metrics are written in the text exposition format, ready
// for the node_exporter textfile collector.
//
// Examples:
//
//	squeaky prepare
//	squeaky prepare --dry-run
//	squeaky prepare --metrics-file /var/lib/node_exporter/squeaky.prom
func prepare(p prepareParams) *cli.Command {
	return &cli.Command{
		Name:   "prepare",
		Usage:  "Create, migrate and drop tables to match the config",
		Before: requireConfig(p.Config),
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "print the plan without applying it",
			},
			&cli.StringFlag{
				Name:  "metrics-file",
				Usage: "write Prometheus metrics for the run to this file",
				Config: cli.StringConfig{
					TrimSpace: true,
				},
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Bool("dry-run") {
				return runPlan(ctx, cmd, p)
			}

			return runPrepare(ctx, cmd, p)
		},
	}
}

func runPrepare(ctx context.Context, cmd *cli.Command, p prepareParams) error {
	collector := p.Metrics
	if collector == nil {
		collector = metrics.New("")
	}

	db, err := openDatabase(p.Config, p.Logger, collector)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	prepareErr := db.Prepare(ctx)
	if err := writeResults(cmd.Writer, "", db.Results()); err != nil {
		return err
	}

	if path := cmd.String("metrics-file"); path != "" {
		if err := prometheus.WriteToTextfile(path, collector.Registry()); err != nil {
			return errors.Wrapf(err, "failed to write metrics to %s", path)
		}
	}

	return errors.Wrapf(prepareErr, "failed to prepare %s", p.Config.Database.Path)
}

func runPlan(ctx context.Context, cmd *cli.Command, p prepareParams) error {
	tables, err := p.Config.BuildTables()
	if err != nil {
		return err
	}

	helper, reader, err := openReader(ctx, p.Config)
	if err != nil {
		return err
	}
	defer func() { _ = helper.Close() }()

	results, err := newMigrator(p.Config, reader, p.Logger).Plan(ctx, tables)
	if err != nil {
		return err
	}

	return writeResults(cmd.Writer, "Planned changes for "+p.Config.Database.Path, results)
}
