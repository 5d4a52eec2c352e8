package cmd

import (
	"context"
	"log/slog"

	"github.com/pseudomuto/squeaky/pkg/config"
	"github.com/pseudomuto/squeaky/pkg/format"
	"github.com/pseudomuto/squeaky/pkg/migrator"
	"github.com/pseudomuto/squeaky/pkg/store"
	"github.com/pseudomuto/squeaky/pkg/table"
	"github.com/urfave/cli/v3"
	"go.uber.org/fx"
)

type statusParams struct {
	fx.In

	Config *config.Config
	Logger *slog.Logger
}

// status returns a CLI command comparing the recorded table versions against the
// declared ones without changing anything.
//
// Each declared table is reported as one of:
//   - up-to-date: recorded at the declared version
//   - pending: recorded behind the declared version
//   - ahead: recorded past the declared version
//   - new: not recorded yet
//   - drop: declared dropped but still recorded
//   - dropped: declared dropped and already gone
//   - invalid: the declaration itself is unusable
//
// Recorded tables missing from the config are listed as unmanaged.
func status(p statusParams) *cli.Command {
	return &cli.Command{
		Name:   "status",
		Usage:  "Show recorded table versions against the config",
		Before: requireConfig(p.Config),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return runStatus(ctx, cmd, p)
		},
	}
}

func runStatus(ctx context.Context, cmd *cli.Command, p statusParams) error {
	tables, err := p.Config.BuildTables()
	if err != nil {
		return err
	}

	helper, reader, err := openReader(ctx, p.Config)
	if err != nil {
		return err
	}
	defer func() { _ = helper.Close() }()

	m := newMigrator(p.Config, reader, p.Logger)
	recorded, err := m.Versions(ctx)
	if err != nil {
		return err
	}

	plan, err := m.Plan(ctx, tables)
	if err != nil {
		return err
	}

	declared := make(map[string]struct{}, len(plan))
	values := make([][]any, 0, len(plan))
	for _, r := range plan {
		declared[r.Table] = struct{}{}
		values = append(values, []any{r.Table, versionLabel(r.FromVersion), versionLabel(r.ToVersion), state(r)})
	}

	for _, rec := range recorded.Records() {
		if _, ok := declared[rec.Table]; !ok {
			values = append(values, []any{rec.Table, versionLabel(rec.Version), "-", "unmanaged"})
		}
	}

	rows := store.NewRows([]string{"table", "recorded", "declared", "state"}, values...)
	return format.Table(cmd.Writer, p.Config.Database.Path, rows)
}

func state(r *migrator.Result) string {
	switch r.Status {
	case migrator.StatusCreated:
		return "new"
	case migrator.StatusUpgraded:
		return "pending"
	case migrator.StatusDowngraded:
		return "ahead"
	case migrator.StatusDropped:
		return "drop"
	case migrator.StatusFailed:
		return "invalid"
	}

	if r.ToVersion == table.Drop {
		return "dropped"
	}

	return "up-to-date"
}
