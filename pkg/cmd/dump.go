package cmd

import (
	"context"
	"slices"

	"github.com/pkg/errors"
	"github.com/pseudomuto/squeaky/pkg/config"
	"github.com/pseudomuto/squeaky/pkg/format"
	"github.com/urfave/cli/v3"
)

// dump returns a CLI command printing every table of the configured database as
// ASCII tables, the bookkeeping table first.
//
// Examples:
//
//	squeaky dump
//	squeaky dump --limit 20
func dump(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:   "dump",
		Usage:  "Print the contents of the database",
		Before: requireConfig(cfg),
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Usage:   "show at most this many rows per table (0 for all)",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return runDump(ctx, cmd, cfg)
		},
	}
}

func runDump(ctx context.Context, cmd *cli.Command, cfg *config.Config) error {
	helper, reader, err := openReader(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = helper.Close() }()

	versionsTable := cfg.Database.VersionsTable
	ok, err := reader.HasTable(ctx, versionsTable)
	if err != nil {
		return err
	}

	if !ok {
		return errors.Errorf("%s has not been prepared (no %s table)", cfg.Database.Path, versionsTable)
	}

	names, err := reader.TableNames(ctx)
	if err != nil {
		return err
	}

	names = slices.DeleteFunc(names, func(name string) bool { return name == versionsTable })
	return format.DumpTables(ctx, cmd.Writer, reader, versionsTable, names, int(cmd.Int("limit")))
}
