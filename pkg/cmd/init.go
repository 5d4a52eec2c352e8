package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/pseudomuto/squeaky/pkg/consts"
	"github.com/urfave/cli/v3"
)

const starterConfig = `database:
  path: squeaky.db
  versions_table: versions
  busy_timeout: 5s
  journal_mode: WAL
  synchronous: NORMAL
  foreign_keys: true
  transactional: false
log:
  level: info
  format: text
tables:
  - name: users
    version: 1
    create: |
      CREATE TABLE users (
        id INTEGER PRIMARY KEY,
        name TEXT NOT NULL
      );
    # Add a step for every version bump, and update create to match:
    # migrations:
    #   2: ALTER TABLE users ADD COLUMN email TEXT;
`

// initCmd returns a CLI command that writes a starter squeaky.yaml.
//
// The file is written to --output when given, otherwise to the global --config
// path. An existing file is only replaced with --force.
//
// Examples:
//
//	squeaky init
//	squeaky init --output db/squeaky.yaml --force
func initCmd() *cli.Command {
	return &cli.Command{
		Name:  "init",
		Usage: "Write a starter squeaky.yaml",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "where to write the config (defaults to the --config path)",
				Config: cli.StringConfig{
					TrimSpace: true,
				},
			},
			&cli.BoolFlag{
				Name:    "force",
				Aliases: []string{"f"},
				Usage:   "overwrite an existing config file",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			path := cmd.String("output")
			if path == "" {
				path = cmd.String("config")
			}

			if path == "" {
				path = consts.ConfigFile
			}

			return writeStarterConfig(path, cmd.Bool("force"), cmd)
		},
	}
}

func writeStarterConfig(path string, force bool, cmd *cli.Command) error {
	if _, err := os.Stat(path); err == nil && !force {
		return errors.Errorf("%s already exists (use --force to overwrite)", path)
	}

	if err := os.MkdirAll(filepath.Dir(path), consts.ModeDir); err != nil {
		return errors.Wrapf(err, "failed to create directory for %s", path)
	}

	if err := os.WriteFile(path, []byte(starterConfig), consts.ModeFile); err != nil {
		return errors.Wrapf(err, "failed to write %s", path)
	}

	fmt.Fprintf(cmd.Writer, "Wrote %s\n", path)
	return nil
}
