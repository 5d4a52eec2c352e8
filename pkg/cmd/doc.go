// Package cmd provides CLI commands for the squeaky tool.
//
// # Available Commands
//
//   - init: Write a starter squeaky.yaml
//   - prepare: Bring the configured database to the declared table versions
//   - status: Compare recorded table versions with the declared ones
//   - dump: Print every table of the database as ASCII tables
//
// # Command Structure
//
// Each command is implemented as a function returning a *cli.Command, following
// the urfave/cli/v3 pattern, and registered with fx through Module. Commands that
// need the configuration receive it from config.Module and refuse to run when no
// config file was found.
//
// # Global Options
//
//   - --config, -c: The config file (env SQUEAKY_CONFIG, default squeaky.yaml)
//   - --help, -h: Display command help
//   - --version: Display version information
//
// # Example Usage
//
//	squeaky init                              # Write squeaky.yaml
//	squeaky prepare --dry-run                 # Show what prepare would do
//	squeaky prepare                           # Apply it
//	squeaky -c db/squeaky.yaml status         # Check another project
//	squeaky dump --limit 10                   # Peek at the data
package cmd
