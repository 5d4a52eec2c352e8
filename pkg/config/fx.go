package config

import (
	"log/slog"
	"os"
	"strings"

	"github.com/pseudomuto/squeaky/pkg/consts"
	"go.uber.org/fx"
)

// EnvConfig names the environment variable overriding the configuration path.
const EnvConfig = "SQUEAKY_CONFIG"

var Module = fx.Module("config", fx.Provide(
	// Loads the configuration selected by the command line, the environment or the
	// default squeaky.yaml. Returns nil if the file doesn't exist, allowing commands
	// that don't require config (like init and help) to function properly.
	func(args []string) (*Config, error) {
		path := ResolvePath(args)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return nil, nil
		}

		return LoadConfigFile(path)
	},
	func(c *Config) (*slog.Logger, error) {
		cfg := Log{Level: consts.DefaultLogLevel, Format: consts.DefaultLogFormat}
		if c != nil {
			cfg = c.Log
		}

		logger, err := NewLogger(cfg, os.Stderr)
		if err != nil {
			return nil, err
		}

		slog.SetDefault(logger)
		return logger, nil
	},
))

// ResolvePath returns the configuration file named by --config (or -c) in args,
// falling back to $SQUEAKY_CONFIG and then to squeaky.yaml.
func ResolvePath(args []string) string {
	for i, arg := range args {
		if arg == "--" {
			break
		}

		for _, flag := range []string{"--config", "-config", "-c"} {
			if arg == flag && i+1 < len(args) {
				return args[i+1]
			}

			if value, ok := strings.CutPrefix(arg, flag+"="); ok {
				return value
			}
		}
	}

	if path := os.Getenv(EnvConfig); path != "" {
		return path
	}

	return consts.ConfigFile
}
