package consts

import (
	"os"
	"time"
)

const (
	// ModeDir is the standard file mode for creating directories
	ModeDir = os.FileMode(0o755)

	// ModeFile is the standard file mode for creating files
	ModeFile = os.FileMode(0o644)

	// ConfigFile is the default name of the squeaky configuration file
	ConfigFile = "squeaky.yaml"

	// DefaultVersionsTable is the name of the bookkeeping table when none is configured
	DefaultVersionsTable = "versions"

	// DefaultDatabasePath is used when the configuration does not name a database file
	DefaultDatabasePath = "squeaky.db"

	// DefaultBusyTimeout is how long SQLite waits on a locked database before failing
	DefaultBusyTimeout = 5 * time.Second

	// DefaultJournalMode is the SQLite journal mode applied to file databases
	DefaultJournalMode = "WAL"

	// DefaultSynchronous is the SQLite synchronous mode applied to file databases
	DefaultSynchronous = "NORMAL"

	// DefaultLogLevel is the slog level used by the CLI
	DefaultLogLevel = "info"

	// DefaultLogFormat is the slog handler used by the CLI
	DefaultLogFormat = "text"
)
