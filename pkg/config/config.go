package config

import (
	"io"
	"maps"
	"os"
	"slices"
	"time"

	"github.com/pkg/errors"
	"github.com/pseudomuto/squeaky/pkg/consts"
	"github.com/pseudomuto/squeaky/pkg/parser"
	"github.com/pseudomuto/squeaky/pkg/store"
	"github.com/pseudomuto/squeaky/pkg/table"
	"github.com/pseudomuto/squeaky/pkg/utils"
	"gopkg.in/yaml.v3"
)

type (
	// Database holds the settings of the managed SQLite database.
	Database struct {
		// Path is the database file, or ":memory:"
		Path string `yaml:"path"`

		// VersionsTable names the bookkeeping table
		VersionsTable string `yaml:"versions_table,omitempty"`

		// BusyTimeout sets how long to wait for database locks (e.g. 5s)
		BusyTimeout time.Duration `yaml:"busy_timeout,omitempty"`

		// JournalMode sets the SQLite journal mode (WAL, DELETE, TRUNCATE, etc.)
		JournalMode string `yaml:"journal_mode,omitempty"`

		// Synchronous sets the synchronous mode (FULL, NORMAL, OFF)
		Synchronous string `yaml:"synchronous,omitempty"`

		// ForeignKeys enables foreign key enforcement; defaults to true
		ForeignKeys *bool `yaml:"foreign_keys,omitempty"`

		// CacheSize sets the page cache size in KB (negative) or pages (positive)
		CacheSize int `yaml:"cache_size,omitempty"`

		// Transactional runs each table's migration in its own transaction
		Transactional bool `yaml:"transactional,omitempty"`
	}

	// Log holds the logger settings.
	Log struct {
		// Level is one of debug, info, warn or error
		Level string `yaml:"level,omitempty"`

		// Format is text or json
		Format string `yaml:"format,omitempty"`
	}

	// TableConfig declares one versioned table. SQL fields hold scripts that may
	// contain several statements separated by semicolons.
	TableConfig struct {
		// Name is the table name
		Name string `yaml:"name"`

		// Version is the target version of the table
		Version int `yaml:"version,omitempty"`

		// Create builds the table from scratch at Version
		Create string `yaml:"create,omitempty"`

		// Migrations maps a version to the script reaching it from the previous one
		Migrations map[int]string `yaml:"migrations,omitempty"`

		// Downgrades maps a version to the script reaching it from the next one
		Downgrades map[int]string `yaml:"downgrades,omitempty"`

		// Drop declares that the table should be removed
		Drop bool `yaml:"drop,omitempty"`
	}

	// Config represents the squeaky project configuration.
	Config struct {
		// Database contains the SQLite settings
		Database Database `yaml:"database"`

		// Log contains the logger settings
		Log Log `yaml:"log"`

		// Tables lists the managed tables in the order they are reconciled
		Tables []TableConfig `yaml:"tables"`
	}
)

// LoadConfig parses a project configuration from the provided io.Reader.
//
// Unset database and log settings are filled in from the defaults in pkg/consts.
//
// Example:
//
//	yamlData := `
//	database:
//	  path: app.db
//	tables:
//	  - name: users
//	    version: 1
//	    create: CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT);
//	`
//
//	cfg, err := config.LoadConfig(strings.NewReader(yamlData))
//	if err != nil {
//		panic(err)
//	}
//
//	fmt.Printf("Database: %s\n", cfg.Database.Path)
func LoadConfig(r io.Reader) (*Config, error) {
	var cfg Config
	if err := yaml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal squeaky config")
	}

	cfg.setDefaults()
	return &cfg, nil
}

// LoadConfigFile loads a project configuration from the specified file path.
// This is a convenience function that opens the file and calls LoadConfig.
func LoadConfigFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open file: %s", path)
	}
	defer func() { _ = f.Close() }()

	return LoadConfig(f)
}

// SQLite returns the store configuration for the configured database.
func (c *Config) SQLite() store.SQLiteConfig {
	return store.SQLiteConfig{
		Path:        c.Database.Path,
		BusyTimeout: c.Database.BusyTimeout,
		JournalMode: c.Database.JournalMode,
		Synchronous: c.Database.Synchronous,
		ForeignKeys: c.Database.ForeignKeys == nil || *c.Database.ForeignKeys,
		CacheSize:   c.Database.CacheSize,
	}
}

// BuildTables converts the declared tables into table descriptors, splitting
// every script into its statements.
func (c *Config) BuildTables() ([]table.Table, error) {
	tables := make([]table.Table, 0, len(c.Tables))
	for _, tc := range c.Tables {
		t, err := tc.Build()
		if err != nil {
			return nil, err
		}

		tables = append(tables, t)
	}

	return tables, nil
}

// Build converts the declaration into a table descriptor. A double-quoted name is
// unquoted first, since the engine quotes names itself.
func (tc TableConfig) Build() (*table.Definition, error) {
	name := utils.UnquoteIdentifier(tc.Name)
	if tc.Drop {
		return table.Dropped(name), nil
	}

	create, err := parser.Split(tc.Create)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid create script for table %s", name)
	}

	def := table.New(name, tc.Version, create...)
	for _, version := range slices.Sorted(maps.Keys(tc.Migrations)) {
		stmts, err := parser.Split(tc.Migrations[version])
		if err != nil {
			return nil, errors.Wrapf(err, "invalid migration %d for table %s", version, name)
		}

		def.Step(version, stmts...)
	}

	for _, version := range slices.Sorted(maps.Keys(tc.Downgrades)) {
		stmts, err := parser.Split(tc.Downgrades[version])
		if err != nil {
			return nil, errors.Wrapf(err, "invalid downgrade %d for table %s", version, name)
		}

		def.DownStep(version, stmts...)
	}

	if err := table.Validate(def); err != nil {
		return nil, err
	}

	return def, nil
}

func (c *Config) setDefaults() {
	if c.Database.Path == "" {
		c.Database.Path = consts.DefaultDatabasePath
	}

	if c.Database.VersionsTable == "" {
		c.Database.VersionsTable = consts.DefaultVersionsTable
	}

	if c.Database.BusyTimeout == 0 {
		c.Database.BusyTimeout = consts.DefaultBusyTimeout
	}

	if c.Database.JournalMode == "" {
		c.Database.JournalMode = consts.DefaultJournalMode
	}

	if c.Database.Synchronous == "" {
		c.Database.Synchronous = consts.DefaultSynchronous
	}

	if c.Database.ForeignKeys == nil {
		c.Database.ForeignKeys = utils.Ptr(true)
	}

	if c.Log.Level == "" {
		c.Log.Level = consts.DefaultLogLevel
	}

	if c.Log.Format == "" {
		c.Log.Format = consts.DefaultLogFormat
	}
}
