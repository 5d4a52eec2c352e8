package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pseudomuto/squeaky/pkg/config"
	"github.com/pseudomuto/squeaky/pkg/consts"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// ProjectFixture represents a test project: a temp directory holding a config file
// and the database it points at.
type ProjectFixture struct {
	Dir    string
	Config *config.Config
	t      *testing.T
}

// TestProject creates an isolated temp directory with a config declaring no tables.
// The database lives in the same directory.
func TestProject(t *testing.T) *ProjectFixture {
	t.Helper()

	dir := t.TempDir()
	fixture := &ProjectFixture{Dir: dir, t: t}
	return fixture.WithConfig("tables: []\n")
}

// WithConfig replaces the config with the given YAML. A relative database path is
// resolved inside the fixture directory.
func (p *ProjectFixture) WithConfig(yamlData string) *ProjectFixture {
	p.t.Helper()

	path := p.GetConfigPath()
	require.NoError(p.t, os.WriteFile(path, []byte(yamlData), consts.ModeFile), "Failed to write config")

	cfg, err := config.LoadConfigFile(path)
	require.NoError(p.t, err, "Failed to load config file")

	if !filepath.IsAbs(cfg.Database.Path) && cfg.Database.Path != ":memory:" {
		cfg.Database.Path = filepath.Join(p.Dir, cfg.Database.Path)
	}

	p.Config = cfg
	return p
}

// WithTables replaces the declared tables and rewrites the config file.
func (p *ProjectFixture) WithTables(tables ...config.TableConfig) *ProjectFixture {
	p.t.Helper()

	p.Config.Tables = tables
	require.NoError(p.t, p.writeConfig(p.GetConfigPath()), "Failed to write updated config")
	return p
}

// GetConfigPath returns the path of the fixture's config file.
func (p *ProjectFixture) GetConfigPath() string {
	return filepath.Join(p.Dir, consts.ConfigFile)
}

// GetDatabasePath returns the path of the fixture's database.
func (p *ProjectFixture) GetDatabasePath() string {
	return p.Config.Database.Path
}

func (p *ProjectFixture) writeConfig(path string) error {
	data, err := yaml.Marshal(p.Config)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, consts.ModeFile)
}
