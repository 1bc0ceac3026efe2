// Package config loads sol2rs.toml, the per-project compiler settings.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/pelletier/go-toml"
	"github.com/tliron/commonlog"

	"sol2rs/internal/backend"
	"sol2rs/internal/errors"
)

var log = commonlog.GetLogger("sol2rs.config")

// FileName is the project file looked up from the working directory
// upwards.
const FileName = "sol2rs.toml"

// Config holds the settings one compiler run uses.
type Config struct {
	Backend   backend.Kind
	Contract  string
	OutDir    string
	Format    bool
	Rustfmt   string
	Jobs      int
	Verbosity int

	// Path is the file the settings were read from, empty for defaults.
	Path string
}

type tomlFile struct {
	Compile *tomlCompile `toml:"compile"`
	Log     *tomlLog     `toml:"log"`
}

type tomlCompile struct {
	Backend  string `toml:"backend"`
	Contract string `toml:"contract,omitempty"`
	OutDir   string `toml:"out-dir"`
	Format   bool   `toml:"format"`
	Rustfmt  string `toml:"rustfmt,omitempty"`
	Jobs     int    `toml:"jobs,omitempty"`
}

type tomlLog struct {
	Verbosity int `toml:"verbosity"`
}

// Default returns the settings used without a project file.
func Default() *Config {
	return &Config{
		Backend: backend.Ink,
		OutDir:  ".",
		Rustfmt: "rustfmt",
		Jobs:    runtime.NumCPU(),
	}
}

// Load reads and validates the project file at path. Unset keys keep
// their defaults.
func Load(path string) (*Config, error) {
	buff, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.IO(path, err)
	}
	cfg, err := Parse(buff)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	cfg.Path = path
	// output paths are relative to the project file
	if !filepath.IsAbs(cfg.OutDir) {
		cfg.OutDir = filepath.Join(filepath.Dir(path), cfg.OutDir)
	}
	log.Debugf("loaded %s", path)
	return cfg, nil
}

// Parse decodes project settings from TOML.
func Parse(buff []byte) (*Config, error) {
	tf := &tomlFile{}
	if err := toml.Unmarshal(buff, tf); err != nil {
		return nil, err
	}

	cfg := Default()
	if c := tf.Compile; c != nil {
		if c.Backend != "" {
			kind, err := backend.ParseKind(c.Backend)
			if err != nil {
				return nil, err
			}
			cfg.Backend = kind
		}
		cfg.Contract = c.Contract
		if c.OutDir != "" {
			cfg.OutDir = c.OutDir
		}
		cfg.Format = c.Format
		if c.Rustfmt != "" {
			cfg.Rustfmt = c.Rustfmt
		}
		switch {
		case c.Jobs < 0:
			return nil, fmt.Errorf("jobs must be positive, got %d", c.Jobs)
		case c.Jobs > 0:
			cfg.Jobs = c.Jobs
		}
	}
	if tf.Log != nil {
		cfg.Verbosity = tf.Log.Verbosity
	}
	return cfg, nil
}

// Find looks for the project file in dir and its parents. It returns the
// empty string when there is none.
func Find(dir string) string {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return ""
	}
	for {
		path := filepath.Join(abs, FileName)
		if finfo, err := os.Stat(path); err == nil && !finfo.IsDir() {
			return path
		}
		parent := filepath.Dir(abs)
		if parent == abs {
			return ""
		}
		abs = parent
	}
}

// Discover loads the nearest project file above dir, or the defaults.
func Discover(dir string) (*Config, error) {
	path := Find(dir)
	if path == "" {
		return Default(), nil
	}
	return Load(path)
}
