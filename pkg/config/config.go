// Package config loads CFPL tool settings from YAML files.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	// ProjectFile is looked up in the working directory.
	ProjectFile = ".cfpl.yaml"
	// UserFile is looked up under the home directory.
	UserFile = ".cfpl/config.yaml"
)

// Config holds the effective settings.
type Config struct {
	Pretty      bool   `yaml:"pretty"`
	InputPrompt string `yaml:"input_prompt"`
	NullMarker  string `yaml:"null_marker"`
	HistoryFile string `yaml:"history_file"`
	Trace       string `yaml:"trace"`

	// Source is the file the settings came from, empty for built-in defaults.
	Source string `yaml:"-"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Pretty:      true,
		InputPrompt: "[Input]",
		NullMarker:  "nil",
		HistoryFile: ".cfpl_history",
	}
}

// Error reports a configuration file that exists but cannot be used.
type Error struct {
	Path string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("config %s: %v", e.Path, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Load resolves settings for projectDir.
// Precedence: project (.cfpl.yaml) → user (~/.cfpl/config.yaml) → defaults.
func Load(projectDir string) (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		home = ""
	}
	return LoadFrom(projectDir, home)
}

// LoadFrom is Load with an explicit home directory; an empty home skips the
// user file.
func LoadFrom(projectDir, homeDir string) (*Config, error) {
	candidates := []string{filepath.Join(projectDir, ProjectFile)}
	if homeDir != "" {
		candidates = append(candidates, filepath.Join(homeDir, UserFile))
	}
	for _, path := range candidates {
		cfg, err := LoadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return cfg, nil
	}
	return Default(), nil
}

// LoadFile reads one YAML file. Keys it does not set keep their defaults;
// unknown keys are an error.
func LoadFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cfg := Default()
	decoder := yaml.NewDecoder(f)
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, &Error{Path: path, Err: err}
	}
	cfg.Source = path
	return cfg, nil
}

// Write encodes cfg as YAML.
func Write(w io.Writer, cfg *Config) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return err
	}
	return enc.Close()
}

// HistoryPath resolves HistoryFile against homeDir unless it is absolute.
// It returns "" when history is disabled.
func (c *Config) HistoryPath(homeDir string) string {
	if c.HistoryFile == "" {
		return ""
	}
	if filepath.IsAbs(c.HistoryFile) || homeDir == "" {
		return c.HistoryFile
	}
	return filepath.Join(homeDir, c.HistoryFile)
}
