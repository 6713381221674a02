package config_test

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/thomasrohde/cfpl/pkg/config"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestDefaults(t *testing.T) {
	cfg, err := config.LoadFrom(t.TempDir(), t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	want := config.Default()
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("defaults mismatch (-want +got):\n%s", diff)
	}
	if cfg.InputPrompt != "[Input]" || cfg.NullMarker != "nil" || !cfg.Pretty {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
}

func TestProjectFileWins(t *testing.T) {
	project, home := t.TempDir(), t.TempDir()
	writeFile(t, filepath.Join(project, config.ProjectFile), "null_marker: none\n")
	writeFile(t, filepath.Join(home, config.UserFile), "null_marker: user\npretty: false\n")

	cfg, err := config.LoadFrom(project, home)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.NullMarker != "none" {
		t.Errorf("NullMarker = %q, want project value", cfg.NullMarker)
	}
	// Files are not merged: the project file alone supplies settings.
	if !cfg.Pretty {
		t.Error("Pretty should keep its default when the project file omits it")
	}
	if cfg.Source != filepath.Join(project, config.ProjectFile) {
		t.Errorf("Source = %q", cfg.Source)
	}
}

func TestUserFileFallback(t *testing.T) {
	project, home := t.TempDir(), t.TempDir()
	writeFile(t, filepath.Join(home, config.UserFile), "input_prompt: \"? \"\ntrace: run.jsonl\n")

	cfg, err := config.LoadFrom(project, home)
	if err != nil {
		t.Fatal(err)
	}
	want := config.Default()
	want.InputPrompt = "? "
	want.Trace = "run.jsonl"
	if diff := cmp.Diff(want, cfg, cmpopts.IgnoreFields(config.Config{}, "Source")); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestEmptyFileKeepsDefaults(t *testing.T) {
	project := t.TempDir()
	writeFile(t, filepath.Join(project, config.ProjectFile), "")
	cfg, err := config.LoadFrom(project, "")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(config.Default(), cfg, cmpopts.IgnoreFields(config.Config{}, "Source")); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestUnknownKeyRejected(t *testing.T) {
	project := t.TempDir()
	writeFile(t, filepath.Join(project, config.ProjectFile), "colour: red\n")
	_, err := config.LoadFrom(project, "")
	var cerr *config.Error
	if !errors.As(err, &cerr) {
		t.Fatalf("expected *config.Error, got %v", err)
	}
	if !strings.Contains(err.Error(), "colour") {
		t.Errorf("error does not name the key: %v", err)
	}
}

func TestMalformedYAML(t *testing.T) {
	project := t.TempDir()
	writeFile(t, filepath.Join(project, config.ProjectFile), "pretty: [\n")
	if _, err := config.LoadFrom(project, ""); err == nil {
		t.Fatal("expected an error for malformed YAML")
	}
}

func TestWriteRoundTrip(t *testing.T) {
	cfg := config.Default()
	cfg.NullMarker = "-"
	var buf bytes.Buffer
	if err := config.Write(&buf, cfg); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, key := range []string{"pretty: true", "input_prompt:", "null_marker:", "history_file: .cfpl_history"} {
		if !strings.Contains(out, key) {
			t.Errorf("output missing %q:\n%s", key, out)
		}
	}
	if strings.Contains(out, "source") {
		t.Errorf("Source must not be serialized:\n%s", out)
	}

	path := filepath.Join(t.TempDir(), "c.yaml")
	writeFile(t, path, out)
	back, err := config.LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(cfg, back, cmpopts.IgnoreFields(config.Config{}, "Source")); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestHistoryPath(t *testing.T) {
	cfg := config.Default()
	if got := cfg.HistoryPath("/home/u"); got != filepath.Join("/home/u", ".cfpl_history") {
		t.Errorf("HistoryPath = %q", got)
	}
	cfg.HistoryFile = "/tmp/h"
	if got := cfg.HistoryPath("/home/u"); got != "/tmp/h" {
		t.Errorf("absolute HistoryPath = %q", got)
	}
	cfg.HistoryFile = ""
	if got := cfg.HistoryPath("/home/u"); got != "" {
		t.Errorf("disabled HistoryPath = %q", got)
	}
}
