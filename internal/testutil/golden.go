// Package testutil provides shared test helpers for CFPL Go tests.
package testutil

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ScenariosDir is the scenario root relative to the module root.
const ScenariosDir = "testdata/scenarios"

// ScenarioFile is the file that marks a directory as a scenario.
const ScenarioFile = "scenario.yaml"

// Scenario is one end-to-end CLI case loaded from scenario.yaml.
type Scenario struct {
	// Cmd is the cfpl argument list; its second element names the program
	// file relative to the scenario directory.
	Cmd    []string       `yaml:"cmd"`
	Stdin  string         `yaml:"stdin,omitempty"`
	Meta   *ScenarioMeta  `yaml:"meta,omitempty"`
	Expect ExpectedResult `yaml:"expect"`
}

// ScenarioMeta holds optional scenario metadata.
type ScenarioMeta struct {
	Description string   `yaml:"description,omitempty"`
	Tags        []string `yaml:"tags,omitempty"`
}

// ExpectedResult describes the expected outcome of running a scenario.
type ExpectedResult struct {
	ExitCode       int     `yaml:"exitCode"`
	Stdout         *string `yaml:"stdout,omitempty"`
	StdoutContains string  `yaml:"stdoutContains,omitempty"`
	StderrContains string  `yaml:"stderrContains,omitempty"`

	// Diagnostics lists the expected diagnostic codes in order. It is
	// checked when the command runs with --json.
	Diagnostics []string `yaml:"diagnostics,omitempty"`
}

// LoadScenario loads a scenario from a directory containing scenario.yaml.
func LoadScenario(dir string) (*Scenario, error) {
	data, err := os.ReadFile(filepath.Join(dir, ScenarioFile))
	if err != nil {
		return nil, err
	}
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// ListScenarios returns all scenario directories under the given root.
func ListScenarios(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}
	var dirs []string
	for _, e := range entries {
		if e.IsDir() {
			scenarioPath := filepath.Join(root, e.Name(), ScenarioFile)
			if _, err := os.Stat(scenarioPath); err == nil {
				dirs = append(dirs, filepath.Join(root, e.Name()))
			}
		}
	}
	return dirs, nil
}

// ProgramArgs returns cmd with its program operand resolved against
// scenarioDir, ready to hand to the CLI.
func ProgramArgs(scenarioDir string, cmd []string) []string {
	args := append([]string(nil), cmd...)
	if len(args) >= 2 && args[1] != "-" {
		args[1] = filepath.Join(scenarioDir, args[1])
	}
	return args
}
