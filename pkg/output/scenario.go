package output

import (
	"fmt"
	"io"

	"github.com/iwvelando/rent-vs-buy/internal/scenario"
	"gopkg.in/yaml.v3"
)

// ScenarioYAML writes s as a scenario file that the CLI's -config flag can
// load back.
func ScenarioYAML(w io.Writer, s scenario.Scenario) error {
	doc := struct {
		Scenario scenario.Scenario `yaml:"scenario"`
	}{Scenario: s}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode scenario YAML: %w", err)
	}
	return enc.Close()
}
