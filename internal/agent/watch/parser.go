package watch

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type rawDriftTestFile struct {
	Tests []rawDriftTestSpec `yaml:"tests"`
}

type rawDriftTestSpec struct {
	ID               string           `yaml:"id"`
	Name             string           `yaml:"name"`
	EndpointType     string           `yaml:"endpoint_type"`
	ComparisonType   string           `yaml:"comparison_type"`
	EndpointConfig   EndpointConfig   `yaml:"endpoint_config"`
	ComparisonConfig ComparisonConfig `yaml:"comparison_config"`
}

// ParseDriftTests reads a drift-tests.yml file. A missing file or an
// empty one both yield a zero-length slice and no error — the watcher
// treats "nothing to check" as a normal, not exceptional, outcome
// (spec.md §4.11 drives this: the orchestrator's `drift` command must
// complete cleanly on a project that hasn't authored any drift tests
// yet).
func ParseDriftTests(path string) ([]DriftTestSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("nit/watch: read %s: %w", path, err)
	}
	if len(data) == 0 {
		return nil, nil
	}

	var raw rawDriftTestFile
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("nit/watch: parse %s: %w", path, err)
	}

	specs := make([]DriftTestSpec, 0, len(raw.Tests))
	for _, t := range raw.Tests {
		specs = append(specs, DriftTestSpec{
			ID:               t.ID,
			Name:             t.Name,
			EndpointType:     EndpointType(t.EndpointType),
			ComparisonType:   ComparisonType(t.ComparisonType),
			EndpointConfig:   t.EndpointConfig,
			ComparisonConfig: t.ComparisonConfig,
		})
	}
	return specs, nil
}
