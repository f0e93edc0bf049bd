package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// Station is a named AM preset a tuner can be seeked to.
type Station struct {
	Name        string  `yaml:"name"`
	AMFrequency float64 `yaml:"amFrequency"`
}

// StationPlan holds the station presets loaded from the stations file.
type StationPlan struct {
	Stations []Station `yaml:"stations"`
}

// LoadStationPlan reads and validates a station preset file. Presets
// outside the AM band are rejected at load time rather than at seek time.
func LoadStationPlan(path string, amMin, amMax float64) (*StationPlan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read stations file %s: %w", path, err)
	}

	var plan StationPlan
	if err := yaml.Unmarshal(data, &plan); err != nil {
		return nil, fmt.Errorf("failed to parse stations file %s: %w", path, err)
	}

	seen := make(map[string]bool, len(plan.Stations))
	for _, st := range plan.Stations {
		if st.Name == "" {
			return nil, fmt.Errorf("station with empty name in %s", path)
		}
		if seen[st.Name] {
			return nil, fmt.Errorf("duplicate station %q in %s", st.Name, path)
		}
		seen[st.Name] = true
		if st.AMFrequency < amMin || st.AMFrequency > amMax {
			return nil, fmt.Errorf("station %q frequency %.1f outside AM band [%.1f, %.1f]",
				st.Name, st.AMFrequency, amMin, amMax)
		}
	}

	return &plan, nil
}

// Lookup returns the preset frequency for a station name.
func (p *StationPlan) Lookup(name string) (float64, error) {
	if p == nil {
		return 0, fmt.Errorf("no station plan configured")
	}
	for _, st := range p.Stations {
		if st.Name == name {
			return st.AMFrequency, nil
		}
	}
	return 0, fmt.Errorf("station %q not found", name)
}

// Names returns the configured station names in file order.
func (p *StationPlan) Names() []string {
	if p == nil {
		return []string{}
	}
	names := make([]string, 0, len(p.Stations))
	for _, st := range p.Stations {
		names = append(names, st.Name)
	}
	return names
}
