package tariff

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Deps carries the collaborators a calculator variant may need.
type Deps struct {
	Market MarketData
}

// calculatorFactories is the closed registry of tariff variants. To add a
// tariff era: implement Calculator and add an entry here.
var calculatorFactories = map[string]func(Deps) Calculator{
	"wase_wind_2024": func(deps Deps) Calculator {
		return &waseWind2024{dynamicCalculator{market: deps.Market}}
	},
	"wase_wind_2025": func(deps Deps) Calculator {
		return &waseWind2025{dynamicCalculator{market: deps.Market}}
	},
}

// ValidCalculator reports whether name is a registered tariff variant.
func ValidCalculator(name string) bool {
	_, ok := calculatorFactories[name]
	return ok
}

// NewCalculator instantiates a registered variant by name.
func NewCalculator(name string, deps Deps) (Calculator, error) {
	factory, ok := calculatorFactories[name]
	if !ok {
		return nil, fmt.Errorf("unknown tariff calculator %q", name)
	}
	return factory(deps), nil
}

// rawProfile is the on-disk YAML shape of one price profile.
// Dates are civil dates in the billing timezone; `to` is exclusive.
type rawProfile struct {
	Profile string `yaml:"profile"`
	Periods []struct {
		From       string `yaml:"from"`
		To         string `yaml:"to"`
		Calculator string `yaml:"calculator"`
	} `yaml:"periods"`
}

// LoadProfiles reads every *.yaml file in dir into a registry per profile.
// Each file defines exactly one profile. Profiles are loaded once at startup
// and cached in memory, with no hot reload.
func LoadProfiles(dir string, deps Deps, loc *time.Location) (map[string]*Registry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading tariff profile dir: %w", err)
	}

	profiles := make(map[string]*Registry)

	for _, e := range entries {
		if e.IsDir() || (!strings.HasSuffix(e.Name(), ".yaml") && !strings.HasSuffix(e.Name(), ".yml")) {
			continue
		}

		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading profile file %s: %w", path, err)
		}

		registry, err := parseProfile(data, deps, loc)
		if err != nil {
			return nil, fmt.Errorf("profile file %s: %w", path, err)
		}
		if registry == nil {
			continue // empty / comment-only file
		}

		if _, exists := profiles[registry.Profile()]; exists {
			return nil, fmt.Errorf("profile %q: duplicate profile name (check multiple YAML files)", registry.Profile())
		}
		profiles[registry.Profile()] = registry
	}

	return profiles, nil
}

func parseProfile(data []byte, deps Deps, loc *time.Location) (*Registry, error) {
	var raw rawProfile
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing profile: %w", err)
	}
	if raw.Profile == "" {
		return nil, nil
	}
	if len(raw.Periods) == 0 {
		return nil, fmt.Errorf("profile %q has no periods", raw.Profile)
	}

	periods := make([]Period, 0, len(raw.Periods))
	for _, p := range raw.Periods {
		start, err := time.ParseInLocation("2006-01-02", p.From, loc)
		if err != nil {
			return nil, fmt.Errorf("profile %q: invalid period start %q: %w", raw.Profile, p.From, err)
		}
		end, err := time.ParseInLocation("2006-01-02", p.To, loc)
		if err != nil {
			return nil, fmt.Errorf("profile %q: invalid period end %q: %w", raw.Profile, p.To, err)
		}

		calc, err := NewCalculator(p.Calculator, deps)
		if err != nil {
			return nil, fmt.Errorf("profile %q: %w", raw.Profile, err)
		}

		periods = append(periods, Period{Start: start, End: end, Calculator: calc})
	}

	return NewRegistry(raw.Profile, periods)
}
