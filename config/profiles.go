package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"bikeshare-flow/models"
)

// DefaultProfileName is the default of the built-in profile set.
const DefaultProfileName = "bgmap-v2"

// ProfileSet is the versioned renderer configuration document.
type ProfileSet struct {
	Version  int                    `yaml:"version"`
	Default  string                 `yaml:"default"`
	Profiles []models.RenderProfile `yaml:"profiles"`
}

// DefaultProfiles returns the two built-in profiles: the first map view
// and the background map view.
func DefaultProfiles() *ProfileSet {
	return &ProfileSet{
		Version: 1,
		Default: DefaultProfileName,
		Profiles: []models.RenderProfile{
			{
				Name:        "map-v1",
				Threshold:   models.ThresholdPolicy{BaseZoom: 14, InitialThreshold: 0.91, Sensitivity: 0.05},
				Radius:      models.RadiusFormula{Offset: 1, Scale: 0.5},
				Thickness:   models.ThicknessScale{Base: 2.0, Step: 0.5},
				ColorSteps:  10,
				RankingSize: 7,
			},
			{
				Name:        "bgmap-v2",
				Threshold:   models.ThresholdPolicy{BaseZoom: 14, InitialThreshold: 0.91, Sensitivity: 0.06},
				Radius:      models.RadiusFormula{Offset: 0, Scale: 0.8},
				Thickness:   models.ThicknessScale{Base: 1.5, Step: 0.8},
				ColorSteps:  10,
				RankingSize: 7,
			},
		},
	}
}

// LoadProfiles reads a YAML profile document and expands ${VAR} references.
// An empty path returns the built-in profiles.
func LoadProfiles(path string) (*ProfileSet, error) {
	if path == "" {
		return DefaultProfiles(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profiles file: %w", err)
	}
	return ParseProfiles(data)
}

// ParseProfiles decodes, defaults and validates a profile document.
func ParseProfiles(data []byte) (*ProfileSet, error) {
	expanded := os.ExpandEnv(string(data))

	var set ProfileSet
	if err := yaml.Unmarshal([]byte(expanded), &set); err != nil {
		return nil, fmt.Errorf("parse profiles yaml: %w", err)
	}

	set.applyDefaults()
	if err := set.Validate(); err != nil {
		return nil, fmt.Errorf("validate profiles: %w", err)
	}
	return &set, nil
}

func (s *ProfileSet) applyDefaults() {
	if s.Version == 0 {
		s.Version = 1
	}
	for i := range s.Profiles {
		p := &s.Profiles[i]
		if p.ColorSteps == 0 {
			p.ColorSteps = 10
		}
		if p.RankingSize == 0 {
			p.RankingSize = 7
		}
	}
	if s.Default == "" && len(s.Profiles) > 0 {
		s.Default = s.Profiles[0].Name
	}
}

// Validate checks that every profile is usable and names are unique.
func (s *ProfileSet) Validate() error {
	if s.Version != 1 {
		return fmt.Errorf("unsupported profiles version %d", s.Version)
	}
	if len(s.Profiles) == 0 {
		return errors.New("at least one profile is required")
	}

	seen := make(map[string]struct{}, len(s.Profiles))
	for i, p := range s.Profiles {
		if p.Name == "" {
			return fmt.Errorf("profiles[%d].name is required", i)
		}
		if _, dup := seen[p.Name]; dup {
			return fmt.Errorf("duplicate profile name %q", p.Name)
		}
		seen[p.Name] = struct{}{}

		if p.Threshold.InitialThreshold < 0 || p.Threshold.InitialThreshold > 1 {
			return fmt.Errorf("%s.threshold.initial_threshold must be in [0,1], got %g", p.Name, p.Threshold.InitialThreshold)
		}
		if p.Threshold.Sensitivity < 0 {
			return fmt.Errorf("%s.threshold.sensitivity must be >= 0", p.Name)
		}
		if p.Radius.Scale < 0 {
			return fmt.Errorf("%s.marker_radius.scale must be >= 0", p.Name)
		}
		if p.ColorSteps < 1 {
			return fmt.Errorf("%s.color_steps must be >= 1", p.Name)
		}
		if p.RankingSize < 1 {
			return fmt.Errorf("%s.ranking_size must be >= 1", p.Name)
		}
	}

	if _, ok := seen[s.Default]; !ok {
		return fmt.Errorf("default profile %q is not defined", s.Default)
	}
	return nil
}

// Get returns the named profile, or the default one when name is empty.
func (s *ProfileSet) Get(name string) (*models.RenderProfile, error) {
	if name == "" {
		name = s.Default
	}
	for i := range s.Profiles {
		if s.Profiles[i].Name == name {
			p := s.Profiles[i]
			return &p, nil
		}
	}
	return nil, fmt.Errorf("unknown render profile %q", name)
}
