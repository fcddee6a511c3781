package config

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownProfile = errors.New("unknown profile")

// Profile is a named selection of install document components, so users do
// not have to repeat --component flags for every install.
type Profile struct {
	Name        string   `yaml:"name" toml:"name"`
	Description string   `yaml:"description" toml:"description"`
	Components  []string `yaml:"components" toml:"components"`
}

func validateProfiles(profiles []Profile) error {
	names := make(map[string]struct{})
	for i, profile := range profiles {
		if strings.TrimSpace(profile.Name) == "" {
			return fmt.Errorf("profile %d name is required", i)
		}
		key := strings.ToLower(profile.Name)
		if _, exists := names[key]; exists {
			return fmt.Errorf("duplicate profile name: %s", profile.Name)
		}
		names[key] = struct{}{}

		if len(profile.Components) == 0 {
			return fmt.Errorf("profile %s has no components", profile.Name)
		}
		for _, component := range profile.Components {
			if strings.TrimSpace(component) == "" {
				return fmt.Errorf("profile %s has component with empty name", profile.Name)
			}
		}
	}
	return nil
}

func (s *Settings) indexProfiles() {
	s.profileIndex = make(map[string]*Profile)
	for i := range s.Profiles {
		profile := &s.Profiles[i]
		s.profileIndex[strings.ToLower(profile.Name)] = profile
	}
}

func (s *Settings) ProfileByName(name string) (*Profile, bool) {
	if s == nil {
		return nil, false
	}
	profile, ok := s.profileIndex[strings.ToLower(name)]
	return profile, ok
}

// Components merges the named profile's components with explicit ones,
// dropping repeats. An empty profile name uses only the explicit list.
func (s *Settings) Components(profile string, explicit []string) ([]string, error) {
	var merged []string
	if profile != "" {
		p, ok := s.ProfileByName(profile)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownProfile, profile)
		}
		merged = append(merged, p.Components...)
	}
	merged = append(merged, explicit...)

	seen := make(map[string]struct{}, len(merged))
	components := make([]string, 0, len(merged))
	for _, component := range merged {
		component = strings.TrimSpace(component)
		if component == "" {
			continue
		}
		if _, ok := seen[component]; ok {
			continue
		}
		seen[component] = struct{}{}
		components = append(components, component)
	}
	return components, nil
}
