package story

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// WriteStory writes a story to a YAML file
func WriteStory(s *Story, path string) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// ReadStory reads a story from a YAML file. Keyframes are clamped and tracks for
// unknown characters are dropped while reading.
func ReadStory(path string) (*Story, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var s Story
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	s.Normalize()

	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return &s, nil
}
