package policy

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// FileSource loads a rule set from a YAML file on disk.
type FileSource struct {
	path string
}

// NewFileSource creates a file-backed rule source.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// LoadRules reads and parses the rule file.
func (s *FileSource) LoadRules(ctx context.Context) (*RuleSet, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file %q: %w", s.path, err)
	}

	var ruleSet RuleSet
	if err := yaml.Unmarshal(data, &ruleSet); err != nil {
		return nil, fmt.Errorf("failed to parse rules file %q: %w", s.path, err)
	}

	return &ruleSet, nil
}

// Path returns the watched file path.
func (s *FileSource) Path() string {
	return s.path
}

// StaticSource serves a fixed rule set. Used in tests and for embedded
// defaults.
type StaticSource struct {
	ruleSet *RuleSet
}

// NewStaticSource creates a source that always returns the given rule set.
func NewStaticSource(ruleSet *RuleSet) *StaticSource {
	return &StaticSource{ruleSet: ruleSet}
}

// LoadRules returns the fixed rule set.
func (s *StaticSource) LoadRules(ctx context.Context) (*RuleSet, error) {
	if s.ruleSet == nil {
		return nil, fmt.Errorf("no rule set configured")
	}
	return s.ruleSet, nil
}
