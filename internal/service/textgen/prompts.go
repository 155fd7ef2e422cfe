// Package textgen holds the text-generation collaborator: the prompt
// registry and the provider implementations behind the TextGenerator
// interface.
package textgen

import (
	"embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"canopy/internal/domain/models"
)

//go:embed prompts/*.yaml
var promptFiles embed.FS

// PromptSpec is one process kind's prompt definition.
type PromptSpec struct {
	DisplayName string `yaml:"display_name"`
	System      string `yaml:"system"`
	Template    string `yaml:"template"`
}

type promptFile struct {
	Prompts map[string]PromptSpec `yaml:"prompts"`
}

// PromptRegistry maps process kinds to their prompt specs, loaded from the
// embedded YAML file at startup.
type PromptRegistry struct {
	prompts map[models.ProcessKind]PromptSpec
}

// NewPromptRegistry loads the embedded prompt definitions and verifies every
// known process kind has one.
func NewPromptRegistry() (*PromptRegistry, error) {
	data, err := promptFiles.ReadFile("prompts/prompts.yaml")
	if err != nil {
		return nil, fmt.Errorf("read prompts: %w", err)
	}

	var file promptFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("unmarshal prompts: %w", err)
	}

	r := &PromptRegistry{prompts: make(map[models.ProcessKind]PromptSpec)}
	for name, spec := range file.Prompts {
		r.prompts[models.ProcessKind(name)] = spec
	}

	for _, kind := range models.ProcessKinds {
		if _, ok := r.prompts[kind]; !ok {
			return nil, fmt.Errorf("no prompt defined for process kind %q", kind)
		}
	}

	return r, nil
}

// Get returns the prompt spec for a process kind.
func (r *PromptRegistry) Get(kind models.ProcessKind) (PromptSpec, error) {
	spec, ok := r.prompts[kind]
	if !ok {
		return PromptSpec{}, fmt.Errorf("unknown process kind %q", kind)
	}
	return spec, nil
}

// Render builds the full prompt for a kind applied to extracted note text.
func (r *PromptRegistry) Render(kind models.ProcessKind, text string) (system, prompt string, err error) {
	spec, err := r.Get(kind)
	if err != nil {
		return "", "", err
	}
	return spec.System, strings.ReplaceAll(spec.Template, "{{content}}", text), nil
}
