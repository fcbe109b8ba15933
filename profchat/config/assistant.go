package config

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed assistant.yaml
var defaultAssistantYAML []byte

// Assistant holds the persona text and the greeting short-circuit rules.
type Assistant struct {
	Welcome       string   `yaml:"welcome"`
	GreetingReply string   `yaml:"greeting_reply"`
	Greetings     []string `yaml:"greetings"`
	TopK          int      `yaml:"top_k"`
	SystemPrompt  string   `yaml:"system_prompt"`
}

// LoadAssistant reads the persona file at path. An empty path loads the
// embedded default. Fields left out of the file keep their default values.
func LoadAssistant(path string) (*Assistant, error) {
	def, err := parseAssistant(defaultAssistantYAML)
	if err != nil {
		return nil, fmt.Errorf("embedded assistant config: %w", err)
	}
	if path == "" {
		return def, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	a, err := parseAssistant(data)
	if err != nil {
		return nil, fmt.Errorf("assistant config %s: %w", path, err)
	}
	applyAssistantDefaults(a, def)
	return a, nil
}

// DefaultAssistant returns the embedded persona. It panics only if the
// embedded file is broken, which the package tests rule out.
func DefaultAssistant() *Assistant {
	a, err := LoadAssistant("")
	if err != nil {
		panic(err)
	}
	return a
}

// IsGreeting reports whether the trimmed, lowercased text is in the greeting set.
func (a *Assistant) IsGreeting(text string) bool {
	normalized := strings.ToLower(strings.TrimSpace(text))
	for _, g := range a.Greetings {
		if normalized == g {
			return true
		}
	}
	return false
}

func parseAssistant(data []byte) (*Assistant, error) {
	var a Assistant
	if err := yaml.Unmarshal(data, &a); err != nil {
		return nil, err
	}
	for i := range a.Greetings {
		a.Greetings[i] = strings.ToLower(strings.TrimSpace(a.Greetings[i]))
	}
	return &a, nil
}

func applyAssistantDefaults(a, def *Assistant) {
	if a.Welcome == "" {
		a.Welcome = def.Welcome
	}
	if a.GreetingReply == "" {
		a.GreetingReply = def.GreetingReply
	}
	if len(a.Greetings) == 0 {
		a.Greetings = def.Greetings
	}
	if a.TopK <= 0 {
		a.TopK = def.TopK
	}
	if strings.TrimSpace(a.SystemPrompt) == "" {
		a.SystemPrompt = def.SystemPrompt
	}
}
