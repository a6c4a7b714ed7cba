package llm

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Glossary lists team vocabulary the narrative should use consistently.
type Glossary struct {
	Terms []GlossaryTerm `yaml:"terms"`
}

type GlossaryTerm struct {
	Phrase  string `yaml:"phrase"`
	Meaning string `yaml:"meaning"`
}

func LoadGlossary(path string) (*Glossary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read glossary: %w", err)
	}
	var g Glossary
	if err := yaml.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("parse glossary yaml: %w", err)
	}
	return &g, nil
}

func (g *Glossary) promptLines() string {
	if g == nil {
		return ""
	}
	var b strings.Builder
	seen := make(map[string]bool)
	for _, t := range g.Terms {
		phrase := strings.TrimSpace(t.Phrase)
		meaning := strings.TrimSpace(t.Meaning)
		key := strings.ToLower(phrase)
		if phrase == "" || meaning == "" || seen[key] {
			continue
		}
		seen[key] = true
		fmt.Fprintf(&b, "- %s: %s\n", phrase, meaning)
	}
	return b.String()
}
