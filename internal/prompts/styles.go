package prompts

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed styles.yaml
var stylesYAML []byte

// CompressionStyle maps a named compression style to a prompt-template slug.
type CompressionStyle struct {
	Name     string `yaml:"name"`
	Slug     string `yaml:"slug"`
	Category string `yaml:"category"`
	Default  bool   `yaml:"default"`
}

type styleRegistry struct {
	Styles []CompressionStyle `yaml:"styles"`
}

// LoadStyles parses the embedded style registry.
func LoadStyles() ([]CompressionStyle, error) {
	var reg styleRegistry
	if err := yaml.Unmarshal(stylesYAML, &reg); err != nil {
		return nil, fmt.Errorf("failed to parse styles registry: %w", err)
	}
	if len(reg.Styles) == 0 {
		return nil, fmt.Errorf("styles registry is empty")
	}
	return reg.Styles, nil
}

// StyleForCategory picks the compression style for a project category,
// falling back to the registry's default style.
func StyleForCategory(styles []CompressionStyle, category string) CompressionStyle {
	var def CompressionStyle
	for _, s := range styles {
		if s.Category == category {
			return s
		}
		if s.Default {
			def = s
		}
	}
	if def.Slug == "" && len(styles) > 0 {
		def = styles[0]
	}
	return def
}
