package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/jwyang/deckgen/internal/section"
)

// Rules carries per-section tuning loaded from an optional YAML file.
// Sections are keyed by Korean section name (연구 내용, 추진 계획, ...).
//
//	sections:
//	  연구 내용:
//	    min_slides: 4
//	    max_slides: 8
//	    keywords: [파이프라인, 데이터셋]
type Rules struct {
	MinSlides map[section.Label]int
	MaxSlides map[section.Label]int
	Keywords  map[section.Label][]string
}

type rulesFile struct {
	Sections map[string]sectionRule `yaml:"sections"`
}

type sectionRule struct {
	MinSlides int      `yaml:"min_slides"`
	MaxSlides int      `yaml:"max_slides"`
	Keywords  []string `yaml:"keywords"`
}

// LoadRules reads the YAML rules file at path. An empty path returns empty
// rules; an unknown section name is an error so typos do not silently no-op.
func LoadRules(path string) (Rules, error) {
	r := Rules{
		MinSlides: map[section.Label]int{},
		MaxSlides: map[section.Label]int{},
		Keywords:  map[section.Label][]string{},
	}
	if path == "" {
		return r, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return r, fmt.Errorf("rules file: %w", err)
	}
	var f rulesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return r, fmt.Errorf("rules file %s: %w", path, err)
	}

	for name, sr := range f.Sections {
		label, ok := section.ParseLabel(name)
		if !ok {
			return r, fmt.Errorf("rules file %s: unknown section %q", path, name)
		}
		if sr.MinSlides > 0 {
			r.MinSlides[label] = sr.MinSlides
		}
		if sr.MaxSlides > 0 {
			r.MaxSlides[label] = sr.MaxSlides
		}
		if len(sr.Keywords) > 0 {
			r.Keywords[label] = append(r.Keywords[label], sr.Keywords...)
		}
	}
	return r, nil
}
