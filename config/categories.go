package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"trainingportal/internal/domain"
)

// DefaultCategoryStyles are used when no style file is configured.
var DefaultCategoryStyles = []domain.CategoryStyle{
	{Category: domain.CategoryTraining, Label: "Training", Color: "#2563eb"},
	{Category: domain.CategoryMeeting, Label: "Meeting", Color: "#16a34a"},
	{Category: domain.CategoryCeremony, Label: "Ceremony", Color: "#9333ea"},
	{Category: domain.CategoryWorkshop, Label: "Workshop", Color: "#ea580c"},
}

type categoryFile struct {
	Categories []domain.CategoryStyle `yaml:"categories"`
}

// LoadCategoryStyles reads category display styles from a YAML file of the form
//
//	categories:
//	  - category: training
//	    label: Training
//	    color: "#2563eb"
//
// Categories missing from the file keep their default style. An empty path returns the defaults.
func LoadCategoryStyles(path string) ([]domain.CategoryStyle, error) {
	styles := append([]domain.CategoryStyle(nil), DefaultCategoryStyles...)
	if path == "" {
		return styles, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read category styles: %w", err)
	}
	var f categoryFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse category styles: %w", err)
	}
	for _, s := range f.Categories {
		if !domain.ValidCategory(s.Category) {
			return nil, fmt.Errorf("unknown category %q in %s", s.Category, path)
		}
		for i := range styles {
			if styles[i].Category == s.Category {
				if s.Label != "" {
					styles[i].Label = s.Label
				}
				if s.Color != "" {
					styles[i].Color = s.Color
				}
			}
		}
	}
	return styles, nil
}
