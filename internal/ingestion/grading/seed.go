package grading

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
	"gorm.io/datatypes"

	"github.com/yungbote/scorebridge-backend/internal/domain/results"
)

const seedTemplatesEnv = "GRADING_TEMPLATES_YAML"

//go:embed default_templates.yaml
var seedFS embed.FS

type yamlSeedFile struct {
	Templates []yamlTemplate `yaml:"templates"`
}

type yamlTemplate struct {
	StageID       string                  `yaml:"stage_id"`
	Name          string                  `yaml:"name"`
	Term          string                  `yaml:"term"`
	TotalMaxScore *float64                `yaml:"total_max_score"`
	Subjects      []results.SubjectRule   `yaml:"subjects"`
	Boundaries    []results.GradeBoundary `yaml:"grade_boundaries"`
}

// SeedTemplates loads the templates installed on an empty database, from
// GRADING_TEMPLATES_YAML when set, else from the embedded file.
func SeedTemplates() ([]results.GradingTemplate, error) {
	data, err := readSeedFile()
	if err != nil {
		return nil, err
	}
	return ParseSeedTemplates(data)
}

func ParseSeedTemplates(data []byte) ([]results.GradingTemplate, error) {
	var f yamlSeedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse grading templates: %w", err)
	}
	if len(f.Templates) == 0 {
		return nil, errors.New("grading templates: file defines no templates")
	}
	out := make([]results.GradingTemplate, 0, len(f.Templates))
	for i, t := range f.Templates {
		if strings.TrimSpace(t.Name) == "" || strings.TrimSpace(t.StageID) == "" {
			return nil, fmt.Errorf("grading templates: entry %d needs name and stage_id", i)
		}
		for _, s := range t.Subjects {
			if s.MaxScore <= 0 {
				return nil, fmt.Errorf("grading templates: %s: subject %q needs a positive max_score", t.Name, s.Name)
			}
		}
		out = append(out, results.GradingTemplate{
			StageID:       t.StageID,
			Name:          t.Name,
			Term:          t.Term,
			TotalMaxScore: t.TotalMaxScore,
			Subjects:      datatypes.NewJSONType(t.Subjects),
			Boundaries:    datatypes.NewJSONType(t.Boundaries),
			IsDefault:     true,
		})
	}
	return out, nil
}

func readSeedFile() ([]byte, error) {
	if path := strings.TrimSpace(os.Getenv(seedTemplatesEnv)); path != "" {
		return os.ReadFile(path)
	}
	return seedFS.ReadFile("default_templates.yaml")
}
