// Package questionnaire owns everything between a user's raw answers and the
// scoring engine: the question catalogue, validation of submitted answers,
// conversion to scoring.HealthRecord, and the timestamped responses file.
package questionnaire

import (
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed questions.yaml
var questionsYAML []byte

// QuestionType tells a client which input control to render.
type QuestionType string

const (
	TypeNumber  QuestionType = "number"
	TypeSelect  QuestionType = "select"
	TypeBoolean QuestionType = "boolean"
)

// Question is one catalogue entry. Min and Max are hints for the client; only
// the age floor is enforced by validation.
type Question struct {
	ID        string       `yaml:"id"         json:"id"`
	Text      string       `yaml:"text"       json:"text"`
	Type      QuestionType `yaml:"type"       json:"type"`
	Options   []string     `yaml:"options"    json:"options,omitempty"`
	Min       *float64     `yaml:"min"        json:"min,omitempty"`
	Max       *float64     `yaml:"max"        json:"max,omitempty"`
	Required  bool         `yaml:"required"   json:"required"`
	DependsOn string       `yaml:"depends_on" json:"depends_on,omitempty"`
}

type catalogueFile struct {
	Questions []Question `yaml:"questions"`
}

var (
	catalogueOnce sync.Once
	catalogue     []Question
	catalogueErr  error
)

// Questions returns the embedded catalogue in display order. The returned
// slice is a copy.
func Questions() ([]Question, error) {
	catalogueOnce.Do(func() {
		catalogue, catalogueErr = parseCatalogue(questionsYAML)
	})
	if catalogueErr != nil {
		return nil, catalogueErr
	}
	return append([]Question(nil), catalogue...), nil
}

func parseCatalogue(data []byte) ([]Question, error) {
	var f catalogueFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("questionnaire: parse catalogue: %w", err)
	}
	seen := make(map[string]bool, len(f.Questions))
	for i, q := range f.Questions {
		if q.ID == "" {
			return nil, fmt.Errorf("questionnaire: question %d has no id", i)
		}
		if seen[q.ID] {
			return nil, fmt.Errorf("questionnaire: duplicate question id %q", q.ID)
		}
		seen[q.ID] = true
		switch q.Type {
		case TypeNumber, TypeBoolean:
		case TypeSelect:
			if len(q.Options) == 0 {
				return nil, fmt.Errorf("questionnaire: select question %q has no options", q.ID)
			}
		default:
			return nil, fmt.Errorf("questionnaire: question %q has unknown type %q", q.ID, q.Type)
		}
	}
	return f.Questions, nil
}
