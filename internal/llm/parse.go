package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/Etherea7/bible-study-scribby-sub000/internal/entities"
)

const studySchemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["purpose", "study_flow"],
  "properties": {
    "purpose": {"type": "string", "minLength": 1},
    "context": {"type": "string"},
    "key_themes": {"type": "array", "items": {"type": "string"}},
    "study_flow": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["passage_section", "observation_question", "interpretation_question"],
        "properties": {
          "passage_section": {"type": "string"},
          "section_heading": {"type": "string"},
          "observation_question": {"type": "string", "pattern": "\\S"},
          "observation_answer": {"type": "string"},
          "interpretation_question": {"type": "string", "pattern": "\\S"},
          "interpretation_answer": {"type": "string"},
          "connection": {"type": "string"}
        }
      }
    },
    "summary": {"type": "string"},
    "application_questions": {"type": "array", "items": {"type": "string", "pattern": "\\S"}},
    "cross_references": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["reference"],
        "properties": {
          "reference": {"type": "string"},
          "note": {"type": "string"}
        }
      }
    },
    "prayer_prompt": {"type": "string"}
  }
}`

var studySchema = jsonschema.MustCompileString("study.json", studySchemaJSON)

// ParseStudy decodes model output into a Study. It tolerates Markdown code
// fences and prose around the JSON object, then validates the result against
// the study schema.
func ParseStudy(text string) (*entities.Study, error) {
	raw, err := extractJSON(text)
	if err != nil {
		return nil, err
	}

	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if err := studySchema.Validate(doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	var study entities.Study
	if err := json.Unmarshal(raw, &study); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return &study, nil
}

func extractJSON(text string) ([]byte, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: empty response", ErrInvalidResponse)
	}

	candidates := []string{text}
	if stripped := stripCodeFences(text); stripped != "" {
		candidates = append(candidates, stripped)
	}
	if obj := outermostObject(text); obj != "" {
		candidates = append(candidates, obj)
	}

	for _, c := range candidates {
		if json.Valid([]byte(c)) {
			return []byte(c), nil
		}
	}
	return nil, fmt.Errorf("%w: no JSON object found", ErrInvalidResponse)
}

func stripCodeFences(text string) string {
	if !strings.HasPrefix(text, "```") {
		return ""
	}
	lines := strings.Split(text, "\n")[1:]
	for i, line := range lines {
		if strings.TrimSpace(line) == "```" {
			lines = lines[:i]
			break
		}
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func outermostObject(text string) string {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return ""
	}
	return text[start : end+1]
}
