package transfer

import "github.com/santhosh-tekuri/jsonschema/v5"

const envelopeSchemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["version", "exportedAt", "history", "savedStudies"],
  "properties": {
    "version": {"type": "integer", "minimum": 1},
    "exportedAt": {"type": "string", "minLength": 1},
    "history": {"type": "array"},
    "savedStudies": {"type": "array"}
  }
}`

const historySchemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["id", "book", "chapter", "reference", "createdAt"],
  "properties": {
    "id": {"type": "string", "minLength": 1},
    "book": {"type": "string", "minLength": 1},
    "chapter": {"type": "integer", "minimum": 1},
    "startVerse": {"type": "integer", "minimum": 0},
    "endVerse": {"type": "integer", "minimum": 0},
    "reference": {"type": "string", "minLength": 1},
    "provider": {"type": "string"},
    "createdAt": {"type": "string", "minLength": 1}
  }
}`

const studySchemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["id", "reference", "purpose", "studyFlow"],
  "definitions": {
    "question": {
      "type": "object",
      "required": ["id", "type", "question"],
      "properties": {
        "id": {"type": "string", "minLength": 1},
        "type": {"enum": ["observation", "interpretation", "feeling", "application"]},
        "question": {"type": "string", "minLength": 1},
        "answer": {"type": "string"}
      }
    }
  },
  "properties": {
    "id": {"type": "string", "pattern": "^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$"},
    "reference": {"type": "string", "minLength": 1},
    "purpose": {"type": "string", "minLength": 1},
    "context": {"type": "string"},
    "keyThemes": {"type": ["array", "null"], "items": {"type": "string"}},
    "studyFlow": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["id", "passageSection", "questions"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "passageSection": {"type": "string"},
          "sectionHeading": {"type": "string"},
          "questions": {"type": "array", "items": {"$ref": "#/definitions/question"}},
          "connection": {"type": "string"}
        }
      }
    },
    "summary": {"type": "string"},
    "applicationQuestions": {"type": ["array", "null"], "items": {"$ref": "#/definitions/question"}},
    "crossReferences": {
      "type": ["array", "null"],
      "items": {
        "type": "object",
        "required": ["reference"],
        "properties": {
          "reference": {"type": "string", "minLength": 1},
          "note": {"type": "string"}
        }
      }
    },
    "prayerPrompt": {"type": "string"},
    "isEdited": {"type": "boolean"},
    "isSaved": {"type": "boolean"},
    "createdAt": {"type": "string"},
    "updatedAt": {"type": "string"}
  }
}`

var (
	envelopeSchema = jsonschema.MustCompileString("envelope.json", envelopeSchemaJSON)
	historySchema  = jsonschema.MustCompileString("history.json", historySchemaJSON)
	studySchema    = jsonschema.MustCompileString("study.json", studySchemaJSON)
)
