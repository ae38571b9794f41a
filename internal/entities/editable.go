package entities

import "time"

type QuestionType string

const (
	QuestionObservation    QuestionType = "observation"
	QuestionInterpretation QuestionType = "interpretation"
	QuestionFeeling        QuestionType = "feeling"
	QuestionApplication    QuestionType = "application"
)

// EditableStudy is a study as the user edits it: every section and question
// carries its own id so it can be moved or removed individually.
type EditableStudy struct {
	ID                   string             `json:"id"`
	Reference            string             `json:"reference"`
	PassageText          string             `json:"passageText,omitempty"`
	Provider             string             `json:"provider,omitempty"`
	Purpose              string             `json:"purpose"`
	Context              string             `json:"context"`
	KeyThemes            []string           `json:"keyThemes"`
	StudyFlow            []EditableSection  `json:"studyFlow"`
	Summary              string             `json:"summary"`
	ApplicationQuestions []EditableQuestion `json:"applicationQuestions"`
	CrossReferences      []CrossReference   `json:"crossReferences"`
	PrayerPrompt         string             `json:"prayerPrompt"`
	IsEdited             bool               `json:"isEdited"`
	IsSaved              bool               `json:"isSaved"`
	CreatedAt            time.Time          `json:"createdAt"`
	UpdatedAt            time.Time          `json:"updatedAt"`
}

type EditableSection struct {
	ID             string             `json:"id"`
	PassageSection string             `json:"passageSection"`
	SectionHeading string             `json:"sectionHeading"`
	Questions      []EditableQuestion `json:"questions"`
	Connection     string             `json:"connection,omitempty"`
}

type EditableQuestion struct {
	ID       string       `json:"id"`
	Type     QuestionType `json:"type"`
	Question string       `json:"question"`
	Answer   string       `json:"answer,omitempty"`
}
