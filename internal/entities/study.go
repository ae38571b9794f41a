package entities

// Study is a generated study guide in the shape the LLM prompt asks for.
type Study struct {
	Purpose              string           `json:"purpose"`
	Context              string           `json:"context"`
	KeyThemes            []string         `json:"key_themes"`
	StudyFlow            []StudySection   `json:"study_flow"`
	Summary              string           `json:"summary"`
	ApplicationQuestions []string         `json:"application_questions"`
	CrossReferences      []CrossReference `json:"cross_references"`
	PrayerPrompt         string           `json:"prayer_prompt"`
}

// StudySection is one step of the study flow.
type StudySection struct {
	PassageSection         string `json:"passage_section"`
	SectionHeading         string `json:"section_heading"`
	ObservationQuestion    string `json:"observation_question"`
	ObservationAnswer      string `json:"observation_answer"`
	InterpretationQuestion string `json:"interpretation_question"`
	InterpretationAnswer   string `json:"interpretation_answer"`
	Connection             string `json:"connection,omitempty"`
}

type CrossReference struct {
	Reference string `json:"reference"`
	Note      string `json:"note"`
}

// FlowContext carries user-defined purposes for each section of a passage.
type FlowContext struct {
	SectionPurposes []SectionPurpose `json:"sectionPurposes"`
}

type SectionPurpose struct {
	PassageSection string   `json:"passageSection"`
	Purpose        string   `json:"purpose"`
	FocusAreas     []string `json:"focusAreas,omitempty"`
}

// Empty reports whether there is anything to inject into a prompt.
func (f *FlowContext) Empty() bool {
	return f == nil || len(f.SectionPurposes) == 0
}
