package transfer

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Etherea7/bible-study-scribby-sub000/internal/entities"
	"github.com/Etherea7/bible-study-scribby-sub000/internal/studies"
)

// Version 1 documents kept saved studies under "studies". Sections held their
// two questions as flat fields and application questions were plain strings,
// so nothing below the study itself had an id.
type legacyStudy struct {
	ID                   string                    `json:"id"`
	Reference            string                    `json:"reference"`
	PassageText          string                    `json:"passageText"`
	Provider             string                    `json:"provider"`
	Purpose              string                    `json:"purpose"`
	Context              string                    `json:"context"`
	KeyThemes            []string                  `json:"keyThemes"`
	StudyFlow            []legacySection           `json:"studyFlow"`
	Summary              string                    `json:"summary"`
	ApplicationQuestions []string                  `json:"applicationQuestions"`
	CrossReferences      []entities.CrossReference `json:"crossReferences"`
	PrayerPrompt         string                    `json:"prayerPrompt"`
	IsEdited             bool                      `json:"isEdited"`
	CreatedAt            time.Time                 `json:"createdAt"`
	UpdatedAt            time.Time                 `json:"updatedAt"`
}

type legacySection struct {
	PassageSection         string `json:"passageSection"`
	SectionHeading         string `json:"sectionHeading"`
	ObservationQuestion    string `json:"observationQuestion"`
	ObservationAnswer      string `json:"observationAnswer"`
	InterpretationQuestion string `json:"interpretationQuestion"`
	InterpretationAnswer   string `json:"interpretationAnswer"`
	Connection             string `json:"connection"`
}

// legacyNamespace seeds the ids derived for version 1 studies.
var legacyNamespace = uuid.MustParse("9b6f3c1e-2a4d-5e7f-8c0b-1d2e3f4a5b6c")

// stableID returns the study's id when it is already a UUID. Otherwise the id
// is derived from the old id, or from reference, purpose and creation time
// when there was none, so importing the same file again yields the same id.
func (l *legacyStudy) stableID() string {
	if len(l.ID) == 36 {
		if _, err := uuid.Parse(l.ID); err == nil {
			return l.ID
		}
	}
	key := l.ID
	if key == "" {
		key = strings.Join([]string{l.Reference, l.Purpose, l.CreatedAt.UTC().Format(time.RFC3339Nano)}, "\x00")
	}
	return uuid.NewSHA1(legacyNamespace, []byte(key)).String()
}

func (l *legacyStudy) upgrade() *entities.EditableStudy {
	gen := &entities.Study{
		Purpose:              l.Purpose,
		Context:              l.Context,
		KeyThemes:            l.KeyThemes,
		Summary:              l.Summary,
		ApplicationQuestions: l.ApplicationQuestions,
		CrossReferences:      l.CrossReferences,
		PrayerPrompt:         l.PrayerPrompt,
	}
	for _, sec := range l.StudyFlow {
		gen.StudyFlow = append(gen.StudyFlow, entities.StudySection{
			PassageSection:         sec.PassageSection,
			SectionHeading:         sec.SectionHeading,
			ObservationQuestion:    sec.ObservationQuestion,
			ObservationAnswer:      sec.ObservationAnswer,
			InterpretationQuestion: sec.InterpretationQuestion,
			InterpretationAnswer:   sec.InterpretationAnswer,
			Connection:             sec.Connection,
		})
	}

	s := studies.NewEditable(gen, l.Reference, l.PassageText, l.Provider)
	s.ID = l.stableID()
	s.IsEdited = l.IsEdited
	s.IsSaved = true
	if !l.CreatedAt.IsZero() {
		s.CreatedAt = l.CreatedAt
	}
	if !l.UpdatedAt.IsZero() {
		s.UpdatedAt = l.UpdatedAt
	}
	return s
}

// migrateV1 rewrites a version 1 envelope in place into version 2. Records
// that cannot be decoded are left as they are so per-record validation
// reports them.
func migrateV1(env map[string]json.RawMessage) error {
	raw, ok := env["studies"]
	delete(env, "studies")
	if !ok {
		env["version"] = json.RawMessage("2")
		return nil
	}

	var records []json.RawMessage
	if err := json.Unmarshal(raw, &records); err != nil {
		return fmt.Errorf("%w: studies must be an array", ErrInvalidDocument)
	}
	out := make([]json.RawMessage, 0, len(records))
	for _, rec := range records {
		var legacy legacyStudy
		if err := json.Unmarshal(rec, &legacy); err != nil {
			out = append(out, rec)
			continue
		}
		upgraded, err := json.Marshal(legacy.upgrade())
		if err != nil {
			return err
		}
		out = append(out, upgraded)
	}

	studiesJSON, err := json.Marshal(out)
	if err != nil {
		return err
	}
	env["savedStudies"] = studiesJSON
	env["version"] = json.RawMessage("2")
	return nil
}
