package studies

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Etherea7/bible-study-scribby-sub000/internal/bible"
	"github.com/Etherea7/bible-study-scribby-sub000/internal/entities"
)

var (
	ErrInvalidStudy  = errors.New("invalid study")
	ErrUnknownField  = errors.New("unknown field")
	ErrItemNotFound  = errors.New("item not found")
	ErrOutOfRange    = errors.New("index out of range")
	ErrUnknownOp     = errors.New("unknown patch operation")
	ErrEmptyQuestion = errors.New("question text is required")
)

// ValidationError lists every problem found in a study.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid study: " + strings.Join(e.Problems, "; ")
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidStudy
}

// NewEditable converts a generated study into its editable form, giving every
// section and question its own id.
func NewEditable(study *entities.Study, reference, passageText, provider string) *entities.EditableStudy {
	now := time.Now().UTC()
	e := &entities.EditableStudy{
		ID:              uuid.NewString(),
		Reference:       reference,
		PassageText:     passageText,
		Provider:        provider,
		Purpose:         study.Purpose,
		Context:         study.Context,
		KeyThemes:       append([]string(nil), study.KeyThemes...),
		Summary:         study.Summary,
		CrossReferences: append([]entities.CrossReference(nil), study.CrossReferences...),
		PrayerPrompt:    study.PrayerPrompt,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	for _, sec := range study.StudyFlow {
		e.StudyFlow = append(e.StudyFlow, entities.EditableSection{
			ID:             uuid.NewString(),
			PassageSection: sec.PassageSection,
			SectionHeading: sec.SectionHeading,
			Connection:     sec.Connection,
			Questions: []entities.EditableQuestion{
				{ID: uuid.NewString(), Type: entities.QuestionObservation, Question: sec.ObservationQuestion, Answer: sec.ObservationAnswer},
				{ID: uuid.NewString(), Type: entities.QuestionInterpretation, Question: sec.InterpretationQuestion, Answer: sec.InterpretationAnswer},
			},
		})
	}
	for _, q := range study.ApplicationQuestions {
		e.ApplicationQuestions = append(e.ApplicationQuestions, entities.EditableQuestion{
			ID: uuid.NewString(), Type: entities.QuestionApplication, Question: q,
		})
	}
	return e
}

// AssignMissingIDs gives an id to every section and question that lacks one.
// Used when importing documents written before ids existed.
func AssignMissingIDs(s *entities.EditableStudy) {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	for i := range s.StudyFlow {
		sec := &s.StudyFlow[i]
		if sec.ID == "" {
			sec.ID = uuid.NewString()
		}
		for j := range sec.Questions {
			if sec.Questions[j].ID == "" {
				sec.Questions[j].ID = uuid.NewString()
			}
		}
	}
	for i := range s.ApplicationQuestions {
		if s.ApplicationQuestions[i].ID == "" {
			s.ApplicationQuestions[i].ID = uuid.NewString()
		}
		if s.ApplicationQuestions[i].Type == "" {
			s.ApplicationQuestions[i].Type = entities.QuestionApplication
		}
	}
}

// isUUID accepts only the canonical hyphenated form, since study ids end up
// in file names and URLs.
func isUUID(id string) bool {
	if len(id) != 36 {
		return false
	}
	_, err := uuid.Parse(id)
	return err == nil
}

// Validate rejects studies missing required content or carrying an id that
// is not a UUID.
func Validate(s *entities.EditableStudy) error {
	var problems []string

	if !isUUID(s.ID) {
		problems = append(problems, "id must be a UUID")
	}
	if strings.TrimSpace(s.Reference) == "" {
		problems = append(problems, "reference is required")
	} else if !bible.IsValidReference(s.Reference) {
		problems = append(problems, fmt.Sprintf("reference %q is not a valid passage", s.Reference))
	}
	if strings.TrimSpace(s.Purpose) == "" {
		problems = append(problems, "purpose is required")
	}
	if len(s.StudyFlow) == 0 {
		problems = append(problems, "at least one study flow section is required")
	}

	seen := make(map[string]bool)
	checkID := func(id, what string) {
		if id == "" {
			problems = append(problems, what+" is missing an id")
			return
		}
		if seen[id] {
			problems = append(problems, fmt.Sprintf("duplicate id %s", id))
		}
		seen[id] = true
	}
	for i, sec := range s.StudyFlow {
		checkID(sec.ID, fmt.Sprintf("section %d", i+1))
		for j, q := range sec.Questions {
			checkID(q.ID, fmt.Sprintf("section %d question %d", i+1, j+1))
			if strings.TrimSpace(q.Question) == "" {
				problems = append(problems, fmt.Sprintf("section %d question %d has no text", i+1, j+1))
			}
		}
	}
	for i, q := range s.ApplicationQuestions {
		checkID(q.ID, fmt.Sprintf("application question %d", i+1))
		if strings.TrimSpace(q.Question) == "" {
			problems = append(problems, fmt.Sprintf("application question %d has no text", i+1))
		}
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

func touch(s *entities.EditableStudy) {
	s.IsEdited = true
	s.UpdatedAt = time.Now().UTC()
}

// UpdateField replaces one text field. Paths are "purpose", "context",
// "summary", "prayerPrompt", "keyThemes" (comma separated),
// "sections/<id>/<passageSection|sectionHeading|connection>" and
// "questions/<id>/<question|answer>".
func UpdateField(s *entities.EditableStudy, path, value string) error {
	parts := strings.Split(path, "/")
	switch {
	case len(parts) == 1:
		switch parts[0] {
		case "purpose":
			s.Purpose = value
		case "context":
			s.Context = value
		case "summary":
			s.Summary = value
		case "prayerPrompt":
			s.PrayerPrompt = value
		case "keyThemes":
			s.KeyThemes = splitList(value)
		default:
			return fmt.Errorf("%w: %s", ErrUnknownField, path)
		}
	case len(parts) == 3 && parts[0] == "sections":
		sec := findSection(s, parts[1])
		if sec == nil {
			return fmt.Errorf("%w: section %s", ErrItemNotFound, parts[1])
		}
		switch parts[2] {
		case "passageSection":
			sec.PassageSection = value
		case "sectionHeading":
			sec.SectionHeading = value
		case "connection":
			sec.Connection = value
		default:
			return fmt.Errorf("%w: %s", ErrUnknownField, path)
		}
	case len(parts) == 3 && parts[0] == "questions":
		q := findQuestion(s, parts[1])
		if q == nil {
			return fmt.Errorf("%w: question %s", ErrItemNotFound, parts[1])
		}
		switch parts[2] {
		case "question":
			q.Question = value
		case "answer":
			q.Answer = value
		default:
			return fmt.Errorf("%w: %s", ErrUnknownField, path)
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnknownField, path)
	}
	touch(s)
	return nil
}

// MoveSection moves the section at index from to index to, shifting the rest.
func MoveSection(s *entities.EditableStudy, from, to int) error {
	if err := move(s.StudyFlow, from, to); err != nil {
		return err
	}
	touch(s)
	return nil
}

// MoveApplicationQuestion reorders application questions.
func MoveApplicationQuestion(s *entities.EditableStudy, from, to int) error {
	if err := move(s.ApplicationQuestions, from, to); err != nil {
		return err
	}
	touch(s)
	return nil
}

// MoveQuestion reorders questions within one section.
func MoveQuestion(s *entities.EditableStudy, sectionID string, from, to int) error {
	sec := findSection(s, sectionID)
	if sec == nil {
		return fmt.Errorf("%w: section %s", ErrItemNotFound, sectionID)
	}
	if err := move(sec.Questions, from, to); err != nil {
		return err
	}
	touch(s)
	return nil
}

func move[T any](items []T, from, to int) error {
	if from < 0 || from >= len(items) || to < 0 || to >= len(items) {
		return fmt.Errorf("%w: move %d to %d of %d", ErrOutOfRange, from, to, len(items))
	}
	item := items[from]
	if from < to {
		copy(items[from:to], items[from+1:to+1])
	} else {
		copy(items[to+1:from+1], items[to:from])
	}
	items[to] = item
	return nil
}

func AddCrossReference(s *entities.EditableStudy, ref entities.CrossReference) error {
	if strings.TrimSpace(ref.Reference) == "" {
		return fmt.Errorf("%w: cross-reference needs a reference", ErrInvalidStudy)
	}
	s.CrossReferences = append(s.CrossReferences, ref)
	touch(s)
	return nil
}

func RemoveCrossReference(s *entities.EditableStudy, index int) error {
	if index < 0 || index >= len(s.CrossReferences) {
		return fmt.Errorf("%w: cross-reference %d of %d", ErrOutOfRange, index, len(s.CrossReferences))
	}
	s.CrossReferences = append(s.CrossReferences[:index], s.CrossReferences[index+1:]...)
	touch(s)
	return nil
}

// AddApplicationQuestion appends an application question and returns it.
func AddApplicationQuestion(s *entities.EditableStudy, text string) (*entities.EditableQuestion, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyQuestion
	}
	s.ApplicationQuestions = append(s.ApplicationQuestions, entities.EditableQuestion{
		ID: uuid.NewString(), Type: entities.QuestionApplication, Question: text,
	})
	touch(s)
	return &s.ApplicationQuestions[len(s.ApplicationQuestions)-1], nil
}

// AddQuestion appends a question to a section and returns it.
func AddQuestion(s *entities.EditableStudy, sectionID string, qt entities.QuestionType, text, answer string) (*entities.EditableQuestion, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyQuestion
	}
	switch qt {
	case entities.QuestionObservation, entities.QuestionInterpretation, entities.QuestionFeeling:
	default:
		return nil, fmt.Errorf("%w: question type %q", ErrInvalidStudy, qt)
	}
	sec := findSection(s, sectionID)
	if sec == nil {
		return nil, fmt.Errorf("%w: section %s", ErrItemNotFound, sectionID)
	}
	sec.Questions = append(sec.Questions, entities.EditableQuestion{
		ID: uuid.NewString(), Type: qt, Question: text, Answer: answer,
	})
	touch(s)
	return &sec.Questions[len(sec.Questions)-1], nil
}

// RemoveQuestion deletes a question by id from any section or from the
// application questions.
func RemoveQuestion(s *entities.EditableStudy, id string) error {
	for i := range s.StudyFlow {
		qs := s.StudyFlow[i].Questions
		for j := range qs {
			if qs[j].ID == id {
				s.StudyFlow[i].Questions = append(qs[:j], qs[j+1:]...)
				touch(s)
				return nil
			}
		}
	}
	for j := range s.ApplicationQuestions {
		if s.ApplicationQuestions[j].ID == id {
			s.ApplicationQuestions = append(s.ApplicationQuestions[:j], s.ApplicationQuestions[j+1:]...)
			touch(s)
			return nil
		}
	}
	return fmt.Errorf("%w: question %s", ErrItemNotFound, id)
}

func findSection(s *entities.EditableStudy, id string) *entities.EditableSection {
	for i := range s.StudyFlow {
		if s.StudyFlow[i].ID == id {
			return &s.StudyFlow[i]
		}
	}
	return nil
}

func findQuestion(s *entities.EditableStudy, id string) *entities.EditableQuestion {
	for i := range s.StudyFlow {
		for j := range s.StudyFlow[i].Questions {
			if s.StudyFlow[i].Questions[j].ID == id {
				return &s.StudyFlow[i].Questions[j]
			}
		}
	}
	for i := range s.ApplicationQuestions {
		if s.ApplicationQuestions[i].ID == id {
			return &s.ApplicationQuestions[i]
		}
	}
	return nil
}

func splitList(value string) []string {
	var out []string
	for _, v := range strings.Split(value, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
