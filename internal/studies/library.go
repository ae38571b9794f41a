package studies

import (
	"fmt"

	"github.com/Etherea7/bible-study-scribby-sub000/internal/entities"
)

// Patch operations accepted by Apply.
const (
	OpUpdate                  = "update"
	OpMoveSection             = "move_section"
	OpMoveQuestion            = "move_question"
	OpMoveApplicationQuestion = "move_application_question"
	OpAddCrossReference       = "add_cross_reference"
	OpRemoveCrossReference    = "remove_cross_reference"
	OpAddApplicationQuestion  = "add_application_question"
	OpAddQuestion             = "add_question"
	OpRemoveQuestion          = "remove_question"
)

// Patch is a single document mutation.
type Patch struct {
	Op             string                   `json:"op"`
	Path           string                   `json:"path,omitempty"`
	Value          string                   `json:"value,omitempty"`
	From           int                      `json:"from,omitempty"`
	To             int                      `json:"to,omitempty"`
	Index          int                      `json:"index,omitempty"`
	SectionID      string                   `json:"sectionId,omitempty"`
	QuestionID     string                   `json:"questionId,omitempty"`
	QuestionType   entities.QuestionType    `json:"questionType,omitempty"`
	Answer         string                   `json:"answer,omitempty"`
	CrossReference *entities.CrossReference `json:"crossReference,omitempty"`
}

// Apply runs one patch against a study.
func Apply(s *entities.EditableStudy, p Patch) error {
	switch p.Op {
	case OpUpdate:
		return UpdateField(s, p.Path, p.Value)
	case OpMoveSection:
		return MoveSection(s, p.From, p.To)
	case OpMoveQuestion:
		return MoveQuestion(s, p.SectionID, p.From, p.To)
	case OpMoveApplicationQuestion:
		return MoveApplicationQuestion(s, p.From, p.To)
	case OpAddCrossReference:
		if p.CrossReference == nil {
			return fmt.Errorf("%w: crossReference is required", ErrInvalidStudy)
		}
		return AddCrossReference(s, *p.CrossReference)
	case OpRemoveCrossReference:
		return RemoveCrossReference(s, p.Index)
	case OpAddApplicationQuestion:
		_, err := AddApplicationQuestion(s, p.Value)
		return err
	case OpAddQuestion:
		_, err := AddQuestion(s, p.SectionID, p.QuestionType, p.Value, p.Answer)
		return err
	case OpRemoveQuestion:
		return RemoveQuestion(s, p.QuestionID)
	}
	return fmt.Errorf("%w: %q", ErrUnknownOp, p.Op)
}

// SaveStudy validates and stores a study, marking it saved. Documents
// without section or question ids get fresh ones.
func (s *Service) SaveStudy(study *entities.EditableStudy) error {
	AssignMissingIDs(study)
	if err := Validate(study); err != nil {
		return err
	}
	study.IsSaved = true
	return s.store.Save(study)
}

// NewStudy converts a generated study into a saved editable one.
func (s *Service) NewStudy(res *GenerateResult) (*entities.EditableStudy, error) {
	study := NewEditable(res.Study, res.Reference, res.PassageText, res.Provider)
	if err := s.SaveStudy(study); err != nil {
		return nil, err
	}
	return study, nil
}

func (s *Service) GetStudy(id string) (*entities.EditableStudy, error) {
	return s.store.Get(id)
}

func (s *Service) ListStudies() ([]entities.EditableStudy, error) {
	return s.store.List()
}

func (s *Service) DeleteStudy(id string) error {
	return s.store.Delete(id)
}

// ReplaceStudy overwrites a stored study with a full document.
func (s *Service) ReplaceStudy(id string, study *entities.EditableStudy) error {
	existing, err := s.store.Get(id)
	if err != nil {
		return err
	}
	study.ID = id
	study.CreatedAt = existing.CreatedAt
	touch(study)
	return s.SaveStudy(study)
}

// PatchStudy applies mutations in order and stores the result. Nothing is
// stored if any patch fails or the result does not validate.
func (s *Service) PatchStudy(id string, patches ...Patch) (*entities.EditableStudy, error) {
	study, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}
	for i, p := range patches {
		if err := Apply(study, p); err != nil {
			return nil, fmt.Errorf("patch %d (%s): %w", i, p.Op, err)
		}
	}
	if err := s.SaveStudy(study); err != nil {
		return nil, err
	}
	return study, nil
}
