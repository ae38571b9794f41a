package transfer

import (
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Etherea7/bible-study-scribby-sub000/internal/bible"
	"github.com/Etherea7/bible-study-scribby-sub000/internal/entities"
	"github.com/Etherea7/bible-study-scribby-sub000/internal/studies"
)

// Mode selects how strictly an import document is checked.
type Mode string

const (
	// ModeStrict imports nothing unless the envelope and every record validate.
	ModeStrict Mode = "strict"
	// ModeLenient repairs what it can in the envelope and skips invalid records.
	ModeLenient Mode = "lenient"
)

// ParseMode reads a mode name. An empty name means lenient.
func ParseMode(name string) (Mode, error) {
	switch Mode(name) {
	case "", ModeLenient:
		return ModeLenient, nil
	case ModeStrict:
		return ModeStrict, nil
	}
	return "", fmt.Errorf("unknown import mode %q", name)
}

const (
	StatusImported = "imported"
	StatusSkipped  = "skipped"
	StatusInvalid  = "invalid"

	KindHistory = "history"
	KindStudy   = "savedStudy"
)

type RecordResult struct {
	Index   int    `json:"index"`
	Kind    string `json:"kind"`
	ID      string `json:"id,omitempty"`
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// Report describes the outcome of one import.
type Report struct {
	Version  int            `json:"version,omitempty"`
	Mode     Mode           `json:"mode"`
	Imported int            `json:"imported"`
	Skipped  int            `json:"skipped"`
	Invalid  int            `json:"invalid"`
	Results  []RecordResult `json:"results"`
	Errors   []string       `json:"errors"`
	Warnings []string       `json:"warnings,omitempty"`
	Archive  string         `json:"archive,omitempty"`
}

type Service struct {
	history  HistoryStore
	studies  StudyStore
	archiver Archiver
	log      *zap.Logger
}

func NewService(history HistoryStore, studies StudyStore, log *zap.Logger) *Service {
	return &Service{history: history, studies: studies, log: log}
}

// WithArchiver keeps a copy of every payload passed to Import.
func (s *Service) WithArchiver(a Archiver) *Service {
	s.archiver = a
	return s
}

type pendingRecord struct {
	result int
	write  func() error
}

// Import reads an export document and stores its records. The returned
// report is never nil. A non-nil error means the document as a whole was
// rejected; in that case nothing was imported unless a database write
// failed part way.
func (s *Service) Import(data []byte, mode Mode) (*Report, error) {
	report := &Report{Mode: mode, Results: []RecordResult{}, Errors: []string{}}
	s.archive(data, report)

	var env map[string]json.RawMessage
	if err := json.Unmarshal(data, &env); err != nil {
		return report, s.reject(report, fmt.Errorf("%w: %v", ErrMalformedDocument, err))
	}
	if env == nil {
		return report, s.reject(report, fmt.Errorf("%w: document must be a JSON object", ErrMalformedDocument))
	}

	version, err := s.readVersion(env, mode, report)
	if err != nil {
		return report, s.reject(report, err)
	}
	report.Version = version
	if version == 1 {
		if err := migrateV1(env); err != nil {
			return report, s.reject(report, err)
		}
		report.Warnings = append(report.Warnings, "migrated version 1 document")
	}

	if mode == ModeLenient {
		s.repairEnvelope(env, report)
	}
	if err := validateEnvelope(env); err != nil {
		return report, s.reject(report, err)
	}

	var historyRaw, studiesRaw []json.RawMessage
	if err := json.Unmarshal(env["history"], &historyRaw); err != nil {
		return report, s.reject(report, fmt.Errorf("%w: history: %v", ErrInvalidDocument, err))
	}
	if err := json.Unmarshal(env["savedStudies"], &studiesRaw); err != nil {
		return report, s.reject(report, fmt.Errorf("%w: savedStudies: %v", ErrInvalidDocument, err))
	}

	report.Results = make([]RecordResult, 0, len(historyRaw)+len(studiesRaw))
	var pending []pendingRecord

	seenHistory := make(map[string]bool)
	for i, raw := range historyRaw {
		item, res := checkHistory(i, raw)
		if item != nil {
			res.Status, res.Message, err = s.duplicate(item.ID, seenHistory, s.history.Exists)
			if err != nil {
				return report, s.reject(report, err)
			}
		}
		report.Results = append(report.Results, res)
		if res.Status == "" {
			pending = append(pending, pendingRecord{
				result: len(report.Results) - 1,
				write:  func() error { return s.history.Upsert(item) },
			})
		}
	}

	seenStudies := make(map[string]bool)
	for i, raw := range studiesRaw {
		study, res := checkStudy(i, raw)
		if study != nil {
			res.Status, res.Message, err = s.duplicate(study.ID, seenStudies, s.studies.Exists)
			if err != nil {
				return report, s.reject(report, err)
			}
		}
		report.Results = append(report.Results, res)
		if res.Status == "" {
			pending = append(pending, pendingRecord{
				result: len(report.Results) - 1,
				write:  func() error { return s.studies.Insert(study) },
			})
		}
	}

	if mode == ModeStrict && hasInvalid(report.Results) {
		for _, p := range pending {
			report.Results[p.result].Status = StatusSkipped
			report.Results[p.result].Message = "not imported: document has invalid records"
		}
		report.tally()
		return report, s.reject(report, fmt.Errorf("%w: %d invalid records", ErrInvalidDocument, report.Invalid))
	}

	for _, p := range pending {
		res := &report.Results[p.result]
		if err := p.write(); err != nil {
			res.Status = StatusInvalid
			res.Message = err.Error()
			report.tally()
			return report, s.reject(report, fmt.Errorf("store %s %s: %w", res.Kind, res.ID, err))
		}
		res.Status = StatusImported
	}

	report.tally()
	for _, r := range report.Results {
		if r.Status == StatusInvalid {
			report.Errors = append(report.Errors, fmt.Sprintf("%s[%d]: %s", r.Kind, r.Index, r.Message))
		}
	}
	s.log.Info("import finished",
		zap.String("mode", string(mode)),
		zap.Int("version", version),
		zap.Int("imported", report.Imported),
		zap.Int("skipped", report.Skipped),
		zap.Int("invalid", report.Invalid),
	)
	return report, nil
}

func (s *Service) archive(data []byte, report *Report) {
	if s.archiver == nil {
		return
	}
	name, err := s.archiver.SaveRaw(data)
	if err != nil {
		s.log.Warn("failed to archive import payload", zap.Error(err))
		return
	}
	report.Archive = name
}

func (s *Service) reject(report *Report, err error) error {
	report.Errors = append(report.Errors, err.Error())
	s.log.Warn("import rejected", zap.String("mode", string(report.Mode)), zap.Error(err))
	return err
}

func (s *Service) readVersion(env map[string]json.RawMessage, mode Mode, report *Report) (int, error) {
	raw, ok := env["version"]
	if !ok {
		if mode == ModeStrict {
			return 0, fmt.Errorf("%w: version is required", ErrInvalidDocument)
		}
		if _, legacy := env["studies"]; legacy {
			report.Warnings = append(report.Warnings, "version missing, assuming 1")
			return 1, nil
		}
		report.Warnings = append(report.Warnings, fmt.Sprintf("version missing, assuming %d", CurrentVersion))
		env["version"] = json.RawMessage(fmt.Sprint(CurrentVersion))
		return CurrentVersion, nil
	}

	var version int
	if err := json.Unmarshal(raw, &version); err != nil {
		return 0, fmt.Errorf("%w: version must be an integer", ErrInvalidDocument)
	}
	if version > CurrentVersion {
		return 0, fmt.Errorf("%w: %d (newest supported is %d)", ErrUnsupportedVersion, version, CurrentVersion)
	}
	if version < 1 {
		return 0, fmt.Errorf("%w: %d", ErrUnsupportedVersion, version)
	}
	return version, nil
}

func (s *Service) repairEnvelope(env map[string]json.RawMessage, report *Report) {
	if _, ok := env["exportedAt"]; !ok {
		stamp, _ := json.Marshal(time.Now().UTC().Format(time.RFC3339))
		env["exportedAt"] = stamp
		report.Warnings = append(report.Warnings, "exportedAt missing, using current time")
	}
	for _, key := range []string{"history", "savedStudies"} {
		if raw, ok := env[key]; !ok || string(raw) == "null" {
			env[key] = json.RawMessage("[]")
			report.Warnings = append(report.Warnings, key+" missing, treating as empty")
		}
	}
}

func validateEnvelope(env map[string]json.RawMessage) error {
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	if err := envelopeSchema.Validate(doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	return nil
}

// duplicate reports a skip status when the id was already seen in this
// document or is already stored.
func (s *Service) duplicate(id string, seen map[string]bool, exists func(string) (bool, error)) (string, string, error) {
	if seen[id] {
		return StatusSkipped, "duplicate id in document", nil
	}
	seen[id] = true
	stored, err := exists(id)
	if err != nil {
		return "", "", fmt.Errorf("check id %s: %w", id, err)
	}
	if stored {
		return StatusSkipped, "already stored", nil
	}
	return "", "", nil
}

func checkHistory(index int, raw json.RawMessage) (*entities.ReadingHistoryItem, RecordResult) {
	res := RecordResult{Index: index, Kind: KindHistory, ID: recordID(raw)}
	if err := validateRecord(historySchema.Validate, raw); err != nil {
		return nil, res.invalid(err)
	}

	var item entities.ReadingHistoryItem
	if err := json.Unmarshal(raw, &item); err != nil {
		return nil, res.invalid(err)
	}
	if _, err := bible.Parse(item.Reference); err != nil {
		return nil, res.invalid(fmt.Errorf("reference %q is not a valid passage", item.Reference))
	}
	return &item, res
}

func checkStudy(index int, raw json.RawMessage) (*entities.EditableStudy, RecordResult) {
	res := RecordResult{Index: index, Kind: KindStudy, ID: recordID(raw)}
	if err := validateRecord(studySchema.Validate, raw); err != nil {
		return nil, res.invalid(err)
	}

	var study entities.EditableStudy
	if err := json.Unmarshal(raw, &study); err != nil {
		return nil, res.invalid(err)
	}
	if err := studies.Validate(&study); err != nil {
		return nil, res.invalid(err)
	}
	study.IsSaved = true
	return &study, res
}

func validateRecord(validate func(any) error, raw json.RawMessage) error {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return err
	}
	return validate(doc)
}

func recordID(raw json.RawMessage) string {
	var rec struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(raw, &rec)
	return rec.ID
}

func (r RecordResult) invalid(err error) RecordResult {
	r.Status = StatusInvalid
	r.Message = err.Error()
	return r
}

func hasInvalid(results []RecordResult) bool {
	for _, r := range results {
		if r.Status == StatusInvalid {
			return true
		}
	}
	return false
}

func (r *Report) tally() {
	r.Imported, r.Skipped, r.Invalid = 0, 0, 0
	for _, res := range r.Results {
		switch res.Status {
		case StatusImported:
			r.Imported++
		case StatusSkipped:
			r.Skipped++
		case StatusInvalid:
			r.Invalid++
		}
	}
}
