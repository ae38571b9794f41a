package exporters

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/Etherea7/bible-study-scribby-sub000/internal/entities"
)

type MarkdownExporter struct {
	ExportDir string
	log       *zap.Logger
}

func NewMarkdownExporter(exportDir string, log *zap.Logger) *MarkdownExporter {
	return &MarkdownExporter{ExportDir: exportDir, log: log}
}

var unsafeFileChars = regexp.MustCompile(`[^a-z0-9]+`)

// FileName returns the file name a study is written to, e.g.
// "john-1-1-18-3f2a9c1e.md". The id suffix keeps several studies of the same
// passage apart.
func FileName(study *entities.EditableStudy) string {
	slug := strings.Trim(unsafeFileChars.ReplaceAllString(strings.ToLower(study.Reference), "-"), "-")
	if slug == "" {
		slug = "study"
	}
	id := unsafeFileChars.ReplaceAllString(strings.ToLower(study.ID), "")
	if len(id) > 8 {
		id = id[:8]
	}
	if id == "" {
		return slug + ".md"
	}
	return slug + "-" + id + ".md"
}

var questionLabels = map[entities.QuestionType]string{
	entities.QuestionObservation:    "Observation",
	entities.QuestionInterpretation: "Interpretation",
	entities.QuestionFeeling:        "Feeling",
	entities.QuestionApplication:    "Application",
}

// quote renders s as a double-quoted YAML scalar. Go's escape sequences are a
// subset of YAML's.
func quote(s string) string {
	return strconv.Quote(s)
}

func GenerateMarkdown(study *entities.EditableStudy) string {
	var b strings.Builder

	fmt.Fprintf(&b, "---\n")
	fmt.Fprintf(&b, "reference: %s\n", quote(study.Reference))
	fmt.Fprintf(&b, "content_type: bible_study\n")
	if !study.CreatedAt.IsZero() {
		fmt.Fprintf(&b, "created_at: %s\n", study.CreatedAt.Format("2006-01-02"))
	}
	if study.Provider != "" {
		fmt.Fprintf(&b, "provider: %s\n", study.Provider)
	}
	tags := []string{"bible-study"}
	for _, theme := range study.KeyThemes {
		tags = append(tags, quote(theme))
	}
	fmt.Fprintf(&b, "tags: [%s]\n", strings.Join(tags, ", "))
	fmt.Fprintf(&b, "---\n\n")

	fmt.Fprintf(&b, "# %s\n\n", study.Reference)

	if study.Purpose != "" {
		fmt.Fprintf(&b, "## Purpose\n\n%s\n\n", study.Purpose)
	}
	if study.Context != "" {
		fmt.Fprintf(&b, "## Context\n\n%s\n\n", study.Context)
	}
	if len(study.KeyThemes) > 0 {
		fmt.Fprintf(&b, "## Key Themes\n\n")
		for _, theme := range study.KeyThemes {
			fmt.Fprintf(&b, "- %s\n", theme)
		}
		b.WriteString("\n")
	}
	if study.PassageText != "" {
		fmt.Fprintf(&b, "## Passage\n\n> %s\n\n", strings.ReplaceAll(strings.TrimSpace(study.PassageText), "\n", "\n> "))
	}

	if len(study.StudyFlow) > 0 {
		fmt.Fprintf(&b, "## Study Flow\n\n")
		for i, sec := range study.StudyFlow {
			heading := sec.SectionHeading
			if heading == "" {
				heading = fmt.Sprintf("Section %d", i+1)
			}
			fmt.Fprintf(&b, "### %s (%s)\n\n", heading, sec.PassageSection)
			for _, q := range sec.Questions {
				writeQuestion(&b, q)
			}
			if sec.Connection != "" {
				fmt.Fprintf(&b, "*%s*\n\n", sec.Connection)
			}
		}
	}

	if study.Summary != "" {
		fmt.Fprintf(&b, "## Summary\n\n%s\n\n", study.Summary)
	}
	if len(study.ApplicationQuestions) > 0 {
		fmt.Fprintf(&b, "## Application\n\n")
		for i, q := range study.ApplicationQuestions {
			fmt.Fprintf(&b, "%d. %s\n", i+1, q.Question)
			if q.Answer != "" {
				fmt.Fprintf(&b, "   - %s\n", q.Answer)
			}
		}
		b.WriteString("\n")
	}
	if len(study.CrossReferences) > 0 {
		fmt.Fprintf(&b, "## Cross References\n\n")
		for _, ref := range study.CrossReferences {
			if ref.Note != "" {
				fmt.Fprintf(&b, "- **%s**: %s\n", ref.Reference, ref.Note)
			} else {
				fmt.Fprintf(&b, "- **%s**\n", ref.Reference)
			}
		}
		b.WriteString("\n")
	}
	if study.PrayerPrompt != "" {
		fmt.Fprintf(&b, "## Prayer\n\n%s\n", study.PrayerPrompt)
	}

	return b.String()
}

func writeQuestion(b *strings.Builder, q entities.EditableQuestion) {
	label, ok := questionLabels[q.Type]
	if !ok {
		label = "Question"
	}
	fmt.Fprintf(b, "**%s:** %s\n\n", label, q.Question)
	if q.Answer != "" {
		fmt.Fprintf(b, "> %s\n\n", strings.ReplaceAll(q.Answer, "\n", "\n> "))
	}
}

// Export writes one Markdown file per study into ExportDir, creating it when
// needed. A study that fails to write is counted and the rest continue.
func (exporter *MarkdownExporter) Export(studies []entities.EditableStudy) (ExportResult, error) {
	result := ExportResult{Files: []string{}}

	if err := os.MkdirAll(exporter.ExportDir, 0755); err != nil {
		return result, fmt.Errorf("failed to create export directory: %w", err)
	}

	for i := range studies {
		study := &studies[i]
		path := filepath.Join(exporter.ExportDir, FileName(study))
		if err := os.WriteFile(path, []byte(GenerateMarkdown(study)), 0644); err != nil {
			exporter.log.Warn("failed to export study", zap.String("id", study.ID), zap.String("path", path), zap.Error(err))
			result.StudiesFailed++
			continue
		}
		exporter.log.Info("exported study", zap.String("reference", study.Reference), zap.String("path", path))
		result.StudiesProcessed++
		result.Files = append(result.Files, path)
	}

	return result, nil
}
