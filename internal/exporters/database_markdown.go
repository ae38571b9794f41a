package exporters

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Etherea7/bible-study-scribby-sub000/internal/entities"
)

// StoreMarkdownExporter exports saved studies straight from the store.
type StoreMarkdownExporter struct {
	reader           StudyReader
	markdownExporter *MarkdownExporter
}

func NewStoreMarkdownExporter(reader StudyReader, exportDir string, log *zap.Logger) *StoreMarkdownExporter {
	return &StoreMarkdownExporter{
		reader:           reader,
		markdownExporter: NewMarkdownExporter(exportDir, log),
	}
}

// ExportByID writes a single saved study.
func (exporter *StoreMarkdownExporter) ExportByID(id string) (ExportResult, error) {
	study, err := exporter.reader.Get(id)
	if err != nil {
		return ExportResult{}, fmt.Errorf("failed to load study: %w", err)
	}
	return exporter.markdownExporter.Export([]entities.EditableStudy{*study})
}

// ExportAll writes every saved study.
func (exporter *StoreMarkdownExporter) ExportAll() (ExportResult, error) {
	studies, err := exporter.reader.List()
	if err != nil {
		return ExportResult{}, fmt.Errorf("failed to list studies: %w", err)
	}
	return exporter.markdownExporter.Export(studies)
}

var _ StudyExporter = (*MarkdownExporter)(nil)
