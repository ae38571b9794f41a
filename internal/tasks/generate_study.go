package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mikestefanello/backlite"
	"go.uber.org/zap"

	"github.com/Etherea7/bible-study-scribby-sub000/internal/studies"
)

const QueueGenerateStudy = "generate_study"

// GenerateStudyTask pre-generates and caches the study for a passage.
type GenerateStudyTask struct {
	Book       string `json:"book"`
	Chapter    int    `json:"chapter"`
	StartVerse int    `json:"start_verse,omitempty"`
	EndVerse   int    `json:"end_verse,omitempty"`
	Provider   string `json:"provider,omitempty"`
	Force      bool   `json:"force,omitempty"`
}

// Config returns the queue configuration for study generation.
func (t GenerateStudyTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        QueueGenerateStudy,
		MaxAttempts: 3,
		Backoff:     time.Minute,
		Timeout:     5 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// StudyGenerator is the part of the study service a generation task needs.
type StudyGenerator interface {
	Generate(ctx context.Context, req studies.GenerateRequest) (*studies.GenerateResult, error)
}

// GenerateStudyProcessor runs GenerateStudyTask through the study service.
// Invalid passages fail without retry since another attempt cannot succeed.
func GenerateStudyProcessor(gen StudyGenerator, log *zap.Logger) backlite.QueueProcessor[GenerateStudyTask] {
	if log == nil {
		log = zap.NewNop()
	}
	return func(ctx context.Context, task GenerateStudyTask) error {
		if gen == nil {
			return fmt.Errorf("study generator not configured")
		}

		res, err := gen.Generate(ctx, studies.GenerateRequest{
			Book:       task.Book,
			Chapter:    task.Chapter,
			StartVerse: task.StartVerse,
			EndVerse:   task.EndVerse,
			Provider:   task.Provider,
			Force:      task.Force,
			Prefetch:   true,
		})
		if errors.Is(err, studies.ErrInvalidRequest) {
			log.Warn("dropping study task with invalid passage", zap.String("book", task.Book), zap.Error(err))
			return nil
		}
		if err != nil {
			return fmt.Errorf("generate study %s %d: %w", task.Book, task.Chapter, err)
		}

		log.Info("study generated",
			zap.String("reference", res.Reference),
			zap.String("provider", res.Provider),
			zap.Bool("cached", res.Cached))
		return nil
	}
}

// NewGenerateStudyQueue creates the backlite queue for study generation.
func NewGenerateStudyQueue(gen StudyGenerator, log *zap.Logger) backlite.Queue {
	return backlite.NewQueue(GenerateStudyProcessor(gen, log))
}
