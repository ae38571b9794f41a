package tasks

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mikestefanello/backlite"
)

var (
	ErrUnknownType    = errors.New("unknown task type")
	ErrInvalidPayload = errors.New("invalid task payload")
)

// TypeInfo describes a task type that can be triggered manually.
type TypeInfo struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Queue       string `json:"queue"`
}

// Types lists the runnable task types.
func Types() []TypeInfo {
	return []TypeInfo{
		{
			Type:        QueueGenerateStudy,
			Description: "Generate and cache the study for a passage",
			Queue:       QueueGenerateStudy,
		},
		{
			Type:        QueuePruneCache,
			Description: "Remove cached passages and studies older than CACHE_TTL",
			Queue:       QueuePruneCache,
		},
	}
}

// Build decodes a request body into the task for taskType. An empty body is
// allowed for tasks without parameters.
func Build(taskType string, body []byte) (backlite.Task, error) {
	switch taskType {
	case QueueGenerateStudy:
		var t GenerateStudyTask
		if len(body) == 0 {
			return nil, fmt.Errorf("%w: book and chapter are required", ErrInvalidPayload)
		}
		if err := json.Unmarshal(body, &t); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
		}
		if t.Book == "" || t.Chapter <= 0 {
			return nil, fmt.Errorf("%w: book and chapter are required", ErrInvalidPayload)
		}
		return t, nil
	case QueuePruneCache:
		return PruneCacheTask{}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, taskType)
	}
}
