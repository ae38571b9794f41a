package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Auditor archives payloads as UUID-named files in Dir.
type Auditor struct {
	Dir string
	log *zap.Logger
}

func NewAuditor(dir string, log *zap.Logger) *Auditor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Auditor{Dir: dir, log: log}
}

// SaveJSON marshals data and archives it, returning the file name.
func (a *Auditor) SaveJSON(data any) (string, error) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal data to JSON: %w", err)
	}
	return a.SaveRaw(jsonData)
}

// SaveRaw archives bytes exactly as received. Import payloads are stored this
// way so malformed documents can still be inspected later.
func (a *Auditor) SaveRaw(data []byte) (string, error) {
	if err := os.MkdirAll(a.Dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create audit directory: %w", err)
	}

	filename := uuid.NewString() + ".json"
	path := filepath.Join(a.Dir, filename)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write audit file: %w", err)
	}

	a.log.Info("audit file saved", zap.String("path", path), zap.Int("bytes", len(data)))
	return filename, nil
}
