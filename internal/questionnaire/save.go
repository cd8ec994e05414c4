package questionnaire

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	AppVersion = "1.0"
	// CopyrightYear is stamped into every saved file regardless of the
	// current date.
	CopyrightYear = 2025
)

// SavedResponses is the on-disk shape of a saved questionnaire.
type SavedResponses struct {
	Timestamp  time.Time `json:"timestamp"`
	Responses  Answers   `json:"responses"`
	AppVersion string    `json:"app_version"`
	Year       int       `json:"year"`
}

// FileName returns the default file name for answers saved at now.
func FileName(now time.Time) string {
	return "assessment_" + now.Format("20060102_150405") + ".json"
}

// Save writes a to dir under FileName(now) and returns the full path. The
// answers are saved as given; they are not validated.
func Save(dir string, a Answers, now time.Time) (string, error) {
	data, err := json.MarshalIndent(SavedResponses{
		Timestamp:  now,
		Responses:  a,
		AppVersion: AppVersion,
		Year:       CopyrightYear,
	}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("questionnaire: marshal responses: %w", err)
	}

	path := filepath.Join(dir, FileName(now))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("questionnaire: write %s: %w", path, err)
	}
	return path, nil
}
