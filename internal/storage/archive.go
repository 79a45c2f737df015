package storage

import (
	"alcyxob/run-tracker/internal/domain"
	"context"
	"encoding/json"
	"fmt"
	"path"
)

// GenerationArchive keeps a copy of every generated suggestion in object
// storage, keyed by owner and planned date.
type GenerationArchive struct {
	files FileStorage
}

// NewGenerationArchive wraps a FileStorage.
func NewGenerationArchive(files FileStorage) *GenerationArchive {
	return &GenerationArchive{files: files}
}

type archivedGeneration struct {
	SuggestionID     string         `json:"suggestionId"`
	UserID           string         `json:"userId"`
	TrainingTypeCode string         `json:"trainingTypeCode"`
	PlannedDate      string         `json:"plannedDate"`
	Steps            []domain.Step  `json:"steps"`
	Context          map[string]any `json:"context,omitempty"`
	Metadata         map[string]any `json:"metadata,omitempty"`
	CreatedAt        string         `json:"createdAt"`
}

// ObjectKey is where the generation payload of s lives.
func ObjectKey(s *domain.Suggestion) string {
	return path.Join("generations", s.UserID, s.PlannedDate.UTC().Format("2006-01-02"), s.ID+".json")
}

// Store uploads the generation payload of s.
func (a *GenerationArchive) Store(ctx context.Context, s *domain.Suggestion) error {
	body, err := json.Marshal(archivedGeneration{
		SuggestionID:     s.ID,
		UserID:           s.UserID,
		TrainingTypeCode: s.TrainingTypeCode,
		PlannedDate:      s.PlannedDate.UTC().Format("2006-01-02"),
		Steps:            s.Steps,
		Context:          s.Context,
		Metadata:         s.Metadata,
		CreatedAt:        s.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	})
	if err != nil {
		return fmt.Errorf("marshal generation: %w", err)
	}
	return a.files.PutObject(ctx, ObjectKey(s), "application/json", body)
}

// DownloadURL returns a presigned URL for the archived payload of s.
func (a *GenerationArchive) DownloadURL(ctx context.Context, s *domain.Suggestion) (string, error) {
	return a.files.GeneratePresignedDownloadURL(ctx, ObjectKey(s), DefaultPresignedURLExpiry)
}
