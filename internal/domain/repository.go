package domain

import "context"

// ModelClient is the external generative model capability: given a prompt and
// an optional image it returns free text
type ModelClient interface {
	GenerateContent(ctx context.Context, prompt string, image *Image) (string, error)
}

// MealLogRepository is the append-only meal log
type MealLogRepository interface {
	// Save appends record and sets its ID
	Save(ctx context.Context, record *MealLogRecord) error
	// Recent returns up to limit records, newest first
	Recent(ctx context.Context, limit int) ([]MealLogRecord, error)
}
