package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/platelens/backend/internal/domain"
	"github.com/platelens/backend/internal/logger"
)

const defaultHistoryLimit = 10

// MealLogServiceConfig holds configuration for the meal log service
type MealLogServiceConfig struct {
	HistoryLimit int
	// Now overrides the clock used to stamp saved meals
	Now func() time.Time
}

// MealLogService appends analyzed meals to the log and reads back recent ones.
// The log grows without bound; there is no retention policy.
type MealLogService struct {
	repo         domain.MealLogRepository
	historyLimit int
	now          func() time.Time
}

// NewMealLogService creates a new meal log service
func NewMealLogService(repo domain.MealLogRepository, config MealLogServiceConfig) *MealLogService {
	limit := config.HistoryLimit
	if limit <= 0 {
		limit = defaultHistoryLimit
	}

	now := config.Now
	if now == nil {
		now = time.Now
	}

	return &MealLogService{
		repo:         repo,
		historyLimit: limit,
		now:          now,
	}
}

// SaveMeal stores meal with score, stamped with the current time
func (s *MealLogService) SaveMeal(ctx context.Context, meal json.RawMessage, score float64) (*domain.MealLogRecord, error) {
	trimmed := bytes.TrimSpace(meal)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, fmt.Errorf("%w: meal is required", domain.ErrInvalidInput)
	}
	if !json.Valid(trimmed) {
		return nil, fmt.Errorf("%w: meal is not valid JSON", domain.ErrInvalidInput)
	}

	record := &domain.MealLogRecord{
		Date:        domain.FormatTimestamp(s.now()),
		Meal:        json.RawMessage(trimmed),
		HealthScore: score,
	}

	if err := s.repo.Save(ctx, record); err != nil {
		logger.WithError(err, "meal_log").Error("failed to save meal")
		return nil, fmt.Errorf("%w: %v", domain.ErrStorageFailure, err)
	}

	logger.WithComponent("meal_log").WithField("id", record.ID).Info("meal saved")
	return record, nil
}

// RecentMeals returns up to limit saved meals, newest first. A non-positive
// limit means the configured history limit.
func (s *MealLogService) RecentMeals(ctx context.Context, limit int) ([]domain.MealLogRecord, error) {
	if limit <= 0 {
		limit = s.historyLimit
	}

	records, err := s.repo.Recent(ctx, limit)
	if err != nil {
		logger.WithError(err, "meal_log").Error("failed to load meal history")
		return nil, fmt.Errorf("%w: %v", domain.ErrStorageFailure, err)
	}

	if records == nil {
		records = []domain.MealLogRecord{}
	}
	return records, nil
}
