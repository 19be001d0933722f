package storage

import (
	"encoding/json"
	"fmt"

	"github.com/platelens/backend/internal/domain"
)

// mealLogRow is the persisted layout of a meal log record
type mealLogRow struct {
	ID          int64   `gorm:"primaryKey;autoIncrement"`
	Date        string  `gorm:"type:text;index"`
	MealData    string  `gorm:"column:meal_data;type:text"`
	HealthScore float64 `gorm:"column:health_score"`
}

// TableName pins the gorm table name to the one the SQLite schema uses
func (mealLogRow) TableName() string {
	return "meal_logs"
}

func toRow(record *domain.MealLogRecord) (mealLogRow, error) {
	if !json.Valid(record.Meal) {
		return mealLogRow{}, fmt.Errorf("meal payload is not valid JSON")
	}
	return mealLogRow{
		Date:        record.Date,
		MealData:    string(record.Meal),
		HealthScore: record.HealthScore,
	}, nil
}

func toRecord(row mealLogRow) (domain.MealLogRecord, error) {
	if !json.Valid([]byte(row.MealData)) {
		return domain.MealLogRecord{}, fmt.Errorf("meal log %d holds invalid JSON", row.ID)
	}
	return domain.MealLogRecord{
		ID:          row.ID,
		Date:        row.Date,
		Meal:        json.RawMessage(row.MealData),
		HealthScore: row.HealthScore,
	}, nil
}
