package domain

import (
	"encoding/json"
	"time"
)

// TimestampLayout is the ISO-8601 layout used for meal log dates. The fixed
// fractional width keeps lexical order equal to chronological order.
const TimestampLayout = "2006-01-02T15:04:05.000000Z07:00"

// MealLogRecord is one saved meal. Records are never updated or deleted.
type MealLogRecord struct {
	ID          int64           `json:"-"`
	Date        string          `json:"date"`
	Meal        json.RawMessage `json:"meal"`
	HealthScore float64         `json:"score"`
}

// FormatTimestamp renders t in the meal log date format (UTC)
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}
