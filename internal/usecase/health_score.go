package usecase

import (
	"strings"

	"github.com/platelens/backend/internal/domain"
)

// Health score bounds and the provisional heuristic's constants
const (
	MinHealthScore  = 0.0
	MaxHealthScore  = 10.0
	baseHealthScore = 7.0
	varietyBonus    = 1.0
	varietyMinFoods = 3
)

// ScoreSignal contributes an adjustment to the base health score
type ScoreSignal func(foods []domain.FoodItem) float64

// HealthScorer derives a bounded score from the identified foods. The
// heuristic is provisional; extra signals can be plugged in without touching
// the clamping.
type HealthScorer struct {
	signals []ScoreSignal
}

// NewHealthScorer creates a scorer. With no signals it uses VarietySignal.
func NewHealthScorer(signals ...ScoreSignal) *HealthScorer {
	if len(signals) == 0 {
		signals = []ScoreSignal{VarietySignal}
	}
	return &HealthScorer{signals: signals}
}

// Score returns a value in [MinHealthScore, MaxHealthScore]
func (s *HealthScorer) Score(foods []domain.FoodItem) float64 {
	score := baseHealthScore
	for _, signal := range s.signals {
		score += signal(foods)
	}
	return clampScore(score)
}

// VarietySignal adds a flat bonus when at least three distinct foods were identified
func VarietySignal(foods []domain.FoodItem) float64 {
	if distinctFoods(foods) >= varietyMinFoods {
		return varietyBonus
	}
	return 0
}

// distinctFoods counts foods by case-insensitive name; unnamed items each count once
func distinctFoods(foods []domain.FoodItem) int {
	seen := make(map[string]bool, len(foods))
	unnamed := 0
	for _, food := range foods {
		name := strings.ToLower(strings.TrimSpace(food.Name))
		if name == "" {
			unnamed++
			continue
		}
		seen[name] = true
	}
	return len(seen) + unnamed
}

func clampScore(score float64) float64 {
	if score < MinHealthScore {
		return MinHealthScore
	}
	if score > MaxHealthScore {
		return MaxHealthScore
	}
	return score
}
