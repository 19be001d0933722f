package usecase

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/platelens/backend/internal/domain"
)

const notSpecified = "Not specified"

// FormatNutritionReport projects a loosely shaped nutrition object into the
// fixed four-section report. Missing or mistyped fields fall back to defaults.
func FormatNutritionReport(data map[string]interface{}) domain.NutritionReport {
	macros, _ := data["macronutrients"].(map[string]interface{})

	return domain.NutritionReport{
		FoodsIdentified: domain.FoodsSection{
			Title: "Foods Identified",
			Items: stringList(data["foods"]),
		},
		ServingInfo: domain.ServingSection{
			Title:    "Serving Information",
			Portions: firstPortion(data["portions"]),
		},
		NutritionFacts: domain.FactsSection{
			Title:    "Nutrition Facts",
			Calories: formatAmount(data["calories"]) + " kcal",
			Macros: domain.Macros{
				Carbohydrates: formatAmount(macros["carbs"]) + "g",
				Proteins:      formatAmount(macros["proteins"]) + "g",
				Fats:          formatAmount(macros["fats"]) + "g",
			},
		},
		HealthNotes: domain.ConcernsSection{
			Title:    "Dietary Considerations",
			Concerns: stringList(data["dietary_concerns"]),
		},
	}
}

// FormatNutritionReportText renders report as indented plain text
func FormatNutritionReportText(report domain.NutritionReport) string {
	const bullet = "\n  - "

	text := fmt.Sprintf(`
Foods Identified:
  - %s

Serving Information:
  %s

Nutrition Facts:
  Calories: %s
  Carbohydrates: %s
  Proteins: %s
  Fats: %s

Dietary Considerations:
  - %s
`,
		strings.Join(report.FoodsIdentified.Items, bullet),
		orDefault(report.ServingInfo.Portions, notSpecified),
		orDefault(report.NutritionFacts.Calories, "0 kcal"),
		orDefault(report.NutritionFacts.Macros.Carbohydrates, "0g"),
		orDefault(report.NutritionFacts.Macros.Proteins, "0g"),
		orDefault(report.NutritionFacts.Macros.Fats, "0g"),
		strings.Join(report.HealthNotes.Concerns, bullet),
	)

	return strings.TrimSpace(text)
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// stringList renders a JSON list as strings; anything that is not a list is empty
func stringList(v interface{}) []string {
	list, ok := v.([]interface{})
	if !ok {
		return []string{}
	}

	items := make([]string, 0, len(list))
	for _, item := range list {
		items = append(items, formatValue(item))
	}
	return items
}

func firstPortion(v interface{}) string {
	switch p := v.(type) {
	case []interface{}:
		if len(p) > 0 && p[0] != nil {
			return formatValue(p[0])
		}
	case string:
		if strings.TrimSpace(p) != "" {
			return p
		}
	}
	return notSpecified
}

// formatAmount renders a numeric-ish value; absent or unusable values are "0".
// json.Number keeps the text the caller sent, so 12.0 stays "12.0".
// A float64 has no such text and renders in its shortest form.
func formatAmount(v interface{}) string {
	switch n := v.(type) {
	case float64:
		return strconv.FormatFloat(n, 'f', -1, 64)
	case json.Number:
		return n.String()
	case string:
		if strings.TrimSpace(n) != "" {
			return strings.TrimSpace(n)
		}
	}
	return "0"
}

func formatValue(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case json.Number:
		return val.String()
	case nil:
		return ""
	}

	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}
