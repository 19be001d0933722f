package domain

import (
	"strings"
)

// Image is an uploaded food photo ready to be sent to the model
type Image struct {
	Data     []byte
	MIMEType string
}

// Analysis is the nutrition breakdown the model returned for one photo, kept
// as decoded JSON. The prompt asks for foods, total, daily_values,
// health_score, health_benefits and healthy_alternatives, but the model's
// values and any extra keys pass through untouched.
type Analysis map[string]interface{}

// List keys that are always present after Normalize
var (
	analysisListKeys = []string{"health_benefits", "healthy_alternatives"}
	foodListKeys     = []string{"allergens", "dietary_labels", "healthy_alternatives", "health_benefits"}
)

// Normalize adds empty lists for list keys that are missing or null so the
// JSON shape is stable. Values the model did send are never rewritten.
func (a Analysis) Normalize() {
	if a["foods"] == nil {
		a["foods"] = []interface{}{}
	}
	fillEmptyLists(a, analysisListKeys)

	foods, ok := a["foods"].([]interface{})
	if !ok {
		return
	}
	for _, food := range foods {
		if obj, ok := food.(map[string]interface{}); ok {
			fillEmptyLists(obj, foodListKeys)
		}
	}
}

func fillEmptyLists(obj map[string]interface{}, keys []string) {
	for _, key := range keys {
		if obj[key] == nil {
			obj[key] = []interface{}{}
		}
	}
}

// Foods returns the identified foods in order
func (a Analysis) Foods() []FoodItem {
	return FoodItems(a["foods"])
}

// FoodItem is a single identified food as seen by scoring
type FoodItem struct {
	Name string `json:"name"`
}

// FoodItems reads a decoded JSON foods list. Entries that are not objects or
// carry no string name become unnamed items; anything that is not a list
// yields no foods.
func FoodItems(v interface{}) []FoodItem {
	list, ok := v.([]interface{})
	if !ok {
		return []FoodItem{}
	}

	foods := make([]FoodItem, 0, len(list))
	for _, entry := range list {
		var item FoodItem
		if obj, ok := entry.(map[string]interface{}); ok {
			if name, ok := obj["name"].(string); ok {
				item.Name = strings.TrimSpace(name)
			}
		}
		foods = append(foods, item)
	}
	return foods
}
