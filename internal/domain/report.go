package domain

// NutritionReport is the four-section report rendered from a nutrition JSON object
type NutritionReport struct {
	FoodsIdentified FoodsSection    `json:"foods_identified"`
	ServingInfo     ServingSection  `json:"serving_info"`
	NutritionFacts  FactsSection    `json:"nutrition_facts"`
	HealthNotes     ConcernsSection `json:"health_notes"`
}

// FoodsSection lists the identified foods
type FoodsSection struct {
	Title string   `json:"title"`
	Items []string `json:"items"`
}

// ServingSection holds the first reported portion
type ServingSection struct {
	Title    string `json:"title"`
	Portions string `json:"portions"`
}

// FactsSection holds calories and macros, already formatted with units
type FactsSection struct {
	Title    string `json:"title"`
	Calories string `json:"calories"`
	Macros   Macros `json:"macros"`
}

// Macros holds preformatted macronutrient amounts such as "12g"
type Macros struct {
	Carbohydrates string `json:"Carbohydrates"`
	Proteins      string `json:"Proteins"`
	Fats          string `json:"Fats"`
}

// ConcernsSection lists dietary concerns
type ConcernsSection struct {
	Title    string   `json:"title"`
	Concerns []string `json:"concerns"`
}
