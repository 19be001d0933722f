package usecase

import "fmt"

// analysisPrompt asks the model for the fixed nutrition JSON schema
const analysisPrompt = `Analyze this food image and provide ONLY a JSON object with the following information:
{
    "foods": [{
        "name": "food name",
        "confidence": "confidence percentage",
        "origin": "cultural origin and brief description",
        "position": {"x": 0, "y": 0, "width": 0, "height": 0},
        "nutrition": {
            "calories": 0,
            "carbs": 0,
            "proteins": 0,
            "fats": 0,
            "serving_size": "portion description",
            "serving_multiplier": 1
        },
        "allergens": ["list of allergens"],
        "dietary_labels": ["list of dietary labels"],
        "healthy_alternatives": ["list of suggestions"],
        "health_benefits": ["list of health benefits"]
    }],
    "total": {
        "calories": 0,
        "carbs": 0,
        "proteins": 0,
        "fats": 0
    },
    "daily_values": {
        "calorie_percentage": 0
    },
    "health_score": 0,
    "health_benefits": ["list of positive aspects"],
    "healthy_alternatives": ["list of improvement suggestions"]
}`

func culturalInfoPrompt(foodName string) string {
	return fmt.Sprintf("Provide cultural and historical information about %s in 2-3 sentences.", foodName)
}
