// Package category assigns activities to a closed category set using
// keyword rules. Recomputable and deterministic: the same text always
// yields the same category.
package category

import (
	"strings"

	"github.com/Xuzii/ai-vision-assistant/internal/models"
)

var categoryRules = map[models.Category][]string{
	models.CategoryProductivity: {
		"working", "laptop", "computer", "typing", "desk", "office",
		"video call", "meeting", "call", "reading documents", "studying",
		"writing", "coding", "programming", "email",
	},
	models.CategoryHealth: {
		"exercise", "workout", "yoga", "running", "stretching", "gym",
		"jogging", "walking", "cycling", "sports", "fitness",
	},
	models.CategoryEntertainment: {
		"tv", "television", "watching", "movie", "gaming", "game",
		"relaxing on couch", "reading", "music", "listening",
	},
	models.CategorySocial: {
		"conversation", "talking", "chatting", "gathering", "party",
		"eating together", "dinner together", "lunch together",
	},
	models.CategoryOther: {
		"cooking", "cleaning", "washing", "dishes", "laundry",
		"eating", "breakfast", "lunch", "dinner", "coffee",
		"getting ready", "bathroom", "shower", "sleeping",
	},
}

// Categorize matches activity and detail text against the keyword rules
// and returns the best category with a confidence in [0,1]. Text with no
// matches falls back to Other at low confidence.
func Categorize(activityText, detailsText string) (models.Category, float64) {
	if activityText == "" {
		return models.CategoryOther, 0.0
	}

	text := strings.ToLower(activityText + " " + detailsText)

	var (
		best      models.Category
		bestScore int
	)
	for _, cat := range models.Categories() {
		score := 0
		for _, keyword := range categoryRules[cat] {
			if strings.Contains(text, keyword) {
				score++
			}
		}
		if score > bestScore {
			best = cat
			bestScore = score
		}
	}

	if bestScore == 0 {
		return models.CategoryOther, 0.3
	}

	// More keyword hits mean higher confidence, capped at 0.95.
	confidence := 0.5 + 0.15*float64(bestScore)
	if confidence > 0.95 {
		confidence = 0.95
	}
	return best, confidence
}
