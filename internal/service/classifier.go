package service

import "strings"

type keywordCategory struct {
	keyword  string
	category string
}

// eventKeywords is ordered; Classify returns categories in this order.
var eventKeywords = []keywordCategory{
	{"wedding", "Wedding Planning"},
	{"corporate", "Corporate Event"},
	{"birthday", "Birthday Party"},
	{"conference", "Conference"},
	{"meeting", "Business Meeting"},
	{"party", "Social Party"},
	{"venue", "Venue Booking"},
	{"catering", "Catering Services"},
	{"entertainment", "Entertainment"},
	{"photography", "Photography Services"},
}

// Classify returns the event categories whose keyword occurs anywhere in text, ignoring case.
// Each category appears at most once. The result is never nil.
func Classify(text string) []string {
	lower := strings.ToLower(text)
	categories := make([]string, 0, len(eventKeywords))
	for _, kc := range eventKeywords {
		if strings.Contains(lower, kc.keyword) {
			categories = append(categories, kc.category)
		}
	}
	return categories
}
