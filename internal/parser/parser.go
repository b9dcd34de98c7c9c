// Package parser extracts incident fields from free-text messages using
// keyword and pattern heuristics.
package parser

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/Rrens/fairway/internal/domain"
	"github.com/google/uuid"
)

const (
	minHole = 1
	maxHole = 18
)

// Tried in order. The bare number comes last because it also matches
// unrelated digits in free text.
var holePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)trou\s*(\d+)`),
	regexp.MustCompile(`(?i)t\s*(\d+)`),
	regexp.MustCompile(`(?i)\b(\d+)\s*(?:ème|er|e)?\s*trou`),
	regexp.MustCompile(`\b(\d{1,2})\b`),
}

// ExtractHoleNumber returns the first hole number in [1,18] found by the
// hole patterns, or false when none matches.
func ExtractHoleNumber(text string) (int, bool) {
	for _, p := range holePatterns {
		m := p.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if n >= minHole && n <= maxHole {
			return n, true
		}
	}
	return 0, false
}

type categoryKeywords struct {
	category domain.Category
	keywords []string
}

// Order matters: the first category with a hit wins.
var categories = []categoryKeywords{
	{domain.CategoryWatering, []string{"arrosage", "arrose", "eau", "fuite", "irrigation", "sprinkler", "goutte", "humidité"}},
	{domain.CategoryMowing, []string{"tonte", "tondeuse", "herbe", "gazon", "pelouse", "coupe", "tondre", "hauteur"}},
	{domain.CategoryBunker, []string{"bunker", "sable", "trap", "fosse", "dune", "sableux"}},
	{domain.CategorySignage, []string{"signal", "panneau", "indication", "flèche", "direction", "marqueur", "drapeau"}},
}

// DetectCategory returns the first category whose keywords appear in text
func DetectCategory(text string) domain.Category {
	lower := strings.ToLower(text)
	for _, c := range categories {
		if containsAny(lower, c.keywords) {
			return c.category
		}
	}
	return domain.CategoryOther
}

var (
	criticalKeywords = []string{"urgent", "critique", "grave", "immédiat", "danger"}
	highKeywords     = []string{"important", "priorité", "rapide", "vite"}
	lowKeywords      = []string{"mineur", "léger", "petit", "faible"}
)

// DetectPriority checks keyword tiers from most to least severe; the first
// tier with a hit wins.
func DetectPriority(text string) domain.Priority {
	lower := strings.ToLower(text)
	switch {
	case containsAny(lower, criticalKeywords):
		return domain.PriorityCritical
	case containsAny(lower, highKeywords):
		return domain.PriorityHigh
	case containsAny(lower, lowKeywords):
		return domain.PriorityLow
	}
	return domain.PriorityMedium
}

// ExtractCourseName returns the id of the course whose name appears in text.
// When several names match, the longest one wins; ties go to the first course
// in the list.
func ExtractCourseName(text string, courses []domain.Course) (uuid.UUID, bool) {
	lower := strings.ToLower(text)

	var best uuid.UUID
	longest := 0
	for _, c := range courses {
		name := strings.ToLower(strings.TrimSpace(c.Name))
		if name == "" {
			continue
		}
		n := utf8.RuneCountInString(name)
		if n > longest && strings.Contains(lower, name) {
			best = c.ID
			longest = n
		}
	}
	return best, longest > 0
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
