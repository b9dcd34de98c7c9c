package parser

import "github.com/Rrens/fairway/internal/domain"

// Classifier derives the category and priority of an incident description
type Classifier interface {
	Classify(text string) (domain.Category, domain.Priority)
}

// KeywordClassifier classifies with the keyword lists of DetectCategory and
// DetectPriority
type KeywordClassifier struct{}

// NewKeywordClassifier creates a keyword classifier
func NewKeywordClassifier() KeywordClassifier {
	return KeywordClassifier{}
}

func (KeywordClassifier) Classify(text string) (domain.Category, domain.Priority) {
	return DetectCategory(text), DetectPriority(text)
}
