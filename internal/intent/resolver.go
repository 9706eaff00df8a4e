package intent

import (
	"fmt"
	"strings"
	"sync"
)

// CategoryUnknown is assigned when no category scores above the threshold.
const CategoryUnknown = "unknown"

// defaultThreshold is the minimum fractional keyword score a category needs
// to win.
const defaultThreshold = 0.15

// Classification is the result of classifying one utterance.
type Classification struct {
	Category   string  `json:"category"`
	Confidence float32 `json:"confidence"`
}

// category couples a label with its keyword list.
type category struct {
	name     string
	keywords []string
}

// categories are checked in order; the highest fractional keyword match wins.
var categories = []category{
	{"requirements", []string{"requirement", "eligibility", "criteria"}},
	{"deadline", []string{"deadline", "last date", "timeline"}},
	{"fee", []string{"fee", "cost", "payment", "charge"}},
	{"process", []string{"apply", "application", "process", "online"}},
	{"documents", []string{"document", "documents", "papers", "certificates"}},
	{"greeting", []string{"hello", "hi", "hey"}},
}

// responses maps each category to its canned answer.
var responses = map[string]string{
	"requirements": "You need to have completed 12th grade with minimum 75% marks and pass the entrance exam.",
	"deadline":     "The admission deadline is March 31st, 2026.",
	"fee":          "The application fee is $50 for domestic students and $100 for international students.",
	"process":      "Visit our official website, create an account, fill the application form, and submit required documents.",
	"documents":    "You need transcripts, ID proof, passport photo, and entrance exam scorecard.",
	"greeting":     "Hello! I'm your admission assistant. How can I help you today?",
}

// fallbackResponse is spoken for unknown categories.
const fallbackResponse = "I'm sorry, I didn't understand your question. Please ask about admissions, requirements, deadlines, fees, or application process."

// ResolverStats is a snapshot of resolver counters.
type ResolverStats struct {
	Resolved       uint64  `json:"resolved"`
	Unknown        uint64  `json:"unknown"`
	UnknownPercent float64 `json:"unknown_percent"`
}

// Resolver classifies utterance text and returns the response to speak.
type Resolver struct {
	threshold float32

	resolved uint64
	unknown  uint64

	mu sync.Mutex
}

// NewResolver creates a resolver. A zero threshold selects the default
// cutoff.
func NewResolver(threshold float32) (*Resolver, error) {
	if threshold < 0 || threshold > 1 {
		return nil, fmt.Errorf("threshold must be between 0 and 1, got %f", threshold)
	}
	if threshold == 0 {
		threshold = defaultThreshold
	}

	return &Resolver{threshold: threshold}, nil
}

// Classify scores the text against every keyword table and returns the best
// category. Scores below the threshold collapse to unknown.
func (r *Resolver) Classify(text string) Classification {
	normalized := strings.ToLower(text)

	best := Classification{Category: CategoryUnknown}
	for _, c := range categories {
		hits := 0
		for _, kw := range c.keywords {
			if strings.Contains(normalized, kw) {
				hits++
			}
		}
		score := float32(hits) / float32(len(c.keywords))
		if score > best.Confidence {
			best.Category = c.name
			best.Confidence = score
		}
	}

	if best.Confidence < r.threshold {
		best.Category = CategoryUnknown
	}

	return best
}

// ResponseFor returns the canned response for a category, or the fallback
// for an unknown one.
func ResponseFor(category string) string {
	if resp, ok := responses[category]; ok {
		return resp
	}
	return fallbackResponse
}

// Resolve classifies the text and returns the classification together with
// the response to speak.
func (r *Resolver) Resolve(text string) (Classification, string) {
	result := r.Classify(text)

	r.mu.Lock()
	r.resolved++
	if result.Category == CategoryUnknown {
		r.unknown++
	}
	r.mu.Unlock()

	return result, ResponseFor(result.Category)
}

// GetStats returns a snapshot of resolver counters.
func (r *Resolver) GetStats() ResolverStats {
	r.mu.Lock()
	defer r.mu.Unlock()

	pct := float64(0)
	if r.resolved > 0 {
		pct = float64(r.unknown) / float64(r.resolved) * 100
	}

	return ResolverStats{
		Resolved:       r.resolved,
		Unknown:        r.unknown,
		UnknownPercent: pct,
	}
}
