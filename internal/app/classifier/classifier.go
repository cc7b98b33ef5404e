package classifier

import (
	"strings"

	"github.com/PabloGalante/farum-wellness/internal/domain"
)

// Result is the outcome of classifying one input. Category is always set:
// greetings carry neutral and gratitude carries positive.
type Result struct {
	Intent   Intent
	Category domain.Category
	Tier     string
	Feature  string
}

// IsCrisis reports whether the crisis tier fired.
func (r Result) IsCrisis() bool {
	return r.Category == domain.CategoryCrisis
}

// Classifier scans a Library in order and returns the first matching tier.
// It is safe for concurrent use; the library is never mutated.
type Classifier struct {
	library Library
}

// New returns a classifier over lib, or over the default library when lib is empty.
func New(lib Library) *Classifier {
	if len(lib) == 0 {
		lib = DefaultLibrary()
	}
	return &Classifier{library: lib}
}

// Normalize lower-cases and trims text the same way every rule expects.
func Normalize(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}

// Classify always returns exactly one result; neutral when nothing matches.
func (c *Classifier) Classify(text string) Result {
	normalized := Normalize(text)

	for _, tier := range c.library {
		if ok, feature := tier.match(normalized); ok {
			return Result{
				Intent:   tier.Intent,
				Category: tier.Category,
				Tier:     tier.Name,
				Feature:  feature,
			}
		}
	}

	return Result{
		Intent:   IntentCategory,
		Category: domain.CategoryNeutral,
		Tier:     TierNeutral,
	}
}
