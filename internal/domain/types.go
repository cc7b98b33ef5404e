package domain

import "time"

type SessionID string
type UserID string
type MessageID string

type Role string

const (
	RoleUser Role = "user"
	RoleBot  Role = "bot"
)

// Category is the single emotional/intent label assigned to one user message.
type Category string

const (
	CategoryCrisis           Category = "crisis"
	CategoryWebsiteHelp      Category = "website_help"
	CategorySpecificFeature  Category = "specific_feature"
	CategoryCopingStrategies Category = "coping_strategies"
	CategorySituationalHelp  Category = "situational_help"
	CategorySeekingHelp      Category = "seeking_help"
	CategoryDepression       Category = "depression"
	CategoryAnxiety          Category = "anxiety"
	CategoryAnger            Category = "anger"
	CategoryPositive         Category = "positive"
	CategoryNeutral          Category = "neutral"
)

// Categories lists every category in classification priority order.
var Categories = []Category{
	CategoryCrisis,
	CategorySpecificFeature,
	CategoryWebsiteHelp,
	CategoryCopingStrategies,
	CategorySituationalHelp,
	CategorySeekingHelp,
	CategoryDepression,
	CategoryAnxiety,
	CategoryAnger,
	CategoryPositive,
	CategoryNeutral,
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

type Timestamp = time.Time
