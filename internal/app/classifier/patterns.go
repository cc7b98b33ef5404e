package classifier

import (
	"regexp"
	"strings"

	"github.com/PabloGalante/farum-wellness/internal/domain"
)

// Intent separates real categories from the two conversational branches
// (greeting, gratitude) that are answered directly.
type Intent string

const (
	IntentCategory  Intent = "category"
	IntentGreeting  Intent = "greeting"
	IntentGratitude Intent = "gratitude"
)

// Tier names, in priority order.
const (
	TierCrisis      = "crisis"
	TierGreeting    = "greeting"
	TierFeature     = "specific_feature"
	TierWebsite     = "website_help"
	TierCoping      = "coping_strategies"
	TierSituational = "situational_help"
	TierSeekingHelp = "seeking_help"
	TierDepression  = "depression"
	TierAnxiety     = "anxiety"
	TierAnger       = "anger"
	TierPositive    = "positive"
	TierGratitude   = "gratitude"
	TierNeutral     = "neutral"
)

// Rule is a single substring or regular-expression test against normalized
// (lower-cased, trimmed) input.
type Rule struct {
	Substring string
	Pattern   *regexp.Regexp
	// Feature is the display name interpolated into feature follow-ups.
	Feature string
}

// Contains builds a substring rule.
func Contains(s string) Rule { return Rule{Substring: s} }

// Regexp builds a regular-expression rule. It panics on an invalid expression.
func Regexp(expr string) Rule { return Rule{Pattern: regexp.MustCompile(expr)} }

// FeatureRule builds a regular-expression rule that names a product feature.
func FeatureRule(name, expr string) Rule {
	return Rule{Pattern: regexp.MustCompile(expr), Feature: name}
}

func (r Rule) Match(text string) bool {
	if r.Pattern != nil {
		return r.Pattern.MatchString(text)
	}
	return r.Substring != "" && strings.Contains(text, r.Substring)
}

// Tier is one priority level of the library. A tier matches when its Detect
// func (if any) fires, or when its Guard (if any) matches and then one of its
// Rules matches, first in declaration order.
type Tier struct {
	Name     string
	Intent   Intent
	Category domain.Category

	MatchEmpty bool
	Detect     func(normalized string) bool
	Guard      *regexp.Regexp
	Rules      []Rule
}

func (t Tier) match(normalized string) (bool, string) {
	if t.Detect != nil && t.Detect(normalized) {
		return true, ""
	}
	if t.MatchEmpty && normalized == "" {
		return true, ""
	}
	if t.Guard != nil && !t.Guard.MatchString(normalized) {
		return false, ""
	}
	for _, r := range t.Rules {
		if r.Match(normalized) {
			return true, r.Feature
		}
	}
	return false, ""
}

// Library is an ordered, immutable list of tiers.
type Library []Tier

// questionCue gates the feature tier: a literal question mark, a question
// opener, or an explicit request to explain.
var questionCue = regexp.MustCompile(`\?|^(how|what|where|when|can|could|does|do|is)\b|\b(tell me|explain|show me)\b`)

var defaultLibrary = Library{
	{
		Name:     TierCrisis,
		Intent:   IntentCategory,
		Category: domain.CategoryCrisis,
		Detect:   IsCrisis,
	},
	{
		Name:       TierGreeting,
		Intent:     IntentGreeting,
		Category:   domain.CategoryNeutral,
		MatchEmpty: true,
		Rules: []Rule{
			Regexp(`^(hi|hello|hey|hiya|howdy|greetings|yo)\b`),
			Regexp(`^good (morning|afternoon|evening)\b`),
		},
	},
	{
		Name:     TierFeature,
		Intent:   IntentCategory,
		Category: domain.CategorySpecificFeature,
		Guard:    questionCue,
		Rules: []Rule{
			FeatureRule("mood tracker", `\bmood (tracker|tracking|log|logging|history|chart)\b|\btrack(ing)? my moods?\b`),
			FeatureRule("journal", `\bjournal(s|ing)?\b|\bdiary\b`),
			FeatureRule("reminders", `\breminders?\b`),
			FeatureRule("badges", `\b(badges?|achievements?)\b`),
			FeatureRule("chat", `\bchat(bot)?\b`),
		},
	},
	{
		Name:     TierWebsite,
		Intent:   IntentCategory,
		Category: domain.CategoryWebsiteHelp,
		Rules: []Rule{
			Contains("this app"),
			Contains("this website"),
			Contains("this site"),
			Contains("this platform"),
			Contains("what is farum"),
			Contains("about farum"),
			Contains("what can you do"),
			Contains("what do you do"),
			Contains("how does this work"),
			Contains("who are you"),
			Contains("what are you"),
		},
	},
	{
		Name:     TierCoping,
		Intent:   IntentCategory,
		Category: domain.CategoryCopingStrategies,
		Rules: []Rule{
			Regexp(`\bcop(e|ing)\b`),
			Contains("calm down"),
			Contains("relax"),
			Contains("breathing"),
			Contains("meditat"),
			Contains("grounding"),
			Contains("self care"),
			Contains("self-care"),
			Regexp(`\b(strateg(y|ies)|techniques?|tips)\b`),
			Regexp(`\bmanage (my )?stress\b`),
		},
	},
	{
		Name:     TierSituational,
		Intent:   IntentCategory,
		Category: domain.CategorySituationalHelp,
		Rules: []Rule{
			Contains("what should i do"),
			Contains("what do i do"),
			Contains("what would you do"),
			Regexp(`\badvice\b`),
			Regexp(`\bhow (do|can|should) i (deal with|handle|get through|cope with)\b`),
			Contains("how to deal with"),
			Contains("how to handle"),
			Regexp(`^should i\b`),
		},
	},
	{
		Name:     TierSeekingHelp,
		Intent:   IntentCategory,
		Category: domain.CategorySeekingHelp,
		Rules: []Rule{
			Contains("help me"),
			Contains("need help"),
			Contains("can you help"),
			Contains("please help"),
			Contains("someone to talk to"),
			Contains("need to talk"),
			Contains("need support"),
			Contains("listen to me"),
		},
	},
	{
		Name:     TierDepression,
		Intent:   IntentCategory,
		Category: domain.CategoryDepression,
		Rules: []Rule{
			Regexp(`\b(sad|sadness|depressed|depression|depressing|hopeless|empty|lonely|alone|worthless|miserable|unhappy|crying|cry|down|numb|heartbroken|grief|grieving)\b`),
			Regexp(`\bnot (feeling )?(good|great|okay|ok|well|fine)\b`),
			Regexp(`\bfeel(ing)? (low|blue)\b`),
		},
	},
	{
		Name:     TierAnxiety,
		Intent:   IntentCategory,
		Category: domain.CategoryAnxiety,
		Rules: []Rule{
			Regexp(`\b(anxious|anxiety|worried|worry|worrying|nervous|panic|panicking|stressed|stress|stressful|overwhelmed|scared|afraid|fear|tense|restless)\b`),
			Contains("on edge"),
		},
	},
	{
		Name:     TierAnger,
		Intent:   IntentCategory,
		Category: domain.CategoryAnger,
		Rules: []Rule{
			Regexp(`\b(angry|anger|mad|furious|frustrated|frustrating|annoyed|irritated|pissed|rage|hate|resent)\b`),
		},
	},
	{
		Name:     TierPositive,
		Intent:   IntentCategory,
		Category: domain.CategoryPositive,
		Rules: []Rule{
			Regexp(`\b(happy|glad|great|good|better|wonderful|amazing|awesome|excited|joy|joyful|proud|relieved|fantastic|calm|peaceful|content|hopeful)\b`),
		},
	},
	{
		Name:     TierGratitude,
		Intent:   IntentGratitude,
		Category: domain.CategoryPositive,
		Rules: []Rule{
			Regexp(`\b(thanks|thank you|thank u|thx|ty|appreciate it|appreciate you)\b`),
		},
	},
}

// DefaultLibrary returns the built-in tier table. The neutral fallback is not a
// tier; it is what Classify returns when nothing matches.
func DefaultLibrary() Library {
	out := make(Library, len(defaultLibrary))
	copy(out, defaultLibrary)
	return out
}
