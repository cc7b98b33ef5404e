package classifier

import (
	"strings"
	"unicode"
)

// crisisPhrases is matched as plain substrings against both the lower-cased
// text and its punctuation-free form. Keep this list broad: a false positive
// costs a helpline message, a false negative costs far more.
var crisisPhrases = []string{
	"kill myself",
	"killing myself",
	"suicide",
	"suicidal",
	"end my life",
	"ending my life",
	"end my own life",
	"take my life",
	"taking my life",
	"ending things",
	"end things",
	"end it all",
	"take my own life",
	"taking my own life",
	"want to die",
	"wanna die",
	"wish i was dead",
	"wish i were dead",
	"better off dead",
	"no reason to live",
	"nothing to live for",
	"dont want to live",
	"do not want to live",
	"dont want to be alive",
	"do not want to be alive",
	"dont want to be here",
	"do not want to be here",
	"wish i could die",
	"want to be dead",
	"no point in living",
	"no point living",
	"not worth living",
	"self harm",
	"selfharm",
	"harm myself",
	"hurt myself",
	"hurting myself",
	"cut myself",
	"cutting myself",
	"overdose",
}

// crisisWords are too short to match as substrings; they must appear as whole
// words in the flattened text.
var crisisWords = []string{
	"kms",
	"kys",
}

// IsCrisis reports whether text contains any self-harm indicator.
func IsCrisis(text string) bool {
	lower := strings.ToLower(text)
	flat := flatten(lower)
	for _, p := range crisisPhrases {
		if strings.Contains(lower, p) || strings.Contains(flat, p) {
			return true
		}
	}
	padded := " " + flat + " "
	for _, w := range crisisWords {
		if strings.Contains(padded, " "+w+" ") {
			return true
		}
	}
	return false
}

// flatten drops apostrophes, turns other punctuation into spaces and collapses
// whitespace, so "don't  want-to live" becomes "dont want to live".
func flatten(s string) string {
	mapped := strings.Map(func(r rune) rune {
		switch {
		case r == '\'' || r == '’':
			return -1
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			return r
		default:
			return ' '
		}
	}, s)
	return strings.Join(strings.Fields(mapped), " ")
}
