package responder

import (
	"slices"

	"github.com/PabloGalante/farum-wellness/internal/domain"
)

// Pool is the configured set of replies for one category or intent.
// FollowUps and FollowUpTemplate are mutually exclusive; both may be empty.
type Pool struct {
	Responses []string
	FollowUps []string
	// FollowUpTemplate takes the matched feature name as its only %s verb.
	FollowUpTemplate string
}

func (p Pool) clone() Pool {
	p.Responses = slices.Clone(p.Responses)
	p.FollowUps = slices.Clone(p.FollowUps)
	return p
}

// HasFollowUp reports whether the pool ever produces a follow-up.
func (p Pool) HasFollowUp() bool {
	return len(p.FollowUps) > 0 || p.FollowUpTemplate != ""
}

const (
	CrisisResponse = "I'm really sorry you're feeling this way, and I'm glad you told me. " +
		"Your safety matters most right now, and you deserve support from a real person who can help."
	HelplineFollowUp = "Please reach out right now: call or text 988 (Suicide & Crisis Lifeline, US), " +
		"or your local emergency number. If you are outside the US, findahelpline.com lists free, confidential lines near you."
)

var copingStrategies = []string{
	"Try box breathing: breathe in for 4 seconds, hold for 4, out for 4, hold for 4. Repeat it a few times.",
	"A quick grounding exercise: name 5 things you can see, 4 you can touch, 3 you can hear, 2 you can smell and 1 you can taste.",
	"Write the worry down, then next to it write one small thing within your control today.",
	"Step away for a 10 minute walk, and pay attention to your feet touching the ground.",
	"Relax your shoulders and jaw, then slowly breathe out for longer than you breathe in.",
}

var selfCare = []string{
	"Would it help to do one small kind thing for yourself today, like a glass of water, a shower or some fresh air?",
	"Is there someone you trust you could send a short message to today?",
	"Writing a few lines in your journal about how today felt can make it a little lighter. Want to try?",
	"Logging your mood each day can help you notice patterns over time. Would you like to add one now?",
}

var calming = []string{
	"Before reacting, try counting slowly to ten while breathing out through your mouth.",
	"Moving your body can burn off some of that energy: a brisk walk or a few stretches.",
	"It can help to write out everything you're angry about, without filtering, and then decide what needs action.",
	"Try naming the feeling underneath the anger. Is it hurt, disappointment or feeling unheard?",
}

var greetings = []string{
	"Hi, I'm Farum. How are you feeling today?",
	"Hello! I'm here to listen. What's on your mind?",
	"Hey there, welcome back. How has your day been so far?",
	"Hi! I'm glad you're here. Would you like to talk about how you're feeling?",
}

var gratitude = []string{
	"You're very welcome. I'm always here when you need to talk.",
	"I'm glad I could help. Take good care of yourself.",
	"Anytime. Remember to be gentle with yourself today.",
}

var pools = map[domain.Category]Pool{
	domain.CategoryCrisis: {
		Responses: []string{CrisisResponse},
		FollowUps: []string{HelplineFollowUp},
	},
	domain.CategorySpecificFeature: {
		Responses: []string{
			"Great question! Farum has a few tools to support you: mood tracking, a private journal, reminders, badges and this chat.",
			"Happy to explain how things work here.",
		},
		FollowUpTemplate: "Would you like me to walk you through how the %s works?",
	},
	domain.CategoryWebsiteHelp: {
		Responses: []string{
			"Farum is a wellness companion. You can log your mood, write journal entries, set reminders, earn badges and talk with me anytime.",
			"I'm Farum, a space to check in with yourself. You can track moods, journal your thoughts and chat with me when you need support.",
		},
	},
	domain.CategoryCopingStrategies: {
		Responses: copingStrategies,
	},
	domain.CategorySituationalHelp: {
		Responses: []string{
			"That sounds like a tough situation. It might help to break it into smaller parts. What feels most urgent right now?",
			"Let's think it through together. What outcome would feel okay to you?",
			"It's normal to feel unsure about what to do. What options have you considered so far?",
		},
	},
	domain.CategorySeekingHelp: {
		Responses: []string{
			"I'm here for you. Tell me what's going on, and take your time.",
			"Thank you for reaching out, that takes courage. What would help most right now?",
			"I'm listening. What's been weighing on you?",
		},
	},
	domain.CategoryDepression: {
		Responses: []string{
			"I'm sorry you're feeling this way. It's okay to not be okay, and you don't have to go through it alone.",
			"That sounds really heavy. Thank you for sharing it with me.",
			"I hear you. Feeling low can be exhausting. What has today been like for you?",
		},
		FollowUps: selfCare,
	},
	domain.CategoryAnxiety: {
		Responses: []string{
			"It sounds like you're carrying a lot of worry right now. That's a really hard feeling.",
			"Anxiety can feel overwhelming, but it does pass. Let's slow things down together.",
			"It makes sense that you feel anxious. You're not alone in this.",
		},
		FollowUps: copingStrategies,
	},
	domain.CategoryAnger: {
		Responses: []string{
			"It sounds like something really got to you. Anger is a valid feeling.",
			"That sounds frustrating. Do you want to tell me more about what happened?",
			"It's okay to feel angry. Let's find a way to let some of it out safely.",
		},
		FollowUps: calming,
	},
	domain.CategoryPositive: {
		Responses: []string{
			"That's wonderful to hear! What made today feel good?",
			"I love hearing that. Hold on to this feeling.",
			"That's great! Celebrating good moments matters.",
		},
	},
	domain.CategoryNeutral: {
		Responses: []string{
			"Thank you for sharing. Can you tell me more?",
			"I'm listening. How does that make you feel?",
			"Got it. What else is on your mind?",
		},
	},
}

// PoolFor returns a copy of the pool configured for category c.
func PoolFor(c domain.Category) (Pool, bool) {
	p, ok := pools[c]
	if !ok {
		return Pool{}, false
	}
	return p.clone(), true
}

// GreetingPool and GratitudePool back the two non-category branches.
func GreetingPool() Pool  { return Pool{Responses: slices.Clone(greetings)} }
func GratitudePool() Pool { return Pool{Responses: slices.Clone(gratitude)} }
