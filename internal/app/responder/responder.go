package responder

import (
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/PabloGalante/farum-wellness/internal/app/classifier"
	"github.com/PabloGalante/farum-wellness/internal/domain"
)

// Source is the random source used to pick candidates. *rand.Rand satisfies it.
type Source interface {
	IntN(n int) int
}

// Response is a primary reply plus an optional follow-up ("" when absent).
type Response struct {
	Primary  string
	FollowUp string
}

// HasFollowUp reports whether a follow-up was produced.
func (r Response) HasFollowUp() bool { return r.FollowUp != "" }

// Generator turns a classification into a reply. It does no I/O.
type Generator struct {
	mu  sync.Mutex
	src Source
}

// New returns a Generator over src. A nil src uses a randomly seeded PCG.
func New(src Source) *Generator {
	if src == nil {
		src = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Generator{src: src}
}

// Respond picks a primary reply and, when the pool defines one, a follow-up.
func (g *Generator) Respond(res classifier.Result) Response {
	pool := g.poolFor(res)

	out := Response{Primary: g.pick(pool.Responses)}
	switch {
	case pool.FollowUpTemplate != "":
		feature := res.Feature
		if feature == "" {
			feature = "app"
		}
		out.FollowUp = fmt.Sprintf(pool.FollowUpTemplate, feature)
	case len(pool.FollowUps) > 0:
		out.FollowUp = g.pick(pool.FollowUps)
	}
	return out
}

func (g *Generator) poolFor(res classifier.Result) Pool {
	switch res.Intent {
	case classifier.IntentGreeting:
		return GreetingPool()
	case classifier.IntentGratitude:
		return GratitudePool()
	}
	if p, ok := PoolFor(res.Category); ok {
		return p
	}
	p, _ := PoolFor(domain.CategoryNeutral)
	return p
}

func (g *Generator) pick(candidates []string) string {
	if len(candidates) == 0 {
		return ""
	}
	g.mu.Lock()
	i := g.src.IntN(len(candidates))
	g.mu.Unlock()
	return candidates[i]
}
