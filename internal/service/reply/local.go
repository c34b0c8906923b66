package reply

import (
	"math/rand/v2"
	"strings"

	"github.com/zhouzirui/soothe/backend/internal/model/chat"
)

// Openers, Suggestions and Questions are the pools the local generator
// composes a reply from: one of each, in that order.
var (
	Openers = []string{
		"Thanks for sharing that. I hear how tough this feels.",
		"I’m really glad you told me — that took courage.",
		"I hear you. That sounds heavy to carry.",
	}
	Suggestions = []string{
		"Would a quick 1–2 minute breathing reset help right now?",
		"We can try a tiny next step, like writing down one worry and one thing you can control.",
		"If you like, I can share a grounding exercise that uses the five senses.",
	}
	Questions = []string{
		"What would feel most supportive in this moment?",
		"Do you want to talk it through, try a skill, or both?",
		"What’s one small thing that might ease this by 5%?",
	}
)

// Picker chooses an index in [0, n). *rand.Rand satisfies it.
type Picker interface {
	IntN(n int) int
}

// LocalGenerator composes canned empathetic replies. It ignores the
// conversation content; the pools already carry the intended tone.
type LocalGenerator struct {
	picker Picker
}

// NewLocalGenerator returns a generator drawing from picker, or from the
// process-wide source when picker is nil.
func NewLocalGenerator(picker Picker) *LocalGenerator {
	if picker == nil {
		picker = globalPicker{}
	}
	return &LocalGenerator{picker: picker}
}

// Generate draws one opener, one suggestion and one question independently.
func (g *LocalGenerator) Generate(_ chat.Conversation) string {
	return strings.Join([]string{
		g.pick(Openers),
		g.pick(Suggestions),
		g.pick(Questions),
	}, " ")
}

func (g *LocalGenerator) pick(pool []string) string {
	return pool[g.picker.IntN(len(pool))]
}

type globalPicker struct{}

func (globalPicker) IntN(n int) int {
	return rand.IntN(n)
}
