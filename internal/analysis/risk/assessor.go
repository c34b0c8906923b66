package risk

import (
	"regexp"
	"strings"
)

// Level is the coarse risk classification of a single message.
type Level string

const (
	None    Level = "none"
	Concern Level = "concern"
	Crisis  Level = "crisis"
)

const (
	ReasonCrisis  = "matched crisis pattern"
	ReasonConcern = "detected distress terms"
)

// Assessment is the result of screening one inbound user message.
type Assessment struct {
	Risk   Level  `json:"risk"`
	Reason string `json:"reason,omitempty"`
}

// crisisPatterns are matched as case-insensitive substrings, not whole words.
// Over-flagging (quoted lyrics, "suicide prevention") is accepted.
var crisisPatterns = []string{
	`kill myself`,
	`end my life`,
	`suicide`,
	`die by suicide`,
	`i don'?t want to live`,
	`hurt myself`,
	`self[- ]?harm`,
	`cutting myself`,
	`overdose`,
	`harm others`,
	`kill (him|her|them)`,
}

var crisisRe = regexp.MustCompile(`(?i)` + strings.Join(crisisPatterns, "|"))

var concernTerms = []string{
	"hopeless",
	"worthless",
	"can't cope",
	"cant cope",
	"overwhelmed",
}

// Assess classifies text. Crisis patterns take priority over distress terms.
func Assess(text string) Assessment {
	if strings.TrimSpace(text) == "" {
		return Assessment{Risk: None}
	}

	if crisisRe.MatchString(normalizeQuotes(text)) {
		return Assessment{Risk: Crisis, Reason: ReasonCrisis}
	}

	lowered := strings.ToLower(normalizeQuotes(text))
	for _, term := range concernTerms {
		if strings.Contains(lowered, term) {
			return Assessment{Risk: Concern, Reason: ReasonConcern}
		}
	}

	return Assessment{Risk: None}
}

// IsCrisis reports whether the assessment should surface the safety banner.
func (a Assessment) IsCrisis() bool {
	return a.Risk == Crisis
}

// normalizeQuotes folds typographic apostrophes so "can’t" matches "can't".
func normalizeQuotes(text string) string {
	return strings.NewReplacer("’", "'", "‘", "'").Replace(text)
}
