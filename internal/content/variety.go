package content

import (
	"math/rand"
	"strings"
	"sync"
)

// OpeningStyles is the >=10 opening-style template set §4.4 requires
// for variety enforcement. Each entry names a style and a generator
// instruction fragment fed into the provider's task instruction.
var OpeningStyles = []string{
	"question",
	"declarative",
	"fragment",
	"observation",
	"list-opener",
	"confession",
	"callback",
	"hot-take",
	"mundane-detail",
	"rhetorical-question",
	"second-person-address",
	"onomatopoeia",
}

// PickOpeningStyle samples one opening style uniformly.
func PickOpeningStyle(rng *rand.Rand) string {
	return OpeningStyles[rng.Intn(len(OpeningStyles))]
}

// LengthTarget implements §4.4's length bias: with probability 0.6
// target a short post (<100 chars), else allow up to the platform
// limit (240 leaves headroom under the 280 hard cap for post-processing).
func LengthTarget(rng *rand.Rand) int {
	if rng.Float64() < 0.6 {
		return 100
	}
	return 240
}

// Constraint is one of the optional randomized style constraints
// §4.4 names.
type Constraint string

const (
	ConstraintNone               Constraint = ""
	ConstraintNoPunctuation      Constraint = "no_punctuation"
	ConstraintEmojiSurprise      Constraint = "one_emoji_in_surprising_place"
	ConstraintAllLowercase       Constraint = "all_lowercase"
	ConstraintSingleSentence     Constraint = "single_sentence"
)

var constraints = []Constraint{
	ConstraintNoPunctuation,
	ConstraintEmojiSurprise,
	ConstraintAllLowercase,
	ConstraintSingleSentence,
}

// MaybeConstraint draws the optional constraint randomization: with
// probability 0.2, one of the four named constraints is injected.
func MaybeConstraint(rng *rand.Rand) Constraint {
	if rng.Float64() >= 0.2 {
		return ConstraintNone
	}
	return constraints[rng.Intn(len(constraints))]
}

// ConstraintInstruction renders a constraint as an instruction
// fragment for the provider.
func ConstraintInstruction(c Constraint) string {
	switch c {
	case ConstraintNoPunctuation:
		return "Write with no punctuation at all."
	case ConstraintEmojiSurprise:
		return "Include exactly one emoji, placed somewhere unexpected."
	case ConstraintAllLowercase:
		return "Write entirely in lowercase."
	case ConstraintSingleSentence:
		return "Write exactly one sentence."
	default:
		return ""
	}
}

// DefaultMaxResamples bounds the denylist re-sample attempts (§4.4:
// "re-sample up to 3 times; on persistent match, accept anyway and
// log").
const DefaultMaxResamples = 3

// OpeningDenylist tracks the last 20 opening phrases used per agent,
// rejecting re-use to keep self-initiated posts varied.
type OpeningDenylist struct {
	mu      sync.Mutex
	window  int
	recent  map[string][]string // agentID -> recent opening phrases, oldest first
}

// NewOpeningDenylist constructs a tracker with the spec's window of 20.
func NewOpeningDenylist() *OpeningDenylist {
	return &OpeningDenylist{window: 20, recent: make(map[string][]string)}
}

func openingPhrase(content string) string {
	words := strings.Fields(content)
	n := 4
	if len(words) < n {
		n = len(words)
	}
	return strings.ToLower(strings.Join(words[:n], " "))
}

// Matches reports whether content's opening phrase collides with a
// recently used one for agentID.
func (d *OpeningDenylist) Matches(agentID, content string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	phrase := openingPhrase(content)
	for _, p := range d.recent[agentID] {
		if p == phrase {
			return true
		}
	}
	return false
}

// Record appends content's opening phrase to agentID's recent window,
// evicting the oldest entry once the window is exceeded.
func (d *OpeningDenylist) Record(agentID, content string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	phrase := openingPhrase(content)
	list := append(d.recent[agentID], phrase)
	if len(list) > d.window {
		list = list[len(list)-d.window:]
	}
	d.recent[agentID] = list
}
