package feedback

import (
	"fmt"

	model "github.com/earlysignal/backend/internal/model/feedback"
)

// State is the interview question the assistant asked last.
type State int

const (
	StateIntro State = iota
	StateProblem
	StateSolution
	StateMarket
	StateTeam
	StateMilestones
	StateOfferSummary
	StateSummary
	StateFreeform
)

var stateNames = map[State]string{
	StateIntro:        "intro",
	StateProblem:      "problem",
	StateSolution:     "solution",
	StateMarket:       "market",
	StateTeam:         "team",
	StateMilestones:   "milestones",
	StateOfferSummary: "offer_summary",
	StateSummary:      "summary",
	StateFreeform:     "freeform",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a state name.
func (s *State) UnmarshalText(text []byte) error {
	for state, name := range stateNames {
		if name == string(text) {
			*s = state
			return nil
		}
	}
	return fmt.Errorf("unknown dialogue state %q", text)
}

// Event is an input to the dialogue.
type Event int

const (
	EventUserAnswered Event = iota
)

type transitionKey struct {
	From  State
	Event Event
}

// Transition is the outcome of feeding an event to the dialogue.
type Transition struct {
	Next     State
	Reply    string
	Complete bool
}

// Dialogue maps (state, event) pairs to the next state and its scripted reply.
type Dialogue struct {
	script      *model.Script
	transitions map[transitionKey]Transition
}

// NewDialogue builds the transition table from a script.
func NewDialogue(script *model.Script) *Dialogue {
	q := script.Questions
	d := &Dialogue{
		script:      script,
		transitions: make(map[transitionKey]Transition),
	}

	table := []struct {
		from State
		to   Transition
	}{
		{StateIntro, Transition{Next: StateProblem, Reply: q.Problem}},
		{StateProblem, Transition{Next: StateSolution, Reply: q.Solution}},
		{StateSolution, Transition{Next: StateMarket, Reply: q.Market}},
		{StateMarket, Transition{Next: StateTeam, Reply: q.Team}},
		{StateTeam, Transition{Next: StateMilestones, Reply: q.Milestones}},
		{StateMilestones, Transition{Next: StateOfferSummary, Reply: q.OfferSummary}},
		{StateOfferSummary, Transition{Next: StateSummary, Reply: script.SummaryReply(), Complete: true}},
		{StateSummary, Transition{Next: StateFreeform, Reply: script.Fallback}},
		{StateFreeform, Transition{Next: StateFreeform, Reply: script.Fallback}},
	}
	for _, row := range table {
		d.transitions[transitionKey{From: row.from, Event: EventUserAnswered}] = row.to
	}

	return d
}

// Greeting is the opening assistant turn.
func (d *Dialogue) Greeting() string {
	return d.script.Greeting
}

// Next resolves the transition for an event. Unknown pairs stay in place and
// answer with the fallback reply.
func (d *Dialogue) Next(from State, event Event) Transition {
	if t, ok := d.transitions[transitionKey{From: from, Event: event}]; ok {
		return t
	}
	return Transition{Next: from, Reply: d.script.Fallback}
}

// Suggestions returns the canned answers offered while in state s.
func (d *Dialogue) Suggestions(s State) []model.Suggestion {
	items := d.script.Suggestions[s.String()]
	if len(items) == 0 {
		return nil
	}
	return append([]model.Suggestion(nil), items...)
}

// Assessment exposes the scripted final feedback.
func (d *Dialogue) Assessment() model.Assessment {
	return d.script.Assessment
}
