package feedback

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	model "github.com/earlysignal/backend/internal/model/feedback"
	"github.com/earlysignal/backend/pkg/scheduler"
)

const (
	DefaultReplyDelay      = 1500 * time.Millisecond
	DefaultCompletionDelay = time.Second
)

// SubmitResult reports what happened to a founder message.
type SubmitResult int

const (
	SubmitAccepted SubmitResult = iota
	SubmitIgnoredEmpty
	SubmitIgnoredPending
	SubmitIgnoredClosed
	SubmitIgnoredNoSuggestion
)

func (r SubmitResult) String() string {
	switch r {
	case SubmitAccepted:
		return "accepted"
	case SubmitIgnoredEmpty:
		return "empty"
	case SubmitIgnoredPending:
		return "pending"
	case SubmitIgnoredClosed:
		return "closed"
	case SubmitIgnoredNoSuggestion:
		return "no_suggestion"
	default:
		return "unknown"
	}
}

// Accepted reports whether the message was appended.
func (r SubmitResult) Accepted() bool {
	return r == SubmitAccepted
}

// Options tunes a Conversation. Zero values fall back to defaults.
type Options struct {
	Scheduler       scheduler.Scheduler
	ReplyDelay      time.Duration
	CompletionDelay time.Duration
	// OnComplete receives the final transcript once the assessment was given.
	OnComplete func(transcript []model.Turn)
	NewID      func() string
}

// Snapshot is a consistent copy of the conversation for rendering.
type Snapshot struct {
	Transcript  []model.Turn       `json:"transcript"`
	State       State              `json:"state"`
	Pending     bool               `json:"pending"`
	Completed   bool               `json:"completed"`
	Suggestions []model.Suggestion `json:"suggestions"`
}

// Conversation drives one scripted investor interview. It starts idle with
// the greeting, appends one assistant turn a fixed delay after every accepted
// founder turn, and fires the completion callback exactly once after the
// assessment has been delivered.
type Conversation struct {
	mu sync.Mutex

	dialogue        *Dialogue
	sched           scheduler.Scheduler
	replyDelay      time.Duration
	completionDelay time.Duration
	onComplete      func([]model.Turn)
	newID           func() string

	transcript []model.Turn
	state      State
	pending    bool
	summarized bool
	completed  bool
	closed     bool

	replyTimer    scheduler.Timer
	completeTimer scheduler.Timer

	listeners    map[uint64]Listener
	nextListener uint64

	// queue holds changes in the order they happened; one caller at a time
	// drains it.
	queue       []Change
	dispatching bool
}

// NewConversation starts an interview with the greeting already in place.
func NewConversation(dialogue *Dialogue, opts Options) *Conversation {
	c := &Conversation{
		dialogue:        dialogue,
		sched:           opts.Scheduler,
		replyDelay:      opts.ReplyDelay,
		completionDelay: opts.CompletionDelay,
		onComplete:      opts.OnComplete,
		newID:           opts.NewID,
		state:           StateIntro,
		listeners:       make(map[uint64]Listener),
	}
	if c.sched == nil {
		c.sched = scheduler.NewReal()
	}
	if c.replyDelay <= 0 {
		c.replyDelay = DefaultReplyDelay
	}
	if c.completionDelay <= 0 {
		c.completionDelay = DefaultCompletionDelay
	}
	if c.newID == nil {
		c.newID = uuid.NewString
	}

	c.transcript = append(make([]model.Turn, 0, 16), c.newTurn(model.RoleAssistant, dialogue.Greeting()))
	return c
}

// Submit appends a founder turn and schedules the scripted reply. Blank text,
// a reply already in flight and a closed conversation are silently ignored.
func (c *Conversation) Submit(text string) SubmitResult {
	content := strings.TrimSpace(text)
	if content == "" {
		return SubmitIgnoredEmpty
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return SubmitIgnoredClosed
	}
	if c.pending {
		c.mu.Unlock()
		return SubmitIgnoredPending
	}

	turn := c.newTurn(model.RoleUser, content)
	c.transcript = append(c.transcript, turn)

	// The reply is chosen from the state at submission time.
	next := c.dialogue.Next(c.state, EventUserAnswered)
	c.pending = true
	c.replyTimer = c.sched.AfterFunc(c.replyDelay, func() { c.deliver(next) })

	c.enqueueLocked(
		Change{Kind: ChangeTurnAppended, Turn: &turn, Pending: true, State: c.state},
		Change{Kind: ChangePendingChanged, Pending: true, State: c.state},
	)
	c.mu.Unlock()

	c.dispatch()
	return SubmitAccepted
}

// Suggestions returns the canned answers for the current question.
func (c *Conversation) Suggestions() []model.Suggestion {
	c.mu.Lock()
	state := c.state
	c.mu.Unlock()
	return c.dialogue.Suggestions(state)
}

// SelectSuggestion submits the i-th suggestion. An index outside the current
// suggestions is ignored.
func (c *Conversation) SelectSuggestion(i int) SubmitResult {
	suggestions := c.Suggestions()
	if i < 0 || i >= len(suggestions) {
		return SubmitIgnoredNoSuggestion
	}
	return c.Submit(suggestions[i].Text)
}

// Subscribe registers a listener and returns a function that removes it.
func (c *Conversation) Subscribe(l Listener) func() {
	if l == nil {
		return func() {}
	}

	c.mu.Lock()
	c.nextListener++
	id := c.nextListener
	c.listeners[id] = l
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.listeners, id)
		c.mu.Unlock()
	}
}

// Snapshot copies the current conversation.
func (c *Conversation) Snapshot() Snapshot {
	c.mu.Lock()
	snap := Snapshot{
		Transcript: c.transcriptLocked(),
		State:      c.state,
		Pending:    c.pending,
		Completed:  c.completed,
	}
	c.mu.Unlock()

	snap.Suggestions = c.dialogue.Suggestions(snap.State)
	return snap
}

// Transcript copies the turns so far.
func (c *Conversation) Transcript() []model.Turn {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.transcriptLocked()
}

// Len is the number of turns in the transcript.
func (c *Conversation) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.transcript)
}

// State returns the question asked last.
func (c *Conversation) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Pending reports whether an assistant reply is in flight.
func (c *Conversation) Pending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending
}

// Completed reports whether the completion callback has fired.
func (c *Conversation) Completed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.completed
}

// Close cancels outstanding timers and drops all listeners. It is safe to call
// more than once.
func (c *Conversation) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	if c.replyTimer != nil {
		c.replyTimer.Stop()
		c.replyTimer = nil
	}
	if c.completeTimer != nil {
		c.completeTimer.Stop()
		c.completeTimer = nil
	}
	c.pending = false
	c.listeners = make(map[uint64]Listener)
	c.queue = nil
}

func (c *Conversation) deliver(t Transition) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}

	turn := c.newTurn(model.RoleAssistant, t.Reply)
	c.transcript = append(c.transcript, turn)
	c.state = t.Next
	c.pending = false
	c.replyTimer = nil

	// The completion payload is the transcript ending with the assessment,
	// whatever the founder sends while the timer runs.
	if t.Complete && !c.summarized {
		c.summarized = true
		final := c.transcriptLocked()
		c.completeTimer = c.sched.AfterFunc(c.completionDelay, func() { c.complete(final) })
	}

	c.enqueueLocked(
		Change{Kind: ChangeTurnAppended, Turn: &turn, State: c.state},
		Change{Kind: ChangePendingChanged, Pending: false, State: c.state},
	)
	c.mu.Unlock()

	c.dispatch()
}

func (c *Conversation) complete(transcript []model.Turn) {
	c.mu.Lock()
	if c.closed || c.completed {
		c.mu.Unlock()
		return
	}
	c.completed = true
	c.completeTimer = nil

	callback := c.onComplete
	c.enqueueLocked(Change{Kind: ChangeCompleted, State: c.state, Transcript: transcript})
	c.mu.Unlock()

	if callback != nil {
		callback(transcript)
	}
	c.dispatch()
}

func (c *Conversation) enqueueLocked(changes ...Change) {
	c.queue = append(c.queue, changes...)
}

// dispatch delivers queued changes in order. A listener that submits again
// only enqueues; the outer dispatch delivers its changes after the current
// ones. Must be called without c.mu held.
func (c *Conversation) dispatch() {
	c.mu.Lock()
	if c.dispatching {
		c.mu.Unlock()
		return
	}
	c.dispatching = true
	for len(c.queue) > 0 {
		change := c.queue[0]
		c.queue = c.queue[1:]
		listeners := c.listenersLocked()
		c.mu.Unlock()

		notify(listeners, change)

		c.mu.Lock()
	}
	c.dispatching = false
	c.mu.Unlock()
}

func (c *Conversation) newTurn(role model.Role, content string) model.Turn {
	return model.Turn{
		ID:        c.newID(),
		Role:      role,
		Content:   content,
		Timestamp: c.sched.Now(),
	}
}

func (c *Conversation) transcriptLocked() []model.Turn {
	copied := make([]model.Turn, len(c.transcript))
	copy(copied, c.transcript)
	return copied
}

func (c *Conversation) listenersLocked() []Listener {
	listeners := make([]Listener, 0, len(c.listeners))
	for _, l := range c.listeners {
		listeners = append(listeners, l)
	}
	return listeners
}
