package feedback

import (
	model "github.com/earlysignal/backend/internal/model/feedback"
)

// ChangeKind names a transcript notification.
type ChangeKind string

const (
	ChangeTurnAppended   ChangeKind = "turn"
	ChangePendingChanged ChangeKind = "pending"
	ChangeCompleted      ChangeKind = "completed"
)

// Change is delivered to listeners whenever the conversation moves.
type Change struct {
	Kind       ChangeKind   `json:"kind"`
	Turn       *model.Turn  `json:"turn,omitempty"`
	Pending    bool         `json:"pending"`
	State      State        `json:"state"`
	Transcript []model.Turn `json:"transcript,omitempty"`
}

// Listener receives changes in the order they happened. Listeners must not
// block; they may call back into the conversation.
type Listener func(Change)

func notify(listeners []Listener, changes ...Change) {
	for _, change := range changes {
		for _, l := range listeners {
			l(change)
		}
	}
}

// Feed buffers items for a consumer on another goroutine. When the buffer
// overflows the item is dropped and Resync fires; the consumer should then
// call Drain and render a fresh Snapshot instead of trusting what is buffered.
type Feed[T any] struct {
	items  chan T
	resync chan struct{}
}

// NewFeed creates a feed holding up to size items.
func NewFeed[T any](size int) *Feed[T] {
	return &Feed[T]{
		items:  make(chan T, size),
		resync: make(chan struct{}, 1),
	}
}

// Push queues item without blocking. It reports false when item was dropped.
func (f *Feed[T]) Push(item T) bool {
	select {
	case f.items <- item:
		return true
	default:
	}
	select {
	case f.resync <- struct{}{}:
	default:
	}
	return false
}

// Items yields buffered items in push order.
func (f *Feed[T]) Items() <-chan T {
	return f.items
}

// Resync fires after an item was dropped.
func (f *Feed[T]) Resync() <-chan struct{} {
	return f.resync
}

// Drain discards every buffered item.
func (f *Feed[T]) Drain() {
	for {
		select {
		case <-f.items:
		default:
			return
		}
	}
}
