package services

import (
	"sync"

	"review-workflow-api/models"
)

// Review change actions published on the EventBus.
const (
	ActionAssigned             = "assigned"
	ActionApproved             = "approved"
	ActionRejected             = "rejected"
	ActionReRequested          = "re-requested"
	ActionFieldCommentAdded    = "field-comment-added"
	ActionFieldCommentResolved = "field-comment-resolved"
	ActionFieldCommentDeleted  = "field-comment-deleted"
)

// ReviewEvent describes a committed change to a review.
type ReviewEvent struct {
	Action  string
	ActorID int
	Review  *models.Review
	Comment *models.ReviewComment
}

// EventBus fans committed review changes out to subscribers. Callbacks run
// synchronously on the publishing goroutine and must not block.
type EventBus struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]func(ReviewEvent)
}

func NewEventBus() *EventBus {
	return &EventBus{subs: make(map[int]func(ReviewEvent))}
}

// OnReviewsChanged registers cb and returns a function removing it.
func (b *EventBus) OnReviewsChanged(cb func(ReviewEvent)) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextID
	b.nextID++
	b.subs[id] = cb

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
		})
	}
}

// NotifyChanged delivers evt to every current subscriber. A nil bus is a no-op.
func (b *EventBus) NotifyChanged(evt ReviewEvent) {
	if b == nil {
		return
	}
	b.mu.RLock()
	callbacks := make([]func(ReviewEvent), 0, len(b.subs))
	for _, cb := range b.subs {
		callbacks = append(callbacks, cb)
	}
	b.mu.RUnlock()

	for _, cb := range callbacks {
		cb(evt)
	}
}
