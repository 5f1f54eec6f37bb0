// Package queue defines message payloads exchanged over the message broker
// and the background consumer that turns them into notification rows.
package queue

// Lifecycle kinds carried in EventLifecycleEvent.Kind.
const (
	LifecycleCreated   = "created"
	LifecycleUpdated   = "updated"
	LifecycleCancelled = "cancelled"
	LifecycleApproved  = "approved"
	LifecycleRefused   = "refused"
)

// EventLifecycleEvent is published after an event mutation commits.  It
// carries everything the consumer needs to write notification rows for
// each recipient without querying back into the request's state.
type EventLifecycleEvent struct {
	Kind         string   `json:"kind"`
	EventID      uint64   `json:"event_id"`
	EventName    string   `json:"event_name"`
	ActorID      uint64   `json:"actor_id"`
	RecipientIDs []uint64 `json:"recipient_ids"`
	OccurredAt   string   `json:"occurred_at"`
}
