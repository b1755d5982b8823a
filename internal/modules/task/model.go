// README: Task aggregate, status flow, and completed-task history records.
package task

import (
	"time"

	"taskhive/internal/types"
)

type Status string

const (
	StatusNone       Status = "none"
	StatusPending    Status = "pending"
	StatusAssigned   Status = "assigned"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

type Task struct {
	ID            types.ID    `json:"id"`
	Title         string      `json:"title"`
	Description   string      `json:"description"`
	Category      string      `json:"category"`
	Budget        types.Money `json:"budget"`
	CreatorID     types.ID    `json:"creator_id"`
	DoerID        *types.ID   `json:"doer_id,omitempty"`
	Status        Status      `json:"status"`
	StatusVersion int         `json:"-"`
	Location      types.Point `json:"location"`
	Address       string      `json:"address,omitempty"`
	ScheduledAt   time.Time   `json:"scheduled_at"`
	CreatedAt     time.Time   `json:"created_at"`
	AssignedAt    *time.Time  `json:"assigned_at,omitempty"`
	StartedAt     *time.Time  `json:"started_at,omitempty"`
	CompletedAt   *time.Time  `json:"completed_at,omitempty"`
	CancelledAt   *time.Time  `json:"cancelled_at,omitempty"`
	CancelReason  *string     `json:"cancellation_reason,omitempty"`
}

// Event is one audit-trail row for a status transition.
type Event struct {
	ID         int64
	TaskID     types.ID
	FromStatus Status
	ToStatus   Status
	ActorType  string
	ActorID    *types.ID
	CreatedAt  time.Time
}

// HistoryRecord is the read-only slice of a completed task that scoring
// consumes.
type HistoryRecord struct {
	Category    string
	CompletedAt time.Time
}

// AllowedTransitions represents the task state flow as code.
var AllowedTransitions = map[Status][]Status{
	StatusPending:    {StatusAssigned, StatusCancelled},
	StatusAssigned:   {StatusInProgress, StatusCancelled},
	StatusInProgress: {StatusCompleted, StatusCancelled},
}

func CanTransition(from, to Status) bool {
	next, ok := AllowedTransitions[from]
	if !ok {
		return false
	}
	for _, s := range next {
		if s == to {
			return true
		}
	}
	return false
}
