// README: Matching inputs, results, and the projected doer summary view.
package matching

import (
	"errors"
	"time"

	"taskhive/internal/modules/doer"
	"taskhive/internal/types"
)

// Input is the snapshot of a task the engine matches against.
type Input struct {
	TaskID      types.ID
	Category    string
	Location    types.Point
	ScheduledAt time.Time
}

// ErrInvalidTask rejects malformed inputs before any store access.
var ErrInvalidTask = errors.New("invalid task for matching")

func (in Input) validate() error {
	if in.Category == "" {
		return ErrInvalidTask
	}
	if err := in.Location.Validate(); err != nil {
		return ErrInvalidTask
	}
	return nil
}

// DoerSummary is the ranked-list projection. It deliberately exposes only
// public profile fields, never the full record.
type DoerSummary struct {
	ID             types.ID     `json:"id"`
	FullName       string       `json:"full_name"`
	ProfilePhoto   string       `json:"profile_photo"`
	Ratings        doer.Ratings `json:"ratings"`
	CompletedTasks int          `json:"completed_tasks"`
	HourlyRate     int64        `json:"hourly_rate"`
}

// Match is one entry of a ranked recommendation list.
type Match struct {
	Doer       DoerSummary `json:"doer"`
	Score      float64     `json:"score"`
	DistanceKm float64     `json:"distance"`
}

func summarize(d *doer.Doer) DoerSummary {
	return DoerSummary{
		ID:             d.ID,
		FullName:       d.FullName,
		ProfilePhoto:   d.ProfilePhoto,
		Ratings:        d.Profile.Ratings,
		CompletedTasks: d.Profile.CompletedTasks,
		HourlyRate:     d.Profile.HourlyRate,
	}
}
