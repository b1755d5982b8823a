// README: Doer service: registration, location sharing, availability updates.
package doer

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"taskhive/internal/types"
)

type Service struct {
	store *Store
	log   zerolog.Logger
}

func NewService(store *Store, log zerolog.Logger) *Service {
	return &Service{store: store, log: log.With().Str("component", "doer").Logger()}
}

type RegisterCommand struct {
	FullName        string
	ProfilePhoto    string
	Location        types.Point
	Services        []ServiceOffering
	Schedule        []ScheduleEntry
	ServiceRadiusKm float64
	HourlyRate      int64
}

func (s *Service) Register(ctx context.Context, cmd RegisterCommand) (types.ID, error) {
	if cmd.FullName == "" || len(cmd.Services) == 0 {
		return "", ErrBadRequest
	}
	if err := cmd.Location.Validate(); err != nil {
		return "", ErrBadRequest
	}
	d := &Doer{
		ID:           types.ID(uuid.NewString()),
		FullName:     cmd.FullName,
		ProfilePhoto: cmd.ProfilePhoto,
		Profile: Profile{
			CurrentLocation: cmd.Location,
			Services:        cmd.Services,
			Availability: Availability{
				Status:   StatusAvailable,
				Schedule: cmd.Schedule,
			},
			ServiceRadiusKm: cmd.ServiceRadiusKm,
			HourlyRate:      cmd.HourlyRate,
		},
		CreatedAt: time.Now().UTC(),
	}
	if err := d.Validate(); err != nil {
		return "", ErrBadRequest
	}
	if err := s.store.Create(ctx, d); err != nil {
		return "", err
	}
	s.log.Info().Str("doer_id", string(d.ID)).Msg("doer registered")
	return d.ID, nil
}

func (s *Service) Get(ctx context.Context, id types.ID) (*Doer, error) {
	return s.store.Get(ctx, id)
}

// UpdateLocation accepts high-frequency position reports from the doer's
// location-sharing client. Matching reads whatever snapshot is current.
func (s *Service) UpdateLocation(ctx context.Context, id types.ID, p types.Point) error {
	if err := p.Validate(); err != nil {
		return ErrBadRequest
	}
	return s.store.UpdateLocation(ctx, id, p)
}

func (s *Service) SetAvailabilityStatus(ctx context.Context, id types.ID, status AvailabilityStatus) error {
	switch status {
	case StatusAvailable, StatusBusy, StatusUnavailable:
	default:
		return ErrBadRequest
	}
	return s.store.SetAvailabilityStatus(ctx, id, status)
}

func (s *Service) UpdateSchedule(ctx context.Context, id types.ID, schedule []ScheduleEntry) error {
	for _, e := range schedule {
		if !weekdays[e.Day] {
			return ErrBadRequest
		}
		if e.Available && (!ValidClock(e.Hours.From) || !ValidClock(e.Hours.To)) {
			return ErrBadRequest
		}
	}
	return s.store.UpdateSchedule(ctx, id, schedule)
}

// SetActiveTask reserves the doer for a task; false means the doer was
// already occupied.
func (s *Service) SetActiveTask(ctx context.Context, id, taskID types.ID) (bool, error) {
	return s.store.SetActiveTask(ctx, id, taskID)
}

func (s *Service) ClearActiveTask(ctx context.Context, id types.ID, completed bool) error {
	return s.store.ClearActiveTask(ctx, id, completed)
}
