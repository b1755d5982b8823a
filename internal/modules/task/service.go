// README: Task service implements lifecycle transitions and doer hand-off.
package task

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"taskhive/internal/types"
)

var (
	ErrInvalidState = errors.New("invalid state transition")
	ErrNotFound     = errors.New("task not found")
	ErrConflict     = errors.New("task state conflict")
	ErrDoerBusy     = errors.New("doer has an active task")
	ErrBadRequest   = errors.New("bad request")
)

// DoerDirectory is the slice of the doer service the task lifecycle needs:
// reserving a doer on assignment and releasing them afterwards.
type DoerDirectory interface {
	SetActiveTask(ctx context.Context, doerID, taskID types.ID) (bool, error)
	ClearActiveTask(ctx context.Context, doerID types.ID, completed bool) error
}

// Notifier delivers fire-and-forget push/socket payloads; failures are the
// delivery layer's problem, never the lifecycle's.
type Notifier interface {
	Notify(ctx context.Context, userID types.ID, event string, payload map[string]any)
}

type Service struct {
	store    *Store
	doers    DoerDirectory
	notifier Notifier
	log      zerolog.Logger
}

func NewService(store *Store, doers DoerDirectory, notifier Notifier, log zerolog.Logger) *Service {
	return &Service{
		store:    store,
		doers:    doers,
		notifier: notifier,
		log:      log.With().Str("component", "task").Logger(),
	}
}

type CreateCommand struct {
	Title       string
	Description string
	Category    string
	Budget      types.Money
	CreatorID   types.ID
	Location    types.Point
	Address     string
	ScheduledAt time.Time
}

type AssignCommand struct {
	TaskID types.ID
	DoerID types.ID
}

type StartCommand struct {
	TaskID types.ID
	DoerID types.ID
}

type CompleteCommand struct {
	TaskID types.ID
}

type CancelCommand struct {
	TaskID    types.ID
	ActorType string
	Reason    string
}

func (s *Service) Create(ctx context.Context, cmd CreateCommand) (types.ID, error) {
	if cmd.CreatorID == "" || cmd.Title == "" || cmd.Category == "" {
		return "", ErrBadRequest
	}
	if err := cmd.Location.Validate(); err != nil {
		return "", ErrBadRequest
	}
	if cmd.ScheduledAt.IsZero() {
		return "", ErrBadRequest
	}

	id := types.ID(uuid.NewString())
	now := time.Now().UTC()
	t := &Task{
		ID:            id,
		Title:         cmd.Title,
		Description:   cmd.Description,
		Category:      cmd.Category,
		Budget:        cmd.Budget,
		CreatorID:     cmd.CreatorID,
		Status:        StatusPending,
		StatusVersion: 0,
		Location:      cmd.Location,
		Address:       cmd.Address,
		ScheduledAt:   cmd.ScheduledAt,
		CreatedAt:     now,
	}
	if err := s.store.Create(ctx, t); err != nil {
		return "", err
	}
	_ = s.store.AppendEvent(ctx, &Event{
		TaskID:     id,
		FromStatus: StatusNone,
		ToStatus:   StatusPending,
		ActorType:  "user",
		ActorID:    &cmd.CreatorID,
		CreatedAt:  now,
	})
	return id, nil
}

// Assign hands the task to a doer: optimistic status flip, then the doer-side
// reservation. When the reservation loses (doer grabbed elsewhere in between),
// the task transition is rolled back to pending.
func (s *Service) Assign(ctx context.Context, cmd AssignCommand) error {
	t, err := s.store.Get(ctx, cmd.TaskID)
	if err != nil {
		return err
	}
	if !CanTransition(t.Status, StatusAssigned) {
		return ErrInvalidState
	}
	ok, err := s.store.UpdateStatus(ctx, t.ID, t.Status, StatusAssigned, t.StatusVersion, &cmd.DoerID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrConflict
	}
	reserved, err := s.doers.SetActiveTask(ctx, cmd.DoerID, t.ID)
	if err == nil && !reserved {
		err = ErrDoerBusy
	}
	if err != nil {
		if _, rbErr := s.store.UpdateStatus(ctx, t.ID, StatusAssigned, StatusPending, t.StatusVersion+1, nil); rbErr != nil {
			s.log.Error().Err(rbErr).Str("task_id", string(t.ID)).Msg("assign rollback failed")
		}
		return err
	}
	_ = s.store.AppendEvent(ctx, &Event{
		TaskID:     t.ID,
		FromStatus: StatusPending,
		ToStatus:   StatusAssigned,
		ActorType:  "system",
		ActorID:    nil,
		CreatedAt:  time.Now().UTC(),
	})
	if s.notifier != nil {
		s.notifier.Notify(ctx, cmd.DoerID, "task.assigned", map[string]any{
			"task_id":  string(t.ID),
			"category": t.Category,
		})
	}
	return nil
}

func (s *Service) Start(ctx context.Context, cmd StartCommand) error {
	t, err := s.store.Get(ctx, cmd.TaskID)
	if err != nil {
		return err
	}
	if !CanTransition(t.Status, StatusInProgress) {
		return ErrInvalidState
	}
	ok, err := s.store.UpdateStatus(ctx, t.ID, t.Status, StatusInProgress, t.StatusVersion, t.DoerID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrConflict
	}
	_ = s.store.AppendEvent(ctx, &Event{
		TaskID:     t.ID,
		FromStatus: StatusAssigned,
		ToStatus:   StatusInProgress,
		ActorType:  "doer",
		ActorID:    t.DoerID,
		CreatedAt:  time.Now().UTC(),
	})
	return nil
}

func (s *Service) Complete(ctx context.Context, cmd CompleteCommand) error {
	t, err := s.store.Get(ctx, cmd.TaskID)
	if err != nil {
		return err
	}
	if !CanTransition(t.Status, StatusCompleted) {
		return ErrInvalidState
	}
	ok, err := s.store.UpdateStatus(ctx, t.ID, t.Status, StatusCompleted, t.StatusVersion, t.DoerID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrConflict
	}
	if t.DoerID != nil {
		if err := s.doers.ClearActiveTask(ctx, *t.DoerID, true); err != nil {
			s.log.Error().Err(err).Str("doer_id", string(*t.DoerID)).Msg("release doer after completion failed")
		}
	}
	_ = s.store.AppendEvent(ctx, &Event{
		TaskID:     t.ID,
		FromStatus: StatusInProgress,
		ToStatus:   StatusCompleted,
		ActorType:  "doer",
		ActorID:    t.DoerID,
		CreatedAt:  time.Now().UTC(),
	})
	if s.notifier != nil {
		s.notifier.Notify(ctx, t.CreatorID, "task.completed", map[string]any{
			"task_id": string(t.ID),
		})
	}
	return nil
}

func (s *Service) Cancel(ctx context.Context, cmd CancelCommand) error {
	t, err := s.store.Get(ctx, cmd.TaskID)
	if err != nil {
		return err
	}
	if !CanTransition(t.Status, StatusCancelled) {
		return ErrInvalidState
	}
	ok, err := s.store.UpdateStatus(ctx, t.ID, t.Status, StatusCancelled, t.StatusVersion, t.DoerID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrConflict
	}
	if t.DoerID != nil {
		if err := s.doers.ClearActiveTask(ctx, *t.DoerID, false); err != nil {
			s.log.Error().Err(err).Str("doer_id", string(*t.DoerID)).Msg("release doer after cancel failed")
		}
	}
	if cmd.Reason != "" {
		if err := s.store.SetCancelReason(ctx, t.ID, cmd.Reason); err != nil {
			s.log.Error().Err(err).Str("task_id", string(t.ID)).Msg("record cancel reason failed")
		}
	}
	actorID := t.DoerID
	if cmd.ActorType == "user" {
		actorID = &t.CreatorID
	}
	_ = s.store.AppendEvent(ctx, &Event{
		TaskID:     t.ID,
		FromStatus: t.Status,
		ToStatus:   StatusCancelled,
		ActorType:  cmd.ActorType,
		ActorID:    actorID,
		CreatedAt:  time.Now().UTC(),
	})
	return nil
}

func (s *Service) Get(ctx context.Context, id types.ID) (*Task, error) {
	return s.store.Get(ctx, id)
}
