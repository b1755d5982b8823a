// README: Task store backed by Postgres; optimistic status updates and history queries.
package task

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"taskhive/internal/types"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) Create(ctx context.Context, t *Task) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO tasks (
			id, title, description, category, budget,
			creator_id, doer_id, status, status_version,
			lat, lng, address, scheduled_at, created_at
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8, $9,
			$10, $11, $12, $13, $14
		)`,
		string(t.ID),
		t.Title,
		t.Description,
		t.Category,
		t.Budget.Amount,
		string(t.CreatorID),
		toStringPtr(t.DoerID),
		string(t.Status),
		t.StatusVersion,
		t.Location.Lat, t.Location.Lng,
		t.Address,
		t.ScheduledAt,
		t.CreatedAt,
	)
	return err
}

func (s *Store) Get(ctx context.Context, id types.ID) (*Task, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, title, description, category, budget,
		       creator_id, doer_id, status, status_version,
		       lat, lng, address, scheduled_at, created_at,
		       assigned_at, started_at, completed_at, cancelled_at, cancellation_reason
		FROM tasks
		WHERE id = $1`, string(id),
	)

	var t Task
	var doerID sql.NullString
	var assignedAt, startedAt, completedAt, cancelledAt sql.NullTime
	var cancelReason sql.NullString

	err := row.Scan(
		&t.ID, &t.Title, &t.Description, &t.Category, &t.Budget.Amount,
		&t.CreatorID, &doerID, &t.Status, &t.StatusVersion,
		&t.Location.Lat, &t.Location.Lng, &t.Address, &t.ScheduledAt, &t.CreatedAt,
		&assignedAt, &startedAt, &completedAt, &cancelledAt, &cancelReason,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if doerID.Valid {
		d := types.ID(doerID.String)
		t.DoerID = &d
	}
	t.AssignedAt = toTimePtr(assignedAt)
	t.StartedAt = toTimePtr(startedAt)
	t.CompletedAt = toTimePtr(completedAt)
	t.CancelledAt = toTimePtr(cancelledAt)
	if cancelReason.Valid {
		t.CancelReason = &cancelReason.String
	}
	if t.Budget.Currency == "" {
		t.Budget.Currency = "RWF"
	}
	return &t, nil
}

// UpdateStatus performs an optimistic compare-and-set on (status, version) so
// two racing transitions cannot both win.
func (s *Store) UpdateStatus(ctx context.Context, id types.ID, from, to Status, version int, doerID *types.ID) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE tasks
		SET status = $1,
		    status_version = status_version + 1,
		    doer_id = COALESCE($2, doer_id),
		    assigned_at = CASE WHEN $1 = 'assigned' THEN NOW() ELSE assigned_at END,
		    started_at = CASE WHEN $1 = 'in_progress' THEN NOW() ELSE started_at END,
		    completed_at = CASE WHEN $1 = 'completed' THEN NOW() ELSE completed_at END,
		    cancelled_at = CASE WHEN $1 = 'cancelled' THEN NOW() ELSE cancelled_at END
		WHERE id = $3 AND status = $4 AND status_version = $5`,
		string(to),
		toStringPtr(doerID),
		string(id),
		string(from),
		version,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) SetCancelReason(ctx context.Context, id types.ID, reason string) error {
	_, err := s.db.Exec(ctx,
		`UPDATE tasks SET cancellation_reason = $1 WHERE id = $2`,
		reason, string(id))
	return err
}

func (s *Store) AppendEvent(ctx context.Context, e *Event) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO task_state_events (
			task_id, from_status, to_status, actor_type, actor_id, created_at
		) VALUES ($1, $2, $3, $4, $5, $6)`,
		string(e.TaskID),
		string(e.FromStatus),
		string(e.ToStatus),
		e.ActorType,
		toStringPtr(e.ActorID),
		e.CreatedAt,
	)
	return err
}

// CompletedByDoer returns the doer's most recent completed tasks, newest
// first, capped at limit. This is the fixed lookback window scoring reads.
func (s *Store) CompletedByDoer(ctx context.Context, doerID types.ID, limit int) ([]HistoryRecord, error) {
	rows, err := s.db.Query(ctx, `
		SELECT category, completed_at
		FROM tasks
		WHERE doer_id = $1 AND status = 'completed'
		ORDER BY completed_at DESC
		LIMIT $2`,
		string(doerID), limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []HistoryRecord
	for rows.Next() {
		var r HistoryRecord
		if err := rows.Scan(&r.Category, &r.CompletedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func toStringPtr(v *types.ID) *string {
	if v == nil {
		return nil
	}
	s := string(*v)
	return &s
}

func toTimePtr(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}
