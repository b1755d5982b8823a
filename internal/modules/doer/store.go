// README: Doer store backed by Postgres rows plus a Redis GEO index for the coarse geofence.
package doer

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"taskhive/internal/types"
)

// doerGeoKey is the GEO set holding every doer's last reported position.
const doerGeoKey = "doers:geo"

type Store struct {
	db    *pgxpool.Pool
	redis *redis.Client
}

func NewStore(db *pgxpool.Pool, redis *redis.Client) *Store {
	return &Store{db: db, redis: redis}
}

func (s *Store) Create(ctx context.Context, d *Doer) error {
	services, err := json.Marshal(d.Profile.Services)
	if err != nil {
		return err
	}
	schedule, err := json.Marshal(d.Profile.Availability.Schedule)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(ctx, `
		INSERT INTO doers (
			id, full_name, profile_photo,
			lat, lng, services, availability_status, schedule,
			active_task, rating_avg, rating_count, completed_tasks,
			service_radius_km, hourly_rate, created_at
		) VALUES (
			$1, $2, $3,
			$4, $5, $6, $7, $8,
			$9, $10, $11, $12,
			$13, $14, $15
		)`,
		string(d.ID),
		d.FullName,
		d.ProfilePhoto,
		d.Profile.CurrentLocation.Lat, d.Profile.CurrentLocation.Lng,
		services,
		string(d.Profile.Availability.Status),
		schedule,
		idPtr(d.Profile.ActiveTask),
		d.Profile.Ratings.Average,
		d.Profile.Ratings.Count,
		d.Profile.CompletedTasks,
		d.Profile.ServiceRadiusKm,
		d.Profile.HourlyRate,
		d.CreatedAt,
	)
	if err != nil {
		return err
	}
	return s.indexPosition(ctx, d.ID, d.Profile.CurrentLocation)
}

func (s *Store) Get(ctx context.Context, id types.ID) (*Doer, error) {
	row := s.db.QueryRow(ctx, selectDoer+` WHERE id = $1`, string(id))
	d, err := scanDoer(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return d, err
}

// UpdateLocation writes the new position to the row and refreshes the GEO
// index entry in the same call; the index is best-effort and re-converges on
// the next update.
func (s *Store) UpdateLocation(ctx context.Context, id types.ID, p types.Point) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE doers SET lat = $1, lng = $2 WHERE id = $3`,
		p.Lat, p.Lng, string(id))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return s.indexPosition(ctx, id, p)
}

func (s *Store) SetAvailabilityStatus(ctx context.Context, id types.ID, status AvailabilityStatus) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE doers SET availability_status = $1 WHERE id = $2`,
		string(status), string(id))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) UpdateSchedule(ctx context.Context, id types.ID, schedule []ScheduleEntry) error {
	raw, err := json.Marshal(schedule)
	if err != nil {
		return err
	}
	tag, err := s.db.Exec(ctx,
		`UPDATE doers SET schedule = $1 WHERE id = $2`, raw, string(id))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetActiveTask marks the doer as occupied. It only succeeds when no other
// task is already active, so concurrent assignments cannot double-book.
func (s *Store) SetActiveTask(ctx context.Context, id, taskID types.ID) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE doers SET active_task = $1
		WHERE id = $2 AND active_task IS NULL`,
		string(taskID), string(id))
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// ClearActiveTask releases the doer; completed additionally bumps the
// completed-task counter.
func (s *Store) ClearActiveTask(ctx context.Context, id types.ID, completed bool) error {
	bump := 0
	if completed {
		bump = 1
	}
	tag, err := s.db.Exec(ctx, `
		UPDATE doers
		SET active_task = NULL,
		    completed_tasks = completed_tasks + $1
		WHERE id = $2`,
		bump, string(id))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// NearbyDoerIDs is the coarse geofence stage: a GEO radius query against the
// index, nearest first. Exact per-doer radius checks happen during ranking.
func (s *Store) NearbyDoerIDs(ctx context.Context, origin types.Point, radiusKm float64) ([]types.ID, error) {
	results, err := s.redis.GeoSearch(ctx, doerGeoKey, &redis.GeoSearchQuery{
		Longitude:  origin.Lng,
		Latitude:   origin.Lat,
		Radius:     radiusKm,
		RadiusUnit: "km",
		Sort:       "ASC",
	}).Result()
	if err != nil {
		return nil, err
	}
	ids := make([]types.ID, len(results))
	for i, r := range results {
		ids[i] = types.ID(r)
	}
	return ids, nil
}

// LoadCandidates applies the attribute filters (category offered, no active
// task, status available) to the geofenced IDs and returns validated records.
// Records failing boundary validation are dropped here, not surfaced.
func (s *Store) LoadCandidates(ctx context.Context, ids []types.ID, category string) ([]*Doer, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	raw := make([]string, len(ids))
	for i, id := range ids {
		raw[i] = string(id)
	}
	rows, err := s.db.Query(ctx, selectDoer+`
		WHERE id = ANY($1)
		  AND active_task IS NULL
		  AND availability_status = 'available'
		  AND EXISTS (
			SELECT 1 FROM jsonb_array_elements(services) svc
			WHERE lower(svc->>'category') = lower($2)
		  )`,
		raw, category)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Doer
	for rows.Next() {
		d, err := scanDoer(rows)
		if err != nil {
			if errors.Is(err, ErrMalformedRecord) {
				continue
			}
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *Store) indexPosition(ctx context.Context, id types.ID, p types.Point) error {
	return s.redis.GeoAdd(ctx, doerGeoKey, &redis.GeoLocation{
		Name:      string(id),
		Longitude: p.Lng,
		Latitude:  p.Lat,
	}).Err()
}

const selectDoer = `
	SELECT id, full_name, profile_photo,
	       lat, lng, services, availability_status, schedule,
	       active_task, rating_avg, rating_count, completed_tasks,
	       service_radius_km, hourly_rate, created_at
	FROM doers`

func scanDoer(row pgx.Row) (*Doer, error) {
	var (
		d          Doer
		services   []byte
		schedule   []byte
		activeTask *string
	)
	err := row.Scan(
		&d.ID, &d.FullName, &d.ProfilePhoto,
		&d.Profile.CurrentLocation.Lat, &d.Profile.CurrentLocation.Lng,
		&services,
		&d.Profile.Availability.Status,
		&schedule,
		&activeTask,
		&d.Profile.Ratings.Average,
		&d.Profile.Ratings.Count,
		&d.Profile.CompletedTasks,
		&d.Profile.ServiceRadiusKm,
		&d.Profile.HourlyRate,
		&d.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(services) > 0 {
		if err := json.Unmarshal(services, &d.Profile.Services); err != nil {
			return nil, ErrMalformedRecord
		}
	}
	if len(schedule) > 0 {
		if err := json.Unmarshal(schedule, &d.Profile.Availability.Schedule); err != nil {
			return nil, ErrMalformedRecord
		}
	}
	if activeTask != nil {
		t := types.ID(*activeTask)
		d.Profile.ActiveTask = &t
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &d, nil
}

func idPtr(v *types.ID) *string {
	if v == nil {
		return nil
	}
	s := string(*v)
	return &s
}
