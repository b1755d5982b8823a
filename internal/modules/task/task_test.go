// README: Task lifecycle tests (state machine + DB-backed flow).
package task

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"taskhive/internal/types"
)

// TestCanTransition verifies the state machine transition table without a database.
func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to Status
		want     bool
	}{
		// happy-path forward transitions
		{StatusPending, StatusAssigned, true},
		{StatusAssigned, StatusInProgress, true},
		{StatusInProgress, StatusCompleted, true},
		// cancels from every non-terminal state
		{StatusPending, StatusCancelled, true},
		{StatusAssigned, StatusCancelled, true},
		{StatusInProgress, StatusCancelled, true},
		// invalid: terminal states have no outgoing transitions
		{StatusCompleted, StatusAssigned, false},
		{StatusCancelled, StatusPending, false},
		// invalid: skipping states
		{StatusPending, StatusInProgress, false},
		{StatusPending, StatusCompleted, false},
		{StatusAssigned, StatusCompleted, false},
	}
	for _, tc := range cases {
		got := CanTransition(tc.from, tc.to)
		if got != tc.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

// fakeDirectory is an in-memory DoerDirectory so lifecycle tests exercise the
// reservation contract without the doer store.
type fakeDirectory struct {
	mu     sync.Mutex
	active map[types.ID]types.ID
	done   map[types.ID]int
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{active: map[types.ID]types.ID{}, done: map[types.ID]int{}}
}

func (f *fakeDirectory) SetActiveTask(_ context.Context, doerID, taskID types.ID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, busy := f.active[doerID]; busy {
		return false, nil
	}
	f.active[doerID] = taskID
	return true, nil
}

func (f *fakeDirectory) ClearActiveTask(_ context.Context, doerID types.ID, completed bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.active, doerID)
	if completed {
		f.done[doerID]++
	}
	return nil
}

func mustCreateTask(t *testing.T, svc *Service, creator string) types.ID {
	t.Helper()
	id, err := svc.Create(context.Background(), CreateCommand{
		Title:       "Deep clean apartment",
		Category:    "cleaning",
		CreatorID:   types.ID(creator),
		Location:    types.Point{Lat: -1.95, Lng: 30.06},
		ScheduledAt: time.Now().Add(24 * time.Hour),
	})
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	return id
}

func assertStatus(t *testing.T, svc *Service, id types.ID, want Status) {
	t.Helper()
	got, err := svc.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("get task: %v", err)
	}
	if got.Status != want {
		t.Fatalf("status = %s, want %s", got.Status, want)
	}
}

func TestTaskFlowHappyPath(t *testing.T) {
	dir := newFakeDirectory()
	svc := NewService(setupTestStore(t), dir, nil, zerolog.Nop())
	ctx := context.Background()

	taskID := mustCreateTask(t, svc, "u_happy")
	assertStatus(t, svc, taskID, StatusPending)

	if err := svc.Assign(ctx, AssignCommand{TaskID: taskID, DoerID: "d1"}); err != nil {
		t.Fatalf("assign: %v", err)
	}
	assertStatus(t, svc, taskID, StatusAssigned)
	if dir.active["d1"] != taskID {
		t.Fatal("assignment must reserve the doer")
	}

	if err := svc.Start(ctx, StartCommand{TaskID: taskID, DoerID: "d1"}); err != nil {
		t.Fatalf("start: %v", err)
	}
	assertStatus(t, svc, taskID, StatusInProgress)

	if err := svc.Complete(ctx, CompleteCommand{TaskID: taskID}); err != nil {
		t.Fatalf("complete: %v", err)
	}
	assertStatus(t, svc, taskID, StatusCompleted)
	if _, busy := dir.active["d1"]; busy {
		t.Fatal("completion must release the doer")
	}
	if dir.done["d1"] != 1 {
		t.Fatal("completion must count towards the doer's total")
	}
}

func TestAssignBusyDoerRollsBack(t *testing.T) {
	dir := newFakeDirectory()
	svc := NewService(setupTestStore(t), dir, nil, zerolog.Nop())
	ctx := context.Background()

	first := mustCreateTask(t, svc, "u_first")
	second := mustCreateTask(t, svc, "u_second")

	if err := svc.Assign(ctx, AssignCommand{TaskID: first, DoerID: "d_busy"}); err != nil {
		t.Fatalf("assign first: %v", err)
	}
	err := svc.Assign(ctx, AssignCommand{TaskID: second, DoerID: "d_busy"})
	if err != ErrDoerBusy {
		t.Fatalf("assign second: got %v, want ErrDoerBusy", err)
	}
	// The second task returns to the pool.
	assertStatus(t, svc, second, StatusPending)
}

func TestCompletePendingTaskRejected(t *testing.T) {
	svc := NewService(setupTestStore(t), newFakeDirectory(), nil, zerolog.Nop())
	taskID := mustCreateTask(t, svc, "u_skip")
	err := svc.Complete(context.Background(), CompleteCommand{TaskID: taskID})
	if err != ErrInvalidState {
		t.Fatalf("complete pending: got %v, want ErrInvalidState", err)
	}
}

func TestCompletedByDoerOrderAndLimit(t *testing.T) {
	store := setupTestStore(t)
	svc := NewService(store, newFakeDirectory(), nil, zerolog.Nop())
	ctx := context.Background()

	// Drive three tasks through the full flow for the same doer.
	for i := 0; i < 3; i++ {
		id := mustCreateTask(t, svc, "u_hist")
		if err := svc.Assign(ctx, AssignCommand{TaskID: id, DoerID: "d_hist"}); err != nil {
			t.Fatalf("assign: %v", err)
		}
		if err := svc.Start(ctx, StartCommand{TaskID: id, DoerID: "d_hist"}); err != nil {
			t.Fatalf("start: %v", err)
		}
		if err := svc.Complete(ctx, CompleteCommand{TaskID: id}); err != nil {
			t.Fatalf("complete: %v", err)
		}
	}

	history, err := store.CompletedByDoer(ctx, "d_hist", 50)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("got %d history records, want 3", len(history))
	}
	for i := 1; i < len(history); i++ {
		if history[i].CompletedAt.After(history[i-1].CompletedAt) {
			t.Fatal("history must be ordered newest first")
		}
	}

	limited, err := store.CompletedByDoer(ctx, "d_hist", 2)
	if err != nil {
		t.Fatalf("limited history: %v", err)
	}
	if len(limited) != 2 {
		t.Fatalf("got %d records, want limit of 2", len(limited))
	}
}

func setupTestStore(t *testing.T) *Store {
	t.Helper()

	dsn := os.Getenv("TASKHIVE_TEST_DSN")
	if dsn == "" {
		t.Skip("TASKHIVE_TEST_DSN not set; skipping DB-backed tests")
	}

	ctx := context.Background()
	db, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := applyMigration(ctx, db); err != nil {
		t.Fatalf("apply migration: %v", err)
	}

	if _, err := db.Exec(ctx, "TRUNCATE TABLE task_state_events, tasks"); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}

	return NewStore(db)
}

func applyMigration(ctx context.Context, db *pgxpool.Pool) error {
	root, err := repoRoot()
	if err != nil {
		return err
	}
	path := filepath.Join(root, "migrations", "0001_init.sql")
	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	cleaned := stripSQLComments(string(content))
	for _, stmt := range splitSQL(cleaned) {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func repoRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for i := 0; i < 6; i++ {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", os.ErrNotExist
}

func stripSQLComments(input string) string {
	var b strings.Builder
	scanner := bufio.NewScanner(strings.NewReader(input))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "--") {
			continue
		}
		b.WriteString(scanner.Text())
		b.WriteString("\n")
	}
	return b.String()
}

func splitSQL(input string) []string {
	parts := strings.Split(input, ";")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		stmt := strings.TrimSpace(p)
		if stmt == "" {
			continue
		}
		out = append(out, stmt)
	}
	return out
}
