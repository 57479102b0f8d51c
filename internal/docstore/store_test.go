package docstore

import (
	"context"
	"errors"
	"strconv"
	"testing"
)

type testCandidate struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	JobID int64  `json:"jobId"`
	Stage string `json:"stage"`
}

func (c testCandidate) DocumentID() string {
	if c.ID == 0 {
		return ""
	}
	return strconv.FormatInt(c.ID, 10)
}

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:", DefaultSchema)
	if err != nil {
		t.Fatalf("Open(:memory:) failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// TestMigrationsIdempotent runs Open twice on the same directory and verifies
// the applied migrations are not re-run.
func TestMigrationsIdempotent(t *testing.T) {
	dir := t.TempDir()

	s1, err := Open(dir, DefaultSchema)
	if err != nil {
		t.Fatalf("first Open failed: %v", err)
	}
	v1, err := s1.AppliedMigrations()
	if err != nil {
		t.Fatalf("AppliedMigrations: %v", err)
	}
	s1.Close()

	s2, err := Open(dir, DefaultSchema)
	if err != nil {
		t.Fatalf("second Open failed: %v", err)
	}
	defer s2.Close()

	v2, err := s2.AppliedMigrations()
	if err != nil {
		t.Fatalf("AppliedMigrations: %v", err)
	}
	if len(v1) == 0 || len(v1) != len(v2) {
		t.Errorf("migration count changed: %d -> %d", len(v1), len(v2))
	}
}

func TestParseMigrationVersion(t *testing.T) {
	v, err := parseMigrationVersion("001_documents.sql")
	if err != nil || v != 1 {
		t.Fatalf("parseMigrationVersion = %d, %v; want 1", v, err)
	}
	if _, err := parseMigrationVersion("documents.sql"); err == nil {
		t.Error("expected error for unnumbered file")
	}
}

func TestPutGetRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	want := testCandidate{ID: 3, Email: "a@example.com", JobID: 7, Stage: "screen"}
	if err := s.Put(ctx, Candidates, want); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, err := Get[testCandidate](ctx, s, Candidates, "3")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != want {
		t.Errorf("Get = %+v, want %+v", got, want)
	}

	// Last write wins.
	want.Stage = "tech"
	if err := s.Put(ctx, Candidates, want); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, _ = Get[testCandidate](ctx, s, Candidates, "3")
	if got.Stage != "tech" {
		t.Errorf("Stage = %q, want tech", got.Stage)
	}
	if n, _ := s.Count(ctx, Candidates); n != 1 {
		t.Errorf("Count = %d, want 1", n)
	}
}

func TestGetMissing(t *testing.T) {
	s := openTestStore(t)
	_, err := Get[testCandidate](context.Background(), s, Candidates, "42")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestQueryByIndexedField(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	docs := []testCandidate{
		{ID: 1, Email: "a@x.io", JobID: 7, Stage: "applied"},
		{ID: 2, Email: "b@x.io", JobID: 8, Stage: "screen"},
		{ID: 3, Email: "c@x.io", JobID: 7, Stage: "screen"},
	}
	if err := PutAll(ctx, s, Candidates, docs); err != nil {
		t.Fatalf("PutAll: %v", err)
	}

	byJob, err := Query[testCandidate](ctx, s, Candidates, "jobId", "7")
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(byJob) != 2 || byJob[0].ID != 1 || byJob[1].ID != 3 {
		t.Errorf("Query jobId=7 = %+v", byJob)
	}

	// Re-putting with a new stage moves the record between index buckets.
	docs[0].Stage = "screen"
	if err := s.Put(ctx, Candidates, docs[0]); err != nil {
		t.Fatalf("Put: %v", err)
	}
	applied, _ := Query[testCandidate](ctx, s, Candidates, "stage", "applied")
	if len(applied) != 0 {
		t.Errorf("stale index entry: %+v", applied)
	}
	screen, _ := Query[testCandidate](ctx, s, Candidates, "stage", "screen")
	if len(screen) != 3 {
		t.Errorf("len(screen) = %d, want 3", len(screen))
	}
}

func TestQueryRejectsUnindexedField(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if _, err := Query[testCandidate](ctx, s, Candidates, "name", "x"); !errors.Is(err, ErrNotIndexed) {
		t.Errorf("err = %v, want ErrNotIndexed", err)
	}
	if _, err := Query[testCandidate](ctx, s, "widgets", "id", "x"); !errors.Is(err, ErrUnknownCollection) {
		t.Errorf("err = %v, want ErrUnknownCollection", err)
	}
	if err := s.Put(ctx, "widgets", testCandidate{ID: 1}); !errors.Is(err, ErrUnknownCollection) {
		t.Errorf("Put err = %v, want ErrUnknownCollection", err)
	}
}

func TestReplaceAllSwapsSnapshot(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	old := []testCandidate{{ID: 1, JobID: 1}, {ID: 2, JobID: 1}, {ID: 3, JobID: 2}}
	if err := PutAll(ctx, s, Candidates, old); err != nil {
		t.Fatalf("PutAll: %v", err)
	}

	next := []testCandidate{{ID: 4, JobID: 9}}
	if err := ReplaceAll(ctx, s, Candidates, next); err != nil {
		t.Fatalf("ReplaceAll: %v", err)
	}

	all, err := GetAll[testCandidate](ctx, s, Candidates)
	if err != nil {
		t.Fatalf("GetAll: %v", err)
	}
	if len(all) != 1 || all[0].ID != 4 {
		t.Errorf("GetAll after ReplaceAll = %+v", all)
	}
	if left, _ := Query[testCandidate](ctx, s, Candidates, "jobId", "1"); len(left) != 0 {
		t.Errorf("index kept replaced records: %+v", left)
	}
}

func TestReplaceAllFailureKeepsPrevious(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := PutAll(ctx, s, Candidates, []testCandidate{{ID: 1}, {ID: 2}}); err != nil {
		t.Fatalf("PutAll: %v", err)
	}

	// A zero id cannot be encoded, so nothing of the new snapshot lands.
	bad := []testCandidate{{ID: 5}, {ID: 0}}
	if err := ReplaceAll(ctx, s, Candidates, bad); err == nil {
		t.Fatal("expected error for empty id")
	}
	all, _ := GetAll[testCandidate](ctx, s, Candidates)
	if len(all) != 2 {
		t.Errorf("len(all) = %d, want previous snapshot of 2", len(all))
	}
}

func TestDeleteAndClear(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := PutAll(ctx, s, Candidates, []testCandidate{{ID: 1, Stage: "hired"}, {ID: 2}}); err != nil {
		t.Fatalf("PutAll: %v", err)
	}
	if err := s.Delete(ctx, Candidates, "1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Delete(ctx, Candidates, "1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete err = %v, want ErrNotFound", err)
	}
	if hired, _ := Query[testCandidate](ctx, s, Candidates, "stage", "hired"); len(hired) != 0 {
		t.Errorf("deleted record still indexed: %+v", hired)
	}

	if err := s.Clear(ctx, Candidates); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if n, _ := s.Count(ctx, Candidates); n != 0 {
		t.Errorf("Count after Clear = %d", n)
	}
}

func TestCollectionsSorted(t *testing.T) {
	got := DefaultSchema.Collections()
	want := []string{Assessments, Candidates, Jobs, Notes, Submissions, Timeline}
	if len(got) != len(want) {
		t.Fatalf("Collections = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Collections[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
