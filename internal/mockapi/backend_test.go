package mockapi

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kalambet/talentflow/internal/docstore"
	"github.com/kalambet/talentflow/internal/hiring"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestBackend(t *testing.T) (*Backend, *docstore.Store) {
	t.Helper()
	docs, err := docstore.Open(":memory:", docstore.DefaultSchema)
	require.NoError(t, err)
	t.Cleanup(func() { docs.Close() })

	b := New(docs)
	b.now = func() time.Time { return testNow }
	return b, docs
}

func ptr[T any](v T) *T { return &v }

// seedOrders creates n jobs with orders 1..n and returns their ids by order.
func seedOrders(t *testing.T, b *Backend, n int) map[int]int64 {
	t.Helper()
	ids := make(map[int]int64, n)
	for i := 1; i <= n; i++ {
		j, err := b.CreateJob(context.Background(), hiring.JobInput{Title: "Job " + string(rune('A'+i-1))})
		require.NoError(t, err)
		require.Equal(t, i, j.Order)
		ids[i] = j.ID
	}
	return ids
}

func TestCreateJobDefaults(t *testing.T) {
	b, docs := newTestBackend(t)
	ctx := context.Background()

	j, err := b.CreateJob(ctx, hiring.JobInput{Title: "Senior Go Engineer"})
	require.NoError(t, err)

	assert.Equal(t, int64(1), j.ID)
	assert.Equal(t, "senior-go-engineer", j.Slug)
	assert.Equal(t, hiring.JobActive, j.Status)
	assert.Equal(t, 1, j.Order)
	assert.Equal(t, []string{}, j.Tags)
	assert.True(t, j.CreatedAt.Equal(testNow))

	stored, err := docstore.Get[hiring.Job](ctx, docs, docstore.Jobs, "1")
	require.NoError(t, err)
	assert.Equal(t, j.Slug, stored.Slug)
}

func TestCreateJobRejectsUnsluggableTitle(t *testing.T) {
	b, _ := newTestBackend(t)
	_, err := b.CreateJob(context.Background(), hiring.JobInput{Title: "!!!"})

	var verr *hiring.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "title")
}

func TestQAEngineerScenario(t *testing.T) {
	b, _ := newTestBackend(t)
	ctx := context.Background()

	created, err := b.CreateJob(ctx, hiring.JobInput{
		Title:  "QA Engineer",
		Slug:   "qa-engineer",
		Status: hiring.JobActive,
		Tags:   []string{"remote"},
	})
	require.NoError(t, err)

	page := b.ListJobs(hiring.JobQuery{Status: hiring.JobActive})
	require.Len(t, page.Data, 1)
	assert.Equal(t, created, page.Data[0])

	_, err = b.CreateJob(ctx, hiring.JobInput{Title: "QA Engineer II", Slug: "qa-engineer"})
	assert.ErrorIs(t, err, ErrDuplicateSlug)
	assert.Equal(t, 1, b.ListJobs(hiring.JobQuery{}).Pagination.Total)
}

func TestUpdateJobSlugConflict(t *testing.T) {
	b, _ := newTestBackend(t)
	ctx := context.Background()

	a, err := b.CreateJob(ctx, hiring.JobInput{Title: "Alpha"})
	require.NoError(t, err)
	_, err = b.CreateJob(ctx, hiring.JobInput{Title: "Beta"})
	require.NoError(t, err)

	_, err = b.UpdateJob(ctx, a.ID, hiring.JobPatch{Slug: ptr("beta")})
	assert.ErrorIs(t, err, ErrDuplicateSlug)

	// Re-sending the job's own slug is not a conflict.
	updated, err := b.UpdateJob(ctx, a.ID, hiring.JobPatch{Slug: ptr("alpha"), Title: ptr("Alpha Prime")})
	require.NoError(t, err)
	assert.Equal(t, "Alpha Prime", updated.Title)

	_, err = b.UpdateJob(ctx, 99, hiring.JobPatch{Title: ptr("x")})
	assert.ErrorIs(t, err, ErrNotFound)
}

// No two accepted jobs ever share a slug, whatever mix of creates and
// updates is attempted.
func TestSlugUniquenessAcrossOperations(t *testing.T) {
	b, _ := newTestBackend(t)
	ctx := context.Background()

	slugs := []string{"a", "b", "a", "c", "b"}
	var ids []int64
	for _, s := range slugs {
		j, err := b.CreateJob(ctx, hiring.JobInput{Title: "T", Slug: s})
		if err == nil {
			ids = append(ids, j.ID)
		}
	}
	for i, id := range ids {
		_, _ = b.UpdateJob(ctx, id, hiring.JobPatch{Slug: ptr(slugs[(i+1)%len(slugs)])})
	}

	seen := map[string]bool{}
	for _, j := range b.ListJobs(hiring.JobQuery{PageSize: hiring.MaxPageSize}).Data {
		assert.False(t, seen[j.Slug], "duplicate slug %q", j.Slug)
		seen[j.Slug] = true
	}
}

func TestReorderForward(t *testing.T) {
	b, docs := newTestBackend(t)
	ctx := context.Background()
	ids := seedOrders(t, b, 10)

	require.NoError(t, b.ReorderJob(ctx, ids[3], hiring.ReorderRequest{FromOrder: 3, ToOrder: 7}))

	want := map[int64]int{}
	for order, id := range ids {
		switch {
		case order == 3:
			want[id] = 7
		case order >= 4 && order <= 7:
			want[id] = order - 1
		default:
			want[id] = order
		}
	}
	for id, order := range want {
		j, err := b.GetJob(id)
		require.NoError(t, err)
		assert.Equal(t, order, j.Order, "job %d", id)

		stored, err := docstore.Get[hiring.Job](ctx, docs, docstore.Jobs, j.DocumentID())
		require.NoError(t, err)
		assert.Equal(t, order, stored.Order, "stored job %d", id)
	}
}

func TestReorderBackward(t *testing.T) {
	b, _ := newTestBackend(t)
	ctx := context.Background()
	ids := seedOrders(t, b, 10)

	require.NoError(t, b.ReorderJob(ctx, ids[8], hiring.ReorderRequest{FromOrder: 8, ToOrder: 2}))

	for order, id := range ids {
		j, _ := b.GetJob(id)
		switch {
		case order == 8:
			assert.Equal(t, 2, j.Order)
		case order >= 2 && order < 8:
			assert.Equal(t, order+1, j.Order)
		default:
			assert.Equal(t, order, j.Order)
		}
	}
}

func TestReorderRejectsMismatchedOrder(t *testing.T) {
	b, _ := newTestBackend(t)
	ids := seedOrders(t, b, 3)

	err := b.ReorderJob(context.Background(), ids[1], hiring.ReorderRequest{FromOrder: 2, ToOrder: 3})
	require.ErrorIs(t, err, ErrOrderMoved)
	assert.Contains(t, err.Error(), "is at order 1")

	err = b.ReorderJob(context.Background(), 42, hiring.ReorderRequest{FromOrder: 1, ToOrder: 2})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestJobOrdersStayUnique(t *testing.T) {
	b, _ := newTestBackend(t)
	ctx := context.Background()
	ids := seedOrders(t, b, 3)

	two := 2
	_, err := b.CreateJob(ctx, hiring.JobInput{Title: "Clash", Order: &two})
	var verr *hiring.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "order")

	one := 1
	_, err = b.UpdateJob(ctx, ids[3], hiring.JobPatch{Order: &one})
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "order")

	free := 9
	j, err := b.CreateJob(ctx, hiring.JobInput{Title: "Free", Order: &free})
	require.NoError(t, err)
	assert.Equal(t, 9, j.Order)

	same := 3
	_, err = b.UpdateJob(ctx, ids[3], hiring.JobPatch{Order: &same})
	require.NoError(t, err, "keeping its own order is not a clash")

	seen := map[int]int64{}
	for _, j := range b.ListJobs(hiring.JobQuery{PageSize: hiring.MaxPageSize}).Data {
		prev, dup := seen[j.Order]
		require.False(t, dup, "jobs %d and %d share order %d", prev, j.ID, j.Order)
		seen[j.Order] = j.ID
	}
	assert.Len(t, seen, 4)
}

func TestListJobsManualOrderPutsArchivedLast(t *testing.T) {
	b, _ := newTestBackend(t)
	ctx := context.Background()
	ids := seedOrders(t, b, 4)

	_, err := b.UpdateJob(ctx, ids[1], hiring.JobPatch{Status: ptr(hiring.JobArchived)})
	require.NoError(t, err)

	page := b.ListJobs(hiring.JobQuery{Sort: hiring.SortManual})
	got := make([]int64, len(page.Data))
	for i, j := range page.Data {
		got[i] = j.ID
	}
	assert.Equal(t, []int64{ids[2], ids[3], ids[4], ids[1]}, got)
}

func TestDeleteJob(t *testing.T) {
	b, docs := newTestBackend(t)
	ctx := context.Background()

	free, err := b.CreateJob(ctx, hiring.JobInput{Title: "Free"})
	require.NoError(t, err)
	busy, err := b.CreateJob(ctx, hiring.JobInput{Title: "Busy"})
	require.NoError(t, err)
	_, err = b.CreateCandidate(ctx, hiring.CandidateInput{Name: "Ann", Email: "ann@example.com", JobID: busy.ID})
	require.NoError(t, err)

	assert.ErrorIs(t, b.DeleteJob(ctx, busy.ID), ErrJobInUse)
	require.NoError(t, b.DeleteJob(ctx, free.ID))
	assert.ErrorIs(t, b.DeleteJob(ctx, free.ID), ErrNotFound)

	_, err = docstore.Get[hiring.Job](ctx, docs, docstore.Jobs, free.DocumentID())
	assert.True(t, errors.Is(err, docstore.ErrNotFound))
}
