// Package mockapi is the in-process stand-in for a hiring backend. It owns the
// authoritative jobs, candidates, assessments, timeline and submissions, writes
// every accepted change through to a docstore, and restores from it on start.
package mockapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/kalambet/talentflow/internal/docstore"
	"github.com/kalambet/talentflow/internal/hiring"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrDuplicateSlug = errors.New("slug already exists")
	// ErrJobInUse is returned when deleting a job that candidates or an
	// assessment still reference.
	ErrJobInUse = errors.New("job has candidates or an assessment")
	// ErrOrderMoved is returned by ReorderJob when the job is no longer at the
	// order the caller expected.
	ErrOrderMoved = errors.New("job order changed")
)

// Backend holds the mock server state. All methods are safe for concurrent use;
// mutations are serialized.
type Backend struct {
	mu   sync.Mutex
	docs *docstore.Store

	jobs        map[int64]hiring.Job
	candidates  map[int64]hiring.Candidate
	assessments map[int64]hiring.Assessment // by job id
	timeline    map[int64][]hiring.TimelineEvent
	submissions []hiring.Submission

	nextJob, nextCandidate, nextAssessment, nextEvent, nextSubmission int64

	now    func() time.Time
	logger *slog.Logger
}

// New returns an empty Backend persisting to docs. Call Seed before serving.
func New(docs *docstore.Store) *Backend {
	return &Backend{
		docs:           docs,
		jobs:           make(map[int64]hiring.Job),
		candidates:     make(map[int64]hiring.Candidate),
		assessments:    make(map[int64]hiring.Assessment),
		timeline:       make(map[int64][]hiring.TimelineEvent),
		nextJob:        1,
		nextCandidate:  1,
		nextAssessment: 1,
		nextEvent:      1,
		nextSubmission: 1,
		now:            func() time.Time { return time.Now().UTC() },
		logger:         slog.Default(),
	}
}

// ListJobs filters, sorts and paginates jobs.
func (b *Backend) ListJobs(q hiring.JobQuery) hiring.Page[hiring.Job] {
	b.mu.Lock()
	defer b.mu.Unlock()

	var out []hiring.Job
	for _, j := range b.jobs {
		if q.Match(j) {
			out = append(out, j)
		}
	}
	hiring.SortJobs(out, q.Sort)
	return hiring.Paginate(out, q.Page, q.PageSize, hiring.DefaultJobPageSize)
}

func (b *Backend) GetJob(id int64) (hiring.Job, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	j, ok := b.jobs[id]
	if !ok {
		return hiring.Job{}, fmt.Errorf("job %d: %w", id, ErrNotFound)
	}
	return j, nil
}

// CreateJob validates in, fills defaults (slug from title, status active,
// order after the last job) and stores the job.
func (b *Backend) CreateJob(ctx context.Context, in hiring.JobInput) (hiring.Job, error) {
	if err := hiring.Validate(in); err != nil {
		return hiring.Job{}, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	j := hiring.Job{
		ID:        b.nextJob,
		Title:     in.Title,
		Slug:      in.Slug,
		Status:    in.Status,
		Tags:      append([]string{}, in.Tags...),
		CreatedAt: b.now(),
	}
	if j.Slug == "" {
		j.Slug = hiring.Slugify(in.Title)
		if j.Slug == "" {
			return hiring.Job{}, &hiring.ValidationError{Fields: map[string]string{
				"title": "must contain at least one letter or digit",
			}}
		}
	}
	if j.Status == "" {
		j.Status = hiring.JobActive
	}
	if in.Order != nil {
		j.Order = *in.Order
	} else {
		j.Order = b.maxOrder() + 1
	}
	if b.slugTaken(j.Slug, 0) {
		return hiring.Job{}, ErrDuplicateSlug
	}
	if b.orderTaken(j.Order, 0) {
		return hiring.Job{}, orderTakenError(j.Order)
	}

	if err := b.docs.Put(ctx, docstore.Jobs, j); err != nil {
		return hiring.Job{}, fmt.Errorf("persisting job: %w", err)
	}
	b.jobs[j.ID] = j
	b.nextJob++
	return j, nil
}

// UpdateJob applies a partial update. Changing the slug to one held by another
// job fails with ErrDuplicateSlug.
func (b *Backend) UpdateJob(ctx context.Context, id int64, p hiring.JobPatch) (hiring.Job, error) {
	if err := hiring.Validate(p); err != nil {
		return hiring.Job{}, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	j, ok := b.jobs[id]
	if !ok {
		return hiring.Job{}, fmt.Errorf("job %d: %w", id, ErrNotFound)
	}
	updated := p.Apply(j)
	if updated.Slug != j.Slug && b.slugTaken(updated.Slug, id) {
		return hiring.Job{}, ErrDuplicateSlug
	}
	if updated.Order != j.Order && b.orderTaken(updated.Order, id) {
		return hiring.Job{}, orderTakenError(updated.Order)
	}

	if err := b.docs.Put(ctx, docstore.Jobs, updated); err != nil {
		return hiring.Job{}, fmt.Errorf("persisting job: %w", err)
	}
	b.jobs[id] = updated
	return updated, nil
}

// ReorderJob moves job id from req.FromOrder to req.ToOrder. Moving forward
// shifts jobs in (from, to] down by one; moving backward shifts jobs in
// [to, from) up by one. Every other job keeps its order.
func (b *Backend) ReorderJob(ctx context.Context, id int64, req hiring.ReorderRequest) error {
	if err := hiring.Validate(req); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	moved, ok := b.jobs[id]
	if !ok {
		return fmt.Errorf("job %d: %w", id, ErrNotFound)
	}
	if moved.Order != req.FromOrder {
		return fmt.Errorf("job %d is at order %d: %w", id, moved.Order, ErrOrderMoved)
	}
	from, to := req.FromOrder, req.ToOrder
	if from == to {
		return nil
	}

	var changed []hiring.Job
	for _, j := range b.jobs {
		switch {
		case j.ID == id:
			j.Order = to
		case from < to && j.Order > from && j.Order <= to:
			j.Order--
		case from > to && j.Order >= to && j.Order < from:
			j.Order++
		default:
			continue
		}
		changed = append(changed, j)
	}

	if err := docstore.PutAll(ctx, b.docs, docstore.Jobs, changed); err != nil {
		return fmt.Errorf("persisting reorder: %w", err)
	}
	for _, j := range changed {
		b.jobs[j.ID] = j
	}
	return nil
}

// DeleteJob removes a job nothing references. Jobs with candidates or an
// assessment are rejected with ErrJobInUse.
func (b *Backend) DeleteJob(ctx context.Context, id int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.jobs[id]; !ok {
		return fmt.Errorf("job %d: %w", id, ErrNotFound)
	}
	if _, ok := b.assessments[id]; ok {
		return ErrJobInUse
	}
	for _, c := range b.candidates {
		if c.JobID == id {
			return ErrJobInUse
		}
	}

	if err := b.docs.Delete(ctx, docstore.Jobs, hiring.Job{ID: id}.DocumentID()); err != nil && !errors.Is(err, docstore.ErrNotFound) {
		return fmt.Errorf("deleting job: %w", err)
	}
	delete(b.jobs, id)
	return nil
}

func (b *Backend) maxOrder() int {
	highest := 0
	for _, j := range b.jobs {
		highest = max(highest, j.Order)
	}
	return highest
}

// orderTaken reports whether a job other than except holds order. Orders are
// unique; only ReorderJob shifts them.
func (b *Backend) orderTaken(order int, except int64) bool {
	for _, j := range b.jobs {
		if j.ID != except && j.Order == order {
			return true
		}
	}
	return false
}

func orderTakenError(order int) error {
	return &hiring.ValidationError{Fields: map[string]string{
		"order": fmt.Sprintf("order %d is held by another job; use reorder", order),
	}}
}

func (b *Backend) slugTaken(slug string, except int64) bool {
	for _, j := range b.jobs {
		if j.ID != except && j.Slug == slug {
			return true
		}
	}
	return false
}
