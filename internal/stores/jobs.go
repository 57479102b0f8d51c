package stores

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/kalambet/talentflow/internal/docstore"
	"github.com/kalambet/talentflow/internal/hiring"
)

const reorderFailedMessage = "Reorder failed, rolled back"

// ErrJobNotCached is returned by Reorder when no cached job holds fromOrder.
var ErrJobNotCached = errors.New("no cached job at that order")

type JobStore struct {
	state

	api  JobAPI
	docs *docstore.Store

	jobs       []hiring.Job
	pagination hiring.Pagination
	lastQuery  hiring.JobQuery
}

func NewJobStore(api JobAPI, docs *docstore.Store) *JobStore {
	return &JobStore{
		state: state{logger: slog.Default()},
		api:   api,
		docs:  docs,
		jobs:  []hiring.Job{},
	}
}

// Jobs returns a copy of the cached list in server order.
func (s *JobStore) Jobs() []hiring.Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.jobs)
}

func (s *JobStore) Pagination() hiring.Pagination {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pagination
}

// Fetch lists jobs. On success the page replaces the cache and the mirrored
// collection in one swap. On failure the error is recorded and the cache is
// rebuilt from the mirror, empty if nothing was mirrored.
func (s *JobStore) Fetch(ctx context.Context, q hiring.JobQuery) error {
	n := s.begin(true)
	defer s.end()

	s.mu.Lock()
	s.lastQuery = q
	s.mu.Unlock()

	page, err := s.api.ListJobs(ctx, q)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		if !s.setErrLocked(n, err) {
			return err
		}
		s.jobs, s.pagination = s.fallbackLocked(ctx, q)
		return err
	}
	if !s.seq.accept(n) {
		s.logger.Debug("dropping stale job list", "seq", n)
		return nil
	}
	s.jobs, s.pagination = page.Data, page.Pagination
	if err := docstore.ReplaceAll(ctx, s.docs, docstore.Jobs, page.Data); err != nil {
		s.logger.Warn("mirroring jobs", "error", err)
	}
	return nil
}

func (s *JobStore) fallbackLocked(ctx context.Context, q hiring.JobQuery) ([]hiring.Job, hiring.Pagination) {
	var (
		cached []hiring.Job
		err    error
	)
	if q.Status != "" {
		cached, err = docstore.Query[hiring.Job](ctx, s.docs, docstore.Jobs, "status", string(q.Status))
	} else {
		cached, err = docstore.GetAll[hiring.Job](ctx, s.docs, docstore.Jobs)
	}
	if err != nil {
		s.logger.Warn("reading mirrored jobs", "error", err)
	}

	out := []hiring.Job{}
	for _, j := range cached {
		if q.Match(j) {
			out = append(out, j)
		}
	}
	hiring.SortJobs(out, q.Sort)
	return out, localPagination(len(out))
}

// Create appends the confirmed job to the cache and mirrors it. Optimistic
// changes the caller made are not rolled back on failure.
func (s *JobStore) Create(ctx context.Context, in hiring.JobInput) (hiring.Job, error) {
	n := s.begin(false)
	defer s.end()

	j, err := s.api.CreateJob(ctx, in)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.setErrLocked(n, err)
		return hiring.Job{}, err
	}
	if !s.seq.accept(n) {
		return j, nil
	}
	s.jobs = append(s.jobs, j)
	s.mirrorLocked(ctx, j)
	return j, nil
}

// Update replaces the cached job with the confirmed one.
func (s *JobStore) Update(ctx context.Context, id int64, p hiring.JobPatch) (hiring.Job, error) {
	n := s.begin(false)
	defer s.end()

	j, err := s.api.UpdateJob(ctx, id, p)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.setErrLocked(n, err)
		return hiring.Job{}, err
	}
	if !s.seq.accept(n) {
		return j, nil
	}
	for i := range s.jobs {
		if s.jobs[i].ID == id {
			s.jobs[i] = j
		}
	}
	s.mirrorLocked(ctx, j)
	return j, nil
}

// Delete removes a job from the server, the cache and the mirror.
func (s *JobStore) Delete(ctx context.Context, id int64) error {
	n := s.begin(false)
	defer s.end()

	err := s.api.DeleteJob(ctx, id)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.setErrLocked(n, err)
		return err
	}
	if !s.seq.accept(n) {
		return nil
	}
	s.jobs = slices.DeleteFunc(s.jobs, func(j hiring.Job) bool { return j.ID == id })
	if err := s.docs.Delete(ctx, docstore.Jobs, hiring.Job{ID: id}.DocumentID()); err != nil && !errors.Is(err, docstore.ErrNotFound) {
		s.logger.Warn("removing mirrored job", "id", id, "error", err)
	}
	return nil
}

// Reorder moves the cached job at fromOrder to toOrder, then refetches with
// the last query whether or not the server accepted it. On failure the
// refetch rolls the list back to server state and Err reports the rollback.
func (s *JobStore) Reorder(ctx context.Context, fromOrder, toOrder int) error {
	s.begin(false)
	defer s.end()

	s.mu.Lock()
	var id int64
	for _, j := range s.jobs {
		if j.Order == fromOrder {
			id = j.ID
			break
		}
	}
	q := s.lastQuery
	s.mu.Unlock()

	var err error
	if id == 0 {
		err = ErrJobNotCached
	} else {
		err = s.api.ReorderJob(ctx, id, hiring.ReorderRequest{FromOrder: fromOrder, ToOrder: toOrder})
	}

	fetchErr := s.Fetch(ctx, q)
	if err != nil {
		s.mu.Lock()
		s.err = reorderFailedMessage
		s.mu.Unlock()
		return fmt.Errorf("%s: %w", reorderFailedMessage, err)
	}
	return fetchErr
}

func (s *JobStore) mirrorLocked(ctx context.Context, j hiring.Job) {
	if err := s.docs.Put(ctx, docstore.Jobs, j); err != nil {
		s.logger.Warn("mirroring job", "id", j.ID, "error", err)
	}
}
