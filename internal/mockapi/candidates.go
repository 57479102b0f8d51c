package mockapi

import (
	"context"
	"fmt"

	"github.com/kalambet/talentflow/internal/docstore"
	"github.com/kalambet/talentflow/internal/hiring"
)

// ListCandidates filters by search, stage and job, then paginates in id order.
func (b *Backend) ListCandidates(q hiring.CandidateQuery) hiring.Page[hiring.Candidate] {
	b.mu.Lock()
	defer b.mu.Unlock()

	var out []hiring.Candidate
	for _, c := range b.candidates {
		if q.Match(c) {
			out = append(out, c)
		}
	}
	hiring.SortCandidates(out)
	return hiring.Paginate(out, q.Page, q.PageSize, hiring.DefaultCandidatePageSize)
}

func (b *Backend) GetCandidate(id int64) (hiring.Candidate, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	c, ok := b.candidates[id]
	if !ok {
		return hiring.Candidate{}, fmt.Errorf("candidate %d: %w", id, ErrNotFound)
	}
	return c, nil
}

// CreateCandidate stores a new candidate for an existing job. Stage defaults
// to applied.
func (b *Backend) CreateCandidate(ctx context.Context, in hiring.CandidateInput) (hiring.Candidate, error) {
	if err := hiring.Validate(in); err != nil {
		return hiring.Candidate{}, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.checkJobRef(in.JobID); err != nil {
		return hiring.Candidate{}, err
	}
	c := hiring.Candidate{
		ID:        b.nextCandidate,
		Name:      in.Name,
		Email:     in.Email,
		JobID:     in.JobID,
		Stage:     in.Stage,
		CreatedAt: b.now(),
	}
	if c.Stage == "" {
		c.Stage = hiring.StageApplied
	}

	if err := b.docs.Put(ctx, docstore.Candidates, c); err != nil {
		return hiring.Candidate{}, fmt.Errorf("persisting candidate: %w", err)
	}
	b.candidates[c.ID] = c
	b.nextCandidate++
	return c, nil
}

// UpdateCandidate applies a partial update. A stage change appends exactly
// one timeline event; setting the current stage again appends nothing.
//
// The event and the candidate are two separate writes.
func (b *Backend) UpdateCandidate(ctx context.Context, id int64, p hiring.CandidatePatch) (hiring.Candidate, error) {
	if err := hiring.Validate(p); err != nil {
		return hiring.Candidate{}, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	c, ok := b.candidates[id]
	if !ok {
		return hiring.Candidate{}, fmt.Errorf("candidate %d: %w", id, ErrNotFound)
	}
	if p.JobID != nil && *p.JobID != c.JobID {
		if err := b.checkJobRef(*p.JobID); err != nil {
			return hiring.Candidate{}, err
		}
	}
	updated := p.Apply(c)

	if updated.Stage != c.Stage {
		ev := hiring.TimelineEvent{
			ID:          b.nextEvent,
			CandidateID: id,
			FromStage:   c.Stage,
			ToStage:     updated.Stage,
			Timestamp:   b.now(),
		}
		if err := b.docs.Put(ctx, docstore.Timeline, ev); err != nil {
			return hiring.Candidate{}, fmt.Errorf("persisting timeline event: %w", err)
		}
		b.timeline[id] = append(b.timeline[id], ev)
		b.nextEvent++
	}

	if err := b.docs.Put(ctx, docstore.Candidates, updated); err != nil {
		return hiring.Candidate{}, fmt.Errorf("persisting candidate: %w", err)
	}
	b.candidates[id] = updated
	return updated, nil
}

// Timeline returns the stage changes of a candidate, oldest first.
func (b *Backend) Timeline(id int64) ([]hiring.TimelineEvent, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.candidates[id]; !ok {
		return nil, fmt.Errorf("candidate %d: %w", id, ErrNotFound)
	}
	events := append([]hiring.TimelineEvent{}, b.timeline[id]...)
	hiring.SortTimeline(events)
	return events, nil
}

// StageCounts returns the number of candidates per stage, optionally limited
// to one job (jobID 0 means all jobs).
func (b *Backend) StageCounts(jobID int64) map[hiring.Stage]int {
	b.mu.Lock()
	defer b.mu.Unlock()

	counts := make(map[hiring.Stage]int, len(hiring.Stages))
	for _, st := range hiring.Stages {
		counts[st] = 0
	}
	for _, c := range b.candidates {
		if jobID == 0 || c.JobID == jobID {
			counts[c.Stage]++
		}
	}
	return counts
}

func (b *Backend) checkJobRef(jobID int64) error {
	if _, ok := b.jobs[jobID]; !ok {
		return &hiring.ValidationError{Fields: map[string]string{
			"jobId": fmt.Sprintf("job %d does not exist", jobID),
		}}
	}
	return nil
}
