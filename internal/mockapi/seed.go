package mockapi

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/kalambet/talentflow/internal/docstore"
	"github.com/kalambet/talentflow/internal/hiring"
)

// SeedOptions sizes the generated fixture. RandomSeed 0 picks a time-based seed.
type SeedOptions struct {
	Jobs        int
	Candidates  int
	Assessments int
	RandomSeed  uint64
}

// DefaultSeed is the fixture size used when the docstore is empty.
var DefaultSeed = SeedOptions{Jobs: 25, Candidates: 1000, Assessments: 5}

// Seed loads the backend state. If the docstore already holds jobs, every
// collection is restored from it and restored is true. Otherwise a fixture is
// generated and written through.
func (b *Backend) Seed(ctx context.Context, opts SeedOptions) (restored bool, err error) {
	n, err := b.docs.Count(ctx, docstore.Jobs)
	if err != nil {
		return false, fmt.Errorf("counting stored jobs: %w", err)
	}
	if n > 0 {
		return true, b.restore(ctx)
	}
	return false, b.generate(ctx, opts)
}

func (b *Backend) restore(ctx context.Context) error {
	var (
		jobs        []hiring.Job
		candidates  []hiring.Candidate
		assessments []hiring.Assessment
		events      []hiring.TimelineEvent
		submissions []hiring.Submission
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		jobs, err = docstore.GetAll[hiring.Job](gctx, b.docs, docstore.Jobs)
		return err
	})
	g.Go(func() (err error) {
		candidates, err = docstore.GetAll[hiring.Candidate](gctx, b.docs, docstore.Candidates)
		return err
	})
	g.Go(func() (err error) {
		assessments, err = docstore.GetAll[hiring.Assessment](gctx, b.docs, docstore.Assessments)
		return err
	})
	g.Go(func() (err error) {
		events, err = docstore.GetAll[hiring.TimelineEvent](gctx, b.docs, docstore.Timeline)
		return err
	})
	g.Go(func() (err error) {
		submissions, err = docstore.GetAll[hiring.Submission](gctx, b.docs, docstore.Submissions)
		return err
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("restoring state: %w", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.install(jobs, candidates, assessments)
	for _, ev := range events {
		b.timeline[ev.CandidateID] = append(b.timeline[ev.CandidateID], ev)
		b.nextEvent = max(b.nextEvent, ev.ID+1)
	}
	for _, s := range submissions {
		b.nextSubmission = max(b.nextSubmission, s.ID+1)
	}
	b.submissions = submissions

	b.logger.Info("restored mock state",
		"jobs", len(jobs),
		"candidates", len(candidates),
		"assessments", len(assessments),
		"timeline_events", len(events),
		"submissions", len(submissions),
	)
	return nil
}

func (b *Backend) generate(ctx context.Context, opts SeedOptions) error {
	f := newFixture(opts.RandomSeed, b.now())
	jobs := f.jobs(opts.Jobs)
	candidates := f.candidates(opts.Candidates, jobs)
	assessments := f.assessments(opts.Assessments, jobs)

	if err := docstore.ReplaceAll(ctx, b.docs, docstore.Jobs, jobs); err != nil {
		return fmt.Errorf("writing seed jobs: %w", err)
	}
	if err := docstore.ReplaceAll(ctx, b.docs, docstore.Candidates, candidates); err != nil {
		return fmt.Errorf("writing seed candidates: %w", err)
	}
	if err := docstore.ReplaceAll(ctx, b.docs, docstore.Assessments, assessments); err != nil {
		return fmt.Errorf("writing seed assessments: %w", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.install(jobs, candidates, assessments)

	b.logger.Info("seeded mock state",
		"jobs", len(jobs),
		"candidates", len(candidates),
		"assessments", len(assessments),
	)
	return nil
}

// install replaces the in-memory entities and moves id sequences past the
// highest id seen. Callers hold b.mu.
func (b *Backend) install(jobs []hiring.Job, candidates []hiring.Candidate, assessments []hiring.Assessment) {
	for _, j := range jobs {
		b.jobs[j.ID] = j
		b.nextJob = max(b.nextJob, j.ID+1)
	}
	for _, c := range candidates {
		b.candidates[c.ID] = c
		b.nextCandidate = max(b.nextCandidate, c.ID+1)
	}
	for _, a := range assessments {
		b.assessments[a.JobID] = a
		b.nextAssessment = max(b.nextAssessment, a.ID+1)
	}
}
