package stores

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/kalambet/talentflow/internal/client"
	"github.com/kalambet/talentflow/internal/docstore"
	"github.com/kalambet/talentflow/internal/hiring"
)

// AssessmentStore caches assessments by job id. Requests for different jobs
// never supersede each other, so sequences are kept per job.
type AssessmentStore struct {
	state

	api  AssessmentAPI
	docs *docstore.Store

	assessments map[int64]hiring.Assessment
	seqs        map[int64]*sequence
}

func NewAssessmentStore(api AssessmentAPI, docs *docstore.Store) *AssessmentStore {
	return &AssessmentStore{
		state:       state{logger: slog.Default()},
		api:         api,
		docs:        docs,
		assessments: make(map[int64]hiring.Assessment),
		seqs:        make(map[int64]*sequence),
	}
}

// Assessment returns the cached assessment of a job.
func (s *AssessmentStore) Assessment(jobID int64) (hiring.Assessment, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.assessments[jobID]
	return a, ok
}

func (s *AssessmentStore) begin(jobID int64, reset bool) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inflight++
	if reset {
		s.err = ""
	}
	seq, ok := s.seqs[jobID]
	if !ok {
		seq = &sequence{}
		s.seqs[jobID] = seq
	}
	return seq.next()
}

// Fetch loads the assessment of jobID. On a failure other than not found the
// mirrored copy, if any, is cached instead.
func (s *AssessmentStore) Fetch(ctx context.Context, jobID int64) error {
	n := s.begin(jobID, true)
	defer s.end()

	a, err := s.api.GetAssessment(ctx, jobID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.seqs[jobID].accept(n) {
		s.logger.Debug("dropping stale assessment", "job", jobID, "seq", n)
		return err
	}
	if err != nil {
		s.err = err.Error()
		if client.KindOf(err) == client.KindNotFound {
			// Gone on the server, so the mirror is not served.
			delete(s.assessments, jobID)
			return err
		}
		cached, qerr := docstore.Query[hiring.Assessment](ctx, s.docs, docstore.Assessments, "jobId", strconv.FormatInt(jobID, 10))
		if qerr != nil {
			s.logger.Warn("reading mirrored assessment", "job", jobID, "error", qerr)
		}
		if len(cached) > 0 {
			s.assessments[jobID] = cached[0]
		}
		return err
	}
	s.assessments[jobID] = a
	s.mirrorLocked(ctx, a)
	return nil
}

// Save upserts the assessment of jobID.
func (s *AssessmentStore) Save(ctx context.Context, jobID int64, a hiring.Assessment) (hiring.Assessment, error) {
	n := s.begin(jobID, false)
	defer s.end()

	saved, err := s.api.PutAssessment(ctx, jobID, a)

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.seqs[jobID].accept(n) {
		return saved, err
	}
	if err != nil {
		s.err = err.Error()
		return hiring.Assessment{}, err
	}
	s.assessments[jobID] = saved
	s.mirrorLocked(ctx, saved)
	return saved, nil
}

// Submit sends a candidate's responses. Nothing is cached; the error is both
// recorded and returned.
func (s *AssessmentStore) Submit(ctx context.Context, jobID int64, in hiring.SubmissionInput) (hiring.SubmitResult, error) {
	s.state.begin(false)
	defer s.end()

	res, err := s.api.Submit(ctx, jobID, in)
	if err != nil {
		s.mu.Lock()
		s.err = err.Error()
		s.mu.Unlock()
		return hiring.SubmitResult{}, err
	}
	return res, nil
}

func (s *AssessmentStore) mirrorLocked(ctx context.Context, a hiring.Assessment) {
	if err := s.docs.Put(ctx, docstore.Assessments, a); err != nil {
		s.logger.Warn("mirroring assessment", "job", a.JobID, "error", err)
	}
}
