// Package stores holds the client-side entity stores. Each store caches one
// entity family in memory, talks to the API, mirrors confirmed state into a
// local docstore and reads back from it when the API fails.
//
// Every request takes a sequence number from its family. A response older
// than the last one applied is dropped, so a slow list cannot overwrite a
// newer update.
package stores

import (
	"context"
	"log/slog"
	"sync"

	"github.com/kalambet/talentflow/internal/docstore"
	"github.com/kalambet/talentflow/internal/hiring"
)

type JobAPI interface {
	ListJobs(ctx context.Context, q hiring.JobQuery) (hiring.Page[hiring.Job], error)
	CreateJob(ctx context.Context, in hiring.JobInput) (hiring.Job, error)
	UpdateJob(ctx context.Context, id int64, p hiring.JobPatch) (hiring.Job, error)
	ReorderJob(ctx context.Context, id int64, req hiring.ReorderRequest) error
	DeleteJob(ctx context.Context, id int64) error
}

type CandidateAPI interface {
	ListCandidates(ctx context.Context, q hiring.CandidateQuery) (hiring.Page[hiring.Candidate], error)
	CreateCandidate(ctx context.Context, in hiring.CandidateInput) (hiring.Candidate, error)
	UpdateCandidate(ctx context.Context, id int64, p hiring.CandidatePatch) (hiring.Candidate, error)
	Timeline(ctx context.Context, candidateID int64) ([]hiring.TimelineEvent, error)
}

type AssessmentAPI interface {
	GetAssessment(ctx context.Context, jobID int64) (hiring.Assessment, error)
	PutAssessment(ctx context.Context, jobID int64, a hiring.Assessment) (hiring.Assessment, error)
	Submit(ctx context.Context, jobID int64, in hiring.SubmissionInput) (hiring.SubmitResult, error)
}

// API is everything the stores call. *client.Client implements it.
type API interface {
	JobAPI
	CandidateAPI
	AssessmentAPI
}

// Set is the explicit bundle of stores handed to commands. Build it once at
// startup with NewSet.
type Set struct {
	Jobs        *JobStore
	Candidates  *CandidateStore
	Assessments *AssessmentStore
}

func NewSet(api API, docs *docstore.Store) *Set {
	return &Set{
		Jobs:        NewJobStore(api, docs),
		Candidates:  NewCandidateStore(api, docs),
		Assessments: NewAssessmentStore(api, docs),
	}
}

// sequence orders the requests of one family.
type sequence struct {
	issued  uint64
	applied uint64
}

func (s *sequence) next() uint64 {
	s.issued++
	return s.issued
}

// accept reports whether the response to request n is still current and, if
// so, marks it applied.
func (s *sequence) accept(n uint64) bool {
	if n < s.applied {
		return false
	}
	s.applied = n
	return true
}

// state is the part every store shares: lock, in-flight count, last error
// message and the family sequence.
type state struct {
	mu       sync.Mutex
	inflight int
	err      string
	seq      sequence
	logger   *slog.Logger
}

// begin registers a request and returns its sequence number. When reset is
// set, the error from a previous request is cleared.
func (s *state) begin(reset bool) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inflight++
	if reset {
		s.err = ""
	}
	return s.seq.next()
}

func (s *state) end() {
	s.mu.Lock()
	s.inflight--
	s.mu.Unlock()
}

func (s *state) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inflight > 0
}

// Err is the message of the last failure, empty when none.
func (s *state) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *state) ClearError() {
	s.mu.Lock()
	s.err = ""
	s.mu.Unlock()
}

// setErrLocked records err if request n is still current. Callers hold s.mu.
func (s *state) setErrLocked(n uint64, err error) bool {
	if !s.seq.accept(n) {
		s.logger.Debug("dropping stale failure", "seq", n, "applied", s.seq.applied)
		return false
	}
	s.err = err.Error()
	return true
}

func localPagination(n int) hiring.Pagination {
	p := hiring.Pagination{Total: n, Page: 1, PageSize: n}
	if n > 0 {
		p.TotalPages = 1
	}
	return p
}
