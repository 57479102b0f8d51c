package stores

import (
	"context"
	"log/slog"
	"slices"
	"strconv"

	"github.com/kalambet/talentflow/internal/docstore"
	"github.com/kalambet/talentflow/internal/hiring"
)

type CandidateStore struct {
	state

	api  CandidateAPI
	docs *docstore.Store

	candidates []hiring.Candidate
	pagination hiring.Pagination
}

func NewCandidateStore(api CandidateAPI, docs *docstore.Store) *CandidateStore {
	return &CandidateStore{
		state:      state{logger: slog.Default()},
		api:        api,
		docs:       docs,
		candidates: []hiring.Candidate{},
		pagination: hiring.Pagination{Page: 1, PageSize: hiring.DefaultCandidatePageSize},
	}
}

func (s *CandidateStore) Candidates() []hiring.Candidate {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.candidates)
}

func (s *CandidateStore) Pagination() hiring.Pagination {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pagination
}

// Candidate looks up a cached candidate by id.
func (s *CandidateStore) Candidate(id int64) (hiring.Candidate, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.candidates {
		if c.ID == id {
			return c, true
		}
	}
	return hiring.Candidate{}, false
}

// ByStage returns the cached candidates in one kanban column.
func (s *CandidateStore) ByStage(stage hiring.Stage) []hiring.Candidate {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []hiring.Candidate{}
	for _, c := range s.candidates {
		if c.Stage == stage {
			out = append(out, c)
		}
	}
	return out
}

// Board groups the cached candidates into one column per stage.
func (s *CandidateStore) Board() map[hiring.Stage][]hiring.Candidate {
	board := make(map[hiring.Stage][]hiring.Candidate, len(hiring.Stages))
	for _, st := range hiring.Stages {
		board[st] = s.ByStage(st)
	}
	return board
}

// Fetch lists candidates, replacing the cache and the mirror on success and
// falling back to the mirror on failure.
func (s *CandidateStore) Fetch(ctx context.Context, q hiring.CandidateQuery) error {
	n := s.begin(true)
	defer s.end()

	page, err := s.api.ListCandidates(ctx, q)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		if !s.setErrLocked(n, err) {
			return err
		}
		s.candidates, s.pagination = s.fallbackLocked(ctx, q)
		return err
	}
	if !s.seq.accept(n) {
		s.logger.Debug("dropping stale candidate list", "seq", n)
		return nil
	}
	s.candidates, s.pagination = page.Data, page.Pagination
	if err := docstore.ReplaceAll(ctx, s.docs, docstore.Candidates, page.Data); err != nil {
		s.logger.Warn("mirroring candidates", "error", err)
	}
	return nil
}

func (s *CandidateStore) fallbackLocked(ctx context.Context, q hiring.CandidateQuery) ([]hiring.Candidate, hiring.Pagination) {
	var (
		cached []hiring.Candidate
		err    error
	)
	switch {
	case q.Stage != "":
		cached, err = docstore.Query[hiring.Candidate](ctx, s.docs, docstore.Candidates, "stage", string(q.Stage))
	case q.JobID > 0:
		cached, err = docstore.Query[hiring.Candidate](ctx, s.docs, docstore.Candidates, "jobId", strconv.FormatInt(q.JobID, 10))
	default:
		cached, err = docstore.GetAll[hiring.Candidate](ctx, s.docs, docstore.Candidates)
	}
	if err != nil {
		s.logger.Warn("reading mirrored candidates", "error", err)
	}

	out := []hiring.Candidate{}
	for _, c := range cached {
		if q.Match(c) {
			out = append(out, c)
		}
	}
	hiring.SortCandidates(out)
	return out, localPagination(len(out))
}

func (s *CandidateStore) Create(ctx context.Context, in hiring.CandidateInput) (hiring.Candidate, error) {
	n := s.begin(false)
	defer s.end()

	c, err := s.api.CreateCandidate(ctx, in)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.setErrLocked(n, err)
		return hiring.Candidate{}, err
	}
	if !s.seq.accept(n) {
		return c, nil
	}
	s.candidates = append(s.candidates, c)
	s.mirrorLocked(ctx, c)
	return c, nil
}

// Update replaces the cached candidate. Moving a candidate between kanban
// columns is an Update of its stage.
func (s *CandidateStore) Update(ctx context.Context, id int64, p hiring.CandidatePatch) (hiring.Candidate, error) {
	n := s.begin(false)
	defer s.end()

	c, err := s.api.UpdateCandidate(ctx, id, p)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.setErrLocked(n, err)
		return hiring.Candidate{}, err
	}
	if !s.seq.accept(n) {
		return c, nil
	}
	for i := range s.candidates {
		if s.candidates[i].ID == id {
			s.candidates[i] = c
		}
	}
	s.mirrorLocked(ctx, c)
	return c, nil
}

// FetchTimeline returns a candidate's stage changes. Events are mirrored on
// success; on failure the mirrored events are returned with the error.
func (s *CandidateStore) FetchTimeline(ctx context.Context, candidateID int64) ([]hiring.TimelineEvent, error) {
	n := s.begin(false)
	defer s.end()

	events, err := s.api.Timeline(ctx, candidateID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		s.seq.accept(n)
		if err := docstore.PutAll(ctx, s.docs, docstore.Timeline, events); err != nil {
			s.logger.Warn("mirroring timeline", "candidate", candidateID, "error", err)
		}
		return events, nil
	}
	s.setErrLocked(n, err)

	cached, qerr := docstore.Query[hiring.TimelineEvent](ctx, s.docs, docstore.Timeline, "candidateId", strconv.FormatInt(candidateID, 10))
	if qerr != nil {
		s.logger.Warn("reading mirrored timeline", "candidate", candidateID, "error", qerr)
	}
	if cached == nil {
		cached = []hiring.TimelineEvent{}
	}
	hiring.SortTimeline(cached)
	return cached, err
}

func (s *CandidateStore) mirrorLocked(ctx context.Context, c hiring.Candidate) {
	if err := s.docs.Put(ctx, docstore.Candidates, c); err != nil {
		s.logger.Warn("mirroring candidate", "id", c.ID, "error", err)
	}
}
