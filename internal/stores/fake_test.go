package stores

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kalambet/talentflow/internal/client"
	"github.com/kalambet/talentflow/internal/docstore"
	"github.com/kalambet/talentflow/internal/hiring"
	"github.com/kalambet/talentflow/internal/mockapi"
)

var errDown = errors.New("server returned 500: Random error")

// backendAPI adapts a mockapi.Backend to API without HTTP. down makes every
// call fail; listGate, when set, holds ListJobs until it is closed.
type backendAPI struct {
	b           *mockapi.Backend
	down        atomic.Bool
	reorderDown atomic.Bool

	listGate    chan struct{}
	listStarted chan struct{}

	timelineGate    chan struct{}
	timelineStarted chan struct{}
}

func (f *backendAPI) fail() error {
	if f.down.Load() {
		return errDown
	}
	return nil
}

func (f *backendAPI) ListJobs(ctx context.Context, q hiring.JobQuery) (hiring.Page[hiring.Job], error) {
	if err := f.fail(); err != nil {
		return hiring.Page[hiring.Job]{}, err
	}
	page := f.b.ListJobs(q)
	if f.listGate != nil {
		f.listStarted <- struct{}{}
		select {
		case <-f.listGate:
		case <-ctx.Done():
			return hiring.Page[hiring.Job]{}, ctx.Err()
		}
	}
	return page, nil
}

func (f *backendAPI) CreateJob(ctx context.Context, in hiring.JobInput) (hiring.Job, error) {
	if err := f.fail(); err != nil {
		return hiring.Job{}, err
	}
	return f.b.CreateJob(ctx, in)
}

func (f *backendAPI) UpdateJob(ctx context.Context, id int64, p hiring.JobPatch) (hiring.Job, error) {
	if err := f.fail(); err != nil {
		return hiring.Job{}, err
	}
	return f.b.UpdateJob(ctx, id, p)
}

func (f *backendAPI) ReorderJob(ctx context.Context, id int64, req hiring.ReorderRequest) error {
	if err := f.fail(); err != nil {
		return err
	}
	if f.reorderDown.Load() {
		return errors.New("server returned 500: Injected 500 for reorder")
	}
	return f.b.ReorderJob(ctx, id, req)
}

func (f *backendAPI) DeleteJob(ctx context.Context, id int64) error {
	if err := f.fail(); err != nil {
		return err
	}
	return f.b.DeleteJob(ctx, id)
}

func (f *backendAPI) ListCandidates(ctx context.Context, q hiring.CandidateQuery) (hiring.Page[hiring.Candidate], error) {
	if err := f.fail(); err != nil {
		return hiring.Page[hiring.Candidate]{}, err
	}
	return f.b.ListCandidates(q), nil
}

func (f *backendAPI) CreateCandidate(ctx context.Context, in hiring.CandidateInput) (hiring.Candidate, error) {
	if err := f.fail(); err != nil {
		return hiring.Candidate{}, err
	}
	return f.b.CreateCandidate(ctx, in)
}

func (f *backendAPI) UpdateCandidate(ctx context.Context, id int64, p hiring.CandidatePatch) (hiring.Candidate, error) {
	if err := f.fail(); err != nil {
		return hiring.Candidate{}, err
	}
	return f.b.UpdateCandidate(ctx, id, p)
}

func (f *backendAPI) Timeline(ctx context.Context, id int64) ([]hiring.TimelineEvent, error) {
	if f.timelineGate != nil {
		f.timelineStarted <- struct{}{}
		<-f.timelineGate
	}
	if err := f.fail(); err != nil {
		return nil, err
	}
	return f.b.Timeline(id)
}

func (f *backendAPI) GetAssessment(ctx context.Context, jobID int64) (hiring.Assessment, error) {
	if err := f.fail(); err != nil {
		return hiring.Assessment{}, err
	}
	a, err := f.b.GetAssessment(jobID)
	if errors.Is(err, mockapi.ErrNotFound) {
		return a, &client.APIError{StatusCode: http.StatusNotFound, Message: "Assessment not found"}
	}
	return a, err
}

func (f *backendAPI) PutAssessment(ctx context.Context, jobID int64, a hiring.Assessment) (hiring.Assessment, error) {
	if err := f.fail(); err != nil {
		return hiring.Assessment{}, err
	}
	return f.b.PutAssessment(ctx, jobID, a)
}

func (f *backendAPI) Submit(ctx context.Context, jobID int64, in hiring.SubmissionInput) (hiring.SubmitResult, error) {
	if err := f.fail(); err != nil {
		return hiring.SubmitResult{}, err
	}
	return f.b.Submit(ctx, jobID, in)
}

func openDocs(t *testing.T) *docstore.Store {
	t.Helper()
	docs, err := docstore.Open(":memory:", docstore.DefaultSchema)
	require.NoError(t, err)
	t.Cleanup(func() { docs.Close() })
	return docs
}

// newFixture returns a seeded fake API and a stores.Set mirroring into its
// own docstore.
func newFixture(t *testing.T, opts mockapi.SeedOptions) (*backendAPI, *Set, *docstore.Store) {
	t.Helper()
	backend := mockapi.New(openDocs(t))
	_, err := backend.Seed(context.Background(), opts)
	require.NoError(t, err)

	api := &backendAPI{b: backend}
	mirror := openDocs(t)
	return api, NewSet(api, mirror), mirror
}
