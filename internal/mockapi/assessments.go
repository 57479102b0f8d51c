package mockapi

import (
	"context"
	"fmt"

	"github.com/kalambet/talentflow/internal/docstore"
	"github.com/kalambet/talentflow/internal/hiring"
)

func (b *Backend) GetAssessment(jobID int64) (hiring.Assessment, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	a, ok := b.assessments[jobID]
	if !ok {
		return hiring.Assessment{}, fmt.Errorf("assessment for job %d: %w", jobID, ErrNotFound)
	}
	return a, nil
}

// PutAssessment replaces the assessment of jobID, creating it if absent. The
// job id comes from the path; an existing assessment keeps its id.
func (b *Backend) PutAssessment(ctx context.Context, jobID int64, a hiring.Assessment) (hiring.Assessment, error) {
	if err := a.Check(); err != nil {
		return hiring.Assessment{}, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.jobs[jobID]; !ok {
		return hiring.Assessment{}, fmt.Errorf("job %d: %w", jobID, ErrNotFound)
	}
	a.JobID = jobID
	existing, replacing := b.assessments[jobID]
	if replacing {
		a.ID = existing.ID
	} else {
		a.ID = b.nextAssessment
	}

	if err := b.docs.Put(ctx, docstore.Assessments, a); err != nil {
		return hiring.Assessment{}, fmt.Errorf("persisting assessment: %w", err)
	}
	b.assessments[jobID] = a
	if !replacing {
		b.nextAssessment++
	}
	return a, nil
}

// Submit records a candidate's responses to the assessment of jobID after
// checking them against its questions. Hidden questions are not checked.
func (b *Backend) Submit(ctx context.Context, jobID int64, in hiring.SubmissionInput) (hiring.SubmitResult, error) {
	if err := hiring.Validate(in); err != nil {
		return hiring.SubmitResult{}, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	a, ok := b.assessments[jobID]
	if !ok {
		return hiring.SubmitResult{}, fmt.Errorf("assessment for job %d: %w", jobID, ErrNotFound)
	}
	if _, ok := b.candidates[in.CandidateID]; !ok {
		return hiring.SubmitResult{}, &hiring.ValidationError{Fields: map[string]string{
			"candidateId": fmt.Sprintf("candidate %d does not exist", in.CandidateID),
		}}
	}
	if problems := hiring.ValidateResponses(a, in.Responses); len(problems) > 0 {
		return hiring.SubmitResult{}, &hiring.ValidationError{Fields: problems}
	}

	s := hiring.Submission{
		ID:          b.nextSubmission,
		JobID:       jobID,
		CandidateID: in.CandidateID,
		Responses:   in.Responses,
		SubmittedAt: b.now(),
	}
	if err := b.docs.Put(ctx, docstore.Submissions, s); err != nil {
		return hiring.SubmitResult{}, fmt.Errorf("persisting submission: %w", err)
	}
	b.submissions = append(b.submissions, s)
	b.nextSubmission++
	return hiring.SubmitResult{Status: "submitted", ID: s.ID}, nil
}

// Submissions lists what was submitted for jobID, oldest first.
func (b *Backend) Submissions(jobID int64) ([]hiring.Submission, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.jobs[jobID]; !ok {
		return nil, fmt.Errorf("job %d: %w", jobID, ErrNotFound)
	}
	out := []hiring.Submission{}
	for _, s := range b.submissions {
		if s.JobID == jobID {
			out = append(out, s)
		}
	}
	return out, nil
}
