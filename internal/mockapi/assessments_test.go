package mockapi

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kalambet/talentflow/internal/hiring"
)

func sampleAssessment() hiring.Assessment {
	return hiring.Assessment{
		Sections: []hiring.Section{{
			ID:    "s1",
			Title: "Basics",
			Questions: []hiring.Question{
				{ID: "q1", Type: hiring.SingleChoice, Label: "Remote?", Required: true, Options: []string{"yes", "no"}},
				{ID: "q2", Type: hiring.ShortText, Label: "Which city?", Required: true, MaxLength: 20,
					Conditional: &hiring.Rule{DependsOn: "q1", Condition: hiring.CondEquals, Value: "no"}},
			},
		}},
	}
}

func TestPutAssessmentUpsert(t *testing.T) {
	b, _ := newTestBackend(t)
	ctx := context.Background()
	j, err := b.CreateJob(ctx, hiring.JobInput{Title: "Designer"})
	require.NoError(t, err)

	_, err = b.GetAssessment(j.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	first, err := b.PutAssessment(ctx, j.ID, sampleAssessment())
	require.NoError(t, err)
	assert.Equal(t, j.ID, first.JobID)

	changed := sampleAssessment()
	changed.Sections[0].Title = "Renamed"
	changed.JobID = 999
	second, err := b.PutAssessment(ctx, j.ID, changed)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, j.ID, second.JobID)

	got, err := b.GetAssessment(j.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Sections[0].Title)

	_, err = b.PutAssessment(ctx, 555, sampleAssessment())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPutAssessmentRejectsBrokenRules(t *testing.T) {
	b, _ := newTestBackend(t)
	ctx := context.Background()
	j, _ := b.CreateJob(ctx, hiring.JobInput{Title: "Designer"})

	a := sampleAssessment()
	a.Sections[0].Questions[1].Conditional.DependsOn = "missing"
	_, err := b.PutAssessment(ctx, j.ID, a)

	var verr *hiring.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "q2")
}

func TestSubmit(t *testing.T) {
	b, _ := newTestBackend(t)
	ctx := context.Background()
	c := newCandidate(t, b)
	_, err := b.PutAssessment(ctx, c.JobID, sampleAssessment())
	require.NoError(t, err)

	// q2 is hidden while q1 is "yes", so it need not be answered.
	res, err := b.Submit(ctx, c.JobID, hiring.SubmissionInput{
		CandidateID: c.ID,
		Responses:   hiring.Responses{"q1": "yes"},
	})
	require.NoError(t, err)
	assert.Equal(t, "submitted", res.Status)
	assert.Equal(t, int64(1), res.ID)

	_, err = b.Submit(ctx, c.JobID, hiring.SubmissionInput{
		CandidateID: c.ID,
		Responses:   hiring.Responses{"q1": "no"},
	})
	var verr *hiring.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "This field is required", verr.Fields["q2"])

	subs, err := b.Submissions(c.JobID)
	require.NoError(t, err)
	assert.Len(t, subs, 1)

	_, err = b.Submit(ctx, 4242, hiring.SubmissionInput{CandidateID: c.ID, Responses: hiring.Responses{}})
	assert.ErrorIs(t, err, ErrNotFound)
}
