package hiring

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Stage is a position in the hiring pipeline. Any stage may move to any other.
type Stage string

const (
	StageApplied  Stage = "applied"
	StageScreen   Stage = "screen"
	StageTech     Stage = "tech"
	StageOffer    Stage = "offer"
	StageHired    Stage = "hired"
	StageRejected Stage = "rejected"
)

// Stages lists every stage in board column order.
var Stages = []Stage{StageApplied, StageScreen, StageTech, StageOffer, StageHired, StageRejected}

// Valid reports whether s is one of Stages.
func (s Stage) Valid() bool {
	for _, st := range Stages {
		if s == st {
			return true
		}
	}
	return false
}

// ParseStage normalises case and whitespace and rejects unknown stages.
func ParseStage(s string) (Stage, error) {
	st := Stage(strings.ToLower(strings.TrimSpace(s)))
	if !st.Valid() {
		return "", fmt.Errorf("unknown stage %q", s)
	}
	return st, nil
}

// Candidate is an applicant to one job, sitting in exactly one stage.
type Candidate struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	JobID     int64     `json:"jobId"`
	Stage     Stage     `json:"stage"`
	CreatedAt time.Time `json:"createdAt"`
}

// DocumentID keys the candidate in a docstore collection.
func (c Candidate) DocumentID() string { return strconv.FormatInt(c.ID, 10) }

// MatchesSearch checks name and email, case-insensitively.
func (c Candidate) MatchesSearch(query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(c.Name), q) ||
		strings.Contains(strings.ToLower(c.Email), q)
}

// CandidateInput is the body of a create request. Empty Stage means applied.
type CandidateInput struct {
	Name  string `json:"name" validate:"required,max=200"`
	Email string `json:"email" validate:"required,email"`
	JobID int64  `json:"jobId" validate:"required,gt=0"`
	Stage Stage  `json:"stage,omitempty" validate:"omitempty,stage"`
}

// CandidatePatch is a partial update; nil fields are left untouched. A new
// Stage appends a timeline event.
type CandidatePatch struct {
	Name  *string `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Email *string `json:"email,omitempty" validate:"omitempty,email"`
	JobID *int64  `json:"jobId,omitempty" validate:"omitempty,gt=0"`
	Stage *Stage  `json:"stage,omitempty" validate:"omitempty,stage"`
}

// Apply returns c with the non-nil patch fields written over it.
func (p CandidatePatch) Apply(c Candidate) Candidate {
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Email != nil {
		c.Email = *p.Email
	}
	if p.JobID != nil {
		c.JobID = *p.JobID
	}
	if p.Stage != nil {
		c.Stage = *p.Stage
	}
	return c
}

// TimelineEvent records one stage change. The timeline is append-only.
type TimelineEvent struct {
	ID          int64     `json:"id"`
	CandidateID int64     `json:"candidateId"`
	FromStage   Stage     `json:"fromStage"`
	ToStage     Stage     `json:"toStage"`
	Timestamp   time.Time `json:"timestamp"`
}

// DocumentID keys the event in a docstore collection.
func (e TimelineEvent) DocumentID() string { return strconv.FormatInt(e.ID, 10) }

// Note is a free-form annotation on a candidate. Notes live only in the
// device-local draft area.
type Note struct {
	ID          string    `json:"id"`
	CandidateID int64     `json:"candidateId"`
	Content     string    `json:"content"`
	Author      string    `json:"author"`
	CreatedAt   time.Time `json:"createdAt"`
}
