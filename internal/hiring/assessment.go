package hiring

import (
	"fmt"
	"strconv"
	"time"
)

// QuestionType decides how a question is rendered and which answers it takes.
type QuestionType string

const (
	ShortText    QuestionType = "short-text"
	LongText     QuestionType = "long-text"
	SingleChoice QuestionType = "single-choice"
	MultiChoice  QuestionType = "multi-choice"
	Numeric      QuestionType = "numeric"
	FileUpload   QuestionType = "file-upload"
)

func (t QuestionType) isText() bool   { return t == ShortText || t == LongText }
func (t QuestionType) isChoice() bool { return t == SingleChoice || t == MultiChoice }

// Assessment is the form attached to a job. There is at most one per job.
type Assessment struct {
	ID       int64     `json:"id" yaml:"id,omitempty"`
	JobID    int64     `json:"jobId" yaml:"jobId,omitempty"`
	Sections []Section `json:"sections" yaml:"sections" validate:"required,min=1,dive"`
}

// DocumentID keys the assessment in a docstore collection.
func (a Assessment) DocumentID() string { return strconv.FormatInt(a.ID, 10) }

// Section groups questions under a title.
type Section struct {
	ID        string     `json:"id" yaml:"id" validate:"required"`
	Title     string     `json:"title" yaml:"title" validate:"required,max=200"`
	Questions []Question `json:"questions" yaml:"questions" validate:"dive"`
}

// Question is one form field. MaxLength applies to text types, Min and Max
// to numeric ones and Options to choices. Conditional hides the question
// until its rule holds.
type Question struct {
	ID          string       `json:"id" yaml:"id" validate:"required"`
	Type        QuestionType `json:"type" yaml:"type" validate:"required,oneof=short-text long-text single-choice multi-choice numeric file-upload"`
	Label       string       `json:"label" yaml:"label" validate:"required"`
	Required    bool         `json:"required" yaml:"required"`
	MaxLength   int          `json:"maxLength,omitempty" yaml:"maxLength,omitempty" validate:"gte=0"`
	Options     []string     `json:"options,omitempty" yaml:"options,omitempty" validate:"dive,required"`
	Min         *float64     `json:"min,omitempty" yaml:"min,omitempty"`
	Max         *float64     `json:"max,omitempty" yaml:"max,omitempty"`
	Conditional *Rule        `json:"conditional,omitempty" yaml:"conditional,omitempty"`
}

// Questions returns every question of every section in document order.
func (a Assessment) Questions() []Question {
	var qs []Question
	for _, s := range a.Sections {
		qs = append(qs, s.Questions...)
	}
	return qs
}

// Check validates a's structure and the cross-question invariants the struct
// tags cannot express.
func (a Assessment) Check() error {
	if err := Validate(a); err != nil {
		return err
	}

	fields := map[string]string{}
	seen := map[string]bool{}
	for _, q := range a.Questions() {
		if seen[q.ID] {
			fields[q.ID] = "duplicate question id"
		}
		seen[q.ID] = true
	}
	for _, q := range a.Questions() {
		switch {
		case q.Type.isChoice() && len(q.Options) == 0:
			fields[q.ID] = "choice questions need at least one option"
		case q.Type == Numeric && q.Min != nil && q.Max != nil && *q.Min > *q.Max:
			fields[q.ID] = "min must not exceed max"
		}
		if r := q.Conditional; r != nil {
			switch {
			case !r.Condition.Valid():
				fields[q.ID] = fmt.Sprintf("unknown condition %q", r.Condition)
			case r.DependsOn == q.ID:
				fields[q.ID] = "question cannot depend on itself"
			case !seen[r.DependsOn]:
				fields[q.ID] = fmt.Sprintf("depends on unknown question %q", r.DependsOn)
			}
		}
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// Responses maps question ids to answers as decoded from JSON or YAML:
// strings, numbers, or lists of strings.
type Responses map[string]any

// Submission is a candidate's accepted set of responses to an assessment.
type Submission struct {
	ID          int64     `json:"id"`
	JobID       int64     `json:"jobId"`
	CandidateID int64     `json:"candidateId"`
	Responses   Responses `json:"responses"`
	SubmittedAt time.Time `json:"submittedAt"`
}

// DocumentID keys the submission in a docstore collection.
func (s Submission) DocumentID() string { return strconv.FormatInt(s.ID, 10) }

// SubmissionInput is the body of POST /assessments/{jobId}/submit.
type SubmissionInput struct {
	CandidateID int64     `json:"candidateId" yaml:"candidateId" validate:"required,gt=0"`
	Responses   Responses `json:"responses" yaml:"responses" validate:"required"`
}

// SubmitResult acknowledges a stored submission.
type SubmitResult struct {
	Status string `json:"status"`
	ID     int64  `json:"id"`
}
