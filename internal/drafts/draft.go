package drafts

import (
	"fmt"
	"time"

	"github.com/kalambet/talentflow/internal/hiring"
)

// Draft is an in-progress set of assessment responses for one job.
type Draft struct {
	JobID       int64            `json:"jobId" yaml:"jobId"`
	CandidateID int64            `json:"candidateId,omitempty" yaml:"candidateId,omitempty"`
	Responses   hiring.Responses `json:"responses" yaml:"responses"`
	SavedAt     time.Time        `json:"savedAt" yaml:"savedAt"`
}

func DraftKey(jobID int64) string {
	return fmt.Sprintf("assessment-%d-draft", jobID)
}

// SaveDraft stores d as the draft of its job, stamping SavedAt.
func (a *Area) SaveDraft(d Draft) bool {
	if d.Responses == nil {
		d.Responses = hiring.Responses{}
	}
	d.SavedAt = time.Now().UTC()
	return a.Set(DraftKey(d.JobID), d)
}

func (a *Area) LoadDraft(jobID int64) (Draft, bool) {
	var d Draft
	if !a.Get(DraftKey(jobID), &d) {
		return Draft{}, false
	}
	return d, true
}

// DiscardDraft forgets the draft of jobID, typically after a successful
// submit.
func (a *Area) DiscardDraft(jobID int64) {
	a.Remove(DraftKey(jobID))
}
