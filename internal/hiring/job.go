// Package hiring holds the TalentFlow domain model: jobs, candidates moving
// through pipeline stages, assessments and their submissions.
package hiring

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// JobStatus is whether a job is open on the board or archived.
type JobStatus string

const (
	JobActive   JobStatus = "active"
	JobArchived JobStatus = "archived"
)

// Valid reports whether s is one of the known statuses.
func (s JobStatus) Valid() bool {
	return s == JobActive || s == JobArchived
}

// Job is a posting on the jobs board. Order is the manual display rank.
type Job struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Slug      string    `json:"slug"`
	Status    JobStatus `json:"status"`
	Tags      []string  `json:"tags"`
	Order     int       `json:"order"`
	CreatedAt time.Time `json:"createdAt"`
}

// DocumentID keys the job in a docstore collection.
func (j Job) DocumentID() string { return strconv.FormatInt(j.ID, 10) }

// JobInput is the body of a create request. Empty Slug is derived from Title,
// nil Order means "append at the end".
type JobInput struct {
	Title  string    `json:"title" yaml:"title" validate:"required,max=200"`
	Slug   string    `json:"slug,omitempty" yaml:"slug" validate:"omitempty,slug"`
	Status JobStatus `json:"status,omitempty" yaml:"status" validate:"omitempty,oneof=active archived"`
	Tags   []string  `json:"tags,omitempty" yaml:"tags" validate:"dive,required,max=50"`
	Order  *int      `json:"order,omitempty" yaml:"order" validate:"omitempty,gt=0"`
}

// JobPatch is a partial update; nil fields are left untouched.
type JobPatch struct {
	Title  *string    `json:"title,omitempty" validate:"omitempty,min=1,max=200"`
	Slug   *string    `json:"slug,omitempty" validate:"omitempty,slug"`
	Status *JobStatus `json:"status,omitempty" validate:"omitempty,oneof=active archived"`
	Tags   *[]string  `json:"tags,omitempty" validate:"omitempty,dive,required,max=50"`
	Order  *int       `json:"order,omitempty" validate:"omitempty,gt=0"`
}

// Apply returns j with the non-nil patch fields written over it.
func (p JobPatch) Apply(j Job) Job {
	if p.Title != nil {
		j.Title = *p.Title
	}
	if p.Slug != nil {
		j.Slug = *p.Slug
	}
	if p.Status != nil {
		j.Status = *p.Status
	}
	if p.Tags != nil {
		j.Tags = append([]string(nil), (*p.Tags)...)
	}
	if p.Order != nil {
		j.Order = *p.Order
	}
	return j
}

// ReorderRequest moves the job at FromOrder to ToOrder.
type ReorderRequest struct {
	FromOrder int `json:"fromOrder" validate:"gt=0"`
	ToOrder   int `json:"toOrder" validate:"gt=0"`
}

var (
	slugInvalid = regexp.MustCompile(`[^a-z0-9]+`)
	slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
)

// Slugify lowercases title and collapses every run of non-alphanumerics into a
// single dash.
func Slugify(title string) string {
	s := slugInvalid.ReplaceAllString(strings.ToLower(title), "-")
	return strings.Trim(s, "-")
}

// ValidSlug reports whether s is a URL-safe slug as produced by Slugify.
func ValidSlug(s string) bool {
	return slugPattern.MatchString(s)
}

// MatchesSearch reports whether the lowercased query appears in the title or
// any tag.
func (j Job) MatchesSearch(query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	if strings.Contains(strings.ToLower(j.Title), q) {
		return true
	}
	for _, t := range j.Tags {
		if strings.Contains(strings.ToLower(t), q) {
			return true
		}
	}
	return false
}
