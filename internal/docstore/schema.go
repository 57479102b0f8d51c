package docstore

import (
	"errors"
	"sort"
)

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")

	ErrUnknownCollection = errors.New("unknown collection")
	ErrNotIndexed        = errors.New("field is not indexed")
)

// Collection names.
const (
	Jobs        = "jobs"
	Candidates  = "candidates"
	Assessments = "assessments"
	Submissions = "submissions"
	Timeline    = "timeline"
	Notes       = "notes"
)

// Schema declares the collections of a store and, per collection, the JSON
// fields that Query can look records up by.
type Schema map[string][]string

// DefaultSchema is the TalentFlow layout.
var DefaultSchema = Schema{
	Jobs:        {"slug", "status", "order"},
	Candidates:  {"email", "jobId", "stage", "createdAt"},
	Assessments: {"jobId"},
	Submissions: {"jobId", "candidateId"},
	Timeline:    {"candidateId", "timestamp"},
	Notes:       {"candidateId"},
}

// Document is anything that can be stored: it must marshal to a JSON object
// and know its own id.
type Document interface {
	DocumentID() string
}

func (s Schema) indexed(collection, field string) (bool, error) {
	fields, ok := s[collection]
	if !ok {
		return false, ErrUnknownCollection
	}
	for _, f := range fields {
		if f == field {
			return true, nil
		}
	}
	return false, nil
}

// Collections returns the declared collection names in sorted order.
func (s Schema) Collections() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
