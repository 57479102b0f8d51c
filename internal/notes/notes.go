// Package notes keeps free-form annotations on candidates in the
// device-local area. Notes are never sent to the API.
package notes

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kalambet/talentflow/internal/drafts"
	"github.com/kalambet/talentflow/internal/hiring"
)

const DefaultAuthor = "HR Manager"

var ErrEmptyNote = errors.New("note content is empty")

type Book struct {
	area   *drafts.Area
	author string
	now    func() time.Time
}

// New returns a Book writing to area. An empty author falls back to
// DefaultAuthor.
func New(area *drafts.Area, author string) *Book {
	if strings.TrimSpace(author) == "" {
		author = DefaultAuthor
	}
	return &Book{area: area, author: author, now: time.Now}
}

func Key(candidateID int64) string {
	return fmt.Sprintf("candidate-%d-notes", candidateID)
}

// Add appends a note to a candidate. Mentions such as @name are kept as
// plain text.
func (b *Book) Add(candidateID int64, content string) (hiring.Note, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return hiring.Note{}, ErrEmptyNote
	}
	n := hiring.Note{
		ID:          uuid.NewString(),
		CandidateID: candidateID,
		Content:     content,
		Author:      b.author,
		CreatedAt:   b.now().UTC(),
	}
	list := append(b.List(candidateID), n)
	if !b.area.Set(Key(candidateID), list) {
		return n, fmt.Errorf("note for candidate %d was not saved", candidateID)
	}
	return n, nil
}

// List returns a candidate's notes, oldest first. A missing or unreadable
// list is empty.
func (b *Book) List(candidateID int64) []hiring.Note {
	var list []hiring.Note
	if !b.area.Get(Key(candidateID), &list) {
		return []hiring.Note{}
	}
	slices.SortStableFunc(list, func(x, y hiring.Note) int { return x.CreatedAt.Compare(y.CreatedAt) })
	return list
}

// Mentions returns the @handles in content, without the @.
func Mentions(content string) []string {
	var out []string
	for _, f := range strings.Fields(content) {
		if h, ok := strings.CutPrefix(f, "@"); ok {
			h = strings.TrimRight(h, ".,;:!?")
			if h != "" {
				out = append(out, h)
			}
		}
	}
	return out
}
