package entry

import (
	"fmt"
	"sort"
	"strings"
)

// Entry is a single journal record.
type Entry struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Created   Timestamp `json:"created"`
	Timestamp Timestamp `json:"timestamp"`
	Draft     bool      `json:"draft,omitempty"`
}

// New returns an unsaved entry with the given text.
func New(title, content string) *Entry {
	return &Entry{
		Title:   title,
		Content: content,
	}
}

// NewDraft returns an unsaved placeholder awaiting its first edit.
func NewDraft() *Entry {
	return &Entry{Draft: true}
}

// Blank reports whether s has no visible characters.
func Blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// Empty reports whether both title and content are blank. Empty entries are
// never listed.
func (e *Entry) Empty() bool {
	return Blank(e.Title) && Blank(e.Content)
}

// Persisted reports whether the store has assigned an id.
func (e *Entry) Persisted() bool {
	return e.ID != 0
}

// SameText reports whether the entry already holds exactly title and content.
func (e *Entry) SameText(title, content string) bool {
	return e.Title == title && e.Content == content
}

// Copy returns a shallow copy, nil safe.
func (e *Entry) Copy() *Entry {
	if e == nil {
		return nil
	}
	cp := *e
	return &cp
}

// WithText returns a copy carrying the new text. The draft marker is dropped
// once the text is no longer blank.
func (e *Entry) WithText(title, content string) *Entry {
	cp := e.Copy()
	cp.Title = title
	cp.Content = content
	if !cp.Empty() {
		cp.Draft = false
	}
	return cp
}

// Equal compares every persisted field.
func (e *Entry) Equal(other *Entry) bool {
	if e == nil || other == nil {
		return e == other
	}
	return e.ID == other.ID &&
		e.Title == other.Title &&
		e.Content == other.Content &&
		e.Draft == other.Draft &&
		e.Created.Equal(other.Created.Time) &&
		e.Timestamp.Equal(other.Timestamp.Time)
}

func (e *Entry) String() string {
	title := e.Title
	if Blank(title) {
		title = "(untitled)"
	}
	return fmt.Sprintf("#%d %s", e.ID, title)
}

// Sort orders entries for display: newest Timestamp first, ties broken by
// the higher id first. Nil entries sink to the end.
func Sort(entries []*Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		left := entries[i]
		right := entries[j]
		if left == nil || right == nil {
			return left != nil
		}
		lt := left.Timestamp.Time
		rt := right.Timestamp.Time
		if lt.Equal(rt) {
			return left.ID > right.ID
		}
		return lt.After(rt)
	})
}

// NonEmpty filters out empty entries, preserving order.
func NonEmpty(entries []*Entry) []*Entry {
	out := make([]*Entry, 0, len(entries))
	for _, e := range entries {
		if e != nil && !e.Empty() {
			out = append(out, e)
		}
	}
	return out
}
