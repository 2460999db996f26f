// Package scoring holds the action point table and the ranking rules.
package scoring

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/okian/apex/internal/domain/model"
)

// ErrUnknownAction is returned for an action kind missing from the table.
var ErrUnknownAction = errors.New("unknown action")

// Option applies a configuration option to the Table.
type Option func(*Table)

// WithPoints sets the point table. Non-positive values are ignored.
func WithPoints(points map[string]int) Option {
	return func(t *Table) {
		t.points = make(map[string]int, len(points))
		for kind, p := range points {
			if p > 0 {
				t.points[kind] = p
			}
		}
	}
}

// WithDailyLimited marks kind as accepted at most once per collaborator per day.
func WithDailyLimited(kind string) Option {
	return func(t *Table) {
		t.dailyLimited = kind
	}
}

// Table maps action kinds to their point values.
type Table struct {
	points       map[string]int
	dailyLimited string
}

// NewTable creates an empty table configured by opts.
func NewTable(opts ...Option) *Table {
	t := &Table{points: make(map[string]int)}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Points looks up the value of kind.
func (t *Table) Points(kind string) (int, error) {
	p, ok := t.points[kind]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownAction, kind)
	}
	return p, nil
}

// IsDailyLimited reports whether kind is capped at one per day.
func (t *Table) IsDailyLimited(kind string) bool {
	return t.dailyLimited != "" && kind == t.dailyLimited
}

// DailyLimited returns the capped kind, or "" when none is configured.
func (t *Table) DailyLimited() string {
	return t.dailyLimited
}

// Kind is a row of the point table.
type Kind struct {
	Name         string `json:"action"`
	Points       int    `json:"points"`
	DailyLimited bool   `json:"daily_limited"`
}

// Kinds lists the table by points descending, then name.
func (t *Table) Kinds() []Kind {
	out := make([]Kind, 0, len(t.points))
	for name, p := range t.points {
		out = append(out, Kind{Name: name, Points: p, DailyLimited: t.IsDailyLimited(name)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Points != out[j].Points {
			return out[i].Points > out[j].Points
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Total sums the points of actions.
func Total(actions []model.Action) int {
	return model.Collaborator{Actions: actions}.Total()
}

// HasOnDay reports whether actions contain kind on the calendar day of day.
func HasOnDay(actions []model.Action, kind string, day time.Time) bool {
	for _, a := range actions {
		if a.Kind == kind && a.At.SameDay(day) {
			return true
		}
	}
	return false
}

// Rank orders collaborators by total points descending. Ties keep document
// order. Rank numbers are 1-based positions.
func Rank(doc *model.Document) []model.Entry {
	entries := make([]model.Entry, len(doc.Collaborators))
	for i, c := range doc.Collaborators {
		entries[i] = model.Entry{Name: c.Name, Points: c.Total()}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Points > entries[j].Points
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}
