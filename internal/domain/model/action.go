// Package model contains domain models passed between layers.
package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// TimestampLayout is the on-disk format of action timestamps.
const TimestampLayout = "2006-01-02 15:04:05"

// Timestamp is a local wall-clock time serialized as "YYYY-MM-DD HH:MM:SS".
type Timestamp struct {
	time.Time
}

// NewTimestamp truncates t to whole seconds, matching the on-disk precision.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t.Truncate(time.Second)}
}

// MarshalJSON implements json.Marshaler.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Format(TimestampLayout))
}

// UnmarshalJSON implements json.Unmarshaler. RFC 3339 is accepted as well.
func (t *Timestamp) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}
	parsed, err := time.ParseInLocation(TimestampLayout, s, time.Local)
	if err != nil {
		var rfcErr error
		parsed, rfcErr = time.Parse(time.RFC3339, s)
		if rfcErr != nil {
			return fmt.Errorf("timestamp %q: %w", s, err)
		}
	}
	t.Time = parsed
	return nil
}

// SameDay reports whether t falls on the same local calendar day as other.
func (t Timestamp) SameDay(other time.Time) bool {
	y1, m1, d1 := t.In(other.Location()).Date()
	y2, m2, d2 := other.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

// Action is a point-earning event recorded for a collaborator.
type Action struct {
	Kind   string    `json:"action"`
	Points int       `json:"points"`
	At     Timestamp `json:"data"`
}

// Collaborator is a named participant and its actions in recording order.
type Collaborator struct {
	Name    string
	Actions []Action
}

// Total sums the points of every action.
func (c Collaborator) Total() int {
	total := 0
	for _, a := range c.Actions {
		total += a.Points
	}
	return total
}

// Entry is a ranked leaderboard row.
type Entry struct {
	Rank   int    `json:"rank"`
	Name   string `json:"name"`
	Points int    `json:"points"`
}
