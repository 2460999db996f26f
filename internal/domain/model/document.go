package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Document is the full board: collaborators in insertion order.
// It serializes as a JSON object keyed by collaborator name, keeping key order.
type Document struct {
	Collaborators []Collaborator
}

// Index returns the position of name, or -1.
func (d *Document) Index(name string) int {
	for i := range d.Collaborators {
		if d.Collaborators[i].Name == name {
			return i
		}
	}
	return -1
}

// Names lists collaborator names in insertion order.
func (d *Document) Names() []string {
	names := make([]string, len(d.Collaborators))
	for i, c := range d.Collaborators {
		names[i] = c.Name
	}
	return names
}

// Clone returns a deep copy safe to hand out of a lock.
func (d *Document) Clone() Document {
	out := Document{Collaborators: make([]Collaborator, len(d.Collaborators))}
	for i, c := range d.Collaborators {
		out.Collaborators[i] = Collaborator{
			Name:    c.Name,
			Actions: append([]Action(nil), c.Actions...),
		}
	}
	return out
}

// Equal reports whether two documents hold the same names, order and actions.
func (d *Document) Equal(other *Document) bool {
	if len(d.Collaborators) != len(other.Collaborators) {
		return false
	}
	for i, c := range d.Collaborators {
		o := other.Collaborators[i]
		if c.Name != o.Name || len(c.Actions) != len(o.Actions) {
			return false
		}
		for j, a := range c.Actions {
			b := o.Actions[j]
			if a.Kind != b.Kind || a.Points != b.Points || !a.At.Equal(b.At.Time) {
				return false
			}
		}
	}
	return true
}

// MarshalJSON implements json.Marshaler.
func (d Document) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range d.Collaborators {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(c.Name)
		if err != nil {
			return nil, err
		}
		actions := c.Actions
		if actions == nil {
			actions = []Action{}
		}
		val, err := json.Marshal(actions)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON implements json.Unmarshaler. A repeated key replaces the
// earlier actions but keeps the earlier position.
func (d *Document) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return errors.New("document: expected a JSON object")
	}

	doc := Document{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("document: unexpected token %v", tok)
		}
		var actions []Action
		if err := dec.Decode(&actions); err != nil {
			return fmt.Errorf("document: collaborator %q: %w", name, err)
		}
		if actions == nil {
			actions = []Action{}
		}
		if i := doc.Index(name); i >= 0 {
			doc.Collaborators[i].Actions = actions
			continue
		}
		doc.Collaborators = append(doc.Collaborators, Collaborator{Name: name, Actions: actions})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*d = doc
	return nil
}
