package model

import "time"

// Op names a board mutation.
type Op string

// Board mutations.
const (
	OpRecordAction       Op = "record_action"
	OpAddCollaborator    Op = "add_collaborator"
	OpDeleteAction       Op = "delete_action"
	OpDeleteCollaborator Op = "delete_collaborator"
	OpRenameCollaborator Op = "rename_collaborator"
	OpReload             Op = "reload"
)

// Change is emitted after every successful board mutation.
type Change struct {
	ID   string // unique id, for log correlation
	Op   Op
	Name string // canonical collaborator name, if any
	At   time.Time
	// Document is a copy of the board after the mutation.
	Document Document
}
