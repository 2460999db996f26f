package service

import (
	"errors"

	"github.com/okian/apex/internal/adapters/repository"
	"github.com/okian/apex/internal/domain/scoring"
)

// Sentinel kinds returned by Board operations.
var (
	ErrUnknownAction    = scoring.ErrUnknownAction
	ErrDuplicateCheckIn = errors.New("already checked in today")
	ErrNotFound         = errors.New("collaborator not found")
	ErrIndexOutOfRange  = errors.New("action index out of range")
	ErrNameCollision    = errors.New("collaborator already exists")
	ErrInvalidName      = errors.New("invalid collaborator name")
	ErrInvalidCount     = errors.New("invalid action count")
	ErrCorruptStore     = repository.ErrCorruptStore
)
