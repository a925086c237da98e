package collect

import "github.com/slok/magnetctl/internal/model"

// LockState is the snapshot of every signal that decides if a session can be abandoned.
type LockState struct {
	DialogOpen      bool
	LockAfterCreate bool
	DetailOpen      bool
	HasIdentifier   bool
	Status          model.TaskStatus
	Creating        bool
	Organizing      bool
}

// IsLocked returns true when the session holds remote work that would be lost if abandoned.
// A closed session is never locked.
func IsLocked(s LockState) bool {
	if !s.DialogOpen {
		return false
	}

	return s.LockAfterCreate ||
		s.DetailOpen ||
		s.HasIdentifier ||
		(s.Status != model.TaskStatusUnset && s.Status != model.TaskStatusFailed) ||
		s.Creating ||
		s.Organizing
}
