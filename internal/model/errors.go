package model

import "errors"

var (
	// ErrNotFound is returned when a resource is not found.
	ErrNotFound = errors.New("not found")
	// ErrNotValid is returned when a resource is not valid.
	ErrNotValid = errors.New("not valid")
	// ErrNoActiveTask is returned when an operation requires a tracked task and there is none.
	ErrNoActiveTask = errors.New("no active task")
	// ErrLocked is returned when the session can't be abandoned or reused because remote work is outstanding.
	ErrLocked = errors.New("session locked")
	// ErrExitInProgress is returned when an exit confirmation is already running.
	ErrExitInProgress = errors.New("exit confirmation in progress")

	// ErrRemoteCreate is returned when the remote task could not be created.
	ErrRemoteCreate = errors.New("remote create failed")
	// ErrRemotePoll is returned when the remote task status could not be retrieved.
	ErrRemotePoll = errors.New("remote poll failed")
	// ErrRemoteCancel is returned when the remote task could not be cancelled.
	ErrRemoteCancel = errors.New("remote cancel failed")
	// ErrRemoteOrganize is returned when the remote task could not be organized.
	ErrRemoteOrganize = errors.New("remote organize failed")
	// ErrRemoteForceComplete is returned when the remote task could not be forced to complete.
	ErrRemoteForceComplete = errors.New("remote force complete failed")
)
