package model

import "errors"

var (
	// ErrNotFound is returned when a resource is not found.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when a resource already exists.
	ErrAlreadyExists = errors.New("already exists")
	// ErrNotValid is returned when a resource is not valid.
	ErrNotValid = errors.New("not valid")
	// ErrTaskActive is returned when a launch is requested while another task is being tracked.
	ErrTaskActive = errors.New("task already active")
	// ErrLaunch is returned when an analysis task could not be started.
	ErrLaunch = errors.New("launch failed")
	// ErrTransport is returned when the backend could not be reached or answered garbage.
	ErrTransport = errors.New("transport error")
)
