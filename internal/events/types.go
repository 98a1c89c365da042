package events

import "time"

// SheetEvent is implemented by every per-sheet lifecycle event.
type SheetEvent interface {
	SheetName() string
}

// SheetStarted is published when a sheet build begins.
type SheetStarted struct {
	BuildID   string
	Sheet     string
	Trigger   string
	StartedAt time.Time
}

// SheetCompleted is published after every artifact of a sheet was delivered.
type SheetCompleted struct {
	BuildID  string
	Sheet    string
	Kinds    []string
	Files    []string
	Duration time.Duration
}

// SheetFailed is published when any sub-build of a sheet fails.
type SheetFailed struct {
	BuildID  string
	Sheet    string
	Kind     string
	Err      error
	Duration time.Duration
}

// RebuildTriggered is published by the watch coordinator before a scoped rebuild.
type RebuildTriggered struct {
	Sheet  string
	Reason string
	Path   string
}

func (e SheetStarted) SheetName() string     { return e.Sheet }
func (e SheetCompleted) SheetName() string   { return e.Sheet }
func (e SheetFailed) SheetName() string      { return e.Sheet }
func (e RebuildTriggered) SheetName() string { return e.Sheet }
