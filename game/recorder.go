package game

import "context"

// Result is the outcome of a match as handed to the lifecycle.
type Result struct {
	MatchID      string
	Player1      PlayerState
	Player2      PlayerState
	WinnerID     string
	Disconnected bool
	Abandoned    bool
}

// Recorder persists match transitions. Calls happen only at match start and
// end, never per tick.
type Recorder interface {
	MarkInProgress(ctx context.Context, matchID string) error
	RecordResult(ctx context.Context, result Result) error
}

// NopRecorder discards everything.
type NopRecorder struct{}

func (NopRecorder) MarkInProgress(context.Context, string) error { return nil }
func (NopRecorder) RecordResult(context.Context, Result) error   { return nil }
