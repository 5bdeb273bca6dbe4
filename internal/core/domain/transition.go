package domain

import "time"

// Transition records one accepted state machine step. Immutable; created
// once per accepted action.
type Transition struct {
	From      PlaybackState
	To        PlaybackState
	Action    PlaybackAction
	Timestamp time.Time
}

// Changed reports whether the transition actually moved to a different
// state (some accepted actions map a state onto an equal one).
func (t Transition) Changed() bool {
	return !StatesEqual(t.From, t.To)
}
