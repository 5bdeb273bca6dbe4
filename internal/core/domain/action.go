package domain

import "time"

// PlaybackAction is the sum type of everything that can be sent to the
// state machine: user intents, player events translated by the platform
// adapter, and app/session lifecycle events.
type PlaybackAction interface {
	playbackAction()
	Name() string
}

// User actions

type Load struct {
	URL string
}

type Play struct{}

type Pause struct{}

type Seek struct {
	Target time.Duration
}

type Stop struct{}

type Retry struct{}

// Player events

type BecameReady struct{}

type StartedPlaying struct{}

type DidPause struct{}

type StartedBuffering struct{}

type FinishedBuffering struct{}

type StartedSeeking struct{}

type FinishedSeeking struct{}

type ReachedEnd struct{}

type PlaybackFailed struct {
	Err *PlaybackError
}

// App/session events

type EnteredBackground struct{}

type BecameActive struct{}

type SessionInterrupted struct{}

type SessionResumed struct{}

func (Load) playbackAction()               {}
func (Play) playbackAction()               {}
func (Pause) playbackAction()              {}
func (Seek) playbackAction()               {}
func (Stop) playbackAction()               {}
func (Retry) playbackAction()              {}
func (BecameReady) playbackAction()        {}
func (StartedPlaying) playbackAction()     {}
func (DidPause) playbackAction()           {}
func (StartedBuffering) playbackAction()   {}
func (FinishedBuffering) playbackAction()  {}
func (StartedSeeking) playbackAction()     {}
func (FinishedSeeking) playbackAction()    {}
func (ReachedEnd) playbackAction()         {}
func (PlaybackFailed) playbackAction()     {}
func (EnteredBackground) playbackAction()  {}
func (BecameActive) playbackAction()       {}
func (SessionInterrupted) playbackAction() {}
func (SessionResumed) playbackAction()     {}

func (Load) Name() string               { return "load" }
func (Play) Name() string               { return "play" }
func (Pause) Name() string              { return "pause" }
func (Seek) Name() string               { return "seek" }
func (Stop) Name() string               { return "stop" }
func (Retry) Name() string              { return "retry" }
func (BecameReady) Name() string        { return "became_ready" }
func (StartedPlaying) Name() string     { return "started_playing" }
func (DidPause) Name() string           { return "did_pause" }
func (StartedBuffering) Name() string   { return "started_buffering" }
func (FinishedBuffering) Name() string  { return "finished_buffering" }
func (StartedSeeking) Name() string     { return "started_seeking" }
func (FinishedSeeking) Name() string    { return "finished_seeking" }
func (ReachedEnd) Name() string         { return "reached_end" }
func (PlaybackFailed) Name() string     { return "playback_failed" }
func (EnteredBackground) Name() string  { return "entered_background" }
func (BecameActive) Name() string       { return "became_active" }
func (SessionInterrupted) Name() string { return "session_interrupted" }
func (SessionResumed) Name() string     { return "session_resumed" }
