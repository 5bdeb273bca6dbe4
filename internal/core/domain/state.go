package domain

import (
	"fmt"
	"time"
)

// Resume is the state playback returns to once a buffering or seeking
// interlude resolves.
type Resume int

const (
	ResumePlaying Resume = iota
	ResumePaused
)

func (r Resume) String() string {
	if r == ResumePlaying {
		return "playing"
	}
	return "paused"
}

// PlaybackState is the sum type for the playback lifecycle. Only Buffering
// and Seeking carry a resumable state; no other variant holds one.
type PlaybackState interface {
	playbackState()
	String() string
}

type Idle struct{}

type Loading struct {
	URL string
}

type Ready struct{}

type Playing struct{}

type Paused struct{}

type Buffering struct {
	ResumeTo Resume
}

type Seeking struct {
	Target   time.Duration
	ResumeTo Resume
}

type Ended struct{}

type Failed struct {
	Err *PlaybackError
}

func (Idle) playbackState()      {}
func (Loading) playbackState()   {}
func (Ready) playbackState()     {}
func (Playing) playbackState()   {}
func (Paused) playbackState()    {}
func (Buffering) playbackState() {}
func (Seeking) playbackState()   {}
func (Ended) playbackState()     {}
func (Failed) playbackState()    {}

func (Idle) String() string { return "idle" }
func (s Loading) String() string {
	return fmt.Sprintf("loading(%s)", s.URL)
}
func (Ready) String() string   { return "ready" }
func (Playing) String() string { return "playing" }
func (Paused) String() string  { return "paused" }
func (s Buffering) String() string {
	return fmt.Sprintf("buffering(resume=%s)", s.ResumeTo)
}
func (s Seeking) String() string {
	return fmt.Sprintf("seeking(target=%s, resume=%s)", s.Target, s.ResumeTo)
}
func (Ended) String() string { return "ended" }
func (s Failed) String() string {
	if s.Err == nil {
		return "failed"
	}
	return fmt.Sprintf("failed(%s)", s.Err.Code)
}

// StateName returns the bare variant name, without payload. Used as a
// metric/log label.
func StateName(s PlaybackState) string {
	switch s.(type) {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	case Buffering:
		return "buffering"
	case Seeking:
		return "seeking"
	case Ended:
		return "ended"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// StatesEqual compares two states including payloads.
func StatesEqual(a, b PlaybackState) bool {
	switch av := a.(type) {
	case Idle:
		_, ok := b.(Idle)
		return ok
	case Loading:
		bv, ok := b.(Loading)
		return ok && av.URL == bv.URL
	case Ready:
		_, ok := b.(Ready)
		return ok
	case Playing:
		_, ok := b.(Playing)
		return ok
	case Paused:
		_, ok := b.(Paused)
		return ok
	case Buffering:
		bv, ok := b.(Buffering)
		return ok && av.ResumeTo == bv.ResumeTo
	case Seeking:
		bv, ok := b.(Seeking)
		return ok && av.Target == bv.Target && av.ResumeTo == bv.ResumeTo
	case Ended:
		_, ok := b.(Ended)
		return ok
	case Failed:
		bv, ok := b.(Failed)
		return ok && playbackErrorsEqual(av.Err, bv.Err)
	default:
		return false
	}
}

// IsActive reports whether media is (or is about to be) playing: Playing
// itself, or a Buffering/Seeking interlude that resumes to Playing.
func IsActive(s PlaybackState) bool {
	switch sv := s.(type) {
	case Playing:
		return true
	case Buffering:
		return sv.ResumeTo == ResumePlaying
	case Seeking:
		return sv.ResumeTo == ResumePlaying
	default:
		return false
	}
}

// CanPlay reports whether a Play action makes sense from this state.
func CanPlay(s PlaybackState) bool {
	switch s.(type) {
	case Ready, Paused, Ended:
		return true
	default:
		return false
	}
}

// CanPause reports whether a Pause action makes sense from this state.
func CanPause(s PlaybackState) bool {
	switch sv := s.(type) {
	case Playing:
		return true
	case Buffering:
		return sv.ResumeTo == ResumePlaying
	case Seeking:
		return sv.ResumeTo == ResumePlaying
	default:
		return false
	}
}
