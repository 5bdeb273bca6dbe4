package services

import (
	"sync"
	"time"

	"playcore/internal/core/domain"
	"playcore/pkg/pubsub"

	"go.uber.org/zap"
)

// PlaybackStateMachine owns the playback lifecycle. Sends are serialized
// behind a mutex: a transition reads then replaces the current state, and
// that read-modify-write must not interleave. Rejected actions are not
// errors; Send returns nil and the state is untouched.
//
// The latest state is always readable synchronously via State or the
// state Value; transitions go out on a broadcast feed that does not replay
// to late subscribers.
type PlaybackStateMachine struct {
	mu    sync.Mutex
	state domain.PlaybackState
	now   func() time.Time

	stateValue  *pubsub.Value[domain.PlaybackState]
	transitions *pubsub.Feed[domain.Transition]

	logger *zap.SugaredLogger
}

// NewPlaybackStateMachine creates a machine in the Idle state. now may be
// nil, in which case time.Now is used; tests inject a fake clock.
func NewPlaybackStateMachine(now func() time.Time, logger *zap.SugaredLogger) *PlaybackStateMachine {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	initial := domain.PlaybackState(domain.Idle{})
	return &PlaybackStateMachine{
		state:       initial,
		now:         now,
		stateValue:  pubsub.NewValue(initial),
		transitions: pubsub.NewFeed[domain.Transition](32),
		logger:      logger,
	}
}

// State returns the current state snapshot.
func (m *PlaybackStateMachine) State() domain.PlaybackState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// StateValue exposes the latest-value state stream for UI binding.
func (m *PlaybackStateMachine) StateValue() *pubsub.Value[domain.PlaybackState] {
	return m.stateValue
}

// Transitions exposes the transition event stream. No replay: subscribers
// only see transitions accepted after they subscribe.
func (m *PlaybackStateMachine) Transitions() *pubsub.Feed[domain.Transition] {
	return m.transitions
}

// Send applies an action. If the (state, action) pair is undefined in the
// transition table it returns nil and the state is unchanged. Otherwise it
// atomically replaces the state, then publishes the new state and the
// transition in send order.
func (m *PlaybackStateMachine) Send(action domain.PlaybackAction) *domain.Transition {
	m.mu.Lock()
	next, ok := transitionFor(m.state, action)
	if !ok {
		cur := m.state
		m.mu.Unlock()
		m.logger.Debugw("action rejected",
			"state", cur.String(),
			"action", action.Name(),
		)
		return nil
	}

	t := domain.Transition{
		From:      m.state,
		To:        next,
		Action:    action,
		Timestamp: m.now(),
	}
	m.state = next

	// Publish while still holding the send lock so observers see
	// transitions in exactly the order sends were accepted.
	m.stateValue.Set(next)
	m.transitions.Publish(t)
	m.mu.Unlock()

	m.logger.Infow("transition",
		"from", t.From.String(),
		"to", t.To.String(),
		"action", action.Name(),
	)
	return &t
}

// CanPerform is a pure lookup with no side effect: would Send accept this
// action right now?
func (m *PlaybackStateMachine) CanPerform(action domain.PlaybackAction) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := transitionFor(m.state, action)
	return ok
}

// IsActive reports whether media is playing or about to resume playing.
func (m *PlaybackStateMachine) IsActive() bool {
	return domain.IsActive(m.State())
}

// CanPlay reports whether a Play action makes sense right now.
func (m *PlaybackStateMachine) CanPlay() bool {
	return domain.CanPlay(m.State())
}

// CanPause reports whether a Pause action makes sense right now.
func (m *PlaybackStateMachine) CanPause() bool {
	return domain.CanPause(m.State())
}

// transitionFor is the total transition function. It returns the successor
// state and whether the pair is defined at all.
func transitionFor(state domain.PlaybackState, action domain.PlaybackAction) (domain.PlaybackState, bool) {
	switch s := state.(type) {
	case domain.Idle:
		if a, ok := action.(domain.Load); ok {
			return domain.Loading{URL: a.URL}, true
		}

	case domain.Loading:
		switch a := action.(type) {
		case domain.BecameReady:
			return domain.Ready{}, true
		case domain.PlaybackFailed:
			return domain.Failed{Err: a.Err}, true
		case domain.Stop:
			return domain.Idle{}, true
		}

	case domain.Ready:
		switch a := action.(type) {
		case domain.Play:
			return domain.Playing{}, true
		case domain.Stop:
			return domain.Idle{}, true
		case domain.Load:
			return domain.Loading{URL: a.URL}, true
		}

	case domain.Playing:
		switch a := action.(type) {
		case domain.Pause:
			return domain.Paused{}, true
		case domain.StartedBuffering:
			return domain.Buffering{ResumeTo: domain.ResumePlaying}, true
		case domain.Seek:
			return domain.Seeking{Target: a.Target, ResumeTo: domain.ResumePlaying}, true
		case domain.ReachedEnd:
			return domain.Ended{}, true
		case domain.PlaybackFailed:
			return domain.Failed{Err: a.Err}, true
		case domain.Stop:
			return domain.Idle{}, true
		case domain.EnteredBackground:
			return domain.Paused{}, true
		case domain.SessionInterrupted:
			return domain.Paused{}, true
		}

	case domain.Paused:
		switch a := action.(type) {
		case domain.Play:
			return domain.Playing{}, true
		case domain.StartedBuffering:
			return domain.Buffering{ResumeTo: domain.ResumePaused}, true
		case domain.Seek:
			return domain.Seeking{Target: a.Target, ResumeTo: domain.ResumePaused}, true
		case domain.Stop:
			return domain.Idle{}, true
		case domain.Load:
			return domain.Loading{URL: a.URL}, true
		case domain.SessionResumed:
			return domain.Playing{}, true
		}

	case domain.Buffering:
		switch a := action.(type) {
		case domain.FinishedBuffering:
			if s.ResumeTo == domain.ResumePlaying {
				return domain.Playing{}, true
			}
			return domain.Paused{}, true
		case domain.Pause:
			return domain.Buffering{ResumeTo: domain.ResumePaused}, true
		case domain.Play:
			return domain.Buffering{ResumeTo: domain.ResumePlaying}, true
		case domain.PlaybackFailed:
			return domain.Failed{Err: a.Err}, true
		case domain.Stop:
			return domain.Idle{}, true
		}

	case domain.Seeking:
		switch a := action.(type) {
		case domain.FinishedSeeking:
			if s.ResumeTo == domain.ResumePlaying {
				return domain.Playing{}, true
			}
			return domain.Paused{}, true
		case domain.Pause:
			return domain.Seeking{Target: s.Target, ResumeTo: domain.ResumePaused}, true
		case domain.Play:
			return domain.Seeking{Target: s.Target, ResumeTo: domain.ResumePlaying}, true
		case domain.PlaybackFailed:
			return domain.Failed{Err: a.Err}, true
		case domain.Stop:
			return domain.Idle{}, true
		}

	case domain.Ended:
		switch a := action.(type) {
		case domain.Play:
			return domain.Playing{}, true
		case domain.Stop:
			return domain.Idle{}, true
		case domain.Load:
			return domain.Loading{URL: a.URL}, true
		}

	case domain.Failed:
		switch a := action.(type) {
		case domain.Retry:
			if s.Err != nil && s.Err.IsRecoverable() {
				return domain.Idle{}, true
			}
		case domain.Load:
			return domain.Loading{URL: a.URL}, true
		case domain.Stop:
			return domain.Idle{}, true
		}
	}

	return nil, false
}
