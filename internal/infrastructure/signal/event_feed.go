package signal

import (
	"context"
	"net/http"
	"sync"
	"time"

	"playcore/internal/core/domain"
	"playcore/pkg/pubsub"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // origin policy belongs to the fronting proxy
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// feedMessage is the wire envelope pushed to subscribers.
type feedMessage struct {
	Type      string      `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

type transitionPayload struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Action  string `json:"action"`
	Changed bool   `json:"changed"`
}

type alertPayload struct {
	ID         string `json:"id"`
	SessionID  string `json:"session_id"`
	Type       string `json:"type"`
	Severity   string `json:"severity"`
	Message    string `json:"message"`
	Suggestion string `json:"suggestion,omitempty"`
}

// EventFeedServer pushes playback transitions and performance alerts to
// websocket subscribers (UI binding, analytics taps). No replay: a client
// only sees events published after it connected.
type EventFeedServer struct {
	transitions *pubsub.Feed[domain.Transition]
	alerts      *pubsub.Feed[domain.PerformanceAlert]

	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}

	pingInterval time.Duration
	writeTimeout time.Duration

	logger *zap.SugaredLogger
}

func NewEventFeedServer(transitions *pubsub.Feed[domain.Transition], alerts *pubsub.Feed[domain.PerformanceAlert], logger *zap.SugaredLogger) *EventFeedServer {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &EventFeedServer{
		transitions:  transitions,
		alerts:       alerts,
		conns:        make(map[*websocket.Conn]struct{}),
		pingInterval: 30 * time.Second,
		writeTimeout: 10 * time.Second,
		logger:       logger,
	}
}

// Run fans events out to connected clients until the context is
// cancelled. Call once, before serving HandleWebSocket.
func (s *EventFeedServer) Run(ctx context.Context) {
	transitionCh, cancelTransitions := s.transitions.Subscribe()
	defer cancelTransitions()
	alertCh, cancelAlerts := s.alerts.Subscribe()
	defer cancelAlerts()

	ticker := time.NewTicker(s.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.closeAll()
			return
		case t := <-transitionCh:
			s.broadcast(feedMessage{
				Type:      "transition",
				Timestamp: t.Timestamp,
				Payload: transitionPayload{
					From:    t.From.String(),
					To:      t.To.String(),
					Action:  t.Action.Name(),
					Changed: t.Changed(),
				},
			})
		case a := <-alertCh:
			s.broadcast(feedMessage{
				Type:      "alert",
				Timestamp: a.Timestamp,
				Payload: alertPayload{
					ID:         a.ID,
					SessionID:  a.SessionID,
					Type:       string(a.Type),
					Severity:   a.Severity.String(),
					Message:    a.Message,
					Suggestion: a.Suggestion,
				},
			})
		case <-ticker.C:
			s.ping()
		}
	}
}

// HandleWebSocket upgrades the request and registers the client.
func (s *EventFeedServer) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Errorw("websocket upgrade failed", "error", err)
		return
	}

	s.mu.Lock()
	s.conns[conn] = struct{}{}
	count := len(s.conns)
	s.mu.Unlock()
	s.logger.Infow("event feed client connected", "clients", count)

	// Drain (and discard) client frames so pings/pongs and close frames
	// are processed.
	go func() {
		defer s.drop(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (s *EventFeedServer) broadcast(msg feedMessage) {
	s.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(s.conns))
	for conn := range s.conns {
		conns = append(conns, conn)
	}
	s.mu.Unlock()

	for _, conn := range conns {
		conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
		if err := conn.WriteJSON(msg); err != nil {
			s.logger.Warnw("event feed write failed", "error", err)
			s.drop(conn)
		}
	}
}

func (s *EventFeedServer) ping() {
	s.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(s.conns))
	for conn := range s.conns {
		conns = append(conns, conn)
	}
	s.mu.Unlock()

	for _, conn := range conns {
		conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
		if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
			s.drop(conn)
		}
	}
}

func (s *EventFeedServer) drop(conn *websocket.Conn) {
	s.mu.Lock()
	if _, ok := s.conns[conn]; ok {
		delete(s.conns, conn)
		conn.Close()
	}
	s.mu.Unlock()
}

func (s *EventFeedServer) closeAll() {
	s.mu.Lock()
	for conn := range s.conns {
		conn.Close()
	}
	s.conns = make(map[*websocket.Conn]struct{})
	s.mu.Unlock()
}
