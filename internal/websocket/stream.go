package websocket

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"ertcli/internal/infrastructure"
	api "ertcli/pkg/contracts/api/v1"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 512

	// DefaultInterval is how often progress is polled.
	DefaultInterval = 500 * time.Millisecond
)

// Message types sent to clients.
const (
	TypeProgress = "progress"
	TypeError    = "error"
)

// Message is one progress update for a report job.
type Message struct {
	Type     string               `json:"type"`
	JobID    string               `json:"job_id"`
	Status   string               `json:"status"`
	Progress api.ProgressResponse `json:"progress"`
	Error    string               `json:"error,omitempty"`
}

// PollFunc returns the current message and whether the job has finished.
type PollFunc func() (Message, bool, error)

// Streamer upgrades requests and pushes progress until the job finishes or
// the peer goes away. Unchanged snapshots are not resent.
type Streamer struct {
	upgrader websocket.Upgrader
	interval time.Duration
	logger   *slog.Logger
}

// NewStreamer creates a streamer. allowOrigin decides cross-origin upgrades;
// requests without an Origin header are always accepted.
func NewStreamer(allowOrigin func(origin string) bool, interval time.Duration, logger *slog.Logger) *Streamer {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	s := &Streamer{
		interval: interval,
		logger:   logger.With(slog.String("component", "websocket")),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" || allowOrigin == nil || allowOrigin(origin) {
				return true
			}
			s.logger.WarnContext(r.Context(), "WebSocket origin not allowed", slog.String("origin", origin))
			return false
		},
		Error: func(w http.ResponseWriter, r *http.Request, status int, reason error) {
			s.logger.ErrorContext(r.Context(), "WebSocket upgrade error",
				slog.Int("status", status),
				slog.String("reason", reason.Error()))
			http.Error(w, http.StatusText(status), status)
		},
	}
	return s
}

// Serve upgrades the request and streams poll results. It returns once the
// connection is closed; upgrade failures have already been answered.
func (s *Streamer) Serve(w http.ResponseWriter, r *http.Request, poll PollFunc) error {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	ctx := r.Context()
	connectedAt := time.Now()
	logger := s.logger.With(slog.String("remote_addr", r.RemoteAddr))
	logger.InfoContext(ctx, "WebSocket client connected")

	closed := make(chan struct{})
	go readPump(conn, closed)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	var (
		last Message
		sent int
	)
	defer func() {
		logger.InfoContext(ctx, "WebSocket client disconnected",
			slog.Duration("connection_duration", time.Since(connectedAt)),
			slog.Int("messages_sent", sent))
	}()

	for {
		msg, done, err := poll()
		if err != nil {
			msg = Message{Type: TypeError, Error: err.Error()}
			done = true
		}
		if sent == 0 || msg != last {
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(msg); err != nil {
				logger.DebugContext(ctx, "WebSocket write failed", slog.String("error", err.Error()))
				return nil
			}
			last = msg
			sent++
		}
		if done {
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, msg.Status),
				time.Now().Add(writeWait))
			return err
		}

		select {
		case <-closed:
			return nil
		case <-ctx.Done():
			return nil
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return nil
			}
		case <-ticker.C:
		}
	}
}

// readPump discards client messages and closes done when the peer goes away.
func readPump(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)
	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error { conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
