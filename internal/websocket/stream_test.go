package websocket

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ertcli/internal/shared/testutil"
	api "ertcli/pkg/contracts/api/v1"
)

func dial(t *testing.T, server *httptest.Server, header http.Header) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	return websocket.DefaultDialer.Dial(wsURL, header)
}

func readAll(t *testing.T, conn *websocket.Conn) ([]Message, error) {
	t.Helper()
	var msgs []Message
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			return msgs, err
		}
		msgs = append(msgs, msg)
	}
}

func TestStreamer_SendsChangesUntilFinished(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	var calls atomic.Int32
	poll := func() (Message, bool, error) {
		n := calls.Add(1)
		switch {
		case n <= 2:
			return Message{Type: TypeProgress, JobID: "j1", Status: "running",
				Progress: api.ProgressResponse{Phase: "filter", Percent: 10}}, false, nil
		case n == 3:
			return Message{Type: TypeProgress, JobID: "j1", Status: "running",
				Progress: api.ProgressResponse{Phase: "write", Percent: 60}}, false, nil
		default:
			return Message{Type: TypeProgress, JobID: "j1", Status: "completed",
				Progress: api.ProgressResponse{Phase: "done", Percent: 100, Finished: true}}, true, nil
		}
	}
	streamer := NewStreamer(nil, 10*time.Millisecond, logger)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		streamer.Serve(w, r, poll)
	}))
	defer server.Close()

	conn, _, err := dial(t, server, nil)
	require.NoError(t, err)
	defer conn.Close()

	msgs, err := readAll(t, conn)
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "unexpected error: %v", err)
	require.Len(t, msgs, 3)
	assert.Equal(t, 10, msgs[0].Progress.Percent)
	assert.Equal(t, 60, msgs[1].Progress.Percent)
	assert.True(t, msgs[2].Progress.Finished)
	assert.Equal(t, "completed", msgs[2].Status)
}

func TestStreamer_PollError(t *testing.T) {
	streamer := NewStreamer(nil, 10*time.Millisecond, nil)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		streamer.Serve(w, r, func() (Message, bool, error) {
			return Message{}, false, errors.New("job gone")
		})
	}))
	defer server.Close()

	conn, _, err := dial(t, server, nil)
	require.NoError(t, err)
	defer conn.Close()

	msgs, _ := readAll(t, conn)
	require.Len(t, msgs, 1)
	assert.Equal(t, TypeError, msgs[0].Type)
	assert.Equal(t, "job gone", msgs[0].Error)
}

func TestStreamer_RejectsOrigin(t *testing.T) {
	logger, handler := testutil.NewTestLogger(t)
	streamer := NewStreamer(func(origin string) bool { return origin == "http://allowed" }, 0, logger)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		streamer.Serve(w, r, func() (Message, bool, error) { return Message{}, true, nil })
	}))
	defer server.Close()

	_, resp, err := dial(t, server, http.Header{"Origin": []string{"http://evil"}})
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.True(t, handler.ContainsMessage("WebSocket origin not allowed"))

	conn, _, err := dial(t, server, http.Header{"Origin": []string{"http://allowed"}})
	require.NoError(t, err)
	conn.Close()
}
