package diag

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/funtimes-glowtape/internal/control"
	"github.com/coreman2200/funtimes-glowtape/internal/encoder"
	"github.com/coreman2200/funtimes-glowtape/internal/printer"
)

func newTestState() *State {
	return NewState("sim", Sources{
		Mode:    func() string { return "picture" },
		Printer: func() printer.Stats { return printer.Stats{BusErrors: 2} },
	}, zerolog.Nop())
}

func TestObserveCounts(t *testing.T) {
	s := newTestState()
	s.Observe(encoder.Event{Kind: encoder.FirstTick}, control.Outcome{Restarted: true, Presses: 3})
	s.Observe(encoder.Event{Kind: encoder.Tick}, control.Outcome{Sent: true, Flashed: true})
	s.Observe(encoder.Event{Kind: encoder.FastTick}, control.Outcome{Sent: true})

	snap := s.Snapshot()
	assert.Equal(t, map[string]uint64{"first-tick": 1, "tick": 1, "fast-tick": 1}, snap.Ticks)
	assert.Equal(t, uint64(1), snap.Restarts)
	assert.Equal(t, uint64(2), snap.Rows)
	assert.Equal(t, uint64(1), snap.Flashes)
	assert.Equal(t, uint64(2), snap.BusErrors)
	assert.Equal(t, 3, snap.Presses)
	assert.Equal(t, "picture", snap.Mode)

	// Snapshots are copies.
	snap.Ticks["tick"] = 99
	assert.Equal(t, uint64(1), s.Snapshot().Ticks["tick"])
}

func TestHandleHealth(t *testing.T) {
	s := newTestState()
	s.Observe(encoder.Event{Kind: encoder.Tick}, control.Outcome{Sent: true})

	rec := httptest.NewRecorder()
	s.HandleHealth(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var got Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "sim", got.Driver)
	assert.Equal(t, uint64(1), got.Rows)
}

func TestDiagWebsocketStreams(t *testing.T) {
	s := newTestState()
	srv := httptest.NewServer(http.HandlerFunc(s.HandleDiagWS))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx, time.Hour)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var snap Snapshot
	require.NoError(t, conn.ReadJSON(&snap))
	assert.Equal(t, "sim", snap.Driver)

	s.Observe(encoder.Event{Kind: encoder.FirstTick}, control.Outcome{Restarted: true, Presses: 1})

	var d Diagnostic
	require.NoError(t, conn.ReadJSON(&d))
	assert.Equal(t, "PULL.START", d.Code)
	assert.Equal(t, Info, d.Severity)
	assert.Equal(t, "picture", d.Evidence["mode"])
}

func TestPushDoesNotBlock(t *testing.T) {
	s := newTestState()
	for i := 0; i < 100; i++ {
		s.Observe(encoder.Event{Kind: encoder.FirstTick}, control.Outcome{Restarted: true})
	}
	assert.Len(t, s.events, cap(s.events))
}
