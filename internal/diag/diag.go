package diag

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/coreman2200/funtimes-glowtape/internal/control"
	"github.com/coreman2200/funtimes-glowtape/internal/encoder"
	"github.com/coreman2200/funtimes-glowtape/internal/printer"
)

type Severity string

const (
	Info Severity = "info"
	Warn Severity = "warning"
	Err  Severity = "error"
)

type Diagnostic struct {
	Severity Severity       `json:"severity"`
	Code     string         `json:"code"`
	Summary  string         `json:"summary"`
	Detail   string         `json:"detail,omitempty"`
	Evidence map[string]any `json:"evidence,omitempty"`
}

// Snapshot is the device state served on /health and streamed on /diag.
type Snapshot struct {
	Driver    string            `json:"driver"`
	UptimeS   float64           `json:"uptime_s"`
	Ticks     map[string]uint64 `json:"ticks"`
	Restarts  uint64            `json:"restarts"`
	Rows      uint64            `json:"rows"`
	Flashes   uint64            `json:"flashes"`
	BusErrors uint64            `json:"bus_errors"`
	PinErrors uint64            `json:"pin_errors"`
	Presses   int               `json:"last_presses"`
	Mode      string            `json:"mode,omitempty"`
}

// Sources are read from the poll loop inside Observe; they need no locking.
type Sources struct {
	Mode    func() string
	Printer func() printer.Stats
}

// State collects what the control loop did. Observe runs on the poll loop;
// the HTTP handlers read a copy under the lock.
type State struct {
	mu      sync.RWMutex
	wmu     sync.Mutex // one writer per websocket
	snap    Snapshot
	start   time.Time
	src     Sources
	log     zerolog.Logger
	clients map[*websocket.Conn]bool
	events  chan Diagnostic
}

var _ control.Observer = (*State)(nil)

func NewState(driver string, src Sources, log zerolog.Logger) *State {
	return &State{
		snap:    Snapshot{Driver: driver, Ticks: map[string]uint64{}},
		start:   time.Now(),
		src:     src,
		log:     log,
		clients: map[*websocket.Conn]bool{},
		events:  make(chan Diagnostic, 16),
	}
}

func (s *State) Observe(ev encoder.Event, out control.Outcome) {
	var st printer.Stats
	if s.src.Printer != nil {
		st = s.src.Printer()
	}
	mode := ""
	if out.Restarted && s.src.Mode != nil {
		mode = s.src.Mode()
	}

	s.mu.Lock()
	s.snap.Ticks[ev.Kind.String()]++
	if out.Sent {
		s.snap.Rows++
	}
	if out.Flashed {
		s.snap.Flashes++
	}
	s.snap.BusErrors = st.BusErrors
	s.snap.PinErrors = st.PinErrors
	if out.Restarted {
		s.snap.Restarts++
		s.snap.Presses = out.Presses
		s.snap.Mode = mode
	}
	s.mu.Unlock()

	if out.Restarted {
		s.push(Diagnostic{
			Severity: Info, Code: "PULL.START", Summary: "New image started",
			Evidence: map[string]any{"presses": out.Presses, "mode": mode},
		})
	}
}

// push never blocks the poll loop; records are dropped when nobody drains.
func (s *State) push(d Diagnostic) {
	select {
	case s.events <- d:
	default:
	}
}

func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c := s.snap
	c.Ticks = make(map[string]uint64, len(s.snap.Ticks))
	for k, v := range s.snap.Ticks {
		c.Ticks[k] = v
	}
	c.UptimeS = time.Since(s.start).Seconds()
	return c
}

func (s *State) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.Snapshot())
}

func (s *State) HandleDiagWS(w http.ResponseWriter, r *http.Request) {
	up := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.mu.Lock()
	s.clients[conn] = true
	s.mu.Unlock()
	s.send(conn, s.Snapshot())

	go func() {
		defer func() {
			s.mu.Lock()
			delete(s.clients, conn)
			s.mu.Unlock()
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// Run streams the snapshot every interval and forwards diagnostic records
// until ctx is done.
func (s *State) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.broadcast(s.Snapshot())
		case d := <-s.events:
			s.broadcast(d)
		}
	}
}

func (s *State) broadcast(v any) {
	s.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(s.clients))
	for c := range s.clients {
		conns = append(conns, c)
	}
	s.mu.RUnlock()
	for _, c := range conns {
		s.send(c, v)
	}
}

func (s *State) send(c *websocket.Conn, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		s.log.Error().Err(err).Msg("marshal diag")
		return
	}
	s.wmu.Lock()
	defer s.wmu.Unlock()
	c.SetWriteDeadline(time.Now().Add(200 * time.Millisecond))
	if err := c.WriteMessage(websocket.TextMessage, b); err != nil {
		s.log.Debug().Err(err).Msg("write diag")
	}
}
