// Package server streams simulation frames over websockets and feeds pointer
// input from connected clients back into the runner.
package server

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/gekko3d/ragdoll"
	"github.com/gekko3d/ragdoll/persist"
)

type Options struct {
	// StreamInterval is how often the latest frame is pushed to clients.
	StreamInterval time.Duration
	// InputRate and InputBurst bound inbound messages per connection.
	InputRate  rate.Limit
	InputBurst int
	// ReadLimit caps the size of an inbound message in bytes.
	ReadLimit int64
	// CheckOrigin overrides the upgrader's origin check when set.
	CheckOrigin func(r *http.Request) bool
}

func DefaultOptions() Options {
	return Options{
		StreamInterval: time.Second / 30,
		InputRate:      120,
		InputBurst:     60,
		ReadLimit:      4096,
	}
}

type Server struct {
	runner   *ragdoll.Runner
	store    persist.Store
	opts     Options
	log      ragdoll.Logger
	upgrader websocket.Upgrader

	mu    sync.Mutex
	conns map[*client]struct{}
	wg    sync.WaitGroup
}

// New returns a server for runner. store may be nil, in which case sessions
// are neither restored nor saved.
func New(runner *ragdoll.Runner, store persist.Store, opts Options, log ragdoll.Logger) *Server {
	if log == nil {
		log = ragdoll.NewNopLogger()
	}
	def := DefaultOptions()
	if opts.StreamInterval <= 0 {
		opts.StreamInterval = def.StreamInterval
	}
	if opts.InputRate <= 0 {
		opts.InputRate = def.InputRate
	}
	if opts.InputBurst <= 0 {
		opts.InputBurst = def.InputBurst
	}
	if opts.ReadLimit <= 0 {
		opts.ReadLimit = def.ReadLimit
	}
	s := &Server{
		runner: runner,
		store:  store,
		opts:   opts,
		log:    log,
		conns:  make(map[*client]struct{}),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin:     opts.CheckOrigin,
	}
	return s
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws", s.handleWS)
	mux.HandleFunc("GET /frame", s.handleFrame)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})
	return mux
}

func (s *Server) handleFrame(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.runner.Frames().Load()); err != nil {
		s.log.Warnf("encode frame: %v", err)
	}
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	session := r.URL.Query().Get("session")
	if session != "" {
		if err := persist.ValidateKey(session); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	if session == "" {
		session = uuid.NewString()
	} else {
		s.restore(r.Context(), session)
	}
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warnf("websocket upgrade: %v", err)
		return
	}

	c := &client{
		srv:     s,
		conn:    conn,
		session: session,
		limiter: rate.NewLimiter(s.opts.InputRate, s.opts.InputBurst),
		done:    make(chan struct{}),
	}
	if !s.track(c) {
		_ = conn.Close()
		return
	}
	defer s.untrack(c)
	s.log.Infof("client connected, session %s", session)
	c.serve()
	s.log.Infof("client disconnected, session %s", session)
}

func (s *Server) restore(ctx context.Context, session string) {
	if s.store == nil {
		return
	}
	snap, err := s.store.Take(ctx, session)
	if errors.Is(err, persist.ErrNotFound) {
		return
	}
	if err != nil {
		s.log.Warnf("load session %s: %v", session, err)
		return
	}
	err = s.runner.Do(ctx, func(sim *ragdoll.Simulation) error {
		sim.Restore(snap)
		return nil
	})
	if err != nil {
		s.log.Warnf("restore session %s: %v", session, err)
		return
	}
	s.log.Infof("restored session %s for %s", session, snap.Username)
}

func (s *Server) save(ctx context.Context, session string) error {
	if s.store == nil {
		return errors.New("no session store configured")
	}
	var snap ragdoll.FigureSnapshot
	err := s.runner.Do(ctx, func(sim *ragdoll.Simulation) error {
		var err error
		snap, err = sim.Snapshot()
		return err
	})
	if err != nil {
		return err
	}
	return s.store.Save(ctx, session, snap)
}

func (s *Server) track(c *client) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conns == nil {
		return false
	}
	s.conns[c] = struct{}{}
	s.wg.Add(1)
	return true
}

func (s *Server) untrack(c *client) {
	s.mu.Lock()
	delete(s.conns, c)
	s.mu.Unlock()
	s.wg.Done()
}

// Close disconnects every client and waits for their handlers to return.
// New connections are refused afterwards.
func (s *Server) Close() {
	s.mu.Lock()
	conns := s.conns
	s.conns = nil
	s.mu.Unlock()
	for c := range conns {
		_ = c.conn.Close()
	}
	s.wg.Wait()
}
