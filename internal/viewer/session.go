package viewer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Display is what a session currently shows. View is nil while loading;
// Err holds the failure of the last load, if any.
type Display struct {
	Request DocumentRequest
	View    *View
	Err     error
}

// Loading reports whether the loading indicator is shown.
func (d Display) Loading() bool { return d.View == nil }

// Session holds the display slot for one viewer. The slot is either empty
// (loading) or a complete view for the current request.
type Session struct {
	ID string

	loader   ViewLoader
	log      *slog.Logger
	onChange func(Display)

	ctx  context.Context
	stop context.CancelFunc
	wg   sync.WaitGroup

	mu         sync.Mutex
	started    bool
	current    DocumentRequest
	gen        uint64
	view       *View
	err        error
	cancel     context.CancelFunc
	seq        uint64
	lastActive time.Time
	closed     bool

	notifyMu  sync.Mutex
	delivered uint64
}

// NewSession returns an idle session. onChange, if set, receives every
// display change in order and must not call back into the session.
func NewSession(id string, loader ViewLoader, log *slog.Logger, onChange func(Display)) *Session {
	ctx, stop := context.WithCancel(context.Background())
	return &Session{
		ID:         id,
		loader:     loader,
		log:        log.With("session_id", id),
		onChange:   onChange,
		ctx:        ctx,
		stop:       stop,
		lastActive: time.Now(),
	}
}

// Navigate resolves addr and requests its document.
func (s *Session) Navigate(addr string) bool {
	return s.Request(ResolveAddress(addr))
}

// Request starts a load when req differs from the current request or
// nothing was loaded yet, and reports whether it did. Starting a load
// empties the slot and cancels the load it supersedes.
func (s *Session) Request(req DocumentRequest) bool {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false
	}
	s.lastActive = time.Now()
	if s.started && req == s.current {
		s.mu.Unlock()
		return false
	}

	if s.cancel != nil {
		s.cancel()
	}
	s.started = true
	s.current = req
	s.view, s.err = nil, nil
	s.gen++
	gen := s.gen
	ctx, cancel := context.WithCancel(s.ctx)
	s.cancel = cancel
	seq, disp := s.snapshotLocked()
	s.wg.Add(1)
	s.mu.Unlock()

	s.log.Debug("loading document", "page", req.Page)
	s.deliver(seq, disp)
	go s.load(ctx, gen, req)
	return true
}

func (s *Session) load(ctx context.Context, gen uint64, req DocumentRequest) {
	defer s.wg.Done()
	view, err := s.run(ctx, req)

	s.mu.Lock()
	if s.closed || gen != s.gen {
		s.mu.Unlock()
		s.log.Debug("discarded superseded load", "page", req.Page)
		return
	}
	s.cancel()
	s.cancel = nil
	if err != nil {
		s.err = err
		s.log.Error("load failed", "page", req.Page, "error", err)
	} else {
		s.view = view
	}
	seq, disp := s.snapshotLocked()
	s.mu.Unlock()

	s.deliver(seq, disp)
}

func (s *Session) run(ctx context.Context, req DocumentRequest) (view *View, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("load %s: panic: %v", req.Page, r)
		}
	}()
	return s.loader.LoadAndRender(ctx, req)
}

func (s *Session) snapshotLocked() (uint64, Display) {
	s.seq++
	return s.seq, Display{Request: s.current, View: s.view, Err: s.err}
}

// deliver passes d to onChange unless a newer display was already sent.
func (s *Session) deliver(seq uint64, d Display) {
	if s.onChange == nil {
		return
	}
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()
	if seq <= s.delivered {
		return
	}
	s.delivered = seq
	s.onChange(d)
}

// Refresh delivers the current display to onChange again. It never
// overtakes a newer display.
func (s *Session) Refresh() {
	s.mu.Lock()
	seq, disp := s.snapshotLocked()
	s.mu.Unlock()
	s.deliver(seq, disp)
}

// Display returns the current display state.
func (s *Session) Display() Display {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Display{Request: s.current, View: s.view, Err: s.err}
}

// Touch marks the session as active.
func (s *Session) Touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActive = time.Now()
}

// LastActive returns when the session was last navigated or touched.
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// Close cancels any in-flight load and waits for it to finish. Later
// requests are ignored.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.stop()
	s.wg.Wait()
}
