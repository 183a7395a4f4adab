package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Store owns the State of one session. Every read and mutation runs on the
// goroutine executing Run; callers on other goroutines post closures to it.
type Store struct {
	id       string
	analyzer Analyzer
	timeout  time.Duration
	observe  func(Event, Transition)

	inbox   chan func()
	stopped chan struct{}

	// Loop-owned.
	runCtx context.Context
	fence  Fence
	state  State
	subs   map[string]chan State
}

// Option configures a Store.
type Option func(*Store)

// WithRequestTimeout bounds each analysis request independently of the
// transport's own timeout.
func WithRequestTimeout(d time.Duration) Option {
	return func(s *Store) { s.timeout = d }
}

// WithObserver registers fn to run on the loop after every processed event,
// including dropped stale responses.
func WithObserver(fn func(Event, Transition)) Option {
	return func(s *Store) { s.observe = fn }
}

// NewStore creates an idle session backed by analyzer. Other methods block
// until Run is started.
func NewStore(analyzer Analyzer, opts ...Option) *Store {
	s := &Store{
		id:       uuid.NewString(),
		analyzer: analyzer,
		inbox:    make(chan func(), 16),
		stopped:  make(chan struct{}),
		state:    NewState(),
		subs:     make(map[string]chan State),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ID identifies the session in logs.
func (s *Store) ID() string { return s.id }

// Run processes posted work until ctx is cancelled. It must be called once.
// In-flight requests are cancelled with ctx.
func (s *Store) Run(ctx context.Context) error {
	s.runCtx = ctx
	defer close(s.stopped)
	log.Debug().Str("session", s.id).Msg("Session loop started")

	for {
		select {
		case <-ctx.Done():
			for id, ch := range s.subs {
				close(ch)
				delete(s.subs, id)
			}
			log.Debug().Str("session", s.id).Msg("Session loop stopped")
			return nil
		case fn := <-s.inbox:
			fn()
		}
	}
}

// SelectFile replaces the transcript, resets the session to the aggregate
// view and dispatches its analysis. The reset is applied before SelectFile
// returns.
func (s *Store) SelectFile(ctx context.Context, file ChatFile) error {
	var applyErr error
	if err := s.do(ctx, func() { applyErr = s.apply(FileChosen{File: file}) }); err != nil {
		return err
	}
	return applyErr
}

// SelectParticipant switches the analysis filter and dispatches a new
// request. It needs a selected file and a completed result listing the
// participant.
func (s *Store) SelectParticipant(ctx context.Context, p Participant) error {
	var applyErr error
	if err := s.do(ctx, func() { applyErr = s.apply(ParticipantChosen{Participant: p}) }); err != nil {
		return err
	}
	return applyErr
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot(ctx context.Context) (State, error) {
	var st State
	err := s.do(ctx, func() { st = s.state })
	return st, err
}

// Subscribe returns a channel that holds the latest state after every
// transition, starting with the current one. Slow readers only miss
// intermediate states. The channel is closed when the store stops.
func (s *Store) Subscribe(ctx context.Context) (<-chan State, func(), error) {
	id := uuid.NewString()
	ch := make(chan State, 1)
	if err := s.do(ctx, func() {
		s.subs[id] = ch
		ch <- s.state
	}); err != nil {
		return nil, nil, err
	}
	var once sync.Once
	cancel := func() {
		once.Do(func() { s.post(func() { delete(s.subs, id) }) })
	}
	return ch, cancel, nil
}

// WaitSettled blocks until no request is outstanding and returns that state.
func (s *Store) WaitSettled(ctx context.Context) (State, error) {
	updates, cancel, err := s.Subscribe(ctx)
	if err != nil {
		return State{}, err
	}
	defer cancel()

	for {
		select {
		case st, ok := <-updates:
			if !ok {
				return State{}, ErrStopped
			}
			if !st.Loading {
				return st, nil
			}
		case <-ctx.Done():
			return State{}, ctx.Err()
		}
	}
}

// apply runs one event through Reduce and carries out its effects. Loop only.
func (s *Store) apply(ev Event) error {
	t, err := Reduce(&s.fence, s.state, ev)
	if err != nil {
		log.Debug().Err(err).Str("session", s.id).Str("event", ev.eventName()).Msg("Session event rejected")
		return err
	}
	if s.observe != nil {
		s.observe(ev, t)
	}
	if t.Stale {
		log.Debug().Str("session", s.id).Str("event", ev.eventName()).Uint64("latest", s.fence.Latest()).Msg("Discarding superseded analysis response")
		return nil
	}

	s.state = t.State
	logTransition(s.id, ev, s.state)

	if t.Dispatch != nil {
		s.dispatch(*t.Dispatch)
	}
	s.publish()
	return nil
}

func (s *Store) publish() {
	for _, ch := range s.subs {
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- s.state:
		default:
		}
	}
}

// do runs fn on the loop and waits for it to finish.
func (s *Store) do(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	select {
	case s.inbox <- func() { fn(); close(done) }:
	case <-s.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-done:
		return nil
	case <-s.stopped:
		select {
		case <-done:
			return nil
		default:
			return ErrStopped
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

// post queues fn without waiting. Work posted after the loop stopped is dropped.
func (s *Store) post(fn func()) {
	select {
	case s.inbox <- fn:
	case <-s.stopped:
	}
}

func logTransition(id string, ev Event, st State) {
	entry := log.Debug()
	switch e := ev.(type) {
	case RequestFailed:
		entry = log.Warn().Err(e.Err)
	case RequestSucceeded, FileChosen, ParticipantChosen:
		entry = log.Info()
	}
	entry.
		Str("session", id).
		Str("event", ev.eventName()).
		Str("phase", string(st.Phase())).
		Str("participant", string(st.SelectedParticipant)).
		Uint64("sequence", st.LatestSequence).
		Msg("Session state updated")
}
