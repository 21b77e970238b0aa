package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/theapemachine/errnie"
	"github.com/theapemachine/qbloch"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrVersionConflict = errors.New("session version conflict")
)

// Snapshot is the derived view of a session after its latest mutation.
type Snapshot struct {
	ID            string             `json:"id"`
	Version       uint64             `json:"version"`
	Gates         []string           `json:"gates"`
	Labels        []string           `json:"labels"`
	Amplitudes    []string           `json:"amplitudes"`
	Probabilities []float64          `json:"probabilities"`
	Bloch         qbloch.BlochVector `json:"bloch"`
	Dirac         string             `json:"dirac"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

/*
Session owns one gate sequence and the state last derived from it. All
mutations of a session run under its lock, so each request sees and produces
a consistent (sequence, snapshot) pair.
*/
type Session struct {
	ID        string
	CreatedAt time.Time

	mu          sync.Mutex
	sequence    *qbloch.Sequence
	state       qbloch.Qubit
	last        Snapshot
	subscribers map[chan Snapshot]struct{}
	closed      bool
}

/*
Store keeps live sessions in an expiring LRU. A session expires ttl after its
last mutation; once maxSessions is reached the least recently used session is
evicted. Eviction closes every subscriber channel of the evicted session.
*/
type Store struct {
	engine   *qbloch.Engine
	sessions *expirable.LRU[string, *Session]
}

func NewStore(engine *qbloch.Engine, maxSessions int, ttl time.Duration) *Store {
	if engine == nil {
		engine = qbloch.NewEngine(nil)
	}
	if maxSessions <= 0 {
		maxSessions = 1024
	}
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}

	return &Store{
		engine:   engine,
		sessions: expirable.NewLRU[string, *Session](maxSessions, onEvict, ttl),
	}
}

func onEvict(id string, s *Session) {
	errnie.Info("session %s evicted", id)
	s.close()
}

// Engine returns the engine sessions are derived with.
func (store *Store) Engine() *qbloch.Engine {
	return store.engine
}

// Len returns the number of live sessions.
func (store *Store) Len() int {
	return store.sessions.Len()
}

// Create starts a new session with an empty sequence.
func (store *Store) Create() Snapshot {
	s := &Session{
		ID:          uuid.NewString(),
		CreatedAt:   time.Now(),
		sequence:    qbloch.NewSequence(),
		state:       qbloch.Zero(),
		subscribers: make(map[chan Snapshot]struct{}),
	}
	s.last = store.snapshot(s, nil, 0, s.state)

	store.sessions.Add(s.ID, s)
	errnie.Info("session %s created", s.ID)
	return s.last
}

// Get returns the live session with the given id.
func (store *Store) Get(id string) (*Session, error) {
	s, ok := store.sessions.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}

	// A mutation racing a delete or eviction can re-add a closed session.
	if s.isClosed() {
		store.sessions.Remove(id)
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return s, nil
}

// Delete ends a session and closes its subscribers.
func (store *Store) Delete(id string) error {
	if !store.sessions.Remove(id) {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return nil
}

// Snapshot returns the latest derived view of a session.
func (store *Store) Snapshot(id string) (Snapshot, error) {
	s, err := store.Get(id)
	if err != nil {
		return Snapshot{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last, nil
}

// Append parses token and adds it to the end of the session's sequence.
func (store *Store) Append(id, token string) (Snapshot, error) {
	g, err := qbloch.ParseGate(token)
	if err != nil {
		return Snapshot{}, err
	}

	return store.mutate(id, func(s *Session) error {
		if _, err := store.engine.ApplySequence(append(s.sequence.Gates(), g)); err != nil {
			return err
		}
		return s.sequence.Append(g)
	})
}

// Insert parses token and places it at index in the session's sequence.
func (store *Store) Insert(id string, index int, token string) (Snapshot, error) {
	g, err := qbloch.ParseGate(token)
	if err != nil {
		return Snapshot{}, err
	}

	return store.mutate(id, func(s *Session) error {
		gates := s.sequence.Gates()
		if index < 0 || index > len(gates) {
			return fmt.Errorf("%w: insert at %d, length %d", qbloch.ErrIndexOutOfRange, index, len(gates))
		}
		candidate := append(append(append([]qbloch.Gate{}, gates[:index]...), g), gates[index:]...)
		if _, err := store.engine.ApplySequence(candidate); err != nil {
			return err
		}
		return s.sequence.Insert(index, g)
	})
}

/*
RemoveAt deletes the gate at a zero-based index. When version is non-nil the
removal only happens if the session is still at that version, which catches
indices computed from a rendering that has since gone stale.
*/
func (store *Store) RemoveAt(id string, index int, version *uint64) (Snapshot, error) {
	return store.mutate(id, func(s *Session) error {
		var err error
		if version != nil {
			_, err = s.sequence.RemoveAtVersion(index, *version)
		} else {
			_, err = s.sequence.RemoveAt(index)
		}
		if errors.Is(err, qbloch.ErrVersionMismatch) {
			return fmt.Errorf("%w: %w", ErrVersionConflict, err)
		}
		return err
	})
}

// Clear empties the session's sequence.
func (store *Store) Clear(id string) (Snapshot, error) {
	return store.mutate(id, func(s *Session) error {
		s.sequence.Clear()
		return nil
	})
}

// History returns the session's sequence ledger after version since.
func (store *Store) History(id string, since uint64) ([]qbloch.Change, error) {
	s, err := store.Get(id)
	if err != nil {
		return nil, err
	}
	return s.sequence.History(since), nil
}

// Measure samples the session's current state without changing it.
func (store *Store) Measure(id string, trials int, opts ...qbloch.MeasureOption) (qbloch.Counts, error) {
	s, err := store.Get(id)
	if err != nil {
		return qbloch.Counts{}, err
	}

	s.mu.Lock()
	state := s.state
	s.mu.Unlock()

	return store.engine.Measure(state, trials, opts...)
}

/*
Subscribe registers a feed of snapshots for a session. The current snapshot is
delivered first. The returned cancel func unregisters the feed; the channel is
also closed when the session is deleted or evicted. Slow subscribers miss
intermediate snapshots rather than blocking mutations.
*/
func (store *Store) Subscribe(id string) (<-chan Snapshot, func(), error) {
	s, err := store.Get(id)
	if err != nil {
		return nil, nil, err
	}

	ch := make(chan Snapshot, 16)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		close(ch)
		return ch, func() {}, nil
	}
	s.subscribers[ch] = struct{}{}
	ch <- s.last

	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
	}
	return ch, cancel, nil
}

func (store *Store) mutate(id string, fn func(*Session) error) (Snapshot, error) {
	s, err := store.Get(id)
	if err != nil {
		return Snapshot{}, err
	}

	snap, err := s.apply(store, fn)
	if err != nil {
		return Snapshot{}, err
	}

	// Re-adding refreshes the expiry. It runs without s.mu held because the
	// LRU calls onEvict, which takes the evicted session's lock.
	if !s.isClosed() {
		store.sessions.Add(s.ID, s)
	}
	return snap, nil
}

func (s *Session) apply(store *Store, fn func(*Session) error) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return Snapshot{}, fmt.Errorf("%w: %s", ErrSessionNotFound, s.ID)
	}
	if err := fn(s); err != nil {
		return Snapshot{}, err
	}

	gates, version := s.sequence.Snapshot()
	state, err := store.engine.ApplySequence(gates)
	if err != nil {
		return Snapshot{}, err
	}

	s.state = state
	s.last = store.snapshot(s, gates, version, state)
	s.publish(s.last)
	return s.last, nil
}

func (store *Store) snapshot(s *Session, gates []qbloch.Gate, version uint64, state qbloch.Qubit) Snapshot {
	tokens := make([]string, len(gates))
	labels := make([]string, len(gates))
	for i, g := range gates {
		tokens[i] = g.String()
		labels[i] = g.Label(store.engine.DefaultAngle())
	}

	p0, p1 := state.Probabilities()
	return Snapshot{
		ID:            s.ID,
		Version:       version,
		Gates:         tokens,
		Labels:        labels,
		Amplitudes:    qbloch.FormatAmplitudes(state),
		Probabilities: []float64{p0, p1},
		Bloch:         store.engine.ToBloch(state),
		Dirac:         qbloch.Dirac(state),
		UpdatedAt:     time.Now(),
	}
}

// publish must be called with s.mu held.
func (s *Session) publish(snap Snapshot) {
	for ch := range s.subscribers {
		select {
		case ch <- snap:
		default:
			errnie.Debug("session %s subscriber full, dropping version %d", s.ID, snap.Version)
		}
	}
}

func (s *Session) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Session) close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	for ch := range s.subscribers {
		close(ch)
	}
	s.subscribers = make(map[chan Snapshot]struct{})
}
