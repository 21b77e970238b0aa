package qbloch

import (
	"fmt"
	"sync"
	"time"
)

// ChangeOp names the mutation recorded in a Change.
type ChangeOp string

const (
	OpAppend ChangeOp = "append"
	OpInsert ChangeOp = "insert"
	OpRemove ChangeOp = "remove"
	OpClear  ChangeOp = "clear"
)

/*
Change is an immutable record of one mutation of a Sequence. Version is the
sequence version after the change was applied, so replaying the ledger from
version 0 reproduces every intermediate sequence in order. Gate is nil for
OpClear, which affects no single gate.
*/
type Change struct {
	Version   uint64    `json:"version"`
	Op        ChangeOp  `json:"op"`
	Index     int       `json:"index"`
	Gate      *Gate     `json:"gate,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

/*
Sequence is the caller-owned, ordered list of gates. It never touches the
engine: after mutating it, the caller re-derives state explicitly by passing
Gates() to Engine.ApplySequence.

Version increases by one on every successful mutation and never on a failed
one, which lets a caller detect that an index it computed from an older
rendering no longer refers to the same entry.
*/
type Sequence struct {
	mu      sync.RWMutex
	gates   []Gate
	version uint64
	ledger  []Change
}

// NewSequence returns an empty sequence at version 0.
func NewSequence() *Sequence {
	return &Sequence{}
}

// Append adds g to the end of the sequence.
func (s *Sequence) Append(g Gate) error {
	if err := g.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.gates = append(s.gates, g)
	s.record(OpAppend, len(s.gates)-1, &g)
	return nil
}

// Insert places g at index, shifting later gates right. index may equal Len.
func (s *Sequence) Insert(index int, g Gate) error {
	if err := g.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index > len(s.gates) {
		return fmt.Errorf("%w: insert at %d, length %d", ErrIndexOutOfRange, index, len(s.gates))
	}

	s.gates = append(s.gates, Gate{})
	copy(s.gates[index+1:], s.gates[index:])
	s.gates[index] = g
	s.record(OpInsert, index, &g)
	return nil
}

// RemoveAt deletes the gate at index and returns it.
func (s *Sequence) RemoveAt(index int) (Gate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.removeLocked(index)
}

/*
RemoveAtVersion deletes the gate at index only if the sequence is still at
version. It returns ErrVersionMismatch otherwise, leaving the sequence as is.
*/
func (s *Sequence) RemoveAtVersion(index int, version uint64) (Gate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.version != version {
		return Gate{}, fmt.Errorf("%w: have %d, want %d", ErrVersionMismatch, s.version, version)
	}
	return s.removeLocked(index)
}

func (s *Sequence) removeLocked(index int) (Gate, error) {
	if index < 0 || index >= len(s.gates) {
		return Gate{}, fmt.Errorf("%w: remove at %d, length %d", ErrIndexOutOfRange, index, len(s.gates))
	}

	g := s.gates[index]
	s.gates = append(s.gates[:index], s.gates[index+1:]...)
	s.record(OpRemove, index, &g)
	return g, nil
}

// Clear empties the sequence.
func (s *Sequence) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.gates = nil
	s.record(OpClear, -1, nil)
}

// Gates returns a copy of the current gates.
func (s *Sequence) Gates() []Gate {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Gate, len(s.gates))
	copy(out, s.gates)
	return out
}

func (s *Sequence) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.gates)
}

func (s *Sequence) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Snapshot returns the gates and the version they belong to atomically.
func (s *Sequence) Snapshot() ([]Gate, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Gate, len(s.gates))
	copy(out, s.gates)
	return out, s.version
}

// History returns every change recorded after version since.
func (s *Sequence) History(since uint64) []Change {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if since >= uint64(len(s.ledger)) {
		return []Change{}
	}
	out := make([]Change, len(s.ledger)-int(since))
	copy(out, s.ledger[since:])
	for i := range out {
		if out[i].Gate != nil {
			g := *out[i].Gate
			out[i].Gate = &g
		}
	}
	return out
}

func (s *Sequence) record(op ChangeOp, index int, g *Gate) {
	s.version++
	s.ledger = append(s.ledger, Change{
		Version:   s.version,
		Op:        op,
		Index:     index,
		Gate:      g,
		Timestamp: time.Now(),
	})
}
