package record

import "sync"

// State is a Sink that keeps the latest fetch outcome.
type State struct {
	mu      sync.RWMutex
	loading bool
	err     error
	data    []Record
}

type Snapshot struct {
	Loading bool
	Err     error
	Data    []Record
}

func (s *State) SetLoading(loading bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.loading = loading
}

func (s *State) SetError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.err = err
}

func (s *State) SetData(records []Record) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data = records
}

func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Snapshot{Loading: s.loading, Err: s.err, Data: s.data}
}
