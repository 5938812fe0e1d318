package worlddb

import (
	"context"
	"errors"
	"sync"

	"voxelcraft.ai/worldstore/internal/persistence/store"
	"voxelcraft.ai/worldstore/internal/persistence/writeq"
)

type call struct {
	id   store.Stmt
	args []any
}

// stubStore records every call. Exec blocks on gate while it is non-nil;
// failOn and failCommit inject errors.
type stubStore struct {
	mu         sync.Mutex
	calls      []call
	begins     int
	commits    int
	closes     int
	failOn     map[store.Stmt]bool
	failCommit bool
	gate       chan struct{}
}

func (s *stubStore) Exec(_ context.Context, id store.Stmt, args ...any) (int64, error) {
	s.mu.Lock()
	gate := s.gate
	s.mu.Unlock()
	if gate != nil {
		<-gate
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, call{id: id, args: args})
	if s.failOn[id] {
		return 0, errors.New("stub failure")
	}
	return 1, nil
}

func (s *stubStore) Query(_ context.Context, id store.Stmt, args ...any) (store.Rows, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, call{id: id, args: args})
	return emptyRows{}, nil
}

func (s *stubStore) Begin(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.begins++
	return nil
}

func (s *stubStore) CommitAndBegin(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failCommit {
		return errors.New("stub commit failure")
	}
	s.commits++
	s.begins++
	return nil
}

func (s *stubStore) Commit(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commits++
	return nil
}

func (s *stubStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closes++
	return nil
}

func (s *stubStore) snapshot() []call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]call(nil), s.calls...)
}

func (s *stubStore) total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls) + s.begins + s.commits + s.closes
}

type emptyRows struct{}

func (emptyRows) Next() bool        { return false }
func (emptyRows) Scan(...any) error { return nil }
func (emptyRows) Err() error        { return nil }
func (emptyRows) Close() error      { return nil }

type memJournal struct {
	mu   sync.Mutex
	cmds []writeq.Command
}

func (j *memJournal) Append(c writeq.Command) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.cmds = append(j.cmds, c)
	return nil
}
