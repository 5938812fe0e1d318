// Package store is the backing-store adapter consumed by worlddb: named
// statements executed against one shared handle, plus transaction control.
package store

import "context"

// Stmt names a prepared statement.
type Stmt int

const (
	InsertBlock Stmt = iota + 1
	InsertLight
	InsertBlockDamage
	TrimBlockDamage
	SetKey
	GetKey
	InsertSign
	DeleteSign
	DeleteSigns
	DeleteAllSigns
	LoadBlocks
	LoadLights
	LoadBlockDamage
	LoadSigns
	SaveStateClear
	SaveState
	LoadState
	AuthSet
	AuthSelectNone
	AuthSelect
	AuthGet
	AuthGetSelected
	DumpBlocks
	DumpLights
	DumpBlockDamage
	DumpKeys
	DumpSigns
	CountRows

	numStmts
)

// Rows is a lazy, finite row sequence. It cannot be restarted; re-issue the
// query instead. *sql.Rows satisfies it.
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close() error
}

// Store executes persistence operations on behalf of worlddb. Implementations
// must be safe for concurrent use: the worker's writes and callers' immediate
// operations share one Store.
type Store interface {
	Exec(ctx context.Context, id Stmt, args ...any) (int64, error)
	Query(ctx context.Context, id Stmt, args ...any) (Rows, error)

	Begin(ctx context.Context) error
	CommitAndBegin(ctx context.Context) error
	Commit(ctx context.Context) error

	Close() error
}
