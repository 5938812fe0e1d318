package store

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

// Options tune OpenSQLite.
type Options struct {
	// AuthPath is the database file attached as schema "auth" for identity
	// tokens. Defaults to auth.db next to the world database.
	AuthPath string
}

// SQLite is a Store over a single modernc.org/sqlite connection.
type SQLite struct {
	db    *sql.DB
	conn  *sql.Conn
	stmts map[Stmt]*sql.Stmt

	closeOnce sync.Once
	closeErr  error
}

var _ Store = (*SQLite)(nil)

// OpenSQLite opens (creating if needed) the world database at path, creates
// the schema and prepares every statement. Any failure closes the handle.
func OpenSQLite(path string, opts Options) (*SQLite, error) {
	if path == "" {
		return nil, errors.New("empty db path")
	}
	mem := path == ":memory:"
	if !mem {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, errors.WithMessage(err, "create db dir")
		}
	}
	authPath := opts.AuthPath
	if authPath == "" {
		if mem {
			authPath = ":memory:"
		} else {
			authPath = filepath.Join(filepath.Dir(path), "auth.db")
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	ctx := context.Background()
	conn, err := db.Conn(ctx)
	if err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "acquire connection")
	}
	s := &SQLite{db: db, conn: conn, stmts: make(map[Stmt]*sql.Stmt, numStmts)}

	if err := s.init(ctx, mem, authPath); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLite) init(ctx context.Context, mem bool, authPath string) error {
	if !mem {
		if err := initPragmas(ctx, s.conn); err != nil {
			return errors.WithMessage(err, "pragmas")
		}
	}
	if _, err := s.conn.ExecContext(ctx, `attach database ? as auth;`, authPath); err != nil {
		return errors.Wrapf(err, "attach auth db %s", authPath)
	}
	if err := initSchema(ctx, s.conn); err != nil {
		return errors.WithMessage(err, "schema")
	}
	for id := Stmt(1); id < numStmts; id++ {
		st, err := s.conn.PrepareContext(ctx, statements[id])
		if err != nil {
			return errors.Wrapf(err, "prepare %s", id)
		}
		s.stmts[id] = st
	}
	return nil
}

func initPragmas(ctx context.Context, conn *sql.Conn) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := conn.ExecContext(ctx, p); err != nil {
			return errors.Wrap(err, p)
		}
	}
	return nil
}

func initSchema(ctx context.Context, conn *sql.Conn) error {
	stmts := []string{
		`create table if not exists auth.identity_token (
			username text not null,
			token text not null,
			selected int not null
		);`,
		`create unique index if not exists auth.identity_token_username_idx
			on identity_token (username);`,
		`create table if not exists state (
			x float not null,
			y float not null,
			z float not null,
			rx float not null,
			ry float not null,
			flying int not null
		);`,
		`create table if not exists block (
			p int not null,
			q int not null,
			x int not null,
			y int not null,
			z int not null,
			w int not null
		);`,
		`create table if not exists light (
			p int not null,
			q int not null,
			x int not null,
			y int not null,
			z int not null,
			w int not null
		);`,
		`create table if not exists key (
			p int not null,
			q int not null,
			key int not null
		);`,
		`create table if not exists sign (
			p int not null,
			q int not null,
			x int not null,
			y int not null,
			z int not null,
			face int not null,
			text text not null
		);`,
		`create table if not exists block_damage (
			p int not null,
			q int not null,
			x int not null,
			y int not null,
			z int not null,
			w int not null
		);`,
		`create unique index if not exists block_pqxyz_idx on block (p, q, x, y, z);`,
		`create unique index if not exists light_pqxyz_idx on light (p, q, x, y, z);`,
		`create unique index if not exists key_pq_idx on key (p, q);`,
		`create unique index if not exists sign_xyzface_idx on sign (x, y, z, face);`,
		`create index if not exists sign_pq_idx on sign (p, q);`,
		`create unique index if not exists damage_pqxyz_idx on block_damage (p, q, x, y, z);`,
	}
	for _, st := range stmts {
		if _, err := conn.ExecContext(ctx, st); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLite) stmt(id Stmt) (*sql.Stmt, error) {
	st, ok := s.stmts[id]
	if !ok {
		return nil, errors.Errorf("unknown statement %s", id)
	}
	return st, nil
}

func (s *SQLite) Exec(ctx context.Context, id Stmt, args ...any) (int64, error) {
	st, err := s.stmt(id)
	if err != nil {
		return 0, err
	}
	res, err := st.ExecContext(ctx, args...)
	if err != nil {
		return 0, errors.Wrap(err, id.String())
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, id.String())
	}
	return n, nil
}

func (s *SQLite) Query(ctx context.Context, id Stmt, args ...any) (Rows, error) {
	st, err := s.stmt(id)
	if err != nil {
		return nil, err
	}
	rows, err := st.QueryContext(ctx, args...)
	if err != nil {
		return nil, errors.Wrap(err, id.String())
	}
	return rows, nil
}

func (s *SQLite) Begin(ctx context.Context) error {
	_, err := s.conn.ExecContext(ctx, "begin;")
	return errors.Wrap(err, "begin")
}

// CommitAndBegin closes the open transaction and starts the next one.
func (s *SQLite) CommitAndBegin(ctx context.Context) error {
	if err := s.Commit(ctx); err != nil {
		return err
	}
	return s.Begin(ctx)
}

func (s *SQLite) Commit(ctx context.Context) error {
	_, err := s.conn.ExecContext(ctx, "commit;")
	return errors.Wrap(err, "commit")
}

func (s *SQLite) Close() error {
	s.closeOnce.Do(func() {
		for _, st := range s.stmts {
			_ = st.Close()
		}
		if s.conn != nil {
			_ = s.conn.Close()
		}
		s.closeErr = s.db.Close()
	})
	return s.closeErr
}
