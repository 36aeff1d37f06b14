// Package indexdb maintains a sqlite read-model of registry state: token
// positions, owners, and an audit trail of applied commands. It is a
// secondary index; the in-memory registry plus the JSONL command log
// remain the source of truth.
package indexdb

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	_ "modernc.org/sqlite"
)

// TokenRow is the indexed view of one token.
type TokenRow struct {
	TokenID   string
	Owner     string
	X, Y, Z   int64
	InTransit bool
	PrevX     sql.NullInt64
	PrevY     sql.NullInt64
	PrevZ     sql.NullInt64
	Arrival   int64
}

// CommandRow is one applied (or rejected) command.
type CommandRow struct {
	Time     int64
	Session  string
	Sender   string
	MsgType  string
	Accepted bool
	Code     string
	RawJSON  string
}

type SQLiteIndex struct {
	db  *sql.DB
	log *log.Logger

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool
}

type reqKind int

const (
	reqToken reqKind = iota + 1
	reqCommand
	reqFlush
)

type req struct {
	kind reqKind

	token   TokenRow
	command CommandRow
	done    chan struct{}
}

func OpenSQLite(path string, logger *log.Logger) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if logger == nil {
		return nil, fmt.Errorf("nil logger")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteIndex{
		db:  db,
		log: logger,
		// Generous buffer: command bursts should not stall the apply path.
		ch: make(chan req, 65536),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	// WAL is much faster for append-style workloads; NORMAL is a fine
	// durability tradeoff for a secondary index.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS tokens (
			token_id TEXT PRIMARY KEY,
			owner TEXT NOT NULL,
			x INTEGER NOT NULL,
			y INTEGER NOT NULL,
			z INTEGER NOT NULL,
			in_transit INTEGER NOT NULL,
			prev_x INTEGER,
			prev_y INTEGER,
			prev_z INTEGER,
			arrival INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_tokens_owner ON tokens(owner);`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_tokens_pos ON tokens(x, y, z);`,
		`CREATE TABLE IF NOT EXISTS commands (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			time INTEGER NOT NULL,
			session TEXT NOT NULL,
			sender TEXT NOT NULL,
			msg_type TEXT NOT NULL,
			accepted INTEGER NOT NULL,
			code TEXT,
			raw_json TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_commands_sender_time ON commands(sender, time);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

// UpsertToken records the current state of one token. Best-effort: drops
// if the indexer falls behind.
func (s *SQLiteIndex) UpsertToken(row TokenRow) {
	if s == nil || s.closed.Load() {
		return
	}
	select {
	case s.ch <- req{kind: reqToken, token: row}:
	default:
	}
}

// RecordCommand appends one command outcome to the audit trail.
func (s *SQLiteIndex) RecordCommand(row CommandRow) {
	if s == nil || s.closed.Load() {
		return
	}
	select {
	case s.ch <- req{kind: reqCommand, command: row}:
	default:
	}
}

// Flush blocks until every previously queued write has been applied.
func (s *SQLiteIndex) Flush() {
	if s == nil || s.closed.Load() {
		return
	}
	done := make(chan struct{})
	s.ch <- req{kind: reqFlush, done: done}
	<-done
}

func (s *SQLiteIndex) loop() {
	for r := range s.ch {
		switch r.kind {
		case reqToken:
			s.applyToken(r.token)
		case reqCommand:
			s.applyCommand(r.command)
		case reqFlush:
			close(r.done)
		}
	}
}

func (s *SQLiteIndex) applyToken(row TokenRow) {
	_, err := s.db.Exec(`INSERT INTO tokens
		(token_id, owner, x, y, z, in_transit, prev_x, prev_y, prev_z, arrival)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(token_id) DO UPDATE SET
			owner=excluded.owner,
			x=excluded.x, y=excluded.y, z=excluded.z,
			in_transit=excluded.in_transit,
			prev_x=excluded.prev_x, prev_y=excluded.prev_y, prev_z=excluded.prev_z,
			arrival=excluded.arrival`,
		row.TokenID, row.Owner, row.X, row.Y, row.Z, row.InTransit,
		row.PrevX, row.PrevY, row.PrevZ, row.Arrival)
	if err != nil {
		s.log.Printf("indexdb: tokens upsert %s: %v", row.TokenID, err)
	}
}

func (s *SQLiteIndex) applyCommand(row CommandRow) {
	_, err := s.db.Exec(`INSERT INTO commands
		(time, session, sender, msg_type, accepted, code, raw_json)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		row.Time, row.Session, row.Sender, row.MsgType, row.Accepted, row.Code, row.RawJSON)
	if err != nil {
		s.log.Printf("indexdb: commands insert: %v", err)
	}
}

// TokenByID reads one indexed token row.
func (s *SQLiteIndex) TokenByID(tokenID string) (TokenRow, error) {
	var row TokenRow
	err := s.db.QueryRow(`SELECT token_id, owner, x, y, z, in_transit,
		prev_x, prev_y, prev_z, arrival FROM tokens WHERE token_id = ?`, tokenID).
		Scan(&row.TokenID, &row.Owner, &row.X, &row.Y, &row.Z, &row.InTransit,
			&row.PrevX, &row.PrevY, &row.PrevZ, &row.Arrival)
	return row, err
}

// TokensByOwner reads the indexed rows for one owner, id-ordered.
func (s *SQLiteIndex) TokensByOwner(owner string) ([]TokenRow, error) {
	rows, err := s.db.Query(`SELECT token_id, owner, x, y, z, in_transit,
		prev_x, prev_y, prev_z, arrival FROM tokens WHERE owner = ? ORDER BY token_id`, owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []TokenRow
	for rows.Next() {
		var row TokenRow
		if err := rows.Scan(&row.TokenID, &row.Owner, &row.X, &row.Y, &row.Z, &row.InTransit,
			&row.PrevX, &row.PrevY, &row.PrevZ, &row.Arrival); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// CommandCount reports how many command outcomes are recorded.
func (s *SQLiteIndex) CommandCount() (int64, error) {
	var n int64
	err := s.db.QueryRow(`SELECT COUNT(*) FROM commands`).Scan(&n)
	return n, err
}
