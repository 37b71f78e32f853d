package main

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var (
	ErrUserExists = errors.New("user already exists")
	ErrNotFound   = errors.New("not found")
)

// DB interface for database operations
type DB interface {
	Init() error
	// User operations
	CreateUser(email, passwordHash, salt string) (*User, error)
	GetUserByEmail(email string) (*User, error)
	// Match operations
	CreateMatch(m *Match) (*Match, error)
	ListMatches(userID int64, f MatchFilter) ([]*Match, error)
	DeleteMatch(userID, id int64) error
}

// Memory DB
type MemDB struct {
	mu       sync.RWMutex
	users    map[string]*User
	matches  map[int64]*Match
	userSeq  int64
	matchSeq int64
}

func NewMemoryDB() *MemDB {
	return &MemDB{users: map[string]*User{}, matches: map[int64]*Match{}, userSeq: 1, matchSeq: 1}
}

func (m *MemDB) Init() error { return nil }

func (m *MemDB) CreateUser(email, passwordHash, salt string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[email]; ok {
		return nil, ErrUserExists
	}
	u := &User{ID: m.userSeq, Email: email, PasswordHash: passwordHash, Salt: salt, CreatedAt: time.Now().UTC()}
	m.userSeq++
	m.users[email] = u
	cp := *u
	return &cp, nil
}

func (m *MemDB) GetUserByEmail(email string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if u, ok := m.users[email]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (m *MemDB) CreateMatch(in *Match) (*Match, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *in
	cp.ID = m.matchSeq
	cp.CreatedAt = time.Now().UTC()
	m.matchSeq++
	m.matches[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (m *MemDB) ListMatches(userID int64, f MatchFilter) ([]*Match, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*Match
	for _, mt := range m.matches {
		if mt.UserID == userID && f.includes(mt.Timestamp) {
			cp := *mt
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].ID > out[j].ID
		}
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (m *MemDB) DeleteMatch(userID, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	mt, ok := m.matches[id]
	if !ok || mt.UserID != userID {
		return ErrNotFound
	}
	delete(m.matches, id)
	return nil
}

// SQLite DB
type SQLiteDB struct {
	db   *sql.DB
	path string
}

// Fixed width so that lexical order in TEXT columns is chronological order.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z"

func NewSQLiteDB(path string) (*SQLiteDB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
	}
	d, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// one writer; also keeps ":memory:" on a single connection
	d.SetMaxOpenConns(1)
	s := &SQLiteDB{db: d, path: path}
	if err := s.Init(); err != nil {
		d.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteDB) Init() error {
	queries := []string{
		`PRAGMA foreign_keys = ON;`,
		`CREATE TABLE IF NOT EXISTS users (id INTEGER PRIMARY KEY AUTOINCREMENT, email TEXT NOT NULL UNIQUE, password_hash TEXT NOT NULL, salt TEXT NOT NULL, created_at TEXT NOT NULL);`,
		`CREATE TABLE IF NOT EXISTS matches (id INTEGER PRIMARY KEY AUTOINCREMENT, user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE, timestamp TEXT NOT NULL, opponent_name TEXT NOT NULL, result TEXT NOT NULL CHECK (result IN ('win','loss','inconclusive')), notes TEXT, created_at TEXT NOT NULL);`,
		`CREATE INDEX IF NOT EXISTS idx_matches_user_timestamp ON matches(user_id, timestamp);`,
	}
	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteDB) CreateUser(email, passwordHash, salt string) (*User, error) {
	now := time.Now().UTC()
	res, err := s.db.Exec(`INSERT INTO users(email,password_hash,salt,created_at) VALUES(?,?,?,?)`, email, passwordHash, salt, now.Format(sqliteTimeLayout))
	if err != nil {
		var se *sqlite.Error
		if errors.As(err, &se) && (se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE || se.Code()&0xff == sqlite3.SQLITE_CONSTRAINT) {
			return nil, ErrUserExists
		}
		return nil, err
	}
	id, _ := res.LastInsertId()
	return &User{ID: id, Email: email, PasswordHash: passwordHash, Salt: salt, CreatedAt: now}, nil
}

func (s *SQLiteDB) GetUserByEmail(email string) (*User, error) {
	row := s.db.QueryRow(`SELECT id,email,password_hash,salt,created_at FROM users WHERE email = ?`, email)
	var u User
	var created string
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Salt, &created); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	u.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
	return &u, nil
}

func (s *SQLiteDB) CreateMatch(m *Match) (*Match, error) {
	now := time.Now().UTC()
	var notes sql.NullString
	if m.Notes != "" {
		notes = sql.NullString{String: m.Notes, Valid: true}
	}
	res, err := s.db.Exec(`INSERT INTO matches(user_id,timestamp,opponent_name,result,notes,created_at) VALUES(?,?,?,?,?,?)`,
		m.UserID, m.Timestamp.UTC().Format(sqliteTimeLayout), m.OpponentName, string(m.Result), notes, now.Format(sqliteTimeLayout))
	if err != nil {
		return nil, err
	}
	out := *m
	out.ID, _ = res.LastInsertId()
	out.CreatedAt = now
	return &out, nil
}

func (s *SQLiteDB) ListMatches(userID int64, f MatchFilter) ([]*Match, error) {
	q := `SELECT id,user_id,timestamp,opponent_name,result,notes,created_at FROM matches WHERE user_id = ?`
	args := []any{userID}
	if !f.Start.IsZero() {
		q += ` AND timestamp >= ?`
		args = append(args, f.Start.UTC().Format(sqliteTimeLayout))
	}
	if !f.End.IsZero() {
		q += ` AND timestamp <= ?`
		args = append(args, f.End.UTC().Format(sqliteTimeLayout))
	}
	q += ` ORDER BY timestamp DESC, id DESC`
	if f.Limit > 0 {
		q += ` LIMIT ?`
		args = append(args, f.Limit)
	}

	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*Match
	for rows.Next() {
		var m Match
		var ts, created, result string
		var notes sql.NullString
		if err := rows.Scan(&m.ID, &m.UserID, &ts, &m.OpponentName, &result, &notes, &created); err != nil {
			return nil, err
		}
		if m.Timestamp, err = time.Parse(time.RFC3339Nano, ts); err != nil {
			return nil, fmt.Errorf("match %d: bad timestamp %q: %w", m.ID, ts, err)
		}
		m.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		m.Result = MatchResult(result)
		m.Notes = notes.String
		out = append(out, &m)
	}
	return out, rows.Err()
}

func (s *SQLiteDB) DeleteMatch(userID, id int64) error {
	res, err := s.db.Exec(`DELETE FROM matches WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// lifecycle helpers
func (m *MemDB) close() error { return nil }
func (m *MemDB) ping() bool   { return true }

func (s *SQLiteDB) close() error { return s.db.Close() }
func (s *SQLiteDB) ping() bool   { return s.db.Ping() == nil }
