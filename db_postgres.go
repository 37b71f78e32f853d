package main

import (
	"database/sql"
	"errors"

	"github.com/lib/pq"
)

const pgUniqueViolation = "23505"

type PostgresDB struct {
	db  *sql.DB
	dsn string
}

func NewPostgresDB(dsn string) (*PostgresDB, error) {
	d, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	p := &PostgresDB{db: d, dsn: dsn}
	if err := p.Init(); err != nil {
		d.Close()
		return nil, err
	}
	return p, nil
}

func (p *PostgresDB) Init() error {
	// rely on migrations to create tables; just verify connectivity
	return p.db.Ping()
}

func (p *PostgresDB) CreateUser(email, passwordHash, salt string) (*User, error) {
	u := &User{Email: email, PasswordHash: passwordHash, Salt: salt}
	err := p.db.QueryRow(`INSERT INTO users(email,password_hash,salt,created_at) VALUES($1,$2,$3,now()) RETURNING id,created_at`, email, passwordHash, salt).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pgUniqueViolation {
			return nil, ErrUserExists
		}
		return nil, err
	}
	return u, nil
}

func (p *PostgresDB) GetUserByEmail(email string) (*User, error) {
	row := p.db.QueryRow(`SELECT id,email,password_hash,salt,created_at FROM users WHERE email = $1`, email)
	var u User
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Salt, &u.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (p *PostgresDB) CreateMatch(m *Match) (*Match, error) {
	out := *m
	var notes sql.NullString
	if m.Notes != "" {
		notes = sql.NullString{String: m.Notes, Valid: true}
	}
	err := p.db.QueryRow(`INSERT INTO matches(user_id,timestamp,opponent_name,result,notes,created_at) VALUES($1,$2,$3,$4,$5,now()) RETURNING id,created_at`,
		m.UserID, m.Timestamp.UTC(), m.OpponentName, string(m.Result), notes).Scan(&out.ID, &out.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (p *PostgresDB) ListMatches(userID int64, f MatchFilter) ([]*Match, error) {
	var start, end sql.NullTime
	if !f.Start.IsZero() {
		start = sql.NullTime{Time: f.Start.UTC(), Valid: true}
	}
	if !f.End.IsZero() {
		end = sql.NullTime{Time: f.End.UTC(), Valid: true}
	}
	var limit sql.NullInt64
	if f.Limit > 0 {
		limit = sql.NullInt64{Int64: int64(f.Limit), Valid: true}
	}

	// NULL bounds and a NULL LIMIT mean "no bound".
	rows, err := p.db.Query(`SELECT id,user_id,timestamp,opponent_name,result,notes,created_at FROM matches
		WHERE user_id = $1
		  AND ($2::timestamptz IS NULL OR timestamp >= $2)
		  AND ($3::timestamptz IS NULL OR timestamp <= $3)
		ORDER BY timestamp DESC, id DESC
		LIMIT $4`, userID, start, end, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*Match
	for rows.Next() {
		var m Match
		var result string
		var notes sql.NullString
		if err := rows.Scan(&m.ID, &m.UserID, &m.Timestamp, &m.OpponentName, &result, &notes, &m.CreatedAt); err != nil {
			return nil, err
		}
		m.Timestamp = m.Timestamp.UTC()
		m.Result = MatchResult(result)
		m.Notes = notes.String
		out = append(out, &m)
	}
	return out, rows.Err()
}

func (p *PostgresDB) DeleteMatch(userID, id int64) error {
	res, err := p.db.Exec(`DELETE FROM matches WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *PostgresDB) close() error { return p.db.Close() }
func (p *PostgresDB) ping() bool   { return p.db.Ping() == nil }
