package store

import (
	"database/sql"
	"errors"
	"time"

	"lochat/internal/model"
)

// DefaultSessionTitle is used when a session is created without a title.
const DefaultSessionTitle = "New chat"

// CreateSession inserts a new session and returns its generated id.
// An empty title falls back to DefaultSessionTitle.
func (s *Store) CreateSession(title string) (int64, error) {
	if title == "" {
		title = DefaultSessionTitle
	}

	now := time.Now().UTC().Format(time.RFC3339)
	res, err := s.db.Exec("INSERT INTO sessions (title, created_at) VALUES (?, ?)", title, now)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ListSessions returns all sessions, most recent first.
func (s *Store) ListSessions() ([]model.Session, error) {
	rows, err := s.db.Query("SELECT id, title, created_at FROM sessions ORDER BY created_at DESC, id DESC")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var sessions []model.Session
	for rows.Next() {
		var sess model.Session
		var createdStr string
		if err := rows.Scan(&sess.ID, &sess.Title, &createdStr); err != nil {
			return nil, err
		}
		sess.CreatedAt, _ = time.Parse(time.RFC3339, createdStr)
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

// RenameSession updates a session's title. Returns ErrNotFound when the
// session does not exist.
func (s *Store) RenameSession(id int64, title string) error {
	res, err := s.db.Exec("UPDATE sessions SET title = ? WHERE id = ?", title, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// EnsureSession returns the most recent session's id, creating a session
// titled "New chat" first if none exist. Entry points that need a default
// session call this on startup.
func (s *Store) EnsureSession() (int64, error) {
	var id int64
	err := s.db.QueryRow("SELECT id FROM sessions ORDER BY created_at DESC, id DESC LIMIT 1").Scan(&id)
	switch {
	case err == nil:
		return id, nil
	case errors.Is(err, sql.ErrNoRows):
		return s.CreateSession(DefaultSessionTitle)
	default:
		return 0, err
	}
}
