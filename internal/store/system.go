package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"lochat/internal/model"
)

// SetSystemPrompt appends a session-scoped instruction as a system
// message at the reserved sentinel turn index. Each call adds a new row;
// LatestSystemPrompt picks the most recent one, so older instructions
// remain as history but stop being active.
func (s *Store) SetSystemPrompt(sessionID int64, text string) error {
	meta, _ := json.Marshal(map[string]string{"kind": "session_instruction"})
	now := time.Now().UTC().Format(time.RFC3339)

	_, err := s.db.Exec(`INSERT INTO messages
		(session_id, role, content, turn_index, meta_json, created_at)
		VALUES (?, 'system', ?, ?, ?, ?)`,
		sessionID, text, model.SystemTurnIndex, string(meta), now,
	)
	return err
}

// LatestSystemPrompt returns the active system prompt for a session,
// selected by insertion recency (created_at, then id as tie-break). The
// second return is false when the session has no system prompt.
func (s *Store) LatestSystemPrompt(sessionID int64) (string, bool, error) {
	var text string
	err := s.db.QueryRow(`SELECT content FROM messages
		WHERE session_id = ? AND role = 'system'
		ORDER BY created_at DESC, id DESC
		LIMIT 1`, sessionID).Scan(&text)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return text, true, nil
}

// ClearSystemPrompts deletes every system message for a session,
// leaving the conversation rows untouched.
func (s *Store) ClearSystemPrompts(sessionID int64) error {
	_, err := s.db.Exec("DELETE FROM messages WHERE session_id = ? AND role = 'system'", sessionID)
	return err
}
