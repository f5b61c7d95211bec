package store

import (
	"database/sql"
	"encoding/json"
	"time"

	"lochat/internal/model"
)

// NextTurnIndex computes the turn index for the next message in a
// session: max(turn_index)+1, or 0 for an empty session. System rows sit
// at the reserved sentinel index below every real turn, so they never
// push the result past the visible conversation. The max is recomputed on
// every append rather than cached.
func (s *Store) NextTurnIndex(sessionID int64) (int, error) {
	var t int
	err := s.db.QueryRow(
		"SELECT COALESCE(MAX(turn_index), -1) + 1 FROM messages WHERE session_id = ?",
		sessionID,
	).Scan(&t)
	return t, err
}

// AppendUser inserts a user message at the next free turn index and
// returns the message id and the index it was stored at. The source tag
// ("cli", "tui", "api") is recorded in the message meta.
func (s *Store) AppendUser(sessionID int64, content, source string) (int64, int, error) {
	t, err := s.NextTurnIndex(sessionID)
	if err != nil {
		return 0, 0, err
	}

	meta, _ := json.Marshal(map[string]string{"source": source})
	now := time.Now().UTC().Format(time.RFC3339)

	res, err := s.db.Exec(`INSERT INTO messages
		(session_id, role, content, turn_index, meta_json, created_at)
		VALUES (?, 'user', ?, ?, ?, ?)`,
		sessionID, content, t, string(meta), now,
	)
	if err != nil {
		return 0, 0, err
	}
	id, err := res.LastInsertId()
	return id, t, err
}

// AppendAssistant inserts an assistant reply linked to the user message
// it answers. The caller supplies the user message's turn index; the
// reply is stored at exactly that index plus one.
func (s *Store) AppendAssistant(sessionID int64, content string, replyTo int64, userTurnIndex int, meta map[string]string) (int64, error) {
	if meta == nil {
		meta = map[string]string{}
	}
	metaJSON, _ := json.Marshal(meta)
	now := time.Now().UTC().Format(time.RFC3339)

	res, err := s.db.Exec(`INSERT INTO messages
		(session_id, role, content, reply_to_message_id, turn_index, meta_json, created_at)
		VALUES (?, 'assistant', ?, ?, ?, ?, ?)`,
		sessionID, content, replyTo, userTurnIndex+1, string(metaJSON), now,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ReadOrdered returns up to limit messages for a session in conversation
// order: turn_index ascending, id ascending as the tie-break. The id
// tie-break makes the order a deterministic total order even when turn
// indices collide. A limit <= 0 returns all messages.
func (s *Store) ReadOrdered(sessionID int64, limit int) ([]model.Message, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.Query(`SELECT
		id, session_id, role, content, reply_to_message_id, turn_index, meta_json, created_at
		FROM messages
		WHERE session_id = ?
		ORDER BY turn_index ASC, id ASC
		LIMIT ?`, sessionID, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var msgs []model.Message
	for rows.Next() {
		var m model.Message
		var replyTo sql.NullInt64
		var metaJSON, createdStr string

		err := rows.Scan(&m.ID, &m.SessionID, &m.Role, &m.Content, &replyTo, &m.TurnIndex, &metaJSON, &createdStr)
		if err != nil {
			return nil, err
		}

		if replyTo.Valid {
			v := replyTo.Int64
			m.ReplyTo = &v
		}
		if metaJSON != "" {
			_ = json.Unmarshal([]byte(metaJSON), &m.Meta)
		}
		m.CreatedAt, _ = time.Parse(time.RFC3339, createdStr)
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// RoleContent is a message projected down to the two fields the
// inference backend consumes.
type RoleContent struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ReadContext returns up to maxMessages (role, content) pairs in the same
// order as ReadOrdered, for building the prompt sent to the backend.
func (s *Store) ReadContext(sessionID int64, maxMessages int) ([]RoleContent, error) {
	rows, err := s.db.Query(`SELECT role, content
		FROM messages
		WHERE session_id = ?
		ORDER BY turn_index ASC, id ASC
		LIMIT ?`, sessionID, maxMessages)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []RoleContent
	for rows.Next() {
		var rc RoleContent
		if err := rows.Scan(&rc.Role, &rc.Content); err != nil {
			return nil, err
		}
		out = append(out, rc)
	}
	return out, rows.Err()
}
