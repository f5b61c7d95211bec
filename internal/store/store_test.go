package store

import (
	"errors"
	"path/filepath"
	"testing"

	"lochat/internal/model"
)

// openTestStore creates a store backed by a temp database file.
func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "chat.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chat.db")

	s1, err := Open(path)
	if err != nil {
		t.Fatalf("first Open: %v", err)
	}
	if _, err := s1.CreateSession("keep me"); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	_ = s1.Close()

	// Reopening must reapply the schema without clobbering data.
	s2, err := Open(path)
	if err != nil {
		t.Fatalf("second Open: %v", err)
	}
	defer func() { _ = s2.Close() }()

	sessions, err := s2.ListSessions()
	if err != nil {
		t.Fatalf("ListSessions: %v", err)
	}
	if len(sessions) != 1 || sessions[0].Title != "keep me" {
		t.Fatalf("sessions after reopen = %+v, want one titled 'keep me'", sessions)
	}
}

func TestCreateSessionDefaultTitle(t *testing.T) {
	s := openTestStore(t)

	id, err := s.CreateSession("")
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if id == 0 {
		t.Fatal("CreateSession returned id 0")
	}

	sessions, err := s.ListSessions()
	if err != nil {
		t.Fatalf("ListSessions: %v", err)
	}
	if sessions[0].Title != DefaultSessionTitle {
		t.Errorf("Title = %q, want %q", sessions[0].Title, DefaultSessionTitle)
	}
}

func TestListSessionsMostRecentFirst(t *testing.T) {
	s := openTestStore(t)

	first, _ := s.CreateSession("first")
	second, _ := s.CreateSession("second")

	sessions, err := s.ListSessions()
	if err != nil {
		t.Fatalf("ListSessions: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("len(sessions) = %d, want 2", len(sessions))
	}
	// Equal created_at timestamps fall back to id DESC.
	if sessions[0].ID != second || sessions[1].ID != first {
		t.Errorf("order = [%d, %d], want [%d, %d]", sessions[0].ID, sessions[1].ID, second, first)
	}
}

func TestRenameSession(t *testing.T) {
	s := openTestStore(t)

	id, _ := s.CreateSession("before")
	if err := s.RenameSession(id, "after"); err != nil {
		t.Fatalf("RenameSession: %v", err)
	}

	sessions, _ := s.ListSessions()
	if sessions[0].Title != "after" {
		t.Errorf("Title = %q, want %q", sessions[0].Title, "after")
	}
}

func TestRenameSessionNotFound(t *testing.T) {
	s := openTestStore(t)

	err := s.RenameSession(9999, "ghost")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("RenameSession(missing) = %v, want ErrNotFound", err)
	}
}

func TestEnsureSession(t *testing.T) {
	s := openTestStore(t)

	id, err := s.EnsureSession()
	if err != nil {
		t.Fatalf("EnsureSession: %v", err)
	}

	again, err := s.EnsureSession()
	if err != nil {
		t.Fatalf("EnsureSession (second): %v", err)
	}
	if again != id {
		t.Errorf("second EnsureSession = %d, want %d", again, id)
	}

	sessions, _ := s.ListSessions()
	if len(sessions) != 1 {
		t.Fatalf("len(sessions) = %d, want 1", len(sessions))
	}
	if sessions[0].Title != DefaultSessionTitle {
		t.Errorf("Title = %q, want %q", sessions[0].Title, DefaultSessionTitle)
	}
}

func TestNextTurnIndexProgression(t *testing.T) {
	s := openTestStore(t)
	sid, _ := s.CreateSession("t")

	t0, err := s.NextTurnIndex(sid)
	if err != nil {
		t.Fatalf("NextTurnIndex: %v", err)
	}
	if t0 != 0 {
		t.Fatalf("NextTurnIndex(empty) = %d, want 0", t0)
	}

	userID, ut, err := s.AppendUser(sid, "hello", "cli")
	if err != nil {
		t.Fatalf("AppendUser: %v", err)
	}
	if ut != 0 {
		t.Fatalf("user turn index = %d, want 0", ut)
	}

	next, _ := s.NextTurnIndex(sid)
	if next != 1 {
		t.Fatalf("NextTurnIndex after user = %d, want 1", next)
	}

	if _, err := s.AppendAssistant(sid, "hi", userID, ut, nil); err != nil {
		t.Fatalf("AppendAssistant: %v", err)
	}

	next, _ = s.NextTurnIndex(sid)
	if next != 2 {
		t.Fatalf("NextTurnIndex after reply = %d, want 2", next)
	}
}

func TestNextTurnIndexIgnoresSystemSentinel(t *testing.T) {
	s := openTestStore(t)
	sid, _ := s.CreateSession("t")

	if err := s.SetSystemPrompt(sid, "be terse"); err != nil {
		t.Fatalf("SetSystemPrompt: %v", err)
	}

	// A session holding only system rows still starts real turns at 0.
	next, err := s.NextTurnIndex(sid)
	if err != nil {
		t.Fatalf("NextTurnIndex: %v", err)
	}
	if next != 0 {
		t.Errorf("NextTurnIndex = %d, want 0", next)
	}
}

func TestReadOrderedTotalOrder(t *testing.T) {
	s := openTestStore(t)
	sid, _ := s.CreateSession("t")

	uid, ut, _ := s.AppendUser(sid, "q1", "cli")
	_, _ = s.AppendAssistant(sid, "a1", uid, ut, nil)
	uid2, ut2, _ := s.AppendUser(sid, "q2", "cli")
	_, _ = s.AppendAssistant(sid, "a2", uid2, ut2, nil)
	_ = s.SetSystemPrompt(sid, "persona")

	msgs, err := s.ReadOrdered(sid, 100)
	if err != nil {
		t.Fatalf("ReadOrdered: %v", err)
	}
	if len(msgs) != 5 {
		t.Fatalf("len(msgs) = %d, want 5", len(msgs))
	}

	// System prompt sorts first despite being inserted last.
	if msgs[0].Role != model.RoleSystem {
		t.Errorf("msgs[0].Role = %s, want system", msgs[0].Role)
	}

	for i := 1; i < len(msgs); i++ {
		prev, curr := msgs[i-1], msgs[i]
		if curr.TurnIndex < prev.TurnIndex {
			t.Errorf("turn_index regressed at %d: %d after %d", i, curr.TurnIndex, prev.TurnIndex)
		}
		if curr.TurnIndex == prev.TurnIndex && curr.ID < prev.ID {
			t.Errorf("id regressed at %d within turn %d", i, curr.TurnIndex)
		}
	}
}

func TestAppendAssistantLinksReply(t *testing.T) {
	s := openTestStore(t)
	sid, _ := s.CreateSession("t")

	uid, ut, _ := s.AppendUser(sid, "hello", "tui")
	aid, err := s.AppendAssistant(sid, "hi", uid, ut, map[string]string{"model": "llama3:8b"})
	if err != nil {
		t.Fatalf("AppendAssistant: %v", err)
	}

	msgs, _ := s.ReadOrdered(sid, 10)
	if len(msgs) != 2 {
		t.Fatalf("len(msgs) = %d, want 2", len(msgs))
	}

	u, a := msgs[0], msgs[1]
	if u.ID != uid || u.Role != model.RoleUser || u.TurnIndex != 0 {
		t.Errorf("user row = %+v, want id=%d role=user turn=0", u, uid)
	}
	if u.Meta["source"] != "tui" {
		t.Errorf("user meta source = %q, want tui", u.Meta["source"])
	}
	if a.ID != aid || a.Role != model.RoleAssistant || a.TurnIndex != 1 {
		t.Errorf("assistant row = %+v, want id=%d role=assistant turn=1", a, aid)
	}
	if a.ReplyTo == nil || *a.ReplyTo != uid {
		t.Errorf("assistant ReplyTo = %v, want %d", a.ReplyTo, uid)
	}
	if a.Meta["model"] != "llama3:8b" {
		t.Errorf("assistant meta model = %q, want llama3:8b", a.Meta["model"])
	}
}

func TestReadContextProjection(t *testing.T) {
	s := openTestStore(t)
	sid, _ := s.CreateSession("t")

	uid, ut, _ := s.AppendUser(sid, "question", "api")
	_, _ = s.AppendAssistant(sid, "answer", uid, ut, nil)

	ctx, err := s.ReadContext(sid, 50)
	if err != nil {
		t.Fatalf("ReadContext: %v", err)
	}
	if len(ctx) != 2 {
		t.Fatalf("len(ctx) = %d, want 2", len(ctx))
	}
	if ctx[0].Role != "user" || ctx[0].Content != "question" {
		t.Errorf("ctx[0] = %+v, want user/question", ctx[0])
	}
	if ctx[1].Role != "assistant" || ctx[1].Content != "answer" {
		t.Errorf("ctx[1] = %+v, want assistant/answer", ctx[1])
	}
}

func TestReadContextHonorsLimit(t *testing.T) {
	s := openTestStore(t)
	sid, _ := s.CreateSession("t")

	for i := 0; i < 5; i++ {
		uid, ut, _ := s.AppendUser(sid, "q", "cli")
		_, _ = s.AppendAssistant(sid, "a", uid, ut, nil)
	}

	ctx, _ := s.ReadContext(sid, 3)
	if len(ctx) != 3 {
		t.Errorf("len(ctx) = %d, want 3", len(ctx))
	}
}

func TestReadOrderedZeroLimitReturnsAll(t *testing.T) {
	s := openTestStore(t)
	sid, _ := s.CreateSession("t")

	for i := 0; i < 3; i++ {
		uid, ut, _ := s.AppendUser(sid, "q", "cli")
		_, _ = s.AppendAssistant(sid, "a", uid, ut, nil)
	}

	msgs, err := s.ReadOrdered(sid, 0)
	if err != nil {
		t.Fatalf("ReadOrdered: %v", err)
	}
	if len(msgs) != 6 {
		t.Errorf("len(msgs) = %d, want 6", len(msgs))
	}
}

func TestSystemPromptLatestWins(t *testing.T) {
	s := openTestStore(t)
	sid, _ := s.CreateSession("t")

	if _, ok, err := s.LatestSystemPrompt(sid); err != nil || ok {
		t.Fatalf("LatestSystemPrompt(empty) = ok=%v err=%v, want absent", ok, err)
	}

	_ = s.SetSystemPrompt(sid, "first")
	_ = s.SetSystemPrompt(sid, "second")
	_ = s.SetSystemPrompt(sid, "third")

	text, ok, err := s.LatestSystemPrompt(sid)
	if err != nil {
		t.Fatalf("LatestSystemPrompt: %v", err)
	}
	if !ok || text != "third" {
		t.Errorf("LatestSystemPrompt = %q ok=%v, want 'third'", text, ok)
	}
}

func TestClearSystemPromptsLeavesConversation(t *testing.T) {
	s := openTestStore(t)
	sid, _ := s.CreateSession("t")

	_ = s.SetSystemPrompt(sid, "one")
	_ = s.SetSystemPrompt(sid, "two")
	uid, ut, _ := s.AppendUser(sid, "hello", "cli")
	_, _ = s.AppendAssistant(sid, "hi", uid, ut, nil)

	if err := s.ClearSystemPrompts(sid); err != nil {
		t.Fatalf("ClearSystemPrompts: %v", err)
	}

	msgs, _ := s.ReadOrdered(sid, 100)
	if len(msgs) != 2 {
		t.Fatalf("len(msgs) after clear = %d, want 2", len(msgs))
	}
	for _, m := range msgs {
		if m.Role == model.RoleSystem {
			t.Errorf("system row survived clear: %+v", m)
		}
	}

	if _, ok, _ := s.LatestSystemPrompt(sid); ok {
		t.Error("LatestSystemPrompt still present after clear")
	}
}
