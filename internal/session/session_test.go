package session

import (
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/research-copilot/backend/pkg/arxiv"
)

func TestCreateAndGet(t *testing.T) {
	store := NewStore(Config{})

	papers := []arxiv.Paper{{Title: "Paper One", Summary: "s1"}}
	id := store.Create("quantum computing", papers, "the report")
	if id == "" {
		t.Fatal("empty session id")
	}

	sess, ok := store.Get(id)
	if !ok {
		t.Fatal("session not found after create")
	}
	if sess.Topic != "quantum computing" || sess.Report != "the report" {
		t.Fatalf("unexpected session: %+v", sess)
	}
	if len(sess.Papers) != 1 || sess.Papers[0].Title != "Paper One" {
		t.Fatalf("unexpected papers: %+v", sess.Papers)
	}
	if len(sess.History) != 0 {
		t.Fatalf("expected empty history, got %v", sess.History)
	}
}

func TestCreateIDsDistinct(t *testing.T) {
	store := NewStore(Config{})

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := store.Create("t", nil, "")
		if seen[id] {
			t.Fatalf("duplicate session id: %q", id)
		}
		seen[id] = true
	}
}

func TestGetUnknown(t *testing.T) {
	store := NewStore(Config{})
	if _, ok := store.Get("nope"); ok {
		t.Fatal("lookup of unknown id succeeded")
	}
}

func TestGetReturnsCopy(t *testing.T) {
	store := NewStore(Config{})
	id := store.Create("t", []arxiv.Paper{{Title: "Paper"}}, "r")
	store.AppendTurn(id, "hi", "hello")

	sess, _ := store.Get(id)
	sess.History[0] = "tampered"
	sess.Papers[0].Title = "tampered"

	fresh, _ := store.Get(id)
	if fresh.History[0] != "User: hi" {
		t.Fatalf("stored history mutated: %v", fresh.History)
	}
	if fresh.Papers[0].Title != "Paper" {
		t.Fatalf("stored papers mutated: %v", fresh.Papers)
	}
}

func TestAppendTurnFormatsLines(t *testing.T) {
	store := NewStore(Config{})
	id := store.Create("t", nil, "r")

	if ok := store.AppendTurn(id, "what is this?", "a summary"); !ok {
		t.Fatal("append to existing session failed")
	}

	sess, _ := store.Get(id)
	want := []string{"User: what is this?", "Assistant: a summary"}
	if len(sess.History) != len(want) {
		t.Fatalf("unexpected history length: %d", len(sess.History))
	}
	for i := range want {
		if sess.History[i] != want[i] {
			t.Fatalf("history[%d]: got %q, want %q", i, sess.History[i], want[i])
		}
	}
}

func TestAppendTurnUnknownSession(t *testing.T) {
	store := NewStore(Config{})
	if ok := store.AppendTurn("nope", "q", "a"); ok {
		t.Fatal("append to unknown session succeeded")
	}
}

func TestHistoryCapKeepsNewest(t *testing.T) {
	store := NewStore(Config{})
	id := store.Create("t", nil, "r")

	for i := 1; i <= 15; i++ {
		store.AppendTurn(id, fmt.Sprintf("message %d", i), fmt.Sprintf("reply %d", i))
	}

	sess, _ := store.Get(id)
	if len(sess.History) != 20 {
		t.Fatalf("unexpected history length: %d", len(sess.History))
	}
	if sess.History[0] != "User: message 6" {
		t.Fatalf("oldest surviving line: %q", sess.History[0])
	}
	if sess.History[19] != "Assistant: reply 15" {
		t.Fatalf("newest line: %q", sess.History[19])
	}
	for _, line := range sess.History {
		if strings.Contains(line, "message 5") || strings.Contains(line, "reply 5") {
			t.Fatalf("trimmed turn still present: %q", line)
		}
	}
}

func TestExpiredSessionRemovedOnGet(t *testing.T) {
	store := NewStore(Config{TTL: 10 * time.Millisecond})
	id := store.Create("t", nil, "r")

	time.Sleep(30 * time.Millisecond)

	if _, ok := store.Get(id); ok {
		t.Fatal("expired session still readable")
	}
	if store.Len() != 0 {
		t.Fatalf("expired session still stored, len=%d", store.Len())
	}
}

func TestAppendTurnRefreshesTTL(t *testing.T) {
	store := NewStore(Config{TTL: 200 * time.Millisecond})
	id := store.Create("t", nil, "r")

	time.Sleep(120 * time.Millisecond)
	store.AppendTurn(id, "still here?", "yes")
	time.Sleep(120 * time.Millisecond)

	if _, ok := store.Get(id); !ok {
		t.Fatal("session expired despite recent activity")
	}
}

func TestEvictsOldestAtCapacity(t *testing.T) {
	store := NewStore(Config{MaxSessions: 3})

	first := store.Create("t1", nil, "")
	second := store.Create("t2", nil, "")
	third := store.Create("t3", nil, "")
	fourth := store.Create("t4", nil, "")

	if store.Len() != 3 {
		t.Fatalf("unexpected store size: %d", store.Len())
	}
	if _, ok := store.Get(first); ok {
		t.Fatal("oldest session survived eviction")
	}
	for _, id := range []string{second, third, fourth} {
		if _, ok := store.Get(id); !ok {
			t.Fatalf("session %q evicted unexpectedly", id)
		}
	}
}

func TestConcurrentAppends(t *testing.T) {
	store := NewStore(Config{})
	id := store.Create("t", nil, "r")

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 25; i++ {
				store.AppendTurn(id, fmt.Sprintf("q%d-%d", g, i), fmt.Sprintf("a%d-%d", g, i))
			}
		}(g)
	}
	wg.Wait()

	sess, ok := store.Get(id)
	if !ok {
		t.Fatal("session lost during concurrent appends")
	}
	if len(sess.History) != 20 {
		t.Fatalf("history cap violated: %d lines", len(sess.History))
	}
}
