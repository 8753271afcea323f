package history

import "testing"

func TestAppendAndTurns(t *testing.T) {
	store := NewMemoryStore()
	store.Append(Turn{Prompt: "hi", Reply: "hello"})
	store.Append(Turn{Prompt: "more", Reply: "sure"})

	turns := store.Turns()
	if len(turns) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(turns))
	}
	if turns[0].Prompt != "hi" || turns[1].Reply != "sure" {
		t.Fatalf("unexpected turns: %+v", turns)
	}
}

func TestTurnsReturnsCopy(t *testing.T) {
	store := NewMemoryStore()
	store.Append(Turn{Prompt: "a", Reply: "b"})

	turns := store.Turns()
	turns[0].Prompt = "mutated"

	if store.Turns()[0].Prompt != "a" {
		t.Fatalf("expected internal state to be isolated from returned slice")
	}
}

func TestReset(t *testing.T) {
	store := NewMemoryStore()
	store.Append(Turn{Prompt: "a", Reply: "b"})
	store.Reset()
	if store.Len() != 0 {
		t.Fatalf("expected empty store after reset, got %d", store.Len())
	}
}
