package state

import (
	"context"
	"testing"
)

func TestMemoryStore_Unit_RoundTrip(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close()
	ctx := context.Background()

	// Missing checkpoint loads as empty, not an error.
	state, err := store.Load(ctx, "harvest", "users")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(state) != 0 {
		t.Fatalf("fresh store returned %v", state)
	}

	if err := store.Save(ctx, "harvest", "users", map[string]string{"updated_at": "2024-03-01T00:00:00Z"}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	state, err = store.Load(ctx, "harvest", "users")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if state["updated_at"] != "2024-03-01T00:00:00Z" {
		t.Errorf("state = %v", state)
	}
}

func TestMemoryStore_Unit_KeysAreScoped(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close()
	ctx := context.Background()

	_ = store.Save(ctx, "harvest", "users", map[string]string{"updated_at": "a"})
	_ = store.Save(ctx, "harvest", "projects", map[string]string{"updated_at": "b"})
	_ = store.Save(ctx, "other", "users", map[string]string{"updated_at": "c"})

	state, _ := store.Load(ctx, "harvest", "users")
	if state["updated_at"] != "a" {
		t.Errorf("harvest/users = %v, want a", state)
	}
	state, _ = store.Load(ctx, "other", "users")
	if state["updated_at"] != "c" {
		t.Errorf("other/users = %v, want c", state)
	}
}

func TestMemoryStore_Unit_CopiesState(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close()
	ctx := context.Background()

	in := map[string]string{"updated_at": "2024-01-01T00:00:00Z"}
	_ = store.Save(ctx, "harvest", "users", in)

	// Mutating the caller's map must not leak into the store.
	in["updated_at"] = "mutated"
	state, _ := store.Load(ctx, "harvest", "users")
	if state["updated_at"] != "2024-01-01T00:00:00Z" {
		t.Errorf("stored state aliased caller map: %v", state)
	}

	// Likewise for the loaded copy.
	state["updated_at"] = "mutated"
	again, _ := store.Load(ctx, "harvest", "users")
	if again["updated_at"] != "2024-01-01T00:00:00Z" {
		t.Errorf("loaded state aliased store map: %v", again)
	}
}
