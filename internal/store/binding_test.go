package store

import (
	"errors"
	"testing"
)

func TestBindingRepository_PutGet(t *testing.T) {
	s := newTestStore(t)
	repo := s.Bindings()

	b := &Binding{Label: "fist-hand", Symbol: "fist"}
	if err := repo.Put(b); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if b.CreatedAt.IsZero() || b.UpdatedAt.IsZero() {
		t.Error("timestamps should be set after Put")
	}

	got, err := repo.Get("fist-hand")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Symbol != "fist" {
		t.Errorf("Symbol = %q, want fist", got.Symbol)
	}

	// Put on an existing label replaces the symbol.
	if err := repo.Put(&Binding{Label: "fist-hand", Symbol: "checkmark"}); err != nil {
		t.Fatalf("Put() replace error = %v", err)
	}
	got, _ = repo.Get("fist-hand")
	if got.Symbol != "checkmark" {
		t.Errorf("Symbol after replace = %q, want checkmark", got.Symbol)
	}
}

func TestBindingRepository_GetNotFound(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.Bindings().Get("nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestBindingRepository_ListMap(t *testing.T) {
	s := newTestStore(t)
	repo := s.Bindings()

	repo.Put(&Binding{Label: "five-hand", Symbol: "open-hand"})
	repo.Put(&Binding{Label: "checkmark-hand", Symbol: "checkmark"})

	list, err := repo.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(list) != 2 || list[0].Label != "checkmark-hand" || list[1].Label != "five-hand" {
		t.Errorf("List() not ordered by label: %+v", list)
	}

	m, err := repo.Map()
	if err != nil {
		t.Fatalf("Map() error = %v", err)
	}
	if m["five-hand"] != "open-hand" || m["checkmark-hand"] != "checkmark" {
		t.Errorf("Map() = %v", m)
	}
}

func TestBindingRepository_Delete(t *testing.T) {
	s := newTestStore(t)
	repo := s.Bindings()

	repo.Put(&Binding{Label: "fist-hand", Symbol: "fist"})

	if err := repo.Delete("fist-hand"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := repo.Delete("fist-hand"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete() error = %v, want ErrNotFound", err)
	}
}

func TestBindingRepository_Seed(t *testing.T) {
	s := newTestStore(t)
	repo := s.Bindings()

	defaults := map[string]string{
		"fist-hand":      "fist",
		"five-hand":      "open-hand",
		"checkmark-hand": "checkmark",
	}

	seeded, err := repo.Seed(defaults)
	if err != nil {
		t.Fatalf("Seed() error = %v", err)
	}
	if !seeded {
		t.Error("Seed() on empty table should seed")
	}

	m, _ := repo.Map()
	if len(m) != 3 {
		t.Errorf("seeded %d bindings, want 3", len(m))
	}

	repo.Delete("five-hand")
	seeded, err = repo.Seed(defaults)
	if err != nil {
		t.Fatalf("second Seed() error = %v", err)
	}
	if seeded {
		t.Error("Seed() should not overwrite a non-empty table")
	}
	if _, err := repo.Get("five-hand"); !errors.Is(err, ErrNotFound) {
		t.Error("deleted binding should stay deleted")
	}
}
