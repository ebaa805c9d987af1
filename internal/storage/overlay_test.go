package storage

import (
	"errors"
	"testing"
)

func TestOverlay_ReadThrough(t *testing.T) {
	base := NewMemory()
	base.Put([]byte("a"), []byte("base"))

	ov := NewOverlay(base)
	got, err := ov.Get([]byte("a"))
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != "base" {
		t.Errorf("Get = %q, want %q", got, "base")
	}

	ov.Put([]byte("a"), []byte("over"))
	got, _ = ov.Get([]byte("a"))
	if string(got) != "over" {
		t.Errorf("Get after Put = %q, want %q", got, "over")
	}
	baseVal, _ := base.Get([]byte("a"))
	if string(baseVal) != "base" {
		t.Errorf("base modified before Commit: %q", baseVal)
	}
}

func TestOverlay_Delete(t *testing.T) {
	base := NewMemory()
	base.Put([]byte("a"), []byte("1"))

	ov := NewOverlay(base)
	ov.Delete([]byte("a"))
	if ok, _ := ov.Has([]byte("a")); ok {
		t.Error("Has after Delete = true")
	}
	if _, err := ov.Get([]byte("a")); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after Delete error = %v, want %v", err, ErrNotFound)
	}

	ov.Put([]byte("a"), []byte("2"))
	if ok, _ := ov.Has([]byte("a")); !ok {
		t.Error("Has after re-Put = false")
	}
}

func TestOverlay_ForEachMerged(t *testing.T) {
	base := NewMemory()
	base.Put([]byte("p/a"), []byte("1"))
	base.Put([]byte("p/b"), []byte("2"))
	base.Put([]byte("p/c"), []byte("3"))

	ov := NewOverlay(base)
	ov.Delete([]byte("p/b"))
	ov.Put([]byte("p/c"), []byte("33"))
	ov.Put([]byte("p/d"), []byte("4"))
	ov.Put([]byte("q/x"), []byte("5"))

	var keys, vals []string
	err := ov.ForEach([]byte("p/"), func(key, value []byte) error {
		keys = append(keys, string(key))
		vals = append(vals, string(value))
		return nil
	})
	if err != nil {
		t.Fatalf("ForEach: %v", err)
	}
	wantKeys := []string{"p/a", "p/c", "p/d"}
	wantVals := []string{"1", "33", "4"}
	if len(keys) != len(wantKeys) {
		t.Fatalf("keys = %v, want %v", keys, wantKeys)
	}
	for i := range wantKeys {
		if keys[i] != wantKeys[i] || vals[i] != wantVals[i] {
			t.Errorf("entry %d = %s:%s, want %s:%s", i, keys[i], vals[i], wantKeys[i], wantVals[i])
		}
	}
}

func TestOverlay_CommitAndDiscard(t *testing.T) {
	base := NewMemory()
	base.Put([]byte("gone"), []byte("x"))

	ov := NewOverlay(base)
	ov.Put([]byte("kept"), []byte("y"))
	ov.Delete([]byte("gone"))
	if ov.Len() != 2 {
		t.Fatalf("Len = %d, want 2", ov.Len())
	}
	if err := ov.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if ov.Len() != 0 {
		t.Errorf("Len after Commit = %d, want 0", ov.Len())
	}
	if ok, _ := base.Has([]byte("kept")); !ok {
		t.Error("kept missing from base after Commit")
	}
	if ok, _ := base.Has([]byte("gone")); ok {
		t.Error("gone still in base after Commit")
	}

	ov.Put([]byte("dropped"), []byte("z"))
	ov.Discard()
	if err := ov.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if ok, _ := base.Has([]byte("dropped")); ok {
		t.Error("discarded write reached base")
	}
}

func TestOverlay_Nested(t *testing.T) {
	base := NewMemory()
	outer := NewOverlay(base)
	inner := NewOverlay(outer)

	inner.Put([]byte("k"), []byte("v"))
	if err := inner.Commit(); err != nil {
		t.Fatalf("inner Commit: %v", err)
	}
	if ok, _ := outer.Has([]byte("k")); !ok {
		t.Fatal("outer missing key after inner Commit")
	}
	if ok, _ := base.Has([]byte("k")); ok {
		t.Fatal("base saw key before outer Commit")
	}
	if err := outer.Commit(); err != nil {
		t.Fatalf("outer Commit: %v", err)
	}
	if ok, _ := base.Has([]byte("k")); !ok {
		t.Error("base missing key after outer Commit")
	}
}

func TestOverlay_OverBadger(t *testing.T) {
	db, err := NewBadger(t.TempDir())
	if err != nil {
		t.Fatalf("NewBadger: %v", err)
	}
	defer db.Close()

	ov := NewOverlay(NewPrefixDB(db, []byte("ns/")))
	ov.Put([]byte("a"), []byte("1"))
	ov.Put([]byte("b"), []byte("2"))
	if err := ov.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	got, err := db.Get([]byte("ns/b"))
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != "2" {
		t.Errorf("Get = %q, want %q", got, "2")
	}
}
