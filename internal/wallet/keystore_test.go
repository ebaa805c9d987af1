package wallet

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func testKeystore(t *testing.T) (*Keystore, string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "keystore")
	ks, err := NewKeystore(dir)
	if err != nil {
		t.Fatalf("NewKeystore: %v", err)
	}
	return ks, dir
}

func TestKeystore_CreateAndUnlock(t *testing.T) {
	ks, _ := testKeystore(t)
	seed := testSeed(t)
	pw := []byte("hunter2")

	entry, err := ks.Create("alice", seed, pw, fastKDF())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	want, _ := DeriveAccount(seed, 0)
	if entry.Address != want.Address || entry.Index != 0 {
		t.Fatalf("entry = %+v", entry)
	}

	got, err := ks.Seed("alice", pw)
	if err != nil {
		t.Fatalf("Seed: %v", err)
	}
	if !bytes.Equal(got, seed) {
		t.Fatal("seed mismatch")
	}

	acct, err := ks.Unlock("alice", pw, 0)
	if err != nil {
		t.Fatalf("Unlock: %v", err)
	}
	defer acct.Lock()
	if acct.Address != want.Address || acct.Name != "default" {
		t.Fatalf("account = %s %q", acct.Address, acct.Name)
	}

	if _, err := ks.Unlock("alice", []byte("wrong"), 0); !errors.Is(err, ErrBadPassword) {
		t.Fatalf("wrong password: err = %v", err)
	}
}

func TestKeystore_CreateErrors(t *testing.T) {
	ks, _ := testKeystore(t)
	seed := testSeed(t)
	if _, err := ks.Create("w", seed, []byte("pw"), fastKDF()); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := ks.Create("w", seed, []byte("pw"), fastKDF()); !errors.Is(err, ErrWalletExists) {
		t.Errorf("duplicate: err = %v", err)
	}
	for _, name := range []string{"", "..", "a/b"} {
		if _, err := ks.Create(name, seed, []byte("pw"), fastKDF()); !errors.Is(err, ErrBadWalletName) {
			t.Errorf("name %q: err = %v", name, err)
		}
	}
	if _, err := ks.Seed("missing", []byte("pw")); !errors.Is(err, ErrWalletNotFound) {
		t.Errorf("missing: err = %v", err)
	}
}

func TestKeystore_NewAccount(t *testing.T) {
	ks, _ := testKeystore(t)
	seed := testSeed(t)
	pw := []byte("pw")
	if _, err := ks.Create("w", seed, pw, fastKDF()); err != nil {
		t.Fatalf("Create: %v", err)
	}

	e1, err := ks.NewAccount("w", pw, "savings")
	if err != nil {
		t.Fatalf("NewAccount: %v", err)
	}
	if e1.Index != 1 || e1.Name != "savings" {
		t.Fatalf("entry = %+v", e1)
	}
	want, _ := DeriveAccount(seed, 1)
	if e1.Address != want.Address {
		t.Fatal("recorded address does not match derivation")
	}

	if _, err := ks.NewAccount("w", []byte("bad"), "x"); err == nil {
		t.Fatal("NewAccount with wrong password succeeded")
	}

	list, err := ks.Accounts("w")
	if err != nil {
		t.Fatalf("Accounts: %v", err)
	}
	if len(list) != 2 || list[0].Index != 0 || list[1].Index != 1 {
		t.Fatalf("accounts = %+v", list)
	}

	acct, err := ks.Unlock("w", pw, 1)
	if err != nil {
		t.Fatalf("Unlock(1): %v", err)
	}
	if acct.Name != "savings" {
		t.Errorf("name = %q", acct.Name)
	}
}

func TestKeystore_ListDelete(t *testing.T) {
	ks, dir := testKeystore(t)
	seed := testSeed(t)
	for _, n := range []string{"b", "a"} {
		if _, err := ks.Create(n, seed, []byte("pw"), fastKDF()); err != nil {
			t.Fatalf("Create %s: %v", n, err)
		}
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}

	names, err := ks.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Fatalf("names = %v", names)
	}

	if err := ks.Delete("a"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := ks.Delete("a"); !errors.Is(err, ErrWalletNotFound) {
		t.Fatalf("second Delete: err = %v", err)
	}
}

func TestKeystore_FilePermissions(t *testing.T) {
	ks, dir := testKeystore(t)
	if _, err := ks.Create("w", testSeed(t), []byte("pw"), fastKDF()); err != nil {
		t.Fatalf("Create: %v", err)
	}
	info, err := os.Stat(filepath.Join(dir, "w.wallet"))
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Fatalf("perm = %o", perm)
	}
	dirInfo, err := os.Stat(dir)
	if err != nil {
		t.Fatal(err)
	}
	if perm := dirInfo.Mode().Perm(); perm != 0o700 {
		t.Fatalf("dir perm = %o", perm)
	}
}
