package wallet

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/Klingon-tech/klingnet-staking/pkg/types"
)

const (
	keystoreVersion = 1
	walletExt       = ".wallet"
)

var (
	ErrWalletExists   = errors.New("wallet already exists")
	ErrWalletNotFound = errors.New("wallet not found")
	ErrBadWalletName  = errors.New("invalid wallet name")
)

// AccountEntry is the public record of a derived account.
type AccountEntry struct {
	Index   uint32        `json:"index"`
	Name    string        `json:"name,omitempty"`
	Address types.Address `json:"address"`
}

type walletFile struct {
	Version  int            `json:"version"`
	Created  time.Time      `json:"created"`
	Seed     []byte         `json:"seed"` // Sealed.
	Accounts []AccountEntry `json:"accounts"`
}

// Keystore keeps one sealed seed per file under a directory.
type Keystore struct {
	dir string
}

// NewKeystore opens dir, creating it with owner-only permissions.
func NewKeystore(dir string) (*Keystore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("keystore dir: %w", err)
	}
	return &Keystore{dir: dir}, nil
}

func (ks *Keystore) path(name string) (string, error) {
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return "", fmt.Errorf("%w: %q", ErrBadWalletName, name)
	}
	return filepath.Join(ks.dir, name+walletExt), nil
}

// Create seals seed under password and records account 0.
func (ks *Keystore) Create(name string, seed, password []byte, kdf KDFParams) (*AccountEntry, error) {
	path, err := ks.path(name)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); err == nil {
		return nil, fmt.Errorf("%w: %q", ErrWalletExists, name)
	}

	first, err := DeriveAccount(seed, 0)
	if err != nil {
		return nil, err
	}
	defer first.Lock()

	sealed, err := Seal(seed, password, kdf)
	if err != nil {
		return nil, fmt.Errorf("seal seed: %w", err)
	}
	entry := AccountEntry{Index: 0, Name: "default", Address: first.Address}
	wf := &walletFile{
		Version:  keystoreVersion,
		Created:  time.Now().UTC(),
		Seed:     sealed,
		Accounts: []AccountEntry{entry},
	}
	if err := writeWallet(path, wf); err != nil {
		return nil, err
	}
	return &entry, nil
}

// Seed unseals the wallet's seed.
func (ks *Keystore) Seed(name string, password []byte) ([]byte, error) {
	wf, err := ks.read(name)
	if err != nil {
		return nil, err
	}
	return Open(wf.Seed, password)
}

// Unlock returns the signing account at index. The caller should Lock it
// when done.
func (ks *Keystore) Unlock(name string, password []byte, index uint32) (*Account, error) {
	wf, err := ks.read(name)
	if err != nil {
		return nil, err
	}
	seed, err := Open(wf.Seed, password)
	if err != nil {
		return nil, err
	}
	defer wipe(seed)

	acct, err := DeriveAccount(seed, index)
	if err != nil {
		return nil, err
	}
	for _, e := range wf.Accounts {
		if e.Index != index {
			continue
		}
		if e.Address != acct.Address {
			acct.Lock()
			return nil, fmt.Errorf("account %d: derived address %s does not match %s", index, acct.Address, e.Address)
		}
		acct.Name = e.Name
	}
	return acct, nil
}

// NewAccount derives the next unused index and records it under label.
func (ks *Keystore) NewAccount(name string, password []byte, label string) (*AccountEntry, error) {
	wf, err := ks.read(name)
	if err != nil {
		return nil, err
	}
	var next uint32
	for _, e := range wf.Accounts {
		if e.Index >= next {
			next = e.Index + 1
		}
	}
	acct, err := ks.Unlock(name, password, next)
	if err != nil {
		return nil, err
	}
	acct.Lock()

	entry := AccountEntry{Index: next, Name: label, Address: acct.Address}
	wf.Accounts = append(wf.Accounts, entry)
	path, _ := ks.path(name)
	if err := writeWallet(path, wf); err != nil {
		return nil, err
	}
	return &entry, nil
}

// Accounts lists recorded accounts ordered by index.
func (ks *Keystore) Accounts(name string) ([]AccountEntry, error) {
	wf, err := ks.read(name)
	if err != nil {
		return nil, err
	}
	out := append([]AccountEntry(nil), wf.Accounts...)
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out, nil
}

// List returns wallet names in lexical order.
func (ks *Keystore) List() ([]string, error) {
	entries, err := os.ReadDir(ks.dir)
	if err != nil {
		return nil, fmt.Errorf("read keystore dir: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != walletExt {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), walletExt))
	}
	sort.Strings(names)
	return names, nil
}

// Delete removes a wallet file.
func (ks *Keystore) Delete(name string) error {
	path, err := ks.path(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %q", ErrWalletNotFound, name)
		}
		return err
	}
	return nil
}

func (ks *Keystore) read(name string) (*walletFile, error) {
	path, err := ks.path(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %q", ErrWalletNotFound, name)
		}
		return nil, fmt.Errorf("read wallet: %w", err)
	}
	var wf walletFile
	if err := json.Unmarshal(data, &wf); err != nil {
		return nil, fmt.Errorf("parse wallet: %w", err)
	}
	if wf.Version != keystoreVersion {
		return nil, fmt.Errorf("unsupported wallet version %d", wf.Version)
	}
	return &wf, nil
}

func writeWallet(path string, wf *walletFile) error {
	data, err := json.MarshalIndent(wf, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal wallet: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write wallet: %w", err)
	}
	return os.Rename(tmp, path)
}
