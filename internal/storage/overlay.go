package storage

import (
	"sort"
	"strings"
)

// Overlay buffers writes on top of a base DB. Reads see buffered writes
// first. Commit flushes the buffer through a single batch; Discard drops
// it. Overlays nest: an Overlay can be the base of another.
type Overlay struct {
	base    DB
	writes  map[string][]byte
	deleted map[string]struct{}
}

// NewOverlay creates an empty overlay over base.
func NewOverlay(base DB) *Overlay {
	return &Overlay{
		base:    base,
		writes:  make(map[string][]byte),
		deleted: make(map[string]struct{}),
	}
}

// Get returns the buffered value for key, falling back to the base.
func (o *Overlay) Get(key []byte) ([]byte, error) {
	k := string(key)
	if _, ok := o.deleted[k]; ok {
		return nil, ErrNotFound
	}
	if v, ok := o.writes[k]; ok {
		return cloneBytes(v), nil
	}
	return o.base.Get(key)
}

// Put buffers a write.
func (o *Overlay) Put(key, value []byte) error {
	k := string(key)
	delete(o.deleted, k)
	o.writes[k] = cloneBytes(value)
	return nil
}

// Delete buffers a deletion.
func (o *Overlay) Delete(key []byte) error {
	k := string(key)
	delete(o.writes, k)
	o.deleted[k] = struct{}{}
	return nil
}

// Has reports whether key exists in the overlay view.
func (o *Overlay) Has(key []byte) (bool, error) {
	k := string(key)
	if _, ok := o.deleted[k]; ok {
		return false, nil
	}
	if _, ok := o.writes[k]; ok {
		return true, nil
	}
	return o.base.Has(key)
}

// ForEach iterates the merged view of base and buffered writes in key order.
func (o *Overlay) ForEach(prefix []byte, fn func(key, value []byte) error) error {
	p := string(prefix)
	merged := make(map[string][]byte)
	err := o.base.ForEach(prefix, func(key, value []byte) error {
		k := string(key)
		if _, ok := o.deleted[k]; ok {
			return nil
		}
		merged[k] = value
		return nil
	})
	if err != nil {
		return err
	}
	for k, v := range o.writes {
		if strings.HasPrefix(k, p) {
			merged[k] = v
		}
	}

	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := fn([]byte(k), cloneBytes(merged[k])); err != nil {
			return err
		}
	}
	return nil
}

// Close is a no-op; Discard drops buffered writes.
func (o *Overlay) Close() error {
	return nil
}

// Len returns the number of buffered operations.
func (o *Overlay) Len() int {
	return len(o.writes) + len(o.deleted)
}

// Commit writes the buffered operations to the base and resets the overlay.
func (o *Overlay) Commit() error {
	if o.Len() == 0 {
		return nil
	}
	b := WriteBatch(o.base)
	for k, v := range o.writes {
		if err := b.Put([]byte(k), v); err != nil {
			return err
		}
	}
	for k := range o.deleted {
		if err := b.Delete([]byte(k)); err != nil {
			return err
		}
	}
	if err := b.Commit(); err != nil {
		return err
	}
	o.Discard()
	return nil
}

// Discard drops all buffered operations.
func (o *Overlay) Discard() {
	o.writes = make(map[string][]byte)
	o.deleted = make(map[string]struct{})
}
