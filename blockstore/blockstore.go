// Package blockstore is the block provider external collaborator from
// spec §4.13/§6: a read-only mapping from canonical CID bytes to raw
// block bytes. The CORE depends only on the BlockStore interface; this
// package supplies two concrete implementations used by tests and the
// CLI.
package blockstore

import (
	"context"
	"fmt"

	"github.com/ipfs/go-cid"

	"github.com/ipfs/go-unixfs-exporter/cidutil"
)

// ErrNotFound is returned, possibly wrapped, when a CID has no
// corresponding block.
var ErrNotFound = fmt.Errorf("blockstore: block not found")

// BlockStore is the read-only block provider the exporter walks. It
// must be safe for concurrent Get calls from independent exporter
// invocations, per spec §5.
type BlockStore interface {
	Get(ctx context.Context, c cid.Cid) ([]byte, error)
}

// MapStore is an in-memory BlockStore keyed by canonical CID bytes,
// grounded on the block_from_encoded_cid dict used throughout
// original_source/py_unix_fs_exporter and go-unixfsnode/testutil's
// in-memory LinkSystem fixtures.
type MapStore struct {
	blocks map[string][]byte
}

// NewMapStore builds an empty in-memory block store.
func NewMapStore() *MapStore {
	return &MapStore{blocks: make(map[string][]byte)}
}

// Put stores the raw block bytes for c, overwriting any prior block at
// that key.
func (m *MapStore) Put(c cid.Cid, block []byte) {
	m.blocks[cidutil.Key(c)] = block
}

// Get implements BlockStore.
func (m *MapStore) Get(_ context.Context, c cid.Cid) ([]byte, error) {
	block, ok := m.blocks[cidutil.Key(c)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, c)
	}
	return block, nil
}

// Len reports how many blocks are stored, mostly useful in tests that
// assert on fixture shape.
func (m *MapStore) Len() int {
	return len(m.blocks)
}
