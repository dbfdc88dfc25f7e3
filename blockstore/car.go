package blockstore

import (
	"context"
	"fmt"

	"github.com/ipfs/go-cid"
	carblockstore "github.com/ipld/go-car/v2/blockstore"
)

// CarStore adapts a read-only github.com/ipld/go-car/v2 blockstore to
// the BlockStore interface, letting the exporter and CLI walk a UnixFS
// DAG directly out of a .car file. Grounded on ipld-go-car's
// v2/cmd/car command set and v2/blockstore/ro_blockstore.go.
type CarStore struct {
	ro *carblockstore.ReadOnly
}

// OpenCarStore opens the CAR file at path as a read-only block store.
func OpenCarStore(path string) (*CarStore, error) {
	ro, err := carblockstore.OpenReadOnly(path)
	if err != nil {
		return nil, fmt.Errorf("opening car file %s: %w", path, err)
	}
	return &CarStore{ro: ro}, nil
}

// Roots returns the CAR file's declared root CIDs.
func (c *CarStore) Roots() ([]cid.Cid, error) {
	return c.ro.Roots()
}

// Get implements BlockStore.
func (c *CarStore) Get(ctx context.Context, id cid.Cid) ([]byte, error) {
	blk, err := c.ro.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %s", ErrNotFound, id, err)
	}
	return blk.RawData(), nil
}

// Close releases the underlying CAR file handle.
func (c *CarStore) Close() error {
	return c.ro.Close()
}
