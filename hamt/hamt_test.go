package hamt_test

import (
	"context"
	"testing"

	"github.com/ipfs/go-cid"
	"github.com/stretchr/testify/require"

	"github.com/ipfs/go-unixfs-exporter/blockstore"
	"github.com/ipfs/go-unixfs-exporter/data"
	"github.com/ipfs/go-unixfs-exporter/hamt"
	"github.com/ipfs/go-unixfs-exporter/testutil"
)

func loaderFor(bs *blockstore.MapStore) hamt.Loader {
	return func(ctx context.Context, c cid.Cid) (*data.PBNode, *data.UnixFSData, error) {
		block, err := bs.Get(ctx, c)
		if err != nil {
			return nil, nil, err
		}
		node, err := data.DecodePBNode(block)
		if err != nil {
			return nil, nil, err
		}
		fs, err := data.DecodeUnixFSData(node.Data)
		if err != nil {
			return nil, nil, err
		}
		return node, fs, nil
	}
}

func rootNodeAndFS(t *testing.T, bs *blockstore.MapStore, rootCid cid.Cid) (*data.PBNode, *data.UnixFSData) {
	t.Helper()
	block, err := bs.Get(context.Background(), rootCid)
	require.NoError(t, err)
	node, err := data.DecodePBNode(block)
	require.NoError(t, err)
	fs, err := data.DecodeUnixFSData(node.Data)
	require.NoError(t, err)
	return node, fs
}

func TestShardedDirectoryLookupFindsEveryEntry(t *testing.T) {
	bs := testutil.NewBlockStore()
	names := []string{"alpha", "bravo", "charlie", "delta", "echo", "foxtrot", "golf", "hotel"}
	entries := make([]testutil.DirEntry, 0, len(names))
	want := make(map[string]cid.Cid)
	for _, n := range names {
		c := testutil.PutRawBlock(bs, []byte("content-"+n))
		entries = append(entries, testutil.DirEntry{Name: n, Cid: c, Size: uint64(len("content-" + n))})
		want[n] = c
	}
	rootCid, _ := testutil.PutShardedDirectory(bs, 8, entries)
	node, fs := rootNodeAndFS(t, bs, rootCid)

	load := loaderFor(bs)
	for _, n := range names {
		got, err := hamt.Lookup(context.Background(), node, fs, n, load)
		require.NoError(t, err, "lookup for %s", n)
		require.True(t, got.Equals(want[n]), "lookup for %s returned the wrong cid", n)
	}
}

func TestShardedDirectoryLookupMissingKey(t *testing.T) {
	bs := testutil.NewBlockStore()
	c := testutil.PutRawBlock(bs, []byte("only"))
	rootCid, _ := testutil.PutShardedDirectory(bs, 8, []testutil.DirEntry{{Name: "only", Cid: c, Size: 4}})
	node, fs := rootNodeAndFS(t, bs, rootCid)

	_, err := hamt.Lookup(context.Background(), node, fs, "missing", loaderFor(bs))
	require.Error(t, err)
	require.True(t, hamt.NotFoundKey(err))
}

func TestShardedDirectoryDeepCollisionChain(t *testing.T) {
	// A fanout of 2 maximizes the chance of collisions for a modest
	// entry count, forcing the builder to create nested sub-shards —
	// exercising hamt.Lookup's iterative multi-level descent.
	bs := testutil.NewBlockStore()
	names := []string{"n0", "n1", "n2", "n3", "n4", "n5", "n6", "n7", "n8", "n9"}
	entries := make([]testutil.DirEntry, 0, len(names))
	want := make(map[string]cid.Cid)
	for _, n := range names {
		c := testutil.PutRawBlock(bs, []byte(n))
		entries = append(entries, testutil.DirEntry{Name: n, Cid: c, Size: uint64(len(n))})
		want[n] = c
	}
	rootCid, _ := testutil.PutShardedDirectory(bs, 2, entries)
	node, fs := rootNodeAndFS(t, bs, rootCid)

	load := loaderFor(bs)
	for _, n := range names {
		got, err := hamt.Lookup(context.Background(), node, fs, n, load)
		require.NoError(t, err, "lookup for %s", n)
		require.True(t, got.Equals(want[n]))
	}
}

func TestEnumerateVisitsEveryEntryExactlyOnce(t *testing.T) {
	bs := testutil.NewBlockStore()
	names := []string{"one", "two", "three", "four", "five", "six"}
	entries := make([]testutil.DirEntry, 0, len(names))
	for _, n := range names {
		c := testutil.PutRawBlock(bs, []byte(n))
		entries = append(entries, testutil.DirEntry{Name: n, Cid: c, Size: uint64(len(n))})
	}
	rootCid, _ := testutil.PutShardedDirectory(bs, 4, entries)
	node, fs := rootNodeAndFS(t, bs, rootCid)

	seen := make(map[string]bool)
	err := hamt.Enumerate(context.Background(), node, fs, loaderFor(bs), func(e hamt.Entry) error {
		seen[e.Name] = true
		return nil
	})
	require.NoError(t, err)
	require.Len(t, seen, len(names))
	for _, n := range names {
		require.True(t, seen[n], "missing %s from enumeration", n)
	}
}

func TestValidateRejectsNonShardNode(t *testing.T) {
	fs := &data.UnixFSData{Type: data.Data_Directory}
	err := hamt.Validate(fs)
	require.ErrorIs(t, err, hamt.ErrNotHAMTShard)
}

func TestValidateRejectsNonPowerOfTwoFanout(t *testing.T) {
	fs := &data.UnixFSData{
		Type: data.Data_HAMTShard,
		HashType: hamt.HashMurmur3, HasHashType: true,
		Fanout: 6, HasFanout: true,
	}
	err := hamt.Validate(fs)
	require.ErrorIs(t, err, hamt.ErrFanoutNotPowerOfTwo)
}

func TestValidateRejectsWrongHashType(t *testing.T) {
	fs := &data.UnixFSData{
		Type: data.Data_HAMTShard,
		HashType: 0x11, HasHashType: true,
		Fanout: 8, HasFanout: true,
	}
	err := hamt.Validate(fs)
	require.ErrorIs(t, err, hamt.ErrInvalidHashType)
}
