package export_test

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ipfs/go-unixfs-exporter/data"
	"github.com/ipfs/go-unixfs-exporter/export"
	"github.com/ipfs/go-unixfs-exporter/testutil"
)

func drainBytes(t *testing.T, chunks export.ByteChunks) []byte {
	t.Helper()
	var buf bytes.Buffer
	for {
		chunk, err := chunks.Next()
		if err == io.EOF {
			return buf.Bytes()
		}
		require.NoError(t, err)
		buf.Write(chunk)
	}
}

func TestFileContentSingleNodeRoundTrip(t *testing.T) {
	bs := testutil.NewBlockStore()
	fileCid, _ := testutil.PutFile(bs, []testutil.FileChunk{{Content: []byte("hello world")}})

	entry, err := export.Exporter(context.Background(), bs, fileCid)
	require.NoError(t, err)
	require.Equal(t, export.KindFile, entry.Kind)

	chunks, err := entry.Bytes(context.Background())
	require.NoError(t, err)
	require.Equal(t, []byte("hello world"), drainBytes(t, chunks))
}

func TestFileContentUnbalancedDagMixesLeafShapes(t *testing.T) {
	bs := testutil.NewBlockStore()

	// A deliberately unbalanced file: one raw-multicodec leaf referenced
	// through PutRawCodecLeafLink's hand-built link, one RAW-typed dag-pb
	// leaf, and a nested FILE sub-tree of its own.
	subCid, subSize := testutil.PutFile(bs, []testutil.FileChunk{
		{Content: []byte("nested-a")},
		{Content: []byte("nested-b")},
	})
	rawLeafCid, rawLeafSize := testutil.PutRawLeaf(bs, []byte("pb-raw-leaf"))
	rawCodecLink := testutil.PutRawCodecLeafLink(bs, []byte("raw-codec-leaf"))

	fileCid, _ := testutil.PutFile(bs, []testutil.FileChunk{
		{Content: []byte("raw-codec-leaf"), Link: &rawCodecLink, Size: uint64(len("raw-codec-leaf"))},
		{Link: &data.PBLink{Cid: rawLeafCid, Tsize: rawLeafSize}, Size: uint64(len("pb-raw-leaf"))},
		{Link: &data.PBLink{Cid: subCid, Tsize: subSize}, Size: uint64(len("nested-anested-b"))},
	})

	entry, err := export.Exporter(context.Background(), bs, fileCid)
	require.NoError(t, err)
	chunks, err := entry.Bytes(context.Background())
	require.NoError(t, err)
	got := drainBytes(t, chunks)
	require.Equal(t, "raw-codec-leafpb-raw-leafnested-anested-b", string(got))
}

func TestFileContentRootBlockSizesMismatchRaisesOnFirstAdvance(t *testing.T) {
	bs := testutil.NewBlockStore()
	leafCid, leafSize := testutil.PutRawLeaf(bs, []byte("leaf"))

	fileCid, _ := testutil.PutFile(bs, []testutil.FileChunk{
		{Link: &data.PBLink{Cid: leafCid, Tsize: leafSize}, Size: uint64(len("leaf"))},
	})

	entry, err := export.Exporter(context.Background(), bs, fileCid)
	require.NoError(t, err)

	// Corrupt the UnixFS payload the exportable already decoded so
	// block_sizes no longer matches the link count, simulating a
	// malformed root, then confirm the stream raises on its first
	// advance rather than at construction time.
	entry.UnixFS.BlockSizes = nil

	chunks, err := entry.Bytes(context.Background())
	require.NoError(t, err)
	_, err = chunks.Next()
	require.Error(t, err)
	var exportErr *export.Error
	require.ErrorAs(t, err, &exportErr)
	require.Equal(t, export.ContentExtractionError, exportErr.Kind)
}

func TestFileContentDeepChainBoundedStack(t *testing.T) {
	bs := testutil.NewBlockStore()
	leaf := []byte{0xDE, 0xAD, 0xBE, 0xEF, 0x01}
	curCid, curSize := testutil.PutRawLeaf(bs, leaf)

	// Ten thousand single-link dag-pb nodes, each wrapping the previous
	// one, so resolving the root walks a chain as deep as it is wide.
	// fileIterator's explicit stack should carry this without growing
	// past one frame per level rather than recursing into the Go stack.
	const chainDepth = 10000
	for i := 0; i < chainDepth; i++ {
		curCid, curSize = testutil.PutFile(bs, []testutil.FileChunk{
			{Link: &data.PBLink{Cid: curCid, Tsize: curSize}, Size: uint64(len(leaf))},
		})
	}

	entry, err := export.Exporter(context.Background(), bs, curCid)
	require.NoError(t, err)
	require.Equal(t, export.KindFile, entry.Kind)
	require.Equal(t, uint64(len(leaf)), entry.Size)

	chunks, err := entry.Bytes(context.Background())
	require.NoError(t, err)
	require.Equal(t, leaf, drainBytes(t, chunks))
}

func TestFileContentDeclaredSizeOverstatesLeafSum(t *testing.T) {
	bs := testutil.NewBlockStore()
	fileCid, _ := testutil.PutFile(bs, []testutil.FileChunk{
		{Content: []byte("AAAAA")},
		{Content: []byte("BBB")},
		{Content: []byte("CCCCCC")},
	})

	entry, err := export.Exporter(context.Background(), bs, fileCid)
	require.NoError(t, err)

	// Overstate the middle leaf's declared size by 5 without touching the
	// link count, so len(block_sizes) == len(links) still holds. This is
	// the declared-size mismatch, not the cardinality mismatch the test
	// above covers; the inflated total only surfaces once the stream runs
	// out of links to walk, not on the first advance.
	entry.UnixFS.BlockSizes[1] += 5

	chunks, err := entry.Bytes(context.Background())
	require.NoError(t, err)

	// The root node itself carries no Data payload in the multi-leaf
	// case, so the first chunk is empty; the three leaves stream
	// successfully before the shortfall surfaces at exhaustion.
	root, err := chunks.Next()
	require.NoError(t, err)
	require.Empty(t, root)
	first, err := chunks.Next()
	require.NoError(t, err)
	require.Equal(t, []byte("AAAAA"), first)
	second, err := chunks.Next()
	require.NoError(t, err)
	require.Equal(t, []byte("BBB"), second)
	third, err := chunks.Next()
	require.NoError(t, err)
	require.Equal(t, []byte("CCCCCC"), third)

	_, err = chunks.Next()
	require.Error(t, err)
	var exportErr *export.Error
	require.ErrorAs(t, err, &exportErr)
	require.Equal(t, export.ContentExtractionError, exportErr.Kind)
}

func TestFileContentZeroLengthFile(t *testing.T) {
	bs := testutil.NewBlockStore()
	fileCid, _ := testutil.PutFile(bs, []testutil.FileChunk{{Content: nil}})

	entry, err := export.Exporter(context.Background(), bs, fileCid)
	require.NoError(t, err)
	require.Equal(t, uint64(0), entry.Size)

	chunks, err := entry.Bytes(context.Background())
	require.NoError(t, err)
	require.Empty(t, drainBytes(t, chunks))
}

func TestPlainDirectoryEnumerationPreservesOrder(t *testing.T) {
	bs := testutil.NewBlockStore()
	aCid, aSize := testutil.PutFile(bs, []testutil.FileChunk{{Content: []byte("a")}})
	bCid, bSize := testutil.PutFile(bs, []testutil.FileChunk{{Content: []byte("b")}})
	dirCid, _ := testutil.PutDirectory(bs, []testutil.DirEntry{
		{Name: "zzz.txt", Cid: aCid, Size: aSize},
		{Name: "aaa.txt", Cid: bCid, Size: bSize},
	})

	entry, err := export.Exporter(context.Background(), bs, dirCid)
	require.NoError(t, err)
	require.Equal(t, export.KindDirectory, entry.Kind)

	entries, err := entry.Entries(context.Background())
	require.NoError(t, err)
	var names []string
	for {
		e, err := entries.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		names = append(names, e.Name)
	}
	require.Equal(t, []string{"zzz.txt", "aaa.txt"}, names)
}

func TestHamtDirectoryEnumerationYieldsEveryEntry(t *testing.T) {
	bs := testutil.NewBlockStore()
	names := []string{"alpha", "bravo", "charlie", "delta", "echo", "foxtrot"}
	entries := make([]testutil.DirEntry, 0, len(names))
	for _, n := range names {
		c, size := testutil.PutFile(bs, []testutil.FileChunk{{Content: []byte(n)}})
		entries = append(entries, testutil.DirEntry{Name: n, Cid: c, Size: size})
	}
	rootCid, _ := testutil.PutShardedDirectory(bs, 4, entries)

	entry, err := export.Exporter(context.Background(), bs, rootCid)
	require.NoError(t, err)
	require.Equal(t, export.KindDirectory, entry.Kind)
	require.Equal(t, data.Data_HAMTShard, entry.UnixFS.Type)

	dirEntries, err := entry.Entries(context.Background())
	require.NoError(t, err)
	seen := make(map[string]bool)
	for {
		e, err := dirEntries.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		seen[e.Name] = true
	}
	require.Len(t, seen, len(names))
	for _, n := range names {
		require.True(t, seen[n], "missing %s from enumeration", n)
	}
}
