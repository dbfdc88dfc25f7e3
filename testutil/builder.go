// Package testutil builds small, fully on-disk-faithful UnixFS fixtures
// directly against the data/hamt packages' wire encoders, rather than
// driving a full writer pipeline. Grounded on the shape of
// go-unixfsnode/testutil's generator.go (random file/directory trees
// stored through a LinkSystem), adapted here to build deterministic,
// hand-shaped trees against blockstore.MapStore so tests can pin exact
// byte layouts (unbalanced DAGs, HAMT collisions, edge-case link
// names) that a random generator would rarely produce.
package testutil

import (
	"sort"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"

	"github.com/ipfs/go-unixfs-exporter/blockstore"
	"github.com/ipfs/go-unixfs-exporter/cidutil"
	"github.com/ipfs/go-unixfs-exporter/data"
	"github.com/ipfs/go-unixfs-exporter/hamt"
)

// NewBlockStore returns a fresh in-memory block store for a test.
func NewBlockStore() *blockstore.MapStore {
	return blockstore.NewMapStore()
}

func codecCID(codec uint64, raw []byte) cid.Cid {
	mh, err := multihash.Sum(raw, multihash.SHA2_256, -1)
	if err != nil {
		panic(err)
	}
	return cid.NewCidV1(codec, mh)
}

// PutRawBlock stores content as a raw-multicodec block and returns its
// CID.
func PutRawBlock(bs *blockstore.MapStore, content []byte) cid.Cid {
	c := codecCID(cidutil.CodecRaw, content)
	bs.Put(c, content)
	return c
}

// IdentityCID returns an identity-multicodec CID whose embedded digest
// is content verbatim. No block is stored — resolveIdentity never
// looks one up.
func IdentityCID(content []byte) cid.Cid {
	mh, err := multihash.Sum(content, multihash.IDENTITY, -1)
	if err != nil {
		panic(err)
	}
	return cid.NewCidV1(cidutil.CodecIdentity, mh)
}

// PutDagPBNode marshals and stores a dag-pb node, returning its CID.
func PutDagPBNode(bs *blockstore.MapStore, node *data.PBNode) cid.Cid {
	raw := data.MarshalPBNode(node)
	c := codecCID(cidutil.CodecDagPB, raw)
	bs.Put(c, raw)
	return c
}

// PutDagCBOR marshals and stores a dag-cbor block, returning its CID.
func PutDagCBOR(bs *blockstore.MapStore, obj data.CBORObject) cid.Cid {
	raw := data.EncodeCBORObject(obj)
	c := codecCID(cidutil.CodecDagCBOR, raw)
	bs.Put(c, raw)
	return c
}

// unixFSNode marshals fs into a dag-pb node's Data field and stores the
// resulting node alongside links, returning (cid, tsize).
func unixFSNode(bs *blockstore.MapStore, fs *data.UnixFSData, links []data.PBLink) (cid.Cid, uint64) {
	node := &data.PBNode{
		Data:    data.MarshalUnixFSData(fs),
		HasData: true,
		Links:   links,
	}
	raw := data.MarshalPBNode(node)
	c := codecCID(cidutil.CodecDagPB, raw)
	bs.Put(c, raw)
	return c, uint64(len(raw))
}

// PutRawLeaf builds a RAW-typed UnixFS dag-pb leaf (content embedded
// directly in the node, no links), returning (cid, tsize).
func PutRawLeaf(bs *blockstore.MapStore, content []byte) (cid.Cid, uint64) {
	fs := &data.UnixFSData{Type: data.Data_Raw, Data: content}
	return unixFSNode(bs, fs, nil)
}

// FileChunk is one leaf of a file DAG: either raw content to embed in a
// dag-pb leaf node, or a pre-built link (for composing irregular,
// unbalanced trees by hand).
type FileChunk struct {
	Content []byte
	Link    *data.PBLink // when set, Content is ignored
	Size    uint64       // logical byte contribution when Link is set; ignored otherwise
}

// PutFile builds a FILE-typed UnixFS node from chunks, one link per
// chunk (a Content chunk becomes a RAW-typed dag-pb leaf; a chunk with
// Link set uses that link as given, e.g. a raw-multicodec leaf or a
// sub-tree), matching the balanced-or-not shape
// real unixfs writers produce. Passing a single chunk whose Link is nil
// and whose Content is the entire file builds a single-node file with
// no links at all.
func PutFile(bs *blockstore.MapStore, chunks []FileChunk) (cid.Cid, uint64) {
	if len(chunks) == 1 && chunks[0].Link == nil {
		content := chunks[0].Content
		fs := &data.UnixFSData{Type: data.Data_File, Data: content}
		return unixFSNode(bs, fs, nil)
	}
	var links []data.PBLink
	var blockSizes []uint64
	for _, ch := range chunks {
		if ch.Link != nil {
			links = append(links, *ch.Link)
			blockSizes = append(blockSizes, ch.Size)
			continue
		}
		leafCid, _ := PutRawLeaf(bs, ch.Content)
		links = append(links, data.PBLink{Cid: leafCid})
		blockSizes = append(blockSizes, uint64(len(ch.Content)))
	}
	fs := &data.UnixFSData{Type: data.Data_File, BlockSizes: blockSizes}
	return unixFSNode(bs, fs, links)
}

// PutRawCodecLeafLink builds a raw-multicodec block out of content and
// returns the PBLink a file node should carry to reference it, for
// composing file DAGs whose leaves are raw blocks rather than RAW-typed
// dag-pb nodes (spec §4.9 walks both shapes identically).
func PutRawCodecLeafLink(bs *blockstore.MapStore, content []byte) data.PBLink {
	c := PutRawBlock(bs, content)
	return data.PBLink{Cid: c, Tsize: uint64(len(content))}
}

// DirEntry is one named child to place in a plain or HAMT directory.
type DirEntry struct {
	Name string
	Cid  cid.Cid
	Size uint64
}

// PutDirectory builds a plain DIRECTORY node from entries, preserving
// the given order as on-wire link order (spec §3: link order is
// significant and is not required to be sorted).
func PutDirectory(bs *blockstore.MapStore, entries []DirEntry) (cid.Cid, uint64) {
	links := make([]data.PBLink, 0, len(entries))
	for _, e := range entries {
		links = append(links, data.PBLink{Name: e.Name, HasName: true, Tsize: e.Size, HasTsize: true, Cid: e.Cid})
	}
	fs := &data.UnixFSData{Type: data.Data_Directory}
	return unixFSNode(bs, fs, links)
}

// PutSymlink builds a SYMLINK-typed UnixFS node whose Data is the link
// target text.
func PutSymlink(bs *blockstore.MapStore, target string) (cid.Cid, uint64) {
	fs := &data.UnixFSData{Type: data.Data_Symlink, Data: []byte(target)}
	return unixFSNode(bs, fs, nil)
}

// PutMetadata builds a METADATA-typed UnixFS node carrying payload as
// its opaque Data.
func PutMetadata(bs *blockstore.MapStore, payload []byte) (cid.Cid, uint64) {
	fs := &data.UnixFSData{Type: data.Data_Metadata, Data: payload}
	return unixFSNode(bs, fs, nil)
}

// shardTree is an intermediate, in-memory representation of a HAMT
// shard level before it is materialized into stored blocks, keyed by
// occupied slot index.
type shardTree struct {
	slots map[int]interface{} // DirEntry (terminal) or *shardTree (nested)
}

func buildShardTree(entries []DirEntry, fanout uint64, level int) *shardTree {
	buckets := make(map[int][]DirEntry)
	for _, e := range entries {
		slot := hamt.SlotAtLevel(e.Name, level, fanout)
		buckets[slot] = append(buckets[slot], e)
	}
	t := &shardTree{slots: make(map[int]interface{}, len(buckets))}
	for slot, es := range buckets {
		if len(es) == 1 {
			t.slots[slot] = es[0]
		} else {
			t.slots[slot] = buildShardTree(es, fanout, level+1)
		}
	}
	return t
}

func putShardTree(bs *blockstore.MapStore, t *shardTree, fanout uint64, padLen int) (cid.Cid, uint64) {
	slotIdxs := make([]int, 0, len(t.slots))
	for idx := range t.slots {
		slotIdxs = append(slotIdxs, idx)
	}
	sort.Ints(slotIdxs)

	bitfieldBytes := make([]byte, (fanout+7)/8)
	links := make([]data.PBLink, 0, len(slotIdxs))
	for _, idx := range slotIdxs {
		bitfieldBytes[len(bitfieldBytes)-1-idx/8] |= 1 << uint(idx%8)
		prefix := hamt.Prefix(idx, padLen)
		switch v := t.slots[idx].(type) {
		case DirEntry:
			links = append(links, data.PBLink{
				Name: prefix + v.Name, HasName: true,
				Tsize: v.Size, HasTsize: true,
				Cid: v.Cid,
			})
		case *shardTree:
			childCid, childSize := putShardTree(bs, v, fanout, padLen)
			links = append(links, data.PBLink{
				Name: prefix, HasName: true,
				Tsize: childSize, HasTsize: true,
				Cid: childCid,
			})
		}
	}
	fs := &data.UnixFSData{
		Type: data.Data_HAMTShard,
		Data: bitfieldBytes,
		HashType: hamt.HashMurmur3, HasHashType: true,
		Fanout: fanout, HasFanout: true,
	}
	return unixFSNode(bs, fs, links)
}

// PutShardedDirectory builds a HAMT-sharded directory over entries at
// the given fanout (must be a power of two), descending into nested
// shards wherever two or more names collide in the same bucket at a
// level, exactly mirroring the read-side placement rule in
// hamt.SlotAtLevel. Useful both for ordinary sharded-directory fixtures
// and, with a small fanout and adversarial names, for exercising deep
// collision chains.
func PutShardedDirectory(bs *blockstore.MapStore, fanout uint64, entries []DirEntry) (cid.Cid, uint64) {
	padLen := hamt.PrefixLength(fanout)
	tree := buildShardTree(entries, fanout, 0)
	return putShardTree(bs, tree, fanout, padLen)
}
