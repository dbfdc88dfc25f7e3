package export

import (
	"context"
	"io"

	"github.com/ipfs/go-cid"

	"github.com/ipfs/go-unixfs-exporter/blockstore"
	"github.com/ipfs/go-unixfs-exporter/data"
)

// Kind is the closed tag set for Exportable, per spec §3: the node
// carries a discriminator and a payload union gated by it, not a class
// hierarchy.
type Kind int

const (
	// KindFile covers every non-directory UnixFS node reached through a
	// dag-pb block: FILE, RAW (embedded), SYMLINK, and METADATA. The
	// concrete UnixFS type is on Exportable.UnixFS.Type.
	KindFile Kind = iota
	// KindDirectory covers both plain directories and HAMT shards; both
	// satisfy fs_type ∈ {DIRECTORY, HAMTSHARD}.
	KindDirectory
	// KindObject is a dag-cbor block, decoded to a Go value tree.
	KindObject
	// KindRaw is a raw-multicodec block: the block's bytes verbatim.
	KindRaw
	// KindIdentity is an identity-multicodec CID: the bytes are the
	// multihash digest itself, never fetched from the block store.
	KindIdentity
)

func (k Kind) String() string {
	switch k {
	case KindFile:
		return "File"
	case KindDirectory:
		return "Directory"
	case KindObject:
		return "Object"
	case KindRaw:
		return "Raw"
	case KindIdentity:
		return "Identity"
	default:
		return "Unknown"
	}
}

// Exportable is one resolved node along a walk: a shared header (Kind,
// Name, Path, Cid, Depth, Size) plus a payload gated by Kind, per spec
// §3's data model. Content is reached lazily through Bytes()/Entries(),
// never eagerly materialized at resolve time.
type Exportable struct {
	Kind  Kind
	Name  string
	Path  string
	Cid   cid.Cid
	Depth int
	Size  uint64

	// Node and UnixFS are populated for KindFile and KindDirectory.
	Node   *data.PBNode
	UnixFS *data.UnixFSData

	// Target holds the link text for a KindFile exportable whose
	// UnixFS.Type is data.Data_Symlink.
	Target string
	// Payload holds the opaque bytes for a KindFile exportable whose
	// UnixFS.Type is data.Data_Metadata.
	Payload []byte

	// Object is populated for KindObject: the decoded dag-cbor value
	// tree (data.CBORObject).
	Object data.CBORObject

	// raw holds the verbatim bytes for KindRaw and KindIdentity.
	raw []byte

	bs blockstore.BlockStore
}

// ByteChunks lazily yields the byte chunks making up a file's content.
// Next returns io.EOF (with a nil chunk) once the stream is exhausted.
type ByteChunks interface {
	Next() ([]byte, error)
}

// DirEntries lazily yields a directory's children in on-disk order.
// Next returns io.EOF once the stream is exhausted.
type DirEntries interface {
	Next() (Exportable, error)
}

// Bytes returns the lazy byte-chunk stream for a FILE-shaped exportable
// (KindFile with UnixFS.Type ∈ {Raw, File, Symlink, Metadata}, KindRaw,
// or KindIdentity), per spec §4.7/§4.9.
func (e Exportable) Bytes(ctx context.Context) (ByteChunks, error) {
	switch e.Kind {
	case KindRaw, KindIdentity:
		return &singleChunkIterator{chunk: e.raw}, nil
	case KindFile:
		switch e.UnixFS.Type {
		case data.Data_File:
			return newFileIterator(ctx, e.bs, e.Node, e.UnixFS), nil
		case data.Data_Raw:
			return &singleChunkIterator{chunk: e.UnixFS.Data}, nil
		case data.Data_Symlink, data.Data_Metadata:
			return &emptyChunkIterator{}, nil
		}
	}
	return nil, &Error{Kind: InputError, Cid: e.Cid, Path: e.Path, Msg: "Bytes() is not valid for a " + e.Kind.String() + " exportable"}
}

// Entries returns the lazy directory-entry stream for a KindDirectory
// exportable, dispatching to the plain link-list walk or the HAMT
// traversal depending on UnixFS.Type, per spec §4.7/§4.10.
func (e Exportable) Entries(ctx context.Context) (DirEntries, error) {
	if e.Kind != KindDirectory {
		return nil, &Error{Kind: InputError, Cid: e.Cid, Path: e.Path, Msg: "Entries() is not valid for a " + e.Kind.String() + " exportable"}
	}
	if e.UnixFS.Type == data.Data_HAMTShard {
		return newHamtDirIterator(ctx, e.bs, e.Node, e.UnixFS, e.Path, e.Depth), nil
	}
	return newPlainDirIterator(ctx, e.bs, e.Node.Links, e.Path, e.Depth), nil
}

// singleChunkIterator yields exactly one chunk (which may be empty),
// used for raw-multicodec blocks, identity CIDs, and RAW-typed UnixFS
// leaves.
type singleChunkIterator struct {
	chunk []byte
	done  bool
}

func (it *singleChunkIterator) Next() ([]byte, error) {
	if it.done {
		return nil, io.EOF
	}
	it.done = true
	return it.chunk, nil
}

// emptyChunkIterator yields nothing, used for SYMLINK and METADATA
// UnixFS leaves, whose payload is exposed via Target/Payload instead.
type emptyChunkIterator struct{}

func (it *emptyChunkIterator) Next() ([]byte, error) {
	return nil, io.EOF
}
