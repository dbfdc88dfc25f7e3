package export

import (
	"context"
	"errors"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"

	"github.com/ipfs/go-unixfs-exporter/blockstore"
	"github.com/ipfs/go-unixfs-exporter/cidutil"
	"github.com/ipfs/go-unixfs-exporter/data"
	"github.com/ipfs/go-unixfs-exporter/hamt"
)

// NextHop is the unresolved remainder of a path after one resolve step,
// per spec §3: the next CID to fetch, the name/path it was reached
// under, and the path segments still to walk.
type NextHop struct {
	Cid       cid.Cid
	Name      string
	Path      string
	ToResolve []string
}

// ResolveResult is the outcome of one resolve step: the Exportable for
// the current node, plus the next hop if the path isn't fully consumed
// yet (nil once it is), per spec §3/§4.2.
type ResolveResult struct {
	Entry Exportable
	Next  *NextHop
}

type resolverFunc func(ctx context.Context, bs blockstore.BlockStore, c cid.Cid, name, path string, toResolve []string, depth int) (ResolveResult, error)

var resolvers = map[uint64]resolverFunc{
	cidutil.CodecDagPB:   resolveDagPB,
	cidutil.CodecRaw:     resolveRaw,
	cidutil.CodecDagCBOR: resolveDagCBOR,
	cidutil.CodecIdentity: resolveIdentity,
}

// Resolve dispatches c to its codec's resolver, per spec §4.2's table.
// An unrecognized codec is an UnsupportedCodec error, not a panic or a
// silent pass-through.
func Resolve(ctx context.Context, bs blockstore.BlockStore, c cid.Cid, name, path string, toResolve []string, depth int) (ResolveResult, error) {
	fn, ok := resolvers[cidutil.Codec(c)]
	if !ok {
		return ResolveResult{}, &Error{Kind: UnsupportedCodec, Cid: c, Path: path, Msg: "no resolver registered for this CID's codec"}
	}
	return fn(ctx, bs, c, name, path, toResolve, depth)
}

// resolveRaw implements spec §4.4: a raw-multicodec CID names its block
// bytes directly, with no further path to walk.
func resolveRaw(ctx context.Context, bs blockstore.BlockStore, c cid.Cid, name, path string, toResolve []string, depth int) (ResolveResult, error) {
	if len(toResolve) > 0 {
		return ResolveResult{}, errPathNotFound(c, path, toResolve[0])
	}
	block, err := bs.Get(ctx, c)
	if err != nil {
		return ResolveResult{}, errBlockNotFound(c, path, err)
	}
	entry := Exportable{
		Kind: KindRaw,
		Name: name, Path: path, Cid: c, Depth: depth,
		Size: uint64(len(block)),
		raw:  block,
		bs:   bs,
	}
	return ResolveResult{Entry: entry}, nil
}

// resolveIdentity implements spec §4.6: an identity-multicodec CID's
// block is the CID's own embedded multihash digest. No block-store
// lookup ever happens.
func resolveIdentity(_ context.Context, bs blockstore.BlockStore, c cid.Cid, name, path string, toResolve []string, depth int) (ResolveResult, error) {
	if len(toResolve) > 0 {
		return ResolveResult{}, errPathNotFound(c, path, toResolve[0])
	}
	dmh, err := multihash.Decode(c.Hash())
	if err != nil {
		return ResolveResult{}, &Error{Kind: StructuralError, Cid: c, Path: path, Msg: "identity CID multihash does not decode: " + err.Error()}
	}
	entry := Exportable{
		Kind: KindIdentity,
		Name: name, Path: path, Cid: c, Depth: depth,
		Size: uint64(len(dmh.Digest)),
		raw:  dmh.Digest,
		bs:   bs,
	}
	return ResolveResult{Entry: entry}, nil
}

// resolveDagCBOR implements spec §4.5: descend the decoded value tree
// one path segment at a time; crossing a CID-valued property yields a
// NextHop instead of continuing to descend locally.
func resolveDagCBOR(ctx context.Context, bs blockstore.BlockStore, c cid.Cid, name, path string, toResolve []string, depth int) (ResolveResult, error) {
	block, err := bs.Get(ctx, c)
	if err != nil {
		return ResolveResult{}, errBlockNotFound(c, path, err)
	}
	obj, err := data.DecodeCBORObject(block)
	if err != nil {
		return ResolveResult{}, &Error{Kind: StructuralError, Cid: c, Path: path, Msg: err.Error()}
	}

	cur := obj
	remaining := toResolve
	for len(remaining) > 0 {
		prop := remaining[0]
		m, ok := cur.(map[string]interface{})
		if !ok {
			return ResolveResult{}, errPathNotFound(c, path, prop)
		}
		val, present := m[prop]
		if !present {
			return ResolveResult{}, errPathNotFound(c, path, prop)
		}
		nextPath := path + "/" + prop
		if linkCid, ok := val.(cid.Cid); ok {
			entry := Exportable{
				Kind: KindObject,
				Name: name, Path: path, Cid: c, Depth: depth,
				Size: uint64(len(block)), Object: obj,
				bs: bs,
			}
			return ResolveResult{
				Entry: entry,
				Next:  &NextHop{Cid: linkCid, Name: prop, Path: nextPath, ToResolve: remaining[1:]},
			}, nil
		}
		cur = val
		path = nextPath
		remaining = remaining[1:]
	}

	entry := Exportable{
		Kind: KindObject,
		Name: name, Path: path, Cid: c, Depth: depth,
		Size: uint64(len(block)), Object: obj,
		bs: bs,
	}
	return ResolveResult{Entry: entry}, nil
}

// resolveDagPB implements spec §4.3: decode the dag-pb envelope and its
// embedded UnixFS payload, look up the next path segment (via the
// HAMT engine for a sharded directory, by linear name match otherwise
// — comparing against the path segment itself, not an enclosing
// variable, per the Open Question resolved in favor of matching the
// HAMT lookup's own semantics), and build the resulting Exportable.
func resolveDagPB(ctx context.Context, bs blockstore.BlockStore, c cid.Cid, name, path string, toResolve []string, depth int) (ResolveResult, error) {
	block, err := bs.Get(ctx, c)
	if err != nil {
		return ResolveResult{}, errBlockNotFound(c, path, err)
	}
	node, err := data.DecodePBNode(block)
	if err != nil {
		return ResolveResult{}, &Error{Kind: StructuralError, Cid: c, Path: path, Msg: err.Error()}
	}
	if !node.HasData {
		return ResolveResult{}, &Error{Kind: StructuralError, Cid: c, Path: path, Msg: "dag-pb node has no Data field, so it carries no UnixFS payload"}
	}
	fs, err := data.DecodeUnixFSData(node.Data)
	if err != nil {
		return ResolveResult{}, &Error{Kind: StructuralError, Cid: c, Path: path, Msg: err.Error()}
	}

	var next *NextHop
	if len(toResolve) > 0 {
		segment := toResolve[0]
		var childCid cid.Cid
		if fs.Type == data.Data_HAMTShard {
			childCid, err = hamt.Lookup(ctx, node, fs, segment, hamtLoader(bs))
			if err != nil {
				if hamt.NotFoundKey(err) {
					return ResolveResult{}, errPathNotFound(c, path, segment)
				}
				kind := StructuralError
				if errors.Is(err, hamt.ErrNoFanout) {
					kind = ContentExtractionError
				}
				return ResolveResult{}, &Error{Kind: kind, Cid: c, Path: path, Msg: err.Error()}
			}
		} else {
			found := false
			for _, link := range node.Links {
				if link.HasName && link.Name == segment {
					childCid = link.Cid
					found = true
					break
				}
			}
			if !found {
				return ResolveResult{}, errPathNotFound(c, path, segment)
			}
		}
		next = &NextHop{Cid: childCid, Name: segment, Path: path + "/" + segment, ToResolve: toResolve[1:]}
	}

	entry, err := buildDagPBExportable(c, name, path, depth, node, fs, bs)
	if err != nil {
		return ResolveResult{}, err
	}
	return ResolveResult{Entry: entry, Next: next}, nil
}

func buildDagPBExportable(c cid.Cid, name, path string, depth int, node *data.PBNode, fs *data.UnixFSData, bs blockstore.BlockStore) (Exportable, error) {
	if fs.IsDir() {
		return Exportable{
			Kind: KindDirectory,
			Name: name, Path: path, Cid: c, Depth: depth,
			Size: 0, Node: node, UnixFS: fs, bs: bs,
		}, nil
	}
	e := Exportable{
		Kind: KindFile,
		Name: name, Path: path, Cid: c, Depth: depth,
		Size: fs.FileSize(), Node: node, UnixFS: fs, bs: bs,
	}
	switch fs.Type {
	case data.Data_Symlink:
		e.Target = string(fs.Data)
	case data.Data_Metadata:
		e.Payload = fs.Data
	}
	return e, nil
}

// hamtLoader adapts a BlockStore into the hamt.Loader callback the HAMT
// engine uses to fetch and decode intermediate shard nodes.
func hamtLoader(bs blockstore.BlockStore) hamt.Loader {
	return func(ctx context.Context, c cid.Cid) (*data.PBNode, *data.UnixFSData, error) {
		block, err := bs.Get(ctx, c)
		if err != nil {
			return nil, nil, errBlockNotFound(c, "", err)
		}
		node, err := data.DecodePBNode(block)
		if err != nil {
			return nil, nil, &Error{Kind: StructuralError, Cid: c, Msg: err.Error()}
		}
		if !node.HasData {
			return nil, nil, &Error{Kind: StructuralError, Cid: c, Msg: "HAMT shard node has no Data field"}
		}
		fs, err := data.DecodeUnixFSData(node.Data)
		if err != nil {
			return nil, nil, &Error{Kind: StructuralError, Cid: c, Msg: err.Error()}
		}
		return node, fs, nil
	}
}
