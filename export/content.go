package export

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/ipfs/go-unixfs-exporter/blockstore"
	"github.com/ipfs/go-unixfs-exporter/cidutil"
	"github.com/ipfs/go-unixfs-exporter/data"
	"github.com/ipfs/go-unixfs-exporter/hamt"
)

// linkFrame is one level of the file-content walker's explicit stack:
// the links still to process at that level, and a cursor into them.
// Keeping the cursor on the stack (rather than slicing the remainder
// into a new frame, as the original _walk_dag generator does) lets a
// single frame represent "everything still owed at this level" without
// reallocating on every descent.
type linkFrame struct {
	links []data.PBLink
	idx   int
}

// fileIterator reconstructs a FILE-typed UnixFS node's content as a
// lazy stream of byte chunks, walking the DAG depth-first with an
// explicit LIFO stack rather than recursion, so memory stays bounded
// by tree depth rather than file size. Grounded on
// original_source/py_unix_fs_exporter/content.py's _walk_dag, adapted
// from a Python generator to a Go pull iterator (spec §4.9).
type fileIterator struct {
	ctx  context.Context
	bs   blockstore.BlockStore
	root *data.PBNode
	fs   *data.UnixFSData

	expected  uint64
	totalRead uint64
	started   bool
	stack     []linkFrame
	err       error
}

func newFileIterator(ctx context.Context, bs blockstore.BlockStore, root *data.PBNode, fs *data.UnixFSData) *fileIterator {
	return &fileIterator{ctx: ctx, bs: bs, root: root, fs: fs, expected: fs.FileSize()}
}

func (it *fileIterator) Next() ([]byte, error) {
	if it.err != nil {
		return nil, it.err
	}
	if !it.started {
		it.started = true
		if len(it.fs.BlockSizes) != len(it.root.Links) {
			it.err = &Error{Kind: ContentExtractionError, Msg: "file root: len(block_sizes) != len(links)"}
			return nil, it.err
		}
		it.totalRead += uint64(len(it.fs.Data))
		if len(it.root.Links) > 0 {
			it.stack = append(it.stack, linkFrame{links: it.root.Links})
		}
		return it.fs.Data, nil
	}
	for {
		if len(it.stack) == 0 {
			if it.totalRead != it.expected {
				it.err = &Error{Kind: ContentExtractionError, Msg: fmt.Sprintf("file content totaled %d bytes, want %d", it.totalRead, it.expected)}
				return nil, it.err
			}
			it.err = io.EOF
			return nil, io.EOF
		}
		top := &it.stack[len(it.stack)-1]
		if top.idx >= len(top.links) {
			it.stack = it.stack[:len(it.stack)-1]
			continue
		}
		link := top.links[top.idx]
		top.idx++

		switch cidutil.Codec(link.Cid) {
		case cidutil.CodecRaw:
			block, err := it.bs.Get(it.ctx, link.Cid)
			if err != nil {
				it.err = errBlockNotFound(link.Cid, "", err)
				return nil, it.err
			}
			it.totalRead += uint64(len(block))
			return block, nil
		case cidutil.CodecDagPB:
			block, err := it.bs.Get(it.ctx, link.Cid)
			if err != nil {
				it.err = errBlockNotFound(link.Cid, "", err)
				return nil, it.err
			}
			childNode, err := data.DecodePBNode(block)
			if err != nil {
				it.err = &Error{Kind: StructuralError, Cid: link.Cid, Msg: err.Error()}
				return nil, it.err
			}
			if !childNode.HasData {
				it.err = &Error{Kind: StructuralError, Cid: link.Cid, Msg: "dag-pb node inside a file DAG has no Data field"}
				return nil, it.err
			}
			childFS, err := data.DecodeUnixFSData(childNode.Data)
			if err != nil {
				it.err = &Error{Kind: StructuralError, Cid: link.Cid, Msg: err.Error()}
				return nil, it.err
			}
			if len(childFS.BlockSizes) != len(childNode.Links) {
				it.err = &Error{Kind: ContentExtractionError, Cid: link.Cid, Msg: "len(block_sizes) != len(links)"}
				return nil, it.err
			}
			it.totalRead += uint64(len(childFS.Data))
			if len(childNode.Links) > 0 {
				it.stack = append(it.stack, linkFrame{links: childNode.Links})
			}
			return childFS.Data, nil
		default:
			it.err = &Error{Kind: TraversalError, Cid: link.Cid, Msg: fmt.Sprintf("unsupported codec 0x%x inside a file DAG", cidutil.Codec(link.Cid))}
			return nil, it.err
		}
	}
}

// plainDirIterator walks a plain DIRECTORY node's Links in on-disk
// order, resolving each child independently, per spec §4.7.
type plainDirIterator struct {
	ctx   context.Context
	bs    blockstore.BlockStore
	links []data.PBLink
	idx   int
	path  string
	depth int
	err   error
}

func newPlainDirIterator(ctx context.Context, bs blockstore.BlockStore, links []data.PBLink, path string, depth int) *plainDirIterator {
	return &plainDirIterator{ctx: ctx, bs: bs, links: links, path: path, depth: depth}
}

func (it *plainDirIterator) Next() (Exportable, error) {
	if it.err != nil {
		return Exportable{}, it.err
	}
	if it.idx >= len(it.links) {
		return Exportable{}, io.EOF
	}
	link := it.links[it.idx]
	it.idx++
	name := link.Name
	childPath := it.path + "/" + name
	res, err := Resolve(it.ctx, it.bs, link.Cid, name, childPath, nil, it.depth+1)
	if err != nil {
		it.err = err
		return Exportable{}, err
	}
	return res.Entry, nil
}

// hamtFrame mirrors linkFrame but walks one HAMT shard level.
type hamtFrame struct {
	links []data.PBLink
	idx   int
}

// hamtDirIterator performs the pre-order, stack-based traversal of a
// HAMT-sharded directory described by spec §4.10, yielding only the
// terminal (value) entries and transparently descending through
// intermediate shard nodes. Written as its own explicit-stack walker,
// rather than driving hamt.Enumerate's callback form, so the directory
// stream stays lazily pull-driven with no recursion and no goroutine,
// matching the single-threaded cooperative model of spec §5.
type hamtDirIterator struct {
	ctx    context.Context
	bs     blockstore.BlockStore
	path   string
	depth  int
	padLen int
	stack  []hamtFrame
	err    error
}

func newHamtDirIterator(ctx context.Context, bs blockstore.BlockStore, node *data.PBNode, fs *data.UnixFSData, path string, depth int) *hamtDirIterator {
	it := &hamtDirIterator{ctx: ctx, bs: bs, path: path, depth: depth}
	if err := hamt.Validate(fs); err != nil {
		kind := StructuralError
		if errors.Is(err, hamt.ErrNoFanout) {
			kind = ContentExtractionError
		}
		it.err = &Error{Kind: kind, Path: path, Msg: err.Error()}
		return it
	}
	it.padLen = hamt.PrefixLength(fs.Fanout)
	it.stack = []hamtFrame{{links: node.Links}}
	return it
}

func (it *hamtDirIterator) Next() (Exportable, error) {
	if it.err != nil {
		return Exportable{}, it.err
	}
	for {
		if len(it.stack) == 0 {
			return Exportable{}, io.EOF
		}
		top := &it.stack[len(it.stack)-1]
		if top.idx >= len(top.links) {
			it.stack = it.stack[:len(it.stack)-1]
			continue
		}
		link := top.links[top.idx]
		top.idx++

		if !link.HasName || len(link.Name) < it.padLen {
			it.err = &Error{Kind: StructuralError, Cid: link.Cid, Path: it.path, Msg: "HAMT link name shorter than the shard's prefix length"}
			return Exportable{}, it.err
		}
		name := link.Name[it.padLen:]
		if name != "" {
			childPath := it.path + "/" + name
			res, err := Resolve(it.ctx, it.bs, link.Cid, name, childPath, nil, it.depth+1)
			if err != nil {
				it.err = err
				return Exportable{}, err
			}
			return res.Entry, nil
		}

		block, err := it.bs.Get(it.ctx, link.Cid)
		if err != nil {
			it.err = errBlockNotFound(link.Cid, it.path, err)
			return Exportable{}, it.err
		}
		childNode, err := data.DecodePBNode(block)
		if err != nil {
			it.err = &Error{Kind: StructuralError, Cid: link.Cid, Path: it.path, Msg: err.Error()}
			return Exportable{}, it.err
		}
		if !childNode.HasData {
			it.err = &Error{Kind: StructuralError, Cid: link.Cid, Path: it.path, Msg: "HAMT shard node has no Data field"}
			return Exportable{}, it.err
		}
		childFS, err := data.DecodeUnixFSData(childNode.Data)
		if err != nil {
			it.err = &Error{Kind: StructuralError, Cid: link.Cid, Path: it.path, Msg: err.Error()}
			return Exportable{}, it.err
		}
		if err := hamt.Validate(childFS); err != nil {
			kind := StructuralError
			if errors.Is(err, hamt.ErrNoFanout) {
				kind = ContentExtractionError
			}
			it.err = &Error{Kind: kind, Cid: link.Cid, Path: it.path, Msg: err.Error()}
			return Exportable{}, it.err
		}
		it.stack = append(it.stack, hamtFrame{links: childNode.Links})
	}
}
