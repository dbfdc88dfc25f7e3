package export

import (
	"context"
	"io"

	"github.com/ipfs/go-cid"

	"github.com/ipfs/go-unixfs-exporter/blockstore"
)

// PathWalker drives the resolve loop of spec §4.1: starting from a
// parsed path, it repeatedly calls Resolve and follows each NextHop
// until the path is fully consumed. The starting depth (the initial
// segment count) is fixed for the whole walk and reused on every call,
// matching the reference walk's behavior of passing a single
// starting_depth through every hop rather than incrementing it per
// hop — depth only advances when a directory's content stream mints
// children (spec §4.7/§4.10), not while still resolving the path to
// the terminal node.
type PathWalker struct {
	ctx context.Context
	bs  blockstore.BlockStore

	cid       cid.Cid
	name      string
	path      string
	toResolve []string
	depth     int

	done bool
	err  error
}

// NewPathWalker parses input and prepares a walker over it, per spec
// §4.1/§6.
func NewPathWalker(ctx context.Context, bs blockstore.BlockStore, input interface{}) (*PathWalker, error) {
	c, toResolve, err := ParsePath(input)
	if err != nil {
		return nil, err
	}
	name := c.String()
	return &PathWalker{
		ctx: ctx, bs: bs,
		cid: c, name: name, path: name,
		toResolve: toResolve, depth: len(toResolve),
	}, nil
}

// Next performs one resolve step and follows its NextHop, returning
// io.EOF once the terminal Exportable has already been returned.
func (w *PathWalker) Next() (Exportable, error) {
	if w.done {
		return Exportable{}, io.EOF
	}
	if w.err != nil {
		return Exportable{}, w.err
	}
	res, err := Resolve(w.ctx, w.bs, w.cid, w.name, w.path, w.toResolve, w.depth)
	if err != nil {
		w.err = err
		return Exportable{}, err
	}
	if res.Next == nil {
		w.done = true
	} else {
		w.cid = res.Next.Cid
		w.name = res.Next.Name
		w.path = res.Next.Path
		w.toResolve = res.Next.ToResolve
	}
	return res.Entry, nil
}

// Exporter resolves input to its terminal Exportable, per spec §4.1.
// Intermediate hops are walked but discarded; only the last node the
// path names is returned.
func Exporter(ctx context.Context, bs blockstore.BlockStore, input interface{}) (Exportable, error) {
	w, err := NewPathWalker(ctx, bs, input)
	if err != nil {
		return Exportable{}, err
	}
	var last Exportable
	for {
		e, err := w.Next()
		if err == io.EOF {
			return last, nil
		}
		if err != nil {
			return Exportable{}, err
		}
		last = e
	}
}

// RecursiveWalker performs the depth-first pre-order enumeration spec
// §4.1 describes for recursive_exporter: the terminal Exportable
// first, then, if it is a directory, every descendant in pre-order.
// Non-directory descendants are yielded as leaves with no further
// expansion.
type RecursiveWalker struct {
	ctx context.Context

	root        *Exportable
	rootYielded bool
	stack       []DirEntries
	err         error
}

// NewRecursiveExporter resolves input and prepares a pre-order walker
// rooted at it.
func NewRecursiveExporter(ctx context.Context, bs blockstore.BlockStore, input interface{}) (*RecursiveWalker, error) {
	root, err := Exporter(ctx, bs, input)
	if err != nil {
		return nil, err
	}
	return &RecursiveWalker{ctx: ctx, root: &root}, nil
}

// Next returns the next Exportable in pre-order, or io.EOF once the
// whole tree rooted at the initial path has been visited.
func (w *RecursiveWalker) Next() (Exportable, error) {
	if w.err != nil {
		return Exportable{}, w.err
	}
	if !w.rootYielded {
		w.rootYielded = true
		if w.root.Kind == KindDirectory {
			entries, err := w.root.Entries(w.ctx)
			if err != nil {
				w.err = err
				return Exportable{}, err
			}
			w.stack = append(w.stack, entries)
		}
		return *w.root, nil
	}
	for len(w.stack) > 0 {
		top := w.stack[len(w.stack)-1]
		e, err := top.Next()
		if err == io.EOF {
			w.stack = w.stack[:len(w.stack)-1]
			continue
		}
		if err != nil {
			w.err = err
			return Exportable{}, err
		}
		if e.Kind == KindDirectory {
			childEntries, err := e.Entries(w.ctx)
			if err != nil {
				w.err = err
				return Exportable{}, err
			}
			w.stack = append(w.stack, childEntries)
		}
		return e, nil
	}
	return Exportable{}, io.EOF
}

// RecursiveExporter drains a RecursiveWalker rooted at input into a
// slice, for callers that want the whole pre-order listing at once.
func RecursiveExporter(ctx context.Context, bs blockstore.BlockStore, input interface{}) ([]Exportable, error) {
	w, err := NewRecursiveExporter(ctx, bs, input)
	if err != nil {
		return nil, err
	}
	var out []Exportable
	for {
		e, err := w.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
}
