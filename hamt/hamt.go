// Package hamt implements the lookup and enumeration half of the
// UnixFS hash-array-mapped-trie directory format (spec §4.8, §4.10):
// the same hash function and bucket layout the writer side used to
// build the tree, but read-only. Adapted from go-unixfsnode/hamt and
// go-ipfs-unixfs/hamt.
package hamt

import (
	"context"
	"fmt"
	"math/bits"

	bitfield "github.com/Stebalien/go-bitfield"
	"github.com/ipfs/go-cid"

	"github.com/ipfs/go-unixfs-exporter/data"
)

// HashMurmur3 is the multicodec identifier for Murmur3, the only hash
// function recognized for HAMT shards (spec §4.8).
const HashMurmur3 uint64 = 0x22

// Loader fetches the block for c and decodes it into a dag-pb node plus
// its UnixFS payload. The HAMT engine calls back into this for every
// intermediate shard it must descend through.
type Loader func(ctx context.Context, c cid.Cid) (*data.PBNode, *data.UnixFSData, error)

// Validate checks the structural invariants spec §3/§4.8 place on a
// HAMTSHARD node: Murmur3 hashing, and a power-of-two Fanout ≥ 2.
func Validate(fs *data.UnixFSData) error {
	if fs.Type != data.Data_HAMTShard {
		return ErrNotHAMTShard
	}
	if !fs.HasHashType || fs.HashType != HashMurmur3 {
		return ErrInvalidHashType
	}
	if !fs.HasFanout {
		return ErrNoFanout
	}
	if err := checkPowerOfTwo(fs.Fanout); err != nil {
		return err
	}
	return nil
}

func checkPowerOfTwo(v uint64) error {
	if v < 2 {
		return ErrFanoutNotPowerOfTwo
	}
	lg2 := bits.TrailingZeros64(v)
	if uint64(1)<<uint(lg2) != v {
		return ErrFanoutNotPowerOfTwo
	}
	return nil
}

// bitsPerLevel returns log2(fanout), the number of hash bits consumed at
// each shard level.
func bitsPerLevel(fanout uint64) int {
	return bits.TrailingZeros64(fanout)
}

// PrefixLength returns P, the number of uppercase hex digits used to
// encode a slot index at this fanout, per spec's Prefix definition in
// the GLOSSARY (`hex_digits(fanout - 1)`).
func PrefixLength(fanout uint64) int {
	return len(fmt.Sprintf("%X", fanout-1))
}

// Prefix renders slot index as the zero-padded uppercase hex string a
// writer stores ahead of a link's name at this fanout, per the GLOSSARY.
// Exported for shard-tree builders (testutil) that must reconstruct the
// exact link names a real writer would produce.
func Prefix(index int, padLen int) string {
	return fmt.Sprintf("%0*X", padLen, index)
}

func bitField(fs *data.UnixFSData) bitfield.Bitfield {
	// The bitfield is sized in whole bytes, so fanouts below 8 still get
	// the one byte their occupancy mask is stored in.
	bf := bitfield.NewBitfield(int((fs.Fanout + 7) / 8 * 8))
	bf.SetBytes(fs.Data)
	return bf
}

// childLink returns the link occupying slot childIndex in node, using
// the shard's occupancy bitmask (fs.Data) to map the slot to its
// position in the compacted Links array, mirroring
// go-unixfsnode/hamt/util.go's getChildLink.
func childLink(node *data.PBNode, fs *data.UnixFSData, childIndex int) (data.PBLink, bool) {
	bf := bitField(fs)
	if !bf.Bit(childIndex) {
		return data.PBLink{}, false
	}
	linkIndex := bf.OnesBefore(childIndex)
	if linkIndex < 0 || linkIndex >= len(node.Links) {
		return data.PBLink{}, false
	}
	return node.Links[linkIndex], true
}

// isValueLink reports whether link is a terminal entry (name longer
// than the prefix) as opposed to an intermediate sub-shard pointer
// (name exactly padLen characters), per spec §4.8.
func isValueLink(link data.PBLink, padLen int) (bool, error) {
	if !link.HasName {
		return false, ErrMissingLinkName
	}
	if len(link.Name) < padLen {
		return false, ErrInvalidLinkName{link.Name}
	}
	return len(link.Name) > padLen, nil
}

// Lookup resolves key within the HAMT shard rooted at (node, fs),
// descending through intermediate shards via load, per spec §4.8.
// Returns the bound CID, or a NotFound-flavored error if key is absent.
func Lookup(ctx context.Context, node *data.PBNode, fs *data.UnixFSData, key string, load Loader) (cid.Cid, error) {
	if err := Validate(fs); err != nil {
		return cid.Undef, err
	}
	bitsAtLevel := bitsPerLevel(fs.Fanout)
	hv := newHashBits(key)

	curNode, curFS := node, fs
	for {
		padLen := PrefixLength(curFS.Fanout)
		childIndex, err := hv.next(bitsAtLevel)
		if err != nil {
			return cid.Undef, err
		}
		link, ok := childLink(curNode, curFS, childIndex)
		if !ok {
			return cid.Undef, errNotFoundKey{key}
		}
		isValue, err := isValueLink(link, padLen)
		if err != nil {
			return cid.Undef, err
		}
		if isValue {
			if link.Name[padLen:] != key {
				return cid.Undef, errNotFoundKey{key}
			}
			return link.Cid, nil
		}
		childNode, childFS, err := load(ctx, link.Cid)
		if err != nil {
			return cid.Undef, err
		}
		if err := Validate(childFS); err != nil {
			return cid.Undef, err
		}
		curNode, curFS = childNode, childFS
	}
}

// SlotAtLevel returns the fanout-bucket index key maps to at the given
// zero-indexed shard level. Exported so shard-tree builders (testutil)
// can replicate the exact placement a real writer would produce,
// without duplicating the hash/bit-consumption logic.
func SlotAtLevel(key string, level int, fanout uint64) int {
	bitsAtLevel := bitsPerLevel(fanout)
	hv := newHashBits(key)
	for i := 0; i < level; i++ {
		if _, err := hv.next(bitsAtLevel); err != nil {
			panic("hamt: SlotAtLevel: hash bits exhausted before reaching level " + fmt.Sprint(level))
		}
	}
	idx, err := hv.next(bitsAtLevel)
	if err != nil {
		panic("hamt: SlotAtLevel: hash bits exhausted before reaching level " + fmt.Sprint(level))
	}
	return idx
}

type errNotFoundKey struct{ key string }

func (e errNotFoundKey) Error() string { return fmt.Sprintf("no HAMT entry for key %q", e.key) }

// NotFoundKey reports whether err is the "no such key" sentinel Lookup
// returns, distinguishing it from structural errors.
func NotFoundKey(err error) bool {
	_, ok := err.(errNotFoundKey)
	return ok
}

// Entry is one terminal (key, CID) pair produced by Enumerate, in the
// deterministic pre-order described by spec §4.10.
type Entry struct {
	Name string
	Cid  cid.Cid
}

// Enumerate performs the in-order, pre-order-across-shards traversal of
// spec §4.10, invoking visit for every terminal entry in on-disk link
// order. It does not decode the value nodes themselves — that is the
// content exporter's job (spec §4.7/§4.10).
func Enumerate(ctx context.Context, node *data.PBNode, fs *data.UnixFSData, load Loader, visit func(Entry) error) error {
	if err := Validate(fs); err != nil {
		return err
	}
	padLen := PrefixLength(fs.Fanout)
	for _, link := range node.Links {
		isValue, err := isValueLink(link, padLen)
		if err != nil {
			return err
		}
		if isValue {
			if err := visit(Entry{Name: link.Name[padLen:], Cid: link.Cid}); err != nil {
				return err
			}
			continue
		}
		childNode, childFS, err := load(ctx, link.Cid)
		if err != nil {
			return err
		}
		if err := Enumerate(ctx, childNode, childFS, load, visit); err != nil {
			return err
		}
	}
	return nil
}
