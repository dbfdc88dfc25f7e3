// Package cidutil is the thin multiformats adapter described in spec
// §2/§4.12: it exposes the recognized multicodec codes and the handful
// of CID helpers the resolver needs, deferring all other CID/multihash
// concerns to github.com/ipfs/go-cid and github.com/multiformats/go-multihash.
package cidutil

import (
	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multicodec"
)

// The four multicodec codes the resolver dispatches on, per spec §4.2/§6.
const (
	CodecIdentity = uint64(multicodec.Identity)
	CodecRaw      = uint64(multicodec.Raw)
	CodecDagPB    = uint64(multicodec.DagPb)
	CodecDagCBOR  = uint64(multicodec.DagCbor)
)

// Key returns the canonical block-store key for c: its raw byte
// encoding, per spec §3 ("two CIDs are equal iff their canonical byte
// encodings are equal").
func Key(c cid.Cid) string {
	return string(c.Bytes())
}

// Codec returns the multicodec code of c.
func Codec(c cid.Cid) uint64 {
	return c.Prefix().Codec
}

// ParseCIDString decodes a base-encoded CID string (e.g. "bafy...",
// "Qm...").
func ParseCIDString(s string) (cid.Cid, error) {
	return cid.Decode(s)
}

// DecodeCIDBytes decodes a CID from its raw binary encoding.
func DecodeCIDBytes(b []byte) (cid.Cid, error) {
	return cid.Cast(b)
}
