package hamt

import "fmt"

type errorType string

func (e errorType) Error() string { return string(e) }

const (
	// ErrNotHAMTShard indicates a UnixFS node was fed to the HAMT engine
	// but is not typed as a HAMTSHARD.
	ErrNotHAMTShard errorType = "node is not a HAMTShard"
	// ErrInvalidHashType indicates the shard's hash function is not the
	// Murmur3 variant this engine implements.
	ErrInvalidHashType errorType = "only murmur3 is supported as a HAMT hash function"
	// ErrNoFanout indicates a HAMTSHARD node is missing its Fanout field.
	ErrNoFanout errorType = "HAMTShard node has no Fanout field"
	// ErrFanoutNotPowerOfTwo indicates Fanout failed the power-of-two
	// check required by spec §3.
	ErrFanoutNotPowerOfTwo errorType = "HAMT fanout must be a power of two"
	// ErrTooDeep indicates the hash bitstream was exhausted before the
	// lookup converged — a malformed or adversarial shard tree.
	ErrTooDeep errorType = "sharded directory traversal exceeded hash bit budget"
	// ErrMissingLinkName indicates a link inside a shard node had no
	// Name, which every HAMT entry requires.
	ErrMissingLinkName errorType = "HAMT link is missing its Name field"
)

// ErrInvalidLinkName indicates a link's stored name was shorter than the
// shard's prefix length, so it cannot be decomposed into prefix+suffix.
type ErrInvalidLinkName struct {
	Name string
}

func (e ErrInvalidLinkName) Error() string {
	return fmt.Sprintf("HAMT link name %q is shorter than the shard's prefix length", e.Name)
}
