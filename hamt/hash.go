package hamt

import "github.com/spaolacci/murmur3"

// hash computes the low 64 bits of the 128-bit MurmurHash3 (x64 variant)
// of key, encoded big-endian, per spec §4.8/§9. spaolacci/murmur3's
// 64-bit hasher is exactly this truncation, matching the hash used by
// every writer-side UnixFS HAMT implementation in the wild.
func hash(key string) []byte {
	h := murmur3.New64()
	_, _ = h.Write([]byte(key))
	return h.Sum(nil)
}

// hashBits reads a byte slice as a stream of bits consumed from the most
// significant end, n bits at a time, per spec §4.8. Adapted from
// go-unixfsnode/hamt/util.go's hashBits (itself adapted from
// go-ipfs-unixfs/hamt/util.go).
type hashBits struct {
	b        []byte
	consumed int
}

func newHashBits(key string) *hashBits {
	return &hashBits{b: hash(key)}
}

func mkmask(n int) byte {
	return (1 << uint(n)) - 1
}

// next returns the next n bits (n <= 8) as an integer, or ErrTooDeep if
// the bitstream is exhausted.
func (hb *hashBits) next(n int) (int, error) {
	if hb.consumed+n > len(hb.b)*8 {
		return 0, ErrTooDeep
	}
	return hb.take(n), nil
}

// take walks the bitstream forward n bits at a time, byte by byte,
// accumulating each fragment into the low bits of out as it goes. A
// single bit position never spans more than one loop iteration's worth
// of a byte, so crossing a byte boundary just means the loop runs
// again against the next byte rather than needing a separate branch.
func (hb *hashBits) take(n int) int {
	var out int
	remaining := n
	for remaining > 0 {
		byteIdx := hb.consumed / 8
		bitOffset := hb.consumed % 8
		avail := 8 - bitOffset

		grab := remaining
		if grab > avail {
			grab = avail
		}
		shift := avail - grab
		chunk := (hb.b[byteIdx] >> uint(shift)) & mkmask(grab)

		out = out<<uint(grab) | int(chunk)
		hb.consumed += grab
		remaining -= grab
	}
	return out
}
