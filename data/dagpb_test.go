package data_test

import (
	"testing"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
	"github.com/stretchr/testify/require"

	"github.com/ipfs/go-unixfs-exporter/data"
)

func testCID(t *testing.T, payload string) cid.Cid {
	t.Helper()
	mh, err := multihash.Sum([]byte(payload), multihash.SHA2_256, -1)
	require.NoError(t, err)
	return cid.NewCidV1(0x55, mh)
}

func TestPBNodeRoundTripPreservesLinkOrder(t *testing.T) {
	c1 := testCID(t, "one")
	c2 := testCID(t, "two")
	c3 := testCID(t, "three")

	in := &data.PBNode{
		Data:    []byte("payload"),
		HasData: true,
		Links: []data.PBLink{
			{Name: "zzz", HasName: true, Cid: c1},
			{Name: "aaa", HasName: true, Cid: c2},
			{Name: "mmm", HasName: true, Cid: c3},
		},
	}
	raw := data.MarshalPBNode(in)
	out, err := data.DecodePBNode(raw)
	require.NoError(t, err)
	require.Equal(t, []byte("payload"), out.Data)
	require.Len(t, out.Links, 3)
	require.Equal(t, "zzz", out.Links[0].Name)
	require.Equal(t, "aaa", out.Links[1].Name)
	require.Equal(t, "mmm", out.Links[2].Name)
	require.True(t, out.Links[0].Cid.Equals(c1))
}

func TestPBLinkMissingHashIsMalformed(t *testing.T) {
	node := &data.PBNode{Links: []data.PBLink{{Name: "x", HasName: true}}}
	// MarshalPBNode always writes the Hash field from link.Cid, so a link
	// with no Cid set comes out with an empty Hash rather than none; the
	// decoder's own validation must still reject it.
	raw := data.MarshalPBNode(node)
	_, err := data.DecodePBNode(raw)
	// an undefined cid.Cid marshals to an empty byte slice, which
	// cid.Cast rejects.
	require.Error(t, err)
}

func TestPBNodeWithNoData(t *testing.T) {
	c := testCID(t, "child")
	in := &data.PBNode{Links: []data.PBLink{{Cid: c}}}
	raw := data.MarshalPBNode(in)
	out, err := data.DecodePBNode(raw)
	require.NoError(t, err)
	require.False(t, out.HasData)
	require.Len(t, out.Links, 1)
}
