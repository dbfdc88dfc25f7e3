package export_test

import (
	"testing"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
	"github.com/stretchr/testify/require"

	"github.com/ipfs/go-unixfs-exporter/export"
)

func testCID(t *testing.T, payload string) cid.Cid {
	t.Helper()
	mh, err := multihash.Sum([]byte(payload), multihash.SHA2_256, -1)
	require.NoError(t, err)
	return cid.NewCidV1(0x70, mh)
}

func TestParsePathBareCid(t *testing.T) {
	c := testCID(t, "root")
	gotCid, segs, err := export.ParsePath(c.String())
	require.NoError(t, err)
	require.True(t, gotCid.Equals(c))
	require.Empty(t, segs)
}

func TestParsePathCidValueDirectly(t *testing.T) {
	c := testCID(t, "root")
	gotCid, segs, err := export.ParsePath(c)
	require.NoError(t, err)
	require.True(t, gotCid.Equals(c))
	require.Empty(t, segs)
}

func TestParsePathBytesEncoding(t *testing.T) {
	c := testCID(t, "root")
	gotCid, segs, err := export.ParsePath(c.Bytes())
	require.NoError(t, err)
	require.True(t, gotCid.Equals(c))
	require.Empty(t, segs)
}

func TestParsePathStripsIpfsPrefix(t *testing.T) {
	c := testCID(t, "root")
	gotCid, segs, err := export.ParsePath("/ipfs/" + c.String() + "/a/b")
	require.NoError(t, err)
	require.True(t, gotCid.Equals(c))
	require.Equal(t, []string{"a", "b"}, segs)
}

func TestParsePathDropsEmptyComponents(t *testing.T) {
	c := testCID(t, "root")
	gotCid, segs, err := export.ParsePath(c.String() + "//a///b/")
	require.NoError(t, err)
	require.True(t, gotCid.Equals(c))
	require.Equal(t, []string{"a", "b"}, segs)
}

func TestParsePathEscapedSlashStaysInSegment(t *testing.T) {
	c := testCID(t, "root")
	gotCid, segs, err := export.ParsePath(c.String() + `/a\/b/c`)
	require.NoError(t, err)
	require.True(t, gotCid.Equals(c))
	require.Equal(t, []string{"a/b", "c"}, segs)
}

func TestParsePathStripsWhitespaceEverywhere(t *testing.T) {
	c := testCID(t, "root")
	gotCid, segs, err := export.ParsePath(" " + c.String() + " / a \t/ b\n")
	require.NoError(t, err)
	require.True(t, gotCid.Equals(c))
	require.Equal(t, []string{"a", "b"}, segs)
}

func TestParsePathRejectsInvalidRoot(t *testing.T) {
	_, _, err := export.ParsePath("not-a-cid/a/b")
	require.Error(t, err)
}

func TestParsePathRejectsEmptyPath(t *testing.T) {
	_, _, err := export.ParsePath("")
	require.Error(t, err)
}

func TestParsePathRejectsUnsupportedInputType(t *testing.T) {
	_, _, err := export.ParsePath(42)
	require.Error(t, err)
}
