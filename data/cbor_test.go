package data_test

import (
	"testing"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
	"github.com/stretchr/testify/require"

	"github.com/ipfs/go-unixfs-exporter/data"
)

func TestCBORRoundTripScalarsAndContainers(t *testing.T) {
	obj := map[string]interface{}{
		"name":  "hello",
		"count": uint64(42),
		"tags":  []interface{}{"a", "b"},
		"ok":    true,
		"empty": nil,
	}
	raw := data.EncodeCBORObject(obj)
	out, err := data.DecodeCBORObject(raw)
	require.NoError(t, err)

	m, ok := out.(map[string]interface{})
	require.True(t, ok)
	require.Equal(t, "hello", m["name"])
	require.Equal(t, uint64(42), m["count"])
	require.Equal(t, []interface{}{"a", "b"}, m["tags"])
	require.Equal(t, true, m["ok"])
	require.Nil(t, m["empty"])
}

func TestCBORTag42DecodesToCid(t *testing.T) {
	mh, err := multihash.Sum([]byte("linked"), multihash.SHA2_256, -1)
	require.NoError(t, err)
	linked := cid.NewCidV1(0x71, mh)

	obj := map[string]interface{}{"link": linked}
	raw := data.EncodeCBORObject(obj)
	out, err := data.DecodeCBORObject(raw)
	require.NoError(t, err)

	m := out.(map[string]interface{})
	gotCid, ok := m["link"].(cid.Cid)
	require.True(t, ok)
	require.True(t, gotCid.Equals(linked))
}

func TestCBORRejectsIndefiniteLength(t *testing.T) {
	// major type 2 (byte string) with additional-info 31 (indefinite).
	_, err := data.DecodeCBORObject([]byte{0x5f})
	require.Error(t, err)
}

func TestCBORRejectsNonStringMapKey(t *testing.T) {
	// a map with one entry whose key is the integer 1 (major type 0, arg 1)
	// rather than a text string.
	raw := []byte{0xa1, 0x01, 0x01}
	_, err := data.DecodeCBORObject(raw)
	require.Error(t, err)
}

func TestCBORRejectsTrailingBytes(t *testing.T) {
	raw := append(data.EncodeCBORObject("x"), 0x00)
	_, err := data.DecodeCBORObject(raw)
	require.Error(t, err)
}
