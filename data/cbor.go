package data

import (
	"bytes"
	"fmt"

	"github.com/ipld/go-ipld-prime/codec/dagcbor"
	"github.com/ipld/go-ipld-prime/datamodel"
	cidlink "github.com/ipld/go-ipld-prime/linking/cid"
	"github.com/ipld/go-ipld-prime/node/basicnode"
)

// CBORObject is the decoded form of a dag-cbor block, scoped to the
// subset spec §4.5 actually needs to walk: maps, arrays, integers,
// strings, byte strings, and CID links (CBOR tag 42, the dag-cbor link
// encoding). Every map key is a text string, matching the dag-cbor data
// model used by UnixFS-adjacent metadata objects.
//
// Link values decode to a cid.Cid stored directly as the map/array
// element value (type cid.Cid), so callers can type-switch on it without
// unwrapping a tag wrapper.
type CBORObject = interface{}

// DecodeCBORObject decodes a dag-cbor encoded block into nested Go
// values (map[string]interface{}, []interface{}, string, []byte, int64,
// uint64, float64, bool, nil, cid.Cid), using go-ipld-prime's dagcbor
// codec against the basicnode.Prototype.Any builder and converting the
// resulting datamodel.Node into that shape immediately afterward.
func DecodeCBORObject(src []byte) (CBORObject, error) {
	nb := basicnode.Prototype.Any.NewBuilder()
	r := bytes.NewReader(src)
	if err := dagcbor.Decode(nb, r); err != nil {
		return nil, ErrMalformedWire{"dag-cbor", err.Error()}
	}
	if r.Len() != 0 {
		return nil, ErrMalformedWire{"dag-cbor", "trailing bytes after top-level value"}
	}
	return nodeToCBORObject(nb.Build())
}

// nodeToCBORObject walks a decoded datamodel.Node into the CBORObject
// shape this package's callers expect. Integers come back as int64 for
// AsInt regardless of sign; non-negative values are widened to uint64
// to match the sign-aware major-type split dag-cbor itself encodes
// (major type 0 for non-negative, major type 1 for negative).
func nodeToCBORObject(n datamodel.Node) (CBORObject, error) {
	switch n.Kind() {
	case datamodel.Kind_Null:
		return nil, nil
	case datamodel.Kind_Bool:
		return n.AsBool()
	case datamodel.Kind_Int:
		v, err := n.AsInt()
		if err != nil {
			return nil, err
		}
		if v >= 0 {
			return uint64(v), nil
		}
		return v, nil
	case datamodel.Kind_Float:
		return n.AsFloat()
	case datamodel.Kind_String:
		return n.AsString()
	case datamodel.Kind_Bytes:
		return n.AsBytes()
	case datamodel.Kind_Link:
		lnk, err := n.AsLink()
		if err != nil {
			return nil, err
		}
		cl, ok := lnk.(cidlink.Link)
		if !ok {
			return nil, ErrMalformedWire{"dag-cbor", fmt.Sprintf("link is not a CID link: %T", lnk)}
		}
		return cl.Cid, nil
	case datamodel.Kind_List:
		out := make([]interface{}, 0, n.Length())
		for itr := n.ListIterator(); !itr.Done(); {
			_, v, err := itr.Next()
			if err != nil {
				return nil, err
			}
			cv, err := nodeToCBORObject(v)
			if err != nil {
				return nil, err
			}
			out = append(out, cv)
		}
		return out, nil
	case datamodel.Kind_Map:
		out := make(map[string]interface{}, n.Length())
		for itr := n.MapIterator(); !itr.Done(); {
			k, v, err := itr.Next()
			if err != nil {
				return nil, err
			}
			ks, err := k.AsString()
			if err != nil {
				return nil, ErrMalformedWire{"dag-cbor", "map key is not a text string"}
			}
			cv, err := nodeToCBORObject(v)
			if err != nil {
				return nil, err
			}
			out[ks] = cv
		}
		return out, nil
	default:
		return nil, ErrMalformedWire{"dag-cbor", fmt.Sprintf("unsupported node kind %v", n.Kind())}
	}
}
