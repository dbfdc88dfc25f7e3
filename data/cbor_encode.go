package data

import (
	"bytes"
	"fmt"
	"math"

	"github.com/ipfs/go-cid"
	"github.com/ipld/go-ipld-prime/codec/dagcbor"
	"github.com/ipld/go-ipld-prime/datamodel"
	cidlink "github.com/ipld/go-ipld-prime/linking/cid"
	"github.com/ipld/go-ipld-prime/node/basicnode"
)

// EncodeCBORObject serializes v back to dag-cbor bytes, via the same
// dagcbor codec DecodeCBORObject reads with. It exists only for testutil
// fixture builders; nothing else in this module encodes dag-cbor. v
// must be built from the same value set DecodeCBORObject produces:
// map[string]interface{}, []interface{}, string, []byte,
// int/int64/uint64, bool, nil, cid.Cid. Map key ordering is the dagcbor
// codec's own concern; assignCBORObject doesn't sort.
func EncodeCBORObject(v CBORObject) []byte {
	nb := basicnode.Prototype.Any.NewBuilder()
	if err := assignCBORObject(nb, v); err != nil {
		panic(err)
	}
	var buf bytes.Buffer
	if err := dagcbor.Encode(nb.Build(), &buf); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

func assignCBORObject(na datamodel.NodeAssembler, v CBORObject) error {
	switch x := v.(type) {
	case nil:
		return na.AssignNull()
	case bool:
		return na.AssignBool(x)
	case int:
		return na.AssignInt(int64(x))
	case int64:
		return na.AssignInt(x)
	case uint64:
		if x > math.MaxInt64 {
			return ErrMalformedWire{"dag-cbor", "integer too large to encode through datamodel.Node's int64 AsInt"}
		}
		return na.AssignInt(int64(x))
	case float64:
		return na.AssignFloat(x)
	case string:
		return na.AssignString(x)
	case []byte:
		return na.AssignBytes(x)
	case cid.Cid:
		return na.AssignLink(cidlink.Link{Cid: x})
	case []interface{}:
		la, err := na.BeginList(int64(len(x)))
		if err != nil {
			return err
		}
		for _, elem := range x {
			if err := assignCBORObject(la.AssembleValue(), elem); err != nil {
				return err
			}
		}
		return la.Finish()
	case map[string]interface{}:
		ma, err := na.BeginMap(int64(len(x)))
		if err != nil {
			return err
		}
		for k, val := range x {
			if err := ma.AssembleKey().AssignString(k); err != nil {
				return err
			}
			if err := assignCBORObject(ma.AssembleValue(), val); err != nil {
				return err
			}
		}
		return ma.Finish()
	default:
		return ErrMalformedWire{"dag-cbor", fmt.Sprintf("unsupported value type %T for encoding", v)}
	}
}
