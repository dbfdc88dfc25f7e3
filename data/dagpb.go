package data

import (
	"github.com/ipfs/go-cid"
	"google.golang.org/protobuf/encoding/protowire"
)

// PBLink is one ordered entry in a PBNode's Links list, per spec §3.
type PBLink struct {
	Name    string
	HasName bool
	Tsize   uint64
	HasTsize bool
	Cid     cid.Cid
}

// PBNode is the decoded dag-pb envelope: an optional opaque payload plus
// an ordered sequence of links, per spec §3. Link order is preserved
// exactly as decoded — it is semantically significant (spec §3).
type PBNode struct {
	Data    []byte
	HasData bool
	Links   []PBLink
}

// DecodePBNode parses a dag-pb encoded block into a PBNode, preserving
// on-wire link order.
func DecodePBNode(raw []byte) (*PBNode, error) {
	out := &PBNode{}
	remaining := raw
	for len(remaining) != 0 {
		fieldNum, wireType, n := protowire.ConsumeTag(remaining)
		if n < 0 {
			return nil, ErrMalformedWire{"PBNode", "bad field tag"}
		}
		remaining = remaining[n:]

		switch fieldNum {
		case PBNode_DataWireNum:
			if wireType != protowire.BytesType {
				return nil, ErrWrongWireType{"PBNode", "Data", uint8(protowire.BytesType), uint8(wireType)}
			}
			v, n := protowire.ConsumeBytes(remaining)
			if n < 0 {
				return nil, ErrMalformedWire{"PBNode", "bad Data bytes"}
			}
			remaining = remaining[n:]
			out.Data = append([]byte(nil), v...)
			out.HasData = true
		case PBNode_LinksWireNum:
			if wireType != protowire.BytesType {
				return nil, ErrWrongWireType{"PBNode", "Links", uint8(protowire.BytesType), uint8(wireType)}
			}
			linkBytes, n := protowire.ConsumeBytes(remaining)
			if n < 0 {
				return nil, ErrMalformedWire{"PBNode", "bad Links message"}
			}
			remaining = remaining[n:]
			link, err := decodePBLink(linkBytes)
			if err != nil {
				return nil, err
			}
			out.Links = append(out.Links, link)
		default:
			n := protowire.ConsumeFieldValue(fieldNum, wireType, remaining)
			if n < 0 {
				return nil, ErrMalformedWire{"PBNode", "unknown field"}
			}
			remaining = remaining[n:]
		}
	}
	return out, nil
}

func decodePBLink(raw []byte) (PBLink, error) {
	var out PBLink
	var hashBytes []byte
	remaining := raw
	for len(remaining) != 0 {
		fieldNum, wireType, n := protowire.ConsumeTag(remaining)
		if n < 0 {
			return out, ErrMalformedWire{"PBLink", "bad field tag"}
		}
		remaining = remaining[n:]

		switch fieldNum {
		case PBLink_HashWireNum:
			if wireType != protowire.BytesType {
				return out, ErrWrongWireType{"PBLink", "Hash", uint8(protowire.BytesType), uint8(wireType)}
			}
			v, n := protowire.ConsumeBytes(remaining)
			if n < 0 {
				return out, ErrMalformedWire{"PBLink", "bad Hash bytes"}
			}
			remaining = remaining[n:]
			hashBytes = v
		case PBLink_NameWireNum:
			if wireType != protowire.BytesType {
				return out, ErrWrongWireType{"PBLink", "Name", uint8(protowire.BytesType), uint8(wireType)}
			}
			v, n := protowire.ConsumeBytes(remaining)
			if n < 0 {
				return out, ErrMalformedWire{"PBLink", "bad Name bytes"}
			}
			remaining = remaining[n:]
			out.Name = string(v)
			out.HasName = true
		case PBLink_TsizeWireNum:
			if wireType != protowire.VarintType {
				return out, ErrWrongWireType{"PBLink", "Tsize", uint8(protowire.VarintType), uint8(wireType)}
			}
			v, n := protowire.ConsumeVarint(remaining)
			if n < 0 {
				return out, ErrMalformedWire{"PBLink", "bad Tsize varint"}
			}
			remaining = remaining[n:]
			out.Tsize = v
			out.HasTsize = true
		default:
			n := protowire.ConsumeFieldValue(fieldNum, wireType, remaining)
			if n < 0 {
				return out, ErrMalformedWire{"PBLink", "unknown field"}
			}
			remaining = remaining[n:]
		}
	}
	if hashBytes == nil {
		return out, ErrMalformedWire{"PBLink", "missing required Hash field"}
	}
	c, err := cid.Cast(hashBytes)
	if err != nil {
		return out, ErrMalformedWire{"PBLink", "Hash is not a valid CID: " + err.Error()}
	}
	out.Cid = c
	return out, nil
}

// MarshalPBNode serializes n back to the dag-pb wire format. Only used by
// testutil fixture builders (the CORE is read-only).
func MarshalPBNode(n *PBNode) []byte {
	var out []byte
	if n.HasData || len(n.Data) > 0 {
		out = protowire.AppendTag(out, PBNode_DataWireNum, protowire.BytesType)
		out = protowire.AppendBytes(out, n.Data)
	}
	for _, link := range n.Links {
		var linkBytes []byte
		linkBytes = protowire.AppendTag(linkBytes, PBLink_HashWireNum, protowire.BytesType)
		linkBytes = protowire.AppendBytes(linkBytes, link.Cid.Bytes())
		if link.HasName {
			linkBytes = protowire.AppendTag(linkBytes, PBLink_NameWireNum, protowire.BytesType)
			linkBytes = protowire.AppendBytes(linkBytes, []byte(link.Name))
		}
		if link.HasTsize {
			linkBytes = protowire.AppendTag(linkBytes, PBLink_TsizeWireNum, protowire.VarintType)
			linkBytes = protowire.AppendVarint(linkBytes, link.Tsize)
		}
		out = protowire.AppendTag(out, PBNode_LinksWireNum, protowire.BytesType)
		out = protowire.AppendBytes(out, linkBytes)
	}
	return out
}
