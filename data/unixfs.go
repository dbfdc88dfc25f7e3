// Package data decodes the two protobuf payloads that make up a UnixFS
// node on disk: the outer dag-pb envelope (PBNode/PBLink) and the UnixFS
// message carried in its Data field. Both are hand-decoded directly off
// google.golang.org/protobuf/encoding/protowire, the same technique
// go-unixfsnode's data/unmarshal.go uses to avoid depending on a
// generated .pb.go for a message this small.
package data

import (
	"math"

	"google.golang.org/protobuf/encoding/protowire"
)

// MTime is the optional modification time carried by a UnixFS node.
type MTime struct {
	Seconds  int64
	Nanos    uint32
	HasNanos bool
}

// UnixFSData is the decoded form of the protobuf message stored in a
// dag-pb node's Data field, per spec §3 and §6.
type UnixFSData struct {
	Type        int64
	Data        []byte
	HasFileSize bool
	DeclaredSize uint64
	BlockSizes  []uint64
	HashType    uint64
	HasHashType bool
	Fanout      uint64
	HasFanout   bool
	ModeValue   uint32
	HasMode     bool
	MTimeValue  MTime
	HasMTime    bool
}

// IsDir reports whether the node is one of the two directory-shaped
// UnixFS types (spec §3's `fs_type ∈ {DIRECTORY, HAMTSHARD}`).
func (u *UnixFSData) IsDir() bool {
	return u.Type == Data_Directory || u.Type == Data_HAMTShard
}

// FileSize implements the file_size invariant from spec §3: zero for
// directories, otherwise len(Data) + sum(BlockSizes).
func (u *UnixFSData) FileSize() uint64 {
	if u.IsDir() {
		return 0
	}
	total := uint64(len(u.Data))
	for _, sz := range u.BlockSizes {
		total += sz
	}
	return total
}

// DecodeUnixFSData parses the UnixFS protobuf message embedded in a
// dag-pb node's Data field.
func DecodeUnixFSData(src []byte) (*UnixFSData, error) {
	out := &UnixFSData{Type: -1}
	remaining := src
	for len(remaining) != 0 {
		fieldNum, wireType, n := protowire.ConsumeTag(remaining)
		if n < 0 {
			return nil, ErrMalformedWire{"UnixFSData", "bad field tag"}
		}
		remaining = remaining[n:]

		switch fieldNum {
		case Data_TypeWireNum:
			if wireType != protowire.VarintType {
				return nil, ErrWrongWireType{"UnixFSData", "Type", uint8(protowire.VarintType), uint8(wireType)}
			}
			v, n := protowire.ConsumeVarint(remaining)
			if n < 0 {
				return nil, ErrMalformedWire{"UnixFSData", "bad Type varint"}
			}
			remaining = remaining[n:]
			out.Type = int64(v)
		case Data_DataWireNum:
			if wireType != protowire.BytesType {
				return nil, ErrWrongWireType{"UnixFSData", "Data", uint8(protowire.BytesType), uint8(wireType)}
			}
			v, n := protowire.ConsumeBytes(remaining)
			if n < 0 {
				return nil, ErrMalformedWire{"UnixFSData", "bad Data bytes"}
			}
			remaining = remaining[n:]
			out.Data = append([]byte(nil), v...)
		case Data_FileSizeWireNum:
			if wireType != protowire.VarintType {
				return nil, ErrWrongWireType{"UnixFSData", "FileSize", uint8(protowire.VarintType), uint8(wireType)}
			}
			v, n := protowire.ConsumeVarint(remaining)
			if n < 0 {
				return nil, ErrMalformedWire{"UnixFSData", "bad FileSize varint"}
			}
			remaining = remaining[n:]
			out.HasFileSize = true
			out.DeclaredSize = v
		case Data_BlockSizesWireNum:
			switch wireType {
			case protowire.VarintType:
				v, n := protowire.ConsumeVarint(remaining)
				if n < 0 {
					return nil, ErrMalformedWire{"UnixFSData", "bad blocksizes varint"}
				}
				remaining = remaining[n:]
				out.BlockSizes = append(out.BlockSizes, v)
			case protowire.BytesType:
				// packed repeated field: a length-delimited run of varints.
				packed, n := protowire.ConsumeBytes(remaining)
				if n < 0 {
					return nil, ErrMalformedWire{"UnixFSData", "bad packed blocksizes"}
				}
				remaining = remaining[n:]
				for len(packed) > 0 {
					v, n := protowire.ConsumeVarint(packed)
					if n < 0 {
						return nil, ErrMalformedWire{"UnixFSData", "bad packed blocksize entry"}
					}
					packed = packed[n:]
					out.BlockSizes = append(out.BlockSizes, v)
				}
			default:
				return nil, ErrWrongWireType{"UnixFSData", "BlockSizes", uint8(protowire.VarintType), uint8(wireType)}
			}
		case Data_HashTypeWireNum:
			if wireType != protowire.VarintType {
				return nil, ErrWrongWireType{"UnixFSData", "HashType", uint8(protowire.VarintType), uint8(wireType)}
			}
			v, n := protowire.ConsumeVarint(remaining)
			if n < 0 {
				return nil, ErrMalformedWire{"UnixFSData", "bad HashType varint"}
			}
			remaining = remaining[n:]
			out.HasHashType = true
			out.HashType = v
		case Data_FanoutWireNum:
			if wireType != protowire.VarintType {
				return nil, ErrWrongWireType{"UnixFSData", "Fanout", uint8(protowire.VarintType), uint8(wireType)}
			}
			v, n := protowire.ConsumeVarint(remaining)
			if n < 0 {
				return nil, ErrMalformedWire{"UnixFSData", "bad Fanout varint"}
			}
			remaining = remaining[n:]
			out.HasFanout = true
			out.Fanout = v
		case Data_ModeWireNum:
			if wireType != protowire.VarintType {
				return nil, ErrWrongWireType{"UnixFSData", "Mode", uint8(protowire.VarintType), uint8(wireType)}
			}
			v, n := protowire.ConsumeVarint(remaining)
			if n < 0 {
				return nil, ErrMalformedWire{"UnixFSData", "bad Mode varint"}
			}
			if v > math.MaxUint32 {
				return nil, ErrMalformedWire{"UnixFSData", "Mode overflows 32 bits"}
			}
			remaining = remaining[n:]
			out.HasMode = true
			out.ModeValue = uint32(v)
		case Data_MtimeWireNum:
			if wireType != protowire.BytesType {
				return nil, ErrWrongWireType{"UnixFSData", "Mtime", uint8(protowire.BytesType), uint8(wireType)}
			}
			mtBytes, n := protowire.ConsumeBytes(remaining)
			if n < 0 {
				return nil, ErrMalformedWire{"UnixFSData", "bad Mtime bytes"}
			}
			remaining = remaining[n:]
			mt, err := decodeMTime(mtBytes)
			if err != nil {
				return nil, err
			}
			out.HasMTime = true
			out.MTimeValue = mt
		default:
			n := protowire.ConsumeFieldValue(fieldNum, wireType, remaining)
			if n < 0 {
				return nil, ErrMalformedWire{"UnixFSData", "unknown field"}
			}
			remaining = remaining[n:]
		}
	}
	if out.Type == -1 {
		return nil, ErrMalformedWire{"UnixFSData", "missing required Type field"}
	}
	if !ValidFSType(out.Type) {
		return nil, ErrInvalidDataType{out.Type}
	}
	return out, nil
}

func decodeMTime(src []byte) (MTime, error) {
	var mt MTime
	remaining := src
	for len(remaining) != 0 {
		fieldNum, wireType, n := protowire.ConsumeTag(remaining)
		if n < 0 {
			return mt, ErrMalformedWire{"UnixTime", "bad field tag"}
		}
		remaining = remaining[n:]
		switch fieldNum {
		case UnixTime_SecondsWireNum:
			if wireType != protowire.VarintType {
				return mt, ErrWrongWireType{"UnixTime", "Seconds", uint8(protowire.VarintType), uint8(wireType)}
			}
			v, n := protowire.ConsumeVarint(remaining)
			if n < 0 {
				return mt, ErrMalformedWire{"UnixTime", "bad Seconds varint"}
			}
			remaining = remaining[n:]
			mt.Seconds = int64(v)
		case UnixTime_NanosWireNum:
			if wireType != protowire.Fixed32Type {
				return mt, ErrWrongWireType{"UnixTime", "FractionalNanoseconds", uint8(protowire.Fixed32Type), uint8(wireType)}
			}
			v, n := protowire.ConsumeFixed32(remaining)
			if n < 0 {
				return mt, ErrMalformedWire{"UnixTime", "bad nanos"}
			}
			remaining = remaining[n:]
			mt.Nanos = v
			mt.HasNanos = true
		default:
			n := protowire.ConsumeFieldValue(fieldNum, wireType, remaining)
			if n < 0 {
				return mt, ErrMalformedWire{"UnixTime", "unknown field"}
			}
			remaining = remaining[n:]
		}
	}
	return mt, nil
}

// MarshalUnixFSData serializes u back to the UnixFS wire format. It is
// used only by testutil fixture builders in this module — the CORE is
// read-only, per spec §1's non-goals.
func MarshalUnixFSData(u *UnixFSData) []byte {
	var out []byte
	out = protowire.AppendTag(out, Data_TypeWireNum, protowire.VarintType)
	out = protowire.AppendVarint(out, uint64(u.Type))
	if len(u.Data) > 0 || u.Type == Data_Raw || u.Type == Data_File {
		out = protowire.AppendTag(out, Data_DataWireNum, protowire.BytesType)
		out = protowire.AppendBytes(out, u.Data)
	}
	out = protowire.AppendTag(out, Data_FileSizeWireNum, protowire.VarintType)
	out = protowire.AppendVarint(out, u.FileSize())
	for _, sz := range u.BlockSizes {
		out = protowire.AppendTag(out, Data_BlockSizesWireNum, protowire.VarintType)
		out = protowire.AppendVarint(out, sz)
	}
	if u.HasHashType {
		out = protowire.AppendTag(out, Data_HashTypeWireNum, protowire.VarintType)
		out = protowire.AppendVarint(out, u.HashType)
	}
	if u.HasFanout {
		out = protowire.AppendTag(out, Data_FanoutWireNum, protowire.VarintType)
		out = protowire.AppendVarint(out, u.Fanout)
	}
	if u.HasMode {
		out = protowire.AppendTag(out, Data_ModeWireNum, protowire.VarintType)
		out = protowire.AppendVarint(out, uint64(u.ModeValue))
	}
	return out
}
