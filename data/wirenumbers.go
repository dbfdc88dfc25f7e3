package data

import "google.golang.org/protobuf/encoding/protowire"

// Field numbers for the dag-pb wire message (PBNode / PBLink), per the
// IPLD dag-pb spec.
const (
	PBLink_HashWireNum  protowire.Number = 1
	PBLink_NameWireNum  protowire.Number = 2
	PBLink_TsizeWireNum protowire.Number = 3

	PBNode_DataWireNum  protowire.Number = 1
	PBNode_LinksWireNum protowire.Number = 2
)

// Field numbers for the UnixFS Data message embedded in a dag-pb node's
// Data field.
const (
	Data_TypeWireNum       protowire.Number = 1
	Data_DataWireNum       protowire.Number = 2
	Data_FileSizeWireNum   protowire.Number = 3
	Data_BlockSizesWireNum protowire.Number = 4
	Data_HashTypeWireNum   protowire.Number = 5
	Data_FanoutWireNum     protowire.Number = 6
	Data_ModeWireNum       protowire.Number = 7
	Data_MtimeWireNum      protowire.Number = 8

	UnixTime_SecondsWireNum  protowire.Number = 1
	UnixTime_NanosWireNum    protowire.Number = 2
)
