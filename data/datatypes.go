package data

// The UnixFS node types carried in the Type field of the UnixFS protobuf
// message (UnixFSData.Type), per spec §3.
const (
	Data_Raw       int64 = 0
	Data_Directory int64 = 1
	Data_File      int64 = 2
	Data_Metadata  int64 = 3
	Data_Symlink   int64 = 4
	Data_HAMTShard int64 = 5
)

var fsTypeNames = map[int64]string{
	Data_Raw:       "Raw",
	Data_Directory: "Directory",
	Data_File:      "File",
	Data_Metadata:  "Metadata",
	Data_Symlink:   "Symlink",
	Data_HAMTShard: "HAMTShard",
}

func fsTypeName(t int64) string {
	if name, ok := fsTypeNames[t]; ok {
		return name
	}
	return "Unknown"
}

// ValidFSType reports whether t is one of the six recognized UnixFS node
// types.
func ValidFSType(t int64) bool {
	_, ok := fsTypeNames[t]
	return ok
}
