package export

import (
	"strings"

	"github.com/ipfs/go-cid"

	"github.com/ipfs/go-unixfs-exporter/cidutil"
)

// ParsePath accepts the three input shapes spec §4.1/§6 allow: a
// cid.Cid directly, a CID's raw binary encoding ([]byte), or a path
// string (bare CID, "/ipfs/<cid>/a/b", or "<cid>/a/b"). It returns the
// root CID and the path segments still to walk.
func ParsePath(input interface{}) (cid.Cid, []string, error) {
	switch v := input.(type) {
	case cid.Cid:
		return v, nil, nil
	case []byte:
		c, err := cidutil.DecodeCIDBytes(v)
		if err != nil {
			return cid.Undef, nil, &Error{Kind: InputError, Msg: "not a valid CID byte encoding: " + err.Error()}
		}
		return c, nil, nil
	case string:
		return parsePathString(v)
	default:
		return cid.Undef, nil, &Error{Kind: InputError, Msg: "path must be a cid.Cid, []byte, or string"}
	}
}

func parsePathString(s string) (cid.Cid, []string, error) {
	stripped := stripWhitespace(s)
	if stripped == "" {
		return cid.Undef, nil, &Error{Kind: InputError, Msg: "empty path"}
	}
	if c, err := cidutil.ParseCIDString(stripped); err == nil {
		return c, nil, nil
	}
	trimmed := strings.TrimPrefix(stripped, "/ipfs/")
	segments := tokenizePath(trimmed)
	if len(segments) == 0 {
		return cid.Undef, nil, &Error{Kind: InputError, Msg: "empty path"}
	}
	c, err := cidutil.ParseCIDString(segments[0])
	if err != nil {
		return cid.Undef, nil, &Error{Kind: InputError, Msg: "path does not start with a valid CID: " + err.Error()}
	}
	return c, segments[1:], nil
}

// stripWhitespace removes every whitespace character anywhere in s,
// matching the original exporter's ''.join(path.split()) normalization
// rather than just trimming the ends.
func stripWhitespace(s string) string {
	return strings.Join(strings.Fields(s), "")
}

// tokenizePath splits s on unescaped '/', dropping empty components and
// unescaping "\/" to a literal '/' within a segment, so a directory
// entry whose stored name contains a slash can still be addressed by
// path, per spec §6's escaped-slash path syntax.
func tokenizePath(s string) []string {
	var segments []string
	var cur strings.Builder
	runes := []rune(s)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r == '\\' && i+1 < len(runes) && runes[i+1] == '/' {
			cur.WriteRune('/')
			i++
			continue
		}
		if r == '/' {
			if cur.Len() > 0 {
				segments = append(segments, cur.String())
				cur.Reset()
			}
			continue
		}
		cur.WriteRune(r)
	}
	if cur.Len() > 0 {
		segments = append(segments, cur.String())
	}
	return segments
}
