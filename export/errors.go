package export

import (
	"fmt"

	"github.com/ipfs/go-cid"
)

// ErrorKind is one of the six typed error kinds from spec §7.
type ErrorKind int

const (
	// InputError: malformed path, unparseable CID.
	InputError ErrorKind = iota
	// NotFound: missing block in the provider, or a path segment with no
	// matching link/key.
	NotFound
	// UnsupportedCodec: a CID codec outside {identity, raw, dag-pb, dag-cbor}.
	UnsupportedCodec
	// StructuralError: PBNode/UnixFS decode failure, inconsistent
	// block_sizes vs links, or an invalid HAMT fanout.
	StructuralError
	// ContentExtractionError: file byte stream total length disagrees
	// with the declared file_size, or a HAMT directory is missing its
	// fanout.
	ContentExtractionError
	// TraversalError: an unexpected codec encountered inside a file DAG.
	TraversalError
)

func (k ErrorKind) String() string {
	switch k {
	case InputError:
		return "InputError"
	case NotFound:
		return "NotFound"
	case UnsupportedCodec:
		return "UnsupportedCodec"
	case StructuralError:
		return "StructuralError"
	case ContentExtractionError:
		return "ContentExtractionError"
	case TraversalError:
		return "TraversalError"
	default:
		return "UnknownError"
	}
}

// Error is the single error type the CORE raises. Cid and Path hold the
// CID and path under inspection where the raising site has them and are
// left zero otherwise: ParsePath errors carry neither, errors from a
// file's byte stream carry no Path, and the root-level block_sizes check
// of that stream carries no Cid either.
type Error struct {
	Kind ErrorKind
	Cid  cid.Cid
	Path string
	Msg  string
}

func (e *Error) Error() string {
	if e.Cid.Defined() {
		return fmt.Sprintf("%s: %s (cid=%s path=%s)", e.Kind, e.Msg, e.Cid, e.Path)
	}
	return fmt.Sprintf("%s: %s (path=%s)", e.Kind, e.Msg, e.Path)
}

func errPathNotFound(c cid.Cid, path, segment string) error {
	return &Error{Kind: NotFound, Cid: c, Path: path, Msg: fmt.Sprintf("no link named %q found", segment)}
}

func errBlockNotFound(c cid.Cid, path string, cause error) error {
	return &Error{Kind: NotFound, Cid: c, Path: path, Msg: cause.Error()}
}
