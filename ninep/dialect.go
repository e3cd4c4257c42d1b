package ninep

import "strings"

// A Dialect is one of the negotiated 9P protocol variants. It is fixed for
// the lifetime of a session and never consulted per-message after
// negotiation, only to pick which request types an operation emits.
type Dialect int

const (
	Dialect9P2000 Dialect = iota // base protocol
	Dialect9P2000u               // Unix extension: numeric owners, errno on Rerror
	Dialect9P2000L               // Linux extension: replaced open/create/attr/dir ops
)

const (
	VERSION_9P2000  = "9P2000"
	VERSION_9P2000U = "9P2000.u"
	VERSION_9P2000L = "9P2000.L"
)

func (d Dialect) String() string {
	switch d {
	case Dialect9P2000u:
		return VERSION_9P2000U
	case Dialect9P2000L:
		return VERSION_9P2000L
	default:
		return VERSION_9P2000
	}
}

// DialectFromVersion maps a wire version string to a dialect. ok is false
// when the string names no protocol this client speaks; per the protocol,
// any version not understood must be treated as a failed negotiation.
func DialectFromVersion(version string) (d Dialect, ok bool) {
	switch version {
	case VERSION_9P2000:
		return Dialect9P2000, true
	case VERSION_9P2000U:
		return Dialect9P2000u, true
	case VERSION_9P2000L:
		return Dialect9P2000L, true
	}
	return Dialect9P2000, false
}

// Downgrades reports whether a server answering with version v is a legal
// response to a Tversion that requested d. Servers may fall back to a less
// capable variant but never to a more capable one.
func (d Dialect) Downgrades(v Dialect) bool {
	return v <= d
}

// NumericOwners reports whether stat results and attach requests carry
// numeric uid/gid fields in addition to (or instead of) textual owners.
func (d Dialect) NumericOwners() bool { return d != Dialect9P2000 }

// ErrnoInErrors reports whether error replies carry a numeric errno.
func (d Dialect) ErrnoInErrors() bool { return d != Dialect9P2000 }

// LinuxOps reports whether the session uses the replaced .L operation set
// (Tlopen/Tlcreate/Tgetattr/Tsetattr/Treaddir/Tmkdir/Tsymlink/Trename/
// Tmknod) instead of Topen/Tcreate/Tstat/Twstat.
func (d Dialect) LinuxOps() bool { return d == Dialect9P2000L }

// StatExtensions reports whether Stat records carry the .u extension string
// and numeric owner trailer.
func (d Dialect) StatExtensions() bool { return d == Dialect9P2000u }

// legal reply types per dialect, used by the connection to reject frames
// whose opcode the negotiated variant never produces.
var baseReplies = map[MsgType]bool{
	msgRversion: true,
	msgRauth:    true,
	msgRerror:   true,
	msgRflush:   true,
	msgRattach:  true,
	msgRwalk:    true,
	msgRopen:    true,
	msgRcreate:  true,
	msgRread:    true,
	msgRwrite:   true,
	msgRclunk:   true,
	msgRremove:  true,
	msgRstat:    true,
	msgRwstat:   true,
}

var linuxReplies = map[MsgType]bool{
	msgRversion: true,
	msgRauth:    true,
	msgRlerror:  true,
	msgRflush:   true,
	msgRattach:  true,
	msgRwalk:    true,
	msgRread:    true,
	msgRwrite:   true,
	msgRclunk:   true,
	msgRremove:  true,

	msgRstatfs:   true,
	msgRlopen:    true,
	msgRlcreate:  true,
	msgRsymlink:  true,
	msgRmknod:    true,
	msgRrename:   true,
	msgRreadlink: true,
	msgRgetattr:  true,
	msgRsetattr:  true,
	msgRreaddir:  true,
	msgRfsync:    true,
	msgRmkdir:    true,
}

// ValidReply reports whether t is a reply opcode the dialect can produce.
func (d Dialect) ValidReply(t MsgType) bool {
	if d == Dialect9P2000L {
		return linuxReplies[t]
	}
	return baseReplies[t]
}

// IsNinePVersion reports whether the version string is in the 9P family at
// all. Servers reply "unknown" (or something else entirely) to reject
// negotiation.
func IsNinePVersion(version string) bool {
	return strings.HasPrefix(version, "9P")
}
