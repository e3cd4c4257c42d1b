package ninep

import (
	"errors"
	"fmt"
	"io"
	"os"
	"syscall"
)

var (
	// ErrBadFormat indicates a malformed frame: a declared size that
	// disagrees with the bytes on the wire, or a field that overruns its
	// message. Fatal to the connection that produced it.
	ErrBadFormat = errors.New("malformed 9P message")

	// ErrMessageTooLarge indicates a frame larger than the negotiated
	// maximum message size. Also fatal to the connection.
	ErrMessageTooLarge = errors.New("9P message exceeds negotiated msize")

	ErrConnClosed    = errors.New("9P connection closed")
	ErrFlushed       = errors.New("request flushed")
	ErrTagsExhausted = errors.New("no free tags")
	ErrFidsExhausted = errors.New("no free fids")

	// ErrStaleFid indicates use of a fid after it was released, or a
	// double release.
	ErrStaleFid = errors.New("stale fid")

	// ErrVersionMismatch indicates the server offered a version string the
	// client cannot speak.
	ErrVersionMismatch = errors.New("server offered an unsupported protocol version")

	ErrUnsupportedOp = errors.New("operation not supported by negotiated dialect")

	ErrWriteNotAllowed = fmt.Errorf("%w: not allowed to write", os.ErrPermission)
	ErrReadNotAllowed  = fmt.Errorf("%w: not allowed to read", os.ErrPermission)
	ErrSeekNotAllowed  = errors.New("seeking is not allowed")
)

func errFraming(format string, values ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrBadFormat, fmt.Sprintf(format, values...))
}

// this is a list of errors that we attempt to preserve equality of over the
// wire. If Rerror.Ename() == err.Error() where err is in this list, then the
// returned error unwraps to err.
var mappedErrors []error = []error{
	os.ErrInvalid,
	os.ErrPermission,
	os.ErrExist,
	os.ErrNotExist,
	os.ErrClosed,
	os.ErrNoDeadline,
	io.EOF,
	io.ErrClosedPipe,
	io.ErrNoProgress,
	io.ErrShortBuffer,
	io.ErrShortWrite,
	io.ErrUnexpectedEOF,

	ErrBadFormat,
	ErrWriteNotAllowed,
	ErrReadNotAllowed,
	ErrSeekNotAllowed,
	ErrUnsupportedOp,
}

// enames various servers emit for conditions we want comparable with the
// stdlib sentinels. Plan 9 and diod wordings.
var wellKnownEnames = map[string]error{
	"file not found":              os.ErrNotExist,
	"file does not exist":         os.ErrNotExist,
	"directory entry not found":   os.ErrNotExist,
	"file already exists":         os.ErrExist,
	"permission denied":           os.ErrPermission,
	"fid unknown or out of range": ErrStaleFid,
}

// WireError is an error reported by the server in an Rerror reply.
type WireError struct {
	Ename string
	Errno uint32 // 0 unless the dialect carries one
	under error
}

func (e *WireError) Error() string { return e.Ename }
func (e *WireError) Unwrap() error { return e.under }

// Error converts an Rerror reply into an error value, preserving equality
// with well-known sentinels where the message text allows.
func (r Rerror) Error() error {
	msg := r.Ename()
	var underlying error
	for _, e := range mappedErrors {
		if msg == e.Error() {
			underlying = e
			break
		}
	}
	if underlying == nil {
		underlying = wellKnownEnames[msg]
	}
	if underlying == nil && r.Errno() != 0 {
		underlying = syscall.Errno(r.Errno())
	}
	return &WireError{Ename: msg, Errno: r.Errno(), under: underlying}
}

// Error converts an Rlerror reply into an error. syscall.Errno compares as
// equal to the io/fs sentinels via errors.Is, so callers can test against
// fs.ErrNotExist and friends without knowing the dialect.
func (r Rlerror) Error() error {
	code := syscall.Errno(r.Ecode())
	return &WireError{Ename: code.Error(), Errno: r.Ecode(), under: code}
}

// WalkError reports a walk that stopped before reaching its final element.
// Found holds the qids of the elements that did resolve; the new fid was not
// left allocated on the server.
type WalkError struct {
	Names []string
	Found []Qid
	Cause error
}

func (e *WalkError) Error() string {
	if len(e.Names) == 0 {
		return fmt.Sprintf("walk failed: %s", e.Cause)
	}
	return fmt.Sprintf("walk stopped at %q (%d of %d resolved): %s",
		e.Names[len(e.Found)], len(e.Found), len(e.Names), e.Cause)
}

func (e *WalkError) Unwrap() error { return e.Cause }
