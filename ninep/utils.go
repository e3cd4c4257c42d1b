package ninep

import (
	"errors"
	"io"
	"net"
	"strings"
	"syscall"
)

// PathSplit breaks a slash-separated path into walkable elements, dropping
// empty segments and ".".
func PathSplit(path string) []string {
	parts := strings.Split(path, "/")
	out := parts[:0]
	for _, p := range parts {
		if p != "" && p != "." {
			out = append(out, p)
		}
	}
	return out
}

func isClosedSocket(err error) bool {
	return err != nil &&
		(strings.Index(err.Error(), "use of closed network connection") != -1 ||
			errors.Is(err, io.EOF) ||
			errors.Is(err, syscall.EPIPE))
}

func isTimeoutErr(err error) bool {
	if err, ok := err.(net.Error); ok && err.Timeout() {
		return true
	}
	return false
}

func IsTemporaryErr(err error) bool {
	type t interface {
		Temporary() bool
	}

	if err, ok := err.(t); ok {
		return err.Temporary()
	} else {
		return false
	}
}

func readUpTo(r io.Reader, p []byte) (int, error) {
	var err error
	n := 0
	for n < len(p) && err == nil {
		m, e := r.Read(p[n:])
		n += m
		if isTimeoutErr(e) {
			return 0, e
		} else if IsTemporaryErr(e) {
			continue
		}
		err = e
	}
	return n, err
}
