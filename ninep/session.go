package ninep

import (
	"context"
	"errors"
	"strings"
)

// fixed fids outside the allocatable pool
const (
	authFid = Fid(0)
	rootFid = Fid(1)
)

// An Authorizee performs the out-of-band half of an auth handshake over
// the afid once Tauth succeeds.
type Authorizee interface {
	Prove(ctx context.Context, user, mount string) error
}

// Auth asks the server for an auth file to establish credentials on.
// Servers that require no auth answer with an error, which callers treat
// as permission to attach with NO_FID.
func (c *Client) Auth(afid Fid, user, mnt string, nuname uint32) (Qid, error) {
	txn, err := c.allocTxn()
	if err != nil {
		return nil, err
	}
	defer c.release(txn.req.tag)

	c.Tracef("Tauth(%d, %#v, %#v)", afid, user, mnt)
	if c.dialect.NumericOwners() {
		txn.req.TauthU(afid, user, mnt, nuname)
	} else {
		txn.req.Tauth(afid, user, mnt)
	}
	res := <-c.sendRequest(&txn)
	if res.err != nil {
		c.Errorf("Tauth: Failed requesting: %s", res.err)
		return nil, res.err
	}

	switch r := res.res.Reply().(type) {
	case Rauth:
		c.Tracef("Rauth")
		return r.Aqid().Clone(), nil
	case Rerror:
		err := r.Error()
		c.Errorf("Expected Rauth from server, got error: %s", err)
		return nil, err
	case Rlerror:
		err := r.Error()
		c.Errorf("Expected Rauth from server, got error: %s", err)
		return nil, err
	default:
		c.Errorf("Expected Rauth from server")
		return nil, ErrBadFormat
	}
}

// Attach establishes fd as the root of the named tree. afid is NO_FID for
// anonymous attaches.
func (c *Client) Attach(fd, afid Fid, user, mnt string, nuname uint32) (Qid, error) {
	txn, err := c.allocTxn()
	if err != nil {
		return nil, err
	}
	defer c.release(txn.req.tag)

	c.Tracef("Tattach(%d, %d, %#v, %#v)", fd, afid, user, mnt)
	if c.dialect.NumericOwners() {
		txn.req.TattachU(fd, afid, user, mnt, nuname)
	} else {
		txn.req.Tattach(fd, afid, user, mnt)
	}
	res := <-c.sendRequest(&txn)
	if res.err != nil {
		c.Errorf("Tattach: Failed to write request: %s", res.err)
		return nil, res.err
	}

	switch r := res.res.Reply().(type) {
	case Rattach:
		c.Tracef("Rattach: %s", r.Qid())
		return r.Qid().Clone(), nil
	case Rerror:
		err := r.Error()
		c.Errorf("Expected Rattach from server, got error: %s", err)
		return nil, err
	case Rlerror:
		err := r.Error()
		c.Errorf("Expected Rattach from server, got error: %s", err)
		return nil, err
	default:
		c.Errorf("Expected Rattach from server")
		return nil, ErrBadFormat
	}
}

// A Session is an attached file tree on a connected client. All file
// operations hang off it; fids it allocates are scoped to it and clunked
// by Close.
type Session struct {
	c       *Client
	fids    *fidTable
	rootQid Qid

	uname string
	aname string
	uid   uint32
	gid   uint32
}

// Session authenticates (when an Authorizee is configured) and attaches,
// returning the operation surface for the tree.
func (c *Client) Session(user, mount string) (*Session, error) {
	return c.SessionUid(user, mount, NO_UID)
}

// SessionUid is Session with an explicit numeric uid for the .u and .L
// dialects.
func (c *Client) SessionUid(user, mount string, uid uint32) (*Session, error) {
	afid := NO_FID
	if c.Authorizee != nil {
		afid = authFid
		_, err := c.Auth(afid, user, mount, uid)
		if err == nil {
			err = c.Authorizee.Prove(context.Background(), user, mount)
			if err != nil {
				c.Errorf("Failed to authorize, because of bad credentials: %s", err)
				return nil, err
			}
		} else {
			c.Errorf("Failed to authorize, continuing: %s", err)
			afid = NO_FID
		}
	}
	root, err := c.Attach(rootFid, afid, user, mount, uid)
	if err != nil {
		return nil, err
	}
	gid := uid
	if uid == NO_UID {
		gid = 0
	}
	return &Session{
		c:       c,
		fids:    newFidTable(),
		rootQid: root,
		uname:   user,
		aname:   mount,
		uid:     uid,
		gid:     gid,
	}, nil
}

// Client returns the connection the session rides on.
func (s *Session) Client() *Client { return s.c }

// Dialect reports the negotiated protocol variant.
func (s *Session) Dialect() Dialect { return s.c.Dialect() }

// RootQid is the qid of the attach point.
func (s *Session) RootQid() Qid { return s.rootQid }

// Walk binds a new fid to the path named by elements relative to base,
// splitting long paths across multiple Twalks of MAXWELEM names each. On
// partial resolution the new fid is not left live on either side and the
// error is a *WalkError carrying the qids that did resolve.
func (s *Session) Walk(base Fid, names []string) (Fid, Qid, error) {
	newF, err := s.fids.acquire()
	if err != nil {
		return NO_FID, nil, err
	}

	var found []Qid
	from := base
	remaining := names
	for {
		chunk := remaining
		if len(chunk) > MAXWELEM {
			chunk = chunk[:MAXWELEM]
		}
		qids, err := s.c.Walk(from, newF, chunk)
		if err != nil {
			var werr *WalkError
			if errors.As(err, &werr) {
				found = append(found, werr.Found...)
				err = &WalkError{Names: names, Found: found, Cause: werr.Cause}
			}
			if from == newF {
				// a later chunk failed entirely; the fid exists bound to
				// the last full chunk and must be clunked
				s.c.Clunk(newF)
			}
			s.fids.release(newF)
			return NO_FID, nil, err
		}
		found = append(found, qids...)
		remaining = remaining[len(chunk):]
		if len(remaining) == 0 {
			break
		}
		from = newF
	}

	var q Qid
	if len(found) > 0 {
		q = found[len(found)-1]
	} else if base == rootFid {
		q = s.rootQid.Clone()
	}
	if info, err := s.fids.lookup(newF); err == nil {
		info.qid = q
		info.path = "/" + strings.Join(names, "/")
	}
	return newF, q, nil
}

// Clunk releases a session fid on both sides.
func (s *Session) Clunk(f Fid) error {
	if err := s.fids.release(f); err != nil {
		return err
	}
	return s.c.Clunk(f)
}

// Remove deletes the file bound to f. The fid is released locally and on
// the server whether or not the delete succeeds.
func (s *Session) Remove(f Fid) error {
	if err := s.fids.release(f); err != nil {
		return err
	}
	return s.c.Remove(f)
}

// Close clunks every live fid, then the root, then closes the connection.
// Clunk errors are logged and otherwise ignored; the server forgets the
// fids when the connection dies regardless.
func (s *Session) Close() error {
	for _, f := range s.fids.drain() {
		if err := s.c.Clunk(f); err != nil {
			s.c.Errorf("close: clunk %d: %s", f, err)
		}
	}
	if err := s.c.Clunk(rootFid); err != nil {
		s.c.Errorf("close: clunk root: %s", err)
	}
	return s.c.Close()
}
