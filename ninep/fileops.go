package ninep

import (
	"errors"
	"os"
)

var (
	ErrListingOnNonDir  = errors.New("cannot list files for path that's not a directory")
	ErrWalkTooManyNames = errors.New("too many path elements for one walk message")
)

// Walk resolves up to MAXWELEM path elements relative to f, binding the
// result to newF. A nil or empty path clones f. Partial resolution returns
// the qids that did resolve inside a WalkError; the server has not created
// newF in that case.
func (c *Client) Walk(f, newF Fid, path []string) ([]Qid, error) {
	if len(path) > MAXWELEM {
		return nil, ErrWalkTooManyNames
	}
	txn, err := c.allocTxn()
	if err != nil {
		return nil, err
	}
	defer c.release(txn.req.tag)

	txn.req.Twalk(f, newF, path)
	c.Tracef("Twalk %s -> %s %#v", f, newF, path)
	res := <-c.sendRequest(&txn)
	if err := res.err; err != nil {
		c.Errorf("Twalk: Failed to write request: %s", err)
		return nil, err
	}

	switch r := res.res.Reply().(type) {
	case Rwalk:
		c.Tracef("Rwalk %d", r.NumWqid())
		size := int(r.NumWqid())

		var qids []Qid
		if size > 0 {
			qids = make([]Qid, size)
			for i := 0; i < size; i++ {
				qids[i] = r.Wqid(i).Clone()
			}
		}
		if size != len(path) {
			return nil, &WalkError{Names: path, Found: qids, Cause: os.ErrNotExist}
		}
		return qids, nil
	case Rerror:
		err := r.Error()
		c.Errorf("Expected Rwalk from server, got error: %s", err)
		return nil, err
	case Rlerror:
		err := r.Error()
		c.Errorf("Expected Rwalk from server, got error: %s", err)
		return nil, err
	default:
		c.Errorf("Expected Rwalk from server")
		return nil, ErrBadFormat
	}
}

func (c *Client) Open(f Fid, m OpenMode) (q Qid, iounit uint32, err error) {
	if c.dialect.LinuxOps() {
		return c.Lopen(f, LinuxOpenFlags(m))
	}
	txn, err := c.allocTxn()
	if err != nil {
		return nil, 0, err
	}
	defer c.release(txn.req.tag)

	txn.req.Topen(f, m)
	c.Tracef("Topen(%s, %s)", f, m)
	res := <-c.sendRequest(&txn)
	if err = res.err; err != nil {
		c.Errorf("Topen: Failed to write request: %s", err)
		return
	}

	switch r := res.res.Reply().(type) {
	case Ropen:
		c.Tracef("Ropen")
		q = r.Qid().Clone()
		iounit = r.Iounit()
		return
	case Rerror:
		err = r.Error()
		c.Errorf("Expected Ropen from server, got error: %s", err)
		return
	case Rlerror:
		err = r.Error()
		c.Errorf("Expected Ropen from server, got error: %s", err)
		return
	default:
		c.Errorf("Expected Ropen from server")
		err = ErrBadFormat
		return
	}
}

func (c *Client) Lopen(f Fid, flags uint32) (q Qid, iounit uint32, err error) {
	if !c.dialect.LinuxOps() {
		return nil, 0, ErrUnsupportedOp
	}
	txn, err := c.allocTxn()
	if err != nil {
		return nil, 0, err
	}
	defer c.release(txn.req.tag)

	txn.req.Tlopen(f, flags)
	c.Tracef("Tlopen(%s, %#x)", f, flags)
	res := <-c.sendRequest(&txn)
	if err = res.err; err != nil {
		c.Errorf("Tlopen: Failed to write request: %s", err)
		return
	}

	switch r := res.res.Reply().(type) {
	case Rlopen:
		c.Tracef("Rlopen")
		q = r.Qid().Clone()
		iounit = r.Iounit()
		return
	case Rlerror:
		err = r.Error()
		c.Errorf("Expected Rlopen from server, got error: %s", err)
		return
	default:
		c.Errorf("Expected Rlopen from server")
		err = ErrBadFormat
		return
	}
}

func (c *Client) Create(f Fid, name string, perm Mode, mode OpenMode) (q Qid, iounit uint32, err error) {
	return c.CreateExt(f, name, perm, mode, "")
}

// CreateExt is Create with the .u extension field (symlink targets, device
// specs). The extension is dropped under base 9P2000.
func (c *Client) CreateExt(f Fid, name string, perm Mode, mode OpenMode, extension string) (q Qid, iounit uint32, err error) {
	if c.dialect.LinuxOps() {
		return nil, 0, ErrUnsupportedOp
	}
	txn, err := c.allocTxn()
	if err != nil {
		return nil, 0, err
	}
	defer c.release(txn.req.tag)

	if c.dialect.StatExtensions() {
		txn.req.TcreateU(f, name, uint32(perm), mode, extension)
	} else {
		txn.req.Tcreate(f, name, uint32(perm), mode)
	}
	c.Tracef("Tcreate(%s, %#v, %s, %s)", f, name, perm, mode)
	res := <-c.sendRequest(&txn)
	if err = res.err; err != nil {
		c.Errorf("Tcreate: Failed to write request: %s", err)
		return
	}

	switch r := res.res.Reply().(type) {
	case Rcreate:
		c.Tracef("Rcreate")
		q = r.Qid().Clone()
		iounit = r.Iounit()
		return
	case Rerror:
		err = r.Error()
		c.Errorf("Expected Rcreate from server, got error: %s", err)
		return
	default:
		c.Errorf("Expected Rcreate from server")
		err = ErrBadFormat
		return
	}
}

func (c *Client) Lcreate(f Fid, name string, flags, mode, gid uint32) (q Qid, iounit uint32, err error) {
	if !c.dialect.LinuxOps() {
		return nil, 0, ErrUnsupportedOp
	}
	txn, err := c.allocTxn()
	if err != nil {
		return nil, 0, err
	}
	defer c.release(txn.req.tag)

	txn.req.Tlcreate(f, name, flags, mode, gid)
	c.Tracef("Tlcreate(%s, %#v, %#x, %#o)", f, name, flags, mode)
	res := <-c.sendRequest(&txn)
	if err = res.err; err != nil {
		c.Errorf("Tlcreate: Failed to write request: %s", err)
		return
	}

	switch r := res.res.Reply().(type) {
	case Rlcreate:
		c.Tracef("Rlcreate")
		q = r.Qid().Clone()
		iounit = r.Iounit()
		return
	case Rlerror:
		err = r.Error()
		c.Errorf("Expected Rlcreate from server, got error: %s", err)
		return
	default:
		c.Errorf("Expected Rlcreate from server")
		err = ErrBadFormat
		return
	}
}

// Read issues a single Tread. The payload is capped by the negotiated
// message size; callers wanting all of p filled loop or use ReadFull.
func (c *Client) Read(f Fid, p []byte, offset uint64) (int, error) {
	txn, err := c.allocTxn()
	if err != nil {
		return 0, err
	}
	defer c.release(txn.req.tag)

	count := uint32(len(p))
	if max := c.MaxPayload(); count > max {
		count = max
	}
	c.Tracef("Tread(%s, %d, %v)", f, count, offset)
	txn.req.Tread(f, offset, count)
	res := <-c.sendRequest(&txn)
	if err := res.err; err != nil {
		c.Errorf("Tread: Failed to write request: %s", err)
		return 0, err
	}

	switch r := res.res.Reply().(type) {
	case Rread:
		dat := r.Data()
		c.Tracef("Rread -> %d", len(dat))
		if uint32(len(dat)) > count {
			return 0, errFraming("read returned %d bytes for a %d byte request", len(dat), count)
		}
		return copy(p, dat), nil
	case Rerror:
		err := r.Error()
		c.Errorf("Expected Rread from server, got error: %s", err)
		return 0, err
	case Rlerror:
		err := r.Error()
		c.Errorf("Expected Rread from server, got error: %s", err)
		return 0, err
	default:
		c.Errorf("Expected Rread from server")
		return 0, ErrBadFormat
	}
}

// Write sends all of data, splitting it across as many Twrites as the
// message size requires. Conforms to io.WriterAt expectations: either all
// bytes are written or an error is returned with the count that was.
func (c *Client) Write(f Fid, data []byte, offset uint64) (int, error) {
	txn, err := c.allocTxn()
	if err != nil {
		return 0, err
	}
	defer c.release(txn.req.tag)

	size := len(data)
	wrote := 0

	for wrote < size {
		buf := txn.req.TwriteBuffer()
		n := copy(buf, data[wrote:])

		txn.req.Twrite(f, offset, uint32(n))
		res := <-c.sendRequest(&txn)
		if err := res.err; err != nil {
			c.Errorf("Twrite: Failed to write request: %s", err)
			return wrote, err
		}

		switch r := res.res.Reply().(type) {
		case Rwrite:
			c.Tracef("Rwrite")
			cnt := r.Count()
			if cnt == 0 {
				return wrote, errFraming("server accepted zero bytes")
			}
			wrote += int(cnt)
			offset += uint64(cnt)
			txn = c.resetTxn(txn.req.tag)
		case Rerror:
			err := r.Error()
			c.Errorf("Expected Rwrite from server, got error: %s", err)
			return wrote, err
		case Rlerror:
			err := r.Error()
			c.Errorf("Expected Rwrite from server, got error: %s", err)
			return wrote, err
		default:
			c.Errorf("Expected Rwrite from server")
			return wrote, ErrBadFormat
		}
	}
	return wrote, nil
}

// WriteMsg is the protocol-level write: a single Twrite carrying at most
// one message worth of data.
func (c *Client) WriteMsg(f Fid, data []byte, offset uint64) (uint32, error) {
	txn, err := c.allocTxn()
	if err != nil {
		return 0, err
	}
	defer c.release(txn.req.tag)

	size := len(data)
	buf := txn.req.TwriteBuffer()
	if size > len(buf) {
		size = len(buf)
	}
	copy(buf, data[:size])

	txn.req.Twrite(f, offset, uint32(size))
	res := <-c.sendRequest(&txn)
	if err := res.err; err != nil {
		c.Errorf("Twrite: Failed to write request: %s", err)
		return 0, err
	}

	switch r := res.res.Reply().(type) {
	case Rwrite:
		c.Tracef("Rwrite")
		return r.Count(), nil
	case Rerror:
		err := r.Error()
		c.Errorf("Expected Rwrite from server, got error: %s", err)
		return 0, err
	case Rlerror:
		err := r.Error()
		c.Errorf("Expected Rwrite from server, got error: %s", err)
		return 0, err
	default:
		c.Errorf("Expected Rwrite from server")
		return 0, ErrBadFormat
	}
}

func (c *Client) Clunk(f Fid) error {
	txn, err := c.allocTxn()
	if err != nil {
		return err
	}
	defer c.release(txn.req.tag)

	txn.req.Tclunk(f)
	res := <-c.sendRequest(&txn)
	if err := res.err; err != nil {
		c.Errorf("Tclunk: Failed to write request: %s", err)
		return err
	}

	switch r := res.res.Reply().(type) {
	case Rclunk:
		c.Tracef("Rclunk %s", f)
		return nil
	case Rerror:
		err := r.Error()
		c.Errorf("Expected Rclunk from server, got error: %s", err)
		return err
	case Rlerror:
		err := r.Error()
		c.Errorf("Expected Rclunk from server, got error: %s", err)
		return err
	default:
		c.Errorf("Expected Rclunk from server")
		return ErrBadFormat
	}
}

// Remove deletes the file and clunks f. The fid is gone even when the
// remove itself fails.
func (c *Client) Remove(f Fid) error {
	txn, err := c.allocTxn()
	if err != nil {
		return err
	}
	defer c.release(txn.req.tag)

	txn.req.Tremove(f)
	res := <-c.sendRequest(&txn)
	if err := res.err; err != nil {
		c.Errorf("Tremove: Failed to write request: %s", err)
		return err
	}

	switch r := res.res.Reply().(type) {
	case Rremove:
		c.Tracef("Rremove")
		return nil
	case Rerror:
		err := r.Error()
		c.Errorf("Expected Rremove from server, got error: %s", err)
		return err
	case Rlerror:
		err := r.Error()
		c.Errorf("Expected Rremove from server, got error: %s", err)
		return err
	default:
		c.Errorf("Expected Rremove from server")
		return ErrBadFormat
	}
}

func (c *Client) Stat(f Fid) (Stat, error) {
	if c.dialect.LinuxOps() {
		return nil, ErrUnsupportedOp
	}
	txn, err := c.allocTxn()
	if err != nil {
		return nil, err
	}
	defer c.release(txn.req.tag)

	txn.req.Tstat(f)
	c.Tracef("Tstat %s", f)
	res := <-c.sendRequest(&txn)
	if err := res.err; err != nil {
		c.Errorf("Tstat: Failed to write request: %s", err)
		return nil, err
	}

	switch r := res.res.Reply().(type) {
	case Rstat:
		c.Tracef("Rstat %s", r.Stat())
		return r.Stat().Clone(), nil
	case Rerror:
		err := r.Error()
		c.Errorf("Expected Rstat from server, got error: %s", err)
		return nil, err
	default:
		c.Errorf("Expected Rstat from server")
		return nil, ErrBadFormat
	}
}

func (c *Client) WriteStat(f Fid, s Stat) error {
	if c.dialect.LinuxOps() {
		return ErrUnsupportedOp
	}
	txn, err := c.allocTxn()
	if err != nil {
		return err
	}
	defer c.release(txn.req.tag)

	txn.req.Twstat(f, s)
	res := <-c.sendRequest(&txn)
	if err := res.err; err != nil {
		c.Errorf("Twstat: Failed to write request: %s", err)
		return err
	}

	switch r := res.res.Reply().(type) {
	case Rwstat:
		c.Tracef("Rwstat")
		return nil
	case Rerror:
		err := r.Error()
		c.Errorf("Expected Rwstat from server, got error: %s", err)
		return err
	default:
		c.Errorf("Expected Rwstat from server")
		return ErrBadFormat
	}
}

// Attr is the decoded result of a Tgetattr, valid per the Valid mask bits.
type Attr struct {
	Valid       uint64
	Qid         Qid
	Mode        uint32
	Uid         uint32
	Gid         uint32
	Nlink       uint64
	Rdev        uint64
	Length      uint64
	Blksize     uint64
	Blocks      uint64
	AtimeSec    uint64
	AtimeNsec   uint64
	MtimeSec    uint64
	MtimeNsec   uint64
	CtimeSec    uint64
	CtimeNsec   uint64
	BtimeSec    uint64
	BtimeNsec   uint64
	Gen         uint64
	DataVersion uint64
}

func (c *Client) GetAttr(f Fid, mask uint64) (Attr, error) {
	if !c.dialect.LinuxOps() {
		return Attr{}, ErrUnsupportedOp
	}
	txn, err := c.allocTxn()
	if err != nil {
		return Attr{}, err
	}
	defer c.release(txn.req.tag)

	txn.req.Tgetattr(f, mask)
	c.Tracef("Tgetattr(%s, %#x)", f, mask)
	res := <-c.sendRequest(&txn)
	if err := res.err; err != nil {
		c.Errorf("Tgetattr: Failed to write request: %s", err)
		return Attr{}, err
	}

	switch r := res.res.Reply().(type) {
	case Rgetattr:
		c.Tracef("Rgetattr %s", r)
		return Attr{
			Valid:       r.Valid(),
			Qid:         r.Qid().Clone(),
			Mode:        r.Mode(),
			Uid:         r.Uid(),
			Gid:         r.Gid(),
			Nlink:       r.Nlink(),
			Rdev:        r.Rdev(),
			Length:      r.Length(),
			Blksize:     r.Blksize(),
			Blocks:      r.Blocks(),
			AtimeSec:    r.AtimeSec(),
			AtimeNsec:   r.AtimeNsec(),
			MtimeSec:    r.MtimeSec(),
			MtimeNsec:   r.MtimeNsec(),
			CtimeSec:    r.CtimeSec(),
			CtimeNsec:   r.CtimeNsec(),
			BtimeSec:    r.BtimeSec(),
			BtimeNsec:   r.BtimeNsec(),
			Gen:         r.Gen(),
			DataVersion: r.DataVersion(),
		}, nil
	case Rlerror:
		err := r.Error()
		c.Errorf("Expected Rgetattr from server, got error: %s", err)
		return Attr{}, err
	default:
		c.Errorf("Expected Rgetattr from server")
		return Attr{}, ErrBadFormat
	}
}

func (c *Client) SetAttr(f Fid, a SetAttr) error {
	if !c.dialect.LinuxOps() {
		return ErrUnsupportedOp
	}
	txn, err := c.allocTxn()
	if err != nil {
		return err
	}
	defer c.release(txn.req.tag)

	txn.req.Tsetattr(f, a)
	c.Tracef("Tsetattr(%s, %#x)", f, a.Valid)
	res := <-c.sendRequest(&txn)
	if err := res.err; err != nil {
		c.Errorf("Tsetattr: Failed to write request: %s", err)
		return err
	}

	switch r := res.res.Reply().(type) {
	case Rsetattr:
		c.Tracef("Rsetattr")
		return nil
	case Rlerror:
		err := r.Error()
		c.Errorf("Expected Rsetattr from server, got error: %s", err)
		return err
	default:
		c.Errorf("Expected Rsetattr from server")
		return ErrBadFormat
	}
}

// Readdir issues a single Treaddir starting at the given cookie (0 for the
// first call, the last entry's Offset to resume). The returned dirents are
// cloned out of the message buffer. An empty result means end of directory.
func (c *Client) Readdir(f Fid, offset uint64, count uint32) ([]Dirent, error) {
	if !c.dialect.LinuxOps() {
		return nil, ErrUnsupportedOp
	}
	txn, err := c.allocTxn()
	if err != nil {
		return nil, err
	}
	defer c.release(txn.req.tag)

	if max := c.MaxPayload(); count > max || count == 0 {
		count = max
	}
	txn.req.Treaddir(f, offset, count)
	c.Tracef("Treaddir(%s, %d, %d)", f, offset, count)
	res := <-c.sendRequest(&txn)
	if err := res.err; err != nil {
		c.Errorf("Treaddir: Failed to write request: %s", err)
		return nil, err
	}

	switch r := res.res.Reply().(type) {
	case Rreaddir:
		c.Tracef("Rreaddir %d bytes", r.Count())
		ents, err := ParseDirents(r.Data())
		if err != nil {
			c.Errorf("Rreaddir: %s", err)
			return nil, err
		}
		for i, e := range ents {
			dup := make(Dirent, len(e))
			copy(dup, e)
			ents[i] = dup
		}
		return ents, nil
	case Rlerror:
		err := r.Error()
		c.Errorf("Expected Rreaddir from server, got error: %s", err)
		return nil, err
	default:
		c.Errorf("Expected Rreaddir from server")
		return nil, ErrBadFormat
	}
}

func (c *Client) Mkdir(dfid Fid, name string, mode, gid uint32) (Qid, error) {
	if !c.dialect.LinuxOps() {
		return nil, ErrUnsupportedOp
	}
	txn, err := c.allocTxn()
	if err != nil {
		return nil, err
	}
	defer c.release(txn.req.tag)

	txn.req.Tmkdir(dfid, name, mode, gid)
	c.Tracef("Tmkdir(%s, %#v, %#o)", dfid, name, mode)
	res := <-c.sendRequest(&txn)
	if err := res.err; err != nil {
		c.Errorf("Tmkdir: Failed to write request: %s", err)
		return nil, err
	}

	switch r := res.res.Reply().(type) {
	case Rmkdir:
		c.Tracef("Rmkdir %s", r.Qid())
		return r.Qid().Clone(), nil
	case Rlerror:
		err := r.Error()
		c.Errorf("Expected Rmkdir from server, got error: %s", err)
		return nil, err
	default:
		c.Errorf("Expected Rmkdir from server")
		return nil, ErrBadFormat
	}
}

func (c *Client) Symlink(dfid Fid, name, target string, gid uint32) (Qid, error) {
	if !c.dialect.LinuxOps() {
		return nil, ErrUnsupportedOp
	}
	txn, err := c.allocTxn()
	if err != nil {
		return nil, err
	}
	defer c.release(txn.req.tag)

	txn.req.Tsymlink(dfid, name, target, gid)
	c.Tracef("Tsymlink(%s, %#v -> %#v)", dfid, name, target)
	res := <-c.sendRequest(&txn)
	if err := res.err; err != nil {
		c.Errorf("Tsymlink: Failed to write request: %s", err)
		return nil, err
	}

	switch r := res.res.Reply().(type) {
	case Rsymlink:
		c.Tracef("Rsymlink %s", r.Qid())
		return r.Qid().Clone(), nil
	case Rlerror:
		err := r.Error()
		c.Errorf("Expected Rsymlink from server, got error: %s", err)
		return nil, err
	default:
		c.Errorf("Expected Rsymlink from server")
		return nil, ErrBadFormat
	}
}

func (c *Client) Mknod(dfid Fid, name string, mode, major, minor, gid uint32) (Qid, error) {
	if !c.dialect.LinuxOps() {
		return nil, ErrUnsupportedOp
	}
	txn, err := c.allocTxn()
	if err != nil {
		return nil, err
	}
	defer c.release(txn.req.tag)

	txn.req.Tmknod(dfid, name, mode, major, minor, gid)
	c.Tracef("Tmknod(%s, %#v, %#o)", dfid, name, mode)
	res := <-c.sendRequest(&txn)
	if err := res.err; err != nil {
		c.Errorf("Tmknod: Failed to write request: %s", err)
		return nil, err
	}

	switch r := res.res.Reply().(type) {
	case Rmknod:
		c.Tracef("Rmknod %s", r.Qid())
		return r.Qid().Clone(), nil
	case Rlerror:
		err := r.Error()
		c.Errorf("Expected Rmknod from server, got error: %s", err)
		return nil, err
	default:
		c.Errorf("Expected Rmknod from server")
		return nil, ErrBadFormat
	}
}

func (c *Client) Rename(f, dfid Fid, name string) error {
	if !c.dialect.LinuxOps() {
		return ErrUnsupportedOp
	}
	txn, err := c.allocTxn()
	if err != nil {
		return err
	}
	defer c.release(txn.req.tag)

	txn.req.Trename(f, dfid, name)
	c.Tracef("Trename(%s -> %s/%s)", f, dfid, name)
	res := <-c.sendRequest(&txn)
	if err := res.err; err != nil {
		c.Errorf("Trename: Failed to write request: %s", err)
		return err
	}

	switch r := res.res.Reply().(type) {
	case Rrename:
		c.Tracef("Rrename")
		return nil
	case Rlerror:
		err := r.Error()
		c.Errorf("Expected Rrename from server, got error: %s", err)
		return err
	default:
		c.Errorf("Expected Rrename from server")
		return ErrBadFormat
	}
}

func (c *Client) Readlink(f Fid) (string, error) {
	if !c.dialect.LinuxOps() {
		return "", ErrUnsupportedOp
	}
	txn, err := c.allocTxn()
	if err != nil {
		return "", err
	}
	defer c.release(txn.req.tag)

	txn.req.Treadlink(f)
	c.Tracef("Treadlink(%s)", f)
	res := <-c.sendRequest(&txn)
	if err := res.err; err != nil {
		c.Errorf("Treadlink: Failed to write request: %s", err)
		return "", err
	}

	switch r := res.res.Reply().(type) {
	case Rreadlink:
		c.Tracef("Rreadlink %s", r.Target())
		return r.Target(), nil
	case Rlerror:
		err := r.Error()
		c.Errorf("Expected Rreadlink from server, got error: %s", err)
		return "", err
	default:
		c.Errorf("Expected Rreadlink from server")
		return "", ErrBadFormat
	}
}

func (c *Client) Fsync(f Fid) error {
	if !c.dialect.LinuxOps() {
		return ErrUnsupportedOp
	}
	txn, err := c.allocTxn()
	if err != nil {
		return err
	}
	defer c.release(txn.req.tag)

	txn.req.Tfsync(f)
	res := <-c.sendRequest(&txn)
	if err := res.err; err != nil {
		c.Errorf("Tfsync: Failed to write request: %s", err)
		return err
	}

	switch r := res.res.Reply().(type) {
	case Rfsync:
		c.Tracef("Rfsync")
		return nil
	case Rlerror:
		err := r.Error()
		c.Errorf("Expected Rfsync from server, got error: %s", err)
		return err
	default:
		c.Errorf("Expected Rfsync from server")
		return ErrBadFormat
	}
}
