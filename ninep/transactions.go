package ninep

import (
	"fmt"
	"io"
)

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

type cltRequest struct {
	outMsg []byte
	tag    Tag
}

type cltResponse struct {
	inMsg []byte
}

func createClientRequest(tag Tag, maxMsgSize uint32) cltRequest {
	return cltRequest{
		outMsg: make([]byte, int(maxMsgSize)),
		tag:    tag,
	}
}
func createClientResponse(maxMsgSize uint32) cltResponse {
	return cltResponse{
		inMsg: make([]byte, int(maxMsgSize)),
	}
}

func (t *cltResponse) readReply(rdr io.Reader) error {
	// read size
	_, err := readUpTo(rdr, t.inMsg[:4])
	if err != nil {
		return err
	}

	size := MsgBase(t.inMsg).Size()

	if size < uint32(msgOffset) {
		return errFraming("declared size %d below minimum frame", size)
	}
	if size > uint32(len(t.inMsg)) {
		return fmt.Errorf("%w (%d > %d)", ErrMessageTooLarge, size, len(t.inMsg))
	}

	_, err = readUpTo(rdr, t.inMsg[4:size])
	if err != nil {
		return err
	}

	// counted fields must land inside the frame before any accessor
	// slices into it
	return validateReply(MsgBase(t.inMsg))
}

func (t *cltRequest) writeRequest(wr io.Writer) error {
	b := MsgBase(t.outMsg).Bytes()
	for len(b) > 0 {
		n, err := wr.Write(b)
		b = b[n:]
		if IsTemporaryErr(err) {
			continue
		} else if err != nil {
			return err
		}
	}
	return nil
}

func (t *cltRequest) reset()  { zero(t.outMsg) }
func (t *cltResponse) reset() { zero(t.inMsg) }

func (t *cltResponse) Reply() Message {
	mb := MsgBase(t.inMsg)
	switch mb.Type() {
	case msgRversion:
		return Rversion(mb)
	case msgRauth:
		return Rauth(mb)
	case msgRattach:
		return Rattach(mb)
	case msgRflush:
		return Rflush(mb)
	case msgRwalk:
		return Rwalk(mb)
	case msgRopen:
		return Ropen(mb)
	case msgRcreate:
		return Rcreate(mb)
	case msgRread:
		return Rread(mb)
	case msgRwrite:
		return Rwrite(mb)
	case msgRclunk:
		return Rclunk(mb)
	case msgRremove:
		return Rremove(mb)
	case msgRstat:
		return Rstat(mb)
	case msgRwstat:
		return Rwstat(mb)
	case msgRerror:
		return Rerror(mb)

	case msgRlerror:
		return Rlerror(mb)
	case msgRlopen:
		return Rlopen(mb)
	case msgRlcreate:
		return Rlcreate(mb)
	case msgRsymlink:
		return Rsymlink(mb)
	case msgRmknod:
		return Rmknod(mb)
	case msgRrename:
		return Rrename(mb)
	case msgRreadlink:
		return Rreadlink(mb)
	case msgRgetattr:
		return Rgetattr(mb)
	case msgRsetattr:
		return Rsetattr(mb)
	case msgRreaddir:
		return Rreaddir(mb)
	case msgRfsync:
		return Rfsync(mb)
	case msgRmkdir:
		return Rmkdir(mb)
	default:
		return mb
	}
}

func (t *cltRequest) reqTag() Tag  { return t.tag }
func (t *cltResponse) reqTag() Tag { return MsgBase(t.inMsg).Tag() }

func (t *cltRequest) Tversion(msgSize uint32, version string) {
	Tversion(t.outMsg).fill(t.reqTag(), msgSize, version)
}

func (t *cltRequest) Tauth(afid Fid, uname, aname string) {
	Tauth(t.outMsg).fill(t.reqTag(), afid, uname, aname)
}

func (t *cltRequest) TauthU(afid Fid, uname, aname string, nuname uint32) {
	Tauth(t.outMsg).fillU(t.reqTag(), afid, uname, aname, nuname)
}

func (t *cltRequest) Tattach(fid, afid Fid, uname, aname string) {
	Tattach(t.outMsg).fill(t.reqTag(), fid, afid, uname, aname)
}

func (t *cltRequest) TattachU(fid, afid Fid, uname, aname string, nuname uint32) {
	Tattach(t.outMsg).fillU(t.reqTag(), fid, afid, uname, aname, nuname)
}

func (t *cltRequest) Tflush(tagToCancel Tag) {
	Tflush(t.outMsg).fill(t.reqTag(), tagToCancel)
}

func (t *cltRequest) Twalk(inF, outF Fid, path []string) {
	Twalk(t.outMsg).fill(t.reqTag(), inF, outF, path)
}

func (t *cltRequest) Topen(f Fid, om OpenMode) {
	Topen(t.outMsg).fill(t.reqTag(), f, om)
}

func (t *cltRequest) Tcreate(f Fid, name string, perm uint32, om OpenMode) {
	Tcreate(t.outMsg).fill(t.reqTag(), f, name, perm, om)
}

func (t *cltRequest) TcreateU(f Fid, name string, perm uint32, om OpenMode, extension string) {
	Tcreate(t.outMsg).fillU(t.reqTag(), f, name, perm, om, extension)
}

func (t *cltRequest) Tread(f Fid, offset uint64, count uint32) {
	Tread(t.outMsg).fill(t.reqTag(), f, offset, count)
}

func (t *cltRequest) TwriteBuffer() []byte {
	return Twrite(t.outMsg).DataNoLimit()
}

func (t *cltRequest) Twrite(f Fid, offset uint64, count uint32) {
	Twrite(t.outMsg).fill(t.reqTag(), f, offset, count)
}

func (t *cltRequest) Tclunk(f Fid) {
	Tclunk(t.outMsg).fill(t.reqTag(), f)
}

func (t *cltRequest) Tremove(f Fid) {
	Tremove(t.outMsg).fill(t.reqTag(), f)
}

func (t *cltRequest) Tstat(f Fid) {
	Tstat(t.outMsg).fill(t.reqTag(), f)
}

func (t *cltRequest) Twstat(f Fid, s Stat) {
	Twstat(t.outMsg).fill(t.reqTag(), f, s)
}

func (t *cltRequest) Tlopen(f Fid, flags uint32) {
	Tlopen(t.outMsg).fill(t.reqTag(), f, flags)
}

func (t *cltRequest) Tlcreate(f Fid, name string, flags, mode, gid uint32) {
	Tlcreate(t.outMsg).fill(t.reqTag(), f, name, flags, mode, gid)
}

func (t *cltRequest) Tsymlink(dfid Fid, name, symtgt string, gid uint32) {
	Tsymlink(t.outMsg).fill(t.reqTag(), dfid, name, symtgt, gid)
}

func (t *cltRequest) Tmknod(dfid Fid, name string, mode, major, minor, gid uint32) {
	Tmknod(t.outMsg).fill(t.reqTag(), dfid, name, mode, major, minor, gid)
}

func (t *cltRequest) Trename(f, dfid Fid, name string) {
	Trename(t.outMsg).fill(t.reqTag(), f, dfid, name)
}

func (t *cltRequest) Treadlink(f Fid) {
	Treadlink(t.outMsg).fill(t.reqTag(), f)
}

func (t *cltRequest) Tgetattr(f Fid, mask uint64) {
	Tgetattr(t.outMsg).fill(t.reqTag(), f, mask)
}

func (t *cltRequest) Tsetattr(f Fid, a SetAttr) {
	Tsetattr(t.outMsg).fill(t.reqTag(), f, a)
}

func (t *cltRequest) Treaddir(f Fid, offset uint64, count uint32) {
	Treaddir(t.outMsg).fill(t.reqTag(), f, offset, count)
}

func (t *cltRequest) Tfsync(f Fid) {
	Tfsync(t.outMsg).fill(t.reqTag(), f)
}

func (t *cltRequest) Tmkdir(dfid Fid, name string, mode, gid uint32) {
	Tmkdir(t.outMsg).fill(t.reqTag(), dfid, name, mode, gid)
}
