package ninep

import "fmt"

// 9P2000.L message types, per the diod protocol description. The .L dialect
// replaces open/create/stat/wstat wholesale and adds Linux-specific
// operations; read/write/walk/clunk/remove/flush are shared with the base
// dialect.
const (
	msgRlerror   MsgType = 7  // size[4] Rlerror tag[2] ecode[4]
	msgTstatfs   MsgType = 8  // size[4] Tstatfs tag[2] fid[4]
	msgRstatfs   MsgType = 9  // size[4] Rstatfs tag[2] type[4] bsize[4] blocks[8] bfree[8] bavail[8] files[8] ffree[8] fsid[8] namelen[4]
	msgTlopen    MsgType = 12 // size[4] Tlopen tag[2] fid[4] flags[4]
	msgRlopen    MsgType = 13 // size[4] Rlopen tag[2] qid[13] iounit[4]
	msgTlcreate  MsgType = 14 // size[4] Tlcreate tag[2] fid[4] name[s] flags[4] mode[4] gid[4]
	msgRlcreate  MsgType = 15 // size[4] Rlcreate tag[2] qid[13] iounit[4]
	msgTsymlink  MsgType = 16 // size[4] Tsymlink tag[2] dfid[4] name[s] symtgt[s] gid[4]
	msgRsymlink  MsgType = 17 // size[4] Rsymlink tag[2] qid[13]
	msgTmknod    MsgType = 18 // size[4] Tmknod tag[2] dfid[4] name[s] mode[4] major[4] minor[4] gid[4]
	msgRmknod    MsgType = 19 // size[4] Rmknod tag[2] qid[13]
	msgTrename   MsgType = 20 // size[4] Trename tag[2] fid[4] dfid[4] name[s]
	msgRrename   MsgType = 21 // size[4] Rrename tag[2]
	msgTreadlink MsgType = 22 // size[4] Treadlink tag[2] fid[4]
	msgRreadlink MsgType = 23 // size[4] Rreadlink tag[2] target[s]
	msgTgetattr  MsgType = 24 // size[4] Tgetattr tag[2] fid[4] request_mask[8]
	msgRgetattr  MsgType = 25 // size[4] Rgetattr tag[2] valid[8] qid[13] mode[4] uid[4] gid[4] nlink[8] rdev[8] size[8] blksize[8] blocks[8] atime_sec[8] atime_nsec[8] mtime_sec[8] mtime_nsec[8] ctime_sec[8] ctime_nsec[8] btime_sec[8] btime_nsec[8] gen[8] data_version[8]
	msgTsetattr  MsgType = 26 // size[4] Tsetattr tag[2] fid[4] valid[4] mode[4] uid[4] gid[4] size[8] atime_sec[8] atime_nsec[8] mtime_sec[8] mtime_nsec[8]
	msgRsetattr  MsgType = 27 // size[4] Rsetattr tag[2]
	msgTreaddir  MsgType = 40 // size[4] Treaddir tag[2] fid[4] offset[8] count[4]
	msgRreaddir  MsgType = 41 // size[4] Rreaddir tag[2] count[4] data[count]
	msgTfsync    MsgType = 50 // size[4] Tfsync tag[2] fid[4]
	msgRfsync    MsgType = 51 // size[4] Rfsync tag[2]
	msgTmkdir    MsgType = 72 // size[4] Tmkdir tag[2] dfid[4] name[s] mode[4] gid[4]
	msgRmkdir    MsgType = 73 // size[4] Rmkdir tag[2] qid[13]
)

var linuxMsgNames = map[MsgType]string{
	msgRlerror:   "Rlerror",
	msgTstatfs:   "Tstatfs",
	msgRstatfs:   "Rstatfs",
	msgTlopen:    "Tlopen",
	msgRlopen:    "Rlopen",
	msgTlcreate:  "Tlcreate",
	msgRlcreate:  "Rlcreate",
	msgTsymlink:  "Tsymlink",
	msgRsymlink:  "Rsymlink",
	msgTmknod:    "Tmknod",
	msgRmknod:    "Rmknod",
	msgTrename:   "Trename",
	msgRrename:   "Rrename",
	msgTreadlink: "Treadlink",
	msgRreadlink: "Rreadlink",
	msgTgetattr:  "Tgetattr",
	msgRgetattr:  "Rgetattr",
	msgTsetattr:  "Tsetattr",
	msgRsetattr:  "Rsetattr",
	msgTreaddir:  "Treaddir",
	msgRreaddir:  "Rreaddir",
	msgTfsync:    "Tfsync",
	msgRfsync:    "Rfsync",
	msgTmkdir:    "Tmkdir",
	msgRmkdir:    "Rmkdir",
}

// Tgetattr request mask bits.
const (
	L_GETATTR_MODE         = 0x00000001
	L_GETATTR_NLINK        = 0x00000002
	L_GETATTR_UID          = 0x00000004
	L_GETATTR_GID          = 0x00000008
	L_GETATTR_RDEV         = 0x00000010
	L_GETATTR_ATIME        = 0x00000020
	L_GETATTR_MTIME        = 0x00000040
	L_GETATTR_CTIME        = 0x00000080
	L_GETATTR_INO          = 0x00000100
	L_GETATTR_SIZE         = 0x00000200
	L_GETATTR_BLOCKS       = 0x00000400
	L_GETATTR_BTIME        = 0x00000800
	L_GETATTR_GEN          = 0x00001000
	L_GETATTR_DATA_VERSION = 0x00002000

	L_GETATTR_BASIC = 0x000007ff
	L_GETATTR_ALL   = 0x00003fff
)

// Tsetattr valid bits.
const (
	L_SETATTR_MODE      = 0x00000001
	L_SETATTR_UID       = 0x00000002
	L_SETATTR_GID       = 0x00000004
	L_SETATTR_SIZE      = 0x00000008
	L_SETATTR_ATIME     = 0x00000010
	L_SETATTR_MTIME     = 0x00000020
	L_SETATTR_CTIME     = 0x00000040
	L_SETATTR_ATIME_SET = 0x00000080
	L_SETATTR_MTIME_SET = 0x00000100
)

// Directory entry type bytes carried by Rreaddir, from dirent(3).
const (
	DT_DIR     = 4
	DT_REG     = 8
	DT_SYMLINK = 10
)

// Linux open(2) flag bits used by Tlopen/Tlcreate.
const (
	L_O_RDONLY = 0x0
	L_O_WRONLY = 0x1
	L_O_RDWR   = 0x2
	L_O_CREAT  = 0x40
	L_O_EXCL   = 0x80
	L_O_TRUNC  = 0x200
	L_O_APPEND = 0x400
)

// LinuxOpenFlags converts a protocol open mode to Linux open flag bits.
func LinuxOpenFlags(m OpenMode) uint32 {
	var flags uint32
	switch m & OMODE {
	case OWRITE:
		flags = L_O_WRONLY
	case ORDWR:
		flags = L_O_RDWR
	default:
		flags = L_O_RDONLY
	}
	if m&OTRUNC != 0 {
		flags |= L_O_TRUNC
	}
	return flags
}

/////////////////////////////////////
// size[4] Rlerror tag[2] ecode[4]
type Rlerror []byte

func (r Rlerror) fill(t Tag, ecode uint32) {
	MsgBase(r).fill(msgRlerror, t, uint32(msgOffset+4))
	bo.PutUint32(r[msgOffset:msgOffset+4], ecode)
}

func (r Rlerror) Bytes() []byte { return MsgBase(r).Bytes() }
func (r Rlerror) Size() uint32  { return MsgBase(r).Size() }
func (r Rlerror) Tag() Tag      { return MsgBase(r).Tag() }
func (r Rlerror) Ecode() uint32 { return bo.Uint32(r[msgOffset : msgOffset+4]) }

/////////////////////////////////////
// size[4] Tlopen tag[2] fid[4] flags[4]
type Tlopen []byte

func (r Tlopen) fill(t Tag, fid Fid, flags uint32) {
	MsgBase(r).fill(msgTlopen, t, uint32(msgOffset+4+4))
	bo.PutUint32(r[msgOffset:msgOffset+4], uint32(fid))
	bo.PutUint32(r[msgOffset+4:msgOffset+8], flags)
}

func (r Tlopen) Bytes() []byte { return MsgBase(r).Bytes() }
func (r Tlopen) Size() uint32  { return MsgBase(r).Size() }
func (r Tlopen) Tag() Tag      { return MsgBase(r).Tag() }
func (r Tlopen) Fid() Fid      { return Fid(bo.Uint32(r[msgOffset : msgOffset+4])) }
func (r Tlopen) Flags() uint32 { return bo.Uint32(r[msgOffset+4 : msgOffset+8]) }

/////////////////////////////////////
// size[4] Rlopen tag[2] qid[13] iounit[4]
type Rlopen []byte

func (r Rlopen) fill(t Tag, qid Qid, iounit uint32) {
	MsgBase(r).fill(msgRlopen, t, uint32(msgOffset+QidSize+4))
	copy(r[msgOffset:msgOffset+QidSize], qid.Bytes())
	bo.PutUint32(r[msgOffset+QidSize:msgOffset+QidSize+4], iounit)
}

func (r Rlopen) Bytes() []byte { return MsgBase(r).Bytes() }
func (r Rlopen) Size() uint32  { return MsgBase(r).Size() }
func (r Rlopen) Tag() Tag      { return MsgBase(r).Tag() }
func (r Rlopen) Qid() Qid      { return Qid(r[msgOffset : msgOffset+QidSize]) }
func (r Rlopen) Iounit() uint32 {
	return bo.Uint32(r[msgOffset+QidSize : msgOffset+QidSize+4])
}

/////////////////////////////////////
// size[4] Tlcreate tag[2] fid[4] name[s] flags[4] mode[4] gid[4]
type Tlcreate []byte

func (r Tlcreate) fill(t Tag, fid Fid, name string, flags, mode, gid uint32) {
	size := uint32(msgOffset + 4 + 2 + len(name) + 4 + 4 + 4)
	MsgBase(r).fill(msgTlcreate, t, size)
	bo.PutUint32(r[msgOffset:msgOffset+4], uint32(fid))
	off := msgOffset + 4
	off += msgString(r[off:]).SetStringAndLen(name)
	bo.PutUint32(r[off:off+4], flags)
	bo.PutUint32(r[off+4:off+8], mode)
	bo.PutUint32(r[off+8:off+12], gid)
}

func (r Tlcreate) Bytes() []byte   { return MsgBase(r).Bytes() }
func (r Tlcreate) Size() uint32    { return MsgBase(r).Size() }
func (r Tlcreate) Tag() Tag        { return MsgBase(r).Tag() }
func (r Tlcreate) Fid() Fid        { return Fid(bo.Uint32(r[msgOffset : msgOffset+4])) }
func (r Tlcreate) name() msgString { return msgString(r[msgOffset+4:]) }
func (r Tlcreate) Name() string    { return r.name().String() }
func (r Tlcreate) Flags() uint32 {
	o := msgOffset + 4 + r.name().Nbytes()
	return bo.Uint32(r[o : o+4])
}
func (r Tlcreate) Mode() uint32 {
	o := msgOffset + 4 + r.name().Nbytes() + 4
	return bo.Uint32(r[o : o+4])
}
func (r Tlcreate) Gid() uint32 {
	o := msgOffset + 4 + r.name().Nbytes() + 8
	return bo.Uint32(r[o : o+4])
}

/////////////////////////////////////
// size[4] Rlcreate tag[2] qid[13] iounit[4]
type Rlcreate []byte

func (r Rlcreate) fill(t Tag, qid Qid, iounit uint32) {
	MsgBase(r).fill(msgRlcreate, t, uint32(msgOffset+QidSize+4))
	copy(r[msgOffset:msgOffset+QidSize], qid.Bytes())
	bo.PutUint32(r[msgOffset+QidSize:msgOffset+QidSize+4], iounit)
}

func (r Rlcreate) Bytes() []byte { return MsgBase(r).Bytes() }
func (r Rlcreate) Size() uint32  { return MsgBase(r).Size() }
func (r Rlcreate) Tag() Tag      { return MsgBase(r).Tag() }
func (r Rlcreate) Qid() Qid      { return Qid(r[msgOffset : msgOffset+QidSize]) }
func (r Rlcreate) Iounit() uint32 {
	return bo.Uint32(r[msgOffset+QidSize : msgOffset+QidSize+4])
}

/////////////////////////////////////
// size[4] Tsymlink tag[2] dfid[4] name[s] symtgt[s] gid[4]
type Tsymlink []byte

func (r Tsymlink) fill(t Tag, dfid Fid, name, symtgt string, gid uint32) {
	size := uint32(msgOffset + 4 + 2 + len(name) + 2 + len(symtgt) + 4)
	MsgBase(r).fill(msgTsymlink, t, size)
	bo.PutUint32(r[msgOffset:msgOffset+4], uint32(dfid))
	off := msgOffset + 4
	off += msgString(r[off:]).SetStringAndLen(name)
	off += msgString(r[off:]).SetStringAndLen(symtgt)
	bo.PutUint32(r[off:off+4], gid)
}

func (r Tsymlink) Bytes() []byte   { return MsgBase(r).Bytes() }
func (r Tsymlink) Size() uint32    { return MsgBase(r).Size() }
func (r Tsymlink) Tag() Tag        { return MsgBase(r).Tag() }
func (r Tsymlink) Dfid() Fid       { return Fid(bo.Uint32(r[msgOffset : msgOffset+4])) }
func (r Tsymlink) name() msgString { return msgString(r[msgOffset+4:]) }
func (r Tsymlink) Name() string    { return r.name().String() }
func (r Tsymlink) Symtgt() string {
	return msgString(r[msgOffset+4+r.name().Nbytes():]).String()
}

/////////////////////////////////////
// size[4] Rsymlink tag[2] qid[13]
type Rsymlink []byte

func (r Rsymlink) fill(t Tag, qid Qid) {
	MsgBase(r).fill(msgRsymlink, t, uint32(msgOffset+QidSize))
	copy(r[msgOffset:msgOffset+QidSize], qid.Bytes())
}

func (r Rsymlink) Bytes() []byte { return MsgBase(r).Bytes() }
func (r Rsymlink) Size() uint32  { return MsgBase(r).Size() }
func (r Rsymlink) Tag() Tag      { return MsgBase(r).Tag() }
func (r Rsymlink) Qid() Qid      { return Qid(r[msgOffset : msgOffset+QidSize]) }

/////////////////////////////////////
// size[4] Tmknod tag[2] dfid[4] name[s] mode[4] major[4] minor[4] gid[4]
type Tmknod []byte

func (r Tmknod) fill(t Tag, dfid Fid, name string, mode, major, minor, gid uint32) {
	size := uint32(msgOffset + 4 + 2 + len(name) + 4*4)
	MsgBase(r).fill(msgTmknod, t, size)
	bo.PutUint32(r[msgOffset:msgOffset+4], uint32(dfid))
	off := msgOffset + 4
	off += msgString(r[off:]).SetStringAndLen(name)
	bo.PutUint32(r[off:off+4], mode)
	bo.PutUint32(r[off+4:off+8], major)
	bo.PutUint32(r[off+8:off+12], minor)
	bo.PutUint32(r[off+12:off+16], gid)
}

func (r Tmknod) Bytes() []byte   { return MsgBase(r).Bytes() }
func (r Tmknod) Size() uint32    { return MsgBase(r).Size() }
func (r Tmknod) Tag() Tag        { return MsgBase(r).Tag() }
func (r Tmknod) Dfid() Fid       { return Fid(bo.Uint32(r[msgOffset : msgOffset+4])) }
func (r Tmknod) name() msgString { return msgString(r[msgOffset+4:]) }
func (r Tmknod) Name() string    { return r.name().String() }

/////////////////////////////////////
// size[4] Rmknod tag[2] qid[13]
type Rmknod []byte

func (r Rmknod) fill(t Tag, qid Qid) {
	MsgBase(r).fill(msgRmknod, t, uint32(msgOffset+QidSize))
	copy(r[msgOffset:msgOffset+QidSize], qid.Bytes())
}

func (r Rmknod) Bytes() []byte { return MsgBase(r).Bytes() }
func (r Rmknod) Size() uint32  { return MsgBase(r).Size() }
func (r Rmknod) Tag() Tag      { return MsgBase(r).Tag() }
func (r Rmknod) Qid() Qid      { return Qid(r[msgOffset : msgOffset+QidSize]) }

/////////////////////////////////////
// size[4] Trename tag[2] fid[4] dfid[4] name[s]
type Trename []byte

func (r Trename) fill(t Tag, fid, dfid Fid, name string) {
	size := uint32(msgOffset + 4 + 4 + 2 + len(name))
	MsgBase(r).fill(msgTrename, t, size)
	bo.PutUint32(r[msgOffset:msgOffset+4], uint32(fid))
	bo.PutUint32(r[msgOffset+4:msgOffset+8], uint32(dfid))
	msgString(r[msgOffset+8:]).SetStringAndLen(name)
}

func (r Trename) Bytes() []byte { return MsgBase(r).Bytes() }
func (r Trename) Size() uint32  { return MsgBase(r).Size() }
func (r Trename) Tag() Tag      { return MsgBase(r).Tag() }
func (r Trename) Fid() Fid      { return Fid(bo.Uint32(r[msgOffset : msgOffset+4])) }
func (r Trename) Dfid() Fid     { return Fid(bo.Uint32(r[msgOffset+4 : msgOffset+8])) }
func (r Trename) Name() string  { return msgString(r[msgOffset+8:]).String() }

/////////////////////////////////////
// size[4] Rrename tag[2]
type Rrename []byte

func (r Rrename) fill(t Tag) { MsgBase(r).fill(msgRrename, t, uint32(msgOffset)) }

func (r Rrename) Bytes() []byte { return MsgBase(r).Bytes() }
func (r Rrename) Size() uint32  { return MsgBase(r).Size() }
func (r Rrename) Tag() Tag      { return MsgBase(r).Tag() }

/////////////////////////////////////
// size[4] Treadlink tag[2] fid[4]
type Treadlink []byte

func (r Treadlink) fill(t Tag, fid Fid) {
	MsgBase(r).fill(msgTreadlink, t, uint32(msgOffset+4))
	bo.PutUint32(r[msgOffset:msgOffset+4], uint32(fid))
}

func (r Treadlink) Bytes() []byte { return MsgBase(r).Bytes() }
func (r Treadlink) Size() uint32  { return MsgBase(r).Size() }
func (r Treadlink) Tag() Tag      { return MsgBase(r).Tag() }
func (r Treadlink) Fid() Fid      { return Fid(bo.Uint32(r[msgOffset : msgOffset+4])) }

/////////////////////////////////////
// size[4] Rreadlink tag[2] target[s]
type Rreadlink []byte

func (r Rreadlink) fill(t Tag, target string) {
	MsgBase(r).fill(msgRreadlink, t, uint32(msgOffset+2+len(target)))
	msgString(r[msgOffset:]).SetStringAndLen(target)
}

func (r Rreadlink) Bytes() []byte  { return MsgBase(r).Bytes() }
func (r Rreadlink) Size() uint32   { return MsgBase(r).Size() }
func (r Rreadlink) Tag() Tag       { return MsgBase(r).Tag() }
func (r Rreadlink) Target() string { return msgString(r[msgOffset:]).String() }

/////////////////////////////////////
// size[4] Tgetattr tag[2] fid[4] request_mask[8]
type Tgetattr []byte

func (r Tgetattr) fill(t Tag, fid Fid, mask uint64) {
	MsgBase(r).fill(msgTgetattr, t, uint32(msgOffset+4+8))
	bo.PutUint32(r[msgOffset:msgOffset+4], uint32(fid))
	bo.PutUint64(r[msgOffset+4:msgOffset+12], mask)
}

func (r Tgetattr) Bytes() []byte        { return MsgBase(r).Bytes() }
func (r Tgetattr) Size() uint32         { return MsgBase(r).Size() }
func (r Tgetattr) Tag() Tag             { return MsgBase(r).Tag() }
func (r Tgetattr) Fid() Fid             { return Fid(bo.Uint32(r[msgOffset : msgOffset+4])) }
func (r Tgetattr) RequestMask() uint64  { return bo.Uint64(r[msgOffset+4 : msgOffset+12]) }

/////////////////////////////////////
// size[4] Rgetattr tag[2] valid[8] qid[13] mode[4] uid[4] gid[4] nlink[8]
// rdev[8] size[8] blksize[8] blocks[8] atime_sec[8] atime_nsec[8]
// mtime_sec[8] mtime_nsec[8] ctime_sec[8] ctime_nsec[8] btime_sec[8]
// btime_nsec[8] gen[8] data_version[8]
type Rgetattr []byte

const rgetattrSize = msgOffset + 8 + QidSize + 4*3 + 8*15

func (r Rgetattr) fill(t Tag, valid uint64, qid Qid) {
	MsgBase(r).fill(msgRgetattr, t, uint32(rgetattrSize))
	bo.PutUint64(r[msgOffset:msgOffset+8], valid)
	copy(r[msgOffset+8:msgOffset+8+QidSize], qid.Bytes())
}

func (r Rgetattr) Bytes() []byte { return MsgBase(r).Bytes() }
func (r Rgetattr) Size() uint32  { return MsgBase(r).Size() }
func (r Rgetattr) Tag() Tag      { return MsgBase(r).Tag() }
func (r Rgetattr) Valid() uint64 { return bo.Uint64(r[msgOffset : msgOffset+8]) }
func (r Rgetattr) Qid() Qid      { return Qid(r[msgOffset+8 : msgOffset+8+QidSize]) }

const rgaFixed = msgOffset + 8 + QidSize

func (r Rgetattr) Mode() uint32       { return bo.Uint32(r[rgaFixed : rgaFixed+4]) }
func (r Rgetattr) SetMode(v uint32)   { bo.PutUint32(r[rgaFixed:rgaFixed+4], v) }
func (r Rgetattr) Uid() uint32        { return bo.Uint32(r[rgaFixed+4 : rgaFixed+8]) }
func (r Rgetattr) SetUid(v uint32)    { bo.PutUint32(r[rgaFixed+4:rgaFixed+8], v) }
func (r Rgetattr) Gid() uint32        { return bo.Uint32(r[rgaFixed+8 : rgaFixed+12]) }
func (r Rgetattr) SetGid(v uint32)    { bo.PutUint32(r[rgaFixed+8:rgaFixed+12], v) }
func (r Rgetattr) Nlink() uint64      { return bo.Uint64(r[rgaFixed+12 : rgaFixed+20]) }
func (r Rgetattr) SetNlink(v uint64)  { bo.PutUint64(r[rgaFixed+12:rgaFixed+20], v) }
func (r Rgetattr) Rdev() uint64       { return bo.Uint64(r[rgaFixed+20 : rgaFixed+28]) }
func (r Rgetattr) Length() uint64     { return bo.Uint64(r[rgaFixed+28 : rgaFixed+36]) }
func (r Rgetattr) SetLength(v uint64) { bo.PutUint64(r[rgaFixed+28:rgaFixed+36], v) }
func (r Rgetattr) Blksize() uint64    { return bo.Uint64(r[rgaFixed+36 : rgaFixed+44]) }
func (r Rgetattr) Blocks() uint64     { return bo.Uint64(r[rgaFixed+44 : rgaFixed+52]) }
func (r Rgetattr) AtimeSec() uint64   { return bo.Uint64(r[rgaFixed+52 : rgaFixed+60]) }
func (r Rgetattr) SetAtimeSec(v uint64) {
	bo.PutUint64(r[rgaFixed+52:rgaFixed+60], v)
}
func (r Rgetattr) AtimeNsec() uint64 { return bo.Uint64(r[rgaFixed+60 : rgaFixed+68]) }
func (r Rgetattr) MtimeSec() uint64  { return bo.Uint64(r[rgaFixed+68 : rgaFixed+76]) }
func (r Rgetattr) SetMtimeSec(v uint64) {
	bo.PutUint64(r[rgaFixed+68:rgaFixed+76], v)
}
func (r Rgetattr) MtimeNsec() uint64 { return bo.Uint64(r[rgaFixed+76 : rgaFixed+84]) }
func (r Rgetattr) CtimeSec() uint64  { return bo.Uint64(r[rgaFixed+84 : rgaFixed+92]) }
func (r Rgetattr) SetCtimeSec(v uint64) {
	bo.PutUint64(r[rgaFixed+84:rgaFixed+92], v)
}
func (r Rgetattr) CtimeNsec() uint64   { return bo.Uint64(r[rgaFixed+92 : rgaFixed+100]) }
func (r Rgetattr) BtimeSec() uint64    { return bo.Uint64(r[rgaFixed+100 : rgaFixed+108]) }
func (r Rgetattr) BtimeNsec() uint64   { return bo.Uint64(r[rgaFixed+108 : rgaFixed+116]) }
func (r Rgetattr) Gen() uint64         { return bo.Uint64(r[rgaFixed+116 : rgaFixed+124]) }
func (r Rgetattr) DataVersion() uint64 { return bo.Uint64(r[rgaFixed+124 : rgaFixed+132]) }

func (r Rgetattr) String() string {
	return fmt.Sprintf("Rgetattr{ qid: %s, mode: %#o, size: %d }", r.Qid(), r.Mode(), r.Length())
}

/////////////////////////////////////
// size[4] Tsetattr tag[2] fid[4] valid[4] mode[4] uid[4] gid[4] size[8]
// atime_sec[8] atime_nsec[8] mtime_sec[8] mtime_nsec[8]
type Tsetattr []byte

const tsetattrSize = msgOffset + 4 + 4*4 + 8*5

// SetAttr carries the fields of a Tsetattr; Valid selects which ones the
// server applies.
type SetAttr struct {
	Valid     uint32
	Mode      uint32
	Uid       uint32
	Gid       uint32
	Length    uint64
	AtimeSec  uint64
	AtimeNsec uint64
	MtimeSec  uint64
	MtimeNsec uint64
}

func (r Tsetattr) fill(t Tag, fid Fid, a SetAttr) {
	MsgBase(r).fill(msgTsetattr, t, uint32(tsetattrSize))
	bo.PutUint32(r[msgOffset:msgOffset+4], uint32(fid))
	off := msgOffset + 4
	bo.PutUint32(r[off:off+4], a.Valid)
	bo.PutUint32(r[off+4:off+8], a.Mode)
	bo.PutUint32(r[off+8:off+12], a.Uid)
	bo.PutUint32(r[off+12:off+16], a.Gid)
	bo.PutUint64(r[off+16:off+24], a.Length)
	bo.PutUint64(r[off+24:off+32], a.AtimeSec)
	bo.PutUint64(r[off+32:off+40], a.AtimeNsec)
	bo.PutUint64(r[off+40:off+48], a.MtimeSec)
	bo.PutUint64(r[off+48:off+56], a.MtimeNsec)
}

func (r Tsetattr) Bytes() []byte { return MsgBase(r).Bytes() }
func (r Tsetattr) Size() uint32  { return MsgBase(r).Size() }
func (r Tsetattr) Tag() Tag      { return MsgBase(r).Tag() }
func (r Tsetattr) Fid() Fid      { return Fid(bo.Uint32(r[msgOffset : msgOffset+4])) }
func (r Tsetattr) Valid() uint32 { return bo.Uint32(r[msgOffset+4 : msgOffset+8]) }
func (r Tsetattr) Attr() SetAttr {
	off := msgOffset + 4
	return SetAttr{
		Valid:     bo.Uint32(r[off : off+4]),
		Mode:      bo.Uint32(r[off+4 : off+8]),
		Uid:       bo.Uint32(r[off+8 : off+12]),
		Gid:       bo.Uint32(r[off+12 : off+16]),
		Length:    bo.Uint64(r[off+16 : off+24]),
		AtimeSec:  bo.Uint64(r[off+24 : off+32]),
		AtimeNsec: bo.Uint64(r[off+32 : off+40]),
		MtimeSec:  bo.Uint64(r[off+40 : off+48]),
		MtimeNsec: bo.Uint64(r[off+48 : off+56]),
	}
}

/////////////////////////////////////
// size[4] Rsetattr tag[2]
type Rsetattr []byte

func (r Rsetattr) fill(t Tag) { MsgBase(r).fill(msgRsetattr, t, uint32(msgOffset)) }

func (r Rsetattr) Bytes() []byte { return MsgBase(r).Bytes() }
func (r Rsetattr) Size() uint32  { return MsgBase(r).Size() }
func (r Rsetattr) Tag() Tag      { return MsgBase(r).Tag() }

/////////////////////////////////////
// size[4] Treaddir tag[2] fid[4] offset[8] count[4]
type Treaddir []byte

func (r Treaddir) fill(t Tag, fid Fid, offset uint64, count uint32) {
	MsgBase(r).fill(msgTreaddir, t, uint32(msgOffset+4+8+4))
	bo.PutUint32(r[msgOffset:msgOffset+4], uint32(fid))
	bo.PutUint64(r[msgOffset+4:msgOffset+12], offset)
	bo.PutUint32(r[msgOffset+12:msgOffset+16], count)
}

func (r Treaddir) Bytes() []byte  { return MsgBase(r).Bytes() }
func (r Treaddir) Size() uint32   { return MsgBase(r).Size() }
func (r Treaddir) Tag() Tag       { return MsgBase(r).Tag() }
func (r Treaddir) Fid() Fid       { return Fid(bo.Uint32(r[msgOffset : msgOffset+4])) }
func (r Treaddir) Offset() uint64 { return bo.Uint64(r[msgOffset+4 : msgOffset+12]) }
func (r Treaddir) Count() uint32  { return bo.Uint32(r[msgOffset+12 : msgOffset+16]) }

/////////////////////////////////////
// size[4] Rreaddir tag[2] count[4] data[count]
//
// data is a packed run of entries: qid[13] offset[8] type[1] name[s].
// offset is the cookie to pass to the next Treaddir to resume after this
// entry.
type Rreaddir []byte

func (r Rreaddir) fill(t Tag, data []byte) {
	MsgBase(r).fill(msgRreaddir, t, uint32(msgOffset+4+len(data)))
	bo.PutUint32(r[msgOffset:msgOffset+4], uint32(len(data)))
	copy(r[msgOffset+4:], data)
}

func (r Rreaddir) Bytes() []byte { return MsgBase(r).Bytes() }
func (r Rreaddir) Size() uint32  { return MsgBase(r).Size() }
func (r Rreaddir) Tag() Tag      { return MsgBase(r).Tag() }
func (r Rreaddir) Count() uint32 { return bo.Uint32(r[msgOffset : msgOffset+4]) }
func (r Rreaddir) Data() []byte  { return r[msgOffset+4 : msgOffset+4+r.Count()] }

// A Dirent is one packed entry in an Rreaddir.
type Dirent []byte

const direntFixedSize = QidSize + 8 + 1 + 2

func (d Dirent) Qid() Qid       { return Qid(d[:QidSize]) }
func (d Dirent) Offset() uint64 { return bo.Uint64(d[QidSize : QidSize+8]) }
func (d Dirent) DirType() byte  { return d[QidSize+8] }
func (d Dirent) name() msgString {
	return msgString(d[QidSize+9:])
}
func (d Dirent) Name() string { return d.name().String() }
func (d Dirent) Nbytes() int  { return QidSize + 9 + d.name().Nbytes() }

func (d Dirent) fill(qid Qid, offset uint64, typ byte, name string) int {
	copy(d[:QidSize], qid.Bytes())
	bo.PutUint64(d[QidSize:QidSize+8], offset)
	d[QidSize+8] = typ
	return QidSize + 9 + msgString(d[QidSize+9:]).SetStringAndLen(name)
}

// ParseDirents splits the Rreaddir payload into entries. A truncated trailing
// entry is a framing error.
func ParseDirents(data []byte) ([]Dirent, error) {
	var ents []Dirent
	for len(data) > 0 {
		if len(data) < direntFixedSize {
			return nil, errFraming("short dirent (%d bytes left)", len(data))
		}
		d := Dirent(data)
		n := d.Nbytes()
		if n > len(data) {
			return nil, errFraming("dirent name overruns buffer (%d > %d)", n, len(data))
		}
		ents = append(ents, Dirent(data[:n]))
		data = data[n:]
	}
	return ents, nil
}

/////////////////////////////////////
// size[4] Tfsync tag[2] fid[4]
type Tfsync []byte

func (r Tfsync) fill(t Tag, fid Fid) {
	MsgBase(r).fill(msgTfsync, t, uint32(msgOffset+4))
	bo.PutUint32(r[msgOffset:msgOffset+4], uint32(fid))
}

func (r Tfsync) Bytes() []byte { return MsgBase(r).Bytes() }
func (r Tfsync) Size() uint32  { return MsgBase(r).Size() }
func (r Tfsync) Tag() Tag      { return MsgBase(r).Tag() }
func (r Tfsync) Fid() Fid      { return Fid(bo.Uint32(r[msgOffset : msgOffset+4])) }

/////////////////////////////////////
// size[4] Rfsync tag[2]
type Rfsync []byte

func (r Rfsync) fill(t Tag) { MsgBase(r).fill(msgRfsync, t, uint32(msgOffset)) }

func (r Rfsync) Bytes() []byte { return MsgBase(r).Bytes() }
func (r Rfsync) Size() uint32  { return MsgBase(r).Size() }
func (r Rfsync) Tag() Tag      { return MsgBase(r).Tag() }

/////////////////////////////////////
// size[4] Tmkdir tag[2] dfid[4] name[s] mode[4] gid[4]
type Tmkdir []byte

func (r Tmkdir) fill(t Tag, dfid Fid, name string, mode, gid uint32) {
	size := uint32(msgOffset + 4 + 2 + len(name) + 4 + 4)
	MsgBase(r).fill(msgTmkdir, t, size)
	bo.PutUint32(r[msgOffset:msgOffset+4], uint32(dfid))
	off := msgOffset + 4
	off += msgString(r[off:]).SetStringAndLen(name)
	bo.PutUint32(r[off:off+4], mode)
	bo.PutUint32(r[off+4:off+8], gid)
}

func (r Tmkdir) Bytes() []byte   { return MsgBase(r).Bytes() }
func (r Tmkdir) Size() uint32    { return MsgBase(r).Size() }
func (r Tmkdir) Tag() Tag        { return MsgBase(r).Tag() }
func (r Tmkdir) Dfid() Fid       { return Fid(bo.Uint32(r[msgOffset : msgOffset+4])) }
func (r Tmkdir) name() msgString { return msgString(r[msgOffset+4:]) }
func (r Tmkdir) Name() string    { return r.name().String() }
func (r Tmkdir) Mode() uint32 {
	o := msgOffset + 4 + r.name().Nbytes()
	return bo.Uint32(r[o : o+4])
}
func (r Tmkdir) Gid() uint32 {
	o := msgOffset + 4 + r.name().Nbytes() + 4
	return bo.Uint32(r[o : o+4])
}

/////////////////////////////////////
// size[4] Rmkdir tag[2] qid[13]
type Rmkdir []byte

func (r Rmkdir) fill(t Tag, qid Qid) {
	MsgBase(r).fill(msgRmkdir, t, uint32(msgOffset+QidSize))
	copy(r[msgOffset:msgOffset+QidSize], qid.Bytes())
}

func (r Rmkdir) Bytes() []byte { return MsgBase(r).Bytes() }
func (r Rmkdir) Size() uint32  { return MsgBase(r).Size() }
func (r Rmkdir) Tag() Tag      { return MsgBase(r).Tag() }
func (r Rmkdir) Qid() Qid      { return Qid(r[msgOffset : msgOffset+QidSize]) }
