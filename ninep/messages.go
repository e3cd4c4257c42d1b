package ninep

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"strings"
	"time"
)

// Sentinel values a Twstat uses to leave a field untouched.
const (
	NoTouchU64  = ^uint64(0)
	NoTouchU32  = ^uint32(0)
	NoTouchU16  = ^uint16(0)
	NoTouchMode = ^Mode(0)

	NoQidVersion = NoTouchU32
)

type Message interface {
	Tag() Tag
	Bytes() []byte
}

const (
	NO_TAG Tag = ^Tag(0)
	NO_FID Fid = ^Fid(0)

	MIN_MESSAGE_SIZE = uint32(128)
)

// The default maximum size of 9p message blocks. Never below MIN_MESSAGE_SIZE.
var DEFAULT_MAX_MESSAGE_SIZE uint32

func init() {
	s := uint32(os.Getpagesize() * 2)
	if s < MIN_MESSAGE_SIZE {
		s = MIN_MESSAGE_SIZE
	}
	DEFAULT_MAX_MESSAGE_SIZE = s
}

type MsgType byte

// Based on
// http://plan9.bell-labs.com/sources/plan9/sys/include/fcall.h
const (
	msgTversion MsgType = iota + 100 // size[4] Tversion tag[2] msize[4] version[s]
	msgRversion                      // size[4] Rversion tag[2] msize[4] version[s]
	msgTauth                         // size[4] Tauth tag[2] afid[4] uname[s] aname[s]
	msgRauth                         // size[4] Rauth tag[2] aqid[13]
	msgTattach                       // size[4] Tattach tag[2] fid[4] afid[4] uname[s] aname[s]
	msgRattach                       // size[4] Rattach tag[2] qid[13]
	msgTerror                        // illegal
	msgRerror                        // size[4] Rerror tag[2] ename[s] (.u adds errno[4])
	msgTflush                        // size[4] Tflush tag[2] oldtag[2]
	msgRflush                        // size[4] Rflush tag[2]
	msgTwalk                         // size[4] Twalk tag[2] fid[4] newfid[4] nwname[2] nwname*(wname[s])
	msgRwalk                         // size[4] Rwalk tag[2] nwqid[2] nwqid*(wqid[13])
	msgTopen                         // size[4] Topen tag[2] fid[4] mode[1]
	msgRopen                         // size[4] Ropen tag[2] qid[13] iounit[4]
	msgTcreate                       // size[4] Tcreate tag[2] fid[4] name[s] perm[4] mode[1]
	msgRcreate                       // size[4] Rcreate tag[2] qid[13] iounit[4]
	msgTread                         // size[4] Tread tag[2] fid[4] offset[8] count[4]
	msgRread                         // size[4] Rread tag[2] count[4] data[count]
	msgTwrite                        // size[4] Twrite tag[2] fid[4] offset[8] count[4] data[count]
	msgRwrite                        // size[4] Rwrite tag[2] count[4]
	msgTclunk                        // size[4] Tclunk tag[2] fid[4]
	msgRclunk                        // size[4] Rclunk tag[2]
	msgTremove                       // size[4] Tremove tag[2] fid[4]
	msgRremove                       // size[4] Rremove tag[2]
	msgTstat                         // size[4] Tstat tag[2] fid[4]
	msgRstat                         // size[4] Rstat tag[2] stat[n]
	msgTwstat                        // size[4] Twstat tag[2] fid[4] stat[n]
	msgRwstat                        // size[4] Rwstat tag[2]
)

func (t MsgType) String() string {
	switch t {
	case msgTversion:
		return "Tversion"
	case msgRversion:
		return "Rversion"
	case msgTauth:
		return "Tauth"
	case msgRauth:
		return "Rauth"
	case msgTattach:
		return "Tattach"
	case msgRattach:
		return "Rattach"
	case msgTerror:
		return "Terror"
	case msgRerror:
		return "Rerror"
	case msgTflush:
		return "Tflush"
	case msgRflush:
		return "Rflush"
	case msgTwalk:
		return "Twalk"
	case msgRwalk:
		return "Rwalk"
	case msgTopen:
		return "Topen"
	case msgRopen:
		return "Ropen"
	case msgTcreate:
		return "Tcreate"
	case msgRcreate:
		return "Rcreate"
	case msgTread:
		return "Tread"
	case msgRread:
		return "Rread"
	case msgTwrite:
		return "Twrite"
	case msgRwrite:
		return "Rwrite"
	case msgTclunk:
		return "Tclunk"
	case msgRclunk:
		return "Rclunk"
	case msgTremove:
		return "Tremove"
	case msgRremove:
		return "Rremove"
	case msgTstat:
		return "Tstat"
	case msgRstat:
		return "Rstat"
	case msgTwstat:
		return "Twstat"
	case msgRwstat:
		return "Rwstat"
	}
	if s, ok := linuxMsgNames[t]; ok {
		return s
	}
	return fmt.Sprintf("MsgType(%d)", byte(t))
}

type OpenMode byte

const (
	OREAD   = 0
	OWRITE  = 1
	ORDWR   = 2
	OEXEC   = 3 // execute, == read but check execute permission
	OTRUNC  = 0x10
	OCEXEC  = 0x20 // close on exec
	ORCLOSE = 0x40 // remove on close

	OMODE = 3
)

func (m OpenMode) IsReadOnly() bool  { return m&OMODE == OREAD }
func (m OpenMode) IsWriteOnly() bool { return m&OMODE == OWRITE }
func (m OpenMode) IsReadWrite() bool { return m&OMODE == ORDWR }

func (m OpenMode) IsReadable() bool { return m.IsReadOnly() || m.IsReadWrite() }
func (m OpenMode) IsWriteable() bool {
	return m.IsWriteOnly() || m.IsReadWrite()
}

func (m OpenMode) String() string {
	res := []string{}
	if m.IsReadOnly() {
		res = append(res, "OREAD")
	} else if m.IsWriteOnly() {
		res = append(res, "OWRITE")
	} else if m.IsReadWrite() {
		res = append(res, "ORDWR")
	}
	if m&OTRUNC != 0 {
		res = append(res, "OTRUNC")
	}
	if m&OCEXEC != 0 {
		res = append(res, "OCEXEC")
	}
	if m&ORCLOSE != 0 {
		res = append(res, "ORCLOSE")
	}
	return strings.Join(res, "|")
}

// OpenModeFromOsFlag converts os.O_* flags to the protocol's open mode byte.
func OpenModeFromOsFlag(flag int) OpenMode {
	var m OpenMode
	switch {
	case flag&os.O_RDWR != 0:
		m = ORDWR
	case flag&os.O_WRONLY != 0:
		m = OWRITE
	default:
		m = OREAD
	}
	if flag&os.O_TRUNC != 0 {
		m |= OTRUNC
	}
	return m
}

type Mode uint32

const (
	M_DIR     = 0x80000000 // mode bit for directories
	M_APPEND  = 0x40000000 // mode bit for append only files
	M_EXCL    = 0x20000000 // mode bit for exclusive use files
	M_MOUNT   = 0x10000000 // mode bit for mounted channel
	M_AUTH    = 0x08000000 // mode bit for authentication file
	M_TMP     = 0x04000000 // mode bit for non-backed-up file
	M_SYMLINK = 0x02000000 // mode bit for symlinks (9P2000.u)
	M_DEVICE  = 0x00800000 // mode bit for device files (9P2000.u)
	M_READ    = 0x4        // mode bit for read permission
	M_WRITE   = 0x2        // mode bit for write permission
	M_EXEC    = 0x1        // mode bit for execute permission

	// Mask for the type bits
	M_TYPE = M_DIR | M_APPEND | M_EXCL | M_MOUNT | M_TMP

	// Mask for the permissions bits
	M_PERM = 0777
)

func (m Mode) IsDir() bool { return m&M_DIR != 0 }

func (m Mode) String() string {
	res := []string{}
	perm := os.FileMode(m & M_PERM)
	res = append(res, perm.String())
	if m&M_DIR != 0 {
		res = append(res, "M_DIR")
	}
	if m&M_APPEND != 0 {
		res = append(res, "M_APPEND")
	}
	if m&M_EXCL != 0 {
		res = append(res, "M_EXCL")
	}
	if m&M_MOUNT != 0 {
		res = append(res, "M_MOUNT")
	}
	if m&M_AUTH != 0 {
		res = append(res, "M_AUTH")
	}
	if m&M_TMP != 0 {
		res = append(res, "M_TMP")
	}
	if m&M_SYMLINK != 0 {
		res = append(res, "M_SYMLINK")
	}
	return strings.Join(res, "|")
}

func (m Mode) ToOsMode() os.FileMode {
	var mode os.FileMode
	if m&M_DIR != 0 {
		mode = os.ModeDir
	}
	if m&M_APPEND != 0 {
		mode |= os.ModeAppend
	}
	if m&M_EXCL != 0 {
		mode |= os.ModeExclusive
	}
	if m&M_TMP != 0 {
		mode |= os.ModeTemporary
	}
	if m&M_SYMLINK != 0 {
		mode |= os.ModeSymlink
	}
	mode |= (os.FileMode(m) & os.ModePerm)
	return mode
}

func ModeFromOS(mode os.FileMode) Mode {
	var perm Mode
	if mode&os.ModeDir != 0 {
		perm |= M_DIR
	}
	if mode&os.ModeAppend != 0 {
		perm |= M_APPEND
	}
	if mode&os.ModeExclusive != 0 {
		perm |= M_EXCL
	}
	if mode&os.ModeTemporary != 0 {
		perm |= M_TMP
	}
	if mode&os.ModeSymlink != 0 {
		perm |= M_SYMLINK
	}
	return perm | Mode(mode.Perm())
}

func (m Mode) QidType() QidType {
	return QidType((m & M_TYPE) >> 24)
}

var bo = binary.LittleEndian

/////////////////////////////////////

type Tag uint16

/////////////////////////////////////

type MsgBase []byte

func (r MsgBase) fill(mt MsgType, t Tag, size uint32) {
	bo.PutUint32(r[:4], size)       // Size
	r[4] = byte(mt)                 // MsgType
	bo.PutUint16(r[5:7], uint16(t)) // Tag
}

func (r MsgBase) Bytes() []byte { return r[:int(r.Size())] }
func (r MsgBase) Size() uint32  { return bo.Uint32(r[:4]) }
func (r MsgBase) Type() MsgType { return MsgType(r[4]) }
func (r MsgBase) Tag() Tag      { return Tag(bo.Uint16(r[5:7])) }
func (r MsgBase) setTag(t Tag)  { bo.PutUint16(r[5:7], uint16(t)) }

const msgOffset = 7

/////////////////////////////////////

type msgString []byte

const maxStringLen = math.MaxUint16

func (s msgString) Len() uint16     { return bo.Uint16(s[0:2]) }
func (s msgString) SetLen(v uint16) { bo.PutUint16(s[0:2], v) }
func (s msgString) Bytes() []byte   { return s[2 : s.Len()+2] }
func (s msgString) SetBytesAndLen(b []byte) {
	s.SetLen(uint16(len(b)))
	copy(s[2:len(b)+2], b)
}
func (s msgString) String() string { return string(s.Bytes()) }
func (s msgString) SetStringAndLen(v string) int {
	s.SetBytesAndLen([]byte(v))
	return 2 + len(v)
}
func (s msgString) Nbytes() int { return int(s.Len()) + 2 }

/////////////////////////////////////

type Fid uint32 // always size 4

func (f Fid) String() string {
	return fmt.Sprintf("Fid(%d)", uint32(f))
}

/////////////////////////////////////

type QidType byte

const (
	QT_FILE    QidType = 0x00
	QT_LINK    QidType = 0x01
	QT_SYMLINK QidType = 0x02
	QT_TMP     QidType = 0x04
	QT_AUTH    QidType = 0x08
	QT_MOUNT   QidType = 0x10
	QT_EXCL    QidType = 0x20
	QT_APPEND  QidType = 0x40
	QT_DIR     QidType = 0x80
)

func (qt QidType) IsDir() bool       { return qt&QT_DIR != 0 }
func (qt QidType) IsSymLink() bool   { return qt&QT_SYMLINK != 0 }
func (qt QidType) IsAuth() bool      { return qt&QT_AUTH != 0 }
func (qt QidType) IsMount() bool     { return qt&QT_MOUNT != 0 }
func (qt QidType) IsExclusive() bool { return qt&QT_EXCL != 0 }
func (qt QidType) IsTemporary() bool { return qt&QT_TMP != 0 }

func (qt QidType) String() string {
	parts := []string{}
	if qt == QT_FILE {
		parts = append(parts, "QT_FILE")
	}
	if qt&QT_LINK != 0 {
		parts = append(parts, "QT_LINK")
	}
	if qt&QT_SYMLINK != 0 {
		parts = append(parts, "QT_SYMLINK")
	}
	if qt&QT_TMP != 0 {
		parts = append(parts, "QT_TMP")
	}
	if qt&QT_AUTH != 0 {
		parts = append(parts, "QT_AUTH")
	}
	if qt&QT_MOUNT != 0 {
		parts = append(parts, "QT_MOUNT")
	}
	if qt&QT_EXCL != 0 {
		parts = append(parts, "QT_EXCL")
	}
	if qt&QT_APPEND != 0 {
		parts = append(parts, "QT_APPEND")
	}
	if qt&QT_DIR != 0 {
		parts = append(parts, "QT_DIR")
	}
	return strings.Join(parts, "|")
}

const QidSize = 13

// qid.type[1] the type of the file (directory, etc.)
// qid.vers[4] version number for given path
// qid.path[8] the file server's unique identification for the file
type Qid []byte // always size 13

var NoTouchQid Qid

func init() {
	NoTouchQid = NewQid()
	for i := range NoTouchQid {
		NoTouchQid[i] = 0xff
	}
}

func NewQid() Qid {
	return Qid(make([]byte, QidSize))
}

func (q Qid) Fill(t QidType, version uint32, path uint64) Qid {
	q[0] = byte(t)
	bo.PutUint32(q[1:5], version)
	bo.PutUint64(q[5:13], path)
	return q
}

func (q Qid) Bytes() []byte       { return q[:QidSize] }
func (q Qid) Type() QidType       { return QidType(q[0]) }
func (q Qid) Version() uint32     { return bo.Uint32(q[1:5]) }
func (q Qid) SetVersion(v uint32) { bo.PutUint32(q[1:5], v) }
func (q Qid) Path() uint64        { return bo.Uint64(q[5 : 5+8]) }
func (q Qid) IsNoTouch() bool {
	for _, v := range q.Bytes() {
		if v != 0xff {
			return false
		}
	}
	return true
}

// Equal reports whether two qids refer to the same underlying file.
func (q Qid) Equal(o Qid) bool {
	return len(q) >= QidSize && len(o) >= QidSize &&
		q.Type() == o.Type() && q.Version() == o.Version() && q.Path() == o.Path()
}

func (q Qid) Clone() Qid {
	qid := make(Qid, len(q))
	copy(qid, q)
	return qid
}

func (q Qid) String() string {
	return fmt.Sprintf("Qid{ type: %s, version: %v, path: %v }", q.Type(), q.Version(), q.Path())
}

/////////////////////////////////////
/*
The stat reply carries a machine-independent directory entry, laid out as:

	size[2] total byte count of the following data
	type[2] for kernel use
	dev[4] for kernel use
	qid[13]
	mode[4] permissions and flags
	atime[4] last access time
	mtime[4] last modification time
	length[8] length of file in bytes
	name[s] file name; must be / if the file is the root directory of the server
	uid[s] owner name
	gid[s] group name
	muid[s] name of the user who last modified the file

9P2000.u appends: extension[s] n_uid[4] n_gid[4] n_muid[4]
*/
type Stat []byte

const (
	// size[2] through length[8]; the four counted strings begin here
	fixedStatSize = 2 + 2 + 4 + QidSize + 4 + 4 + 4 + 8
	minStatSize   = fixedStatSize + 4*2
)

func statSize(dotu bool, name, uid, gid, muid, extension string) int {
	n := minStatSize + len(name) + len(uid) + len(gid) + len(muid)
	if dotu {
		n += 2 + len(extension) + 4*3
	}
	return n
}

func (s Stat) fill(dotu bool, name, uid, gid, muid, extension string) {
	for _, str := range []string{name, uid, gid, muid, extension} {
		if len(str) > maxStringLen {
			panic(fmt.Errorf("stat string is too large (%d > %d)", len(str), maxStringLen))
		}
	}
	size := statSize(dotu, name, uid, gid, muid, extension)
	if size > len(s) {
		panic(fmt.Errorf("Stat buffer too small (%d < %d)", len(s), size))
	}
	s.SetSize(uint16(size - 2))
	b := s[fixedStatSize:]
	for _, str := range []string{name, uid, gid, muid} {
		bo.PutUint16(b, uint16(len(str)))
		b = b[2:]
		b = b[copy(b, str):]
	}
	if dotu {
		bo.PutUint16(b, uint16(len(extension)))
		b = b[2:]
		b = b[copy(b, extension):]
	}
}

// SyncStat returns a Twstat stat whose every field is a no-touch value.
// Servers treat such a wstat as a request to flush the file to stable
// storage.
func SyncStat() Stat {
	return SyncStatWithName("")
}

// SyncStatWithName is SyncStat with the name set: the wire form of rename
// under the base and .u dialects.
func SyncStatWithName(name string) Stat {
	st := NewStat(name, "", "", "")
	st.SetType(NoTouchU16)
	st.SetDev(NoTouchU32)
	st.SetQid(NoTouchQid)
	st.SetMode(NoTouchMode)
	st.SetAtime(NoTouchU32)
	st.SetMtime(NoTouchU32)
	st.SetLength(NoTouchU64)
	return st
}

func NewStat(name, uid, gid, muid string) Stat {
	size := statSize(false, name, uid, gid, muid, "")
	s := Stat(make([]byte, size))
	s.fill(false, name, uid, gid, muid, "")
	return s
}

func (s Stat) Nbytes() int   { return int(s.Size() + 2) }
func (s Stat) Bytes() []byte { return s[:s.Size()+2] }

func (s Stat) String() string {
	return fmt.Sprintf(
		"Stat{ Size: %d, Qid: %s, Mode: %s, Length: %d, Name: %q, Uid: %q, Gid: %q, Muid: %q }",
		s.Size(), s.Qid(), s.Mode(), s.Length(), s.Name(), s.Uid(), s.Gid(), s.Muid())
}

func (s Stat) Size() uint16     { return bo.Uint16(s[:2]) }
func (s Stat) SetSize(v uint16) { bo.PutUint16(s[:2], v) }

func (s Stat) Type() uint16     { return bo.Uint16(s[2:4]) }
func (s Stat) SetType(v uint16) { bo.PutUint16(s[2:4], v) }

func (s Stat) Dev() uint32     { return bo.Uint32(s[4:8]) }
func (s Stat) SetDev(v uint32) { bo.PutUint32(s[4:8], v) }

func (s Stat) Qid() Qid     { return Qid(s[8 : 8+QidSize]) }
func (s Stat) SetQid(v Qid) { copy(s[8:8+QidSize], v.Bytes()) }

func (s Stat) ModeNoTouch() bool { return s.Mode() == NoTouchMode }
func (s Stat) Mode() Mode        { return Mode(bo.Uint32(s[8+QidSize : 8+QidSize+4])) }
func (s Stat) SetMode(v Mode)    { bo.PutUint32(s[8+QidSize:8+QidSize+4], uint32(v)) }

func (s Stat) AtimeNoTouch() bool { return s.Atime() == NoTouchU32 }
func (s Stat) Atime() uint32      { return bo.Uint32(s[8+QidSize+4 : 8+QidSize+8]) }
func (s Stat) SetAtime(v uint32)  { bo.PutUint32(s[8+QidSize+4:8+QidSize+8], v) }

func (s Stat) MtimeNoTouch() bool { return s.Mtime() == NoTouchU32 }
func (s Stat) Mtime() uint32      { return bo.Uint32(s[8+QidSize+8 : 8+QidSize+12]) }
func (s Stat) SetMtime(v uint32)  { bo.PutUint32(s[8+QidSize+8:8+QidSize+12], v) }

func (s Stat) LengthNoTouch() bool { return s.Length() == NoTouchU64 }
func (s Stat) Length() uint64      { return bo.Uint64(s[8+QidSize+12 : 8+QidSize+20]) }
func (s Stat) SetLength(v uint64)  { bo.PutUint64(s[8+QidSize+12:8+QidSize+20], v) }

func (s Stat) name() msgString   { return msgString(s[fixedStatSize:]) }
func (s Stat) NameNoTouch() bool { return s.name().Len() == 0 }
func (s Stat) Name() string      { return s.name().String() }

func (s Stat) uid() msgString { return msgString(s[fixedStatSize+s.name().Nbytes():]) }
func (s Stat) Uid() string    { return s.uid().String() }

func (s Stat) gid() msgString {
	return msgString(s[fixedStatSize+s.name().Nbytes()+s.uid().Nbytes():])
}
func (s Stat) Gid() string { return s.gid().String() }

func (s Stat) muid() msgString {
	return msgString(s[fixedStatSize+s.name().Nbytes()+s.uid().Nbytes()+s.gid().Nbytes():])
}
func (s Stat) Muid() string { return s.muid().String() }

func (s Stat) unixTrailer() []byte {
	end := fixedStatSize + s.name().Nbytes() + s.uid().Nbytes() + s.gid().Nbytes() + s.muid().Nbytes()
	if end >= s.Nbytes() {
		return nil
	}
	return s[end:s.Nbytes()]
}

// HasUnixFields reports whether this record carries the .u trailer
// (extension string plus numeric owner ids).
func (s Stat) HasUnixFields() bool { return s.unixTrailer() != nil }

func (s Stat) Extension() string {
	t := s.unixTrailer()
	if t == nil {
		return ""
	}
	return msgString(t).String()
}

func (s Stat) NUid() uint32 {
	t := s.unixTrailer()
	if t == nil {
		return NO_UID
	}
	o := msgString(t).Nbytes()
	return bo.Uint32(t[o : o+4])
}

func (s Stat) NGid() uint32 {
	t := s.unixTrailer()
	if t == nil {
		return NO_UID
	}
	o := msgString(t).Nbytes() + 4
	return bo.Uint32(t[o : o+4])
}

func (s Stat) NMuid() uint32 {
	t := s.unixTrailer()
	if t == nil {
		return NO_UID
	}
	o := msgString(t).Nbytes() + 8
	return bo.Uint32(t[o : o+4])
}

// NO_UID is the .u "no numeric id" sentinel.
const NO_UID = ^uint32(0)

// NewStatU builds a .u stat record with the extension and numeric owner
// trailer present (ids default to the no-id sentinel).
func NewStatU(name, uid, gid, muid, extension string) Stat {
	size := statSize(true, name, uid, gid, muid, extension)
	s := Stat(make([]byte, size))
	s.fill(true, name, uid, gid, muid, extension)
	t := s.unixTrailer()
	o := msgString(t).Nbytes()
	bo.PutUint32(t[o:o+4], NO_UID)
	bo.PutUint32(t[o+4:o+8], NO_UID)
	bo.PutUint32(t[o+8:o+12], NO_UID)
	return s
}

func (s Stat) Clone() Stat {
	st := make(Stat, len(s))
	copy(st, s)
	return st
}

func (s Stat) FileInfo() StatFileInfo { return StatFileInfo{s} }

// os.FileInfo interface

type StatFileInfo struct {
	Stat
}

func (s StatFileInfo) Size() int64        { return int64(s.Stat.Length()) }
func (s StatFileInfo) Name() string       { return s.Stat.Name() }
func (s StatFileInfo) Mode() os.FileMode  { return s.Stat.Mode().ToOsMode() }
func (s StatFileInfo) ModTime() time.Time { return time.Unix(int64(s.Stat.Mtime()), 0) }
func (s StatFileInfo) IsDir() bool        { return s.Stat.Mode()&M_DIR != 0 }
func (s StatFileInfo) Sys() interface{}   { return s.Stat }

/////////////////////////////////////
// size[4] Tversion tag[2] msize[4] version[s]
type Tversion []byte

func (r Tversion) fill(t Tag, maxMessageSize uint32, version string) {
	size := uint32(msgOffset + 4 + 2 + len(version))
	MsgBase(r).fill(msgTversion, t, size)
	bo.PutUint32(r[msgOffset:msgOffset+4], maxMessageSize)
	msgString(r[msgOffset+4:]).SetStringAndLen(version)
}

func (r Tversion) Bytes() []byte   { return MsgBase(r).Bytes() }
func (r Tversion) Size() uint32    { return MsgBase(r).Size() }
func (r Tversion) Tag() Tag        { return MsgBase(r).Tag() }
func (r Tversion) MsgSize() uint32 { return bo.Uint32(r[msgOffset : msgOffset+4]) }
func (r Tversion) Version() string { return msgString(r[msgOffset+4:]).String() }

/////////////////////////////////////
// size[4] Rversion tag[2] msize[4] version[s]
type Rversion []byte

func (r Rversion) fill(t Tag, maxMessageSize uint32, version string) {
	MsgBase(r).fill(msgRversion, t, uint32(msgOffset+4+2+len(version)))
	bo.PutUint32(r[msgOffset:msgOffset+4], maxMessageSize)
	msgString(r[msgOffset+4:]).SetStringAndLen(version)
}

func (r Rversion) Bytes() []byte   { return MsgBase(r).Bytes() }
func (r Rversion) Size() uint32    { return MsgBase(r).Size() }
func (r Rversion) Tag() Tag        { return MsgBase(r).Tag() }
func (r Rversion) MsgSize() uint32 { return bo.Uint32(r[msgOffset : msgOffset+4]) }
func (r Rversion) Version() string { return msgString(r[msgOffset+4:]).String() }

/////////////////////////////////////
// size[4] Tauth tag[2] afid[4] uname[s] aname[s]
// 9P2000.u appends n_uname[4]
type Tauth []byte

func (r Tauth) fill(t Tag, afid Fid, uname, aname string) {
	MsgBase(r).fill(msgTauth, t, uint32(msgOffset+4+2*2+len(uname)+len(aname)))
	bo.PutUint32(r[msgOffset:msgOffset+4], uint32(afid))
	next := msgString(r[msgOffset+4:]).SetStringAndLen(uname)
	msgString(r[msgOffset+4+next:]).SetStringAndLen(aname)
}

func (r Tauth) fillU(t Tag, afid Fid, uname, aname string, nuname uint32) {
	MsgBase(r).fill(msgTauth, t, uint32(msgOffset+4+2*2+len(uname)+len(aname)+4))
	bo.PutUint32(r[msgOffset:msgOffset+4], uint32(afid))
	off := msgOffset + 4
	off += msgString(r[off:]).SetStringAndLen(uname)
	off += msgString(r[off:]).SetStringAndLen(aname)
	bo.PutUint32(r[off:off+4], nuname)
}

func (r Tauth) Bytes() []byte { return MsgBase(r).Bytes() }
func (r Tauth) Size() uint32  { return MsgBase(r).Size() }
func (r Tauth) Tag() Tag      { return MsgBase(r).Tag() }
func (r Tauth) Afid() Fid     { return Fid(bo.Uint32(r[msgOffset : msgOffset+4])) }

func (r Tauth) uname() msgString { return msgString(r[msgOffset+4:]) }
func (r Tauth) Uname() string    { return r.uname().String() }
func (r Tauth) aname() msgString { return msgString(r[msgOffset+4+r.uname().Nbytes():]) }
func (r Tauth) Aname() string    { return r.aname().String() }

/////////////////////////////////////
// size[4] Rauth tag[2] aqid[13]
type Rauth []byte

func (r Rauth) fill(t Tag, aqid Qid) {
	MsgBase(r).fill(msgRauth, t, uint32(msgOffset+QidSize))
	copy(r[msgOffset:msgOffset+QidSize], aqid)
}

func (r Rauth) Bytes() []byte { return MsgBase(r).Bytes() }
func (r Rauth) Size() uint32  { return MsgBase(r).Size() }
func (r Rauth) Tag() Tag      { return MsgBase(r).Tag() }
func (r Rauth) Aqid() Qid     { return Qid(r[msgOffset : msgOffset+QidSize]) }

/////////////////////////////////////
// size[4] Rerror tag[2] ename[s]
// 9P2000.u appends errno[4]
type Rerror []byte

func (r Rerror) fill(t Tag, msg string) {
	MsgBase(r).fill(msgRerror, t, uint32(msgOffset+2+len(msg)))
	msgString(r[msgOffset:]).SetStringAndLen(msg)
}

func (r Rerror) fillU(t Tag, msg string, errno uint32) {
	MsgBase(r).fill(msgRerror, t, uint32(msgOffset+2+len(msg)+4))
	off := msgOffset + msgString(r[msgOffset:]).SetStringAndLen(msg)
	bo.PutUint32(r[off:off+4], errno)
}

func (r Rerror) Bytes() []byte    { return MsgBase(r).Bytes() }
func (r Rerror) Size() uint32     { return MsgBase(r).Size() }
func (r Rerror) Tag() Tag         { return MsgBase(r).Tag() }
func (r Rerror) ename() msgString { return msgString(r[msgOffset:]) }
func (r Rerror) Ename() string    { return r.ename().String() }

// Errno returns the .u errno field, or 0 when the reply doesn't carry one.
func (r Rerror) Errno() uint32 {
	off := msgOffset + r.ename().Nbytes()
	if int(r.Size()) < off+4 {
		return 0
	}
	return bo.Uint32(r[off : off+4])
}

/////////////////////////////////////
// size[4] Tclunk tag[2] fid[4]
type Tclunk []byte

func (r Tclunk) fill(t Tag, fid Fid) {
	MsgBase(r).fill(msgTclunk, t, uint32(msgOffset+4))
	bo.PutUint32(r[msgOffset:msgOffset+4], uint32(fid))
}

func (r Tclunk) Bytes() []byte { return MsgBase(r).Bytes() }
func (r Tclunk) Size() uint32  { return MsgBase(r).Size() }
func (r Tclunk) Tag() Tag      { return MsgBase(r).Tag() }
func (r Tclunk) Fid() Fid      { return Fid(bo.Uint32(r[msgOffset : msgOffset+4])) }

/////////////////////////////////////
// size[4] Rclunk tag[2]
type Rclunk []byte

func (r Rclunk) fill(t Tag) { MsgBase(r).fill(msgRclunk, t, uint32(msgOffset)) }

func (r Rclunk) Bytes() []byte { return MsgBase(r).Bytes() }
func (r Rclunk) Size() uint32  { return MsgBase(r).Size() }
func (r Rclunk) Tag() Tag      { return MsgBase(r).Tag() }

/////////////////////////////////////
// size[4] Tflush tag[2] oldtag[2]
type Tflush []byte

func (r Tflush) fill(t Tag, oldTag Tag) {
	MsgBase(r).fill(msgTflush, t, uint32(msgOffset+2))
	bo.PutUint16(r[msgOffset:msgOffset+2], uint16(oldTag))
}

func (r Tflush) Bytes() []byte { return MsgBase(r).Bytes() }
func (r Tflush) Size() uint32  { return MsgBase(r).Size() }
func (r Tflush) Tag() Tag      { return MsgBase(r).Tag() }
func (r Tflush) OldTag() Tag   { return Tag(bo.Uint16(r[msgOffset : msgOffset+2])) }

/////////////////////////////////////
// size[4] Rflush tag[2]
type Rflush []byte

func (r Rflush) fill(t Tag) { MsgBase(r).fill(msgRflush, t, uint32(msgOffset)) }

func (r Rflush) Bytes() []byte { return MsgBase(r).Bytes() }
func (r Rflush) Size() uint32  { return MsgBase(r).Size() }
func (r Rflush) Tag() Tag      { return MsgBase(r).Tag() }

/////////////////////////////////////
// size[4] Twalk tag[2] fid[4] newfid[4] nwname[2] nwname*(wname[s])
type Twalk []byte

// A maximum of sixteen name elements or qids may be packed in a single
// message, per fcall(3). Longer paths take multiple Twalks.
const MAXWELEM = 16

func (r Twalk) fill(t Tag, fid, newfid Fid, wnames []string) {
	size := uint32(msgOffset + 4 + 4 + 2 + 2*len(wnames))
	for _, n := range wnames {
		size += uint32(len(n))
	}
	MsgBase(r).fill(msgTwalk, t, size)
	bo.PutUint32(r[msgOffset:msgOffset+4], uint32(fid))
	bo.PutUint32(r[msgOffset+4:msgOffset+8], uint32(newfid))
	bo.PutUint16(r[msgOffset+8:msgOffset+10], uint16(len(wnames)))
	off := msgOffset + 10
	for _, n := range wnames {
		off += msgString(r[off:]).SetStringAndLen(n)
	}
}

func (r Twalk) Bytes() []byte    { return MsgBase(r).Bytes() }
func (r Twalk) Size() uint32     { return MsgBase(r).Size() }
func (r Twalk) Tag() Tag         { return MsgBase(r).Tag() }
func (r Twalk) Fid() Fid         { return Fid(bo.Uint32(r[msgOffset : msgOffset+4])) }
func (r Twalk) NewFid() Fid      { return Fid(bo.Uint32(r[msgOffset+4 : msgOffset+8])) }
func (r Twalk) NumWname() uint16 { return bo.Uint16(r[msgOffset+8 : msgOffset+10]) }

func (r Twalk) Wnames() []string {
	names := make([]string, 0, MAXWELEM)
	off := msgOffset + 10
	size := int(r.NumWname())
	for j := 0; j < size; j++ {
		mstr := msgString(r[off:])
		names = append(names, mstr.String())
		off += mstr.Nbytes()
	}
	return names
}

/////////////////////////////////////
// size[4] Rwalk tag[2] nwqid[2] nwqid*(wqid[13])
type Rwalk []byte

func (r Rwalk) fill(t Tag, wqids []Qid) {
	size := uint32(msgOffset + 2 + len(wqids)*QidSize)
	MsgBase(r).fill(msgRwalk, t, size)
	bo.PutUint16(r[msgOffset:msgOffset+2], uint16(len(wqids)))
	off := msgOffset + 2
	for i, wqid := range wqids {
		o := off + i*QidSize
		copy(r[o:o+QidSize], wqid.Bytes())
	}
}

func (r Rwalk) Bytes() []byte   { return MsgBase(r).Bytes() }
func (r Rwalk) Size() uint32    { return MsgBase(r).Size() }
func (r Rwalk) Tag() Tag        { return MsgBase(r).Tag() }
func (r Rwalk) NumWqid() uint16 { return bo.Uint16(r[msgOffset : msgOffset+2]) }
func (r Rwalk) Wqid(i int) Qid {
	off := msgOffset + 2 + i*QidSize
	return Qid(r[off : off+QidSize])
}

/////////////////////////////////////
// size[4] Tattach tag[2] fid[4] afid[4] uname[s] aname[s]
// 9P2000.u appends n_uname[4]
type Tattach []byte

func (r Tattach) fill(t Tag, fid, afid Fid, uname, aname string) {
	size := uint32(msgOffset + 4 + 4 + 2 + len(uname) + 2 + len(aname))
	MsgBase(r).fill(msgTattach, t, size)
	bo.PutUint32(r[msgOffset:msgOffset+4], uint32(fid))
	bo.PutUint32(r[msgOffset+4:msgOffset+8], uint32(afid))
	off := msgString(r[msgOffset+8:]).SetStringAndLen(uname)
	msgString(r[msgOffset+8+off:]).SetStringAndLen(aname)
}

func (r Tattach) fillU(t Tag, fid, afid Fid, uname, aname string, nuname uint32) {
	size := uint32(msgOffset + 4 + 4 + 2 + len(uname) + 2 + len(aname) + 4)
	MsgBase(r).fill(msgTattach, t, size)
	bo.PutUint32(r[msgOffset:msgOffset+4], uint32(fid))
	bo.PutUint32(r[msgOffset+4:msgOffset+8], uint32(afid))
	off := msgOffset + 8
	off += msgString(r[off:]).SetStringAndLen(uname)
	off += msgString(r[off:]).SetStringAndLen(aname)
	bo.PutUint32(r[off:off+4], nuname)
}

func (r Tattach) Bytes() []byte { return MsgBase(r).Bytes() }
func (r Tattach) Size() uint32  { return MsgBase(r).Size() }
func (r Tattach) Tag() Tag      { return MsgBase(r).Tag() }
func (r Tattach) Fid() Fid      { return Fid(bo.Uint32(r[msgOffset : msgOffset+4])) }
func (r Tattach) Afid() Fid     { return Fid(bo.Uint32(r[msgOffset+4 : msgOffset+8])) }

func (r Tattach) uname() msgString { return msgString(r[msgOffset+8:]) }
func (r Tattach) Uname() string    { return r.uname().String() }
func (r Tattach) aname() msgString { return msgString(r[msgOffset+8+r.uname().Nbytes():]) }
func (r Tattach) Aname() string    { return r.aname().String() }

/////////////////////////////////////
// size[4] Rattach tag[2] qid[13]
type Rattach []byte

func (r Rattach) fill(t Tag, qid Qid) {
	MsgBase(r).fill(msgRattach, t, uint32(msgOffset+QidSize))
	copy(r[msgOffset:msgOffset+QidSize], qid.Bytes())
}

func (r Rattach) Bytes() []byte { return MsgBase(r).Bytes() }
func (r Rattach) Size() uint32  { return MsgBase(r).Size() }
func (r Rattach) Tag() Tag      { return MsgBase(r).Tag() }
func (r Rattach) Qid() Qid      { return Qid(r[msgOffset : msgOffset+QidSize]) }

/////////////////////////////////////
// size[4] Topen tag[2] fid[4] mode[1]
type Topen []byte

func (r Topen) fill(t Tag, fid Fid, mode OpenMode) {
	MsgBase(r).fill(msgTopen, t, uint32(msgOffset+4+1))
	bo.PutUint32(r[msgOffset:msgOffset+4], uint32(fid))
	r[msgOffset+4] = byte(mode)
}

func (r Topen) Bytes() []byte  { return MsgBase(r).Bytes() }
func (r Topen) Size() uint32   { return MsgBase(r).Size() }
func (r Topen) Tag() Tag       { return MsgBase(r).Tag() }
func (r Topen) Fid() Fid       { return Fid(bo.Uint32(r[msgOffset : msgOffset+4])) }
func (r Topen) Mode() OpenMode { return OpenMode(r[msgOffset+4]) }

/////////////////////////////////////
// size[4] Ropen tag[2] qid[13] iounit[4]
type Ropen []byte

func (r Ropen) fill(t Tag, qid Qid, iounit uint32) {
	MsgBase(r).fill(msgRopen, t, uint32(msgOffset+QidSize+4))
	copy(r[msgOffset:msgOffset+QidSize], qid.Bytes())
	bo.PutUint32(r[msgOffset+QidSize:msgOffset+QidSize+4], iounit)
}

func (r Ropen) Bytes() []byte { return MsgBase(r).Bytes() }
func (r Ropen) Size() uint32  { return MsgBase(r).Size() }
func (r Ropen) Tag() Tag      { return MsgBase(r).Tag() }
func (r Ropen) Qid() Qid      { return Qid(r[msgOffset : msgOffset+QidSize]) }
func (r Ropen) Iounit() uint32 {
	return bo.Uint32(r[msgOffset+QidSize : msgOffset+QidSize+4])
}

/////////////////////////////////////
// size[4] Tcreate tag[2] fid[4] name[s] perm[4] mode[1]
// 9P2000.u appends extension[s]
type Tcreate []byte

func (r Tcreate) fill(t Tag, fid Fid, name string, perm uint32, mode OpenMode) {
	size := uint32(msgOffset + 4 + 2 + len(name) + 4 + 1)
	MsgBase(r).fill(msgTcreate, t, size)
	bo.PutUint32(r[msgOffset:msgOffset+4], uint32(fid))
	off := msgString(r[msgOffset+4:]).SetStringAndLen(name)
	bo.PutUint32(r[msgOffset+4+off:msgOffset+4+off+4], perm)
	r[msgOffset+4+off+4] = byte(mode)
}

func (r Tcreate) fillU(t Tag, fid Fid, name string, perm uint32, mode OpenMode, extension string) {
	size := uint32(msgOffset + 4 + 2 + len(name) + 4 + 1 + 2 + len(extension))
	MsgBase(r).fill(msgTcreate, t, size)
	bo.PutUint32(r[msgOffset:msgOffset+4], uint32(fid))
	off := msgOffset + 4
	off += msgString(r[off:]).SetStringAndLen(name)
	bo.PutUint32(r[off:off+4], perm)
	r[off+4] = byte(mode)
	msgString(r[off+5:]).SetStringAndLen(extension)
}

func (r Tcreate) Bytes() []byte { return MsgBase(r).Bytes() }
func (r Tcreate) Size() uint32  { return MsgBase(r).Size() }
func (r Tcreate) Tag() Tag      { return MsgBase(r).Tag() }
func (r Tcreate) Fid() Fid      { return Fid(bo.Uint32(r[msgOffset : msgOffset+4])) }

func (r Tcreate) name() msgString { return msgString(r[msgOffset+4:]) }
func (r Tcreate) Name() string    { return r.name().String() }

func (r Tcreate) Perm() Mode {
	o := msgOffset + 4 + r.name().Nbytes()
	return Mode(bo.Uint32(r[o : o+4]))
}
func (r Tcreate) Mode() OpenMode { return OpenMode(r[msgOffset+4+r.name().Nbytes()+4]) }

/////////////////////////////////////
// size[4] Rcreate tag[2] qid[13] iounit[4]
type Rcreate []byte

func (r Rcreate) fill(t Tag, q Qid, iounit uint32) {
	MsgBase(r).fill(msgRcreate, t, uint32(msgOffset+QidSize+4))
	copy(r[msgOffset:msgOffset+QidSize], q.Bytes())
	bo.PutUint32(r[msgOffset+QidSize:msgOffset+QidSize+4], iounit)
}

func (r Rcreate) Bytes() []byte { return MsgBase(r).Bytes() }
func (r Rcreate) Size() uint32  { return MsgBase(r).Size() }
func (r Rcreate) Tag() Tag      { return MsgBase(r).Tag() }
func (r Rcreate) Qid() Qid      { return Qid(r[msgOffset : msgOffset+QidSize]) }
func (r Rcreate) Iounit() uint32 {
	return bo.Uint32(r[msgOffset+QidSize : msgOffset+QidSize+4])
}

/////////////////////////////////////
// size[4] Tread tag[2] fid[4] offset[8] count[4]
type Tread []byte

func (r Tread) fill(t Tag, fid Fid, offset uint64, count uint32) {
	MsgBase(r).fill(msgTread, t, uint32(msgOffset+4+8+4))
	bo.PutUint32(r[msgOffset:msgOffset+4], uint32(fid))
	bo.PutUint64(r[msgOffset+4:msgOffset+12], offset)
	bo.PutUint32(r[msgOffset+12:msgOffset+16], count)
}

func (r Tread) Bytes() []byte  { return MsgBase(r).Bytes() }
func (r Tread) Size() uint32   { return MsgBase(r).Size() }
func (r Tread) Tag() Tag       { return MsgBase(r).Tag() }
func (r Tread) Fid() Fid       { return Fid(bo.Uint32(r[msgOffset : msgOffset+4])) }
func (r Tread) Offset() uint64 { return bo.Uint64(r[msgOffset+4 : msgOffset+12]) }
func (r Tread) Count() uint32  { return bo.Uint32(r[msgOffset+12 : msgOffset+16]) }

/////////////////////////////////////
// size[4] Rread tag[2] count[4] data[count]
type Rread []byte

func (r Rread) fill(t Tag, data []byte) {
	MsgBase(r).fill(msgRread, t, uint32(msgOffset+4+len(data)))
	bo.PutUint32(r[msgOffset:msgOffset+4], uint32(len(data)))
	copy(r[msgOffset+4:], data)
}

func (r Rread) Bytes() []byte { return MsgBase(r).Bytes() }
func (r Rread) Size() uint32  { return MsgBase(r).Size() }
func (r Rread) Tag() Tag      { return MsgBase(r).Tag() }
func (r Rread) Count() uint32 { return bo.Uint32(r[msgOffset : msgOffset+4]) }
func (r Rread) Data() []byte  { return r[msgOffset+4 : msgOffset+4+r.Count()] }

// DataNoLimit is the payload region regardless of the declared count.
func (r Rread) DataNoLimit() []byte { return r[msgOffset+4:] }

/////////////////////////////////////
// size[4] Twrite tag[2] fid[4] offset[8] count[4] data[count]
type Twrite []byte

// fill writes the header only; callers place the payload through
// DataNoLimit before or after.
func (r Twrite) fill(t Tag, fid Fid, offset uint64, count uint32) {
	MsgBase(r).fill(msgTwrite, t, uint32(msgOffset+4+8+4)+count)
	bo.PutUint32(r[msgOffset:msgOffset+4], uint32(fid))
	bo.PutUint64(r[msgOffset+4:msgOffset+12], offset)
	bo.PutUint32(r[msgOffset+12:msgOffset+16], count)
}

func (r Twrite) Bytes() []byte  { return MsgBase(r).Bytes() }
func (r Twrite) Size() uint32   { return MsgBase(r).Size() }
func (r Twrite) Tag() Tag       { return MsgBase(r).Tag() }
func (r Twrite) Fid() Fid       { return Fid(bo.Uint32(r[msgOffset : msgOffset+4])) }
func (r Twrite) Offset() uint64 { return bo.Uint64(r[msgOffset+4 : msgOffset+12]) }
func (r Twrite) Count() uint32  { return bo.Uint32(r[msgOffset+12 : msgOffset+16]) }
func (r Twrite) Data() []byte   { return r[msgOffset+16 : msgOffset+16+int(r.Count())] }

func (r Twrite) DataNoLimit() []byte { return r[msgOffset+16:] }

/////////////////////////////////////
// size[4] Rwrite tag[2] count[4]
type Rwrite []byte

func (r Rwrite) fill(t Tag, count uint32) {
	MsgBase(r).fill(msgRwrite, t, uint32(msgOffset+4))
	bo.PutUint32(r[msgOffset:msgOffset+4], count)
}

func (r Rwrite) Bytes() []byte { return MsgBase(r).Bytes() }
func (r Rwrite) Size() uint32  { return MsgBase(r).Size() }
func (r Rwrite) Tag() Tag      { return MsgBase(r).Tag() }
func (r Rwrite) Count() uint32 { return bo.Uint32(r[msgOffset : msgOffset+4]) }

/////////////////////////////////////
// size[4] Tremove tag[2] fid[4]
type Tremove []byte

func (r Tremove) fill(t Tag, fid Fid) {
	MsgBase(r).fill(msgTremove, t, uint32(msgOffset+4))
	bo.PutUint32(r[msgOffset:msgOffset+4], uint32(fid))
}

func (r Tremove) Bytes() []byte { return MsgBase(r).Bytes() }
func (r Tremove) Size() uint32  { return MsgBase(r).Size() }
func (r Tremove) Tag() Tag      { return MsgBase(r).Tag() }
func (r Tremove) Fid() Fid      { return Fid(bo.Uint32(r[msgOffset : msgOffset+4])) }

/////////////////////////////////////
// size[4] Rremove tag[2]
type Rremove []byte

func (r Rremove) fill(t Tag) { MsgBase(r).fill(msgRremove, t, uint32(msgOffset)) }

func (r Rremove) Bytes() []byte { return MsgBase(r).Bytes() }
func (r Rremove) Size() uint32  { return MsgBase(r).Size() }
func (r Rremove) Tag() Tag      { return MsgBase(r).Tag() }

/////////////////////////////////////
// size[4] Tstat tag[2] fid[4]
type Tstat []byte

func (r Tstat) fill(t Tag, fid Fid) {
	MsgBase(r).fill(msgTstat, t, uint32(msgOffset+4))
	bo.PutUint32(r[msgOffset:msgOffset+4], uint32(fid))
}

func (r Tstat) Bytes() []byte { return MsgBase(r).Bytes() }
func (r Tstat) Size() uint32  { return MsgBase(r).Size() }
func (r Tstat) Tag() Tag      { return MsgBase(r).Tag() }
func (r Tstat) Fid() Fid      { return Fid(bo.Uint32(r[msgOffset : msgOffset+4])) }

/////////////////////////////////////
// size[4] Rstat tag[2] stat[n]
type Rstat []byte

func (r Rstat) fill(t Tag, s Stat) {
	b := s.Bytes()
	MsgBase(r).fill(msgRstat, t, uint32(msgOffset+len(b)+2))
	// The entries in Twstat and Rstat messages also contain their size,
	// which means the size appears twice. See read(5).
	bo.PutUint16(r[msgOffset:msgOffset+2], uint16(len(b)))
	copy(r[msgOffset+2:], b)
}

func (r Rstat) Bytes() []byte { return MsgBase(r).Bytes() }
func (r Rstat) Size() uint32  { return MsgBase(r).Size() }
func (r Rstat) Tag() Tag      { return MsgBase(r).Tag() }
func (r Rstat) N() uint16     { return bo.Uint16(r[msgOffset : msgOffset+2]) }
func (r Rstat) Stat() Stat    { return Stat(r[msgOffset+2:]) }

/////////////////////////////////////
// size[4] Twstat tag[2] fid[4] stat[n]
type Twstat []byte

func (r Twstat) fill(t Tag, fid Fid, s Stat) {
	b := s.Bytes()
	MsgBase(r).fill(msgTwstat, t, uint32(msgOffset+4+len(b)+2))
	bo.PutUint32(r[msgOffset:msgOffset+4], uint32(fid))
	bo.PutUint16(r[msgOffset+4:msgOffset+6], uint16(len(b)))
	copy(r[msgOffset+6:], b)
}

func (r Twstat) Bytes() []byte { return MsgBase(r).Bytes() }
func (r Twstat) Size() uint32  { return MsgBase(r).Size() }
func (r Twstat) Tag() Tag      { return MsgBase(r).Tag() }
func (r Twstat) Fid() Fid      { return Fid(bo.Uint32(r[msgOffset : msgOffset+4])) }
func (r Twstat) N() uint16     { return bo.Uint16(r[msgOffset+4 : msgOffset+6]) }
func (r Twstat) Stat() Stat    { return Stat(r[msgOffset+6:]) }

/////////////////////////////////////
// size[4] Rwstat tag[2]
type Rwstat []byte

func (r Rwstat) fill(t Tag) { MsgBase(r).fill(msgRwstat, t, uint32(msgOffset)) }

func (r Rwstat) Bytes() []byte { return MsgBase(r).Bytes() }
func (r Rwstat) Size() uint32  { return MsgBase(r).Size() }
func (r Rwstat) Tag() Tag      { return MsgBase(r).Tag() }

/////////////////////////////////////

// checkString verifies a counted string's length prefix lands inside the
// buffer, returning the bytes after it.
func checkString(b []byte) (rest []byte, ok bool) {
	if len(b) < 2 {
		return nil, false
	}
	n := int(bo.Uint16(b[:2]))
	if len(b)-2 < n {
		return nil, false
	}
	return b[2+n:], true
}

// validStat verifies every counted field of a stat record lands inside its
// declared size.
func validStat(b []byte) bool {
	if len(b) < minStatSize {
		return false
	}
	n := int(bo.Uint16(b[:2])) + 2
	if n < minStatSize || n > len(b) {
		return false
	}
	rest := b[fixedStatSize:n]
	var ok bool
	for i := 0; i < 4; i++ {
		if rest, ok = checkString(rest); !ok {
			return false
		}
	}
	if len(rest) > 0 {
		// .u trailer: extension[s] n_uid[4] n_gid[4] n_muid[4]
		if rest, ok = checkString(rest); !ok || len(rest) != 12 {
			return false
		}
	}
	return true
}

// validateReply checks a reply frame's counted fields against its declared
// size before any accessor slices into the payload. Only the frame itself is
// judged; whether the opcode is legal for the dialect is decided elsewhere.
func validateReply(m MsgBase) error {
	body := []byte(m)[msgOffset:m.Size()]
	fail := func(field string) error {
		return errFraming("%s field overruns %s frame", field, m.Type())
	}
	switch m.Type() {
	case msgRversion:
		if len(body) < 4 {
			return fail("msize")
		}
		if _, ok := checkString(body[4:]); !ok {
			return fail("version")
		}
	case msgRauth, msgRattach, msgRsymlink, msgRmknod, msgRmkdir:
		if len(body) < QidSize {
			return fail("qid")
		}
	case msgRerror:
		rest, ok := checkString(body)
		if !ok {
			return fail("ename")
		}
		if len(rest) != 0 && len(rest) != 4 {
			return fail("errno")
		}
	case msgRwalk:
		if len(body) < 2 {
			return fail("nwqid")
		}
		n := int(bo.Uint16(body[:2]))
		if n > MAXWELEM || len(body)-2 < n*QidSize {
			return fail("wqid")
		}
	case msgRopen, msgRcreate, msgRlopen, msgRlcreate:
		if len(body) < QidSize+4 {
			return fail("qid")
		}
	case msgRread, msgRreaddir:
		if len(body) < 4 || int(bo.Uint32(body[:4])) > len(body)-4 {
			return fail("count")
		}
	case msgRwrite, msgRlerror:
		if len(body) < 4 {
			return fail("count")
		}
	case msgRstat:
		if len(body) < 2 {
			return fail("stat")
		}
		n := int(bo.Uint16(body[:2]))
		if len(body)-2 < n || !validStat(body[2:2+n]) {
			return fail("stat")
		}
	case msgRreadlink:
		if _, ok := checkString(body); !ok {
			return fail("target")
		}
	case msgRgetattr:
		if len(body) < rgetattrSize-msgOffset {
			return fail("attr")
		}
	}
	return nil
}
