package ninep

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTversionRoundTrip(t *testing.T) {
	buf := make([]byte, 256)
	Tversion(buf).fill(NO_TAG, 8192, "9P2000.L")
	m := Tversion(buf)
	assert.Equal(t, NO_TAG, m.Tag())
	assert.Equal(t, uint32(8192), m.MsgSize())
	assert.Equal(t, "9P2000.L", m.Version())
	assert.Equal(t, int(m.Size()), len(m.Bytes()))
}

func TestTwalkRoundTrip(t *testing.T) {
	buf := make([]byte, 1024)
	names := []string{"usr", "glenda", "lib", "profile"}
	Twalk(buf).fill(5, 1, 2, names)
	m := Twalk(buf)
	assert.Equal(t, Tag(5), m.Tag())
	assert.Equal(t, Fid(1), m.Fid())
	assert.Equal(t, Fid(2), m.NewFid())
	assert.Equal(t, uint16(4), m.NumWname())
	assert.Equal(t, names, m.Wnames())
}

func TestTwalkEmptyPathClones(t *testing.T) {
	buf := make([]byte, 64)
	Twalk(buf).fill(9, 3, 4, nil)
	m := Twalk(buf)
	assert.Equal(t, uint16(0), m.NumWname())
	assert.Empty(t, m.Wnames())
}

func TestRwalkQids(t *testing.T) {
	buf := make([]byte, 1024)
	q1 := NewQid().Fill(QT_DIR, 7, 42)
	q2 := NewQid().Fill(QT_FILE, 1, 43)
	Rwalk(buf).fill(2, []Qid{q1, q2})
	m := Rwalk(buf)
	assert.Equal(t, uint16(2), m.NumWqid())
	assert.True(t, q1.Equal(m.Wqid(0)))
	assert.True(t, q2.Equal(m.Wqid(1)))
}

func TestBoundaryStringLengths(t *testing.T) {
	long := strings.Repeat("x", maxStringLen)
	buf := make([]byte, 16+maxStringLen*2)
	Tversion(buf).fill(NO_TAG, 8192, long)
	assert.Equal(t, long, Tversion(buf).Version())

	// stat strings are length-checked at fill time
	assert.Panics(t, func() {
		NewStat(strings.Repeat("x", maxStringLen+1), "u", "g", "u")
	})
}

func TestRerrorErrnoAbsentOnBase(t *testing.T) {
	buf := make([]byte, 256)
	Rerror(buf).fill(3, "file not found")
	m := Rerror(buf)
	assert.Equal(t, "file not found", m.Ename())
	assert.Equal(t, uint32(0), m.Errno())
}

func TestRerrorErrnoDotU(t *testing.T) {
	buf := make([]byte, 256)
	Rerror(buf).fillU(3, "no such file or directory", 2)
	m := Rerror(buf)
	assert.Equal(t, "no such file or directory", m.Ename())
	assert.Equal(t, uint32(2), m.Errno())
}

func TestStatRoundTrip(t *testing.T) {
	st := NewStat("profile", "glenda", "sys", "glenda")
	st.SetMode(0644)
	st.SetLength(1234)
	st.SetMtime(1700000000)
	q := NewQid().Fill(QT_FILE, 1, 99)
	st.SetQid(q)

	assert.Equal(t, "profile", st.Name())
	assert.Equal(t, "glenda", st.Uid())
	assert.Equal(t, "sys", st.Gid())
	assert.Equal(t, "glenda", st.Muid())
	assert.Equal(t, Mode(0644), st.Mode())
	assert.Equal(t, uint64(1234), st.Length())
	assert.True(t, q.Equal(st.Qid()))
	assert.False(t, st.HasUnixFields())

	fi := st.FileInfo()
	assert.Equal(t, "profile", fi.Name())
	assert.Equal(t, int64(1234), fi.Size())
	assert.False(t, fi.IsDir())
}

func TestStatDotUTrailer(t *testing.T) {
	st := NewStatU("dev", "glenda", "sys", "glenda", "l /tmp/target")
	require.True(t, st.HasUnixFields())
	assert.Equal(t, "l /tmp/target", st.Extension())
	assert.Equal(t, NO_UID, st.NUid())
	assert.Equal(t, NO_UID, st.NGid())
	assert.Equal(t, NO_UID, st.NMuid())
}

func TestSyncStatTouchesNothing(t *testing.T) {
	st := SyncStat()
	assert.True(t, st.ModeNoTouch())
	assert.True(t, st.AtimeNoTouch())
	assert.True(t, st.MtimeNoTouch())
	assert.True(t, st.LengthNoTouch())
	assert.True(t, st.NameNoTouch())
	assert.True(t, st.Qid().IsNoTouch())
}

func TestRstatDoubleSizePrefix(t *testing.T) {
	st := NewStat("f", "u", "g", "u")
	buf := make([]byte, 256)
	Rstat(buf).fill(7, st)
	m := Rstat(buf)
	assert.Equal(t, uint16(st.Nbytes()), m.N())
	assert.Equal(t, "f", m.Stat().Name())
}

func TestTcreateDotUExtension(t *testing.T) {
	buf := make([]byte, 256)
	Tcreate(buf).fillU(4, 8, "link", 0777, OREAD, "target/path")
	m := Tcreate(buf)
	assert.Equal(t, "link", m.Name())
	assert.Equal(t, Mode(0777), m.Perm())
	assert.Equal(t, OpenMode(OREAD), m.Mode())
}

func TestReadWritePayloads(t *testing.T) {
	buf := make([]byte, 1024)
	payload := []byte("some data here")
	Rread(buf).fill(6, payload)
	assert.Equal(t, payload, Rread(buf).Data())

	w := Twrite(buf)
	copy(w.DataNoLimit(), payload)
	w.fill(6, 9, 4096, uint32(len(payload)))
	assert.Equal(t, Fid(9), w.Fid())
	assert.Equal(t, uint64(4096), w.Offset())
	assert.Equal(t, payload, w.Data())
}

func TestOpenModeOsFlagMapping(t *testing.T) {
	assert.Equal(t, OpenMode(OREAD), OpenModeFromOsFlag(0))
	assert.True(t, OpenModeFromOsFlag(0x1).IsWriteOnly())
	assert.True(t, OpenModeFromOsFlag(0x2).IsReadWrite())
}

func TestQidNoTouch(t *testing.T) {
	assert.True(t, NoTouchQid.IsNoTouch())
	q := NewQid().Fill(QT_FILE, 0, 1)
	assert.False(t, q.IsNoTouch())
}

func TestLinuxMessagesRoundTrip(t *testing.T) {
	buf := make([]byte, 1024)

	Tlopen(buf).fill(2, 7, L_O_RDWR|L_O_TRUNC)
	lo := Tlopen(buf)
	assert.Equal(t, Fid(7), lo.Fid())
	assert.Equal(t, uint32(L_O_RDWR|L_O_TRUNC), lo.Flags())

	Tlcreate(buf).fill(2, 7, "newfile", L_O_WRONLY|L_O_CREAT, 0644, 1000)
	lc := Tlcreate(buf)
	assert.Equal(t, "newfile", lc.Name())
	assert.Equal(t, uint32(L_O_WRONLY|L_O_CREAT), lc.Flags())
	assert.Equal(t, uint32(0644), lc.Mode())
	assert.Equal(t, uint32(1000), lc.Gid())

	Tgetattr(buf).fill(2, 7, L_GETATTR_ALL)
	ga := Tgetattr(buf)
	assert.Equal(t, uint64(L_GETATTR_ALL), ga.RequestMask())

	q := NewQid().Fill(QT_FILE, 3, 77)
	r := Rgetattr(buf)
	r.fill(2, L_GETATTR_BASIC, q)
	r.SetMode(0100644)
	r.SetLength(4096)
	r.SetMtimeSec(1700000001)
	assert.Equal(t, uint64(L_GETATTR_BASIC), r.Valid())
	assert.True(t, q.Equal(r.Qid()))
	assert.Equal(t, uint32(0100644), r.Mode())
	assert.Equal(t, uint64(4096), r.Length())
	assert.Equal(t, uint64(1700000001), r.MtimeSec())

	Tsetattr(buf).fill(2, 7, SetAttr{
		Valid:  L_SETATTR_MODE | L_SETATTR_SIZE,
		Mode:   0600,
		Length: 17,
	})
	sa := Tsetattr(buf).Attr()
	assert.Equal(t, uint32(L_SETATTR_MODE|L_SETATTR_SIZE), sa.Valid)
	assert.Equal(t, uint32(0600), sa.Mode)
	assert.Equal(t, uint64(17), sa.Length)

	Trename(buf).fill(2, 7, 8, "renamed")
	rn := Trename(buf)
	assert.Equal(t, Fid(7), rn.Fid())
	assert.Equal(t, Fid(8), rn.Dfid())
	assert.Equal(t, "renamed", rn.Name())

	Tsymlink(buf).fill(2, 7, "lnk", "../target", 1000)
	sl := Tsymlink(buf)
	assert.Equal(t, "lnk", sl.Name())
	assert.Equal(t, "../target", sl.Symtgt())

	Tmkdir(buf).fill(2, 7, "dir", 0755, 1000)
	mk := Tmkdir(buf)
	assert.Equal(t, "dir", mk.Name())
	assert.Equal(t, uint32(0755), mk.Mode())
	assert.Equal(t, uint32(1000), mk.Gid())

	Rlerror(buf).fill(2, 2)
	assert.Equal(t, uint32(2), Rlerror(buf).Ecode())
}

func TestDirentPackingAndParsing(t *testing.T) {
	scratch := make([]byte, 1024)
	q1 := NewQid().Fill(QT_DIR, 0, 1)
	q2 := NewQid().Fill(QT_FILE, 0, 2)

	n1 := Dirent(scratch).fill(q1, 1, DT_DIR, "docs")
	n2 := Dirent(scratch[n1:]).fill(q2, 2, DT_REG, "readme.md")
	packed := scratch[:n1+n2]

	ents, err := ParseDirents(packed)
	require.NoError(t, err)
	require.Len(t, ents, 2)
	assert.Equal(t, "docs", ents[0].Name())
	assert.Equal(t, uint64(1), ents[0].Offset())
	assert.Equal(t, byte(DT_DIR), ents[0].DirType())
	assert.True(t, q1.Equal(ents[0].Qid()))
	assert.Equal(t, "readme.md", ents[1].Name())
	assert.Equal(t, byte(DT_REG), ents[1].DirType())
}

func TestParseDirentsTruncated(t *testing.T) {
	scratch := make([]byte, 64)
	q := NewQid().Fill(QT_FILE, 0, 9)
	n := Dirent(scratch).fill(q, 1, DT_REG, "file")

	_, err := ParseDirents(scratch[: n-2 : n-2])
	assert.ErrorIs(t, err, ErrBadFormat)

	_, err = ParseDirents(scratch[:5:5])
	assert.ErrorIs(t, err, ErrBadFormat)
}

func TestMsgTypeNames(t *testing.T) {
	assert.Equal(t, "Tversion", msgTversion.String())
	assert.Equal(t, "Rlerror", msgRlerror.String())
	assert.Equal(t, "Treaddir", msgTreaddir.String())
	assert.Contains(t, MsgType(250).String(), "250")
}

func TestStatWireLayout(t *testing.T) {
	st := NewStat("n", "u", "g", "m")
	assert.Equal(t, len(st), st.Nbytes())
	// name's length prefix sits right after the length[8] field
	assert.Equal(t, uint16(1), bo.Uint16(st[fixedStatSize:fixedStatSize+2]))
	assert.Equal(t, byte('n'), st[fixedStatSize+2])
	assert.Equal(t, "u", st.Uid())
	assert.Equal(t, "g", st.Gid())
	assert.Equal(t, "m", st.Muid())
	assert.True(t, validStat(st))

	stu := NewStatU("n", "u", "g", "m", "ext")
	assert.Equal(t, len(stu), stu.Nbytes())
	assert.Equal(t, "ext", stu.Extension())
	assert.True(t, validStat(stu))
}

func TestValidateReplyRejectsOverruns(t *testing.T) {
	buf := make([]byte, 256)

	Rread(buf).fill(4, []byte("ok"))
	require.NoError(t, validateReply(MsgBase(buf)))
	// count extending past the end of the frame
	bo.PutUint32(buf[msgOffset:msgOffset+4], 60000)
	assert.ErrorIs(t, validateReply(MsgBase(buf)), ErrBadFormat)

	zero(buf)
	Rerror(buf).fill(2, "boom")
	require.NoError(t, validateReply(MsgBase(buf)))
	msgString(buf[msgOffset:]).SetLen(512)
	assert.ErrorIs(t, validateReply(MsgBase(buf)), ErrBadFormat)

	zero(buf)
	Rstat(buf).fill(9, NewStat("f", "u", "g", "m"))
	require.NoError(t, validateReply(MsgBase(buf)))
	// name declared longer than the record holds
	bo.PutUint16(buf[msgOffset+2+fixedStatSize:], 0xFFFF)
	assert.ErrorIs(t, validateReply(MsgBase(buf)), ErrBadFormat)

	zero(buf)
	Rwalk(buf).fill(3, []Qid{NewQid().Fill(QT_DIR, 0, 1)})
	require.NoError(t, validateReply(MsgBase(buf)))
	bo.PutUint16(buf[msgOffset:msgOffset+2], 9)
	assert.ErrorIs(t, validateReply(MsgBase(buf)), ErrBadFormat)
}
