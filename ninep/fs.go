package ninep

import (
	"errors"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

var ErrOpenDirNotAllowed = errors.New("cannot open directories")

// Represent a file that can be read or written to. Can be either a file or directory
type FileHandle interface {
	io.ReaderAt
	io.WriterAt
	io.Closer

	Sync() error
}

type FileInfoIterator interface {
	// returns io.EOF with os.FileInfo = nil on end
	NextFileInfo() (os.FileInfo, error)
	// resets the reading of the file infos
	Reset() error
	// must be called to free iterator resources
	Close() error
}

type fileInfoSliceIterator struct {
	Infos []os.FileInfo
	Index int
}

func FileInfoSliceIterator(fi []os.FileInfo) FileInfoIterator {
	return &fileInfoSliceIterator{fi, 0}
}

func (itr *fileInfoSliceIterator) Close() error { return nil }
func (itr *fileInfoSliceIterator) Reset() error { itr.Index = 0; return nil }
func (itr *fileInfoSliceIterator) NextFileInfo() (os.FileInfo, error) {
	idx := itr.Index
	if idx >= len(itr.Infos) {
		return nil, io.EOF
	}
	itr.Index++
	return itr.Infos[idx], nil
}

func FileInfoSliceFromIterator(itr FileInfoIterator, max int) ([]os.FileInfo, error) {
	if it, ok := itr.(*fileInfoSliceIterator); ok {
		return it.Infos, nil
	}

	items := make([]os.FileInfo, 0, 16)
	for max < 0 || len(items) < max {
		fi, err := itr.NextFileInfo()
		if fi != nil {
			items = append(items, fi)
		}
		if err == io.EOF {
			return items, nil
		} else if err != nil {
			return items, err
		}
	}
	return items, nil
}

// A higher-level interface to a 9P file tree, independent of the dialect
// underneath.
//
// The following assumptions are part of the interface:
// - paths can be empty strings (which indicates root directory)
type FileSystem interface {
	// Creates a directory. Implementations can reject if parent directories are missing
	MakeDir(path string, mode Mode) error
	// Creates a file and opens it for reading/writing
	CreateFile(path string, flag OpenMode, mode Mode) (FileHandle, error)
	// Opens an existing file for reading/writing
	OpenFile(path string, flag OpenMode) (FileHandle, error)
	// Lists directories and files in a given path. Does not include '.' or '..'
	ListDir(path string) (FileInfoIterator, error)
	// Lists stats about a given file or directory.
	Stat(path string) (os.FileInfo, error)
	// Writes stats about a given file or directory. Callers must use
	// NoTouch values for fields the server should leave alone.
	WriteStat(path string, s Stat) error
	// Deletes a file or directory. Implementations may reject directories that aren't empty
	Delete(path string) error
}

// AttrFileInfo adapts a .L getattr result to os.FileInfo.
type AttrFileInfo struct {
	FIName string
	Attr
}

func (a AttrFileInfo) Name() string { return a.FIName }
func (a AttrFileInfo) Size() int64  { return int64(a.Length) }
func (a AttrFileInfo) Mode() os.FileMode {
	m := os.FileMode(a.Attr.Mode & 0777)
	if a.Qid != nil && a.Qid.Type().IsDir() {
		m |= os.ModeDir
	}
	if a.Qid != nil && a.Qid.Type()&QT_SYMLINK != 0 {
		m |= os.ModeSymlink
	}
	return m
}
func (a AttrFileInfo) ModTime() time.Time {
	return time.Unix(int64(a.MtimeSec), int64(a.MtimeNsec))
}
func (a AttrFileInfo) IsDir() bool      { return a.Qid != nil && a.Qid.Type().IsDir() }
func (a AttrFileInfo) Sys() interface{} { return a.Attr }

// FileUsers reports the owners recorded in a listing entry. Entries from a
// .L session carry only numeric ids, which are formatted as decimals; .L
// has no modified-by user.
func FileUsers(info os.FileInfo) (uid, gid, muid string) {
	switch s := info.Sys().(type) {
	case Stat:
		return s.Uid(), s.Gid(), s.Muid()
	case Attr:
		return strconv.FormatUint(uint64(s.Uid), 10), strconv.FormatUint(uint64(s.Gid), 10), ""
	}
	return "", "", ""
}

/////////////////////////////////////////////////

type handleReaderWriter struct {
	h      FileHandle
	offset int64
}

func (r *handleReaderWriter) Read(p []byte) (int, error) {
	n, err := r.h.ReadAt(p, r.offset)
	r.offset += int64(n)
	return n, err
}

func (r *handleReaderWriter) Write(p []byte) (int, error) {
	n, err := r.h.WriteAt(p, r.offset)
	r.offset += int64(n)
	return n, err
}

func Reader(h FileHandle) io.Reader { return &handleReaderWriter{h, 0} }
func Writer(h FileHandle) io.Writer { return &handleReaderWriter{h, 0} }

/////////////////////////////////////////////////

// Provides operations on an open fid. Caller must understand the state of
// the fid to perform the correct operations.
type FileProxy struct {
	fs     *FileSystemProxy
	fid    Fid
	qid    Qid
	iounit uint32
}

func (f *FileProxy) Qid() Qid    { return f.qid }
func (f *FileProxy) Fid() Fid    { return f.fid }
func (f *FileProxy) IsDir() bool { return f.qid.Type().IsDir() }

// chunk returns the largest payload one read or write message may carry
// for this file.
func (f *FileProxy) chunk() uint32 {
	max := f.fs.s.c.MaxPayload()
	if f.iounit > 0 && f.iounit < max {
		return f.iounit
	}
	return max
}

// ReadAt fills p from the given offset, issuing as many reads as the
// iounit requires. Returns io.EOF when the server has no more bytes.
func (f *FileProxy) ReadAt(p []byte, offset int64) (int, error) {
	c := f.fs.s.c
	chunk := int(f.chunk())
	read := 0
	for read < len(p) {
		want := len(p) - read
		if want > chunk {
			want = chunk
		}
		n, err := c.Read(f.fid, p[read:read+want], uint64(offset)+uint64(read))
		read += n
		if err != nil {
			return read, err
		}
		if n == 0 {
			return read, io.EOF
		}
		// servers may return short counts mid-file; keep issuing reads
		// until a zero read marks the end
	}
	return read, nil
}

// WriteAt writes all of p at the given offset in iounit-sized messages.
func (f *FileProxy) WriteAt(p []byte, offset int64) (int, error) {
	c := f.fs.s.c
	chunk := int(f.chunk())
	wrote := 0
	for wrote < len(p) {
		want := len(p) - wrote
		if want > chunk {
			want = chunk
		}
		n, err := c.WriteMsg(f.fid, p[wrote:wrote+want], uint64(offset)+uint64(wrote))
		wrote += int(n)
		if err != nil {
			return wrote, err
		}
		if n == 0 {
			return wrote, io.ErrShortWrite
		}
	}
	return wrote, nil
}

// Sync flushes the file server-side: Tfsync under 9P2000.L, a no-change
// Twstat otherwise.
func (f *FileProxy) Sync() error {
	if f.fs.s.Dialect().LinuxOps() {
		return f.fs.s.c.Fsync(f.fid)
	}
	return f.fs.s.c.WriteStat(f.fid, SyncStat())
}

func (f *FileProxy) Close() error {
	return f.fs.s.Clunk(f.fid)
}

// Deletes the file or directory that this FileProxy points to. Implies Close()
func (f *FileProxy) Delete() error {
	return f.fs.s.Remove(f.fid)
}

///////////////////////

// FileSystemProxy implements FileSystem over an attached session,
// dispatching each operation to whichever messages the negotiated dialect
// provides.
type FileSystemProxy struct {
	s *Session
}

// Fs returns the filesystem view of the session.
func (s *Session) Fs() *FileSystemProxy {
	return &FileSystemProxy{s: s}
}

// Session returns the session the proxy operates on.
func (fs *FileSystemProxy) Session() *Session { return fs.s }

func splitDir(path string) (prefix, filename string) {
	filename = path
	i := strings.LastIndex(path, "/")
	if i != -1 {
		prefix = path[:i]
		filename = path[i+1:]
	}
	return
}

// walk binds a fresh fid to path. includeLast=false stops at the parent
// directory.
func (fs *FileSystemProxy) walk(path string, includeLast bool) (Fid, Qid, error) {
	parts := PathSplit(path)
	if !includeLast && len(parts) > 0 {
		parts = parts[:len(parts)-1]
	}
	return fs.s.Walk(rootFid, parts)
}

func (fs *FileSystemProxy) MakeDir(path string, mode Mode) error {
	s := fs.s
	prefix, filename := splitDir(path)
	fid, _, err := fs.walk(prefix, true)
	if err != nil {
		return err
	}
	if s.Dialect().LinuxOps() {
		_, err = s.c.Mkdir(fid, filename, uint32(mode&0777), s.gid)
	} else {
		_, _, err = s.c.Create(fid, filename, mode|M_DIR, OREAD)
	}
	s.Clunk(fid)
	return err
}

// MakeDirAll creates path and any missing parents, tolerating directories
// that already exist.
func (fs *FileSystemProxy) MakeDirAll(path string, mode Mode) error {
	parts := PathSplit(path)
	for i := range parts {
		err := fs.MakeDir(strings.Join(parts[:i+1], "/"), mode)
		if err != nil && !errors.Is(err, os.ErrExist) {
			if fi, serr := fs.Stat(strings.Join(parts[:i+1], "/")); serr == nil && fi.IsDir() {
				continue
			}
			return err
		}
	}
	return nil
}

func (fs *FileSystemProxy) CreateFile(path string, flag OpenMode, mode Mode) (FileHandle, error) {
	s := fs.s
	prefix, filename := splitDir(path)
	fid, _, err := fs.walk(prefix, true)
	if err != nil {
		return nil, err
	}

	var q Qid
	var iounit uint32
	if s.Dialect().LinuxOps() {
		flags := LinuxOpenFlags(flag) | L_O_CREAT
		q, iounit, err = s.c.Lcreate(fid, filename, flags, uint32(mode&0777), s.gid)
	} else {
		q, iounit, err = s.c.Create(fid, filename, mode, flag)
	}
	if err != nil {
		s.Clunk(fid)
		return nil, err
	}
	if info, lerr := s.fids.lookup(fid); lerr == nil {
		info.qid = q
		info.mode = flag
		info.opened = true
		info.iounit = iounit
	}
	return &FileProxy{fs, fid, q, iounit}, nil
}

func (fs *FileSystemProxy) OpenFile(path string, flag OpenMode) (FileHandle, error) {
	s := fs.s
	fid, _, err := fs.walk(path, true)
	if err != nil {
		return nil, err
	}
	q, iounit, err := s.c.Open(fid, flag)
	if err != nil {
		s.Clunk(fid)
		return nil, err
	}
	if q.Type().IsDir() {
		s.Clunk(fid)
		return nil, ErrOpenDirNotAllowed
	}
	if info, lerr := s.fids.lookup(fid); lerr == nil {
		info.qid = q
		info.mode = flag
		info.opened = true
		info.iounit = iounit
	}
	return &FileProxy{fs, fid, q, iounit}, nil
}

func (fs *FileSystemProxy) Stat(path string) (os.FileInfo, error) {
	s := fs.s
	fid, _, err := fs.walk(path, true)
	if err != nil {
		return nil, err
	}
	defer s.Clunk(fid)

	if s.Dialect().LinuxOps() {
		attr, err := s.c.GetAttr(fid, L_GETATTR_BASIC)
		if err != nil {
			return nil, err
		}
		_, name := splitDir(path)
		return AttrFileInfo{FIName: name, Attr: attr}, nil
	}
	st, err := s.c.Stat(fid)
	if err != nil {
		return nil, err
	}
	return st.FileInfo(), nil
}

func (fs *FileSystemProxy) WriteStat(path string, st Stat) error {
	s := fs.s
	fid, _, err := fs.walk(path, true)
	if err != nil {
		return err
	}
	defer s.Clunk(fid)

	if s.Dialect().LinuxOps() {
		attr, ok := statToSetAttr(st)
		if !ok {
			return ErrUnsupportedOp
		}
		return s.c.SetAttr(fid, attr)
	}
	return s.c.WriteStat(fid, st)
}

func (fs *FileSystemProxy) Delete(path string) error {
	fid, _, err := fs.walk(path, true)
	if err != nil {
		return err
	}
	// regardless of this call, the server drops the fid
	return fs.s.Remove(fid)
}

// Rename moves a file to a new name, and under 9P2000.L to a new parent
// directory. The other dialects can only rename within the same directory.
func (fs *FileSystemProxy) Rename(oldpath, newpath string) error {
	s := fs.s
	if s.Dialect().LinuxOps() {
		fid, _, err := fs.walk(oldpath, true)
		if err != nil {
			return err
		}
		defer s.Clunk(fid)
		newdir, newname := splitDir(newpath)
		dfid, _, err := fs.walk(newdir, true)
		if err != nil {
			return err
		}
		defer s.Clunk(dfid)
		return s.c.Rename(fid, dfid, newname)
	}

	olddir, _ := splitDir(oldpath)
	newdir, newname := splitDir(newpath)
	if olddir != newdir {
		return ErrUnsupportedOp
	}
	return fs.WriteStat(oldpath, SyncStatWithName(newname))
}

// Symlink creates a symbolic link (9P2000.L only).
func (fs *FileSystemProxy) Symlink(target, linkpath string) error {
	s := fs.s
	dir, name := splitDir(linkpath)
	dfid, _, err := fs.walk(dir, true)
	if err != nil {
		return err
	}
	defer s.Clunk(dfid)
	_, err = s.c.Symlink(dfid, name, target, s.gid)
	return err
}

// Readlink reads a symbolic link's target (9P2000.L only).
func (fs *FileSystemProxy) Readlink(path string) (string, error) {
	s := fs.s
	fid, _, err := fs.walk(path, true)
	if err != nil {
		return "", err
	}
	defer s.Clunk(fid)
	return s.c.Readlink(fid)
}

// CopyFile copies src to dst within the same tree, moving data through the
// client one message at a time.
func (fs *FileSystemProxy) CopyFile(dst, src string, mode Mode) error {
	in, err := fs.OpenFile(src, OREAD)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := fs.CreateFile(dst, OWRITE|OTRUNC, mode)
	if err != nil {
		return err
	}
	defer out.Close()
	_, err = io.Copy(Writer(out), Reader(in))
	if err == io.EOF {
		err = nil
	}
	return err
}

// Walks to a given path and returns a FileProxy to that path. It is
// expected for the caller to call Close on the returned file proxy.
func (fs *FileSystemProxy) Traverse(path string) (*FileProxy, error) {
	fid, qid, err := fs.walk(path, true)
	if err != nil {
		return nil, err
	}
	return &FileProxy{fs, fid, qid, 0}, nil
}

//////////

func (fs *FileSystemProxy) ListDir(path string) (FileInfoIterator, error) {
	s := fs.s
	fid, _, err := fs.walk(path, true)
	if err != nil {
		return nil, err
	}
	q, iounit, err := s.c.Open(fid, OREAD)
	if err != nil {
		s.Clunk(fid)
		return nil, err
	}
	if !q.Type().IsDir() {
		s.Clunk(fid)
		return nil, ErrListingOnNonDir
	}
	fp := &FileProxy{fs, fid, q, iounit}
	if s.Dialect().LinuxOps() {
		return &direntIterator{fp: fp}, nil
	}
	return &statIterator{fp: fp}, nil
}

// statIterator scans the packed Stat records that reading an open
// directory yields under base 9P2000 and .u.
type statIterator struct {
	fp     *FileProxy
	rest   []byte
	offset int64
	done   bool
}

func (it *statIterator) Reset() error {
	it.rest = nil
	it.offset = 0
	it.done = false
	return nil
}

func (it *statIterator) Close() error { return it.fp.Close() }

func (it *statIterator) NextFileInfo() (os.FileInfo, error) {
	for len(it.rest) == 0 {
		if it.done {
			return nil, io.EOF
		}
		buf := make([]byte, it.fp.chunk())
		n, err := it.fp.fs.s.c.Read(it.fp.fid, buf, uint64(it.offset))
		if err != nil && err != io.EOF {
			return nil, err
		}
		if n == 0 {
			it.done = true
			return nil, io.EOF
		}
		it.offset += int64(n)
		it.rest = buf[:n]
	}

	st := Stat(it.rest)
	size := int(st.Size()) + 2
	if size > len(it.rest) {
		it.fp.fs.s.c.Errorf("Invalid format while reading dir: (wanted: %d bytes, had: %d bytes)", size, len(it.rest))
		return nil, ErrBadFormat
	}
	st = Stat(it.rest[:size]).Clone()
	it.rest = it.rest[size:]
	return st.FileInfo(), nil
}

// direntIterator walks a .L directory with Treaddir, resuming each message
// at the previous last entry's offset cookie. "." and ".." are skipped.
type direntIterator struct {
	fp     *FileProxy
	ents   []Dirent
	cookie uint64
	done   bool
}

func (it *direntIterator) Reset() error {
	it.ents = nil
	it.cookie = 0
	it.done = false
	return nil
}

func (it *direntIterator) Close() error { return it.fp.Close() }

// Cookie reports the resume offset of the next entry, for callers that
// restart listing after a failure.
func (it *direntIterator) Cookie() uint64 { return it.cookie }

func (it *direntIterator) NextFileInfo() (os.FileInfo, error) {
	s := it.fp.fs.s
	for {
		if len(it.ents) == 0 {
			if it.done {
				return nil, io.EOF
			}
			ents, err := s.c.Readdir(it.fp.fid, it.cookie, it.fp.chunk())
			if err != nil {
				return nil, err
			}
			if len(ents) == 0 {
				it.done = true
				return nil, io.EOF
			}
			it.ents = ents
		}

		ent := it.ents[0]
		it.ents = it.ents[1:]
		it.cookie = ent.Offset()
		name := ent.Name()
		if name == "." || name == ".." {
			continue
		}

		// walk to the entry for its full attributes; the dirent alone
		// carries only qid and type
		fid, _, err := s.Walk(it.fp.fid, []string{name})
		if err != nil {
			return nil, err
		}
		attr, err := s.c.GetAttr(fid, L_GETATTR_BASIC)
		s.Clunk(fid)
		if err != nil {
			return nil, err
		}
		return AttrFileInfo{FIName: name, Attr: attr}, nil
	}
}

// statToSetAttr translates a no-touch-sentinel Stat into the .L setattr
// mask form. ok is false when the stat touches something setattr cannot
// express (names, textual owners).
func statToSetAttr(st Stat) (SetAttr, bool) {
	var a SetAttr
	if !st.NameNoTouch() {
		return a, false
	}
	if !st.ModeNoTouch() {
		a.Valid |= L_SETATTR_MODE
		a.Mode = uint32(st.Mode() & 0777)
	}
	if !st.LengthNoTouch() {
		a.Valid |= L_SETATTR_SIZE
		a.Length = st.Length()
	}
	if !st.AtimeNoTouch() {
		a.Valid |= L_SETATTR_ATIME | L_SETATTR_ATIME_SET
		a.AtimeSec = uint64(st.Atime())
	}
	if !st.MtimeNoTouch() {
		a.Valid |= L_SETATTR_MTIME | L_SETATTR_MTIME_SET
		a.MtimeSec = uint64(st.Mtime())
	}
	return a, true
}
