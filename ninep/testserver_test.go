package ninep

import (
	"net"
	"sort"
	"sync"
	"syscall"
	"testing"
)

// tsFile is a node in the in-memory tree the test server exports.
type tsFile struct {
	name     string
	data     []byte
	mode     Mode
	target   string
	children map[string]*tsFile
	qpath    uint64
}

func (f *tsFile) isDir() bool { return f.mode&M_DIR != 0 }

func (f *tsFile) qid() Qid {
	q := NewQid()
	t := QT_FILE
	if f.isDir() {
		t = QT_DIR
	} else if f.mode&M_SYMLINK != 0 {
		t = QT_SYMLINK
	}
	return q.Fill(t, 0, f.qpath)
}

func (f *tsFile) direntType() byte {
	switch {
	case f.isDir():
		return DT_DIR
	case f.mode&M_SYMLINK != 0:
		return DT_SYMLINK
	default:
		return DT_REG
	}
}

func (f *tsFile) sortedChildren() []*tsFile {
	names := make([]string, 0, len(f.children))
	for n := range f.children {
		names = append(names, n)
	}
	sort.Strings(names)
	out := make([]*tsFile, len(names))
	for i, n := range names {
		out[i] = f.children[n]
	}
	return out
}

// testServer answers 9P on one end of a pipe, serving an in-memory tree.
// It is deliberately sequential: one request, one reply, except for reads
// of the file named by hold, which are parked until a Tflush arrives.
type testServer struct {
	t       *testing.T
	conn    net.Conn
	version string
	dialect Dialect

	// knobs tests flip while the serve goroutine runs; mu guards them
	mu       sync.Mutex
	iounit   uint32
	hold     string
	padReads int
	heldTags []Tag

	root      *tsFile
	fids      map[Fid]*tsFile
	parents   map[Fid]*tsFile
	nextQpath uint64
}

func newTestTree() *tsFile {
	root := &tsFile{name: "/", mode: M_DIR | 0755, children: map[string]*tsFile{}, qpath: 1}
	hello := &tsFile{name: "hello.txt", data: []byte("hello, world\n"), mode: 0644, qpath: 2}
	sub := &tsFile{name: "sub", mode: M_DIR | 0755, children: map[string]*tsFile{}, qpath: 3}
	a := &tsFile{name: "a.txt", data: []byte("aaa"), mode: 0644, qpath: 4}
	b := &tsFile{name: "b.txt", data: []byte("bbbb"), mode: 0600, qpath: 5}
	sub.children["a.txt"] = a
	sub.children["b.txt"] = b
	root.children["hello.txt"] = hello
	root.children["sub"] = sub
	return root
}

// startTestServer wires a server speaking version to a fresh client over a
// pipe and returns the connected client.
func startTestServer(t *testing.T, version string, clientVersion string) (*Client, *testServer) {
	t.Helper()
	serverEnd, clientEnd := net.Pipe()
	d, ok := DialectFromVersion(version)
	if !ok {
		t.Fatalf("bad server version %q", version)
	}
	srv := &testServer{
		t:         t,
		conn:      serverEnd,
		version:   version,
		dialect:   d,
		root:      newTestTree(),
		fids:      map[Fid]*tsFile{},
		parents:   map[Fid]*tsFile{},
		nextQpath: 100,
	}
	go srv.serve()
	t.Cleanup(func() { serverEnd.Close() })

	c := &Client{Version: clientVersion}
	if err := c.ConnectOn(clientEnd); err != nil {
		t.Fatalf("connect: %s", err)
	}
	t.Cleanup(func() { c.Close() })
	return c, srv
}

func (s *testServer) setHold(name string) {
	s.mu.Lock()
	s.hold = name
	s.mu.Unlock()
}

func (s *testServer) holdName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hold
}

func (s *testServer) setIounit(n uint32) {
	s.mu.Lock()
	s.iounit = n
	s.mu.Unlock()
}

func (s *testServer) ioUnit() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.iounit
}

// setPadReads makes every Rread carry n bytes beyond what was asked for.
func (s *testServer) setPadReads(n int) {
	s.mu.Lock()
	s.padReads = n
	s.mu.Unlock()
}

func (s *testServer) readPad() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.padReads
}

func (s *testServer) reply(out []byte) {
	b := MsgBase(out).Bytes()
	for len(b) > 0 {
		n, err := s.conn.Write(b)
		if err != nil {
			return
		}
		b = b[n:]
	}
}

func (s *testServer) sendError(tag Tag, errno uint32, ename string) {
	out := make([]byte, 256+len(ename))
	if s.dialect == Dialect9P2000L {
		Rlerror(out).fill(tag, errno)
	} else if s.dialect == Dialect9P2000u {
		Rerror(out).fillU(tag, ename, errno)
	} else {
		Rerror(out).fill(tag, ename)
	}
	s.reply(out)
}

func (s *testServer) stat(f *tsFile) Stat {
	var st Stat
	if s.dialect == Dialect9P2000u {
		st = NewStatU(f.name, "glenda", "glenda", "glenda", f.target)
	} else {
		st = NewStat(f.name, "glenda", "glenda", "glenda")
	}
	st.SetQid(f.qid())
	st.SetMode(f.mode)
	st.SetLength(uint64(len(f.data)))
	st.SetMtime(1700000000)
	st.SetAtime(1700000000)
	return st
}

func (s *testServer) resolve(f *tsFile, name string) *tsFile {
	if !f.isDir() {
		return nil
	}
	return f.children[name]
}

func (s *testServer) serve() {
	in := make([]byte, 1<<16)
	out := make([]byte, 1<<16)
	for {
		if _, err := readUpTo(s.conn, in[:4]); err != nil {
			return
		}
		size := MsgBase(in).Size()
		if size < uint32(msgOffset) || size > uint32(len(in)) {
			return
		}
		if _, err := readUpTo(s.conn, in[4:size]); err != nil {
			return
		}
		zero(out)
		s.handle(in, out)
	}
}

func (s *testServer) handle(in, out []byte) {
	mb := MsgBase(in)
	tag := mb.Tag()
	switch mb.Type() {
	case msgTversion:
		req := Tversion(in)
		msize := req.MsgSize()
		if msize > uint32(1<<16) {
			msize = 1 << 16
		}
		ver := req.Version()
		want, ok := DialectFromVersion(ver)
		if !ok || !IsNinePVersion(ver) {
			Rversion(out).fill(tag, msize, "unknown")
			s.reply(out)
			return
		}
		if s.dialect < want {
			// downgrade to what this server speaks
			ver = s.version
		} else {
			s.dialect = want
		}
		Rversion(out).fill(tag, msize, ver)
		s.reply(out)

	case msgTauth:
		s.sendError(tag, uint32(syscall.EOPNOTSUPP), "authentication not required")

	case msgTattach:
		req := Tattach(in)
		s.fids[req.Fid()] = s.root
		Rattach(out).fill(tag, s.root.qid())
		s.reply(out)

	case msgTflush:
		s.mu.Lock()
		s.heldTags = nil
		s.mu.Unlock()
		Rflush(out).fill(tag)
		s.reply(out)

	case msgTwalk:
		req := Twalk(in)
		f, ok := s.fids[req.Fid()]
		if !ok {
			s.sendError(tag, uint32(syscall.EBADF), "fid unknown or out of range")
			return
		}
		names := req.Wnames()
		var qids []Qid
		parent := f
		cur := f
		for _, n := range names {
			next := s.resolve(cur, n)
			if next == nil {
				break
			}
			parent = cur
			cur = next
			qids = append(qids, cur.qid())
		}
		if len(names) > 0 && len(qids) == 0 {
			s.sendError(tag, uint32(syscall.ENOENT), "file not found")
			return
		}
		if len(qids) == len(names) {
			s.fids[req.NewFid()] = cur
			s.parents[req.NewFid()] = parent
		}
		Rwalk(out).fill(tag, qids)
		s.reply(out)

	case msgTopen:
		req := Topen(in)
		f, ok := s.fids[req.Fid()]
		if !ok {
			s.sendError(tag, uint32(syscall.EBADF), "fid unknown or out of range")
			return
		}
		Ropen(out).fill(tag, f.qid(), s.ioUnit())
		s.reply(out)

	case msgTlopen:
		req := Tlopen(in)
		f, ok := s.fids[req.Fid()]
		if !ok {
			s.sendError(tag, uint32(syscall.EBADF), "fid unknown or out of range")
			return
		}
		Rlopen(out).fill(tag, f.qid(), s.ioUnit())
		s.reply(out)

	case msgTcreate:
		req := Tcreate(in)
		dir, ok := s.fids[req.Fid()]
		if !ok || !dir.isDir() {
			s.sendError(tag, uint32(syscall.ENOTDIR), "not a directory")
			return
		}
		if _, exists := dir.children[req.Name()]; exists {
			s.sendError(tag, uint32(syscall.EEXIST), "file already exists")
			return
		}
		s.nextQpath++
		nf := &tsFile{name: req.Name(), mode: req.Perm(), qpath: s.nextQpath}
		if nf.isDir() {
			nf.children = map[string]*tsFile{}
		}
		dir.children[nf.name] = nf
		s.parents[req.Fid()] = dir
		s.fids[req.Fid()] = nf
		Rcreate(out).fill(tag, nf.qid(), s.ioUnit())
		s.reply(out)

	case msgTlcreate:
		req := Tlcreate(in)
		dir, ok := s.fids[req.Fid()]
		if !ok || !dir.isDir() {
			s.sendError(tag, uint32(syscall.ENOTDIR), "not a directory")
			return
		}
		if _, exists := dir.children[req.Name()]; exists {
			s.sendError(tag, uint32(syscall.EEXIST), "file already exists")
			return
		}
		s.nextQpath++
		nf := &tsFile{name: req.Name(), mode: Mode(req.Mode() & 0777), qpath: s.nextQpath}
		dir.children[nf.name] = nf
		s.parents[req.Fid()] = dir
		s.fids[req.Fid()] = nf
		Rlcreate(out).fill(tag, nf.qid(), s.ioUnit())
		s.reply(out)

	case msgTmkdir:
		req := Tmkdir(in)
		dir, ok := s.fids[req.Dfid()]
		if !ok || !dir.isDir() {
			s.sendError(tag, uint32(syscall.ENOTDIR), "not a directory")
			return
		}
		if _, exists := dir.children[req.Name()]; exists {
			s.sendError(tag, uint32(syscall.EEXIST), "file already exists")
			return
		}
		s.nextQpath++
		nf := &tsFile{name: req.Name(), mode: M_DIR | Mode(req.Mode()&0777), children: map[string]*tsFile{}, qpath: s.nextQpath}
		dir.children[nf.name] = nf
		Rmkdir(out).fill(tag, nf.qid())
		s.reply(out)

	case msgTsymlink:
		req := Tsymlink(in)
		dir, ok := s.fids[req.Dfid()]
		if !ok || !dir.isDir() {
			s.sendError(tag, uint32(syscall.ENOTDIR), "not a directory")
			return
		}
		s.nextQpath++
		nf := &tsFile{name: req.Name(), mode: M_SYMLINK | 0777, target: req.Symtgt(), qpath: s.nextQpath}
		dir.children[nf.name] = nf
		Rsymlink(out).fill(tag, nf.qid())
		s.reply(out)

	case msgTreadlink:
		req := Treadlink(in)
		f, ok := s.fids[req.Fid()]
		if !ok {
			s.sendError(tag, uint32(syscall.EBADF), "fid unknown or out of range")
			return
		}
		Rreadlink(out).fill(tag, f.target)
		s.reply(out)

	case msgTrename:
		req := Trename(in)
		f, ok := s.fids[req.Fid()]
		dir, ok2 := s.fids[req.Dfid()]
		if !ok || !ok2 || !dir.isDir() {
			s.sendError(tag, uint32(syscall.EBADF), "fid unknown or out of range")
			return
		}
		if old := s.parents[req.Fid()]; old != nil {
			delete(old.children, f.name)
		}
		f.name = req.Name()
		dir.children[f.name] = f
		Rrename(out).fill(tag)
		s.reply(out)

	case msgTread:
		req := Tread(in)
		f, ok := s.fids[req.Fid()]
		if !ok {
			s.sendError(tag, uint32(syscall.EBADF), "fid unknown or out of range")
			return
		}
		if hold := s.holdName(); hold != "" && f.name == hold {
			s.mu.Lock()
			s.heldTags = append(s.heldTags, tag)
			s.mu.Unlock()
			return
		}
		var src []byte
		if f.isDir() {
			if s.dialect == Dialect9P2000L {
				s.sendError(tag, uint32(syscall.EISDIR), "is a directory")
				return
			}
			for _, child := range f.sortedChildren() {
				src = append(src, s.stat(child).Bytes()...)
			}
		} else {
			src = f.data
		}
		off := req.Offset()
		if off > uint64(len(src)) {
			off = uint64(len(src))
		}
		end := off + uint64(req.Count())
		if end > uint64(len(src)) {
			end = uint64(len(src))
		}
		data := src[off:end]
		if pad := s.readPad(); pad > 0 {
			data = append(append([]byte{}, data...), make([]byte, pad)...)
		}
		Rread(out).fill(tag, data)
		s.reply(out)

	case msgTwrite:
		req := Twrite(in)
		f, ok := s.fids[req.Fid()]
		if !ok {
			s.sendError(tag, uint32(syscall.EBADF), "fid unknown or out of range")
			return
		}
		data := req.Data()
		off := int(req.Offset())
		if need := off + len(data); need > len(f.data) {
			grown := make([]byte, need)
			copy(grown, f.data)
			f.data = grown
		}
		copy(f.data[off:], data)
		Rwrite(out).fill(tag, uint32(len(data)))
		s.reply(out)

	case msgTclunk:
		req := Tclunk(in)
		if _, ok := s.fids[req.Fid()]; !ok {
			s.sendError(tag, uint32(syscall.EBADF), "fid unknown or out of range")
			return
		}
		delete(s.fids, req.Fid())
		delete(s.parents, req.Fid())
		Rclunk(out).fill(tag)
		s.reply(out)

	case msgTremove:
		req := Tremove(in)
		f, ok := s.fids[req.Fid()]
		if !ok {
			s.sendError(tag, uint32(syscall.EBADF), "fid unknown or out of range")
			return
		}
		if parent := s.parents[req.Fid()]; parent != nil {
			delete(parent.children, f.name)
		}
		delete(s.fids, req.Fid())
		delete(s.parents, req.Fid())
		Rremove(out).fill(tag)
		s.reply(out)

	case msgTstat:
		req := Tstat(in)
		f, ok := s.fids[req.Fid()]
		if !ok {
			s.sendError(tag, uint32(syscall.EBADF), "fid unknown or out of range")
			return
		}
		Rstat(out).fill(tag, s.stat(f))
		s.reply(out)

	case msgTwstat:
		req := Twstat(in)
		f, ok := s.fids[req.Fid()]
		if !ok {
			s.sendError(tag, uint32(syscall.EBADF), "fid unknown or out of range")
			return
		}
		st := req.Stat()
		if !st.NameNoTouch() && st.Name() != "" {
			if parent := s.parents[req.Fid()]; parent != nil {
				delete(parent.children, f.name)
				f.name = st.Name()
				parent.children[f.name] = f
			}
		}
		if !st.ModeNoTouch() {
			f.mode = st.Mode()
		}
		if !st.LengthNoTouch() && st.Length() <= uint64(len(f.data)) {
			f.data = f.data[:st.Length()]
		}
		Rwstat(out).fill(tag)
		s.reply(out)

	case msgTgetattr:
		req := Tgetattr(in)
		f, ok := s.fids[req.Fid()]
		if !ok {
			s.sendError(tag, uint32(syscall.EBADF), "fid unknown or out of range")
			return
		}
		r := Rgetattr(out)
		r.fill(tag, L_GETATTR_BASIC, f.qid())
		mode := uint32(f.mode & 0777)
		if f.isDir() {
			mode |= 0040000
		}
		r.SetMode(mode)
		r.SetUid(1000)
		r.SetGid(1000)
		r.SetNlink(1)
		r.SetLength(uint64(len(f.data)))
		r.SetMtimeSec(1700000000)
		r.SetAtimeSec(1700000000)
		r.SetCtimeSec(1700000000)
		s.reply(out)

	case msgTsetattr:
		req := Tsetattr(in)
		f, ok := s.fids[req.Fid()]
		if !ok {
			s.sendError(tag, uint32(syscall.EBADF), "fid unknown or out of range")
			return
		}
		a := req.Attr()
		if a.Valid&L_SETATTR_MODE != 0 {
			f.mode = (f.mode &^ 0777) | Mode(a.Mode&0777)
		}
		if a.Valid&L_SETATTR_SIZE != 0 && a.Length <= uint64(len(f.data)) {
			f.data = f.data[:a.Length]
		}
		Rsetattr(out).fill(tag)
		s.reply(out)

	case msgTreaddir:
		req := Treaddir(in)
		f, ok := s.fids[req.Fid()]
		if !ok || !f.isDir() {
			s.sendError(tag, uint32(syscall.ENOTDIR), "not a directory")
			return
		}
		children := f.sortedChildren()
		var all []*tsFile
		all = append(all, &tsFile{name: ".", mode: M_DIR | 0755, qpath: f.qpath})
		all = append(all, &tsFile{name: "..", mode: M_DIR | 0755, qpath: f.qpath})
		all = append(all, children...)

		data := make([]byte, 0, req.Count())
		scratch := make([]byte, 1<<10)
		for i := uint64(req.Offset()); i < uint64(len(all)); i++ {
			e := all[i]
			n := Dirent(scratch).fill(e.qid(), i+1, e.direntType(), e.name)
			if len(data)+n > int(req.Count()) {
				break
			}
			data = append(data, scratch[:n]...)
		}
		Rreaddir(out).fill(tag, data)
		s.reply(out)

	case msgTfsync:
		Rfsync(out).fill(tag)
		s.reply(out)

	default:
		s.sendError(tag, uint32(syscall.ENOSYS), "operation not supported")
	}
}
