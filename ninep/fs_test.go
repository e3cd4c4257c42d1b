package ninep

import (
	"bytes"
	"io"
	"os"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allVersions = []string{VERSION_9P2000, VERSION_9P2000U, VERSION_9P2000L}

func startFs(t *testing.T, version string) (*FileSystemProxy, *testServer) {
	t.Helper()
	s, srv := startSession(t, version)
	return s.Fs(), srv
}

func listNames(t *testing.T, fsys *FileSystemProxy, path string) []string {
	t.Helper()
	itr, err := fsys.ListDir(path)
	require.NoError(t, err)
	defer itr.Close()

	infos, err := FileInfoSliceFromIterator(itr, -1)
	require.NoError(t, err)
	names := make([]string, len(infos))
	for i, fi := range infos {
		names[i] = fi.Name()
	}
	sort.Strings(names)
	return names
}

func readAll(t *testing.T, fsys *FileSystemProxy, path string) []byte {
	t.Helper()
	h, err := fsys.OpenFile(path, OREAD)
	require.NoError(t, err)
	defer h.Close()
	var buf bytes.Buffer
	_, err = io.Copy(&buf, Reader(h))
	require.NoError(t, err)
	return buf.Bytes()
}

func TestFsOpenAndRead(t *testing.T) {
	for _, version := range allVersions {
		t.Run(version, func(t *testing.T) {
			fsys, _ := startFs(t, version)
			assert.Equal(t, "hello, world\n", string(readAll(t, fsys, "hello.txt")))
			assert.Equal(t, "aaa", string(readAll(t, fsys, "sub/a.txt")))
		})
	}
}

func TestFsReadAtReportsEOF(t *testing.T) {
	fsys, _ := startFs(t, VERSION_9P2000)
	h, err := fsys.OpenFile("hello.txt", OREAD)
	require.NoError(t, err)
	defer h.Close()

	buf := make([]byte, 64)
	n, err := h.ReadAt(buf, 0)
	assert.Equal(t, 13, n)
	assert.ErrorIs(t, err, io.EOF)

	n, err = h.ReadAt(buf[:5], 7)
	require.NoError(t, err)
	assert.Equal(t, "world", string(buf[:n]))
}

func TestFsOpenDirRejected(t *testing.T) {
	for _, version := range allVersions {
		t.Run(version, func(t *testing.T) {
			fsys, _ := startFs(t, version)
			_, err := fsys.OpenFile("sub", OREAD)
			assert.ErrorIs(t, err, ErrOpenDirNotAllowed)
		})
	}
}

func TestFsOpenMissingFile(t *testing.T) {
	for _, version := range allVersions {
		t.Run(version, func(t *testing.T) {
			fsys, _ := startFs(t, version)
			_, err := fsys.OpenFile("nope.txt", OREAD)
			assert.ErrorIs(t, err, os.ErrNotExist)
			_, err = fsys.Stat("nope.txt")
			assert.ErrorIs(t, err, os.ErrNotExist)
		})
	}
}

func TestFsCreateWriteReadBack(t *testing.T) {
	for _, version := range allVersions {
		t.Run(version, func(t *testing.T) {
			fsys, _ := startFs(t, version)
			h, err := fsys.CreateFile("sub/new.txt", OWRITE, 0644)
			require.NoError(t, err)
			n, err := h.WriteAt([]byte("fresh content"), 0)
			require.NoError(t, err)
			assert.Equal(t, 13, n)
			require.NoError(t, h.Sync())
			require.NoError(t, h.Close())

			assert.Equal(t, "fresh content", string(readAll(t, fsys, "sub/new.txt")))
		})
	}
}

func TestFsCreateExistingFails(t *testing.T) {
	for _, version := range allVersions {
		t.Run(version, func(t *testing.T) {
			fsys, _ := startFs(t, version)
			_, err := fsys.CreateFile("hello.txt", OWRITE, 0644)
			assert.ErrorIs(t, err, os.ErrExist)
		})
	}
}

func TestFsChunkedIO(t *testing.T) {
	// a tiny iounit forces reads and writes to split into many messages
	c, srv := startTestServer(t, VERSION_9P2000, VERSION_9P2000)
	srv.setIounit(7)
	s, err := c.Session("glenda", "")
	require.NoError(t, err)
	fsys := s.Fs()

	payload := bytes.Repeat([]byte("0123456789"), 10)
	h, err := fsys.CreateFile("big.txt", ORDWR, 0644)
	require.NoError(t, err)
	n, err := h.WriteAt(payload, 0)
	require.NoError(t, err)
	require.Equal(t, len(payload), n)

	buf := make([]byte, len(payload))
	n, err = h.ReadAt(buf, 0)
	require.NoError(t, err)
	assert.Equal(t, payload, buf[:n])
	require.NoError(t, h.Close())
}

func TestFsListDir(t *testing.T) {
	for _, version := range allVersions {
		t.Run(version, func(t *testing.T) {
			fsys, _ := startFs(t, version)
			assert.Equal(t, []string{"hello.txt", "sub"}, listNames(t, fsys, ""))
			assert.Equal(t, []string{"a.txt", "b.txt"}, listNames(t, fsys, "sub"))
		})
	}
}

func TestFsListDirPagesWithSmallCount(t *testing.T) {
	// iounit smaller than the packed directory forces several Treaddirs,
	// resuming at the last entry's offset cookie
	c, srv := startTestServer(t, VERSION_9P2000L, VERSION_9P2000L)
	srv.setIounit(64)
	s, err := c.Session("glenda", "")
	require.NoError(t, err)
	fsys := s.Fs()

	assert.Equal(t, []string{"hello.txt", "sub"}, listNames(t, fsys, ""))
}

func TestFsListDirSizes(t *testing.T) {
	for _, version := range allVersions {
		t.Run(version, func(t *testing.T) {
			fsys, _ := startFs(t, version)
			itr, err := fsys.ListDir("sub")
			require.NoError(t, err)
			defer itr.Close()

			sizes := map[string]int64{}
			for {
				fi, err := itr.NextFileInfo()
				if err == io.EOF {
					break
				}
				require.NoError(t, err)
				sizes[fi.Name()] = fi.Size()
			}
			assert.Equal(t, map[string]int64{"a.txt": 3, "b.txt": 4}, sizes)
		})
	}
}

func TestFsListDirOnFile(t *testing.T) {
	fsys, _ := startFs(t, VERSION_9P2000)
	_, err := fsys.ListDir("hello.txt")
	assert.ErrorIs(t, err, ErrListingOnNonDir)
}

func TestFsStat(t *testing.T) {
	for _, version := range allVersions {
		t.Run(version, func(t *testing.T) {
			fsys, _ := startFs(t, version)
			fi, err := fsys.Stat("hello.txt")
			require.NoError(t, err)
			assert.Equal(t, "hello.txt", fi.Name())
			assert.Equal(t, int64(13), fi.Size())
			assert.False(t, fi.IsDir())

			fi, err = fsys.Stat("sub")
			require.NoError(t, err)
			assert.True(t, fi.IsDir())
		})
	}
}

func TestFsMakeDir(t *testing.T) {
	for _, version := range allVersions {
		t.Run(version, func(t *testing.T) {
			fsys, _ := startFs(t, version)
			require.NoError(t, fsys.MakeDir("newdir", 0755))
			fi, err := fsys.Stat("newdir")
			require.NoError(t, err)
			assert.True(t, fi.IsDir())
		})
	}
}

func TestFsMakeDirAll(t *testing.T) {
	for _, version := range allVersions {
		t.Run(version, func(t *testing.T) {
			fsys, _ := startFs(t, version)
			// "sub" already exists; the rest must be created
			require.NoError(t, fsys.MakeDirAll("sub/x/y", 0755))
			fi, err := fsys.Stat("sub/x/y")
			require.NoError(t, err)
			assert.True(t, fi.IsDir())

			// idempotent
			require.NoError(t, fsys.MakeDirAll("sub/x/y", 0755))
		})
	}
}

func TestFsDelete(t *testing.T) {
	for _, version := range allVersions {
		t.Run(version, func(t *testing.T) {
			fsys, _ := startFs(t, version)
			require.NoError(t, fsys.Delete("sub/b.txt"))
			_, err := fsys.Stat("sub/b.txt")
			assert.ErrorIs(t, err, os.ErrNotExist)
			assert.Equal(t, []string{"a.txt"}, listNames(t, fsys, "sub"))
		})
	}
}

func TestFsRenameAcrossDirs(t *testing.T) {
	fsys, _ := startFs(t, VERSION_9P2000L)
	require.NoError(t, fsys.Rename("hello.txt", "sub/hi.txt"))

	assert.Equal(t, "hello, world\n", string(readAll(t, fsys, "sub/hi.txt")))
	_, err := fsys.Stat("hello.txt")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestFsRenameSameDir(t *testing.T) {
	for _, version := range allVersions {
		t.Run(version, func(t *testing.T) {
			fsys, _ := startFs(t, version)
			require.NoError(t, fsys.Rename("sub/a.txt", "sub/c.txt"))
			assert.Equal(t, "aaa", string(readAll(t, fsys, "sub/c.txt")))
			_, err := fsys.Stat("sub/a.txt")
			assert.ErrorIs(t, err, os.ErrNotExist)
		})
	}
}

func TestFsRenameAcrossDirsNeedsLinuxOps(t *testing.T) {
	fsys, _ := startFs(t, VERSION_9P2000)
	assert.ErrorIs(t, fsys.Rename("hello.txt", "sub/hi.txt"), ErrUnsupportedOp)
}

func TestFsWriteStatTruncates(t *testing.T) {
	for _, version := range []string{VERSION_9P2000, VERSION_9P2000L} {
		t.Run(version, func(t *testing.T) {
			fsys, _ := startFs(t, version)
			st := SyncStat()
			st.SetLength(5)
			require.NoError(t, fsys.WriteStat("hello.txt", st))

			fi, err := fsys.Stat("hello.txt")
			require.NoError(t, err)
			assert.Equal(t, int64(5), fi.Size())
			assert.Equal(t, "hello", string(readAll(t, fsys, "hello.txt")))
		})
	}
}

func TestFsCopyFile(t *testing.T) {
	for _, version := range allVersions {
		t.Run(version, func(t *testing.T) {
			fsys, _ := startFs(t, version)
			require.NoError(t, fsys.CopyFile("copy.txt", "hello.txt", 0644))
			assert.Equal(t, "hello, world\n", string(readAll(t, fsys, "copy.txt")))
		})
	}
}

func TestFsSymlinkAndReadlink(t *testing.T) {
	fsys, _ := startFs(t, VERSION_9P2000L)
	require.NoError(t, fsys.Symlink("hello.txt", "sub/link"))

	target, err := fsys.Readlink("sub/link")
	require.NoError(t, err)
	assert.Equal(t, "hello.txt", target)
}

func TestFsTraverse(t *testing.T) {
	fsys, _ := startFs(t, VERSION_9P2000)
	fp, err := fsys.Traverse("sub")
	require.NoError(t, err)
	assert.True(t, fp.IsDir())
	require.NoError(t, fp.Close())
}

func TestFileInfoSliceIterator(t *testing.T) {
	itr := FileInfoSliceIterator(nil)
	_, err := itr.NextFileInfo()
	assert.ErrorIs(t, err, io.EOF)

	infos, err := FileInfoSliceFromIterator(itr, -1)
	require.NoError(t, err)
	assert.Empty(t, infos)
}

func TestStatToSetAttr(t *testing.T) {
	st := SyncStat()
	a, ok := statToSetAttr(st)
	require.True(t, ok)
	assert.Zero(t, a.Valid)

	st.SetMode(0640)
	st.SetLength(9)
	a, ok = statToSetAttr(st)
	require.True(t, ok)
	assert.NotZero(t, a.Valid&L_SETATTR_MODE)
	assert.NotZero(t, a.Valid&L_SETATTR_SIZE)
	assert.Equal(t, uint32(0640), a.Mode)
	assert.Equal(t, uint64(9), a.Length)

	// renames cannot be expressed as a setattr
	_, ok = statToSetAttr(SyncStatWithName("other"))
	assert.False(t, ok)
}
