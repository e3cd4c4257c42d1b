package ninep

import (
	"net"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectNegotiatesRequestedVersion(t *testing.T) {
	for _, version := range []string{VERSION_9P2000, VERSION_9P2000U, VERSION_9P2000L} {
		t.Run(version, func(t *testing.T) {
			c, _ := startTestServer(t, version, version)
			want, _ := DialectFromVersion(version)
			assert.Equal(t, want, c.Dialect())
			assert.GreaterOrEqual(t, c.MsgSize(), uint32(MIN_MESSAGE_SIZE))
			assert.Less(t, c.MaxPayload(), c.MsgSize())
		})
	}
}

func TestConnectDowngradesToServerVersion(t *testing.T) {
	c, _ := startTestServer(t, VERSION_9P2000, VERSION_9P2000L)
	assert.Equal(t, Dialect9P2000, c.Dialect())
}

func TestConnectDowngradeFromDotL(t *testing.T) {
	c, _ := startTestServer(t, VERSION_9P2000U, VERSION_9P2000L)
	assert.Equal(t, Dialect9P2000u, c.Dialect())
}

func TestConnectRejectsUnknownClientVersion(t *testing.T) {
	serverEnd, clientEnd := net.Pipe()
	defer serverEnd.Close()

	c := &Client{Version: "9P1776"}
	err := c.ConnectOn(clientEnd)
	assert.ErrorIs(t, err, ErrVersionMismatch)
}

func TestConcurrentRequestsShareTheConnection(t *testing.T) {
	c, _ := startTestServer(t, VERSION_9P2000, VERSION_9P2000)
	s, err := c.Session("glenda", "")
	require.NoError(t, err)
	fsys := s.Fs()

	var wg sync.WaitGroup
	errs := make([]error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			fi, err := fsys.Stat("hello.txt")
			if err == nil && fi.Size() != 13 {
				err = errFraming("wrong size %d", fi.Size())
			}
			errs[i] = err
		}(i)
	}
	wg.Wait()
	for i, err := range errs {
		assert.NoError(t, err, "request %d", i)
	}
}

func TestFlushWakesHeldRequest(t *testing.T) {
	c, srv := startTestServer(t, VERSION_9P2000, VERSION_9P2000)
	srv.setHold("hello.txt")
	s, err := c.Session("glenda", "")
	require.NoError(t, err)

	fid, _, err := s.Walk(rootFid, []string{"hello.txt"})
	require.NoError(t, err)
	_, _, err = c.Open(fid, OREAD)
	require.NoError(t, err)

	txn, err := c.allocTxn()
	require.NoError(t, err)
	tag := txn.req.tag
	txn.req.Tread(fid, 0, 16)
	ch := c.sendRequest(&txn)

	// the server has parked the read; flush it
	require.NoError(t, c.Flush(tag))

	res := <-ch
	assert.ErrorIs(t, res.err, ErrFlushed)
	c.release(tag)

	// the connection is still usable afterwards
	srv.setHold("")
	buf := make([]byte, 16)
	n, err := c.Read(fid, buf, 0)
	require.NoError(t, err)
	assert.Equal(t, "hello, world\n", string(buf[:n]))
}

func TestIllegalReplyOpcodeKillsConnection(t *testing.T) {
	serverEnd, clientEnd := net.Pipe()
	defer serverEnd.Close()

	go func() {
		in := make([]byte, 1<<16)
		out := make([]byte, 1<<16)

		// answer the version exchange properly
		if _, err := readUpTo(serverEnd, in[:4]); err != nil {
			return
		}
		size := MsgBase(in).Size()
		if _, err := readUpTo(serverEnd, in[4:size]); err != nil {
			return
		}
		Rversion(out).fill(NO_TAG, Tversion(in).MsgSize(), VERSION_9P2000)
		serverEnd.Write(MsgBase(out).Bytes())

		// then answer whatever comes next with an opcode the base
		// dialect never produces
		if _, err := readUpTo(serverEnd, in[:4]); err != nil {
			return
		}
		size = MsgBase(in).Size()
		if _, err := readUpTo(serverEnd, in[4:size]); err != nil {
			return
		}
		zero(out)
		Rlerror(out).fill(MsgBase(in).Tag(), 2)
		serverEnd.Write(MsgBase(out).Bytes())
	}()

	c := &Client{Version: VERSION_9P2000}
	require.NoError(t, c.ConnectOn(clientEnd))
	defer c.Close()

	err := c.Clunk(rootFid)
	assert.ErrorIs(t, err, ErrConnClosed)

	// the stream is poisoned for every later request
	_, err = c.allocTxn()
	assert.ErrorIs(t, err, ErrConnClosed)
}

func TestRequestsFailAfterServerDisconnect(t *testing.T) {
	c, srv := startTestServer(t, VERSION_9P2000, VERSION_9P2000)
	_, err := c.Attach(rootFid, NO_FID, "glenda", "", NO_UID)
	require.NoError(t, err)

	srv.conn.Close()

	// the first failure may be the raw pipe error from the write or the
	// read loop's teardown, whichever races in first
	_, err = c.Stat(rootFid)
	assert.Error(t, err)
	_, err = c.Stat(rootFid)
	assert.Error(t, err)
}

func TestMalformedReplyCountKillsConnection(t *testing.T) {
	serverEnd, clientEnd := net.Pipe()
	defer serverEnd.Close()

	go func() {
		in := make([]byte, 1<<16)
		out := make([]byte, 1<<16)

		// answer the version exchange properly
		if _, err := readUpTo(serverEnd, in[:4]); err != nil {
			return
		}
		size := MsgBase(in).Size()
		if _, err := readUpTo(serverEnd, in[4:size]); err != nil {
			return
		}
		Rversion(out).fill(NO_TAG, Tversion(in).MsgSize(), VERSION_9P2000)
		serverEnd.Write(MsgBase(out).Bytes())

		// then answer the next request with an Rread whose count extends
		// far past the end of its frame
		if _, err := readUpTo(serverEnd, in[:4]); err != nil {
			return
		}
		size = MsgBase(in).Size()
		if _, err := readUpTo(serverEnd, in[4:size]); err != nil {
			return
		}
		zero(out)
		Rread(out).fill(MsgBase(in).Tag(), nil)
		bo.PutUint32(out[msgOffset:msgOffset+4], 60000)
		serverEnd.Write(MsgBase(out).Bytes())
	}()

	c := &Client{Version: VERSION_9P2000}
	require.NoError(t, c.ConnectOn(clientEnd))
	defer c.Close()

	buf := make([]byte, 16)
	_, err := c.Read(rootFid, buf, 0)
	assert.ErrorIs(t, err, ErrBadFormat)

	// the stream is poisoned for every later request
	_, err = c.allocTxn()
	assert.ErrorIs(t, err, ErrBadFormat)
}

func TestReadRejectsOverlongReply(t *testing.T) {
	c, srv := startTestServer(t, VERSION_9P2000, VERSION_9P2000)
	s, err := c.Session("glenda", "")
	require.NoError(t, err)

	fid, _, err := s.Walk(rootFid, []string{"hello.txt"})
	require.NoError(t, err)
	_, _, err = c.Open(fid, OREAD)
	require.NoError(t, err)

	// a reply carrying more bytes than were requested is rejected, not
	// silently truncated with an inflated count
	srv.setPadReads(84)
	buf := make([]byte, 4)
	_, err = c.Read(fid, buf, 0)
	assert.ErrorIs(t, err, ErrBadFormat)

	// the frame itself was well formed, so the connection survives
	srv.setPadReads(0)
	n, err := c.Read(fid, buf, 0)
	require.NoError(t, err)
	assert.Equal(t, "hell", string(buf[:n]))
}
