package ninep

import (
	"context"
	"crypto/tls"
	"errors"
	"net"
	"sync"
	"time"
)

type cltTransaction struct {
	req *cltRequest
	res *cltResponse
	ch  chan cltChResponse
}

type cltChResponse struct {
	res *cltResponse
	err error
}

// A Client speaks one 9P dialect over a single connection. Requests from any
// goroutine are multiplexed over the connection by tag; a background read
// loop routes each reply to its waiter.
//
// Zero value is usable: set fields, then Connect. The dialect is fixed by
// the version exchange inside Connect and never changes afterwards.
type Client struct {
	m          sync.Mutex // guards writes to rwc and close
	rwc        net.Conn
	readCancel context.CancelFunc

	mut       sync.Mutex
	tagToTxns map[Tag]cltTransaction
	closedErr error // poisons sends once the read loop dies

	tags tagArena

	requestPool  chan *cltRequest
	responsePool chan *cltResponse

	dialect Dialect
	msize   uint32

	// Authorizee, when set, performs the credential exchange over the
	// afid between Tauth and Tattach.
	Authorizee Authorizee

	// Version is the dialect to request; servers may downgrade it.
	// Defaults to 9P2000.
	Version                 string
	Timeout                 time.Duration
	MaxMsgSize              uint32
	MaxSimultaneousRequests uint
	Dialer                  Dialer

	Loggable
}

// Dialect reports the variant negotiated by Connect.
func (c *Client) Dialect() Dialect { return c.dialect }

// MsgSize reports the negotiated maximum message size.
func (c *Client) MsgSize() uint32 { return c.msize }

// MaxPayload is the largest read/write payload a single message can carry
// once frame headers are accounted for.
func (c *Client) MaxPayload() uint32 { return c.msize - 24 }

func (c *Client) dial(network, addr string) (net.Conn, error) {
	if c.Dialer == nil {
		return net.Dial(network, addr)
	}
	return c.Dialer.Dial(network, addr)
}

func (c *Client) Connect(addr string) error {
	var err error
	c.rwc, err = c.dial("tcp", addr)
	if err != nil {
		return err
	}
	if err = c.connect(); err != nil {
		c.rwc.Close()
		return err
	}
	return nil
}

func (c *Client) ConnectTLS(addr string, tlsCfg *tls.Config) error {
	var err error
	c.rwc, err = tls.Dial("tcp", addr, tlsCfg)
	if err != nil {
		return err
	}
	if err = c.connect(); err != nil {
		c.rwc.Close()
		return err
	}
	return nil
}

// ConnectOn runs the handshake over an already-established connection.
// Useful for pipes and test transports.
func (c *Client) ConnectOn(conn net.Conn) error {
	c.rwc = conn
	if err := c.connect(); err != nil {
		c.rwc.Close()
		return err
	}
	return nil
}

func (c *Client) Close() error {
	c.m.Lock()
	defer c.m.Unlock()
	if c.readCancel != nil {
		go c.readCancel()
		c.readCancel = nil
	}
	if c.rwc == nil {
		return nil
	}
	return c.rwc.Close()
}

func (c *Client) connect() error {
	{
		// cleanup / initialization
		if c.readCancel != nil {
			c.readCancel()
			c.readCancel = nil
		}

		c.mut.Lock()
		c.tagToTxns = make(map[Tag]cltTransaction)
		c.closedErr = nil
		c.mut.Unlock()
		c.tags.reset()
	}

	{ // set default values
		if c.MaxMsgSize < MIN_MESSAGE_SIZE {
			c.MaxMsgSize = DEFAULT_MAX_MESSAGE_SIZE
		}
		if c.MaxSimultaneousRequests == 0 {
			c.MaxSimultaneousRequests = 8
		}
		if c.Version == "" {
			c.Version = VERSION_9P2000
		}
	}

	// version exchange happens alone on the wire, before the read loop and
	// any tagged request
	if err := c.negotiate(); err != nil {
		return err
	}

	{ // buffer pools
		c.requestPool = make(chan *cltRequest, c.MaxSimultaneousRequests)
		c.responsePool = make(chan *cltResponse, c.MaxSimultaneousRequests)
		for i := uint(0); i < c.MaxSimultaneousRequests; i++ {
			req := createClientRequest(NO_TAG, c.msize)
			c.requestPool <- &req
			res := createClientResponse(c.msize)
			c.responsePool <- &res
		}
	}

	// start bg reader
	{
		ctx, cancel := context.WithCancel(context.Background())
		c.readCancel = cancel
		go c.readLoop(ctx)
	}

	return nil
}

func (c *Client) negotiate() error {
	want := c.Version
	if _, ok := DialectFromVersion(want); !ok {
		return ErrVersionMismatch
	}

	req := createClientRequest(NO_TAG, c.MaxMsgSize)
	res := createClientResponse(c.MaxMsgSize)

	c.Tracef("Tversion(%d, %s)", c.MaxMsgSize, want)
	req.Tversion(c.MaxMsgSize, want)
	if err := c.writeRequest(&req); err != nil {
		c.Errorf("failed to write version: %s", err)
		return err
	}
	if err := res.readReply(c.rwc); err != nil {
		c.Errorf("failed to read version: %s", err)
		return err
	}

	reply, ok := res.Reply().(Rversion)
	if !ok || reply.Tag() != NO_TAG {
		c.Errorf("failed to negotiate version: unexpected reply")
		return ErrBadFormat
	}

	offered, ok := DialectFromVersion(reply.Version())
	if !ok {
		c.Tracef("unsupported server version: %s", reply.Version())
		return ErrVersionMismatch
	}
	requested, _ := DialectFromVersion(want)
	if !requested.Downgrades(offered) {
		c.Errorf("server answered %s to a %s request", reply.Version(), want)
		return ErrVersionMismatch
	}

	size := reply.MsgSize()
	if size > c.MaxMsgSize || size < MIN_MESSAGE_SIZE {
		c.Errorf("server returned unacceptable msize: (server: %d, client: %d)", size, c.MaxMsgSize)
		return ErrBadFormat
	}

	c.dialect = offered
	c.msize = size
	c.Tracef("Rversion(%d, %s)", size, offered)
	return nil
}

func (c *Client) writeRequest(t *cltRequest) error {
	c.m.Lock()
	defer c.m.Unlock()
	if c.Timeout > 0 {
		c.rwc.SetWriteDeadline(time.Now().Add(c.Timeout))
	}
	return t.writeRequest(c.rwc)
}

// allocTxn takes a pooled request buffer and a fresh tag. Blocks when
// MaxSimultaneousRequests are already in flight.
func (c *Client) allocTxn() (cltTransaction, error) {
	c.mut.Lock()
	err := c.closedErr
	c.mut.Unlock()
	if err != nil {
		return cltTransaction{}, err
	}

	req := <-c.requestPool
	req.reset()
	tag, ok := c.tags.acquire()
	if !ok {
		c.requestPool <- req
		return cltTransaction{}, ErrTagsExhausted
	}
	req.tag = tag

	txn := cltTransaction{req: req}
	c.mut.Lock()
	c.tagToTxns[tag] = txn
	c.mut.Unlock()
	return txn, nil
}

// resetTxn readies a transaction for another request on the same tag once
// its reply has been consumed. Used by chunked read/write loops.
func (c *Client) resetTxn(t Tag) cltTransaction {
	c.mut.Lock()
	oldTxn := c.tagToTxns[t]
	if oldTxn.res != nil {
		oldTxn.res.reset()
		c.responsePool <- oldTxn.res
	}

	req := oldTxn.req
	req.reset()
	req.tag = t
	txn := cltTransaction{req: req}
	c.tagToTxns[t] = txn
	c.mut.Unlock()
	return txn
}

// release returns a transaction's buffers to the pools and frees its tag.
// Calling it for a tag already released reports the stale use to the error
// log and does nothing else.
func (c *Client) release(t Tag) {
	c.mut.Lock()
	txn, ok := c.tagToTxns[t]
	delete(c.tagToTxns, t)
	c.mut.Unlock()

	if !ok {
		c.Errorf("release of unknown tag %d", t)
		return
	}
	c.tags.release(t)
	txn.req.reset()
	c.requestPool <- txn.req
	if txn.res != nil {
		txn.res.reset()
		c.responsePool <- txn.res
	}
}

func (c *Client) putTransaction(t Tag, txn cltTransaction) {
	c.mut.Lock()
	c.tagToTxns[t] = txn
	c.mut.Unlock()
}

// claimTxn atomically takes ownership of a pending transaction's waiter
// channel. Exactly one of the read loop or a flush wins; the loser sees
// ok == false. res, when non-nil, is stored for release() to repool.
func (c *Client) claimTxn(t Tag, res *cltResponse) (chan cltChResponse, bool) {
	c.mut.Lock()
	defer c.mut.Unlock()
	txn, ok := c.tagToTxns[t]
	if !ok || txn.ch == nil {
		return nil, false
	}
	ch := txn.ch
	txn.ch = nil
	if res != nil {
		txn.res = res
	}
	c.tagToTxns[t] = txn
	return ch, true
}

func (c *Client) sendRequest(txn *cltTransaction) <-chan cltChResponse {
	txn.ch = make(chan cltChResponse, 1)
	c.putTransaction(txn.req.tag, *txn)
	if err := c.writeRequest(txn.req); err != nil {
		if ch, ok := c.claimTxn(txn.req.tag, nil); ok {
			ch <- cltChResponse{err: err}
			close(ch)
		}
	}
	// reader loop will send on the channel
	return txn.ch
}

// abortTransactions fails every waiter and poisons future sends. Any stream
// error is fatal to the session: replies can no longer be trusted to match
// tags.
func (c *Client) abortTransactions(err error) {
	c.mut.Lock()
	if c.closedErr == nil {
		c.closedErr = err
	}
	for _, txn := range c.tagToTxns {
		if txn.ch != nil {
			txn.ch <- cltChResponse{err: err}
			close(txn.ch)
		}
	}
	c.tagToTxns = make(map[Tag]cltTransaction)
	c.mut.Unlock()
}

func (c *Client) readLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			c.abortTransactions(ErrConnClosed)
			return
		case res := <-c.responsePool:
			res.reset()
			err := res.readReply(c.rwc)
			if err != nil {
				c.responsePool <- res
				if errors.Is(err, ErrBadFormat) || errors.Is(err, ErrMessageTooLarge) {
					c.Errorf("Server sent a malformed frame: %s", err)
					c.abortTransactions(err)
				} else {
					if isClosedSocket(err) {
						c.Tracef("connection closed: %s", err)
					} else {
						c.Errorf("Error reading from server: %s", err)
					}
					c.abortTransactions(ErrConnClosed)
				}
				c.rwc.Close()
				return
			}

			if mt := MsgBase(res.inMsg).Type(); !c.dialect.ValidReply(mt) {
				c.responsePool <- res
				c.Errorf("Server sent opcode %d illegal for %s", mt, c.dialect)
				c.abortTransactions(ErrConnClosed)
				c.rwc.Close()
				return
			}

			ch, ok := c.claimTxn(res.reqTag(), res)
			if !ok {
				// replies for unknown tags are dropped; this is where a
				// reply that lost the race with its flush lands
				c.Tracef("discarding reply for inactive tag %d", res.reqTag())
				res.reset()
				c.responsePool <- res
				continue
			}
			c.Tracef("Server tag: %d", res.reqTag())
			ch <- cltChResponse{res: res}
			close(ch)
		}
	}
}

// Flush asks the server to abort the request with the given tag. When the
// server acknowledges, the flushed request's waiter fails with ErrFlushed
// and its tag becomes reusable. If the request's own reply arrives before
// the acknowledgement it is delivered normally.
func (c *Client) Flush(oldTag Tag) error {
	txn, err := c.allocTxn()
	if err != nil {
		return err
	}
	defer c.release(txn.req.tag)

	c.Tracef("Tflush(%d)", oldTag)
	txn.req.Tflush(oldTag)
	res := <-c.sendRequest(&txn)
	if res.err != nil {
		c.Errorf("Tflush: Failed requesting: %s", res.err)
		return res.err
	}

	switch r := res.res.Reply().(type) {
	case Rflush:
		c.Tracef("Rflush")
	case Rerror:
		return r.Error()
	case Rlerror:
		return r.Error()
	default:
		return ErrBadFormat
	}

	// after Rflush the server will never answer oldTag; wake its waiter
	if ch, ok := c.claimTxn(oldTag, nil); ok {
		ch <- cltChResponse{err: ErrFlushed}
		close(ch)
	}
	return nil
}
