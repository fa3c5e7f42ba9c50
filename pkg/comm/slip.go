package comm

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/mos.go/pkg/frame"
)

// Result is the result of a Request.
type Result struct {
	Err   error
	Reply frame.Reply
}

// Request is a frame waiting for its reply.
type Request struct {
	header   byte
	resultCh chan Result
	next     *Request

	// abandoned requests stay queued to absorb their late reply.
	abandoned bool
}

// ResultChan returns the chan to retrieve the result.
func (r *Request) ResultChan() <-chan Result {
	return r.resultCh
}

// SlipClient is a Client over a SLIP stream. The device answers every
// frame in order, so pending requests are matched to replies FIFO.
type SlipClient struct {
	ReadWriter io.ReadWriter
	Timeout    time.Duration

	reqHead   *Request
	reqTail   *Request
	closed    bool
	lock      sync.Mutex
	writeLock sync.Mutex
}

// DefaultTimeout is the default time to wait for a reply.
const DefaultTimeout = time.Second

// NewSlipClient creates a SlipClient. Run must be running for requests
// to complete.
func NewSlipClient(rw io.ReadWriter) *SlipClient {
	return &SlipClient{ReadWriter: rw, Timeout: DefaultTimeout}
}

// Do writes a frame body and returns the Request expecting a reply with
// the given header.
func (c *SlipClient) Do(body []byte, header byte) *Request {
	req := &Request{header: header, resultCh: make(chan Result, 1)}
	c.writeLock.Lock()
	defer c.writeLock.Unlock()

	c.lock.Lock()
	if c.closed {
		c.lock.Unlock()
		req.resultCh <- Result{Err: ErrClosed}
		return req
	}
	if c.reqHead == nil {
		c.reqHead = req
	} else {
		c.reqTail.next = req
	}
	c.reqTail = req
	c.lock.Unlock()

	if _, err := frame.WriteSLIP(c.ReadWriter, body); err != nil {
		if c.remove(req) {
			req.resultCh <- Result{Err: err}
		}
	}
	return req
}

func (c *SlipClient) remove(req *Request) bool {
	c.lock.Lock()
	defer c.lock.Unlock()
	var prev *Request
	for curr := c.reqHead; curr != nil; prev, curr = curr, curr.next {
		if curr != req {
			continue
		}
		if prev == nil {
			c.reqHead = curr.next
		} else {
			prev.next = curr.next
		}
		if c.reqTail == curr {
			c.reqTail = prev
		}
		curr.next = nil
		return true
	}
	return false
}

func (c *SlipClient) wait(ctx context.Context, req *Request) (frame.Reply, error) {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	select {
	case r := <-req.resultCh:
		return r.Reply, r.Err
	case <-time.After(timeout):
		c.abandon(req)
		return frame.Reply{}, ErrNoReply
	case <-ctx.Done():
		c.abandon(req)
		return frame.Reply{}, ctx.Err()
	}
}

// abandon keeps req in the queue, because the device still answers the
// frame once it was written.
func (c *SlipClient) abandon(req *Request) {
	c.lock.Lock()
	req.abandoned = true
	c.lock.Unlock()
}

// Call implements Client.
func (c *SlipClient) Call(ctx context.Context, port byte, data ...byte) error {
	body := make([]byte, len(data)+3)
	body[0], body[1] = frame.SvcHeader, port
	copy(body[2:], data)
	body[len(body)-1] = frame.CRC8(body[:len(body)-1])
	r, err := c.wait(ctx, c.Do(body, frame.StatusHeader))
	if err != nil {
		return err
	}
	if st := r.Status(); st != frame.FrameOk {
		return &CallError{Port: port, Status: st}
	}
	return nil
}

// Query implements Client.
func (c *SlipClient) Query(ctx context.Context, port byte) (byte, error) {
	r, err := c.wait(ctx, c.Do([]byte{port}, port))
	return r.Value, err
}

// Status implements Client.
func (c *SlipClient) Status(ctx context.Context) (frame.Status, error) {
	r, err := c.wait(ctx, c.Do([]byte{frame.StatusHeader}, frame.StatusHeader))
	return r.Status(), err
}

// HandleReply completes the oldest pending request.
func (c *SlipClient) HandleReply(r frame.Reply) {
	c.lock.Lock()
	req := c.reqHead
	var abandoned bool
	if req != nil {
		if c.reqHead = req.next; c.reqHead == nil {
			c.reqTail = nil
		}
		req.next = nil
		abandoned = req.abandoned
	}
	c.lock.Unlock()
	if req == nil {
		glog.V(2).Infof("unsolicited reply %02x %02x", r.Header, r.Value)
		return
	}
	if abandoned {
		glog.V(2).Infof("late reply %02x %02x", r.Header, r.Value)
		return
	}
	switch {
	case r.Header == req.header:
		req.resultCh <- Result{Reply: r}
	case r.IsStatus():
		req.resultCh <- Result{Reply: r, Err: &CallError{Port: req.header, Status: r.Status()}}
	default:
		req.resultCh <- Result{Reply: r, Err: ErrUnexpectedReply}
	}
}

// Run reads replies until ctx is done or the stream fails. Pending
// requests fail with ErrClosed afterwards.
func (c *SlipClient) Run(ctx context.Context) error {
	defer c.close()
	byteCh, errCh := make(chan []byte), make(chan error, 1)
	subCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go c.readLoop(subCtx, byteCh, errCh)
	dec := frame.NewSlipDecoder(8)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-errCh:
			return err
		case data := <-byteCh:
			for _, b := range data {
				body, err := dec.Decode(b)
				if err != nil || body == nil {
					continue
				}
				r, err := frame.DecodeSLIPReply(body)
				if err != nil {
					glog.Warningf("drop reply: %v", err)
					continue
				}
				c.HandleReply(r)
			}
		}
	}
}

func (c *SlipClient) readLoop(ctx context.Context, byteCh chan []byte, errCh chan error) {
	buf := make([]byte, 64)
	for {
		n, err := c.ReadWriter.Read(buf)
		if n > 0 {
			data := append([]byte(nil), buf[:n]...)
			select {
			case byteCh <- data:
			case <-ctx.Done():
				return
			}
		}
		if err != nil {
			errCh <- err
			return
		}
	}
}

func (c *SlipClient) close() {
	c.lock.Lock()
	head := c.reqHead
	c.reqHead, c.reqTail, c.closed = nil, nil, true
	c.lock.Unlock()
	for ; head != nil; head = head.next {
		head.resultCh <- Result{Err: ErrClosed}
	}
}
