package comm

import (
	"context"
	"io"
	"os"
	"sync"
	"time"

	"github.com/golang/glog"
)

// StreamHandler is the slave side of a stream.
// *frame.SlipServer implements it.
type StreamHandler interface {
	Receive(b byte)
	Transmit() (byte, bool)
	StateChanged()
}

// Link pumps a byte stream into a StreamHandler and writes back whatever
// the handler produces. A partial frame is dropped after the stream is
// idle for IdleTimeout.
type Link struct {
	ReadWriter  io.ReadWriter
	Handler     StreamHandler
	IdleTimeout time.Duration
	// OnReply is called after replies are written.
	OnReply func()

	lock sync.Mutex
}

// DefaultIdleTimeout is the default IdleTimeout.
const DefaultIdleTimeout = 100 * time.Millisecond

// NewLink creates a Link.
func NewLink(rw io.ReadWriter, h StreamHandler) *Link {
	return &Link{ReadWriter: rw, Handler: h, IdleTimeout: DefaultIdleTimeout}
}

// Run processes the stream until ctx is done or the stream fails.
func (l *Link) Run(ctx context.Context) error {
	dataCh, errCh := make(chan []byte), make(chan error, 1)
	subCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go l.readLoop(subCtx, dataCh, errCh)

	var idle <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-errCh:
			return err
		case <-idle:
			idle = nil
			glog.V(2).Info("link idle, resync")
			l.Handler.StateChanged()
		case data := <-dataCh:
			for _, b := range data {
				l.Handler.Receive(b)
			}
			if err := l.flush(); err != nil {
				return err
			}
			idle = time.After(l.IdleTimeout)
		}
	}
}

func (l *Link) flush() error {
	var out []byte
	for {
		b, ok := l.Handler.Transmit()
		if !ok {
			break
		}
		out = append(out, b)
	}
	if len(out) == 0 {
		return nil
	}
	l.lock.Lock()
	_, err := l.ReadWriter.Write(out)
	l.lock.Unlock()
	if err != nil {
		return err
	}
	glog.V(2).Infof("link sent % x", out)
	if fn := l.OnReply; fn != nil {
		fn()
	}
	return nil
}

func (l *Link) readLoop(ctx context.Context, dataCh chan []byte, errCh chan error) {
	buf := make([]byte, 64)
	for {
		n, err := l.ReadWriter.Read(buf)
		if err != nil && !os.IsTimeout(err) {
			errCh <- err
			return
		}
		if n == 0 {
			continue
		}
		data := append([]byte(nil), buf[:n]...)
		select {
		case dataCh <- data:
		case <-ctx.Done():
			return
		}
	}
}
