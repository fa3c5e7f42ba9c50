package mqtt

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/golang/glog"
	"github.com/golang/protobuf/proto"

	"github.com/robotalks/mos.go/pkg/comm"
	"github.com/robotalks/mos.go/pkg/frame"
	"github.com/robotalks/mos.go/pkg/msgs"
)

// RemoteClient implements comm.Client by calling a device through its
// Bridge.
type RemoteClient struct {
	PubSub   PubSub
	DeviceID string

	lock    sync.Mutex
	nextID  uint32
	pending map[uint32]chan *msgs.CallResult
	sub     io.Closer
}

// NewRemoteClient creates a RemoteClient and subscribes to results.
func NewRemoteClient(ps PubSub, deviceID string) (*RemoteClient, error) {
	c := &RemoteClient{
		PubSub:   ps,
		DeviceID: deviceID,
		pending:  make(map[uint32]chan *msgs.CallResult),
	}
	sub, err := ps.Subscribe(DeviceTopic(deviceID, msgs.TopicResult), c.handleResult)
	if err != nil {
		return nil, err
	}
	c.sub = sub
	return c, nil
}

// Close implements io.Closer.
func (c *RemoteClient) Close() error {
	c.lock.Lock()
	for id, ch := range c.pending {
		close(ch)
		delete(c.pending, id)
	}
	c.lock.Unlock()
	return c.sub.Close()
}

// Call implements comm.Client.
func (c *RemoteClient) Call(ctx context.Context, port byte, data ...byte) error {
	_, err := c.do(ctx, &msgs.ServiceCall{Port: uint32(port), Data: data})
	return err
}

// Query implements comm.Client.
func (c *RemoteClient) Query(ctx context.Context, port byte) (byte, error) {
	res, err := c.do(ctx, &msgs.ServiceCall{Port: uint32(port), Query: true})
	if err != nil {
		return 0, err
	}
	return byte(res.Response), nil
}

// Status implements comm.Client.
func (c *RemoteClient) Status(ctx context.Context) (frame.Status, error) {
	val, err := c.Query(ctx, frame.StatusHeader)
	return frame.Status(val), err
}

func (c *RemoteClient) do(ctx context.Context, call *msgs.ServiceCall) (*msgs.CallResult, error) {
	ch := make(chan *msgs.CallResult, 1)
	c.lock.Lock()
	c.nextID++
	call.ID = c.nextID
	c.pending[call.ID] = ch
	c.lock.Unlock()
	defer c.forget(call.ID)

	payload, err := proto.Marshal(call)
	if err != nil {
		return nil, err
	}
	if err := c.PubSub.Publish(DeviceTopic(c.DeviceID, msgs.TopicCall), payload); err != nil {
		return nil, err
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res, ok := <-ch:
		if !ok {
			return nil, comm.ErrClosed
		}
		if res.Error != "" {
			return res, errors.New(res.Error)
		}
		if st := frame.Status(res.Status); st != frame.FrameOk {
			return res, &comm.CallError{Port: byte(call.Port), Status: st}
		}
		return res, nil
	}
}

func (c *RemoteClient) forget(id uint32) {
	c.lock.Lock()
	delete(c.pending, id)
	c.lock.Unlock()
}

func (c *RemoteClient) handleResult(_ string, payload []byte) {
	res := &msgs.CallResult{}
	if err := proto.Unmarshal(payload, res); err != nil {
		glog.Warningf("bad result message: %v", err)
		return
	}
	c.lock.Lock()
	ch := c.pending[res.ID]
	delete(c.pending, res.ID)
	c.lock.Unlock()
	if ch == nil {
		glog.V(2).Infof("result %d not pending", res.ID)
		return
	}
	ch <- res
}
