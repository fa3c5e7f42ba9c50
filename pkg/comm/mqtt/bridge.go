package mqtt

import (
	"context"
	"errors"
	"time"

	"github.com/golang/glog"
	"github.com/golang/protobuf/proto"

	"github.com/robotalks/mos.go/pkg/comm"
	"github.com/robotalks/mos.go/pkg/frame"
	"github.com/robotalks/mos.go/pkg/msgs"
)

const (
	// DefaultCallTimeout bounds one service call issued by the bridge.
	DefaultCallTimeout = time.Second
	// CallQueueLen is the number of calls waiting for execution.
	CallQueueLen = 8
)

// ErrBridgeBusy is reported when the call queue is full.
var ErrBridgeBusy = errors.New("bridge busy")

// DeviceTopic returns the topic of a device.
func DeviceTopic(deviceID, topic string) string {
	return deviceID + "/" + topic
}

// Bridge exposes a device over MQTT: it executes ServiceCall messages
// through Client and publishes DeviceStatus snapshots.
type Bridge struct {
	PubSub      PubSub
	Client      comm.Client
	DeviceID    string
	CallTimeout time.Duration

	statusCh chan *msgs.DeviceStatus
	callCh   chan *msgs.ServiceCall
}

// NewBridge creates a Bridge.
func NewBridge(ps PubSub, client comm.Client, deviceID string) *Bridge {
	return &Bridge{
		PubSub:      ps,
		Client:      client,
		DeviceID:    deviceID,
		CallTimeout: DefaultCallTimeout,
		statusCh:    make(chan *msgs.DeviceStatus, 1),
		callCh:      make(chan *msgs.ServiceCall, CallQueueLen),
	}
}

// StatusTask returns a scheduler task taking a snapshot and handing it
// to Run for publishing. The task never blocks; a snapshot is dropped if
// the previous one is not published yet.
func (b *Bridge) StatusTask(snapshot func() *msgs.DeviceStatus) func() {
	return func() {
		select {
		case b.statusCh <- snapshot():
		default:
		}
	}
}

// Run subscribes to calls and serves until ctx is done.
func (b *Bridge) Run(ctx context.Context) error {
	sub, err := b.PubSub.Subscribe(DeviceTopic(b.DeviceID, msgs.TopicCall), b.handleCall)
	if err != nil {
		return err
	}
	defer sub.Close()
	glog.Infof("bridge %s running", b.DeviceID)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case call := <-b.callCh:
			b.publish(msgs.TopicResult, b.Execute(ctx, call))
		case st := <-b.statusCh:
			b.PublishStatus(st)
		}
	}
}

// PublishStatus publishes a device status.
func (b *Bridge) PublishStatus(st *msgs.DeviceStatus) error {
	if st.DeviceID == "" {
		st.DeviceID = b.DeviceID
	}
	return b.publish(msgs.TopicStatus, st)
}

// Execute runs a single call against Client.
func (b *Bridge) Execute(ctx context.Context, call *msgs.ServiceCall) *msgs.CallResult {
	res := &msgs.CallResult{ID: call.ID, Port: call.Port}
	if call.Port > 0xff {
		res.Status = uint32(frame.InvalidPort)
		return res
	}
	if b.CallTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.CallTimeout)
		defer cancel()
	}
	var err error
	if call.Query {
		var val byte
		val, err = b.Client.Query(ctx, byte(call.Port))
		res.Response = uint32(val)
	} else {
		err = b.Client.Call(ctx, byte(call.Port), call.Data...)
	}
	var callErr *comm.CallError
	switch {
	case err == nil:
	case errors.As(err, &callErr):
		res.Status = uint32(callErr.Status)
	default:
		res.Error = err.Error()
	}
	return res
}

func (b *Bridge) handleCall(_ string, payload []byte) {
	call := &msgs.ServiceCall{}
	if err := proto.Unmarshal(payload, call); err != nil {
		glog.Warningf("bad call message: %v", err)
		return
	}
	select {
	case b.callCh <- call:
	default:
		b.publish(msgs.TopicResult, &msgs.CallResult{
			ID:    call.ID,
			Port:  call.Port,
			Error: ErrBridgeBusy.Error(),
		})
	}
}

func (b *Bridge) publish(topic string, msg proto.Message) error {
	payload, err := proto.Marshal(msg)
	if err != nil {
		return err
	}
	err = b.PubSub.Publish(DeviceTopic(b.DeviceID, topic), payload)
	if err != nil {
		glog.Warningf("publish %s: %v", topic, err)
	}
	return err
}
