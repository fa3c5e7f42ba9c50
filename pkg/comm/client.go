package comm

import (
	"context"

	"github.com/robotalks/mos.go/pkg/frame"
)

// Client invokes services on a device.
type Client interface {
	// Call sends a service frame and returns the frame status. A status
	// other than frame.FrameOk is returned as *CallError.
	Call(ctx context.Context, port byte, data ...byte) error
	// Query reads the last response of port.
	Query(ctx context.Context, port byte) (byte, error)
	// Status reads the status of the last frame.
	Status(ctx context.Context) (frame.Status, error)
}

// Master is the master side of a bus.
type Master interface {
	Write(data []byte) error
	WriteRead(data []byte, n int) ([]byte, error)
}

// BusClient is a Client over a bus using length-prefixed frames.
type BusClient struct {
	Master Master
}

// NewBusClient creates a BusClient.
func NewBusClient(m Master) *BusClient {
	return &BusClient{Master: m}
}

// Call implements Client.
func (c *BusClient) Call(ctx context.Context, port byte, data ...byte) error {
	if err := c.Master.Write(frame.Encode(port, data...)); err != nil {
		return err
	}
	st, err := c.Status(ctx)
	if err != nil {
		return err
	}
	if st != frame.FrameOk {
		return &CallError{Port: port, Status: st}
	}
	return nil
}

// Query implements Client.
func (c *BusClient) Query(ctx context.Context, port byte) (byte, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	rsp, err := c.Master.WriteRead([]byte{port}, 1)
	if err != nil {
		return 0, err
	}
	return rsp[0], nil
}

// Status implements Client.
func (c *BusClient) Status(ctx context.Context) (frame.Status, error) {
	rsp, err := c.Query(ctx, frame.StatusHeader)
	return frame.Status(rsp), err
}
