// Package sunroof adds shell commands for the sunroof services.
package sunroof

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/abiosoft/ishell"

	app "github.com/robotalks/mos.go/pkg/app/sunroof"
	"github.com/robotalks/mos.go/pkg/cli/sh"
	"github.com/robotalks/mos.go/pkg/smf"
)

// DispatchWait is the time given to the device to dispatch a call before
// its response is read.
var DispatchWait = 50 * time.Millisecond

// call invokes port and reads its response.
func call(c *ishell.Context, port byte, data ...byte) (byte, error) {
	s := sh.ShellFrom(c)
	ctx, cancel := s.Context()
	defer cancel()
	if err := s.Conn.Client.Call(ctx, port, data...); err != nil {
		return 0, err
	}
	time.Sleep(DispatchWait)
	return s.Conn.Client.Query(ctx, port)
}

var (
	// StateCmd reads the sunroof state.
	StateCmd = ishell.Cmd{
		Name:    "roof.state",
		Aliases: []string{"rs"},
		Help:    "",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			val, err := call(c, app.PortState)
			if err != nil {
				c.Err(err)
				return
			}
			name := app.StateName(smf.State(val))
			sh.Print(c, name, map[string]interface{}{"state": name})
		}),
	}

	// EventCmd posts an event to the sunroof.
	EventCmd = ishell.Cmd{
		Name:    "roof.event",
		Aliases: []string{"re"},
		Help:    "open|close|stop|reset|limit",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			if len(c.Args) != 1 {
				c.Err(errors.New("EVENT required"))
				return
			}
			ev, ok := app.ParseEvent(c.Args[0])
			if !ok {
				c.Err(fmt.Errorf("unknown event %q", c.Args[0]))
				return
			}
			val, err := call(c, app.PortEvent, byte(ev))
			if err != nil {
				c.Err(err)
				return
			}
			if val == app.RspQueueFull {
				c.Err(errors.New("event queue full"))
				return
			}
			sh.Print(c, "OK", map[string]interface{}{"event": c.Args[0], "ok": true})
		}),
	}

	// DutyCmd sets the motor duty cycle.
	DutyCmd = ishell.Cmd{
		Name:    "roof.duty",
		Aliases: []string{"rd"},
		Help:    "DUTY(0-255)",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			if len(c.Args) != 1 {
				c.Err(errors.New("DUTY required"))
				return
			}
			duty, err := strconv.ParseUint(c.Args[0], 0, 8)
			if err != nil {
				c.Err(fmt.Errorf("invalid DUTY: %v", err))
				return
			}
			if _, err := call(c, app.PortDuty, byte(duty)); err != nil {
				c.Err(err)
				return
			}
			sh.Print(c, "OK", map[string]interface{}{"duty": duty, "ok": true})
		}),
	}
)

func init() {
	sh.AddCmds(
		&StateCmd,
		&EventCmd,
		&DutyCmd,
	)
}
