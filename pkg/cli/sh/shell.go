// Package sh provides the interactive device shell.
package sh

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/mos.go/pkg/comm"
	"github.com/robotalks/mos.go/pkg/comm/mqtt"
	"github.com/robotalks/mos.go/pkg/comm/websocket"
	"github.com/robotalks/mos.go/pkg/env"
	"github.com/robotalks/mos.go/pkg/msgs"
)

// Shell provides ishell backed interactive shell.
type Shell struct {
	Interactive bool
	OutputJSON  bool
	AutoConnect bool
	Timeout     time.Duration

	Shell  *ishell.Shell
	Config *env.Config
	Conn   *Conn
}

// Conn is an open connection to a device.
type Conn struct {
	Target string
	Client comm.Client
	Cancel func()
	closer func() error
}

// Close closes the connection.
func (c *Conn) Close() error {
	if c.Cancel != nil {
		c.Cancel()
	}
	if c.closer != nil {
		return c.closer()
	}
	return nil
}

const (
	shellKey          = "$shell"
	unconnectedPrompt = "[none] > "
	mqttScheme        = "mqtt:"
)

// ErrNotConnected is reported by commands requiring a connection.
var ErrNotConnected = errors.New("not connected")

var (
	// flags

	evalOnly   bool
	outputJSON bool
	timeout    = time.Second

	// commands
	commands = []*ishell.Cmd{
		&ConnectCmd,
		&DisconnectCmd,
		&DevicesCmd,
		&CallCmd,
		&QueryCmd,
		&StatusCmd,
	}
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
	flag.DurationVar(&timeout, "timeout", timeout, "Timeout of a device call.")
}

// AddCmds is used by other commands providers during init func.
func AddCmds(cmds ...*ishell.Cmd) {
	commands = append(commands, cmds...)
}

// New creates a new shell.
func New(conf *env.Config) *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		OutputJSON:  outputJSON,
		Timeout:     timeout,

		Shell:  ishell.New(),
		Config: conf,
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(unconnectedPrompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// MustBeConnected wraps command func requires a connection.
func MustBeConnected(fn func(c *ishell.Context)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		if ShellFrom(c).Conn == nil {
			c.Err(ErrNotConnected)
			return
		}
		fn(c)
	}
}

// ParseByte parses a byte in decimal or 0x-prefixed hex.
func ParseByte(s string) (byte, error) {
	val, err := strconv.ParseUint(s, 0, 8)
	if err != nil {
		return 0, fmt.Errorf("invalid byte %q", s)
	}
	return byte(val), nil
}

// ParseBytes parses all args with ParseByte.
func ParseBytes(args []string) ([]byte, error) {
	data := make([]byte, 0, len(args))
	for _, arg := range args {
		b, err := ParseByte(arg)
		if err != nil {
			return nil, err
		}
		data = append(data, b)
	}
	return data, nil
}

// Print prints a result as text or JSON.
func Print(c *ishell.Context, text string, v interface{}) {
	if !ShellFrom(c).OutputJSON {
		c.Println(text)
		return
	}
	out, err := json.Marshal(v)
	if err != nil {
		c.Err(err)
		return
	}
	c.Println(string(out))
}

// Context returns a context bounded by the shell timeout.
func (s *Shell) Context() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.Timeout)
}

// WithAutoConnect sets AutoConnect.
func (s *Shell) WithAutoConnect(en bool) *Shell {
	s.AutoConnect = en
	return s
}

// Dial opens a connection to target: a websocket URL, a serial device
// path or mqtt:DEVICE-ID.
func (s *Shell) Dial(target string) (*Conn, error) {
	ctx, cancel := context.WithCancel(context.Background())
	conn := &Conn{Target: target, Cancel: cancel}
	switch {
	case strings.HasPrefix(target, "ws://") || strings.HasPrefix(target, "wss://"):
		client, closer, err := websocket.DialClient(ctx, target)
		if err != nil {
			cancel()
			return nil, err
		}
		conn.Client, conn.closer = client, closer
	case strings.HasPrefix(target, mqttScheme):
		q, err := s.Config.ConnectMQTT("moscli")
		if err != nil {
			cancel()
			return nil, err
		}
		client, err := mqtt.NewRemoteClient(q, strings.TrimPrefix(target, mqttScheme))
		if err != nil {
			q.Close()
			cancel()
			return nil, err
		}
		conn.Client = client
		conn.closer = func() error {
			client.Close()
			return q.Close()
		}
	default:
		cfg := *s.Config
		cfg.Serial.Device = target
		port, err := cfg.OpenSerial()
		if err != nil {
			cancel()
			return nil, err
		}
		client := comm.NewSlipClient(port)
		errCh := make(chan error, 1)
		go func() { errCh <- client.Run(ctx) }()
		conn.Client = client
		conn.closer = func() error {
			port.Close()
			return <-errCh
		}
	}
	return conn, nil
}

// Connect connects to target and makes it current.
func (s *Shell) Connect(target string) error {
	conn, err := s.Dial(target)
	if err != nil {
		return err
	}
	s.Disconnect()
	s.Conn = conn
	s.Shell.SetPrompt(fmt.Sprintf("%s > ", target))
	return nil
}

// Disconnect disconnects current device.
func (s *Shell) Disconnect() {
	if s.Conn != nil {
		s.Conn.Close()
		s.Conn = nil
		s.Shell.SetPrompt(unconnectedPrompt)
	}
}

// Devices collects status reports on MQTT for the duration d.
func (s *Shell) Devices(d time.Duration) ([]*msgs.DeviceStatus, error) {
	q, err := s.Config.ConnectMQTT("moscli")
	if err != nil {
		return nil, err
	}
	defer q.Close()
	return CollectStatus(q, d)
}

// CollectStatus returns the latest status of each device reporting
// within d, ordered by device ID.
func CollectStatus(ps mqtt.PubSub, d time.Duration) ([]*msgs.DeviceStatus, error) {
	var lock sync.Mutex
	found := make(map[string]*msgs.DeviceStatus)
	sub, err := mqtt.WatchStatus(ps, func(deviceID string, st *msgs.DeviceStatus) {
		lock.Lock()
		found[deviceID] = st
		lock.Unlock()
	})
	if err != nil {
		return nil, err
	}
	time.Sleep(d)
	sub.Close()

	lock.Lock()
	defer lock.Unlock()
	list := make([]*msgs.DeviceStatus, 0, len(found))
	for _, st := range found {
		list = append(list, st)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].DeviceID < list[j].DeviceID })
	return list, nil
}

// DefaultTarget returns the connection target from config.
func (s *Shell) DefaultTarget() string {
	switch {
	case s.Config.Serial.Device != "":
		return s.Config.Serial.Device
	case s.Config.MQTTURL != "":
		return mqttScheme + s.Config.DeviceID
	default:
		return s.Config.LinkURL
	}
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	if s.AutoConnect {
		target := s.DefaultTarget()
		if s.Interactive {
			s.Shell.Printf("Connecting %s ...\n", target)
		}
		if err := s.Connect(target); err != nil {
			log.Fatalf("connect %q failed: %v", target, err)
		}
		defer s.Disconnect()
	}

	if len(args) > 0 {
		if err := s.Shell.Process(args...); err != nil {
			log.Fatalln(err)
		}
		return
	}
	if s.Interactive {
		s.Shell.Run()
		return
	}
	log.Fatalln("command expected")
}

var (
	// ConnectCmd connects a device.
	ConnectCmd = ishell.Cmd{
		Name:    "connect",
		Aliases: []string{"c"},
		Help:    "ws://HOST:PORT/link | /dev/SERIAL | mqtt:DEVICE-ID",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			target := s.DefaultTarget()
			if len(c.Args) > 0 {
				target = c.Args[0]
			}
			if err := s.Connect(target); err != nil {
				c.Err(err)
			}
		},
	}

	// DisconnectCmd disconnects current device.
	DisconnectCmd = ishell.Cmd{
		Name:    "disconnect",
		Aliases: []string{"d"},
		Help:    "",
		Func: func(c *ishell.Context) {
			ShellFrom(c).Disconnect()
		},
	}

	// DevicesCmd lists devices reporting status on MQTT.
	DevicesCmd = ishell.Cmd{
		Name:    "devices",
		Aliases: []string{"list", "l"},
		Help:    "[SECONDS]",
		Func: func(c *ishell.Context) {
			d := 2 * time.Second
			if len(c.Args) > 0 {
				secs, err := strconv.Atoi(c.Args[0])
				if err != nil {
					c.Err(fmt.Errorf("invalid SECONDS: %v", err))
					return
				}
				d = time.Duration(secs) * time.Second
			}
			list, err := ShellFrom(c).Devices(d)
			if err != nil {
				c.Err(err)
				return
			}
			if ShellFrom(c).OutputJSON {
				Print(c, "", list)
				return
			}
			if len(list) == 0 {
				c.Println("No devices found")
				return
			}
			for _, st := range list {
				c.Printf("%s: state %s, ticks %d, tasks %d\n", st.DeviceID, st.State, st.Ticks, st.Tasks)
			}
		},
	}

	// CallCmd calls a service.
	CallCmd = ishell.Cmd{
		Name:    "call",
		Help:    "PORT [BYTE...]",
		Func: MustBeConnected(func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Err(errors.New("PORT required"))
				return
			}
			data, err := ParseBytes(c.Args)
			if err != nil {
				c.Err(err)
				return
			}
			s := ShellFrom(c)
			ctx, cancel := s.Context()
			defer cancel()
			if err := s.Conn.Client.Call(ctx, data[0], data[1:]...); err != nil {
				c.Err(err)
				return
			}
			Print(c, "OK", map[string]interface{}{"port": data[0], "ok": true})
		}),
	}

	// QueryCmd reads the last response of a service.
	QueryCmd = ishell.Cmd{
		Name:    "query",
		Aliases: []string{"q"},
		Help:    "PORT",
		Func: MustBeConnected(func(c *ishell.Context) {
			if len(c.Args) != 1 {
				c.Err(errors.New("PORT required"))
				return
			}
			port, err := ParseByte(c.Args[0])
			if err != nil {
				c.Err(err)
				return
			}
			s := ShellFrom(c)
			ctx, cancel := s.Context()
			defer cancel()
			val, err := s.Conn.Client.Query(ctx, port)
			if err != nil {
				c.Err(err)
				return
			}
			Print(c, fmt.Sprintf("0x%02x", val), map[string]interface{}{"port": port, "response": val})
		}),
	}

	// StatusCmd reads the status of the last frame.
	StatusCmd = ishell.Cmd{
		Name:    "status",
		Aliases: []string{"st"},
		Help:    "",
		Func: MustBeConnected(func(c *ishell.Context) {
			s := ShellFrom(c)
			ctx, cancel := s.Context()
			defer cancel()
			st, err := s.Conn.Client.Status(ctx)
			if err != nil {
				c.Err(err)
				return
			}
			Print(c, fmt.Sprintf("0x%02x %v", byte(st), st), map[string]interface{}{"status": byte(st), "name": st.String()})
		}),
	}
)

// Main is a helper to provide a single call in main.
func Main() {
	flag.Parse()
	New(env.MustNewConfig()).WithAutoConnect(true).Run(flag.Args()...)
}
