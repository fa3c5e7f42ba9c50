// Package mos wires the runtime core into a running system.
//
// Interrupt context is modeled by the goroutines of the hal devices
// (ticks, bus bytes, debounced edges). Task context is the single main
// loop goroutine of System.Run, which per iteration pets the watchdog,
// dispatches due scheduler tasks and runs the loop hooks, the first of
// which dispatches every service server.
package mos

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/mos.go/pkg/frame"
	"github.com/robotalks/mos.go/pkg/hal"
	"github.com/robotalks/mos.go/pkg/sched"
	"github.com/robotalks/mos.go/pkg/server"
)

// Config configures a System.
type Config struct {
	// Resolution is the tick period.
	Resolution time.Duration
	// MaxTasks sizes the scheduler table.
	MaxTasks int
	// BlinkDelay and BlinkPeriod schedule the status LED, in ticks.
	BlinkDelay  uint16
	BlinkPeriod uint16
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Resolution:  sched.DefaultResolution,
		MaxTasks:    8,
		BlinkDelay:  10,
		BlinkPeriod: 50,
	}
}

// Devices are the hardware collaborators. Nil members are skipped,
// except Ticks which defaults to a hal.Ticker at the configured
// resolution.
type Devices struct {
	Ticks    hal.TickSource
	Watchdog hal.Watchdog
	LED      hal.LED
}

// App is set up on a System before it runs.
type App interface {
	Setup(*System) error
}

// System is the top level context holding the scheduler, the service
// registry and the devices.
type System struct {
	cfg     Config
	devices Devices

	sched    *sched.Scheduler
	registry *server.Registry
	servers  []*server.Server
	hooks    []func()
	lock     sync.Mutex

	ticks   atomic.Uint32
	wakeCh  chan struct{}
	running atomic.Bool
}

// New creates a System. It fails when the CRC implementation does not
// pass its self check or the configuration is invalid.
func New(cfg Config, devices Devices) (*System, error) {
	if !frame.ValidateCRC8() {
		return nil, ErrSelfCheck
	}
	if cfg.Resolution <= 0 {
		cfg.Resolution = sched.DefaultResolution
	}
	sch, err := sched.New(cfg.MaxTasks)
	if err != nil {
		return nil, err
	}
	if devices.Ticks == nil {
		devices.Ticks = hal.NewTicker(cfg.Resolution)
	}
	s := &System{
		cfg:      cfg,
		devices:  devices,
		sched:    sch,
		registry: server.NewRegistry(),
		wakeCh:   make(chan struct{}, 1),
	}
	s.hooks = append(s.hooks, s.dispatchServers)
	if devices.LED != nil && cfg.BlinkPeriod > 0 {
		if _, err := sch.AddTask(devices.LED.Toggle, cfg.BlinkDelay, cfg.BlinkPeriod); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Scheduler returns the task scheduler.
func (s *System) Scheduler() *sched.Scheduler {
	return s.sched
}

// Registry returns the service registry.
func (s *System) Registry() *server.Registry {
	return s.registry
}

// Config returns the configuration in effect.
func (s *System) Config() Config {
	return s.cfg
}

// AddServer allocates a service server dispatched by the main loop.
func (s *System) AddServer(ports int) (*server.Server, error) {
	srv, err := server.New(s.registry, ports)
	if err != nil {
		return nil, err
	}
	s.lock.Lock()
	s.servers = append(s.servers, srv)
	s.lock.Unlock()
	return srv, nil
}

// Servers returns the allocated servers.
func (s *System) Servers() []*server.Server {
	s.lock.Lock()
	defer s.lock.Unlock()
	return append([]*server.Server(nil), s.servers...)
}

// AddLoop appends a hook run once per main loop iteration.
func (s *System) AddLoop(fn func()) {
	s.lock.Lock()
	s.hooks = append(s.hooks, fn)
	s.lock.Unlock()
}

// Ticks returns the number of ticks since start.
func (s *System) Ticks() uint32 {
	return s.ticks.Load()
}

// Tick is the timer interrupt handler.
func (s *System) Tick() {
	s.sched.Tick()
	s.ticks.Add(1)
	s.Wake()
}

// Wake requests a main loop iteration. It never blocks.
func (s *System) Wake() {
	select {
	case s.wakeCh <- struct{}{}:
	default:
	}
}

// Iterate runs one main loop iteration.
func (s *System) Iterate() {
	if wd := s.devices.Watchdog; wd != nil {
		wd.Pet()
	}
	if n := s.sched.Dispatch(); n > 0 {
		glog.V(4).Infof("dispatched %d tasks", n)
	}
	s.lock.Lock()
	hooks := s.hooks
	s.lock.Unlock()
	for _, fn := range hooks {
		fn()
	}
}

func (s *System) dispatchServers() {
	for _, srv := range s.Servers() {
		if n := srv.Dispatch(); n > 0 {
			glog.V(2).Infof("server %d dispatched %d services", srv.ID(), n)
		}
	}
}

// Setup sets up apps in order.
func (s *System) Setup(apps ...App) error {
	for _, app := range apps {
		if err := app.Setup(s); err != nil {
			return err
		}
	}
	return nil
}

// Run starts the tick source and runs the main loop until ctx is done.
func (s *System) Run(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return ErrRunning
	}
	defer s.running.Store(false)

	s.devices.Ticks.Start(s.Tick)
	defer s.devices.Ticks.Stop()
	glog.Infof("system started: resolution %s, %d tasks", s.cfg.Resolution, s.sched.Len())

	for {
		select {
		case <-ctx.Done():
			glog.Info("system stopped")
			return ctx.Err()
		case <-s.wakeCh:
			s.Iterate()
		}
	}
}

// WakeOnFrame wraps a bus slave so the main loop runs after every
// transport state change, i.e. right after a frame is complete.
func (s *System) WakeOnFrame(h hal.SlaveHandler) hal.SlaveHandler {
	return &wakingSlave{SlaveHandler: h, sys: s}
}

type wakingSlave struct {
	hal.SlaveHandler
	sys *System
}

func (w *wakingSlave) StateChanged() {
	w.SlaveHandler.StateChanged()
	w.sys.Wake()
}
