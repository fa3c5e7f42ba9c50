// Package server multiplexes one channel into addressable services.
//
// A Registry holds up to MaxServers independent servers. Each server owns
// a contiguous range of ports starting at PortBase. A frame parser pushes
// parameters into a port from interrupt context with PushParam, and the
// main loop invokes the bound callbacks with Dispatch. A port accepts a
// new push only after the previous one has been dispatched.
package server

import "sync"

// ServiceFunc handles one invocation and returns the response code.
// param is the caller-owned buffer registered with the service.
type ServiceFunc func(param []byte) byte

// ServerID identifies a server in a Registry.
type ServerID int

// Registry limits.
const (
	MaxServers = 2
	PortBase   = 0xA0
	MaxPorts   = 0x100 - PortBase
)

type service struct {
	fn       ServiceFunc
	param    []byte
	paramLen int
	response byte
	pending  int
}

type portTable struct {
	services []service
}

// Registry is the table of servers and their services.
type Registry struct {
	servers []*portTable
	lock    sync.Mutex
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Init allocates a new server with the given number of ports.
func (r *Registry) Init(ports int) (ServerID, error) {
	if ports <= 0 || ports > MaxPorts {
		return -1, ErrInvalidPortCount
	}
	r.lock.Lock()
	defer r.lock.Unlock()
	if len(r.servers) >= MaxServers {
		return -1, ErrTooManyServers
	}
	r.servers = append(r.servers, &portTable{services: make([]service, ports)})
	return ServerID(len(r.servers) - 1), nil
}

// Server returns a handle bound to id.
func (r *Registry) Server(id ServerID) (*Server, error) {
	r.lock.Lock()
	defer r.lock.Unlock()
	if _, err := r.table(id); err != nil {
		return nil, err
	}
	return &Server{reg: r, id: id}, nil
}

func (r *Registry) table(id ServerID) (*portTable, error) {
	if id < 0 || int(id) >= len(r.servers) {
		return nil, ErrInvalidServer
	}
	return r.servers[id], nil
}

func (r *Registry) slot(id ServerID, port byte) (*service, error) {
	t, err := r.table(id)
	if err != nil {
		return nil, err
	}
	if port < PortBase || int(port-PortBase) >= len(t.services) {
		return nil, ErrInvalidPort
	}
	return &t.services[port-PortBase], nil
}

// Ports returns the number of ports of the server.
func (r *Registry) Ports(id ServerID) (int, error) {
	r.lock.Lock()
	defer r.lock.Unlock()
	t, err := r.table(id)
	if err != nil {
		return 0, err
	}
	return len(t.services), nil
}

// AddService binds fn to port. buf receives paramLen bytes on every
// invocation and stays owned by the caller.
func (r *Registry) AddService(id ServerID, fn ServiceFunc, paramLen int, buf []byte, port byte) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	s, err := r.slot(id, port)
	if err != nil {
		return err
	}
	if fn == nil || s.fn != nil {
		return ErrAlreadyRegistered
	}
	if paramLen < 0 || len(buf) < paramLen {
		return ErrShortBuffer
	}
	*s = service{fn: fn, param: buf[:paramLen], paramLen: paramLen}
	return nil
}

// DelService unbinds the service on port. An empty port is not an error.
func (r *Registry) DelService(id ServerID, port byte) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	s, err := r.slot(id, port)
	if err != nil {
		return err
	}
	s.fn, s.pending = nil, 0
	return nil
}

// IsRegistered reports whether port has a service.
func (r *Registry) IsRegistered(id ServerID, port byte) bool {
	r.lock.Lock()
	defer r.lock.Unlock()
	s, err := r.slot(id, port)
	return err == nil && s.fn != nil
}

// ParamLen returns the parameter length of port.
func (r *Registry) ParamLen(id ServerID, port byte) (int, error) {
	r.lock.Lock()
	defer r.lock.Unlock()
	s, err := r.slot(id, port)
	if err != nil {
		return 0, err
	}
	if s.fn == nil {
		return 0, ErrNotRegistered
	}
	return s.paramLen, nil
}

// PushParam copies the parameters into the port buffer and marks the port
// pending. A pending port rejects the push with ErrBusy and keeps its
// buffer untouched.
func (r *Registry) PushParam(id ServerID, port byte, data []byte) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	s, err := r.slot(id, port)
	if err != nil {
		return err
	}
	if s.fn == nil {
		return ErrNotRegistered
	}
	if s.pending > 0 {
		return ErrBusy
	}
	if len(data) < s.paramLen {
		return ErrShortBuffer
	}
	copy(s.param, data[:s.paramLen])
	s.pending++
	return nil
}

// Pending reports whether port has an undispatched invocation.
func (r *Registry) Pending(id ServerID, port byte) (bool, error) {
	r.lock.Lock()
	defer r.lock.Unlock()
	s, err := r.slot(id, port)
	if err != nil {
		return false, err
	}
	return s.pending > 0, nil
}

type call struct {
	port  int
	fn    ServiceFunc
	param []byte
}

// Dispatch invokes the callbacks of all pending ports in port order and
// stores their return values as responses. It returns the number of
// callbacks invoked. Callbacks run outside the registry lock.
func (r *Registry) Dispatch(id ServerID) (int, error) {
	r.lock.Lock()
	t, err := r.table(id)
	if err != nil {
		r.lock.Unlock()
		return 0, err
	}
	var calls []call
	for n := range t.services {
		if s := &t.services[n]; s.pending > 0 && s.fn != nil {
			calls = append(calls, call{port: n, fn: s.fn, param: s.param})
		}
	}
	r.lock.Unlock()

	for _, c := range calls {
		rsp := c.fn(c.param)
		r.lock.Lock()
		s := &t.services[c.port]
		s.response = rsp
		if s.pending > 0 {
			s.pending--
		}
		r.lock.Unlock()
	}
	return len(calls), nil
}

// Response returns the last response of port.
func (r *Registry) Response(id ServerID, port byte) (byte, error) {
	r.lock.Lock()
	defer r.lock.Unlock()
	s, err := r.slot(id, port)
	if err != nil {
		return 0, err
	}
	return s.response, nil
}
