package server

// Server is a Registry bound to one ServerID.
type Server struct {
	reg *Registry
	id  ServerID
}

// New creates a server with the given number of ports on reg.
func New(reg *Registry, ports int) (*Server, error) {
	id, err := reg.Init(ports)
	if err != nil {
		return nil, err
	}
	return &Server{reg: reg, id: id}, nil
}

// ID returns the server id.
func (s *Server) ID() ServerID {
	return s.id
}

// Registry returns the owning registry.
func (s *Server) Registry() *Registry {
	return s.reg
}

// Ports returns the number of ports.
func (s *Server) Ports() int {
	n, _ := s.reg.Ports(s.id)
	return n
}

// PortRange returns the first and last port ids.
func (s *Server) PortRange() (first, last byte) {
	return PortBase, byte(PortBase + s.Ports() - 1)
}

// AddService binds fn to port.
func (s *Server) AddService(fn ServiceFunc, paramLen int, buf []byte, port byte) error {
	return s.reg.AddService(s.id, fn, paramLen, buf, port)
}

// DelService unbinds port.
func (s *Server) DelService(port byte) error {
	return s.reg.DelService(s.id, port)
}

// IsRegistered reports whether port has a service.
func (s *Server) IsRegistered(port byte) bool {
	return s.reg.IsRegistered(s.id, port)
}

// ParamLen returns the parameter length of port.
func (s *Server) ParamLen(port byte) (int, error) {
	return s.reg.ParamLen(s.id, port)
}

// PushParam queues an invocation of port.
func (s *Server) PushParam(port byte, data []byte) error {
	return s.reg.PushParam(s.id, port, data)
}

// Pending reports whether port has an undispatched invocation.
func (s *Server) Pending(port byte) bool {
	p, _ := s.reg.Pending(s.id, port)
	return p
}

// Dispatch runs all pending services.
func (s *Server) Dispatch() int {
	n, _ := s.reg.Dispatch(s.id)
	return n
}

// Response returns the last response of port.
func (s *Server) Response(port byte) (byte, error) {
	return s.reg.Response(s.id, port)
}
