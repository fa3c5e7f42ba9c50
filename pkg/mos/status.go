package mos

import "github.com/robotalks/mos.go/pkg/msgs"

// Status reports ticks, scheduled tasks and the state of every service
// port. It is meant to be called from a scheduled task.
func (s *System) Status() *msgs.DeviceStatus {
	st := &msgs.DeviceStatus{
		Ticks: s.Ticks(),
		Tasks: uint32(s.sched.Len()),
	}
	for _, srv := range s.Servers() {
		first, last := srv.PortRange()
		for port := int(first); port <= int(last); port++ {
			ps := &msgs.PortStatus{Port: uint32(port)}
			if ps.Registered = srv.IsRegistered(byte(port)); ps.Registered {
				ps.Pending = srv.Pending(byte(port))
				rsp, _ := srv.Response(byte(port))
				ps.Response = uint32(rsp)
			}
			st.Ports = append(st.Ports, ps)
		}
	}
	return st
}
