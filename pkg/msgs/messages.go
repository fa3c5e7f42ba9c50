// Package msgs defines the protobuf messages exchanged by the device
// bridge and host tools over MQTT.
package msgs

import (
	"strings"

	"github.com/golang/protobuf/proto"
)

// Topics relative to the device prefix.
const (
	TopicStatus = "status"
	TopicCall   = "call"
	TopicResult = "result"
)

// ServiceCall invokes a service on the device.
type ServiceCall struct {
	ID   uint32 `protobuf:"varint,1,opt,name=id,proto3" json:"id,omitempty"`
	Port uint32 `protobuf:"varint,2,opt,name=port,proto3" json:"port,omitempty"`
	Data []byte `protobuf:"bytes,3,opt,name=data,proto3" json:"data,omitempty"`
	// Query reads the last response of Port instead of calling it.
	Query bool `protobuf:"varint,4,opt,name=query,proto3" json:"query,omitempty"`
}

// ProtoMessage implements proto.Message.
func (m *ServiceCall) ProtoMessage() {}

// Reset implements proto.Message.
func (m *ServiceCall) Reset() { *m = ServiceCall{} }

// String implements proto.Message.
func (m *ServiceCall) String() string { return proto.CompactTextString(m) }

// CallResult is the reply of a ServiceCall.
type CallResult struct {
	ID       uint32 `protobuf:"varint,1,opt,name=id,proto3" json:"id,omitempty"`
	Port     uint32 `protobuf:"varint,2,opt,name=port,proto3" json:"port,omitempty"`
	Status   uint32 `protobuf:"varint,3,opt,name=status,proto3" json:"status,omitempty"`
	Response uint32 `protobuf:"varint,4,opt,name=response,proto3" json:"response,omitempty"`
	Error    string `protobuf:"bytes,5,opt,name=error,proto3" json:"error,omitempty"`
}

// ProtoMessage implements proto.Message.
func (m *CallResult) ProtoMessage() {}

// Reset implements proto.Message.
func (m *CallResult) Reset() { *m = CallResult{} }

// String implements proto.Message.
func (m *CallResult) String() string { return proto.CompactTextString(m) }

// PortStatus is the state of one service port.
type PortStatus struct {
	Port       uint32 `protobuf:"varint,1,opt,name=port,proto3" json:"port,omitempty"`
	Registered bool   `protobuf:"varint,2,opt,name=registered,proto3" json:"registered,omitempty"`
	Pending    bool   `protobuf:"varint,3,opt,name=pending,proto3" json:"pending,omitempty"`
	Response   uint32 `protobuf:"varint,4,opt,name=response,proto3" json:"response,omitempty"`
}

// ProtoMessage implements proto.Message.
func (m *PortStatus) ProtoMessage() {}

// Reset implements proto.Message.
func (m *PortStatus) Reset() { *m = PortStatus{} }

// String implements proto.Message.
func (m *PortStatus) String() string { return proto.CompactTextString(m) }

// DeviceStatus is published periodically by a device.
type DeviceStatus struct {
	DeviceID string        `protobuf:"bytes,1,opt,name=device_id,proto3" json:"device_id,omitempty"`
	Ticks    uint32        `protobuf:"varint,2,opt,name=ticks,proto3" json:"ticks,omitempty"`
	State    string        `protobuf:"bytes,3,opt,name=state,proto3" json:"state,omitempty"`
	Tasks    uint32        `protobuf:"varint,4,opt,name=tasks,proto3" json:"tasks,omitempty"`
	Ports    []*PortStatus `protobuf:"bytes,5,rep,name=ports,proto3" json:"ports,omitempty"`
}

// ProtoMessage implements proto.Message.
func (m *DeviceStatus) ProtoMessage() {}

// Reset implements proto.Message.
func (m *DeviceStatus) Reset() { *m = DeviceStatus{} }

// String implements proto.Message.
func (m *DeviceStatus) String() string { return proto.CompactTextString(m) }

// ForTopic returns an empty message of the type published on topic,
// judged by its last level.
func ForTopic(topic string) (proto.Message, bool) {
	if n := strings.LastIndexByte(topic, '/'); n >= 0 {
		topic = topic[n+1:]
	}
	switch topic {
	case TopicStatus:
		return &DeviceStatus{}, true
	case TopicCall:
		return &ServiceCall{}, true
	case TopicResult:
		return &CallResult{}, true
	}
	return nil, false
}
