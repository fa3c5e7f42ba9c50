package mqtt

import (
	"io"

	"github.com/golang/glog"
	"github.com/golang/protobuf/proto"

	"github.com/robotalks/mos.go/pkg/msgs"
)

// StatusHandler receives device status reports.
type StatusHandler func(deviceID string, st *msgs.DeviceStatus)

// WatchStatus subscribes to status reports of all devices.
func WatchStatus(ps PubSub, h StatusHandler) (io.Closer, error) {
	return ps.Subscribe(DeviceTopic("+", msgs.TopicStatus), func(topic string, payload []byte) {
		st := &msgs.DeviceStatus{}
		if err := proto.Unmarshal(payload, st); err != nil {
			glog.Warningf("bad status on %s: %v", topic, err)
			return
		}
		deviceID := st.DeviceID
		if deviceID == "" {
			deviceID = topic[:len(topic)-len(msgs.TopicStatus)-1]
		}
		h(deviceID, st)
	})
}
