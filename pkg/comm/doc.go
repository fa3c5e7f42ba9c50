// Package comm connects hosts to a device speaking the service protocol.
//
// The device side is a Link pumping a byte stream into a
// frame.SlipServer. The host side is a Client: BusClient masters an
// in-process bus with length-prefixed frames, and SlipClient talks SLIP
// over any stream (serial port, websocket, pipe).
package comm
