// Package frame implements the slave side of the service protocol.
//
// Two framings are supported over the same service registry.
//
// The length-prefixed framing (Server) is driven by a bus that delivers
// one byte per interrupt and requests one byte per read:
//
//	[0x80][Length][Port][Data...][CRC]
//
// Length counts Port and Data bytes. A single byte equal to a registered
// port asks for the last response of that port, and 0x55 asks for the
// status of the last frame.
//
// The delimiter framing (SlipServer) wraps the frame body in RFC 1055
// SLIP:
//
//	END [0x80][Port][Data...][CRC] END
//
// CRC is CRC-8/CDMA2000 over every preceding byte of the frame.
//
// All intake and generator functions are meant to run in interrupt
// context: they never block and never return errors. Failures are kept
// as the frame Status for a later status query.
package frame
