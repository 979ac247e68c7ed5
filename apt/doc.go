// Package apt implements the packet layer of the Thorlabs APT motion
// controller protocol: fixed 6-byte frame headers with an optional
// length-prefixed payload, the command opcode table, and decoding of the
// status bit field and the common payload layouts.
//
// Frame layout on the wire (all multi-byte fields little-endian):
//
//	[0] opcode low byte
//	[1] opcode high byte
//	[2] param1 (payload length when a payload follows)
//	[3] param2
//	[4] destination address (bit 7 set = payload follows)
//	[5] source address
//
// Framing is purely length and opcode driven; there are no delimiters.
// Everything in this package is pure: no function blocks or performs I/O.
// Blocking, polling and frame matching live in the aptlink package.
package apt
