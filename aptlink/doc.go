// Package aptlink implements the link transport of the APT motion
// controller protocol: exclusive ownership of one serial channel shared by
// every axis on it, keep-alive acknowledgement refresh, and blocking
// matched reads that tolerate interleaved unsolicited notifications.
//
// The protocol requires an acknowledgement refresh: a controller silently
// drops the link after 50 consecutive writes without one. The Connection
// counts writes and issues one ACK_USTATUSUPDATE per registered axis once
// the configured threshold is reached, so a user-initiated burst of writes
// can never starve the link.
//
// Reads are synchronous and match on both opcode and source address.
// Unsolicited completion notifications (MOVE_COMPLETED, MOVE_STOPPED,
// MOVE_HOMED) arriving for other registered axes are recorded in that
// axis's AxisEvents and the read keeps waiting; unrecognized frames are
// logged and skipped. A truncated frame poisons the link: the stream
// offset can no longer be trusted, so the connection must be
// re-established.
//
// A Connection is NOT goroutine-safe: at most one write+read pair may be
// in flight at a time. Callers sharing one Connection across axes must
// serialize access, the way the stage package does.
package aptlink
