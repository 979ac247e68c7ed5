package aptlink

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"sync/atomic"
	"time"

	"github.com/OMS-lab/go-apt/apt"
	"github.com/OMS-lab/go-apt/internal/pool"
	"github.com/OMS-lab/go-apt/logger"
	"github.com/goburrow/serial"
	"github.com/puzpuzpuz/xsync/v3"
)

// connState tracks the lifecycle of the link.
type connState int32

const (
	stateOpen connState = iota
	// stateBroken marks a poisoned link: a frame was cut short or a
	// response deadline expired, so the stream offset is unknown.
	stateBroken
	stateClosed
)

// Connection owns exclusive write/read access to one APT serial channel
// and enforces the protocol-level timing invariants: the keep-alive
// acknowledgement refresh on the write side and matched, anomaly-tolerant
// blocking reads on the read side.
//
// This type is NOT goroutine-safe. At most one write+read exchange may be
// in flight at a time; callers sharing one Connection across several axes
// must serialize access themselves. Close may be called from any
// goroutine.
type Connection struct {
	port   Port
	reader *bufio.Reader
	cfg    *ConnectionConfig
	logger logger.Logger

	state atomic.Int32

	// writesSinceAck counts user frames transmitted since the last
	// keep-alive burst. Owned by this Connection value: independent links
	// never share a counter.
	writesSinceAck int

	// axisEvents maps registered axis addresses to their notification
	// bookkeeping. Registered addresses are also the keep-alive recipients.
	axisEvents *xsync.MapOf[byte, *AxisEvents]

	metrics ConnectionMetrics
}

// NewConnection wraps an already open port in a Connection.
// Use Dial to open the configured serial device instead.
func NewConnection(port Port, cfg *ConnectionConfig) (*Connection, error) {
	if port == nil {
		return nil, ErrPortNil
	}
	if cfg == nil {
		return nil, ErrConfigNil
	}

	return &Connection{
		port:       port,
		reader:     bufio.NewReader(port),
		cfg:        cfg,
		logger:     cfg.logger,
		axisEvents: xsync.NewMapOf[byte, *AxisEvents](),
	}, nil
}

// Dial opens the configured serial device and wraps it in a Connection.
func Dial(cfg *ConnectionConfig) (*Connection, error) {
	port, err := OpenPort(cfg)
	if err != nil {
		return nil, err
	}

	return NewConnection(port, cfg)
}

// SourceAddress returns the host address stamped into outgoing frames.
func (c *Connection) SourceAddress() byte {
	return c.cfg.sourceAddr
}

// Metrics returns the connection metrics.
func (c *Connection) Metrics() *ConnectionMetrics {
	return &c.metrics
}

// RegisterAxis adds a destination address to the keep-alive recipient set
// and returns its notification bookkeeping. Registering the same address
// twice returns the same AxisEvents.
func (c *Connection) RegisterAxis(dest byte) *AxisEvents {
	ev, _ := c.axisEvents.LoadOrStore(dest, &AxisEvents{})
	return ev
}

// --- Write path ---

// Write transmits one packet and counts it against the keep-alive
// threshold. When the threshold is reached, one keep-alive acknowledgement
// per registered axis is transmitted and the counter resets, so no more
// than threshold user writes ever occur without a refresh.
//
// A packet with a zero Source is stamped with the connection's source
// address before transmission.
func (c *Connection) Write(p *apt.Packet) error {
	if err := c.ensureOpen(); err != nil {
		return err
	}

	if p.Source == 0 {
		p.Source = c.cfg.sourceAddr
	}

	buf := pool.GetFrameBuf()
	defer pool.PutFrameBuf(buf)

	n, err := p.PackTo(buf)
	if err != nil {
		// No bytes hit the wire, so the link stays usable.
		return err
	}

	if err := c.writeAll(buf[:n]); err != nil {
		c.markBroken()
		return fmt.Errorf("aptlink: write %s: %w", apt.OpcodeName(p.Opcode), err)
	}

	c.metrics.incWriteCount()
	c.logger.Debug("aptlink: frame sent",
		"opcode", apt.OpcodeName(p.Opcode),
		"dest", p.Dest,
	)

	c.writesSinceAck++
	if c.writesSinceAck >= c.cfg.keepAliveThreshold {
		return c.refreshKeepAlive()
	}

	return nil
}

// refreshKeepAlive transmits one ACK_USTATUSUPDATE per registered axis and
// resets the write counter. Keep-alive packets are acknowledgements, not
// commands, so they do not count against the threshold themselves.
func (c *Connection) refreshKeepAlive() error {
	var sendErr error
	sent := 0

	buf := pool.GetFrameBuf()
	defer pool.PutFrameBuf(buf)

	c.axisEvents.Range(func(dest byte, _ *AxisEvents) bool {
		pkt := apt.NewPacket(apt.AckUStatusUpdate, 0, 0, dest, c.cfg.sourceAddr)

		n, err := pkt.PackTo(buf)
		if err == nil {
			err = c.writeAll(buf[:n])
		}
		if err != nil {
			sendErr = fmt.Errorf("aptlink: keep-alive to 0x%02X: %w", dest, err)
			return false
		}

		c.metrics.incKeepAliveCount()
		sent++

		return true
	})

	if sendErr != nil {
		c.markBroken()
		return sendErr
	}

	c.writesSinceAck = 0
	if sent > 0 {
		c.metrics.incKeepAliveBurstCount()
		c.logger.Debug("aptlink: keep-alive refresh", "axes", sent)
	}

	return nil
}

func (c *Connection) writeAll(data []byte) error {
	for written := 0; written < len(data); {
		n, err := c.port.Write(data[written:])
		written += n

		if err != nil {
			return err
		}
	}

	return nil
}

// --- Read path ---

// Read blocks until a frame with the expected opcode arrives from the
// given source address, within the configured response timeout when one is
// set.
//
// Three outcomes per decoded frame: a match returns it; a completion
// notification (MOVE_COMPLETED, MOVE_STOPPED, MOVE_HOMED) from a different
// registered axis updates that axis's AxisEvents and the read keeps
// waiting; anything else is logged as a warning and skipped. Out-of-order
// unsolicited frames never terminate the call.
//
// A truncated frame, a closed port or an expired response deadline poisons
// the link and fails the call; the connection must be re-established.
func (c *Connection) Read(expected apt.Opcode, source byte) (*apt.Packet, error) {
	if err := c.ensureOpen(); err != nil {
		return nil, err
	}

	var deadline time.Time
	if c.cfg.responseTimeout > 0 {
		deadline = time.Now().Add(c.cfg.responseTimeout)
	}

	for {
		pkt, err := c.readFrame(deadline)
		if err != nil {
			c.markBroken()
			return nil, err
		}

		c.metrics.incFrameRecvCount()

		if pkt.Opcode == expected && pkt.Source == source {
			// The awaited frame is consumed by delivery; only out-of-order
			// completions are recorded in AxisEvents.
			return pkt, nil
		}

		if c.recordNotification(pkt) {
			c.metrics.incUnsolicitedRecvCount()
			c.logger.Debug("aptlink: unsolicited notification recorded",
				"opcode", apt.OpcodeName(pkt.Opcode),
				"source", pkt.Source,
			)

			continue
		}

		c.metrics.incUnexpectedRecvCount()
		c.logger.Warn("aptlink: skipping unexpected frame",
			"opcode", apt.OpcodeName(pkt.Opcode),
			"source", pkt.Source,
			"expected", apt.OpcodeName(expected),
		)
	}
}

// RoundTrip transmits p and blocks until the expected reply arrives from
// the given source address.
func (c *Connection) RoundTrip(p *apt.Packet, expected apt.Opcode, source byte) (*apt.Packet, error) {
	if err := c.Write(p); err != nil {
		return nil, err
	}

	return c.Read(expected, source)
}

// recordNotification updates the notification bookkeeping of a registered
// axis and reports whether the frame was such a notification. Completion
// frames from unregistered addresses are not recorded; the caller treats
// them as unexpected traffic.
func (c *Connection) recordNotification(pkt *apt.Packet) bool {
	switch pkt.Opcode {
	case apt.MoveCompleted, apt.MoveStopped, apt.MoveHomed:
	default:
		return false
	}

	ev, ok := c.axisEvents.Load(pkt.Source)
	if !ok {
		return false
	}

	switch pkt.Opcode {
	case apt.MoveCompleted:
		ev.moveDone.Store(true)
	case apt.MoveStopped:
		ev.stopDone.Store(true)
	case apt.MoveHomed:
		ev.homed.Store(true)
	}

	// MOVE_COMPLETED and MOVE_STOPPED carry a status-update payload.
	if pkt.HasPayload() {
		if upd, err := apt.DecodeStatusUpdate(pkt.Payload); err == nil {
			ev.statusBits.Store(upd.StatusBits)
		}
	}

	return true
}

// readFrame reads exactly one frame from the port, polling for bytes.
// deadline zero means no response deadline.
func (c *Connection) readFrame(deadline time.Time) (*apt.Packet, error) {
	buf := pool.GetFrameBuf()
	defer pool.PutFrameBuf(buf)

	if err := c.readFull(buf[:apt.HeaderSize], deadline, false); err != nil {
		return nil, err
	}

	payloadLen, err := apt.PayloadLength(buf[:apt.HeaderSize])
	if err != nil {
		return nil, err
	}

	frameLen := apt.HeaderSize + payloadLen
	if payloadLen > 0 {
		if err := c.readFull(buf[apt.HeaderSize:frameLen], deadline, true); err != nil {
			return nil, err
		}
	}

	pkt, _, err := apt.DecodeFrame(buf[:frameLen])
	if err != nil {
		return nil, err
	}

	return pkt, nil
}

// readFull reads exactly len(buf) bytes. Poll timeouts while the line is
// idle are normal iterations; a non-zero deadline bounds the total wait.
// A stream that ends while midFrame (or after some bytes of buf arrived)
// is a truncated frame, which is unrecoverable.
func (c *Connection) readFull(buf []byte, deadline time.Time, midFrame bool) error {
	for read := 0; read < len(buf); {
		if !deadline.IsZero() && time.Now().After(deadline) {
			return fmt.Errorf("%w: waiting for %s", ErrReadTimeout, frameStage(midFrame, read))
		}

		c.armPollDeadline()

		n, err := c.reader.Read(buf[read:])
		read += n

		if err == nil {
			continue
		}
		if isTimeoutError(err) {
			// Idle poll tick; loop re-checks the deadline.
			continue
		}
		if isClosedError(err) {
			if midFrame || read > 0 {
				return fmt.Errorf("%w: stream ended %s", apt.ErrIncompleteFrame, frameStage(midFrame, read))
			}

			return fmt.Errorf("%w: port closed", ErrConnClosed)
		}

		return fmt.Errorf("aptlink: read: %w", err)
	}

	return nil
}

// armPollDeadline bounds the next port read when the port supports
// deadlines. Ports without deadline support rely on their own read
// timeout, the way OpenPort configures serial devices.
func (c *Connection) armPollDeadline() {
	if dr, ok := c.port.(readDeadliner); ok {
		_ = dr.SetReadDeadline(time.Now().Add(c.cfg.pollInterval))
	}
}

func frameStage(midFrame bool, read int) string {
	if midFrame {
		return "mid-frame payload"
	}
	if read > 0 {
		return "mid-header"
	}

	return "frame start"
}

// --- Lifecycle ---

// Close closes the connection and the underlying port. It is idempotent
// and safe to call from any goroutine; a blocked Read observes the port
// closing and fails with ErrConnClosed.
func (c *Connection) Close() error {
	prev := connState(c.state.Swap(int32(stateClosed)))
	if prev == stateClosed {
		return nil
	}

	if err := c.port.Close(); err != nil {
		return fmt.Errorf("aptlink: close port: %w", err)
	}

	c.logger.Debug("aptlink: connection closed")

	return nil
}

// ensureOpen fails fast when the link is closed or poisoned.
func (c *Connection) ensureOpen() error {
	switch connState(c.state.Load()) {
	case stateOpen:
		return nil
	case stateBroken:
		return fmt.Errorf("%w: link integrity lost", ErrConnClosed)
	default:
		return ErrConnClosed
	}
}

// markBroken poisons an open link. Closed connections stay closed.
func (c *Connection) markBroken() {
	c.state.CompareAndSwap(int32(stateOpen), int32(stateBroken))
}

// --- Error classification ---

func isTimeoutError(err error) bool {
	if errors.Is(err, serial.ErrTimeout) || errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}

	var netErr net.Error

	return errors.As(err, &netErr) && netErr.Timeout()
}

func isClosedError(err error) bool {
	return errors.Is(err, net.ErrClosed) ||
		errors.Is(err, os.ErrClosed) ||
		errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrClosedPipe) ||
		errors.Is(err, io.ErrUnexpectedEOF)
}
