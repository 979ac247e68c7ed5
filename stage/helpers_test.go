package stage

import (
	"bytes"
	"io"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goburrow/serial"
	"github.com/stretchr/testify/require"

	"github.com/OMS-lab/go-apt/apt"
	"github.com/OMS-lab/go-apt/aptlink"
	"github.com/OMS-lab/go-apt/motor"
)

// Status dword bits used by the device replies in these tests.
const (
	bitHomed   uint32 = 0x00000400
	bitEnabled uint32 = 0x80000000
)

// fakePort is a deterministic in-memory serial device. Reads drain the in
// buffer and then behave like an idle line (timeout per poll).
type fakePort struct {
	in     bytes.Buffer
	out    bytes.Buffer
	closed atomic.Bool
}

func (p *fakePort) Read(b []byte) (int, error) {
	if p.closed.Load() {
		return 0, net.ErrClosed
	}
	if p.in.Len() == 0 {
		time.Sleep(time.Millisecond)
		return 0, serial.ErrTimeout
	}

	return p.in.Read(b)
}

func (p *fakePort) Write(b []byte) (int, error) {
	if p.closed.Load() {
		return 0, net.ErrClosed
	}

	return p.out.Write(b)
}

func (p *fakePort) Close() error {
	p.closed.Store(true)
	return nil
}

var _ io.ReadWriteCloser = (*fakePort)(nil)

func newTestConn(t *testing.T) (*aptlink.Connection, *fakePort) {
	t.Helper()

	port := &fakePort{}

	cfg, err := aptlink.NewConnectionConfig("", aptlink.WithPollInterval(aptlink.MinPollInterval))
	require.NoError(t, err)

	conn, err := aptlink.NewConnection(port, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return conn, port
}

func stageReply(t *testing.T, port *fakePort, pkt *apt.Packet) {
	t.Helper()

	wire, err := pkt.Pack()
	require.NoError(t, err)

	_, err = port.in.Write(wire)
	require.NoError(t, err)
}

func sentFrames(t *testing.T, port *fakePort) []*apt.Packet {
	t.Helper()

	var frames []*apt.Packet

	data := port.out.Bytes()
	for len(data) > 0 {
		pkt, n, err := apt.DecodeFrame(data)
		require.NoError(t, err)

		frames = append(frames, pkt)
		data = data[n:]
	}

	return frames
}

// --- Device reply builders ---

func enableReply(dest, state byte) *apt.Packet {
	return apt.NewPacket(apt.GetChanEnableState, 0x01, state, aptlink.HostAddress, dest)
}

func statusReply(dest byte, pos int32, bits uint32) *apt.Packet {
	upd := apt.StatusUpdate{Channel: 1, Position: pos, StatusBits: bits}
	return apt.NewDataPacket(apt.GetUStatusUpdate, aptlink.HostAddress, dest, upd.Encode())
}

func homedReply(dest byte) *apt.Packet {
	return apt.NewPacket(apt.MoveHomed, 0x01, 0, aptlink.HostAddress, dest)
}

func velReply(dest byte, m motor.Model, vel, accel float64) *apt.Packet {
	params := apt.VelParams{
		Channel:      1,
		Acceleration: m.AccelerationToCounts(accel),
		MaxVelocity:  m.VelocityToCounts(vel),
	}

	return apt.NewDataPacket(apt.GetVelParams, aptlink.HostAddress, dest, params.Encode())
}

func posReply(dest byte, counts int32) *apt.Packet {
	reading := apt.CounterReading{Channel: 1, Count: counts}
	return apt.NewDataPacket(apt.GetPosCounter, aptlink.HostAddress, dest, reading.Encode())
}

func moveCompleted(dest byte, pos int32) *apt.Packet {
	upd := apt.StatusUpdate{Channel: 1, Position: pos, StatusBits: bitEnabled}
	return apt.NewDataPacket(apt.MoveCompleted, aptlink.HostAddress, dest, upd.Encode())
}

// stageXYConnect stages the happy-path connect conversation: both axes
// enabled and homed, velocity parameters 100 mm/s and 500 mm/s^2.
func stageXYConnect(t *testing.T, port *fakePort, x, y byte) {
	t.Helper()

	stageReply(t, port, enableReply(x, 0x01))
	stageReply(t, port, enableReply(y, 0x01))
	stageReply(t, port, statusReply(x, 0, bitHomed|bitEnabled))
	stageReply(t, port, statusReply(y, 0, bitHomed|bitEnabled))
	stageReply(t, port, velReply(x, motor.MLS203, 100, 500))
	stageReply(t, port, velReply(y, motor.MLS203, 100, 500))
}

// stageSingleConnect stages the connect conversation for a one-axis
// assembly: channel enabled, axis homed, given velocity parameters.
func stageSingleConnect(t *testing.T, port *fakePort, dest byte, m motor.Model, vel, accel float64) {
	t.Helper()

	stageReply(t, port, enableReply(dest, 0x01))
	stageReply(t, port, statusReply(dest, 0, bitHomed|bitEnabled))
	stageReply(t, port, velReply(dest, m, vel, accel))
}

// newConnectedXY returns a connected default stage with the connect
// conversation already drained from the port.
func newConnectedXY(t *testing.T) (*XYStage, *fakePort) {
	t.Helper()

	conn, port := newTestConn(t)

	xy, err := NewXYStage(conn)
	require.NoError(t, err)

	stageXYConnect(t, port, aptlink.Bay1Address, aptlink.Bay2Address)
	require.NoError(t, xy.Connect())
	port.out.Reset()

	return xy, port
}
