package motor

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
)

// fakePort is a deterministic in-memory serial device. Reads drain the in
// buffer and then behave like an idle line (timeout per poll) unless
// eofAfterDrain is set, which simulates a stream cut mid-conversation.
type fakePort struct {
	in            bytes.Buffer
	out           bytes.Buffer
	eofAfterDrain bool
	closed        atomic.Bool
}

func (p *fakePort) Read(b []byte) (int, error) {
	if p.closed.Load() {
		return 0, net.ErrClosed
	}
	if p.in.Len() == 0 {
		if p.eofAfterDrain {
			return 0, io.EOF
		}
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

// newTestAxis builds an axis over an in-memory connection.
func newTestAxis(t *testing.T, model Model, opts ...AxisOption) (*Axis, *fakePort) {
	t.Helper()

	port := &fakePort{}

	cfg, err := aptlink.NewConnectionConfig("", aptlink.WithPollInterval(aptlink.MinPollInterval))
	require.NoError(t, err)

	conn, err := aptlink.NewConnection(port, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	axis, err := NewAxis(conn, model, opts...)
	require.NoError(t, err)

	return axis, port
}

// stageReply queues a device frame for the axis to read.
func stageReply(t *testing.T, port *fakePort, pkt *apt.Packet) {
	t.Helper()

	wire, err := pkt.Pack()
	require.NoError(t, err)

	_, err = port.in.Write(wire)
	require.NoError(t, err)
}

// sentFrames decodes every frame the axis wrote to the port.
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

func posReply(dest byte, counts int32) *apt.Packet {
	reading := apt.CounterReading{Channel: 1, Count: counts}
	return apt.NewDataPacket(apt.GetPosCounter, aptlink.HostAddress, dest, reading.Encode())
}

func encReply(dest byte, counts int32) *apt.Packet {
	reading := apt.CounterReading{Channel: 1, Count: counts}
	return apt.NewDataPacket(apt.GetEncCounter, aptlink.HostAddress, dest, reading.Encode())
}

func statusReply(dest byte, pos int32, vel uint16, bits uint32) *apt.Packet {
	upd := apt.StatusUpdate{Channel: 1, Position: pos, Velocity: vel, StatusBits: bits}
	return apt.NewDataPacket(apt.GetUStatusUpdate, aptlink.HostAddress, dest, upd.Encode())
}

func moveCompleted(dest byte, pos int32, bits uint32) *apt.Packet {
	upd := apt.StatusUpdate{Channel: 1, Position: pos, StatusBits: bits}
	return apt.NewDataPacket(apt.MoveCompleted, aptlink.HostAddress, dest, upd.Encode())
}

func moveStopped(dest byte, pos int32) *apt.Packet {
	upd := apt.StatusUpdate{Channel: 1, Position: pos}
	return apt.NewDataPacket(apt.MoveStopped, aptlink.HostAddress, dest, upd.Encode())
}

func homedReply(dest byte) *apt.Packet {
	return apt.NewPacket(apt.MoveHomed, 0x01, 0, aptlink.HostAddress, dest)
}

func enableStateReply(dest, state byte) *apt.Packet {
	return apt.NewPacket(apt.GetChanEnableState, 0x01, state, aptlink.HostAddress, dest)
}
