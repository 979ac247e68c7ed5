package aptlink

import (
	"bytes"
	"io"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/OMS-lab/go-apt/apt"
	"github.com/goburrow/serial"
)

// fakePort is a deterministic in-memory Port. Bytes staged into in are
// served to host reads; host writes accumulate in out. An empty in behaves
// like an idle serial line (timeout per poll) unless eofAfterDrain is set,
// which simulates a stream cut mid-conversation.
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

// newTestConfig creates a ConnectionConfig with a fast poll interval
// suitable for tests.
func newTestConfig(t *testing.T, opts ...ConnOption) *ConnectionConfig {
	t.Helper()

	defaults := []ConnOption{
		WithPollInterval(MinPollInterval),
	}

	cfg, err := NewConnectionConfig("", append(defaults, opts...)...)
	if err != nil {
		t.Fatalf("newTestConfig: %v", err)
	}

	return cfg
}

// newFakeConn creates a Connection backed by a fakePort.
func newFakeConn(t *testing.T, opts ...ConnOption) (*Connection, *fakePort) {
	t.Helper()

	port := &fakePort{}
	conn, err := NewConnection(port, newTestConfig(t, opts...))
	if err != nil {
		t.Fatalf("newFakeConn: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	return conn, port
}

// newPipeConn creates a Connection on the local end of a net.Pipe and
// returns the remote end for device simulation.
func newPipeConn(t *testing.T, opts ...ConnOption) (*Connection, net.Conn) {
	t.Helper()

	local, remote := net.Pipe()
	t.Cleanup(func() {
		_ = local.Close()
		_ = remote.Close()
	})

	conn, err := NewConnection(local, newTestConfig(t, opts...))
	if err != nil {
		t.Fatalf("newPipeConn: %v", err)
	}

	return conn, remote
}

// stageFrame packs pkt into the fake port's read stream.
func stageFrame(t *testing.T, port *fakePort, pkt *apt.Packet) {
	t.Helper()

	wire, err := pkt.Pack()
	if err != nil {
		t.Fatalf("stageFrame: %v", err)
	}
	port.in.Write(wire)
}

// sentFrames decodes every frame the host wrote to the fake port.
func sentFrames(t *testing.T, port *fakePort) []*apt.Packet {
	t.Helper()

	var frames []*apt.Packet
	data := port.out.Bytes()

	for len(data) > 0 {
		pkt, n, err := apt.DecodeFrame(data)
		if err != nil {
			t.Fatalf("sentFrames: %v", err)
		}
		frames = append(frames, pkt)
		data = data[n:]
	}

	return frames
}

// completionFrame builds a MOVE_COMPLETED notification from an axis with a
// plausible status payload.
func completionFrame(source byte, statusBits uint32) *apt.Packet {
	upd := apt.StatusUpdate{Channel: 1, StatusBits: statusBits}

	return apt.NewDataPacket(apt.MoveCompleted, HostAddress, source, upd.Encode())
}
