package aptlink

import (
	"sync/atomic"
)

// ConnectionMetrics contains atomic metrics for an APT link.
// Metrics can be used as the value of a prometheus CounterFunc or GaugeFunc.
type ConnectionMetrics struct {
	// WriteCount indicates the number of user frames transmitted.
	// Keep-alive packets are not counted here.
	WriteCount atomic.Uint64
	// KeepAliveCount indicates the number of keep-alive packets transmitted.
	KeepAliveCount atomic.Uint64
	// KeepAliveBurstCount indicates the number of keep-alive refresh bursts.
	KeepAliveBurstCount atomic.Uint64

	// FrameRecvCount indicates the number of frames decoded from the wire.
	FrameRecvCount atomic.Uint64
	// UnsolicitedRecvCount indicates the number of unsolicited completion
	// notifications recorded for registered axes.
	UnsolicitedRecvCount atomic.Uint64
	// UnexpectedRecvCount indicates the number of frames skipped because
	// they matched neither the expected reply nor a registered axis.
	UnexpectedRecvCount atomic.Uint64
}

func (m *ConnectionMetrics) incWriteCount() {
	m.WriteCount.Add(1)
}

func (m *ConnectionMetrics) incKeepAliveCount() {
	m.KeepAliveCount.Add(1)
}

func (m *ConnectionMetrics) incKeepAliveBurstCount() {
	m.KeepAliveBurstCount.Add(1)
}

func (m *ConnectionMetrics) incFrameRecvCount() {
	m.FrameRecvCount.Add(1)
}

func (m *ConnectionMetrics) incUnsolicitedRecvCount() {
	m.UnsolicitedRecvCount.Add(1)
}

func (m *ConnectionMetrics) incUnexpectedRecvCount() {
	m.UnexpectedRecvCount.Add(1)
}
