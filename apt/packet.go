package apt

import (
	"encoding/binary"
	"fmt"
)

// HeaderSize is the fixed size of an APT frame header.
const HeaderSize = 6

// MaxPayloadSize is the largest payload a single frame can carry.
// The payload length travels in the one-byte param1 field.
const MaxPayloadSize = 255

// MaxFrameSize is the largest possible wire frame: a full header followed
// by a maximum-length payload.
const MaxFrameSize = HeaderSize + MaxPayloadSize

// destDataFlag marks the destination byte of frames that carry a payload
// (bit 7 of header byte 4).
const destDataFlag byte = 0x80

// Packet is one APT protocol frame: a 6-byte header and an optional
// payload appended verbatim after it.
//
// Dest holds the destination address without the data flag bit; Pack sets
// the bit when a payload is present and DecodeFrame strips it. For frames
// with a payload, param1 carries the payload length on the wire, so Param1
// is meaningful only on header-only packets.
type Packet struct {
	Opcode  Opcode
	Param1  byte
	Param2  byte
	Dest    byte
	Source  byte
	Payload []byte
}

// NewPacket builds a header-only packet.
func NewPacket(op Opcode, param1, param2, dest, src byte) *Packet {
	return &Packet{
		Opcode: op,
		Param1: param1,
		Param2: param2,
		Dest:   dest,
		Source: src,
	}
}

// NewDataPacket builds a packet carrying a payload. The payload length is
// written into the param1 field when the packet is packed.
func NewDataPacket(op Opcode, dest, src byte, payload []byte) *Packet {
	return &Packet{
		Opcode:  op,
		Dest:    dest,
		Source:  src,
		Payload: payload,
	}
}

// ReplyAddress returns the derived reply address for a device address.
// Responses to data-carrying requests travel from/to the base address with
// the high bit set.
func ReplyAddress(addr byte) byte {
	return addr | destDataFlag
}

// HasPayload reports whether the packet carries a payload.
func (p *Packet) HasPayload() bool {
	return len(p.Payload) > 0
}

// --- Wire encoding ---

// EncodeHeader serializes a header-only frame.
// The opcode must be in the command table; encoding fails closed with
// ErrInvalidOpcode otherwise.
func EncodeHeader(op Opcode, param1, param2, dest, src byte) ([]byte, error) {
	if !validOpcode(op) {
		return nil, fmt.Errorf("%w: 0x%04X", ErrInvalidOpcode, uint16(op))
	}

	buf := make([]byte, HeaderSize)
	binary.LittleEndian.PutUint16(buf[0:2], uint16(op))
	buf[2] = param1
	buf[3] = param2
	buf[4] = dest &^ destDataFlag
	buf[5] = src

	return buf, nil
}

// Pack serializes the packet to its wire format:
//
//	[Opcode_Lo][Opcode_Hi][Param1][Param2][Dest][Source][Payload...]
//
// For packets with a payload, the payload length is written into the
// param1 byte and the data flag is set on the destination byte.
// The opcode is validated against the command table.
func (p *Packet) Pack() ([]byte, error) {
	buf := make([]byte, HeaderSize+len(p.Payload))

	n, err := p.PackTo(buf)
	if err != nil {
		return nil, err
	}

	return buf[:n], nil
}

// PackTo serializes the packet into buf and returns the frame length.
// buf must hold HeaderSize+len(Payload) bytes. Transports use this with
// pooled buffers to keep the write path allocation-free.
func (p *Packet) PackTo(buf []byte) (int, error) {
	if !validOpcode(p.Opcode) {
		return 0, fmt.Errorf("%w: 0x%04X", ErrInvalidOpcode, uint16(p.Opcode))
	}
	if len(p.Payload) > MaxPayloadSize {
		return 0, fmt.Errorf("%w: payload length %d exceeds %d", ErrMalformedPacket, len(p.Payload), MaxPayloadSize)
	}

	frameLen := HeaderSize + len(p.Payload)
	if len(buf) < frameLen {
		return 0, fmt.Errorf("%w: buffer holds %d bytes, frame needs %d", ErrMalformedPacket, len(buf), frameLen)
	}

	binary.LittleEndian.PutUint16(buf[0:2], uint16(p.Opcode))

	if p.HasPayload() {
		buf[2] = byte(len(p.Payload))
		buf[3] = p.Param2
		buf[4] = p.Dest | destDataFlag
		copy(buf[HeaderSize:], p.Payload)
	} else {
		buf[2] = p.Param1
		buf[3] = p.Param2
		buf[4] = p.Dest &^ destDataFlag
	}
	buf[5] = p.Source

	return frameLen, nil
}

// --- Wire decoding ---

// PayloadLength returns the payload length declared by a frame header, or
// zero for header-only frames. header must hold at least HeaderSize bytes.
//
// Transports use this after reading a header to learn how many more bytes
// belong to the frame.
func PayloadLength(header []byte) (int, error) {
	if len(header) < HeaderSize {
		return 0, fmt.Errorf("%w: got %d bytes, header needs %d", ErrIncompleteFrame, len(header), HeaderSize)
	}
	if header[4]&destDataFlag == 0 {
		return 0, nil
	}

	return int(header[2]), nil
}

// DecodeFrame parses one frame from the head of data and returns the
// packet together with the number of bytes consumed.
//
// The caller asserts that data holds at least one complete frame; fewer
// than HeaderSize bytes, or a declared payload extending past the end of
// data, fail with ErrIncompleteFrame. DecodeFrame never blocks; waiting
// for bytes is the transport's job.
//
// Unknown opcodes decode successfully. The read loop upstream decides how
// to treat unexpected frames, so decoding must not fail closed the way
// encoding does.
func DecodeFrame(data []byte) (*Packet, int, error) {
	if len(data) < HeaderSize {
		return nil, 0, fmt.Errorf("%w: got %d bytes, header needs %d", ErrIncompleteFrame, len(data), HeaderSize)
	}

	pkt := &Packet{
		Opcode: Opcode(binary.LittleEndian.Uint16(data[0:2])),
		Param1: data[2],
		Param2: data[3],
		Dest:   data[4] &^ destDataFlag,
		Source: data[5],
	}

	consumed := HeaderSize
	if data[4]&destDataFlag != 0 {
		payloadLen := int(data[2])
		if len(data) < HeaderSize+payloadLen {
			return nil, 0, fmt.Errorf("%w: payload declares %d bytes, only %d available",
				ErrIncompleteFrame, payloadLen, len(data)-HeaderSize)
		}
		if payloadLen > 0 {
			pkt.Payload = make([]byte, payloadLen)
			copy(pkt.Payload, data[HeaderSize:HeaderSize+payloadLen])
		}
		consumed += payloadLen
	}

	return pkt, consumed, nil
}
