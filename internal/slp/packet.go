package slp

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

const (
	// packetIDStatus is the packet ID shared by the handshake, the status
	// request, and the status response (each within its own protocol state).
	packetIDStatus int32 = 0x00

	// handshakeProtocol is the protocol version sentinel for a pure status
	// query; the real client version is irrelevant when asking for status.
	handshakeProtocol int32 = -1

	// nextStateStatus asks the server to switch to the status state.
	nextStateStatus int32 = 1

	// maxFrameBytes guards against absurd declared frame lengths.
	maxFrameBytes = 1 << 21 // 2 MiB
)

// writeFrame sends one framed packet: varint(len(id)+len(body)), packet ID,
// body. The whole frame is written with a single conn write.
func writeFrame(w io.Writer, id int32, body []byte) error {
	inner := int32(VarIntSize(id) + len(body))

	var buf bytes.Buffer
	buf.Grow(VarIntSize(inner) + int(inner))

	if _, err := WriteVarInt(&buf, inner); err != nil {
		return fmt.Errorf("write frame length: %w", err)
	}
	if _, err := WriteVarInt(&buf, id); err != nil {
		return fmt.Errorf("write packet ID: %w", err)
	}
	if _, err := buf.Write(body); err != nil {
		return fmt.Errorf("write packet body: %w", err)
	}

	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("flush frame: %w", err)
	}
	return nil
}

// readFrame reads one framed packet and returns its packet ID and body.
// Exactly the declared length is consumed; anything the peer sends past it
// is left unread.
func readFrame(r io.Reader) (int32, []byte, error) {
	length, _, err := ReadVarInt(r)
	if err != nil {
		return 0, nil, fmt.Errorf("read frame length: %w", err)
	}
	if length < 1 {
		return 0, nil, fmt.Errorf("frame length too small: %d", length)
	}
	if length > maxFrameBytes {
		return 0, nil, fmt.Errorf("frame too large: %d bytes", length)
	}

	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return 0, nil, fmt.Errorf("read frame payload: %w", err)
	}

	buf := bytes.NewReader(payload)
	id, _, err := ReadVarInt(buf)
	if err != nil {
		return 0, nil, fmt.Errorf("read packet ID: %w", err)
	}

	body := make([]byte, buf.Len())
	if _, err := io.ReadFull(buf, body); err != nil {
		return 0, nil, fmt.Errorf("read packet body: %w", err)
	}

	return id, body, nil
}

// handshakeBody encodes the handshake fields: protocol version, server
// address, server port (big-endian u16), next state.
func handshakeBody(addr ServerAddress) []byte {
	var buf bytes.Buffer
	_, _ = WriteVarInt(&buf, handshakeProtocol)
	_, _ = WriteString(&buf, addr.Host)
	_ = binary.Write(&buf, binary.BigEndian, addr.Port)
	_, _ = WriteVarInt(&buf, nextStateStatus)
	return buf.Bytes()
}
