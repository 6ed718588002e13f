package slp

import (
	"errors"
	"fmt"
	"io"
)

// maxVarIntBytes bounds varint decoding; values in this protocol never exceed
// the 32-bit range, so anything longer is malformed or adversarial.
const maxVarIntBytes = 5

// maxStringBytes matches the protocol limit of 32767 UTF-16 code units,
// each up to 4 bytes in UTF-8.
const maxStringBytes = 32767 * 4

// ErrVarIntTooLong is returned when a varint does not terminate within
// maxVarIntBytes bytes.
var ErrVarIntTooLong = errors.New("varint exceeds 5 bytes")

// ReadVarInt decodes a protocol varint (7 data bits per byte, low-order
// first, 0x80 continuation). It returns the value and the number of bytes
// consumed.
func ReadVarInt(r io.Reader) (int32, int, error) {
	var out uint32
	var n int
	var buf [1]byte

	for {
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return 0, n, err
		}

		b := buf[0]
		out |= uint32(b&0x7F) << (7 * n)
		n++

		if b&0x80 == 0 {
			return int32(out), n, nil
		}
		if n >= maxVarIntBytes {
			return 0, n, ErrVarIntTooLong
		}
	}
}

// WriteVarInt encodes value as a protocol varint.
func WriteVarInt(w io.Writer, value int32) (int, error) {
	var buf [maxVarIntBytes]byte
	n := PutVarInt(buf[:], value)
	return w.Write(buf[:n])
}

// PutVarInt encodes value into buf, which must hold at least
// VarIntSize(value) bytes, and returns the number of bytes written.
func PutVarInt(buf []byte, value int32) int {
	val := uint32(value)
	n := 0
	for {
		b := byte(val & 0x7F)
		val >>= 7
		if val != 0 {
			b |= 0x80
		}
		buf[n] = b
		n++
		if val == 0 {
			return n
		}
	}
}

// VarIntSize reports how many bytes the varint encoding of value occupies.
func VarIntSize(value int32) int {
	val := uint32(value)
	size := 1
	for val >>= 7; val != 0; val >>= 7 {
		size++
	}
	return size
}

// ReadString decodes a varint-length-prefixed UTF-8 string.
func ReadString(r io.Reader) (string, error) {
	length, _, err := ReadVarInt(r)
	if err != nil {
		return "", fmt.Errorf("read string length: %w", err)
	}
	if length < 0 || length > maxStringBytes {
		return "", fmt.Errorf("string length out of range: %d", length)
	}

	buf := make([]byte, length)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", fmt.Errorf("read string data: %w", err)
	}

	return string(buf), nil
}

// WriteString encodes s with a varint byte-count prefix.
func WriteString(w io.Writer, s string) (int, error) {
	n1, err := WriteVarInt(w, int32(len(s)))
	if err != nil {
		return n1, err
	}
	n2, err := w.Write([]byte(s))
	return n1 + n2, err
}
