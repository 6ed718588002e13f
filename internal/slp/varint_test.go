package slp

import (
	"bytes"
	"errors"
	"testing"
)

func TestVarIntRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		value int32
		size  int
	}{
		{"zero", 0, 1},
		{"one", 1, 1},
		{"127", 127, 1},
		{"128", 128, 2},
		{"255", 255, 2},
		{"25565", 25565, 3},
		{"2097151", 2097151, 3},
		{"max_varint", 2147483647, 5},
		{"negative_one", -1, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			n, err := WriteVarInt(&buf, tt.value)
			if err != nil {
				t.Fatalf("WriteVarInt(%d): %v", tt.value, err)
			}
			if n != tt.size {
				t.Errorf("WriteVarInt(%d) wrote %d bytes, want %d", tt.value, n, tt.size)
			}
			if VarIntSize(tt.value) != tt.size {
				t.Errorf("VarIntSize(%d) = %d, want %d", tt.value, VarIntSize(tt.value), tt.size)
			}

			got, bytesRead, err := ReadVarInt(&buf)
			if err != nil {
				t.Fatalf("ReadVarInt: %v", err)
			}
			if bytesRead != tt.size {
				t.Errorf("ReadVarInt read %d bytes, want %d", bytesRead, tt.size)
			}
			if got != tt.value {
				t.Errorf("ReadVarInt = %d, want %d", got, tt.value)
			}
		})
	}
}

func TestReadVarIntRejectsOversized(t *testing.T) {
	// Six bytes, continuation bit set on every one.
	seq := []byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x80}

	_, _, err := ReadVarInt(bytes.NewReader(seq))
	if !errors.Is(err, ErrVarIntTooLong) {
		t.Fatalf("want ErrVarIntTooLong, got %v", err)
	}
}

func TestPutVarInt(t *testing.T) {
	var buf [5]byte
	n := PutVarInt(buf[:], 300)
	if n != 2 {
		t.Errorf("PutVarInt(300) = %d bytes, want 2", n)
	}
	// 300 = 0x12C → 0xAC 0x02
	if buf[0] != 0xAC || buf[1] != 0x02 {
		t.Errorf("PutVarInt(300) = %x %x, want AC 02", buf[0], buf[1])
	}
}

func TestStringRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if _, err := WriteString(&buf, "mc.example.com"); err != nil {
		t.Fatalf("WriteString: %v", err)
	}

	got, err := ReadString(&buf)
	if err != nil {
		t.Fatalf("ReadString: %v", err)
	}
	if got != "mc.example.com" {
		t.Errorf("ReadString = %q, want %q", got, "mc.example.com")
	}
}

func TestReadStringRejectsNegativeLength(t *testing.T) {
	var buf bytes.Buffer
	if _, err := WriteVarInt(&buf, -5); err != nil {
		t.Fatalf("WriteVarInt: %v", err)
	}

	if _, err := ReadString(&buf); err == nil {
		t.Fatal("want error for negative string length")
	}
}
