package slp

import (
	"bytes"
	"io"
	"net"
	"testing"
	"time"
)

// startResponder listens on a loopback port and hands the first accepted
// connection to serve. The listener closes with the test.
func startResponder(t *testing.T, serve func(conn net.Conn)) ServerAddress {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { _ = ln.Close() })

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer func() { _ = conn.Close() }()
		serve(conn)
	}()

	port := uint16(ln.Addr().(*net.TCPAddr).Port)
	return ServerAddress{Host: "127.0.0.1", Port: port}
}

// readHandshakeAndRequest consumes the two client frames and reports the
// decoded handshake fields.
func readHandshakeAndRequest(t *testing.T, conn net.Conn) (host string, port uint16, nextState int32, ok bool) {
	t.Helper()

	id, body, err := readFrame(conn)
	if err != nil || id != 0x00 {
		t.Errorf("handshake frame: id=0x%02X err=%v", id, err)
		return "", 0, 0, false
	}

	r := bytes.NewReader(body)
	if _, _, err := ReadVarInt(r); err != nil {
		t.Errorf("handshake protocol version: %v", err)
		return "", 0, 0, false
	}
	host, err = ReadString(r)
	if err != nil {
		t.Errorf("handshake address: %v", err)
		return "", 0, 0, false
	}
	var portBuf [2]byte
	if _, err := io.ReadFull(r, portBuf[:]); err != nil {
		t.Errorf("handshake port: %v", err)
		return "", 0, 0, false
	}
	port = uint16(portBuf[0])<<8 | uint16(portBuf[1])
	nextState, _, err = ReadVarInt(r)
	if err != nil {
		t.Errorf("handshake next state: %v", err)
		return "", 0, 0, false
	}

	if id, body, err := readFrame(conn); err != nil || id != 0x00 || len(body) != 0 {
		t.Errorf("status request frame: id=0x%02X len=%d err=%v", id, len(body), err)
		return "", 0, 0, false
	}

	return host, port, nextState, true
}

func writeStatusFrame(t *testing.T, conn net.Conn, id int32, payload string) {
	t.Helper()

	var body bytes.Buffer
	if _, err := WriteString(&body, payload); err != nil {
		t.Errorf("encode payload: %v", err)
		return
	}
	if err := writeFrame(conn, id, body.Bytes()); err != nil {
		t.Errorf("write response frame: %v", err)
	}
}

func TestProbeHappyPath(t *testing.T) {
	const payload = `{"version":{"name":"1.20.1","protocol":763},` +
		`"players":{"online":3,"max":20,"sample":[{"name":"Alice"}]},` +
		`"description":"A Minecraft Server"}`

	addr := startResponder(t, func(conn net.Conn) {
		host, port, nextState, ok := readHandshakeAndRequest(t, conn)
		if !ok {
			return
		}
		if host != "127.0.0.1" {
			t.Errorf("handshake host = %q", host)
		}
		if port == 0 {
			t.Errorf("handshake port = 0")
		}
		if nextState != 1 {
			t.Errorf("handshake next state = %d, want 1", nextState)
		}
		writeStatusFrame(t, conn, 0x00, payload)
	})

	res := Probe(addr, 2*time.Second)
	if !res.Online() {
		t.Fatalf("want online, got failure: %v", res.Failure)
	}

	status := res.Status
	if status.PlayersOnline != 3 || status.PlayersMax != 20 {
		t.Errorf("players = %d/%d, want 3/20", status.PlayersOnline, status.PlayersMax)
	}
	if names := status.SampleNames(); len(names) != 1 || names[0] != "Alice" {
		t.Errorf("sample names = %v, want [Alice]", names)
	}
	if status.MOTD != "A Minecraft Server" {
		t.Errorf("motd = %q", status.MOTD)
	}
	if status.VersionName != "1.20.1" || status.Protocol != 763 {
		t.Errorf("version = %q/%d", status.VersionName, status.Protocol)
	}
	if status.RemoteAddr == "" {
		t.Error("remote addr not recorded")
	}
	if status.LatencyMS < 0 {
		t.Errorf("latency = %f", status.LatencyMS)
	}
}

func TestProbeStructuredDescription(t *testing.T) {
	const payload = `{"version":{"name":"1.20.1","protocol":763},` +
		`"players":{"online":0,"max":20},` +
		`"description":{"text":"Hello ","extra":[{"text":"World"}]}}`

	addr := startResponder(t, func(conn net.Conn) {
		if _, _, _, ok := readHandshakeAndRequest(t, conn); !ok {
			return
		}
		writeStatusFrame(t, conn, 0x00, payload)
	})

	res := Probe(addr, 2*time.Second)
	if !res.Online() {
		t.Fatalf("want online, got failure: %v", res.Failure)
	}
	if res.Status.MOTD != "Hello World" {
		t.Errorf("motd = %q, want %q", res.Status.MOTD, "Hello World")
	}
}

func TestProbeUnexpectedPacketID(t *testing.T) {
	addr := startResponder(t, func(conn net.Conn) {
		if _, _, _, ok := readHandshakeAndRequest(t, conn); !ok {
			return
		}
		writeStatusFrame(t, conn, 0x01, "{}")
	})

	res := Probe(addr, 2*time.Second)
	if res.Online() {
		t.Fatal("want failure, got online")
	}
	if res.Failure.Reason != ReasonProtocolError {
		t.Errorf("reason = %s, want protocol_error", res.Failure.Reason)
	}
}

func TestProbeOversizedLengthPrefix(t *testing.T) {
	addr := startResponder(t, func(conn net.Conn) {
		if _, _, _, ok := readHandshakeAndRequest(t, conn); !ok {
			return
		}
		// A frame length prefix that never terminates within 5 bytes.
		_, _ = conn.Write([]byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x80})
	})

	res := Probe(addr, 2*time.Second)
	if res.Online() {
		t.Fatal("want failure, got online")
	}
	if res.Failure.Reason != ReasonProtocolError {
		t.Errorf("reason = %s, want protocol_error", res.Failure.Reason)
	}
}

func TestProbeTrailingBytesIgnored(t *testing.T) {
	const payload = `{"version":{"name":"1.8","protocol":47},"players":{"online":0,"max":20}}`

	addr := startResponder(t, func(conn net.Conn) {
		if _, _, _, ok := readHandshakeAndRequest(t, conn); !ok {
			return
		}
		writeStatusFrame(t, conn, 0x00, payload)
		// Garbage past the declared frame length must not be consumed.
		_, _ = conn.Write([]byte{0xDE, 0xAD, 0xBE, 0xEF})
	})

	res := Probe(addr, 2*time.Second)
	if !res.Online() {
		t.Fatalf("want online, got failure: %v", res.Failure)
	}
}

func TestProbeSilentPeerHitsDeadline(t *testing.T) {
	addr := startResponder(t, func(conn net.Conn) {
		// Accept and say nothing.
		time.Sleep(3 * time.Second)
	})

	start := time.Now()
	res := Probe(addr, 200*time.Millisecond)
	elapsed := time.Since(start)

	if res.Online() {
		t.Fatal("want failure, got online")
	}
	if res.Failure.Reason != ReasonReadTimeout {
		t.Errorf("reason = %s, want read_timeout", res.Failure.Reason)
	}
	if elapsed > time.Second {
		t.Errorf("probe took %v, want ~200ms", elapsed)
	}
}

func TestProbeConnectionRefused(t *testing.T) {
	// Grab a free port, then close the listener before probing it.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	port := uint16(ln.Addr().(*net.TCPAddr).Port)
	_ = ln.Close()

	res := Probe(ServerAddress{Host: "127.0.0.1", Port: port}, 2*time.Second)
	if res.Online() {
		t.Fatal("want failure, got online")
	}
	if res.Failure.Reason != ReasonConnectionRefused {
		t.Errorf("reason = %s, want connection_refused", res.Failure.Reason)
	}
}

func TestProbeDNSFailure(t *testing.T) {
	// RFC 6761 reserves .invalid: resolution always fails.
	res := Probe(ServerAddress{Host: "status.invalid", Port: DefaultPort}, 2*time.Second)
	if res.Online() {
		t.Fatal("want failure, got online")
	}
	if res.Failure.Reason != ReasonDNSFailure {
		t.Errorf("reason = %s, want dns_failure", res.Failure.Reason)
	}
}
