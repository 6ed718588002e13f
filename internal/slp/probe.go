package slp

import (
	"bytes"
	"errors"
	"fmt"
	"net"
	"time"
)

// Probe connects to addr, performs the status handshake, and decodes the
// response. The timeout is a single wall-clock ceiling covering resolve,
// connect, and the whole exchange; it is the only cancellation mechanism.
//
// Probe never blocks past the deadline and never fails with a Go error:
// every failure path resolves into Result.Failure. One call owns one
// connection and its buffers, so concurrent probes need no coordination.
func Probe(addr ServerAddress, timeout time.Duration) Result {
	start := time.Now()
	deadline := start.Add(timeout)

	dialer := net.Dialer{Deadline: deadline}
	conn, err := dialer.Dial("tcp", addr.String())
	if err != nil {
		return Result{Failure: classifyDialError(err)}
	}
	defer func() { _ = conn.Close() }()

	// Whatever budget the dial left over bounds the exchange.
	_ = conn.SetDeadline(deadline)

	if err := writeFrame(conn, packetIDStatus, handshakeBody(addr)); err != nil {
		return Result{Failure: classifyExchangeError(err, "handshake")}
	}
	if err := writeFrame(conn, packetIDStatus, nil); err != nil {
		return Result{Failure: classifyExchangeError(err, "status request")}
	}

	id, body, err := readFrame(conn)
	if err != nil {
		return Result{Failure: classifyExchangeError(err, "status response")}
	}
	if id != packetIDStatus {
		return Result{Failure: &Failure{
			Reason: ReasonProtocolError,
			Detail: fmt.Sprintf("unexpected packet ID 0x%02X", id),
		}}
	}

	payload, err := ReadString(bytes.NewReader(body))
	if err != nil {
		return Result{Failure: &Failure{
			Reason: ReasonProtocolError,
			Detail: fmt.Sprintf("status response body: %v", err),
		}}
	}

	status, err := decodeStatus(payload)
	if err != nil {
		return Result{Failure: &Failure{
			Reason: ReasonProtocolError,
			Detail: err.Error(),
		}}
	}

	status.RemoteAddr = conn.RemoteAddr().String()
	status.LatencyMS = float64(time.Since(start)) / float64(time.Millisecond)

	return Result{Status: status}
}

// classifyDialError maps a dial error onto the failure taxonomy: DNS errors
// first, then deadline expiry, then refusal (which also covers the rest of
// the unreachable family).
func classifyDialError(err error) *Failure {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return &Failure{Reason: ReasonDNSFailure, Detail: dnsErr.Error()}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &Failure{Reason: ReasonConnectTimeout, Detail: err.Error()}
	}

	return &Failure{Reason: ReasonConnectionRefused, Detail: err.Error()}
}

// classifyExchangeError maps read/write errors after the connection is up.
// Deadline expiry becomes ReadTimeout; anything else, including truncated or
// malformed framing, is a protocol error.
func classifyExchangeError(err error, op string) *Failure {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &Failure{Reason: ReasonReadTimeout, Detail: op + ": " + err.Error()}
	}

	return &Failure{Reason: ReasonProtocolError, Detail: op + ": " + err.Error()}
}
