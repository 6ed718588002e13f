package slp

// Reason classifies why a probe could not produce a status.
type Reason uint8

const (
	// ReasonDNSFailure means the hostname did not resolve.
	ReasonDNSFailure Reason = iota + 1

	// ReasonConnectionRefused means the endpoint actively refused the
	// connection (or was otherwise unreachable without timing out).
	ReasonConnectionRefused

	// ReasonConnectTimeout means the deadline passed before the TCP
	// connection was established.
	ReasonConnectTimeout

	// ReasonReadTimeout means the deadline passed during the status exchange.
	ReasonReadTimeout

	// ReasonProtocolError means the peer sent something that is not a valid
	// status response: bad framing, wrong packet ID, or malformed JSON.
	ReasonProtocolError
)

var reasonNames = map[Reason]string{
	ReasonDNSFailure:        "dns_failure",
	ReasonConnectionRefused: "connection_refused",
	ReasonConnectTimeout:    "connect_timeout",
	ReasonReadTimeout:       "read_timeout",
	ReasonProtocolError:     "protocol_error",
}

func (r Reason) String() string {
	if name, ok := reasonNames[r]; ok {
		return name
	}
	return "unknown"
}

// MarshalText makes Reason render as its name in JSON bodies.
func (r Reason) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText parses a reason name back into its enum value. Unknown names
// decode to the zero Reason rather than failing the whole document.
func (r *Reason) UnmarshalText(text []byte) error {
	for value, name := range reasonNames {
		if name == string(text) {
			*r = value
			return nil
		}
	}
	*r = 0
	return nil
}

// Failure is the terminal outcome of an unsuccessful probe. It is data, not
// a fault: the probe recovers every failure path into one of these.
type Failure struct {
	Reason Reason `json:"reason"`
	Detail string `json:"detail,omitempty"`
}

func (f *Failure) Error() string {
	if f.Detail == "" {
		return f.Reason.String()
	}
	return f.Reason.String() + ": " + f.Detail
}

// SamplePlayer is one entry of the player sample advertised by the server.
// ID is the canonical UUID form, or empty when the server sent junk there.
type SamplePlayer struct {
	Name string `json:"name"`
	ID   string `json:"id,omitempty"`
}

// Status is a fully decoded status response. Either the whole payload
// decodes or the probe yields a Failure; there is no partial state.
type Status struct {
	// VersionName is the display version, e.g. "1.20.1".
	VersionName string `json:"version_name"`

	// Protocol is the raw protocol number as reported; unknown values are
	// legal and passed through.
	Protocol int `json:"protocol"`

	// MOTD is the description flattened to plain text, formatting codes
	// included as-is.
	MOTD string `json:"motd"`

	PlayersOnline int `json:"players_online"`
	PlayersMax    int `json:"players_max"`

	// Sample preserves the server's ordering.
	Sample []SamplePlayer `json:"sample,omitempty"`

	// Favicon is the base64 data URI as sent, empty when absent.
	Favicon string `json:"favicon,omitempty"`

	// RemoteAddr is the resolved endpoint the status was read from.
	RemoteAddr string `json:"remote_addr,omitempty"`

	// LatencyMS is the wall-clock duration of the whole exchange.
	LatencyMS float64 `json:"latency_ms"`
}

// SampleNames returns the sample player names in server order.
func (s *Status) SampleNames() []string {
	names := make([]string, len(s.Sample))
	for i, p := range s.Sample {
		names[i] = p.Name
	}
	return names
}

// Result is the outcome of one probe: exactly one of Status or Failure is set.
type Result struct {
	Status  *Status  `json:"result,omitempty"`
	Failure *Failure `json:"err,omitempty"`
}

// Online reports whether the probe decoded a status.
func (r Result) Online() bool {
	return r.Status != nil
}
