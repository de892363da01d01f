package types

// ------------------------
// Serial
// ------------------------

type Parity uint8

const (
	ParityNone Parity = iota
	ParityEven
	ParityOdd
)

func (p Parity) String() string {
	switch p {
	case ParityEven:
		return "even"
	case ParityOdd:
		return "odd"
	default:
		return "none"
	}
}

func (p Parity) MarshalJSON() ([]byte, error) { return []byte(`"` + p.String() + `"`), nil }

// LineFormat describes the wire format of a port. The Mini UART supports
// exactly one: 8 data bits, 1 stop bit, no parity.
type LineFormat struct {
	DataBits uint8  `json:"data_bits"`
	StopBits uint8  `json:"stop_bits"`
	Parity   Parity `json:"parity"`
}

// Format8N1 is the only line format the Mini UART core is configured for.
var Format8N1 = LineFormat{DataBits: 8, StopBits: 1, Parity: ParityNone}

// PortInfo is the retained info document published for a port.
type PortInfo struct {
	Port   string     `json:"port"`
	Baud   uint32     `json:"baud"`
	Format LineFormat `json:"format"`
}
