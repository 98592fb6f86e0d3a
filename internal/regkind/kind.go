// Package regkind names the four Modbus address spaces this module reads
// and writes. Every planning, caching and transport component keys off
// this type instead of a raw function code; each caller picks the
// transport.Client read method (one per Modbus function code) by
// switching on the Kind.
package regkind

// Kind is one of the four Modbus source types.
type Kind int

const (
	Coil Kind = iota
	DiscreteInput
	HoldingRegister
	InputRegister
)

func (k Kind) String() string {
	switch k {
	case Coil:
		return "coil"
	case DiscreteInput:
		return "discrete_input"
	case HoldingRegister:
		return "holding_register"
	case InputRegister:
		return "input_register"
	default:
		return "unknown"
	}
}

// Bit reports whether values of this kind are single bits rather than
// 16-bit words.
func (k Kind) Bit() bool {
	return k == Coil || k == DiscreteInput
}

// Writable reports whether the host may issue setpoint writes against
// this source kind.
func (k Kind) Writable() bool {
	return k == Coil || k == HoldingRegister
}
