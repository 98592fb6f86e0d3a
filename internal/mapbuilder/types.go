package mapbuilder

import "github.com/tamzrod/modbus-core/internal/regkind"

// Flags is the subset of {FLOAT, SWAP_BYTES, SWAP_WORDS} carried by one
// binding.
type Flags uint8

const (
	FlagFloat Flags = 1 << iota
	FlagSwapBytes
	FlagSwapWords
)

func (f Flags) Has(bit Flags) bool { return f&bit != 0 }

// Binding is one parsed register-map entry: a complete, immutable
// candidate record built before any entity is constructed from it (see
// SPEC_FULL.md §4.1's note on the "last item added" latch — there is no
// latch here, every field is known before the record exists).
type Binding struct {
	AssetName     string
	DatapointName string
	SlaveID       uint16
	Kind          regkind.Kind

	IsScalar   bool
	RegisterNo uint16
	Registers  []uint16

	Scale, Offset float64
	Flags         Flags
}

// Addresses returns every register address this binding touches, in
// declaration order, for registration with the Cache Manager.
func (b Binding) Addresses() []uint16 {
	if b.IsScalar {
		return []uint16{b.RegisterNo}
	}
	return b.Registers
}
