package entity

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/tamzrod/modbus-core/internal/codec"
	"github.com/tamzrod/modbus-core/internal/mapbuilder"
	"github.com/tamzrod/modbus-core/internal/regkind"
	"github.com/tamzrod/modbus-core/internal/transport"
)

// Write executes a setpoint write against this entity per SPEC_FULL.md
// §4.5. valueString is parsed with shopspring/decimal before conversion
// to float64; a string decimal.NewFromString rejects is reported as a
// not-writable error.
func (e *Entity) Write(tr transport.Client, valueString string) error {
	switch e.Kind {
	case regkind.DiscreteInput, regkind.InputRegister:
		return errNotWritable
	case regkind.Coil:
		return e.writeCoil(tr, valueString)
	case regkind.HoldingRegister:
		if e.isScalar {
			return e.writeScalarRegister(tr, valueString)
		}
		return e.writeCompositeRegister(tr, valueString)
	default:
		return fmt.Errorf("entity: unknown kind %v", e.Kind)
	}
}

func parseValue(valueString string) (float64, error) {
	d, err := decimal.NewFromString(valueString)
	if err != nil {
		return 0, fmt.Errorf("entity: not writable: %w", err)
	}
	f, _ := d.Float64()
	return f, nil
}

func (e *Entity) writeCoil(tr transport.Client, valueString string) error {
	v, err := parseValue(valueString)
	if err != nil {
		return err
	}
	return tr.WriteSingleCoil(e.registerNo, v != 0)
}

func (e *Entity) writeScalarRegister(tr transport.Client, valueString string) error {
	v, err := parseValue(valueString)
	if err != nil {
		return err
	}
	if e.scale == 0 {
		return fmt.Errorf("entity: not writable: scale is zero")
	}
	rounded := codec.Round((v-e.offset)/e.scale, e.scale, 16)
	u := uint64(math.Round(rounded))
	return tr.WriteSingleRegister(e.registerNo, uint16(u&0xFFFF))
}

func (e *Entity) writeCompositeRegister(tr transport.Client, valueString string) error {
	n := len(e.registers)
	var u uint64

	if e.flags.Has(mapbuilder.FlagFloat) {
		v, err := parseValue(valueString)
		if err != nil {
			return err
		}
		f := float32((v - e.offset) / e.scale)
		u = codec.Float32ToLowBits(f)
	} else {
		v, err := parseValue(valueString)
		if err != nil {
			return err
		}
		if e.scale == 0 {
			return fmt.Errorf("entity: not writable: scale is zero")
		}
		rounded := codec.Round((v-e.offset)/e.scale, e.scale, 16)
		u = uint64(math.Round(rounded))
	}

	// Swaps are self-inverse: apply the same transform to encode.
	if e.flags.Has(mapbuilder.FlagSwapWords) {
		u = codec.SwapWords(u)
	}
	if e.flags.Has(mapbuilder.FlagSwapBytes) {
		u = codec.SwapBytes(u)
	}

	words := make([]uint16, n)
	for i := 0; i < n; i++ {
		words[i] = uint16((u >> uint(16*i)) & 0xFFFF)
	}

	switch contiguity(e.registers) {
	case ascending:
		return tr.WriteMultipleRegisters(e.registers[0], words)
	case descending:
		reversedAddr := e.registers[n-1]
		reversedWords := make([]uint16, n)
		for i := 0; i < n; i++ {
			reversedWords[i] = words[n-1-i]
		}
		return tr.WriteMultipleRegisters(reversedAddr, reversedWords)
	default:
		for i, addr := range e.registers {
			if err := tr.WriteSingleRegister(addr, words[i]); err != nil {
				return err
			}
		}
		return nil
	}
}

type contiguityKind int

const (
	notContiguous contiguityKind = iota
	ascending
	descending
)

// contiguity classifies a register list per §4.5's write-path dispatch:
// strictly ascending and contiguous, strictly descending and contiguous,
// or neither.
func contiguity(regs []uint16) contiguityKind {
	if len(regs) < 2 {
		return ascending
	}
	asc, desc := true, true
	for i := 1; i < len(regs); i++ {
		if regs[i] != regs[i-1]+1 {
			asc = false
		}
		if regs[i] != regs[i-1]-1 {
			desc = false
		}
	}
	switch {
	case asc:
		return ascending
	case desc:
		return descending
	default:
		return notContiguous
	}
}
