package entity

import (
	"fmt"

	"github.com/tamzrod/modbus-core/internal/cache"
	"github.com/tamzrod/modbus-core/internal/codec"
	"github.com/tamzrod/modbus-core/internal/mapbuilder"
	"github.com/tamzrod/modbus-core/internal/regkind"
	"github.com/tamzrod/modbus-core/internal/transport"
)

// Read produces this entity's current value, consulting the cache first
// and falling back to a single-point transport read (SPEC_FULL.md §4.4).
// The returned value is always a float64: bit entities produce 0 or 1.
func (e *Entity) Read(cm *cache.Manager, tr transport.Client) (float64, error) {
	if e.Kind.Bit() {
		return e.readBitValue(cm, tr)
	}
	if e.isScalar {
		return e.readScalarValue(cm, tr)
	}
	return e.readCompositeValue(cm, tr)
}

func readBit(cm *cache.Manager, tr transport.Client, slave uint16, kind regkind.Kind, addr uint16) (bool, error) {
	if cm.IsCached(slave, kind, addr) {
		return cm.Cached(slave, kind, addr) != 0, nil
	}
	var bits []bool
	var err error
	if kind == regkind.Coil {
		bits, err = tr.ReadCoils(addr, 1)
	} else {
		bits, err = tr.ReadDiscreteInputs(addr, 1)
	}
	if err != nil {
		return false, err
	}
	if len(bits) < 1 {
		return false, fmt.Errorf("entity: short bit read at %d", addr)
	}
	return bits[0], nil
}

func readWord(cm *cache.Manager, tr transport.Client, slave uint16, kind regkind.Kind, addr uint16) (uint16, error) {
	if cm.IsCached(slave, kind, addr) {
		return cm.Cached(slave, kind, addr), nil
	}
	var words []uint16
	var err error
	if kind == regkind.HoldingRegister {
		words, err = tr.ReadHoldingRegisters(addr, 1)
	} else {
		words, err = tr.ReadInputRegisters(addr, 1)
	}
	if err != nil {
		return 0, err
	}
	if len(words) < 1 {
		return 0, fmt.Errorf("entity: short register read at %d", addr)
	}
	return words[0], nil
}

func (e *Entity) readBitValue(cm *cache.Manager, tr transport.Client) (float64, error) {
	b, err := readBit(cm, tr, e.SlaveID, e.Kind, e.registerNo)
	if err != nil {
		return 0, err
	}
	if b {
		return 1, nil
	}
	return 0, nil
}

// readScalarValue is the scalar-register path of §4.4. Both the cached
// and the directly-read branch use bits=8, matching the source's
// ModbusRegister::readItem for the non-vector case.
func (e *Entity) readScalarValue(cm *cache.Manager, tr transport.Client) (float64, error) {
	w, err := readWord(cm, tr, e.SlaveID, e.Kind, e.registerNo)
	if err != nil {
		return 0, err
	}
	y := e.offset + float64(w)*e.scale
	return codec.Round(y, e.scale, 8), nil
}

// readCompositeValue assembles the multi-register value, applies the
// swap transforms, and either reinterprets as float32 or scales/rounds
// as an integer, per §4.4.
func (e *Entity) readCompositeValue(cm *cache.Manager, tr transport.Client) (float64, error) {
	var u uint64
	for i, addr := range e.registers {
		w, err := readWord(cm, tr, e.SlaveID, e.Kind, addr)
		if err != nil {
			return 0, err
		}
		u |= uint64(w) << uint(16*i)
	}

	if e.flags.Has(mapbuilder.FlagSwapBytes) {
		u = codec.SwapBytes(u)
	}
	if e.flags.Has(mapbuilder.FlagSwapWords) {
		u = codec.SwapWords(u)
	}

	if e.flags.Has(mapbuilder.FlagFloat) {
		f := codec.Float32FromLowBits(u)
		return e.offset + float64(f)*e.scale, nil
	}

	y := e.offset + float64(u)*e.scale
	return codec.Round(y, e.scale, 16), nil
}
