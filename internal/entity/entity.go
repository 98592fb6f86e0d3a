// Package entity implements the polymorphic entity described in
// SPEC_FULL.md §9 Design Notes: a single type dispatching on Kind
// instead of the source's four-class inheritance hierarchy
// (ModbusCoil/ModbusInputBits/ModbusRegister/ModbusInputRegister). It
// is the Entity Codec (§4.4) and half of the Write Path (§4.5); the
// other half, contiguity detection, lives in write.go.
package entity

import (
	"fmt"

	"github.com/tamzrod/modbus-core/internal/cache"
	"github.com/tamzrod/modbus-core/internal/mapbuilder"
	"github.com/tamzrod/modbus-core/internal/regkind"
)

// Entity is one built register-map binding, ready to read or write
// against a cache and a transport.
type Entity struct {
	AssetName     string
	DatapointName string
	SlaveID       uint16
	Kind          regkind.Kind

	isScalar   bool
	registerNo uint16
	registers  []uint16

	scale, offset float64
	flags         mapbuilder.Flags
}

// New constructs an Entity from a parsed Binding.
func New(b mapbuilder.Binding) *Entity {
	return &Entity{
		AssetName:     b.AssetName,
		DatapointName: b.DatapointName,
		SlaveID:       b.SlaveID,
		Kind:          b.Kind,
		isScalar:      b.IsScalar,
		registerNo:    b.RegisterNo,
		registers:     b.Registers,
		scale:         b.Scale,
		offset:        b.Offset,
		flags:         b.Flags,
	}
}

// Addresses returns every register address this entity touches.
func (e *Entity) Addresses() []uint16 {
	if e.isScalar {
		return []uint16{e.registerNo}
	}
	return e.registers
}

// RegisterWith records every address this entity touches with the
// Cache Manager, once per address, during map build.
func (e *Entity) RegisterWith(cm *cache.Manager) {
	for _, addr := range e.Addresses() {
		cm.RegisterItem(e.SlaveID, e.Kind, addr)
	}
}

// errNotWritable is returned by the write-side of read-only entities.
var errNotWritable = fmt.Errorf("entity: not writable")
