// Package transport implements the Transport Driver: it owns a single
// Modbus TCP or RTU connection, exposes it through a small Client
// interface, and classifies the errors that connection produces so the
// Poll Orchestrator can apply its recovery policy without knowing
// anything about sockets or serial lines.
//
// Grounded on internal's own former writer/modbus/client.go (kept
// EndpointClient shape: mutex-guarded, mutates SlaveId per call) and on
// original_source/modbus_south.cpp's createModbus/takeReading for the
// TCP-vs-RTU construction split and the error taxonomy.
package transport

import "time"

// Client is the Transport Driver contract consumed by the Cache Manager,
// entity codec and write path alike. Exactly one live implementation
// backs a Core at a time; tests use a hand-written fake.
type Client interface {
	Connect() error
	Close() error
	Connected() bool

	SelectSlave(id uint8)

	ReadCoils(addr, qty uint16) ([]bool, error)
	ReadDiscreteInputs(addr, qty uint16) ([]bool, error)
	ReadHoldingRegisters(addr, qty uint16) ([]uint16, error)
	ReadInputRegisters(addr, qty uint16) ([]uint16, error)

	WriteSingleCoil(addr uint16, value bool) error
	WriteSingleRegister(addr uint16, value uint16) error
	WriteMultipleRegisters(addr uint16, values []uint16) error
}

// TCPConfig binds a Client to a TCP endpoint.
type TCPConfig struct {
	Address string
	Port    int
	Timeout time.Duration
}

// RTUConfig binds a Client to a serial line.
type RTUConfig struct {
	Device   string
	Baud     int
	DataBits int
	StopBits int
	Parity   string // "none" | "odd" | "even"
	Timeout  time.Duration
}
