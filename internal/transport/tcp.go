package transport

import (
	"errors"
	"fmt"
	"sync"

	"github.com/goburrow/modbus"
)

// tcpClient wraps a single Modbus TCP connection. It serialises access
// because SelectSlave mutates the shared handler's SlaveId field, the
// same reason internal/writer/modbus.EndpointClient carried a mutex.
type tcpClient struct {
	mu        sync.Mutex
	handler   *modbus.TCPClientHandler
	client    modbus.Client
	connected bool
}

// NewTCP builds a TCP transport bound to cfg. It does not connect; call
// Connect explicitly, matching the Transport Driver contract in
// SPEC_FULL.md §4.3.
func NewTCP(cfg TCPConfig) (Client, error) {
	if cfg.Address == "" {
		return nil, errors.New("transport: tcp address required")
	}
	endpoint := fmt.Sprintf("%s:%d", cfg.Address, cfg.Port)
	h := modbus.NewTCPClientHandler(endpoint)
	h.Timeout = cfg.Timeout
	return &tcpClient{handler: h, client: modbus.NewClient(h)}, nil
}

func (c *tcpClient) Connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.handler.Connect(); err != nil {
		return err
	}
	c.connected = true
	return nil
}

func (c *tcpClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connected = false
	return c.handler.Close()
}

func (c *tcpClient) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

func (c *tcpClient) SelectSlave(id uint8) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handler.SlaveId = id
}

func (c *tcpClient) ReadCoils(addr, qty uint16) ([]bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	data, err := c.client.ReadCoils(addr, qty)
	if err != nil {
		return nil, err
	}
	return unpackBits(data, int(qty)), nil
}

func (c *tcpClient) ReadDiscreteInputs(addr, qty uint16) ([]bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	data, err := c.client.ReadDiscreteInputs(addr, qty)
	if err != nil {
		return nil, err
	}
	return unpackBits(data, int(qty)), nil
}

func (c *tcpClient) ReadHoldingRegisters(addr, qty uint16) ([]uint16, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	data, err := c.client.ReadHoldingRegisters(addr, qty)
	if err != nil {
		return nil, err
	}
	return unpackRegisters(data), nil
}

func (c *tcpClient) ReadInputRegisters(addr, qty uint16) ([]uint16, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	data, err := c.client.ReadInputRegisters(addr, qty)
	if err != nil {
		return nil, err
	}
	return unpackRegisters(data), nil
}

func (c *tcpClient) WriteSingleCoil(addr uint16, value bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	v := uint16(0x0000)
	if value {
		v = 0xFF00
	}
	_, err := c.client.WriteSingleCoil(addr, v)
	return err
}

func (c *tcpClient) WriteSingleRegister(addr uint16, value uint16) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := c.client.WriteSingleRegister(addr, value)
	return err
}

func (c *tcpClient) WriteMultipleRegisters(addr uint16, values []uint16) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := c.client.WriteMultipleRegisters(addr, uint16(len(values)), packRegisters(values))
	return err
}
