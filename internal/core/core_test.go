package core

import (
	"context"
	"errors"
	"fmt"
	"math"
	"syscall"
	"testing"

	"github.com/rs/zerolog"
)

type fakeClient struct {
	coils   map[uint16]bool
	holding map[uint16]uint16
	input   map[uint16]uint16

	connected   bool
	connectErr  error
	connectHits int
	closeHits   int

	// readErr, when set, is returned (wrapped) by every register read.
	readErr error

	writtenSingle map[uint16]uint16
	writtenBulk   []uint16
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		coils:         map[uint16]bool{},
		holding:       map[uint16]uint16{},
		input:         map[uint16]uint16{},
		connected:     true,
		writtenSingle: map[uint16]uint16{},
	}
}

func (f *fakeClient) Connect() error {
	f.connectHits++
	if f.connectErr != nil {
		return f.connectErr
	}
	f.connected = true
	return nil
}
func (f *fakeClient) Close() error { f.closeHits++; f.connected = false; return nil }
func (f *fakeClient) Connected() bool { return f.connected }
func (f *fakeClient) SelectSlave(id uint8) {}

func (f *fakeClient) ReadCoils(addr, qty uint16) ([]bool, error) {
	if f.readErr != nil {
		return nil, f.readErr
	}
	v, ok := f.coils[addr]
	if !ok {
		return nil, fmt.Errorf("no such coil %d", addr)
	}
	return []bool{v}, nil
}

func (f *fakeClient) ReadDiscreteInputs(addr, qty uint16) ([]bool, error) {
	return f.ReadCoils(addr, qty)
}

func (f *fakeClient) ReadHoldingRegisters(addr, qty uint16) ([]uint16, error) {
	if f.readErr != nil {
		return nil, f.readErr
	}
	v, ok := f.holding[addr]
	if !ok {
		return nil, fmt.Errorf("no such register %d", addr)
	}
	return []uint16{v}, nil
}

func (f *fakeClient) ReadInputRegisters(addr, qty uint16) ([]uint16, error) {
	if f.readErr != nil {
		return nil, f.readErr
	}
	v, ok := f.input[addr]
	if !ok {
		return nil, fmt.Errorf("no such input register %d", addr)
	}
	return []uint16{v}, nil
}

func (f *fakeClient) WriteSingleCoil(addr uint16, value bool) error {
	f.coils[addr] = value
	return nil
}

func (f *fakeClient) WriteSingleRegister(addr uint16, value uint16) error {
	f.writtenSingle[addr] = value
	return nil
}

func (f *fakeClient) WriteMultipleRegisters(addr uint16, values []uint16) error {
	f.writtenBulk = values
	return nil
}

func newTestCore(t *testing.T, items map[string]string) (*Core, *fakeClient) {
	t.Helper()
	c, err := New(items, zerolog.Nop(), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	fc := newFakeClient()
	c.tr = fc
	return c, fc
}

func TestPollScenarioOneSingleHoldingRegister(t *testing.T) {
	c, fc := newTestCore(t, map[string]string{
		"protocol": "TCP",
		"map":      `{"values":[{"name":"temp","slave":1,"register":100,"scale":0.1}]}`,
	})
	fc.holding[100] = 234

	readings := c.Poll(context.Background())
	if len(readings) != 1 {
		t.Fatalf("expected one reading, got %d", len(readings))
	}
	if readings[0].AssetName != "modbus" {
		t.Fatalf("expected default asset modbus, got %q", readings[0].AssetName)
	}
	if len(readings[0].Datapoints) != 1 || readings[0].Datapoints[0].Name != "temp" {
		t.Fatalf("unexpected datapoints: %+v", readings[0].Datapoints)
	}
	if math.Abs(readings[0].Datapoints[0].Value-23.4) > 1e-9 {
		t.Fatalf("got %v want 23.4", readings[0].Datapoints[0].Value)
	}
}

func TestPollPersistentFailureReturnsNilAfterTwoForcedReconnects(t *testing.T) {
	c, fc := newTestCore(t, map[string]string{
		"protocol": "TCP",
		"map":      `{"values":[{"name":"temp","slave":1,"register":100,"scale":0.1}]}`,
	})
	fc.readErr = fmt.Errorf("wrapped: %w", syscall.EPIPE)

	readings := c.Poll(context.Background())
	if readings != nil {
		t.Fatalf("expected nil (persistent failure), got %+v", readings)
	}
	if fc.connectHits < 2 {
		t.Fatalf("expected at least two forced reconnects, got %d", fc.connectHits)
	}
}

func TestPollTransportUnavailableReturnsEmptyNotNil(t *testing.T) {
	c, fc := newTestCore(t, map[string]string{
		"protocol": "TCP",
		"map":      `{"values":[{"name":"temp","slave":1,"register":100,"scale":0.1}]}`,
	})
	fc.connected = false
	fc.connectErr = fmt.Errorf("dial failed")

	readings := c.Poll(context.Background())
	if readings == nil {
		t.Fatalf("expected non-nil empty slice on transport-open failure")
	}
	if len(readings) != 0 {
		t.Fatalf("expected zero readings, got %+v", readings)
	}
}

func TestWriteWithReuseReadMapPolicy(t *testing.T) {
	c, fc := newTestCore(t, map[string]string{
		"protocol": "TCP",
		"map":      `{"values":[{"name":"temp","slave":1,"register":100,"scale":0.1}]}`,
		"control":  "Use Register Map",
	})

	if ok := c.Write("temp", "23.4"); !ok {
		t.Fatalf("expected write to succeed")
	}
	if fc.writtenSingle[100] != 234 {
		t.Fatalf("expected register 100 to hold 234, got %d", fc.writtenSingle[100])
	}
}

func TestWriteWithNoControlPolicyAlwaysFails(t *testing.T) {
	c, _ := newTestCore(t, map[string]string{
		"protocol": "TCP",
		"map":      `{"values":[{"name":"temp","slave":1,"register":100,"scale":0.1}]}`,
	})

	if ok := c.Write("temp", "23.4"); ok {
		t.Fatalf("expected write to fail under control=None")
	}
}

func TestPollClassOtherReconnectsOnEveryOccurrenceButCountsAtThreshold(t *testing.T) {
	c, fc := newTestCore(t, map[string]string{
		"protocol": "TCP",
		"map":      `{"values":[{"name":"temp","slave":1,"register":100,"scale":0.1}]}`,
	})
	fc.readErr = errors.New("some other failure")

	readings := c.Poll(context.Background())
	if readings != nil {
		t.Fatalf("expected nil (persistent failure), got %+v", readings)
	}
	// errThreshold=2, reconnectLimit=2: a reconnect is attempted on every
	// occurrence (so at least 4 by the time the cycle-counted tally
	// reaches the limit at occurrence 4), not gated behind errThreshold.
	if fc.connectHits < 4 {
		t.Fatalf("expected a reconnect attempt on every ClassOther occurrence, got %d", fc.connectHits)
	}
}

func TestReconfigureChangesAsset(t *testing.T) {
	c, fc := newTestCore(t, map[string]string{
		"protocol": "TCP",
		"map":      `{"values":[{"name":"temp","slave":1,"register":100,"scale":0.1}]}`,
		"asset":    "line1",
	})
	fc.holding[100] = 10

	readings := c.Poll(context.Background())
	if len(readings) != 1 || readings[0].AssetName != "line1" {
		t.Fatalf("expected asset line1, got %+v", readings)
	}

	if err := c.Reconfigure(map[string]string{
		"protocol": "TCP",
		"map":      `{"values":[{"name":"temp","slave":1,"register":100,"scale":0.1}]}`,
		"asset":    "line2",
	}); err != nil {
		t.Fatalf("Reconfigure: %v", err)
	}

	readings = c.Poll(context.Background())
	if len(readings) != 1 || readings[0].AssetName != "line2" {
		t.Fatalf("expected asset line2 after reconfigure, got %+v", readings)
	}
}
