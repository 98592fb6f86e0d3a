package cache

import "errors"

var errShortRead = errors.New("fake: short read")

// fakeClient is a hand-written transport.Client test double, in the
// style of this codebase's former poller_test.go/writer_test.go fakes
// rather than a generated mock.
type fakeClient struct {
	coils          map[uint16][]bool
	holding        map[uint16][]uint16
	holdingWindows map[uint16][]uint16
	input          map[uint16][]uint16
	holdingErr     error
	calls          int
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		coils:   map[uint16][]bool{},
		holding: map[uint16][]uint16{},
		input:   map[uint16][]uint16{},
	}
}

func (f *fakeClient) Connect() error        { return nil }
func (f *fakeClient) Close() error          { return nil }
func (f *fakeClient) Connected() bool       { return true }
func (f *fakeClient) SelectSlave(id uint8)  {}

func (f *fakeClient) ReadCoils(addr, qty uint16) ([]bool, error) {
	f.calls++
	v, ok := f.coils[addr]
	if !ok || uint16(len(v)) < qty {
		return nil, errShortRead
	}
	return v[:qty], nil
}

func (f *fakeClient) ReadDiscreteInputs(addr, qty uint16) ([]bool, error) {
	return f.ReadCoils(addr, qty)
}

func (f *fakeClient) ReadHoldingRegisters(addr, qty uint16) ([]uint16, error) {
	f.calls++
	if f.holdingErr != nil {
		return nil, f.holdingErr
	}
	v, ok := f.holding[addr]
	if !ok || uint16(len(v)) < qty {
		return nil, errShortRead
	}
	return v[:qty], nil
}

func (f *fakeClient) ReadInputRegisters(addr, qty uint16) ([]uint16, error) {
	f.calls++
	v, ok := f.input[addr]
	if !ok || uint16(len(v)) < qty {
		return nil, errShortRead
	}
	return v[:qty], nil
}

func (f *fakeClient) WriteSingleCoil(addr uint16, value bool) error          { return nil }
func (f *fakeClient) WriteSingleRegister(addr uint16, value uint16) error    { return nil }
func (f *fakeClient) WriteMultipleRegisters(addr uint16, values []uint16) error {
	return nil
}
