package transport

import (
	"errors"
	"strings"
	"syscall"

	"github.com/goburrow/modbus"
)

// ErrClass is the failure classification the Poll Orchestrator switches
// on, per SPEC_FULL.md §4.7.
type ErrClass int

const (
	ClassOther ErrClass = iota
	ClassEPIPE
	ClassEINVAL
	ClassECONNRESET
	ClassBadData
)

// Classify inspects err and returns which recovery branch of §4.7
// applies. A *modbus.ModbusError is a protocol-level exception response
// (the goburrow/modbus analogue of libmodbus's EMBBADDATA) and is always
// bad-data; everything else is classified by the underlying syscall
// errno when one is present.
func Classify(err error) ErrClass {
	if err == nil {
		return ClassOther
	}

	var modbusErr *modbus.ModbusError
	if errors.As(err, &modbusErr) {
		return ClassBadData
	}

	switch {
	case errors.Is(err, syscall.EPIPE):
		return ClassEPIPE
	case errors.Is(err, syscall.EINVAL):
		return ClassEINVAL
	case errors.Is(err, syscall.ECONNRESET):
		return ClassECONNRESET
	}

	// goburrow/modbus reports frame-level problems (short frames, CRC
	// mismatch, transaction id mismatch) as plain fmt.Errorf strings
	// with no sentinel to match against; fall back to the message.
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "broken pipe"):
		return ClassEPIPE
	case strings.Contains(msg, "connection reset"):
		return ClassECONNRESET
	case strings.Contains(msg, "invalid argument"):
		return ClassEINVAL
	case strings.Contains(msg, "crc"), strings.Contains(msg, "bad data"),
		strings.Contains(msg, "does not match"), strings.Contains(msg, "mismatch"),
		strings.Contains(msg, "invalid response"), strings.Contains(msg, "unexpected function"):
		return ClassBadData
	}
	return ClassOther
}
