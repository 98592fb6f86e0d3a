package config

import (
	"strconv"
	"strings"
)

// defaults mirror SPEC_FULL.md §6's configuration key table.
const (
	defaultProtocol = ProtocolRTU
	defaultAddress  = "127.0.0.1"
	defaultPort     = 2222
	defaultBaud     = 9600
	defaultBits     = 8
	defaultStopBits = 1
	defaultParity   = ParityNone
	defaultSlave    = 1
	defaultAsset    = "modbus"
	defaultTimeout  = 0.5
	defaultControl  = ControlNone
)

// Build turns the host's flat key/value configuration into a typed
// Config. Only a protocol value other than TCP or RTU is fatal here; an
// absent or empty protocol takes the RTU default, and every other key
// falls back to its table default when
// absent or unparseable, since item-level recoverability for the map
// itself belongs to the map builder, not this layer.
func Build(items map[string]string) (*Config, error) {
	cfg := &Config{
		Protocol:     defaultProtocol,
		Address:      defaultAddress,
		Port:         defaultPort,
		Baud:         defaultBaud,
		Bits:         defaultBits,
		StopBits:     defaultStopBits,
		Parity:       defaultParity,
		DefaultSlave: defaultSlave,
		Asset:        defaultAsset,
		TimeoutSecs:  defaultTimeout,
		Control:      defaultControl,
	}

	if raw, ok := items["protocol"]; ok && raw != "" {
		p := Protocol(strings.ToUpper(raw))
		if p != ProtocolTCP && p != ProtocolRTU {
			return nil, &fatalError{key: "protocol", value: raw}
		}
		cfg.Protocol = p
	}

	if raw, ok := items["address"]; ok && raw != "" {
		cfg.Address = raw
	}
	cfg.Port = parseIntKey(items, "port", cfg.Port)

	if raw, ok := items["device"]; ok {
		cfg.Device = raw
	}
	cfg.Baud = parseIntKey(items, "baud", cfg.Baud)
	cfg.Bits = parseIntKey(items, "bits", cfg.Bits)
	cfg.StopBits = parseIntKey(items, "stopbits", cfg.StopBits)

	if raw, ok := items["parity"]; ok && raw != "" {
		switch Parity(strings.ToLower(raw)) {
		case ParityNone, ParityOdd, ParityEven:
			cfg.Parity = Parity(strings.ToLower(raw))
		}
	}

	cfg.DefaultSlave = uint16(parseIntKey(items, "slave", int(cfg.DefaultSlave)))

	if raw, ok := items["asset"]; ok && raw != "" {
		cfg.Asset = raw
	}

	cfg.TimeoutSecs = parseFloatKey(items, "timeout", cfg.TimeoutSecs)

	if raw, ok := items["map"]; ok {
		cfg.MapJSON = []byte(raw)
	} else {
		cfg.MapJSON = []byte("{}")
	}

	if raw, ok := items["control"]; ok && raw != "" {
		switch ControlPolicy(raw) {
		case ControlNone, ControlReuseReadMap, ControlDedicatedMap:
			cfg.Control = ControlPolicy(raw)
		}
	}

	if raw, ok := items["controlmap"]; ok {
		cfg.ControlMapJSON = []byte(raw)
	} else {
		cfg.ControlMapJSON = []byte("{}")
	}

	return cfg, nil
}

type fatalError struct {
	key, value string
}

func (e *fatalError) Error() string {
	return "config: invalid " + e.key + " " + strconv.Quote(e.value)
}

func parseIntKey(items map[string]string, key string, fallback int) int {
	raw, ok := items[key]
	if !ok || raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return fallback
	}
	return v
}

func parseFloatKey(items map[string]string, key string, fallback float64) float64 {
	raw, ok := items[key]
	if !ok || raw == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return fallback
	}
	return v
}
