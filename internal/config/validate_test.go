package config

import "testing"

func baseTCP() *Config {
	return &Config{
		Protocol:     ProtocolTCP,
		Address:      "127.0.0.1",
		Port:         2222,
		DefaultSlave: 1,
		Asset:        "modbus",
		TimeoutSecs:  0.5,
		Control:      ControlNone,
	}
}

func baseRTU() *Config {
	return &Config{
		Protocol:     ProtocolRTU,
		Device:       "/dev/ttyUSB0",
		Baud:         9600,
		Bits:         8,
		StopBits:     1,
		Parity:       ParityNone,
		DefaultSlave: 1,
		Asset:        "modbus",
		TimeoutSecs:  0.5,
		Control:      ControlNone,
	}
}

func TestValidate_TCPAccepted(t *testing.T) {
	if err := Validate(baseTCP()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_RTUAccepted(t *testing.T) {
	if err := Validate(baseRTU()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_TCPPortOutOfRange(t *testing.T) {
	cfg := baseTCP()
	cfg.Port = 0
	if err := Validate(cfg); err == nil {
		t.Fatalf("expected error for out-of-range port")
	}
}

func TestValidate_RTUBadParity(t *testing.T) {
	cfg := baseRTU()
	cfg.Parity = "mark"
	if err := Validate(cfg); err == nil {
		t.Fatalf("expected error for invalid parity")
	}
}

func TestValidate_RTUBadStopBits(t *testing.T) {
	cfg := baseRTU()
	cfg.StopBits = 3
	if err := Validate(cfg); err == nil {
		t.Fatalf("expected error for invalid stopbits")
	}
}

func TestValidate_SlaveOutOfRange(t *testing.T) {
	cfg := baseTCP()
	cfg.DefaultSlave = 248
	if err := Validate(cfg); err == nil {
		t.Fatalf("expected error for out-of-range slave id")
	}
}

func TestValidate_UnknownControlPolicy(t *testing.T) {
	cfg := baseTCP()
	cfg.Control = "Sometimes"
	if err := Validate(cfg); err == nil {
		t.Fatalf("expected error for unknown control policy")
	}
}

func TestNormalize_TCPClearsRTUFields(t *testing.T) {
	cfg := baseTCP()
	cfg.Device = "leftover"
	cfg.Baud = 9600
	Normalize(cfg)
	if cfg.Device != "" || cfg.Baud != 0 {
		t.Fatalf("expected RTU fields cleared on TCP config, got %+v", cfg)
	}
}

func TestNormalize_RTUClearsTCPFields(t *testing.T) {
	cfg := baseRTU()
	cfg.Address = "127.0.0.1"
	cfg.Port = 2222
	Normalize(cfg)
	if cfg.Address != "" || cfg.Port != 0 {
		t.Fatalf("expected TCP fields cleared on RTU config, got %+v", cfg)
	}
}

func TestNormalize_TrimsWhitespace(t *testing.T) {
	cfg := baseTCP()
	cfg.Address = "  127.0.0.1  "
	cfg.Asset = " modbus "
	Normalize(cfg)
	if cfg.Address != "127.0.0.1" || cfg.Asset != "modbus" {
		t.Fatalf("expected trimmed fields, got %+v", cfg)
	}
}
