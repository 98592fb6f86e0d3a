package config

import "testing"

func TestBuild_DefaultsWhenEmpty(t *testing.T) {
	cfg, err := Build(map[string]string{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if cfg.Protocol != ProtocolRTU {
		t.Fatalf("expected default protocol RTU, got %v", cfg.Protocol)
	}
	if cfg.Asset != "modbus" || cfg.DefaultSlave != 1 || cfg.TimeoutSecs != 0.5 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestBuild_InvalidProtocolIsFatal(t *testing.T) {
	_, err := Build(map[string]string{"protocol": "BACNET"})
	if err == nil {
		t.Fatalf("expected fatal error for invalid protocol")
	}
}

func TestBuild_TCPOverrides(t *testing.T) {
	cfg, err := Build(map[string]string{
		"protocol": "tcp",
		"address":  "10.0.0.5",
		"port":     "502",
		"timeout":  "1.5",
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if cfg.Protocol != ProtocolTCP || cfg.Address != "10.0.0.5" || cfg.Port != 502 {
		t.Fatalf("unexpected TCP config: %+v", cfg)
	}
	if cfg.TimeoutSecs != 1.5 {
		t.Fatalf("expected timeout 1.5, got %v", cfg.TimeoutSecs)
	}
}

func TestBuild_UnparseableIntFallsBackToDefault(t *testing.T) {
	cfg, err := Build(map[string]string{"port": "not-a-number"})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if cfg.Port != defaultPort {
		t.Fatalf("expected fallback to default port, got %d", cfg.Port)
	}
}

func TestBuild_UnknownParityFallsBackToDefault(t *testing.T) {
	cfg, err := Build(map[string]string{"parity": "spooky"})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if cfg.Parity != ParityNone {
		t.Fatalf("expected fallback parity none, got %v", cfg.Parity)
	}
}

func TestBuild_MapAndControlMapDefaultToEmptyObject(t *testing.T) {
	cfg, err := Build(map[string]string{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if string(cfg.MapJSON) != "{}" || string(cfg.ControlMapJSON) != "{}" {
		t.Fatalf("expected empty JSON object defaults, got map=%s controlmap=%s", cfg.MapJSON, cfg.ControlMapJSON)
	}
}
