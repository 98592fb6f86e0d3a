// internal/config/normalize.go
package config

import "strings"

// Normalize applies post-validation normalization.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	cfg.Address = strings.TrimSpace(cfg.Address)
	cfg.Device = strings.TrimSpace(cfg.Device)
	cfg.Asset = strings.TrimSpace(cfg.Asset)

	if cfg.Protocol == ProtocolTCP {
		cfg.Device = ""
		cfg.Baud, cfg.Bits, cfg.StopBits = 0, 0, 0
		cfg.Parity = ""
	} else {
		cfg.Address = ""
		cfg.Port = 0
	}
}
