// internal/config/validate.go
package config

import "fmt"

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	switch cfg.Protocol {
	case ProtocolTCP:
		if cfg.Port < 1 || cfg.Port > 65535 {
			return fmt.Errorf("port %d out of range", cfg.Port)
		}
	case ProtocolRTU:
		if cfg.Baud <= 0 {
			return fmt.Errorf("baud %d must be positive", cfg.Baud)
		}
		if cfg.Bits != 7 && cfg.Bits != 8 {
			return fmt.Errorf("bits %d must be 7 or 8", cfg.Bits)
		}
		if cfg.StopBits != 1 && cfg.StopBits != 2 {
			return fmt.Errorf("stopbits %d must be 1 or 2", cfg.StopBits)
		}
		switch cfg.Parity {
		case ParityNone, ParityOdd, ParityEven:
		default:
			return fmt.Errorf("parity %q is not one of none|odd|even", cfg.Parity)
		}
	default:
		return fmt.Errorf("protocol %q is not one of TCP|RTU", cfg.Protocol)
	}

	if cfg.DefaultSlave < 1 || cfg.DefaultSlave > 247 {
		return fmt.Errorf("slave %d out of range 1-247", cfg.DefaultSlave)
	}
	if cfg.Asset == "" {
		return fmt.Errorf("asset must not be empty")
	}
	if cfg.TimeoutSecs < 0 {
		return fmt.Errorf("timeout %v must not be negative", cfg.TimeoutSecs)
	}

	switch cfg.Control {
	case ControlNone, ControlReuseReadMap, ControlDedicatedMap:
	default:
		return fmt.Errorf("control %q is not one of None|Use Register Map|Use Control Map", cfg.Control)
	}

	return nil
}
