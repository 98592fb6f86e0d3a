// Package core wires the Map Builder, Cache Manager, Transport Driver,
// Entity Codec and Write Path into the single host-facing object named
// in SPEC_FULL.md §6: one Core per plugin instance, all state protected
// by its FIFO-fair configuration lock so poll/write/reconfigure/shutdown
// never interleave (SPEC_FULL.md §5).
//
// Grounded on cmd/replicator/main.go's per-unit wiring (poller + writer
// built from one config, driven by a ticker) and on
// original_source/modbus_south.cpp's ModbusPlugin, which owns exactly
// this set of collaborators behind one lock.
package core

import (
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/tamzrod/modbus-core/internal/cache"
	"github.com/tamzrod/modbus-core/internal/config"
	"github.com/tamzrod/modbus-core/internal/entity"
	"github.com/tamzrod/modbus-core/internal/lock"
	"github.com/tamzrod/modbus-core/internal/mapbuilder"
	"github.com/tamzrod/modbus-core/internal/metrics"
	"github.com/tamzrod/modbus-core/internal/transport"
)

const (
	errThreshold   = 2
	reconnectLimit = 2
	maxRetries     = 10
)

// Core is the Modbus core object: init/poll/write/reconfigure/shutdown.
type Core struct {
	log     zerolog.Logger
	metrics *metrics.Registry
	lockObj *lock.FIFOMutex

	cfg        *config.Config
	trIdentity string
	tr         transport.Client

	cacheMgr        *cache.Manager
	slaveOrder      []uint16
	entitiesBySlave map[uint16][]*entity.Entity
	writeMap        map[string]*entity.Entity
}

// New builds a Core from the host's flat configuration, failing only on
// the fatal-class errors of SPEC_FULL.md §7 (an invalid protocol value,
// a configuration value rejected by config.Validate, malformed map or
// controlmap JSON).
func New(items map[string]string, log zerolog.Logger, reg *metrics.Registry) (*Core, error) {
	c := &Core{log: log, metrics: reg, lockObj: lock.New(log)}
	if err := c.rebuild(items); err != nil {
		return nil, err
	}
	return c, nil
}

// rebuild parses items into a fresh Config, entity map and write map. It
// is the shared body of New and Reconfigure; Reconfigure holds lockObj
// while calling it, New calls it before the Core is returned to anyone.
func (c *Core) rebuild(items map[string]string) error {
	cfg, err := config.Build(items)
	if err != nil {
		return fmt.Errorf("core: %w", err)
	}
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("core: %w", err)
	}
	config.Normalize(cfg)

	cacheMgr := cache.NewManager(c.log)

	result, err := mapbuilder.Parse(cfg.MapJSON, cfg.DefaultSlave)
	if err != nil {
		return fmt.Errorf("core: %w", err)
	}
	for _, itemErr := range result.ItemErrors {
		c.log.Warn().Err(itemErr).Msg("core: map item dropped")
	}

	entitiesBySlave := make(map[uint16][]*entity.Entity)
	for _, b := range result.Bindings {
		e := entity.New(b)
		e.RegisterWith(cacheMgr)
		entitiesBySlave[b.SlaveID] = append(entitiesBySlave[b.SlaveID], e)
	}
	cacheMgr.Seal()

	slaveOrder := make([]uint16, 0, len(entitiesBySlave))
	for slave := range entitiesBySlave {
		slaveOrder = append(slaveOrder, slave)
	}
	sort.Slice(slaveOrder, func(i, j int) bool { return slaveOrder[i] < slaveOrder[j] })

	writeMap, err := c.buildWriteMap(cfg, entitiesBySlave)
	if err != nil {
		return err
	}

	identity := cfg.IdentityKey()
	if c.tr != nil && identity != c.trIdentity {
		c.tr.Close()
		c.tr = nil
	}

	c.cfg = cfg
	c.trIdentity = identity
	c.cacheMgr = cacheMgr
	c.entitiesBySlave = entitiesBySlave
	c.slaveOrder = slaveOrder
	c.writeMap = writeMap
	return nil
}

// buildWriteMap applies the control policy of SPEC_FULL.md §4.5: no
// write map, the read map reused as-is, or a dedicated controlmap
// parsed independently (its entities never touch the Cache Manager,
// since writes always go straight to the transport).
func (c *Core) buildWriteMap(cfg *config.Config, entitiesBySlave map[uint16][]*entity.Entity) (map[string]*entity.Entity, error) {
	writeMap := make(map[string]*entity.Entity)

	switch cfg.Control {
	case config.ControlNone:
		return writeMap, nil

	case config.ControlReuseReadMap:
		for _, entities := range entitiesBySlave {
			for _, e := range entities {
				writeMap[e.DatapointName] = e
			}
		}
		return writeMap, nil

	case config.ControlDedicatedMap:
		result, err := mapbuilder.Parse(cfg.ControlMapJSON, cfg.DefaultSlave)
		if err != nil {
			return nil, fmt.Errorf("core: controlmap: %w", err)
		}
		for _, itemErr := range result.ItemErrors {
			c.log.Warn().Err(itemErr).Msg("core: controlmap item dropped")
		}
		for _, b := range result.Bindings {
			writeMap[b.DatapointName] = entity.New(b)
		}
		return writeMap, nil

	default:
		return writeMap, nil
	}
}

// ensureTransport builds the transport on first use (or after an
// identity-changing reconfigure) and connects it if not already
// connected, per the Transport Driver contract of §4.3.
func (c *Core) ensureTransport() error {
	if c.tr == nil {
		tr, err := buildTransport(c.cfg)
		if err != nil {
			return err
		}
		c.tr = tr
	}
	if !c.tr.Connected() {
		if err := c.tr.Connect(); err != nil {
			return err
		}
	}
	return nil
}

func buildTransport(cfg *config.Config) (transport.Client, error) {
	timeout := time.Duration(cfg.TimeoutSecs * float64(time.Second))
	if cfg.Protocol == config.ProtocolTCP {
		return transport.NewTCP(transport.TCPConfig{
			Address: cfg.Address,
			Port:    cfg.Port,
			Timeout: timeout,
		})
	}
	return transport.NewRTU(transport.RTUConfig{
		Device:   cfg.Device,
		Baud:     cfg.Baud,
		DataBits: cfg.Bits,
		StopBits: cfg.StopBits,
		Parity:   string(cfg.Parity),
		Timeout:  timeout,
	})
}
