// Command modbus-core-demo is a standalone harness exercising the core
// library the way a real host would, without being the host itself
// (SPEC_FULL.md §6, "Demo command"). It loads a YAML file, lowers it to
// the flat configuration keys core.New expects, wires a console logger
// and a Prometheus registry exposed over HTTP, and drives Poll on a
// ticker exactly as cmd/replicator/main.go drove poller.Poller.Run.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/tamzrod/modbus-core/internal/core"
	"github.com/tamzrod/modbus-core/internal/metrics"
)

// demoConfig mirrors the configuration key table of SPEC_FULL.md §6 in
// YAML shape, plus a poll_interval this harness alone needs.
type demoConfig struct {
	Protocol     string      `yaml:"protocol"`
	Address      string      `yaml:"address"`
	Port         int         `yaml:"port"`
	Device       string      `yaml:"device"`
	Baud         int         `yaml:"baud"`
	Bits         int         `yaml:"bits"`
	StopBits     int         `yaml:"stopbits"`
	Parity       string      `yaml:"parity"`
	Slave        int         `yaml:"slave"`
	Asset        string      `yaml:"asset"`
	Timeout      float64     `yaml:"timeout"`
	Map          interface{} `yaml:"map"`
	Control      string      `yaml:"control"`
	ControlMap   interface{} `yaml:"controlmap"`
	PollInterval float64     `yaml:"poll_interval"`
	MetricsAddr  string      `yaml:"metrics_addr"`
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: modbus-core-demo <config.yaml>")
		os.Exit(1)
	}

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	dc, err := loadDemoConfig(os.Args[1])
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}

	items, err := lowerToItems(dc)
	if err != nil {
		log.Fatal().Err(err).Msg("config lowering failed")
	}

	reg := prometheus.NewRegistry()
	m := metrics.New(reg, itemOr(items, "asset", "modbus"))

	c, err := core.New(items, log, m)
	if err != nil {
		log.Fatal().Err(err).Msg("core init failed")
	}

	metricsAddr := dc.MetricsAddr
	if metricsAddr == "" {
		metricsAddr = ":9116"
	}
	http.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	go func() {
		if err := http.ListenAndServe(metricsAddr, nil); err != nil {
			log.Warn().Err(err).Msg("metrics server stopped")
		}
	}()

	interval := time.Duration(dc.PollInterval * float64(time.Second))
	if interval <= 0 {
		interval = time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Info().Str("metrics_addr", metricsAddr).Dur("interval", interval).Msg("polling started")

	for range ticker.C {
		readings := c.Poll(ctx)
		if readings == nil {
			log.Error().Msg("poll: persistent failure, device unreachable")
			continue
		}
		for _, r := range readings {
			ev := log.Info().Str("asset", r.AssetName)
			for _, dp := range r.Datapoints {
				ev = ev.Float64(dp.Name, dp.Value)
			}
			ev.Msg("reading")
		}
	}
}

func loadDemoConfig(path string) (*demoConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var dc demoConfig
	if err := yaml.Unmarshal(raw, &dc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &dc, nil
}

// lowerToItems turns the typed YAML document into the flat
// map[string]string the core expects, matching the "configuration
// category parser" collaborator named in SPEC_FULL.md §1.
func lowerToItems(dc *demoConfig) (map[string]string, error) {
	items := map[string]string{}

	setIfNonZero := func(key, value string, zero bool) {
		if !zero {
			items[key] = value
		}
	}

	setIfNonZero("protocol", dc.Protocol, dc.Protocol == "")
	setIfNonZero("address", dc.Address, dc.Address == "")
	setIfNonZero("port", strconv.Itoa(dc.Port), dc.Port == 0)
	setIfNonZero("device", dc.Device, dc.Device == "")
	setIfNonZero("baud", strconv.Itoa(dc.Baud), dc.Baud == 0)
	setIfNonZero("bits", strconv.Itoa(dc.Bits), dc.Bits == 0)
	setIfNonZero("stopbits", strconv.Itoa(dc.StopBits), dc.StopBits == 0)
	setIfNonZero("parity", dc.Parity, dc.Parity == "")
	setIfNonZero("slave", strconv.Itoa(dc.Slave), dc.Slave == 0)
	setIfNonZero("asset", dc.Asset, dc.Asset == "")
	setIfNonZero("timeout", strconv.FormatFloat(dc.Timeout, 'f', -1, 64), dc.Timeout == 0)
	setIfNonZero("control", dc.Control, dc.Control == "")

	if dc.Map != nil {
		raw, err := json.Marshal(dc.Map)
		if err != nil {
			return nil, fmt.Errorf("map: %w", err)
		}
		items["map"] = string(raw)
	}
	if dc.ControlMap != nil {
		raw, err := json.Marshal(dc.ControlMap)
		if err != nil {
			return nil, fmt.Errorf("controlmap: %w", err)
		}
		items["controlmap"] = string(raw)
	}

	return items, nil
}

func itemOr(items map[string]string, key, fallback string) string {
	if v, ok := items[key]; ok && v != "" {
		return v
	}
	return fallback
}
