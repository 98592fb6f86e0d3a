package core

import (
	"context"
	"sort"
	"time"

	"github.com/tamzrod/modbus-core/internal/entity"
	"github.com/tamzrod/modbus-core/internal/reading"
	"github.com/tamzrod/modbus-core/internal/transport"
)

// pollState holds the cycle-local counters that §9 Design Notes requires
// be reset at every Poll entry.
type pollState struct {
	softErrors int
	reconnects int
}

// Poll drives one poll cycle (SPEC_FULL.md §4.7). It returns nil to
// signal persistent failure (the reconnect count reached reconnectLimit), a
// non-nil empty slice when the transport could not be reached at all,
// and otherwise one Reading per asset name that produced a datapoint.
func (c *Core) Poll(ctx context.Context) []reading.Reading {
	ticket := c.lockObj.Lock()
	defer c.lockObj.Unlock(ticket)

	start := time.Now()
	st := &pollState{}

	if err := c.ensureTransport(); err != nil {
		c.log.Warn().Err(err).Msg("poll: transport unavailable")
		c.recordMetrics(start, st, 0)
		return []reading.Reading{}
	}

	stats := c.cacheMgr.Refresh(c.tr)

	byAsset := make(map[string]*reading.Reading)
	var assetOrder []string
	addDatapoint := func(assetName string, dp reading.Datapoint) {
		if assetName == "" {
			assetName = c.cfg.Asset
		}
		r, ok := byAsset[assetName]
		if !ok {
			r = &reading.Reading{AssetName: assetName}
			byAsset[assetName] = r
			assetOrder = append(assetOrder, assetName)
		}
		r.Datapoints = append(r.Datapoints, dp)
	}

	for _, slave := range c.slaveOrder {
		c.tr.SelectSlave(uint8(slave))
		for _, e := range c.entitiesBySlave[slave] {
			select {
			case <-ctx.Done():
				c.recordMetrics(start, st, stats.HitRatio())
				return collectReadings(byAsset, assetOrder)
			default:
			}

			v, err, persistent := c.readEntity(e, st)
			if err != nil {
				c.recordMetrics(start, st, stats.HitRatio())
				if persistent {
					return nil
				}
				return collectReadings(byAsset, assetOrder)
			}
			addDatapoint(e.AssetName, reading.Datapoint{Name: e.DatapointName, Value: v})
		}
	}

	c.recordMetrics(start, st, stats.HitRatio())
	return collectReadings(byAsset, assetOrder)
}

func (c *Core) recordMetrics(start time.Time, st *pollState, hitRatio float64) {
	c.metrics.ObservePoll(time.Since(start).Seconds(), st.softErrors, st.reconnects, hitRatio)
}

func collectReadings(byAsset map[string]*reading.Reading, assetOrder []string) []reading.Reading {
	sort.Strings(assetOrder)
	out := make([]reading.Reading, 0, len(assetOrder))
	for _, name := range assetOrder {
		out = append(out, *byAsset[name])
	}
	return out
}

// readEntity retries a single entity read up to maxRetries times,
// applying the failure classification and reconnect policy of §4.7.
// persistent reports whether the cycle-local reconnect counter crossed
// reconnectLimit, the condition under which Poll must return nil rather
// than whatever readings it has accumulated.
func (c *Core) readEntity(e *entity.Entity, st *pollState) (value float64, err error, persistent bool) {
	var lastErr error

	for attempt := 0; attempt < maxRetries; attempt++ {
		v, readErr := e.Read(c.cacheMgr, c.tr)
		if readErr == nil {
			return v, nil, false
		}
		lastErr = readErr

		class := transport.Classify(readErr)
		c.log.Warn().Err(readErr).Int("err_class", int(class)).
			Str("datapoint", e.DatapointName).Msg("poll: entity read failed")
		switch class {
		case transport.ClassOther:
			// Every occurrence closes and reconnects unconditionally;
			// errThreshold only gates whether the occurrence is also
			// promoted into the cycle-local reconnect tally that
			// reconnectLimit checks against.
			st.softErrors++
			c.tr.Close()
			c.tr.Connect()
			if st.softErrors < errThreshold {
				continue
			}
			st.softErrors = 0
			if c.countReconnect(st) {
				return 0, readErr, true
			}
		default:
			// EPIPE is soft: the underlying connection is assumed
			// already broken, so no explicit Close is issued for it.
			if transport.Classify(readErr) != transport.ClassEPIPE {
				c.tr.Close()
			}
			c.tr.Connect()
			st.softErrors = 0
			if c.countReconnect(st) {
				return 0, readErr, true
			}
		}
	}
	return 0, lastErr, false
}

// countReconnect tallies a forced reconnect against the cycle-local
// counter and reports whether it has reached reconnectLimit. The
// count-at-limit (not count-exceeding-limit) trigger matches §8
// scenario 5's wording: "after two forced reconnects ... poll returns
// null" describes the count reaching RECONNECT_LIMIT, not surpassing it.
func (c *Core) countReconnect(st *pollState) bool {
	st.reconnects++
	return st.reconnects >= reconnectLimit
}
