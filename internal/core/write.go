package core

// Write executes a setpoint write by datapoint name (SPEC_FULL.md §4.5).
// It reports success as a bool, matching the host-facing API of §6;
// classified detail goes to the logger, not the return value.
func (c *Core) Write(name, value string) bool {
	ticket := c.lockObj.Lock()
	defer c.lockObj.Unlock(ticket)

	e, ok := c.writeMap[name]
	if !ok {
		c.log.Warn().Str("datapoint", name).Msg("write: not writable")
		return false
	}

	if err := c.ensureTransport(); err != nil {
		c.log.Warn().Err(err).Str("datapoint", name).Msg("write: transport unavailable")
		return false
	}

	c.tr.SelectSlave(uint8(e.SlaveID))
	if err := e.Write(c.tr, value); err != nil {
		c.log.Warn().Err(err).Str("datapoint", name).Msg("write: failed")
		return false
	}
	return true
}
