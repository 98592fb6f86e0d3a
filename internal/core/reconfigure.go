package core

// Reconfigure tears down the entity map and write map under the
// configuration lock and rebuilds both, per SPEC_FULL.md §3's Lifecycle
// note. The transport is recreated only when identity-changing
// parameters moved (handled inside rebuild); in-flight polls or writes
// never observe a mixed map, since they hold the same lock.
func (c *Core) Reconfigure(items map[string]string) error {
	ticket := c.lockObj.Lock()
	defer c.lockObj.Unlock(ticket)
	return c.rebuild(items)
}

// Shutdown waits for the lock (so it never runs concurrently with an
// in-flight poll/write/reconfigure) and releases the transport.
func (c *Core) Shutdown() error {
	ticket := c.lockObj.Lock()
	defer c.lockObj.Unlock(ticket)

	if c.tr == nil {
		return nil
	}
	return c.tr.Close()
}
